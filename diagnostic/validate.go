package diagnostic

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/georgepadayatti/goades/algorithms"
)

// Common errors
var (
	ErrInvalidDiagnosticData = errors.New("invalid diagnostic data")
	ErrNotIndexed            = fmt.Errorf("%w: not indexed", ErrInvalidDiagnosticData)
)

// InputError describes one problem of a diagnostic data snapshot.
type InputError struct {
	Token   string
	Message string
}

func (e *InputError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s", e.Token, e.Message)
	}
	return e.Message
}

// Unwrap returns ErrInvalidDiagnosticData.
func (e *InputError) Unwrap() error {
	return ErrInvalidDiagnosticData
}

type validator struct {
	d    *Data
	errs *multierror.Error
	ids  map[string]string
}

func (v *validator) fail(token, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &InputError{Token: token, Message: fmt.Sprintf(format, args...)})
}

// Validate checks that every token has a unique id, that mandatory fields
// are present and that every reference resolves inside the snapshot. All
// problems are reported in one error wrapping ErrInvalidDiagnosticData.
// Data that has not gone through Index is rejected with ErrNotIndexed.
func (d *Data) Validate() error {
	if d.certificates == nil {
		return ErrNotIndexed
	}
	return d.validate()
}

func (d *Data) validate() error {
	v := &validator{d: d, ids: make(map[string]string)}

	if d.ValidationDate.IsZero() {
		v.fail("", "missing validation date")
	}
	for i, c := range d.Certificates {
		v.certificate(i, c)
	}
	for i, r := range d.Revocations {
		v.revocation(i, r)
	}
	for i, s := range d.Signatures {
		v.signature(i, s)
	}
	for i, t := range d.Timestamps {
		v.timestamp(i, t)
	}
	for i, e := range d.EvidenceRecords {
		v.evidenceRecord(i, e)
	}
	return v.errs.ErrorOrNil()
}

func (v *validator) id(kind string, i int, id string) string {
	if id == "" {
		name := fmt.Sprintf("%s[%d]", kind, i)
		v.fail(name, "missing id")
		return name
	}
	if other, dup := v.ids[id]; dup {
		v.fail(id, "duplicate id, already used by a %s", other)
	}
	v.ids[id] = kind
	return id
}

func (v *validator) certRef(token, field, ref string) {
	if ref == "" {
		return
	}
	if _, ok := v.d.certificates[ref]; !ok {
		v.fail(token, "%s references unknown certificate %q", field, ref)
	}
}

func (v *validator) chain(token string, refs []string) {
	for _, ref := range refs {
		v.certRef(token, "certificateChain", ref)
	}
}

func (v *validator) basicSignature(token string, bs BasicSignature) {
	if bs.SignatureAlgorithm != "" {
		if _, ok := algorithms.SignatureByIdentifier(bs.SignatureAlgorithm); !ok {
			v.fail(token, "unknown signature algorithm %q", bs.SignatureAlgorithm)
		}
	}
}

func (v *validator) certificate(i int, c *Certificate) {
	token := v.id("certificate", i, c.ID)
	if c.NotBefore.IsZero() || c.NotAfter.IsZero() {
		v.fail(token, "missing validity period")
	} else if c.NotAfter.Before(c.NotBefore) {
		v.fail(token, "notAfter is before notBefore")
	}
	v.certRef(token, "signingCertificate", c.SigningCertificate)
	v.basicSignature(token, c.Signature)
	for _, cr := range c.Revocations {
		if _, ok := v.d.revocations[cr.Revocation]; !ok {
			v.fail(token, "revocation status references unknown revocation data %q", cr.Revocation)
		}
		if cr.Revoked && cr.RevocationDate == nil {
			v.fail(token, "revoked status without revocation date")
		}
	}
	for _, ts := range c.TrustServices {
		if ts.Start.IsZero() {
			v.fail(token, "trust service %s without start date", ts.Type)
		}
	}
}

func (v *validator) revocation(i int, r *Revocation) {
	token := v.id("revocation", i, r.ID)
	if r.Type != RevocationCRL && r.Type != RevocationOCSP {
		v.fail(token, "unknown revocation type %q", r.Type)
	}
	if r.ThisUpdate.IsZero() {
		v.fail(token, "missing thisUpdate")
	}
	v.certRef(token, "signingCertificate", r.SigningCertificate)
	v.chain(token, r.CertificateChain)
	v.basicSignature(token, r.Signature)
}

func (v *validator) signature(i int, s *Signature) {
	token := v.id("signature", i, s.ID)
	v.certRef(token, "signingCertificate", s.SigningCertificate)
	v.chain(token, s.CertificateChain)
	v.basicSignature(token, s.Signature)
	for _, ref := range s.Timestamps {
		if _, ok := v.d.timestamps[ref]; !ok {
			v.fail(token, "references unknown timestamp %q", ref)
		}
	}
	if s.CounterSignature {
		if s.Parent == "" {
			v.fail(token, "counter signature without parent")
		} else if _, ok := v.d.signatures[s.Parent]; !ok {
			v.fail(token, "parent references unknown signature %q", s.Parent)
		}
	}
}

func (v *validator) timestamp(i int, t *Timestamp) {
	token := v.id("timestamp", i, t.ID)
	if !t.Type.valid() {
		v.fail(token, "unknown timestamp type %q", t.Type)
	}
	if t.ProductionTime.IsZero() {
		v.fail(token, "missing production time")
	}
	v.certRef(token, "signingCertificate", t.SigningCertificate)
	v.chain(token, t.CertificateChain)
	v.basicSignature(token, t.Signature)
	for _, o := range t.TimestampedObjects {
		v.object(token, o)
	}
	for _, ref := range t.EvidenceRecords {
		if _, ok := v.d.evidenceRecords[ref]; !ok {
			v.fail(token, "references unknown evidence record %q", ref)
		}
	}
}

func (v *validator) evidenceRecord(i int, e *EvidenceRecord) {
	token := v.id("evidence record", i, e.ID)
	for _, ref := range e.Timestamps {
		if _, ok := v.d.timestamps[ref]; !ok {
			v.fail(token, "references unknown timestamp %q", ref)
		}
	}
	for _, o := range e.CoveredObjects {
		v.object(token, o)
	}
}

func (v *validator) object(token string, o TimestampedObject) {
	var ok bool
	switch o.Category {
	case CategorySignature:
		_, ok = v.d.signatures[o.ID]
	case CategoryTimestamp:
		_, ok = v.d.timestamps[o.ID]
	case CategoryCertificate:
		_, ok = v.d.certificates[o.ID]
	case CategoryRevocation:
		_, ok = v.d.revocations[o.ID]
	case CategoryEvidenceRecord:
		_, ok = v.d.evidenceRecords[o.ID]
	case CategorySignedData:
		ok = o.ID != ""
	default:
		v.fail(token, "unknown covered object category %q", o.Category)
		return
	}
	if !ok {
		v.fail(token, "covers unknown %s %q", o.Category, o.ID)
	}
}
