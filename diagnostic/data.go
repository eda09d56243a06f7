// Package diagnostic holds the read-only facts graph consumed by the
// validation process: certificates, revocation data, signatures,
// timestamps and evidence records with their cross references.
//
// A Data value is built once, indexed with Index and never modified by
// the validation process afterwards.
package diagnostic

import (
	"sort"
	"time"

	"github.com/georgepadayatti/goades/algorithms"
)

// Data is one diagnostic data snapshot.
type Data struct {
	ValidationDate  time.Time         `json:"validationDate"`
	Certificates    []*Certificate    `json:"certificates,omitempty"`
	Revocations     []*Revocation     `json:"revocations,omitempty"`
	Signatures      []*Signature      `json:"signatures,omitempty"`
	Timestamps      []*Timestamp      `json:"timestamps,omitempty"`
	EvidenceRecords []*EvidenceRecord `json:"evidenceRecords,omitempty"`

	certificates    map[string]*Certificate
	revocations     map[string]*Revocation
	signatures      map[string]*Signature
	timestamps      map[string]*Timestamp
	evidenceRecords map[string]*EvidenceRecord

	coveringTimestamps map[string][]*Timestamp
	coveringRecords    map[string][]*EvidenceRecord
	referencedTS       map[string]bool
}

// ItemKind is the kind of a top-level validation item.
type ItemKind string

// Item kinds.
const (
	KindSignature      ItemKind = "SIGNATURE"
	KindTimestamp      ItemKind = "TIMESTAMP"
	KindEvidenceRecord ItemKind = "EVIDENCE_RECORD"
)

// Item is a top-level validation target.
type Item struct {
	Kind ItemKind
	ID   string
}

// Index builds the lookup tables, validates every reference and resolves
// signature algorithm identifiers and missing key lengths. It must be
// called once before the data is used.
func (d *Data) Index() error {
	d.buildIndex()
	if err := d.validate(); err != nil {
		return err
	}
	d.normalize()
	return nil
}

func (d *Data) buildIndex() {
	d.certificates = make(map[string]*Certificate, len(d.Certificates))
	for _, c := range d.Certificates {
		d.certificates[c.ID] = c
	}
	d.revocations = make(map[string]*Revocation, len(d.Revocations))
	for _, r := range d.Revocations {
		d.revocations[r.ID] = r
	}
	d.signatures = make(map[string]*Signature, len(d.Signatures))
	for _, s := range d.Signatures {
		d.signatures[s.ID] = s
	}
	d.timestamps = make(map[string]*Timestamp, len(d.Timestamps))
	for _, t := range d.Timestamps {
		d.timestamps[t.ID] = t
	}
	d.evidenceRecords = make(map[string]*EvidenceRecord, len(d.EvidenceRecords))
	for _, e := range d.EvidenceRecords {
		d.evidenceRecords[e.ID] = e
	}

	d.coveringTimestamps = make(map[string][]*Timestamp)
	d.coveringRecords = make(map[string][]*EvidenceRecord)
	d.referencedTS = make(map[string]bool)
	for _, t := range d.Timestamps {
		for _, o := range t.TimestampedObjects {
			d.coveringTimestamps[o.ID] = append(d.coveringTimestamps[o.ID], t)
		}
	}
	for _, e := range d.EvidenceRecords {
		for _, o := range e.CoveredObjects {
			d.coveringRecords[o.ID] = appendRecord(d.coveringRecords[o.ID], e)
		}
		for _, id := range e.Timestamps {
			d.referencedTS[id] = true
		}
	}
	for _, t := range d.Timestamps {
		for _, id := range t.EvidenceRecords {
			if e, ok := d.evidenceRecords[id]; ok {
				d.coveringRecords[t.ID] = appendRecord(d.coveringRecords[t.ID], e)
			}
		}
	}
	for _, s := range d.Signatures {
		for _, id := range s.Timestamps {
			d.referencedTS[id] = true
		}
	}
}

func appendRecord(list []*EvidenceRecord, e *EvidenceRecord) []*EvidenceRecord {
	for _, x := range list {
		if x == e {
			return list
		}
	}
	return append(list, e)
}

// normalize resolves algorithm identifiers and fills key lengths from the
// signer's public key.
func (d *Data) normalize() {
	for _, c := range d.Certificates {
		issuer := c.SigningCertificate
		if c.SelfSigned || issuer == "" {
			issuer = c.ID
		}
		d.normalizeSignature(&c.Signature, issuer)
	}
	for _, r := range d.Revocations {
		d.normalizeSignature(&r.Signature, r.SigningCertificate)
	}
	for _, s := range d.Signatures {
		d.normalizeSignature(&s.Signature, s.SigningCertificate)
	}
	for _, t := range d.Timestamps {
		d.normalizeSignature(&t.Signature, t.SigningCertificate)
	}
}

func (d *Data) normalizeSignature(bs *BasicSignature, signer string) {
	if bs.SignatureAlgorithm != "" {
		if alg, ok := algorithms.SignatureByIdentifier(bs.SignatureAlgorithm); ok {
			bs.EncryptionAlgorithm = alg.Encryption
			if alg.Digest != "" {
				bs.DigestAlgorithm = alg.Digest
			}
		}
	}
	if bs.KeyLength == 0 && signer != "" {
		if c, ok := d.certificates[signer]; ok {
			bs.KeyLength = c.PublicKey.Size
		}
	}
}

// Certificate returns the certificate with the given id.
func (d *Data) Certificate(id string) (*Certificate, bool) {
	c, ok := d.certificates[id]
	return c, ok
}

// Revocation returns the revocation data with the given id.
func (d *Data) Revocation(id string) (*Revocation, bool) {
	r, ok := d.revocations[id]
	return r, ok
}

// Signature returns the signature with the given id.
func (d *Data) Signature(id string) (*Signature, bool) {
	s, ok := d.signatures[id]
	return s, ok
}

// Timestamp returns the timestamp with the given id.
func (d *Data) Timestamp(id string) (*Timestamp, bool) {
	t, ok := d.timestamps[id]
	return t, ok
}

// EvidenceRecord returns the evidence record with the given id.
func (d *Data) EvidenceRecord(id string) (*EvidenceRecord, bool) {
	e, ok := d.evidenceRecords[id]
	return e, ok
}

// Chain returns the certificate and its issuers, leaf first, following
// issuer links until a trusted or self-signed certificate, a missing
// issuer or a loop.
func (d *Data) Chain(id string) []*Certificate {
	var chain []*Certificate
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		c, ok := d.certificates[id]
		if !ok {
			break
		}
		seen[id] = true
		chain = append(chain, c)
		if c.Trusted || c.SelfSigned {
			break
		}
		id = c.SigningCertificate
	}
	return chain
}

// SignatureTimestamps returns the timestamps attached to a signature in
// declaration order.
func (d *Data) SignatureTimestamps(s *Signature) []*Timestamp {
	var out []*Timestamp
	for _, id := range s.Timestamps {
		if t, ok := d.timestamps[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// RecordTimestamps returns the timestamps of an evidence record in order.
func (d *Data) RecordTimestamps(e *EvidenceRecord) []*Timestamp {
	var out []*Timestamp
	for _, id := range e.Timestamps {
		if t, ok := d.timestamps[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// CoveringTimestamps returns the timestamps covering the token id.
func (d *Data) CoveringTimestamps(id string) []*Timestamp {
	return d.coveringTimestamps[id]
}

// CoveringEvidenceRecords returns the evidence records covering the
// token id.
func (d *Data) CoveringEvidenceRecords(id string) []*EvidenceRecord {
	return d.coveringRecords[id]
}

// CoveredObjects returns the ids of the tokens covered by a timestamp or
// an evidence record.
func (d *Data) CoveredObjects(id string) []string {
	var out []string
	if t, ok := d.timestamps[id]; ok {
		for _, o := range t.TimestampedObjects {
			out = append(out, o.ID)
		}
	}
	if e, ok := d.evidenceRecords[id]; ok {
		for _, o := range e.CoveredObjects {
			out = append(out, o.ID)
		}
	}
	for _, t := range d.Timestamps {
		for _, er := range t.EvidenceRecords {
			if er == id && !contains(out, t.ID) {
				out = append(out, t.ID)
			}
		}
	}
	return out
}

// TokenIDs returns the id of every token of the snapshot.
func (d *Data) TokenIDs() []string {
	ids := make([]string, 0, len(d.Certificates)+len(d.Revocations)+
		len(d.Signatures)+len(d.Timestamps)+len(d.EvidenceRecords))
	for _, c := range d.Certificates {
		ids = append(ids, c.ID)
	}
	for _, r := range d.Revocations {
		ids = append(ids, r.ID)
	}
	for _, s := range d.Signatures {
		ids = append(ids, s.ID)
	}
	for _, t := range d.Timestamps {
		ids = append(ids, t.ID)
	}
	for _, e := range d.EvidenceRecords {
		ids = append(ids, e.ID)
	}
	return ids
}

// Items returns the top-level validation items: every signature, every
// timestamp not attached to a signature or an evidence record, and every
// evidence record.
func (d *Data) Items() []Item {
	var items []Item
	for _, s := range d.Signatures {
		items = append(items, Item{Kind: KindSignature, ID: s.ID})
	}
	for _, t := range d.Timestamps {
		if !d.referencedTS[t.ID] {
			items = append(items, Item{Kind: KindTimestamp, ID: t.ID})
		}
	}
	for _, e := range d.EvidenceRecords {
		items = append(items, Item{Kind: KindEvidenceRecord, ID: e.ID})
	}
	return items
}

// RevocationsFor returns the revocation entries of a certificate with
// their revocation data, the most recently produced first.
func (d *Data) RevocationsFor(c *Certificate) []RevocationEntry {
	var out []RevocationEntry
	for _, cr := range c.Revocations {
		r, ok := d.revocations[cr.Revocation]
		if !ok {
			continue
		}
		out = append(out, RevocationEntry{Status: cr, Data: r})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Data.ProductionDate.After(out[j].Data.ProductionDate)
	})
	return out
}

// RevocationEntry pairs a certificate status with its revocation data.
type RevocationEntry struct {
	Status CertificateRevocation
	Data   *Revocation
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
