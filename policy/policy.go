// Package policy models a validation policy: the constraint levels,
// cryptographic constraints with algorithm expiration tables, the
// certificate chain model and the per-context overrides.
//
// A Policy is immutable once built by Parse, Load or Default. Constraint
// lookups are resolved at build time so the validation process only reads
// precomputed values.
package policy

import (
	"time"
)

// Context is the kind of token a constraint applies to.
type Context string

// Validation contexts.
const (
	ContextSignature        Context = "SIGNATURE"
	ContextCounterSignature Context = "COUNTER_SIGNATURE"
	ContextTimestamp        Context = "TIMESTAMP"
	ContextRevocation       Context = "REVOCATION"
	ContextEvidenceRecord   Context = "EVIDENCE_RECORD"
)

// Contexts lists every context.
var Contexts = []Context{
	ContextSignature, ContextCounterSignature, ContextTimestamp,
	ContextRevocation, ContextEvidenceRecord,
}

// SubContext distinguishes the certificates of a chain.
type SubContext string

// Certificate sub-contexts. SubContextNone addresses the token itself.
const (
	SubContextNone        SubContext = ""
	SubContextSigningCert SubContext = "SIGNING_CERT"
	SubContextCACert      SubContext = "CA_CERTIFICATE"
)

// CertificateConstraints are the checks applied to one certificate of a
// chain.
type CertificateConstraints struct {
	Cryptographic *CryptographicConstraint

	SignatureIntact          Level
	ValidityRange            Level
	KeyUsage                 Level
	KeyUsages                []string
	RevocationDataAvailable  Level
	RevocationDataAcceptable Level
	NotRevoked               Level
	NotOnHold                Level
	RevocationFreshness      Level
	// MaxFreshness overrides Policy.RevocationFreshness when positive.
	MaxFreshness time.Duration
}

func (c *CertificateConstraints) merge(parent *CertificateConstraints) *CertificateConstraints {
	if c == nil {
		c = &CertificateConstraints{}
	}
	if parent == nil {
		parent = &CertificateConstraints{}
	}
	out := &CertificateConstraints{
		SignatureIntact:          c.SignatureIntact.Or(parent.SignatureIntact),
		ValidityRange:            c.ValidityRange.Or(parent.ValidityRange),
		KeyUsage:                 c.KeyUsage.Or(parent.KeyUsage),
		KeyUsages:                c.KeyUsages,
		RevocationDataAvailable:  c.RevocationDataAvailable.Or(parent.RevocationDataAvailable),
		RevocationDataAcceptable: c.RevocationDataAcceptable.Or(parent.RevocationDataAcceptable),
		NotRevoked:               c.NotRevoked.Or(parent.NotRevoked),
		NotOnHold:                c.NotOnHold.Or(parent.NotOnHold),
		RevocationFreshness:      c.RevocationFreshness.Or(parent.RevocationFreshness),
		MaxFreshness:             c.MaxFreshness,
	}
	if out.KeyUsages == nil {
		out.KeyUsages = parent.KeyUsages
	}
	if out.MaxFreshness == 0 {
		out.MaxFreshness = parent.MaxFreshness
	}
	return out
}

// ContextConstraints are the constraints of one validation context.
type ContextConstraints struct {
	Cryptographic   *CryptographicConstraint
	ValidationLevel ValidationLevel

	SigningCertificateIdentified Level
	ReferenceDataFound           Level
	ReferenceDataIntact          Level
	SignatureIntact              Level
	ChainTrusted                 Level

	SigningCertificate *CertificateConstraints
	CACertificate      *CertificateConstraints
}

// Policy is a complete validation policy.
type Policy struct {
	Name        string
	Description string

	Model           Model
	ValidationLevel ValidationLevel
	// RevocationFreshness is the maximum accepted age of revocation data.
	// Zero means the data is fresh until its nextUpdate.
	RevocationFreshness time.Duration

	TimestampOrderLevel           Level
	EvidenceRecordConclusiveLevel Level
	TimestampConclusiveLevel      Level
	QualificationLevel            Level

	DefaultCryptographic *CryptographicConstraint
	Contexts             map[Context]*ContextConstraints

	resolved map[cryptoKey]*CryptographicConstraint
}

type cryptoKey struct {
	ctx Context
	sub SubContext
}

// Resolve precomputes the merged constraints of every context and
// sub-context. Parse, Load and Default call it; code building a Policy by
// hand should call it once before use.
func (p *Policy) Resolve() *Policy {
	p.resolved = make(map[cryptoKey]*CryptographicConstraint)
	for _, ctx := range Contexts {
		for _, sub := range []SubContext{SubContextNone, SubContextSigningCert, SubContextCACert} {
			p.resolved[cryptoKey{ctx, sub}] = p.mergeCryptographic(ctx, sub)
		}
	}
	return p
}

// Cryptographic returns the cryptographic constraint for a context and
// sub-context, merged field by field over the global constraint.
func (p *Policy) Cryptographic(ctx Context, sub SubContext) *CryptographicConstraint {
	if c, ok := p.resolved[cryptoKey{ctx, sub}]; ok {
		return c
	}
	return p.mergeCryptographic(ctx, sub)
}

func (p *Policy) mergeCryptographic(ctx Context, sub SubContext) *CryptographicConstraint {
	merged := p.DefaultCryptographic
	if merged == nil {
		merged = &CryptographicConstraint{Level: LevelFail}
	}
	cc := p.Contexts[ctx]
	if cc == nil {
		return merged.Merge(nil)
	}
	merged = cc.Cryptographic.Merge(merged)
	var cert *CertificateConstraints
	switch sub {
	case SubContextSigningCert:
		cert = cc.SigningCertificate
	case SubContextCACert:
		cert = cc.CACertificate
	}
	if cert != nil {
		merged = cert.Cryptographic.Merge(merged)
	}
	return merged
}

// Context returns the constraints of ctx. A missing context yields empty
// constraints, so every level falls back to its default.
func (p *Policy) Context(ctx Context) *ContextConstraints {
	if cc := p.Contexts[ctx]; cc != nil {
		return cc
	}
	return &ContextConstraints{}
}

// Certificate returns the certificate constraints for a sub-context of
// ctx. CA certificates inherit unset levels from the signing certificate
// constraints of the same context, except for the required key usages.
func (p *Policy) Certificate(ctx Context, sub SubContext) *CertificateConstraints {
	cc := p.Context(ctx)
	switch sub {
	case SubContextCACert:
		out := cc.CACertificate.merge(cc.SigningCertificate.merge(nil))
		out.KeyUsages = nil
		if cc.CACertificate != nil {
			out.KeyUsages = cc.CACertificate.KeyUsages
		}
		return out
	default:
		return cc.SigningCertificate.merge(nil)
	}
}

// EffectiveValidationLevel returns the level to run for ctx: the caller's
// level when set, then the context override, then the policy default, then
// ArchivalData.
func (p *Policy) EffectiveValidationLevel(ctx Context, requested ValidationLevel) ValidationLevel {
	return requested.
		Or(p.Context(ctx).ValidationLevel).
		Or(p.ValidationLevel).
		Or(ArchivalData)
}

// ChainModel returns the configured model, SHELL when unset.
func (p *Policy) ChainModel() Model {
	if p.Model == "" {
		return ModelShell
	}
	return p.Model
}

// FreshnessFor returns the maximum revocation data age for a certificate
// constraint set. Zero means nextUpdate-based freshness.
func (p *Policy) FreshnessFor(c *CertificateConstraints) time.Duration {
	if c != nil && c.MaxFreshness > 0 {
		return c.MaxFreshness
	}
	return p.RevocationFreshness
}
