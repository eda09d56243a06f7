// Package xcv validates a certificate chain: trust anchor discovery and,
// for every certificate below the anchor, its signature, validity range,
// key usage, revocation status and cryptographic constraints at the
// control time selected by the chain model.
package xcv

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/sav"
)

// RevocationChecker runs the basic validation of revocation data used by
// a chain. Implementations are expected to memoize their results.
type RevocationChecker interface {
	CheckRevocation(r *diagnostic.Revocation) *process.Block
}

// Request describes one chain validation.
type Request struct {
	// Certificate is the id of the target certificate.
	Certificate string
	Context     policy.Context

	// RefTime is the time the chain is validated at.
	RefTime time.Time
	// CryptoTime is the time cryptographic constraints are evaluated at.
	CryptoTime time.Time
	// SigningTime is the proven signing time used for the leaf under the
	// CHAIN model, nil when the signing time is not proven.
	SigningTime *time.Time
}

// Result is the outcome of a chain validation.
type Result struct {
	Block *process.Block

	// Chain holds the certificates leaf first, ending with the trust
	// anchor when one was found.
	Chain []*diagnostic.Certificate
	// ControlTimes holds the control time of each certificate of Chain.
	ControlTimes []time.Time
	// Failed is the id of the first certificate whose validation failed.
	Failed string
}

// Conclusion returns the conclusion of the chain validation.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Validator validates certificate chains of one diagnostic data snapshot
// under one policy.
type Validator struct {
	Data        *diagnostic.Data
	Policy      *policy.Policy
	Revocations RevocationChecker
}

// New creates a chain validator. revocations may be nil, in which case
// revocation data is trusted when its signature is intact.
func New(data *diagnostic.Data, p *policy.Policy, revocations RevocationChecker) *Validator {
	return &Validator{Data: data, Policy: p, Revocations: revocations}
}

// Validate validates the chain of req.Certificate.
func (v *Validator) Validate(req Request) *Result {
	res := &Result{
		Block: process.NewBlock(process.BlockXCV, req.Certificate),
		Chain: v.Data.Chain(req.Certificate),
	}
	chain := process.NewChain(res.Block)

	trusted := len(res.Chain) > 0 && res.Chain[len(res.Chain)-1].Trusted
	chain.Check(process.Check{
		Level:         v.Policy.Context(req.Context).ChainTrusted,
		Question:      messages.New(messages.BBB_XCV_CCCBB),
		Answer:        messages.New(messages.BBB_XCV_CCCBB_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.NoCertificateChainFound,
	}, trusted)
	if chain.Stopped() {
		return res
	}

	res.ControlTimes = ControlTimes(res.Chain, v.Policy.ChainModel(), req.RefTime, req.SigningTime)
	subs := process.NewIndependentChain(res.Block)
	for i, cert := range res.Chain {
		if cert.Trusted {
			break
		}
		sub := v.validateCertificate(req, cert, i == 0, res.ControlTimes[i])
		subs.RunBlock(process.Check{
			Question: messages.New(messages.BBB_XCV_SUB),
			Answer:   messages.New(messages.BBB_XCV_SUB_ANS),
			ID:       cert.ID,
		}, sub)
		if res.Failed == "" && !res.Block.Conclusion.IsPassed() {
			res.Failed = cert.ID
		}
	}
	return res
}

// Certificate returns the SubXCV block of the certificate with the given
// id, nil when the certificate was not validated.
func (r *Result) Certificate(id string) *process.Block {
	for _, c := range r.Block.Children {
		if c.Type == process.BlockSubXCV && c.ID == id {
			return c
		}
	}
	return nil
}

// ControlTimes returns the time each certificate of chain is checked at
// under model. SHELL checks every certificate at refTime. CHAIN checks
// the leaf at the proven signingTime (refTime when unproven) and each
// issuer at the issuance of the certificate it signed. HYBRID checks the
// leaf at refTime and issuers like CHAIN.
func ControlTimes(chain []*diagnostic.Certificate, model policy.Model, refTime time.Time, signingTime *time.Time) []time.Time {
	times := make([]time.Time, len(chain))
	for i := range chain {
		switch {
		case model == policy.ModelShell || i == 0:
			times[i] = refTime
			if i == 0 && model == policy.ModelChain && signingTime != nil {
				times[i] = *signingTime
			}
		default:
			times[i] = chain[i-1].NotBefore
		}
	}
	return times
}

func (v *Validator) validateCertificate(req Request, cert *diagnostic.Certificate, leaf bool, controlTime time.Time) *process.Block {
	sub := policy.SubContextCACert
	position := messages.ACCM_POS_CA_CERT
	if leaf {
		sub = policy.SubContextSigningCert
		position = messages.ACCM_POS_SIG_CERT
	}
	constraints := v.Policy.Certificate(req.Context, sub)
	entries := v.Data.RevocationsFor(cert)

	b := process.NewBlock(process.BlockSubXCV, cert.ID)
	chain := process.NewChain(b)

	chain.Check(process.Check{
		Level:         constraints.SignatureIntact,
		Question:      messages.New(messages.BBB_XCV_ICSI),
		Answer:        messages.New(messages.BBB_XCV_ICSI_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.CertificateChainGeneralFailure,
	}, cert.Signature.Intact)

	validity := process.Check{
		Level:      constraints.ValidityRange,
		Question:   messages.New(messages.BBB_XCV_ICTIVRSC),
		Answer:     messages.New(messages.BBB_XCV_ICTIVRSC_ANS, controlTime),
		Indication: ades.Indeterminate,
		Info:       "control time: " + controlTime.UTC().Format(time.RFC3339),
	}
	switch {
	case controlTime.Before(cert.NotBefore):
		validity.SubIndication = ades.NotYetValid
	case controlTime.After(cert.NotAfter):
		validity.SubIndication = ades.OutOfBoundsNotRevoked
		if isRevoked(entries) {
			validity.SubIndication = ades.OutOfBoundsNoPOE
		}
	}
	chain.Check(validity, cert.ValidAt(controlTime))

	if leaf && len(constraints.KeyUsages) > 0 {
		chain.Check(process.Check{
			Level:         constraints.KeyUsage,
			Question:      messages.New(messages.BBB_XCV_ISCGKU),
			Answer:        messages.New(messages.BBB_XCV_ISCGKU_ANS, constraints.KeyUsages),
			Indication:    ades.Indeterminate,
			SubIndication: ades.ChainConstraintsFailure,
		}, hasAnyKeyUsage(cert, constraints.KeyUsages))
	}

	if cert.OCSPNoCheck {
		if !chain.Stopped() {
			b.Conclusion.AddInfo(messages.New(messages.BBB_XCV_OCSP_NO_CHECK))
		}
	} else {
		v.checkRevocation(chain, constraints, leaf, entries, controlTime)
	}

	if chain.Stopped() {
		return b
	}
	res := sav.Evaluate(sav.FromSignature(cert.ID, position, cert.Signature),
		v.Policy.Cryptographic(req.Context, sub), req.CryptoTime)
	chain.RunBlock(process.Check{
		Question: messages.New(messages.ACCM, messages.New(position)),
	}, res.Block)
	return b
}

func (v *Validator) checkRevocation(chain *process.Chain, constraints *policy.CertificateConstraints,
	leaf bool, entries []diagnostic.RevocationEntry, controlTime time.Time) {
	if chain.Stopped() {
		return
	}
	chain.Check(process.Check{
		Level:         constraints.RevocationDataAvailable,
		Question:      messages.New(messages.BBB_XCV_IRDPFC),
		Answer:        messages.New(messages.BBB_XCV_IRDPFC_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.TryLater,
	}, len(entries) > 0)
	if len(entries) == 0 {
		return
	}

	entry, trusted := v.selectRevocation(entries)
	chain.Check(process.Check{
		Level:         constraints.RevocationDataAcceptable,
		Question:      messages.New(messages.BBB_XCV_IRDTFC),
		Answer:        messages.New(messages.BBB_XCV_IRDTFC_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.TryLater,
		ID:            entry.Data.ID,
	}, trusted)

	status := entry.Status
	revokedAt := status.Revoked && status.RevocationDate != nil && !status.RevocationDate.After(controlTime)
	onHold := revokedAt && status.Reason == diagnostic.ReasonCertificateHold

	revoked := process.Check{
		Level:         constraints.NotRevoked,
		Question:      messages.New(messages.BBB_XCV_ISCR),
		Answer:        messages.New(messages.BBB_XCV_ISCR_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.RevokedNoPOE,
		ID:            entry.Data.ID,
	}
	if !leaf {
		revoked.SubIndication = ades.RevokedCANoPOE
	}
	if status.RevocationDate != nil {
		revoked.Info = "revocation time: " + status.RevocationDate.UTC().Format(time.RFC3339)
	}
	chain.Check(revoked, !revokedAt || onHold)

	chain.Check(process.Check{
		Level:         constraints.NotOnHold,
		Question:      messages.New(messages.BBB_XCV_ISCOH),
		Answer:        messages.New(messages.BBB_XCV_ISCOH_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.TryLater,
		ID:            entry.Data.ID,
	}, !onHold)

	chain.Check(process.Check{
		Level:         constraints.RevocationFreshness,
		Question:      messages.New(messages.BBB_XCV_IRIF),
		Answer:        messages.New(messages.BBB_XCV_IRIF_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.TryLater,
		ID:            entry.Data.ID,
	}, Fresh(entry.Data, controlTime, v.Policy.FreshnessFor(constraints)))
}

// selectRevocation returns the most recent trusted revocation entry, or
// the most recent entry when none is trusted.
func (v *Validator) selectRevocation(entries []diagnostic.RevocationEntry) (diagnostic.RevocationEntry, bool) {
	for _, e := range entries {
		if v.trusted(e.Data) {
			return e, true
		}
	}
	return entries[0], false
}

func (v *Validator) trusted(r *diagnostic.Revocation) bool {
	if v.Revocations == nil {
		return r.Signature.Intact
	}
	return v.Revocations.CheckRevocation(r).Conclusion.IsPassed()
}

// Fresh reports whether revocation data is fresh at controlTime. With a
// positive maxAge the data must have been issued at most maxAge before
// controlTime; otherwise controlTime must not be after its nextUpdate, or,
// without nextUpdate, not after its thisUpdate.
func Fresh(r *diagnostic.Revocation, controlTime time.Time, maxAge time.Duration) bool {
	if maxAge > 0 {
		return controlTime.Sub(r.ThisUpdate) <= maxAge
	}
	if r.NextUpdate != nil {
		return !controlTime.After(*r.NextUpdate)
	}
	return !r.ThisUpdate.Before(controlTime)
}

func isRevoked(entries []diagnostic.RevocationEntry) bool {
	for _, e := range entries {
		if e.Status.Revoked && e.Status.Reason != diagnostic.ReasonCertificateHold {
			return true
		}
	}
	return false
}

func hasAnyKeyUsage(cert *diagnostic.Certificate, usages []string) bool {
	for _, u := range usages {
		if cert.HasKeyUsage(u) {
			return true
		}
	}
	return false
}
