// Package vts implements past certificate validation: the control time of
// a certificate chain is slid back from the validation time, from the
// trust anchor down to the target certificate, to the latest moment at
// which every certificate is known to be unrevoked, covered by fresh
// revocation data and signed with reliable algorithms.
package vts

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/sav"
	"github.com/georgepadayatti/goades/process/xcv"
)

// Result is the outcome of past certificate validation.
type Result struct {
	// Block is the PCV block holding the time sliding block.
	Block *process.Block
	// VTS is the time sliding block.
	VTS *process.Block
	// ControlTime is meaningful only when the block passed.
	ControlTime time.Time
}

// Conclusion returns the conclusion of past certificate validation.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Validator slides control times over chains of one snapshot.
type Validator struct {
	data        *diagnostic.Data
	policy      *policy.Policy
	revocations xcv.RevocationChecker
}

// New creates a validator. revocations decides which revocation data is
// trusted; nil trusts revocation data with an intact signature.
func New(data *diagnostic.Data, p *policy.Policy, revocations xcv.RevocationChecker) *Validator {
	return &Validator{data: data, policy: p, revocations: revocations}
}

// Validate runs past certificate validation of chain, leaf first, for a
// token of context ctx starting at validationTime.
func (v *Validator) Validate(ctx policy.Context, chain []*diagnostic.Certificate, validationTime time.Time) *Result {
	id := ""
	if len(chain) > 0 {
		id = chain[0].ID
	}
	res := &Result{
		Block:       process.NewBlock(process.BlockPCV, id),
		VTS:         process.NewBlock(process.BlockVTS, id),
		ControlTime: validationTime,
	}

	steps := process.NewChain(res.VTS)
	model := v.policy.ChainModel()
	for i := len(chain) - 1; i >= 0 && !steps.Stopped(); i-- {
		cert := chain[i]
		if cert.Trusted {
			continue
		}
		leaf := i == 0
		sub, position := policy.SubContextCACert, messages.ACCM_POS_CA_CERT
		if leaf {
			sub, position = policy.SubContextSigningCert, messages.ACCM_POS_SIG_CERT
		}
		if !cert.OCSPNoCheck {
			v.slideOnRevocation(steps, res, cert, leaf, model, v.policy.Certificate(ctx, sub))
			if steps.Stopped() {
				break
			}
		}

		crypto := sav.Evaluate(sav.FromSignature(cert.ID, position, cert.Signature),
			v.policy.Cryptographic(ctx, sub), res.ControlTime)
		if crypto.Expired() && crypto.NotAfter.Before(res.ControlTime) {
			res.ControlTime = crypto.NotAfter
			res.VTS.Conclusion.AddInfo(messages.New(messages.VTS_CTS_CRYPTO, crypto.ExpiredAlgorithm))
		}
	}

	process.NewChain(res.Block).RunBlock(process.Check{
		Question: messages.New(messages.PCV_IVTSC),
		Answer:   messages.New(messages.PCV_IVTSC_ANS),
		Info:     "control time: " + res.ControlTime.UTC().Format(time.RFC3339),
	}, res.VTS)
	return res
}

func (v *Validator) slideOnRevocation(steps *process.Chain, res *Result, cert *diagnostic.Certificate,
	leaf bool, model policy.Model, constraints *policy.CertificateConstraints) {
	entries := v.trustedEntries(cert)
	steps.Check(process.Check{
		Level:         constraints.RevocationDataAvailable,
		Question:      messages.New(messages.VTS_IRDPFC),
		Answer:        messages.New(messages.VTS_IRDPFC_ANS, cert.ID),
		Indication:    ades.Indeterminate,
		SubIndication: ades.NoPOE,
		ID:            cert.ID,
	}, len(entries) > 0)

	entry, ok := issuedBefore(entries, res.ControlTime)
	steps.Check(process.Check{
		Level:         constraints.RevocationDataAvailable,
		Question:      messages.New(messages.VTS_ICTBRD),
		Answer:        messages.New(messages.VTS_ICTBRD_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.NoPOE,
		ID:            cert.ID,
	}, ok)
	if !ok {
		return
	}

	status := entry.Status
	revoked := status.Revoked && status.RevocationDate != nil && status.Reason != diagnostic.ReasonCertificateHold
	switch {
	case revoked:
		if slides(model, leaf, status.Reason) && status.RevocationDate.Before(res.ControlTime) {
			res.ControlTime = *status.RevocationDate
			res.VTS.Conclusion.AddInfo(messages.New(messages.VTS_CTS_REVOKED, cert.ID))
		}
	case !xcv.Fresh(entry.Data, res.ControlTime, v.policy.FreshnessFor(constraints)):
		res.ControlTime = entry.Data.ThisUpdate
		res.VTS.Conclusion.AddInfo(messages.New(messages.VTS_CTS_STALE, entry.Data.ID))
	}
}

// slides reports whether a revocation moves the control time: always
// under SHELL, for CA certificates under HYBRID, and for a key compromise
// or an unspecified reason under every model.
func slides(model policy.Model, leaf bool, reason diagnostic.RevocationReason) bool {
	switch {
	case reason == diagnostic.ReasonKeyCompromise || reason == diagnostic.ReasonUnspecified:
		return true
	case model == policy.ModelShell:
		return true
	case model == policy.ModelHybrid:
		return !leaf
	}
	return false
}

func (v *Validator) trustedEntries(cert *diagnostic.Certificate) []diagnostic.RevocationEntry {
	var out []diagnostic.RevocationEntry
	for _, e := range v.data.RevocationsFor(cert) {
		if v.trusted(e.Data) {
			out = append(out, e)
		}
	}
	return out
}

func (v *Validator) trusted(r *diagnostic.Revocation) bool {
	if v.revocations == nil {
		return r.Signature.Intact
	}
	return v.revocations.CheckRevocation(r).Conclusion.IsPassed()
}

// issuedBefore returns the most recent entry produced at or before t.
// entries are sorted newest first.
func issuedBefore(entries []diagnostic.RevocationEntry, t time.Time) (diagnostic.RevocationEntry, bool) {
	for _, e := range entries {
		if !e.Data.ProductionDate.After(t) {
			return e, true
		}
	}
	return diagnostic.RevocationEntry{}, false
}
