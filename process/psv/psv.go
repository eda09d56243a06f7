// Package psv implements past signature validation. An INDETERMINATE
// result whose cause is tied to the current time is re-examined at the
// earliest proof of existence of the token: past certificate validation
// gives a control time, the token must be proven to exist before it, and
// the basic building blocks run a second time at the POE time.
package psv

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/poe"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/sav"
	"github.com/georgepadayatti/goades/process/vts"
	"github.com/georgepadayatti/goades/process/xcv"
)

// Result is the outcome of past signature validation. The current-time
// result is always kept next to the POE-time result.
type Result struct {
	Block *process.Block

	Current *bbb.Result
	// PCV is nil when past validation was not triggered.
	PCV *vts.Result
	// Past is the second pass at POETime, nil when it did not run.
	Past    *bbb.Result
	POETime time.Time
}

// Conclusion returns the conclusion of past signature validation.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Triggered reports whether the current-time result was re-examined.
func (r *Result) Triggered() bool {
	return r.PCV != nil
}

// Applies reports whether c can be resolved by a proof of existence.
func Applies(c *ades.Conclusion) bool {
	return c.IsIndeterminate() && c.SubIndication.IsPOEDependent()
}

// Validator runs past signature validation with the building blocks of
// one bbb.Validator.
type Validator struct {
	blocks *bbb.Validator
	times  *vts.Validator
}

// New creates a validator sharing the caches of blocks.
func New(blocks *bbb.Validator) *Validator {
	return &Validator{
		blocks: blocks,
		times:  vts.New(blocks.Data(), blocks.Policy(), blocks),
	}
}

// Signature re-examines the current-time result of s.
func (v *Validator) Signature(s *diagnostic.Signature, current *bbb.Result, poes *poe.Tracker) *Result {
	return v.validate(s.ID, current, poes, func(at time.Time) *bbb.Result {
		return v.blocks.Signature(s, bbb.At(at))
	})
}

// Timestamp re-examines the current-time result of t.
func (v *Validator) Timestamp(t *diagnostic.Timestamp, current *bbb.Result, poes *poe.Tracker) *Result {
	return v.validate(t.ID, current, poes, func(at time.Time) *bbb.Result {
		return v.blocks.Timestamp(t, bbb.At(at))
	})
}

func (v *Validator) validate(id string, current *bbb.Result, poes *poe.Tracker, rerun func(time.Time) *bbb.Result) *Result {
	res := &Result{
		Block:   process.NewBlock(process.BlockPSV, id),
		Current: current,
	}
	c := current.Conclusion()
	if !Applies(c) {
		res.Block.Conclusion = c.Clone()
		return res
	}

	steps := process.NewChain(res.Block)
	var chain []*diagnostic.Certificate
	if current.XCV != nil {
		chain = current.XCV.Chain
	}
	res.PCV = v.times.Validate(current.Context, chain, poes.ValidationTime())
	steps.RunBlock(process.Check{
		Question: messages.New(messages.PSV_IPCVA),
		Answer:   messages.New(messages.PSV_IPCVA_ANS),
	}, res.PCV.Block)
	if steps.Stopped() {
		return res
	}

	controlTime := res.PCV.ControlTime
	res.POETime = poes.EarliestPOE(id)
	found := !res.POETime.After(controlTime)
	steps.Check(process.Check{
		Level:    policy.LevelInform,
		Question: messages.New(messages.PSV_ITPOSVAOBCT),
		Answer:   messages.New(messages.PSV_ITPOOBCT_ANS),
		Info:     "POE time: " + res.POETime.UTC().Format(time.RFC3339),
	}, found)
	if !found {
		steps.Check(process.Check{
			Question:      messages.New(messages.PSV_IPCVC),
			Answer:        messages.New(messages.PSV_IPCVC_ANS),
			Indication:    c.Indication.Block(),
			SubIndication: c.SubIndication,
		}, false)
		res.Block.Conclusion.Errors = append(res.Block.Conclusion.Errors, c.Errors...)
		return res
	}

	v.checkAtPOE(steps, current, res.POETime)
	if steps.Stopped() {
		return res
	}

	res.Past = rerun(res.POETime)
	steps.RunBlock(process.Check{
		Question: messages.New(messages.PSV_IPTVC),
		Answer:   messages.New(messages.PSV_IPTVC_ANS, res.POETime),
	}, res.Past.Block)
	return res
}

// checkAtPOE runs the check matching the sub-indication of the current
// result at the POE time.
func (v *Validator) checkAtPOE(steps *process.Chain, current *bbb.Result, at time.Time) {
	sub := current.Conclusion().SubIndication
	cert := failedCertificate(current)

	switch sub {
	case ades.OutOfBoundsNoPOE, ades.OutOfBoundsNotRevoked:
		if cert == nil {
			return
		}
		steps.Check(process.Check{
			Question:      messages.New(messages.TSV_IBSTAIDOSC),
			Answer:        messages.New(messages.TSV_IBSTAIDOSC_ANS),
			Indication:    ades.Failed,
			SubIndication: ades.NotYetValid,
			ID:            cert.ID,
		}, !at.Before(cert.NotBefore))
		steps.Check(process.Check{
			Question:      messages.New(messages.TSV_ISCNVABST),
			Answer:        messages.New(messages.TSV_ISCNVABST_ANS),
			Indication:    ades.Indeterminate,
			SubIndication: sub,
			ID:            cert.ID,
		}, !at.After(cert.NotAfter))

	case ades.RevokedNoPOE, ades.RevokedCANoPOE:
		if cert == nil {
			return
		}
		revoked := v.revocationDate(cert)
		steps.Check(process.Check{
			Question:      messages.New(messages.ADEST_IRTPTBST),
			Answer:        messages.New(messages.ADEST_IRTPTBST_ANS),
			Indication:    ades.Indeterminate,
			SubIndication: sub,
			ID:            cert.ID,
		}, revoked == nil || at.Before(*revoked))

	case ades.CryptoConstraintsFailureNoPOE:
		steps.Check(process.Check{
			Question:      messages.New(messages.TSV_WACRABST),
			Answer:        messages.New(messages.TSV_WACRABST_ANS),
			Indication:    ades.Indeterminate,
			SubIndication: sub,
		}, v.reliableAt(current, at))

	case ades.TryLater:
		steps.Check(process.Check{
			Question:      messages.New(messages.PSV_IRIFAPT),
			Answer:        messages.New(messages.PSV_IRIFAPT_ANS),
			Indication:    ades.Indeterminate,
			SubIndication: sub,
		}, v.freshAt(current, at))
	}
}

// failedCertificate returns the certificate whose chain validation failed,
// or the signing certificate.
func failedCertificate(r *bbb.Result) *diagnostic.Certificate {
	if r.XCV != nil && r.XCV.Failed != "" {
		for _, c := range r.XCV.Chain {
			if c.ID == r.XCV.Failed {
				return c
			}
		}
	}
	return r.SigningCertificate
}

func (v *Validator) revocationDate(cert *diagnostic.Certificate) *time.Time {
	for _, e := range v.blocks.Data().RevocationsFor(cert) {
		s := e.Status
		if s.Revoked && s.RevocationDate != nil && s.Reason != diagnostic.ReasonCertificateHold {
			return s.RevocationDate
		}
	}
	return nil
}

// reliableAt reports whether the token and every certificate of its chain
// use algorithms that were not expired at t.
func (v *Validator) reliableAt(r *bbb.Result, t time.Time) bool {
	if r.SAV != nil && r.SAV.Expired() && t.After(r.SAV.NotAfter) {
		return false
	}
	if r.XCV == nil {
		return true
	}
	p := v.blocks.Policy()
	for i, cert := range r.XCV.Chain {
		if cert.Trusted {
			break
		}
		sub, position := subContext(i == 0)
		res := sav.Evaluate(sav.FromSignature(cert.ID, position, cert.Signature), p.Cryptographic(r.Context, sub), t)
		if res.Expired() {
			return false
		}
	}
	return true
}

// freshAt reports whether every certificate of the chain has trusted
// revocation data fresh at t.
func (v *Validator) freshAt(r *bbb.Result, t time.Time) bool {
	if r.XCV == nil {
		return false
	}
	p := v.blocks.Policy()
	for i, cert := range r.XCV.Chain {
		if cert.Trusted {
			break
		}
		if cert.OCSPNoCheck {
			continue
		}
		sub, _ := subContext(i == 0)
		maxAge := p.FreshnessFor(p.Certificate(r.Context, sub))
		fresh := false
		for _, e := range v.blocks.Data().RevocationsFor(cert) {
			if xcv.Fresh(e.Data, t, maxAge) && v.blocks.CheckRevocation(e.Data).Conclusion.IsPassed() {
				fresh = true
				break
			}
		}
		if !fresh {
			return false
		}
	}
	return true
}

func subContext(leaf bool) (policy.SubContext, messages.Tag) {
	if leaf {
		return policy.SubContextSigningCert, messages.ACCM_POS_SIG_CERT
	}
	return policy.SubContextCACert, messages.ACCM_POS_CA_CERT
}
