// Package bbb runs the basic building blocks of a signature, timestamp or
// revocation data: identification of the signing certificate (ICS),
// cryptographic verification (CV), chain validation (XCV) and signature
// acceptance validation (SAV).
package bbb

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

// Times selects the reference time of chain validation and the time
// cryptographic constraints are evaluated at.
type Times struct {
	RefTime    time.Time
	CryptoTime time.Time
}

// At returns Times using t for both.
func At(t time.Time) Times {
	return Times{RefTime: t, CryptoTime: t}
}

// Result is the outcome of the basic building blocks of one token.
type Result struct {
	Block   *process.Block
	Context policy.Context

	// SigningCertificate is nil when ICS failed.
	SigningCertificate *diagnostic.Certificate
	XCV                *xcv.Result
	SAV                *sav.Result
	Times              Times
}

// Conclusion returns the conclusion of the building blocks.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Validator runs the building blocks over one snapshot. Revocation data
// results are memoized, so a Validator must not be shared between
// goroutines.
type Validator struct {
	data   *diagnostic.Data
	policy *policy.Policy
	chains *xcv.Validator

	revocations map[string]*process.Block
	inProgress  map[string]bool
}

// New creates a validator for data under p.
func New(data *diagnostic.Data, p *policy.Policy) *Validator {
	v := &Validator{
		data:        data,
		policy:      p,
		revocations: make(map[string]*process.Block),
		inProgress:  make(map[string]bool),
	}
	v.chains = xcv.New(data, p, v)
	return v
}

// Chains returns the chain validator sharing this validator's revocation
// cache.
func (v *Validator) Chains() *xcv.Validator {
	return v.chains
}

// Data returns the snapshot the validator reads.
func (v *Validator) Data() *diagnostic.Data {
	return v.data
}

// Policy returns the policy the validator applies.
func (v *Validator) Policy() *policy.Policy {
	return v.policy
}

// SignatureContext returns the policy context of s.
func SignatureContext(s *diagnostic.Signature) policy.Context {
	if s.CounterSignature {
		return policy.ContextCounterSignature
	}
	return policy.ContextSignature
}

// Signature validates the building blocks of s.
func (v *Validator) Signature(s *diagnostic.Signature, times Times) *Result {
	ctx := SignatureContext(s)
	cc := v.policy.Context(ctx)
	res := &Result{
		Block:   process.NewBlock(process.BlockBBB, s.ID),
		Context: ctx,
		Times:   times,
	}

	ics := v.identify(res, s.ID, s.SigningCertificate, cc)

	cv := process.NewBlock(process.BlockCV, s.ID)
	cvChain := process.NewChain(cv)
	for _, m := range s.DigestMatchers {
		cvChain.Check(process.Check{
			Level:         cc.ReferenceDataFound,
			Question:      messages.New(messages.BBB_CV_IRDOF),
			Answer:        messages.New(messages.BBB_CV_IRDOF_ANS, matcherName(m)),
			Indication:    ades.Indeterminate,
			SubIndication: ades.SignedDataNotFound,
			ID:            matcherName(m),
		}, m.DataFound)
		cvChain.Check(process.Check{
			Level:         cc.ReferenceDataIntact,
			Question:      messages.New(messages.BBB_CV_IRDOI),
			Answer:        messages.New(messages.BBB_CV_IRDOI_ANS, matcherName(m)),
			Indication:    ades.Failed,
			SubIndication: ades.HashFailure,
			ID:            matcherName(m),
		}, m.DataIntact)
	}
	v.checkIntact(cvChain, cc, s.Signature)

	if res.SigningCertificate != nil {
		res.XCV = v.chains.Validate(xcv.Request{
			Certificate: s.SigningCertificate,
			Context:     ctx,
			RefTime:     times.RefTime,
			CryptoTime:  times.CryptoTime,
			SigningTime: v.provenSigningTime(s, times),
		})
	}

	res.SAV = sav.Evaluate(sav.FromSignature(s.ID, messages.ACCM_POS_SIG_SIG, s.Signature),
		v.policy.Cryptographic(ctx, policy.SubContextNone), times.CryptoTime)
	for _, m := range s.DigestMatchers {
		if m.DigestAlgorithm == "" {
			continue
		}
		digest := sav.EvaluateDigest(matcherName(m), messages.ACCM_POS_REF, m.DigestAlgorithm,
			v.policy.Cryptographic(ctx, policy.SubContextNone), times.CryptoTime)
		merge(res.SAV, digest, messages.ACCM_POS_REF)
	}

	v.conclude(res, ics, cv, messages.ACCM_POS_SIG_SIG)
	return res
}

// provenSigningTime returns the earliest production time of the
// timestamps over s that pass their building blocks at times. The claimed
// signing time is not proof; nil is returned when no timestamp proves s.
func (v *Validator) provenSigningTime(s *diagnostic.Signature, times Times) *time.Time {
	var best *time.Time
	for _, t := range v.data.SignatureTimestamps(s) {
		if t.Type.IsContent() || !t.Covers(s.ID) {
			continue
		}
		if best != nil && !t.ProductionTime.Before(*best) {
			continue
		}
		if !v.Timestamp(t, times).Conclusion().IsPassed() {
			continue
		}
		production := t.ProductionTime
		best = &production
	}
	return best
}

// Timestamp validates the building blocks of t.
func (v *Validator) Timestamp(t *diagnostic.Timestamp, times Times) *Result {
	ctx := policy.ContextTimestamp
	cc := v.policy.Context(ctx)
	res := &Result{
		Block:   process.NewBlock(process.BlockBBB, t.ID),
		Context: ctx,
		Times:   times,
	}

	ics := v.identify(res, t.ID, t.SigningCertificate, cc)

	cv := process.NewBlock(process.BlockCV, t.ID)
	cvChain := process.NewChain(cv)
	cvChain.Check(process.Check{
		Level:         cc.ReferenceDataFound,
		Question:      messages.New(messages.BBB_SAV_TSP_IMIDF),
		Answer:        messages.New(messages.BBB_SAV_TSP_IMIDF_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.SignedDataNotFound,
	}, t.MessageImprint.DataFound)
	cvChain.Check(process.Check{
		Level:         cc.ReferenceDataIntact,
		Question:      messages.New(messages.BBB_SAV_TSP_IMIVC),
		Answer:        messages.New(messages.BBB_SAV_TSP_IMIVC_ANS),
		Indication:    ades.Failed,
		SubIndication: ades.HashFailure,
	}, t.MessageImprint.DataIntact)
	v.checkIntact(cvChain, cc, t.Signature)

	if res.SigningCertificate != nil {
		production := t.ProductionTime
		res.XCV = v.chains.Validate(xcv.Request{
			Certificate: t.SigningCertificate,
			Context:     ctx,
			RefTime:     times.RefTime,
			CryptoTime:  times.CryptoTime,
			SigningTime: &production,
		})
	}

	constraint := v.policy.Cryptographic(ctx, policy.SubContextNone)
	res.SAV = sav.Evaluate(sav.FromSignature(t.ID, messages.ACCM_POS_TST_SIG, t.Signature), constraint, times.CryptoTime)
	if t.MessageImprint.DigestAlgorithm != "" {
		merge(res.SAV, sav.EvaluateDigest(t.ID, messages.ACCM_POS_MESS_IMP,
			t.MessageImprint.DigestAlgorithm, constraint, times.CryptoTime), messages.ACCM_POS_MESS_IMP)
	}

	v.conclude(res, ics, cv, messages.ACCM_POS_TST_SIG)
	return res
}

// Revocation validates the building blocks of revocation data r.
func (v *Validator) Revocation(r *diagnostic.Revocation, times Times) *Result {
	ctx := policy.ContextRevocation
	cc := v.policy.Context(ctx)
	res := &Result{
		Block:   process.NewBlock(process.BlockRAC, r.ID),
		Context: ctx,
		Times:   times,
	}

	ics := v.identify(res, r.ID, r.SigningCertificate, cc)

	cv := process.NewBlock(process.BlockCV, r.ID)
	v.checkIntact(process.NewChain(cv), cc, r.Signature)

	if res.SigningCertificate != nil {
		production := r.ProductionDate
		res.XCV = v.chains.Validate(xcv.Request{
			Certificate: r.SigningCertificate,
			Context:     ctx,
			RefTime:     times.RefTime,
			CryptoTime:  times.CryptoTime,
			SigningTime: &production,
		})
	}
	res.SAV = sav.Evaluate(sav.FromSignature(r.ID, messages.ACCM_POS_REVOC_SIG, r.Signature),
		v.policy.Cryptographic(ctx, policy.SubContextNone), times.CryptoTime)

	v.conclude(res, ics, cv, messages.ACCM_POS_REVOC_SIG)
	return res
}

// CheckRevocation returns the memoized building blocks of r evaluated at
// its production time. Revocation data whose validation depends on itself
// is reported INDETERMINATE.
func (v *Validator) CheckRevocation(r *diagnostic.Revocation) *process.Block {
	if b, ok := v.revocations[r.ID]; ok {
		return b
	}
	if v.inProgress[r.ID] {
		b := process.NewBlock(process.BlockRAC, r.ID)
		b.Conclusion = ades.NewConclusion(ades.Indeterminate, ades.CertificateChainGeneralFailure)
		return b
	}
	v.inProgress[r.ID] = true
	b := v.Revocation(r, At(r.ProductionDate)).Block
	delete(v.inProgress, r.ID)
	v.revocations[r.ID] = b
	return b
}

func (v *Validator) identify(res *Result, id, certID string, cc *policy.ContextConstraints) *process.Block {
	ics := process.NewBlock(process.BlockICS, id)
	cert, ok := v.data.Certificate(certID)
	process.NewChain(ics).Check(process.Check{
		Level:         cc.SigningCertificateIdentified,
		Question:      messages.New(messages.BBB_ICS_ISCI),
		Answer:        messages.New(messages.BBB_ICS_ISCI_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.NoSigningCertificateFound,
	}, ok)
	if ok {
		res.SigningCertificate = cert
	}
	return ics
}

func (v *Validator) checkIntact(chain *process.Chain, cc *policy.ContextConstraints, bs diagnostic.BasicSignature) {
	chain.Check(process.Check{
		Level:         cc.SignatureIntact,
		Question:      messages.New(messages.BBB_CV_ISI),
		Answer:        messages.New(messages.BBB_CV_ISI_ANS),
		Indication:    ades.Failed,
		SubIndication: ades.SigCryptoFailure,
	}, bs.Intact)
}

// conclude attaches the blocks in order ICS, CV, XCV, SAV. A FAILED
// cryptographic verification takes precedence; otherwise the first
// failing block gives the conclusion.
func (v *Validator) conclude(res *Result, ics, cv *process.Block, position messages.Tag) {
	chain := process.NewIndependentChain(res.Block)
	chain.RunBlock(process.Check{Question: messages.New(messages.BBB_ICS_ISCI)}, ics)
	chain.RunBlock(process.Check{Question: messages.New(messages.BBB_CV_ISI)}, cv)
	if res.XCV != nil {
		chain.RunBlock(process.Check{
			Question: messages.New(messages.BBB_XCV_SUB),
			Answer:   messages.New(messages.BBB_XCV_SUB_ANS),
		}, res.XCV.Block)
	}
	chain.RunBlock(process.Check{Question: messages.New(messages.ACCM, messages.New(position))}, res.SAV.Block)

	if cv.Conclusion.IsFailed() {
		res.Block.Conclusion.Indication = ades.Failed
		res.Block.Conclusion.SubIndication = cv.Conclusion.SubIndication
	}
}

// merge adds a digest evaluation to the main SAV result.
func merge(into, from *sav.Result, position messages.Tag) {
	process.NewIndependentChain(into.Block).RunBlock(process.Check{
		Question: messages.New(messages.ACCM, messages.New(position)),
	}, from.Block)
	if from.Expired() && (!into.Expired() || from.NotAfter.Before(into.NotAfter)) {
		into.NotAfter = from.NotAfter
		into.ExpiredAlgorithm = from.ExpiredAlgorithm
	}
}

func matcherName(m diagnostic.DigestMatcher) string {
	if m.Name != "" {
		return m.Name
	}
	return string(m.Type)
}
