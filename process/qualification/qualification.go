// Package qualification determines the qualified status of timestamps and
// signatures from the trust services covering their certificates. The
// status is computed at two moments and the weaker of the two is reported.
package qualification

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
)

// Qualification is the qualified status of a token.
type Qualification string

// Timestamp qualifications.
const (
	QTSA Qualification = "QTSA"
	TSA  Qualification = "TSA"
)

// Signature qualifications, strongest first.
const (
	QESig    Qualification = "QESig"
	AdESigQC Qualification = "AdESig-QC"
	AdESig   Qualification = "AdESig"
	NotAdES  Qualification = "Not AdES"
	NA       Qualification = "N/A"
)

// IndeterminatePrefix marks the qualification of an INDETERMINATE AdES.
const IndeterminatePrefix = "Indeterminate "

var signatureRank = map[Qualification]int{QESig: 3, AdESigQC: 2, AdESig: 1}

func weaker(a, b Qualification) Qualification {
	if signatureRank[b] < signatureRank[a] {
		return b
	}
	return a
}

// Result is a qualification decision with both point-in-time values.
type Result struct {
	Block *process.Block

	Qualification Qualification
	// AtGeneration is the status at generation (timestamps) or at
	// certificate issuance (signatures).
	AtGeneration Qualification
	// AtPOE is the status at the best POE (timestamps) or at the best
	// signature time (signatures).
	AtPOE Qualification
}

// Conclusion returns the conclusion of the qualification block.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Validator evaluates qualifications over one snapshot.
type Validator struct {
	data   *diagnostic.Data
	policy *policy.Policy
}

// New creates a validator.
func New(data *diagnostic.Data, p *policy.Policy) *Validator {
	return &Validator{data: data, policy: p}
}

// Timestamp qualifies t at its production time and at poeTime. The
// timestamp is a QTSA only when a granted qualified timestamping service
// covers both moments.
func (v *Validator) Timestamp(t *diagnostic.Timestamp, poeTime time.Time) *Result {
	res := &Result{Block: process.NewBlock(process.BlockQualification, t.ID)}
	chain := v.data.Chain(t.SigningCertificate)
	if len(chain) == 0 {
		res.Qualification, res.AtGeneration, res.AtPOE = NA, NA, NA
		return res
	}

	steps := process.NewIndependentChain(res.Block)
	res.AtGeneration = v.timestampAt(steps, chain, t.ProductionTime, messages.QUAL_TIME_GENERATION)
	res.AtPOE = v.timestampAt(steps, chain, poeTime, messages.QUAL_TIME_POE)
	res.Qualification = TSA
	if res.AtGeneration == QTSA && res.AtPOE == QTSA {
		res.Qualification = QTSA
	}
	return res
}

func (v *Validator) timestampAt(steps *process.Chain, chain []*diagnostic.Certificate, at time.Time, moment messages.Tag) Qualification {
	ok := granted(chain, diagnostic.ServiceQTST, at)
	steps.Check(process.Check{
		Level:         v.policy.QualificationLevel,
		Question:      messages.New(messages.QUAL_HAS_GRANTED_AT, messages.New(moment)),
		Answer:        messages.New(messages.QUAL_HAS_GRANTED_AT_ANS, messages.New(moment)),
		Indication:    ades.Indeterminate,
		SubIndication: ades.ChainConstraintsFailure,
		Info:          at.UTC().Format(time.RFC3339),
	}, ok)
	if ok {
		return QTSA
	}
	return TSA
}

// Signature qualifies s from the AdES conclusion and the signing
// certificate status at its issuance and at bestSignatureTime.
func (v *Validator) Signature(s *diagnostic.Signature, conclusion *ades.Conclusion, bestSignatureTime time.Time) *Result {
	res := &Result{Block: process.NewBlock(process.BlockQualification, s.ID)}
	steps := process.NewIndependentChain(res.Block)

	chain := v.data.Chain(s.SigningCertificate)
	if len(chain) == 0 {
		res.Qualification, res.AtGeneration, res.AtPOE = NA, NA, NA
		return res
	}
	leaf := chain[0]

	res.AtGeneration = v.qualifiedAt(steps, chain, leaf.NotBefore, messages.QUAL_TIME_ISSUANCE)
	res.AtPOE = v.qualifiedAt(steps, chain, bestSignatureTime, messages.QUAL_TIME_BEST_SIG)
	q := weaker(res.AtGeneration, res.AtPOE)

	level := v.policy.QualificationLevel
	switch {
	case conclusion.IsFailed():
		steps.Check(process.Check{
			Level:         level,
			Question:      messages.New(messages.QUAL_IS_ADES),
			Answer:        messages.New(messages.QUAL_IS_ADES_INV),
			Indication:    ades.Indeterminate,
			SubIndication: ades.ChainConstraintsFailure,
		}, false)
		q = NotAdES
	case conclusion.IsIndeterminate():
		steps.Check(process.Check{
			Level:         level,
			Question:      messages.New(messages.QUAL_IS_ADES),
			Answer:        messages.New(messages.QUAL_IS_ADES_IND),
			Indication:    ades.Indeterminate,
			SubIndication: ades.ChainConstraintsFailure,
		}, false)
		q = IndeterminatePrefix + q
	default:
		steps.Check(process.Check{Question: messages.New(messages.QUAL_IS_ADES)}, true)
	}
	res.Qualification = q
	return res
}

func (v *Validator) qualifiedAt(steps *process.Chain, chain []*diagnostic.Certificate, at time.Time, moment messages.Tag) Qualification {
	leaf := chain[0]
	level := v.policy.QualificationLevel
	qc := leaf.QCCompliance && granted(chain, diagnostic.ServiceQCCA, at)
	steps.Check(process.Check{
		Level:         level,
		Question:      messages.New(messages.QUAL_QC_AT, messages.New(moment)),
		Answer:        messages.New(messages.QUAL_QC_AT_ANS, messages.New(moment)),
		Indication:    ades.Indeterminate,
		SubIndication: ades.ChainConstraintsFailure,
		ID:            leaf.ID,
		Info:          at.UTC().Format(time.RFC3339),
	}, qc)
	if !qc {
		return AdESig
	}
	steps.Check(process.Check{
		Level:         level,
		Question:      messages.New(messages.QUAL_QSCD_AT, messages.New(moment)),
		Answer:        messages.New(messages.QUAL_QSCD_AT_ANS, messages.New(moment)),
		Indication:    ades.Indeterminate,
		SubIndication: ades.ChainConstraintsFailure,
		ID:            leaf.ID,
	}, leaf.QSCD)
	if !leaf.QSCD {
		return AdESigQC
	}
	return QESig
}

// Certificate qualifies a single certificate at t.
func (v *Validator) Certificate(cert *diagnostic.Certificate, t time.Time) *Result {
	res := &Result{Block: process.NewBlock(process.BlockQualification, cert.ID)}
	steps := process.NewIndependentChain(res.Block)
	chain := v.data.Chain(cert.ID)
	if len(chain) == 0 {
		res.Qualification, res.AtGeneration, res.AtPOE = NA, NA, NA
		return res
	}
	q := v.qualifiedAt(steps, chain, t, messages.QUAL_TIME_GENERATION)
	res.Qualification, res.AtGeneration, res.AtPOE = q, q, q
	return res
}

// granted reports whether a certificate of chain is covered at t by a
// granted trust service of type typ.
func granted(chain []*diagnostic.Certificate, typ diagnostic.TrustServiceType, t time.Time) bool {
	for _, c := range chain {
		for _, s := range c.TrustServices {
			if s.Type == typ && s.Status == diagnostic.StatusGranted && s.Covers(t) {
				return true
			}
		}
	}
	return false
}
