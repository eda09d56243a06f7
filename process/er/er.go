// Package er validates evidence records: the covered data objects must be
// found and intact, the renewal timestamps must validate and be in order,
// and the hash algorithms must still be reliable at the last renewal.
package er

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/sav"
)

// Result is the outcome of an evidence record validation.
type Result struct {
	Block *process.Block

	// Timestamps holds the basic validation of every renewal timestamp in
	// record order.
	Timestamps []*bbb.Result
	// LastRenewal is the production time of the newest timestamp, zero
	// when the record has none.
	LastRenewal time.Time
}

// Conclusion returns the conclusion of the evidence record.
func (r *Result) Conclusion() *ades.Conclusion {
	return r.Block.Conclusion
}

// Validator validates the evidence records of one snapshot.
type Validator struct {
	blocks *bbb.Validator
}

// New creates a validator using the building blocks of blocks.
func New(blocks *bbb.Validator) *Validator {
	return &Validator{blocks: blocks}
}

// Validate validates e at validationTime.
func (v *Validator) Validate(e *diagnostic.EvidenceRecord, validationTime time.Time) *Result {
	p := v.blocks.Policy()
	cc := p.Context(policy.ContextEvidenceRecord)
	res := &Result{Block: process.NewBlock(process.BlockEvidence, e.ID)}
	steps := process.NewChain(res.Block)

	for _, m := range e.DigestMatchers {
		steps.Check(process.Check{
			Level:         cc.ReferenceDataFound,
			Question:      messages.New(messages.ER_IDOF),
			Answer:        messages.New(messages.ER_IDOF_ANS, m.Name),
			Indication:    ades.Indeterminate,
			SubIndication: ades.SignedDataNotFound,
			ID:            m.Name,
		}, m.DataFound)
		steps.Check(process.Check{
			Level:         cc.ReferenceDataIntact,
			Question:      messages.New(messages.ER_IDOI),
			Answer:        messages.New(messages.ER_IDOI_ANS, m.Name),
			Indication:    ades.Failed,
			SubIndication: ades.HashFailure,
			ID:            m.Name,
		}, m.DataIntact)
	}

	timestamps := v.blocks.Data().RecordTimestamps(e)
	steps.Check(process.Check{
		Question:      messages.New(messages.ER_HTSP),
		Answer:        messages.New(messages.ER_HTSP_ANS),
		Indication:    ades.Failed,
		SubIndication: ades.FormatFailure,
	}, len(timestamps) > 0)
	if steps.Stopped() {
		return res
	}

	for _, ts := range timestamps {
		r := v.blocks.Timestamp(ts, bbb.At(validationTime))
		res.Timestamps = append(res.Timestamps, r)
		steps.RunBlock(process.Check{
			Level:    p.TimestampConclusiveLevel,
			Question: messages.New(messages.ER_ITVC),
			Answer:   messages.New(messages.ER_ITVC_ANS, ts.ID),
			ID:       ts.ID,
		}, r.Block)
	}

	steps.Check(process.Check{
		Level:         p.TimestampOrderLevel,
		Question:      messages.New(messages.TSV_ASTPTCT),
		Answer:        messages.New(messages.TSV_ASTPTCT_ANS),
		Indication:    ades.Indeterminate,
		SubIndication: ades.TimestampOrderFailure,
	}, inOrder(timestamps))
	for _, ts := range timestamps {
		if ts.ProductionTime.After(res.LastRenewal) {
			res.LastRenewal = ts.ProductionTime
		}
	}

	crypto := p.Cryptographic(policy.ContextEvidenceRecord, policy.SubContextNone)
	for _, m := range e.DigestMatchers {
		if m.DigestAlgorithm == "" {
			continue
		}
		digest := sav.EvaluateDigest(m.Name, messages.ACCM_POS_ER, m.DigestAlgorithm, crypto, res.LastRenewal)
		steps.RunBlock(process.Check{
			Question: messages.New(messages.ACCM, messages.New(messages.ACCM_POS_ER)),
		}, digest.Block)
	}
	return res
}

// inOrder reports whether each renewal was produced no earlier than the
// timestamp it renews.
func inOrder(timestamps []*diagnostic.Timestamp) bool {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].ProductionTime.Before(timestamps[i-1].ProductionTime) {
			return false
		}
	}
	return true
}
