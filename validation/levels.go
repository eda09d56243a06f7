package validation

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/poe"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/er"
	"github.com/georgepadayatti/goades/process/psv"
	"github.com/georgepadayatti/goades/process/qualification"
	"github.com/georgepadayatti/goades/validation/trace"
)

var levelBlocks = map[policy.ValidationLevel]process.BlockType{
	policy.BasicSignatures: process.BlockBasic,
	policy.Timestamps:      process.BlockTimestamp,
	policy.LongTermData:    process.BlockLongTerm,
	policy.ArchivalData:    process.BlockArchival,
}

// runner validates the items of one snapshot. It owns the building block
// caches and must stay on a single goroutine.
type runner struct {
	data   *diagnostic.Data
	policy *policy.Policy
	at     time.Time
	log    logrus.FieldLogger

	blocks  *bbb.Validator
	past    *psv.Validator
	records *er.Validator
	quals   *qualification.Validator
}

func newRunner(data *diagnostic.Data, p *policy.Policy, at time.Time, log logrus.FieldLogger) *runner {
	blocks := bbb.New(data, p)
	return &runner{
		data:    data,
		policy:  p,
		at:      at,
		log:     log,
		blocks:  blocks,
		past:    psv.New(blocks),
		records: er.New(blocks),
		quals:   qualification.New(data, p),
	}
}

// token is a signature or a timestamp going through the level state
// machine.
type token struct {
	id         string
	timestamps []*diagnostic.Timestamp
	psv        func(current *bbb.Result, poes *poe.Tracker) *psv.Result
}

func (r *runner) item(it diagnostic.Item, requested policy.ValidationLevel) *trace.Item {
	switch it.Kind {
	case diagnostic.KindSignature:
		s, _ := r.data.Signature(it.ID)
		return r.signature(s, requested)
	case diagnostic.KindTimestamp:
		t, _ := r.data.Timestamp(it.ID)
		return r.timestamp(t, requested)
	default:
		e, _ := r.data.EvidenceRecord(it.ID)
		return r.evidenceRecord(e)
	}
}

func (r *runner) signature(s *diagnostic.Signature, requested policy.ValidationLevel) *trace.Item {
	ctx := bbb.SignatureContext(s)
	item := &trace.Item{
		Kind:    diagnostic.KindSignature,
		ID:      s.ID,
		Context: ctx,
		Target:  r.policy.EffectiveValidationLevel(ctx, requested),
	}
	tok := token{
		id:         s.ID,
		timestamps: r.data.SignatureTimestamps(s),
		psv: func(current *bbb.Result, poes *poe.Tracker) *psv.Result {
			return r.past.Signature(s, current, poes)
		},
	}
	poes := r.levels(item, tok, r.blocks.Signature(s, bbb.At(r.at)))

	item.Conclusion.Indication = item.Conclusion.Indication.Total()
	item.BestSignatureTime = poes.EarliestPOE(s.ID)
	if !item.Reached().Includes(policy.LongTermData) {
		item.BestSignatureTime = bestSignatureTime(item.Timestamps, r.at)
	}
	item.Qualification = r.quals.Signature(s, item.Conclusion, item.BestSignatureTime)
	return item
}

func (r *runner) timestamp(t *diagnostic.Timestamp, requested policy.ValidationLevel) *trace.Item {
	ctx := policy.ContextTimestamp
	item := &trace.Item{
		Kind:    diagnostic.KindTimestamp,
		ID:      t.ID,
		Context: ctx,
		Target:  r.policy.EffectiveValidationLevel(ctx, requested),
	}
	tok := token{
		id:         t.ID,
		timestamps: r.data.CoveringTimestamps(t.ID),
		psv: func(current *bbb.Result, poes *poe.Tracker) *psv.Result {
			return r.past.Timestamp(t, current, poes)
		},
	}
	poes := r.levels(item, tok, r.blocks.Timestamp(t, bbb.At(r.at)))
	item.Qualification = r.quals.Timestamp(t, poes.EarliestPOE(t.ID))
	return item
}

// evidenceRecord validates a top-level evidence record. Records do not go
// through the level state machine and give the same result at every level.
func (r *runner) evidenceRecord(e *diagnostic.EvidenceRecord) *trace.Item {
	res := r.records.Validate(e, r.at)
	return &trace.Item{
		Kind:            diagnostic.KindEvidenceRecord,
		ID:              e.ID,
		Context:         policy.ContextEvidenceRecord,
		Conclusion:      res.Conclusion().Clone(),
		EvidenceRecords: []*er.Result{res},
		POE:             []poe.Entry{{Time: r.at}},
	}
}

// levels runs BASIC_SIGNATURES up to the target level of item and returns
// the POE tracker of the last level evaluated.
func (r *runner) levels(item *trace.Item, tok token, basic *bbb.Result) *poe.Tracker {
	log := r.log.WithFields(logrus.Fields{"item": item.ID, "kind": item.Kind})
	item.Basic = basic
	poes := poe.New(r.data, r.at, poe.WithoutContentTimestamps())

	current := r.basicLevel(item, tok, basic)
	stopped := current.IsFailed()

	var skipped []messages.Message
	for _, level := range policy.ArchivalData.Levels()[1:] {
		if stopped || !item.Target.Includes(level) {
			item.Levels = append(item.Levels, &trace.Level{Level: level})
			if stopped {
				skipped = append(skipped, messages.New(messages.LEVEL_NOT_EVALUATED, level.String()))
			}
			continue
		}
		log.WithField("level", level).Debug("Evaluating validation level")

		block := process.NewBlock(levelBlocks[level], item.ID)
		switch level {
		case policy.Timestamps:
			r.timestampLevel(block, item, tok, current)
		case policy.LongTermData:
			poes = r.pastLevel(block, item, tok, current, false)
		case policy.ArchivalData:
			poes = r.pastLevel(block, item, tok, current, true)
		}
		item.Levels = append(item.Levels, &trace.Level{Level: level, Evaluated: true, Block: block})
		current = block.Conclusion
	}

	item.Conclusion = current.Clone()
	item.Conclusion.Infos = append(item.Conclusion.Infos, skipped...)
	item.POE = poes.Entries(item.ID)
	for _, ts := range item.Timestamps {
		ts.POETime = poes.EarliestPOE(ts.Timestamp.ID)
		ts.Qualification = r.quals.Timestamp(ts.Timestamp, ts.POETime)
	}
	log.WithFields(logrus.Fields{
		"indication":     item.Conclusion.Indication,
		"sub_indication": item.Conclusion.SubIndication,
		"level":          item.Reached(),
	}).Debug("Item validated")
	return poes
}

func (r *runner) basicLevel(item *trace.Item, tok token, basic *bbb.Result) *ades.Conclusion {
	block := process.NewBlock(process.BlockBasic, tok.id)
	process.NewChain(block).RunBlock(process.Check{
		Question: messages.New(messages.ADEST_ROBVPIIC),
	}, basic.Block)
	item.Levels = append(item.Levels, &trace.Level{Level: policy.BasicSignatures, Evaluated: true, Block: block})
	return block.Conclusion
}

// timestampLevel validates the timestamps of the token and computes the
// best signature time. The verdict of the token is carried unchanged.
func (r *runner) timestampLevel(block *process.Block, item *trace.Item, tok token, current *ades.Conclusion) {
	steps := process.NewIndependentChain(block)
	for _, t := range tok.timestamps {
		res := r.blocks.Timestamp(t, bbb.At(r.at))
		item.Timestamps = append(item.Timestamps, &trace.Timestamp{
			Timestamp:  t,
			Basic:      res,
			Conclusion: res.Conclusion().Clone(),
			POETime:    r.at,
		})
		steps.RunBlock(process.Check{
			Level:    r.policy.TimestampConclusiveLevel,
			Question: messages.New(messages.ADEST_ITVPC),
			Answer:   messages.New(messages.ADEST_ITVPC_ANS, t.ID),
			ID:       t.ID,
		}, res.Block)
	}
	block.Conclusion.AddInfo(messages.New(messages.ADEST_BST_INFO, bestSignatureTime(item.Timestamps, r.at)))
	carry(block, current)
}

// pastLevel runs past signature validation of the token. At LONG_TERM_DATA
// only the signature timestamps prove existence; at ARCHIVAL_DATA the
// archival timestamps and the evidence records covering the token and its
// timestamps are added and the order of the timestamps is checked.
func (r *runner) pastLevel(block *process.Block, item *trace.Item, tok token, current *ades.Conclusion, archival bool) *poe.Tracker {
	steps := process.NewChain(block)
	poes := poe.New(r.data, r.at, poe.WithoutContentTimestamps())

	question, answer := messages.LTV_ABSV, messages.LTV_ABSV_ANS
	if archival {
		question, answer = messages.ARCH_LTVV, messages.ARCH_LTVV_ANS
	}
	steps.Check(process.Check{
		Question:      messages.New(question),
		Answer:        messages.New(answer),
		Indication:    current.Indication.Block(),
		SubIndication: current.SubIndication,
	}, current.IsPassed() || psv.Applies(current))
	if steps.Stopped() {
		block.Conclusion.Errors = append(block.Conclusion.Errors, current.Errors...)
		return poes
	}

	if archival {
		for _, e := range r.coveringRecords(tok) {
			res := r.records.Validate(e, r.at)
			item.EvidenceRecords = append(item.EvidenceRecords, res)
			steps.RunBlock(process.Check{
				Level:    r.policy.EvidenceRecordConclusiveLevel,
				Question: messages.New(messages.ARCH_IERVC),
				Answer:   messages.New(messages.ARCH_IERVC_ANS, e.ID),
				ID:       e.ID,
			}, res.Block)
			if res.Conclusion().IsPassed() {
				poes.AddSources(e.ID)
			}
		}
	}

	for _, ts := range newestFirst(item.Timestamps) {
		t := ts.Timestamp
		if t.Type.IsContent() || (!archival && t.Type.IsArchival()) {
			continue
		}
		res := r.past.Timestamp(t, ts.Basic, poes)
		ts.PSV = res
		ts.Conclusion = res.Conclusion().Clone()
		steps.RunBlock(process.Check{
			Level:    r.policy.TimestampConclusiveLevel,
			Question: messages.New(messages.ADEST_ITVPC),
			Answer:   messages.New(messages.ADEST_ITVPC_ANS, t.ID),
			ID:       t.ID,
		}, res.Block)
		if ts.Conclusion.IsPassed() {
			poes.AddSources(t.ID)
		}
	}

	if archival {
		steps.Check(process.Check{
			Level:         r.policy.TimestampOrderLevel,
			Question:      messages.New(messages.TSV_ASTPTCT),
			Answer:        messages.New(messages.TSV_ASTPTCT_ANS),
			Indication:    ades.Indeterminate,
			SubIndication: ades.TimestampOrderFailure,
		}, ordered(item.Timestamps))
		if steps.Stopped() {
			return poes
		}
	}

	res := tok.psv(item.Basic, poes)
	item.PSV = res
	steps.RunBlock(process.Check{
		Question: messages.New(messages.LTV_IPSVC),
	}, res.Block)
	return poes
}

func (r *runner) coveringRecords(tok token) []*diagnostic.EvidenceRecord {
	var out []*diagnostic.EvidenceRecord
	seen := make(map[string]bool)
	add := func(id string) {
		for _, e := range r.data.CoveringEvidenceRecords(id) {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e)
			}
		}
	}
	add(tok.id)
	for _, t := range tok.timestamps {
		add(t.ID)
	}
	return out
}

// carry sets the verdict of b to c, keeping the messages b collected
// after those of c.
func carry(b *process.Block, c *ades.Conclusion) {
	b.Conclusion.Indication = c.Indication.Block()
	b.Conclusion.SubIndication = c.SubIndication
	b.Conclusion.Errors = append(append([]messages.Message{}, c.Errors...), b.Conclusion.Errors...)
	b.Conclusion.Warnings = append(append([]messages.Message{}, c.Warnings...), b.Conclusion.Warnings...)
}

// bestSignatureTime is the earliest production time of a PASSED
// signature timestamp, or at when there is none.
func bestSignatureTime(timestamps []*trace.Timestamp, at time.Time) time.Time {
	best := at
	for _, ts := range timestamps {
		t := ts.Timestamp
		if t.Type.IsContent() || !ts.Conclusion.IsPassed() {
			continue
		}
		if t.ProductionTime.Before(best) {
			best = t.ProductionTime
		}
	}
	return best
}

func newestFirst(timestamps []*trace.Timestamp) []*trace.Timestamp {
	out := append([]*trace.Timestamp{}, timestamps...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.ProductionTime.After(out[j].Timestamp.ProductionTime)
	})
	return out
}

// ordered reports whether the usable timestamps are coherent: a timestamp
// is produced no earlier than every usable timestamp it covers, and
// content timestamps are produced no later than the usable timestamps
// over the signature.
func ordered(timestamps []*trace.Timestamp) bool {
	usable := make(map[string]*diagnostic.Timestamp, len(timestamps))
	for _, ts := range timestamps {
		if ts.Conclusion.IsPassed() {
			usable[ts.Timestamp.ID] = ts.Timestamp
		}
	}
	for _, t := range usable {
		for _, o := range t.TimestampedObjects {
			if o.Category != diagnostic.CategoryTimestamp {
				continue
			}
			if c, ok := usable[o.ID]; ok && t.ProductionTime.Before(c.ProductionTime) {
				return false
			}
		}
		if !t.Type.IsContent() {
			continue
		}
		for _, other := range usable {
			if !other.Type.IsContent() && t.ProductionTime.After(other.ProductionTime) {
				return false
			}
		}
	}
	return true
}
