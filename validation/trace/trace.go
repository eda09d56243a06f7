// Package trace holds the outcome of one validation run: for every
// top-level item the blocks of each validation level together with the
// intermediate results the reports are built from.
package trace

import (
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/poe"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/er"
	"github.com/georgepadayatti/goades/process/psv"
	"github.com/georgepadayatti/goades/process/qualification"
	"github.com/georgepadayatti/goades/process/xcv"
)

// Level is the result of one validation level of an item.
type Level struct {
	Level     policy.ValidationLevel
	Evaluated bool
	// Block is nil when the level was not evaluated.
	Block *process.Block
}

// Conclusion returns the conclusion of the level, nil when it was not
// evaluated.
func (l *Level) Conclusion() *ades.Conclusion {
	if l.Block == nil {
		return nil
	}
	return l.Block.Conclusion
}

// Timestamp is the validation of a timestamp attached to an item.
type Timestamp struct {
	Timestamp *diagnostic.Timestamp
	Basic     *bbb.Result
	// PSV is nil below LONG_TERM_DATA.
	PSV           *psv.Result
	Conclusion    *ades.Conclusion
	Qualification *qualification.Result
	POETime       time.Time
}

// Item is the validation of a top-level item.
type Item struct {
	Kind    diagnostic.ItemKind
	ID      string
	Context policy.Context
	// Target is the effective validation level of the item.
	Target policy.ValidationLevel
	Levels []*Level
	// Conclusion is the verdict of the highest evaluated level. Signatures
	// carry TOTAL_PASSED and TOTAL_FAILED.
	Conclusion *ades.Conclusion

	Basic           *bbb.Result
	PSV             *psv.Result
	Timestamps      []*Timestamp
	EvidenceRecords []*er.Result
	Qualification   *qualification.Result

	BestSignatureTime time.Time
	POE               []poe.Entry
}

// Level returns the result of level l.
func (i *Item) Level(l policy.ValidationLevel) *Level {
	for _, lr := range i.Levels {
		if lr.Level == l {
			return lr
		}
	}
	return nil
}

// Reached returns the highest evaluated level.
func (i *Item) Reached() policy.ValidationLevel {
	var reached policy.ValidationLevel
	for _, lr := range i.Levels {
		if lr.Evaluated {
			reached = lr.Level
		}
	}
	return reached
}

// Trace is the outcome of a validation run.
type Trace struct {
	ValidationTime time.Time
	// Level is the level requested by the caller, unset when the policy
	// decides.
	Level policy.ValidationLevel
	Items []*Item
}

// Item returns the item with the given id.
func (t *Trace) Item(id string) (*Item, bool) {
	for _, it := range t.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Certificate is the outcome of a certificate validation run.
type Certificate struct {
	ValidationTime time.Time
	ID             string
	XCV            *xcv.Result
	Conclusion     *ades.Conclusion
	Qualification  *qualification.Result
}
