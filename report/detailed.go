package report

import (
	"encoding/json"
	"time"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/poe"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/validation/trace"
)

// Constraint is one atomic check of the detailed report.
type Constraint struct {
	Question       Message            `json:"question"`
	Status         process.Status     `json:"status"`
	Answer         *Message           `json:"answer,omitempty"`
	Indication     ades.Indication    `json:"indication,omitempty"`
	SubIndication  ades.SubIndication `json:"subIndication,omitempty"`
	ID             string             `json:"id,omitempty"`
	AdditionalInfo string             `json:"additionalInfo,omitempty"`
	// Ref is the id of the child block the check was answered by.
	Ref string `json:"ref,omitempty"`
}

// Block is a node of the detailed report.
type Block struct {
	Type        process.BlockType `json:"type"`
	ID          string            `json:"id,omitempty"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Conclusion  *Conclusion       `json:"conclusion"`
	Children    []*Block          `json:"children,omitempty"`
}

// Find returns the first block of the given type, searching depth first.
func (b *Block) Find(typ process.BlockType) *Block {
	if b == nil {
		return nil
	}
	if b.Type == typ {
		return b
	}
	for _, c := range b.Children {
		if found := c.Find(typ); found != nil {
			return found
		}
	}
	return nil
}

// Level is one validation level of an item.
type Level struct {
	Level     policy.ValidationLevel `json:"level"`
	Evaluated bool                   `json:"evaluated"`
	Block     *Block                 `json:"block,omitempty"`
}

// DetailedItem holds the blocks of a top-level item.
type DetailedItem struct {
	ID      string                 `json:"id"`
	Kind    diagnostic.ItemKind    `json:"kind"`
	Target  policy.ValidationLevel `json:"targetLevel,omitempty"`
	Levels  []*Level               `json:"levels,omitempty"`
	Records []*Block               `json:"evidenceRecords,omitempty"`
	// Qualification holds the qualification block of the item and of its
	// timestamps.
	Qualification []*Block    `json:"qualification,omitempty"`
	POE           []poe.Entry `json:"poe,omitempty"`
	Conclusion    *Conclusion `json:"conclusion"`
}

// Level returns the entry of level l.
func (i *DetailedItem) Level(l policy.ValidationLevel) *Level {
	for _, lr := range i.Levels {
		if lr.Level == l {
			return lr
		}
	}
	return nil
}

// Detailed is the detailed validation report.
type Detailed struct {
	ID             string          `json:"id"`
	ValidationTime time.Time       `json:"validationTime"`
	Items          []*DetailedItem `json:"items,omitempty"`
}

// Item returns the entry with the given id.
func (r *Detailed) Item(id string) (*DetailedItem, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// ToJSON serializes the report to JSON.
func (r *Detailed) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (b *builder) detailed(tr *trace.Trace) *Detailed {
	r := &Detailed{ID: b.id, ValidationTime: tr.ValidationTime}
	for _, it := range tr.Items {
		r.Items = append(r.Items, b.detailedItem(it))
	}
	return r
}

func (b *builder) detailedItem(it *trace.Item) *DetailedItem {
	out := &DetailedItem{
		ID:         it.ID,
		Kind:       it.Kind,
		Target:     it.Target,
		POE:        it.POE,
		Conclusion: b.conclusion(it.Conclusion),
	}
	for _, lr := range it.Levels {
		out.Levels = append(out.Levels, &Level{
			Level:     lr.Level,
			Evaluated: lr.Evaluated,
			Block:     b.block(lr.Block),
		})
	}
	// Evidence records of archival items already appear below the
	// archival level block.
	if it.Kind == diagnostic.KindEvidenceRecord {
		for _, e := range it.EvidenceRecords {
			out.Records = append(out.Records, b.block(e.Block))
		}
	}
	if it.Qualification != nil {
		out.Qualification = append(out.Qualification, b.block(it.Qualification.Block))
	}
	for _, ts := range it.Timestamps {
		if ts.Qualification != nil {
			out.Qualification = append(out.Qualification, b.block(ts.Qualification.Block))
		}
	}
	return out
}

func (b *builder) block(p *process.Block) *Block {
	if p == nil {
		return nil
	}
	out := &Block{
		Type:       p.Type,
		ID:         p.ID,
		Conclusion: b.conclusion(p.Conclusion),
	}
	for _, c := range p.Constraints {
		rc := Constraint{
			Question:       b.message(c.Question),
			Status:         c.Status,
			Indication:     c.Indication,
			SubIndication:  c.SubIndication,
			ID:             c.ID,
			AdditionalInfo: c.AdditionalInfo,
			Ref:            c.Ref,
		}
		if !c.Answer.IsZero() {
			ans := b.message(c.Answer)
			rc.Answer = &ans
		}
		out.Constraints = append(out.Constraints, rc)
	}
	for _, child := range p.Children {
		out.Children = append(out.Children, b.block(child))
	}
	return out
}
