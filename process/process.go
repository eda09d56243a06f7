// Package process provides the building blocks shared by every
// validation process: blocks of constraints, the severity rule applied to
// each check and the chain that runs checks in order.
package process

import (
	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
)

// Status is the outcome of one constraint.
type Status string

// Constraint statuses.
const (
	StatusOK          Status = "OK"
	StatusNotOK       Status = "NOT_OK"
	StatusWarning     Status = "WARNING"
	StatusInformation Status = "INFORMATION"
	StatusIgnored     Status = "IGNORED"
)

// BlockType identifies a validation block.
type BlockType string

// Block types.
const (
	BlockBBB           BlockType = "BBB"
	BlockICS           BlockType = "ICS"
	BlockCV            BlockType = "CV"
	BlockSAV           BlockType = "SAV"
	BlockXCV           BlockType = "XCV"
	BlockSubXCV        BlockType = "SUB_XCV"
	BlockRAC           BlockType = "RAC"
	BlockBasic         BlockType = "VPFBS"
	BlockTimestamp     BlockType = "VPFTSP"
	BlockLongTerm      BlockType = "VPFLTVD"
	BlockArchival      BlockType = "VPFSWATSP"
	BlockPSV           BlockType = "PSV"
	BlockPCV           BlockType = "PCV"
	BlockVTS           BlockType = "VTS"
	BlockEvidence      BlockType = "ER"
	BlockQualification BlockType = "QUAL"
)

// Constraint is the recorded result of one atomic check.
type Constraint struct {
	Question       messages.Message   `json:"question"`
	Status         Status             `json:"status"`
	Answer         messages.Message   `json:"answer,omitzero"`
	Indication     ades.Indication    `json:"indication,omitempty"`
	SubIndication  ades.SubIndication `json:"subIndication,omitempty"`
	ID             string             `json:"id,omitempty"`
	AdditionalInfo string             `json:"additionalInfo,omitempty"`
	Ref            string             `json:"ref,omitempty"`
}

// Block is a node of the detailed validation tree.
type Block struct {
	Type        BlockType        `json:"type"`
	ID          string           `json:"id,omitempty"`
	Constraints []Constraint     `json:"constraints,omitempty"`
	Conclusion  *ades.Conclusion `json:"conclusion"`
	Children    []*Block         `json:"children,omitempty"`
}

// NewBlock returns a block concluding PASSED until a check fails.
func NewBlock(typ BlockType, id string) *Block {
	return &Block{
		Type:       typ,
		ID:         id,
		Conclusion: ades.NewConclusion(ades.Passed, ""),
	}
}

// Find returns the first block of the given type in the tree rooted at b,
// searching depth first.
func (b *Block) Find(typ BlockType) *Block {
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

// Constraint returns the first constraint asking question.
func (b *Block) Constraint(question messages.Tag) (Constraint, bool) {
	for _, c := range b.Constraints {
		if c.Question.Tag == question {
			return c, true
		}
	}
	return Constraint{}, false
}

// Check describes one atomic check before it is applied.
type Check struct {
	Level         policy.Level
	Question      messages.Message
	Answer        messages.Message
	Indication    ades.Indication
	SubIndication ades.SubIndication
	ID            string
	Info          string
}

// Apply records the outcome of chk on b and reports whether processing
// of the block must stop.
//
// A passed check is recorded as OK. A failed check is handled by its
// level: FAIL records NOT_OK, sets the block conclusion and stops; WARN and
// INFORM record the answer as a warning or an information; IGNORE records
// nothing. An unset level is FAIL.
func Apply(b *Block, chk Check, passed bool) (stop bool) {
	return apply(b, chk, passed, true)
}

func apply(b *Block, chk Check, passed, record bool) bool {
	level := chk.Level.Or(policy.LevelFail)
	if level == policy.LevelIgnore {
		return false
	}
	c := Constraint{
		Question:       chk.Question,
		ID:             chk.ID,
		AdditionalInfo: chk.Info,
	}
	if passed {
		c.Status = StatusOK
		b.Constraints = append(b.Constraints, c)
		return false
	}

	c.Answer = chk.Answer
	switch level {
	case policy.LevelWarn:
		c.Status = StatusWarning
		if record {
			b.Conclusion.AddWarning(chk.Answer)
		}
	case policy.LevelInform:
		c.Status = StatusInformation
		if record {
			b.Conclusion.AddInfo(chk.Answer)
		}
	default:
		c.Status = StatusNotOK
		c.Indication = chk.Indication
		c.SubIndication = chk.SubIndication
		if b.Conclusion.IsPassed() {
			b.Conclusion.Indication = chk.Indication
			b.Conclusion.SubIndication = chk.SubIndication
		}
		if record {
			b.Conclusion.AddError(chk.Answer)
		}
		b.Constraints = append(b.Constraints, c)
		return true
	}
	b.Constraints = append(b.Constraints, c)
	return false
}

// Chain runs checks against one block in order. A dependent chain skips
// every check after the first FAIL; an independent chain evaluates all of
// them and keeps the first failure as the conclusion.
type Chain struct {
	block       *Block
	independent bool
	stopped     bool
}

// NewChain returns a dependent chain writing to b.
func NewChain(b *Block) *Chain {
	return &Chain{block: b}
}

// NewIndependentChain returns a chain that never stops early.
func NewIndependentChain(b *Block) *Chain {
	return &Chain{block: b, independent: true}
}

// Block returns the block the chain writes to.
func (c *Chain) Block() *Block {
	return c.block
}

// Stopped reports whether a FAIL check stopped the chain.
func (c *Chain) Stopped() bool {
	return c.stopped
}

// Check applies chk with a known outcome.
func (c *Chain) Check(chk Check, passed bool) *Chain {
	if c.stopped {
		return c
	}
	if Apply(c.block, chk, passed) && !c.independent {
		c.stopped = true
	}
	return c
}

// Run evaluates fn only when the chain has not stopped.
func (c *Chain) Run(chk Check, fn func() bool) *Chain {
	if c.stopped {
		return c
	}
	return c.Check(chk, fn())
}

// RunBlock attaches child and applies chk with the child's conclusion as
// outcome. On failure at FAIL level the block adopts the child's
// indication, sub-indication and errors unless chk sets its own; child
// warnings and infos are always carried over.
//
// When chk has no answer, the constraint is answered with the child's
// first message and the child's errors are recorded at the level of chk
// in place of an answer of its own.
func (c *Chain) RunBlock(chk Check, child *Block) *Chain {
	if c.stopped || child == nil {
		return c
	}
	c.block.Children = append(c.block.Children, child)
	passed := child.Conclusion.IsPassed()
	inherit := chk.Answer.IsZero()
	if !passed {
		if chk.Indication == "" {
			chk.Indication = child.Conclusion.Indication.Block()
		}
		if chk.SubIndication == "" {
			chk.SubIndication = child.Conclusion.SubIndication
		}
		if inherit {
			chk.Answer = firstMessage(child.Conclusion)
		}
	}
	level := chk.Level.Or(policy.LevelFail)
	stop := apply(c.block, chk, passed, !inherit)
	if n := len(c.block.Constraints); n > 0 && level != policy.LevelIgnore {
		c.block.Constraints[n-1].Ref = child.ID
	}

	conclusion := c.block.Conclusion
	switch {
	case passed || level == policy.LevelIgnore:
	case stop:
		conclusion.Errors = append(conclusion.Errors, child.Conclusion.Errors...)
	case inherit && level == policy.LevelWarn:
		conclusion.Warnings = append(conclusion.Warnings, child.Conclusion.Errors...)
	case inherit && level == policy.LevelInform:
		conclusion.Infos = append(conclusion.Infos, child.Conclusion.Errors...)
	}
	if stop && !c.independent {
		c.stopped = true
	}
	conclusion.Warnings = append(conclusion.Warnings, child.Conclusion.Warnings...)
	conclusion.Infos = append(conclusion.Infos, child.Conclusion.Infos...)
	return c
}

func firstMessage(c *ades.Conclusion) messages.Message {
	switch {
	case len(c.Errors) > 0:
		return c.Errors[0]
	case len(c.Warnings) > 0:
		return c.Warnings[0]
	case len(c.Infos) > 0:
		return c.Infos[0]
	}
	return messages.Message{}
}
