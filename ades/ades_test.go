package ades

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/georgepadayatti/goades/messages"
)

func TestIndicationMapping(t *testing.T) {
	tests := []struct {
		in    Indication
		total Indication
		block Indication
	}{
		{Passed, TotalPassed, Passed},
		{Failed, TotalFailed, Failed},
		{Indeterminate, Indeterminate, Indeterminate},
		{TotalPassed, TotalPassed, Passed},
		{TotalFailed, TotalFailed, Failed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.total, tt.in.Total(), "Total(%s)", tt.in)
		assert.Equal(t, tt.block, tt.in.Block(), "Block(%s)", tt.in)
	}
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, Passed.Severity(), Indeterminate.Severity())
	assert.Less(t, Indeterminate.Severity(), Failed.Severity())
	assert.Equal(t, TotalPassed.Severity(), Passed.Severity())
}

func TestIsPOEDependent(t *testing.T) {
	assert.True(t, OutOfBoundsNotRevoked.IsPOEDependent())
	assert.True(t, CryptoConstraintsFailureNoPOE.IsPOEDependent())
	assert.True(t, TryLater.IsPOEDependent())
	assert.False(t, CryptoConstraintsFailure.IsPOEDependent())
	assert.False(t, HashFailure.IsPOEDependent())
	assert.False(t, TimestampOrderFailure.IsPOEDependent())
}

func TestConclusionMessages(t *testing.T) {
	c := NewConclusion(Indeterminate, TryLater)
	c.AddError(messages.New(messages.BBB_XCV_IRIF_ANS))
	c.AddWarning(messages.New(messages.ARCH_IERVC_ANS, "ER-1"))
	c.AddInfo(messages.New(messages.BBB_XCV_OCSP_NO_CHECK))

	assert.True(t, c.IsIndeterminate())
	assert.False(t, c.IsPassed())
	assert.Len(t, c.Errors, 1)

	clone := c.Clone()
	clone.AddError(messages.New(messages.BBB_XCV_ISCR_ANS))
	assert.Len(t, c.Errors, 1)
	assert.Len(t, clone.Errors, 2)

	other := NewConclusion(Passed, "")
	other.Absorb(c)
	assert.True(t, other.IsPassed())
	assert.Len(t, other.Warnings, 1)
}

func TestWorst(t *testing.T) {
	passed := NewConclusion(Passed, "")
	ind := NewConclusion(Indeterminate, OutOfBoundsNoPOE)
	failed := NewConclusion(Failed, HashFailure)

	assert.Same(t, failed, Worst(passed, ind, failed))
	assert.Same(t, ind, Worst(nil, passed, ind))
	assert.Nil(t, Worst())

	var nilConclusion *Conclusion
	assert.False(t, nilConclusion.IsPassed())
}
