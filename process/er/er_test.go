package er_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/diagnostic/diagtest"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/er"
)

var now = diagtest.Date(2026, 6, 1)

type fixture struct {
	b   *diagtest.Builder
	tsa *diagnostic.Certificate
	sig *diagnostic.Signature
}

func newFixture() *fixture {
	b := diagtest.New(now)
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	ca := b.CA("ca", root, diagtest.Date(2015, 1, 1), diagtest.Date(2030, 1, 1))
	leaf := b.Leaf("leaf", ca, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	tsa := b.TSA("tsa", root, diagtest.Date(2018, 1, 1), diagtest.Date(2032, 1, 1))
	b.FreshCRL(ca)
	b.FreshCRL(leaf)
	b.FreshCRL(tsa)
	sig := b.Signature("sig", leaf, diagtest.Date(2023, 1, 1))
	return &fixture{b: b, tsa: tsa, sig: sig}
}

// record adds an evidence record over the signature renewed by one
// timestamp per production date.
func (f *fixture) record(dates ...time.Time) *diagnostic.EvidenceRecord {
	var timestamps []*diagnostic.Timestamp
	for i, at := range dates {
		id := "er-ts-" + string(rune('a'+i))
		timestamps = append(timestamps, f.b.Timestamp(id, diagnostic.EvidenceRecordTimestamp, f.tsa, at))
	}
	return f.b.EvidenceRecord("er", timestamps, diagtest.Object(f.sig.ID, diagnostic.CategorySignature))
}

func (f *fixture) validate(t *testing.T, e *diagnostic.EvidenceRecord) *er.Result {
	t.Helper()
	data := f.b.MustBuild()
	return er.New(bbb.New(data, policy.Default())).Validate(e, now)
}

func TestValidRecord(t *testing.T) {
	f := newFixture()
	e := f.record(diagtest.Date(2023, 2, 1), diagtest.Date(2025, 2, 1))
	res := f.validate(t, e)

	assert.True(t, res.Conclusion().IsPassed())
	assert.Equal(t, process.BlockEvidence, res.Block.Type)
	assert.Len(t, res.Timestamps, 2)
	assert.Equal(t, diagtest.Date(2025, 2, 1), res.LastRenewal)

	c, ok := res.Block.Constraint(messages.ER_IDOI)
	require.True(t, ok)
	assert.Equal(t, process.StatusOK, c.Status)
	assert.Equal(t, "sig", c.ID)
}

func TestCoveredDataChecks(t *testing.T) {
	tests := []struct {
		name     string
		found    bool
		intact   bool
		ind      ades.Indication
		sub      ades.SubIndication
		question messages.Tag
	}{
		{"not found", false, false, ades.Indeterminate, ades.SignedDataNotFound, messages.ER_IDOF},
		{"not intact", true, false, ades.Failed, ades.HashFailure, messages.ER_IDOI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			e := f.record(diagtest.Date(2024, 1, 1))
			e.DigestMatchers[0].DataFound = tt.found
			e.DigestMatchers[0].DataIntact = tt.intact
			res := f.validate(t, e)

			assert.Equal(t, tt.ind, res.Conclusion().Indication)
			assert.Equal(t, tt.sub, res.Conclusion().SubIndication)
			c, ok := res.Block.Constraint(tt.question)
			require.True(t, ok)
			assert.Equal(t, process.StatusNotOK, c.Status)
			assert.Empty(t, res.Timestamps)
		})
	}
}

func TestRecordWithoutTimestamps(t *testing.T) {
	f := newFixture()
	e := f.record()
	res := f.validate(t, e)

	assert.Equal(t, ades.Failed, res.Conclusion().Indication)
	assert.Equal(t, ades.FormatFailure, res.Conclusion().SubIndication)
	assert.Contains(t, res.Conclusion().Errors, messages.New(messages.ER_HTSP_ANS))
	assert.True(t, res.LastRenewal.IsZero())
}

func TestRenewalsOutOfOrder(t *testing.T) {
	f := newFixture()
	e := f.record(diagtest.Date(2025, 2, 1), diagtest.Date(2023, 2, 1))
	res := f.validate(t, e)

	assert.Equal(t, ades.Indeterminate, res.Conclusion().Indication)
	assert.Equal(t, ades.TimestampOrderFailure, res.Conclusion().SubIndication)
	assert.Equal(t, diagtest.Date(2025, 2, 1), res.LastRenewal)
}

func TestHashAlgorithmExpiredAtLastRenewal(t *testing.T) {
	f := newFixture()
	e := f.record(diagtest.Date(2024, 1, 1))
	e.DigestMatchers[0].DigestAlgorithm = "SHA1"
	res := f.validate(t, e)

	assert.Equal(t, ades.Indeterminate, res.Conclusion().Indication)
	assert.Equal(t, ades.CryptoConstraintsFailureNoPOE, res.Conclusion().SubIndication)
	require.NotNil(t, res.Block.Find(process.BlockSAV))
}

func TestInconclusiveTimestampWarns(t *testing.T) {
	f := newFixture()
	e := f.record(diagtest.Date(2024, 1, 1))
	f.b.Data().Timestamps[0].Signature.Intact = false
	res := f.validate(t, e)

	assert.True(t, res.Conclusion().IsPassed())
	assert.Contains(t, res.Conclusion().Warnings, messages.New(messages.ER_ITVC_ANS, "er-ts-a"))
	c, ok := res.Block.Constraint(messages.ER_ITVC)
	require.True(t, ok)
	assert.Equal(t, process.StatusWarning, c.Status)
	assert.Equal(t, ades.Failed, res.Timestamps[0].Conclusion().Indication)
}
