package qualification_test

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
	"github.com/georgepadayatti/goades/process/qualification"
)

var now = diagtest.Date(2026, 6, 1)

type fixture struct {
	b    *diagtest.Builder
	root *diagnostic.Certificate
	ca   *diagnostic.Certificate
	leaf *diagnostic.Certificate
	ts   *diagnostic.Timestamp
	sig  *diagnostic.Signature
}

func newFixture() *fixture {
	b := diagtest.New(now)
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	ca := b.CA("ca", root, diagtest.Date(2015, 1, 1), diagtest.Date(2030, 1, 1))
	leaf := b.Leaf("leaf", ca, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	tsa := b.TSA("tsa", root, diagtest.Date(2018, 1, 1), diagtest.Date(2032, 1, 1))
	sig := b.Signature("sig", leaf, diagtest.Date(2024, 1, 1))
	ts := b.SignatureTimestamp("ts", sig, tsa, diagtest.Date(2024, 1, 1))
	return &fixture{b: b, root: root, ca: ca, leaf: leaf, ts: ts, sig: sig}
}

func service(typ diagnostic.TrustServiceType, start time.Time, end *time.Time) diagnostic.TrustService {
	return diagnostic.TrustService{Type: typ, Status: diagnostic.StatusGranted, Start: start, End: end}
}

func ptr(t time.Time) *time.Time { return &t }

func (f *fixture) validator() *qualification.Validator {
	return qualification.New(f.b.MustBuild(), policy.Default())
}

func TestTimestampQualificationSplit(t *testing.T) {
	tests := []struct {
		name    string
		service diagnostic.TrustService
		want    qualification.Qualification
		gen     qualification.Qualification
		poe     qualification.Qualification
		missing messages.Tag
	}{
		{
			name:    "granted at both times",
			service: service(diagnostic.ServiceQTST, diagtest.Date(2015, 1, 1), nil),
			want:    qualification.QTSA, gen: qualification.QTSA, poe: qualification.QTSA,
		},
		{
			name:    "withdrawn before POE",
			service: service(diagnostic.ServiceQTST, diagtest.Date(2015, 1, 1), ptr(diagtest.Date(2025, 1, 1))),
			want:    qualification.TSA, gen: qualification.QTSA, poe: qualification.TSA,
			missing: messages.QUAL_TIME_POE,
		},
		{
			name:    "granted after generation",
			service: service(diagnostic.ServiceQTST, diagtest.Date(2025, 1, 1), nil),
			want:    qualification.TSA, gen: qualification.TSA, poe: qualification.QTSA,
			missing: messages.QUAL_TIME_GENERATION,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.root.TrustServices = []diagnostic.TrustService{tt.service}
			res := f.validator().Timestamp(f.ts, now)

			assert.Equal(t, tt.want, res.Qualification)
			assert.Equal(t, tt.gen, res.AtGeneration)
			assert.Equal(t, tt.poe, res.AtPOE)
			assert.True(t, res.Conclusion().IsPassed())
			if tt.missing == "" {
				assert.Empty(t, res.Conclusion().Warnings)
				return
			}
			assert.Equal(t, []messages.Message{
				messages.New(messages.QUAL_HAS_GRANTED_AT_ANS, messages.New(tt.missing)),
			}, res.Conclusion().Warnings)
		})
	}
}

func TestTimestampWithoutTrustService(t *testing.T) {
	f := newFixture()
	res := f.validator().Timestamp(f.ts, now)

	assert.Equal(t, qualification.TSA, res.Qualification)
	assert.Len(t, res.Conclusion().Warnings, 2)
}

func TestQualificationLevelFail(t *testing.T) {
	f := newFixture()
	p := policy.Default()
	p.QualificationLevel = policy.LevelFail
	res := qualification.New(f.b.MustBuild(), p).Timestamp(f.ts, now)

	assert.Equal(t, qualification.TSA, res.Qualification)
	assert.Equal(t, ades.Indeterminate, res.Conclusion().Indication)
	c, ok := res.Block.Constraint(messages.QUAL_HAS_GRANTED_AT)
	require.True(t, ok)
	assert.Equal(t, process.StatusNotOK, c.Status)
}

func TestSignatureQualification(t *testing.T) {
	passed := ades.NewConclusion(ades.Passed, "")
	tests := []struct {
		name       string
		setup      func(f *fixture)
		conclusion *ades.Conclusion
		want       qualification.Qualification
	}{
		{
			name: "qualified on a QSCD",
			setup: func(f *fixture) {
				f.leaf.QCCompliance, f.leaf.QSCD = true, true
			},
			conclusion: passed,
			want:       qualification.QESig,
		},
		{
			name: "qualified without QSCD",
			setup: func(f *fixture) {
				f.leaf.QCCompliance = true
			},
			conclusion: passed,
			want:       qualification.AdESigQC,
		},
		{
			name:       "not qualified",
			setup:      func(f *fixture) {},
			conclusion: passed,
			want:       qualification.AdESig,
		},
		{
			name: "service withdrawn before best signature time",
			setup: func(f *fixture) {
				f.leaf.QCCompliance, f.leaf.QSCD = true, true
				f.ca.TrustServices = []diagnostic.TrustService{
					service(diagnostic.ServiceQCCA, diagtest.Date(2015, 1, 1), ptr(diagtest.Date(2023, 1, 1))),
				}
			},
			conclusion: passed,
			want:       qualification.AdESig,
		},
		{
			name: "indeterminate AdES",
			setup: func(f *fixture) {
				f.leaf.QCCompliance, f.leaf.QSCD = true, true
			},
			conclusion: ades.NewConclusion(ades.Indeterminate, ades.OutOfBoundsNoPOE),
			want:       qualification.IndeterminatePrefix + qualification.QESig,
		},
		{
			name: "failed AdES",
			setup: func(f *fixture) {
				f.leaf.QCCompliance, f.leaf.QSCD = true, true
			},
			conclusion: ades.NewConclusion(ades.Failed, ades.HashFailure),
			want:       qualification.NotAdES,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ca.TrustServices = []diagnostic.TrustService{
				service(diagnostic.ServiceQCCA, diagtest.Date(2015, 1, 1), nil),
			}
			tt.setup(f)
			res := f.validator().Signature(f.sig, tt.conclusion, diagtest.Date(2024, 1, 1))
			assert.Equal(t, tt.want, res.Qualification)
		})
	}
}

func TestCertificateQualification(t *testing.T) {
	f := newFixture()
	f.ca.TrustServices = []diagnostic.TrustService{
		service(diagnostic.ServiceQCCA, diagtest.Date(2015, 1, 1), nil),
	}
	f.leaf.QCCompliance = true
	res := f.validator().Certificate(f.leaf, now)

	assert.Equal(t, qualification.AdESigQC, res.Qualification)
	assert.Contains(t, res.Conclusion().Warnings,
		messages.New(messages.QUAL_QSCD_AT_ANS, messages.New(messages.QUAL_TIME_GENERATION)))
}
