package report_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/diagnostic/diagtest"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/mimetype"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/report"
	"github.com/georgepadayatti/goades/validation"
	"github.com/georgepadayatti/goades/validation/trace"
)

var now = diagtest.Date(2026, 6, 1)

type fixture struct {
	b    *diagtest.Builder
	data *diagnostic.Data
	tr   *trace.Trace
}

// newFixture validates one signature with a signature timestamp, one
// broken signature and one standalone timestamp.
func newFixture(t *testing.T, level policy.ValidationLevel) *fixture {
	t.Helper()
	b := diagtest.New(now)
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	ca := b.CA("ca", root, diagtest.Date(2015, 1, 1), diagtest.Date(2030, 1, 1))
	leaf := b.Leaf("leaf", ca, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	tsa := b.TSA("tsa", root, diagtest.Date(2018, 1, 1), diagtest.Date(2032, 1, 1))
	b.FreshCRL(ca)
	b.FreshCRL(leaf)
	b.FreshCRL(tsa)

	good := b.Signature("good", leaf, diagtest.Date(2024, 1, 1))
	b.SignatureTimestamp("good-ts", good, tsa, diagtest.Date(2024, 1, 2))
	bad := b.Signature("bad", leaf, diagtest.Date(2024, 1, 1))
	bad.Signature.Intact = false
	bad.DigestMatchers[0].Name = "contract.xml"
	b.Timestamp("doc-ts", diagnostic.DocumentTimestamp, tsa, diagtest.Date(2025, 1, 1),
		diagtest.Object("document.pdf", diagnostic.CategorySignedData))

	data := b.MustBuild()
	tr, err := validation.NewExecutor().Run(context.Background(), data, policy.Default(), now, level)
	require.NoError(t, err)
	return &fixture{b: b, data: data, tr: tr}
}

func (f *fixture) build(opts ...report.Option) *report.Reports {
	return report.Build(f.data, policy.Default(), f.tr, opts...)
}

func TestSimpleReport(t *testing.T) {
	f := newFixture(t, 0)
	r := f.build(report.WithID("report-1")).Simple

	assert.Equal(t, "report-1", r.ID)
	assert.Equal(t, now, r.ValidationTime)
	require.NotNil(t, r.ValidationPolicy)
	assert.Equal(t, "QES AdESQC TL based", r.ValidationPolicy.Name)
	assert.Equal(t, 3, r.ItemCount())
	assert.Equal(t, 2, r.PassedCount())
	assert.Equal(t, 1, r.FailedCount())

	good, ok := r.Item("good")
	require.True(t, ok)
	assert.Equal(t, ades.TotalPassed, good.Conclusion.Indication)
	assert.Equal(t, "PAdES-BASELINE-B", good.Format)
	assert.Equal(t, "CN=leaf", good.SignedBy)
	assert.Equal(t, policy.ArchivalData, good.ValidationLevel)
	assert.Equal(t, "AdESig", good.Qualification)
	require.NotNil(t, good.SigningTime)
	assert.Equal(t, diagtest.Date(2024, 1, 1), *good.SigningTime)
	require.NotNil(t, good.BestSignatureTime)
	assert.Equal(t, diagtest.Date(2024, 1, 2), *good.BestSignatureTime)
	require.Len(t, good.Scopes, 1)
	assert.Equal(t, report.SignatureScope{Name: "document.pdf", Scope: report.ScopeFull, MimeType: mimetype.PDF}, *good.Scopes[0])
	require.Len(t, good.Timestamps, 1)
	assert.Equal(t, "good-ts", good.Timestamps[0].ID)
	assert.Equal(t, "TSA", good.Timestamps[0].Qualification)

	bad, ok := r.Item("bad")
	require.True(t, ok)
	assert.Equal(t, ades.TotalFailed, bad.Conclusion.Indication)
	assert.Equal(t, ades.SigCryptoFailure, bad.Conclusion.SubIndication)
	assert.Equal(t, mimetype.XML, bad.Scopes[0].MimeType)
	assert.True(t, bad.Conclusion.HasError(messages.BBB_CV_ISI_ANS))
	assert.Contains(t, bad.Conclusion.Errors, report.Message{
		Key:   string(messages.BBB_CV_ISI_ANS),
		Value: "The signature is not intact!",
	})
	assert.True(t, bad.Conclusion.HasInfo(messages.LEVEL_NOT_EVALUATED))

	ts, ok := r.Item("doc-ts")
	require.True(t, ok)
	assert.Equal(t, diagnostic.KindTimestamp, ts.Kind)
	require.NotNil(t, ts.ProductionTime)
	assert.Equal(t, diagtest.Date(2025, 1, 1), *ts.ProductionTime)
	require.Len(t, ts.Scopes, 1)
	assert.Equal(t, report.ScopeDigest, ts.Scopes[0].Scope)
	assert.Empty(t, ts.Scopes[0].MimeType)

	assert.Equal(t, ades.Failed, r.Conclusion.Indication)
	assert.Equal(t, ades.SigCryptoFailure, r.Conclusion.SubIndication)
}

func TestReportIDs(t *testing.T) {
	f := newFixture(t, 0)
	a := f.build()
	b := f.build()

	assert.NotEmpty(t, a.Simple.ID)
	assert.Equal(t, a.Simple.ID, a.Detailed.ID)
	assert.NotEqual(t, a.Simple.ID, b.Simple.ID)
}

func TestDetailedReport(t *testing.T) {
	f := newFixture(t, policy.LongTermData)
	d := f.build().Detailed

	good, ok := d.Item("good")
	require.True(t, ok)
	assert.Equal(t, policy.LongTermData, good.Target)
	require.Len(t, good.Levels, 4)
	assert.True(t, good.Level(policy.LongTermData).Evaluated)
	assert.False(t, good.Level(policy.ArchivalData).Evaluated)
	assert.Nil(t, good.Level(policy.ArchivalData).Block)

	basic := good.Level(policy.BasicSignatures).Block
	require.NotNil(t, basic)
	assert.Equal(t, process.BlockBasic, basic.Type)
	require.NotEmpty(t, basic.Constraints)
	q := basic.Constraints[0]
	assert.Equal(t, string(messages.ADEST_ROBVPIIC), q.Question.Key)
	assert.Equal(t, "Is the result of the Basic Validation Process conclusive?", q.Question.Value)
	assert.Equal(t, process.StatusOK, q.Status)
	assert.Equal(t, "good", q.Ref)
	assert.NotNil(t, basic.Find(process.BlockXCV))

	bad, ok := d.Item("bad")
	require.True(t, ok)
	cv := bad.Level(policy.BasicSignatures).Block.Find(process.BlockCV)
	require.NotNil(t, cv)
	var failed *report.Constraint
	for i := range cv.Constraints {
		if cv.Constraints[i].Status == process.StatusNotOK {
			failed = &cv.Constraints[i]
		}
	}
	require.NotNil(t, failed)
	require.NotNil(t, failed.Answer)
	assert.Equal(t, string(messages.BBB_CV_ISI_ANS), failed.Answer.Key)
	assert.Equal(t, ades.SigCryptoFailure, failed.SubIndication)

	assert.NotEmpty(t, good.Qualification)
	assert.NotEmpty(t, good.POE)
}

func TestLocalisedMessages(t *testing.T) {
	f := newFixture(t, 0)
	cat, err := messages.NewCatalog(language.French, messages.Translation{
		Language: language.French,
		Texts: map[messages.Tag]string{
			messages.BBB_CV_ISI_ANS: "La signature n'est pas intacte !",
		},
	})
	require.NoError(t, err)

	bad, ok := f.build(report.WithCatalog(cat)).Simple.Item("bad")
	require.True(t, ok)
	assert.Contains(t, bad.Conclusion.Errors, report.Message{
		Key:   string(messages.BBB_CV_ISI_ANS),
		Value: "La signature n'est pas intacte !",
	})
}

func TestCustomMimeTypes(t *testing.T) {
	f := newFixture(t, 0)
	reg := mimetype.Default().WithExtension("xml", "application/vnd.contract+xml")

	bad, ok := f.build(report.WithMimeTypes(reg)).Simple.Item("bad")
	require.True(t, ok)
	assert.Equal(t, mimetype.MimeType("application/vnd.contract+xml"), bad.Scopes[0].MimeType)
}

func TestOverallConclusion(t *testing.T) {
	passed := &report.Conclusion{Indication: ades.TotalPassed}
	indeterminate := &report.Conclusion{Indication: ades.Indeterminate, SubIndication: ades.TryLater}
	failed := &report.Conclusion{Indication: ades.Failed, SubIndication: ades.HashFailure}

	tests := []struct {
		name  string
		items []*report.Conclusion
		ind   ades.Indication
		sub   ades.SubIndication
	}{
		{name: "no items", ind: ades.NoSignatureFound},
		{name: "all passed", items: []*report.Conclusion{passed, passed}, ind: ades.Passed},
		{name: "indeterminate", items: []*report.Conclusion{passed, indeterminate}, ind: ades.Indeterminate, sub: ades.TryLater},
		{name: "failed wins", items: []*report.Conclusion{indeterminate, failed}, ind: ades.Failed, sub: ades.HashFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &report.Simple{}
			for _, c := range tt.items {
				r.Items = append(r.Items, &report.Item{Conclusion: c})
			}
			r.ComputeOverallConclusion()
			assert.Equal(t, tt.ind, r.Conclusion.Indication)
			assert.Equal(t, tt.sub, r.Conclusion.SubIndication)
		})
	}
}

func TestTextRendering(t *testing.T) {
	f := newFixture(t, 0)
	text := f.build(report.WithID("report-1")).Simple.ToText(nil)

	assert.Contains(t, text, "=== VALIDATION REPORT ===")
	assert.Contains(t, text, "Report ID: report-1")
	assert.Contains(t, text, "Overall Result: FAILED (SIG_CRYPTO_FAILURE)")
	assert.Contains(t, text, "--- Signature 1 ---")
	assert.Contains(t, text, "--- Timestamp 3 ---")
	assert.Contains(t, text, "  - document.pdf (FULL, application/pdf)")
	assert.Contains(t, text, "  ERROR: BBB_CV_ISI_ANS - The signature is not intact!")
	assert.NotContains(t, text, "INFO:")

	verbose := f.build().Simple.ToText(&report.TextFormat{IncludeInfos: true})
	assert.Contains(t, verbose, "INFO: LEVEL_NOT_EVALUATED")
	assert.NotContains(t, verbose, "Scopes:")
}

func TestJSON(t *testing.T) {
	f := newFixture(t, 0)
	out, err := f.build(report.WithID("report-1")).ToJSON()
	require.NoError(t, err)

	var decoded struct {
		Simple struct {
			ID    string `json:"id"`
			Items []struct {
				ID              string `json:"id"`
				ValidationLevel string `json:"validationLevel"`
			} `json:"items"`
		} `json:"simpleReport"`
		Detailed struct {
			Items []struct {
				Levels []struct {
					Level     string `json:"level"`
					Evaluated bool   `json:"evaluated"`
				} `json:"levels"`
			} `json:"items"`
		} `json:"detailedReport"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "report-1", decoded.Simple.ID)
	require.Len(t, decoded.Simple.Items, 3)
	assert.Equal(t, "ARCHIVAL_DATA", decoded.Simple.Items[0].ValidationLevel)
	assert.Equal(t, "BASIC_SIGNATURES", decoded.Detailed.Items[1].Levels[0].Level)
	assert.False(t, decoded.Detailed.Items[1].Levels[1].Evaluated)
}

func TestSimpleCertificateReport(t *testing.T) {
	f := newFixture(t, 0)
	rep, err := validation.NewExecutor().EvaluateCertificate(context.Background(), f.data, policy.Default(), "leaf", now)
	require.NoError(t, err)

	assert.Equal(t, "leaf", rep.Certificate)
	assert.True(t, rep.Conclusion.IsPassed())
	require.Len(t, rep.Chain, 3)
	assert.Equal(t, "CN=leaf", rep.Chain[0].Subject)
	assert.True(t, rep.Chain[0].IsValidAt(now))
	require.NotNil(t, rep.Detail)
	assert.Equal(t, process.BlockXCV, rep.Detail.Type)

	text := rep.ToText()
	assert.Contains(t, text, "=== CERTIFICATE REPORT ===")
	assert.Contains(t, text, "3. CN=root (trusted)")
	assert.Contains(t, text, "Result: PASSED")
}
