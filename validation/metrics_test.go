package validation

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/diagnostic/diagtest"
	"github.com/georgepadayatti/goades/policy"
)

func TestMetricsRecordItemsAndRuns(t *testing.T) {
	now := diagtest.Date(2026, 6, 1)
	b := diagtest.New(now)
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	leaf := b.Leaf("leaf", root, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	b.FreshCRL(leaf)
	b.Signature("good", leaf, diagtest.Date(2024, 1, 1))
	bad := b.Signature("bad", leaf, diagtest.Date(2024, 1, 1))
	bad.Signature.Intact = false

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := NewExecutor(WithMetrics(m), WithWorkers(2))

	_, err := e.Run(context.Background(), b.MustBuild(), policy.Default(), now, 0)
	require.NoError(t, err)
	_, err = e.Run(context.Background(), nil, policy.Default(), now, 0)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	kind := string(diagnostic.KindSignature)
	assert.Equal(t, 1.0, counter(families, "goades_validation_items_total",
		kind, string(ades.TotalPassed), ""))
	assert.Equal(t, 1.0, counter(families, "goades_validation_items_total",
		kind, string(ades.TotalFailed), string(ades.SigCryptoFailure)))
	assert.Equal(t, 1.0, counter(families, "goades_validation_runs_total", "ok"))
	assert.Equal(t, 1.0, counter(families, "goades_validation_runs_total", "error"))
}

// counter returns the value of the counter sample of family name carrying
// exactly the label values given.
func counter(families []*dto.MetricFamily, name string, values ...string) float64 {
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if labelsMatch(m.GetLabel(), values) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(labels []*dto.LabelPair, values []string) bool {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	for _, l := range labels {
		if !want[l.GetValue()] {
			return false
		}
	}
	return len(labels) == len(values)
}

func TestNilMetricsAreIgnored(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeItem(diagnostic.KindTimestamp, ades.NewConclusion(ades.Passed, ""), 0)
		m.observeRun(nil)
	})
}
