package vts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/diagnostic/diagtest"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/vts"
)

var now = diagtest.Date(2025, 6, 1)

type fixture struct {
	b    *diagtest.Builder
	ca   *diagnostic.Certificate
	leaf *diagnostic.Certificate
}

func newFixture() *fixture {
	b := diagtest.New(now)
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	ca := b.CA("ca", root, diagtest.Date(2015, 1, 1), diagtest.Date(2030, 1, 1))
	leaf := b.Leaf("leaf", ca, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	b.FreshCRL(ca)
	return &fixture{b: b, ca: ca, leaf: leaf}
}

func (f *fixture) validate(t *testing.T, model policy.Model) *vts.Result {
	t.Helper()
	p := policy.Default()
	p.Model = model
	data := f.b.MustBuild()
	checker := bbb.New(data, p)
	return vts.New(data, p, checker).Validate(policy.ContextSignature, data.Chain(f.leaf.ID), now)
}

func TestControlTimeUnchanged(t *testing.T) {
	f := newFixture()
	f.b.FreshCRL(f.leaf)
	res := f.validate(t, policy.ModelShell)

	assert.True(t, res.Conclusion().IsPassed())
	assert.Equal(t, now, res.ControlTime)
	assert.Empty(t, res.VTS.Conclusion.Infos)
	assert.Same(t, res.VTS, res.Block.Find(process.BlockVTS))

	c, ok := res.Block.Constraint(messages.PCV_IVTSC)
	require.True(t, ok)
	assert.Equal(t, process.StatusOK, c.Status)
}

func TestStaleRevocationDataSlides(t *testing.T) {
	f := newFixture()
	this := diagtest.Date(2024, 6, 1)
	f.b.CRL("crl-old", f.leaf, this, diagtest.Date(2024, 7, 1))
	res := f.validate(t, policy.ModelShell)

	assert.True(t, res.Conclusion().IsPassed())
	assert.Equal(t, this, res.ControlTime)
	assert.Contains(t, res.VTS.Conclusion.Infos, messages.New(messages.VTS_CTS_STALE, "crl-old"))
}

func TestRevocationSlidesByModel(t *testing.T) {
	revokedAt := diagtest.Date(2025, 1, 1)
	tests := []struct {
		name   string
		model  policy.Model
		reason diagnostic.RevocationReason
		want   bool
	}{
		{"shell superseded", policy.ModelShell, diagnostic.ReasonSuperseded, true},
		{"chain superseded", policy.ModelChain, diagnostic.ReasonSuperseded, false},
		{"hybrid superseded", policy.ModelHybrid, diagnostic.ReasonSuperseded, false},
		{"chain key compromise", policy.ModelChain, diagnostic.ReasonKeyCompromise, true},
		{"hybrid unspecified", policy.ModelHybrid, diagnostic.ReasonUnspecified, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			crl := f.b.FreshCRL(f.leaf)
			f.b.Revoke(f.leaf, crl, revokedAt, tt.reason)
			res := f.validate(t, tt.model)

			require.True(t, res.Conclusion().IsPassed())
			if !tt.want {
				assert.Equal(t, now, res.ControlTime)
				return
			}
			assert.Equal(t, revokedAt, res.ControlTime)
			assert.Contains(t, res.VTS.Conclusion.Infos, messages.New(messages.VTS_CTS_REVOKED, "leaf"))
		})
	}
}

func TestRevokedCASlidesUnderHybrid(t *testing.T) {
	f := newFixture()
	crl := f.b.Data().Revocations[0]
	revokedAt := diagtest.Date(2024, 3, 1)
	f.b.Revoke(f.ca, crl, revokedAt, diagnostic.ReasonCessationOfOperation)
	f.b.CRL("crl-leaf-2024", f.leaf, diagtest.Date(2024, 2, 1), diagtest.Date(2024, 3, 15))

	res := f.validate(t, policy.ModelHybrid)
	assert.True(t, res.Conclusion().IsPassed())
	assert.Equal(t, revokedAt, res.ControlTime)
	assert.Contains(t, res.VTS.Conclusion.Infos, messages.New(messages.VTS_CTS_REVOKED, "ca"))
}

func TestSlidBeforeRevocationData(t *testing.T) {
	f := newFixture()
	f.ca.Revocations = nil
	f.b.Data().Revocations = nil
	f.b.CRL("crl-ca-old", f.ca, diagtest.Date(2024, 1, 1), diagtest.Date(2024, 2, 1))
	f.b.FreshCRL(f.leaf)

	// The stale CA data moves the control time before the only revocation
	// data of the leaf.
	res := f.validate(t, policy.ModelShell)
	assert.Equal(t, ades.Indeterminate, res.Conclusion().Indication)
	assert.Equal(t, ades.NoPOE, res.Conclusion().SubIndication)
	assert.Equal(t, diagtest.Date(2024, 1, 1), res.ControlTime)

	c, ok := res.VTS.Constraint(messages.VTS_ICTBRD)
	require.True(t, ok)
	assert.Equal(t, process.StatusNotOK, c.Status)
	assert.Equal(t, "leaf", c.ID)
}

func TestMissingRevocationData(t *testing.T) {
	f := newFixture()
	res := f.validate(t, policy.ModelShell)

	assert.Equal(t, ades.Indeterminate, res.Conclusion().Indication)
	assert.Equal(t, ades.NoPOE, res.Conclusion().SubIndication)
	assert.Contains(t, res.Conclusion().Errors, messages.New(messages.VTS_IRDPFC_ANS, "leaf"))
}

func TestExpiredAlgorithmSlides(t *testing.T) {
	f := newFixture()
	f.b.FreshCRL(f.leaf)
	f.leaf.Signature.DigestAlgorithm = "SHA1"
	res := f.validate(t, policy.ModelShell)

	assert.True(t, res.Conclusion().IsPassed())
	assert.Equal(t, diagtest.Date(2009, 8, 1), res.ControlTime)
	assert.Contains(t, res.VTS.Conclusion.Infos, messages.New(messages.VTS_CTS_CRYPTO, "SHA1"))
}

func TestUntrustedRevocationDataIsIgnored(t *testing.T) {
	f := newFixture()
	crl := f.b.FreshCRL(f.leaf)
	crl.Signature.Intact = false
	res := f.validate(t, policy.ModelShell)

	assert.Equal(t, ades.NoPOE, res.Conclusion().SubIndication)
}
