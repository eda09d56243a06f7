package cli

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/certs"
	"github.com/georgepadayatti/goades/diagnostic/diagtest"
	"github.com/georgepadayatti/goades/policy"
)

const validationTime = "2026-06-01T00:00:00Z"

// writeSnapshot writes a diagnostic data file with one signature and
// returns its path. A broken signature is not intact.
func writeSnapshot(t *testing.T, broken bool) string {
	t.Helper()
	b := diagtest.New(diagtest.Date(2026, 6, 1))
	root := b.Root("root", diagtest.Date(2010, 1, 1), diagtest.Date(2040, 1, 1))
	leaf := b.Leaf("leaf", root, diagtest.Date(2020, 1, 1), diagtest.Date(2027, 1, 1))
	tsa := b.TSA("tsa", root, diagtest.Date(2018, 1, 1), diagtest.Date(2032, 1, 1))
	b.FreshCRL(leaf)
	b.FreshCRL(tsa)
	sig := b.Signature("sig", leaf, diagtest.Date(2024, 1, 1))
	sig.Signature.Intact = !broken
	b.SignatureTimestamp("ts", sig, tsa, diagtest.Date(2024, 1, 2))

	raw, err := json.Marshal(b.MustBuild())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "diagnostic.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Execute(append([]string{"goades"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecuteUsage(t *testing.T) {
	code, stdout, _ := execute()
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stdout, "Commands:")

	code, _, stderr := execute("sign")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Unknown command: sign")

	code, stdout, _ = execute("help")
	assert.Equal(t, ExitPassed, code)
	assert.Contains(t, stdout, "validate")
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	defer func() { Version = "dev" }()

	code, stdout, _ := execute("version")
	assert.Equal(t, ExitPassed, code)
	assert.Contains(t, stdout, "goades version 1.2.3")
}

func TestValidateText(t *testing.T) {
	path := writeSnapshot(t, false)
	code, stdout, stderr := execute("validate", "-no-color", "-log-level", "error", "-time", validationTime, path)
	require.Equal(t, ExitPassed, code, stderr)

	assert.Contains(t, stdout, "Input: "+path)
	assert.Contains(t, stdout, "SHA3-256: ")
	assert.Contains(t, stdout, "=== VALIDATION REPORT ===")
	assert.Contains(t, stdout, "Overall Result: PASSED")
	assert.Contains(t, stdout, "Overall: [OK] PASSED")
}

func TestValidateJSON(t *testing.T) {
	path := writeSnapshot(t, false)
	code, stdout, stderr := execute("validate", "-format", "json", "-detailed", "-log-level", "error",
		"-time", validationTime, path)
	require.Equal(t, ExitPassed, code, stderr)

	var out ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	fingerprint, err := Fingerprint(raw)
	require.NoError(t, err)

	assert.Equal(t, path, out.Input.Path)
	assert.Equal(t, "SHA3-256", out.Input.Algorithm)
	assert.Equal(t, fingerprint, out.Input.Fingerprint)
	require.NotNil(t, out.Simple)
	assert.Equal(t, ades.Passed, out.Simple.Conclusion.Indication)
	require.Len(t, out.Simple.Items, 1)
	assert.Equal(t, ades.TotalPassed, out.Simple.Items[0].Conclusion.Indication)
	require.NotNil(t, out.Detailed)
	assert.Equal(t, out.Simple.ID, out.Detailed.ID)
}

func TestValidateLevel(t *testing.T) {
	path := writeSnapshot(t, false)
	code, stdout, stderr := execute("validate", "-format", "json", "-level", "BASIC_SIGNATURES",
		"-log-level", "error", "-time", validationTime, path)
	require.Equal(t, ExitPassed, code, stderr)

	var out ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Simple.Items, 1)
	assert.Equal(t, policy.BasicSignatures, out.Simple.Items[0].ValidationLevel)
	assert.Nil(t, out.Detailed)
}

func TestValidateNotPassed(t *testing.T) {
	path := writeSnapshot(t, true)
	code, stdout, _ := execute("validate", "-no-color", "-log-level", "error", "-time", validationTime, path)
	assert.Equal(t, ExitNotPassed, code)
	assert.Contains(t, stdout, "[FAIL] TOTAL_FAILED (SIG_CRYPTO_FAILURE)")
}

func TestValidateErrors(t *testing.T) {
	path := writeSnapshot(t, false)

	code, _, _ := execute("validate")
	assert.Equal(t, ExitUsage, code)

	code, _, stderr := execute("validate", "-log-level", "error", "/nonexistent/diagnostic.json")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "failed to read diagnostic data")

	code, _, stderr = execute("validate", "-level", "EVERYTHING", path)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "validation.level")

	code, _, stderr = execute("validate", "-log-level", "error", "-time", "yesterday", path)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "invalid validation time")

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"signatures": 1}`), 0o644))
	code, _, stderr = execute("validate", "-log-level", "error", broken)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "invalid diagnostic data")
}

func TestValidateMetrics(t *testing.T) {
	path := writeSnapshot(t, false)
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.prom")
	configPath := filepath.Join(dir, "goades.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"logging:\n  level: error\nmetrics:\n  enabled: true\n  output: "+metricsPath+"\n"), 0o644))

	code, _, stderr := execute("validate", "-config", configPath, "-time", validationTime, path)
	require.Equal(t, ExitPassed, code, stderr)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "# TYPE goades_validation_items_total counter")
	assert.Contains(t, string(metrics), `indication="TOTAL_PASSED"`)
	assert.Contains(t, string(metrics), `goades_validation_runs_total{result="ok"} 1`)
}

func TestCertificateCommand(t *testing.T) {
	path := writeSnapshot(t, false)
	code, stdout, stderr := execute("certificate", "-no-color", "-log-level", "error", "-time", validationTime, path, "leaf")
	require.Equal(t, ExitPassed, code, stderr)
	assert.Contains(t, stdout, "=== CERTIFICATE REPORT ===")
	assert.Contains(t, stdout, "[OK] PASSED")

	code, stdout, stderr = execute("certificate", "-format", "json", "-log-level", "error", "-time", validationTime, path, "leaf")
	require.Equal(t, ExitPassed, code, stderr)
	var out CertificateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "leaf", out.Report.Certificate)
	assert.Len(t, out.Report.Chain, 2)

	code, _, stderr = execute("certificate", "-log-level", "error", path, "unknown")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unknown")

	code, _, _ = execute("certificate", path)
	assert.Equal(t, ExitUsage, code)
}

// writeChain writes a leaf certificate issued by a self-signed root to
// chain.pem and the root to roots.pem.
func writeChain(t *testing.T) (chainPath, rootsPath string, leaf *x509.Certificate) {
	t.Helper()
	create := func(template, parent *x509.Certificate, pub, priv any) *x509.Certificate {
		der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, priv)
		require.NoError(t, err)
		cert, err := x509.ParseCertificate(der)
		require.NoError(t, err)
		return cert
	}
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root"},
		NotBefore:             time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	root := create(rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	leaf = create(&x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Test Signer"},
		NotBefore:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageContentCommitment,
	}, root, &leafKey.PublicKey, rootKey)

	dir := t.TempDir()
	chainPath = filepath.Join(dir, "chain.pem")
	rootsPath = filepath.Join(dir, "roots.pem")
	var chain []byte
	for _, c := range []*x509.Certificate{leaf, root} {
		chain = append(chain, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}
	require.NoError(t, os.WriteFile(chainPath, chain, 0o644))
	require.NoError(t, os.WriteFile(rootsPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: root.Raw}), 0o644))
	return chainPath, rootsPath, leaf
}

func TestCertificateCommandChain(t *testing.T) {
	chainPath, rootsPath, leaf := writeChain(t)

	code, stdout, stderr := execute("certificate", "-format", "json", "-log-level", "error",
		"-time", validationTime, "-chain", chainPath, "-trust", rootsPath)
	require.Contains(t, []int{ExitPassed, ExitNotPassed}, code, stderr)

	var out CertificateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, chainPath, out.Input.Path)
	assert.Equal(t, certs.ID(leaf), out.Report.Certificate)
	require.Len(t, out.Report.Chain, 2)

	code, _, stderr = execute("certificate", "-log-level", "error", "-chain", filepath.Join(t.TempDir(), "missing.pem"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "failed to read certificate chain")

	code, _, stderr = execute("certificate", "-log-level", "error", "-chain", chainPath,
		"-trust", filepath.Join(t.TempDir(), "missing.pem"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "failed to load trust anchors")

	code, _, stderr = execute("certificate", "-log-level", "error", "-chain", chainPath,
		"-revocation", rootsPath)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "failed to load revocation data")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a.crl", "b.der"}, splitList(" a.crl, ,b.der,"))
}

func TestPolicyCommand(t *testing.T) {
	code, stdout, _ := execute("policy")
	assert.Equal(t, ExitPassed, code)
	assert.Equal(t, string(policy.DefaultYAML()), stdout)

	dir := t.TempDir()
	valid := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(valid, policy.DefaultYAML(), 0o644))
	code, stdout, _ = execute("policy", "-no-color", "-check", valid)
	assert.Equal(t, ExitPassed, code)
	assert.Contains(t, stdout, "[OK] "+valid)
	assert.Contains(t, stdout, "Name: "+policy.Default().Name)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("name: broken\nmodel: SPIRAL\n"), 0o644))
	code, stdout, stderr := execute("policy", "-no-color", "-check", invalid)
	assert.Equal(t, ExitNotPassed, code)
	assert.Contains(t, stdout, "[FAIL] "+invalid)
	assert.Contains(t, stderr, "model")
}

func TestFingerprint(t *testing.T) {
	got, err := Fingerprint(nil)
	require.NoError(t, err)
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", got)
}
