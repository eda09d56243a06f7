package cli

import (
	"bytes"
	"crypto/x509"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"

	"github.com/georgepadayatti/goades/algorithms"
	"github.com/georgepadayatti/goades/certs"
	"github.com/georgepadayatti/goades/config"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/validation"
)

// FingerprintAlgorithm is the digest identifying the input file in logs
// and output.
const FingerprintAlgorithm = algorithms.SHA3_256

// Options contains the options shared by the validation commands. Empty
// values leave the configuration untouched.
type Options struct {
	ConfigFile string
	EnvFile    string
	Policy     string
	Level      string
	Format     string
	Locale     string
	LogLevel   string
	Workers    int
	Time       string
	Detailed   bool
	Verbose    bool
	NoColor    bool
}

func (o *Options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "", "Configuration file (YAML)")
	fs.StringVar(&o.EnvFile, "env", "", "Environment file (default: .env when present)")
	fs.StringVar(&o.Policy, "policy", "", "Validation policy file (default: built-in policy)")
	fs.StringVar(&o.Level, "level", "", "Validation level: BASIC_SIGNATURES, TIMESTAMPS, LONG_TERM_DATA or ARCHIVAL_DATA")
	fs.StringVar(&o.Format, "format", "", "Output format: text or json")
	fs.StringVar(&o.Locale, "locale", "", "Language of report messages")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.IntVar(&o.Workers, "workers", 0, "Number of items validated in parallel")
	fs.StringVar(&o.Time, "time", "", "Validation time (RFC 3339, default: now)")
	fs.BoolVar(&o.Detailed, "detailed", false, "Include the detailed report in JSON output")
	fs.BoolVar(&o.Verbose, "verbose", false, "Show informational messages in text output")
	fs.BoolVar(&o.NoColor, "no-color", false, "Disable coloured output")
}

// config loads the configuration and applies the command-line overrides.
func (o *Options) config() (*config.AppConfig, error) {
	var envFiles []string
	if o.EnvFile != "" {
		envFiles = append(envFiles, o.EnvFile)
	}
	cfg, err := config.LoadAppConfig(o.ConfigFile, envFiles...)
	if err != nil {
		return nil, err
	}

	if o.Policy != "" {
		cfg.Validation.Policy = o.Policy
	}
	if o.Level != "" {
		cfg.Validation.Level = o.Level
	}
	if o.Workers > 0 {
		cfg.Validation.Workers = o.Workers
	}
	if o.Format != "" {
		cfg.Report.Format = o.Format
	}
	if o.Locale != "" {
		cfg.Report.Locale = o.Locale
	}
	if o.Detailed {
		cfg.Report.Detailed = true
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is everything a validation command needs, built from the
// options.
type session struct {
	cfg      *config.AppConfig
	policy   *policy.Policy
	level    policy.ValidationLevel
	at       time.Time
	logger   *logrus.Logger
	registry *prometheus.Registry
	executor *validation.Executor
}

func (o *Options) session() (*session, error) {
	setColor(o.NoColor)

	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Validation.LoadPolicy()
	if err != nil {
		return nil, err
	}
	level, err := cfg.Validation.ValidationLevel()
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.Report.Catalog()
	if err != nil {
		return nil, err
	}

	var at time.Time
	if o.Time != "" {
		at, err = time.Parse(time.RFC3339, o.Time)
		if err != nil {
			return nil, config.NewConfigError("time", fmt.Sprintf("invalid validation time %q", o.Time))
		}
	}

	s := &session{cfg: cfg, policy: p, level: level, at: at, logger: logger}
	opts := []validation.Option{
		validation.WithLogger(logger),
		validation.WithWorkers(cfg.Validation.Workers),
		validation.WithCatalog(catalog),
	}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		opts = append(opts, validation.WithMetrics(validation.NewMetrics(s.registry)))
	}
	s.executor = validation.NewExecutor(opts...)

	logger.WithFields(logrus.Fields{
		"policy": p.Name,
		"level":  level,
		"format": cfg.Report.Format,
	}).Debug("Configuration loaded")
	return s, nil
}

// writeMetrics writes the gathered metrics in the Prometheus text format.
func (s *session) writeMetrics() error {
	if s.registry == nil {
		return nil
	}
	families, err := s.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	out, err := config.OpenOutput(s.cfg.Metrics.Output)
	if err != nil {
		return fmt.Errorf("failed to open metrics output: %w", err)
	}
	if c, ok := out.(io.Closer); ok && out != os.Stdout && out != os.Stderr {
		defer c.Close()
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// Input describes the diagnostic data file given on the command line.
type Input struct {
	Path        string `json:"path"`
	Algorithm   string `json:"digestAlgorithm"`
	Fingerprint string `json:"fingerprint"`
}

// loadInput reads and decodes the diagnostic data file at path.
func (s *session) loadInput(path string) (*diagnostic.Data, *Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read diagnostic data: %w", err)
	}
	fingerprint, err := Fingerprint(raw)
	if err != nil {
		return nil, nil, err
	}
	in := &Input{Path: path, Algorithm: FingerprintAlgorithm, Fingerprint: fingerprint}
	s.logger.WithFields(logrus.Fields{
		"input":       path,
		"fingerprint": fingerprint,
		"size":        len(raw),
	}).Info("Loaded diagnostic data")

	data, err := diagnostic.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, in, err
	}
	return data, in, nil
}

// loadChain describes the certificates of chainFile, the trust anchors of
// trustFile and the CRLs and OCSP responses of revocationFiles as
// diagnostic data. The first certificate of the chain is the one to
// validate.
func (s *session) loadChain(chainFile, trustFile string, revocationFiles []string) (*diagnostic.Data, *Input, string, error) {
	raw, err := os.ReadFile(chainFile)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read certificate chain: %w", err)
	}
	fingerprint, err := Fingerprint(raw)
	if err != nil {
		return nil, nil, "", err
	}
	in := &Input{Path: chainFile, Algorithm: FingerprintAlgorithm, Fingerprint: fingerprint}

	chain, err := certs.Parse(raw)
	if err != nil {
		return nil, in, "", fmt.Errorf("failed to load certificate chain %s: %w", chainFile, err)
	}
	var anchors []*x509.Certificate
	if trustFile != "" {
		anchors, err = certs.Load(trustFile)
		if err != nil {
			return nil, in, "", fmt.Errorf("failed to load trust anchors: %w", err)
		}
	}

	revocations, err := certs.LoadRevocations(revocationFiles...)
	if err != nil {
		return nil, in, "", fmt.Errorf("failed to load revocation data: %w", err)
	}

	at := s.at
	if at.IsZero() {
		at = time.Now()
	}
	data, err := certs.Snapshot(at, chain, anchors, revocations...)
	if err != nil {
		return nil, in, "", err
	}
	target := certs.ID(chain[0])
	s.logger.WithFields(logrus.Fields{
		"input":        chainFile,
		"fingerprint":  fingerprint,
		"certificates": len(data.Certificates),
		"revocations":  len(data.Revocations),
		"target":       target,
	}).Info("Loaded certificate chain")
	return data, in, target, nil
}

// splitList splits a comma separated flag value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Fingerprint returns the hex encoded SHA3-256 digest of data.
func Fingerprint(data []byte) (string, error) {
	alg, ok := algorithms.DigestByName(FingerprintAlgorithm)
	if !ok {
		return "", fmt.Errorf("unknown digest algorithm %s", FingerprintAlgorithm)
	}
	h, ok := alg.New()
	if !ok {
		return "", fmt.Errorf("no implementation of %s", FingerprintAlgorithm)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
