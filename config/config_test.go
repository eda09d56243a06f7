package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
)

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	if err.Field != "field" {
		t.Errorf("Expected field 'field', got '%s'", err.Field)
	}
	if err.Message != "message" {
		t.Errorf("Expected message 'message', got '%s'", err.Message)
	}

	expected := "config error in 'field': message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
	if !errors.Is(err, ErrConfigurationError) {
		t.Error("Expected ConfigError to match ErrConfigurationError")
	}
}

func TestConfigErrorWithoutField(t *testing.T) {
	err := NewConfigError("", "general error")
	expected := "config error: general error"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Report.Format != FormatText {
		t.Errorf("Expected report format text, got %s", c.Report.Format)
	}
	if c.Logging.Level != "info" || c.Logging.Format != FormatText || c.Logging.Output != "stderr" {
		t.Errorf("Unexpected logging defaults: %+v", c.Logging)
	}
	if c.Metrics.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	yamlData := `
validation:
  policy: /etc/goades/policy.yaml
  level: LONG_TERM_DATA
  workers: 4
report:
  format: json
  detailed: true
  locale: fr
logging:
  level: debug
metrics:
  enabled: true
`
	c, err := ParseConfig([]byte(yamlData))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if c.Validation.Policy != "/etc/goades/policy.yaml" {
		t.Errorf("Unexpected policy path: %s", c.Validation.Policy)
	}
	if c.Validation.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", c.Validation.Workers)
	}
	level, err := c.Validation.ValidationLevel()
	if err != nil || level != policy.LongTermData {
		t.Errorf("Expected LONG_TERM_DATA, got %v (%v)", level, err)
	}
	if c.Report.Format != FormatJSON || !c.Report.Detailed {
		t.Errorf("Unexpected report config: %+v", c.Report)
	}
	tag, err := c.Report.Language()
	if err != nil || tag != language.French {
		t.Errorf("Expected French, got %v (%v)", tag, err)
	}
	if c.Logging.Level != "debug" || c.Logging.Format != FormatText {
		t.Errorf("Unexpected logging config: %+v", c.Logging)
	}
	if !c.Metrics.Enabled || c.Metrics.Output != "stderr" {
		t.Errorf("Unexpected metrics config: %+v", c.Metrics)
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("validation:\n  levle: BASIC_SIGNATURES\n"))
	if err == nil {
		t.Fatal("Expected error for unknown key")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("Expected ConfigError, got %T", err)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	c, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if c.Report.Format != FormatText {
		t.Errorf("Expected defaults, got %+v", c.Report)
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	c := Default()
	c.Validation.Workers = -1
	c.Validation.Level = "EVERYTHING"
	c.Report.Format = "xml"
	c.Logging.Level = "loud"

	err := c.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	for _, field := range []string{"validation.workers", "validation.level", "report.format", "logging.level"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected error to mention %s, got: %v", field, err)
		}
	}
	if !errors.Is(err, ErrConfigurationError) {
		t.Error("Expected aggregated error to match ErrConfigurationError")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOADES_VALIDATION_LEVEL", "TIMESTAMPS")
	t.Setenv("GOADES_WORKERS", "2")
	t.Setenv("GOADES_REPORT_FORMAT", "json")
	t.Setenv("GOADES_METRICS_ENABLED", "true")
	t.Setenv("GOADES_LOG_FORMAT", "json")

	c, err := ParseConfig([]byte("validation:\n  level: BASIC_SIGNATURES\n  workers: 8\n"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if err := c.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if c.Validation.Level != "TIMESTAMPS" {
		t.Errorf("Expected environment to override level, got %s", c.Validation.Level)
	}
	if c.Validation.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", c.Validation.Workers)
	}
	if c.Report.Format != FormatJSON || !c.Metrics.Enabled || c.Logging.Format != FormatJSON {
		t.Errorf("Environment not applied: %+v", c)
	}
}

func TestApplyEnvInvalidValue(t *testing.T) {
	t.Setenv("GOADES_WORKERS", "many")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("Expected error for invalid worker count")
	}
}

func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "goades.yaml")
	if err := os.WriteFile(configPath, []byte("report:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("GOADES_LOCALE=de\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOADES_LOCALE", "")
	os.Unsetenv("GOADES_LOCALE")

	c, err := LoadAppConfig(configPath, envPath)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if c.Report.Format != FormatJSON {
		t.Errorf("Expected json format from file, got %s", c.Report.Format)
	}
	if c.Report.Locale != "de" {
		t.Errorf("Expected locale from env file, got %q", c.Report.Locale)
	}
}

func TestLoadAppConfigErrors(t *testing.T) {
	if _, err := LoadAppConfig("/nonexistent/goades.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
	if _, err := LoadAppConfig("", "/nonexistent/.env"); err == nil {
		t.Error("Expected error for missing env file")
	}

	path := filepath.Join(t.TempDir(), "goades.yaml")
	if err := os.WriteFile(path, []byte("report:\n  format: pdf\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Error("Expected validation error")
	}
}

func TestLoadPolicy(t *testing.T) {
	c := ValidationConfig{}
	p, err := c.LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if p.Name != policy.Default().Name {
		t.Errorf("Expected built-in policy, got %s", p.Name)
	}

	c.Policy = "/nonexistent/policy.yaml"
	if _, err := c.LoadPolicy(); err == nil {
		t.Error("Expected error for missing policy file")
	}
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fr.yaml")
	if err := os.WriteFile(path, []byte("BBB_CV_ISI: \"La signature est-elle intacte ?\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := ReportConfig{Locale: "fr", Messages: path}
	cat, err := c.Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if got := cat.Text(messages.New(messages.BBB_CV_ISI)); got != "La signature est-elle intacte ?" {
		t.Errorf("Unexpected translation: %s", got)
	}
	if got := cat.Text(messages.New(messages.BBB_CV_ISI_ANS)); got != "The signature is not intact!" {
		t.Errorf("Expected English fallback, got: %s", got)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("NOT_A_KEY: text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.Messages = bad
	if _, err := c.Catalog(); !errors.Is(err, ErrUnexpectedField) {
		t.Errorf("Expected ErrUnexpectedField, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goades.log")
	c := LoggingConfig{Level: "warn", Format: FormatJSON, Output: path}
	logger, err := c.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", logger.Formatter)
	}

	logger.WithField("item", "sig").Warn("Validation incomplete")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"item":"sig"`) {
		t.Errorf("Expected JSON log line, got %s", data)
	}

	c.Level = "loud"
	if _, err := c.NewLogger(); err == nil {
		t.Error("Expected error for invalid level")
	}
}
