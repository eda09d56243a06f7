// Package config loads the goades application configuration from a YAML
// file, optional .env files and GOADES_* environment variables, in that
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/policy"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
	ErrUnexpectedField    = errors.New("unexpected field in configuration")
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap exposes ErrConfigurationError and the underlying cause.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfigurationError}
	}
	return []error{ErrConfigurationError, e.Err}
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ValidationConfig selects the policy and how much validation is done.
type ValidationConfig struct {
	// Policy is the path of a validation policy file. The built-in policy
	// is used when empty.
	Policy string `yaml:"policy" env:"GOADES_POLICY"`

	// Level is the requested validation level. The policy decides when
	// empty.
	Level string `yaml:"level" env:"GOADES_VALIDATION_LEVEL"`

	// Workers bounds the number of items validated in parallel. Zero
	// means one per CPU.
	Workers int `yaml:"workers" env:"GOADES_WORKERS"`
}

// ValidationLevel parses Level.
func (c *ValidationConfig) ValidationLevel() (policy.ValidationLevel, error) {
	if c.Level == "" {
		return 0, nil
	}
	l, err := policy.ParseValidationLevel(c.Level)
	if err != nil {
		return 0, &ConfigError{Field: "validation.level", Message: err.Error(), Err: err}
	}
	return l, nil
}

// LoadPolicy loads the configured policy.
func (c *ValidationConfig) LoadPolicy() (*policy.Policy, error) {
	if c.Policy == "" {
		return policy.Default(), nil
	}
	return policy.Load(c.Policy)
}

// ReportConfig contains report rendering configuration.
type ReportConfig struct {
	// Format is the output format (text, json).
	Format string `yaml:"format" env:"GOADES_REPORT_FORMAT"`

	// Detailed adds the detailed report to JSON output.
	Detailed bool `yaml:"detailed" env:"GOADES_REPORT_DETAILED"`

	// Locale is the BCP 47 language of message texts.
	Locale string `yaml:"locale" env:"GOADES_LOCALE"`

	// Messages is the path of a YAML file mapping message keys to texts
	// in Locale.
	Messages string `yaml:"messages" env:"GOADES_MESSAGES"`
}

// Language parses Locale.
func (c *ReportConfig) Language() (language.Tag, error) {
	if c.Locale == "" {
		return language.English, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, &ConfigError{Field: "report.locale", Message: err.Error(), Err: err}
	}
	return tag, nil
}

// Catalog builds the message catalogue of Locale, registering the texts
// of the Messages file.
func (c *ReportConfig) Catalog() (*messages.Catalog, error) {
	tag, err := c.Language()
	if err != nil {
		return nil, err
	}
	if c.Messages == "" {
		return messages.NewCatalog(tag)
	}

	data, err := os.ReadFile(c.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Field: "report.messages", Message: "invalid messages file", Err: err}
	}
	texts := make(map[messages.Tag]string, len(raw))
	var unknown []string
	for key, text := range raw {
		if !messages.Known(messages.Tag(key)) {
			unknown = append(unknown, key)
			continue
		}
		texts[messages.Tag(key)] = text
	}
	if len(unknown) > 0 {
		return nil, &ConfigError{
			Field:   "report.messages",
			Message: "unknown message keys: " + strings.Join(unknown, ", "),
			Err:     ErrUnexpectedField,
		}
	}
	return messages.NewCatalog(tag, messages.Translation{Language: tag, Texts: texts})
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled turns on the validation metrics.
	Enabled bool `yaml:"enabled" env:"GOADES_METRICS_ENABLED"`

	// Output receives the metrics in the Prometheus text format after a
	// run (stdout, stderr, or file path).
	Output string `yaml:"output" env:"GOADES_METRICS_OUTPUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" env:"GOADES_LOG_LEVEL"`

	// Format is the log format (text, json).
	Format string `yaml:"format" env:"GOADES_LOG_FORMAT"`

	// Output is the log output (stdout, stderr, or file path).
	Output string `yaml:"output" env:"GOADES_LOG_OUTPUT"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// NewLogger builds the logger described by c. Files are opened for
// appending and stay open for the life of the process.
func (c *LoggingConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, &ConfigError{Field: "logging.level", Message: err.Error(), Err: err}
	}
	out, err := OpenOutput(c.Output)
	if err != nil {
		return nil, &ConfigError{Field: "logging.output", Message: "cannot open log output", Err: err}
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(out)
	if c.Format == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// OpenOutput opens a stdout, stderr or file destination.
func OpenOutput(name string) (io.Writer, error) {
	switch name {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
}

// AppConfig contains the complete application configuration.
type AppConfig struct {
	Validation ValidationConfig `yaml:"validation"`
	Report     ReportConfig     `yaml:"report"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Default returns the configuration used when nothing is configured.
func Default() *AppConfig {
	c := &AppConfig{}
	c.SetDefaults()
	return c
}

// SetDefaults fills the unset fields.
func (c *AppConfig) SetDefaults() {
	if c.Report.Format == "" {
		c.Report.Format = FormatText
	}
	if c.Metrics.Output == "" {
		c.Metrics.Output = "stderr"
	}
	c.Logging.SetDefaults()
}

// Validate checks every field and reports all problems at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error
	if c.Validation.Workers < 0 {
		result = multierror.Append(result, NewConfigError("validation.workers", "must not be negative"))
	}
	if _, err := c.Validation.ValidationLevel(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Report.Format != FormatText && c.Report.Format != FormatJSON {
		result = multierror.Append(result, NewConfigError("report.format",
			fmt.Sprintf("unknown format %q", c.Report.Format)))
	}
	if _, err := c.Report.Language(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		result = multierror.Append(result, &ConfigError{Field: "logging.level", Message: err.Error(), Err: err})
	}
	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		result = multierror.Append(result, NewConfigError("logging.format",
			fmt.Sprintf("unknown format %q", c.Logging.Format)))
	}
	return result.ErrorOrNil()
}

// ParseConfig parses configuration from YAML data. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*AppConfig, error) {
	var config AppConfig
	if err := decodeYAML(data, &config); err != nil {
		return nil, err
	}
	config.SetDefaults()
	return &config, nil
}

func decodeYAML(data []byte, config *AppConfig) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		return &ConfigError{Message: "failed to parse config", Err: err}
	}
	return nil
}

// LoadEnv loads the given .env files into the environment. Without files
// a .env file in the working directory is loaded when present. Variables
// already set are never overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides c with the GOADES_* environment variables.
func (c *AppConfig) ApplyEnv() error {
	if err := envdecode.Decode(c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return &ConfigError{Message: "invalid environment", Err: err}
	}
	return nil
}

// LoadAppConfig loads the configuration file at filename, if any, then
// the env files and the environment, and validates the result.
func LoadAppConfig(filename string, envFiles ...string) (*AppConfig, error) {
	var config AppConfig
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeYAML(data, &config); err != nil {
			return nil, err
		}
	}
	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
