package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/goades/algorithms"
)

// Common errors
var (
	ErrInvalidPolicy = errors.New("invalid validation policy")
)

// Error is a policy configuration error with the offending field.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("policy error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("policy error: %s", e.Message)
}

// Unwrap exposes ErrInvalidPolicy and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidPolicy}
	}
	return []error{ErrInvalidPolicy, e.Err}
}

func newError(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

//go:embed default.yaml
var defaultPolicyYAML []byte

// Default returns the built-in policy.
func Default() *Policy {
	p, err := Parse(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("policy: built-in policy is invalid: %v", err))
	}
	return p
}

// DefaultYAML returns the source of the built-in policy.
func DefaultYAML() []byte {
	return append([]byte{}, defaultPolicyYAML...)
}

// Load reads a policy from a YAML or JSON file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML or JSON policy document. Every problem found in the
// document is reported in the returned error.
func Parse(data []byte) (*Policy, error) {
	var raw rawPolicy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Message: "empty policy document", Err: err}
		}
		return nil, &Error{Message: "malformed policy document", Err: err}
	}

	b := &builder{}
	p := b.policy(&raw)
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return p.Resolve(), nil
}

type rawPolicy struct {
	Name                          string                 `yaml:"name"`
	Description                   string                 `yaml:"description"`
	Model                         string                 `yaml:"model"`
	ValidationLevel               string                 `yaml:"validation-level"`
	RevocationFreshness           string                 `yaml:"revocation-freshness"`
	TimestampOrderLevel           string                 `yaml:"timestamp-order-level"`
	EvidenceRecordConclusiveLevel string                 `yaml:"evidence-record-conclusive-level"`
	TimestampConclusiveLevel      string                 `yaml:"timestamp-conclusive-level"`
	QualificationLevel            string                 `yaml:"qualification-level"`
	Cryptographic                 *rawCryptographic      `yaml:"cryptographic"`
	Contexts                      map[string]*rawContext `yaml:"contexts"`
}

type rawCryptographic struct {
	Level                          string            `yaml:"level"`
	DigestLevel                    string            `yaml:"digest-level"`
	EncryptionLevel                string            `yaml:"encryption-level"`
	KeySizeLevel                   string            `yaml:"key-size-level"`
	ExpirationLevel                string            `yaml:"expiration-level"`
	AcceptableDigestAlgorithms     []string          `yaml:"acceptable-digest-algorithms"`
	AcceptableEncryptionAlgorithms []string          `yaml:"acceptable-encryption-algorithms"`
	MinimumKeySizes                map[string]int    `yaml:"minimum-key-sizes"`
	ExpirationDates                *rawExpirationSet `yaml:"algo-expiration-dates"`
}

type rawExpirationSet struct {
	Format           string             `yaml:"format"`
	UpdateDate       string             `yaml:"update-date"`
	LevelAfterUpdate string             `yaml:"level-after-update"`
	Algorithms       []rawExpirationRow `yaml:"algorithms"`
}

type rawExpirationRow struct {
	Name   string `yaml:"name"`
	Size   int    `yaml:"size"`
	Date   string `yaml:"date"`
	Format string `yaml:"format"`
}

type rawContext struct {
	Cryptographic                *rawCryptographic `yaml:"cryptographic"`
	ValidationLevel              string            `yaml:"validation-level"`
	SigningCertificateIdentified string            `yaml:"signing-certificate-identified"`
	ReferenceDataFound           string            `yaml:"reference-data-found"`
	ReferenceDataIntact          string            `yaml:"reference-data-intact"`
	SignatureIntact              string            `yaml:"signature-intact"`
	ChainTrusted                 string            `yaml:"chain-trusted"`
	SigningCertificate           *rawCertificate   `yaml:"signing-certificate"`
	CACertificate                *rawCertificate   `yaml:"ca-certificate"`
}

type rawCertificate struct {
	Cryptographic            *rawCryptographic `yaml:"cryptographic"`
	SignatureIntact          string            `yaml:"signature-intact"`
	ValidityRange            string            `yaml:"validity-range"`
	KeyUsage                 *rawKeyUsage      `yaml:"key-usage"`
	RevocationDataAvailable  string            `yaml:"revocation-data-available"`
	RevocationDataAcceptable string            `yaml:"revocation-data-acceptable"`
	NotRevoked               string            `yaml:"not-revoked"`
	NotOnHold                string            `yaml:"not-on-hold"`
	RevocationFreshness      *rawFreshness     `yaml:"revocation-freshness"`
}

type rawKeyUsage struct {
	Level  string   `yaml:"level"`
	Values []string `yaml:"values"`
}

type rawFreshness struct {
	Level string `yaml:"level"`
	Max   string `yaml:"max"`
}

var contextKeys = map[string]Context{
	"signature":         ContextSignature,
	"counter-signature": ContextCounterSignature,
	"timestamp":         ContextTimestamp,
	"revocation":        ContextRevocation,
	"evidence-record":   ContextEvidenceRecord,
}

// builder converts the raw document, collecting every error.
type builder struct {
	errs *multierror.Error
}

func (b *builder) fail(field, format string, args ...any) {
	b.errs = multierror.Append(b.errs, newError(field, format, args...))
}

func (b *builder) policy(raw *rawPolicy) *Policy {
	p := &Policy{
		Name:        raw.Name,
		Description: raw.Description,
		Contexts:    make(map[Context]*ContextConstraints),
	}
	if raw.Model != "" {
		m, err := ParseModel(raw.Model)
		if err != nil {
			b.fail("model", "%v", err)
		}
		p.Model = m
	}
	p.ValidationLevel = b.validationLevel("validation-level", raw.ValidationLevel)
	p.RevocationFreshness = b.duration("revocation-freshness", raw.RevocationFreshness)
	p.TimestampOrderLevel = b.level("timestamp-order-level", raw.TimestampOrderLevel).Or(LevelFail)
	p.EvidenceRecordConclusiveLevel = b.level("evidence-record-conclusive-level", raw.EvidenceRecordConclusiveLevel).Or(LevelWarn)
	p.TimestampConclusiveLevel = b.level("timestamp-conclusive-level", raw.TimestampConclusiveLevel).Or(LevelWarn)
	p.QualificationLevel = b.level("qualification-level", raw.QualificationLevel).Or(LevelWarn)
	p.DefaultCryptographic = b.cryptographic("cryptographic", raw.Cryptographic)

	for key, rc := range raw.Contexts {
		ctx, ok := contextKeys[key]
		if !ok {
			b.fail("contexts."+key, "unknown context")
			continue
		}
		p.Contexts[ctx] = b.context("contexts."+key, rc)
	}
	return p
}

func (b *builder) context(field string, raw *rawContext) *ContextConstraints {
	if raw == nil {
		return &ContextConstraints{}
	}
	return &ContextConstraints{
		Cryptographic:                b.cryptographic(field+".cryptographic", raw.Cryptographic),
		ValidationLevel:              b.validationLevel(field+".validation-level", raw.ValidationLevel),
		SigningCertificateIdentified: b.level(field+".signing-certificate-identified", raw.SigningCertificateIdentified),
		ReferenceDataFound:           b.level(field+".reference-data-found", raw.ReferenceDataFound),
		ReferenceDataIntact:          b.level(field+".reference-data-intact", raw.ReferenceDataIntact),
		SignatureIntact:              b.level(field+".signature-intact", raw.SignatureIntact),
		ChainTrusted:                 b.level(field+".chain-trusted", raw.ChainTrusted),
		SigningCertificate:           b.certificate(field+".signing-certificate", raw.SigningCertificate),
		CACertificate:                b.certificate(field+".ca-certificate", raw.CACertificate),
	}
}

func (b *builder) certificate(field string, raw *rawCertificate) *CertificateConstraints {
	if raw == nil {
		return nil
	}
	c := &CertificateConstraints{
		Cryptographic:            b.cryptographic(field+".cryptographic", raw.Cryptographic),
		SignatureIntact:          b.level(field+".signature-intact", raw.SignatureIntact),
		ValidityRange:            b.level(field+".validity-range", raw.ValidityRange),
		RevocationDataAvailable:  b.level(field+".revocation-data-available", raw.RevocationDataAvailable),
		RevocationDataAcceptable: b.level(field+".revocation-data-acceptable", raw.RevocationDataAcceptable),
		NotRevoked:               b.level(field+".not-revoked", raw.NotRevoked),
		NotOnHold:                b.level(field+".not-on-hold", raw.NotOnHold),
	}
	if raw.KeyUsage != nil {
		c.KeyUsage = b.level(field+".key-usage.level", raw.KeyUsage.Level)
		c.KeyUsages = raw.KeyUsage.Values
	}
	if raw.RevocationFreshness != nil {
		c.RevocationFreshness = b.level(field+".revocation-freshness.level", raw.RevocationFreshness.Level)
		c.MaxFreshness = b.duration(field+".revocation-freshness.max", raw.RevocationFreshness.Max)
	}
	return c
}

func (b *builder) cryptographic(field string, raw *rawCryptographic) *CryptographicConstraint {
	if raw == nil {
		return nil
	}
	c := &CryptographicConstraint{
		Level:           b.level(field+".level", raw.Level),
		DigestLevel:     b.level(field+".digest-level", raw.DigestLevel),
		EncryptionLevel: b.level(field+".encryption-level", raw.EncryptionLevel),
		KeySizeLevel:    b.level(field+".key-size-level", raw.KeySizeLevel),
		ExpirationLevel: b.level(field+".expiration-level", raw.ExpirationLevel),
	}

	if raw.AcceptableDigestAlgorithms != nil {
		c.AcceptableDigestAlgorithms = make([]string, 0, len(raw.AcceptableDigestAlgorithms))
		for _, name := range raw.AcceptableDigestAlgorithms {
			if canonical, ok := algorithms.CanonicalDigest(name); ok {
				c.AcceptableDigestAlgorithms = append(c.AcceptableDigestAlgorithms, canonical)
			} else {
				b.fail(field+".acceptable-digest-algorithms", "unknown digest algorithm %q", name)
			}
		}
	}
	if raw.AcceptableEncryptionAlgorithms != nil {
		c.AcceptableEncryptionAlgorithms = make([]string, 0, len(raw.AcceptableEncryptionAlgorithms))
		for _, name := range raw.AcceptableEncryptionAlgorithms {
			if canonical, ok := algorithms.CanonicalEncryption(name); ok {
				c.AcceptableEncryptionAlgorithms = append(c.AcceptableEncryptionAlgorithms, canonical)
			} else {
				b.fail(field+".acceptable-encryption-algorithms", "unknown encryption algorithm %q", name)
			}
		}
	}
	if raw.MinimumKeySizes != nil {
		c.MinimumKeySizes = make(map[string]int, len(raw.MinimumKeySizes))
		for name, size := range raw.MinimumKeySizes {
			canonical, ok := algorithms.CanonicalEncryption(name)
			if !ok {
				b.fail(field+".minimum-key-sizes", "unknown encryption algorithm %q", name)
				continue
			}
			if size < 0 {
				b.fail(field+".minimum-key-sizes", "negative key size %d for %s", size, name)
				continue
			}
			c.MinimumKeySizes[canonical] = size
		}
	}
	if raw.ExpirationDates != nil {
		b.expirations(field+".algo-expiration-dates", raw.ExpirationDates, c)
	}
	return c
}

func (b *builder) expirations(field string, raw *rawExpirationSet, c *CryptographicConstraint) {
	layout := goLayout(raw.Format)
	if raw.UpdateDate != "" {
		d, err := time.ParseInLocation(layout, raw.UpdateDate, time.UTC)
		if err != nil {
			b.fail(field+".update-date", "cannot parse date %q with format %q", raw.UpdateDate, raw.Format)
		} else {
			c.UpdateDate = &d
		}
	}
	c.LevelAfterUpdate = b.level(field+".level-after-update", raw.LevelAfterUpdate)

	c.ExpirationDates = make([]AlgoExpirationDate, 0, len(raw.Algorithms))
	seenDigest := make(map[string]bool)
	seenEncryption := make(map[string]bool)
	for i, row := range raw.Algorithms {
		rowField := fmt.Sprintf("%s.algorithms[%d]", field, i)
		rowLayout := layout
		if row.Format != "" {
			rowLayout = goLayout(row.Format)
		}
		date, err := time.ParseInLocation(rowLayout, row.Date, time.UTC)
		if err != nil {
			b.fail(rowField, "cannot parse date %q of %s", row.Date, row.Name)
			continue
		}

		if digest, ok := algorithms.CanonicalDigest(row.Name); ok {
			if row.Size != 0 {
				b.fail(rowField, "digest algorithm %s takes no key size", row.Name)
				continue
			}
			if seenDigest[digest] {
				b.fail(rowField, "duplicate expiration date for %s", digest)
				continue
			}
			seenDigest[digest] = true
			c.ExpirationDates = append(c.ExpirationDates, AlgoExpirationDate{Algorithm: digest, Date: date})
			continue
		}

		encryption, ok := algorithms.CanonicalEncryption(row.Name)
		if !ok {
			b.fail(rowField, "unknown algorithm %q", row.Name)
			continue
		}
		key := encryption + "/" + strconv.Itoa(row.Size)
		if seenEncryption[key] {
			b.fail(rowField, "duplicate expiration date for %s with key size %d", encryption, row.Size)
			continue
		}
		seenEncryption[key] = true
		c.ExpirationDates = append(c.ExpirationDates, AlgoExpirationDate{
			Algorithm: encryption,
			KeySize:   row.Size,
			Date:      date,
		})
	}
}

func (b *builder) level(field, s string) Level {
	if s == "" {
		return ""
	}
	l, err := ParseLevel(s)
	if err != nil {
		b.fail(field, "%v", err)
	}
	return l
}

func (b *builder) validationLevel(field, s string) ValidationLevel {
	if s == "" {
		return 0
	}
	l, err := ParseValidationLevel(s)
	if err != nil {
		b.fail(field, "%v", err)
	}
	return l
}

func (b *builder) duration(field, s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := parseDuration(s)
	if err != nil {
		b.fail(field, "%v", err)
	}
	return d
}

// parseDuration accepts Go durations plus a whole number of days ("30d").
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

const defaultDateFormat = "yyyy-MM-dd"

// goLayout converts a date pattern such as "yyyy-MM-dd" to a Go time
// layout. Patterns without these tokens are used as Go layouts unchanged.
func goLayout(format string) string {
	if format == "" {
		format = defaultDateFormat
	}
	r := strings.NewReplacer(
		"yyyy", "2006",
		"MM", "01",
		"dd", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return r.Replace(format)
}
