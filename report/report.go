// Package report builds the simple and detailed validation reports from
// the trace of a validation run, and the simple certificate report.
// Message keys are rendered with a messages.Catalog so reports can be
// produced in any registered language.
package report

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/mimetype"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/validation/trace"
)

// Message is a rendered message: its stable key and its text.
type Message struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Conclusion is a rendered verdict.
type Conclusion struct {
	Indication    ades.Indication    `json:"indication"`
	SubIndication ades.SubIndication `json:"subIndication,omitempty"`
	Errors        []Message          `json:"errors,omitempty"`
	Warnings      []Message          `json:"warnings,omitempty"`
	Infos         []Message          `json:"infos,omitempty"`
}

// IsPassed returns true if the indication is PASSED or TOTAL_PASSED.
func (c *Conclusion) IsPassed() bool {
	return c != nil && c.Indication.IsPassed()
}

// IsFailed returns true if the indication is FAILED or TOTAL_FAILED.
func (c *Conclusion) IsFailed() bool {
	return c != nil && c.Indication.IsFailed()
}

// IsIndeterminate returns true if the indication is INDETERMINATE.
func (c *Conclusion) IsIndeterminate() bool {
	return c != nil && c.Indication.IsIndeterminate()
}

// HasError reports whether the conclusion carries an error with key.
func (c *Conclusion) HasError(key messages.Tag) bool {
	return hasKey(c.Errors, key)
}

// HasWarning reports whether the conclusion carries a warning with key.
func (c *Conclusion) HasWarning(key messages.Tag) bool {
	return hasKey(c.Warnings, key)
}

// HasInfo reports whether the conclusion carries an information with key.
func (c *Conclusion) HasInfo(key messages.Tag) bool {
	return hasKey(c.Infos, key)
}

func hasKey(list []Message, key messages.Tag) bool {
	for _, m := range list {
		if m.Key == string(key) {
			return true
		}
	}
	return false
}

// ValidationPolicy names the policy a report was produced with.
type ValidationPolicy struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Reports bundles the reports of one validation run.
type Reports struct {
	Simple   *Simple   `json:"simpleReport"`
	Detailed *Detailed `json:"detailedReport"`
}

// ToJSON serializes both reports to JSON.
func (r *Reports) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Option configures report building.
type Option func(*builder)

// WithCatalog sets the catalogue rendering message texts. English is used
// by default.
func WithCatalog(c *messages.Catalog) Option {
	return func(b *builder) {
		if c != nil {
			b.catalog = c
		}
	}
}

// WithMimeTypes sets the registry resolving the MIME type of signature
// scopes.
func WithMimeTypes(r *mimetype.Registry) Option {
	return func(b *builder) {
		if r != nil {
			b.mimes = r
		}
	}
}

// WithID sets the report id. A random UUID is used by default.
func WithID(id string) Option {
	return func(b *builder) { b.id = id }
}

type builder struct {
	data    *diagnostic.Data
	catalog *messages.Catalog
	mimes   *mimetype.Registry
	id      string
}

func newBuilder(data *diagnostic.Data, opts []Option) *builder {
	b := &builder{
		data:    data,
		catalog: messages.English(),
		mimes:   mimetype.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = uuid.New().String()
	}
	return b
}

// Build renders the simple and detailed reports of tr. Both reports
// share the same id.
func Build(data *diagnostic.Data, p *policy.Policy, tr *trace.Trace, opts ...Option) *Reports {
	b := newBuilder(data, opts)
	return &Reports{
		Simple:   b.simple(p, tr),
		Detailed: b.detailed(tr),
	}
}

func (b *builder) message(m messages.Message) Message {
	return Message{Key: string(m.Tag), Value: b.catalog.Text(m)}
}

func (b *builder) messages(list []messages.Message) []Message {
	if len(list) == 0 {
		return nil
	}
	out := make([]Message, len(list))
	for i, m := range list {
		out[i] = b.message(m)
	}
	return out
}

func (b *builder) conclusion(c *ades.Conclusion) *Conclusion {
	if c == nil {
		return nil
	}
	return &Conclusion{
		Indication:    c.Indication,
		SubIndication: c.SubIndication,
		Errors:        b.messages(c.Errors),
		Warnings:      b.messages(c.Warnings),
		Infos:         b.messages(c.Infos),
	}
}
