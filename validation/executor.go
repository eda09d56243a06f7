// Package validation runs the validation levels over every top-level item
// of a diagnostic data snapshot and builds the reports.
package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/messages"
	"github.com/georgepadayatti/goades/mimetype"
	"github.com/georgepadayatti/goades/policy"
	"github.com/georgepadayatti/goades/process/bbb"
	"github.com/georgepadayatti/goades/process/qualification"
	"github.com/georgepadayatti/goades/process/xcv"
	"github.com/georgepadayatti/goades/report"
	"github.com/georgepadayatti/goades/validation/trace"
)

var (
	// ErrNoData is returned when no diagnostic data is given.
	ErrNoData = errors.New("validation: no diagnostic data")
	// ErrNoPolicy is returned when no validation policy is given.
	ErrNoPolicy = errors.New("validation: no validation policy")
	// ErrUnknownCertificate is returned by EvaluateCertificate for an id
	// missing from the snapshot.
	ErrUnknownCertificate = errors.New("validation: unknown certificate")
)

// Executor validates diagnostic data snapshots. An Executor is safe for
// concurrent use.
type Executor struct {
	logger  logrus.FieldLogger
	metrics *Metrics
	clock   clockwork.Clock
	workers int
	catalog *messages.Catalog
	mimes   *mimetype.Registry
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. The default logger discards its output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock sets the clock giving the validation time when none is
// requested.
func WithClock(c clockwork.Clock) Option {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithWorkers bounds the number of items validated in parallel.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithCatalog sets the catalogue rendering report messages.
func WithCatalog(c *messages.Catalog) Option {
	return func(e *Executor) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithMimeTypes sets the registry resolving signature scope MIME types.
func WithMimeTypes(r *mimetype.Registry) Option {
	return func(e *Executor) {
		if r != nil {
			e.mimes = r
		}
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...Option) *Executor {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Executor{
		logger:  silent,
		clock:   clockwork.NewRealClock(),
		workers: runtime.GOMAXPROCS(0),
		catalog: messages.English(),
		mimes:   mimetype.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates every top-level item of data at validationTime, up to
// level. A zero validationTime means now; an unset level lets the policy
// decide per item. data must be indexed and must not be modified while
// Run is in progress.
func (e *Executor) Run(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	validationTime time.Time, level policy.ValidationLevel) (tr *trace.Trace, err error) {
	defer func() { e.metrics.observeRun(err) }()

	if data == nil {
		return nil, ErrNoData
	}
	if p == nil {
		return nil, ErrNoPolicy
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if validationTime.IsZero() {
		validationTime = e.clock.Now()
	}

	items := data.Items()
	log := e.logger.WithFields(logrus.Fields{
		"validation_time": validationTime.UTC().Format(time.RFC3339),
		"items":           len(items),
		"policy":          p.Name,
	})
	log.Info("Starting validation")

	tr = &trace.Trace{
		ValidationTime: validationTime,
		Level:          level,
		Items:          make([]*trace.Item, len(items)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r := newRunner(data, p, validationTime, log)
			res := r.item(it, level)
			e.metrics.observeItem(it.Kind, res.Conclusion, time.Since(start))
			tr.Items[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Validation interrupted")
		return nil, fmt.Errorf("validation interrupted: %w", err)
	}

	log.Info("Validation completed")
	return tr, nil
}

// Evaluate validates data and builds the simple and detailed reports.
func (e *Executor) Evaluate(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	validationTime time.Time, level policy.ValidationLevel) (*report.Reports, error) {
	tr, err := e.Run(ctx, data, p, validationTime, level)
	if err != nil {
		return nil, err
	}
	return report.Build(data, p, tr, e.reportOptions()...), nil
}

// RunCertificate validates the chain of the certificate certID at
// validationTime and qualifies it.
func (e *Executor) RunCertificate(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	certID string, validationTime time.Time) (*trace.Certificate, error) {
	if data == nil {
		return nil, ErrNoData
	}
	if p == nil {
		return nil, ErrNoPolicy
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if _, ok := data.Certificate(certID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCertificate, certID)
	}
	if validationTime.IsZero() {
		validationTime = e.clock.Now()
	}
	log := e.logger.WithField("certificate", certID)
	log.Info("Validating certificate")

	blocks := bbb.New(data, p)
	res := blocks.Chains().Validate(xcv.Request{
		Certificate: certID,
		Context:     policy.ContextSignature,
		RefTime:     validationTime,
		CryptoTime:  validationTime,
	})
	cert, _ := data.Certificate(certID)
	out := &trace.Certificate{
		ValidationTime: validationTime,
		ID:             certID,
		XCV:            res,
		Conclusion:     res.Conclusion().Clone(),
		Qualification:  qualification.New(data, p).Certificate(cert, validationTime),
	}
	e.metrics.observeItem("CERTIFICATE", out.Conclusion, 0)
	log.WithField("indication", out.Conclusion.Indication).Debug("Certificate validated")
	return out, nil
}

// EvaluateCertificate validates one certificate and builds its simple
// certificate report.
func (e *Executor) EvaluateCertificate(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	certID string, validationTime time.Time) (*report.SimpleCertificate, error) {
	tr, err := e.RunCertificate(ctx, data, p, certID, validationTime)
	if err != nil {
		return nil, err
	}
	return report.BuildCertificate(data, tr, e.reportOptions()...), nil
}

func (e *Executor) reportOptions() []report.Option {
	return []report.Option{report.WithCatalog(e.catalog), report.WithMimeTypes(e.mimes)}
}

// Evaluate validates data with a default executor.
func Evaluate(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	validationTime time.Time, level policy.ValidationLevel) (*report.Reports, error) {
	return NewExecutor().Evaluate(ctx, data, p, validationTime, level)
}

// EvaluateCertificate validates one certificate with a default executor.
func EvaluateCertificate(ctx context.Context, data *diagnostic.Data, p *policy.Policy,
	certID string, validationTime time.Time) (*report.SimpleCertificate, error) {
	return NewExecutor().EvaluateCertificate(ctx, data, p, certID, validationTime)
}
