package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Toast texts shown by the landing page.
const (
	SuccessTitle   = "Thank you for your interest!"
	SuccessMessage = "We've added you to our waitlist and will notify you when we launch."
	FailureTitle   = "Something went wrong"
	FailureMessage = "We couldn't save your spot on the waitlist. Please try again."
)

const tracerName = "github.com/bloomcare/bloom-waitlist/internal/capture"

type Outcome struct {
	Sink     string        `json:"sink"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

type Result struct {
	Entry         *models.WaitlistEntry `json:"entry"`
	Success       bool                  `json:"success"`
	Outcomes      []Outcome             `json:"outcomes"`
	Notifications []notify.Notification `json:"notifications"`
}

// Outcome returns the recorded outcome for the named sink.
func (r *Result) Outcome(sink string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Sink == sink {
			return o, true
		}
	}
	return Outcome{}, false
}

type registered struct {
	sink Sink
	mode Mode
}

type Orchestrator struct {
	logger   *log.Logger
	notifier notify.Notifier
	validate *validator.Validate
	tracer   trace.Tracer
	now      func() time.Time
	sinks    []registered

	writes      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

type Option func(*Orchestrator)

// WithRegisterer registers the orchestrator's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		if reg != nil {
			reg.MustRegister(o.writes, o.duration, o.submissions)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(logger *log.Logger, notifier notify.Notifier, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = log.NewDiscardLogger()
	}

	o := &Orchestrator{
		logger:   logger,
		notifier: notifier,
		validate: validator.New(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_sink_writes_total",
			Help: "Waitlist sink write attempts by outcome.",
		}, []string{"sink", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waitlist_sink_write_duration_seconds",
			Help:    "Time spent writing a waitlist entry to a sink.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sink"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Waitlist submissions by result.",
		}, []string{"result"}),
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register appends a sink. Sinks run in registration order.
func (o *Orchestrator) Register(sink Sink, mode Mode) *Orchestrator {
	o.sinks = append(o.sinks, registered{sink: sink, mode: mode})
	return o
}

// Sinks returns the registered sink names in order.
func (o *Orchestrator) Sinks() []string {
	names := make([]string, 0, len(o.sinks))
	for _, r := range o.sinks {
		names = append(names, r.sink.Name())
	}
	return names
}

// Submit validates the input, then writes the entry to every sink in order. Only invalid
// input returns an error; sink failures are reported through the Result.
func (o *Orchestrator) Submit(ctx context.Context, email string, pref *models.PricingPreference) (*Result, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, o.logger)

	entry := models.NewWaitlistEntry(email, pref, o.now())
	if err := o.validate.Var(entry.Email, "required,email,max=255"); err != nil {
		return nil, apperrors.NewInvalidRequestError("a valid email address is required", err)
	}
	if pref != nil && !pref.IsValid() {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown pricing preference %q", *pref), nil)
	}

	recorder := notify.NewRecorder()
	ctx = notify.ContextWithNotifier(ctx, withRecorder(ctx, recorder))
	notifier := notify.FromContext(ctx, o.notifier)

	result := &Result{Entry: entry, Success: true}
	for _, r := range o.sinks {
		outcome := o.write(ctx, r, entry)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Status == StatusFailed && r.mode == Critical {
			result.Success = false
			logger.Error("Critical sink failed; aborting submission", "sink", outcome.Sink, "error", outcome.Error)
			break
		}
	}

	if result.Success {
		notifier.Info(ctx, SuccessTitle, SuccessMessage)
		o.submissions.WithLabelValues("success").Inc()
	} else {
		notifier.Error(ctx, FailureTitle, FailureMessage)
		o.submissions.WithLabelValues("failure").Inc()
	}

	result.Notifications = recorder.Notifications()
	logger.Info("Waitlist submission processed", "success", result.Success, "outcomes", len(result.Outcomes))
	return result, nil
}

func (o *Orchestrator) write(ctx context.Context, r registered, entry *models.WaitlistEntry) Outcome {
	name := r.sink.Name()
	ctx, span := o.tracer.Start(ctx, "capture.sink.write", trace.WithAttributes(
		attribute.String("sink.name", name),
		attribute.String("sink.mode", r.mode.String()),
	))
	defer span.End()

	start := time.Now()
	err := r.sink.Write(ctx, entry)
	elapsed := time.Since(start)

	outcome := Outcome{Sink: name, Status: classify(err), Duration: elapsed}
	if err != nil {
		outcome.Error = err.Error()
	}

	logger := log.GetLoggerInstanceFromContext(ctx, o.logger)
	switch outcome.Status {
	case StatusFailed:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Sink write failed", "sink", name, "mode", r.mode.String(), "error", err)
	case StatusSkipped, StatusDuplicate:
		logger.Info("Sink write not applied", "sink", name, "status", outcome.Status, "reason", outcome.Error)
	default:
		logger.Debug("Sink write succeeded", "sink", name, "duration", elapsed)
	}
	span.SetAttributes(attribute.String("sink.status", string(outcome.Status)))

	o.writes.WithLabelValues(name, string(outcome.Status)).Inc()
	o.duration.WithLabelValues(name).Observe(elapsed.Seconds())
	return outcome
}

func classify(err error) Status {
	switch {
	case err == nil:
		return StatusWritten
	case errors.Is(err, ErrSinkSkipped):
		return StatusSkipped
	case errors.Is(err, ErrDuplicate), apperrors.IsType(err, apperrors.ErrorTypeConflict):
		return StatusDuplicate
	default:
		return StatusFailed
	}
}

// withRecorder keeps any notifier the caller already attached.
func withRecorder(ctx context.Context, rec *notify.Recorder) notify.Notifier {
	if existing, ok := notify.Scoped(ctx); ok {
		return notify.Multi{existing, rec}
	}
	return rec
}
