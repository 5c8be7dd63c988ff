// Package notify delivers user-facing notices (the page's toasts) and operator warnings.
package notify

import (
	"context"
	"sync"

	"github.com/bloomcare/bloom-waitlist/internal/log"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

//go:generate mockgen -source=notify.go -destination=mock_notify.go -package=notify

type Notifier interface {
	Info(ctx context.Context, title, message string)
	Warn(ctx context.Context, title, message string)
	Error(ctx context.Context, title, message string)
}

// LogNotifier writes notifications as structured log lines.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.NewDiscardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Info(ctx context.Context, title, message string) {
	log.GetLoggerInstanceFromContext(ctx, n.logger).Info("Notification", "level", LevelInfo, "title", title, "message", message)
}

func (n *LogNotifier) Warn(ctx context.Context, title, message string) {
	log.GetLoggerInstanceFromContext(ctx, n.logger).Warn("Notification", "level", LevelWarn, "title", title, "message", message)
}

func (n *LogNotifier) Error(ctx context.Context, title, message string) {
	log.GetLoggerInstanceFromContext(ctx, n.logger).Error("Notification", "level", LevelError, "title", title, "message", message)
}

// Recorder collects notifications so a response can carry them back to the page.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(_ context.Context, title, message string)  { r.add(LevelInfo, title, message) }
func (r *Recorder) Warn(_ context.Context, title, message string)  { r.add(LevelWarn, title, message) }
func (r *Recorder) Error(_ context.Context, title, message string) { r.add(LevelError, title, message) }

func (r *Recorder) add(level Level, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Title: title, Message: message})
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Multi fans out to every notifier in order.
type Multi []Notifier

func (m Multi) Info(ctx context.Context, title, message string) {
	for _, n := range m {
		n.Info(ctx, title, message)
	}
}

func (m Multi) Warn(ctx context.Context, title, message string) {
	for _, n := range m {
		n.Warn(ctx, title, message)
	}
}

func (m Multi) Error(ctx context.Context, title, message string) {
	for _, n := range m {
		n.Error(ctx, title, message)
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard) Info(context.Context, string, string)  {}
func (Discard) Warn(context.Context, string, string)  {}
func (Discard) Error(context.Context, string, string) {}

type contextKey struct{}

// ContextWithNotifier attaches a request-scoped notifier, typically a Recorder.
func ContextWithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// Scoped returns the notifier attached with ContextWithNotifier, if any.
func Scoped(ctx context.Context) (Notifier, bool) {
	n, ok := ctx.Value(contextKey{}).(Notifier)
	return n, ok && n != nil
}

// FromContext returns the request-scoped notifier, or fallback when none is attached.
// When both exist they are combined so operator logs still see request notices.
func FromContext(ctx context.Context, fallback Notifier) Notifier {
	scoped, _ := Scoped(ctx)
	switch {
	case scoped == nil && fallback == nil:
		return Discard{}
	case scoped == nil:
		return fallback
	case fallback == nil:
		return scoped
	default:
		return Multi{fallback, scoped}
	}
}
