package hostdb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/bloomcare/bloom-waitlist/pkg/constants"
	"github.com/google/uuid"
)

// Status classifies a connection test.
type Status string

const (
	StatusReachable     Status = "reachable"
	StatusConfiguration Status = "configuration"
	StatusUnreachable   Status = "unreachable"
	StatusTimeout       Status = "timeout"
	StatusPermission    Status = "permission"
)

// Notification titles. The page keys its toasts off these.
const (
	TitleNotConfigured = "Database not configured"
	TitleUnreachable   = "Database connection failed"
	TitleTimeout       = "Database connection timed out"
	TitlePermission    = "Database permission issue"
)

type ConnectionReport struct {
	Status      Status        `json:"status"`
	Configured  bool          `json:"configured"`
	TableExists bool          `json:"table_exists"`
	WriteProbed bool          `json:"write_probed"`
	Writable    bool          `json:"writable"`
	Latency     time.Duration `json:"latency_ns"`
	Error       *Error        `json:"error,omitempty"`
}

// OK reports whether the database answered, even if the table is still missing.
func (r ConnectionReport) OK() bool {
	return r.Status == StatusReachable
}

type AdapterConfig struct {
	Table   string
	Timeout time.Duration
	// Missing names absent settings for the configuration notice.
	Missing []string
}

// Adapter answers whether the hosted database is configured, reachable and writable.
type Adapter struct {
	client   Client
	notifier notify.Notifier
	logger   *log.Logger
	table    string
	timeout  time.Duration
	missing  []string

	configOnce sync.Once
}

func NewAdapter(client Client, notifier notify.Notifier, logger *log.Logger, cfg AdapterConfig) *Adapter {
	if client == nil {
		client = Unconfigured()
	}
	if logger == nil {
		logger = log.NewDiscardLogger()
	}
	if cfg.Table == "" {
		cfg.Table = constants.WaitlistTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultConnectionTestTimeout
	}

	return &Adapter{
		client:   client,
		notifier: notifier,
		logger:   logger,
		table:    cfg.Table,
		timeout:  cfg.Timeout,
		missing:  cfg.Missing,
	}
}

func (a *Adapter) Client() Client {
	return a.client
}

func (a *Adapter) Table() string {
	return a.table
}

// CheckConfiguration makes no network call. The operator log and notifier hear about
// missing settings once; a request-scoped notifier hears about it on every request.
func (a *Adapter) CheckConfiguration(ctx context.Context) bool {
	if a.client.Configured() {
		return true
	}

	msg := "Hosted database settings are missing"
	if len(a.missing) > 0 {
		msg += ": " + strings.Join(a.missing, ", ")
	}
	msg += ". Sign-ups are still saved locally and sent to the form."

	a.configOnce.Do(func() {
		a.loggerFor(ctx).Warn("Hosted database is not configured", "missing", a.missing)
		if a.notifier != nil {
			a.notifier.Warn(ctx, TitleNotConfigured, msg)
		}
	})
	if scoped, ok := notify.Scoped(ctx); ok {
		scoped.Warn(ctx, TitleNotConfigured, msg)
	}
	return false
}

// TestConnection runs a bounded read probe and, with probeWrite, an insert/delete probe.
func (a *Adapter) TestConnection(ctx context.Context, probeWrite bool) ConnectionReport {
	if !a.CheckConfiguration(ctx) {
		return ConnectionReport{Status: StatusConfiguration, Error: ErrNotConfigured}
	}

	report := ConnectionReport{Configured: true}
	logger := a.loggerFor(ctx)

	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	_, err := a.client.Select(probeCtx, a.table, "id", 1)
	report.Latency = time.Since(start)

	switch {
	case err == nil:
		report.Status = StatusReachable
		report.TableExists = true
	case errors.Is(probeCtx.Err(), context.DeadlineExceeded):
		report.Status = StatusTimeout
		report.Error = timeoutError(err)
		logger.Error("Hosted database connection test timed out", "timeout", a.timeout)
		a.notifierFor(ctx).Error(ctx, TitleTimeout, "The hosted database did not answer within "+a.timeout.String()+".")
		return report
	case IsUndefinedTable(err):
		report.Status = StatusReachable
		report.Error = AsError(err)
		logger.Info("Hosted database reachable; waitlist table does not exist yet", "table", a.table)
		return report
	default:
		report.Status = StatusUnreachable
		report.Error = AsError(err)
		logger.Error("Hosted database connection test failed", report.Error.LogAttrs()...)
		a.notifierFor(ctx).Error(ctx, TitleUnreachable, "Could not reach the hosted database: "+report.Error.Message)
		return report
	}

	if probeWrite {
		a.probeWrite(probeCtx, &report)
	}
	return report
}

// probeWrite inserts a throwaway row and removes it again. Cleanup failure is ignored.
func (a *Adapter) probeWrite(ctx context.Context, report *ConnectionReport) {
	report.WriteProbed = true
	logger := a.loggerFor(ctx)

	email := "probe+" + uuid.NewString() + "@bloom.invalid"
	probe := models.NewWaitlistEntry(email, nil, time.Now())

	if err := a.client.Insert(ctx, a.table, probe.Row()); err != nil {
		report.Error = AsError(err)
		if IsPermissionDenied(err) {
			report.Status = StatusPermission
			a.notifyPermission(ctx, err)
			return
		}
		logger.Warn("Hosted database write probe failed", report.Error.LogAttrs()...)
		return
	}
	report.Writable = true

	if err := a.client.DeleteWhere(ctx, a.table, constants.ColumnEmail, email); err != nil {
		logger.Debug("Write probe cleanup failed", "error", err)
	}
}

// TableExists classifies the read probe only.
func (a *Adapter) TableExists(ctx context.Context) (bool, error) {
	if !a.client.Configured() {
		return false, ErrNotConfigured
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.client.Select(probeCtx, a.table, "id", 1)
	switch {
	case err == nil:
		return true, nil
	case IsUndefinedTable(err):
		return false, nil
	default:
		return false, err
	}
}

// InsertEntry writes one canonical row. Errors are logged with code, message, details
// and hint; permission failures additionally raise the permission notice.
func (a *Adapter) InsertEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	if !a.CheckConfiguration(ctx) {
		return ErrNotConfigured
	}

	err := a.client.Insert(ctx, a.table, entry.Row())
	if err == nil {
		return nil
	}

	e := AsError(err)
	a.loggerFor(ctx).Warn("Hosted database insert failed", e.LogAttrs()...)
	if IsPermissionDenied(err) {
		a.notifyPermission(ctx, err)
	}
	return e
}

func (a *Adapter) notifyPermission(ctx context.Context, err error) {
	a.loggerFor(ctx).Warn("Hosted database rejected write for permission reasons", AsError(err).LogAttrs()...)
	a.notifierFor(ctx).Warn(ctx, TitlePermission,
		"The hosted database refused the write. Check that the row-level security policy on "+a.table+" allows anonymous inserts.")
}

func (a *Adapter) loggerFor(ctx context.Context) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx, a.logger)
}

func (a *Adapter) notifierFor(ctx context.Context) notify.Notifier {
	return notify.FromContext(ctx, a.notifier)
}
