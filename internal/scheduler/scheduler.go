// Package scheduler runs the periodic hosted-database connection probe.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

const DefaultProbeSchedule = "@every 5m"

// Prober is satisfied by *hostdb.Adapter.
type Prober interface {
	TestConnection(ctx context.Context, probeWrite bool) hostdb.ConnectionReport
}

type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

type Scheduler struct {
	cron   *cron.Cron
	prober Prober
	logger *log.Logger

	reachable prometheus.Gauge
	latency   prometheus.Gauge

	mu      sync.Mutex
	last    hostdb.ConnectionReport
	lastRun time.Time
	running bool
}

func New(prober Prober, logger *log.Logger, reg prometheus.Registerer) *Scheduler {
	if logger == nil {
		logger = log.NewDiscardLogger()
	}
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		prober: prober,
		logger: logger,
		reachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostdb_reachable",
			Help: "1 when the last hosted database probe reached the server.",
		}),
		latency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostdb_probe_latency_seconds",
			Help: "Latency of the last hosted database probe.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.reachable, s.latency)
	}
	return s
}

// Schedule registers the probe. An empty spec disables it.
func (s *Scheduler) Schedule(spec string) error {
	if spec == "" {
		s.logger.Info("Hosted database probe disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	s.logger.Info("Hosted database probe scheduled", "schedule", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop waits for a running probe or for ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
}

// RunOnce probes immediately and records the result.
func (s *Scheduler) RunOnce(ctx context.Context) hostdb.ConnectionReport {
	report := s.prober.TestConnection(ctx, false)

	if report.OK() {
		s.reachable.Set(1)
	} else {
		s.reachable.Set(0)
	}
	s.latency.Set(report.Latency.Seconds())

	s.mu.Lock()
	s.last = report
	s.lastRun = time.Now()
	s.mu.Unlock()

	s.logger.Info("Hosted database probe finished", "status", report.Status, "table_exists", report.TableExists)
	return report
}

// Last returns the most recent report and when it ran. ok is false before the first run.
func (s *Scheduler) Last() (report hostdb.ConnectionReport, at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastRun, !s.lastRun.IsZero()
}
