package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	status hostdb.Status
	calls  atomic.Int32
}

func (p *stubProber) TestConnection(context.Context, bool) hostdb.ConnectionReport {
	p.calls.Add(1)
	return hostdb.ConnectionReport{Status: p.status, Latency: 40 * time.Millisecond}
}

func TestRunOnce_UpdatesGaugeAndLast(t *testing.T) {
	prober := &stubProber{status: hostdb.StatusReachable}
	s := New(prober, nil, prometheus.NewRegistry())

	_, _, ok := s.Last()
	assert.False(t, ok)

	s.RunOnce(context.Background())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.reachable))
	assert.InDelta(t, 0.04, testutil.ToFloat64(s.latency), 0.001)

	prober.status = hostdb.StatusUnreachable
	report := s.RunOnce(context.Background())
	assert.Equal(t, hostdb.StatusUnreachable, report.Status)
	assert.Equal(t, 0.0, testutil.ToFloat64(s.reachable))

	last, _, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, hostdb.StatusUnreachable, last.Status)
}

func TestSchedule_RunsProbe(t *testing.T) {
	prober := &stubProber{status: hostdb.StatusReachable}
	s := New(prober, nil, nil)

	require.NoError(t, s.Schedule("@every 1s"))
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return prober.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedule_EmptyDisablesAndInvalidFails(t *testing.T) {
	s := New(&stubProber{}, nil, nil)
	assert.NoError(t, s.Schedule(""))
	assert.Error(t, s.Schedule("every tuesday"))
}
