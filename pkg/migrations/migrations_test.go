package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
)

type testLogger struct {
	mu    sync.Mutex
	infos []string
}

func (l *testLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}
func (l *testLogger) Warn(string, ...any)  {}
func (l *testLogger) Error(string, ...any) {}

func (l *testLogger) saw(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

type fakeMigrator struct {
	upErr    error
	stepsArg int
	version  uint
	verErr   error
}

func (m *fakeMigrator) Up() error { return m.upErr }
func (m *fakeMigrator) Steps(n int) error {
	m.stepsArg = n
	return nil
}
func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, false, m.verErr }
func (m *fakeMigrator) Close() (error, error)        { return nil, nil }

type blockingMigrator struct {
	fakeMigrator
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func (m *blockingMigrator) Up() error {
	<-m.closeCh
	return nil
}

func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.closeCh)
	})
	return nil, nil
}

// stubFactories swaps the driver and migrator factories for the duration of the test.
func stubFactories(t *testing.T, m migrator, gotSource *source) {
	t.Helper()
	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() {
		driverFactory = origDriver
		migratorFactory = origMigrator
	})

	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		if cfg.MigrationsTable == "" {
			t.Fatalf("expected migrations table to be defaulted")
		}
		return nil, nil
	}
	migratorFactory = func(src source, _ database.Driver) (migrator, error) {
		if gotSource != nil {
			*gotSource = src
		}
		if m == nil {
			return nil, errors.New("boom")
		}
		return m, nil
	}
}

func TestUp_NilDB(t *testing.T) {
	if err := Up(context.Background(), nil, Config{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUp_ContextAlreadyCancelled(t *testing.T) {
	called := false
	origDriver := driverFactory
	t.Cleanup(func() { driverFactory = origDriver })
	driverFactory = func(*sql.DB, Config) (database.Driver, error) {
		called = true
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("driver should not be created for a cancelled context")
	}
}

func TestUp_DeadlineClosesMigrator(t *testing.T) {
	block := &blockingMigrator{closeCh: make(chan struct{})}
	stubFactories(t, block, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !block.closed.Load() {
		t.Fatalf("expected Close on cancellation")
	}
}

func TestUp_NoChangeIsNotAnError(t *testing.T) {
	logger := &testLogger{}
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)

	if err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.saw("No migrations to apply") {
		t.Fatalf("expected 'No migrations to apply' log")
	}
}

func TestUp_WrapsInitError(t *testing.T) {
	stubFactories(t, nil, nil)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "migrations: init") {
		t.Fatalf("expected wrapped init error, got %v", err)
	}
}

func TestUp_PrefersEmbeddedFS(t *testing.T) {
	var got source
	stubFactories(t, &fakeMigrator{}, &got)

	fsys := fstest.MapFS{"000001_create_waitlist_interest.up.sql": {Data: []byte("select 1;")}}
	if err := Up(context.Background(), &sql.DB{}, Config{FS: fsys, Dir: "ignored"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.fsys == nil || got.url != "" {
		t.Fatalf("expected embedded source, got %q", got.String())
	}
}

func TestUp_EncodesDirWithSpaces(t *testing.T) {
	var got source
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, &got)

	dir := filepath.Join(t.TempDir(), "bloom migrations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := Up(context.Background(), &sql.DB{}, Config{Dir: dir}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(got.url)
	if err != nil {
		t.Fatalf("invalid source url %q: %v", got.url, err)
	}
	abs, _ := filepath.Abs(dir)
	if parsed.Scheme != "file" || parsed.Path != filepath.ToSlash(abs) {
		t.Fatalf("unexpected source url %q", got.url)
	}
}

func TestDown_RollsBackOneStep(t *testing.T) {
	m := &fakeMigrator{}
	stubFactories(t, m, nil)

	if err := Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.stepsArg != -1 {
		t.Fatalf("expected Steps(-1), got Steps(%d)", m.stepsArg)
	}
}

func TestVersion(t *testing.T) {
	stubFactories(t, &fakeMigrator{version: 1}, nil)
	v, dirty, ok, err := Version(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	if err != nil || !ok || dirty || v != 1 {
		t.Fatalf("unexpected version result v=%d dirty=%v ok=%v err=%v", v, dirty, ok, err)
	}
}

func TestVersion_NothingApplied(t *testing.T) {
	stubFactories(t, &fakeMigrator{verErr: migrate.ErrNilVersion}, nil)
	_, _, ok, err := Version(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	if err != nil || ok {
		t.Fatalf("expected ok=false and nil error, got ok=%v err=%v", ok, err)
	}
}
