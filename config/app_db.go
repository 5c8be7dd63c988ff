package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig is the optional direct Postgres connection. It serves as the fallback hosted
// database client when the REST settings are absent, and as the migrate target.
type DBConfig struct {
	URL      string `env:"APP_DATABASE_URL"`
	Host     string `env:"POSTGRES_HOST"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB_NAME"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"require"`

	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	cfg.URL = sanitizeEnv(cfg.URL)
	cfg.Host = sanitizeEnv(cfg.Host)
	cfg.User = sanitizeEnv(cfg.User)
	cfg.Password = sanitizeEnv(cfg.Password)
	cfg.Name = sanitizeEnv(cfg.Name)
	cfg.SSLMode = sanitizeEnv(cfg.SSLMode)
	return cfg, nil
}

// Configured reports whether a direct connection was requested at all.
func (c *DBConfig) Configured() bool {
	return c.URL != "" || c.Host != ""
}

// DSN prefers APP_DATABASE_URL and otherwise assembles a postgres:// URL from the parts.
// The result is validated with pgconn so typos fail before dialing.
func (c *DBConfig) DSN() (string, error) {
	dsn := c.URL
	if dsn == "" {
		var missing []string
		for _, kv := range [][2]string{
			{"POSTGRES_HOST", c.Host},
			{"POSTGRES_USER", c.User},
			{"POSTGRES_DB_NAME", c.Name},
		} {
			if kv[1] == "" {
				missing = append(missing, kv[0])
			}
		}
		if len(missing) > 0 {
			return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
		}

		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:     "/" + c.Name,
			RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
		}
		dsn = u.String()
	}

	if _, err := pgconn.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("invalid database connection string: %w", err)
	}
	return dsn, nil
}

// NewDatabase connects using cfg, or the environment when cfg is nil.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		var err error
		if cfg, err = LoadDBConfig(); err != nil {
			return nil, err
		}
	}

	dsn, err := cfg.DSN()
	if err != nil {
		logger.Error("Database configuration invalid", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", "host", cfg.Host, "dbname", cfg.Name, "from_url", cfg.URL != "")
	return gdb, nil
}

// DatabaseConfigured reports whether a direct Postgres connection was requested.
func DatabaseConfigured() bool {
	cfg, err := LoadDBConfig()
	return err == nil && cfg.Configured()
}

// NewDatabaseOrNil connects only when a connection is configured. A failed connection is
// logged and yields nil so the service still starts with local capture only.
func NewDatabaseOrNil(logger *log.Logger, cfg *DBConfig) *gorm.DB {
	if cfg == nil {
		loaded, err := LoadDBConfig()
		if err != nil {
			logger.Error("Database configuration invalid; continuing without it", "error", err)
			return nil
		}
		cfg = loaded
	}
	if !cfg.Configured() {
		logger.Info("Direct database connection not configured")
		return nil
	}

	db, err := NewDatabase(logger, cfg)
	if err != nil {
		logger.Error("Direct database unavailable; continuing without it", "error", err)
		return nil
	}
	return db
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...any) error {
	if db == nil {
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database auto-migration completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
