package config

import (
	"net/http"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"gorm.io/gorm"
)

// HostedDBSettings reads the REST settings. The VITE_ names are accepted so the
// landing page's build env can be reused as is.
func HostedDBSettings() hostdb.Settings {
	return hostdb.Settings{
		URL: firstNonEmptyEnv("SUPABASE_URL", "VITE_SUPABASE_URL"),
		Key: firstNonEmptyEnv("SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"),
	}
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		if v := envValue(key, ""); v != "" {
			return v
		}
	}
	return ""
}

// NewHostedDBClient prefers the REST client, then a direct SQL connection, and otherwise
// returns the unconfigured client. The second value lists the missing REST settings.
func NewHostedDBClient(logger *log.Logger, settings hostdb.Settings, db *gorm.DB) (hostdb.Client, []string) {
	switch {
	case settings.Configured():
		logger.Info("Hosted database: using REST client", "url", settings.URL)
		return hostdb.NewRESTClient(settings, &http.Client{Timeout: 15 * time.Second}), nil
	case db != nil:
		logger.Info("Hosted database: using direct SQL connection")
		return hostdb.NewSQLClient(db), nil
	default:
		missing := settings.Missing()
		logger.Warn("Hosted database is not configured; entries will only be kept locally", "missing", missing)
		return hostdb.Unconfigured(), missing
	}
}
