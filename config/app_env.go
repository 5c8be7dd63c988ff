package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"
	// DotenvFilesKey lists the env files to load, comma separated. Defaults to .env.
	DotenvFilesKey = "DOTENV_FILES"
)

// autoMigrateEnvs are the APP_ENV values where --auto-migrate may touch the schema.
var autoMigrateEnvs = map[string]bool{
	"":            true,
	"dev":         true,
	"development": true,
	"local":       true,
	"test":        true,
	"testing":     true,
}

// InitializeEnvFile loads env files without overriding variables that are already set.
func InitializeEnvFile(logger *log.Logger) {
	if os.Getenv("SKIP_DOTENV") == "true" {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	files := dotenvFiles()
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No env file loaded", "files", files, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded", "files", files)
}

func dotenvFiles() []string {
	var files []string
	for _, f := range strings.Split(os.Getenv(DotenvFilesKey), ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}

// envValue returns the sanitized variable, or defaultValue when it is unset.
func envValue(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return sanitizeEnv(value)
	}
	return defaultValue
}

// sanitizeEnv trims whitespace and one pair of matching surrounding quotes.
func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	return s
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	appEnv = strings.ToLower(strings.TrimSpace(appEnv))
	if autoMigrateEnvs[appEnv] {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, appEnv)
}
