package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutoMigrateAllowed(t *testing.T) {
	for _, env := range []string{"", "dev", "development", "local", "test", "testing", "DEV", "  Local  "} {
		assert.NoError(t, ValidateAutoMigrateAllowed(env), env)
	}
	for _, env := range []string{"prod", "production", "staging", "preprod", " Production ", "qa"} {
		assert.Error(t, ValidateAutoMigrateAllowed(env), env)
	}
}

func TestSanitizeEnv(t *testing.T) {
	assert.Equal(t, "https://x.supabase.co", sanitizeEnv(`  "https://x.supabase.co" `))
	assert.Equal(t, "key", sanitizeEnv(`'key'`))
	assert.Equal(t, `"unbalanced`, sanitizeEnv(`"unbalanced`))
	assert.Equal(t, "", sanitizeEnv("   "))
}

func TestEnvValue(t *testing.T) {
	t.Setenv("BLOOM_TEST_SET", ` "value" `)
	assert.Equal(t, "value", envValue("BLOOM_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", envValue("BLOOM_TEST_UNSET_KEY", "fallback"))
}

func TestInitializeEnvFile_LoadsListedFilesWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("BLOOM_DOTENV_A=from-first\nBLOOM_DOTENV_KEEP=from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("BLOOM_DOTENV_B=from-second\n"), 0o600))

	t.Setenv("SKIP_DOTENV", "")
	t.Setenv(DotenvFilesKey, first+", "+second)
	t.Setenv("BLOOM_DOTENV_KEEP", "from-process")
	t.Cleanup(func() {
		_ = os.Unsetenv("BLOOM_DOTENV_A")
		_ = os.Unsetenv("BLOOM_DOTENV_B")
	})

	InitializeEnvFile(log.NewDiscardLogger())

	assert.Equal(t, "from-first", os.Getenv("BLOOM_DOTENV_A"))
	assert.Equal(t, "from-second", os.Getenv("BLOOM_DOTENV_B"))
	assert.Equal(t, "from-process", os.Getenv("BLOOM_DOTENV_KEEP"))
}

func TestDotenvFiles_DefaultsToDotEnv(t *testing.T) {
	t.Setenv(DotenvFilesKey, " , ")
	assert.Equal(t, []string{".env"}, dotenvFiles())
}
