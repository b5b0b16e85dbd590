package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/store"
)

// isolate points every lookup location at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("ADAPTIQ_DB", "")
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("db", "", "")
	cmd.Flags().String("db-driver", "", "")
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log-mode", "", "")
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("USER", "ada")

	cfg, err := Load(newCmd())
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "adaptiq", "adaptiq.db"), cfg.DB.DSN)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "ada", cfg.Practice.Student)
	assert.Empty(t, cfg.File)
	assert.False(t, cfg.LLMProvider().Enabled())
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("ADAPTIQ_DB_DRIVER", "postgres")
	t.Setenv("ADAPTIQ_DB_DSN", "postgres://localhost/adaptiq")
	t.Setenv("ADAPTIQ_REDIS_ADDR", "localhost:6379")
	t.Setenv("ADAPTIQ_REDIS_TTL", "5m")
	t.Setenv("ADAPTIQ_LLM_PROVIDER", "openai")
	t.Setenv("ADAPTIQ_LLM_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(newCmd())
	require.NoError(t, err)

	assert.Equal(t, store.Options{Driver: "postgres", DSN: "postgres://localhost/adaptiq"}, cfg.StoreOptions())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)

	lc := cfg.LLMProvider()
	assert.Equal(t, "openai", lc.Provider)
	assert.Equal(t, "sk-test", lc.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", lc.OpenAI.Model)
	assert.NoError(t, lc.Validate())
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ADAPTIQ_DB_DSN", filepath.Join(dir, "env.db"))

	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("db", filepath.Join(dir, "flag.db")))
	require.NoError(t, cmd.Flags().Set("log-mode", "prod"))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag.db"), cfg.DB.DSN)
	assert.Equal(t, "prod", cfg.Log.Mode)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := "log:\n  level: debug\npractice:\n  student: sam\nhttp:\n  cors_origins:\n    - https://example.org\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adaptiq.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(newCmd())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sam", cfg.Practice.Student)
	assert.Equal(t, []string{"https://example.org"}, cfg.HTTP.CORSOrigins)
	assert.Contains(t, cfg.File, "adaptiq.yaml")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(dir, "nope.yaml")))

	_, err := Load(cmd)
	assert.Error(t, err)
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	isolate(t)
	t.Setenv("ADAPTIQ_DB_DRIVER", "postgres")

	_, err := Load(newCmd())
	assert.ErrorContains(t, err, "db.dsn")
}

func TestLLMDiscovery(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "ak")

	cfg, err := Load(nil)
	require.NoError(t, err)
	lc := cfg.LLMProvider()
	assert.Equal(t, "anthropic", lc.Provider)
	assert.Equal(t, "ak", lc.Anthropic.APIKey)
}
