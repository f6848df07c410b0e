package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with no key variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"FINSUM_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "FINSUM_PROVIDER", "FINSUM_LOG_LEVEL", "FINSUM_MAX_SAMPLE", "FINSUM_ARCHIVE_BUCKET"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestSaveThenBuild(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Budgets = map[string]string{"groceries": "400", "dining": "150.50"}
	cfg.Archive.Bucket = "my-reports"
	cfg.MaxSample = 25

	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Build(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Budgets, got.Budgets)
	assert.Equal(t, cfg.Archive, got.Archive)
	assert.Equal(t, 25, got.MaxSample)
	assert.Equal(t, cfg.Timeout, got.Timeout)
	assert.Equal(t, cfg.UnusualFloor, got.UnusualFloor)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Temperature, 0.001)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.Equal(t, 100, cfg.MaxSample)
	assert.True(t, cfg.LocalCategories)
	assert.Empty(t, cfg.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "provider: anthropic")
	assert.Contains(t, content, "timeout: 1m0s")
	assert.Contains(t, content, "reports_dir: reports")
	assert.NotContains(t, content, "api_key")
}

func TestBuild_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Provider, cfg.Provider)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.True(t, cfg.LocalCategories)
}

func TestBuild_FileThenEnvThenFlags(t *testing.T) {
	dir := isolate(t)
	yml := "provider: anthropic\nmax_sample: 20\nreports_dir: out\nlog_level: debug\ntimeout: 5s\nbudgets:\n  Groceries: 400\n  dining: \"150.50\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0o644))
	t.Setenv("FINSUM_MAX_SAMPLE", "30")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "error"}))

	cfg, err := Build("", flags)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.ReportsDir)
	assert.Equal(t, 30, cfg.MaxSample)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	limits, err := cfg.BudgetLimits()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("400").Equal(limits["groceries"]))
	assert.True(t, decimal.RequireFromString("150.50").Equal(limits["dining"]))
}

func TestBuild_ExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Build(filepath.Join(dir, "nope.yaml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuild_ProviderKeyFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-REDACTED")

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-REDACTED", cfg.APIKey)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestBuild_GeminiKey(t *testing.T) {
	isolate(t)
	t.Setenv("FINSUM_PROVIDER", "Gemini")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-REDACTED")
	t.Setenv("GEMINI_API_KEY", "gem-0123456789abcdefghijk")

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gem-0123456789abcdefghijk", cfg.APIKey)
}

func TestBuild_DotEnvDoesNotOverride(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte("ANTHROPIC_API_KEY=from-dotenv-0123456789abc\n"), 0o644))

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-0123456789abc", cfg.APIKey)

	t.Setenv("ANTHROPIC_API_KEY", "from-shell-0123456789abcd")
	cfg, err = Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-shell-0123456789abcd", cfg.APIKey)
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.RequireAPIKey()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	var ke *KeyError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "ANTHROPIC_API_KEY", ke.Env)

	cfg.APIKey = "short"
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrInvalidAPIKey)

	cfg.APIKey = "sk-ant-REDACTED"
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Provider = "openai"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.Budgets = map[string]string{"dining": "lots"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.UnusualFloor = "abc"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.MaxTokens = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestFloor(t *testing.T) {
	cfg := Default()
	f, err := cfg.Floor()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(f))

	cfg.UnusualFloor = "250.50"
	f, err = cfg.Floor()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("250.50").Equal(f))

	for _, bad := range []string{"0", "0.00", "-5"} {
		cfg.UnusualFloor = bad
		_, err = cfg.Floor()
		assert.ErrorIs(t, err, ErrInvalidConfig, "unusual_floor %q", bad)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "unusual_floor %q", bad)
	}
}
