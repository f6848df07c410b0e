package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "finsum.yaml"
	EnvFile  = ".env"

	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	minAPIKeyLen = 20
)

var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrInvalidAPIKey = errors.New("API key appears to be invalid (too short)")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the finsum.yaml configuration after all layers
// (defaults, file, environment, flags) are applied.
type Config struct {
	Provider        string            `yaml:"provider" mapstructure:"provider"`
	Model           string            `yaml:"model,omitempty" mapstructure:"model"`
	APIKey          string            `yaml:"api_key,omitempty" mapstructure:"api_key"`
	MaxTokens       int               `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature     float64           `yaml:"temperature" mapstructure:"temperature"`
	Timeout         time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries      int               `yaml:"max_retries" mapstructure:"max_retries"`
	DataDir         string            `yaml:"data_dir" mapstructure:"data_dir"`
	ReportsDir      string            `yaml:"reports_dir" mapstructure:"reports_dir"`
	MaxSample       int               `yaml:"max_sample" mapstructure:"max_sample"`
	UnusualFloor    string            `yaml:"unusual_floor" mapstructure:"unusual_floor"`
	LocalCategories bool              `yaml:"local_categories" mapstructure:"local_categories"`
	Budgets         map[string]string `yaml:"budgets,omitempty" mapstructure:"budgets"`
	Archive         ArchiveConfig     `yaml:"archive" mapstructure:"archive"`
	LogLevel        string            `yaml:"log_level" mapstructure:"log_level"`
}

// ArchiveConfig enables the optional Cloud Storage copy of each report.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Provider:        ProviderAnthropic,
		MaxTokens:       2000,
		Temperature:     0.3,
		Timeout:         60 * time.Second,
		MaxRetries:      3,
		DataDir:         "data",
		ReportsDir:      "reports",
		MaxSample:       100,
		UnusualFloor:    "100",
		LocalCategories: true,
		Archive:         ArchiveConfig{Prefix: "reports"},
		LogLevel:        "info",
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// flagKeys maps command flag names to config keys.
var flagKeys = map[string]string{
	"log-level":   "log_level",
	"provider":    "provider",
	"model":       "model",
	"data-dir":    "data_dir",
	"reports-dir": "reports_dir",
	"max-sample":  "max_sample",
	"max-retries": "max_retries",
	"timeout":     "timeout",
}

// Build layers defaults, the config file, the environment and flags.
// An explicit cfgFile must exist; otherwise finsum.yaml in the working
// directory is used when present. A .env file is loaded first and never
// overrides variables already set.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("FINSUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if os.Getenv("FINSUM_API_KEY") == "" {
		if key := os.Getenv(cfg.APIKeyEnv()); key != "" {
			cfg.APIKey = key
		}
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("reports_dir", d.ReportsDir)
	v.SetDefault("max_sample", d.MaxSample)
	v.SetDefault("unusual_floor", d.UnusualFloor)
	v.SetDefault("local_categories", d.LocalCategories)
	v.SetDefault("archive.bucket", d.Archive.Bucket)
	v.SetDefault("archive.prefix", d.Archive.Prefix)
	v.SetDefault("log_level", d.LogLevel)
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// APIKeyEnv names the provider-specific environment variable for the key.
func (c *Config) APIKeyEnv() string {
	if c.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

// Validate checks everything except the API key, which only matters
// when a request will actually be sent.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	if c.MaxSample < 0 {
		return fmt.Errorf("%w: max_sample must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Floor(); err != nil {
		return err
	}
	if _, err := c.BudgetLimits(); err != nil {
		return err
	}
	return nil
}

// KeyError names the variable that should hold a missing or bad key.
type KeyError struct {
	Env string
	Err error // ErrMissingAPIKey or ErrInvalidAPIKey
}

func (e *KeyError) Error() string { return fmt.Sprintf("%s: %v", e.Env, e.Err) }

func (e *KeyError) Unwrap() error { return e.Err }

// RequireAPIKey reports whether a usable API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return &KeyError{Env: c.APIKeyEnv(), Err: ErrMissingAPIKey}
	}
	if len(c.APIKey) < minAPIKeyLen {
		return &KeyError{Env: c.APIKeyEnv(), Err: ErrInvalidAPIKey}
	}
	return nil
}

// Floor parses unusual_floor. Empty means the summary default; anything
// else must be a positive amount.
func (c *Config) Floor() (decimal.Decimal, error) {
	if strings.TrimSpace(c.UnusualFloor) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.UnusualFloor))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: unusual_floor %q: %w", ErrInvalidConfig, c.UnusualFloor, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: unusual_floor must be positive, got %s", ErrInvalidConfig, c.UnusualFloor)
	}
	return d, nil
}

// BudgetLimits parses the budgets table. Keys come back lowercased from
// viper, so callers match categories case-insensitively.
func (c *Config) BudgetLimits() (map[string]decimal.Decimal, error) {
	if len(c.Budgets) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(c.Budgets))
	for cat, raw := range c.Budgets {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: budget for %q: %w", ErrInvalidConfig, cat, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: budget for %q is negative", ErrInvalidConfig, cat)
		}
		out[cat] = d
	}
	return out, nil
}
