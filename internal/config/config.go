// Package config loads runtime settings from an optional giftscout.yaml and the
// environment. Environment variables use the GIFTSCOUT_ prefix, except the
// provider credentials which keep their conventional names.
package config

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultPollTimeout   = 3 * time.Minute
	defaultMaxPollErrors = 3
	defaultRunTTL        = 10 * time.Minute
	defaultWindowBudget  = 24000
)

// Config controls which backend the session talks to and how runs are polled.
type Config struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	// PollMaxInterval > PollInterval turns fixed polling into exponential backoff capped here.
	PollMaxInterval time.Duration `mapstructure:"poll_max_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
	MaxPollErrors   int           `mapstructure:"max_poll_errors"`
	// RunTTL bounds runs of the emulated anthropic backend before they expire.
	RunTTL time.Duration `mapstructure:"run_ttl"`
	// WindowBudget is the estimated input size, in runes, the anthropic
	// backend sends per Messages call. Older turns beyond it are left out.
	WindowBudget int    `mapstructure:"window_budget"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads configuration. An empty path looks for giftscout.yaml in the
// working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("poll_max_interval", time.Duration(0))
	v.SetDefault("poll_timeout", defaultPollTimeout)
	v.SetDefault("max_poll_errors", defaultMaxPollErrors)
	v.SetDefault("run_ttl", defaultRunTTL)
	v.SetDefault("window_budget", defaultWindowBudget)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("GIFTSCOUT")
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"openai_api_key":    "OPENAI_API_KEY",
		"openai_base_url":   "OPENAI_BASE_URL",
		"anthropic_api_key": "ANTHROPIC_API_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("giftscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected provider has a credential and that the
// polling bounds are consistent.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderOpenAI, ProviderAnthropic)),
		validation.Field(&c.OpenAIAPIKey, validation.When(c.Provider == ProviderOpenAI, validation.Required)),
		validation.Field(&c.AnthropicAPIKey, validation.When(c.Provider == ProviderAnthropic, validation.Required)),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.PollMaxInterval, validation.When(c.PollMaxInterval != 0, validation.Min(c.PollInterval))),
		validation.Field(&c.PollTimeout, validation.Required, validation.Min(c.PollInterval)),
		validation.Field(&c.MaxPollErrors, validation.Min(0)),
		validation.Field(&c.RunTTL, validation.Required),
		validation.Field(&c.WindowBudget, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// EffectivePollMaxInterval returns the backoff ceiling; equal to PollInterval
// when polling at a fixed rate.
func (c Config) EffectivePollMaxInterval() time.Duration {
	if c.PollMaxInterval < c.PollInterval {
		return c.PollInterval
	}
	return c.PollMaxInterval
}
