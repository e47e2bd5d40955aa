// Package config provides Viper-based configuration management for redditsentiment
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "REDDITSENTIMENT"

// Config represents the complete configuration
type Config struct {
	Reddit  RedditConfig  `mapstructure:"reddit"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Scorer  ScorerConfig  `mapstructure:"scorer"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RedditConfig holds script app credentials. Leaving them empty makes the
// client authenticate anonymously.
type RedditConfig struct {
	ClientID          string `mapstructure:"client_id"`
	ClientSecret      string `mapstructure:"client_secret"`
	UserAgent         string `mapstructure:"user_agent"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// HTTPConfig holds HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScorerConfig selects the polarity backend
type ScorerConfig struct {
	Backend string `mapstructure:"backend"`
}

// OpenAIConfig holds settings for the OpenAI backend
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OutputConfig holds CSV and console output settings
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Colors bool   `mapstructure:"colors"`
	Color  string `mapstructure:"color"`
	Format string `mapstructure:"format"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the defaults, the config file, environment
// variables and finally flags, each overriding the previous.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".redditsentiment")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/redditsentiment")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional variable works as well as the prefixed one.
	_ = v.BindEnv("openai.api_key", envPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")

	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("reddit.client_id", "")
	v.SetDefault("reddit.client_secret", "")
	v.SetDefault("reddit.user_agent", "")
	v.SetDefault("reddit.requests_per_minute", 60)

	v.SetDefault("http.timeout", 30*time.Second)

	v.SetDefault("scorer.backend", "vader")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-5-mini")

	v.SetDefault("output.path", "sentiment_analysis.csv")
	v.SetDefault("output.colors", true)
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.format", "blocks")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"output":  "output.path",
	"color":   "output.color",
	"format":  "output.format",
	"scorer":  "scorer.backend",
	"timeout": "http.timeout",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	validOutputFormats := map[string]bool{"blocks": true, "table": true}
	if !validOutputFormats[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s (must be blocks or table)", cfg.Output.Format)
	}

	if cfg.Output.Path == "" {
		return errors.New("output path must not be empty")
	}

	if (cfg.Reddit.ClientID == "") != (cfg.Reddit.ClientSecret == "") {
		return errors.New("reddit.client_id and reddit.client_secret must be set together")
	}

	if cfg.Reddit.RequestsPerMinute <= 0 {
		return fmt.Errorf("reddit.requests_per_minute must be positive, got %d", cfg.Reddit.RequestsPerMinute)
	}

	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", cfg.HTTP.Timeout)
	}

	validBackends := map[string]bool{"vader": true, "openai": true}
	if !validBackends[cfg.Scorer.Backend] {
		return fmt.Errorf("invalid scorer backend: %s (must be vader or openai)", cfg.Scorer.Backend)
	}

	if cfg.Scorer.Backend == "openai" && cfg.OpenAI.APIKey == "" {
		return errors.New("scorer.backend openai needs openai.api_key or OPENAI_API_KEY")
	}

	return nil
}
