// Package config loads the firewall configuration from config.yaml (with
// environment variable overrides) and the policy rule file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Firewall FirewallConfig `mapstructure:"firewall"`
	Scorer   ScorerConfig   `mapstructure:"scorer"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type FirewallConfig struct {
	MaxPromptLength  int    `mapstructure:"max_prompt_length"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	PolicyFile       string `mapstructure:"policy_file"`
}

type ScorerConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	BaseURL             string  `mapstructure:"base_url"`
	Token               string  `mapstructure:"token"`
	TimeoutMs           int     `mapstructure:"timeout_ms"`
	BlendMode           string  `mapstructure:"blend_mode"`
	Weight              float64 `mapstructure:"weight"`
	BreakerMaxFailures  uint32  `mapstructure:"breaker_max_failures"`
	BreakerResetSeconds int     `mapstructure:"breaker_reset_seconds"`
}

// Timeout returns the scorer call bound as a duration
func (c ScorerConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// BreakerResetTimeout returns how long an open breaker waits before probing
func (c ScorerConfig) BreakerResetTimeout() time.Duration {
	if c.BreakerResetSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

type AuditConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	BufferSize  int    `mapstructure:"buffer_size"`
}

// Load reads config.yaml from configPath (falling back to ./config and the
// working directory) and applies environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("promptwall")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file: defaults plus environment variables only.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Firewall.MaxPromptLength == 0 {
		cfg.Firewall.MaxPromptLength = 8192
	}
	if cfg.Firewall.BatchConcurrency == 0 {
		cfg.Firewall.BatchConcurrency = 8
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "jsonl"
	}
	if cfg.Audit.Dir == "" {
		cfg.Audit.Dir = "logs"
	}
	if cfg.Scorer.BlendMode == "" {
		cfg.Scorer.BlendMode = "max"
	}
	if cfg.Scorer.Weight == 0 {
		cfg.Scorer.Weight = 0.5
	}
	if cfg.Scorer.BreakerMaxFailures == 0 {
		cfg.Scorer.BreakerMaxFailures = 5
	}
}
