// Package config loads tvrel configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Commands holds per-step command template overrides. Templates may use
// {triple} and {bin}; empty strings keep the built-in defaults.
type Commands struct {
	Install string `mapstructure:"install"`
	Build   string `mapstructure:"build"`
	Strip   string `mapstructure:"strip"`
}

// Config holds all tvrel settings.
type Config struct {
	Owner     string `mapstructure:"owner"`
	Repo      string `mapstructure:"repo"`
	Binary    string `mapstructure:"binary"`
	SourceDir string `mapstructure:"source_dir"`
	DistDir   string `mapstructure:"dist_dir"`
	TokenEnv  string `mapstructure:"token_env"`

	// Upload settings
	ResolveAttempts int `mapstructure:"resolve_attempts"`
	ResolveDelaySec int `mapstructure:"resolve_delay_seconds"`

	Commands Commands `mapstructure:"commands"`
}

// Token reads the release token from the configured environment variable.
func (c *Config) Token() (string, error) {
	tok := os.Getenv(c.TokenEnv)
	if tok == "" {
		return "", fmt.Errorf("no release token: set %s", c.TokenEnv)
	}
	return tok, nil
}

// Load reads ~/.tvrel/config.yaml (if present) and TVREL_* environment
// variables on top of the defaults.
func Load() (*Config, error) {
	dir, err := DataDir()
	if err == nil {
		viper.AddConfigPath(dir)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("TVREL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}
	if !filepath.IsAbs(cfg.DistDir) {
		cfg.DistDir = filepath.Join(cfg.SourceDir, cfg.DistDir)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("owner", "")
	viper.SetDefault("repo", "")
	viper.SetDefault("binary", "tv")
	viper.SetDefault("source_dir", ".")
	viper.SetDefault("dist_dir", "dist")
	viper.SetDefault("token_env", "GITHUB_TOKEN")
	viper.SetDefault("resolve_attempts", 5)
	viper.SetDefault("resolve_delay_seconds", 3)
}
