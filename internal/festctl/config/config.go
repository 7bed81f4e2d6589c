// Package config provides Viper-based configuration for festctl.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete festctl configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Kratos      KratosConfig      `mapstructure:"kratos"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Output      OutputConfig      `mapstructure:"output"`
}

// ServerConfig points at a festival-hub instance.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// KratosConfig points at the Kratos public API.
type KratosConfig struct {
	URL string `mapstructure:"url"`
}

// CredentialsConfig controls where the session token is kept.
type CredentialsConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads configuration from file and FESTCTL_* environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".festctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/festctl")
	}

	// FESTCTL_SERVER_URL, FESTCTL_KRATOS_URL, ...
	v.SetEnvPrefix("FESTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:8888")
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("kratos.url", "http://localhost:4433")
	v.SetDefault("credentials.dir", defaultCredentialsDir())
	v.SetDefault("output.colors", true)
}

func defaultCredentialsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".festctl"
	}
	return filepath.Join(home, ".festctl")
}

func validate(cfg *Config) error {
	for name, raw := range map[string]string{"server.url": cfg.Server.URL, "kratos.url": cfg.Kratos.URL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if cfg.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if cfg.Credentials.Dir == "" {
		return fmt.Errorf("credentials.dir cannot be empty")
	}
	return nil
}
