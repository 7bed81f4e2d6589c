package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	KratosURL           string        // Kratos public URL used for server-side calls (port 4433)
	KratosBrowserURL    string        // Kratos public URL as seen by browsers
	PublicURL           string        // This service's external origin, used for return_to
	Port                string        // Service port
	SessionCookieName   string        // Kratos session cookie name
	ProviderTimeout     time.Duration // Per-call timeout for Kratos requests
	SignInPath          string
	SignUpPath          string
	LandingPath         string
	ManagePath          string
	OrganizerRole       string        // Role required for the manage page
	Environment         string        // development, staging, production
	DevDiagnostics      bool          // Expose configuration diagnostics in check-auth responses
	MetricsSharedSecret string        // Protects /metrics when set
	RateLimitEnabled    bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		KratosURL:           getEnv("KRATOS_URL", "http://kratos:4433"),
		PublicURL:           getEnv("PUBLIC_URL", ""),
		Port:                getEnv("PORT", "8888"),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "ory_kratos_session"),
		ProviderTimeout:     3 * time.Second,
		SignInPath:          getEnv("SIGN_IN_PATH", "/sign-in"),
		SignUpPath:          getEnv("SIGN_UP_PATH", "/sign-up"),
		LandingPath:         getEnv("LANDING_PATH", "/festivals"),
		ManagePath:          getEnv("MANAGE_PATH", "/festivals/manage"),
		OrganizerRole:       getEnv("ORGANIZER_ROLE", "organizer"),
		Environment:         getEnv("ENVIRONMENT", "production"),
		MetricsSharedSecret: getEnv("METRICS_SHARED_SECRET", ""),
	}
	config.KratosBrowserURL = getEnv("KRATOS_BROWSER_URL", config.KratosURL)

	// Parse PROVIDER_TIMEOUT if provided
	if timeoutStr := os.Getenv("PROVIDER_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT format: %w", err)
		}
		config.ProviderTimeout = duration
	}

	var err error
	if config.DevDiagnostics, err = getBool("DEV_DIAGNOSTICS", false); err != nil {
		return nil, err
	}
	if config.RateLimitEnabled, err = getBool("RATE_LIMIT_ENABLED", true); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KratosURL == "" {
		return fmt.Errorf("KRATOS_URL cannot be empty")
	}
	if _, err := url.ParseRequestURI(c.KratosURL); err != nil {
		return fmt.Errorf("KRATOS_URL is not a valid URL: %w", err)
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	for name, p := range map[string]string{
		"SIGN_IN_PATH": c.SignInPath,
		"SIGN_UP_PATH": c.SignUpPath,
		"LANDING_PATH": c.LandingPath,
		"MANAGE_PATH":  c.ManagePath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must be an absolute path, got %q", name, p)
		}
	}

	// The sign-in page must never itself require a session.
	if c.SignInPath == c.LandingPath || c.SignInPath == c.ManagePath {
		return fmt.Errorf("SIGN_IN_PATH must differ from protected paths")
	}

	if c.DevDiagnostics && c.IsProduction() {
		return fmt.Errorf("DEV_DIAGNOSTICS cannot be enabled in production")
	}

	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}
