package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Client Configuration
	Client ClientConfig

	// Stub API Configuration
	StubAPI StubAPIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ClientConfig holds settings for the session client and CLI
type ClientConfig struct {
	APIURL         string        // Base URL of the API (scheme://host[:port])
	LoginPath      string        // Location path the app is sent to on auth failure
	RoutesFile     string        // Optional YAML route table, empty = built-in table
	CommandTimeout time.Duration // Deadline applied by the CLI to a single command, 0 = none
}

// StubAPIConfig holds settings for the local stub API server
type StubAPIConfig struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	AllowOrigins  []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := getEnv("SESSIONGUARD_API_URL", "http://localhost:3000")
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("invalid SESSIONGUARD_API_URL %q: %w", apiURL, err)
	}

	timeout := time.Duration(0)
	if raw := os.Getenv("SESSIONGUARD_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSIONGUARD_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	return &Config{
		Client: ClientConfig{
			APIURL:         strings.TrimRight(apiURL, "/"),
			LoginPath:      getEnv("SESSIONGUARD_LOGIN_PATH", "/login"),
			RoutesFile:     os.Getenv("SESSIONGUARD_ROUTES_FILE"),
			CommandTimeout: timeout,
		},
		StubAPI: StubAPIConfig{
			Addr:          getEnv("STUBAPI_ADDR", ":3000"),
			DatabaseURL:   getEnv("STUBAPI_DATABASE_URL", "stubapi.sqlite"),
			JWTSecret:     os.Getenv("STUBAPI_JWT_SECRET"),
			AdminEmail:    getEnv("STUBAPI_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: os.Getenv("STUBAPI_ADMIN_PASSWORD"),
			AllowOrigins:  splitList(getEnv("STUBAPI_ALLOW_ORIGINS", "http://localhost:5173")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
