package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	FeedsPath   string
	OutputPath  string
	LogDir      string
	RulesPath   string
	DBPath      string
	MetricsPath string

	// Run settings
	MaxItems       int
	Region         string
	UserAgent      string
	WebhookURL     string
	RemoteFeedsURL string
	RetentionDays  int

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Log settings
	LogLevel zerolog.Level
	Console  bool
}

// DefaultConfig returns the configuration built from hardcoded defaults and
// the environment. Flags override it afterwards.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		FeedsPath:      DefaultFeedsPath,
		OutputPath:     DefaultOutputPath,
		LogDir:         DefaultLogDir,
		RulesPath:      GetEnvString(EnvRulesPath, ""),
		DBPath:         GetEnvString(EnvDBPath, DefaultDBPath),
		MetricsPath:    GetEnvString(EnvMetricsPath, ""),
		MaxItems:       DefaultMaxItems,
		Region:         DefaultRegion,
		UserAgent:      GetEnvString(EnvUserAgent, ""),
		WebhookURL:     GetEnvString(EnvWebhookURL, ""),
		RemoteFeedsURL: GetEnvString(EnvRemoteFeedsURL, ""),
		RetentionDays:  GetEnvInt(EnvRetentionDays, DefaultRetentionDays),
		ServerHost:     GetEnvString(EnvHost, DefaultServerHost),
		ServerPort:     GetEnvInt(EnvPort, DefaultServerPort),
		APIKey:         GetEnvString(EnvAPIKey, ""),
		LogLevel:       GetEnvLogLevel(EnvLogLevel, logLevel),
		Console:        GetEnvBool(EnvConsole, true),
	}
}

// Validate rejects flag values the job cannot run with.
func (c *Config) Validate() error {
	if c.MaxItems <= 0 {
		return fmt.Errorf("max-items must be positive, got %d", c.MaxItems)
	}
	if c.FeedsPath == "" {
		return fmt.Errorf("feeds path must not be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("%s must not be negative, got %d", EnvRetentionDays, c.RetentionDays)
	}
	return nil
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
