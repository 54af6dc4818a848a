package config

import (
	"fmt"
	"time"
)

// ServiceName identifies this service in logs and APM dashboards.
const ServiceName = "docx-render"

// ObservabilityConfig groups all configuration related to telemetry and runtime visibility:
//   - logging settings (format, level, slow render threshold)
//   - APM/tracing provider settings (New Relic)
//
// It is embedded under Config.Observability. If omitted, defaults are injected.
type ObservabilityConfig struct {
	// ServiceName is forced to ServiceName at load time.
	ServiceName string `koanf:"service_name" validate:"required"`

	// Environment is forced to primary.env at load time.
	Environment string `koanf:"environment" validate:"required"`

	Logging  LoggingConfig  `koanf:"logging" validate:"required"`
	NewRelic NewRelicConfig `koanf:"new_relic"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level"`

	// Format selects "json" or "console" output.
	Format string `koanf:"format" validate:"required,oneof=json console"`

	// SlowRenderThreshold marks renders taking longer than this with a warning.
	// Parsed from duration strings like "5s" or "750ms".
	SlowRenderThreshold time.Duration `koanf:"slow_render_threshold"`
}

// NewRelicConfig holds configuration for New Relic APM and tracing.
// An empty LicenseKey disables New Relic entirely.
type NewRelicConfig struct {
	LicenseKey string `koanf:"license_key"`

	// AppLogForwardingEnabled forwards application logs to New Relic.
	AppLogForwardingEnabled bool `koanf:"app_log_forwarding_enabled"`

	// DistributedTracingEnabled enables distributed tracing across services.
	DistributedTracingEnabled bool `koanf:"distributed_tracing_enabled"`

	// DebugLogging enables agent debug output. Off by default so agent
	// lines do not mix with the JSON log stream.
	DebugLogging bool `koanf:"debug_logging"`
}

// Enabled reports whether a license key is configured.
func (c NewRelicConfig) Enabled() bool {
	return c.LicenseKey != ""
}

// DefaultObservabilityConfig provides a safe set of defaults.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: ServiceName,
		Environment: "development",
		Logging: LoggingConfig{
			Level:               "info",
			Format:              "json",
			SlowRenderThreshold: 5 * time.Second,
		},
		NewRelic: NewRelicConfig{
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
		},
	}
}

// Validate applies custom validation rules that go beyond struct tags.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	validLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Logging.SlowRenderThreshold < 0 {
		return fmt.Errorf("logging slow_render_threshold must be non-negative")
	}

	return nil
}

// GetLogLevel returns the effective log level: the configured one, or
// "info" in production and "debug" elsewhere when none is set.
func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level != "" {
		return c.Logging.Level
	}
	if c.IsProduction() {
		return "info"
	}
	return "debug"
}

// IsProduction reports whether the application is running in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}
