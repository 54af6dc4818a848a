// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types on top of built-in defaults, and
// validates them so the service fails fast on bad config.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate values so the app fails fast on bad/missing config.
//   - Provide sane defaults for every block (server limits, rendering, observability).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it is loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using a prefix: DOCXRENDER_
	Keys are normalized (lowercased, prefix removed) and nested with ".":
	  DOCXRENDER_SERVER.PORT            -> server.port            -> Config.Server.Port
	  DOCXRENDER_RENDER.MAX_TEMPLATE_SIZE -> render.max_template_size

	PORT (no prefix) is also honoured because hosting platforms inject it.
	The prefixed variable wins when both are set.
*/

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "DOCXRENDER_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Render        RenderConfig         `koanf:"render" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs and to decide how much error detail reaches clients.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development staging production test"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Read/Write/Idle timeouts are seconds. RequestTimeout bounds the processing
// of a single request; BodyLimit uses Echo's size notation ("50M").
type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required"`
	ReadTimeout        int           `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int           `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int           `koanf:"idle_timeout" validate:"required,min=1"`
	RequestTimeout     time.Duration `koanf:"request_timeout" validate:"required,min=1s"`
	BodyLimit          string        `koanf:"body_limit" validate:"required"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// RenderConfig holds the limits and engine switches of the render pipeline.
type RenderConfig struct {
	// MaxTemplateSize is the largest accepted encoded template, in characters.
	MaxTemplateSize int `koanf:"max_template_size" validate:"required,min=1"`

	// MinDocumentSize is the smallest decoded template, in bytes.
	MinDocumentSize int `koanf:"min_document_size" validate:"required,min=1"`

	ParagraphLoop bool `koanf:"paragraph_loop"`
	Linebreaks    bool `koanf:"linebreaks"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Primary.Env == "production"
}

// Default returns the configuration used when no variable overrides it.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "3000",
			ReadTimeout:        60,
			WriteTimeout:       60,
			IdleTimeout:        120,
			RequestTimeout:     55 * time.Second,
			BodyLimit:          "50M",
			CORSAllowedOrigins: []string{"*"},
		},
		Render: RenderConfig{
			MaxTemplateSize: 40 * 1024 * 1024,
			MinDocumentSize: 100,
			ParagraphLoop:   true,
			Linebreaks:      true,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// Default(), validates it, applies observability defaults and returns it.
//
// Behavior summary:
//   - Loads PORT, then env vars with prefix DOCXRENDER_
//   - Unmarshals into Config (keys not set keep their defaults)
//   - Validates struct tags, then observability rules
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// PORT first, so DOCXRENDER_SERVER.PORT overrides it.
	// Returning "" from the callback skips a variable.
	err := k.Load(env.Provider("PORT", ".", func(s string) string {
		if s == "PORT" {
			return "server.port"
		}
		return ""
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load PORT: %w", err)
	}

	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// It's a pointer field, so nil means "missing".
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Force service name and environment so logs always carry consistent labels.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
