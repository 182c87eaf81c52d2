// Package config defines the application configuration surface. Values are
// read once at process start; nothing is re-read per request.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"persona-chatbot"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// Server configuration
	Port           int           `env:"PORT" yaml:"port" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"60s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`

	// Completion provider configuration
	LLM       LLMConfig       `yaml:"llm,inline"`
	OpenAI    OpenAIConfig    `yaml:"openai,inline"`
	Anthropic AnthropicConfig `yaml:"anthropic,inline"`

	// Memory provider configuration
	Supermemory SupermemoryConfig `yaml:"supermemory,inline"`

	// Background worker pool configuration
	Background BackgroundConfig `yaml:"background,inline"`

	// Database configuration
	Database DatabaseConfig `yaml:"database,inline"`

	// Roles catalog
	RolesFile string `env:"ROLES_FILE" yaml:"roles_file" default:"roles.json"`

	// Authentication boundary: comma-separated "token:user_id" pairs.
	AuthTokens []string `env:"AUTH_TOKENS" yaml:"auth_tokens"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,inline"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring,inline"`

	// Security configuration
	Security SecurityConfig `yaml:"security,inline"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model   string        `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4o-mini"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout" default:"60s"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey  string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model   string        `env:"CLAUDE_MODEL" yaml:"model" default:"claude-3-5-sonnet-20241022"`
	Timeout time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout" default:"60s"`
}

// SupermemoryConfig holds memory-provider configuration. The memory
// subsystem is optional: a missing API key disables it without error.
type SupermemoryConfig struct {
	Enabled   bool          `env:"SUPERMEMORY_ENABLED" yaml:"enabled" default:"true"`
	APIKey    string        `env:"SUPERMEMORY_API_KEY" yaml:"api_key"`
	BaseURL   string        `env:"SUPERMEMORY_BASE_URL" yaml:"base_url" default:"https://api.supermemory.ai"`
	Namespace string        `env:"SUPERMEMORY_NAMESPACE" yaml:"namespace" default:"default"`
	Backend   string        `env:"MEMORY_BACKEND" yaml:"backend" default:"remote"`
	Timeout   time.Duration `env:"SUPERMEMORY_TIMEOUT" yaml:"timeout" default:"10s"`
}

// BackgroundConfig holds worker-pool configuration for fire-and-forget work.
type BackgroundConfig struct {
	Workers     int           `env:"BACKGROUND_WORKERS" yaml:"workers" default:"3"`
	QueueSize   int           `env:"BACKGROUND_QUEUE_SIZE" yaml:"queue_size" default:"64"`
	TaskTimeout time.Duration `env:"BACKGROUND_TASK_TIMEOUT" yaml:"task_timeout" default:"30s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" yaml:"url" required:"true"`
	MaxConnections  int           `env:"DATABASE_MAX_CONNECTIONS" yaml:"max_connections" default:"25"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" yaml:"conn_max_lifetime" default:"5m"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" yaml:"level" default:"info"`
	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}

// MonitoringConfig holds monitoring configuration. Metrics are served on
// their own port, separate from the API listener.
type MonitoringConfig struct {
	MetricsEnabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"true"`
	MetricsPort    int  `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"http://localhost:3000,http://localhost:8080"`
	MaxRequestSize     int64    `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"1048576"` // 1MB default
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	// The completion provider key is a hard startup requirement; the memory
	// provider key is not.
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_API_KEY is required when llm provider is 'openai'"))
		}
	case "claude", "anthropic":
		if c.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("ANTHROPIC_API_KEY is required when llm provider is 'claude'"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("llm provider must be 'openai' or 'claude', got %q", c.LLM.Provider))
	}

	if c.Supermemory.Backend != "remote" && c.Supermemory.Backend != "local" {
		result = multierror.Append(result, fmt.Errorf("memory backend must be 'remote' or 'local', got %q", c.Supermemory.Backend))
	}

	if c.Background.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("background_workers must be at least 1"))
	}

	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.Logging.Level))
}

// ModelName returns the model identifier for the configured provider.
func (c *AppConfig) ModelName() string {
	if strings.ToLower(c.LLM.Provider) == "openai" {
		return c.OpenAI.Model
	}
	return c.Anthropic.Model
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("model", c.ModelName()),
		logger.BoolField("memory_enabled", c.Supermemory.Enabled),
		logger.StringField("memory_backend", c.Supermemory.Backend),
		logger.StringField("memory_namespace", c.Supermemory.Namespace),
		logger.StringField("log_level", c.Logging.Level),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
	)
}
