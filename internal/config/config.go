// Package config loads layered application settings: defaults, YAML or
// JSON files, then environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zapcore"
)

// Environment names a deployment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the full set of runtime settings.
type Config struct {
	Environment    Environment    `yaml:"environment" json:"environment" validate:"oneof=development staging production test"`
	Server         Server         `yaml:"server" json:"server"`
	Store          Store          `yaml:"store" json:"store"`
	LLM            LLM            `yaml:"llm" json:"llm"`
	Fetcher        Fetcher        `yaml:"fetcher" json:"fetcher"`
	Cache          Cache          `yaml:"cache" json:"cache"`
	Logging        Logging        `yaml:"logging" json:"logging"`
	Metrics        Metrics        `yaml:"metrics" json:"metrics"`
	Tracing        Tracing        `yaml:"tracing" json:"tracing"`
	Events         Events         `yaml:"events" json:"events"`
	Security       Security       `yaml:"security" json:"security"`
	CORS           CORS           `yaml:"cors" json:"cors"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker" json:"circuit_breaker"`
	Report         Report         `yaml:"report" json:"report"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"gt=0"`
	MaxRequestSize  int64         `yaml:"max_request_size" json:"max_request_size" validate:"gt=0"`
}

// Addr is the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Store struct {
	Driver   string   `yaml:"driver" json:"driver" validate:"oneof=memory supabase dynamodb sqlite"`
	Supabase Supabase `yaml:"supabase" json:"supabase"`
	DynamoDB DynamoDB `yaml:"dynamodb" json:"dynamodb"`
	SQLite   SQLite   `yaml:"sqlite" json:"sqlite"`
}

type Supabase struct {
	URL        string `yaml:"url" json:"url"`
	ServiceKey string `yaml:"service_key" json:"service_key"`
}

type DynamoDB struct {
	Table    string `yaml:"table" json:"table"`
	Region   string `yaml:"region" json:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

type SQLite struct {
	Path string `yaml:"path" json:"path"`
}

// LLM configures the language model provider. Provider "mock" runs the
// scripted provider and needs no key.
type LLM struct {
	Provider            string        `yaml:"provider" json:"provider" validate:"oneof=anthropic mock"`
	APIKey              string        `yaml:"api_key" json:"api_key"`
	BaseURL             string        `yaml:"base_url" json:"base_url"`
	ClassifierModel     string        `yaml:"classifier_model" json:"classifier_model" validate:"required"`
	ClassifierMaxTokens int64         `yaml:"classifier_max_tokens" json:"classifier_max_tokens" validate:"gt=0"`
	ChatModel           string        `yaml:"chat_model" json:"chat_model" validate:"required"`
	ChatMaxTokens       int64         `yaml:"chat_max_tokens" json:"chat_max_tokens" validate:"gt=0"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries          int           `yaml:"max_retries" json:"max_retries" validate:"min=0"`
	RateLimit           float64       `yaml:"rate_limit" json:"rate_limit" validate:"gt=0"`
	Burst               int           `yaml:"burst" json:"burst" validate:"gt=0"`
}

type Fetcher struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects" validate:"min=0"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes" validate:"gt=0"`
}

type Cache struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	TTL          time.Duration `yaml:"ttl" json:"ttl"`
	MaxSnapshots int           `yaml:"max_snapshots" json:"max_snapshots" validate:"min=0"`
}

type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

// ZapLevel parses Level.
func (l Logging) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(l.Level)
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Path      string `yaml:"path" json:"path"`
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate" validate:"min=0,max=1"`
}

// Events selects where domain events go: "log", "eventbridge" or "none".
type Events struct {
	Provider     string `yaml:"provider" json:"provider" validate:"oneof=log eventbridge none"`
	EventBusName string `yaml:"event_bus_name" json:"event_bus_name"`
	Region       string `yaml:"region" json:"region"`
}

type Security struct {
	EnableAuth bool   `yaml:"enable_auth" json:"enable_auth"`
	JWTSecret  string `yaml:"jwt_secret" json:"jwt_secret"`
	JWTIssuer  string `yaml:"jwt_issuer" json:"jwt_issuer"`
}

type CORS struct {
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" json:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
	MaxAge           int      `yaml:"max_age" json:"max_age"`
}

type CircuitBreaker struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxRequests  uint32        `yaml:"max_requests" json:"max_requests"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MinRequests  uint32        `yaml:"min_requests" json:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio" json:"failure_ratio" validate:"min=0,max=1"`
}

type Report struct {
	DefaultUserName string `yaml:"default_user_name" json:"default_user_name"`
}

// IsDevelopment reports whether hot reload and local overrides apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction reports whether production checks apply.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

var validate = validator.New()

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if _, err := c.Logging.ZapLevel(); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	switch c.Store.Driver {
	case "supabase":
		if c.Store.Supabase.URL == "" || c.Store.Supabase.ServiceKey == "" {
			errs = append(errs, errors.New("store.supabase: url and service_key are required"))
		}
	case "dynamodb":
		if c.Store.DynamoDB.Table == "" {
			errs = append(errs, errors.New("store.dynamodb.table is required"))
		}
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("store.sqlite.path is required"))
		}
	}

	if c.Security.EnableAuth && c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret is required when auth is enabled"))
	}
	if c.Events.Provider == "eventbridge" && c.Events.EventBusName == "" {
		errs = append(errs, errors.New("events.event_bus_name is required for eventbridge"))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}
	if c.IsProduction() && c.Store.Driver == "memory" {
		errs = append(errs, errors.New("store.driver memory is not allowed in production"))
	}

	return errors.Join(errs...)
}
