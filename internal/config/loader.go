package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDir is where configuration files live unless CONFIG_DIR is set.
const DefaultDir = "config"

// ============================================================================
// LOADER
// ============================================================================

// Loader layers configuration sources from lowest to highest priority:
//  1. defaults
//  2. base.yaml
//  3. <environment>.yaml
//  4. local.yaml (development only)
//  5. environment variables
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders []FileLoader
	getenv      func(string) string
}

// FileLoader decodes one file format.
type FileLoader interface {
	Load(reader io.Reader, target any) error
	Extension() string
}

// NewLoader creates a loader reading files under basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: []FileLoader{&YAMLLoader{}, &JSONLoader{}},
		getenv:      os.Getenv,
	}
}

// WithEnv replaces the environment lookup, for tests.
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// Load applies every layer and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.sources = nil
	cfg := Defaults(l.environment)
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	// Files may not change the environment chosen at startup.
	cfg.Environment = l.environment
	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Sources lists what the last Load applied.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// loadFile decodes the first of name.yaml, name.yml or name.json found.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		for _, ext := range strings.Split(loader.Extension(), ",") {
			path := filepath.Join(l.basePath, name+"."+ext)
			file, err := os.Open(path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return err
			}
			err = loader.Load(file, cfg)
			file.Close()
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			l.sources = append(l.sources, path)
			return nil
		}
	}
	return os.ErrNotExist
}

func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	str := func(key string, dst *string) {
		if v := l.getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := l.getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	if v := l.getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	str("HOST", &cfg.Server.Host)

	str("STORE_DRIVER", &cfg.Store.Driver)
	str("SUPABASE_URL", &cfg.Store.Supabase.URL)
	str("SUPABASE_SERVICE_KEY", &cfg.Store.Supabase.ServiceKey)
	str("DYNAMODB_TABLE", &cfg.Store.DynamoDB.Table)
	str("DYNAMODB_ENDPOINT", &cfg.Store.DynamoDB.Endpoint)
	if v := l.getenv("AWS_REGION"); v != "" {
		cfg.Store.DynamoDB.Region = v
		cfg.Events.Region = v
	}
	str("SQLITE_PATH", &cfg.Store.SQLite.Path)

	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("ANTHROPIC_API_KEY", &cfg.LLM.APIKey)
	str("ANTHROPIC_BASE_URL", &cfg.LLM.BaseURL)

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	boolean("ENABLE_METRICS", &cfg.Metrics.Enabled)
	boolean("ENABLE_TRACING", &cfg.Tracing.Enabled)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	boolean("ENABLE_CACHE", &cfg.Cache.Enabled)

	str("EVENTS_PROVIDER", &cfg.Events.Provider)
	str("EVENT_BUS_NAME", &cfg.Events.EventBusName)

	boolean("ENABLE_AUTH", &cfg.Security.EnableAuth)
	str("JWT_SECRET", &cfg.Security.JWTSecret)
	str("JWT_ISSUER", &cfg.Security.JWTIssuer)

	if v := l.getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
}

// Defaults returns a configuration that runs locally without any files.
func Defaults(env Environment) *Config {
	return &Config{
		Environment: env,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  60 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Store: Store{
			Driver:   "memory",
			DynamoDB: DynamoDB{Table: "cortex", Region: "us-east-1"},
			SQLite:   SQLite{Path: "data/cortex.db"},
		},
		LLM: LLM{
			Provider:            "anthropic",
			ClassifierModel:     "claude-sonnet-4-20250514",
			ClassifierMaxTokens: 500,
			ChatModel:           "claude-haiku-4-5-20251001",
			ChatMaxTokens:       800,
			Timeout:             30 * time.Second,
			MaxRetries:          2,
			RateLimit:           5,
			Burst:               5,
		},
		Fetcher: Fetcher{
			Timeout:      8 * time.Second,
			MaxRedirects: 5,
			MaxBodyBytes: 2 << 20,
		},
		Cache: Cache{
			Enabled:      true,
			TTL:          30 * time.Second,
			MaxSnapshots: 1000,
		},
		Logging: Logging{Level: "info", Format: "json"},
		Metrics: Metrics{Enabled: true, Namespace: "cortex", Path: "/metrics"},
		Tracing: Tracing{ServiceName: "cortex-api", SampleRate: 1, Insecure: true},
		Events:  Events{Provider: "log", Region: "us-east-1"},
		Security: Security{
			JWTIssuer: "cortex",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Report: Report{DefaultUserName: "Cortex User"},
	}
}

// ============================================================================
// FILE LOADERS
// ============================================================================

// YAMLLoader reads .yaml and .yml files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target any) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string { return "yaml,yml" }

// JSONLoader reads .json files. Durations are nanoseconds.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target any) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

// ============================================================================
// ENTRY POINTS
// ============================================================================

// EnvironmentFromEnv reads ENVIRONMENT, defaulting to development.
func EnvironmentFromEnv() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENVIRONMENT"))); env {
	case Development, Staging, Production, Test:
		return env
	default:
		return Development
	}
}

// Dir returns CONFIG_DIR or DefaultDir.
func Dir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return DefaultDir
}

// Load reads configuration for the current process environment.
func Load() (*Config, error) {
	return NewLoader(Dir(), EnvironmentFromEnv()).Load()
}

// MustLoad is Load for main packages.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
