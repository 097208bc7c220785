// Package config loads ragroute configuration from YAML or TOML files with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all ragroute configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Routing     RoutingConfig     `yaml:"routing" toml:"routing"`
	Context     ContextConfig     `yaml:"context" toml:"context"`
	TenantCfg   TenantCfgConfig   `yaml:"tenant_config" toml:"tenant_config"`
	Persona     PersonaConfig     `yaml:"persona" toml:"persona"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Redis       RedisConfig       `yaml:"redis" toml:"redis"`
	Supabase    SupabaseConfig    `yaml:"supabase" toml:"supabase"`
	DecisionLog DecisionLogConfig `yaml:"decision_log" toml:"decision_log"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr          string  `yaml:"addr" toml:"addr"`
	ReadTimeout   string  `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout  string  `yaml:"write_timeout" toml:"write_timeout"`
	RateLimit     float64 `yaml:"rate_limit" toml:"rate_limit"` // requests/second, 0 disables
	RateBurst     int     `yaml:"rate_burst" toml:"rate_burst"`
	AllowedOrigin string  `yaml:"allowed_origin" toml:"allowed_origin"`
}

// RoutingConfig locates the routing rules.
type RoutingConfig struct {
	RulesFile string `yaml:"rules_file" toml:"rules_file"` // empty means built-in rules
	Watch     bool   `yaml:"watch" toml:"watch"`
}

// ContextConfig bounds the context block.
type ContextConfig struct {
	TopK       int `yaml:"top_k" toml:"top_k"`
	CharBudget int `yaml:"char_budget" toml:"char_budget"`
}

// TenantCfgConfig selects the tenant configuration source.
type TenantCfgConfig struct {
	Source        string      `yaml:"source" toml:"source"` // http, supabase
	BaseURL       string      `yaml:"base_url" toml:"base_url"`
	LookupTimeout string      `yaml:"lookup_timeout" toml:"lookup_timeout"`
	Cache         CacheConfig `yaml:"cache" toml:"cache"`
}

// CacheConfig configures the Redis read-through cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	TTL     string `yaml:"ttl" toml:"ttl"`
}

// PersonaConfig configures email-based tenant/persona resolution.
type PersonaConfig struct {
	Enabled bool                  `yaml:"enabled" toml:"enabled"`
	Static  map[string]StaticUser `yaml:"static" toml:"static"` // consulted when the tenant service is down
}

// StaticUser is a fixed email mapping.
type StaticUser struct {
	TenantID  string `yaml:"tenant_id" toml:"tenant_id"`
	PersonaID string `yaml:"persona_id" toml:"persona_id"`
}

// VectorStoreConfig configures collection provisioning.
type VectorStoreConfig struct {
	Transport  string   `yaml:"transport" toml:"transport"` // http, grpc
	URL        string   `yaml:"url" toml:"url"`
	GRPCURL    string   `yaml:"grpc_url" toml:"grpc_url"`
	APIKey     string   `yaml:"api_key" toml:"api_key"`
	VectorSize uint64   `yaml:"vector_size" toml:"vector_size"`
	Distance   string   `yaml:"distance" toml:"distance"`
	Indexes    []string `yaml:"indexes" toml:"indexes"`
	Timeout    string   `yaml:"timeout" toml:"timeout"`
}

// LLMConfig configures the Ollama backend.
type LLMConfig struct {
	BaseURL      string `yaml:"base_url" toml:"base_url"`
	DefaultModel string `yaml:"default_model" toml:"default_model"`
	Timeout      string `yaml:"timeout" toml:"timeout"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

// SupabaseConfig configures the Supabase connection.
type SupabaseConfig struct {
	URL    string `yaml:"url" toml:"url"`
	APIKey string `yaml:"api_key" toml:"api_key"`
	Table  string `yaml:"table" toml:"table"`
}

// DecisionLogConfig selects where routing decisions are kept.
type DecisionLogConfig struct {
	Driver   string `yaml:"driver" toml:"driver"` // none, memory, sqlite
	Path     string `yaml:"path" toml:"path"`
	Capacity int    `yaml:"capacity" toml:"capacity"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   "15s",
			WriteTimeout:  "300s",
			RateBurst:     20,
			AllowedOrigin: "*",
		},
		Context: ContextConfig{
			TopK:       3,
			CharBudget: 1500,
		},
		TenantCfg: TenantCfgConfig{
			Source:        "http",
			BaseURL:       "http://tenant-service-dt:8000",
			LookupTimeout: "2s",
			Cache:         CacheConfig{TTL: "5m"},
		},
		VectorStore: VectorStoreConfig{
			Transport:  "http",
			URL:        "http://qdrant:6333",
			GRPCURL:    "http://qdrant:6334",
			VectorSize: 768,
			Distance:   "Cosine",
			Indexes:    []string{"tenantId", "personaId", "fileName", "s3Key"},
			Timeout:    "30s",
		},
		LLM: LLMConfig{
			BaseURL:      "http://localhost:11434",
			DefaultModel: "llama3.2:latest",
			Timeout:      "300s",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Supabase: SupabaseConfig{
			Table: "tenant_prompts",
		},
		DecisionLog: DecisionLogConfig{
			Driver:   "none",
			Path:     "./data",
			Capacity: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the file at path, decoding by extension (.yaml, .yml, .toml),
// then applies environment overrides. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// decodeFile decodes path into v, picking the decoder from the extension.
// A missing file is returned unwrapped so callers can test os.IsNotExist.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGROUTE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TENANT_SERVICE_URL"); v != "" {
		c.TenantCfg.BaseURL = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.VectorStore.URL = v
	}
	if v := os.Getenv("QDRANT_GRPC_URL"); v != "" {
		c.VectorStore.GRPCURL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.VectorStore.APIKey = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.Supabase.APIKey = v
	}
	if v := os.Getenv("RAGROUTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetLookupTimeout returns the tenant lookup timeout.
func (c *Config) GetLookupTimeout() time.Duration {
	return parseDuration(c.TenantCfg.LookupTimeout, 2*time.Second)
}

// GetCacheTTL returns the tenant config cache TTL.
func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.TenantCfg.Cache.TTL, 5*time.Minute)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 300*time.Second)
}

// GetLLMTimeout returns the generation timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 300*time.Second)
}

// GetVectorStoreTimeout returns the provisioning timeout.
func (c *Config) GetVectorStoreTimeout() time.Duration {
	return parseDuration(c.VectorStore.Timeout, 30*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks enumerated settings and required credentials.
func (c *Config) Validate() error {
	var errs ValidateErrors

	oneOf := func(field, value string, valid ...string) {
		for _, v := range valid {
			if value == v {
				return
			}
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid value %q, must be one of: %s", value, strings.Join(valid, ", ")),
		})
	}

	oneOf("tenant_config.source", c.TenantCfg.Source, "http", "supabase")
	oneOf("vector_store.transport", c.VectorStore.Transport, "http", "grpc")
	oneOf("decision_log.driver", c.DecisionLog.Driver, "none", "memory", "sqlite")
	oneOf("logging.level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "error")
	oneOf("logging.format", c.Logging.Format, "json", "console")

	if c.TenantCfg.Source == "supabase" && (c.Supabase.URL == "" || c.Supabase.APIKey == "") {
		errs = append(errs, ValidationError{Field: "supabase", Message: "url and api_key are required (SUPABASE_URL, SUPABASE_KEY)"})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must not be negative"})
	}
	if c.Context.TopK < 0 || c.Context.CharBudget < 0 {
		errs = append(errs, ValidationError{Field: "context", Message: "top_k and char_budget must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
