// Package config loads service configuration from the environment with an
// optional YAML file override
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names the deployment environment
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Config is the root configuration
type Config struct {
	Environment Environment       `yaml:"environment"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Persistence PersistenceConfig `yaml:"persistence"`
	AI          AIConfig          `yaml:"ai"`
	Graph       GraphConfig       `yaml:"graph"`
	Suggestion  SuggestionConfig  `yaml:"suggestion"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// PersistenceConfig selects and configures the storage backend
type PersistenceConfig struct {
	// Driver is one of: supabase, dynamodb, memory
	Driver string `yaml:"driver"`

	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseServiceKey string `yaml:"supabase_service_key"`

	DynamoDBTable  string `yaml:"dynamodb_table"`
	DynamoDBRegion string `yaml:"dynamodb_region"`
}

// AIConfig configures the generative AI provider
type AIConfig struct {
	APIKeys         []string      `yaml:"api_keys"`
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	MinRequestDelay time.Duration `yaml:"min_request_delay"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Temperature     float64       `yaml:"temperature"`
	TopK            int           `yaml:"top_k"`
	TopP            float64       `yaml:"top_p"`
}

// GraphConfig configures the snapshot store
type GraphConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// SuggestionConfig configures the suggestion engine thresholds.
// These values are hot-reloadable through the config watcher.
type SuggestionConfig struct {
	MinConfidence  float64 `yaml:"min_confidence"`
	HighConfidence float64 `yaml:"high_confidence"`
	CandidateLimit int     `yaml:"candidate_limit"`
	DefaultLimit   int     `yaml:"default_limit"`
}

// LoadConfig reads configuration from the environment, then overlays the
// YAML file named by CONFIG_FILE when present
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: Environment(getEnv("ENVIRONMENT", string(EnvironmentDevelopment))),
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Debug: getEnvBool("LOG_DEBUG", false),
		},
		Persistence: PersistenceConfig{
			Driver:             getEnv("PERSISTENCE_DRIVER", "supabase"),
			SupabaseURL:        getEnv("SUPABASE_URL", ""),
			SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			DynamoDBTable:      getEnv("DYNAMODB_TABLE_NAME", ""),
			DynamoDBRegion:     getEnv("AWS_REGION", "us-east-1"),
		},
		AI: AIConfig{
			APIKeys:         gatherAPIKeys(),
			BaseURL:         getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:           getEnv("GEMINI_MODEL", "gemini-flash-latest"),
			MinRequestDelay: getEnvDuration("GEMINI_MIN_REQUEST_DELAY", 4*time.Second),
			RequestTimeout:  getEnvDuration("GEMINI_REQUEST_TIMEOUT", 30*time.Second),
			MaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 2048),
			Temperature:     getEnvFloat("GEMINI_TEMPERATURE", 0.7),
			TopK:            getEnvInt("GEMINI_TOP_K", 40),
			TopP:            getEnvFloat("GEMINI_TOP_P", 0.95),
		},
		Graph: GraphConfig{
			CacheTTL: getEnvDuration("GRAPH_CACHE_TTL", 5*time.Minute),
		},
		Suggestion: SuggestionConfig{
			MinConfidence:  getEnvFloat("SUGGESTION_MIN_CONFIDENCE", 0.5),
			HighConfidence: getEnvFloat("SUGGESTION_HIGH_CONFIDENCE", 0.75),
			CandidateLimit: getEnvInt("SUGGESTION_CANDIDATE_LIMIT", 50),
			DefaultLimit:   getEnvInt("SUGGESTION_DEFAULT_LIMIT", 5),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays YAML values onto the env-derived config
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for fatal misconfiguration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Persistence.Driver {
	case "supabase":
		if c.Persistence.SupabaseURL == "" || c.Persistence.SupabaseServiceKey == "" {
			return fmt.Errorf("supabase driver requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	case "dynamodb":
		if c.Persistence.DynamoDBTable == "" {
			return fmt.Errorf("dynamodb driver requires DYNAMODB_TABLE_NAME")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown persistence driver: %s", c.Persistence.Driver)
	}

	if c.Suggestion.MinConfidence < 0 || c.Suggestion.MinConfidence > 1 {
		return fmt.Errorf("suggestion min confidence must be within [0, 1]")
	}
	if c.Suggestion.HighConfidence < c.Suggestion.MinConfidence || c.Suggestion.HighConfidence > 1 {
		return fmt.Errorf("suggestion high confidence must be within [min, 1]")
	}
	if c.Suggestion.CandidateLimit <= 0 {
		return fmt.Errorf("suggestion candidate limit must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool { return c.Environment == EnvironmentDevelopment }

// gatherAPIKeys collects GEMINI_API_KEY plus numbered fallbacks, dropping blanks
func gatherAPIKeys() []string {
	var keys []string
	for _, name := range []string{"GEMINI_API_KEY", "GEMINI_API_KEY_2", "GEMINI_API_KEY_3"} {
		if v := os.Getenv(name); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
