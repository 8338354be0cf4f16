package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for aura-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (interpretation + match caches)
	Redis RedisConfig `yaml:"redis"`

	// Auth configuration
	Auth AuthConfig `yaml:"auth"`

	// AI model endpoint used by the query interpreter
	AI AIConfig `yaml:"ai"`

	// Search configuration
	Search SearchConfig `yaml:"search"`

	// Match configuration
	Match MatchConfig `yaml:"match"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"aura"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"aura_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies the HMAC bearer tokens issued by the
	// storefront. Server fails to start without it unless verification is off.
	JWTSecret string `yaml:"-" env:"AUTH_JWT_SECRET"` // Secret - not in YAML

	// EnableVerification controls whether bearer tokens are validated.
	// Set to false for local development without the storefront auth service.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`
}

// AIConfig holds the external language-model endpoint configuration.
type AIConfig struct {
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// Timeout bounds a single interpretation call. On timeout the interpreter
	// falls back to keyword matching rather than hanging the request.
	Timeout time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"10s"`

	// MaxInFlight caps concurrent interpretation calls to the model endpoint.
	MaxInFlight int `yaml:"max_in_flight" env:"AI_MAX_IN_FLIGHT" env-default:"8"`
}

// SearchConfig holds search interpretation settings.
type SearchConfig struct {
	// CacheTTL bounds staleness of cached interpretations against catalog
	// drift without forcing a live model call on every repeated search.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"SEARCH_CACHE_TTL" env-default:"24h"`

	// PopularLimit is how many entries the popular-searches endpoint returns.
	PopularLimit int `yaml:"popular_limit" env:"SEARCH_POPULAR_LIMIT" env-default:"10"`

	// VocabularyPath optionally points to a YAML file overriding the built-in
	// olfactory-family vocabulary and fallback keyword synonyms.
	VocabularyPath string `yaml:"vocabulary_path" env:"SEARCH_VOCABULARY_PATH" env-default:""`
}

// MatchConfig holds match scoring settings.
type MatchConfig struct {
	// CacheTTL is how long computed match percentages are kept per
	// (user, product) pair before recomputation.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"MATCH_CACHE_TTL" env-default:"168h"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// If config.yaml is absent, environment variables and defaults alone apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when auth verification is enabled")
	}
	if c.AI.MaxInFlight < 1 {
		return fmt.Errorf("ai.max_in_flight must be at least 1, got %d", c.AI.MaxInFlight)
	}
	return nil
}

// IsProduction reports whether the engine runs in a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the host:port address of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
