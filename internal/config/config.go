package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvPrefix is the prefix shared by every environment variable the service reads.
const EnvPrefix = "AGENT_SERVER"

// Config holds the configuration for the agent service.
// Environment variables are parsed from the AGENT_SERVER_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override drivers
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	VectorStore string `envconfig:"VECTOR_STORE" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Embeddings
	EmbedProvider   string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel      string `envconfig:"EMBED_MODEL" default:"mxbai-embed-large"`
	EmbedDimensions int    `envconfig:"EMBED_DIMENSIONS" default:"1024"`

	// Structured generation
	LLMProvider string `envconfig:"LLM_PROVIDER" default:"ollama"`
	LLMModel    string `envconfig:"LLM_MODEL" default:"llama3.1:8b"`
	OllamaURL   string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	GeminiKey   string `envconfig:"GEMINI_API_KEY" default:""`

	// LLMTimeout bounds a single intent or reasoning call.
	LLMTimeout time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`

	// Weaviate mirror for semantic memory; empty disables it.
	WeaviateURL string `envconfig:"WEAVIATE_URL" default:""`

	// Event fan-out; empty disables the Kafka publisher.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"wellness.activity.logged"`

	// Messaging platform
	TelegramToken   string `envconfig:"TELEGRAM_TOKEN" default:""`
	TelegramBaseURL string `envconfig:"TELEGRAM_BASE_URL" default:"https://api.telegram.org"`

	// Pipeline
	DefaultTimezone string        `envconfig:"DEFAULT_TIMEZONE" default:"UTC"`
	TurnTimeout     time.Duration `envconfig:"TURN_TIMEOUT" default:"45s"`
	MaxClockSkew    time.Duration `envconfig:"MAX_CLOCK_SKEW" default:"5m"`
	MaxClientAge    time.Duration `envconfig:"MAX_CLIENT_AGE" default:"24h"`

	// Background task queue
	TaskShards      int           `envconfig:"TASK_SHARDS" default:"4"`
	TaskQueueSize   int           `envconfig:"TASK_QUEUE_SIZE" default:"256"`
	TaskMaxAttempts int           `envconfig:"TASK_MAX_ATTEMPTS" default:"5"`
	TaskBaseBackoff time.Duration `envconfig:"TASK_BASE_BACKOFF" default:"200ms"`

	// Outbox worker
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxLease        time.Duration `envconfig:"OUTBOX_LEASE" default:"30s"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"8"`

	// OutboxEmbedded runs the outbox worker inside the agent service.
	OutboxEmbedded bool `envconfig:"OUTBOX_EMBEDDED" default:"false"`

	// Health checks
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver and VectorStore when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	if c.VectorStore == "" || c.VectorStore == "auto" {
		c.VectorStore = "store"
		if c.WeaviateURL != "" {
			c.VectorStore = "weaviate"
		}
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "wellness-agent.db"
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	allowedVector := map[string]bool{"store": true, "weaviate": true}
	if !allowedVector[c.VectorStore] {
		return fmt.Errorf("unsupported VECTOR_STORE: %s", c.VectorStore)
	}
	if c.VectorStore == "weaviate" && c.WeaviateURL == "" {
		return fmt.Errorf("VECTOR_STORE=weaviate requires WEAVIATE_URL")
	}
	if c.EmbedDimensions <= 0 {
		return fmt.Errorf("EMBED_DIMENSIONS must be positive, got %d", c.EmbedDimensions)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: AGENT_SERVER_HTTP_PORT, AGENT_SERVER_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("vector_store", cfg.VectorStore).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Int("embed_dimensions", cfg.EmbedDimensions).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("kafka_enabled", len(cfg.KafkaBrokers) > 0).
		Bool("telegram_enabled", cfg.TelegramToken != "").
		Str("default_timezone", cfg.DefaultTimezone).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
		BuildTarget: "local",
		DBDriver:    "auto",
		VectorStore: "auto",
		HTTPPort:    8080,

		EmbedProvider:   "ollama",
		EmbedModel:      "mxbai-embed-large",
		EmbedDimensions: 1024,
		LLMProvider:     "ollama",
		LLMModel:        "llama3.1:8b",
		OllamaURL:       "http://localhost:11434",
		LLMTimeout:      20 * time.Second,

		KafkaTopic:      "wellness.activity.logged",
		TelegramBaseURL: "https://api.telegram.org",

		DefaultTimezone: "UTC",
		TurnTimeout:     45 * time.Second,
		MaxClockSkew:    5 * time.Minute,
		MaxClientAge:    24 * time.Hour,

		TaskShards:      2,
		TaskQueueSize:   16,
		TaskMaxAttempts: 3,
		TaskBaseBackoff: 10 * time.Millisecond,

		OutboxBatchSize:    10,
		OutboxPollInterval: 100 * time.Millisecond,
		OutboxLease:        5 * time.Second,
		OutboxMaxAttempts:  3,

		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   5,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// DefaultLocation returns the fallback timezone for users without a preference.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
