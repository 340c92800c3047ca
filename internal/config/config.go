package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Session   SessionConfig   `mapstructure:"session"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	Version           string        `mapstructure:"version"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	TopP            float32       `mapstructure:"top_p"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
	OpenAI          OpenAIConfig  `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
}

type VectorConfig struct {
	URL        string  `mapstructure:"url"`
	APIKey     string  `mapstructure:"api_key"`
	Collection string  `mapstructure:"collection"`
	TopK       int     `mapstructure:"top_k"`
	Threshold  float32 `mapstructure:"threshold"`
}

type SpeechConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	RecentTurnsWindow int           `mapstructure:"recent_turns_window"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	VerbatimTurns     int           `mapstructure:"verbatim_turns"`
}

type DispatchConfig struct {
	StreamPrefix string `mapstructure:"stream_prefix"`
	MaxLen       int64  `mapstructure:"max_len"`
}

// AgentsConfig configures the action worker: consumer group identity and
// the downstream endpoint per target service
type AgentsConfig struct {
	Group     string            `mapstructure:"group"`
	Consumer  string            `mapstructure:"consumer"`
	APIKey    string            `mapstructure:"api_key"`
	Endpoints map[string]string `mapstructure:"endpoints"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.middleware_timeout", "110s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.version", "2.0.0")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "metaagent")
	v.SetDefault("database.database", "metaagent")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "metaagent")

	// Auth
	v.SetDefault("auth.access_token_ttl", "1h")

	// LLM: fixed sampling parameters, not user-configurable per request
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_backoff", "500ms")
	v.SetDefault("llm.call_timeout", "60s")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.gemini.embedding_model", "text-embedding-004")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")

	// Vector store
	v.SetDefault("vector.collection", "tenant_knowledge")
	v.SetDefault("vector.top_k", 5)
	v.SetDefault("vector.threshold", 0.7)

	// Speech
	v.SetDefault("speech.timeout", "30s")

	// Session
	v.SetDefault("session.recent_turns_window", 10)
	v.SetDefault("session.cache_ttl", "24h")
	v.SetDefault("session.verbatim_turns", 2)

	// Dispatch
	v.SetDefault("dispatch.stream_prefix", "actions:")
	v.SetDefault("dispatch.max_len", 10000)

	// Agents worker
	v.SetDefault("agents.group", "meta-agent-workers")
	v.SetDefault("agents.consumer", "worker-1")

	// Rate limiting
	v.SetDefault("rate_limit.requests_per_minute", 120)
	v.SetDefault("rate_limit.burst", 20)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("vector.url", "QDRANT_URL")
	v.BindEnv("vector.api_key", "QDRANT_API_KEY")
	v.BindEnv("speech.url", "SPEECH_SERVICE_URL")
	v.BindEnv("speech.api_key", "SPEECH_API_KEY")
	v.BindEnv("logging.file", "LOG_FILE")
	v.BindEnv("agents.api_key", "AGENTS_API_KEY")
	v.BindEnv("agents.consumer", "WORKER_CONSUMER")
}
