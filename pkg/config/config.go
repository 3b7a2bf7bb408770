package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Typesense    TypesenseConfig
	VectorStore  VectorStoreConfig
	QueryBackend QueryBackendConfig
	OpenAI       OpenAIConfig
	Prompts      PromptsConfig
	Logging      LoggingConfig
	OTEL         OTELConfig
	CORS         CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string
	Port         int
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds the Postgres connection used by the prompt store and the postgres query backend
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// TypesenseConfig holds the table-metadata vector index configuration
type TypesenseConfig struct {
	URL             string
	APIKey          string
	TableCollection string
}

// VectorStoreConfig holds the pgvector document index configuration
type VectorStoreConfig struct {
	DSN           string
	DocumentTable string
	FetchK        int
	TopK          int
	MMRLambda     float64
}

// QueryBackendConfig holds the structured query backend configuration
type QueryBackendConfig struct {
	Driver       string // postgres or duckdb
	DuckDBPath   string
	Catalog      string
	PollInterval time.Duration
	MaxAttempts  int
	ResultTTL    time.Duration
	QueryTimeout time.Duration
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey                string
	BaseURL               string
	ClassifierModel       string
	TextToSQLModel        string
	FinalAnswerModel      string
	SummaryModel          string
	TableDescriptionModel string
	EmbeddingModel        string
	RequestTimeout        time.Duration
	RateLimitRPM          int
	RateLimitBurst        int
	BreakerFailures       int
	BreakerTimeout        time.Duration
	EmbeddingCacheSize    int
}

// PromptsConfig holds prompt store configuration
type PromptsConfig struct {
	Store           string // postgres or memory
	CacheTTLSeconds int
	Table           string
	WarmInterval    time.Duration
}

// LoggingConfig holds log level and the optional rotating file sink
type LoggingConfig struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
	LogsEnabled    bool
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8000),
			Environment:  getEnv("ENV", "development"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 150*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "agentplatform"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Typesense: TypesenseConfig{
			URL:             getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:          getEnv("TYPESENSE_API_KEY", "xyz"),
			TableCollection: getEnv("TABLE_INDEX_NAME", "table_metadata"),
		},
		VectorStore: VectorStoreConfig{
			DSN:           getEnv("PGVECTOR_DSN", ""),
			DocumentTable: getEnv("DOCUMENT_INDEX_NAME", "knowledge_base_documents"),
			FetchK:        getEnvAsInt("RAG_FETCH_K", 100),
			TopK:          getEnvAsInt("RAG_TOP_K", 10),
			MMRLambda:     getEnvAsFloat("RAG_MMR_LAMBDA", 0.5),
		},
		QueryBackend: QueryBackendConfig{
			Driver:       getEnv("QUERY_BACKEND_DRIVER", "postgres"),
			DuckDBPath:   getEnv("DUCKDB_PATH", ""),
			Catalog:      getEnv("QUERY_CATALOG", "agentplatform"),
			PollInterval: getEnvAsDuration("QUERY_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:  getEnvAsInt("QUERY_POLL_MAX_ATTEMPTS", 30),
			ResultTTL:    getEnvAsDuration("QUERY_RESULT_TTL", 15*time.Minute),
			QueryTimeout: getEnvAsDuration("QUERY_TIMEOUT", 5*time.Minute),
		},
		OpenAI: OpenAIConfig{
			APIKey:                getEnv("OPENAI_API_KEY", ""),
			BaseURL:               getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ClassifierModel:       getEnv("CLASSIFIER_MODEL", "gpt-4o-2024-11-20"),
			TextToSQLModel:        getEnv("TEXT_TO_SQL_MODEL", "gpt-4o-2024-11-20"),
			FinalAnswerModel:      getEnv("FINAL_ANSWER_MODEL", "gpt-4o-2024-11-20"),
			SummaryModel:          getEnv("SUMMARY_MODEL", "gpt-4o-mini"),
			TableDescriptionModel: getEnv("TABLE_DESCRIPTION_MODEL", "gpt-4o-mini"),
			EmbeddingModel:        getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			RequestTimeout:        getEnvAsDuration("OPENAI_REQUEST_TIMEOUT", 60*time.Second),
			RateLimitRPM:          getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 300),
			RateLimitBurst:        getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 10),
			BreakerFailures:       getEnvAsInt("OPENAI_BREAKER_FAILURES", 5),
			BreakerTimeout:        getEnvAsDuration("OPENAI_BREAKER_TIMEOUT", 30*time.Second),
			EmbeddingCacheSize:    getEnvAsInt("EMBEDDING_CACHE_SIZE", 1024),
		},
		Prompts: PromptsConfig{
			Store:           getEnv("PROMPT_STORE", "postgres"),
			CacheTTLSeconds: getEnvAsInt("PROMPT_CACHE_TTL_SECONDS", 300),
			Table:           getEnv("PROMPT_STORE_TABLE", "prompt_objects"),
			WarmInterval:    getEnvAsDuration("PROMPT_CACHE_WARM_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "model-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.2"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			LogsEnabled:    getEnvAsBool("OTEL_LOGS_ENABLED", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.QueryBackend.Driver {
	case "postgres", "duckdb":
	default:
		return fmt.Errorf("unsupported QUERY_BACKEND_DRIVER %q (expected postgres or duckdb)", c.QueryBackend.Driver)
	}
	switch c.Prompts.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported PROMPT_STORE %q (expected postgres or memory)", c.Prompts.Store)
	}
	if c.QueryBackend.MaxAttempts <= 0 {
		return fmt.Errorf("QUERY_POLL_MAX_ATTEMPTS must be positive, got %d", c.QueryBackend.MaxAttempts)
	}
	if c.QueryBackend.PollInterval <= 0 {
		return fmt.Errorf("QUERY_POLL_INTERVAL must be positive, got %s", c.QueryBackend.PollInterval)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
