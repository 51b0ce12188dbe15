package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Chat       ChatConfig
	OpenAI     OpenAIConfig
	Viewer     ViewerConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// ChatConfig holds question-resolution pipeline limits
type ChatConfig struct {
	DefaultLimit      int // default row/group limit when inference omits one
	MaxLimit          int // hard cap on any inferred limit
	DefaultTopK       int // default semantic candidate count
	CategoryPromptCap int // max categories listed in the inference prompt
	ParamSampleSize   int // max sampled values per catalog attribute
	AreaKeyLimit      int // max area-like property keys in the catalog
	AreaKeyScanRows   int // bounded row prefix scanned for area keys
	DisambiguationCap int // max candidate values offered for disambiguation
}

// OpenAIConfig holds the inference/embedding provider configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatMaxTokens       int
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	ParseRetries        int // attempts before a structured inference surfaces as failed
	Timeout             int
	Enabled             bool
}

// ViewerConfig holds credentials for the model-viewer data provider
type ViewerConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	AuthURL      string
	Scope        string
	Timeout      int
	Enabled      bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "bim_elements"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Chat: ChatConfig{
			DefaultLimit:      getEnvAsInt("CHAT_DEFAULT_LIMIT", 20),
			MaxLimit:          getEnvAsInt("CHAT_MAX_LIMIT", 200),
			DefaultTopK:       getEnvAsInt("CHAT_DEFAULT_TOP_K", 100),
			CategoryPromptCap: getEnvAsInt("CHAT_CATEGORY_PROMPT_CAP", 120),
			ParamSampleSize:   getEnvAsInt("CHAT_PARAM_SAMPLE_SIZE", 30),
			AreaKeyLimit:      getEnvAsInt("CHAT_AREA_KEY_LIMIT", 10),
			AreaKeyScanRows:   getEnvAsInt("CHAT_AREA_KEY_SCAN_ROWS", 200),
			DisambiguationCap: getEnvAsInt("CHAT_DISAMBIGUATION_CAP", 100),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", ""),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			ParseRetries:        getEnvAsInt("OPENAI_PARSE_RETRIES", 3),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 60),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Viewer: ViewerConfig{
			ClientID:     getEnv("VIEWER_CLIENT_ID", ""),
			ClientSecret: getEnv("VIEWER_CLIENT_SECRET", ""),
			BaseURL:      getEnv("VIEWER_BASE_URL", "https://developer.api.autodesk.com"),
			AuthURL:      getEnv("VIEWER_AUTH_URL", "https://developer.api.autodesk.com/authentication/v2/token"),
			Scope:        getEnv("VIEWER_SCOPE", "data:read"),
			Timeout:      getEnvAsInt("VIEWER_TIMEOUT", 120),
			Enabled:      getEnv("VIEWER_CLIENT_ID", "") != "" && getEnv("VIEWER_CLIENT_SECRET", "") != "",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
