package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Drive     DriveConfig
	Ingest    IngestConfig
	Channel   ChannelConfig
	Retention RetentionConfig
	Ai        AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type DriveConfig struct {
	APIKey          string
	CredentialsFile string // Service account JSON, used when APIKey is empty
	BaseURL         string
}

type IngestConfig struct {
	MaxFileSizeKB     int
	MaxFolderSizeKB   int
	ChunkSize         int
	ChunkOverlap      int
	IndexCheckRetries int
	IndexCheckSleepMs int
	WriteWorkers      int
	MessageTopic      string // Inbound chat message topic name
}

type ChannelConfig struct {
	NegotiateSecret string
	TokenTTLMin     int
}

type RetentionConfig struct {
	DocumentLifetimeMin int
}

type AIConfig struct {
	EmbeddingProvider string // "openai" or "ollama"
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	EmbeddingModel    string
	OpenAIBaseURL     string
	OpenAIKey         string
	OllamaBaseURL     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Drive: DriveConfig{
			APIKey:          getEnv("GOOGLE_DRIVE_API_KEY", ""),
			CredentialsFile: getEnv("GOOGLE_DRIVE_CREDENTIALS_FILE", ""),
			BaseURL:         getEnv("GOOGLE_DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
		},
		Ingest: IngestConfig{
			MaxFileSizeKB:     getEnvAsInt("MAX_FILE_SIZE_KB", 10240),
			MaxFolderSizeKB:   getEnvAsInt("MAX_FOLDER_SIZE_KB", 51200),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 1500),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 200),
			IndexCheckRetries: getEnvAsInt("INDEX_CHECK_RETRIES", 3),
			IndexCheckSleepMs: getEnvAsInt("INDEX_CHECK_SLEEP_MS", 1000),
			WriteWorkers:      getEnvAsInt("INGEST_WRITE_WORKERS", 4),
			MessageTopic:      getEnv("CHAT_MESSAGE_TOPIC_NAME", "CHAT_MESSAGES"),
		},
		Channel: ChannelConfig{
			NegotiateSecret: getEnv("NEGOTIATE_SECRET", "dev-secret-change-me"),
			TokenTTLMin:     getEnvAsInt("NEGOTIATE_TOKEN_TTL_MIN", 60),
		},
		Retention: RetentionConfig{
			DocumentLifetimeMin: getEnvAsInt("DOCUMENT_LIFETIME_MIN", 1440),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
