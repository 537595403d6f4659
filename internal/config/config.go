package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Keys     APIKeys
	Realtime RealtimeConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RelayLogFilePath   string
	CorsAllowedOrigins string
	MaxUploadSizeMB    int
}

type APIKeys struct {
	OpenAI string
}

type RealtimeConfig struct {
	Endpoint        string
	Model           string
	ResponseTimeout time.Duration
}

type RagConfig struct {
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	TopK              int
	MinScore          float64
	ChunkSize         int
	ChunkOverlap      int
	ChunkedIngestion  bool
	EmbeddingTimeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8081"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "relay-app.log"),
			RelayLogFilePath:   getEnv("RELAY_LOG_FILE_PATH", "relay-sessions.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MaxUploadSizeMB:    getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10),
		},
		Keys: APIKeys{
			OpenAI: getEnv("OPENAI_API_KEY", ""),
		},
		Realtime: RealtimeConfig{
			Endpoint:        getEnv("REALTIME_ENDPOINT", "wss://api.openai.com/v1/realtime"),
			Model:           getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview-2024-10-01"),
			ResponseTimeout: getEnvAsMillis("RESPONSE_TIMEOUT_MS", 30000),
		},
		Rag: RagConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			TopK:              getEnvAsInt("RAG_TOP_K", 1),
			MinScore:          getEnvAsFloat("RAG_MIN_SCORE", 0.1),
			ChunkSize:         getEnvAsInt("RAG_CHUNK_SIZE", 1000),
			ChunkOverlap:      getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			ChunkedIngestion:  getEnvAsBool("RAG_CHUNKED_INGESTION", false),
			EmbeddingTimeout:  getEnvAsMillis("EMBEDDING_TIMEOUT_MS", 30000),
		},
	}
}

// Validate checks the settings the process cannot run without.
func (c *Config) Validate() error {
	if c.Keys.OpenAI == "" {
		return fmt.Errorf(`environment variable "OPENAI_API_KEY" is required`)
	}
	if c.Rag.ChunkOverlap >= c.Rag.ChunkSize {
		return fmt.Errorf("RAG_CHUNK_OVERLAP (%d) must be smaller than RAG_CHUNK_SIZE (%d)", c.Rag.ChunkOverlap, c.Rag.ChunkSize)
	}
	return nil
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Millisecond
}
