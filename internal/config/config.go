package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// LLM backend selection: "openai" | "gemini" | "mistral" | "local"
	LLMBackend        string
	LLMConcurrentReqs int

	// OpenAI-compatible chat backend (also used for Mistral)
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Local llama.cpp-style completion server
	LocalLLMURL string

	// Embeddings (OpenAI-style /embeddings; optional)
	EmbeddingsBaseURL string
	EmbeddingsAPIKey  string
	EmbeddingsModel   string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		LLMBackend:        getEnvOrDefault("LLM_BACKEND", "openai"),
		LLMConcurrentReqs: getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),

		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

		LocalLLMURL: getEnvOrDefault("LOCAL_LLM_URL", "http://localhost:8081"),

		EmbeddingsBaseURL: getEnvOrDefault("EMBEDDINGS_BASE_URL", ""),
		EmbeddingsAPIKey:  getEnvOrDefault("EMBEDDINGS_API_KEY", ""),
		EmbeddingsModel:   getEnvOrDefault("EMBEDDINGS_MODEL", "text-embedding-3-small"),

		ChunkSize:    getEnvAsIntOrDefault("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsIntOrDefault("CHUNK_OVERLAP", 200),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		panic(fmt.Sprintf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize))
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
