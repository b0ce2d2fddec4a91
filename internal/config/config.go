// Package config loads server settings from the environment, applying
// defaults for everything optional and validating the rest before the
// server boots.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the EvalHunter server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AI         AIConfig
	Clustering ClusteringConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	OpenAI           OpenAIConfig
}

type OllamaConfig struct {
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty means the official API endpoint
	EmbeddingModel string
	ChatModel      string
}

type ClusteringConfig struct {
	Timeout        time.Duration // wall-clock budget for one clustering run
	EmbedRate      int           // embedding calls per second
	RequestsPerMin int           // API rate limit per key
}

var validProviders = map[string]bool{
	"ollama": true,
	"openai": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("EVALHUNTER_PORT", 8080),
			Env:  envString("EVALHUNTER_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Ollama: OllamaConfig{
				BaseURL:        envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				EmbeddingModel: envString("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
				ChatModel:      envString("OLLAMA_CHAT_MODEL", "llama3"),
				Timeout:        envDuration("OLLAMA_TIMEOUT", 120*time.Second),
			},
			OpenAI: OpenAIConfig{
				APIKey:         os.Getenv("OPENAI_API_KEY"),
				BaseURL:        os.Getenv("OPENAI_BASE_URL"),
				EmbeddingModel: envString("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
				ChatModel:      envString("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			},
		},
		Clustering: ClusteringConfig{
			Timeout:        envDurationSecs("CLUSTERING_TIMEOUT_SECS", 300*time.Second),
			EmbedRate:      envInt("EMBED_RATE_PER_SEC", 10),
			RequestsPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations the server cannot run with. Error
// messages name the offending environment variable.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return errors.New("REDIS_URL is required")
	}

	switch {
	case c.AI.Provider == "":
		return errors.New("AI_PROVIDER is required")
	case !validProviders[c.AI.Provider]:
		return fmt.Errorf("AI_PROVIDER must be one of ollama, openai; got %q", c.AI.Provider)
	case c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "":
		return errors.New("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	case c.AI.Provider == "ollama" && !hasHTTPScheme(c.AI.Ollama.BaseURL):
		return fmt.Errorf("OLLAMA_BASE_URL must start with http:// or https://, got %q", c.AI.Ollama.BaseURL)
	}

	if c.Clustering.EmbedRate <= 0 {
		return fmt.Errorf("EMBED_RATE_PER_SEC must be positive, got %d", c.Clustering.EmbedRate)
	}
	return nil
}

func hasHTTPScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// Env lookups below fall back to the default on missing or malformed
// values rather than failing; validate catches anything fatal.

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envDurationSecs reads a bare integer count of seconds, for operators
// who would rather write 300 than 5m.
func envDurationSecs(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
