// Package config loads application configuration from file, environment and
// defaults via viper.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph store configuration.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"` // default namespace
}

// LLMConfig holds extraction service configuration.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // aistudio, openai
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// OCRConfig holds the remote layout-parsing service configuration.
type OCRConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds chunking, budgeting and run-policy configuration.
type PipelineConfig struct {
	ChunkSize    int           `mapstructure:"chunk_size"`
	TokenLimit   int           `mapstructure:"token_limit"`
	SafetyMargin int           `mapstructure:"safety_margin"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BaseDelay    time.Duration `mapstructure:"base_delay"`
	Workers      int           `mapstructure:"workers"`
	// MaxFailedChunkRatio tolerates up to this fraction of failed chunks
	// before the run is declared failed. 0 surfaces the first chunk-level
	// transport failure.
	MaxFailedChunkRatio float64 `mapstructure:"max_failed_chunk_ratio"`
}

// CacheConfig holds extraction cache configuration.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"` // empty: in-memory
	TTL     time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds local document store configuration.
type StorageConfig struct {
	UploadsDir string `mapstructure:"uploads_dir"`
	OutputsDir string `mapstructure:"outputs_dir"`
}

// Load reads configuration from viper's sources and applies environment
// overrides.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)
	return config, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.driver", "neo4j")
	viper.SetDefault("database.uri", "neo4j://127.0.0.1:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	viper.SetDefault("llm.provider", "aistudio")
	viper.SetDefault("llm.model", "ernie-3.5-8k")
	viper.SetDefault("llm.base_url", "https://aistudio.baidu.com/llm/lmapi/v3")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.timeout", 120*time.Second)

	viper.SetDefault("ocr.timeout", 120*time.Second)

	viper.SetDefault("pipeline.chunk_size", 3000)
	viper.SetDefault("pipeline.token_limit", 4096)
	viper.SetDefault("pipeline.safety_margin", 256)
	viper.SetDefault("pipeline.max_retries", 3)
	viper.SetDefault("pipeline.base_delay", 500*time.Millisecond)
	viper.SetDefault("pipeline.workers", 1)
	viper.SetDefault("pipeline.max_failed_chunk_ratio", 0.0)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.path", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	viper.SetDefault("storage.uploads_dir", "uploads")
	viper.SetDefault("storage.outputs_dir", "output")
}

func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("AI_STUDIO_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
		config.OCR.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = apiKey
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
		config.Server.Port = viper.GetInt("server.port")
	}
}
