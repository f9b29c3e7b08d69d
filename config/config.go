package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Server variants
const (
	VariantSession = "session"
	VariantCorpus  = "corpus"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Address string `mapstructure:"address" yaml:"address"`
		Variant string `mapstructure:"variant" yaml:"variant"`
	} `mapstructure:"server" yaml:"server"`
	Logging struct {
		Level string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"logging" yaml:"logging"`
	Database struct {
		ConnectionString string `mapstructure:"connection_string" yaml:"connection_string"`
	} `mapstructure:"database" yaml:"database"`
	Sessions struct {
		Backend      string        `mapstructure:"backend" yaml:"backend"`
		ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
		Mongo        struct {
			URI        string `mapstructure:"uri" yaml:"uri"`
			Database   string `mapstructure:"database" yaml:"database"`
			Collection string `mapstructure:"collection" yaml:"collection"`
		} `mapstructure:"mongo" yaml:"mongo"`
		Redis struct {
			Addr      string `mapstructure:"addr" yaml:"addr"`
			Password  string `mapstructure:"password" yaml:"password"`
			DB        int    `mapstructure:"db" yaml:"db"`
			KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
		} `mapstructure:"redis" yaml:"redis"`
	} `mapstructure:"sessions" yaml:"sessions"`
	Ollama struct {
		BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
		EmbedURL     string `mapstructure:"embed_url" yaml:"embed_url"`
		DefaultModel string `mapstructure:"default_model" yaml:"default_model"`
	} `mapstructure:"ollama" yaml:"ollama"`
	LLM struct {
		Provider    string        `mapstructure:"provider" yaml:"provider"`
		Model       string        `mapstructure:"model" yaml:"model"`
		APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
		MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
		Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
		Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"llm" yaml:"llm"`
	Embeddings struct {
		Provider   string `mapstructure:"provider" yaml:"provider"`
		TextModel  string `mapstructure:"text_model" yaml:"text_model"`
		APIKey     string `mapstructure:"api_key" yaml:"api_key"`
		Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
	} `mapstructure:"embeddings" yaml:"embeddings"`
	Processing struct {
		ChunkSize    int `mapstructure:"chunk_size" yaml:"chunk_size"`
		ChunkOverlap int `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
		TopK         int `mapstructure:"top_k" yaml:"top_k"`
		// ScoreThreshold is read but retrieval never filters on it.
		ScoreThreshold float64 `mapstructure:"score_threshold" yaml:"score_threshold"`
	} `mapstructure:"processing" yaml:"processing"`
}

// envBindings maps config keys to the plain environment variables the
// deployment scripts already export.
var envBindings = map[string][]string{
	"database.connection_string": {"DATABASE_URL"},
	"sessions.mongo.uri":         {"MONGO_CONNECTION_STR"},
	"sessions.redis.addr":        {"REDIS_ADDR"},
	"sessions.redis.password":    {"REDIS_PASSWORD"},
	"ollama.base_url":            {"OLLAMA_HOST"},
	"ollama.embed_url":           {"OLLAMA_EMBED_HOST"},
	"embeddings.api_key":         {"GEMINI_API_KEY"},
}

// providerKeyEnv names the environment variable that carries each LLM
// provider's key when llm.api_key is not set explicitly.
var providerKeyEnv = map[string]string{
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Load loads configuration from defaults, an optional settings file and the
// environment. An empty path searches for config.yaml in . and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docuchat"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DOCUCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that the settings the selected variant depends on are present.
func (c *Config) Validate() error {
	switch c.Server.Variant {
	case VariantSession:
		switch c.Sessions.Backend {
		case "memory":
		case "postgres":
			if c.Database.ConnectionString == "" {
				return fmt.Errorf("database.connection_string is required for the postgres session backend")
			}
		case "mongo":
			if c.Sessions.Mongo.URI == "" {
				return fmt.Errorf("sessions.mongo.uri is required for the mongo session backend")
			}
		case "redis":
			if c.Sessions.Redis.Addr == "" {
				return fmt.Errorf("sessions.redis.addr is required for the redis session backend")
			}
		default:
			return fmt.Errorf("unknown session backend: %q", c.Sessions.Backend)
		}
	case VariantCorpus:
		if c.Database.ConnectionString == "" {
			return fmt.Errorf("database.connection_string is required for the corpus variant")
		}
	default:
		return fmt.Errorf("unknown server variant: %q", c.Server.Variant)
	}

	switch c.LLM.Provider {
	case "ollama":
		if c.Ollama.BaseURL == "" {
			return fmt.Errorf("ollama.base_url is required")
		}
	case "claude", "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	switch c.Embeddings.Provider {
	case "ollama":
		if c.Ollama.EmbedURL == "" {
			return fmt.Errorf("ollama.embed_url is required")
		}
	case "gemini":
		if c.Embeddings.APIKey == "" {
			return fmt.Errorf("embeddings.api_key is required for provider gemini")
		}
	default:
		return fmt.Errorf("unknown embeddings provider: %q", c.Embeddings.Provider)
	}

	if c.Processing.ChunkSize <= 0 {
		return fmt.Errorf("processing.chunk_size must be set")
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8000"
	cfg.Server.Variant = VariantSession
	cfg.Logging.Level = "info"
	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Sessions.Backend = "mongo"
	cfg.Sessions.ProbeTimeout = 5 * time.Second
	cfg.Sessions.Mongo.URI = "mongodb://localhost:27017"
	cfg.Sessions.Mongo.Database = "pdf_rag_db"
	cfg.Sessions.Mongo.Collection = "sessions"
	cfg.Sessions.Redis.Addr = "localhost:6379"
	cfg.Sessions.Redis.KeyPrefix = "session:"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.EmbedURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = ""
	cfg.LLM.Provider = "ollama"
	cfg.LLM.MaxTokens = 4096
	cfg.LLM.Temperature = 0.2
	cfg.LLM.Timeout = 2 * time.Minute
	cfg.Embeddings.Provider = "ollama"
	cfg.Embeddings.TextModel = "nomic-embed-text"
	cfg.Embeddings.Dimensions = 768
	cfg.Processing.ChunkSize = 1000
	cfg.Processing.ChunkOverlap = 200
	cfg.Processing.TopK = 5
	cfg.Processing.ScoreThreshold = 0

	return cfg
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.address", cfg.Server.Address)
	v.SetDefault("server.variant", cfg.Server.Variant)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("database.connection_string", cfg.Database.ConnectionString)
	v.SetDefault("sessions.backend", cfg.Sessions.Backend)
	v.SetDefault("sessions.probe_timeout", cfg.Sessions.ProbeTimeout)
	v.SetDefault("sessions.mongo.uri", cfg.Sessions.Mongo.URI)
	v.SetDefault("sessions.mongo.database", cfg.Sessions.Mongo.Database)
	v.SetDefault("sessions.mongo.collection", cfg.Sessions.Mongo.Collection)
	v.SetDefault("sessions.redis.addr", cfg.Sessions.Redis.Addr)
	v.SetDefault("sessions.redis.password", cfg.Sessions.Redis.Password)
	v.SetDefault("sessions.redis.db", cfg.Sessions.Redis.DB)
	v.SetDefault("sessions.redis.key_prefix", cfg.Sessions.Redis.KeyPrefix)
	v.SetDefault("ollama.base_url", cfg.Ollama.BaseURL)
	v.SetDefault("ollama.embed_url", cfg.Ollama.EmbedURL)
	v.SetDefault("ollama.default_model", cfg.Ollama.DefaultModel)
	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("embeddings.provider", cfg.Embeddings.Provider)
	v.SetDefault("embeddings.text_model", cfg.Embeddings.TextModel)
	v.SetDefault("embeddings.api_key", cfg.Embeddings.APIKey)
	v.SetDefault("embeddings.dimensions", cfg.Embeddings.Dimensions)
	v.SetDefault("processing.chunk_size", cfg.Processing.ChunkSize)
	v.SetDefault("processing.chunk_overlap", cfg.Processing.ChunkOverlap)
	v.SetDefault("processing.top_k", cfg.Processing.TopK)
	v.SetDefault("processing.score_threshold", cfg.Processing.ScoreThreshold)
}
