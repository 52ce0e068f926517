// Package config loads zeal settings from defaults, an optional zeal.yaml,
// a .env file and ZEAL_-prefixed environment variables, in rising priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/corey/zeal/internal/apperrors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheBbolt  = "bbolt"
	CacheRedis  = "redis"
	CacheMemory = "memory"

	ScorerLexicon = "lexicon"
	ScorerLLM     = "llm"
)

type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Build     BuildConfig     `mapstructure:"build"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
}

// SourceConfig selects the restaurant data. An empty Path means the bundled
// asset compiled into the binary.
type SourceConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type BuildConfig struct {
	Workers int `mapstructure:"workers"`
}

type SentimentConfig struct {
	Scorer string `mapstructure:"scorer"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.path", "")
	v.SetDefault("source.watch", false)

	v.SetDefault("cache.backend", CacheBbolt)
	v.SetDefault("cache.path", filepath.Join(".zeal", "cache.db"))
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("build.workers", runtime.NumCPU())

	v.SetDefault("sentiment.scorer", ScorerLexicon)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 48)
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
}

// Default returns the built-in settings with no file or environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration. When path is non-empty that file must exist;
// otherwise zeal.yaml is looked up in the usual places and is optional.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ZEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "ZEAL_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("zeal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".zeal"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings no component can honor.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBbolt:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the %s backend", CacheBbolt)
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the %s backend", CacheRedis)
		}
	case CacheMemory:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	switch c.Sentiment.Scorer {
	case ScorerLexicon, ScorerLLM:
	default:
		return fmt.Errorf("unknown sentiment.scorer %q", c.Sentiment.Scorer)
	}

	if c.Build.Workers < 1 {
		c.Build.Workers = 1
	}
	if c.Source.Watch && c.Source.Path == "" {
		return errors.New("source.watch needs source.path")
	}
	return nil
}

// RequireLLM reports CONFIG_MISSING when the extraction service has no key.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return apperrors.NewConfigMissingError("llm.api_key")
	}
	return nil
}
