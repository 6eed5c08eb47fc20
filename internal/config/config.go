package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	Label    string `yaml:"label"`
	URL      string `yaml:"url"`
	Filtered bool   `yaml:"filtered"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // postgres or sqlite
	Path   string `yaml:"path"`   // sqlite file

	PGHost     string `yaml:"pg_host"`
	PGPort     int    `yaml:"pg_port"`
	PGUser     string `yaml:"pg_user"`
	PGPassword string `yaml:"pg_password"`
	PGDatabase string `yaml:"pg_database"`
}

type Config struct {
	Sources  []SourceConfig `yaml:"sources"`
	Keywords []string       `yaml:"keywords"`

	TopN            int    `yaml:"top_n"`
	Retention       int    `yaml:"retention"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
	Schedule        string `yaml:"schedule"`

	ListenAddr    string `yaml:"listen_addr"`
	TriggerSecret string `yaml:"trigger_secret"`
	LogLevel      string `yaml:"log_level"`

	Store StoreConfig `yaml:"store"`
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// Default is the reference deployment: one broad feed narrowed by the
// relevance keywords and one pre-scoped feed passed through unfiltered.
func Default() Config {
	return Config{
		Sources: []SourceConfig{
			{Label: "habr", URL: "https://habr.com/ru/rss/news/", Filtered: true},
			{Label: "vc", URL: "https://vc.ru/rss/ai", Filtered: false},
		},
		Keywords: []string{
			"ИИ", "нейросет", "искусственный интеллект", "машинное обучение",
			"ai", "artificial intelligence", "machine learning", "neural",
			"llm", "chatgpt", "gpt", "openai", "anthropic", "claude",
			"gemini", "deepseek", "midjourney", "stable diffusion",
		},
		TopN:            15,
		Retention:       45,
		FetchTimeoutSec: 8,
		Schedule:        "0 */6 * * *",
		ListenAddr:      "127.0.0.1:8090",
		LogLevel:        "info",
		Store: StoreConfig{
			Driver:     "sqlite",
			Path:       "./newsdesk.db",
			PGHost:     "localhost",
			PGPort:     5432,
			PGUser:     "postgres",
			PGPassword: "changeme",
			PGDatabase: "newsdesk",
		},
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is not an error: the defaults plus environment
// are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("config: top_n must be > 0")
	}
	if c.Retention <= 0 {
		return fmt.Errorf("config: retention must be > 0")
	}
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.TriggerSecret = getenv("NEWS_UPDATE_KEY", cfg.TriggerSecret)
	cfg.ListenAddr = getenv("NEWSDESK_ADDR", cfg.ListenAddr)
	cfg.Store.Driver = getenv("NEWSDESK_STORE", cfg.Store.Driver)
	cfg.Store.Path = getenv("NEWSDESK_SQLITE_PATH", cfg.Store.Path)
	cfg.Store.PGHost = getenv("POSTGRES_HOST", cfg.Store.PGHost)
	cfg.Store.PGPort = parseIntEnv("POSTGRES_PORT", cfg.Store.PGPort)
	cfg.Store.PGUser = getenv("POSTGRES_USER", cfg.Store.PGUser)
	cfg.Store.PGPassword = getenv("POSTGRES_PASSWORD", cfg.Store.PGPassword)
	cfg.Store.PGDatabase = getenv("POSTGRES_DBNAME", cfg.Store.PGDatabase)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
