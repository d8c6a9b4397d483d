// Package config loads and validates application configuration from a YAML
// file, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/fetcher"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// Defaults applied when the file and environment leave a value unset.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second

	defaultCrawlDelay    = 1500 * time.Millisecond
	defaultCrawlMaxPages = 60
	defaultCrawlMaxDepth = 2

	defaultChunkSize            = 800
	defaultMinChars             = 200
	defaultBoilerplateThreshold = 6

	defaultEmbeddingDimension = 768
	defaultIndex              = "koora_chunks"
)

// AppConfig identifies the application instance.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CrawlerConfig holds crawl settings.
type CrawlerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	MaxPages  int           `mapstructure:"max_pages"`
	MaxDepth  int           `mapstructure:"max_depth"`
	Delay     time.Duration `mapstructure:"delay"`
	UserAgent string        `mapstructure:"user_agent"`
	// PagesFile is the JSONL corpus crawled articles append to.
	PagesFile string `mapstructure:"pages_file"`
	// SeenFile is the persisted seen-URL set for date-range crawls.
	SeenFile string `mapstructure:"seen_file"`
}

// PreparerConfig holds dataset preparation settings.
type PreparerConfig struct {
	ChunkSize            int  `mapstructure:"chunk_size"`
	MinChars             int  `mapstructure:"min_chars"`
	BoilerplateThreshold int  `mapstructure:"boilerplate_threshold"`
	Dedupe               bool `mapstructure:"dedupe"`
	// ChunksFile is the prepared chunk corpus path.
	ChunksFile string `mapstructure:"chunks_file"`
}

// ChatConfig holds conversational layer settings.
type ChatConfig struct {
	// TicketsFile is the ticket database path.
	TicketsFile string `mapstructure:"tickets_file"`
	// MatchesFile is the extracted fixture JSONL consumed by lookup.
	MatchesFile string `mapstructure:"matches_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// UIDir serves static files under /ui when non-empty.
	UIDir string `mapstructure:"ui_dir"`
	// RecrawlSchedule is a cron expression for periodic recrawls; empty
	// disables scheduling.
	RecrawlSchedule string `mapstructure:"recrawl_schedule"`
}

// Config is the root application configuration.
type Config struct {
	App           AppConfig            `mapstructure:"app"`
	Logging       logger.Config        `mapstructure:"logging"`
	Crawler       CrawlerConfig        `mapstructure:"crawler"`
	Preparer      PreparerConfig       `mapstructure:"preparer"`
	Elasticsearch vectorstore.Config   `mapstructure:"elasticsearch"`
	Embedding     embedding.Config     `mapstructure:"embedding"`
	Generation    chat.GeneratorConfig `mapstructure:"generation"`
	Chat          ChatConfig           `mapstructure:"chat"`
	Server        ServerConfig         `mapstructure:"server"`
	Fetcher       fetcher.Config       `mapstructure:"fetcher"`
}

// Load reads configuration from path (optional), layering .env and
// environment variables on top, and applies defaults.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it only exists in development setups.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KOORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := decode(v.AllSettings(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	setDefaults(cfg)

	return cfg, nil
}

// decode maps viper settings onto the typed config, converting duration
// strings like "1500ms" along the way.
func decode(settings map[string]any, out *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if decodeErr := decoder.Decode(settings); decodeErr != nil {
		return fmt.Errorf("decode: %w", decodeErr)
	}

	return nil
}

// setDefaults fills unset values.
func setDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "link-chatbot"
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Crawler.MaxPages == 0 {
		cfg.Crawler.MaxPages = defaultCrawlMaxPages
	}

	if cfg.Crawler.MaxDepth == 0 {
		cfg.Crawler.MaxDepth = defaultCrawlMaxDepth
	}

	if cfg.Crawler.Delay == 0 {
		cfg.Crawler.Delay = defaultCrawlDelay
	}

	if cfg.Crawler.PagesFile == "" {
		cfg.Crawler.PagesFile = "data/articles.jsonl"
	}

	if cfg.Crawler.SeenFile == "" {
		cfg.Crawler.SeenFile = "data/seen_urls.txt"
	}

	if cfg.Preparer.ChunkSize == 0 {
		cfg.Preparer.ChunkSize = defaultChunkSize
	}

	if cfg.Preparer.MinChars == 0 {
		cfg.Preparer.MinChars = defaultMinChars
	}

	if cfg.Preparer.BoilerplateThreshold == 0 {
		cfg.Preparer.BoilerplateThreshold = defaultBoilerplateThreshold
	}

	if cfg.Preparer.ChunksFile == "" {
		cfg.Preparer.ChunksFile = "data/articles_chunked.jsonl"
	}

	if len(cfg.Elasticsearch.Addresses) == 0 {
		cfg.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}

	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = defaultIndex
	}

	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = defaultEmbeddingDimension
	}

	if cfg.Chat.TicketsFile == "" {
		cfg.Chat.TicketsFile = "data/tickets.json"
	}

	if cfg.Chat.MatchesFile == "" {
		cfg.Chat.MatchesFile = "data/matches_clean.jsonl"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}

	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerReadTimeout
	}

	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerWriteTimeout
	}

	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultServerIdleTimeout
	}
}

// ValidateCrawl checks the settings the crawl command needs.
func (c *Config) ValidateCrawl() error {
	if c.Crawler.BaseURL == "" {
		return errors.New("config: crawler.base_url is required")
	}

	if c.Crawler.MaxPages < 0 || c.Crawler.MaxDepth < 0 {
		return errors.New("config: crawler limits must be non-negative")
	}

	return nil
}

// ValidateIndex checks the settings indexing and search need.
func (c *Config) ValidateIndex() error {
	if len(c.Elasticsearch.Addresses) == 0 {
		return errors.New("config: elasticsearch.addresses is required")
	}

	if c.Embedding.URL == "" {
		return errors.New("config: embedding.url is required")
	}

	if c.Embedding.Dimension <= 0 {
		return errors.New("config: embedding.dimension must be positive")
	}

	return nil
}

// ValidateServe checks the settings the httpd command needs.
func (c *Config) ValidateServe() error {
	if c.Server.Address == "" {
		return errors.New("config: server.address is required")
	}

	return c.ValidateIndex()
}
