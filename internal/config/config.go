package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Platforms PlatformsConfig `yaml:"platforms" mapstructure:"platforms"`
	Webhook   WebhookConfig   `yaml:"webhook" mapstructure:"webhook"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the scan record database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RedisConfig configures the queue's redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// QueueConfig configures task queue behavior.
type QueueConfig struct {
	ResultTTLHours  int `yaml:"result_ttl_hours" mapstructure:"result_ttl_hours"`
	PollTimeoutSecs int `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// PlacesConfig holds the map listing API settings.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig holds the web search API settings.
type SearchConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	QueriesPerSecond float64 `yaml:"queries_per_second" mapstructure:"queries_per_second"`
}

// CrawlConfig configures the website crawler.
type CrawlConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScanConfig bounds the individual discovery stages.
type ScanConfig struct {
	CrawlTimeoutSecs  int `yaml:"crawl_timeout_secs" mapstructure:"crawl_timeout_secs"`
	LookupTimeoutSecs int `yaml:"lookup_timeout_secs" mapstructure:"lookup_timeout_secs"`
	SearchTimeoutSecs int `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
}

// PlatformsConfig points at an optional platform registry override file.
type PlatformsConfig struct {
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
}

// WebhookConfig configures result delivery.
type WebhookConfig struct {
	Attempts    int `yaml:"attempts" mapstructure:"attempts"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch scanning.
type BatchConfig struct {
	MaxConcurrentScans int `yaml:"max_concurrent_scans" mapstructure:"max_concurrent_scans"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRESENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "presence.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("platforms.registry_path", "")
	v.SetDefault("queue.result_ttl_hours", 24)
	v.SetDefault("queue.poll_timeout_secs", 5)
	v.SetDefault("places.key", "")
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("search.key", "")
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.queries_per_second", 2.0)
	v.SetDefault("crawl.user_agent", "presence-scanner/1.0")
	v.SetDefault("crawl.timeout_secs", 45)
	v.SetDefault("scan.crawl_timeout_secs", 60)
	v.SetDefault("scan.lookup_timeout_secs", 15)
	v.SetDefault("scan.search_timeout_secs", 15)
	v.SetDefault("webhook.attempts", 3)
	v.SetDefault("webhook.timeout_secs", 15)
	v.SetDefault("batch.max_concurrent_scans", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
