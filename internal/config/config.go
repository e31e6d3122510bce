package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xpanddigital/cratehq-enrich/internal/queue"
	"github.com/xpanddigital/cratehq-enrich/internal/scrape"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Actor     ActorConfig     `yaml:"actor" mapstructure:"actor"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Worker    WorkerConfig    `yaml:"worker" mapstructure:"worker"`
	Qualify   QualifyConfig   `yaml:"qualify" mapstructure:"qualify"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat" mapstructure:"heartbeat"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ActorConfig holds the hosted scraping-actor platform settings.
type ActorConfig struct {
	Token            string          `yaml:"token" mapstructure:"token"`
	BaseURL          string          `yaml:"base_url" mapstructure:"base_url"`
	IDs              scrape.ActorIDs `yaml:"ids" mapstructure:"ids"`
	PollIntervalSecs int             `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollTimeoutSecs  int             `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// ScrapeConfig configures the direct fetch path.
type ScrapeConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WorkerConfig configures a queue worker invocation.
type WorkerConfig struct {
	ClaimLimit           int `yaml:"claim_limit" mapstructure:"claim_limit"`
	BudgetSecs           int `yaml:"budget_secs" mapstructure:"budget_secs"`
	SafetyBufferSecs     int `yaml:"safety_buffer_secs" mapstructure:"safety_buffer_secs"`
	InterArtistDelaySecs int `yaml:"inter_artist_delay_secs" mapstructure:"inter_artist_delay_secs"`
}

// QueueConfig converts the second-granularity fields for the worker.
func (w WorkerConfig) QueueConfig() queue.Config {
	return queue.Config{
		ClaimLimit:       w.ClaimLimit,
		Budget:           time.Duration(w.BudgetSecs) * time.Second,
		SafetyBuffer:     time.Duration(w.SafetyBufferSecs) * time.Second,
		InterArtistDelay: time.Duration(w.InterArtistDelaySecs) * time.Second,
	}
}

// QualifyConfig configures the valuation cascade.
type QualifyConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// HeartbeatConfig configures the post-invocation monitoring webhook. An
// empty URL disables heartbeats.
type HeartbeatConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the operator HTTP server.
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
	v.SetEnvPrefix("CRATEHQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("actor.base_url", "https://api.apify.com/v2")
	v.SetDefault("actor.poll_interval_secs", 3)
	v.SetDefault("actor.poll_timeout_secs", 300)
	v.SetDefault("scrape.requests_per_second", 1)
	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("worker.claim_limit", 10)
	v.SetDefault("worker.budget_secs", 780)
	v.SetDefault("worker.safety_buffer_secs", 90)
	v.SetDefault("worker.inter_artist_delay_secs", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
