package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/public-data-proxy/internal/analytics"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Outbound request policy, applied per provider.
	UpstreamTimeout   time.Duration
	UpstreamRateLimit int

	TornadoStartYear       int
	TornadoMaxSpan         int
	DailyReportConcurrency int
	TickerBatchSize        int
	DashboardBatchSize     int
	WinterBatchSize        int
	WinterBatchDelay       time.Duration
	BLSAPIKey              string
	BLSYearSpan            int
	YieldDefaultRangeDays  int
	RequiredReturnsFile    string

	// RefreshSchedule is a cron spec for the cache warmer. Empty disables it.
	RefreshSchedule string

	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamTimeout:   p.duration("UPSTREAM_TIMEOUT", "8s"),
		UpstreamRateLimit: p.positiveInt("UPSTREAM_RATE_LIMIT", 10),

		TornadoStartYear:       p.positiveInt("TORNADO_START_YEAR", 2000),
		TornadoMaxSpan:         p.positiveInt("TORNADO_MAX_SPAN", 40),
		DailyReportConcurrency: p.positiveInt("DAILY_REPORT_CONCURRENCY", 6),
		TickerBatchSize:        p.positiveInt("TICKER_BATCH_SIZE", 3),
		DashboardBatchSize:     p.positiveInt("DASHBOARD_BATCH_SIZE", 4),
		WinterBatchSize:        p.positiveInt("WINTER_BATCH_SIZE", 10),
		WinterBatchDelay:       p.duration("WINTER_BATCH_DELAY", "120ms"),
		BLSAPIKey:              os.Getenv("BLS_API_KEY"),
		BLSYearSpan:            p.positiveInt("BLS_YEAR_SPAN", 10),
		YieldDefaultRangeDays:  p.positiveInt("YIELD_DEFAULT_RANGE_DAYS", 540),
		RequiredReturnsFile:    os.Getenv("REQUIRED_RETURNS_FILE"),

		RefreshSchedule: sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "@every 1h"),

		KafkaEnabled:       p.boolean("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "tornado-trend-snapshots"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   p.duration("MAPBOX_TIMEOUT", "5s"),
		MapboxCacheSize: p.positiveInt("MAPBOX_CACHE_SIZE", 1000),
	}
	cfg.MapboxEnabled = p.boolean("MAPBOX_ENABLED", cfg.MapboxToken != "")

	// REFRESH_SCHEDULE set to "" turns the warmer off.
	if v, ok := os.LookupEnv("REFRESH_SCHEDULE"); ok && v == "" {
		cfg.RefreshSchedule = ""
	}

	if p.err != nil {
		return nil, p.err
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// RequiredReturns returns the built-in hurdle-rate table with any overrides
// from RequiredReturnsFile applied.
func (c *Config) RequiredReturns() (analytics.RequiredReturns, error) {
	if c.RequiredReturnsFile == "" {
		return analytics.DefaultRequiredReturns, nil
	}
	overrides, err := LoadRequiredReturns(c.RequiredReturnsFile)
	if err != nil {
		return nil, err
	}
	return analytics.DefaultRequiredReturns.Merge(overrides), nil
}

// LoadRequiredReturns reads a YAML file mapping tickers to buckets:
//
//	BRK-B: {label: Low, required_return: 0.10}
func LoadRequiredReturns(path string) (analytics.RequiredReturns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read REQUIRED_RETURNS_FILE: %w", err)
	}
	var out analytics.RequiredReturns
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse REQUIRED_RETURNS_FILE: %w", err)
	}
	for ticker, rr := range out {
		if rr.Label == "" || rr.RequiredReturn <= 0 {
			return nil, fmt.Errorf("invalid REQUIRED_RETURNS_FILE entry %q: label and a positive required_return are required", ticker)
		}
	}
	return out, nil
}

// parser keeps the first invalid variable so Load can report it by name.
type parser struct {
	err error
}

func (p *parser) fail(name string) {
	if p.err == nil {
		p.err = errors.New("invalid " + name)
	}
}

func (p *parser) positiveInt(name string, def int) int {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(name)
		return def
	}
	return n
}

func (p *parser) duration(name, def string) time.Duration {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		p.fail(name)
		return 0
	}
	return d
}

func (p *parser) boolean(name string, def bool) bool {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(name)
		return def
	}
	return b
}
