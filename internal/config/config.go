package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultUSGSBaseURL is the FDSN event query endpoint.
const DefaultUSGSBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// USGS event service configuration.
	USGSBaseURL   string
	USGSTimeout   time.Duration
	USGSCacheSize int // 0 disables the response cache
	USGSCacheTTL  time.Duration

	// Kafka query pipeline configuration (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	usgsTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("USGS_TIMEOUT", "30s"))
	if err != nil || usgsTimeout <= 0 {
		return nil, errors.New("invalid USGS_TIMEOUT")
	}

	usgsBaseURL := sharedcfg.EnvOrDefault("USGS_BASE_URL", DefaultUSGSBaseURL)
	if u, err := url.Parse(usgsBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid USGS_BASE_URL")
	}

	usgsCacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("USGS_CACHE_TTL", "60s"))
	if err != nil || usgsCacheTTL <= 0 {
		return nil, errors.New("invalid USGS_CACHE_TTL")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSBaseURL:   usgsBaseURL,
		USGSTimeout:   usgsTimeout,
		USGSCacheSize: parseUSGSCacheSize(),
		USGSCacheTTL:  usgsCacheTTL,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "earthquake-queries")),
		KafkaSinkTopic:     strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "earthquake-reports")),
		KafkaGroupID:       strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "quake-agent")),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaGroupID == "" {
			return nil, errors.New("KAFKA_GROUP_ID is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseUSGSCacheSize() int {
	if s := os.Getenv("USGS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return 256
}
