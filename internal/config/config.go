package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedBaseURL string
	FeedAPIKey  string
	FeedTimeout time.Duration

	SegmentsFile string
	SQLitePath   string

	RunInterval   time.Duration
	HistoryWindow time.Duration

	// OpenAI incident normalization configuration.
	OpenAIAPIKey  string
	OpenAIEnabled bool
	OpenAIModel   string
	OpenAITimeout time.Duration
	OpenAIBaseURL string

	// Kafka live-status publishing, disabled when no brokers are set.
	KafkaBrokers   []string
	KafkaLiveTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	runInterval, err := parseDuration("RUN_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	historyWindow, err := parseDuration("HISTORY_WINDOW", "2h")
	if err != nil {
		return nil, err
	}

	openAITimeout, err := parseDuration("OPENAI_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	openAIEnabled := openAIKey != ""
	if v := os.Getenv("OPENAI_ENABLED"); v != "" {
		openAIEnabled = v == "true"
	}

	cfg := &Config{
		FeedBaseURL: envOrDefault("FEED_BASE_URL", "https://data.cotrip.org/api/v1"),
		FeedAPIKey:  os.Getenv("FEED_API_KEY"),
		FeedTimeout: feedTimeout,

		SegmentsFile: envOrDefault("SEGMENTS_FILE", "segments.json"),
		SQLitePath:   envOrDefault("SQLITE_PATH", "corridor.db"),

		RunInterval:   runInterval,
		HistoryWindow: historyWindow,

		OpenAIAPIKey:  openAIKey,
		OpenAIEnabled: openAIEnabled,
		OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: openAITimeout,
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaLiveTopic: envOrDefault("KAFKA_LIVE_TOPIC", "corridor-live-status"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FeedBaseURL == "" {
		return nil, errors.New("FEED_BASE_URL is required")
	}
	if cfg.SegmentsFile == "" {
		return nil, errors.New("SEGMENTS_FILE is required")
	}
	if cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required")
	}
	if cfg.OpenAIEnabled && cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_ENABLED is true but OPENAI_API_KEY is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaLiveTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_LIVE_TOPIC is empty")
	}

	return cfg, nil
}

// KafkaEnabled reports whether live-status publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
