package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FarmerIDs            []string
	DefaultLanguage      language.Tag
	EvalInterval         time.Duration
	ReminderPollInterval time.Duration

	MediumAlertDelay  time.Duration
	QueueMaxEntries   int
	QueueMaxAge       time.Duration
	NotifiedCacheSize int

	// Empty DataDir keeps farmer state in memory only.
	DataDir string

	WeatherURL     string
	WeatherTimeout time.Duration

	// Kafka publishing of delivered advisories.
	KafkaBrokers       []string
	KafkaAdvisoryTopic string
	KafkaEnabled       bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	evalInterval, err := parseDuration("EVAL_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	reminderPollInterval, err := parseDuration("REMINDER_POLL_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	mediumDelay, err := parseDuration("MEDIUM_ALERT_DELAY", "5m")
	if err != nil {
		return nil, err
	}
	queueMaxAge, err := parseDuration("QUEUE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	queueMaxEntries, err := parseInt("QUEUE_MAX_ENTRIES", 50)
	if err != nil {
		return nil, err
	}
	notifiedCacheSize, err := parseInt("NOTIFIED_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	defaultLang, err := language.Parse(envOrDefault("DEFAULT_LANGUAGE", "bn"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LANGUAGE: %w", err)
	}

	kafkaBrokers := splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092"))
	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FarmerIDs:            splitList(os.Getenv("FARMER_IDS")),
		DefaultLanguage:      defaultLang,
		EvalInterval:         evalInterval,
		ReminderPollInterval: reminderPollInterval,

		MediumAlertDelay:  mediumDelay,
		QueueMaxEntries:   queueMaxEntries,
		QueueMaxAge:       queueMaxAge,
		NotifiedCacheSize: notifiedCacheSize,

		DataDir: os.Getenv("DATA_DIR"),

		WeatherURL:     envOrDefault("WEATHER_URL", "http://localhost:9091"),
		WeatherTimeout: weatherTimeout,

		KafkaBrokers:       kafkaBrokers,
		KafkaAdvisoryTopic: envOrDefault("KAFKA_ADVISORY_TOPIC", "advisory-events"),
		KafkaEnabled:       kafkaEnabled,
	}

	if cfg.WeatherURL == "" {
		return nil, errors.New("WEATHER_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
