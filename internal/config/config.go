package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	PredictionWorkers  int

	// Historical weather (Open-Meteo archive) configuration.
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherCacheSize int

	// Phenology network (USA-NPN) crosscheck configuration.
	NPNEnabled         bool
	NPNBaseURL         string
	NPNTimeout         time.Duration
	NPNRadiusKm        float64
	NPNRequestInterval time.Duration

	// ProfilesPath is an optional YAML file of crop profile overrides.
	ProfilesPath string
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

	workers, err := parsePositiveInt("PREDICTION_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	weatherCacheSize, err := parsePositiveInt("WEATHER_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}

	npnTimeout, err := parseDuration("NPN_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	npnInterval, err := parseDuration("NPN_REQUEST_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}
	npnRadius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NPN_RADIUS_KM", "100"), 64)
	if err != nil || npnRadius <= 0 {
		return nil, errors.New("invalid NPN_RADIUS_KM: must be a positive number")
	}

	npnEnabled := true
	if v := os.Getenv("NPN_ENABLED"); v != "" {
		npnEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "phenology-prediction-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "phenology-predictions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "crop-phenology"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		PredictionWorkers:  workers,

		WeatherBaseURL:   sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		WeatherTimeout:   weatherTimeout,
		WeatherCacheSize: weatherCacheSize,

		NPNEnabled:         npnEnabled,
		NPNBaseURL:         sharedcfg.EnvOrDefault("NPN_BASE_URL", "https://services.usanpn.org/npn_portal"),
		NPNTimeout:         npnTimeout,
		NPNRadiusKm:        npnRadius,
		NPNRequestInterval: npnInterval,

		ProfilesPath: os.Getenv("PROFILES_PATH"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, fallback string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
