// Package config loads service configuration from the environment, with an
// optional app.env file for local development.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the Postgres connection settings for the durable
// session store.
type DatabaseConfig struct {
	DSN string
}

// RedisConfig holds the Redis connection settings for the shared session
// store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the event bus settings.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// MapsConfig holds the Google Maps Platform settings.
type MapsConfig struct {
	Key     string
	BaseURL string
	Timeout time.Duration
}

// ModelConfig holds the language-model completion backend settings.
type ModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OcrConfig holds the OCR backend settings.
type OcrConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ResolutionConfig holds the strategy tuning knobs.
type ResolutionConfig struct {
	PoiWalkCeilingMin   float64
	ModelWalkCeilingMin float64
	OcrWalkCeilingMin   float64
	PlacesRadiusMeters  int
	PlacesCategory      string
	PlacesMaxResults    int
	ScoreConcurrency    int
	SessionTTL          time.Duration
}

// Config is the root configuration of the pickup service.
type Config struct {
	AppEnv       string
	SessionStore string // memory | redis | postgres
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Maps         MapsConfig
	Model        ModelConfig
	Ocr          OcrConfig
	Resolution   ResolutionConfig
}

// Load reads configuration from environment variables, falling back to an
// app.env file in the working directory when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		AppEnv:       v.GetString("APP_ENV"),
		SessionStore: v.GetString("SESSION_STORE"),
		Server: ServerConfig{
			Port:         v.GetString("SERVICE_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("DATABASE_DSN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		Maps: MapsConfig{
			Key:     v.GetString("MAPS_API_KEY"),
			BaseURL: v.GetString("MAPS_BASE_URL"),
			Timeout: v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Model: ModelConfig{
			APIKey:  v.GetString("MODEL_API_KEY"),
			BaseURL: v.GetString("MODEL_BASE_URL"),
			Model:   v.GetString("MODEL_NAME"),
			Timeout: v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Ocr: OcrConfig{
			APIKey:   v.GetString("OCR_API_KEY"),
			Endpoint: v.GetString("OCR_ENDPOINT"),
			Timeout:  v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Resolution: ResolutionConfig{
			PoiWalkCeilingMin:   v.GetFloat64("POI_WALK_CEILING_MIN"),
			ModelWalkCeilingMin: v.GetFloat64("MODEL_WALK_CEILING_MIN"),
			OcrWalkCeilingMin:   v.GetFloat64("OCR_WALK_CEILING_MIN"),
			PlacesRadiusMeters:  v.GetInt("PLACES_RADIUS_METERS"),
			PlacesCategory:      v.GetString("PLACES_CATEGORY"),
			PlacesMaxResults:    v.GetInt("PLACES_MAX_RESULTS"),
			ScoreConcurrency:    v.GetInt("SCORE_CONCURRENCY"),
			SessionTTL:          v.GetDuration("SESSION_TTL"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)

	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-pickup")

	v.SetDefault("MAPS_BASE_URL", "")
	v.SetDefault("MODEL_BASE_URL", "")
	v.SetDefault("MODEL_NAME", "gpt-4o-mini")
	v.SetDefault("OCR_ENDPOINT", "")
	v.SetDefault("PROVIDER_TIMEOUT", 10*time.Second)

	v.SetDefault("POI_WALK_CEILING_MIN", 30.0)
	v.SetDefault("MODEL_WALK_CEILING_MIN", 30.0)
	v.SetDefault("OCR_WALK_CEILING_MIN", 15.0)
	v.SetDefault("PLACES_RADIUS_METERS", 1500)
	v.SetDefault("PLACES_CATEGORY", "parking")
	v.SetDefault("PLACES_MAX_RESULTS", 10)
	v.SetDefault("SCORE_CONCURRENCY", 10)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
}
