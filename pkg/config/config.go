package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

type Config struct {
	Port string
	Env  string

	StoreDriver string
	Mongo       MongoConfig

	DataFile         string
	SnapshotInterval time.Duration

	LogLevel  string
	LogFormat string
}

type MongoConfig struct {
	URI            string
	Database       string
	MoviesDatabase string
	Timeout        time.Duration
	TLSInsecure    bool
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("MONGO_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_TIMEOUT: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("SNAPSHOT_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}
	tlsInsecure, err := strconv.ParseBool(getEnv("MONGO_TLS_INSECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_TLS_INSECURE: %w", err)
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		StoreDriver: getEnv("STORE_DRIVER", DriverMemory),
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", ""),
			Database:       getEnv("MONGO_DATABASE", "project_2_db"),
			MoviesDatabase: getEnv("MOVIES_DATABASE", "sample_mflix"),
			Timeout:        timeout,
			TLSInsecure:    tlsInsecure,
		},

		DataFile:         getEnv("DATA_FILE", "docpipe.snapshot"),
		SnapshotInterval: interval,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %s", DriverMongo)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
