// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	RedisURL      string
	RouteCacheTTL time.Duration

	NATSURL           string
	NATSSubjectPrefix string

	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	DeviationToleranceM float64
	SpeedLimitKmh       float64
	WSSendBuffer        int

	CatalogPath string
}

// LoadDotEnv loads .env into the process environment. It reports whether a
// file was found; a missing file is not an error.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load builds a Config from the environment. Unset keys take their defaults;
// malformed numeric values are an error.
func Load() (Config, error) {
	c := Config{
		Port:              Get("PORT", "8080"),
		DBDriver:          strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DBPath:            Get("DB_PATH", "data/sitetrack.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: Get("NATS_SUBJECT_PREFIX", "sitetrack"),
		AllowedOrigins:    splitList(Get("ALLOWED_ORIGINS", "*")),
		LogLevel:          Get("LOG_LEVEL", "info"),
		LogFormat:         Get("LOG_FORMAT", "text"),
		CatalogPath:       os.Getenv("CATALOG_PATH"),
	}

	var err error
	if c.RouteCacheTTL, err = time.ParseDuration(Get("ROUTE_CACHE_TTL", "5m")); err != nil {
		return Config{}, fmt.Errorf("config: ROUTE_CACHE_TTL: %w", err)
	}
	if c.DeviationToleranceM, err = strconv.ParseFloat(Get("DEVIATION_TOLERANCE_M", "100"), 64); err != nil {
		return Config{}, fmt.Errorf("config: DEVIATION_TOLERANCE_M: %w", err)
	}
	if c.SpeedLimitKmh, err = strconv.ParseFloat(Get("SPEED_LIMIT_KMH", "30"), 64); err != nil {
		return Config{}, fmt.Errorf("config: SPEED_LIMIT_KMH: %w", err)
	}
	if c.WSSendBuffer, err = strconv.Atoi(Get("WS_SEND_BUFFER", "64")); err != nil {
		return Config{}, fmt.Errorf("config: WS_SEND_BUFFER: %w", err)
	}

	switch c.DBDriver {
	case "sqlite":
	case "pgx", "postgres":
		c.DBDriver = "pgx"
	default:
		return Config{}, fmt.Errorf("config: DB_DRIVER %q: want sqlite or pgx", c.DBDriver)
	}
	if c.WSSendBuffer <= 0 {
		return Config{}, fmt.Errorf("config: WS_SEND_BUFFER must be positive, got %d", c.WSSendBuffer)
	}

	return c, nil
}

// DataSource returns the driver-specific connection string.
func (c Config) DataSource() string {
	if c.DBDriver == "pgx" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
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
