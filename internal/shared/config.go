package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string
	LogLevel     string
	HTTPAddr     string
	MetricsAddr  string
	Storage      string
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	CacheTTL     time.Duration
	Timezone     string
	OTLPEndpoint string

	CampsiteBase       string
	ContentionAttempts int
	ContentionWorkers  int
	ContentionRPS      int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		LogLevel:     env("LOG_LEVEL", "info"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		Storage:      env("STORAGE", "mysql"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/camping?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 30)) * time.Second,
		Timezone:     env("APP_TIMEZONE", "UTC"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		CampsiteBase:       env("CAMPSITE_BASE_URL", "http://localhost:8080/api/v1"),
		ContentionAttempts: atoi("CONTENTION_ATTEMPTS", 20),
		ContentionWorkers:  atoi("CONTENTION_WORKERS", 8),
		ContentionRPS:      atoi("CONTENTION_RPS", 50),
	}
	if c.Storage != "mysql" && c.Storage != "memory" {
		log.Warn().Str("storage", c.Storage).Msg("unknown STORAGE, falling back to mysql")
		c.Storage = "mysql"
	}
	return c
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("tz", c.Timezone).Msg("unknown APP_TIMEZONE, using UTC")
		return time.UTC
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
