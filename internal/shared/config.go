package shared

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	Workers        int
	CacheTTL       time.Duration
	BookingRateRPS int
	ImportMaxBytes int64
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/chalets?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		Workers:        atoi("INGEST_WORKERS", 4),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		BookingRateRPS: atoi("BOOKING_RATE_RPS", 5),
		ImportMaxBytes: int64(atoi("IMPORT_MAX_BYTES", 10<<20)),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
