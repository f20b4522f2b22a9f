package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	PostgresDSN string
	RedisAddr   string

	PageSize     int
	MaxPageSize  int
	QueryTimeout time.Duration

	CacheEnabled    bool
	CacheOpTimeout  time.Duration
	CacheTTLDefault time.Duration

	MapResMin int
	MapResMax int

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	minRes := getint("MAP_RES_MIN", 2)
	maxRes := getint("MAP_RES_MAX", 9)
	if minRes < 0 {
		minRes = 0
	}
	if maxRes > 15 {
		maxRes = 15
	}
	if minRes > maxRes {
		minRes, maxRes = 2, 9
	}

	pageSize := getint("PAGE_SIZE", 9)
	maxPage := getint("MAX_PAGE_SIZE", 48)
	if pageSize < 1 {
		pageSize = 9
	}
	if maxPage < pageSize {
		maxPage = pageSize
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		PostgresDSN: getenv("POSTGRES_DSN", "postgres://localhost:5432/directory?sslmode=disable"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),

		PageSize:     pageSize,
		MaxPageSize:  maxPage,
		QueryTimeout: getduration("QUERY_TIMEOUT", 5*time.Second),

		CacheEnabled:    getbool("CACHE_ENABLED", true),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTLDefault: getduration("CACHE_TTL_DEFAULT", 60*time.Second),

		MapResMin: minRes,
		MapResMax: maxRes,

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "directory-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "search-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
