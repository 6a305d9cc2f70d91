package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the server settings. Every field can be set from the
// environment; a .env file in the working directory is read first.
type Config struct {
	Port      string
	DBPath    string
	BoardFile string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	RedisURL     string
	RedisChannel string

	BoardCacheTTL time.Duration
	Debug         bool
}

// Load reads the configuration from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("config: could not read .env")
	}

	return Config{
		Port:          getEnv("PORT", "8008"),
		DBPath:        getEnv("DB_PATH", "kanban.db"),
		BoardFile:     getEnv("BOARD_FILE", ""),
		JWTSecret:     getEnv("JWT_SECRET", "development-insecure-secret-change-me"),
		JWTIssuer:     getEnv("JWT_ISSUER", "kanban-board-api"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "kanban-board-clients"),
		TokenTTL:      getDuration("JWT_TTL", 24*time.Hour),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisChannel:  getEnv("REDIS_CHANNEL", "kanban:events"),
		BoardCacheTTL: getDuration("BOARD_CACHE_TTL", 30*time.Second),
		Debug:         getBool("DEBUG", false),
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("config: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
