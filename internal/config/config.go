package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string        // path of the shared tracking database file
	BackupDir  string        // startup backups land here
	MaxRetries int           // lock-contention retry budget per operation
	RetryDelay time.Duration // backoff between retries
	LogLevel   string
}

func Load() *Config {
	// Optional .env next to the binary; real env always wins.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:     getEnv("TRACKING_DB_PATH", "item_tracking.db"),
		BackupDir:  getEnv("TRACKING_BACKUP_DIR", "backup"),
		MaxRetries: getEnvInt("TRACKING_MAX_RETRIES", 3),
		RetryDelay: time.Duration(getEnvInt("TRACKING_RETRY_DELAY_MS", 200)) * time.Millisecond,
		LogLevel:   getEnv("TRACKING_LOG_LEVEL", "info"),
	}

	if cfg.MaxRetries < 1 {
		log.Println("[WARN] TRACKING_MAX_RETRIES < 1, falling back to 1")
		cfg.MaxRetries = 1
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s: %q is not a number, using %d", key, v, def)
		return def
	}
	return n
}
