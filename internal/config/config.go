// internal/config/config.go
//
// Environment-driven configuration. main loads .env (godotenv) first, so
// every value here can come from the process environment or a .env file.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DefaultSecret signs credentials when SECRET is unset. It is public, so
// only development and test environments may run with it.
const DefaultSecret = "dev_secret_change_me"

type Config struct {
	Port          string
	Env           string
	StoreDriver   string
	MongoURI      string
	MongoDB       string
	SQLitePath    string
	Secret        string
	TokenTTL      time.Duration
	ClientOrigins []string
	StaticDir     string
	RedisAddr     string
	Login         LoginLimits
	Log           LogConfig
}

type LoginLimits struct {
	MaxAttempts int // 0 disables throttling
	Window      time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json | console
	File   string // optional rotating log file
}

// Load reads the configuration from the environment.
func Load() Config {
	env := envString("APP_ENV", "development")
	mongoURI := envString("MONGODB_URI", "mongodb://localhost:27017")
	if env == "test" {
		mongoURI = envString("TEST_MONGODB_URI", mongoURI)
	}
	return Config{
		Port:          envString("PORT", "3003"),
		Env:           env,
		StoreDriver:   strings.ToLower(envString("STORE_DRIVER", DriverMongo)),
		MongoURI:      mongoURI,
		MongoDB:       envString("MONGODB_DB", "bloglist"),
		SQLitePath:    envString("SQLITE_PATH", "./data/bloglist.db"),
		Secret:        envString("SECRET", DefaultSecret),
		TokenTTL:      envDuration("TOKEN_TTL", time.Hour),
		ClientOrigins: envList("CLIENT_ORIGINS", []string{"*"}),
		StaticDir:     envString("STATIC_DIR", "build"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		Login: LoginLimits{
			MaxAttempts: envInt("LOGIN_MAX_ATTEMPTS", 5),
			Window:      envDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
}

// CheckSecret returns an error when the public DefaultSecret is in use
// outside development and test.
func (c Config) CheckSecret() error {
	if c.Secret != DefaultSecret {
		return nil
	}
	switch c.Env {
	case "development", "test":
		return nil
	}
	return fmt.Errorf("SECRET must be set when APP_ENV=%s", c.Env)
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
