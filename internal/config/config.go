package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Environment    string
	LogLevel       slog.Level
	CoalesceWindow time.Duration
}

type DatabaseConfig struct {
	// Driver selects the store backend: "postgres" for the hosted store,
	// "sqlite" for a local file or in-memory store.
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SQLitePath      string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
	MigrationsPath  string
}

type AuthConfig struct {
	// AccessToken is the hosted-auth access token identifying the current
	// user. Empty means no authenticated session.
	AccessToken string
	// JWTSecret verifies the access token's HS256 signature.
	JWTSecret string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() *Config {
	// Missing .env is the common case outside development.
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Environment:    getEnv("APP_ENV", "development"),
			LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
			CoalesceWindow: getDurationEnv("RELOAD_COALESCE_WINDOW", 250*time.Millisecond),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "spendtrack"),
			Password:        getEnv("DB_PASSWORD", "spendtrack"),
			Name:            getEnv("DB_NAME", "spendtrack"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "spendtrack.db"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			RunMigrations:   getBoolEnv("DB_RUN_MIGRATIONS", true),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Auth: AuthConfig{
			AccessToken: getEnv("AUTH_ACCESS_TOKEN", ""),
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
