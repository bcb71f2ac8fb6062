package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Lock backends for per-course scheduling locks
const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"
	LockBackendLocal    = "local"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		AllowedOrigins  []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
		RateLimitPerMin int      `yaml:"rate_limit_per_min" env:"SERVER_RATE_LIMIT_PER_MIN"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
		SeedDemoData    bool   `yaml:"seed_demo_data" env:"DB_SEED_DEMO_DATA"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Scheduling struct {
		Timezone           string  `yaml:"timezone" env:"SCHEDULING_TIMEZONE"`
		LockBackend        string  `yaml:"lock_backend" env:"SCHEDULING_LOCK_BACKEND"`
		LockTimeout        string  `yaml:"lock_timeout" env:"SCHEDULING_LOCK_TIMEOUT"`
		LockTTL            string  `yaml:"lock_ttl" env:"SCHEDULING_LOCK_TTL"`
		TeachingHourFactor float64 `yaml:"teaching_hour_factor" env:"SCHEDULING_TEACHING_HOUR_FACTOR"`
	} `yaml:"scheduling"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	config.Scheduling.LockBackend = strings.ToLower(strings.TrimSpace(config.Scheduling.LockBackend))

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.AllowedOrigins = []string{"*"}
	config.Server.RateLimitPerMin = 120

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "eduschedule"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.Redis.Addr = "localhost:6379"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "eduschedule.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Scheduling.Timezone = "UTC"
	config.Scheduling.LockBackend = LockBackendPostgres
	config.Scheduling.LockTimeout = "5s"
	config.Scheduling.LockTTL = "30s"
	config.Scheduling.TeachingHourFactor = 0.75
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.LoadLocation(config.Scheduling.Timezone); err != nil {
		return fmt.Errorf("invalid scheduling timezone %q: %w", config.Scheduling.Timezone, err)
	}

	switch config.Scheduling.LockBackend {
	case LockBackendPostgres, LockBackendRedis, LockBackendLocal:
	default:
		return fmt.Errorf("unknown scheduling lock backend %q", config.Scheduling.LockBackend)
	}

	if _, err := time.ParseDuration(config.Scheduling.LockTimeout); err != nil {
		return fmt.Errorf("invalid scheduling lock timeout: %w", err)
	}

	if _, err := time.ParseDuration(config.Scheduling.LockTTL); err != nil {
		return fmt.Errorf("invalid scheduling lock ttl: %w", err)
	}

	if config.Scheduling.TeachingHourFactor <= 0 || config.Scheduling.TeachingHourFactor > 1 {
		return fmt.Errorf("teaching hour factor must be in (0, 1], got %v", config.Scheduling.TeachingHourFactor)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Mode) == "production"
}

// Location returns the timezone used to decide what "today" is for sessions
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduling.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
