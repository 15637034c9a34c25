package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Reconcile ReconcileConfig
	Sections  SectionConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the section availability cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ReconcileConfig tunes the fee/salary reconciliation sweep.
type ReconcileConfig struct {
	Enabled    bool
	Interval   time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SectionConfig holds policy knobs for course sections.
type SectionConfig struct {
	DefaultCapacity     int
	MaxActivePerFaculty int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		TTL:     parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 30*time.Second),
	}

	cfg.Reconcile = ReconcileConfig{
		Enabled:    v.GetBool("ENABLE_RECONCILE_SWEEP"),
		Interval:   parseDuration(v.GetString("RECONCILE_INTERVAL"), 5*time.Minute),
		Workers:    v.GetInt("RECONCILE_WORKERS"),
		MaxRetries: v.GetInt("RECONCILE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RECONCILE_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Sections = SectionConfig{
		DefaultCapacity:     v.GetInt("SECTION_DEFAULT_CAPACITY"),
		MaxActivePerFaculty: v.GetInt("SECTION_MAX_ACTIVE_PER_FACULTY"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_core")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "30s")

	v.SetDefault("ENABLE_RECONCILE_SWEEP", false)
	v.SetDefault("RECONCILE_INTERVAL", "5m")
	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_MAX_RETRIES", 3)
	v.SetDefault("RECONCILE_RETRY_DELAY", "5s")

	v.SetDefault("SECTION_DEFAULT_CAPACITY", 30)
	v.SetDefault("SECTION_MAX_ACTIVE_PER_FACULTY", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
