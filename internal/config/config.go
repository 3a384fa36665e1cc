package config

import (
	"fmt"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config holds everything the API server and the CLI read from the environment.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DatabaseURL string
	DB          DBConfig

	Supabase SupabaseConfig
	Redis    RedisConfig
	S3       S3Config

	APIBaseURL  string
	SessionFile string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

type RedisConfig struct {
	URL     string
	ListTTL time.Duration
}

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from the environment (and .env, if present).
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SUPABASE_TIMEOUT", "15s")
	v.SetDefault("REDIS_LIST_TTL", "30s")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")

	return &Config{
		Port:        v.GetString("PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DatabaseURL: firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("SUPABASE_DB_URL")),
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Supabase: SupabaseConfig{
			URL:       v.GetString("SUPABASE_URL"),
			AnonKey:   v.GetString("SUPABASE_ANON_KEY"),
			JWTSecret: v.GetString("SUPABASE_JWT_SECRET"),
			Timeout:   v.GetDuration("SUPABASE_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("REDIS_URL"),
			ListTTL: v.GetDuration("REDIS_LIST_TTL"),
		},
		S3: S3Config{
			Bucket:          v.GetString("AWS_BUCKET_NAME"),
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		APIBaseURL:  v.GetString("API_BASE_URL"),
		SessionFile: v.GetString("PLACESCTL_SESSION_FILE"),
	}
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from DB_*.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port, c.DB.SSLMode,
	)
}

// Validate reports the settings the API server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.DB.Host == "" {
		return fmt.Errorf("database not configured: set DATABASE_URL or DB_HOST")
	}
	if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
		return fmt.Errorf("identity service not configured: set SUPABASE_URL and SUPABASE_ANON_KEY")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required to verify access tokens")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
