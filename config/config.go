package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Supabase SupabaseConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Port       string
	Env        string
	Timezone   string
	CORSOrigin string
}

// Location resolves the configured timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type StoreConfig struct {
	Backend string
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type SupabaseConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type MetricsConfig struct {
	WeeklyGoal int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("APP_CORS_ORIGIN", "*")
	v.SetDefault("STORE_BACKEND", StoreBackendPostgres)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")
	v.SetDefault("SUPABASE_TIMEOUT", "30s")
	v.SetDefault("METRICS_WEEKLY_GOAL", 50)
}

func LoadConfig() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	supabaseTimeout, err := time.ParseDuration(v.GetString("SUPABASE_TIMEOUT"))
	if err != nil {
		supabaseTimeout = 30 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:       v.GetString("APP_PORT"),
			Env:        v.GetString("APP_ENV"),
			Timezone:   v.GetString("APP_TIMEZONE"),
			CORSOrigin: v.GetString("APP_CORS_ORIGIN"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		DB: DBConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Supabase: SupabaseConfig{
			URL:     v.GetString("SUPABASE_URL"),
			APIKey:  v.GetString("SUPABASE_API_KEY"),
			Timeout: supabaseTimeout,
		},
		Metrics: MetricsConfig{
			WeeklyGoal: v.GetInt("METRICS_WEEKLY_GOAL"),
		},
	}

	switch config.Store.Backend {
	case StoreBackendPostgres, StoreBackendSupabase:
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	if config.Metrics.WeeklyGoal <= 0 {
		return nil, fmt.Errorf("weekly goal must be positive, got %d", config.Metrics.WeeklyGoal)
	}

	return config, nil
}
