package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendDriverREST     = "rest"
	BackendDriverPostgres = "postgres"
)

type HTTPConfig struct {
	Host string
	Port int
}

type BackendConfig struct {
	Driver         string
	URL            string
	APIKey         string
	BearerToken    string
	Timeout        time.Duration
	PositionsView  string
	PositionsTable string
	JobsTable      string
	VehiclesTable  string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type DashboardConfig struct {
	RefreshInterval  time.Duration
	IncludeEmptyJobs bool
	VehicleTypes     []string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	Backend     BackendConfig
	DB          DBConfig
	Dashboard   DashboardConfig
	Log         LogConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.SetDefault("BACKEND_DRIVER", BackendDriverREST)
	v.SetDefault("BACKEND_TIMEOUT", 30*time.Second)
	v.SetDefault("BACKEND_POSITIONS_VIEW", "latest_vehicle_positions")
	v.SetDefault("BACKEND_POSITIONS_TABLE", "vehicle_positions")
	v.SetDefault("BACKEND_JOBS_TABLE", "jobs")
	v.SetDefault("BACKEND_VEHICLES_TABLE", "vehicles")
	v.SetDefault("REFRESH_INTERVAL", 5*time.Minute)
	v.SetDefault("VEHICLE_TYPES", "Civil,Pipeline")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Backend: BackendConfig{
			Driver:         strings.ToLower(strings.TrimSpace(v.GetString("BACKEND_DRIVER"))),
			URL:            strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			APIKey:         v.GetString("BACKEND_API_KEY"),
			BearerToken:    v.GetString("BACKEND_BEARER_TOKEN"),
			Timeout:        v.GetDuration("BACKEND_TIMEOUT"),
			PositionsView:  v.GetString("BACKEND_POSITIONS_VIEW"),
			PositionsTable: v.GetString("BACKEND_POSITIONS_TABLE"),
			JobsTable:      v.GetString("BACKEND_JOBS_TABLE"),
			VehiclesTable:  v.GetString("BACKEND_VEHICLES_TABLE"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Dashboard: DashboardConfig{
			RefreshInterval:  v.GetDuration("REFRESH_INTERVAL"),
			IncludeEmptyJobs: v.GetBool("INCLUDE_EMPTY_JOBS"),
			VehicleTypes:     splitList(v.GetString("VEHICLE_TYPES")),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	// Supabase accepts the anon key as both apikey and bearer token.
	if cfg.Backend.BearerToken == "" {
		cfg.Backend.BearerToken = cfg.Backend.APIKey
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Backend.Driver {
	case BackendDriverREST:
		if cfg.Backend.URL == "" {
			return fmt.Errorf("BACKEND_URL is required")
		}
		if cfg.Backend.APIKey == "" {
			return fmt.Errorf("BACKEND_API_KEY is required")
		}
	case BackendDriverPostgres:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	default:
		return fmt.Errorf("unsupported BACKEND_DRIVER %q", cfg.Backend.Driver)
	}
	if cfg.Dashboard.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if len(cfg.Dashboard.VehicleTypes) == 0 {
		return fmt.Errorf("VEHICLE_TYPES must list at least one type")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
