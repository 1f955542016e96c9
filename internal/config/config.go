package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds everything the API and its commands need at runtime.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string

	JWTSecret string
	TokenTTL  time.Duration

	Timezone string
	Location *time.Location

	LogLevel  string
	LogFormat string

	MetricsUser string
	MetricsPass string
	PprofSecret string

	FCMCredentialsJSON string
	FCMCredentialsFile string

	ReminderCron       string
	ReminderWindowHour int

	RateLimit float64
	RateBurst int

	AllowedOrigins []string
	CookieSecure   bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3333")
	v.SetDefault("storage_driver", DriverPostgres)
	v.SetDefault("mongodb_database", "habitquest")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("app_timezone", "UTC")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("fcm_credentials_file", "./serviceAccountKey.json")
	v.SetDefault("reminder_cron", "0 18 * * *")
	v.SetDefault("reminder_window_hours", 6)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("rate_burst", 30)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("cookie_secure", false)
}

// NewViper loads the optional .env file(s) into the process environment and returns a viper
// instance reading the environment with the defaults applied.
func NewViper(envFiles ...string) *viper.Viper {
	if err := godotenv.Load(envFiles...); err != nil {
		// a missing .env is normal outside local development
		_ = err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:               v.GetString("port"),
		StorageDriver:      strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
		DatabaseURL:        v.GetString("database_url"),
		MongoURI:           v.GetString("mongodb_uri"),
		MongoDatabase:      v.GetString("mongodb_database"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		JWTSecret:          v.GetString("jwt_secret"),
		TokenTTL:           v.GetDuration("token_ttl"),
		Timezone:           v.GetString("app_timezone"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		MetricsUser:        v.GetString("metrics_user"),
		MetricsPass:        v.GetString("metrics_pass"),
		PprofSecret:        v.GetString("pprof_secret"),
		FCMCredentialsJSON: v.GetString("fcm_service_account_json"),
		FCMCredentialsFile: v.GetString("fcm_credentials_file"),
		ReminderCron:       v.GetString("reminder_cron"),
		ReminderWindowHour: v.GetInt("reminder_window_hours"),
		RateLimit:          v.GetFloat64("rate_limit"),
		RateBurst:          v.GetInt("rate_burst"),
		AllowedOrigins:     splitList(v.GetString("cors_origins")),
		CookieSecure:       v.GetBool("cookie_secure"),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.JWTSecret == "" && c.StorageDriver != DriverMemory {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
