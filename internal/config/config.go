package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or sqlite://<path> for local runs
	RedisURL            string
	UpstreamURL         string // marketplace REST API base path, e.g. https://api.example.com/api
	UpstreamRPS         float64
	UpstreamTimeout     time.Duration
	SearchDebounce      time.Duration
	WorkspaceIdleTTL    time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("UPSTREAM_API_URL", "http://localhost:5000/api")
	viper.SetDefault("UPSTREAM_RPS", 20)
	viper.SetDefault("UPSTREAM_TIMEOUT", "10s")
	viper.SetDefault("SEARCH_DEBOUNCE", "400ms")
	viper.SetDefault("WORKSPACE_IDLE_TTL", "30m")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		UpstreamURL:         strings.TrimRight(strings.TrimSpace(viper.GetString("UPSTREAM_API_URL")), "/"),
		UpstreamRPS:         viper.GetFloat64("UPSTREAM_RPS"),
		UpstreamTimeout:     durationOr(viper.GetDuration("UPSTREAM_TIMEOUT"), 10*time.Second),
		SearchDebounce:      durationOr(viper.GetDuration("SEARCH_DEBOUNCE"), 400*time.Millisecond),
		WorkspaceIdleTTL:    durationOr(viper.GetDuration("WORKSPACE_IDLE_TTL"), 30*time.Minute),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
