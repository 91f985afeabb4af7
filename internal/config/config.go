package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	APIBaseURL string
	APITimeout time.Duration

	GoogleMapsAPIKey string
	GoogleClientID   string
	SentryDSN        string
	GAMeasurementID  string

	StorageDriver string
	StorageDir    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionCookieName   string
	SessionCookieSecure bool
	SessionCookieTTL    time.Duration
	SessionIdleTTL      time.Duration
	ProbeTimeout        time.Duration
	LoginPath           string
	DashboardPath       string

	CORSOrigins         []string
	RateLimitRPM        int
	SessionRateLimitRPM int

	DefaultHourlyRate float64
	Timezone          string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIBaseURL:              strings.TrimSpace(os.Getenv("API_BASE_URL")),
		APITimeout:              getDuration("API_TIMEOUT", 20*time.Second),
		GoogleMapsAPIKey:        strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY")),
		GoogleClientID:          strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		SentryDSN:               strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		GAMeasurementID:         strings.TrimSpace(os.Getenv("GA_MEASUREMENT_ID")),
		StorageDriver:           strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		StorageDir:              getEnv("STORAGE_DIR", "./state/sessions"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt("REDIS_DB", 0),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "driveway_session"),
		SessionCookieSecure:     getBool("SESSION_COOKIE_SECURE", false),
		SessionCookieTTL:        getDuration("SESSION_COOKIE_TTL", 30*24*time.Hour),
		SessionIdleTTL:          getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		ProbeTimeout:            getDuration("PROBE_TIMEOUT", 10*time.Second),
		LoginPath:               getEnv("LOGIN_PATH", "/login"),
		DashboardPath:           getEnv("DASHBOARD_PATH", "/dashboard"),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		SessionRateLimitRPM:     getInt("SESSION_RATE_LIMIT_RPM", 10),
		DefaultHourlyRate:       getFloat("DEFAULT_HOURLY_RATE", 5),
		Timezone:                getEnv("APP_TIMEZONE", "Local"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.StorageDir) == "" {
			return fmt.Errorf("STORAGE_DIR cannot be empty with the file driver")
		}
	case StorageRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty with the redis driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, file, redis")
	}

	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}

	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	if !strings.HasPrefix(c.LoginPath, "/") || !strings.HasPrefix(c.DashboardPath, "/") {
		return fmt.Errorf("LOGIN_PATH and DASHBOARD_PATH must be absolute paths")
	}

	if c.DefaultHourlyRate < 0 {
		return fmt.Errorf("DEFAULT_HOURLY_RATE cannot be negative")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// Location is the timezone booking dates and times are read in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
