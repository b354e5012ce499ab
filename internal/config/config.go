package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Mode        string
	Environment string

	DefaultTenantSlug string

	OTLPEndpoint string

	Cloud CloudConfig

	RateLimit RateLimitConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	HTTPAddr string
}

// CloudConfig configures hosted-mode accounting exports.
type CloudConfig struct {
	OrganizationID   string
	OrganizationName string
	Metrics          CloudMetricsConfig
}

type CloudMetricsConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	AuthToken    string
	PushInterval int
}

// RateLimitConfig configures usage-ingest rate limiting.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IngestTenantRate    float64
	IngestTenantBurst   int
	IngestEndpointRate  float64
	IngestEndpointBurst int
	LockTTLSeconds      int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	mode := normalizeMode(getenv("APP_MODE", ModeOSS))
	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "insightboard"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Mode:              mode,
		Environment:       environment,
		DefaultTenantSlug: strings.TrimSpace(getenv("DEFAULT_TENANT_SLUG", "")),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		Cloud: CloudConfig{
			OrganizationID:   strings.TrimSpace(getenv("CLOUD_ORGANIZATION_ID", "")),
			OrganizationName: getenv("CLOUD_ORGANIZATION_NAME", ""),
			Metrics: CloudMetricsConfig{
				Enabled:      getenvBool("CLOUD_METRICS_ENABLED", true),
				Exporter:     strings.ToLower(getenv("CLOUD_METRICS_EXPORTER", "")),
				Endpoint:     strings.TrimSpace(getenv("CLOUD_METRICS_ENDPOINT", "")),
				AuthToken:    strings.TrimSpace(getenv("CLOUD_METRICS_AUTH_TOKEN", "")),
				PushInterval: getenvInt("CLOUD_METRICS_PUSH_INTERVAL", 60),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:             getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:           strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword:       getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:             getenvInt("RATE_LIMIT_REDIS_DB", 0),
			IngestTenantRate:    getenvFloat("RATE_LIMIT_INGEST_TENANT_RATE", 100),
			IngestTenantBurst:   getenvInt("RATE_LIMIT_INGEST_TENANT_BURST", 200),
			IngestEndpointRate:  getenvFloat("RATE_LIMIT_INGEST_ENDPOINT_RATE", 1000),
			IngestEndpointBurst: getenvInt("RATE_LIMIT_INGEST_ENDPOINT_BURST", 2000),
			LockTTLSeconds:      getenvInt("RATE_LIMIT_LOCK_TTL_SECONDS", 10),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "insightboard"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
	}

	return cfg
}

const (
	ModeOSS   = "oss"
	ModeCloud = "cloud"
)

func (c Config) IsCloud() bool {
	return c.Mode == ModeCloud
}

func normalizeMode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == ModeCloud {
		return ModeCloud
	}
	return ModeOSS
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
