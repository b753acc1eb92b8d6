package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Payments  PaymentsConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

// PaymentsConfig selects and configures the payment provider. Provider
// "fake" runs the in-process gateway; "hosted" calls a real provider API.
type PaymentsConfig struct {
	Provider         string
	BaseURL          string
	APIKey           string
	WebhookSecret    string
	WebhookTolerance time.Duration
	SessionTimeout   time.Duration
	SuccessURL       string
	CancelURL        string
	Currency         string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort          = 8080
	defaultShutdownGrace     = 15
	defaultMigrationsPath    = "migrations"
	defaultAutoMigrate       = true
	defaultProvider          = "fake"
	defaultWebhookTolerance  = 5 * time.Minute
	defaultSessionTimeout    = 10 * time.Second
	defaultCurrency          = "usd"
	defaultServiceName       = "payment-reconciler"
	defaultServiceVersion    = "0.1.0"
	defaultEnvironment       = "development"
	defaultLogLevel          = "info"
	defaultOTelSampleRate    = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg := loadDatabaseConfig()

	payCfg, err := loadPaymentsConfig()
	if err != nil {
		return nil, fmt.Errorf("loading payments config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	return &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		Payments:  payCfg,
		Telemetry: telCfg,
		Service:   serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
	}
}

func loadPaymentsConfig() (PaymentsConfig, error) {
	provider := getEnvOrDefault("PAYMENT_PROVIDER", defaultProvider)
	if provider != "fake" && provider != "hosted" {
		return PaymentsConfig{}, fmt.Errorf("invalid PAYMENT_PROVIDER %q", provider)
	}

	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" && provider == "hosted" {
		return PaymentsConfig{}, errors.New("PAYMENT_WEBHOOK_SECRET is required for the hosted provider")
	}
	if secret == "" {
		// Dev-only fallback so the fake provider works out of the box.
		secret = "dev-webhook-secret"
	}

	tolerance := defaultWebhookTolerance
	if value, ok := os.LookupEnv("PAYMENT_WEBHOOK_TOLERANCE"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return PaymentsConfig{}, fmt.Errorf("invalid PAYMENT_WEBHOOK_TOLERANCE: %w", err)
		}
		tolerance = parsed
	}

	sessionTimeout := defaultSessionTimeout
	if value, ok := os.LookupEnv("PAYMENT_SESSION_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return PaymentsConfig{}, fmt.Errorf("invalid PAYMENT_SESSION_TIMEOUT: %w", err)
		}
		sessionTimeout = parsed
	}

	return PaymentsConfig{
		Provider:         provider,
		BaseURL:          getEnvOrDefault("PAYMENT_PROVIDER_URL", "http://localhost:9090"),
		APIKey:           os.Getenv("PAYMENT_PROVIDER_API_KEY"),
		WebhookSecret:    secret,
		WebhookTolerance: tolerance,
		SessionTimeout:   sessionTimeout,
		SuccessURL:       getEnvOrDefault("PAYMENT_SUCCESS_URL", "http://localhost:8080/checkout/success"),
		CancelURL:        getEnvOrDefault("PAYMENT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),
		Currency:         getEnvOrDefault("PAYMENT_CURRENCY", defaultCurrency),
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "payments")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}
