package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Webhooks WebhookConfig
	Mpesa    MpesaConfig
	PayPal   PayPalConfig
	Stream   StreamConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	ReadTimeout time.Duration
	// WriteTimeout must exceed the longest status stream; zero disables it.
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// WebhookConfig holds webhook verification configuration.
type WebhookConfig struct {
	// RequireSignature makes signature verification mandatory even for
	// providers without a configured secret.
	RequireSignature bool

	StripeSecret    string
	StripeTolerance time.Duration
	PayPalSecret    string
	MpesaSecret     string

	// ManualUpdateToken guards the manual status update endpoint. The token
	// is read from ManualUpdateHeader and compared in constant time.
	ManualUpdateToken  string
	ManualUpdateHeader string
}

// MpesaConfig holds M-Pesa STK push (Daraja) configuration.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	BaseURL        string
	CallbackURL    string
	// TestPhone is a fallback MSISDN used when a donor supplies none.
	TestPhone string
	Timeout   time.Duration
}

// PayPalConfig holds the PayPal redirect configuration.
type PayPalConfig struct {
	ApprovalURL string
}

// StreamConfig holds donation status stream configuration.
type StreamConfig struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	DefaultTimeout    time.Duration
	MinTimeout        time.Duration
	MaxTimeout        time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "riseup"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "riseup-donations"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Webhooks: WebhookConfig{
			RequireSignature:   getBoolEnv("WEBHOOK_REQUIRE_SIGNATURE", false),
			StripeSecret:       getEnv("STRIPE_WEBHOOK_SECRET", ""),
			StripeTolerance:    getDurationEnv("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
			PayPalSecret:       getEnv("PAYPAL_WEBHOOK_SECRET", ""),
			MpesaSecret:        getEnv("MPESA_WEBHOOK_SECRET", ""),
			ManualUpdateToken:  getEnv("MANUAL_UPDATE_TOKEN", ""),
			ManualUpdateHeader: getEnv("MANUAL_UPDATE_HEADER", "X-Admin-Token"),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:    getEnv("MPESA_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("MPESA_CONSUMER_SECRET", ""),
			ShortCode:      getEnv("MPESA_SHORTCODE", ""),
			Passkey:        getEnv("MPESA_PASSKEY", ""),
			BaseURL:        getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			CallbackURL:    getEnv("MPESA_CALLBACK_URL", ""),
			TestPhone:      getEnv("MPESA_TEST_PHONE", ""),
			Timeout:        getDurationEnv("MPESA_TIMEOUT", 20*time.Second),
		},
		PayPal: PayPalConfig{
			ApprovalURL: getEnv("PAYPAL_APPROVAL_URL", "https://www.paypal.com/donate"),
		},
		Stream: StreamConfig{
			PollInterval:      getDurationEnv("STREAM_POLL_INTERVAL", 2*time.Second),
			HeartbeatInterval: getDurationEnv("STREAM_HEARTBEAT_INTERVAL", 15*time.Second),
			DefaultTimeout:    getDurationEnv("STREAM_DEFAULT_TIMEOUT", 60*time.Second),
			MinTimeout:        getDurationEnv("STREAM_MIN_TIMEOUT", 15*time.Second),
			MaxTimeout:        getDurationEnv("STREAM_MAX_TIMEOUT", 300*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
