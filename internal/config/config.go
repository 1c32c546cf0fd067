package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	S3        S3Config
	CartStore CartStoreConfig
	Payment   PaymentConfig
	Checkout  CheckoutConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	// Zero keeps the pgxpool default.
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	Migrate           bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey      string
	AdminAPIKey string
}

// S3Config holds AWS S3 configuration for cart snapshots.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "carts/")
}

// CartStoreConfig holds the local cart snapshot directory.
type CartStoreConfig struct {
	Dir string
}

// PaymentConfig holds Razorpay configuration.
type PaymentConfig struct {
	KeyID            string
	KeySecret        string
	BaseURL          string
	Currency         string
	VerifySignatures bool
	Timeout          time.Duration
}

// CheckoutConfig holds the charges added on top of the cart subtotal.
type CheckoutConfig struct {
	ShippingFee    decimal.Decimal
	TaxRatePercent decimal.Decimal // percent of the subtotal, e.g. 5 for 5%
}

// ReconcileConfig holds the stale-payment sweeper configuration.
type ReconcileConfig struct {
	Enabled     bool
	Interval    time.Duration
	StaleAfter  time.Duration
	Concurrency int
	BatchSize   int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	shippingFee, err := getEnvAsDecimal("SHIPPING_FEE", decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	taxRate, err := getEnvAsDecimal("TAX_RATE", decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "ecoshopy"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime:   getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			Migrate:           getEnvAsBool("DB_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:      getEnv("API_KEY", ""),
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-south-1"),
			Prefix:  getEnv("S3_PREFIX", "carts/"),
		},
		CartStore: CartStoreConfig{
			Dir: getEnv("CART_STORE_DIR", "data/carts"),
		},
		Payment: PaymentConfig{
			KeyID:            getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:        getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:          getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Currency:         getEnv("PAYMENT_CURRENCY", "INR"),
			VerifySignatures: getEnvAsBool("PAYMENT_VERIFY_SIGNATURES", true),
			Timeout:          getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),
		},
		Checkout: CheckoutConfig{
			ShippingFee:    shippingFee,
			TaxRatePercent: taxRate,
		},
		Reconcile: ReconcileConfig{
			Enabled:     getEnvAsBool("RECONCILE_ENABLED", false),
			Interval:    getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute),
			StaleAfter:  getEnvAsDuration("RECONCILE_STALE_AFTER", 30*time.Minute),
			Concurrency: getEnvAsInt("RECONCILE_CONCURRENCY", 4),
			BatchSize:   getEnvAsInt("RECONCILE_BATCH_SIZE", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Database.MaxConnIdleTime < 0 || c.Database.HealthCheckPeriod < 0 {
		return fmt.Errorf("database idle time and health check period cannot be negative")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.AdminAPIKey == "" {
		return fmt.Errorf("admin API key is required")
	}

	if c.Auth.AdminAPIKey == c.Auth.APIKey {
		return fmt.Errorf("admin API key must differ from the API key")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	} else if c.CartStore.Dir == "" {
		return fmt.Errorf("cart store directory is required when S3 is disabled")
	}

	if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
		return fmt.Errorf("razorpay key id and secret are required")
	}

	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("invalid payment currency: %s", c.Payment.Currency)
	}

	if c.Checkout.ShippingFee.IsNegative() {
		return fmt.Errorf("shipping fee cannot be negative")
	}

	if c.Checkout.TaxRatePercent.IsNegative() || c.Checkout.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("tax rate must be between 0 and 100 percent")
	}

	if c.Reconcile.Enabled {
		if c.Reconcile.Interval <= 0 {
			return fmt.Errorf("reconcile interval must be positive")
		}
		if c.Reconcile.StaleAfter <= 0 {
			return fmt.Errorf("reconcile stale-after must be positive")
		}
		if c.Reconcile.Concurrency < 1 {
			return fmt.Errorf("reconcile concurrency must be at least 1")
		}
		if c.Reconcile.BatchSize < 1 {
			return fmt.Errorf("reconcile batch size must be at least 1")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal. A malformed
// value is an error rather than a fallback to the default.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %q", key, value)
	}
	return d, nil
}
