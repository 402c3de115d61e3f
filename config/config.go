// Package config loads the storefront's YAML configuration.
package config

import "time"

// EnvPath names the environment variable holding the config file path.
const EnvPath = "STOREFRONT_CONFIG"

type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Documents DocumentsConfig `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Payment   PaymentConfig   `yaml:"payment"`
	Identity  IdentityConfig  `yaml:"identity"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	Output string `yaml:"output" validate:"oneof=stdout stderr file"`
	File   string `yaml:"file" validate:"required_if=Output file"`
}

// DocumentsConfig selects the document database holding products, orders
// and users.
type DocumentsConfig struct {
	Backend         string `yaml:"backend" validate:"oneof=clover firestore"`
	Path            string `yaml:"path" validate:"required_if=Backend clover"`
	ProjectID       string `yaml:"project_id" validate:"required_if=Backend firestore"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StorageConfig selects where carts, wishlists, notifications and the
// session are kept.
type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=documents memory redis postgres"`
	RedisAddr   string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPass   string `yaml:"redis_password"`
	RedisDB     int    `yaml:"redis_db" validate:"gte=0"`
	RedisPrefix string `yaml:"redis_prefix"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
}

type FetchConfig struct {
	CacheDuration time.Duration `yaml:"cache_duration" validate:"gte=0"`
	RetryAttempts int           `yaml:"retry_attempts" validate:"gte=0,lte=10"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`
	DisableCache  bool          `yaml:"disable_cache"`
}

type CheckoutConfig struct {
	TaxRate  float64 `yaml:"tax_rate" validate:"gte=0,lt=1"`
	Currency string  `yaml:"currency" validate:"len=3"`
}

type PaymentConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=simulated stripe"`
	StripeKey      string        `yaml:"stripe_secret_key" validate:"required_if=Provider stripe"`
	SimulatedDelay time.Duration `yaml:"simulated_delay" validate:"gte=0"`
	Workers        int           `yaml:"workers" validate:"gte=1"`
}

type IdentityConfig struct {
	FirebaseProjectID   string `yaml:"firebase_project_id"`
	FirebaseCredentials string `yaml:"firebase_credentials"`
}

type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}
