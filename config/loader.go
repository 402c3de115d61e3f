package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	validator *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load reads path on top of Defaults. An empty path falls back to the
// EnvPath variable and then to the defaults alone. ${VAR} references in the
// file are expanded from the environment.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}

	config := l.Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := l.validator.Struct(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (l *Loader) Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Documents: DocumentsConfig{
			Backend: "clover",
			Path:    "storefront-data",
		},
		Storage: StorageConfig{
			Backend:     "documents",
			RedisPrefix: "storefront:",
		},
		Fetch: FetchConfig{
			CacheDuration: 5 * time.Minute,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Checkout: CheckoutConfig{
			TaxRate:  0.08,
			Currency: "usd",
		},
		Payment: PaymentConfig{
			Provider:       "simulated",
			SimulatedDelay: 2 * time.Second,
			Workers:        4,
		},
		NATS: NATSConfig{
			SubjectPrefix: "storefront",
		},
		Metrics: MetricsConfig{
			Namespace: "storefront",
		},
	}
}
