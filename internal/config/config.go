// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// DBConnStr is a full PostgreSQL connection string. When empty it is built
	// from the individual DB_* variables.
	DBConnStr  string `koanf:"DB_CONN_STR"`
	DBHost     string `koanf:"DB_HOST"`
	DBPort     int    `koanf:"DB_PORT"`
	DBUser     string `koanf:"DB_USER"`
	DBPassword string `koanf:"DB_PASSWORD"`
	DBName     string `koanf:"DB_NAME"`

	// APIToken is the token every gRPC call must carry in its authorization metadata.
	APIToken string `koanf:"API_TOKEN"`
	// GRPCAddr is the address the gRPC server listens on.
	GRPCAddr string `koanf:"GRPC_ADDR"`

	LogLevel string `koanf:"LOG_LEVEL"`
	LogJSON  bool   `koanf:"LOG_JSON"`

	// FXBaseCurrency is the currency all exchange rates are quoted against.
	FXBaseCurrency string `koanf:"FX_BASE_CURRENCY"`
	// FXRates seeds the rate table, e.g. "EUR=0.92,JPY=150".
	FXRates string `koanf:"FX_RATES"`
	// FXRefreshInterval is how often stored rates are reloaded. Zero disables refreshing.
	FXRefreshInterval time.Duration `koanf:"FX_REFRESH_INTERVAL"`

	// TransferSameCurrencyOnly rejects cross-currency transfers by clearing
	// the other account when currencies differ.
	TransferSameCurrencyOnly bool `koanf:"TRANSFER_SAME_CURRENCY_ONLY"`

	// AccountCacheSize is the number of accounts kept in the in-memory lookup cache.
	AccountCacheSize int `koanf:"ACCOUNT_CACHE_SIZE"`
}

// Load reads the configuration from the environment and applies defaults
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DBHost == "" {
		c.DBHost = "localhost"
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBUser == "" {
		c.DBUser = "postgres"
	}
	if c.DBPassword == "" {
		c.DBPassword = "postgres"
	}
	if c.DBName == "" {
		c.DBName = "wealthflow"
	}
	if c.APIToken == "" {
		c.APIToken = "dev-token"
	}
	if c.GRPCAddr == "" {
		c.GRPCAddr = ":8080"
	}
	if c.FXBaseCurrency == "" {
		c.FXBaseCurrency = "USD"
	}
	if c.AccountCacheSize <= 0 {
		c.AccountCacheSize = 256
	}
}

// ConnectionString returns DBConnStr, or builds one from the individual DB settings
func (c *Config) ConnectionString() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
