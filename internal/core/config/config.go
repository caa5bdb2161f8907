package config

import (
	"time"

	"github.com/vietddude/tradedesk/internal/core/domain"
	redisclient "github.com/vietddude/tradedesk/internal/infra/redis"
	"github.com/vietddude/tradedesk/internal/infra/rpc/routing"
	"github.com/vietddude/tradedesk/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Solana        SolanaConfig        `yaml:"solana"`
	Birdeye       BirdeyeConfig       `yaml:"birdeye"`
	GeckoTerminal GeckoTerminalConfig `yaml:"geckoterminal"`
	Redis         redisclient.Config  `yaml:"redis"`
	Database      postgres.Config     `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SolanaConfig lists RPC endpoints in failover order; the first is the primary.
type SolanaConfig struct {
	Endpoints []domain.Endpoint `yaml:"endpoints"`
	Timeout   time.Duration     `yaml:"timeout"`
}

// BirdeyeConfig holds settings for the Birdeye API.
type BirdeyeConfig struct {
	BaseURL           string              `yaml:"base_url"`
	APIKey            string              `yaml:"api_key"`
	Chain             string              `yaml:"chain"`
	RequestsPerSecond float64             `yaml:"requests_per_second"` // 0 = unpaced
	Retry             routing.RetryConfig `yaml:"retry"`
}

// GeckoTerminalConfig holds settings for the GeckoTerminal API.
type GeckoTerminalConfig struct {
	BaseURL           string              `yaml:"base_url"`
	Network           string              `yaml:"network"`
	RequestsPerSecond float64             `yaml:"requests_per_second"`
	Retry             routing.RetryConfig `yaml:"retry"`
}
