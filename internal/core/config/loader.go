package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/tradedesk/internal/infra/market/birdeye"
	"github.com/vietddude/tradedesk/internal/infra/market/geckoterminal"
	"github.com/vietddude/tradedesk/internal/infra/rpc/routing"
)

// Load reads configuration from a YAML file, applies defaults and validates it.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Solana.Timeout == 0 {
		c.Solana.Timeout = 10 * time.Second
	}
	for i := range c.Solana.Endpoints {
		if c.Solana.Endpoints[i].Name == "" {
			c.Solana.Endpoints[i].Name = fmt.Sprintf("endpoint-%d", i)
		}
	}

	if c.Birdeye.BaseURL == "" {
		c.Birdeye.BaseURL = birdeye.DefaultBaseURL
	}
	if c.Birdeye.Chain == "" {
		c.Birdeye.Chain = birdeye.DefaultChain
	}
	c.Birdeye.Retry = retryDefaults(c.Birdeye.Retry)

	if c.GeckoTerminal.BaseURL == "" {
		c.GeckoTerminal.BaseURL = geckoterminal.DefaultBaseURL
	}
	if c.GeckoTerminal.Network == "" {
		c.GeckoTerminal.Network = geckoterminal.DefaultNetwork
	}
	c.GeckoTerminal.Retry = retryDefaults(c.GeckoTerminal.Retry)

	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Second
	}
}

// retryDefaults fills a retry block. A zero value only occurs when the block
// is absent from the file, since decoding a present block fills its defaults.
func retryDefaults(r routing.RetryConfig) routing.RetryConfig {
	if r == (routing.RetryConfig{}) {
		return routing.DefaultRetryConfig
	}
	return r.WithDefaults()
}

// Validate rejects configurations the service cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if len(c.Solana.Endpoints) == 0 {
		errs = append(errs, errors.New("solana.endpoints: at least one endpoint is required"))
	}
	for i, ep := range c.Solana.Endpoints {
		if u, err := url.Parse(ep.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("solana.endpoints[%d]: invalid url %q", i, ep.URL))
		}
	}
	if err := c.Birdeye.Retry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("birdeye.retry: %w", err))
	}
	if err := c.GeckoTerminal.Retry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("geckoterminal.retry: %w", err))
	}
	if c.Birdeye.RequestsPerSecond < 0 || c.GeckoTerminal.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests_per_second must be >= 0"))
	}
	return errors.Join(errs...)
}
