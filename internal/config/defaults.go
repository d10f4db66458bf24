package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultCoinGeckoURL   = "https://api.coingecko.com/api/v3"
	DefaultCoinPaprikaURL = "https://api.coinpaprika.com/v1"
	DefaultCoinCapURL     = "https://api.coincap.io/v2"

	DefaultProviderTimeout = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 1 * time.Second
	DefaultRateLimitRPS    = 1.0

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultSweepInterval   = 6 * time.Hour
	DefaultBootstrapTopN   = 100
	DefaultCSVPath         = "data/crypto_market.csv"
	DefaultRefreshInterval = 20 * time.Minute

	DefaultServerPort = 8080
)

func (c *Config) applyDefaults() {
	// Provider defaults
	if c.Providers.CoinGecko.BaseURL == "" {
		c.Providers.CoinGecko.BaseURL = DefaultCoinGeckoURL
	}
	if c.Providers.CoinPaprika.BaseURL == "" {
		c.Providers.CoinPaprika.BaseURL = DefaultCoinPaprikaURL
	}
	if c.Providers.CoinCap.BaseURL == "" {
		c.Providers.CoinCap.BaseURL = DefaultCoinCapURL
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = DefaultProviderTimeout
	}
	if c.Providers.MaxRetries == 0 {
		c.Providers.MaxRetries = DefaultMaxRetries
	}
	if c.Providers.RetryBackoff == 0 {
		c.Providers.RetryBackoff = DefaultRetryBackoff
	}
	if c.Providers.RateLimitRPS == 0 {
		c.Providers.RateLimitRPS = DefaultRateLimitRPS
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// ETL defaults
	if len(c.ETL.Sources) == 0 {
		c.ETL.Sources = []string{"coingecko", "coinpaprika", "csv"}
	}
	if c.ETL.SweepInterval == 0 {
		c.ETL.SweepInterval = DefaultSweepInterval
	}
	if c.ETL.BootstrapTopN == 0 {
		c.ETL.BootstrapTopN = DefaultBootstrapTopN
	}

	// CSV defaults
	if c.CSV.Path == "" {
		c.CSV.Path = DefaultCSVPath
	}
	if c.CSV.RefreshInterval == 0 {
		c.CSV.RefreshInterval = DefaultRefreshInterval
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}
