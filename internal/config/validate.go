package config

import (
	"errors"
	"fmt"

	"github.com/kasparro/crypto-etl/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Providers.CoinGecko.BaseURL == "" {
		return errors.New("providers.coingecko.base_url is required")
	}
	if c.Providers.CoinPaprika.BaseURL == "" {
		return errors.New("providers.coinpaprika.base_url is required")
	}
	if c.Providers.MaxRetries < 0 {
		return errors.New("providers.max_retries must be >= 0")
	}
	if c.Providers.RateLimitRPS <= 0 {
		return errors.New("providers.rate_limit_rps must be > 0")
	}

	for _, s := range c.ETL.Sources {
		if !model.SourceName(s).Valid() {
			return fmt.Errorf("etl.sources contains unknown source %q", s)
		}
	}
	if c.ETL.SweepInterval <= 0 {
		return errors.New("etl.sweep_interval must be > 0")
	}
	if c.ETL.BootstrapTopN < 1 {
		return errors.New("etl.bootstrap_top_n must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must be <= max_conns", prefix)
	}
	return nil
}

// Sources returns the configured source names as typed values.
func (c *Config) Sources() []model.SourceName {
	out := make([]model.SourceName, 0, len(c.ETL.Sources))
	for _, s := range c.ETL.Sources {
		out = append(out, model.SourceName(s))
	}
	return out
}
