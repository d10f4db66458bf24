package config

import "time"

// Config is the root configuration for the ETL service.
type Config struct {
	Database  DBConfig        `yaml:"database"`
	Providers ProvidersConfig `yaml:"providers"`
	ETL       ETLConfig       `yaml:"etl"`
	CSV       CSVConfig       `yaml:"csv"`
	Server    ServerConfig    `yaml:"server"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ProvidersConfig holds upstream provider API settings.
type ProvidersConfig struct {
	CoinGecko   ProviderConfig `yaml:"coingecko"`
	CoinPaprika ProviderConfig `yaml:"coinpaprika"`
	CoinCap     ProviderConfig `yaml:"coincap"`

	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"` // Requests per second per provider
}

// ProviderConfig holds a single provider endpoint.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ETLConfig holds pipeline and scheduling settings.
type ETLConfig struct {
	Sources       []string      `yaml:"sources"`        // Source names in sweep order
	SweepInterval time.Duration `yaml:"sweep_interval"` // Interval between scheduled sweeps
	BootstrapTopN int           `yaml:"bootstrap_top_n"`
}

// CSVConfig holds settings for the CSV source and its refresher.
type CSVConfig struct {
	Path            string        `yaml:"path"`             // CSV ingested by the csv source
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Interval between CoinCap refreshes
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}
