// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Server holds the webhook listener settings. The TradingView secret is
// never stored in YAML; it only arrives via environment.
type Server struct {
	Port              int    `yaml:"port"`
	TradingViewSecret string `yaml:"-"`
}

// Exchange describes the market data connection and the tracked products.
type Exchange struct {
	WsURL    string   `yaml:"ws_url"`
	Provider string   `yaml:"provider"`
	Products []string `yaml:"products"`
}

// Paper tunes how alerts are converted into simulated positions.
type Paper struct {
	TradeNotionalUSD float64 `yaml:"trade_notional_usd"`
	Leverage         string  `yaml:"leverage"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
}

// Mongo holds the trade store connection settings.
type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Server   Server   `yaml:"server"`
	Exchange Exchange `yaml:"exchange"`
	Paper    Paper    `yaml:"paper"`
	Mongo    Mongo    `yaml:"mongo"`
}

// Load reads a YAML file from disk, hydrates a Config struct, and applies
// environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	config.applyEnvOverrides()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.WsURL == "" {
		c.Exchange.WsURL = "wss://ws-feed.exchange.coinbase.com"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "main"
	}
	if c.Paper.Leverage == "" {
		c.Paper.Leverage = "1x"
	}
}

// applyEnvOverrides lets deployment environments win over the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("TRADINGVIEW_SECRET"); v != "" {
		c.Server.TradingViewSecret = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	}
}

// Validate rejects configurations the bot cannot safely start with.
func (c *Config) Validate() error {
	if c.Server.TradingViewSecret == "" {
		return fmt.Errorf("TRADINGVIEW_SECRET must be set")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI must be set")
	}
	if len(c.Exchange.Products) == 0 {
		return fmt.Errorf("exchange.products must list at least one pair")
	}
	if c.Paper.TradeNotionalUSD <= 0 {
		return fmt.Errorf("paper.trade_notional_usd must be positive")
	}
	return nil
}
