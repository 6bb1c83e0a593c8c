package config

import "time"

// Config holds runtime settings for the console.
type Config struct {
	ServerEndpointAddr string
	// DatabasePath is the SQLite file that keeps credentials across restarts.
	DatabasePath   string
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "session.db"
	c.IdleTimeout = 30 * time.Minute
	c.RequestTimeout = 30 * time.Second
	c.RefreshTimeout = 10 * time.Second
}

// LoadConfig applies defaults, then the JSON file (if any), then flags.
// Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
