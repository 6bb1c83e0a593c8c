package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gridconsole/internal/flagx"
	"github.com/dmitrijs2005/gridconsole/internal/timex"
)

// JsonConfig is the on-disk shape. Durations accept "30m" style strings or
// integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabasePath       string         `json:"database_path"`
	IdleTimeout        timex.Duration `json:"idle_timeout"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	RefreshTimeout     timex.Duration `json:"refresh_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config. Keys missing from
// the file keep their current value. Read and decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.IdleTimeout.Duration > 0 {
		cfg.IdleTimeout = jc.IdleTimeout.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshTimeout.Duration > 0 {
		cfg.RefreshTimeout = jc.RefreshTimeout.Duration
	}
}
