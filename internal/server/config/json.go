package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gridconsole/internal/flagx"
	"github.com/dmitrijs2005/gridconsole/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrMetrics          string         `json:"endpoint_addr_metrics"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	MaxFailedLogins              int            `json:"max_failed_logins"`
	LockDuration                 timex.Duration `json:"lock_duration"`
	AdminUsername                string         `json:"admin_username"`
	AdminPassword                string         `json:"admin_password"`
}

// parseJson overlays config with the file named by -c/-config. Keys absent
// from the file keep their current values. Read or decode errors panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrMetrics, c.EndpointAddrMetrics)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.LockDuration.Duration > 0 {
		config.LockDuration = c.LockDuration.Duration
	}
	if c.MaxFailedLogins > 0 {
		config.MaxFailedLogins = c.MaxFailedLogins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
