package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gtdkeeper/internal/flagx"
	"github.com/dmitrijs2005/gtdkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	PinSalt         string         `json:"pin_salt"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.PinSalt != "" {
		cfg.PinSalt = jc.PinSalt
	}
	if jc.ShutdownTimeout.Duration != 0 {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
}
