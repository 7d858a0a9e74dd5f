package backend

import (
	"github.com/goccy/go-json"
)

// Configuration holds a complete backend configuration
type Configuration struct {
	// URLPrefix is the common prefix of all model routes, default "/api"
	URLPrefix string `json:"url_prefix"`
	// Convenience enables GET aliases for the modifying operations
	Convenience bool `json:"convenience"`
	// CORS is one of "common", "model" or "none", default "common"
	CORS string `json:"cors"`
	// Models are model definitions, see model.Definition
	Models json.RawMessage `json:"models,omitempty"`
}

// ParseConfiguration parses a JSON backend configuration and applies the defaults
func ParseConfiguration(data string) (Configuration, error) {
	var config Configuration
	if data != "" {
		if err := json.Unmarshal([]byte(data), &config); err != nil {
			return config, err
		}
	}
	config.applyDefaults()
	return config, nil
}

func (c *Configuration) applyDefaults() {
	if c.URLPrefix == "" {
		c.URLPrefix = "/api"
	}
	if c.CORS == "" {
		c.CORS = "common"
	}
}
