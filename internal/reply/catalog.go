package reply

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Message keys of the embedded catalog.
const (
	KeyWelcome             = "welcome"
	KeyHelp                = "help"
	KeyEnterCity           = "enter_city"
	KeyWeather             = "weather"
	KeyNotFound            = "not_found"
	KeyProviderError       = "provider_error"
	KeyTransportTimeout    = "transport_timeout"
	KeyTransportNetwork    = "transport_network"
	KeyTransportUnexpected = "transport_unexpected"
	KeyGenericError        = "generic_error"
)

var requiredKeys = []string{
	KeyWelcome, KeyHelp, KeyEnterCity, KeyWeather, KeyNotFound, KeyProviderError,
	KeyTransportTimeout, KeyTransportNetwork, KeyTransportUnexpected, KeyGenericError,
}

//go:embed messages.yaml
var defaultMessages []byte

// Catalog holds the fixed reply texts.
type Catalog struct {
	messages map[string]string
}

// DefaultCatalog parses the embedded messages.yaml.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultMessages)
}

// ParseCatalog parses a flat YAML mapping and checks every required key is present.
func ParseCatalog(data []byte) (*Catalog, error) {
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse messages: %w", err)
	}
	for _, key := range requiredKeys {
		if messages[key] == "" {
			return nil, fmt.Errorf("messages: missing key %q", key)
		}
	}
	return &Catalog{messages: messages}, nil
}

// T returns the text for key, formatted with args when given.
// Unknown keys come back as-is.
func (c *Catalog) T(key string, args ...interface{}) string {
	format, ok := c.messages[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
