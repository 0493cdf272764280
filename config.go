package blobcontainer

import "fmt"

// DefaultConnectionStringKey is where the storage connection string is read
// from unless Options.ConnectionStringKey says otherwise.
const DefaultConnectionStringKey = "azure.storage.blob.connectionstring"

// Config supplies required settings. GetRequiredString must return an error
// wrapping ErrConfigurationMissing when key is unset or empty.
// See config/viperconfig for a viper backed implementation.
type Config interface {
	GetRequiredString(key string) (string, error)
}

// StaticConfig is a fixed in-memory Config.
type StaticConfig map[string]string

func (c StaticConfig) GetRequiredString(key string) (string, error) {
	if v := c[key]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrConfigurationMissing, key)
}
