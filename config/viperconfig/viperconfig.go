// Package viperconfig reads cache settings from a config file and the
// environment through spf13/viper.
//
// With no env prefix the connection string key
// "azure.storage.blob.connectionstring" also resolves from
// AZURE_STORAGE_BLOB_CONNECTIONSTRING.
package viperconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/blobcontainer"
	"github.com/unkn0wn-root/blobcontainer/httpclient"
)

const (
	keyMaxConns     = "transport.max_conns_per_host"
	keyConnLifetime = "transport.conn_lifetime"
	keyTimeout      = "transport.timeout"
	keyAccess       = "container.access"
)

type Options struct {
	// Path of a config file (yaml, json, toml, ...). Empty searches for
	// "blobcontainer.*" in the working directory; a missing file is fine.
	Path      string
	EnvPrefix string
}

type Config struct {
	v *viper.Viper
}

var _ blobcontainer.Config = (*Config)(nil)

func Load(opts Options) (*Config, error) {
	v := viper.New()
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyMaxConns, httpclient.DefaultMaxConnsPerHost)
	v.SetDefault(keyConnLifetime, httpclient.DefaultConnLifetime)
	v.SetDefault(keyTimeout, httpclient.DefaultTimeout)
	v.SetDefault(keyAccess, "private")

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("blobcontainer")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return &Config{v: v}, nil
}

// FromViper wraps an existing instance, e.g. one shared with the rest of an
// application.
func FromViper(v *viper.Viper) *Config { return &Config{v: v} }

func (c *Config) GetRequiredString(key string) (string, error) {
	s := strings.TrimSpace(c.v.GetString(key))
	if s == "" {
		return "", fmt.Errorf("%w: %q", blobcontainer.ErrConfigurationMissing, key)
	}
	return s, nil
}

func (c *Config) Transport() httpclient.Settings {
	return httpclient.Settings{
		MaxConnsPerHost: c.v.GetInt(keyMaxConns),
		ConnLifetime:    c.v.GetDuration(keyConnLifetime),
		Timeout:         c.v.GetDuration(keyTimeout),
	}.WithDefaults()
}

func (c *Config) Access() (blobcontainer.AccessPolicy, error) {
	return blobcontainer.ParseAccessPolicy(c.v.GetString(keyAccess))
}
