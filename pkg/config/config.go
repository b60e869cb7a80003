// Package config exposes environment-backed configuration values through viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config gives read access to configuration values.
type Config interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *viperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *viperConfig) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *viperConfig) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// FromEnv reads dotted keys from prefixed environment variables, so "database.password"
// with prefix "paycorex" resolves PAYCOREX_DATABASE_PASSWORD.
func FromEnv(prefix string) Config {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &viperConfig{v: v}
}

// OverrideString replaces *dst when key is set.
func OverrideString(c Config, key string, dst *string) {
	if c.IsSet(key) {
		*dst = c.GetString(key)
	}
}

// OverrideInt replaces *dst when key is set.
func OverrideInt(c Config, key string, dst *int) {
	if c.IsSet(key) {
		*dst = c.GetInt(key)
	}
}

// OverrideBool replaces *dst when key is set.
func OverrideBool(c Config, key string, dst *bool) {
	if c.IsSet(key) {
		*dst = c.GetBool(key)
	}
}

// OverrideDuration replaces *dst when key is set.
func OverrideDuration(c Config, key string, dst *time.Duration) {
	if c.IsSet(key) {
		*dst = c.GetDuration(key)
	}
}

// OverrideStringSlice replaces *dst when key is set. Values are comma separated.
func OverrideStringSlice(c Config, key string, dst *[]string) {
	if !c.IsSet(key) {
		return
	}
	raw := c.GetString(key)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
