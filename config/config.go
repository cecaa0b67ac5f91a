// Package config reads runtime settings from defaults, an optional config file
// and VITEL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/filters"
	"github.com/pumped-fn/vitel-go/internal/ctxlog"
)

// EnvPrefix is prepended to every environment override: log.level is read
// from VITEL_LOG_LEVEL
const EnvPrefix = "VITEL"

// Config holds application configuration.
type Config struct {
	Log            LogConfig     `mapstructure:"log"`
	Manifest       []string      `mapstructure:"manifest"`
	Install        InstallConfig `mapstructure:"install"`
	PromiseTimeout time.Duration `mapstructure:"promise_timeout"`
	Filters        FilterConfig  `mapstructure:"filters"`
}

// LogConfig holds logger settings. An empty Format lets the caller pick one
// for its output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InstallConfig mirrors vitel.InstallSettings.
type InstallConfig struct {
	AppFilter       bool `mapstructure:"app_filter"`
	AppService      bool `mapstructure:"app_service"`
	RegisterService bool `mapstructure:"register_service"`
}

// FilterConfig seeds the stock filters.
type FilterConfig struct {
	Locale   string `mapstructure:"locale"`
	Currency string `mapstructure:"currency"`
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration. path names the config file; when empty VITEL_CONFIG
// is used, and failing that vitel.{yaml,toml,json} in the working directory.
// A missing optional file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("manifest", []string{})
	v.SetDefault("install.app_filter", true)
	v.SetDefault("install.app_service", true)
	v.SetDefault("install.register_service", true)
	v.SetDefault("promise_timeout", vitel.DefaultPromiseTimeout)
	v.SetDefault("filters.locale", "en-AU")
	v.SetDefault("filters.currency", "AUD")
	v.SetDefault("filters.timezone", "")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("vitel")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// AppOptions maps the config onto app options, logging to w
func (c Config) AppOptions(w io.Writer) []vitel.AppOption {
	return []vitel.AppOption{
		vitel.WithLogger(ctxlog.New(c.Log.Level, c.Log.Format, w)),
		vitel.WithPromiseTimeout(c.PromiseTimeout),
	}
}

// InstallOptions maps the install section onto vitel.Install options
func (c Config) InstallOptions() []vitel.InstallOption {
	var opts []vitel.InstallOption
	if !c.Install.AppFilter {
		opts = append(opts, vitel.WithoutFilterVerb())
	}
	if !c.Install.AppService {
		opts = append(opts, vitel.WithoutServiceVerb())
	}
	if !c.Install.RegisterService {
		opts = append(opts, vitel.WithoutDirectory())
	}
	return opts
}

// FilterDefaults returns the defaults for filters.Register
func (c Config) FilterDefaults() filters.Defaults {
	return filters.Defaults{
		Locale:   c.Filters.Locale,
		Currency: c.Filters.Currency,
		Timezone: c.Filters.Timezone,
	}
}
