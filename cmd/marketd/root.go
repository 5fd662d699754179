package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arkade-os/marketd/internal/config"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const configFileName = "marketd"

// EnvReplacer replaces `-` to `_`.
// This is used to map flag like `--my-param` to environment variables like `MY_PARAM`.
var envReplacer = strings.NewReplacer("-", "_")

func init() {
	viper.SetEnvPrefix("MARKETD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(envReplacer)
}

// loadConfigFile reads the optional marketd.{yaml,toml,json} file from the
// datadir and uses its values for every flag not set on the command line or
// through env vars.
func loadConfigFile(c *cli.Context) error {
	viper.SetConfigName(configFileName)
	viper.AddConfigPath(c.String(config.Datadir.Name))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %s", err)
	}

	for _, flag := range config.Flags {
		name := flag.Names()[0]
		if c.IsSet(name) || !viper.InConfig(name) {
			continue
		}
		if err := c.Set(name, viper.GetString(name)); err != nil {
			return fmt.Errorf("invalid %s in config file: %s", name, err)
		}
	}
	return nil
}
