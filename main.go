package main

import (
	"errors"
	"fmt"

	"github.com/bond-vault/bv-api/cmd"

	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/bond-vault/")
	viper.AddConfigPath("$HOME/.config/bond-vault")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		// running on environment variables and flags alone is supported
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
