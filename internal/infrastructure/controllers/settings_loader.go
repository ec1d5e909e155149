package controllers

import (
	"errors"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

var errNoSettings = errors.New(
	"no config file found and no BITBUCKET_* variables set\n" +
		"Specify one with --config, create .bitbucket-provider.yaml or export BITBUCKET_TOKEN",
)

// loadSettings reads --config, then the default config locations, then
// falls back to the environment.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfgPath := configPath
	if cfgPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file: %v", err)
			if settings := entities.NewSettingsFromEnvironment(entities.EnvironMap(os.Environ())); settings != nil {
				logger.Debug("Using settings from the environment")
				return settings, nil
			}
			return nil, errNoSettings
		}
		cfgPath = found
	}

	logger.Debugf("Using config file: %s", cfgPath)

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return settings, nil
}
