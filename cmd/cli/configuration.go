package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/reps/internal/synccmd"
	"github.com/temirov/reps/internal/utils"
)

const (
	environmentPrefixConstant          = "REPS"
	configurationNameConstant          = "config"
	configurationTypeConstant          = "yaml"
	workingDirectorySearchPathConstant = "."
	commonConfigurationKeyConstant     = "common"
	commonLogLevelConfigKeyConstant    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant   = commonConfigurationKeyConstant + ".log_format"
	syncConfigurationKeyConstant       = "sync"
)

// ApplicationConfiguration is the decoded form of config.yaml.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Sync   synccmd.CommandConfiguration   `mapstructure:"sync"`
}

// ApplicationCommonConfiguration holds the logging settings every command shares.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// newConfigurationLoader looks for config.yaml in the working directory, then in the reps
// directory under the user configuration directory.
func newConfigurationLoader() *utils.ConfigurationLoader {
	searchPaths := []string{workingDirectorySearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}

	loader := utils.NewConfigurationLoader(configurationNameConstant, configurationTypeConstant, environmentPrefixConstant, searchPaths)
	loader.SetEmbeddedConfiguration(DefaultConfiguration())
	return loader
}

// configurationDefaults seeds every key so that REPS_* variables resolve even when no file sets them.
func configurationDefaults() map[string]any {
	defaults := synccmd.DefaultConfigurationValues(syncConfigurationKeyConstant)
	defaults[commonLogLevelConfigKeyConstant] = string(utils.LogLevelInfo)
	defaults[commonLogFormatConfigKeyConstant] = string(utils.LogFormatStructured)
	return defaults
}

func (configuration ApplicationConfiguration) loggingIsHumanReadable() bool {
	return strings.EqualFold(strings.TrimSpace(configuration.Common.LogFormat), string(utils.LogFormatConsole))
}
