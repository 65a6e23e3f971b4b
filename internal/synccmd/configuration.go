package synccmd

import (
	"strings"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/registry"
)

const (
	// DefaultRegistryFileName is the registry file used when none is configured.
	DefaultRegistryFileName = ".reps.yaml"

	registryFileConfigurationKeyConstant        = "registry_file"
	concurrencyConfigurationKeyConstant         = "concurrency"
	networkConcurrencyConfigurationKeyConstant  = "network_concurrency"
	assumeYesConfigurationKeyConstant           = "assume_yes"
	maxDepthConfigurationKeyConstant            = "max_depth"
	excludedDirectoriesConfigurationKeyConstant = "excluded_directories"
	configurationKeySeparatorConstant           = "."
)

// CommandConfiguration captures the sync section of the application configuration.
type CommandConfiguration struct {
	RegistryFile        string   `mapstructure:"registry_file"`
	Concurrency         int      `mapstructure:"concurrency"`
	NetworkConcurrency  int      `mapstructure:"network_concurrency"`
	AssumeYes           bool     `mapstructure:"assume_yes"`
	MaxDepth            int      `mapstructure:"max_depth"`
	ExcludedDirectories []string `mapstructure:"excluded_directories"`
}

// DefaultCommandConfiguration returns the built-in sync settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RegistryFile:        DefaultRegistryFileName,
		Concurrency:         registry.DefaultConcurrency,
		NetworkConcurrency:  gitcli.DefaultNetworkConcurrency,
		ExcludedDirectories: []string{},
	}
}

// DefaultConfigurationValues exposes the defaults as viper keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	qualify := func(key string) string {
		if len(prefix) == 0 {
			return key
		}
		return prefix + configurationKeySeparatorConstant + key
	}
	return map[string]any{
		qualify(registryFileConfigurationKeyConstant):        defaults.RegistryFile,
		qualify(concurrencyConfigurationKeyConstant):         defaults.Concurrency,
		qualify(networkConcurrencyConfigurationKeyConstant):  defaults.NetworkConcurrency,
		qualify(assumeYesConfigurationKeyConstant):           defaults.AssumeYes,
		qualify(maxDepthConfigurationKeyConstant):            defaults.MaxDepth,
		qualify(excludedDirectoriesConfigurationKeyConstant): defaults.ExcludedDirectories,
	}
}

// Sanitize trims values and replaces out-of-range numbers with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.RegistryFile = strings.TrimSpace(configuration.RegistryFile)
	if len(sanitized.RegistryFile) == 0 {
		sanitized.RegistryFile = defaults.RegistryFile
	}
	if sanitized.Concurrency < 1 {
		sanitized.Concurrency = defaults.Concurrency
	}
	if sanitized.NetworkConcurrency < 1 {
		sanitized.NetworkConcurrency = defaults.NetworkConcurrency
	}
	if sanitized.MaxDepth < 0 {
		sanitized.MaxDepth = defaults.MaxDepth
	}
	sanitized.ExcludedDirectories = make([]string, 0, len(configuration.ExcludedDirectories))
	for _, excludedDirectory := range configuration.ExcludedDirectories {
		if trimmedDirectory := strings.TrimSpace(excludedDirectory); len(trimmedDirectory) > 0 {
			sanitized.ExcludedDirectories = append(sanitized.ExcludedDirectories, trimmedDirectory)
		}
	}
	return sanitized
}
