package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant        = "."
	environmentNameSeparatorConstant         = "_"
	listValueSeparatorConstant               = ","
	embeddedDocumentErrorTemplateConstant    = "embedded configuration is invalid: %w"
	configurationFileErrorTemplateConstant   = "configuration file could not be read: %w"
	configurationDecodeErrorTemplateConstant = "configuration could not be decoded: %w"
)

// ConfigurationSource names a layer that contributed values to a loaded configuration.
type ConfigurationSource string

// Configuration layers from lowest to highest precedence.
const (
	ConfigurationSourceDefaults    ConfigurationSource = "defaults"
	ConfigurationSourceEmbedded    ConfigurationSource = "embedded"
	ConfigurationSourceFile        ConfigurationSource = "file"
	ConfigurationSourceEnvironment ConfigurationSource = "environment"
)

// LoadedConfiguration describes where the decoded values came from.
type LoadedConfiguration struct {
	ConfigFileUsed       string
	Sources              []ConfigurationSource
	EnvironmentOverrides []string
}

type configurationDocument struct {
	content []byte
	format  string
}

// ConfigurationLoader decodes reps configuration from compiled-in defaults, a YAML file found
// on the search path and REPS_* environment variables.
type ConfigurationLoader struct {
	fileName          string
	fileFormat        string
	environmentPrefix string
	searchPaths       []string
	embedded          configurationDocument
}

// NewConfigurationLoader creates a loader looking for fileName in searchPaths. A key such as
// sync.concurrency is read from the environment as <environmentPrefix>_SYNC_CONCURRENCY.
func NewConfigurationLoader(fileName string, fileFormat string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		fileName:          fileName,
		fileFormat:        fileFormat,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration installs the document merged beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, format string) {
	if loader == nil {
		return
	}
	loader.embedded = configurationDocument{content: bytes.Clone(content), format: strings.TrimSpace(format)}
}

// LoadConfiguration decodes every layer into target. An explicit configurationFilePath must
// exist; without one a missing file on the search path is not an error. Comma-separated
// strings decode into slices and duration strings into time.Duration.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	reader := viper.New()
	reader.SetConfigName(loader.fileName)
	reader.SetConfigType(loader.fileFormat)
	for _, searchPath := range loader.searchPaths {
		reader.AddConfigPath(searchPath)
	}
	if len(configurationFilePath) > 0 {
		reader.SetConfigFile(configurationFilePath)
	}

	var loaded LoadedConfiguration
	if len(defaultValues) > 0 {
		for key, value := range defaultValues {
			reader.SetDefault(key, value)
		}
		loaded.Sources = append(loaded.Sources, ConfigurationSourceDefaults)
	}

	embeddedApplied, embeddedError := loader.mergeEmbedded(reader)
	if embeddedError != nil {
		return LoadedConfiguration{}, fmt.Errorf(embeddedDocumentErrorTemplateConstant, embeddedError)
	}
	if embeddedApplied {
		loaded.Sources = append(loaded.Sources, ConfigurationSourceEmbedded)
	}

	if fileError := reader.MergeInConfig(); fileError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(fileError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileErrorTemplateConstant, fileError)
		}
	}
	loaded.ConfigFileUsed = reader.ConfigFileUsed()
	if len(loaded.ConfigFileUsed) > 0 {
		loaded.Sources = append(loaded.Sources, ConfigurationSourceFile)
	}

	reader.SetEnvPrefix(loader.environmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentNameSeparatorConstant))
	reader.AutomaticEnv()
	loaded.EnvironmentOverrides = loader.environmentOverrides(reader.AllKeys())
	if len(loaded.EnvironmentOverrides) > 0 {
		loaded.Sources = append(loaded.Sources, ConfigurationSourceEnvironment)
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	))
	if decodeError := reader.Unmarshal(target, decodeHook); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}
	return loaded, nil
}

func (loader *ConfigurationLoader) mergeEmbedded(reader *viper.Viper) (bool, error) {
	if len(loader.embedded.content) == 0 {
		return false, nil
	}
	if len(loader.embedded.format) > 0 {
		reader.SetConfigType(loader.embedded.format)
		defer reader.SetConfigType(loader.fileFormat)
	}
	if mergeError := reader.MergeConfig(bytes.NewReader(loader.embedded.content)); mergeError != nil {
		return false, mergeError
	}
	return true, nil
}

// environmentOverrides lists the set environment variables that correspond to known keys.
func (loader *ConfigurationLoader) environmentOverrides(knownKeys []string) []string {
	var variableNames []string
	for _, key := range knownKeys {
		variableName := loader.environmentVariableName(key)
		if _, present := os.LookupEnv(variableName); present {
			variableNames = append(variableNames, variableName)
		}
	}
	sort.Strings(variableNames)
	return variableNames
}

func (loader *ConfigurationLoader) environmentVariableName(key string) string {
	variableName := strings.ToUpper(strings.ReplaceAll(key, configurationKeySeparatorConstant, environmentNameSeparatorConstant))
	if len(loader.environmentPrefix) == 0 {
		return variableName
	}
	return strings.ToUpper(loader.environmentPrefix) + environmentNameSeparatorConstant + variableName
}
