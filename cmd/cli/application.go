package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/reps/internal/synccmd"
	"github.com/temirov/reps/internal/utils"
	flagutils "github.com/temirov/reps/internal/utils/flags"
)

const (
	applicationNameConstant              = "reps"
	applicationShortDescriptionConstant  = "Keep many git checkouts in sync with their remotes"
	applicationLongDescriptionConstant   = "reps records a set of git checkouts in a registry file and fetches, merges, inspects and compacts them together."
	configFileFlagNameConstant           = "config"
	configFileFlagUsageConstant          = "Configuration file to read instead of searching for config.yaml."
	logLevelFlagNameConstant             = "log-level"
	logLevelFlagUsageConstant            = "Log level for this run."
	logFormatFlagNameConstant            = "log-format"
	logFormatFlagUsageConstant           = "Log format for this run."
	registryFlagNameConstant             = "registry"
	registryFlagUsageConstant            = "Registry file to operate on (overrides sync.registry_file)."
	configurationResolvedMessageConstant = "Resolved configuration"
	logFieldLogLevelConstant             = "log_level"
	logFieldLogFormatConstant            = "log_format"
	logFieldConfigFileConstant           = "config_file"
	logFieldSourcesConstant              = "sources"
	logFieldEnvironmentConstant          = "environment_overrides"
	logFieldRegistryFileConstant         = "registry_file"
	configurationErrorTemplateConstant   = "configuration: %w"
	loggerErrorTemplateConstant          = "logger: %w"
	loggerFlushErrorTemplateConstant     = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant    = "unable to build sync commands: %w"
)

// applicationVersion is replaced at link time with -ldflags "-X".
var applicationVersion = "dev"

// rootFlagValues receives the persistent flags shared by every reps command.
type rootFlagValues struct {
	configurationFile string
	logLevel          string
	logFormat         string
	registryFile      string
}

// Application owns the reps root command together with the configuration and logger
// resolved before any subcommand runs.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	flags                  rootFlagValues
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication builds the root command with the persistent flags and the sync commands attached.
func NewApplication() *Application {
	application := &Application{
		configurationLoader:    newConfigurationLoader(),
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	application.rootCommand = &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	application.rootCommand.SetContext(context.Background())

	application.bindPersistentFlags()
	application.attachSyncCommands()
	return application
}

// Execute runs the command line and flushes the logger afterwards.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if flushError := application.logger.Sync(); flushError != nil && executionError == nil {
		return fmt.Errorf(loggerFlushErrorTemplateConstant, flushError)
	}
	return executionError
}

// Execute runs reps with the process arguments.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) bindPersistentFlags() {
	persistentFlags := application.rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.flags.configurationFile, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.flags.logLevel, logLevelFlagNameConstant, "", utils.SupportedLogLevels(), logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.flags.logFormat, logFormatFlagNameConstant, "", utils.SupportedLogFormats(), logFormatFlagUsageConstant)
	persistentFlags.StringVar(&application.flags.registryFile, registryFlagNameConstant, "", registryFlagUsageConstant)
	flagutils.BindExecutionFlags(application.rootCommand, flagutils.ExecutionDefaults{}, flagutils.DefaultExecutionFlagDefinitions())
}

func (application *Application) attachSyncCommands() {
	builder := synccmd.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() synccmd.CommandConfiguration {
			return application.configuration.Sync
		},
		Input: os.Stdin,
	}

	syncCommands, buildError := builder.Build()
	if buildError != nil {
		application.rootCommand.RunE = func(*cobra.Command, []string) error {
			return fmt.Errorf(commandBuildErrorTemplateConstant, buildError)
		}
		return
	}
	application.rootCommand.AddCommand(syncCommands...)
}

// initializeConfiguration resolves configuration for command, replaces the no-op logger and
// passes the configuration file and any --registry override down through the command context.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loaded, loadError := application.configurationLoader.LoadConfiguration(application.flags.configurationFile, configurationDefaults(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationErrorTemplateConstant, loadError)
	}

	if flagutils.Changed(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.flags.logLevel
	}
	if flagutils.Changed(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.flags.logFormat
	}

	logger, loggerError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerError != nil {
		return fmt.Errorf(loggerErrorTemplateConstant, loggerError)
	}
	application.logger = logger

	sourceNames := make([]string, 0, len(loaded.Sources))
	for _, source := range loaded.Sources {
		sourceNames = append(sourceNames, string(source))
	}
	application.logger.Debug(
		configurationResolvedMessageConstant,
		zap.String(logFieldLogLevelConstant, application.configuration.Common.LogLevel),
		zap.String(logFieldLogFormatConstant, application.configuration.Common.LogFormat),
		zap.String(logFieldConfigFileConstant, loaded.ConfigFileUsed),
		zap.Strings(logFieldSourcesConstant, sourceNames),
		zap.Strings(logFieldEnvironmentConstant, loaded.EnvironmentOverrides),
		zap.String(logFieldRegistryFileConstant, application.configuration.Sync.RegistryFile),
	)

	application.propagateContext(command, loaded.ConfigFileUsed)
	return nil
}

func (application *Application) propagateContext(command *cobra.Command, configurationFilePath string) {
	if command == nil {
		return
	}
	commandContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), configurationFilePath)
	if flagutils.Changed(command, registryFlagNameConstant) {
		commandContext = application.commandContextAccessor.WithRegistryFilePath(commandContext, strings.TrimSpace(application.flags.registryFile))
	}
	command.SetContext(commandContext)
	if rootCommand := command.Root(); rootCommand != nil {
		rootCommand.SetContext(commandContext)
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return application.configuration.loggingIsHumanReadable()
}
