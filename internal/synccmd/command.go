package synccmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/reps/internal/execshell"
	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
	"github.com/temirov/reps/internal/registry"
	"github.com/temirov/reps/internal/repository"
	"github.com/temirov/reps/internal/ui"
	"github.com/temirov/reps/internal/utils"
	"github.com/temirov/reps/internal/utils/flags"
	pathutils "github.com/temirov/reps/internal/utils/path"
)

const (
	discoverUseConstant              = "discover [root]"
	discoverShortDescriptionConstant = "Register every checkout found beneath a directory"
	discoverLongDescriptionConstant  = "discover walks the directory tree under root (default: the current directory), records every checkout that has remotes together with its remote URLs, and saves them in the registry file."
	fetchUseConstant                 = "fetch [repository...]"
	fetchShortDescriptionConstant    = "Fetch all remotes of registered repositories"
	fetchLongDescriptionConstant     = "fetch reconciles the configured remotes of each selected repository with the registry, fetches every remote with pruning, and sets up local branches tracking remote branches."
	mergeUseConstant                 = "merge [repository...]"
	mergeShortDescriptionConstant    = "Merge tracked upstreams into local branches"
	mergeLongDescriptionConstant     = "merge stashes uncommitted work, merges each tracked upstream into its local branch, restores the checked-out revision and re-applies the stash."
	pullUseConstant                  = "pull [repository...]"
	pullShortDescriptionConstant     = "Fetch and then merge registered repositories"
	pullLongDescriptionConstant      = "pull runs fetch followed by merge for each selected repository. A repository whose fetch fails is not merged."
	statusUseConstant                = "status [repository...]"
	statusShortDescriptionConstant   = "Show remotes and branches of registered repositories"
	statusLongDescriptionConstant    = "status prints the remotes of each selected repository and a table of its local, remote-tracking and (with --remote) remote branches."
	compactUseConstant               = "compact [repository...]"
	compactShortDescriptionConstant  = "Pack loose objects of registered repositories"
	compactLongDescriptionConstant   = "compact reports the loose objects of each selected repository and runs git gc when any are present."
	cloneUseConstant                 = "clone <url> [path]"
	cloneShortDescriptionConstant    = "Clone a repository and register it"
	cloneLongDescriptionConstant     = "clone copies the repository at url into path (default: the last element of url without .git), names its remote origin, and adds the new checkout to the registry."

	flagMaxDepthNameConstant             = "max-depth"
	flagMaxDepthDescriptionConstant      = "Maximum directory depth searched below root (0 means unlimited)"
	flagRemoteNameConstant               = "remote"
	flagRemoteDescriptionConstant        = "Also list the branches advertised by each remote"
	flagCheckNameConstant                = "check"
	flagCheckDescriptionConstant         = "Only report loose objects without packing them"
	commandErrorTemplateConstant         = "%s failed: %w"
	discoverCommandNameConstant          = "discover"
	tooManyDiscoveryRootsTemplate        = "discover accepts at most one root directory, received %d"
	cloneMinimumArgumentsConstant        = 1
	cloneMaximumArgumentsConstant        = 2
	registryStoreLogNameConstant         = "registry"
	defaultExecutorLogNameConstant       = "git"
	logFieldCommandNameConstant          = "command"
	logFieldConfiguredRegistryConstant   = "registry_file"
	resolvedConfigurationMessageConstant = "Resolved configuration"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the sync configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the repository synchronization commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        ConfigurationProvider
	GitExecutor                  gitcli.GitExecutor
	Input                        *os.File
	Output                       io.Writer
}

type serviceAction func(executionContext context.Context, service *Service, command *cobra.Command, arguments []string) error

// Build constructs the discover, clone, fetch, merge, pull, status and compact commands.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	discoverCommand := builder.newCommand(discoverUseConstant, discoverShortDescriptionConstant, discoverLongDescriptionConstant, builder.runDiscover)
	discoverCommand.Flags().Int(flagMaxDepthNameConstant, 0, flagMaxDepthDescriptionConstant)

	cloneCommand := builder.newCommand(cloneUseConstant, cloneShortDescriptionConstant, cloneLongDescriptionConstant, builder.runClone)
	cloneCommand.Args = cobra.RangeArgs(cloneMinimumArgumentsConstant, cloneMaximumArgumentsConstant)

	fetchCommand := builder.newCommand(fetchUseConstant, fetchShortDescriptionConstant, fetchLongDescriptionConstant,
		func(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
			return service.Fetch(executionContext, arguments)
		})
	mergeCommand := builder.newCommand(mergeUseConstant, mergeShortDescriptionConstant, mergeLongDescriptionConstant,
		func(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
			return service.Merge(executionContext, arguments)
		})
	pullCommand := builder.newCommand(pullUseConstant, pullShortDescriptionConstant, pullLongDescriptionConstant,
		func(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
			return service.Pull(executionContext, arguments)
		})

	statusCommand := builder.newCommand(statusUseConstant, statusShortDescriptionConstant, statusLongDescriptionConstant,
		func(executionContext context.Context, service *Service, command *cobra.Command, arguments []string) error {
			includeRemoteBranches, _ := command.Flags().GetBool(flagRemoteNameConstant)
			return service.Status(executionContext, arguments, includeRemoteBranches)
		})
	statusCommand.Flags().Bool(flagRemoteNameConstant, false, flagRemoteDescriptionConstant)

	compactCommand := builder.newCommand(compactUseConstant, compactShortDescriptionConstant, compactLongDescriptionConstant,
		func(executionContext context.Context, service *Service, command *cobra.Command, arguments []string) error {
			checkOnly, _ := command.Flags().GetBool(flagCheckNameConstant)
			return service.Compact(executionContext, arguments, checkOnly)
		})
	compactCommand.Flags().Bool(flagCheckNameConstant, false, flagCheckDescriptionConstant)

	return []*cobra.Command{discoverCommand, cloneCommand, fetchCommand, mergeCommand, pullCommand, statusCommand, compactCommand}, nil
}

func (builder *CommandBuilder) newCommand(use string, shortDescription string, longDescription string, action serviceAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: shortDescription,
		Long:  longDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			executionContext := command.Context()
			if executionContext == nil {
				executionContext = context.Background()
			}
			service, serviceError := builder.buildService(executionContext, command)
			if serviceError != nil {
				return serviceError
			}
			if actionError := action(executionContext, service, command, arguments); actionError != nil {
				return fmt.Errorf(commandErrorTemplateConstant, command.Name(), actionError)
			}
			return nil
		},
	}
}

func (builder *CommandBuilder) runDiscover(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
	if len(arguments) > 1 {
		return fmt.Errorf(tooManyDiscoveryRootsTemplate, len(arguments))
	}
	root := defaultDiscoveryRootConstant
	if len(arguments) == 1 {
		root = arguments[0]
	}
	return service.Discover(executionContext, root)
}

func (builder *CommandBuilder) runClone(executionContext context.Context, service *Service, _ *cobra.Command, arguments []string) error {
	repositoryPath := ""
	if len(arguments) == cloneMaximumArgumentsConstant {
		repositoryPath = arguments[1]
	}
	return service.Clone(executionContext, arguments[0], repositoryPath)
}

func (builder *CommandBuilder) buildService(executionContext context.Context, command *cobra.Command) (*Service, error) {
	configuration := builder.resolveConfiguration(executionContext, command)
	logger := builder.resolveLogger().With(zap.String(logFieldCommandNameConstant, command.Name()))
	logger.Debug(resolvedConfigurationMessageConstant, zap.String(logFieldConfiguredRegistryConstant, configuration.RegistryFile))

	gitExecutor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	gitClient, clientError := gitcli.NewClient(gitExecutor, gitcli.NewPool(configuration.NetworkConcurrency))
	if clientError != nil {
		return nil, clientError
	}

	output := builder.resolveOutput(command)
	notifier := notify.NewConsoleNotifier(output)
	prompter := notify.SelectPrompter(notify.ConfirmationPolicyFromBool(configuration.AssumeYes), builder.Input, output)

	manager, managerError := registry.NewManager(registry.Dependencies{
		Types: registry.DefaultTypeTable(),
		Collaborators: repository.Collaborators{
			Executor: gitClient,
			Notifier: notifier,
			Prompter: prompter,
			Logger:   logger,
		},
		Logger: logger,
	})
	if managerError != nil {
		return nil, managerError
	}

	sanitizer := pathutils.NewRepositoryPathSanitizer()
	store := registry.NewStore(sanitizer.SanitizePath(configuration.RegistryFile), logger.Named(registryStoreLogNameConstant))

	return NewService(ServiceDependencies{
		Manager:   manager,
		Store:     store,
		Cloner:    gitClient,
		Reporter:  notifier,
		Output:    output,
		Sanitizer: sanitizer,
		Logger:    logger,
	}, configuration)
}

func (builder *CommandBuilder) resolveConfiguration(executionContext context.Context, command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if registryFilePath, available := utils.NewCommandContextAccessor().RegistryFilePath(executionContext); available {
		configuration.RegistryFile = registryFilePath
	}
	if flags.Changed(command, flags.AssumeYesFlagName) {
		if assumeYes, flagError := command.Flags().GetBool(flags.AssumeYesFlagName); flagError == nil {
			configuration.AssumeYes = assumeYes
		}
	}
	if flags.Changed(command, flags.ConcurrencyFlagName) {
		if concurrency, flagError := command.Flags().GetInt(flags.ConcurrencyFlagName); flagError == nil {
			configuration.Concurrency = concurrency
		}
	}
	if command.Name() == discoverCommandNameConstant && flags.Changed(command, flagMaxDepthNameConstant) {
		if maxDepth, flagError := command.Flags().GetInt(flagMaxDepthNameConstant); flagError == nil {
			configuration.MaxDepth = maxDepth
		}
	}
	return configuration.Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitcli.GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	commandRunner := execshell.NewProcessRunner()
	executorLogger := logger.Named(defaultExecutorLogNameConstant)
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return execshell.NewShellExecutorWithObserver(zap.NewNop(), commandRunner, ui.NewConsoleCommandEventLogger(executorLogger))
	}
	return execshell.NewShellExecutor(executorLogger, commandRunner)
}

func (builder *CommandBuilder) resolveOutput(command *cobra.Command) io.Writer {
	if builder.Output != nil {
		return builder.Output
	}
	return command.OutOrStdout()
}
