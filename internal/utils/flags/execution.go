// Package flags binds the flags shared by reps commands to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	AssumeYes   bool
	Concurrency int
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	AssumeYes   ExecutionFlagDefinition
	Concurrency ExecutionFlagDefinition
}

// ExecutionFlagValues reports the parsed execution flags. A field overrides
// configuration only when Changed reports its flag as set.
type ExecutionFlagValues struct {
	AssumeYes   bool
	Concurrency int
}

// DefaultExecutionFlagDefinitions enables the assume-yes and concurrency flags with their standard names.
func DefaultExecutionFlagDefinitions() ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		AssumeYes:   ExecutionFlagDefinition{Name: AssumeYesFlagName, Shorthand: AssumeYesFlagShorthand, Usage: AssumeYesFlagUsage, Enabled: true},
		Concurrency: ExecutionFlagDefinition{Name: ConcurrencyFlagName, Shorthand: ConcurrencyFlagShorthand, Usage: ConcurrencyFlagUsage, Enabled: true},
	}
}

// BindExecutionFlags attaches the execution flags to command using persistent scope.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) *ExecutionFlagValues {
	values := &ExecutionFlagValues{AssumeYes: defaults.AssumeYes, Concurrency: defaults.Concurrency}
	if command == nil {
		return values
	}

	persistentFlagSet := command.PersistentFlags()
	if definitionUsable(persistentFlagSet, definitions.AssumeYes) {
		persistentFlagSet.BoolVarP(&values.AssumeYes, definitions.AssumeYes.Name, definitions.AssumeYes.Shorthand, defaults.AssumeYes, definitions.AssumeYes.Usage)
	}
	if definitionUsable(persistentFlagSet, definitions.Concurrency) {
		persistentFlagSet.IntVarP(&values.Concurrency, definitions.Concurrency.Name, definitions.Concurrency.Shorthand, defaults.Concurrency, definitions.Concurrency.Usage)
	}
	return values
}

func definitionUsable(flagSet *pflag.FlagSet, definition ExecutionFlagDefinition) bool {
	if flagSet == nil || !definition.Enabled || len(definition.Name) == 0 {
		return false
	}
	return flagSet.Lookup(definition.Name) == nil
}
