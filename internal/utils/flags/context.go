package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// AssumeYesFlagName exposes the shared assume-yes flag name.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand provides the shorthand for the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the shared assume-yes flag purpose.
	AssumeYesFlagUsage = "Automatically confirm prompts"
	// ConcurrencyFlagName exposes the shared concurrency flag name.
	ConcurrencyFlagName = "jobs"
	// ConcurrencyFlagShorthand provides the shorthand for the concurrency flag.
	ConcurrencyFlagShorthand = "j"
	// ConcurrencyFlagUsage describes the shared concurrency flag purpose.
	ConcurrencyFlagUsage = "Number of repositories processed at once (0 uses the configured value)"
)

// Changed reports whether flagName was set on the command line, whether it is
// declared on command itself or inherited from an ancestor.
func Changed(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flagSetsToInspect := []*pflag.FlagSet{command.Flags(), command.PersistentFlags(), command.InheritedFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}
	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
