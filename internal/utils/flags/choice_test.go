package flags_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/reps/internal/utils/flags"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "default first choice",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console"},
			description:    "Log output format.",
			expectedOutput: "`<STRUCTURED|console>` Log output format.",
		},
		{
			name:           "default later choice",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "Log level.",
			expectedOutput: "`<debug|INFO|warn|error>` Log level.",
		},
		{
			name:           "no default",
			choices:        []string{"debug", "info"},
			expectedOutput: "`<debug|info>`",
		},
		{
			name:           "duplicates and whitespace dropped",
			defaultChoice:  "console",
			choices:        []string{" console ", "console", "", "structured"},
			description:    "Format.",
			expectedOutput: "`<CONSOLE|structured>` Format.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, flags.FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestAddChoiceFlag(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedValue string
		expectError   bool
	}{
		{name: "unset keeps default", arguments: []string{}, expectedValue: ""},
		{name: "exact value", arguments: []string{"--log-format", "console"}, expectedValue: "console"},
		{name: "case insensitive", arguments: []string{"--log-format=STRUCTURED"}, expectedValue: "structured"},
		{name: "rejected value", arguments: []string{"--log-format", "xml"}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := &cobra.Command{}
			var logFormat string
			flags.AddChoiceFlag(command.Flags(), &logFormat, "log-format", "", []string{"structured", "console"}, "Log output format.")

			parseError := command.ParseFlags(testCase.arguments)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.Contains(testInstance, parseError.Error(), "must be one of structured|console")
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, logFormat)
		})
	}
}
