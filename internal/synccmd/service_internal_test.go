package synccmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneDirectoryName(testInstance *testing.T) {
	testCases := []struct {
		name          string
		remoteURL     string
		expectedName  string
		expectedError bool
	}{
		{name: "https_with_suffix", remoteURL: "https://github.com/team/alpha.git", expectedName: "alpha"},
		{name: "https_trailing_slash", remoteURL: "https://github.com/team/alpha/", expectedName: "alpha"},
		{name: "scp_style", remoteURL: "git@github.com:team/beta.git", expectedName: "beta"},
		{name: "scp_style_without_directory", remoteURL: "git@example.com:gamma", expectedName: "gamma"},
		{name: "local_path", remoteURL: "/srv/git/delta.git", expectedName: "delta"},
		{name: "bare_suffix", remoteURL: "https://example.com/.git", expectedError: true},
		{name: "empty", remoteURL: "  ", expectedError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			directoryName, derivationError := cloneDirectoryName(testCase.remoteURL)
			if testCase.expectedError {
				require.ErrorIs(testInstance, derivationError, ErrUndeterminedCloneDirectory)
				return
			}
			require.NoError(testInstance, derivationError)
			require.Equal(testInstance, testCase.expectedName, directoryName)
		})
	}
}
