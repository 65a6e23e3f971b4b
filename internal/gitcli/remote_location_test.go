package gitcli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reps/internal/gitcli"
)

func TestDescribeRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name          string
		remoteURL     string
		expectedLabel string
	}{
		{name: "scp_style", remoteURL: "git@github.com:temirov/reps.git", expectedLabel: "github.com/temirov/reps"},
		{name: "ssh_with_port", remoteURL: "ssh://git@git.example.org:2222/team/tools.git", expectedLabel: "git.example.org/team/tools"},
		{name: "https", remoteURL: "https://gitlab.com/group/sub/project", expectedLabel: "gitlab.com/group/sub/project"},
		{name: "local_path", remoteURL: "/srv/git/project.git", expectedLabel: "/srv/git/project.git"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedLabel, gitcli.DescribeRemoteURL(testCase.remoteURL))
		})
	}
}

func TestParseRemoteLocationRejectsLocalPaths(testInstance *testing.T) {
	_, parseError := gitcli.ParseRemoteLocation("../sibling")
	require.Error(testInstance, parseError)
	require.IsType(testInstance, gitcli.RemoteLocationError{}, parseError)
}
