package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/reps/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/tester"

func fixedHomeProvider() (string, error) {
	return testHomeDirectoryConstant, nil
}

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name         string
		candidate    string
		expectedPath string
	}{
		{name: "bare tilde", candidate: "~", expectedPath: testHomeDirectoryConstant},
		{name: "tilde slash", candidate: "~/workspace/.reps.yaml", expectedPath: filepath.Join(testHomeDirectoryConstant, "workspace", ".reps.yaml")},
		{name: "other user", candidate: "~other/workspace", expectedPath: "~other/workspace"},
		{name: "relative", candidate: "workspace", expectedPath: "workspace"},
		{name: "empty", candidate: "", expectedPath: ""},
	}

	expander := pathutils.NewHomeExpanderWithProvider(fixedHomeProvider)
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.candidate))
		})
	}
}

func TestHomeExpanderLeavesPathsWhenLookupFails(testInstance *testing.T) {
	lookups := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		lookups++
		return "", errors.New("no home")
	})

	require.Equal(testInstance, "~/workspace", expander.Expand("~/workspace"))
	require.Equal(testInstance, "~", expander.Expand("~"))
	require.Equal(testInstance, 1, lookups)
}

func TestRepositoryPathSanitizerSanitize(testInstance *testing.T) {
	sanitizer := pathutils.NewRepositoryPathSanitizerWithExpander(pathutils.NewHomeExpanderWithProvider(fixedHomeProvider))

	sanitized := sanitizer.Sanitize([]string{" apps/web/ ", "./apps/web", "", "\t", "~/src/tool", "apps/../lib"})

	require.Equal(testInstance, []string{
		filepath.Join("apps", "web"),
		filepath.Join(testHomeDirectoryConstant, "src", "tool"),
		"lib",
	}, sanitized)
	require.Empty(testInstance, sanitizer.SanitizePath("   "))
}
