package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reps/internal/utils"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationAvailable := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, configurationAvailable)

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/reps/config.yaml")
	executionContext = accessor.WithRegistryFilePath(executionContext, "workspace/.reps.yaml")

	configurationFilePath, configurationAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "/etc/reps/config.yaml", configurationFilePath)

	registryFilePath, registryAvailable := accessor.RegistryFilePath(executionContext)
	require.True(testInstance, registryAvailable)
	require.Equal(testInstance, "workspace/.reps.yaml", registryFilePath)

	_, emptyAvailable := accessor.RegistryFilePath(accessor.WithRegistryFilePath(context.Background(), ""))
	require.False(testInstance, emptyAvailable)
}
