package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	registryFilePathContextKeyConstant      = commandContextKey("registryFilePath")
)

type commandContextKey string

// CommandContextAccessor stores and retrieves per-invocation values on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file that was loaded.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file that was loaded.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithRegistryFilePath attaches the registry file the invocation operates on.
func (accessor CommandContextAccessor) WithRegistryFilePath(parentContext context.Context, registryFilePath string) context.Context {
	return withValue(parentContext, registryFilePathContextKeyConstant, registryFilePath)
}

// RegistryFilePath extracts the registry file the invocation operates on.
func (accessor CommandContextAccessor) RegistryFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, registryFilePathContextKeyConstant)
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	if !available || len(value) == 0 {
		return "", false
	}
	return value, true
}
