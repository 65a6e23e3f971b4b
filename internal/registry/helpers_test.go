package registry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reps/internal/notify"
	"github.com/temirov/reps/internal/registry"
	"github.com/temirov/reps/internal/repository"
)

const (
	testOriginURLConstant   = "https://github.com/team/app.git"
	testUpstreamURLConstant = "https://github.com/upstream/app.git"
)

// checkoutExecutor answers the remote configuration queries a checkout
// receives during discovery. Other operations are not expected.
type checkoutExecutor struct {
	repository.Executor

	mutex         sync.Mutex
	remotesByPath map[string][]string
	config        map[string]string
}

func newCheckoutExecutor() *checkoutExecutor {
	return &checkoutExecutor{remotesByPath: map[string][]string{}, config: map[string]string{}}
}

func (executor *checkoutExecutor) addRemote(repositoryPath string, remoteName string, remoteURL string) {
	executor.remotesByPath[repositoryPath] = append(executor.remotesByPath[repositoryPath], remoteName)
	executor.config[repositoryPath+"|remote."+remoteName+".url"] = remoteURL
}

func (executor *checkoutExecutor) ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return append([]string{}, executor.remotesByPath[repositoryPath]...), executionContext.Err()
}

func (executor *checkoutExecutor) GetConfigValue(executionContext context.Context, repositoryPath string, key string) (string, bool, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	value, found := executor.config[repositoryPath+"|"+key]
	return value, found, executionContext.Err()
}

type complaintRecorder struct {
	mutex      sync.Mutex
	complaints []string
}

func (recorder *complaintRecorder) Inform(string, notify.Emphasis)  {}
func (recorder *complaintRecorder) Suggest(string, notify.Emphasis) {}
func (recorder *complaintRecorder) Output(string)                   {}

func (recorder *complaintRecorder) Complain(message string, _ notify.Emphasis) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.complaints = append(recorder.complaints, message)
}

func newTestManager(testInstance *testing.T, executor repository.Executor, notifier repository.Notifier) *registry.Manager {
	testInstance.Helper()
	manager, creationError := registry.NewManager(registry.Dependencies{
		Types:         registry.DefaultTypeTable(),
		Collaborators: repository.Collaborators{Executor: executor, Notifier: notifier},
	})
	require.NoError(testInstance, creationError)
	return manager
}
