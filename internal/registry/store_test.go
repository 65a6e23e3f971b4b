package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"github.com/temirov/reps/internal/registry"
	"github.com/temirov/reps/internal/repository"
)

const expectedRegistryContentsConstant = `apps/web:git:
  origin.url: https://github.com/team/app.git
  upstream.url: https://github.com/upstream/app.git
apps/api:git:
  origin.url: https://github.com/team/app.git
`

func TestStoreSaveAndLoad(testInstance *testing.T) {
	registryPath := filepath.Join(testInstance.TempDir(), testRegistryFileNameConstant)
	store := registry.NewStore(registryPath, nil)
	entries := []registry.Entry{
		{ID: "apps/web:git", Attributes: []repository.Attribute{
			{Key: "origin.url", Value: testOriginURLConstant},
			{Key: "upstream.url", Value: testUpstreamURLConstant},
		}},
		{ID: "apps/api:git", Attributes: []repository.Attribute{{Key: "origin.url", Value: testOriginURLConstant}}},
	}

	require.False(testInstance, store.Exists())
	require.NoError(testInstance, store.Save(context.Background(), entries))
	require.True(testInstance, store.Exists())

	contents, readError := os.ReadFile(registryPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, expectedRegistryContentsConstant, string(contents))

	loaded, loadError := store.Load(context.Background())
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, entries, loaded)
}

func TestStoreLoad(testInstance *testing.T) {
	testCases := []struct {
		name            string
		contents        *string
		expectedEntries []registry.Entry
		expectedError   error
	}{
		{name: "missing file", expectedError: registry.ErrRegistryNotFound},
		{name: "empty file", contents: stringPointer("")},
		{name: "null document", contents: stringPointer("~\n")},
		{
			name:            "repository without attributes",
			contents:        stringPointer("scratch:git:\n"),
			expectedEntries: []registry.Entry{{ID: "scratch:git"}},
		},
		{name: "top level sequence", contents: stringPointer("- scratch:git\n"), expectedError: registry.ErrMalformedRegistry},
		{name: "attribute list", contents: stringPointer("scratch:git:\n  - origin.url\n"), expectedError: registry.ErrMalformedRegistry},
		{name: "nested attribute value", contents: stringPointer("scratch:git:\n  origin.url:\n    nested: true\n"), expectedError: registry.ErrMalformedRegistry},
		{name: "invalid yaml", contents: stringPointer("scratch:git: [\n"), expectedError: registry.ErrMalformedRegistry},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			registryPath := filepath.Join(testInstance.TempDir(), testRegistryFileNameConstant)
			if testCase.contents != nil {
				require.NoError(testInstance, os.WriteFile(registryPath, []byte(*testCase.contents), 0o644))
			}

			entries, loadError := registry.NewStore(registryPath, nil).Load(context.Background())
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, loadError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedEntries, entries)
		})
	}
}

func TestStoreSaveWaitsForLock(testInstance *testing.T) {
	registryPath := filepath.Join(testInstance.TempDir(), testRegistryFileNameConstant)
	heldLock := flock.New(registryPath + ".lock")
	require.NoError(testInstance, heldLock.Lock())
	defer func() { _ = heldLock.Unlock() }()

	store := registry.NewStore(registryPath, nil).WithLockTimeout(100 * time.Millisecond)
	saveError := store.Save(context.Background(), []registry.Entry{{ID: "scratch:git"}})

	require.ErrorIs(testInstance, saveError, registry.ErrRegistryLocked)
	require.False(testInstance, store.Exists())
}

func TestStoreSaveEmptyRegistry(testInstance *testing.T) {
	registryPath := filepath.Join(testInstance.TempDir(), testRegistryFileNameConstant)
	store := registry.NewStore(registryPath, nil)

	require.NoError(testInstance, store.Save(context.Background(), nil))
	entries, loadError := store.Load(context.Background())
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, entries)
}

func stringPointer(value string) *string {
	return &value
}
