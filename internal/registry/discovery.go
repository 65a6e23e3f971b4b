package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	scanningDirectoryMessageConstant   = "Scanning directory"
	discoveredCheckoutMessageConstant  = "Discovered checkout"
	skippedCheckoutMessageConstant     = "Skipping checkout without remotes"
	unreadableCheckoutMessageConstant  = "Unable to read checkout"
	unreadableDirectoryMessageConstant = "Unable to read directory"
	logFieldDirectoryConstant          = "directory"
	logFieldRepositoryTypeConstant     = "repository_type"
	currentDirectoryConstant           = "."
	unrecognizedCheckoutTemplate       = "%w: %s"
	registerCheckoutErrorTemplate      = "register %s: %w"
	unrecognizedCheckoutMessage        = "no known repository metadata"
)

// ErrUnrecognizedCheckout indicates a directory holds none of the registered metadata directories.
var ErrUnrecognizedCheckout = errors.New(unrecognizedCheckoutMessage)

var versionControlMetadataDirectories = map[string]struct{}{
	".bzr": {},
	".cvs": {},
	".git": {},
	".hg":  {},
	".svn": {},
}

// DiscoveryOptions bounds a filesystem scan.
type DiscoveryOptions struct {
	// MaxDepth stops descent below locations this many levels under the root. Zero means unlimited.
	MaxDepth            int
	ExcludedDirectories []string
	// RegistryFileName marks nested workspaces whose contents are not scanned.
	RegistryFileName string
}

// DiscoveredCheckout is a directory holding the metadata directory of a known RepoType.
type DiscoveredCheckout struct {
	Path     string
	RepoType RepoType
}

// DiscoverCheckouts walks root and returns the checkouts found, sorted by path.
// Paths are reported relative to root in the form root was given.
func (table TypeTable) DiscoverCheckouts(root string, options DiscoveryOptions, logger *zap.Logger) ([]DiscoveredCheckout, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	excludedDirectories := make(map[string]struct{}, len(options.ExcludedDirectories))
	for _, excludedDirectory := range options.ExcludedDirectories {
		excludedDirectories[excludedDirectory] = struct{}{}
	}

	var checkouts []DiscoveredCheckout
	walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == root {
				return walkError
			}
			logger.Debug(unreadableDirectoryMessageConstant, zap.String(logFieldDirectoryConstant, path), zap.Error(walkError))
			return nil
		}
		if !directoryEntry.IsDir() {
			return nil
		}

		depth := locationDepth(root, path)
		if depth > 0 {
			if table.isMetadataDirectory(directoryEntry.Name()) {
				return fs.SkipDir
			}
			if _, excluded := excludedDirectories[directoryEntry.Name()]; excluded {
				return fs.SkipDir
			}
		}
		if options.MaxDepth > 0 && depth > options.MaxDepth {
			return fs.SkipDir
		}

		logger.Debug(scanningDirectoryMessageConstant, zap.String(logFieldDirectoryConstant, path))
		for _, repoType := range table.Types() {
			if isDirectory(filepath.Join(path, repoType.MetadataDirectory)) {
				checkouts = append(checkouts, DiscoveredCheckout{Path: path, RepoType: repoType})
				break
			}
		}

		if depth > 0 && len(options.RegistryFileName) > 0 && isRegularFile(filepath.Join(path, options.RegistryFileName)) {
			return fs.SkipDir
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Slice(checkouts, func(first int, second int) bool {
		return checkouts[first].Path < checkouts[second].Path
	})
	return checkouts, nil
}

// Discover registers every checkout under root that has at least one remote.
func (manager *Manager) Discover(executionContext context.Context, root string, options DiscoveryOptions) error {
	checkouts, discoveryError := manager.types.DiscoverCheckouts(root, options, manager.logger)
	if discoveryError != nil {
		return discoveryError
	}

	for _, checkout := range checkouts {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		created, creationError := checkout.RepoType.FromCheckout(executionContext, checkout.Path, manager.collaborators)
		if creationError != nil {
			if errors.Is(creationError, context.Canceled) || errors.Is(creationError, context.DeadlineExceeded) {
				return creationError
			}
			manager.logger.Warn(unreadableCheckoutMessageConstant, zap.String(logFieldDirectoryConstant, checkout.Path), zap.Error(creationError))
			continue
		}
		if len(created.Remotes()) == 0 {
			manager.logger.Debug(skippedCheckoutMessageConstant, zap.String(logFieldDirectoryConstant, checkout.Path))
			continue
		}
		manager.logger.Debug(discoveredCheckoutMessageConstant,
			zap.String(logFieldDirectoryConstant, checkout.Path),
			zap.String(logFieldRepositoryTypeConstant, checkout.RepoType.Tag))
		manager.repositories.Set(checkout.Path, managedRepository{repoType: checkout.RepoType, repository: created})
	}
	return nil
}

// isMetadataDirectory covers the metadata directories of registered types as well as other version control systems.
func (table TypeTable) isMetadataDirectory(name string) bool {
	if _, registered := table.ByMetadataDirectory(name); registered {
		return true
	}
	_, known := versionControlMetadataDirectories[name]
	return known
}

// RegisterCheckout records the checkout at repositoryPath, taking its type from
// the metadata directory it holds and its remotes from its configuration.
func (manager *Manager) RegisterCheckout(executionContext context.Context, repositoryPath string) error {
	for _, repoType := range manager.types.Types() {
		if !isDirectory(filepath.Join(repositoryPath, repoType.MetadataDirectory)) {
			continue
		}
		created, creationError := repoType.FromCheckout(executionContext, repositoryPath, manager.collaborators)
		if creationError != nil {
			return fmt.Errorf(registerCheckoutErrorTemplate, repositoryPath, creationError)
		}
		manager.logger.Debug(discoveredCheckoutMessageConstant,
			zap.String(logFieldDirectoryConstant, repositoryPath),
			zap.String(logFieldRepositoryTypeConstant, repoType.Tag))
		manager.repositories.Set(repositoryPath, managedRepository{repoType: repoType, repository: created})
		return nil
	}
	return fmt.Errorf(unrecognizedCheckoutTemplate, ErrUnrecognizedCheckout, repositoryPath)
}

func locationDepth(root string, path string) int {
	relativePath, relativeError := filepath.Rel(root, path)
	if relativeError != nil || relativePath == currentDirectoryConstant {
		return 0
	}
	return strings.Count(relativePath, string(filepath.Separator)) + 1
}

func isDirectory(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.IsDir()
}

func isRegularFile(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.Mode().IsRegular()
}
