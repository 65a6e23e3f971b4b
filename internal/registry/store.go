package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/reps/internal/repository"
)

const (
	lockFileSuffixConstant             = ".lock"
	temporaryFilePatternSuffixConstant = ".tmp-*"
	lockRetryDelayConstant             = 50 * time.Millisecond
	defaultLockTimeoutConstant         = 10 * time.Second
	registryFilePermissionsConstant    = 0o644
	yamlIndentConstant                 = 2
	yamlStringTagConstant              = "!!str"
	yamlNullTagConstant                = "!!null"
	registryNotFoundMessageConstant    = "registry file not found"
	registryLockedMessageConstant      = "registry file is locked by another process"
	malformedRegistryMessageConstant   = "malformed registry file"
	malformedRegistryErrorTemplate     = "%w %s: %s"
	registryPathErrorTemplate          = "%w: %s"
	registryReadErrorTemplate          = "read registry %s: %w"
	registryWriteErrorTemplate         = "write registry %s: %w"
	registryLockErrorTemplate          = "lock registry %s: %w"
	expectedMappingDescriptionConstant = "top level must be a mapping of repository ids"
	expectedAttributesTemplateConstant = "attributes of %s must be a mapping"
	expectedScalarTemplateConstant     = "line %d: expected a scalar"
	registryLoadedMessageConstant      = "Loaded registry"
	registrySavedMessageConstant       = "Saved registry"
	logFieldRegistryFileConstant       = "registry_file"
	logFieldRepositoryCountConstant    = "repository_count"
)

var (
	// ErrRegistryNotFound indicates the registry file does not exist.
	ErrRegistryNotFound = errors.New(registryNotFoundMessageConstant)
	// ErrRegistryLocked indicates another process held the registry lock past the timeout.
	ErrRegistryLocked = errors.New(registryLockedMessageConstant)
	// ErrMalformedRegistry indicates the registry file could not be interpreted.
	ErrMalformedRegistry = errors.New(malformedRegistryMessageConstant)
)

// Entry is one persisted repository: its id and its attributes in order.
type Entry struct {
	ID         string
	Attributes []repository.Attribute
}

// Store reads and writes the registry file under an advisory lock held in a sibling ".lock" file.
type Store struct {
	filePath    string
	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewStore constructs a Store for filePath.
func NewStore(filePath string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{filePath: filePath, lockTimeout: defaultLockTimeoutConstant, logger: logger}
}

// WithLockTimeout returns a copy of the store that waits at most timeout for the lock.
func (store *Store) WithLockTimeout(timeout time.Duration) *Store {
	adjusted := *store
	adjusted.lockTimeout = timeout
	return &adjusted
}

// Path returns the registry file location.
func (store *Store) Path() string {
	return store.filePath
}

// Exists reports whether the registry file is present.
func (store *Store) Exists() bool {
	return isRegularFile(store.filePath)
}

// Load reads every entry in file order.
func (store *Store) Load(executionContext context.Context) ([]Entry, error) {
	if !store.Exists() {
		return nil, fmt.Errorf(registryPathErrorTemplate, ErrRegistryNotFound, store.filePath)
	}
	fileLock := flock.New(store.filePath + lockFileSuffixConstant)
	if lockError := store.acquire(executionContext, fileLock.TryRLockContext); lockError != nil {
		return nil, lockError
	}
	defer func() { _ = fileLock.Unlock() }()

	contents, readError := os.ReadFile(store.filePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(registryPathErrorTemplate, ErrRegistryNotFound, store.filePath)
		}
		return nil, fmt.Errorf(registryReadErrorTemplate, store.filePath, readError)
	}

	entries, decodeError := decodeEntries(contents)
	if decodeError != nil {
		return nil, fmt.Errorf(malformedRegistryErrorTemplate, ErrMalformedRegistry, store.filePath, decodeError.Error())
	}
	store.logger.Debug(registryLoadedMessageConstant,
		zap.String(logFieldRegistryFileConstant, store.filePath),
		zap.Int(logFieldRepositoryCountConstant, len(entries)))
	return entries, nil
}

// Save replaces the registry file with entries. The file is written to a temporary
// sibling and renamed into place so readers never observe a partial registry.
func (store *Store) Save(executionContext context.Context, entries []Entry) error {
	fileLock := flock.New(store.filePath + lockFileSuffixConstant)
	if lockError := store.acquire(executionContext, fileLock.TryLockContext); lockError != nil {
		return lockError
	}
	defer func() { _ = fileLock.Unlock() }()

	contents, encodeError := encodeEntries(entries)
	if encodeError != nil {
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, encodeError)
	}

	temporaryFile, createError := os.CreateTemp(filepath.Dir(store.filePath), filepath.Base(store.filePath)+temporaryFilePatternSuffixConstant)
	if createError != nil {
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, createError)
	}
	temporaryPath := temporaryFile.Name()
	defer func() { _ = os.Remove(temporaryPath) }()

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		_ = temporaryFile.Close()
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, registryFilePermissionsConstant); chmodError != nil {
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, chmodError)
	}
	if renameError := os.Rename(temporaryPath, store.filePath); renameError != nil {
		return fmt.Errorf(registryWriteErrorTemplate, store.filePath, renameError)
	}

	store.logger.Debug(registrySavedMessageConstant,
		zap.String(logFieldRegistryFileConstant, store.filePath),
		zap.Int(logFieldRepositoryCountConstant, len(entries)))
	return nil
}

func (store *Store) acquire(executionContext context.Context, tryLock func(context.Context, time.Duration) (bool, error)) error {
	lockContext, cancel := context.WithTimeout(executionContext, store.lockTimeout)
	defer cancel()

	locked, lockError := tryLock(lockContext, lockRetryDelayConstant)
	if lockError != nil {
		if errors.Is(lockError, context.DeadlineExceeded) && executionContext.Err() == nil {
			return fmt.Errorf(registryPathErrorTemplate, ErrRegistryLocked, store.filePath)
		}
		return fmt.Errorf(registryLockErrorTemplate, store.filePath, lockError)
	}
	if !locked {
		return fmt.Errorf(registryPathErrorTemplate, ErrRegistryLocked, store.filePath)
	}
	return nil
}

func decodeEntries(contents []byte) ([]Entry, error) {
	var document yaml.Node
	if unmarshalError := yaml.Unmarshal(contents, &document); unmarshalError != nil {
		return nil, unmarshalError
	}
	if len(document.Content) == 0 {
		return nil, nil
	}
	root := document.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == yamlNullTagConstant {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(expectedMappingDescriptionConstant)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for index := 0; index+1 < len(root.Content); index += 2 {
		idNode, attributesNode := root.Content[index], root.Content[index+1]
		if idNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf(expectedScalarTemplateConstant, idNode.Line)
		}
		entry := Entry{ID: idNode.Value}
		switch {
		case attributesNode.Kind == yaml.ScalarNode && attributesNode.Tag == yamlNullTagConstant:
			// a repository with no attributes
		case attributesNode.Kind == yaml.MappingNode:
			for attributeIndex := 0; attributeIndex+1 < len(attributesNode.Content); attributeIndex += 2 {
				keyNode, valueNode := attributesNode.Content[attributeIndex], attributesNode.Content[attributeIndex+1]
				if keyNode.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf(expectedScalarTemplateConstant, keyNode.Line)
				}
				if valueNode.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf(expectedScalarTemplateConstant, valueNode.Line)
				}
				entry.Attributes = append(entry.Attributes, repository.Attribute{Key: keyNode.Value, Value: valueNode.Value})
			}
		default:
			return nil, fmt.Errorf(expectedAttributesTemplateConstant, idNode.Value)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func encodeEntries(entries []Entry) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range entries {
		attributesNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, attribute := range entry.Attributes {
			attributesNode.Content = append(attributesNode.Content, stringNode(attribute.Key), stringNode(attribute.Value))
		}
		root.Content = append(root.Content, stringNode(entry.ID), attributesNode)
	}

	if len(root.Content) == 0 {
		return []byte{}, nil
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); encodeError != nil {
		return nil, encodeError
	}
	if closeError := encoder.Close(); closeError != nil {
		return nil, closeError
	}
	return buffer.Bytes(), nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlStringTagConstant, Value: value}
}

// Restore registers a repository for every entry.
func (manager *Manager) Restore(entries []Entry) error {
	for _, entry := range entries {
		if addError := manager.AddRepository(entry.ID, entry.Attributes); addError != nil {
			return addError
		}
	}
	return nil
}

// Snapshot captures every registered repository as a persistable entry.
func (manager *Manager) Snapshot() []Entry {
	items := manager.Items()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{ID: item.ID, Attributes: item.Repository.AttributesToConfiguration()})
	}
	return entries
}
