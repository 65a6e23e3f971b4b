package registry

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/temirov/reps/internal/notify"
	"github.com/temirov/reps/internal/repository"
)

const (
	noRepositoryTypesMessageConstant = "no repository types registered"
	addRepositoryErrorTemplate       = "add %s: %w"
	unknownRepositoryTemplate        = "Skipping unknown repository: %s"
)

// ErrNoRepositoryTypes indicates a Manager was constructed with an empty TypeTable.
var ErrNoRepositoryTypes = errors.New(noRepositoryTypesMessageConstant)

// Dependencies configures a Manager.
type Dependencies struct {
	Types         TypeTable
	Collaborators repository.Collaborators
	Logger        *zap.Logger
}

// Item pairs a repository with its persisted id.
type Item struct {
	ID         string
	Repository *repository.Repository
}

type managedRepository struct {
	repoType   RepoType
	repository *repository.Repository
}

// Manager holds the known repositories keyed by path in insertion order.
type Manager struct {
	types         TypeTable
	collaborators repository.Collaborators
	logger        *zap.Logger
	repositories  *orderedmap.OrderedMap[string, managedRepository]
}

// NewManager constructs an empty Manager.
func NewManager(dependencies Dependencies) (*Manager, error) {
	if len(dependencies.Types.Types()) == 0 {
		return nil, ErrNoRepositoryTypes
	}
	if dependencies.Collaborators.Executor == nil {
		return nil, repository.ErrExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collaborators := dependencies.Collaborators
	if collaborators.Logger == nil {
		collaborators.Logger = logger
	}
	return &Manager{
		types:         dependencies.Types,
		collaborators: collaborators,
		logger:        logger,
		repositories:  orderedmap.New[string, managedRepository](),
	}, nil
}

// AddRepository builds a repository from its persisted id and attributes and
// registers it, replacing any repository already registered at the same path.
func (manager *Manager) AddRepository(repositoryID string, attributes []repository.Attribute) error {
	repoType, repositoryPath, splitError := manager.types.SplitRepositoryID(repositoryID)
	if splitError != nil {
		return splitError
	}
	created, creationError := repoType.FromAttributes(repositoryPath, attributes, manager.collaborators)
	if creationError != nil {
		return fmt.Errorf(addRepositoryErrorTemplate, repositoryID, creationError)
	}
	manager.repositories.Set(repositoryPath, managedRepository{repoType: repoType, repository: created})
	return nil
}

// Repository looks up a repository by path.
func (manager *Manager) Repository(repositoryPath string) (*repository.Repository, bool) {
	managed, found := manager.repositories.Get(repositoryPath)
	if !found {
		return nil, false
	}
	return managed.repository, true
}

// Len returns the number of registered repositories.
func (manager *Manager) Len() int {
	return manager.repositories.Len()
}

// Activate selects the repositories at paths. Unknown paths are reported and returned.
func (manager *Manager) Activate(repositoryPaths []string) []string {
	var unknownPaths []string
	for _, repositoryPath := range repositoryPaths {
		managed, found := manager.repositories.Get(repositoryPath)
		if !found {
			if manager.collaborators.Notifier != nil {
				manager.collaborators.Notifier.Complain(fmt.Sprintf(unknownRepositoryTemplate, repositoryPath), notify.EmphasisNormal)
			}
			unknownPaths = append(unknownPaths, repositoryPath)
			continue
		}
		managed.repository.SetActive(true)
	}
	return unknownPaths
}

// ActivateAll selects every registered repository.
func (manager *Manager) ActivateAll() {
	for pair := manager.repositories.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.repository.SetActive(true)
	}
}

// ActiveRepositories returns the selected repositories in registration order.
func (manager *Manager) ActiveRepositories() []*repository.Repository {
	var active []*repository.Repository
	for pair := manager.repositories.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.repository.IsActive() {
			active = append(active, pair.Value.repository)
		}
	}
	return active
}

// Items returns every repository with its persisted id in registration order.
func (manager *Manager) Items() []Item {
	items := make([]Item, 0, manager.repositories.Len())
	for pair := manager.repositories.Oldest(); pair != nil; pair = pair.Next() {
		items = append(items, Item{ID: RepositoryID(pair.Key, pair.Value.repoType.Tag), Repository: pair.Value.repository})
	}
	return items
}
