package synccmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
	"github.com/temirov/reps/internal/registry"
	"github.com/temirov/reps/internal/repository"
	pathutils "github.com/temirov/reps/internal/utils/path"
)

const (
	operationFetchConstant   = "fetch"
	operationMergeConstant   = "merge"
	operationPullConstant    = "pull"
	operationStatusConstant  = "status"
	operationCompactConstant = "compact"

	defaultDiscoveryRootConstant       = "."
	discoveredTemplateConstant         = "Registered %d repositories in %s"
	noRepositoriesSelectedMessage      = "no registered repository matches the requested paths"
	registryMissingTemplateConstant    = "%w (run discover to create it)"
	loadRegistryErrorTemplateConstant  = "load registry: %w"
	saveRegistryErrorTemplateConstant  = "save registry: %w"
	discoverErrorTemplateConstant      = "discover repositories under %s: %w"
	mergeIncompleteTemplateConstant    = "merge of %s incomplete: %s"
	failedBranchesTemplateConstant     = "failed branches %s"
	anchorNotRestoredMessageConstant   = "checked-out revision not restored"
	stashNotRestoredMessageConstant    = "stashed changes conflict with the restored revision"
	problemListSeparatorConstant       = "; "
	branchListSeparatorConstant        = ", "
	remoteURLLineTemplateConstant      = "%s: %s"
	missingServiceDependencyTemplate   = "sync service requires %s"
	managerDependencyNameConstant      = "a repository manager"
	storeDependencyNameConstant        = "a registry store"
	logFieldRegistryPathConstant       = "registry_file"
	logFieldRequestedPathsConstant     = "requested_paths"
	logFieldActiveRepositoriesConstant = "active_repositories"
	selectionMessageConstant           = "Selected repositories"
	registryLoadedMessageConstant      = "Loaded registry"
	logFieldRegistryEntriesConstant    = "entries"
	cloningTemplateConstant            = "Cloning %s into %s"
	clonedTemplateConstant             = "Registered %s in %s"
	cloneErrorTemplateConstant         = "clone %s: %w"
	clonerDependencyNameConstant       = "a cloner"
	cloneDirectoryTemplate             = "%w: %q"
	undeterminedCloneDirectoryMessage  = "cannot derive a directory name from the remote URL"
	remoteURLPathSeparators            = "/:\\"
	gitRepositorySuffixConstant        = ".git"
)

// ErrNoRepositoriesSelected indicates none of the requested paths is registered.
var ErrNoRepositoriesSelected = errors.New(noRepositoriesSelectedMessage)

// ErrUndeterminedCloneDirectory indicates clone received no destination and the URL does not name one.
var ErrUndeterminedCloneDirectory = errors.New(undeterminedCloneDirectoryMessage)

// Cloner copies a remote repository into a new checkout.
type Cloner interface {
	Clone(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
}

// MergeIncompleteError reports a repository whose merge left branches unmerged
// or its worktree not fully restored.
type MergeIncompleteError struct {
	RepositoryPath string
	Report         repository.MergeReport
}

func (mergeError MergeIncompleteError) Error() string {
	var problems []string
	if len(mergeError.Report.Failed) > 0 {
		problems = append(problems, fmt.Sprintf(failedBranchesTemplateConstant, strings.Join(mergeError.Report.Failed, branchListSeparatorConstant)))
	}
	if !mergeError.Report.AnchorRestored {
		problems = append(problems, anchorNotRestoredMessageConstant)
	}
	if mergeError.Report.StashConflict {
		problems = append(problems, stashNotRestoredMessageConstant)
	}
	return fmt.Sprintf(mergeIncompleteTemplateConstant, mergeError.RepositoryPath, strings.Join(problems, problemListSeparatorConstant))
}

// ServiceDependencies wires a Service.
type ServiceDependencies struct {
	Manager   *registry.Manager
	Store     *registry.Store
	Cloner    Cloner
	Reporter  repository.Notifier
	Output    io.Writer
	Sanitizer *pathutils.RepositoryPathSanitizer
	Logger    *zap.Logger
}

// Service runs synchronization commands across the registered repositories.
type Service struct {
	manager       *registry.Manager
	store         *registry.Store
	cloner        Cloner
	reporter      repository.Notifier
	output        io.Writer
	sanitizer     *pathutils.RepositoryPathSanitizer
	logger        *zap.Logger
	configuration CommandConfiguration
}

// NewService constructs a Service. Manager and Store are required.
func NewService(dependencies ServiceDependencies, configuration CommandConfiguration) (*Service, error) {
	if dependencies.Manager == nil {
		return nil, fmt.Errorf(missingServiceDependencyTemplate, managerDependencyNameConstant)
	}
	if dependencies.Store == nil {
		return nil, fmt.Errorf(missingServiceDependencyTemplate, storeDependencyNameConstant)
	}
	service := &Service{
		manager:       dependencies.Manager,
		store:         dependencies.Store,
		cloner:        dependencies.Cloner,
		reporter:      dependencies.Reporter,
		output:        dependencies.Output,
		sanitizer:     dependencies.Sanitizer,
		logger:        dependencies.Logger,
		configuration: configuration.Sanitize(),
	}
	if service.reporter == nil {
		service.reporter = notify.NewConsoleNotifier(io.Discard)
	}
	if service.output == nil {
		service.output = io.Discard
	}
	if service.sanitizer == nil {
		service.sanitizer = pathutils.NewRepositoryPathSanitizer()
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	return service, nil
}

// Discover scans root for checkouts and records them in the registry. Entries
// already in the registry are kept; rediscovered ones take the checkout's remotes.
func (service *Service) Discover(executionContext context.Context, root string) error {
	if len(strings.TrimSpace(root)) == 0 {
		root = defaultDiscoveryRootConstant
	}
	root = service.sanitizer.SanitizePath(root)

	if service.store.Exists() {
		if loadError := service.loadRegistry(executionContext); loadError != nil {
			return loadError
		}
	}

	options := registry.DiscoveryOptions{
		MaxDepth:            service.configuration.MaxDepth,
		ExcludedDirectories: service.configuration.ExcludedDirectories,
		RegistryFileName:    filepath.Base(service.store.Path()),
	}
	if discoverError := service.manager.Discover(executionContext, root, options); discoverError != nil {
		return fmt.Errorf(discoverErrorTemplateConstant, root, discoverError)
	}
	if saveError := service.store.Save(executionContext, service.manager.Snapshot()); saveError != nil {
		return fmt.Errorf(saveRegistryErrorTemplateConstant, saveError)
	}
	service.reporter.Inform(fmt.Sprintf(discoveredTemplateConstant, service.manager.Len(), service.store.Path()), notify.EmphasisMajor)
	return nil
}

// Clone copies remoteURL into repositoryPath, naming its remote origin, and
// records the new checkout in the registry. An empty repositoryPath is derived
// from the last element of remoteURL.
func (service *Service) Clone(executionContext context.Context, remoteURL string, repositoryPath string) error {
	if service.cloner == nil {
		return fmt.Errorf(missingServiceDependencyTemplate, clonerDependencyNameConstant)
	}
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		derivedPath, derivationError := cloneDirectoryName(remoteURL)
		if derivationError != nil {
			return derivationError
		}
		repositoryPath = derivedPath
	}
	repositoryPath = service.sanitizer.SanitizePath(repositoryPath)

	if service.store.Exists() {
		if loadError := service.loadRegistry(executionContext); loadError != nil {
			return loadError
		}
	}

	service.reporter.Inform(fmt.Sprintf(cloningTemplateConstant, remoteURL, repositoryPath), notify.EmphasisMajor)
	if cloneError := service.cloner.Clone(executionContext, repositoryPath, repository.CanonicalRemoteNameConstant, remoteURL); cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, remoteURL, cloneError)
	}
	if registerError := service.manager.RegisterCheckout(executionContext, repositoryPath); registerError != nil {
		return registerError
	}
	if saveError := service.store.Save(executionContext, service.manager.Snapshot()); saveError != nil {
		return fmt.Errorf(saveRegistryErrorTemplateConstant, saveError)
	}
	service.reporter.Inform(fmt.Sprintf(clonedTemplateConstant, repositoryPath, service.store.Path()), notify.EmphasisNormal)
	return nil
}

// Fetch fetches every remote of the selected repositories.
func (service *Service) Fetch(executionContext context.Context, repositoryPaths []string) error {
	return service.runSelected(executionContext, operationFetchConstant, repositoryPaths, func(operationContext context.Context, target *repository.Repository) error {
		return target.CmdFetch(operationContext)
	})
}

// Merge merges tracked branches in the selected repositories.
func (service *Service) Merge(executionContext context.Context, repositoryPaths []string) error {
	return service.runSelected(executionContext, operationMergeConstant, repositoryPaths, mergeRepository)
}

// Pull fetches and then merges each selected repository. A repository whose
// fetch fails is not merged.
func (service *Service) Pull(executionContext context.Context, repositoryPaths []string) error {
	return service.runSelected(executionContext, operationPullConstant, repositoryPaths, func(operationContext context.Context, target *repository.Repository) error {
		if fetchError := target.CmdFetch(operationContext); fetchError != nil {
			return fetchError
		}
		return mergeRepository(operationContext, target)
	})
}

// Compact reports loose objects in the selected repositories and packs them unless checkOnly is set.
func (service *Service) Compact(executionContext context.Context, repositoryPaths []string, checkOnly bool) error {
	return service.runSelected(executionContext, operationCompactConstant, repositoryPaths, func(operationContext context.Context, target *repository.Repository) error {
		_, compactError := target.CmdCompact(operationContext, checkOnly)
		return compactError
	})
}

// Status prints the remotes and the branch table of each selected repository
// in registry order. With includeRemoteBranches the branches advertised by each remote are listed too.
func (service *Service) Status(executionContext context.Context, repositoryPaths []string, includeRemoteBranches bool) error {
	var rowsMutex sync.Mutex
	rowsByPath := map[string][]repository.BranchRow{}
	runError := service.runSelected(executionContext, operationStatusConstant, repositoryPaths, func(operationContext context.Context, target *repository.Repository) error {
		rows := target.Status(operationContext, includeRemoteBranches)
		rowsMutex.Lock()
		rowsByPath[target.Path()] = rows
		rowsMutex.Unlock()
		return nil
	})

	for _, target := range service.manager.ActiveRepositories() {
		rows, collected := rowsByPath[target.Path()]
		if !collected {
			continue
		}
		service.reporter.Inform(target.Path(), notify.EmphasisMajor)
		for _, remote := range target.Remotes() {
			for _, remoteURL := range sortedURLs(remote) {
				service.reporter.Output(fmt.Sprintf(remoteURLLineTemplateConstant, remote.Name(), gitcli.DescribeRemoteURL(remoteURL)))
			}
		}
		notify.WriteBranchTable(service.output, tableRows(rows))
	}
	return runError
}

func (service *Service) runSelected(executionContext context.Context, operationName string, repositoryPaths []string, operation registry.RepositoryOperation) error {
	if loadError := service.loadRegistry(executionContext); loadError != nil {
		return loadError
	}
	if selectError := service.selectRepositories(repositoryPaths); selectError != nil {
		return selectError
	}
	return service.manager.RunActive(executionContext, operationName, service.configuration.Concurrency, operation)
}

func (service *Service) loadRegistry(executionContext context.Context) error {
	entries, loadError := service.store.Load(executionContext)
	if loadError != nil {
		if errors.Is(loadError, registry.ErrRegistryNotFound) {
			return fmt.Errorf(registryMissingTemplateConstant, loadError)
		}
		return fmt.Errorf(loadRegistryErrorTemplateConstant, loadError)
	}
	if restoreError := service.manager.Restore(entries); restoreError != nil {
		return fmt.Errorf(loadRegistryErrorTemplateConstant, restoreError)
	}
	service.logger.Debug(registryLoadedMessageConstant, zap.Int(logFieldRegistryEntriesConstant, len(entries)), zap.String(logFieldRegistryPathConstant, service.store.Path()))
	return nil
}

func (service *Service) selectRepositories(repositoryPaths []string) error {
	sanitizedPaths := service.sanitizer.Sanitize(repositoryPaths)
	if len(sanitizedPaths) == 0 {
		service.manager.ActivateAll()
	} else {
		service.manager.Activate(sanitizedPaths)
		if len(service.manager.ActiveRepositories()) == 0 {
			return ErrNoRepositoriesSelected
		}
	}
	service.logger.Debug(selectionMessageConstant,
		zap.Strings(logFieldRequestedPathsConstant, sanitizedPaths),
		zap.Int(logFieldActiveRepositoriesConstant, len(service.manager.ActiveRepositories())))
	return nil
}

func mergeRepository(operationContext context.Context, target *repository.Repository) error {
	report, mergeError := target.CmdMerge(operationContext)
	if mergeError != nil {
		return mergeError
	}
	if report.HasProblems() {
		return MergeIncompleteError{RepositoryPath: target.Path(), Report: report}
	}
	return nil
}

// cloneDirectoryName picks the directory git clone would create for remoteURL.
func cloneDirectoryName(remoteURL string) (string, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(remoteURL), remoteURLPathSeparators)
	lastElement := trimmedURL[strings.LastIndexAny(trimmedURL, remoteURLPathSeparators)+1:]
	directoryName := strings.TrimSuffix(lastElement, gitRepositorySuffixConstant)
	if len(directoryName) == 0 {
		return "", fmt.Errorf(cloneDirectoryTemplate, ErrUndeterminedCloneDirectory, remoteURL)
	}
	return directoryName, nil
}

func sortedURLs(remote *repository.Remote) []string {
	urlsByRole := remote.URLs()
	roles := make([]string, 0, len(urlsByRole))
	for role := range urlsByRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	seen := map[string]struct{}{}
	var remoteURLs []string
	for _, role := range append([]string{repository.RemoteURLRoleFetch}, roles...) {
		remoteURL, known := urlsByRole[role]
		if !known {
			continue
		}
		if _, duplicate := seen[remoteURL]; duplicate {
			continue
		}
		seen[remoteURL] = struct{}{}
		remoteURLs = append(remoteURLs, remoteURL)
	}
	return remoteURLs
}

func tableRows(rows []repository.BranchRow) []notify.TableRow {
	convertedRows := make([]notify.TableRow, 0, len(rows))
	for _, row := range rows {
		convertedRows = append(convertedRows, notify.TableRow{
			Remote:   row.Remote,
			Name:     row.Name,
			Tracking: row.Tracking,
			Kind:     row.Kind.String(),
			Exists:   row.Exists,
		})
	}
	return convertedRows
}
