package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/reps/internal/repository"
)

const (
	// GitRepoTypeTag identifies git checkouts in repository ids.
	GitRepoTypeTag = "git"
	// GitMetadataDirectory marks the root of a git checkout.
	GitMetadataDirectory = ".git"

	repositoryIDSeparatorConstant = ":"
	repositoryIDTemplateConstant  = "%s:%s"
	unknownRepositoryIDTemplate   = "repository id %q names no known repository type"
)

// RepoType describes how repositories of one version-control system are built.
type RepoType struct {
	Tag               string
	MetadataDirectory string
	FromAttributes    func(repositoryPath string, attributes []repository.Attribute, collaborators repository.Collaborators) (*repository.Repository, error)
	FromCheckout      func(executionContext context.Context, repositoryPath string, collaborators repository.Collaborators) (*repository.Repository, error)
}

// GitRepoType returns the RepoType for git checkouts.
func GitRepoType() RepoType {
	return RepoType{
		Tag:               GitRepoTypeTag,
		MetadataDirectory: GitMetadataDirectory,
		FromAttributes:    repository.NewFromAttributes,
		FromCheckout:      repository.NewFromCheckout,
	}
}

// TypeTable lists the supported repository types in lookup order.
type TypeTable struct {
	types []RepoType
}

// NewTypeTable constructs a table from types.
func NewTypeTable(types ...RepoType) TypeTable {
	return TypeTable{types: append([]RepoType{}, types...)}
}

// DefaultTypeTable returns the table of built-in repository types.
func DefaultTypeTable() TypeTable {
	return NewTypeTable(GitRepoType())
}

// Types returns the registered types.
func (table TypeTable) Types() []RepoType {
	return append([]RepoType{}, table.types...)
}

// ByTag finds the type identified by tag.
func (table TypeTable) ByTag(tag string) (RepoType, bool) {
	for _, repoType := range table.types {
		if repoType.Tag == tag {
			return repoType, true
		}
	}
	return RepoType{}, false
}

// ByMetadataDirectory finds the type whose checkouts contain directoryName.
func (table TypeTable) ByMetadataDirectory(directoryName string) (RepoType, bool) {
	for _, repoType := range table.types {
		if repoType.MetadataDirectory == directoryName {
			return repoType, true
		}
	}
	return RepoType{}, false
}

// RepositoryID renders the persisted identity "<path>:<tag>".
func RepositoryID(repositoryPath string, tag string) string {
	return fmt.Sprintf(repositoryIDTemplateConstant, repositoryPath, tag)
}

// SplitRepositoryID resolves the type suffix of id and returns the path before it.
func (table TypeTable) SplitRepositoryID(repositoryID string) (RepoType, string, error) {
	separatorIndex := strings.LastIndex(repositoryID, repositoryIDSeparatorConstant)
	if separatorIndex > 0 {
		if repoType, found := table.ByTag(repositoryID[separatorIndex+1:]); found {
			return repoType, repositoryID[:separatorIndex], nil
		}
	}
	return RepoType{}, "", fmt.Errorf(unknownRepositoryIDTemplate, repositoryID)
}
