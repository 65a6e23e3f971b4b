package repository

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// CanonicalRemoteNameConstant is the remote preferred when none is flagged canonical.
	CanonicalRemoteNameConstant = "origin"
	// RemoteURLRoleFetch names the fetch URL of a remote.
	RemoteURLRoleFetch = "url"
	// RemoteURLRolePush names the optional push URL of a remote.
	RemoteURLRolePush = "pushurl"

	localPseudoRemoteNameConstant    = "."
	symbolicHeadBranchNameConstant   = "HEAD"
	branchLongnameSeparatorConstant  = "/"
	attributeKeySeparatorConstant    = "."
	remoteTrackingLongnameTemplate   = "%s/%s"
	branchRemotePointerTemplate      = "branch.%s.remote"
	branchMergePointerTemplate       = "branch.%s.merge"
	remoteConfigurationKeyTemplate   = "remote.%s.%s"
	attributeKeyTemplate             = "%s.%s"
	remoteTrackingLongnamePartsLimit = 2
)

// SplitBranchLongname splits a slash-separated branch name into at most parts
// segments. The final segment keeps any remaining separators, so
// SplitBranchLongname("origin/feature/x", 2) yields ["origin", "feature/x"].
func SplitBranchLongname(longname string, parts int) []string {
	return strings.SplitN(longname, branchLongnameSeparatorConstant, parts)
}

func remoteTrackingLongname(remoteName string, branchName string) string {
	return fmt.Sprintf(remoteTrackingLongnameTemplate, remoteName, branchName)
}

func branchRemotePointerKey(branchName string) string {
	return fmt.Sprintf(branchRemotePointerTemplate, branchName)
}

func branchMergePointerKey(branchName string) string {
	return fmt.Sprintf(branchMergePointerTemplate, branchName)
}

func remoteConfigurationKey(remoteName string, role string) string {
	return fmt.Sprintf(remoteConfigurationKeyTemplate, remoteName, role)
}

func attributeKey(remoteName string, role string) string {
	return fmt.Sprintf(attributeKeyTemplate, remoteName, role)
}

// splitAttributeKey separates "<remote>.<role>" on the last dot. A bare role
// belongs to the canonical remote name.
func splitAttributeKey(key string) (string, string) {
	separatorIndex := strings.LastIndex(key, attributeKeySeparatorConstant)
	if separatorIndex <= 0 {
		return CanonicalRemoteNameConstant, strings.TrimPrefix(key, attributeKeySeparatorConstant)
	}
	return key[:separatorIndex], key[separatorIndex+1:]
}

// mergePointerBranchName converts a branch.<name>.merge value such as
// refs/heads/main into the upstream branch name.
func mergePointerBranchName(mergePointer string) (string, bool) {
	referenceName := plumbing.ReferenceName(strings.TrimSpace(mergePointer))
	if !referenceName.IsBranch() {
		return "", false
	}
	return referenceName.Short(), true
}

func mergePointerValue(branchName string) string {
	return plumbing.NewBranchReferenceName(branchName).String()
}
