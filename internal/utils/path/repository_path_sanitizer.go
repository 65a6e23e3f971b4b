package pathutils

import (
	"path/filepath"
	"strings"
)

// RepositoryPathSanitizer turns user-supplied repository paths into the form the
// registry keys repositories by: home expanded, cleaned, without trailing separators.
type RepositoryPathSanitizer struct {
	homeExpander *HomeExpander
}

// NewRepositoryPathSanitizer constructs a sanitizer that expands with the operating system home lookup.
func NewRepositoryPathSanitizer() *RepositoryPathSanitizer {
	return NewRepositoryPathSanitizerWithExpander(nil)
}

// NewRepositoryPathSanitizerWithExpander constructs a sanitizer that expands with homeExpander.
func NewRepositoryPathSanitizerWithExpander(homeExpander *HomeExpander) *RepositoryPathSanitizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &RepositoryPathSanitizer{homeExpander: homeExpander}
}

// SanitizePath normalizes one path. Blank input yields an empty string.
func (sanitizer *RepositoryPathSanitizer) SanitizePath(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}
	return filepath.Clean(sanitizer.homeExpander.Expand(trimmedPath))
}

// Sanitize normalizes every path, dropping blanks and later duplicates.
func (sanitizer *RepositoryPathSanitizer) Sanitize(candidatePaths []string) []string {
	seen := make(map[string]struct{}, len(candidatePaths))
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		sanitizedPath := sanitizer.SanitizePath(candidatePath)
		if len(sanitizedPath) == 0 {
			continue
		}
		if _, duplicate := seen[sanitizedPath]; duplicate {
			continue
		}
		seen[sanitizedPath] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, sanitizedPath)
	}
	return sanitizedPaths
}
