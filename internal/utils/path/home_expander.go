// Package pathutils normalizes the filesystem paths reps reads from flags,
// configuration and positional arguments.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShorthandConstant = "~"

// HomeDirectoryProvider looks up the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading "~" with the home directory. The provider runs at most once;
// if it fails, paths pass through unchanged.
type HomeExpander struct {
	lookupHomeDirectory func() (string, error)
}

// NewHomeExpander constructs a HomeExpander backed by os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander that asks provider for the home directory.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{lookupHomeDirectory: sync.OnceValues(provider)}
}

// Expand handles "~" alone and "~" followed by a separator. Named-user forms such as "~alice"
// are returned as given.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil {
		return candidatePath
	}
	remainder, hasShorthand := strings.CutPrefix(candidatePath, homeShorthandConstant)
	if !hasShorthand {
		return candidatePath
	}
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory, lookupError := expander.lookupHomeDirectory()
	if lookupError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}
