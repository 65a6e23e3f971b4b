package gitcli

import (
	"fmt"
	"strings"
)

const (
	sshSchemePrefixConstant          = "ssh://"
	httpsSchemePrefixConstant        = "https://"
	httpSchemePrefixConstant         = "http://"
	gitSchemePrefixConstant          = "git://"
	scpUserDelimiterConstant         = "@"
	scpPathDelimiterConstant         = ":"
	urlPathSeparatorConstant         = "/"
	gitDirectorySuffixConstant       = ".git"
	remoteLocationErrorTemplate      = "%s: %s"
	unsupportedRemoteLocationMessage = "not a hosted remote url"
	remoteLocationLabelTemplate      = "%s/%s"
)

// RemoteLocation is the host and repository path of a hosted remote URL.
type RemoteLocation struct {
	Host string
	Path string
}

// Label renders the location as "host/path".
func (location RemoteLocation) Label() string {
	return fmt.Sprintf(remoteLocationLabelTemplate, location.Host, location.Path)
}

// RemoteLocationError indicates a URL does not point at a hosted repository.
type RemoteLocationError struct {
	Input string
}

// Error describes the parse failure.
func (locationError RemoteLocationError) Error() string {
	return fmt.Sprintf(remoteLocationErrorTemplate, locationError.Input, unsupportedRemoteLocationMessage)
}

// ParseRemoteLocation extracts the host and repository path from ssh, scp-style,
// git and http(s) remote URLs. Local paths are rejected with RemoteLocationError.
func ParseRemoteLocation(remoteURL string) (RemoteLocation, error) {
	trimmedURL := strings.TrimSpace(remoteURL)
	for _, schemePrefix := range []string{sshSchemePrefixConstant, httpsSchemePrefixConstant, httpSchemePrefixConstant, gitSchemePrefixConstant} {
		if strings.HasPrefix(trimmedURL, schemePrefix) {
			return splitHostAndPath(remoteURL, strings.TrimPrefix(trimmedURL, schemePrefix), urlPathSeparatorConstant)
		}
	}
	if strings.Contains(trimmedURL, scpUserDelimiterConstant) && strings.Contains(trimmedURL, scpPathDelimiterConstant) {
		return splitHostAndPath(remoteURL, trimmedURL, scpPathDelimiterConstant)
	}
	return RemoteLocation{}, RemoteLocationError{Input: remoteURL}
}

// DescribeRemoteURL returns the location label for hosted URLs and the URL itself otherwise.
func DescribeRemoteURL(remoteURL string) string {
	location, parseError := ParseRemoteLocation(remoteURL)
	if parseError != nil {
		return remoteURL
	}
	return location.Label()
}

func splitHostAndPath(originalURL string, remainder string, pathDelimiter string) (RemoteLocation, error) {
	if userIndex := strings.Index(remainder, scpUserDelimiterConstant); userIndex >= 0 {
		remainder = remainder[userIndex+1:]
	}
	host, path, found := strings.Cut(remainder, pathDelimiter)
	if !found {
		return RemoteLocation{}, RemoteLocationError{Input: originalURL}
	}
	if portHost, _, hasPort := strings.Cut(host, scpPathDelimiterConstant); hasPort {
		host = portHost
	}
	path = strings.TrimSuffix(strings.Trim(path, urlPathSeparatorConstant), gitDirectorySuffixConstant)
	if len(host) == 0 || len(path) == 0 {
		return RemoteLocation{}, RemoteLocationError{Input: originalURL}
	}
	return RemoteLocation{Host: host, Path: path}, nil
}
