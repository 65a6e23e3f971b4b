package gitcli

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

func splitNonEmptyLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		trimmedLine := strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}

func parseLocalBranchListing(output string) []LocalBranchListing {
	var listings []LocalBranchListing
	for _, line := range splitNonEmptyLines(output) {
		marker, referenceText, found := strings.Cut(line, fieldSeparatorConstant)
		if !found {
			continue
		}
		referenceName := plumbing.ReferenceName(strings.TrimSpace(referenceText))
		if !referenceName.IsBranch() {
			continue
		}
		listings = append(listings, LocalBranchListing{
			Name:       referenceName.Short(),
			CheckedOut: strings.TrimSpace(marker) == checkedOutMarkerConstant,
		})
	}
	return listings
}

// Full refnames are parsed because for-each-ref shortens refs/remotes/<remote>/HEAD to "<remote>".
func parseRemoteTrackingListing(output string) []string {
	var names []string
	for _, line := range splitNonEmptyLines(output) {
		referenceName := plumbing.ReferenceName(strings.TrimSpace(line))
		if !referenceName.IsRemote() {
			continue
		}
		names = append(names, referenceName.Short())
	}
	return names
}

func parseAdvertisedBranches(output string) []string {
	var names []string
	for _, line := range splitNonEmptyLines(output) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		referenceName := plumbing.ReferenceName(fields[1])
		if !referenceName.IsBranch() {
			continue
		}
		names = append(names, referenceName.Short())
	}
	return names
}

func parseMergeOutput(output string) MergeResult {
	trimmedOutput := strings.TrimSpace(output)
	if strings.HasPrefix(trimmedOutput, alreadyUpToDateMarkerConstant) || strings.HasPrefix(trimmedOutput, alreadyUpToDateLegacyMarker) {
		return MergeResult{}
	}
	return MergeResult{Changed: true, Output: trimmedOutput}
}

func parseObjectCounts(output string) (ObjectCounts, error) {
	summary := strings.TrimSpace(output)
	var counts ObjectCounts
	if _, scanError := fmt.Sscanf(summary, countObjectsFormatConstant, &counts.LooseObjects, &counts.LooseKilobytes); scanError != nil {
		return ObjectCounts{}, fmt.Errorf(parseObjectCountsErrorTemplate, summary, scanError)
	}
	counts.Summary = summary
	return counts, nil
}
