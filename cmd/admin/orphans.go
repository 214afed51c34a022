package main

import (
	"sort"

	"github.com/ikk-contest/backend/subm"
)

const blobPrefix = "submissions/"

// findOrphans returns blob paths that no stored submission points at. They
// are left behind when an upload finishes but the record loses the race for
// its key.
func findOrphans(blobPaths []string, subms []subm.Subm) []string {
	referenced := make(map[string]struct{}, len(subms))
	for _, s := range subms {
		referenced[s.FilePath] = struct{}{}
	}
	var orphans []string
	for _, p := range blobPaths {
		if _, ok := referenced[p]; !ok {
			orphans = append(orphans, p)
		}
	}
	sort.Strings(orphans)
	return orphans
}
