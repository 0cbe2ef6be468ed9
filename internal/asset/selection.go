package asset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// IsPrefab reports whether path names a prefab document.
func IsPrefab(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Extension)
}

// Expand turns selection entries into prefab paths. Files are taken as is,
// directories are walked for prefab documents. The result is sorted and
// free of duplicates. Entries that cannot be read are kept so that loading
// them fails for that asset alone.
func Expand(entries []string) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, e := range entries {
		info, err := os.Stat(e)
		if err != nil {
			logs.WithTag("entry", e).Warn(err)
			add(e)
			continue
		}
		if !info.IsDir() {
			add(e)
			continue
		}

		filepath.WalkDir(e, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				logs.WithTag("entry", path).Warn(err)
				add(path)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && IsPrefab(path) {
				add(path)
			}
			return nil
		})
	}

	sort.Strings(paths)
	return paths
}
