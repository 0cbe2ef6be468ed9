package meshsrc

import (
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file extension of indexed mesh sources.
const Extension = ".bmd"

// Index maps lowercase mesh stems to filesystem paths.
type Index struct {
	root    string
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for mesh source files.
// When two files share a stem the one with the shorter path wins, so a
// top-level model shadows copies buried in subfolders.
func BuildIndex(dir string) *Index {
	idx := &Index{root: dir, entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}
		stem := Stem(path)
		if existing, ok := idx.entries[stem]; !ok || len(path) < len(existing) {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for a mesh reference, or ("", false).
// References are matched first as a path relative to the index root, then
// by stem (e.g. "Models\\Crate.bmd" → "crate").
func (idx *Index) ResolvePath(ref string) (string, bool) {
	ref = strings.ReplaceAll(ref, "\\", "/")
	if idx.root != "" {
		direct := filepath.Join(idx.root, filepath.FromSlash(ref))
		if info, err := os.Stat(direct); err == nil && !info.IsDir() {
			return direct, true
		}
	}

	path, ok := idx.entries[Stem(ref)]
	return path, ok
}

// Contains reports whether path is one of the indexed files.
func (idx *Index) Contains(path string) bool {
	p, ok := idx.entries[Stem(path)]
	return ok && filepath.Clean(p) == filepath.Clean(path)
}

// Len returns the number of indexed mesh files.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Stem returns the lowercase file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(path, "\\", "/")))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
