// Package watch regenerates colliders when mesh source files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"colliderbake/internal/asset"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/meshsrc"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/fsnotify/fsnotify"
)

const ErrTypeWatch = "watch"

// DefaultDebounce groups editor save bursts into one regeneration.
const DefaultDebounce = 300 * time.Millisecond

// Watcher follows a mesh directory and regenerates the prefabs that
// reference a changed file.
type Watcher struct {
	MeshDir  string
	Cache    *meshsrc.Cache
	Store    asset.Store
	Assets   []string
	Debounce time.Duration

	// Regenerate is called with the affected prefab paths.
	Regenerate func(ctx context.Context, paths []string) error
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("creating file watcher failed").
			WithType(ErrTypeWatch).
			Wrap(err)
	}
	defer fw.Close()

	if err := addTree(fw, w.MeshDir); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	changed := make(map[string]struct{})
	reindex := false

	logs.WithTag("dir", w.MeshDir).
		WithTag("assets", len(w.Assets)).
		Info("watching mesh sources")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						logs.Warn(err)
					}
					continue
				}
			}
			if !strings.EqualFold(filepath.Ext(event.Name), meshsrc.Extension) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				reindex = true
			}
			if event.Has(fsnotify.Write) {
				w.Cache.Invalidate(event.Name)
			}
			changed[event.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logs.Warn(errors.New("file watcher error").
				WithType(ErrTypeWatch).
				Wrap(err))

		case <-timer.C:
			if reindex {
				w.Cache.Reindex(meshsrc.BuildIndex(w.MeshDir))
				reindex = false
			}
			files := make([]string, 0, len(changed))
			for f := range changed {
				files = append(files, f)
			}
			changed = make(map[string]struct{})

			w.flush(ctx, files)
		}
	}
}

func (w *Watcher) flush(ctx context.Context, files []string) {
	paths := Dependents(w.Store, w.Assets, files)

	logs.WithTag("files", len(files)).
		WithTag("assets", len(paths)).
		Info("mesh sources changed")
	if len(paths) == 0 {
		return
	}
	if err := w.Regenerate(ctx, paths); err != nil {
		logs.Warn(err)
	}
}

// Dependents returns the prefabs in paths whose renderers reference one of
// the given mesh files, matched by file stem. Prefabs that cannot be read
// are skipped.
func Dependents(s asset.Store, paths []string, files []string) []string {
	stems := make(map[string]struct{}, len(files))
	for _, f := range files {
		stems[meshsrc.Stem(f)] = struct{}{}
	}

	var deps []string
	for _, path := range paths {
		p, err := s.Load(path)
		if err != nil {
			logs.WithTag("asset", path).Debug(err)
			continue
		}
		if References(p, stems) {
			deps = append(deps, path)
		}
		s.Unload(path)
	}
	sort.Strings(deps)
	return deps
}

// References reports whether a renderer of p uses a mesh file with one of
// the given stems.
func References(p *asset.Prefab, stems map[string]struct{}) bool {
	if p.Root == nil {
		return false
	}

	found := false
	p.Root.Walk(func(node *asset.Node, _ mathutil.Mat4) {
		for _, c := range node.Components {
			if c.Type != asset.MeshRenderer || c.Source == nil {
				continue
			}
			if _, ok := stems[meshsrc.Stem(c.Source.File)]; ok {
				found = true
			}
		}
	})
	return found
}

// addTree watches dir and every directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.New("walking mesh directory failed").
				WithType(ErrTypeWatch).
				WithTag("path", path).
				Wrap(err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return errors.New("watching directory failed").
				WithType(ErrTypeWatch).
				WithTag("path", path).
				Wrap(err)
		}
		return nil
	})
}
