package meshsrc

import (
	"sync"

	"colliderbake/internal/bmd"
	"colliderbake/internal/mesh"
	"colliderbake/internal/skeleton"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeNotFound is the error type for references missing from the index.
const ErrTypeNotFound = "mesh_source_not_found"

// ErrTypeLoad is the error type for mesh files that fail to parse.
const ErrTypeLoad = "mesh_source_load"

// SubMesh is one posed piece of a mesh source file.
type SubMesh struct {
	Geometry *mesh.Mesh
	Texture  string
}

// Resolver resolves a mesh reference to its posed sub-meshes.
type Resolver interface {
	Resolve(ref string) ([]SubMesh, error)
}

// Cache is a concurrency-safe mesh cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	meshes []SubMesh
	err    error
}

// NewCache creates a new mesh cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a mesh file. Load failures are cached as well
// until the path is invalidated.
func (c *Cache) Resolve(ref string) ([]SubMesh, error) {
	c.mu.RLock()
	index := c.index
	c.mu.RUnlock()

	path, ok := index.ResolvePath(ref)
	if !ok {
		return nil, errors.New("mesh source not found").
			WithType(ErrTypeNotFound).
			WithTag("ref", ref)
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.meshes, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	entry := load(path)

	// Write lock with double-check
	c.mu.Lock()
	if existing, exists := c.items[path]; exists {
		c.mu.Unlock()
		return existing.meshes, existing.err
	}
	c.items[path] = entry
	c.mu.Unlock()

	return entry.meshes, entry.err
}

// Invalidate drops the cached entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.items, path)
	c.mu.Unlock()
}

// Reindex swaps the index and drops every cached entry. Used when the files
// on disk change.
func (c *Cache) Reindex(index *Index) {
	c.mu.Lock()
	c.index = index
	c.items = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

func load(path string) *cacheEntry {
	model, err := bmd.Parse(path)
	if err != nil {
		return &cacheEntry{
			err: errors.New("loading mesh source failed").
				WithType(ErrTypeLoad).
				WithTag("path", path).
				Wrap(err),
		}
	}

	posed := skeleton.Pose(model)
	meshes := make([]SubMesh, len(posed))
	for i, g := range posed {
		meshes[i] = SubMesh{Geometry: g, Texture: model.Meshes[i].TexPath}
	}
	return &cacheEntry{meshes: meshes}
}
