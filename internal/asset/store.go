package asset

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeNotFound    = "asset_not_found"
	ErrTypeAlreadyOpen = "asset_already_open"
	ErrTypeDecode      = "asset_decode"
	ErrTypeEncode      = "asset_encode"
	ErrTypeIO          = "asset_io"
)

// Store loads and persists prefab documents. A loaded document is owned by
// the caller until Unload; loading it again before that fails.
type Store interface {
	Load(path string) (*Prefab, error)
	Save(path string, p *Prefab) error
	Unload(path string)
}

// Decode parses a prefab document.
func Decode(data []byte) (*Prefab, error) {
	var p Prefab
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.New("decoding prefab failed").
			WithType(ErrTypeDecode).
			Wrap(err)
	}
	if p.Root == nil {
		p.Root = &Node{Name: p.Name}
	}
	return &p, nil
}

// Encode serializes a prefab document as indented JSON.
func Encode(p *Prefab) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, errors.New("encoding prefab failed").
			WithType(ErrTypeEncode).
			Wrap(err)
	}
	return append(data, '\n'), nil
}

// openSet tracks which paths are checked out.
type openSet struct {
	mu   sync.Mutex
	open map[string]bool
}

func (s *openSet) acquire(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == nil {
		s.open = make(map[string]bool)
	}
	if s.open[path] {
		return errors.New("asset is already open for editing").
			WithType(ErrTypeAlreadyOpen).
			WithTag("path", path)
	}
	s.open[path] = true
	return nil
}

func (s *openSet) release(path string) {
	s.mu.Lock()
	delete(s.open, path)
	s.mu.Unlock()
}

// FileStore keeps prefabs as JSON files. Relative paths resolve against Root.
type FileStore struct {
	Root string

	opened openSet
}

func (s *FileStore) resolve(path string) string {
	if s.Root == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Root, path)
}

func (s *FileStore) Load(path string) (*Prefab, error) {
	full := s.resolve(path)
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, errors.New("asset not found").
			WithType(ErrTypeNotFound).
			WithTag("path", full)
	}
	if err != nil {
		return nil, errors.New("reading asset failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}

	p, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.opened.acquire(full); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the document to a temporary file and renames it into place so
// a failed write never leaves a truncated asset behind.
func (s *FileStore) Save(path string, p *Prefab) error {
	full := s.resolve(path)
	data, err := Encode(p)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".prefab-*")
	if err != nil {
		return errors.New("creating temporary asset failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.New("setting asset mode failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.New("writing asset failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New("writing asset failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return errors.New("replacing asset failed").
			WithType(ErrTypeIO).
			WithTag("path", full).
			Wrap(err)
	}
	return nil
}

func (s *FileStore) Unload(path string) {
	s.opened.release(s.resolve(path))
}

// MemStore is an in-memory Store for tests. Documents are kept serialized so
// edits only become visible through Save.
type MemStore struct {
	mu    sync.Mutex
	docs  map[string][]byte
	fails map[string]error

	Loads   map[string]int
	Saves   map[string]int
	Unloads map[string]int

	opened openSet
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs:    make(map[string][]byte),
		fails:   make(map[string]error),
		Loads:   make(map[string]int),
		Saves:   make(map[string]int),
		Unloads: make(map[string]int),
	}
}

// Put stores p under path, replacing any previous document.
func (s *MemStore) Put(path string, p *Prefab) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = data
	s.mu.Unlock()
	return nil
}

// Get returns a decoded copy of the document stored under path.
func (s *MemStore) Get(path string) (*Prefab, error) {
	s.mu.Lock()
	data, ok := s.docs[path]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New("asset not found").
			WithType(ErrTypeNotFound).
			WithTag("path", path)
	}
	return Decode(data)
}

// FailLoad makes every later Load of path return err.
func (s *MemStore) FailLoad(path string, err error) {
	s.mu.Lock()
	s.fails[path] = err
	s.mu.Unlock()
}

func (s *MemStore) Load(path string) (*Prefab, error) {
	s.mu.Lock()
	s.Loads[path]++
	err := s.fails[path]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p, err := s.Get(path)
	if err != nil {
		return nil, err
	}
	if err := s.opened.acquire(path); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *MemStore) Save(path string, p *Prefab) error {
	s.mu.Lock()
	s.Saves[path]++
	s.mu.Unlock()
	return s.Put(path, p)
}

func (s *MemStore) Unload(path string) {
	s.mu.Lock()
	s.Unloads[path]++
	s.mu.Unlock()
	s.opened.release(path)
}
