// Package save persists battery RAM and snapshots keyed by program title.
package save

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store loads and saves opaque blobs. Load of a missing key returns nil, nil.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// FileStore writes <dir>/<key><ext>.
type FileStore struct {
	Dir string
	Ext string // defaults to ".sav"
}

func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir, Ext: ".sav"} }

// Path returns the file a key maps to.
func (s *FileStore) Path(key string) string {
	ext := s.Ext
	if ext == "" {
		ext = ".sav"
	}
	return filepath.Join(s.Dir, SanitizeKey(key)+ext)
}

func (s *FileStore) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("save: load %q: %w", key, err)
	}
	return data, nil
}

// Save replaces the file atomically: a crash leaves either the old or the new
// contents.
func (s *FileStore) Save(key string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	path := s.Path(key)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save: write %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// SanitizeKey maps a title to a safe file stem. Empty titles become "untitled".
func SanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "untitled"
	}
	return out
}

// MemStore keeps blobs in memory. The zero value is ready to use.
type MemStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemStore() *MemStore { return &MemStore{m: make(map[string][]byte)} }

func (s *MemStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), d...), nil
}

func (s *MemStore) Save(key string, data []byte) error {
	s.mu.Lock()
	if s.m == nil {
		s.m = make(map[string][]byte)
	}
	s.m[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}
