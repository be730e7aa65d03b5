// Package flags serves feature flags to the front-end. Lookups never fail:
// unknown flags and unreadable sources fall back to defaults or the last
// values read successfully.
package flags

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// EnableCategories gates category management in the UI.
const EnableCategories = "enableCategories"

// Service is the flag lookup used by front-ends.
type Service interface {
	GetFlag(name string) bool
}

// FileService caches flags read from a YAML map of booleans:
//
//	enableCategories: true
type FileService struct {
	path     string
	defaults map[string]bool

	mu     sync.RWMutex
	values map[string]bool
}

func NewFileService(path string, defaults map[string]bool) *FileService {
	return &FileService{path: path, defaults: defaults, values: map[string]bool{}}
}

// Refresh re-reads the file. On error the cached values are kept. A
// missing file is not an error and yields the defaults.
func (s *FileService) Refresh() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.replace(map[string]bool{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("read flags %q: %w", s.path, err)
	}

	values := map[string]bool{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse flags %q: %w", s.path, err)
	}
	s.replace(values)
	return nil
}

func (s *FileService) replace(values map[string]bool) {
	s.mu.Lock()
	changed := len(values) != len(s.values)
	for k, v := range values {
		if old, ok := s.values[k]; !ok || old != v {
			changed = true
		}
	}
	s.values = values
	s.mu.Unlock()
	if changed {
		log.Printf("[info] flags: %v", values)
	}
}

func (s *FileService) GetFlag(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[name]; ok {
		return v
	}
	return s.defaults[name]
}

// Static is a fixed flag set.
type Static map[string]bool

func (s Static) GetFlag(name string) bool {
	return s[name]
}
