package iconconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// Change describes one successful write.
type Change struct {
	Type        string     `json:"type"`
	IconID      string     `json:"iconId,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated"`
	Version     uint64     `json:"version"`
}

// Change types.
const (
	ChangeUpserted = "upserted"
	ChangeDeleted  = "deleted"
)

// Store persists the Document as a single JSON file. Writes are serialised
// and merge into the current icon map by key, so concurrent writes to
// different ids never clobber each other; writes to the same id are
// last-writer-wins.
type Store struct {
	mu      sync.Mutex
	path    string
	version uint64
	now     func() time.Time
	hooks   []func(Change)
}

// NewStore returns a Store backed by the file at path. The file is created
// on first write.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Version returns the number of writes since the store was opened.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// OnChange registers fn to run after every successful write.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Load returns the current document. A missing file yields an empty
// document, not an error.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.read()
	return doc, err
}

// Upsert stores cfg under cfg.ID and returns the icon count after the write.
func (s *Store) Upsert(ctx context.Context, cfg IconConfig) (int, error) {
	if cfg.ID == "" {
		return 0, fmt.Errorf("%w: icon id is required", ErrValidation)
	}

	s.mu.Lock()
	doc, _, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}

	doc.Icons[cfg.ID] = cfg
	change, err := s.write(doc, ChangeUpserted, cfg.ID)
	count := len(doc.Icons)
	hooks := s.hooks
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	fire(hooks, change)
	return count, nil
}

// Delete removes id and returns the removed record and the number of icons
// left. It fails with ErrNoDocument when nothing was ever written and with
// ErrNotFound when id is unknown; in both cases the file is untouched.
func (s *Store) Delete(ctx context.Context, id string) (IconConfig, int, error) {
	if id == "" {
		return IconConfig{}, 0, fmt.Errorf("%w: icon id is required", ErrValidation)
	}

	s.mu.Lock()
	doc, exists, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return IconConfig{}, 0, err
	}
	if !exists {
		s.mu.Unlock()
		return IconConfig{}, 0, ErrNoDocument
	}
	removed, ok := doc.Icons[id]
	if !ok {
		s.mu.Unlock()
		return IconConfig{}, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(doc.Icons, id)
	change, err := s.write(doc, ChangeDeleted, id)
	remaining := len(doc.Icons)
	hooks := s.hooks
	s.mu.Unlock()

	if err != nil {
		return IconConfig{}, 0, err
	}
	fire(hooks, change)
	return removed, remaining, nil
}

// read loads the file; the caller holds s.mu.
func (s *Store) read() (*Document, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading %s: %v", ErrPersist, s.path, err)
	}

	doc := Empty()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, true, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, true, fmt.Errorf("%w: decoding %s: %v", ErrPersist, s.path, err)
	}
	if doc.Icons == nil {
		doc.Icons = map[string]IconConfig{}
	}
	return doc, true, nil
}

// write stamps and persists doc; the caller holds s.mu. lastUpdated never
// moves backwards even if the wall clock does.
func (s *Store) write(doc *Document, changeType, id string) (Change, error) {
	now := s.now().UTC()
	if doc.LastUpdated != nil && now.Before(*doc.LastUpdated) {
		now = *doc.LastUpdated
	}
	doc.LastUpdated = &now

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Change{}, fmt.Errorf("%w: encoding document: %v", ErrPersist, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Change{}, fmt.Errorf("%w: creating directory: %v", ErrPersist, err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return Change{}, fmt.Errorf("%w: writing %s: %v", ErrPersist, s.path, err)
	}

	s.version++
	return Change{Type: changeType, IconID: id, LastUpdated: &now, Version: s.version}, nil
}

func fire(hooks []func(Change), c Change) {
	for _, fn := range hooks {
		fn(c)
	}
}
