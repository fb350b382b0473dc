package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

// FileStore keeps the catalog as a JSON array in a single file. Every call
// re-reads the file so edits made by the CRUD backend are picked up; a sibling
// ".lock" file serializes access across processes.
type FileStore struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
	logger *log.Logger
}

// NewFileStore opens the JSON catalog at path. The file need not exist yet.
func NewFileStore(path string, logger *log.Logger) (*FileStore, error) {
	if logger == nil {
		logger = log.New()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory for %s: %w", path, err)
	}
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}, nil
}

// Path returns the catalog file location.
func (s *FileStore) Path() string {
	return s.path
}

// GetAll returns every entry in file order.
func (s *FileStore) GetAll(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, coreerrors.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock catalog %s: %w", s.path, err)
	}
	defer s.unlock()

	return s.load()
}

// GetByID returns the entry with id.
func (s *FileStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	entries, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", coreerrors.ErrEntryNotFound, id)
}

// Update applies p to the entry with id and rewrites the file atomically.
func (s *FileStore) Update(ctx context.Context, id string, p Patch) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, coreerrors.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock catalog %s: %w", s.path, err)
	}
	defer s.unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", coreerrors.ErrEntryNotFound, id)
	}

	p.Apply(&entries[idx])
	if err := s.save(entries); err != nil {
		return nil, err
	}
	s.logger.WithField("entry", id).Debug("Catalog entry updated")
	updated := entries[idx]
	return &updated, nil
}

// Put inserts or replaces entries by ID, appending new ones.
func (s *FileStore) Put(ctx context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return coreerrors.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock catalog %s: %w", s.path, err)
	}
	defer s.unlock()

	current, err := s.load()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(current))
	for i, e := range current {
		index[e.ID] = i
	}
	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			current[i] = e
			continue
		}
		index[e.ID] = len(current)
		current = append(current, e)
	}
	return s.save(current)
}

// Close marks the store closed. The lock file is left in place.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warnf("Failed to release catalog lock %s: %v", s.lock.Path(), err)
	}
}

func (s *FileStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debugf("Catalog file %s does not exist, starting empty.", s.path)
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write catalog %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close catalog %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog %s: %w", s.path, err)
	}
	return nil
}
