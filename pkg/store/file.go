package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	perrors "github.com/evsingleline/singleline/pkg/errors"
)

// FileStore keeps one JSON file per survey in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a file store in baseDir.
// If baseDir is empty, defaults to ~/.local/share/singleline/surveys.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "singleline", "surveys")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) read(id string) (Record, error) {
	if err := perrors.ValidateSurveyID(id); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("read survey file: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("parse survey %s: %w", id, err)
	}
	return r, nil
}

// Get returns the survey with id.
func (s *FileStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

// Put writes r, keeping the creation time of an existing record.
func (s *FileStore) Put(ctx context.Context, r Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created time.Time
	if r.ID != "" {
		if prev, err := s.read(r.ID); err == nil {
			created = prev.CreatedAt
		}
	}
	r, err := prepare(r, created, s.now())
	if err != nil {
		return Record{}, err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshal survey: %w", err)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".put-*")
	if err != nil {
		return Record{}, fmt.Errorf("write survey file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("write survey file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("write survey file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(r.ID)); err != nil {
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("write survey file: %w", err)
	}
	return r, nil
}

// Delete removes the survey file.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := perrors.ValidateSurveyID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.recordPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// List reads every survey file. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		r, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, r.Summarize())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
