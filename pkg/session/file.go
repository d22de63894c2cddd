package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/llumina/pkg/errors"
)

// Record is the resumable part of a session: where in a project the user
// left off.
type Record struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ActiveDay int       `json:"active_day"`
	Current   float64   `json:"current"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the record has expired.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// FileStore is a file-based record store for CLI applications.
// Records are stored as JSON files in a config directory, one per project.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based record store.
// If baseDir is empty, defaults to ~/.config/llumina/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "llumina", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Dir returns the directory records are stored in.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) recordPath(projectID string) (string, error) {
	if projectID == "" || filepath.Base(projectID) != projectID {
		return "", errors.New(errors.ErrCodeInvalidPath, "invalid project id %q", projectID)
	}
	return filepath.Join(s.baseDir, projectID+".json"), nil
}

// Get returns the record for a project, or nil, nil if there is none or it
// has expired.
func (s *FileStore) Get(ctx context.Context, projectID string) (*Record, error) {
	path, err := s.recordPath(projectID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	if rec.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return &rec, nil
}

// Set stores rec under its project ID.
func (s *FileStore) Set(ctx context.Context, rec Record) error {
	path, err := s.recordPath(rec.ProjectID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Delete removes the record of a project.
func (s *FileStore) Delete(ctx context.Context, projectID string) error {
	path, err := s.recordPath(projectID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes expired and unreadable records and returns how many were
// removed.
func (s *FileStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil || now.After(rec.ExpiresAt) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
