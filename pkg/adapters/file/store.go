package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// Store implements ports.MachineStore on the local filesystem, one JSON
// file per machine. Writes go through a temp file, fsync and rename so a
// crash mid-save never leaves a truncated snapshot behind.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".riposte/machines".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".riposte", "machines")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}

// Save persists the machine snapshot atomically, rejecting stale versions.
func (s *Store) Save(ctx context.Context, m *domain.Machine) error {
	snap := m.Snapshot()
	if snap.ID == "" {
		return fmt.Errorf("machine id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure machine directory: %w", err)
	}

	// Optimistic check against whatever is on disk. Single-writer per file
	// is the deployment assumption; this catches stale replicas, not races.
	if existing, err := s.readSnapshot(snap.ID); err == nil && existing.Version >= snap.Version {
		return domain.ErrVersionConflict
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal machine: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+snap.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(snap.ID)); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

func (s *Store) readSnapshot(id string) (domain.MachineSnapshot, error) {
	var snap domain.MachineSnapshot
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal machine %s: %w", id, err)
	}
	return snap, nil
}

// Load rebuilds the machine from its snapshot file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Machine, error) {
	snap, err := s.readSnapshot(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrMachineNotFound
		}
		return nil, err
	}
	return domain.RestoreMachine(snap)
}

// Delete removes the machine's snapshot file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete machine file: %w", err)
	}
	return nil
}

// List returns the IDs of every stored machine.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read machine directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
