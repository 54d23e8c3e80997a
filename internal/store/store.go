// Package store persists the closure snapshot and the subscriber roster as
// flat JSON files. Missing files mean first-run state; corrupt files are
// logged and then treated the same way, so a damaged file costs one
// snapshot rather than the process.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/closure"
	"github.com/closurewatch/closurewatch/internal/subscription"
)

// SnapshotStore owns the last-known closure snapshot and its archive.
type SnapshotStore interface {
	Load() (closure.Snapshot, error)
	Save(closure.Snapshot) error
	Archive(snap closure.Snapshot, ts time.Time) error
}

// RosterStore owns the subscriber roster file.
type RosterStore interface {
	Load() (subscription.Roster, error)
	Save(subscription.Roster) error
}

// FileSnapshotStore keeps the snapshot at a fixed path and archives
// timestamped copies into a directory, one file per changed cycle.
type FileSnapshotStore struct {
	path       string
	archiveDir string
	log        *zap.Logger
}

func NewFileSnapshotStore(path, archiveDir string, log *zap.Logger) *FileSnapshotStore {
	return &FileSnapshotStore{path: path, archiveDir: archiveDir, log: log}
}

// EnsureArchiveDir creates the archive directory if it does not exist.
func (s *FileSnapshotStore) EnsureArchiveDir() error {
	return os.MkdirAll(s.archiveDir, 0o755)
}

// Load returns nil with no error when the file is missing or unreadable as
// JSON; callers treat nil as first-run.
func (s *FileSnapshotStore) Load() (closure.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("snapshot file unreadable, starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return nil, nil
	}
	var snap closure.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		// Silent data loss risk: the previous snapshot is discarded and the
		// next changed cycle re-notifies everything currently closed.
		s.log.Warn("snapshot file corrupt, starting fresh", zap.String("path", s.path), zap.Error(err))
		return nil, nil
	}
	return snap, nil
}

func (s *FileSnapshotStore) Save(snap closure.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Archive writes an append-only timestamped copy of the snapshot.
func (s *FileSnapshotStore) Archive(snap closure.Snapshot, ts time.Time) error {
	if err := s.EnsureArchiveDir(); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	name := fmt.Sprintf("%s-road-closures.json", ts.UTC().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(s.archiveDir, name), b, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// FileRosterStore keeps the roster at a fixed path.
type FileRosterStore struct {
	path string
	log  *zap.Logger
}

func NewFileRosterStore(path string, log *zap.Logger) *FileRosterStore {
	return &FileRosterStore{path: path, log: log}
}

// Load returns nil with no error when the file is missing or corrupt.
func (s *FileRosterStore) Load() (subscription.Roster, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("roster file unreadable, starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return nil, nil
	}
	var roster subscription.Roster
	if err := json.Unmarshal(b, &roster); err != nil {
		s.log.Warn("roster file corrupt, starting fresh", zap.String("path", s.path), zap.Error(err))
		return nil, nil
	}
	return roster, nil
}

func (s *FileRosterStore) Save(roster subscription.Roster) error {
	b, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}
