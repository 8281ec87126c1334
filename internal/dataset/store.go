// Package dataset loads submissions and handle mappings from disk and
// hands out immutable snapshots of them.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/code-zealots/cp-scoreboard/internal/types"
)

// Config names the files the store reads.
type Config struct {
	SubmissionsPath string
	HandlesPath     string
}

// Snapshot is one consistent read of both files. The ID changes on
// every successful load, so callers can key caches on it.
type Snapshot struct {
	ID          string
	Submissions []types.Submission
	Mappings    []types.HandleMapping
	LoadedAt    time.Time
}

// Store holds the current snapshot and swaps it atomically on reload.
// A failed reload keeps the previous snapshot in place.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	current *Snapshot
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Load reads both files and installs a new snapshot. It returns the
// snapshot it installed.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var submissions []types.Submission
	if err := readJSONFile(s.cfg.SubmissionsPath, &submissions); err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	var mappings []types.HandleMapping
	if err := readJSONFile(s.cfg.HandlesPath, &mappings); err != nil {
		return nil, fmt.Errorf("load handle mappings: %w", err)
	}

	dropped := 0
	kept := submissions[:0]
	for _, sub := range submissions {
		if !sub.Platform.Known() {
			dropped++
			continue
		}
		kept = append(kept, sub)
	}
	if dropped > 0 {
		s.logger.Warn("dropped submissions with unknown platform",
			"dropped", dropped,
			"kept", len(kept))
	}

	snap := &Snapshot{
		ID:          uuid.New().String(),
		Submissions: kept,
		Mappings:    mappings,
		LoadedAt:    time.Now(),
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"snapshot_id", snap.ID,
		"submissions", len(snap.Submissions),
		"users", len(snap.Mappings))
	return snap, nil
}

// Snapshot returns the current snapshot, or nil before the first
// successful Load.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// StartRefresh reloads the dataset on a fixed interval until ctx is
// cancelled. Reload failures are logged and the previous snapshot
// stays live.
func (s *Store) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Load(ctx); err != nil {
					s.logger.Error("dataset refresh failed", "error", err)
				}
			}
		}
	}()
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
