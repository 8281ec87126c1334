// Package leaderboard turns dataset snapshots into ranked standings
// and per-user point breakdowns, with snapshot-keyed caching.
package leaderboard

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/code-zealots/cp-scoreboard/internal/errors"

	"github.com/code-zealots/cp-scoreboard/internal/cache"
	"github.com/code-zealots/cp-scoreboard/internal/dataset"
	"github.com/code-zealots/cp-scoreboard/internal/monitoring"
	"github.com/code-zealots/cp-scoreboard/internal/scoring"
)

// TableResponse is the payload for leaderboard queries
type TableResponse struct {
	Rows        []scoring.Row `json:"rows"`
	Total       int           `json:"total"`
	Ruleset     string        `json:"ruleset"`
	SnapshotID  string        `json:"snapshot_id"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// PointsResponse is the payload for a single user's breakdown
type PointsResponse struct {
	Username   string            `json:"username"`
	Rank       int               `json:"rank"`
	Ruleset    string            `json:"ruleset"`
	SnapshotID string            `json:"snapshot_id"`
	Breakdown  scoring.Breakdown `json:"breakdown"`
}

// Service handles leaderboard operations
type Service struct {
	store   *dataset.Store
	rules   scoring.Ruleset
	cache   *cache.Cache
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewService creates a new leaderboard service
func NewService(store *dataset.Store, rules scoring.Ruleset, cacheTTL time.Duration, metrics *monitoring.Metrics, logger *monitoring.Logger) *Service {
	return &Service{
		store:   store,
		rules:   rules,
		cache:   cache.New(cacheTTL),
		metrics: metrics,
		logger:  logger,
	}
}

// RulesetName returns the name of the active scoring ruleset
func (s *Service) RulesetName() string {
	return s.rules.Name()
}

// Table returns the ranked standings, truncated to limit rows when
// limit is positive.
func (s *Service) Table(limit int) (*TableResponse, error) {
	snap := s.store.Snapshot()
	if snap == nil {
		return nil, apperrors.NewInternalError("dataset not loaded", nil)
	}

	rows, err := s.fullTable(snap)
	if err != nil {
		return nil, err
	}

	total := len(rows)
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	return &TableResponse{
		Rows:        rows,
		Total:       total,
		Ruleset:     s.rules.Name(),
		SnapshotID:  snap.ID,
		GeneratedAt: time.Now(),
	}, nil
}

// Points returns the breakdown for one user. Usernames match exactly;
// an unknown username gets an all-zero breakdown with rank 0, never an
// error.
func (s *Service) Points(username string) (*PointsResponse, error) {
	snap := s.store.Snapshot()
	if snap == nil {
		return nil, apperrors.NewInternalError("dataset not loaded", nil)
	}

	rows, err := s.fullTable(snap)
	if err != nil {
		return nil, err
	}

	resp := &PointsResponse{
		Username:   username,
		Ruleset:    s.rules.Name(),
		SnapshotID: snap.ID,
	}
	for _, row := range rows {
		if row.Username == username {
			resp.Rank = row.Rank
			resp.Breakdown = row.Breakdown
			break
		}
	}
	return resp, nil
}

// Refresh reloads the dataset and drops cached standings.
func (s *Service) Refresh(ctx context.Context) (*dataset.Snapshot, error) {
	start := time.Now()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.WrapError(err, "dataset refresh")
	}

	if s.metrics != nil {
		s.metrics.IncrementDatasetReload()
	}
	if s.logger != nil {
		s.logger.DatasetLogger(snap.ID, len(snap.Submissions), len(snap.Mappings), time.Since(start))
	}

	// Stale entries are keyed by old snapshot ids anyway; clearing
	// just frees them early.
	s.cache.Clear()
	return snap, nil
}

// CacheStats returns cache statistics
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// fullTable builds (or fetches) the complete ranked table for a snapshot.
func (s *Service) fullTable(snap *dataset.Snapshot) ([]scoring.Row, error) {
	key := cache.Key("table", snap.ID, s.rules.Name())

	if cached, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.IncrementCacheHit()
		}
		rows, ok := cached.([]scoring.Row)
		if ok {
			return rows, nil
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementCacheMiss()
	}

	start := time.Now()
	engine := scoring.NewEngine(s.rules, snap.Submissions, snap.Mappings)
	rows := engine.Table()

	if s.metrics != nil {
		s.metrics.IncrementTableBuild()
	}
	if s.logger != nil {
		s.logger.TableLogger(s.rules.Name(), snap.ID, len(rows), time.Since(start), false)
	}

	s.cache.Set(key, rows)
	return rows, nil
}

// ResolveRuleset validates a ruleset name from config and returns the
// matching ruleset.
func ResolveRuleset(name string) (scoring.Ruleset, error) {
	if strings.TrimSpace(name) == "" {
		return scoring.Default(), nil
	}
	rules, err := scoring.ByName(name)
	if err != nil {
		return nil, apperrors.NewConfigurationError("unknown ruleset "+name, err)
	}
	return rules, nil
}
