package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-zealots/cp-scoreboard/internal/types"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureStore(t *testing.T, submissions, handles string) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(Config{
		SubmissionsPath: writeFixture(t, dir, "submissions.json", submissions),
		HandlesPath:     writeFixture(t, dir, "handles.json", handles),
	}, nil)
}

func TestLoad(t *testing.T) {
	store := fixtureStore(t,
		`[
			{"handle": "kei", "platform": "codeforces", "contest_id": "1700", "problem_id": "A", "rating": 1450, "division": 2, "solved": true},
			{"handle": "kei", "platform": "atcoder", "contest_id": "abc300", "problem_id": "abc300_a", "rating": 900}
		]`,
		`[{"username": "kei", "codeforces_handles": ["kei"], "atcoder_handles": ["kei"]}]`,
	)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.LoadedAt.IsZero())

	require.Len(t, snap.Submissions, 2)
	assert.Equal(t, types.PlatformCodeforces, snap.Submissions[0].Platform)
	assert.Equal(t, 1450.0, snap.Submissions[0].Rating)
	assert.True(t, snap.Submissions[0].Solved)

	require.Len(t, snap.Mappings, 1)
	assert.Equal(t, "kei", snap.Mappings[0].Username)

	assert.Same(t, snap, store.Snapshot())
}

func TestLoadDropsUnknownPlatforms(t *testing.T) {
	store := fixtureStore(t,
		`[
			{"handle": "kei", "platform": "codeforces", "contest_id": "1700", "problem_id": "A", "rating": 1450},
			{"handle": "kei", "platform": "leetcode", "contest_id": "weekly", "problem_id": "1"}
		]`,
		`[]`,
	)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Submissions, 1)
	assert.Equal(t, types.PlatformCodeforces, snap.Submissions[0].Platform)
}

func TestLoadSnapshotIDChanges(t *testing.T) {
	store := fixtureStore(t, `[]`, `[]`)

	first, err := store.Load(context.Background())
	require.NoError(t, err)
	second, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLoadFailureKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	submissions := writeFixture(t, dir, "submissions.json", `[]`)
	handles := writeFixture(t, dir, "handles.json", `[]`)
	store := NewStore(Config{SubmissionsPath: submissions, HandlesPath: handles}, nil)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(submissions, []byte(`{not json`), 0o644))
	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.Same(t, snap, store.Snapshot())
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(Config{
		SubmissionsPath: filepath.Join(t.TempDir(), "missing.json"),
		HandlesPath:     filepath.Join(t.TempDir(), "missing.json"),
	}, nil)

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, store.Snapshot())
}

func TestSnapshotBeforeLoad(t *testing.T) {
	store := NewStore(Config{}, nil)
	assert.Nil(t, store.Snapshot())
}

func TestLoadCancelledContext(t *testing.T) {
	store := fixtureStore(t, `[]`, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
