package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db, "../../sql"))
	return NewStore(db)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, "../../sql"))
	require.NoError(t, Migrate(db, "../../sql"))
}

func TestInsertAndListRuns(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	// User rows need a users entry for the foreign key.
	_, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1','farmer','x','2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, s.InsertRun(ctx, Run{
		ID: "r1", UserID: "u1", Digits: 10, Length: 5, Threads: 5,
		Secret: "12345", Guesses: 6, ElapsedMs: 120,
	}))
	require.NoError(t, s.InsertRun(ctx, Run{
		ID: "r2", UserID: "u1", Digits: 10, Length: 5, Threads: 5,
		Secret: "54321", Guesses: 5, ElapsedMs: 90,
	}))

	runs, err := s.RunsForUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, 10, r.Digits)
		assert.Equal(t, 5, r.Length)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRun(ctx, Run{ID: "slow", AnonymousID: "a1", Digits: 10, Length: 4, Threads: 2, Secret: "1234", Guesses: 7, ElapsedMs: 500}))
	require.NoError(t, s.InsertRun(ctx, Run{ID: "best", AnonymousID: "a2", Digits: 10, Length: 4, Threads: 2, Secret: "4321", Guesses: 4, ElapsedMs: 900}))
	require.NoError(t, s.InsertRun(ctx, Run{ID: "other-shape", AnonymousID: "a3", Digits: 6, Length: 4, Threads: 2, Secret: "5050", Guesses: 3, ElapsedMs: 10}))

	rows, err := s.Leaderboard(ctx, 10, 4, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2, "only runs of the requested shape")
	assert.Equal(t, "best", rows[0].RunID, "fewest guesses first")
	assert.Equal(t, "slow", rows[1].RunID)
}

func TestClaimAnonRuns(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1','farmer','x','2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, s.InsertRun(ctx, Run{ID: "r1", AnonymousID: "anon-7", Digits: 10, Length: 5, Threads: 5, Secret: "112", Guesses: 6, ElapsedMs: 50}))

	require.NoError(t, s.ClaimAnonRuns(ctx, "anon-7", "u1"))

	runs, err := s.RunsForUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)

	// Blank IDs are a no-op, not an error.
	require.NoError(t, s.ClaimAnonRuns(ctx, "", "u1"))
	require.NoError(t, s.ClaimAnonRuns(ctx, "anon-7", ""))
}
