package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrations(dbPath, migrations))

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), dbPath
}

func TestWelcomeSeenDefaultsFalse(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	seen, err := s.WelcomeSeen(context.Background())
	require.NoError(t, err)
	require.False(t, seen)
}

func TestWelcomeSeenRoundTripsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, dbPath := openTestStore(t)
	require.NoError(t, s.SetWelcomeSeen(ctx))
	// writing twice must not error
	require.NoError(t, s.SetWelcomeSeen(ctx))

	seen, err := s.WelcomeSeen(ctx)
	require.NoError(t, err)
	require.True(t, seen)

	db2, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db2.Close() })
	seen, err = New(db2).WelcomeSeen(ctx)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestMessageLogRecentOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendMessage(ctx, ShownMessage{
			ID:       text,
			Text:     text,
			Priority: i,
			Source:   "select_item",
			ShownAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := s.RecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "third", recent[0].Text)
	require.Equal(t, "second", recent[1].Text)
	require.Equal(t, "select_item", recent[0].Source)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrations(dbPath, migrations))
	require.NoError(t, RunMigrations(dbPath, migrations))
}
