package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestEmptyCache(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	list, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ts, err := s.LastUpdated(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestReplaceKeepsOrder(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	list := []users.User{
		{ID: "z", FirstName: "Zed", LastName: "Last", Email: "z@x", Age: 40, Gender: "male", Country: "Norway"},
		{ID: "a", FirstName: "Ann", LastName: "First", Email: "a@x", Age: 22, Gender: "female", Country: "Chile"},
		{ID: "m", FirstName: "Mo", Age: 31, Gender: "nonbinary", Country: "Chile"},
	}
	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Replace(ctx, list))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, got)

	ts, err := s.LastUpdated(ctx)
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}

func TestReplaceOverwritesAndDedupes(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []users.User{{ID: "1"}, {ID: "2"}, {ID: "3"}}))
	require.NoError(t, s.Replace(ctx, []users.User{{ID: "b", Age: 1}, {ID: "a"}, {ID: "b", Age: 2}}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, 2, got[0].Age)
	assert.Equal(t, "a", got[1].ID)
}

func TestReopenSeesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Replace(context.Background(), []users.User{{ID: "keep", FirstName: "K"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "K", got[0].FirstName)
}

func TestCanceledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Replace(ctx, nil), context.Canceled)
}
