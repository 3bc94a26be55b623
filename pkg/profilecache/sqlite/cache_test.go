package sqlite

import (
	"path/filepath"
	"testing"

	"codeberg.org/miketth/vdock/pkg/profilecache/profilecachetest"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCache(t *testing.T, path string) *ProfileCache {
	t.Helper()

	cache, err := NewProfileCache(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestProfileCache(t *testing.T) {
	profilecachetest.RunContract(t, newCache(t, filepath.Join(t.TempDir(), "profiles.db")))
}

func TestReopenKeepsProfilesAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.db")

	first, err := NewProfileCache(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, first.PutProfile(&vdock.Profile{ID: "p1", Name: "Coding", Theme: "dark"}))
	require.NoError(t, first.Close())

	second := newCache(t, path)
	got, err := second.GetProfile("p1")
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}

func TestCorruptRowIsReported(t *testing.T) {
	cache := newCache(t, filepath.Join(t.TempDir(), "profiles.db"))

	_, err := cache.db.Exec(`INSERT INTO profiles (id, name, data, cached_at) VALUES ('bad', 'Bad', '{', 0)`)
	require.NoError(t, err)

	_, err = cache.GetProfile("bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, vdock.ErrProfileNotCached)
}
