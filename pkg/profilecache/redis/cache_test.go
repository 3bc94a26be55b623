package redis_test

import (
	"testing"
	"time"

	"codeberg.org/miketth/vdock/pkg/profilecache/profilecachetest"
	"codeberg.org/miketth/vdock/pkg/profilecache/redis"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...redis.Option) (*redis.ProfileCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), opts...)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestProfileCache_Contract(t *testing.T) {
	cache, _ := newCache(t)
	profilecachetest.RunContract(t, cache)
}

func TestProfileCache_Prefix(t *testing.T) {
	cache, mr := newCache(t, redis.WithPrefix("deck:"))

	require.NoError(t, cache.PutProfile(&vdock.Profile{ID: "p1", Name: "Coding"}))
	assert.True(t, mr.Exists("deck:p1"))
	assert.True(t, mr.Exists("deck:index"))
}

func TestProfileCache_ExpiredProfilesArePruned(t *testing.T) {
	cache, mr := newCache(t, redis.WithTTL(time.Minute))

	require.NoError(t, cache.PutProfile(&vdock.Profile{ID: "p1", Name: "Coding"}))
	mr.FastForward(2 * time.Minute)

	_, err := cache.GetProfile("p1")
	assert.ErrorIs(t, err, vdock.ErrProfileNotCached)

	list, err := cache.ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, list)

	members, err := mr.ZMembers("vdock:profile:index")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestProfileCache_ServerDown(t *testing.T) {
	cache, mr := newCache(t, redis.WithTimeout(200*time.Millisecond))
	mr.Close()

	err := cache.PutProfile(&vdock.Profile{ID: "p1"})
	assert.Error(t, err)
}
