// Package profilecachetest holds the behaviour every ProfileCache must share.
package profilecachetest

import (
	"testing"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(id, name string) *vdock.Profile {
	return &vdock.Profile{
		ID:   id,
		Name: name,
		Scenes: []vdock.Scene{{
			ID:   "s1",
			Name: "Main",
			Pages: []vdock.Page{{
				ID:         "pg1",
				Name:       "Page 1",
				GridConfig: vdock.GridConfig{Rows: 3, Cols: 3},
				Buttons: []vdock.Button{{
					ID:       "b1",
					Label:    "Mute",
					Position: vdock.Position{Row: 1, Col: 2},
					Size:     vdock.Size{Rows: 1, Cols: 1},
					Enabled:  true,
				}},
			}},
		}},
	}
}

// RunContract exercises a fresh, empty cache.
func RunContract(t *testing.T, cache vdock.ProfileCache) {
	t.Helper()

	_, err := cache.GetProfile("missing")
	assert.ErrorIs(t, err, vdock.ErrProfileNotCached)

	list, err := cache.ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, cache.PutProfile(profile("p2", "Streaming")))
	require.NoError(t, cache.PutProfile(profile("p1", "Coding")))

	got, err := cache.GetProfile("p1")
	require.NoError(t, err)
	assert.Equal(t, profile("p1", "Coding"), got)

	// writes replace and never alias the caller's value
	updated := profile("p1", "Coding v2")
	require.NoError(t, cache.PutProfile(updated))
	updated.Scenes[0].Pages[0].Buttons[0].Label = "changed"

	got, err = cache.GetProfile("p1")
	require.NoError(t, err)
	assert.Equal(t, "Coding v2", got.Name)
	assert.Equal(t, "Mute", got.Scenes[0].Pages[0].Buttons[0].Label)

	list, err = cache.ListProfiles()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p2", list[1].ID)

	require.NoError(t, cache.DeleteProfile("p2"))
	require.NoError(t, cache.DeleteProfile("p2"))

	_, err = cache.GetProfile("p2")
	assert.ErrorIs(t, err, vdock.ErrProfileNotCached)

	list, err = cache.ListProfiles()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
