package deck

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) ([]byte, *vdock.Profile) {
	t.Helper()

	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)

	var p vdock.Profile
	require.NoError(t, json.Unmarshal(data, &p))
	return data, &p
}

func TestFixtureDecodesIconForms(t *testing.T) {
	_, p := loadFixture(t, "demo_profile.json")

	buttons := p.Scenes[0].Pages[0].Buttons
	assert.Equal(t, vdock.IconParts("fas", "volume-up"), buttons[0].Icon)
	assert.Equal(t, vdock.IconName("fa-book"), buttons[2].Icon)
	assert.Equal(t, "gif", buttons[2].MediaType)
	assert.Equal(t, "fontawesome", buttons[0].IconType)

	// omitted size and enabled take the server defaults
	assert.Equal(t, vdock.Size{Rows: 1, Cols: 1}, buttons[3].Size)
	assert.True(t, buttons[3].Enabled)

	scene := p.Scenes[0]
	assert.True(t, scene.IsActive)
	require.NotNil(t, scene.ButtonSize)
	assert.InDelta(t, 1.25, *scene.ButtonSize, 0.0001)
	assert.Equal(t, "2025-01-04T10:05:00Z", scene.UpdatedAt)
}

func TestSavedProfileKeepsEverythingLoaded(t *testing.T) {
	raw, p := loadFixture(t, "demo_profile.json")
	store := &fakeStore{}
	e := New(WithIDGenerator(sequentialIDs()), WithStore(store))
	e.Load(p)

	label := "Read the docs"
	require.NoError(t, e.UpdateButton("btn-docs", ButtonUpdate{Label: &label}))
	require.NoError(t, e.Flush(context.Background()))
	require.Len(t, store.saved, 1)

	saved, err := json.Marshal(store.saved[0])
	require.NoError(t, err)

	var want map[string]any
	require.NoError(t, json.Unmarshal(raw, &want))
	buttons := want["scenes"].([]any)[0].(map[string]any)["pages"].([]any)[0].(map[string]any)["buttons"].([]any)
	buttons[2].(map[string]any)["label"] = label
	buttons[3].(map[string]any)["size"] = map[string]any{"rows": 1, "cols": 1}
	buttons[3].(map[string]any)["enabled"] = true

	expected, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(saved))
}

func TestUpdateButtonIconAndMedia(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.AddButton(button("a", 0, 0, 1, 1)))

	icon := vdock.IconParts("fas", "play")
	media := "video"
	require.NoError(t, e.UpdateButton("a", ButtonUpdate{Icon: &icon, MediaType: &media}))

	icon.Parts[1] = "stop"
	b, ok := e.Button("a")
	require.True(t, ok)
	assert.Equal(t, []string{"fas", "play"}, b.Icon.Parts)
	assert.Equal(t, "video", b.MediaType)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"icon":["fas","play"]`)
}
