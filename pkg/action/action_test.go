package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindIsLocal(t *testing.T) {
	assert.True(t, KindNextPage.IsLocal())
	assert.True(t, KindPreviousPage.IsLocal())
	assert.True(t, KindHomePage.IsLocal())
	assert.False(t, KindHotkey.IsLocal())
	assert.False(t, Kind("something_new").IsLocal())
}

func TestNewDecodesTypedConfig(t *testing.T) {
	a, err := New(KindHotkey, map[string]any{"keys": []any{"ctrl", "c"}})
	require.NoError(t, err)

	cfg, ok := a.Config.(HotkeyConfig)
	require.True(t, ok)
	assert.Equal(t, []string{"ctrl", "c"}, cfg.Keys)
}

func TestNewKeepsUnknownKindOpaque(t *testing.T) {
	a, err := New("obs", map[string]any{"scene_name": "Live"})
	require.NoError(t, err)

	cfg, ok := a.Config.(Opaque)
	require.True(t, ok)
	assert.Equal(t, Kind("obs"), cfg.Of)
	assert.Equal(t, "Live", cfg.Values["scene_name"])
}

func TestNewRejectsEmptyKind(t *testing.T) {
	_, err := New("", nil)
	assert.ErrorIs(t, err, ErrMissingKind)
}

func TestUnmarshalMultiAction(t *testing.T) {
	payload := `{
		"type": "multi_action",
		"config": {
			"delay": 0.5,
			"actions": [
				{"type": "url", "config": {"url": "https://example.com"}},
				{"type": "system_control", "config": {"action": "mute"}}
			]
		}
	}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(payload), &a))
	require.Equal(t, KindMultiAction, a.Kind)

	cfg, ok := a.Config.(MultiActionConfig)
	require.True(t, ok)
	require.Len(t, cfg.Actions, 2)
	assert.Equal(t, URLConfig{URL: "https://example.com"}, cfg.Actions[0].Config)

	sys, ok := cfg.Actions[1].SystemControl()
	require.True(t, ok)
	assert.Equal(t, "mute", sys.Action)
	assert.InDelta(t, 0.5, cfg.Delay, 0.0001)
}

func TestMarshalUsesWireShape(t *testing.T) {
	a := Action{Kind: KindSystemControl, Config: SystemControlConfig{Action: SystemFullscreen}}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"system_control","config":{"action":"fullscreen"}}`, string(data))
}

func TestMarshalRejectsMismatchedConfig(t *testing.T) {
	a := Action{Kind: KindURL, Config: HotkeyConfig{Keys: []string{"a"}}}

	_, err := json.Marshal(a)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Action{Kind: "plugin", Config: Opaque{Of: "plugin", Values: map[string]any{
		"nested": map[string]any{"list": []any{"a", "b"}},
	}}}

	cp := orig.Clone()
	nested := cp.Config.(Opaque).Values["nested"].(map[string]any)
	nested["list"].([]any)[0] = "changed"

	origNested := orig.Config.(Opaque).Values["nested"].(map[string]any)
	assert.Equal(t, "a", origNested["list"].([]any)[0])
	assert.Equal(t, orig.Kind, cp.Kind)
}

func TestTypedConfigKeepsUnknownKeys(t *testing.T) {
	payload := `{"type":"url","config":{"url":"https://a","new_window":true,"meta":{"tab":2}}}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(payload), &a))

	cfg, ok := a.Config.(URLConfig)
	require.True(t, ok)
	assert.Equal(t, "https://a", cfg.URL)
	assert.Equal(t, true, cfg.Extra["new_window"])

	cfg.URL = "https://b"
	a.Config = cfg
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"url","config":{"url":"https://b","new_window":true,"meta":{"tab":2}}}`, string(data))
}

func TestModeledFieldWinsOverExtra(t *testing.T) {
	a := Action{Kind: KindHotkey, Config: HotkeyConfig{
		Keys:  []string{"ctrl", "v"},
		Extra: map[string]any{"keys": []any{"stale"}, "hold": true},
	}}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"hotkey","config":{"keys":["ctrl","v"],"hold":true}}`, string(data))
}

func TestNestedActionsKeepUnknownKeys(t *testing.T) {
	payload := `{"type":"multi_action","config":{"actions":[
		{"type":"program","config":{"path":"/usr/bin/obs","minimized":true}}
	],"label":"start stream"}}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(payload), &a))

	cfg := a.Config.(MultiActionConfig)
	assert.Equal(t, map[string]any{"label": "start stream"}, cfg.Extra)
	inner := cfg.Actions[0].Config.(ProgramConfig)
	assert.Equal(t, map[string]any{"minimized": true}, inner.Extra)

	cp := a.Clone()
	cp.Config.(MultiActionConfig).Extra["label"] = "changed"
	assert.Equal(t, "start stream", cfg.Extra["label"])
}
