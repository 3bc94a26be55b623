package vdock

import (
	"encoding/json"
	"testing"

	"codeberg.org/miketth/vdock/pkg/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() *Profile {
	hotkey := action.Action{Kind: action.KindHotkey, Config: action.HotkeyConfig{Keys: []string{"ctrl", "s"}}}
	return &Profile{
		ID:   "p1",
		Name: "Work",
		Scenes: []Scene{{
			ID:   "s1",
			Name: "Main",
			Pages: []Page{{
				ID:         "pg1",
				Name:       "Page 1",
				GridConfig: GridConfig{Rows: 3, Cols: 3},
				Buttons: []Button{{
					ID:       "b1",
					Label:    "Save",
					Action:   &hotkey,
					Position: Position{Row: 0, Col: 0},
					Size:     Size{Rows: 1, Cols: 1},
					Style:    map[string]any{"backgroundColor": "#000"},
					Enabled:  true,
				}},
			}},
		}},
		DockedButtons: []Button{},
		Theme:         "dark",
	}
}

func TestProfileCloneIsDeep(t *testing.T) {
	orig := sampleProfile()
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Scenes[0].Name = "Changed"
	cp.Scenes[0].Pages[0].Buttons[0].Style["backgroundColor"] = "#fff"
	cp.Scenes[0].Pages[0].Buttons[0].Action.Config = action.URLConfig{URL: "x"}
	cp.DockedButtons = append(cp.DockedButtons, Button{ID: "d1"})

	assert.Equal(t, "Main", orig.Scenes[0].Name)
	assert.Equal(t, "#000", orig.Scenes[0].Pages[0].Buttons[0].Style["backgroundColor"])
	assert.IsType(t, action.HotkeyConfig{}, orig.Scenes[0].Pages[0].Buttons[0].Action.Config)
	assert.Empty(t, orig.DockedButtons)
}

func TestProfileJSONShape(t *testing.T) {
	data, err := json.Marshal(sampleProfile())
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "b1", decoded.Scenes[0].Pages[0].Buttons[0].ID)
	assert.Equal(t, action.KindHotkey, decoded.Scenes[0].Pages[0].Buttons[0].Action.Kind)
	assert.Contains(t, string(data), `"grid_config":{"rows":3,"cols":3}`)
	assert.Contains(t, string(data), `"dockedButtons":[]`)
}
