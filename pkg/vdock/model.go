package vdock

import (
	"encoding/json"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/grid"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type GridConfig struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

type Button struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	SecondaryLabel string         `json:"secondary_label,omitempty"`
	Icon           Icon           `json:"icon,omitzero"`
	IconType       string         `json:"icon_type,omitempty"`
	MediaURL       string         `json:"media_url,omitempty"`
	MediaType      string         `json:"media_type,omitempty"`
	Action         *action.Action `json:"action,omitempty"`
	Shape          string         `json:"shape,omitempty"`
	Position       Position       `json:"position"`
	Size           Size           `json:"size"`
	Style          map[string]any `json:"style,omitempty"`
	Tooltip        string         `json:"tooltip,omitempty"`
	Enabled        bool           `json:"enabled"`
}

// UnmarshalJSON fills in the defaults the server assumes for fields a
// stored button leaves out.
func (b *Button) UnmarshalJSON(data []byte) error {
	type plain Button
	out := plain{
		Size:    Size{Rows: 1, Cols: 1},
		Enabled: true,
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}

	*b = Button(out)
	return nil
}

// Rect returns the grid span the button occupies.
func (b Button) Rect() grid.Rect {
	return grid.Rect{Row: b.Position.Row, Col: b.Position.Col, Rows: b.Size.Rows, Cols: b.Size.Cols}
}

type Page struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Buttons    []Button       `json:"buttons"`
	GridConfig GridConfig     `json:"grid_config"`
	Background map[string]any `json:"background,omitempty"`
}

type Scene struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Icon           string `json:"icon,omitempty"`
	Color          string `json:"color,omitempty"`
	Pages          []Page   `json:"pages"`
	IsActive       bool     `json:"isActive"`
	ButtonSize     *float64 `json:"buttonSize,omitempty"`
	TriggeredByApp string   `json:"triggeredByApp,omitempty"`
	AutoCreated    bool     `json:"autoCreated,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

type ProfileSettings struct {
	DefaultGridRows   int     `json:"defaultGridRows,omitempty"`
	DefaultGridCols   int     `json:"defaultGridCols,omitempty"`
	ButtonSize        float64 `json:"buttonSize,omitempty"`
	ShowLabels        *bool   `json:"showLabels,omitempty"`
	ShowTooltips      *bool   `json:"showTooltips,omitempty"`
	AnimationsEnabled *bool   `json:"animationsEnabled,omitempty"`
}

// Profile is a complete deck. Pages is only read when migrating profiles
// saved before scenes existed.
type Profile struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Icon          string           `json:"icon,omitempty"`
	Avatar        string           `json:"avatar,omitempty"`
	Scenes        []Scene          `json:"scenes"`
	Pages         []Page           `json:"pages,omitempty"`
	DockedButtons []Button         `json:"dockedButtons"`
	Theme         string           `json:"theme"`
	Settings      *ProfileSettings `json:"settings,omitempty"`
	Integrations  []AppIntegration `json:"integrations,omitempty"`
	CreatedAt     string           `json:"created_at,omitempty"`
	UpdatedAt     string           `json:"updated_at,omitempty"`
}

type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// RunningApp is the foreground application as reported by the OS.
type RunningApp struct {
	Name string `json:"name"`
	Exe  string `json:"exe"`
	PID  int    `json:"pid"`
	Path string `json:"path,omitempty"`
}

// AppIntegration maps a foreground executable to the scene it selects.
type AppIntegration struct {
	AppExe          string `json:"appExe" yaml:"app_exe"`
	AppName         string `json:"appName,omitempty" yaml:"app_name"`
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	SceneID         string `json:"sceneId,omitempty" yaml:"scene_id"`
	SceneName       string `json:"sceneName,omitempty" yaml:"scene_name"`
	AutoSwitch      bool   `json:"autoSwitch" yaml:"auto_switch"`
	AutoCreateScene bool   `json:"autoCreateScene,omitempty" yaml:"auto_create_scene"`
}

type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	RequireAuth   bool   `json:"require_auth"`
	AllowLAN      bool   `json:"allow_lan"`
	UseSSL        bool   `json:"use_ssl"`
	EnablePlugins bool   `json:"enable_plugins"`
}

type MonitorStatus struct {
	Running      bool        `json:"running"`
	CurrentApp   *RunningApp `json:"current_app"`
	PollInterval float64     `json:"poll_interval"`
}
