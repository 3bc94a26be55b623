package action

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindNextPage     Kind = "next_page"
	KindPreviousPage Kind = "previous_page"
	KindHomePage     Kind = "home_page"

	KindURL           Kind = "url"
	KindProgram       Kind = "program"
	KindCommand       Kind = "command"
	KindHotkey        Kind = "hotkey"
	KindMultiAction   Kind = "multi_action"
	KindMacro         Kind = "macro"
	KindSystemControl Kind = "system_control"
	KindSystemMetric  Kind = "system_metric"
	KindWeather       Kind = "weather"
	KindCrossPlatform Kind = "cross_platform"
	KindFolder        Kind = "folder"
	KindPlugin        Kind = "plugin"
	KindScreenshot    Kind = "screenshot"
	KindUIControl     Kind = "ui_control"
)

var ErrMissingKind = errors.New("action kind is missing")

// IsLocal reports whether the kind is handled by the deck itself instead of
// the remote executor.
func (k Kind) IsLocal() bool {
	switch k {
	case KindNextPage, KindPreviousPage, KindHomePage:
		return true
	}
	return false
}

// Action is what a button executes. Config always holds a record matching
// Kind; kinds without a typed record carry an Opaque payload.
type Action struct {
	Kind   Kind
	Config Config
}

// Config is implemented by every per-kind configuration record.
type Config interface {
	kind() Kind
	clone() Config
}

// New builds an action from a kind and its raw configuration map.
func New(kind Kind, raw map[string]any) (Action, error) {
	if kind == "" {
		return Action{}, ErrMissingKind
	}

	cfg, err := decodeConfig(kind, raw)
	if err != nil {
		return Action{}, fmt.Errorf("decode %s config: %w", kind, err)
	}

	return Action{Kind: kind, Config: cfg}, nil
}

// Navigation returns a local navigation action.
func Navigation(kind Kind) Action {
	return Action{Kind: kind, Config: NavigationConfig{}}
}

func (a Action) IsLocal() bool {
	return a.Kind.IsLocal()
}

// Clone returns a copy that shares no mutable state with a.
func (a Action) Clone() Action {
	out := Action{Kind: a.Kind}
	if a.Config != nil {
		out.Config = a.Config.clone()
	}
	return out
}

// SystemControl returns the system control record if the action is one.
func (a Action) SystemControl() (SystemControlConfig, bool) {
	cfg, ok := a.Config.(SystemControlConfig)
	return cfg, ok
}

type wireAction struct {
	Type   Kind           `json:"type"`
	Config map[string]any `json:"config"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	if a.Config != nil {
		if k := a.Config.kind(); k != "" && k != a.Kind {
			return nil, fmt.Errorf("action %s carries %s config", a.Kind, k)
		}
	}

	raw, err := encodeConfig(a.Config)
	if err != nil {
		return nil, fmt.Errorf("encode %s config: %w", a.Kind, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	return json.Marshal(wireAction{Type: a.Kind, Config: raw})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var wire wireAction
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	decoded, err := New(wire.Type, wire.Config)
	if err != nil {
		return err
	}

	*a = decoded
	return nil
}
