package action

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Typed records keep the payload keys they do not model in Extra so that a
// saved action carries everything it was loaded with.

// NavigationConfig is carried by the local page navigation kinds.
type NavigationConfig struct{}

type HotkeyConfig struct {
	Keys  []string `json:"keys"`
	Delay float64  `json:"delay,omitempty"`

	Extra map[string]any `json:"-"`
}

type URLConfig struct {
	URL string `json:"url"`

	Extra map[string]any `json:"-"`
}

type ProgramConfig struct {
	Path       string   `json:"path"`
	Args       []string `json:"args,omitempty"`
	WorkingDir string   `json:"working_dir,omitempty"`

	Extra map[string]any `json:"-"`
}

type CommandConfig struct {
	Command             string `json:"command"`
	RequireConfirmation bool   `json:"require_confirmation,omitempty"`
	Confirmed           bool   `json:"confirmed,omitempty"`

	Extra map[string]any `json:"-"`
}

// SystemControlConfig covers volume, media and window controls. The
// "fullscreen" action also toggles the host window once the executor
// reports success.
type SystemControlConfig struct {
	Action string `json:"action"`
	Step   int    `json:"step,omitempty"`

	Extra map[string]any `json:"-"`
}

const SystemFullscreen = "fullscreen"

type MultiActionConfig struct {
	Actions     []Action `json:"actions"`
	Delay       float64  `json:"delay,omitempty"`
	StopOnError bool     `json:"stop_on_error,omitempty"`

	Extra map[string]any `json:"-"`
}

type MacroStep struct {
	Type     string   `json:"type"`
	Keys     []string `json:"keys,omitempty"`
	Text     string   `json:"text,omitempty"`
	Delay    int      `json:"delay,omitempty"`
	Position *Point   `json:"position,omitempty"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MacroConfig struct {
	Steps []MacroStep `json:"steps"`

	Extra map[string]any `json:"-"`
}

// Opaque holds the payload of kinds this package has no record for. The
// kind is kept so an unknown kind is never mistaken for a known one.
type Opaque struct {
	Of     Kind
	Values map[string]any
}

func (NavigationConfig) kind() Kind    { return "" }
func (HotkeyConfig) kind() Kind        { return KindHotkey }
func (URLConfig) kind() Kind           { return KindURL }
func (ProgramConfig) kind() Kind       { return KindProgram }
func (CommandConfig) kind() Kind       { return KindCommand }
func (SystemControlConfig) kind() Kind { return KindSystemControl }
func (MultiActionConfig) kind() Kind   { return KindMultiAction }
func (MacroConfig) kind() Kind         { return KindMacro }
func (o Opaque) kind() Kind            { return o.Of }

func (c NavigationConfig) clone() Config { return c }

func (c URLConfig) clone() Config {
	c.Extra = CloneMap(c.Extra)
	return c
}

func (c CommandConfig) clone() Config {
	c.Extra = CloneMap(c.Extra)
	return c
}

func (c SystemControlConfig) clone() Config {
	c.Extra = CloneMap(c.Extra)
	return c
}

func (c HotkeyConfig) clone() Config {
	c.Keys = cloneStrings(c.Keys)
	c.Extra = CloneMap(c.Extra)
	return c
}

func (c ProgramConfig) clone() Config {
	c.Args = cloneStrings(c.Args)
	c.Extra = CloneMap(c.Extra)
	return c
}

func (c MultiActionConfig) clone() Config {
	c.Extra = CloneMap(c.Extra)
	if c.Actions != nil {
		actions := make([]Action, len(c.Actions))
		for i, a := range c.Actions {
			actions[i] = a.Clone()
		}
		c.Actions = actions
	}
	return c
}

func (c MacroConfig) clone() Config {
	c.Extra = CloneMap(c.Extra)
	if c.Steps != nil {
		steps := make([]MacroStep, len(c.Steps))
		for i, s := range c.Steps {
			s.Keys = cloneStrings(s.Keys)
			if s.Position != nil {
				p := *s.Position
				s.Position = &p
			}
			steps[i] = s
		}
		c.Steps = steps
	}
	return c
}

func (o Opaque) clone() Config {
	return Opaque{Of: o.Of, Values: CloneMap(o.Values)}
}

func decodeConfig(kind Kind, raw map[string]any) (Config, error) {
	var target Config
	switch {
	case kind.IsLocal():
		return NavigationConfig{}, nil
	case kind == KindHotkey:
		target = &HotkeyConfig{}
	case kind == KindURL:
		target = &URLConfig{}
	case kind == KindProgram:
		target = &ProgramConfig{}
	case kind == KindCommand:
		target = &CommandConfig{}
	case kind == KindSystemControl:
		target = &SystemControlConfig{}
	case kind == KindMultiAction:
		target = &MultiActionConfig{}
	case kind == KindMacro:
		target = &MacroConfig{}
	default:
		return Opaque{Of: kind, Values: CloneMap(raw)}, nil
	}

	var meta mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       nestedActionHook,
		Metadata:         &meta,
		Result:           target,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	record := reflect.ValueOf(target).Elem()

	// Unused also lists nested keys such as "steps[0].foo"; only top level
	// keys are kept.
	var extra map[string]any
	for _, key := range meta.Unused {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[key] = cloneValue(v)
	}
	if extra != nil {
		if f := record.FieldByName("Extra"); f.IsValid() {
			f.Set(reflect.ValueOf(extra))
		}
	}

	return record.Interface().(Config), nil
}

func extraOf(cfg Config) map[string]any {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Struct {
		return nil
	}
	f := v.FieldByName("Extra")
	if !f.IsValid() || f.IsNil() {
		return nil
	}
	return f.Interface().(map[string]any)
}

var actionType = reflect.TypeOf(Action{})

// nestedActionHook lets multi actions carry full actions in their payload.
func nestedActionHook(from, to reflect.Type, data any) (any, error) {
	if to != actionType {
		return data, nil
	}

	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	kind, _ := m["type"].(string)
	cfg, _ := m["config"].(map[string]any)
	return New(Kind(kind), cfg)
}

func encodeConfig(cfg Config) (map[string]any, error) {
	switch c := cfg.(type) {
	case nil, NavigationConfig:
		return map[string]any{}, nil
	case Opaque:
		return CloneMap(c.Values), nil
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	for k, v := range extraOf(cfg) {
		if _, ok := out[k]; !ok {
			out[k] = cloneValue(v)
		}
	}

	return out, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// CloneMap deep-copies a JSON-like map. Nested maps and slices are copied,
// scalars are shared.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return cloneStrings(t)
	}
	return v
}
