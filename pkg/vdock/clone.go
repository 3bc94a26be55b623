package vdock

import "codeberg.org/miketth/vdock/pkg/action"

// Clone returns a deep copy of p. The copy shares no slices, maps or
// actions with p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	out := *p
	out.Scenes = cloneScenes(p.Scenes)
	out.Pages = clonePages(p.Pages)
	out.DockedButtons = cloneButtons(p.DockedButtons)
	if p.Settings != nil {
		s := *p.Settings
		s.ShowLabels = cloneBool(s.ShowLabels)
		s.ShowTooltips = cloneBool(s.ShowTooltips)
		s.AnimationsEnabled = cloneBool(s.AnimationsEnabled)
		out.Settings = &s
	}
	if p.Integrations != nil {
		out.Integrations = make([]AppIntegration, len(p.Integrations))
		copy(out.Integrations, p.Integrations)
	}
	return &out
}

func (s Scene) Clone() Scene {
	s.Pages = clonePages(s.Pages)
	if s.ButtonSize != nil {
		v := *s.ButtonSize
		s.ButtonSize = &v
	}
	return s
}

func (pg Page) Clone() Page {
	pg.Buttons = cloneButtons(pg.Buttons)
	pg.Background = action.CloneMap(pg.Background)
	return pg
}

func (b Button) Clone() Button {
	if b.Action != nil {
		a := b.Action.Clone()
		b.Action = &a
	}
	b.Icon = b.Icon.Clone()
	b.Style = action.CloneMap(b.Style)
	return b
}

func cloneScenes(in []Scene) []Scene {
	if in == nil {
		return nil
	}
	out := make([]Scene, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func clonePages(in []Page) []Page {
	if in == nil {
		return nil
	}
	out := make([]Page, len(in))
	for i, pg := range in {
		out[i] = pg.Clone()
	}
	return out
}

func cloneButtons(in []Button) []Button {
	if in == nil {
		return nil
	}
	out := make([]Button, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
