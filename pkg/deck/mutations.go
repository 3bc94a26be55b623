package deck

import (
	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/grid"
	"codeberg.org/miketth/vdock/pkg/vdock"
)

// SceneUpdate holds the scene fields to change; nil fields are left alone.
type SceneUpdate struct {
	Name           *string
	Icon           *string
	Color          *string
	ButtonSize     *float64
	TriggeredByApp *string
	AutoCreated    *bool
}

// PageUpdate holds the page fields to change; nil fields are left alone.
type PageUpdate struct {
	Name       *string
	GridConfig *vdock.GridConfig
	Background map[string]any
}

// ButtonUpdate holds the button fields to change; nil fields are left alone.
// ClearAction removes the action regardless of Action.
type ButtonUpdate struct {
	Label          *string
	SecondaryLabel *string
	Icon           *vdock.Icon
	IconType       *string
	MediaURL       *string
	MediaType      *string
	Shape          *string
	Tooltip        *string
	Action         *action.Action
	ClearAction    bool
	Position       *vdock.Position
	Size           *vdock.Size
	Style          map[string]any
	Enabled        *bool
}

// AddScene appends a scene. A nil scene creates one with a single empty page.
func (e *Engine) AddScene(scene *vdock.Scene) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("add scene", ErrNoProfile)
		return ErrNoProfile
	}

	var s vdock.Scene
	if scene == nil {
		s = e.defaultScene(len(e.profile.Scenes) + 1)
	} else {
		s = scene.Clone()
		if s.ID == "" {
			s.ID = e.newID("scene")
		}
		if len(s.Pages) == 0 {
			s.Pages = []vdock.Page{e.defaultPage(1)}
		}
	}

	if findScene(e.profile, s.ID) >= 0 {
		e.warn("add scene", ErrDuplicateID, "scene", s.ID)
		return ErrDuplicateID
	}

	e.profile.Scenes = append(e.profile.Scenes, s)
	e.commit()
	return nil
}

// RemoveScene deletes a scene. The last remaining scene cannot be removed.
func (e *Engine) RemoveScene(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("remove scene", ErrNoProfile)
		return ErrNoProfile
	}

	idx := findScene(e.profile, id)
	if idx < 0 {
		return ErrNotFound
	}
	if len(e.profile.Scenes) == 1 {
		e.warn("remove scene", ErrLastChild, "scene", id)
		return ErrLastChild
	}

	e.profile.Scenes = append(e.profile.Scenes[:idx], e.profile.Scenes[idx+1:]...)
	e.clampCursors()
	e.commit()
	return nil
}

func (e *Engine) UpdateScene(id string, u SceneUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("update scene", ErrNoProfile)
		return ErrNoProfile
	}

	idx := findScene(e.profile, id)
	if idx < 0 {
		return ErrNotFound
	}

	s := &e.profile.Scenes[idx]
	setString(&s.Name, u.Name)
	setString(&s.Icon, u.Icon)
	setString(&s.Color, u.Color)
	if u.ButtonSize != nil {
		v := *u.ButtonSize
		s.ButtonSize = &v
	}
	setString(&s.TriggeredByApp, u.TriggeredByApp)
	if u.AutoCreated != nil {
		s.AutoCreated = *u.AutoCreated
	}

	e.commit()
	return nil
}

// AddPage appends a page to the current scene. A nil page creates an empty
// one with the default grid.
func (e *Engine) AddPage(page *vdock.Page) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("add page", err)
		return err
	}

	var pg vdock.Page
	if page == nil {
		pg = e.defaultPage(len(scene.Pages) + 1)
	} else {
		pg = page.Clone()
		if pg.ID == "" {
			pg.ID = e.newID("page")
		}
		if pg.Buttons == nil {
			pg.Buttons = []vdock.Button{}
		}
		if pg.GridConfig.Rows < 1 || pg.GridConfig.Cols < 1 {
			pg.GridConfig = e.defaultGrid
		}
	}

	if findPage(scene, pg.ID) >= 0 {
		e.warn("add page", ErrDuplicateID, "page", pg.ID)
		return ErrDuplicateID
	}

	scene.Pages = append(scene.Pages, pg)
	e.commit()
	return nil
}

// RemovePage deletes a page of the current scene. The last remaining page
// cannot be removed.
func (e *Engine) RemovePage(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("remove page", err)
		return err
	}

	idx := findPage(scene, id)
	if idx < 0 {
		return ErrNotFound
	}
	if len(scene.Pages) == 1 {
		e.warn("remove page", ErrLastChild, "page", id)
		return ErrLastChild
	}

	scene.Pages = append(scene.Pages[:idx], scene.Pages[idx+1:]...)
	e.clampCursors()
	e.commit()
	return nil
}

func (e *Engine) UpdatePage(id string, u PageUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("update page", err)
		return err
	}

	idx := findPage(scene, id)
	if idx < 0 {
		return ErrNotFound
	}
	if u.GridConfig != nil && (u.GridConfig.Rows < 1 || u.GridConfig.Cols < 1) {
		e.warn("update page", ErrInvalidSize, "page", id)
		return ErrInvalidSize
	}

	pg := &scene.Pages[idx]
	setString(&pg.Name, u.Name)
	if u.GridConfig != nil {
		pg.GridConfig = *u.GridConfig
	}
	if u.Background != nil {
		pg.Background = action.CloneMap(u.Background)
	}

	e.commit()
	return nil
}

// AddButton places a button on the current page. It is rejected without any
// state change if it would overlap another button. A button without an id
// gets a generated one.
func (e *Engine) AddButton(b vdock.Button) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		e.warn("add button", err)
		return err
	}
	if !b.Rect().Valid() {
		e.warn("add button", ErrInvalidSize, "button", b.ID)
		return ErrInvalidSize
	}
	if b.ID == "" {
		b.ID = e.newID("btn")
	}
	if findButton(page, b.ID) >= 0 {
		e.warn("add button", ErrDuplicateID, "button", b.ID)
		return ErrDuplicateID
	}
	if collides(page, b.Rect(), -1) {
		e.warn("add button", ErrCollision, "button", b.ID, "position", b.Position)
		return ErrCollision
	}

	page.Buttons = append(page.Buttons, b.Clone())
	e.commit()
	return nil
}

func (e *Engine) RemoveButton(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		e.warn("remove button", err)
		return err
	}

	idx := findButton(page, id)
	if idx < 0 {
		return ErrNotFound
	}

	page.Buttons = append(page.Buttons[:idx], page.Buttons[idx+1:]...)
	e.commit()
	return nil
}

// UpdateButton changes a button on the current page. Changes to position or
// size go through the same collision check as MoveButton.
func (e *Engine) UpdateButton(id string, u ButtonUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		e.warn("update button", err)
		return err
	}

	idx := findButton(page, id)
	if idx < 0 {
		return ErrNotFound
	}

	b := page.Buttons[idx].Clone()
	setString(&b.Label, u.Label)
	setString(&b.SecondaryLabel, u.SecondaryLabel)
	if u.Icon != nil {
		b.Icon = u.Icon.Clone()
	}
	setString(&b.IconType, u.IconType)
	setString(&b.MediaURL, u.MediaURL)
	setString(&b.MediaType, u.MediaType)
	setString(&b.Shape, u.Shape)
	setString(&b.Tooltip, u.Tooltip)
	if u.Action != nil {
		a := u.Action.Clone()
		b.Action = &a
	}
	if u.ClearAction {
		b.Action = nil
	}
	if u.Style != nil {
		b.Style = action.CloneMap(u.Style)
	}
	if u.Enabled != nil {
		b.Enabled = *u.Enabled
	}

	if u.Position != nil || u.Size != nil {
		if u.Position != nil {
			b.Position = *u.Position
		}
		if u.Size != nil {
			b.Size = *u.Size
		}
		if !b.Rect().Valid() {
			e.warn("update button", ErrInvalidSize, "button", id)
			return ErrInvalidSize
		}
		if collides(page, b.Rect(), idx) {
			e.warn("update button", ErrCollision, "button", id, "position", b.Position)
			return ErrCollision
		}
	}

	page.Buttons[idx] = b
	e.commit()
	return nil
}

// MoveButton relocates a button on the current page. The move is rejected
// and the button stays put if the new span overlaps another button.
func (e *Engine) MoveButton(id string, pos vdock.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		e.warn("move button", err)
		return err
	}

	idx := findButton(page, id)
	if idx < 0 {
		return ErrNotFound
	}

	candidate := page.Buttons[idx]
	candidate.Position = pos
	if !candidate.Rect().Valid() {
		e.warn("move button", ErrInvalidSize, "button", id)
		return ErrInvalidSize
	}
	if collides(page, candidate.Rect(), idx) {
		e.warn("move button", ErrCollision, "button", id, "position", pos)
		return ErrCollision
	}

	page.Buttons[idx].Position = pos
	e.commit()
	return nil
}

// collides reports whether r overlaps any button on page other than the one
// at index skip.
func collides(page *vdock.Page, r grid.Rect, skip int) bool {
	for i, other := range page.Buttons {
		if i == skip {
			continue
		}
		if grid.Overlaps(r, other.Rect()) {
			return true
		}
	}
	return false
}

func findScene(p *vdock.Profile, id string) int {
	for i, s := range p.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func findPage(s *vdock.Scene, id string) int {
	for i, pg := range s.Pages {
		if pg.ID == id {
			return i
		}
	}
	return -1
}

func findButton(pg *vdock.Page, id string) int {
	for i, b := range pg.Buttons {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
