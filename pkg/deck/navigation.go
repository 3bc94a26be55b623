package deck

// SelectScene moves to the scene at index and back to its first page.
// Out of range indexes are ignored.
func (e *Engine) SelectScene(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("select scene", ErrNoProfile)
		return
	}
	if index < 0 || index >= len(e.profile.Scenes) {
		return
	}
	e.sceneIdx = index
	e.pageIdx = 0
}

// SelectSceneByID selects the scene with the given id and reports whether it exists.
func (e *Engine) SelectSceneByID(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("select scene", ErrNoProfile, "scene", id)
		return false
	}
	for i, s := range e.profile.Scenes {
		if s.ID == id {
			if i != e.sceneIdx {
				e.sceneIdx = i
				e.pageIdx = 0
			}
			return true
		}
	}
	return false
}

// SelectPage moves to the page at index of the current scene. Out of range
// indexes are ignored.
func (e *Engine) SelectPage(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("select page", err)
		return
	}
	if index < 0 || index >= len(scene.Pages) {
		return
	}
	e.pageIdx = index
}

// NextPage advances to the next page, wrapping to the first.
func (e *Engine) NextPage() {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("next page", err)
		return
	}
	if e.pageIdx < len(scene.Pages)-1 {
		e.pageIdx++
	} else {
		e.pageIdx = 0
	}
}

// PreviousPage goes back one page, wrapping to the last.
func (e *Engine) PreviousPage() {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		e.warn("previous page", err)
		return
	}
	if e.pageIdx > 0 {
		e.pageIdx--
	} else {
		e.pageIdx = len(scene.Pages) - 1
	}
}

// NextScene advances to the next scene, stopping at the last one.
func (e *Engine) NextScene() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("next scene", ErrNoProfile)
		return
	}
	if e.sceneIdx < len(e.profile.Scenes)-1 {
		e.sceneIdx++
		e.pageIdx = 0
	}
}

// PreviousScene goes back one scene, stopping at the first one.
func (e *Engine) PreviousScene() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.profile == nil {
		e.warn("previous scene", ErrNoProfile)
		return
	}
	if e.sceneIdx > 0 {
		e.sceneIdx--
		e.pageIdx = 0
	}
}
