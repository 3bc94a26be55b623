package deck

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/miketth/vdock/pkg/history"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoProfile   = errors.New("no profile loaded")
	ErrNoScene     = errors.New("no current scene")
	ErrNoPage      = errors.New("no current page")
	ErrNotFound    = errors.New("not found")
	ErrCollision   = errors.New("position already occupied")
	ErrInvalidSize = errors.New("button size must be at least 1x1")
	ErrDuplicateID = errors.New("id already in use")
	ErrLastChild   = errors.New("cannot remove the last remaining child")
	ErrNoExecutor  = errors.New("no action executor configured")
)

// Engine owns the live profile being edited together with its history.
// Mutations are serialized by the engine lock; persistence happens outside
// of it, see SaveLooper.
type Engine struct {
	mu         sync.Mutex
	profile    *vdock.Profile
	sceneIdx   int
	pageIdx    int
	history    *history.History[*vdock.Profile]
	dirty      bool
	saveSignal chan struct{}

	log         *zap.SugaredLogger
	store       vdock.ProfileStore
	cache       vdock.ProfileCache
	executor    vdock.ActionExecutor
	fullscreen  vdock.Fullscreener
	defaultGrid vdock.GridConfig
	historyCap  int
	saveTimeout time.Duration
	newID       func(prefix string) string
}

type Option func(*Engine)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithStore sets the remote profile store saves are sent to.
func WithStore(store vdock.ProfileStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithCache sets the local mirror written on every save.
func WithCache(cache vdock.ProfileCache) Option {
	return func(e *Engine) { e.cache = cache }
}

func WithExecutor(executor vdock.ActionExecutor) Option {
	return func(e *Engine) { e.executor = executor }
}

func WithFullscreen(f vdock.Fullscreener) Option {
	return func(e *Engine) { e.fullscreen = f }
}

// WithDefaultGrid sets the grid used for pages the engine creates itself.
func WithDefaultGrid(g vdock.GridConfig) Option {
	return func(e *Engine) {
		if g.Rows > 0 && g.Cols > 0 {
			e.defaultGrid = g
		}
	}
}

func WithHistoryCap(n int) Option {
	return func(e *Engine) { e.historyCap = n }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) { e.saveTimeout = d }
}

// WithIDGenerator replaces the id source for scenes and pages the engine creates.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		saveSignal:  make(chan struct{}, 1),
		log:         zap.NewNop().Sugar(),
		defaultGrid: vdock.GridConfig{Rows: 3, Cols: 3},
		historyCap:  history.DefaultCap,
		saveTimeout: 10 * time.Second,
		newID: func(prefix string) string {
			return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.history = history.New(e.historyCap, (*vdock.Profile).Clone)
	return e
}

// Load replaces the live profile, migrating legacy pages-only profiles into
// the scene hierarchy, and restarts history from it.
func (e *Engine) Load(profile *vdock.Profile) {
	if profile == nil {
		e.warn("load", ErrNoProfile)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.migrate(profile.Clone())
	e.profile = p
	e.sceneIdx = 0
	e.pageIdx = 0
	e.dirty = false
	e.history.Reset(p)

	e.log.Infow("loaded profile", "profile", p.ID, "scenes", len(p.Scenes))
}

func (e *Engine) migrate(p *vdock.Profile) *vdock.Profile {
	if p.DockedButtons == nil {
		p.DockedButtons = []vdock.Button{}
	}

	if len(p.Scenes) > 0 {
		for i := range p.Scenes {
			if len(p.Scenes[i].Pages) == 0 {
				p.Scenes[i].Pages = []vdock.Page{e.defaultPage(1)}
			}
		}
		p.Pages = nil
		return p
	}

	if len(p.Pages) > 0 {
		e.log.Infow("migrating legacy profile into a default scene", "profile", p.ID, "pages", len(p.Pages))
		p.Scenes = []vdock.Scene{{
			ID:    e.newID("scene"),
			Name:  "Default Scene",
			Pages: p.Pages,
		}}
		p.Pages = nil
		return p
	}

	p.Scenes = []vdock.Scene{e.defaultScene(1)}
	return p
}

func (e *Engine) defaultScene(n int) vdock.Scene {
	return vdock.Scene{
		ID:    e.newID("scene"),
		Name:  fmt.Sprintf("Scene %d", n),
		Pages: []vdock.Page{e.defaultPage(1)},
	}
}

func (e *Engine) defaultPage(n int) vdock.Page {
	return vdock.Page{
		ID:         e.newID("page"),
		Name:       fmt.Sprintf("Page %d", n),
		Buttons:    []vdock.Button{},
		GridConfig: e.defaultGrid,
	}
}

// commit snapshots the live profile and marks it for saving. Callers hold e.mu.
func (e *Engine) commit() {
	e.history.Push(e.profile)
	e.markDirty()
}

// currentScene returns the scene under the cursor. Callers hold e.mu.
func (e *Engine) currentScene() (*vdock.Scene, error) {
	if e.profile == nil {
		return nil, ErrNoProfile
	}
	if e.sceneIdx < 0 || e.sceneIdx >= len(e.profile.Scenes) {
		return nil, ErrNoScene
	}
	return &e.profile.Scenes[e.sceneIdx], nil
}

// currentPage returns the page under the cursor. Callers hold e.mu.
func (e *Engine) currentPage() (*vdock.Page, error) {
	scene, err := e.currentScene()
	if err != nil {
		return nil, err
	}
	if e.pageIdx < 0 || e.pageIdx >= len(scene.Pages) {
		return nil, ErrNoPage
	}
	return &scene.Pages[e.pageIdx], nil
}

// clampCursors keeps the cursors inside the live profile after it was replaced.
func (e *Engine) clampCursors() {
	if e.profile == nil {
		return
	}
	e.sceneIdx = clamp(e.sceneIdx, len(e.profile.Scenes))
	if e.sceneIdx < len(e.profile.Scenes) {
		e.pageIdx = clamp(e.pageIdx, len(e.profile.Scenes[e.sceneIdx].Pages))
	}
}

func clamp(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func (e *Engine) warn(op string, err error, kv ...any) {
	e.log.Warnw(op+" rejected", append([]any{"reason", err}, kv...)...)
}

// Profile returns a copy of the live profile, or nil before Load.
func (e *Engine) Profile() *vdock.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// CurrentScene returns a copy of the scene under the cursor.
func (e *Engine) CurrentScene() (vdock.Scene, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene, err := e.currentScene()
	if err != nil {
		return vdock.Scene{}, false
	}
	return scene.Clone(), true
}

// CurrentPage returns a copy of the page under the cursor.
func (e *Engine) CurrentPage() (vdock.Page, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		return vdock.Page{}, false
	}
	return page.Clone(), true
}

// Button looks up a button on the current page.
func (e *Engine) Button(id string) (vdock.Button, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.currentPage()
	if err != nil {
		return vdock.Button{}, false
	}
	idx := findButton(page, id)
	if idx < 0 {
		return vdock.Button{}, false
	}
	return page.Buttons[idx].Clone(), true
}

func (e *Engine) SceneIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sceneIdx
}

func (e *Engine) PageIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageIdx
}

func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len()
}

// Undo restores the previous snapshot. It is a no-op at the oldest entry.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.profile = p
	e.clampCursors()
	e.markDirty()
	return true
}

// Redo re-applies the next snapshot. It is a no-op at the newest entry.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.profile = p
	e.clampCursors()
	e.markDirty()
	return true
}

func (e *Engine) markDirty() {
	e.dirty = true
	select {
	case e.saveSignal <- struct{}{}:
	default:
	}
}
