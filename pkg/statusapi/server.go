package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"codeberg.org/miketth/vdock/pkg/dispatch"
	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deck is the part of the deck engine the status API drives.
type Deck interface {
	Profile() *vdock.Profile
	SceneIndex() int
	PageIndex() int
	Dirty() bool
	Button(id string) (vdock.Button, bool)
	ExecuteButtonAction(ctx context.Context, b vdock.Button) (vdock.ActionResult, error)
	SelectSceneByID(id string) bool
	NextPage()
	PreviousPage()
}

type Connection interface {
	State() dispatch.State
	Pending() int
}

type AppTracker interface {
	Running() bool
	Current() (vdock.RunningApp, bool)
}

// ErrorReporter is told about failed button presses.
type ErrorReporter interface {
	Report(err error) bool
}

type Server struct {
	deck     Deck
	conn     Connection
	monitor  AppTracker
	metrics  *metrics.Metrics
	reporter ErrorReporter
	log      *zap.SugaredLogger
}

type Option func(*Server)

func WithConnection(c Connection) Option {
	return func(s *Server) { s.conn = c }
}

func WithMonitor(m AppTracker) Option {
	return func(s *Server) { s.monitor = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithReporter(r ErrorReporter) Option {
	return func(s *Server) { s.reporter = r }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

func New(deck Deck, opts ...Option) *Server {
	s := &Server{
		deck: deck,
		log:  zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type monitorStatus struct {
	Running    bool              `json:"running"`
	CurrentApp *vdock.RunningApp `json:"current_app"`
}

type Status struct {
	ProfileID   string         `json:"profile_id"`
	ProfileName string         `json:"profile_name"`
	SceneIndex  int            `json:"scene_index"`
	PageIndex   int            `json:"page_index"`
	Dirty       bool           `json:"dirty"`
	Connection  string         `json:"connection"`
	Pending     int            `json:"pending"`
	Monitor     *monitorStatus `json:"monitor,omitempty"`
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", s.getStatus)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/buttons/{id}/press", s.pressButton)
	r.Post("/scenes/{id}/select", s.selectScene)
	r.Post("/pages/next", s.nextPage)
	r.Post("/pages/previous", s.previousPage)

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Infow("status api listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return ctx.Err()
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		SceneIndex: s.deck.SceneIndex(),
		PageIndex:  s.deck.PageIndex(),
		Dirty:      s.deck.Dirty(),
		Connection: dispatch.Disconnected.String(),
	}

	if p := s.deck.Profile(); p != nil {
		st.ProfileID = p.ID
		st.ProfileName = p.Name
	}

	if s.conn != nil {
		st.Connection = s.conn.State().String()
		st.Pending = s.conn.Pending()
	}

	if s.monitor != nil {
		st.Monitor = &monitorStatus{Running: s.monitor.Running()}
		if app, ok := s.monitor.Current(); ok {
			st.Monitor.CurrentApp = &app
		}
	}

	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) pressButton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, ok := s.deck.Button(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "button not found on current page"})
		return
	}

	result, err := s.deck.ExecuteButtonAction(r.Context(), b)
	if err != nil {
		s.log.Warnw("button press failed", "button", id, "error", err)
		if s.reporter != nil {
			s.reporter.Report(err)
		}
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) selectScene(w http.ResponseWriter, r *http.Request) {
	if !s.deck.SelectSceneByID(chi.URLParam(r, "id")) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "scene not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) nextPage(w http.ResponseWriter, r *http.Request) {
	s.deck.NextPage()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) previousPage(w http.ResponseWriter, r *http.Request) {
	s.deck.PreviousPage()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("encode response", "error", err)
	}
}
