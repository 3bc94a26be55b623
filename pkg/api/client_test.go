package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T, r chi.Router) string {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestExecuteActionSendsTokenAndAction(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/actions/execute", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

		var body struct {
			Action action.Action `json:"action"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		cfg, ok := body.Action.Config.(action.HotkeyConfig)
		require.True(t, ok)

		writeJSON(w, http.StatusOK, vdock.ActionResult{Success: true, Message: cfg.Keys[0]})
	})

	c := New(newServer(t, r), WithToken("abc"))
	res, err := c.ExecuteAction(context.Background(), action.Action{
		Kind:   action.KindHotkey,
		Config: action.HotkeyConfig{Keys: []string{"ctrl"}},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ctrl", res.Message)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		status int
		want   Category
	}{
		{401, CategoryUnauthorized},
		{403, CategoryForbidden},
		{404, CategoryNotFound},
		{408, CategoryRequestTimeout},
		{413, CategoryPayloadTooLarge},
		{429, CategoryRateLimited},
		{500, CategoryServerError},
		{502, CategoryUnavailable},
		{503, CategoryUnavailable},
		{504, CategoryUnavailable},
		{400, CategoryGeneric},
		{418, CategoryGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.status), "status %d", tt.status)
	}
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/profiles/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Profile not found"})
	})

	c := New(newServer(t, r))
	_, err := c.GetProfile(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, CategoryNotFound, serr.Category)
	assert.Equal(t, "Profile not found", serr.Message)
	assert.Equal(t, "/profiles/missing", serr.Path)
}

func TestUnauthorizedClearsTokenAfterDelay(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/profiles", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	})

	mock := clock.NewMock()
	var redirected atomic.Int32
	c := New(newServer(t, r),
		WithToken("stale"),
		WithClock(mock),
		WithOnUnauthorized(func() { redirected.Add(1) }),
	)

	_, err := c.ListProfiles(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token())
	assert.Equal(t, int32(0), redirected.Load())

	mock.Add(1499 * time.Millisecond)
	assert.Equal(t, int32(0), redirected.Load())
	mock.Add(time.Millisecond)
	assert.Eventually(t, func() bool { return redirected.Load() == 1 }, time.Second, time.Millisecond)
}

func TestLoginFailureDoesNotRedirect(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid password", "success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": "t0k", "success": true})
	})

	mock := clock.NewMock()
	var redirected atomic.Int32
	c := New(newServer(t, r), WithClock(mock), WithOnUnauthorized(func() { redirected.Add(1) }))

	_, err := c.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	mock.Add(time.Minute)
	assert.Equal(t, int32(0), redirected.Load())

	token, err := c.Login(context.Background(), "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "t0k", token)
	assert.Equal(t, "t0k", c.Token())
}

func TestActiveAppNotFoundMeansNoApp(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/app-monitor/active-app", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No active application tracked"})
	})
	r.Get("/api/app-monitor/current-app", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, vdock.RunningApp{Name: "Code", Exe: "code", PID: 42})
	})

	c := New(newServer(t, r))

	_, err := c.ActiveApp(context.Background())
	assert.ErrorIs(t, err, vdock.ErrNoActiveApp)

	app, err := c.CurrentApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "code", app.Exe)
}

func TestMonitoringEndpoints(t *testing.T) {
	var interval float64
	var stopped atomic.Bool

	r := chi.NewRouter()
	r.Post("/api/app-monitor/start", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]float64
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		interval = body["poll_interval"]
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "running": true})
	})
	r.Post("/api/app-monitor/stop", func(w http.ResponseWriter, req *http.Request) {
		stopped.Store(true)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	r.Get("/api/app-monitor/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"running": true, "current_app": nil, "poll_interval": 2.5})
	})

	c := New(newServer(t, r))
	require.NoError(t, c.StartMonitoring(context.Background(), 2500*time.Millisecond))
	assert.InDelta(t, 2.5, interval, 0.0001)

	st, err := c.MonitorStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Nil(t, st.CurrentApp)

	require.NoError(t, c.StopMonitoring(context.Background()))
	assert.True(t, stopped.Load())
}

func TestProfileEndpoints(t *testing.T) {
	stored := map[string]*vdock.Profile{}

	r := chi.NewRouter()
	r.Route("/api/profiles", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			var list []ProfileSummary
			for _, p := range stored {
				list = append(list, ProfileSummary{ID: p.ID, Name: p.Name})
			}
			writeJSON(w, http.StatusOK, map[string]any{"profiles": list})
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			p := &vdock.Profile{ID: "new", Name: body["name"]}
			stored[p.ID] = p
			writeJSON(w, http.StatusCreated, map[string]any{"profile": p, "success": true})
		})
		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			var p vdock.Profile
			require.NoError(t, json.NewDecoder(req.Body).Decode(&p))
			assert.Equal(t, chi.URLParam(req, "id"), p.ID)
			stored[p.ID] = &p
			writeJSON(w, http.StatusOK, map[string]any{"profile": p, "success": true})
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			delete(stored, chi.URLParam(req, "id"))
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Get("/{id}/export", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"profile": stored[chi.URLParam(req, "id")], "success": true})
		})
	})

	c := New(newServer(t, r))
	ctx := context.Background()

	created, err := c.CreateProfile(ctx, &vdock.Profile{Name: "Streaming"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)

	created.Description = "obs scenes"
	require.NoError(t, c.SaveProfile(ctx, created))
	assert.Equal(t, "obs scenes", stored["new"].Description)

	list, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Streaming", list[0].Name)

	raw, err := c.ExportProfile(ctx, "new")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"obs scenes"`)

	require.NoError(t, c.DeleteProfile(ctx, "new"))
	assert.Empty(t, stored)
}

func TestConfigEndpoints(t *testing.T) {
	var update map[string]bool

	r := chi.NewRouter()
	r.Get("/api/config", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"config": map[string]any{"host": "0.0.0.0", "port": 5000, "require_auth": true}})
	})
	r.Put("/api/config", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&update))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	c := New(newServer(t, r))
	cfg, err := c.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.RequireAuth)

	cfg.AllowLAN = true
	require.NoError(t, c.UpdateConfig(context.Background(), cfg))
	assert.True(t, update["allow_lan"])
	assert.True(t, update["require_auth"])
	assert.NotContains(t, update, "port")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base)
	_, err := c.ExecuteAction(context.Background(), action.Navigation(action.KindNextPage))
	require.Error(t, err)

	var nerr *NetworkError
	assert.True(t, errors.As(err, &nerr))
	assert.Equal(t, "/actions/execute", nerr.Path)
}
