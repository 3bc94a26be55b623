package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/vdock"
)

const (
	pathLogin             = "/auth/login"
	pathVerify            = "/auth/verify"
	pathExecute           = "/actions/execute"
	pathProfiles          = "/profiles"
	pathProfileImport     = "/profiles/import"
	pathConfig            = "/config"
	PathMonitorStart      = "/app-monitor/start"
	PathMonitorStop       = "/app-monitor/stop"
	PathMonitorStatus     = "/app-monitor/status"
	PathMonitorActiveApp  = "/app-monitor/active-app"
	PathMonitorCurrentApp = "/app-monitor/current-app"
)

// ProfileSummary is the list form of a profile.
type ProfileSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Theme       string `json:"theme"`
	PageCount   int    `json:"page_count"`
}

type profileEnvelope struct {
	Profile *vdock.Profile `json:"profile"`
}

func profilePath(id string, suffix string) string {
	return pathProfiles + "/" + url.PathEscape(id) + suffix
}

// ExecuteAction runs a single action through the request/response endpoint.
func (c *Client) ExecuteAction(ctx context.Context, a action.Action) (vdock.ActionResult, error) {
	var res vdock.ActionResult
	err := c.do(ctx, http.MethodPost, pathExecute, map[string]any{"action": a}, &res)
	if err != nil {
		return vdock.ActionResult{}, err
	}
	return res, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	var out struct {
		Profiles []ProfileSummary `json:"profiles"`
	}
	if err := c.do(ctx, http.MethodGet, pathProfiles, nil, &out); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out.Profiles, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (*vdock.Profile, error) {
	return c.profileCall(ctx, http.MethodGet, profilePath(id, ""), nil)
}

// CreateProfile creates an empty profile; only the descriptive fields of p are used.
func (c *Client) CreateProfile(ctx context.Context, p *vdock.Profile) (*vdock.Profile, error) {
	body := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"icon":        p.Icon,
		"avatar":      p.Avatar,
		"theme":       p.Theme,
	}
	return c.profileCall(ctx, http.MethodPost, pathProfiles, body)
}

func (c *Client) UpdateProfile(ctx context.Context, p *vdock.Profile) (*vdock.Profile, error) {
	return c.profileCall(ctx, http.MethodPut, profilePath(p.ID, ""), p)
}

// SaveProfile stores p on the server.
func (c *Client) SaveProfile(ctx context.Context, p *vdock.Profile) error {
	_, err := c.UpdateProfile(ctx, p)
	return err
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, profilePath(id, ""), nil, nil); err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	return nil
}

func (c *Client) DuplicateProfile(ctx context.Context, id string) (*vdock.Profile, error) {
	return c.profileCall(ctx, http.MethodPost, profilePath(id, "/duplicate"), nil)
}

// ExportProfile returns the profile exactly as the server stores it.
func (c *Client) ExportProfile(ctx context.Context, id string) (json.RawMessage, error) {
	var out struct {
		Profile json.RawMessage `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, profilePath(id, "/export"), nil, &out); err != nil {
		return nil, fmt.Errorf("export profile %s: %w", id, err)
	}
	return out.Profile, nil
}

// ImportProfile uploads an exported profile. The server assigns a new id.
func (c *Client) ImportProfile(ctx context.Context, data json.RawMessage) (*vdock.Profile, error) {
	return c.profileCall(ctx, http.MethodPost, pathProfileImport, data)
}

func (c *Client) profileCall(ctx context.Context, method, path string, body any) (*vdock.Profile, error) {
	var out profileEnvelope
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out.Profile == nil {
		return nil, fmt.Errorf("%s %s: response carries no profile", method, path)
	}
	return out.Profile, nil
}

// StartMonitoring asks the server to start sampling the foreground app.
func (c *Client) StartMonitoring(ctx context.Context, interval time.Duration) error {
	body := map[string]any{"poll_interval": interval.Seconds()}
	if err := c.do(ctx, http.MethodPost, PathMonitorStart, body, nil); err != nil {
		return fmt.Errorf("start monitoring: %w", err)
	}
	return nil
}

func (c *Client) StopMonitoring(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, PathMonitorStop, nil, nil); err != nil {
		return fmt.Errorf("stop monitoring: %w", err)
	}
	return nil
}

// ActiveApp returns the foreground app last sampled by the server monitor.
func (c *Client) ActiveApp(ctx context.Context) (*vdock.RunningApp, error) {
	return c.app(ctx, PathMonitorActiveApp)
}

// CurrentApp samples the foreground app once, without a running monitor.
func (c *Client) CurrentApp(ctx context.Context) (*vdock.RunningApp, error) {
	return c.app(ctx, PathMonitorCurrentApp)
}

func (c *Client) app(ctx context.Context, path string) (*vdock.RunningApp, error) {
	var app vdock.RunningApp
	err := c.do(ctx, http.MethodGet, path, nil, &app)
	if errors.Is(err, ErrNotFound) {
		return nil, vdock.ErrNoActiveApp
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Client) MonitorStatus(ctx context.Context) (vdock.MonitorStatus, error) {
	var st vdock.MonitorStatus
	if err := c.do(ctx, http.MethodGet, PathMonitorStatus, nil, &st); err != nil {
		return vdock.MonitorStatus{}, fmt.Errorf("monitor status: %w", err)
	}
	return st, nil
}

func (c *Client) GetConfig(ctx context.Context) (vdock.ServerConfig, error) {
	var out struct {
		Config vdock.ServerConfig `json:"config"`
	}
	if err := c.do(ctx, http.MethodGet, pathConfig, nil, &out); err != nil {
		return vdock.ServerConfig{}, fmt.Errorf("get config: %w", err)
	}
	return out.Config, nil
}

// UpdateConfig changes the server's toggles. Host and port are read-only.
func (c *Client) UpdateConfig(ctx context.Context, cfg vdock.ServerConfig) error {
	body := map[string]bool{
		"require_auth":   cfg.RequireAuth,
		"allow_lan":      cfg.AllowLAN,
		"use_ssl":        cfg.UseSSL,
		"enable_plugins": cfg.EnablePlugins,
	}
	if err := c.do(ctx, http.MethodPut, pathConfig, body, nil); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return nil
}

// Login exchanges the password for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, pathLogin, map[string]string{"password": password}, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !out.Success || out.Token == "" {
		return "", fmt.Errorf("login: %w", ErrUnauthorized)
	}

	c.SetToken(out.Token)
	return out.Token, nil
}

// Verify reports whether the current token is accepted.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodGet, pathVerify, nil, &out)
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	return out.Valid, nil
}
