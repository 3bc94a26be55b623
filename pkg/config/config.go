package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const relPath = "vdock/config.yaml"

type Server struct {
	APIURL       string `yaml:"api_url"`
	WebSocketURL string `yaml:"websocket_url"`
	Token        string `yaml:"token"`
	Password     string `yaml:"password"`
}

type Monitor struct {
	// Source is "remote" to ask the server for the foreground app or
	// "hyprland" to read it from the local compositor.
	Source       string        `yaml:"source"`
	PollInterval time.Duration `yaml:"poll_interval"`
	AutoSwitch   bool          `yaml:"auto_switch"`
}

type Deck struct {
	ProfileID   string           `yaml:"profile_id"`
	DefaultGrid vdock.GridConfig `yaml:"default_grid"`
	HistoryCap  int              `yaml:"history_cap"`
	SaveTimeout time.Duration    `yaml:"save_timeout"`
}

type Dispatch struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Cache struct {
	// Backend is one of memory, json, sqlite or redis.
	Backend string `yaml:"backend"`
	// Path is the json or sqlite file. Empty means a file in the XDG cache dir.
	Path  string `yaml:"path"`
	Redis Redis  `yaml:"redis"`
}

type Status struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Debug    bool     `yaml:"debug"`
	Server   Server   `yaml:"server"`
	Monitor  Monitor  `yaml:"monitor"`
	Deck     Deck     `yaml:"deck"`
	Dispatch Dispatch `yaml:"dispatch"`
	Cache    Cache    `yaml:"cache"`
	Status   Status   `yaml:"status"`
	// Integrations are used when the loaded profile carries none.
	Integrations []vdock.AppIntegration `yaml:"integrations"`
}

func Default() Config {
	return Config{
		Server: Server{
			APIURL:       "http://localhost:5000/api",
			WebSocketURL: "ws://localhost:5000/ws",
		},
		Monitor: Monitor{
			Source:       "remote",
			PollInterval: 5 * time.Second,
			AutoSwitch:   true,
		},
		Deck: Deck{
			DefaultGrid: vdock.GridConfig{Rows: 3, Cols: 3},
			HistoryCap:  50,
			SaveTimeout: 10 * time.Second,
		},
		Dispatch: Dispatch{
			Timeout: 30 * time.Second,
		},
		Cache: Cache{
			Backend: "sqlite",
			Redis:   Redis{Addr: "localhost:6379"},
		},
		Status: Status{
			Listen: "127.0.0.1:9477",
		},
	}
}

// DefaultPath returns the config file location under $XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	path, err := xdg.ConfigFile(relPath)
	if err != nil {
		return "", fmt.Errorf("get config path: %w", err)
	}
	return path, nil
}

// CachePath returns a file in the vdock XDG cache dir, creating the dir.
func CachePath(name string) (string, error) {
	path, err := xdg.CacheFile("vdock/" + name)
	if err != nil {
		return "", fmt.Errorf("get cache path: %w", err)
	}
	return path, nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// An empty path means DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Monitor.Source {
	case "remote", "hyprland":
	default:
		return fmt.Errorf("unknown monitor source %q", c.Monitor.Source)
	}

	switch c.Cache.Backend {
	case "memory", "json", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Deck.DefaultGrid.Rows < 1 || c.Deck.DefaultGrid.Cols < 1 {
		return fmt.Errorf("default grid must be at least 1x1, got %dx%d", c.Deck.DefaultGrid.Rows, c.Deck.DefaultGrid.Cols)
	}
	if c.Monitor.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Dispatch.Timeout <= 0 {
		return errors.New("dispatch timeout must be positive")
	}

	return nil
}
