package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
)

// ProfileCache keeps profiles in memory and writes them to a single JSON
// file from SaveLooper.
type ProfileCache struct {
	profiles map[string]*vdock.Profile
	file     *os.File
	lock     sync.Mutex
	dirty    bool
}

func NewProfileCache(filename string) (*ProfileCache, error) {
	fileExists := true
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	cache := &ProfileCache{
		profiles: make(map[string]*vdock.Profile),
		file:     file,
		dirty:    true,
	}

	if fileExists {
		err = cache.load()
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("load: %w", err)
		}

		cache.dirty = false
	}

	return cache, nil
}

func (c *ProfileCache) Close() error {
	return c.file.Close()
}

func (c *ProfileCache) load() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := c.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	dec := json.NewDecoder(c.file)
	err = dec.Decode(&c.profiles)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return fmt.Errorf("decode json: %w", err)
	}

	if c.profiles == nil {
		c.profiles = make(map[string]*vdock.Profile)
	}

	return nil
}

// Save writes the profiles to disk if anything changed since the last save.
func (c *ProfileCache) Save() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.dirty {
		return nil
	}

	_, err := c.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = c.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(c.file)
	err = enc.Encode(c.profiles)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	c.dirty = false

	return nil
}

// SaveLooper saves once a minute and once more when ctx is done, then
// closes the file.
func (c *ProfileCache) SaveLooper(ctx context.Context) error {
	defer c.file.Close()

	for {
		select {
		case <-ctx.Done():
			err := c.Save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}

			return ctx.Err()
		case <-time.After(time.Minute):
			err := c.Save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
	}
}

func (c *ProfileCache) GetProfile(id string) (*vdock.Profile, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	p, ok := c.profiles[id]
	if !ok {
		return nil, vdock.ErrProfileNotCached
	}
	return p.Clone(), nil
}

func (c *ProfileCache) PutProfile(profile *vdock.Profile) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.profiles[profile.ID] = profile.Clone()
	c.dirty = true
	return nil
}

func (c *ProfileCache) DeleteProfile(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.profiles[id]; !ok {
		return nil
	}
	delete(c.profiles, id)
	c.dirty = true
	return nil
}

func (c *ProfileCache) ListProfiles() ([]vdock.Profile, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make([]vdock.Profile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, *p.Clone())
	}
	slices.SortFunc(out, func(a, b vdock.Profile) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}
