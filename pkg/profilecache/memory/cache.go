package memory

import (
	"slices"
	"strings"
	"sync"

	"codeberg.org/miketth/vdock/pkg/vdock"
)

type ProfileCache struct {
	lock     sync.Mutex
	profiles map[string]*vdock.Profile
}

func NewProfileCache() *ProfileCache {
	return &ProfileCache{
		profiles: make(map[string]*vdock.Profile),
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
	return nil
}

func (c *ProfileCache) DeleteProfile(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.profiles, id)
	return nil
}

func (c *ProfileCache) ListProfiles() ([]vdock.Profile, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return sortedCopies(c.profiles), nil
}

func sortedCopies(profiles map[string]*vdock.Profile) []vdock.Profile {
	out := make([]vdock.Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, *p.Clone())
	}
	slices.SortFunc(out, func(a, b vdock.Profile) int { return strings.Compare(a.ID, b.ID) })
	return out
}
