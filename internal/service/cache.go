package service

import (
	"cmp"
	"slices"
	"sync"

	"github.com/forgo/guildhall/api/internal/model"
)

// entityCache is the read path for every entity. Stored values are never
// mutated in place; writers swap in a fresh clone.
type entityCache struct {
	mu       sync.RWMutex
	guilds   map[string]*model.Guild
	users    map[string]*model.User
	partners map[string]*model.Partner
}

func newEntityCache() *entityCache {
	return &entityCache{
		guilds:   make(map[string]*model.Guild),
		users:    make(map[string]*model.User),
		partners: make(map[string]*model.Partner),
	}
}

func (c *entityCache) replace(guilds []*model.Guild, users []*model.User, partners []*model.Partner) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.guilds = make(map[string]*model.Guild, len(guilds))
	for _, g := range guilds {
		c.guilds[g.ID] = g
	}
	c.users = make(map[string]*model.User, len(users))
	for _, u := range users {
		c.users[u.ID] = u
	}
	c.partners = make(map[string]*model.Partner, len(partners))
	for _, p := range partners {
		c.partners[p.ID] = p
	}
}

func (c *entityCache) guild(id string) (*model.Guild, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.guilds[id]
	return g, ok
}

func (c *entityCache) putGuild(g *model.Guild) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guilds[g.ID] = g
}

func (c *entityCache) deleteGuild(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, id)
}

func (c *entityCache) user(id string) (*model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

func (c *entityCache) putUser(u *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = u
}

func (c *entityCache) deleteUser(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
}

func (c *entityCache) partner(id string) (*model.Partner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.partners[id]
	return p, ok
}

func (c *entityCache) putPartner(p *model.Partner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partners[p.ID] = p
}

func (c *entityCache) deletePartner(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.partners, id)
}

// slotAssigned reports whether any cached guild assigns userID to role.
// pending, when set, stands in for the cached guild with the same id.
func (c *entityCache) slotAssigned(userID string, role model.Role, pending *model.Guild) bool {
	if pending != nil && pending.Slot(role) == userID {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for id, g := range c.guilds {
		if pending != nil && id == pending.ID {
			continue
		}
		if g.Slot(role) == userID {
			return true
		}
	}
	return false
}

func (c *entityCache) counts() (guilds, users, partners int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.guilds), len(c.users), len(c.partners)
}

func (c *entityCache) listGuilds() []*model.Guild {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedClones(c.guilds, (*model.Guild).Clone)
}

func (c *entityCache) listUsers() []*model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedClones(c.users, (*model.User).Clone)
}

func (c *entityCache) listPartners() []*model.Partner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedClones(c.partners, (*model.Partner).Clone)
}

func sortedClones[T any](m map[string]*T, clone func(*T) *T) []*T {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[string])

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(m[id]))
	}
	return out
}
