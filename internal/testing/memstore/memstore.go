// Package memstore is an in-memory persistence gateway for tests.
//
// Collections clone on every read and write so callers can never alias
// stored state, and FailOn injects store errors into a chosen operation.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// Op names a collection operation for fault injection
type Op string

const (
	OpFindAll Op = "find_all"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
)

// Store holds one collection per entity kind
type Store struct {
	Guilds   *Collection[model.Guild]
	Users    *Collection[model.User]
	Partners *Collection[model.Partner]
}

// New returns an empty store
func New() *Store {
	return &Store{
		Guilds:   NewCollection(func(g *model.Guild) string { return g.ID }, (*model.Guild).Clone),
		Users:    NewCollection(func(u *model.User) string { return u.ID }, (*model.User).Clone),
		Partners: NewCollection(func(p *model.Partner) string { return p.ID }, (*model.Partner).Clone),
	}
}

// Collection is a map-backed collection of T
type Collection[T any] struct {
	mu    sync.Mutex
	items map[string]*T
	key   func(*T) string
	clone func(*T) *T
	fail  map[Op]failure
	calls map[Op]int
}

type failure struct {
	err error
	id  string
}

// NewCollection returns an empty collection
func NewCollection[T any](key func(*T) string, clone func(*T) *T) *Collection[T] {
	return &Collection[T]{
		items: make(map[string]*T),
		key:   key,
		clone: clone,
		fail:  make(map[Op]failure),
		calls: make(map[Op]int),
	}
}

// FailOn makes op return err. A non-empty id limits the failure to that
// entity. Pass a nil err to clear it.
func (c *Collection[T]) FailOn(op Op, id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, op)
		return
	}
	c.fail[op] = failure{err: err, id: id}
}

// Calls returns how many times op was invoked, failed or not
func (c *Collection[T]) Calls(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Seed stores values directly, bypassing fault injection
func (c *Collection[T]) Seed(values ...*T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range values {
		c.items[c.key(v)] = c.clone(v)
	}
}

// Get returns a stored value
func (c *Collection[T]) Get(id string) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return c.clone(v), true
}

// Len returns the number of stored values
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// FindAll returns every value in key order
func (c *Collection[T]) FindAll(ctx context.Context) ([]*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(OpFindAll, ""); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])

	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.clone(c.items[k]))
	}
	return out, nil
}

// Create stores a new value
func (c *Collection[T]) Create(ctx context.Context, v *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.key(v)
	if err := c.check(OpCreate, id); err != nil {
		return err
	}
	if _, ok := c.items[id]; ok {
		return fmt.Errorf("%w: %s", database.ErrDuplicate, id)
	}
	c.items[id] = c.clone(v)
	return nil
}

// Update replaces a value
func (c *Collection[T]) Update(ctx context.Context, v *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.key(v)
	if err := c.check(OpUpdate, id); err != nil {
		return err
	}
	c.items[id] = c.clone(v)
	return nil
}

// Delete removes a value
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(OpDelete, id); err != nil {
		return err
	}
	delete(c.items, id)
	return nil
}

func (c *Collection[T]) check(op Op, id string) error {
	c.calls[op]++
	f, ok := c.fail[op]
	if !ok || (f.id != "" && f.id != id) {
		return nil
	}
	return f.err
}
