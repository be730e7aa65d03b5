package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"todo-tabs/internal/model"
	"todo-tabs/internal/repository"
)

// Validator checks a candidate record against every other record of the
// collection. The candidate itself is never part of others. previous is the
// stored version of the candidate on update and nil on insert.
type Validator[T any] func(candidate T, previous *T, others []T) error

// IDSource hands out fresh record identifiers.
type IDSource interface {
	New() string
}

// Options configure a Collection.
type Options[T model.Record] struct {
	Key      string
	Backend  repository.Backend
	IDs      IDSource
	Validate Validator[T]
	Now      func() time.Time
}

// Collection is an in-memory, observable list of records persisted as a
// single blob. Mutations are serialized: each one is persisted before the
// next starts, and subscribers only see persisted states.
type Collection[T model.Record] struct {
	key      string
	backend  repository.Backend
	ids      IDSource
	validate Validator[T]
	now      func() time.Time

	// slot is the mutation queue. Whoever holds it owns loaded and may
	// replace items.
	slot   chan struct{}
	loaded bool
	ready  chan struct{}

	mu      sync.RWMutex
	items   []T
	loadErr error

	hub *hub[T]
}

// New builds the collection and starts loading its blob in the background.
// Mutations issued before the load finishes wait for it.
func New[T model.Record](opts Options[T]) *Collection[T] {
	c := &Collection[T]{
		key:      opts.Key,
		backend:  opts.Backend,
		ids:      opts.IDs,
		validate: opts.Validate,
		now:      opts.Now,
		slot:     make(chan struct{}, 1),
		ready:    make(chan struct{}),
		items:    []T{},
		hub:      newHub[T](),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.validate == nil {
		c.validate = func(T, *T, []T) error { return nil }
	}

	c.slot <- struct{}{}
	go func() {
		defer c.release()
		defer close(c.ready)
		if err := c.ensureLoaded(context.Background()); err != nil {
			log.Printf("[warn] store %s: initial load: %v", c.key, err)
		}
	}()
	return c
}

// Ready blocks until the initial load attempt has finished and reports
// whether the collection is currently loaded.
func (c *Collection[T]) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

func (c *Collection[T]) acquire(ctx context.Context) error {
	select {
	case c.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collection[T]) release() {
	<-c.slot
}

// ensureLoaded reads the blob once. A failed read leaves the collection
// unloaded so the next mutation tries again. Callers hold the slot.
func (c *Collection[T]) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	data, ok, err := c.backend.Get(ctx, c.key)
	if err != nil {
		err = fmt.Errorf("load %s: %w", c.key, err)
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()
		return err
	}

	items := []T{}
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			log.Printf("[warn] store %s: unreadable snapshot, starting empty: %v", c.key, err)
			items = []T{}
		}
		if items == nil {
			items = []T{}
		}
	}

	c.loaded = true
	c.mu.Lock()
	c.loadErr = nil
	c.mu.Unlock()
	c.commit(items)
	log.Printf("[info] store %s: loaded %d records", c.key, len(items))
	return nil
}

// begin takes the slot and makes sure the collection is loaded.
func (c *Collection[T]) begin(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	if err := c.ensureLoaded(ctx); err != nil {
		c.release()
		return err
	}
	return nil
}

func (c *Collection[T]) persist(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	// A started write is not cancelled.
	if err := c.backend.Set(context.WithoutCancel(ctx), c.key, data); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

func (c *Collection[T]) commit(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.hub.publish(items)
}

// stamp returns a timestamp strictly after prev.
func (c *Collection[T]) stamp(prev int64) int64 {
	now := c.now().UnixMilli()
	if now <= prev {
		now = prev + 1
	}
	return now
}

func (c *Collection[T]) freshID(items []T) string {
	id := c.ids.New()
	for indexOf(items, id) >= 0 {
		id = c.ids.New()
	}
	return id
}

// Insert builds a record with a new id and creation time, validates it and
// appends it. The collection is unchanged if any step fails.
func (c *Collection[T]) Insert(ctx context.Context, build func(id string, now int64) T) (T, error) {
	var zero T
	if err := c.begin(ctx); err != nil {
		return zero, err
	}
	defer c.release()

	current := c.All()
	item := build(c.freshID(current), c.now().UnixMilli())
	if err := c.validate(item, nil, current); err != nil {
		return zero, err
	}

	next := append(current, item)
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	c.commit(next)
	return item, nil
}

// Update applies mutate to a copy of the record with the given id. now is
// the new update time; mutate must store it. The id cannot change.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(item *T, now int64) error) (T, error) {
	var zero T
	if err := c.begin(ctx); err != nil {
		return zero, err
	}
	defer c.release()

	current := c.All()
	idx := indexOf(current, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %q: %w", c.key, id, ErrNotFound)
	}

	previous := current[idx]
	item := previous
	if err := mutate(&item, c.stamp(item.GetUpdatedAt())); err != nil {
		return zero, err
	}
	if item.GetID() != id {
		return zero, errors.New("record id is immutable")
	}

	others := make([]T, 0, len(current)-1)
	others = append(others, current[:idx]...)
	others = append(others, current[idx+1:]...)
	if err := c.validate(item, &previous, others); err != nil {
		return zero, err
	}

	current[idx] = item
	if err := c.persist(ctx, current); err != nil {
		return zero, err
	}
	c.commit(current)
	return item, nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// successful no-op.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.begin(ctx); err != nil {
		return err
	}
	defer c.release()

	current := c.All()
	idx := indexOf(current, id)
	if idx < 0 {
		return nil
	}

	next := append(current[:idx:idx], current[idx+1:]...)
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.commit(next)
	return nil
}

// Get returns a copy of the record with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := indexOf(c.items, id); idx >= 0 {
		return c.items[idx], true
	}
	var zero T
	return zero, false
}

// All returns a copy of the records in insertion order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.items)
}

// Subscribe returns a subscription that first receives the current
// snapshot and then every committed one.
func (c *Collection[T]) Subscribe() *Subscription[T] {
	return c.hub.subscribe()
}

// Key returns the blob name the collection is stored under.
func (c *Collection[T]) Key() string {
	return c.key
}

// Close ends all subscriptions.
func (c *Collection[T]) Close() {
	c.hub.close()
}

func indexOf[T model.Record](items []T, id string) int {
	for i, item := range items {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}
