package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrStorageUnavailable is returned when neither backend could serve a call.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Backend is a named-blob store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Mode is the adapter state.
type Mode int

const (
	ModeUninitialized Mode = iota
	ModePrimary
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModeFallback:
		return "fallback"
	default:
		return "uninitialized"
	}
}

// Adapter routes Get/Set to the primary backend while it works and to the
// fallback backend after the first primary failure. The switch is sticky.
type Adapter struct {
	openPrimary func(ctx context.Context) (Backend, error)
	fallback    Backend

	mu      sync.Mutex
	mode    Mode
	primary Backend
}

func NewAdapter(openPrimary func(ctx context.Context) (Backend, error), fallback Backend) *Adapter {
	return &Adapter{openPrimary: openPrimary, fallback: fallback}
}

// Mode reports the current state without triggering initialization.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Primary returns the opened primary backend, if any.
func (a *Adapter) Primary() Backend {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.primary
}

// active returns the backend to use, opening the primary on first call.
func (a *Adapter) active(ctx context.Context) (Mode, Backend) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mode == ModeUninitialized {
		var err error
		if a.openPrimary == nil {
			err = errors.New("no primary backend configured")
		} else {
			a.primary, err = a.openPrimary(ctx)
		}
		if err != nil {
			a.transition(err)
		} else {
			a.mode = ModePrimary
			log.Println("[info] storage: primary backend active")
		}
	}

	if a.mode == ModePrimary {
		return a.mode, a.primary
	}
	return a.mode, a.fallback
}

// fallBack moves to ModeFallback after a runtime primary failure.
func (a *Adapter) fallBack(cause error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transition(cause)
}

// transition is the only place the mode changes to fallback. Callers hold mu.
func (a *Adapter) transition(cause error) {
	if a.mode == ModeFallback {
		return
	}
	log.Printf("[warn] storage: primary backend failed, using fallback from now on: %v", cause)
	a.mode = ModeFallback
}

// Get reads key. The bool is false when the key was never written.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	mode, backend := a.active(ctx)
	if mode == ModePrimary {
		data, ok, err := backend.Get(ctx, key)
		if err == nil {
			return data, ok, nil
		}
		a.fallBack(err)
		return a.getFallback(ctx, key, err)
	}
	return a.getFallback(ctx, key, nil)
}

func (a *Adapter) getFallback(ctx context.Context, key string, primaryErr error) ([]byte, bool, error) {
	data, ok, err := a.fallback.Get(ctx, key)
	if err != nil {
		return nil, false, unavailable("get", key, primaryErr, err)
	}
	return data, ok, nil
}

// Set writes key. While the primary is active the write is mirrored to
// the fallback so a later switch starts from current data.
func (a *Adapter) Set(ctx context.Context, key string, value []byte) error {
	mode, backend := a.active(ctx)
	if mode == ModePrimary {
		err := backend.Set(ctx, key, value)
		if err == nil {
			if merr := a.fallback.Set(ctx, key, value); merr != nil {
				log.Printf("[warn] storage: mirror %q to fallback: %v", key, merr)
			}
			return nil
		}
		a.fallBack(err)
		return a.setFallback(ctx, key, value, err)
	}
	return a.setFallback(ctx, key, value, nil)
}

func (a *Adapter) setFallback(ctx context.Context, key string, value []byte, primaryErr error) error {
	if err := a.fallback.Set(ctx, key, value); err != nil {
		return unavailable("set", key, primaryErr, err)
	}
	return nil
}

func unavailable(op, key string, primaryErr, fallbackErr error) error {
	if primaryErr != nil {
		return fmt.Errorf("%w: %s %q: primary: %v; fallback: %w", ErrStorageUnavailable, op, key, primaryErr, fallbackErr)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrStorageUnavailable, op, key, fallbackErr)
}
