package store

import "sync"

// Subscription delivers collection snapshots in commit order, one per
// successful mutation. Snapshots a slow reader has not taken yet are queued,
// never dropped.
type Subscription[T any] struct {
	ch  chan []T
	hub *hub[T]

	mu      sync.Mutex
	pending [][]T
	wake    chan struct{}
	done    chan struct{}
	closed  bool
}

func newSubscription[T any](h *hub[T]) *Subscription[T] {
	return &Subscription[T]{
		ch:   make(chan []T),
		hub:  h,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// C returns the snapshot channel. It is closed after Close, or after the
// collection is closed.
func (s *Subscription[T]) C() <-chan []T {
	return s.ch
}

// Close stops delivery. Queued snapshots are discarded.
func (s *Subscription[T]) Close() {
	s.hub.remove(s)
}

func (s *Subscription[T]) enqueue(snapshot []T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, snapshot)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued snapshot.
func (s *Subscription[T]) next() ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	snapshot := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return snapshot, true
}

// run hands queued snapshots to the reader until the subscription stops.
func (s *Subscription[T]) run() {
	defer close(s.ch)
	for {
		snapshot, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case <-s.done:
			return
		default:
		}
		select {
		case s.ch <- snapshot:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription[T]) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	close(s.done)
}

type hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	latest []T
	done   bool
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

func (h *hub[T]) subscribe() *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscription(h)
	if h.done {
		sub.closed = true
		close(sub.done)
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	sub.enqueue(clone(h.latest))
	go sub.run()
	return sub
}

// publish queues snapshot for every subscriber. Holding the hub lock keeps
// the per-subscriber order equal to the commit order.
func (h *hub[T]) publish(snapshot []T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = snapshot
	for sub := range h.subs {
		sub.enqueue(clone(snapshot))
	}
}

func (h *hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
	sub.stop()
}

func (h *hub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	for sub := range h.subs {
		sub.stop()
	}
	h.subs = make(map[*Subscription[T]]struct{})
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
