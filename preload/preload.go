// Package preload fetches upcoming media ahead of playback.
//
// At most one fetch cycle runs at a time. Callers that arrive while a cycle
// is running get the current queue length back immediately instead of
// waiting or starting a second download.
package preload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
)

// DefaultCapacity is the number of items buffered ahead of playback.
const DefaultCapacity = 2

// Fetch produces one fully downloaded item. The pipeline assigns its ID.
type Fetch func(ctx context.Context) (*media.Item, error)

// Outcome describes how a Request call ended.
type Outcome string

const (
	Queued    Outcome = "queued"
	Busy      Outcome = "busy"
	Full      Outcome = "full"
	Failed    Outcome = "failed"
	Discarded Outcome = "discarded"
	Popped    Outcome = "popped"
	Cleared   Outcome = "cleared"
)

// Observer is told about every Request and every queue change.
type Observer interface {
	QueueChanged(outcome Outcome, length int)
}

// Pipeline is a bounded FIFO of ready items fed by a single-flight fetcher.
type Pipeline struct {
	fetch    Fetch
	capacity int
	newID    func() string
	observer Observer

	inFlight atomic.Bool

	mu    sync.Mutex
	queue []*media.Item
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithObserver registers o for outcome notifications.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithIDs replaces the UUID generator.
func WithIDs(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// New returns a Pipeline holding at most capacity items.
func New(fetch Fetch, capacity int, opts ...Option) *Pipeline {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	p := &Pipeline{
		fetch:    fetch,
		capacity: capacity,
		newID:    uuid.NewString,
		queue:    make([]*media.Item, 0, capacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// acquire takes the in-flight gate without blocking. When ok is true the
// caller must run release on every exit path.
func (p *Pipeline) acquire() (release func(), ok bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { p.inFlight.Store(false) }, true
}

// Request runs at most one fetch cycle and returns the queue length.
// Failures are logged and swallowed.
func (p *Pipeline) Request(ctx context.Context) int {
	release, ok := p.acquire()
	if !ok {
		return p.report(Busy, p.Len())
	}
	defer release()

	if n := p.Len(); n >= p.capacity {
		return p.report(Full, n)
	}

	item, err := p.run(ctx)
	if err != nil {
		log.WithField("error", err).Warn("preload failed")
		return p.report(Failed, p.Len())
	}

	p.mu.Lock()
	if len(p.queue) >= p.capacity {
		n := len(p.queue)
		p.mu.Unlock()
		return p.report(Discarded, n)
	}
	item.ID = p.newID()
	p.queue = append(p.queue, item)
	n := len(p.queue)
	p.mu.Unlock()

	log.WithFields(log.Fields{"id": item.ID, "bytes": item.Size(), "queued": n}).Info("preloaded")
	return p.report(Queued, n)
}

// run calls fetch, turning a panic into an error so the cycle ends like any other failure.
func (p *Pipeline) run(ctx context.Context) (item *media.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			item, err = nil, fmt.Errorf("preload panic: %v", r)
		}
	}()

	item, err = p.fetch(ctx)
	if err == nil && item == nil {
		err = errors.New("preload produced no item")
	}
	return item, err
}

func (p *Pipeline) report(outcome Outcome, n int) int {
	if p.observer != nil {
		p.observer.QueueChanged(outcome, n)
	}
	return n
}

// Len returns the number of ready items.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

// Capacity returns the queue bound.
func (p *Pipeline) Capacity() int {
	return p.capacity
}

// InFlight reports whether a fetch cycle is running.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Pop removes and returns the oldest ready item.
func (p *Pipeline) Pop() (*media.Item, bool) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return nil, false
	}
	item := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	n := len(p.queue)
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.QueueChanged(Popped, n)
	}
	return item, true
}

// Clear drops every ready item and returns how many were dropped.
func (p *Pipeline) Clear() int {
	p.mu.Lock()
	n := len(p.queue)
	p.queue = make([]*media.Item, 0, p.capacity)
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.QueueChanged(Cleared, 0)
	}
	return n
}
