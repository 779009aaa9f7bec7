// Package cache mirrors the remote clothing collection, one entry per set of
// filter criteria.
//
// An entry is fetched the first time it is asked for and again after it has
// been invalidated. Only one fetch per entry is in flight at a time; callers
// asking while it runs share its result. Fetching waits until the Gate opens.
package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/model"
)

// ErrGateClosed is returned by Load while fetching is not allowed.
var ErrGateClosed = errors.New("cache: session not ready")

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("cache: closed")

// Status is the fetch state of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Result is a snapshot of one entry. After a failed fetch Items still holds
// the last successful list, if any.
type Result struct {
	Criteria  model.FilterCriteria
	Items     []model.ClothingItem
	Status    Status
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

// Fetcher loads the collection for a set of criteria.
type Fetcher interface {
	ListClothing(ctx context.Context, f model.FilterCriteria) ([]model.ClothingItem, error)
}

// Gate reports whether fetching is allowed.
type Gate interface {
	CanFetch() bool
}

// GateFunc adapts a function to Gate.
type GateFunc func() bool

func (f GateFunc) CanFetch() bool { return f() }

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithTimeout bounds each fetch. Zero means no bound beyond the fetcher's own.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

type entry struct {
	criteria  model.FilterCriteria
	items     []model.ClothingItem
	status    Status
	err       error
	stale     bool
	updatedAt time.Time

	fetching bool
	refetch  bool
	done     chan struct{}
	cancel   context.CancelFunc
	gen      uint64

	watchers map[uint64]func(Result)
}

func (e *entry) needsFetch() bool {
	return !e.fetching && (e.status == StatusIdle || e.stale)
}

func (e *entry) result() Result {
	r := Result{
		Criteria:  e.criteria,
		Items:     slices.Clone(e.items),
		Status:    e.status,
		Err:       e.err,
		Stale:     e.stale || e.refetch,
		UpdatedAt: e.updatedAt,
	}
	if e.fetching {
		r.Status = StatusLoading
	}
	return r
}

// event is a queued watcher notification. to is zero for every watcher of e.
type event struct {
	e  *entry
	to uint64
	r  Result
}

// Cache is safe for concurrent use. Watch callbacks run on a single
// goroutine in the order the changes happened, and may call back into the
// Cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextID  uint64
	closed  bool

	queue      []event
	wake       chan struct{}
	dispatched chan struct{}

	fetcher Fetcher
	gate    Gate
	timeout time.Duration
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache. Close must be called to stop its goroutines.
func New(fetcher Fetcher, gate Gate, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:    make(map[string]*entry),
		wake:       make(chan struct{}, 1),
		dispatched: make(chan struct{}),
		fetcher:    fetcher,
		gate:       gate,
		log:        zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.dispatch()
	return c
}

func (c *Cache) entryLocked(f model.FilterCriteria) *entry {
	key := f.Key()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{criteria: f, watchers: make(map[uint64]func(Result))}
		c.entries[key] = e
	}
	return e
}

// ensureLocked starts a fetch for e if it needs one and the gate is open.
func (c *Cache) ensureLocked(e *entry) {
	if !c.closed && e.needsFetch() && c.gate.CanFetch() {
		c.startLocked(e)
	}
}

func (c *Cache) startLocked(e *entry) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(c.ctx)
	}
	e.fetching = true
	e.refetch = false
	e.stale = false
	e.done = make(chan struct{})
	e.cancel = cancel

	c.log.Debug("fetching", zap.String("key", e.criteria.Key()))
	c.wg.Add(1)
	go c.run(ctx, e, e.gen)
	c.emitLocked(e, 0)
}

func (c *Cache) run(ctx context.Context, e *entry, gen uint64) {
	defer c.wg.Done()
	items, err := c.fetcher.ListClothing(ctx, e.criteria)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.gen != gen {
		// Dropped by Reset while in flight.
		return
	}
	e.cancel()
	e.cancel = nil
	e.fetching = false
	close(e.done)
	e.done = nil

	if c.closed {
		return
	}

	if err != nil {
		c.log.Warn("fetch failed", zap.String("key", e.criteria.Key()), zap.Error(err))
		e.status = StatusError
		e.err = err
	} else {
		if items == nil {
			items = []model.ClothingItem{}
		}
		e.items = items
		e.status = StatusSuccess
		e.err = nil
		e.updatedAt = time.Now()
	}

	if e.refetch {
		if c.gate.CanFetch() {
			c.startLocked(e)
			return
		}
		e.refetch = false
		e.stale = true
	}
	c.emitLocked(e, 0)
}

// Query returns the entry for f, starting a fetch if the entry has never
// been fetched or is stale and the gate is open.
func (c *Cache) Query(f model.FilterCriteria) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(f)
	c.ensureLocked(e)
	return e.result()
}

// Watch marks f as displayed and calls fn with its current result and after
// every change. Invalidate refetches displayed entries right away. The
// returned function stops the notifications; it may be called more than once.
func (c *Cache) Watch(f model.FilterCriteria, fn func(Result)) (unwatch func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	e := c.entryLocked(f)
	e.watchers[id] = fn
	c.ensureLocked(e)
	c.emitLocked(e, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(e.watchers, id)
			c.mu.Unlock()
		})
	}
}

// Load waits until the entry for f has settled and returns it. The returned
// error is the fetch error, if the fetch failed.
func (c *Cache) Load(ctx context.Context, f model.FilterCriteria) (Result, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return Result{Criteria: f}, ErrClosed
		}
		e := c.entryLocked(f)
		c.ensureLocked(e)
		if !e.fetching {
			r := e.result()
			c.mu.Unlock()
			switch {
			case r.Status == StatusError:
				return r, r.Err
			case r.Status == StatusIdle:
				return r, ErrGateClosed
			}
			return r, nil
		}
		done := e.done
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return Result{Criteria: f, Status: StatusLoading}, ctx.Err()
		}
	}
}

// Refetch forces a new fetch of f. A fetch already in flight is followed by
// another once it completes.
func (c *Cache) Refetch(f model.FilterCriteria) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(f)
	c.markLocked(e)
}

// Invalidate marks every entry stale. Displayed entries are refetched now,
// the rest on their next Query. Entries with a fetch in flight are fetched
// again once it completes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Debug("invalidating", zap.Int("entries", len(c.entries)))
	for _, e := range c.entries {
		if e.fetching || len(e.watchers) > 0 {
			c.markLocked(e)
			continue
		}
		if e.status != StatusIdle {
			e.stale = true
		}
	}
}

func (c *Cache) markLocked(e *entry) {
	if e.fetching {
		e.refetch = true
		return
	}
	e.stale = true
	c.ensureLocked(e)
	if !e.fetching {
		c.emitLocked(e, 0)
	}
}

// Refresh fetches every displayed entry that needs it. Call it when the gate
// opens.
func (c *Cache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if len(e.watchers) > 0 {
			c.ensureLocked(e)
		}
	}
}

// Reset drops all cached data and cancels fetches in flight. Displayed
// entries stay registered and report idle.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.fetching {
			e.cancel()
			e.cancel = nil
			close(e.done)
			e.done = nil
			e.fetching = false
		}
		e.gen++
		e.items = nil
		e.status = StatusIdle
		e.err = nil
		e.stale = false
		e.refetch = false
		e.updatedAt = time.Time{}

		if len(e.watchers) == 0 {
			delete(c.entries, key)
			continue
		}
		c.emitLocked(e, 0)
	}
}

// Close cancels fetches in flight, waits for them and stops notifications.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	<-c.dispatched
}

func (c *Cache) emitLocked(e *entry, to uint64) {
	if len(e.watchers) == 0 {
		return
	}
	c.queue = append(c.queue, event{e: e, to: to, r: e.result()})
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cache) dispatch() {
	defer close(c.dispatched)
	for {
		select {
		case <-c.wake:
		case <-c.ctx.Done():
			return
		}

		c.mu.Lock()
		queue := c.queue
		c.queue = nil
		c.mu.Unlock()

		for _, ev := range queue {
			for _, fn := range c.watchersOf(ev) {
				fn(ev.r)
			}
		}
	}
}

// watchersOf returns the callbacks still registered for ev.
func (c *Cache) watchersOf(ev event) []func(Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if ev.to != 0 {
		if fn, ok := ev.e.watchers[ev.to]; ok {
			return []func(Result){fn}
		}
		return nil
	}
	fns := make([]func(Result), 0, len(ev.e.watchers))
	for _, fn := range ev.e.watchers {
		fns = append(fns, fn)
	}
	return fns
}
