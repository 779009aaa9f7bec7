// Package filter holds the filter criteria of the wardrobe view.
//
// Category and color take effect immediately. Name and brand are free text
// and reach the debounced criteria only after a quiet window, each on its own
// timer.
package filter

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/debounce"
	"github.com/erazemk/omara/internal/model"
)

// DefaultDelay is the quiet window for name and brand.
const DefaultDelay = 300 * time.Millisecond

// Listener receives the current and debounced criteria after every change.
type Listener func(current, debounced model.FilterCriteria)

// Option configures a Store.
type Option func(*Store)

// WithDelay sets the quiet window for debounced fields.
func WithDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// WithScheduler replaces the wall clock, for tests.
func WithScheduler(sched debounce.Scheduler) Option {
	return func(s *Store) { s.sched = sched }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Store holds the criteria as typed and as debounced.
type Store struct {
	mu        sync.Mutex
	current   model.FilterCriteria
	debounced model.FilterCriteria
	timers    map[model.FilterField]*debounce.Debouncer
	listeners map[uint64]Listener
	nextID    uint64
	closed    bool

	delay time.Duration
	sched debounce.Scheduler
	log   *zap.Logger
}

// NewStore creates a store with empty criteria.
func NewStore(opts ...Option) *Store {
	s := &Store{
		listeners: make(map[uint64]Listener),
		delay:     DefaultDelay,
		sched:     debounce.Real,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timers = map[model.FilterField]*debounce.Debouncer{
		model.FieldName:  debounce.New(s.delay, s.sched),
		model.FieldBrand: debounce.New(s.delay, s.sched),
	}
	return s
}

// Debounced reports whether field waits for a quiet window.
func Debounced(field model.FilterField) bool {
	return field == model.FieldName || field == model.FieldBrand
}

// SetField sets one criterion. Unknown fields are ignored.
func (s *Store) SetField(field model.FilterField, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch field {
	case model.FieldName, model.FieldCategory, model.FieldColor, model.FieldBrand:
	default:
		s.mu.Unlock()
		return
	}
	s.current = s.current.With(field, value)
	s.apply(field, value)
	s.notifyLocked()
}

// apply moves value into the debounced criteria, now or after the quiet
// window. Callers hold s.mu.
func (s *Store) apply(field model.FilterField, value string) {
	d, ok := s.timers[field]
	if !ok {
		s.debounced = s.debounced.With(field, value)
		return
	}
	d.Debounce(func() { s.settle(field, value) })
}

func (s *Store) settle(field model.FilterField, value string) {
	s.mu.Lock()
	if s.closed || s.debounced.Get(field) == value {
		s.mu.Unlock()
		return
	}
	s.debounced = s.debounced.With(field, value)
	s.log.Debug("filter settled", zap.String("field", string(field)), zap.String("value", value))
	s.notifyLocked()
}

// ClearField is SetField(field, "").
func (s *Store) ClearField(field model.FilterField) {
	s.SetField(field, "")
}

// ClearAll resets all four criteria. Name and brand still clear through
// their quiet window.
func (s *Store) ClearAll() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.current = model.FilterCriteria{}
	for _, f := range model.FilterFields {
		s.apply(f, "")
	}
	s.notifyLocked()
}

// Current returns the criteria as last set.
func (s *Store) Current() model.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Debounced returns the criteria used as the cache key: the current
// category and color with the settled name and brand.
func (s *Store) Debounced() model.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debounced
}

// ActiveCount counts the non-empty category, color and brand criteria. Name
// is a live search and is not counted.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, v := range []string{s.current.Category, s.current.Color, s.current.Brand} {
		if v != "" {
			n++
		}
	}
	return n
}

// HasActive reports whether any criterion is set.
func (s *Store) HasActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.current.IsZero()
}

// Subscribe registers fn for change notifications. The returned function
// unsubscribes and may be called more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// notifyLocked releases s.mu and calls every listener with a snapshot.
func (s *Store) notifyLocked() {
	cur, deb := s.current, s.debounced
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cur, deb)
	}
}

// Close cancels pending timers and drops all listeners. Later changes are
// ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, d := range s.timers {
		d.Cancel()
	}
	clear(s.listeners)
}
