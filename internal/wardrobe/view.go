package wardrobe

import (
	"sync"

	"github.com/erazemk/omara/internal/cache"
	"github.com/erazemk/omara/internal/filter"
	"github.com/erazemk/omara/internal/model"
)

// View keeps one cache entry displayed: the one for the store's debounced
// criteria. When those change the view moves its watch to the new entry and
// drops updates from the old one.
type View struct {
	mu       sync.Mutex
	filters  *filter.Store
	cache    *cache.Cache
	onChange func(cache.Result)

	key      string
	criteria model.FilterCriteria
	last     cache.Result
	unwatch  func()
	unsub    func()
	closed   bool
}

// NewView starts displaying filters' debounced criteria. onChange may be
// nil; it is called from the cache's notification goroutine.
func NewView(filters *filter.Store, c *cache.Cache, onChange func(cache.Result)) *View {
	if onChange == nil {
		onChange = func(cache.Result) {}
	}
	v := &View{filters: filters, cache: c, onChange: onChange}
	v.bind()
	v.unsub = filters.Subscribe(func(_, _ model.FilterCriteria) { v.bind() })
	return v
}

// bind reads the store's debounced criteria under v.mu so that concurrent
// notifications settle on the latest snapshot. The store calls listeners
// without holding its own lock.
func (v *View) bind() {
	v.mu.Lock()
	f := v.filters.Debounced()
	key := f.Key()
	if v.closed || key == v.key {
		v.mu.Unlock()
		return
	}
	old := v.unwatch
	v.key = key
	v.criteria = f
	v.last = cache.Result{Criteria: f}
	v.unwatch = v.cache.Watch(f, func(r cache.Result) { v.deliver(key, r) })
	v.mu.Unlock()

	if old != nil {
		old()
	}
}

func (v *View) deliver(key string, r cache.Result) {
	v.mu.Lock()
	if v.closed || key != v.key {
		v.mu.Unlock()
		return
	}
	v.last = r
	fn := v.onChange
	v.mu.Unlock()

	fn(r)
}

// Criteria returns the criteria currently displayed.
func (v *View) Criteria() model.FilterCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

// Result returns the latest result for the displayed criteria.
func (v *View) Result() cache.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Retry refetches the displayed entry.
func (v *View) Retry() {
	v.cache.Refetch(v.Criteria())
}

// Close stops following the store and releases the watch.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unwatch, unsub := v.unwatch, v.unsub
	v.mu.Unlock()

	unsub()
	if unwatch != nil {
		unwatch()
	}
}
