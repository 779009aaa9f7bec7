// Package wardrobe wires the client core together: session guard, API
// client, collection cache, mutation executor and filtered views.
package wardrobe

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/cache"
	"github.com/erazemk/omara/internal/client"
	"github.com/erazemk/omara/internal/filter"
	"github.com/erazemk/omara/internal/mutation"
	"github.com/erazemk/omara/internal/session"
)

// Options configures an App.
type Options struct {
	APIURL     string
	Tokens     session.TokenStore
	Timeout    time.Duration
	Debounce   time.Duration
	HTTPClient *http.Client
	Notifier   mutation.Notifier
	Logger     *zap.Logger
}

// App is one client session against the API.
type App struct {
	Guard     *session.Guard
	API       *client.Client
	Cache     *cache.Cache
	Mutations *mutation.Executor

	debounce time.Duration
	log      *zap.Logger
	unsub    func()
}

// New builds an App. Call Init to resolve the saved session and Close when
// done.
func New(opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = client.DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = &session.MemoryTokenStore{}
	}

	clientOpts := []client.Option{client.WithHTTPClient(hc), client.WithLogger(log.Named("http"))}
	auth, err := client.NewAuth(opts.APIURL, clientOpts...)
	if err != nil {
		return nil, err
	}
	guard := session.NewGuard(tokens, auth, log.Named("session"))
	api, err := client.New(opts.APIURL, guard, clientOpts...)
	if err != nil {
		return nil, err
	}
	c := cache.New(api, guard, cache.WithLogger(log.Named("cache")))

	a := &App{
		Guard:     guard,
		API:       api,
		Cache:     c,
		Mutations: mutation.NewExecutor(api, c, opts.Notifier, log.Named("mutation")),
		debounce:  opts.Debounce,
		log:       log,
	}
	a.unsub = guard.Subscribe(func(s session.State) {
		if s.CanFetch() {
			c.Refresh()
		} else {
			c.Reset()
		}
	})
	return a, nil
}

// Init resolves the saved session.
func (a *App) Init() error {
	return a.Guard.Init()
}

// NewFilters creates a filter store using the app's debounce window.
func (a *App) NewFilters(opts ...filter.Option) *filter.Store {
	if a.debounce > 0 {
		opts = append([]filter.Option{filter.WithDelay(a.debounce)}, opts...)
	}
	opts = append(opts, filter.WithLogger(a.log.Named("filter")))
	return filter.NewStore(opts...)
}

// NewView displays filters' debounced criteria.
func (a *App) NewView(filters *filter.Store, onChange func(cache.Result)) *View {
	return NewView(filters, a.Cache, onChange)
}

// CheckAuth ends the local session when err shows the server rejected the
// token. It reports whether it did.
func (a *App) CheckAuth(err error) bool {
	if !errors.Is(err, client.ErrUnauthorized) || !a.Guard.State().Authenticated {
		return false
	}
	a.log.Info("session rejected by server")
	if terr := a.Guard.Teardown(); terr != nil {
		a.log.Warn("clearing rejected session", zap.Error(terr))
	}
	return true
}

// Close stops background work.
func (a *App) Close() {
	a.unsub()
	a.Cache.Close()
}
