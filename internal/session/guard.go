// Package session owns the bearer token and reports whether the collection
// may be fetched.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/client"
)

// State is the session signal. Resolved turns true once the persisted token
// has been read and stays true.
type State struct {
	Authenticated bool
	Resolved      bool
}

// CanFetch reports whether protected endpoints may be called.
func (s State) CanFetch() bool {
	return s.Authenticated && s.Resolved
}

// Authenticator is the remote side of the session.
type Authenticator interface {
	Login(ctx context.Context, creds client.Credentials) (string, error)
	Register(ctx context.Context, creds client.Credentials) error
	Logout(ctx context.Context, token string) error
}

// Guard is the only reader and writer of the persisted token.
type Guard struct {
	mu        sync.Mutex
	state     State
	token     string
	listeners map[uint64]func(State)
	nextID    uint64
	initOnce  sync.Once
	initErr   error

	store TokenStore
	auth  Authenticator
	log   *zap.Logger
}

// NewGuard creates an unresolved guard. Call Init before use.
func NewGuard(store TokenStore, auth Authenticator, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		listeners: make(map[uint64]func(State)),
		store:     store,
		auth:      auth,
		log:       log,
	}
}

// Init reads the persisted token and resolves the session. Only the first
// call does anything. An unreadable token store resolves as signed out and
// the error is returned.
func (g *Guard) Init() error {
	g.initOnce.Do(func() {
		token, err := g.store.Load()
		if err != nil {
			g.log.Warn("reading saved session", zap.Error(err))
			g.initErr = fmt.Errorf("reading saved session: %w", err)
			token = ""
		}
		g.log.Debug("session resolved", zap.Bool("authenticated", token != ""))
		g.set(token)
	})
	return g.initErr
}

// set installs token, resolves the session and notifies listeners.
func (g *Guard) set(token string) {
	g.mu.Lock()
	g.token = token
	g.state = State{Authenticated: token != "", Resolved: true}
	st := g.state
	fns := make([]func(State), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// State returns the current session signal.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CanFetch lets the guard gate a cache directly.
func (g *Guard) CanFetch() bool {
	return g.State().CanFetch()
}

// Token returns the bearer token, or "" when signed out.
func (g *Guard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Subscribe calls fn after every state change. The returned function
// unsubscribes and may be called more than once.
func (g *Guard) Subscribe(fn func(State)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

// Login exchanges creds for a token and persists it. On failure the state
// is unchanged.
func (g *Guard) Login(ctx context.Context, creds client.Credentials) error {
	token, err := g.auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := g.store.Save(token); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	g.log.Info("logged in", zap.String("email", creds.Email))
	g.set(token)
	return nil
}

// Register creates an account. It does not log in.
func (g *Guard) Register(ctx context.Context, creds client.Credentials) error {
	return g.auth.Register(ctx, creds)
}

// Logout revokes the token on the server when possible and clears it
// locally regardless.
func (g *Guard) Logout(ctx context.Context) error {
	if token := g.Token(); token != "" {
		if err := g.auth.Logout(ctx, token); err != nil {
			g.log.Warn("server logout failed", zap.Error(err))
		}
	}
	return g.Teardown()
}

// Teardown forgets the token without contacting the server, e.g. after the
// server has rejected it.
func (g *Guard) Teardown() error {
	err := g.store.Clear()
	if err != nil {
		err = fmt.Errorf("clearing session: %w", err)
	}
	g.set("")
	return err
}
