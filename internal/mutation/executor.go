// Package mutation runs create, update and delete calls against the API and
// invalidates the collection cache once a call succeeds.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/client"
	"github.com/erazemk/omara/internal/model"
)

// ErrPending is returned when an operation of the same kind is still running.
var ErrPending = errors.New("mutation: operation already in progress")

// Op is a kind of mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// FailureMessage is the user-facing text for a failed op.
func FailureMessage(op Op) string {
	switch op {
	case OpCreate:
		return "Failed to add item. Please try again."
	case OpUpdate:
		return "Failed to update item. Please try again."
	case OpDelete:
		return "Failed to delete item. Please try again."
	}
	return "Operation failed. Please try again."
}

// Mutator performs the remote calls.
type Mutator interface {
	CreateClothing(ctx context.Context, form client.ItemForm) (*model.ClothingItem, error)
	UpdateClothing(ctx context.Context, id string, form client.ItemForm) (*model.ClothingItem, error)
	DeleteClothing(ctx context.Context, id string) error
}

// Invalidator is told when the remote collection has changed.
type Invalidator interface {
	Invalidate()
}

// Notifier surfaces failures to the user.
type Notifier interface {
	Notify(op Op, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(op Op, err error)

func (f NotifierFunc) Notify(op Op, err error) { f(op, err) }

// Executor serializes each kind of mutation and keeps the cache in step
// with the server.
type Executor struct {
	mu      sync.Mutex
	pending map[Op]bool

	api   Mutator
	cache Invalidator
	note  Notifier
	log   *zap.Logger
}

// NewExecutor creates an executor. note and log may be nil.
func NewExecutor(api Mutator, cache Invalidator, note Notifier, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if note == nil {
		note = NotifierFunc(func(Op, error) {})
	}
	return &Executor{
		pending: make(map[Op]bool),
		api:     api,
		cache:   cache,
		note:    note,
		log:     log,
	}
}

// Pending reports whether an op of this kind is running.
func (x *Executor) Pending(op Op) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.pending[op]
}

func (x *Executor) begin(op Op) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.pending[op] {
		return ErrPending
	}
	x.pending[op] = true
	return nil
}

func (x *Executor) end(op Op) {
	x.mu.Lock()
	delete(x.pending, op)
	x.mu.Unlock()
}

// run calls fn and invalidates the cache only if it succeeded.
func (x *Executor) run(op Op, fields []zap.Field, fn func() error) error {
	if err := x.begin(op); err != nil {
		return err
	}
	defer x.end(op)

	if err := fn(); err != nil {
		x.log.Warn("mutation failed", append(fields, zap.String("op", string(op)), zap.Error(err))...)
		x.note.Notify(op, err)
		return fmt.Errorf("%s item: %w", op, err)
	}

	x.log.Debug("mutation succeeded", append(fields, zap.String("op", string(op)))...)
	x.cache.Invalidate()
	return nil
}

// Create adds an item. An invalid form is rejected before any call.
func (x *Executor) Create(ctx context.Context, form client.ItemForm) (*model.ClothingItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var item *model.ClothingItem
	err := x.run(OpCreate, nil, func() (err error) {
		item, err = x.api.CreateClothing(ctx, form)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces an item's fields.
func (x *Executor) Update(ctx context.Context, id string, form client.ItemForm) (*model.ClothingItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var item *model.ClothingItem
	err := x.run(OpUpdate, []zap.Field{zap.String("id", id)}, func() (err error) {
		item, err = x.api.UpdateClothing(ctx, id, form)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item.
func (x *Executor) Delete(ctx context.Context, id string) error {
	return x.run(OpDelete, []zap.Field{zap.String("id", id)}, func() error {
		return x.api.DeleteClothing(ctx, id)
	})
}
