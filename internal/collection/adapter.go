// Package collection keeps an in-memory view of one store collection in step
// with the mutations made through it.
//
// The view is a reconciliation record, not a read path: every list request
// goes to the store and then replaces the view, and handlers always answer
// from the store's response. One Adapter is shared by all admin requests for
// its collection, so Rows, Err, Loading and Loaded describe the outcome of
// the latest calls across those requests.
package collection

import (
	"context"
	"slices"
	"sync"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
)

// Adapter binds a collection repository to an ordering and caches the rows
// it has seen. The mutex guards only the cache; store calls run unlocked,
// so concurrent mutations reach the store independently and the cache ends
// up reflecting whichever response arrived last.
type Adapter[T models.Row] struct {
	repo      repository.CollectionRepository[T]
	orderBy   string
	ascending bool

	mu      sync.RWMutex
	rows    []T
	err     error
	loading bool
	loaded  bool
}

// NewAdapter creates an adapter that lists repo ordered by orderBy.
func NewAdapter[T models.Row](repo repository.CollectionRepository[T], orderBy string, ascending bool) *Adapter[T] {
	return &Adapter[T]{repo: repo, orderBy: orderBy, ascending: ascending, rows: []T{}}
}

// Name returns the bound collection's name.
func (a *Adapter[T]) Name() string {
	return a.repo.Name()
}

// List fetches all rows and replaces the cache. On failure the cache is
// cleared and the error is kept for Err.
func (a *Adapter[T]) List(ctx context.Context) ([]T, error) {
	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	rows, err := a.repo.List(ctx, repository.Query{OrderBy: a.orderBy, Ascending: a.ascending})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		a.rows = []T{}
		a.err = err
		a.loaded = false
		return nil, err
	}
	a.rows = rows
	a.err = nil
	a.loaded = true
	return slices.Clone(rows), nil
}

// Create inserts a row built from partial and prepends it to the cache.
func (a *Adapter[T]) Create(ctx context.Context, partial models.Payload) (T, error) {
	row, err := models.DecodeRow[T](partial)
	if err != nil {
		var zero T
		return zero, apperrors.NewStoreError("insert", a.Name(), err)
	}
	if err := a.repo.Insert(ctx, &row); err != nil {
		var zero T
		return zero, err
	}

	a.mu.Lock()
	a.rows = append([]T{row}, a.rows...)
	a.mu.Unlock()
	return row, nil
}

// Update applies patch to the row with id and replaces the cached entry in
// place. Rows not currently cached are left out of the cache.
func (a *Adapter[T]) Update(ctx context.Context, id string, patch models.Payload) (T, error) {
	updated, err := a.repo.Update(ctx, id, patch)
	if err != nil {
		var zero T
		return zero, err
	}

	a.mu.Lock()
	if i := a.indexOf(id); i >= 0 {
		a.rows[i] = *updated
	}
	a.mu.Unlock()
	return *updated, nil
}

// Remove deletes the row with id and drops it from the cache.
func (a *Adapter[T]) Remove(ctx context.Context, id string) error {
	if err := a.repo.Delete(ctx, id); err != nil {
		return err
	}

	a.mu.Lock()
	if i := a.indexOf(id); i >= 0 {
		a.rows = slices.Delete(a.rows, i, i+1)
	}
	a.mu.Unlock()
	return nil
}

// Rows returns a copy of the cached rows.
func (a *Adapter[T]) Rows() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.rows)
}

// Err returns the error from the last List, if it failed.
func (a *Adapter[T]) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Loading reports whether a List is in flight.
func (a *Adapter[T]) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Loaded reports whether the cache holds the result of a successful List.
func (a *Adapter[T]) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

// indexOf must be called with mu held.
func (a *Adapter[T]) indexOf(id string) int {
	return slices.IndexFunc(a.rows, func(r T) bool { return r.RowID() == id })
}
