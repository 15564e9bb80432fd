// Package listing holds the paginated, searchable list views for users and
// orders.
package listing

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
	"user-order-console/internal/ui/notify"
	"user-order-console/pkg/security"
)

// Messages shown when a list fetch fails. The underlying error is logged.
const (
	UsersLoadError  = "Could not load the users list."
	OrdersLoadError = "Could not load the orders list."
)

// Fetcher loads one page of a listing.
type Fetcher[T any] func(ctx context.Context, p rest.ListParams) (*paging.Page[T], error)

// Options configures a View.
type Options struct {
	Limit             int64
	ResetPageOnSearch bool
	// Page and Query set the initial state; the first Load fetches them.
	Page  int64
	Query string
	// OnChange is called after every state transition, outside the view's lock.
	OnChange func()
}

// State is a snapshot of a view.
type State[T any] struct {
	Page    int64
	Limit   int64
	Query   string
	Result  *paging.Page[T]
	Loading bool
	Err     string
}

// View is a paginated list with search. Every change of page or query
// triggers a fetch; only the most recently started fetch may update the
// state, so the displayed result always matches the latest request.
type View[T any] struct {
	fetcher Fetcher[T]
	errMsg  string
	log     *zap.Logger
	opts    Options

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	cancel context.CancelFunc
	closed bool

	bg sync.WaitGroup
}

// NewUsers creates the users list view.
func NewUsers(fetch Fetcher[user.User], log *zap.Logger, opts Options) *View[user.User] {
	return New(fetch, UsersLoadError, log.Named("users_list"), opts)
}

// NewOrders creates the orders list view.
func NewOrders(fetch Fetcher[order.Order], log *zap.Logger, opts Options) *View[order.Order] {
	return New(fetch, OrdersLoadError, log.Named("orders_list"), opts)
}

// New creates a View that reports errMsg when a fetch fails.
func New[T any](fetch Fetcher[T], errMsg string, log *zap.Logger, opts Options) *View[T] {
	if opts.Limit <= 0 {
		opts.Limit = rest.DefaultLimit
	}
	if opts.Page < 1 {
		opts.Page = rest.DefaultPage
	}
	return &View[T]{
		fetcher: fetch,
		errMsg:  errMsg,
		log:     log,
		opts:    opts,
		state: State[T]{
			Page:  opts.Page,
			Limit: opts.Limit,
			Query: security.NormalizeSearchQuery(opts.Query),
		},
	}
}

// State returns a copy of the current state.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load fetches the current page.
func (v *View[T]) Load(ctx context.Context) {
	v.fetch(ctx, func(*State[T]) bool { return true })
}

// Refresh refetches the current page and query.
func (v *View[T]) Refresh(ctx context.Context) {
	v.Load(ctx)
}

// SetPage moves to page n. Pages below 1 are ignored.
func (v *View[T]) SetPage(ctx context.Context, n int64) {
	v.fetch(ctx, func(s *State[T]) bool {
		if n < 1 {
			return false
		}
		s.Page = n
		return true
	})
}

// Next moves one page forward when CanNext allows it.
func (v *View[T]) Next(ctx context.Context) {
	v.fetch(ctx, func(s *State[T]) bool {
		if !canNext(s) {
			return false
		}
		s.Page++
		return true
	})
}

// Prev moves one page back when CanPrev allows it.
func (v *View[T]) Prev(ctx context.Context) {
	v.fetch(ctx, func(s *State[T]) bool {
		if s.Page <= 1 {
			return false
		}
		s.Page--
		return true
	})
}

// SetQuery changes the search text. The page is kept unless
// Options.ResetPageOnSearch is set.
func (v *View[T]) SetQuery(ctx context.Context, q string) {
	q = security.NormalizeSearchQuery(q)
	v.fetch(ctx, func(s *State[T]) bool {
		if q == s.Query {
			return false
		}
		s.Query = q
		if v.opts.ResetPageOnSearch {
			s.Page = rest.DefaultPage
		}
		return true
	})
}

// CanPrev reports whether a previous page exists.
func (v *View[T]) CanPrev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Page > 1
}

// CanNext reports whether a result is loaded and a next page exists.
func (v *View[T]) CanNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return canNext(&v.state)
}

func canNext[T any](s *State[T]) bool {
	return s.Result != nil && s.Page < s.Result.Pages
}

// Empty reports whether the loaded result has no items and no fetch is in
// flight.
func (v *View[T]) Empty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.state.Loading && v.state.Result.Empty()
}

// Subscribe refreshes the view in the background whenever topic is
// published on bus. The returned function unsubscribes.
func (v *View[T]) Subscribe(ctx context.Context, bus *notify.Bus, topic notify.Topic) func() {
	return bus.Subscribe(topic, func() {
		v.mu.Lock()
		closed := v.closed
		if !closed {
			v.bg.Add(1)
		}
		v.mu.Unlock()
		if closed {
			return
		}

		go func() {
			defer v.bg.Done()
			v.Refresh(ctx)
		}()
	})
}

// Wait blocks until background refreshes started by Subscribe finish.
func (v *View[T]) Wait() {
	v.bg.Wait()
}

// Close cancels the in-flight fetch. No state update happens afterwards.
func (v *View[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// fetch applies mutate and, if it reports a change, loads the resulting page.
func (v *View[T]) fetch(ctx context.Context, mutate func(*State[T]) bool) {
	v.mu.Lock()
	if v.closed || !mutate(&v.state) {
		v.mu.Unlock()
		return
	}

	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	fctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel

	v.state.Loading = true
	v.state.Err = ""
	params := rest.ListParams{Page: v.state.Page, Limit: v.state.Limit, Query: v.state.Query}
	v.mu.Unlock()
	v.changed()

	page, err := v.fetcher(fctx, params)

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		cancel()
		v.log.Debug("discarding stale list response",
			zap.Int64("page", params.Page),
			zap.String("query", params.Query),
		)
		return
	}
	cancel()
	v.cancel = nil

	if err != nil {
		v.state.Err = v.errMsg
		v.log.Warn("list fetch failed",
			zap.Int64("page", params.Page),
			zap.Int64("limit", params.Limit),
			zap.String("query", params.Query),
			zap.Error(err),
		)
	} else {
		v.state.Result = page
	}
	v.state.Loading = false
	v.mu.Unlock()
	v.changed()
}

func (v *View[T]) changed() {
	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}
