// Package search provides the generic debounced incremental-search
// primitive shared by the contragent and nomenclature surfaces. It
// owns debounce timing, minimum-length gating, and the generation
// guard that discards stale responses arriving out of order.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Config configures a Coordinator for one search surface.
type Config[T any] struct {
	// MinLength gates queries: anything shorter resets the surface to
	// idle without contacting the gateway.
	MinLength int

	// Debounce is how long a query must sit unchanged before it is
	// issued.
	Debounce time.Duration

	// Search executes the filtered query.
	Search func(ctx context.Context, query string) ([]T, error)

	// ListAll, when set, enables the full-listing mode: focusing the
	// surface with an empty query fetches the unfiltered roster.
	ListAll func(ctx context.Context) ([]T, error)

	// ShortQueryAdvisory is shown when a non-empty query is shorter
	// than MinLength. Empty disables the advisory.
	ShortQueryAdvisory string

	// NotFoundAdvisory is shown when a query of at least
	// NotFoundMinLength resolves to zero results. Empty disables it.
	NotFoundAdvisory  string
	NotFoundMinLength int

	// AdvisoryFor maps a search failure to the user-visible advisory.
	// Defaults to err.Error().
	AdvisoryFor func(error) string

	// AfterFunc schedules the debounce callback and returns a cancel
	// function. Defaults to time.AfterFunc; tests inject their own to
	// drive the timer deterministically.
	AfterFunc func(d time.Duration, fn func()) (cancel func() bool)

	// OnChange, when set, receives a snapshot after every state
	// change. Called without the coordinator lock held.
	OnChange func(Snapshot[T])
}

// Snapshot is an immutable view of the surface state.
type Snapshot[T any] struct {
	Status     Status
	Query      string
	Results    []T
	Advisory   string
	Generation uint64
}

// Coordinator runs the search state machine for one surface. Safe for
// concurrent use; debounce callbacks fire on timer goroutines.
type Coordinator[T any] struct {
	cfg Config[T]

	mu          sync.Mutex
	status      Status
	query       string
	results     []T
	advisory    string
	generation  uint64
	cancelTimer func() bool
}

// New creates a coordinator.
func New[T any](cfg Config[T]) (*Coordinator[T], error) {
	if cfg.Search == nil {
		return nil, fmt.Errorf("search: Search is required")
	}
	if cfg.MinLength < 1 {
		return nil, fmt.Errorf("search: MinLength must be at least 1")
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("search: Debounce must be positive")
	}
	if cfg.AdvisoryFor == nil {
		cfg.AdvisoryFor = func(err error) string { return err.Error() }
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		}
	}
	return &Coordinator[T]{cfg: cfg, status: StatusIdle}, nil
}

// SetQuery registers a query edit. Queries below MinLength reset the
// surface to idle; anything else starts (or restarts) the debounce
// window. A rapid sequence of edits therefore issues at most one
// request, for the last value.
func (c *Coordinator[T]) SetQuery(ctx context.Context, query string) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.query = query
	c.generation++ // supersede anything already in flight

	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < c.cfg.MinLength {
		c.status = StatusIdle
		c.results = nil
		c.advisory = ""
		if trimmed != "" {
			c.advisory = c.cfg.ShortQueryAdvisory
		}
		c.emitLocked()
		return
	}

	c.status = StatusPending
	c.advisory = ""
	gen := c.generation
	c.cancelTimer = c.cfg.AfterFunc(c.cfg.Debounce, func() {
		c.execute(ctx, trimmed, gen)
	})
	c.emitLocked()
}

// Flush runs the current query immediately, skipping the rest of the
// debounce window. Used for an explicit confirm (Enter).
func (c *Coordinator[T]) Flush(ctx context.Context) {
	c.mu.Lock()
	trimmed := strings.TrimSpace(c.query)
	if len([]rune(trimmed)) < c.cfg.MinLength {
		c.stopTimerLocked()
		c.status = StatusIdle
		c.results = nil
		c.advisory = ""
		if trimmed != "" {
			c.advisory = c.cfg.ShortQueryAdvisory
		}
		c.emitLocked()
		return
	}
	c.stopTimerLocked()
	c.status = StatusPending
	c.generation++
	gen := c.generation
	c.emitLocked()
	go c.execute(ctx, trimmed, gen)
}

// Focus activates the full-listing mode: when the surface gains focus
// with an empty query and ListAll is configured, the unfiltered roster
// is fetched. A non-empty query or a surface without ListAll makes
// this a no-op.
func (c *Coordinator[T]) Focus(ctx context.Context) {
	c.mu.Lock()
	if c.cfg.ListAll == nil || strings.TrimSpace(c.query) != "" {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.status = StatusInFlight
	c.generation++
	issued := c.generation
	c.emitLocked()

	go func() {
		results, err := c.cfg.ListAll(ctx)
		c.finish(issued, "", results, err)
	}()
}

// Select commits the candidate at index i, clearing the surface back
// to idle. Returns false when the index is stale or out of range.
func (c *Coordinator[T]) Select(i int) (T, bool) {
	c.mu.Lock()
	if i < 0 || i >= len(c.results) {
		c.mu.Unlock()
		var zero T
		return zero, false
	}
	candidate := c.results[i]
	c.resetLocked()
	c.emitLocked()
	return candidate, true
}

// Cancel clears the surface back to idle, discarding any pending or
// in-flight query.
func (c *Coordinator[T]) Cancel() {
	c.mu.Lock()
	c.resetLocked()
	c.emitLocked()
}

// Snapshot returns a copy of the current surface state.
func (c *Coordinator[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// execute issues the query tagged with the generation captured when
// its debounce window started.
func (c *Coordinator[T]) execute(ctx context.Context, query string, gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.status != StatusPending {
		// Superseded while the timer fired.
		c.mu.Unlock()
		return
	}
	c.status = StatusInFlight
	c.generation++
	issued := c.generation
	c.emitLocked()

	results, err := c.cfg.Search(ctx, query)
	c.finish(issued, query, results, err)
}

// finish applies a response unless a newer generation has been issued
// in the meantime; stale responses are discarded, never applied.
func (c *Coordinator[T]) finish(issued uint64, query string, results []T, err error) {
	c.mu.Lock()
	if issued != c.generation {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.status = StatusErrored
		c.results = nil
		c.advisory = c.cfg.AdvisoryFor(err)
	} else {
		c.status = StatusResolved
		c.results = results
		c.advisory = ""
		if len(results) == 0 && query != "" &&
			c.cfg.NotFoundAdvisory != "" && c.cfg.NotFoundMinLength > 0 &&
			len([]rune(query)) >= c.cfg.NotFoundMinLength {
			c.advisory = c.cfg.NotFoundAdvisory
		}
	}
	c.emitLocked()
}

func (c *Coordinator[T]) resetLocked() {
	c.stopTimerLocked()
	c.status = StatusIdle
	c.query = ""
	c.results = nil
	c.advisory = ""
	c.generation++
}

func (c *Coordinator[T]) stopTimerLocked() {
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
}

func (c *Coordinator[T]) snapshotLocked() Snapshot[T] {
	results := make([]T, len(c.results))
	copy(results, c.results)
	return Snapshot[T]{
		Status:     c.status,
		Query:      c.query,
		Results:    results,
		Advisory:   c.advisory,
		Generation: c.generation,
	}
}

// emitLocked builds a snapshot, releases the lock, and delivers the
// snapshot to OnChange. Callers must hold the lock and must not touch
// state afterwards.
func (c *Coordinator[T]) emitLocked() {
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(snap)
	}
}
