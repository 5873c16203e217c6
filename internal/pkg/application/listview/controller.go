package listview

import (
	"context"
	"sync"

	"github.com/e-doso/edoso-client/pkg/types"
)

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FetchFunc loads the first page of a collection.
type FetchFunc[T any] func(ctx context.Context) (types.Page[T], error)

// MoreFunc follows a next-page cursor URL.
type MoreFunc[T any] func(ctx context.Context, cursor string) (types.Page[T], error)

// Controller drives one list screen through Idle → Loading → {Loaded, Failed}.
// Refresh is triggered every time the screen regains focus, not only on first
// mount; that is this app's substitute for live updates. Each refresh bumps a
// generation counter and responses from superseded generations are discarded,
// so a slow fetch can never overwrite a fresher one.
type Controller[T any] struct {
	fetch FetchFunc[T]
	more  MoreFunc[T]

	mu          sync.Mutex
	state       State
	items       []T
	next        string
	err         error
	generation  uint64
	loadingMore bool
	stale       bool
}

func New[T any](fetch FetchFunc[T], more MoreFunc[T]) *Controller[T] {
	return &Controller[T]{fetch: fetch, more: more}
}

// Refresh re-fetches the collection from the top. The controller enters
// Loading immediately; the outcome is applied only if no newer refresh has
// been issued meanwhile.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = Loading
	c.mu.Unlock()

	page, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// a newer refresh owns the screen now
		return nil
	}

	if err != nil {
		c.state = Failed
		c.err = err
		return err
	}

	c.items = page.Results
	c.next = page.Next
	c.state = Loaded
	c.err = nil
	c.stale = false

	return nil
}

// Trigger is the refresh event the screen subscribes to. It is decoupled from
// any UI focus lifecycle so tests can fire it directly.
func (c *Controller[T]) Trigger(ctx context.Context) error {
	return c.Refresh(ctx)
}

// LoadMore follows the pagination cursor. It is a no-op while a page is
// already in flight or when there is nothing more to load. Results are
// appended in arrival order and are not deduplicated by id: if the server's
// page boundary shifts between calls, duplicates are possible.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Loaded || c.next == "" || c.loadingMore {
		c.mu.Unlock()
		return nil
	}
	c.loadingMore = true
	cursor := c.next
	gen := c.generation
	c.mu.Unlock()

	page, err := c.more(ctx, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingMore = false

	if gen != c.generation {
		return nil
	}

	if err != nil {
		// the already loaded pages stay on screen; only the load-more failed
		return err
	}

	c.items = append(c.items, page.Results...)
	c.next = page.Next

	return nil
}

// Invalidate marks the loaded collection stale after a mutation. The list is
// deliberately not spliced in place: the next trigger re-fetches everything,
// trading a little latency for never diverging from the server.
func (c *Controller[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a copy of the loaded collection so far.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

// Err returns the cause of the Failed state, backing the retry affordance.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Empty distinguishes "Loaded, empty" from Failed: zero results after a
// successful fetch is not an error.
func (c *Controller[T]) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Loaded && len(c.items) == 0
}

func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next != ""
}

func (c *Controller[T]) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}
