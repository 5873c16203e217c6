package listview

import (
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultDebounce is the quiet period after the last keystroke before the
// filter recomputes.
const DefaultDebounce = 300 * time.Millisecond

// Filter is the debounced client-side text filter over a loaded collection.
// Filtering is local only and never re-fetches: the visible result is always
// a subset of what the source currently holds, which during pagination means
// only the pages fetched so far.
type Filter[T any] struct {
	delay  time.Duration
	source func() []T
	name   func(T) string
	notify func([]T)

	mu      sync.Mutex
	timer   *time.Timer
	query   string
	matched []T
}

// NewFilter wires a filter to its collection source and a name extractor.
// notify is invoked with the matched subset after every recomputation; it may
// be nil.
func NewFilter[T any](delay time.Duration, source func() []T, name func(T) string, notify func([]T)) *Filter[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Filter[T]{
		delay:  delay,
		source: source,
		name:   name,
		notify: notify,
	}
}

// SetQuery is called on every keystroke. The pending recomputation, if any,
// is cancelled and rescheduled, so at most one recomputation runs per quiet
// period.
func (f *Filter[T]) SetQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = q

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.recompute)
}

func (f *Filter[T]) recompute() {
	f.mu.Lock()

	q := strings.ToLower(strings.TrimSpace(f.query))
	items := f.source()

	if q == "" {
		f.matched = items
	} else {
		f.matched = lo.Filter(items, func(item T, _ int) bool {
			return strings.Contains(strings.ToLower(f.name(item)), q)
		})
	}

	matched := f.matched
	notify := f.notify
	f.mu.Unlock()

	if notify != nil {
		notify(matched)
	}
}

// Matches returns the subset produced by the last recomputation.
func (f *Filter[T]) Matches() []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]T, len(f.matched))
	copy(matched, f.matched)
	return matched
}

// Flush cancels any pending timer and recomputes immediately.
func (f *Filter[T]) Flush() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	f.recompute()
}
