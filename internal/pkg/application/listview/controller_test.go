package listview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/matryer/is"
)

func TestRefreshMovesThroughTheStates(t *testing.T) {
	is := is.New(t)

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{
				Count:   1,
				Results: []types.Elder{{ID: 1, FullName: "Maria"}},
			}, nil
		},
		nil,
	)

	is.Equal(c.State(), Idle)

	err := c.Refresh(context.Background())
	is.NoErr(err)
	is.Equal(c.State(), Loaded)
	is.Equal(len(c.Items()), 1)
	is.True(!c.Empty())
}

func TestFailedFetchKeepsTheCause(t *testing.T) {
	is := is.New(t)

	boom := errors.New("boom")
	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{}, boom
		},
		nil,
	)

	err := c.Refresh(context.Background())
	is.True(errors.Is(err, boom))
	is.Equal(c.State(), Failed)
	is.True(errors.Is(c.Err(), boom))
}

func TestEmptyResultIsLoadedNotFailed(t *testing.T) {
	is := is.New(t)

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{}, nil
		},
		nil,
	)

	is.NoErr(c.Refresh(context.Background()))
	is.Equal(c.State(), Loaded)
	is.True(c.Empty())
	is.Equal(c.Err(), nil)
}

func TestStaleResponsesAreDiscarded(t *testing.T) {
	is := is.New(t)

	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()

			if n == 1 {
				// the first refresh is slow and finishes last
				<-release
				return types.Page[types.Elder]{Results: []types.Elder{{ID: 1, FullName: "old"}}}, nil
			}
			return types.Page[types.Elder]{Results: []types.Elder{{ID: 2, FullName: "new"}}}, nil
		},
		nil,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Refresh(context.Background())
	}()

	// wait for the slow fetch to be underway before superseding it
	for {
		mu.Lock()
		started := calls == 1
		mu.Unlock()
		if started {
			break
		}
	}

	is.NoErr(c.Refresh(context.Background()))
	close(release)
	wg.Wait()

	items := c.Items()
	is.Equal(len(items), 1)
	is.Equal(items[0].FullName, "new")
}

func TestLoadMoreAppendsWithoutDeduplication(t *testing.T) {
	is := is.New(t)

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{
				Next:    "http://localhost/api/grupos/1/idosos/?page=2",
				Results: []types.Elder{{ID: 1}, {ID: 2}},
			}, nil
		},
		func(ctx context.Context, cursor string) (types.Page[types.Elder], error) {
			// the boundary shifted; id 2 comes back again
			return types.Page[types.Elder]{
				Results: []types.Elder{{ID: 2}, {ID: 3}},
			}, nil
		},
	)

	is.NoErr(c.Refresh(context.Background()))
	is.True(c.HasMore())

	is.NoErr(c.LoadMore(context.Background()))
	is.True(!c.HasMore())
	is.Equal(len(c.Items()), 4)
}

func TestLoadMoreIsANoOpWhileInFlight(t *testing.T) {
	is := is.New(t)

	release := make(chan struct{})
	moreCalls := 0
	var mu sync.Mutex

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{
				Next:    "http://localhost/?page=2",
				Results: []types.Elder{{ID: 1}},
			}, nil
		},
		func(ctx context.Context, cursor string) (types.Page[types.Elder], error) {
			mu.Lock()
			moreCalls++
			mu.Unlock()
			<-release
			return types.Page[types.Elder]{Results: []types.Elder{{ID: 2}}}, nil
		},
	)

	is.NoErr(c.Refresh(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadMore(context.Background())
	}()

	for {
		mu.Lock()
		started := moreCalls == 1
		mu.Unlock()
		if started {
			break
		}
	}

	// second call returns immediately without fetching
	is.NoErr(c.LoadMore(context.Background()))

	close(release)
	wg.Wait()

	mu.Lock()
	is.Equal(moreCalls, 1)
	mu.Unlock()
	is.Equal(len(c.Items()), 2)
}

func TestLoadMoreWithoutCursorIsANoOp(t *testing.T) {
	is := is.New(t)

	moreCalled := false
	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{Results: []types.Elder{{ID: 1}}}, nil
		},
		func(ctx context.Context, cursor string) (types.Page[types.Elder], error) {
			moreCalled = true
			return types.Page[types.Elder]{}, nil
		},
	)

	is.NoErr(c.Refresh(context.Background()))
	is.NoErr(c.LoadMore(context.Background()))
	is.True(!moreCalled)
}

func TestInvalidateMarksStaleUntilTheNextRefresh(t *testing.T) {
	is := is.New(t)

	c := New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return types.Page[types.Elder]{Results: []types.Elder{{ID: 1}}}, nil
		},
		nil,
	)

	is.NoErr(c.Refresh(context.Background()))
	is.True(!c.Stale())

	c.Invalidate()
	is.True(c.Stale())

	is.NoErr(c.Trigger(context.Background()))
	is.True(!c.Stale())
}
