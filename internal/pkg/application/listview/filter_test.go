package listview

import (
	"sync"
	"testing"
	"time"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/matryer/is"
)

func elderNames() []types.Elder {
	return []types.Elder{
		{ID: 1, FullName: "Maria da Silva"},
		{ID: 2, FullName: "João Pereira"},
		{ID: 3, FullName: "Ana Maria Souza"},
	}
}

func TestFilterMatchesCaseInsensitiveSubstrings(t *testing.T) {
	is := is.New(t)

	f := NewFilter(time.Millisecond,
		elderNames,
		func(e types.Elder) string { return e.FullName },
		nil,
	)

	f.SetQuery("maria")
	f.Flush()

	matched := f.Matches()
	is.Equal(len(matched), 2)
	is.Equal(matched[0].ID, 1)
	is.Equal(matched[1].ID, 3)
}

func TestEmptyQueryMatchesEverything(t *testing.T) {
	is := is.New(t)

	f := NewFilter(time.Millisecond,
		elderNames,
		func(e types.Elder) string { return e.FullName },
		nil,
	)

	f.SetQuery("   ")
	f.Flush()

	is.Equal(len(f.Matches()), 3)
}

func TestOnlyOneRecomputationPerQuietPeriod(t *testing.T) {
	is := is.New(t)

	var mu sync.Mutex
	recomputations := 0

	f := NewFilter(20*time.Millisecond,
		elderNames,
		func(e types.Elder) string { return e.FullName },
		func([]types.Elder) {
			mu.Lock()
			recomputations++
			mu.Unlock()
		},
	)

	// a burst of keystrokes, each one cancelling the previous timer
	for _, q := range []string{"m", "ma", "mar", "mari", "maria"} {
		f.SetQuery(q)
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	is.Equal(recomputations, 1)
	mu.Unlock()

	matched := f.Matches()
	is.Equal(len(matched), 2)
}

func TestMatchesIsAlwaysASubsetOfTheSource(t *testing.T) {
	is := is.New(t)

	// the source only holds the first page so far
	source := []types.Elder{{ID: 1, FullName: "Maria da Silva"}}

	f := NewFilter(time.Millisecond,
		func() []types.Elder { return source },
		func(e types.Elder) string { return e.FullName },
		nil,
	)

	f.SetQuery("a")
	f.Flush()

	for _, m := range f.Matches() {
		is.Equal(m.ID, 1)
	}
}

func TestFlushCancelsThePendingTimer(t *testing.T) {
	is := is.New(t)

	var mu sync.Mutex
	recomputations := 0

	f := NewFilter(time.Hour,
		elderNames,
		func(e types.Elder) string { return e.FullName },
		func([]types.Elder) {
			mu.Lock()
			recomputations++
			mu.Unlock()
		},
	)

	f.SetQuery("joão")
	f.Flush()

	mu.Lock()
	is.Equal(recomputations, 1)
	mu.Unlock()

	matched := f.Matches()
	is.Equal(len(matched), 1)
	is.Equal(matched[0].ID, 2)
}
