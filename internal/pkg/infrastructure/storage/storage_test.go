package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestSetGetRoundTrip(t *testing.T) {
	is, ctx, s := testSetup(t)

	err := s.Set(ctx, KeyAuthToken, "sometoken")
	is.NoErr(err)

	v, err := s.Get(ctx, KeyAuthToken)
	is.NoErr(err)
	is.Equal(v, "sometoken")
}

func TestSetOverwritesPreviousValue(t *testing.T) {
	is, ctx, s := testSetup(t)

	is.NoErr(s.Set(ctx, KeySelectedGroupID, "1"))
	is.NoErr(s.Set(ctx, KeySelectedGroupID, "2"))

	v, err := s.Get(ctx, KeySelectedGroupID)
	is.NoErr(err)
	is.Equal(v, "2")
}

func TestGetUnknownKey(t *testing.T) {
	is, ctx, s := testSetup(t)

	_, err := s.Get(ctx, "neverset")
	is.True(errors.Is(err, ErrKeyNotFound))
}

func TestClearRemovesAllGivenKeys(t *testing.T) {
	is, ctx, s := testSetup(t)

	is.NoErr(s.Set(ctx, KeyAuthToken, "sometoken"))
	is.NoErr(s.Set(ctx, KeySelectedGroupID, "1"))
	is.NoErr(s.Set(ctx, KeyUserData, `{"id":1}`))
	is.NoErr(s.Set(ctx, KeyIsAdmin, "true"))

	err := s.Clear(ctx, KeyAuthToken, KeySelectedGroupID, KeyUserData, KeyIsAdmin)
	is.NoErr(err)

	for _, key := range []string{KeyAuthToken, KeySelectedGroupID, KeyUserData, KeyIsAdmin} {
		_, err := s.Get(ctx, key)
		is.True(errors.Is(err, ErrKeyNotFound))
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := New(ctx, path)
	is.NoErr(err)
	is.NoErr(s.Set(ctx, KeyAuthToken, "sometoken"))
	is.NoErr(s.Close())

	reopened, err := New(ctx, path)
	is.NoErr(err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, KeyAuthToken)
	is.NoErr(err)
	is.Equal(v, "sometoken")
}

func TestInMemoryStoreBehavesLikeTheRealOne(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s := NewInMemory()

	is.NoErr(s.Set(ctx, KeyAuthToken, "sometoken"))

	v, err := s.Get(ctx, KeyAuthToken)
	is.NoErr(err)
	is.Equal(v, "sometoken")

	is.NoErr(s.Clear(ctx, KeyAuthToken))

	_, err = s.Get(ctx, KeyAuthToken)
	is.True(errors.Is(err, ErrKeyNotFound))
}

func testSetup(t *testing.T) (*is.I, context.Context, Store) {
	t.Helper()
	is := is.New(t)
	ctx := context.Background()

	s, err := New(ctx, filepath.Join(t.TempDir(), "session.db"))
	is.NoErr(err)
	t.Cleanup(func() { s.Close() })

	return is, ctx, s
}
