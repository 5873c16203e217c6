package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/e-doso/edoso-client/internal/pkg/infrastructure/storage"
	"github.com/e-doso/edoso-client/pkg/client"
	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/matryer/is"
)

func TestLoginPersistsTokenAndProfile(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	srv := newFakeBackend(t)
	store := storage.NewInMemory()
	sess := New(store, client.New(srv.URL, Tokens(store)))

	profile, err := sess.Login(ctx, "maria@example.com", "segredo1")
	is.NoErr(err)
	is.Equal(profile.FullName, "Maria da Silva")

	token, err := store.Get(ctx, storage.KeyAuthToken)
	is.NoErr(err)
	is.Equal(token, "issued-token")

	cached, err := sess.CachedProfile(ctx)
	is.NoErr(err)
	is.Equal(cached.Email, "maria@example.com")
}

func TestFailedLoginLeavesNoSessionStateBehind(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	// the token is issued but the profile fetch blows up afterwards
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.LoginResponse{Key: "issued-token"})
	})
	mux.HandleFunc("GET /api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := storage.NewInMemory()
	sess := New(store, client.New(srv.URL, Tokens(store)))

	_, err := sess.Login(ctx, "maria@example.com", "segredo1")
	is.True(errors.Is(err, client.ErrServerFault))

	is.True(!sess.Authenticated(ctx))

	_, err = store.Get(ctx, storage.KeyAuthToken)
	is.True(errors.Is(err, storage.ErrKeyNotFound))
	_, err = store.Get(ctx, storage.KeyUserData)
	is.True(errors.Is(err, storage.ErrKeyNotFound))
}

func TestLogoutClearsEverySessionKey(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	srv := newFakeBackend(t)
	store := storage.NewInMemory()
	sess := New(store, client.New(srv.URL, Tokens(store)))

	_, err := sess.Login(ctx, "maria@example.com", "segredo1")
	is.NoErr(err)
	is.NoErr(store.Set(ctx, storage.KeySelectedGroupID, "1"))
	is.NoErr(store.Set(ctx, storage.KeyIsAdmin, "true"))

	err = sess.Logout(ctx)
	is.NoErr(err)

	for _, key := range []string{storage.KeyAuthToken, storage.KeySelectedGroupID, storage.KeyUserData, storage.KeyIsAdmin} {
		_, err := store.Get(ctx, key)
		is.True(errors.Is(err, storage.ErrKeyNotFound))
	}
}

func TestLogoutClearsLocallyEvenWhenServerRefuses(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	store := storage.NewInMemory()
	is.NoErr(store.Set(ctx, storage.KeyAuthToken, "sometoken"))

	sess := New(store, client.New(srv.URL, Tokens(store)))

	err := sess.Logout(ctx)
	is.NoErr(err)

	_, err = store.Get(ctx, storage.KeyAuthToken)
	is.True(errors.Is(err, storage.ErrKeyNotFound))
}

func TestSelectGroupDerivesTheAdminFlag(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	store := storage.NewInMemory()
	profile := types.Profile{ID: 7, FullName: "Maria", Email: "maria@example.com"}
	b, _ := json.Marshal(profile)
	is.NoErr(store.Set(ctx, storage.KeyUserData, string(b)))

	sess := New(store, client.New("http://localhost:0", Tokens(store)))

	g := types.Group{
		ID:      3,
		Name:    "Lar Recanto",
		Admin:   profile,
		Members: []types.Member{{User: profile, Role: types.RoleAdmin}},
	}

	is.NoErr(sess.SelectGroup(ctx, g))
	is.True(sess.IsAdmin(ctx))

	v, err := store.Get(ctx, storage.KeySelectedGroupID)
	is.NoErr(err)
	is.Equal(v, "3")
}

func TestLeaveGroupKeepsTheAuthenticatedSession(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	store := storage.NewInMemory()
	is.NoErr(store.Set(ctx, storage.KeyAuthToken, "sometoken"))
	is.NoErr(store.Set(ctx, storage.KeySelectedGroupID, "3"))
	is.NoErr(store.Set(ctx, storage.KeyIsAdmin, "true"))

	sess := New(store, client.New("http://localhost:0", Tokens(store)))

	is.NoErr(sess.LeaveGroup(ctx))

	_, _, err := sess.Require(ctx)
	is.True(errors.Is(err, ErrNoGroupSelected))
	is.True(sess.Authenticated(ctx))
	is.True(!sess.IsAdmin(ctx))
}

func TestRequireFailsClosed(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	store := storage.NewInMemory()
	sess := New(store, client.New("http://localhost:0", Tokens(store)))

	_, _, err := sess.Require(ctx)
	is.True(errors.Is(err, client.ErrInvalidSession))

	is.NoErr(store.Set(ctx, storage.KeyAuthToken, "sometoken"))

	_, _, err = sess.Require(ctx)
	is.True(errors.Is(err, ErrNoGroupSelected))

	is.NoErr(store.Set(ctx, storage.KeySelectedGroupID, "5"))

	token, groupID, err := sess.Require(ctx)
	is.NoErr(err)
	is.Equal(token, "sometoken")
	is.Equal(groupID, 5)
}

func TestTokenSourceReadsThroughOnEveryCall(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	store := storage.NewInMemory()
	tokens := Tokens(store)

	_, err := tokens.Token(ctx)
	is.True(errors.Is(err, client.ErrInvalidSession))

	is.NoErr(store.Set(ctx, storage.KeyAuthToken, "first"))
	v, err := tokens.Token(ctx)
	is.NoErr(err)
	is.Equal(v, "first")

	is.NoErr(store.Set(ctx, storage.KeyAuthToken, "second"))
	v, err = tokens.Token(ctx)
	is.NoErr(err)
	is.Equal(v, "second")
}

// newFakeBackend serves just enough of the auth surface for the login and
// logout flows.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.LoginResponse{Key: "issued-token"})
	})
	mux.HandleFunc("GET /api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.Profile{ID: 1, FullName: "Maria da Silva", Email: "maria@example.com"})
	})
	mux.HandleFunc("POST /api/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
