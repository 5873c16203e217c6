package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/e-doso/edoso-client/internal/pkg/infrastructure/storage"
	"github.com/e-doso/edoso-client/pkg/client"
	"github.com/e-doso/edoso-client/pkg/types"
)

var ErrNoGroupSelected = errors.New("no group selected")

// Tokens adapts a storage.Store into the token source the api client reads
// from before every authenticated call.
func Tokens(store storage.Store) client.TokenSource {
	return tokenSource{store: store}
}

type tokenSource struct {
	store storage.Store
}

func (t tokenSource) Token(ctx context.Context) (string, error) {
	v, err := t.store.Get(ctx, storage.KeyAuthToken)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", client.ErrInvalidSession
	}
	return v, err
}

// Session owns the login/logout and group selection flows on top of the
// persisted store. It is an explicit object handed to the screens, never a
// package-level singleton, so tests can substitute a fake store.
type Session struct {
	store storage.Store
	api   *client.Client
}

func New(store storage.Store, api *client.Client) *Session {
	return &Session{store: store, api: api}
}

// Login exchanges credentials for a token, persists it, then fetches and
// caches the user profile. When any step after the token write fails, the
// partially written keys are cleared again so a failed login never leaves an
// authenticated-looking session behind.
func (s *Session) Login(ctx context.Context, email, password string) (types.Profile, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return types.Profile{}, err
	}

	err = s.store.Set(ctx, storage.KeyAuthToken, token)
	if err != nil {
		return types.Profile{}, err
	}

	rollback := func(cause error) (types.Profile, error) {
		err := s.store.Clear(ctx, storage.KeyAuthToken, storage.KeyUserData)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to clear partial session state", "err", err.Error())
		}
		return types.Profile{}, cause
	}

	profile, err := s.api.Profile(ctx)
	if err != nil {
		return rollback(err)
	}

	b, err := json.Marshal(profile)
	if err != nil {
		return rollback(err)
	}

	err = s.store.Set(ctx, storage.KeyUserData, string(b))
	if err != nil {
		return rollback(err)
	}

	return profile, nil
}

// Logout clears all persisted session keys in one transaction. The server
// side token invalidation is best effort: an in-flight request elsewhere may
// still complete against the old token, but no screen will find it in the
// store afterwards.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		logging.GetFromContext(ctx).Debug("server side logout failed", "err", err.Error())
	}

	return s.store.Clear(ctx,
		storage.KeyAuthToken,
		storage.KeySelectedGroupID,
		storage.KeyUserData,
		storage.KeyIsAdmin,
	)
}

// SelectGroup persists the chosen group id together with the admin flag
// derived from the cached profile's membership in that group.
func (s *Session) SelectGroup(ctx context.Context, g types.Group) error {
	profile, err := s.CachedProfile(ctx)
	if err != nil {
		return err
	}

	isAdmin := g.MemberRole(profile.ID) == types.RoleAdmin

	err = s.store.Set(ctx, storage.KeySelectedGroupID, strconv.Itoa(g.ID))
	if err != nil {
		return err
	}

	return s.store.Set(ctx, storage.KeyIsAdmin, strconv.FormatBool(isAdmin))
}

// LeaveGroup drops the group-scoped keys, e.g. after the selected group has
// been deleted. The auth token and cached profile survive.
func (s *Session) LeaveGroup(ctx context.Context) error {
	return s.store.Clear(ctx, storage.KeySelectedGroupID, storage.KeyIsAdmin)
}

// Require returns the token and selected group id, or fails closed. Every
// group-scoped fetch must pass through here first: a missing token means
// redirect to login, a missing group id means redirect to group selection.
func (s *Session) Require(ctx context.Context) (string, int, error) {
	token, err := s.store.Get(ctx, storage.KeyAuthToken)
	if errors.Is(err, storage.ErrKeyNotFound) || (err == nil && token == "") {
		return "", 0, client.ErrInvalidSession
	}
	if err != nil {
		return "", 0, err
	}

	v, err := s.store.Get(ctx, storage.KeySelectedGroupID)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", 0, ErrNoGroupSelected
	}
	if err != nil {
		return "", 0, err
	}

	groupID, err := strconv.Atoi(v)
	if err != nil {
		return "", 0, ErrNoGroupSelected
	}

	return token, groupID, nil
}

func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.store.Get(ctx, storage.KeyAuthToken)
	return err == nil && token != ""
}

func (s *Session) CachedProfile(ctx context.Context) (types.Profile, error) {
	v, err := s.store.Get(ctx, storage.KeyUserData)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return types.Profile{}, client.ErrInvalidSession
	}
	if err != nil {
		return types.Profile{}, err
	}

	var profile types.Profile
	err = json.Unmarshal([]byte(v), &profile)
	if err != nil {
		return types.Profile{}, err
	}

	return profile, nil
}

func (s *Session) IsAdmin(ctx context.Context) bool {
	v, err := s.store.Get(ctx, storage.KeyIsAdmin)
	if err != nil {
		return false
	}
	isAdmin, _ := strconv.ParseBool(v)
	return isAdmin
}
