package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/vrchat"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

const friendsPath = "/auth/user/friends"

func loggedInClient(t *testing.T, srv *vrchattest.Server, user, pass string) *vrchat.Client {
	t.Helper()
	c, err := srv.Config().New(user, pass)
	require.NoError(t, err)
	_, err = c.CurrentUser(t.Context())
	require.NoError(t, err)
	return c
}

func TestProber_Usable(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	c := loggedInClient(t, srv, "alice", "secret")
	p := NewProber(DefaultProbeTTL, nil)

	usable, err := p.Usable(t.Context(), c)
	require.NoError(t, err)
	assert.True(t, usable)
	assert.Equal(t, 1, srv.Requests(friendsPath))
}

func TestProber_CachesUnusableForTTL(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	c := loggedInClient(t, srv, "alice", "secret")
	srv.Revoke("alice")

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p := NewProber(10*time.Second, nil)
	p.now = clock.now

	usable, err := p.Usable(t.Context(), c)
	require.NoError(t, err)
	assert.False(t, usable)
	assert.Equal(t, 1, srv.Requests(friendsPath))

	clock.advance(9 * time.Second)
	usable, err = p.Usable(t.Context(), c)
	require.NoError(t, err)
	assert.False(t, usable)
	assert.Equal(t, 1, srv.Requests(friendsPath), "no second probe within the TTL")

	clock.advance(2 * time.Second)
	_, err = p.Usable(t.Context(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Requests(friendsPath), "probe again after the TTL")
}

func TestProber_CacheIsPerClient(t *testing.T) {
	srv := vrchattest.New(t,
		vrchattest.Account{Username: "alice", Password: "secret"},
		vrchattest.Account{Username: "bob", Password: "pw"},
	)
	alice := loggedInClient(t, srv, "alice", "secret")
	bob := loggedInClient(t, srv, "bob", "pw")
	p := NewProber(time.Minute, nil)

	_, err := p.Usable(t.Context(), alice)
	require.NoError(t, err)
	_, err = p.Usable(t.Context(), bob)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Requests(friendsPath))

	p.Forget(alice)
	_, err = p.Usable(t.Context(), alice)
	require.NoError(t, err)
	assert.Equal(t, 3, srv.Requests(friendsPath))
}

func TestProber_OtherErrorsPropagateUncached(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"\"Something went wrong\"","status_code":500}}`))
	}))
	t.Cleanup(upstream.Close)

	c, err := vrchat.Config{BaseURL: upstream.URL}.New("alice", "secret")
	require.NoError(t, err)
	p := NewProber(time.Minute, nil)

	usable, err := p.Usable(t.Context(), c)
	require.Error(t, err)
	assert.False(t, usable)
	apiErr, ok := errors.AsType[*vrchat.APIError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Something went wrong", apiErr.Reason)

	_, err = p.Usable(t.Context(), c)
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load(), "errors are not cached")
}

func TestProber_ZeroTTLDisablesCache(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	c := loggedInClient(t, srv, "alice", "secret")
	p := NewProber(0, nil)

	for range 3 {
		_, err := p.Usable(t.Context(), c)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.Requests(friendsPath))
}
