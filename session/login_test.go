package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/storage/file"
	"github.com/jmcleod/vrchatbot/storage/memory"
	"github.com/jmcleod/vrchatbot/vrchat"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

func TestEndToEnd_FirstLogin(t *testing.T) {
	dir := t.TempDir()
	repo, err := file.NewRepository(dir)
	require.NoError(t, err)
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret", UserID: "usr_alice"})
	m := newTestManager(t, srv, repo)

	_, err = m.GetClient("u1")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	res, err := m.LoginViaPassword(t.Context(), "u1", "alice", "secret")
	require.NoError(t, err)
	auth, ok := res.(*Authenticated)
	require.True(t, ok)
	assert.Equal(t, "usr_alice", auth.User.ID)

	raw, err := os.ReadFile(filepath.Join(dir, "player", "u1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","password":"secret"}`, string(raw))
	_, err = os.Stat(filepath.Join(dir, "player", "u1.cookies"))
	require.NoError(t, err)

	srv.ResetRequests()
	c, err := m.GetClient("u1")
	require.NoError(t, err)
	_, err = c.Friends(t.Context(), false, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, srv.Requests("/auth/user"), "stored cookies are enough")
}

func TestLoginViaPassword_InvalidCredentialsRemovesRecords(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	m := newTestManager(t, srv, nil)
	login(t, m, "u1", "alice", "secret")

	srv.SetPassword("alice", "rotated")
	_, err := m.LoginViaPassword(t.Context(), "u1", "alice", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	apiErr, ok := errors.AsType[*vrchat.APIError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = m.Credentials().Load("u1")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	exists, err := m.Cookies().Exists("u1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoginViaPassword_OtherAPIErrorKeepsState(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","status_code":429}}`))
	}))
	t.Cleanup(upstream.Close)

	repo := memory.NewRepository()
	m := NewManager(repo, vrchat.Config{BaseURL: upstream.URL})
	require.NoError(t, m.Credentials().Save("u1", LoginInfo{Username: "alice", Password: "secret"}))

	_, err := m.LoginViaPassword(t.Context(), "u1", "alice", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	apiErr, ok := errors.AsType[*vrchat.APIError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "slow down", apiErr.Reason)

	_, err = m.Credentials().Load("u1")
	assert.NoError(t, err)
}

func TestLoginViaPassword_ChallengeKinds(t *testing.T) {
	tests := []struct {
		name string
		mode vrchattest.TwoFactor
		want ChallengeKind
	}{
		{"email", vrchattest.TwoFactorEmail, ChallengeEmail},
		{"totp", vrchattest.TwoFactorTOTP, ChallengeAuthenticator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := vrchattest.New(t, vrchattest.Account{Username: "bob", Password: "pw", TwoFactor: tt.mode, Code: "123456"})
			m := newTestManager(t, srv, nil)

			res, err := m.LoginViaPassword(t.Context(), "u1", "bob", "pw")
			require.NoError(t, err)
			ch, ok := res.(*Challenge)
			require.True(t, ok)
			assert.Equal(t, tt.want, ch.Kind)
			assert.Equal(t, "u1", ch.SessionID)

			_, err = m.Credentials().Load("u1")
			assert.ErrorIs(t, err, ErrNotLoggedIn, "nothing is stored before verification")

			user, err := ch.Verify(t.Context(), "123456")
			require.NoError(t, err)
			assert.Equal(t, "bob", user.Username)
			info, err := m.Credentials().Load("u1")
			require.NoError(t, err)
			assert.Equal(t, LoginInfo{Username: "bob", Password: "pw"}, info)
			assert.True(t, ch.Closed())
		})
	}
}

func TestLoginViaPassword_UnsupportedChallenge(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "bob", Password: "pw", TwoFactor: vrchattest.TwoFactorUnsupported})
	m := newTestManager(t, srv, nil)

	res, err := m.LoginViaPassword(t.Context(), "u1", "bob", "pw")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnknownChallenge)
}

func TestChallengeKind(t *testing.T) {
	kind, err := challengeKind(vrchat.ReasonEmailTwoFactor)
	require.NoError(t, err)
	assert.Equal(t, ChallengeEmail, kind)

	kind, err = challengeKind(vrchat.ReasonTwoFactor)
	require.NoError(t, err)
	assert.Equal(t, ChallengeAuthenticator, kind)

	kind, err = challengeKind("Requires Two-Factor Authentication")
	assert.ErrorIs(t, err, ErrUnknownChallenge)
	assert.Empty(t, kind)
}

func TestChallenge_WrongCodeIsRetryable(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "bob", Password: "pw", TwoFactor: vrchattest.TwoFactorEmail, Code: "123456"})
	m := newTestManager(t, srv, nil)
	previous := LoginInfo{Username: "bob", Password: "old"}
	require.NoError(t, m.Credentials().Save("u1", previous))

	res, err := m.LoginViaPassword(t.Context(), "u1", "bob", "pw")
	require.NoError(t, err)
	ch := res.(*Challenge)

	_, err = ch.Verify(t.Context(), "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, ch.Closed())
	info, err := m.Credentials().Load("u1")
	require.NoError(t, err)
	assert.Equal(t, previous, info, "a wrong code leaves stored state alone")

	user, err := ch.Verify(t.Context(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = ch.Verify(t.Context(), "123456")
	assert.ErrorIs(t, err, ErrChallengeClosed)
}

func TestChallenge_TerminalFailureCloses(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	ch := &Challenge{Kind: ChallengeEmail, verify: func(context.Context, string) (*vrchat.CurrentUser, error) {
		calls++
		return nil, boom
	}}

	_, err := ch.Verify(t.Context(), "1")
	assert.ErrorIs(t, err, boom)
	_, err = ch.Verify(t.Context(), "2")
	assert.ErrorIs(t, err, ErrChallengeClosed)
	assert.Equal(t, 1, calls)
}
