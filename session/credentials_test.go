package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/storage/memory"
)

func printableASCII() string {
	var b strings.Builder
	for c := byte(0x20); c < 0x7f; c++ {
		b.WriteByte(c)
	}
	return b.String()
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store := NewCredentialStore(memory.NewRepository(), nil)
	all := printableASCII()
	cases := []LoginInfo{
		{Username: "alice", Password: "secret"},
		{Username: all, Password: all},
		{Username: `"quoted"`, Password: `back\slash`},
		{Username: " lead", Password: "trail "},
	}
	for _, info := range cases {
		require.NoError(t, store.Save("u1", info))
		got, err := store.Load("u1")
		require.NoError(t, err)
		assert.Equal(t, info, got)
	}
}

func TestCredentialStore_PlainJSON(t *testing.T) {
	repo := memory.NewRepository()
	store := NewCredentialStore(repo, nil)
	require.NoError(t, store.Save("u1", LoginInfo{Username: "alice", Password: "secret"}))

	raw, err := repo.Get(Namespace, credentialType, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","password":"secret"}`, string(raw))
}

func TestCredentialStore_LoadNotLoggedIn(t *testing.T) {
	repo := memory.NewRepository()
	store := NewCredentialStore(repo, nil)

	_, err := store.Load("nobody")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, repo.Put(Namespace, credentialType, "garbage", []byte("{not json")))
	_, err = store.Load("garbage")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, repo.Put(Namespace, credentialType, "shape", []byte(`["alice","secret"]`)))
	_, err = store.Load("shape")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, repo.Put(Namespace, credentialType, "partial", []byte(`{"username":"alice"}`)))
	_, err = store.Load("partial")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCredentialStore_RemoveIdempotent(t *testing.T) {
	store := NewCredentialStore(memory.NewRepository(), nil)
	require.NoError(t, store.Remove("u1"))

	require.NoError(t, store.Save("u1", LoginInfo{Username: "a", Password: "b"}))
	require.NoError(t, store.Remove("u1"))
	require.NoError(t, store.Remove("u1"))

	_, err := store.Load("u1")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCredentialStore_InvalidSessionID(t *testing.T) {
	store := NewCredentialStore(memory.NewRepository(), nil)
	err := store.Save("../escape", LoginInfo{Username: "a", Password: "b"})
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestCredentialStore_Sealed(t *testing.T) {
	repo := memory.NewRepository()
	sealer, err := LoadSealer(repo, "correct horse battery staple")
	require.NoError(t, err)
	store := NewCredentialStore(repo, sealer)

	require.NoError(t, store.Save("u1", LoginInfo{Username: "alice", Password: "secret"}))
	raw, err := repo.Get(Namespace, credentialType, "u1")
	require.NoError(t, err)
	assert.True(t, storage.IsSealed(raw))
	assert.NotContains(t, string(raw), "secret")

	got, err := store.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Password)

	// A record sealed for one session does not open as another.
	require.NoError(t, repo.Put(Namespace, credentialType, "u2", raw))
	_, err = store.Load("u2")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotLoggedIn)

	// Without the passphrase the record is unreadable, which is not the same
	// as being logged out.
	_, err = NewCredentialStore(repo, nil).Load("u1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoadSealer_ReusesSalt(t *testing.T) {
	repo := memory.NewRepository()
	first, err := LoadSealer(repo, "pass")
	require.NoError(t, err)
	sealed, err := first.Seal([]byte("hello"), []byte("aad"))
	require.NoError(t, err)

	second, err := LoadSealer(repo, "pass")
	require.NoError(t, err)
	opened, err := second.Open(sealed, []byte("aad"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(opened))

	wrong, err := LoadSealer(repo, "other")
	require.NoError(t, err)
	_, err = wrong.Open(sealed, []byte("aad"))
	assert.Error(t, err)
}

func TestCredentialStore_SealedReadsPlaintext(t *testing.T) {
	repo := memory.NewRepository()
	require.NoError(t, NewCredentialStore(repo, nil).Save("u1", LoginInfo{Username: "alice", Password: "secret"}))

	sealer, err := LoadSealer(repo, "pass")
	require.NoError(t, err)
	got, err := NewCredentialStore(repo, sealer).Load("u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}
