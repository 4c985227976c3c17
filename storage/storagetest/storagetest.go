// Package storagetest holds the conformance suite every storage.Repository
// backend must pass.
package storagetest

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/storage"
)

// Repository is re-exported so backend tests only import this package.
type Repository = storage.Repository

// Run exercises a fresh repository returned by newRepo for each subtest.
func Run(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put("player", "json", "u1", []byte(`{"username":"alice"}`)))
		got, err := repo.Get("player", "json", "u1")
		require.NoError(t, err)
		assert.Equal(t, `{"username":"alice"}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put("player", "json", "u1", []byte("v1")))
		require.NoError(t, repo.Put("player", "json", "u1", []byte("v2")))
		got, err := repo.Get("player", "json", "u1")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(got))
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get("player", "json", "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = repo.Get("no-such-namespace", "json", "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("TypesAreIndependent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put("player", "json", "u1", []byte("creds")))
		require.NoError(t, repo.Put("player", "cookies", "u1", []byte("jar")))
		require.NoError(t, repo.Delete("player", "cookies", "u1"))

		got, err := repo.Get("player", "json", "u1")
		require.NoError(t, err)
		assert.Equal(t, "creds", string(got))
		_, err = repo.Get("player", "cookies", "u1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put("player", "cookies", "a", []byte("1")))
		require.NoError(t, repo.Put("player", "cookies", "b", []byte("2")))
		require.NoError(t, repo.Put("player", "json", "c", []byte("3")))
		require.NoError(t, repo.Put("settings", "cookies", "d", []byte("4")))

		ids, err := repo.List("player", "cookies")
		require.NoError(t, err)
		slices.Sort(ids)
		assert.Equal(t, []string{"a", "b"}, ids)

		ids, err = repo.List("empty", "cookies")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put("player", "json", "u1", []byte("x")))
		require.NoError(t, repo.Delete("player", "json", "u1"))
		_, err := repo.Get("player", "json", "u1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = repo.Delete("player", "json", "u1")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.Put("player", "json", "../escape", []byte("x")), storage.ErrInvalidKey)
		_, err := repo.Get("player", "json", "a/b")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
		assert.ErrorIs(t, repo.Delete("player", "json", ""), storage.ErrInvalidKey)
	})
}
