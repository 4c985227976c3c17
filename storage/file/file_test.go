package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/storage/storagetest"
)

func TestFileRepository(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Repository {
		s, err := NewRepository(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewRepository(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put("player", "json", "u1", []byte(`{"username":"alice","password":"secret"}`)))
	require.NoError(t, s.Put("player", "cookies", "u1", []byte("# Netscape HTTP Cookie File\n")))

	data, err := os.ReadFile(filepath.Join(dir, "player", "u1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","password":"secret"}`, string(data))
	assert.FileExists(t, filepath.Join(dir, "player", "u1.cookies"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "player", "u1.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestFileListIgnoresStrays(t *testing.T) {
	dir := t.TempDir()
	s, err := NewRepository(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("player", "cookies", "u1", []byte("x")))

	// Leftover temp file, a subdirectory and an unrelated file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player", ".vrchatbot-123"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "player", "sub.cookies"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player", "notes.txt"), []byte("x"), 0o600))
	// Names whose id could never be read back.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player", "..cookies"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player", ".cookies"), []byte("x"), 0o600))

	ids, err := s.List("player", "cookies")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}
