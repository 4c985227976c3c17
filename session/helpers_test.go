package session

import (
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/internal/util"
	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/storage/memory"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

func init() {
	// Keep Argon2id cheap in tests.
	sealParams = util.Argon2idParams{Time: 1, MemoryKiB: 1024, Parallelism: 1}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, srv *vrchattest.Server, repo storage.Repository, opts ...Option) *Manager {
	t.Helper()
	if repo == nil {
		repo = memory.NewRepository()
	}
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	m := NewManager(repo, srv.Config(), opts...)
	// Enumeration order is deterministic in tests unless a test overrides it.
	m.shuffle = func(ids []string) { slices.Sort(ids) }
	return m
}

func login(t *testing.T, m *Manager, sessionID, username, password string) {
	t.Helper()
	res, err := m.LoginViaPassword(t.Context(), sessionID, username, password)
	require.NoError(t, err)
	require.IsType(t, &Authenticated{}, res)
}
