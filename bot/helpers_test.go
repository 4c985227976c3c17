package bot

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/session"
	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/storage/memory"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	bot      *Bot
	sessions *session.Manager
	repo     storage.Repository
	srv      *vrchattest.Server
}

func newHarness(t *testing.T, srv *vrchattest.Server, opts ...Option) *harness {
	t.Helper()
	repo := memory.NewRepository()
	logger := slog.New(slog.DiscardHandler)
	m := session.NewManager(repo, srv.Config(), session.WithLogger(logger))
	opts = append([]Option{WithLogger(logger)}, opts...)
	b := New(m, repo, opts...)
	t.Cleanup(b.Close)
	return &harness{bot: b, sessions: m, repo: repo, srv: srv}
}

// send delivers text from sessionID and returns the replies.
func (h *harness) send(t *testing.T, sessionID, text string) []string {
	t.Helper()
	replies, err := h.bot.Handle(t.Context(), Message{SessionID: sessionID, Text: text})
	require.NoError(t, err)
	return replies
}

// login logs sessionID in through the chat flow.
func (h *harness) login(t *testing.T, sessionID, username, password string) {
	t.Helper()
	replies := h.send(t, sessionID, "vrcl "+username+" "+password)
	require.Equal(t, []string{"Logged in as " + username + "."}, replies)
}
