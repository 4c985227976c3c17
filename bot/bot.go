// Package bot turns chat messages into VRChat session operations. Each chat
// session sends text through Handle; commands start a conversation and
// follow-up messages answer its prompts until it ends or expires.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/message"

	"github.com/jmcleod/vrchatbot/internal/metrics"
	"github.com/jmcleod/vrchatbot/internal/util"
	"github.com/jmcleod/vrchatbot/session"
	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/vrchat"
)

const (
	// DefaultExpireTimeout is how long a pending prompt waits for an answer.
	DefaultExpireTimeout = 2 * time.Minute
	defaultSweepInterval = time.Minute
)

// ErrEmptySession is returned for messages without a session id.
var ErrEmptySession = errors.New("message has no session id")

// Message is one chat message addressed to the bot.
type Message struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// handler runs a command with the text following its name.
type handler func(ctx context.Context, r *request, args string) ([]string, step)

type command struct {
	name string
	run  handler
}

// request is the per-message context handed to commands and steps.
type request struct {
	sessionID string
	locale    Locale
	p         *message.Printer
}

func (r *request) t(key string, args ...any) string {
	return r.p.Sprintf(key, args...)
}

// Bot dispatches chat messages.
type Bot struct {
	sessions *session.Manager
	locales  *localeStore
	convs    *conversationStore
	limiter  *loginLimiter
	audit    *auditLogger
	logger   *slog.Logger
	metrics  *metrics.Collector
	commands map[string]command

	expire        time.Duration
	sweepInterval time.Duration
	alertFn       AlertFunc

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithMetrics counts handled commands.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Bot) { b.metrics = c }
}

// WithExpireTimeout sets how long a pending prompt stays open.
func WithExpireTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.expire = d
		}
	}
}

// WithDefaultLocale sets the language used for sessions that never chose one.
// Unknown codes are ignored.
func WithDefaultLocale(code string) Option {
	return func(b *Bot) {
		if l, ok := LookupLocale(code); ok {
			b.locales.fallback = l
		}
	}
}

// WithAlertFunc is called when login or 2FA failures spike across sessions.
func WithAlertFunc(fn AlertFunc) Option {
	return func(b *Bot) { b.alertFn = fn }
}

// WithSweepInterval sets how often expired conversations are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.sweepInterval = d
		}
	}
}

// New creates a Bot over the session manager. repo stores per-session
// settings. Close must be called to stop the background sweeper.
func New(sessions *session.Manager, repo storage.Repository, opts ...Option) *Bot {
	b := &Bot{
		sessions:      sessions,
		locales:       &localeStore{repo: repo, fallback: Locales[0]},
		convs:         newConversationStore(),
		limiter:       newLoginLimiter(),
		expire:        DefaultExpireTimeout,
		sweepInterval: defaultSweepInterval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "bot")
	b.audit = newAuditLogger(b.logger, newAlertCollector(b.alertFn))
	b.registerCommands()
	go b.sweepLoop()
	return b
}

// Close stops the background sweeper.
func (b *Bot) Close() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		<-b.done
	})
}

func (b *Bot) registerCommands() {
	b.commands = make(map[string]command)
	add := func(name string, run handler, aliases ...string) {
		for _, a := range aliases {
			b.commands[a] = command{name: name, run: run}
		}
	}
	add("login", b.cmdLogin, "vrcl", "vrc登录")
	add("logout", b.cmdLogout, "vrclogout", "vrc登出")
	add("search_user", searchCommand(b, userSearch), "vrcsu", "vrcus", "vrc搜索用户")
	add("search_world", searchCommand(b, worldSearch), "vrcsw", "vrcws", "vrc搜索世界")
	add("search_group", searchCommand(b, groupSearch), "vrcsg", "vrc搜索群组")
	add("friends", b.cmdFriends, "vrcfl", "vrcrq", "vrc好友列表")
	add("notifications", b.cmdNotifications, "vrcsn", "vrc显示通知")
	add("balance", b.cmdBalance, "vrcbalance", "vrc余额")
	add("locale", b.cmdLocale, "vrccl", "vrc切换语言")
	add("help", b.cmdHelp, "vrchelp", "vrc帮助")
}

// Handle processes one message and returns the replies to send back. A
// message that is neither a command nor an answer to a pending prompt gets
// no replies. Upstream and storage failures become replies; the returned
// error is reserved for bad input and cancellation.
func (b *Bot) Handle(ctx context.Context, msg Message) ([]string, error) {
	if msg.SessionID == "" {
		return nil, ErrEmptySession
	}
	l, err := b.locales.get(msg.SessionID)
	if err != nil {
		b.logger.Warn("loading locale failed", "session", msg.SessionID, "error", err)
	}
	r := &request{sessionID: msg.SessionID, locale: l, p: newPrinter(l)}
	text := strings.TrimSpace(msg.Text)

	var (
		replies []string
		next    step
	)
	if cmd, args, ok := b.parse(text); ok {
		b.convs.delete(msg.SessionID)
		b.metrics.RecordCommand(cmd.name)
		b.logger.Debug("command", "session", msg.SessionID, "command", cmd.name)
		replies, next = cmd.run(ctx, r, args)
	} else if pending, ok := b.convs.take(msg.SessionID); ok {
		replies, next = pending(ctx, r, text)
	} else {
		return nil, nil
	}
	if next != nil {
		b.convs.put(msg.SessionID, next, b.expire)
	}
	if err := ctx.Err(); err != nil {
		return replies, err
	}
	return replies, nil
}

// parse splits text into a known command and its arguments. An optional
// leading slash is accepted.
func (b *Bot) parse(text string) (command, string, bool) {
	name, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], text[i:]
	}
	name = strings.ToLower(util.NormalizeInput(strings.TrimPrefix(name, "/")))
	cmd, ok := b.commands[name]
	if !ok {
		return command{}, "", false
	}
	return cmd, strings.TrimSpace(args), true
}

func (b *Bot) sweepLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.convs.sweepExpired()
			b.limiter.sweep()
		}
	}
}

// handleError turns a failed operation into a reply.
func (b *Bot) handleError(ctx context.Context, r *request, err error) string {
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return r.t("not_logged_in")
	case errors.Is(err, vrchat.ErrUnauthorized):
		b.logger.WarnContext(ctx, "upstream rejected session", "session", r.sessionID, "error", err)
		return r.t("login_expired")
	}
	if apiErr, ok := errors.AsType[*vrchat.APIError](err); ok {
		b.logger.ErrorContext(ctx, "upstream error", "session", r.sessionID, "status", apiErr.Status, "reason", apiErr.Reason)
		return r.t("server_error", apiErr.Status, apiErr.Reason)
	}
	b.logger.ErrorContext(ctx, "command failed", "session", r.sessionID, "error", err)
	return r.t("unknown_error")
}

// ownClient returns the session's own client, for commands that only make
// sense for the caller's account.
func (b *Bot) ownClient(r *request) (*vrchat.Client, error) {
	return b.sessions.GetClient(r.sessionID)
}

// saveCookies writes back the cookies of the session's own client after an
// upstream call may have refreshed them.
func (b *Bot) saveCookies(r *request, c *vrchat.Client) {
	if err := b.sessions.SaveCookies(r.sessionID, c); err != nil {
		b.logger.Warn("saving cookies failed", "session", r.sessionID, "error", err)
	}
}

// withBorrowedNote appends the borrowed-session note when needed.
func withBorrowedNote(r *request, borrowed bool, replies []string) []string {
	if borrowed {
		return append(replies, r.t("borrowed_session"))
	}
	return replies
}
