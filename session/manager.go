// Package session manages per-session VRChat logins: stored credentials and
// cookies, building authenticated clients, checking that a stored session is
// still usable, borrowing another session's client and the password/2FA
// login flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/jmcleod/vrchatbot/internal/metrics"
	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/vrchat"
)

// Manager is the entry point used by the command layer.
type Manager struct {
	creds   *CredentialStore
	cookies *CookieStore
	factory *Factory
	prober  *Prober
	last    *LastUsable
	locks   *keyLock
	logger  *slog.Logger
	metrics *metrics.Collector

	pruneStale bool
	shuffle    func([]string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics records probe and login outcomes.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithSealer seals credential records at rest.
func WithSealer(s *Sealer) Option {
	return func(m *Manager) { m.creds.sealer = s }
}

// WithProber replaces the default Prober.
func WithProber(p *Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithLastUsable shares a LastUsable cache, e.g. one a test can reset.
func WithLastUsable(l *LastUsable) Option {
	return func(m *Manager) { m.last = l }
}

// WithPruneStaleCookies makes RandomClient delete the cookies of sessions
// that probe as unauthorized.
func WithPruneStaleCookies(prune bool) Option {
	return func(m *Manager) { m.pruneStale = prune }
}

// NewManager wires the stores over repo and builds clients from api.
func NewManager(repo storage.Repository, api vrchat.Config, opts ...Option) *Manager {
	m := &Manager{
		creds:   NewCredentialStore(repo, nil),
		cookies: NewCookieStore(repo),
		last:    &LastUsable{},
		locks:   newKeyLock(),
		shuffle: func(ids []string) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "session")
	if m.prober == nil {
		m.prober = NewProber(DefaultProbeTTL, m.metrics)
	}
	m.factory = NewFactory(api, m.creds, m.cookies)
	return m
}

// Credentials exposes the credential store.
func (m *Manager) Credentials() *CredentialStore { return m.creds }

// Cookies exposes the cookie store.
func (m *Manager) Cookies() *CookieStore { return m.cookies }

// Prober exposes the usability prober.
func (m *Manager) Prober() *Prober { return m.prober }

// Sessions returns the ids of every session with stored credentials.
func (m *Manager) Sessions() ([]string, error) {
	return m.creds.List()
}

// GetClient builds a client for the session's own stored login.
func (m *Manager) GetClient(sessionID string) (*vrchat.Client, error) {
	return m.factory.Client(sessionID, nil)
}

// RandomClient returns a usable client from any stored session.
func (m *Manager) RandomClient(ctx context.Context) (*vrchat.Client, error) {
	_, c, err := m.randomClient(ctx)
	return c, err
}

func (m *Manager) randomClient(ctx context.Context) (string, *vrchat.Client, error) {
	if id, c, ok := m.last.Get(); ok {
		usable, err := m.prober.Usable(ctx, c)
		if err == nil && usable {
			return id, c, nil
		}
		if err != nil {
			m.logger.Warn("probing cached client failed", "session", id, "error", err)
		}
		m.last.invalidate(c)
	}

	ids, err := m.cookies.List()
	if err != nil {
		return "", nil, fmt.Errorf("listing cookies: %w", err)
	}
	m.shuffle(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		c, err := m.factory.Client(id, nil)
		switch {
		case errors.Is(err, ErrNotLoggedIn):
			m.logger.Warn("cookies without login info", "session", id)
			continue
		case errors.Is(err, ErrCorruptRecord):
			m.logger.Warn("skipping session", "session", id, "error", err)
			m.pruneCookies(id)
			continue
		case err != nil:
			m.logger.Warn("building client failed", "session", id, "error", err)
			continue
		}

		usable, err := m.prober.Usable(ctx, c)
		if err != nil {
			m.logger.Warn("probing session failed", "session", id, "error", err)
			continue
		}
		if !usable {
			m.logger.Info("session no longer authorized", "session", id)
			m.pruneCookies(id)
			continue
		}
		m.last.Set(id, c)
		return id, c, nil
	}
	return "", nil, ErrNotLoggedIn
}

func (m *Manager) pruneCookies(sessionID string) {
	if !m.pruneStale {
		return
	}
	unlock := m.locks.lock(sessionID)
	defer unlock()
	if err := m.cookies.Remove(sessionID); err != nil {
		m.logger.Warn("pruning cookies failed", "session", sessionID, "error", err)
	}
}

// GetOrRandomClient returns the session's own client, or a borrowed one
// when the session has no login. borrowed reports which.
func (m *Manager) GetOrRandomClient(ctx context.Context, sessionID string) (c *vrchat.Client, borrowed bool, err error) {
	c, err = m.GetClient(sessionID)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNotLoggedIn) {
		return nil, false, err
	}
	c, err = m.RandomClient(ctx)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// SaveCookies writes c's current cookies for sessionID, e.g. after an
// upstream call refreshed them.
func (m *Manager) SaveCookies(sessionID string, c *vrchat.Client) error {
	unlock := m.locks.lock(sessionID)
	defer unlock()
	return m.cookies.Save(sessionID, c)
}

// RemoveLoginInfo deletes the session's credentials and cookies.
func (m *Manager) RemoveLoginInfo(sessionID string) error {
	unlock := m.locks.lock(sessionID)
	defer unlock()
	m.last.invalidateSession(sessionID)
	return errors.Join(m.creds.Remove(sessionID), m.cookies.Remove(sessionID))
}

// persist writes credentials and cookies after a successful login.
func (m *Manager) persist(sessionID string, info LoginInfo, c *vrchat.Client) error {
	unlock := m.locks.lock(sessionID)
	defer unlock()
	if err := m.creds.Save(sessionID, info); err != nil {
		return err
	}
	return m.cookies.Save(sessionID, c)
}
