package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/jmcleod/vrchatbot/vrchat"
)

// ChallengeKind is the second factor the upstream asked for.
type ChallengeKind string

const (
	ChallengeEmail         ChallengeKind = "email"
	ChallengeAuthenticator ChallengeKind = "authenticator"
)

// LoginResult is either *Authenticated or *Challenge.
type LoginResult interface {
	loginResult()
}

// Authenticated is a completed login.
type Authenticated struct {
	User *vrchat.CurrentUser
}

func (*Authenticated) loginResult() {}

// Challenge is a pending second-factor verification. It lives only as long
// as the conversation holding it and is never persisted.
type Challenge struct {
	Kind      ChallengeKind
	SessionID string

	mu     sync.Mutex
	closed bool
	verify func(ctx context.Context, code string) (*vrchat.CurrentUser, error)
}

func (*Challenge) loginResult() {}

// Verify submits code. ErrInvalidCode leaves the challenge open for another
// attempt; success or any other error closes it.
func (c *Challenge) Verify(ctx context.Context, code string) (*vrchat.CurrentUser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrChallengeClosed
	}
	user, err := c.verify(ctx, code)
	if errors.Is(err, ErrInvalidCode) {
		return nil, err
	}
	c.closed = true
	return user, err
}

// Closed reports whether the challenge can no longer be used.
func (c *Challenge) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// challengeKind reads the 2FA reason text. The email check has to come
// first since both texts contain "2 Factor Authentication".
func challengeKind(reason string) (ChallengeKind, error) {
	switch {
	case strings.Contains(reason, "Email 2 Factor Authentication"):
		return ChallengeEmail, nil
	case strings.Contains(reason, "2 Factor Authentication"):
		return ChallengeAuthenticator, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChallenge, reason)
	}
}

// LoginViaPassword logs sessionID in with username/password.
//
// The result is *Authenticated when no second factor is needed, in which
// case credentials and cookies have been stored. It is a *Challenge when a
// code is required. A rejected password returns ErrInvalidCredentials after
// removing the session's stored records; any other upstream failure is
// returned as is and leaves stored state alone.
func (m *Manager) LoginViaPassword(ctx context.Context, sessionID, username, password string) (LoginResult, error) {
	info := LoginInfo{Username: username, Password: password}
	c, err := m.factory.Client(sessionID, &info)
	if err != nil {
		return nil, err
	}

	user, err := c.CurrentUser(ctx)
	if err == nil {
		if err := m.persist(sessionID, info, c); err != nil {
			return nil, err
		}
		m.metrics.RecordLogin("success")
		m.logger.Info("logged in", "session", sessionID, "user", user.ID)
		return &Authenticated{User: user}, nil
	}

	apiErr, ok := errors.AsType[*vrchat.APIError](err)
	if !ok {
		m.metrics.RecordLogin("error")
		return nil, err
	}
	if apiErr.Status != http.StatusOK {
		if apiErr.Status == http.StatusUnauthorized {
			m.metrics.RecordLogin("invalid_credentials")
			if rmErr := m.RemoveLoginInfo(sessionID); rmErr != nil {
				m.logger.Warn("removing login info failed", "session", sessionID, "error", rmErr)
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		m.metrics.RecordLogin("error")
		return nil, err
	}

	kind, err := challengeKind(apiErr.Reason)
	if err != nil {
		m.metrics.RecordLogin("unknown_challenge")
		return nil, err
	}
	m.metrics.RecordLogin("two_factor")
	m.logger.Info("verification required", "session", sessionID, "kind", kind)
	return &Challenge{
		Kind:      kind,
		SessionID: sessionID,
		verify:    m.verifier(sessionID, info, c, kind),
	}, nil
}

func (m *Manager) verifier(sessionID string, info LoginInfo, c *vrchat.Client, kind ChallengeKind) func(context.Context, string) (*vrchat.CurrentUser, error) {
	return func(ctx context.Context, code string) (*vrchat.CurrentUser, error) {
		var err error
		if kind == ChallengeEmail {
			err = c.VerifyEmailCode(ctx, code)
		} else {
			err = c.VerifyTOTPCode(ctx, code)
		}
		if err != nil {
			if errors.Is(err, vrchat.ErrCodeRejected) || errors.Is(err, vrchat.ErrUnauthorized) {
				m.metrics.RecordLogin("invalid_code")
				return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
			}
			m.metrics.RecordLogin("error")
			return nil, err
		}

		user, err := c.CurrentUser(ctx)
		if err != nil {
			if apiErr, ok := errors.AsType[*vrchat.APIError](err); ok && apiErr.TwoFactorRequired() {
				m.metrics.RecordLogin("invalid_code")
				return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
			}
			m.metrics.RecordLogin("error")
			return nil, err
		}
		if err := m.persist(sessionID, info, c); err != nil {
			return nil, err
		}
		m.metrics.RecordLogin("success")
		m.logger.Info("logged in", "session", sessionID, "user", user.ID, "kind", kind)
		return user, nil
	}
}
