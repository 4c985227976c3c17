package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/jmcleod/vrchatbot/internal/util"
	"github.com/jmcleod/vrchatbot/session"
	"github.com/jmcleod/vrchatbot/vrchat"
)

// cmdLogin logs in with the credentials given as arguments, the stored ones,
// or asks for them.
func (b *Bot) cmdLogin(ctx context.Context, r *request, args string) ([]string, step) {
	cached, err := b.sessions.Credentials().Load(r.sessionID)
	hasCached := err == nil
	if err != nil && !errors.Is(err, session.ErrNotLoggedIn) {
		b.logger.Warn("loading login info failed", "session", r.sessionID, "error", err)
	}

	if args != "" {
		var out []string
		if hasCached {
			out = append(out, r.t("overwrite_login_info"))
		}
		replies, next := b.submitCredentials(ctx, r, args)
		return append(out, replies...), next
	}
	if hasCached {
		replies, next := b.attemptLogin(ctx, r, cached.Username, cached.Password)
		return append([]string{r.t("use_cached_login_info")}, replies...), next
	}
	return []string{r.t("send_login_info")}, b.credentialsStep
}

func (b *Bot) credentialsStep(ctx context.Context, r *request, text string) ([]string, step) {
	if util.NormalizeInput(text) == "0" {
		return []string{r.t("discard_login")}, nil
	}
	return b.submitCredentials(ctx, r, text)
}

// submitCredentials expects exactly "username password", separated by any
// run of whitespace. The password itself is passed through unchanged.
func (b *Bot) submitCredentials(ctx context.Context, r *request, text string) ([]string, step) {
	parts := strings.FieldsFunc(text, unicode.IsSpace)
	if len(parts) != 2 {
		return []string{r.t("invalid_info_format")}, b.credentialsStep
	}
	return b.attemptLogin(ctx, r, parts[0], parts[1])
}

func (b *Bot) attemptLogin(ctx context.Context, r *request, username, password string) ([]string, step) {
	if blocked, wait := b.limiter.check(r.sessionID); blocked {
		b.audit.logFailure(ctx, AuditLoginRateLimited, r.sessionID, "too many failures")
		return []string{r.t("locked_out", retrySeconds(wait))}, nil
	}

	res, err := b.sessions.LoginViaPassword(ctx, r.sessionID, username, password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		b.limiter.recordFailure(r.sessionID)
		b.audit.logFailure(ctx, AuditLoginFailure, r.sessionID, "invalid credentials", slog.String("username", username))
		return []string{r.t("invalid_account")}, b.credentialsStep
	case errors.Is(err, session.ErrUnknownChallenge):
		b.audit.logFailure(ctx, AuditLoginFailure, r.sessionID, "unsupported second factor", slog.String("username", username))
		b.removeLoginInfo(ctx, r)
		return []string{r.t("unsupported_2fa")}, nil
	case err != nil:
		return []string{b.handleError(ctx, r, err)}, nil
	}

	switch res := res.(type) {
	case *session.Authenticated:
		return []string{b.loggedIn(ctx, r, res.User)}, nil
	case *session.Challenge:
		b.audit.log(ctx, AuditTwoFactorPrompt, r.sessionID, slog.String("kind", string(res.Kind)))
		key := "send_totp_code"
		if res.Kind == session.ChallengeEmail {
			key = "send_email_code"
		}
		return []string{r.t(key, int(b.expire.Seconds()))}, b.codeStep(res)
	default:
		return []string{b.handleError(ctx, r, fmt.Errorf("unexpected login result %T", res))}, nil
	}
}

// codeStep waits for the second-factor code. Wrong codes re-prompt with the
// challenge still open.
func (b *Bot) codeStep(ch *session.Challenge) step {
	var s step
	s = func(ctx context.Context, r *request, text string) ([]string, step) {
		code := util.NormalizeInput(text)
		if code == "0" {
			return []string{r.t("discard_login")}, nil
		}
		if !util.IsDigits(code) {
			return []string{r.t("invalid_2fa_format")}, s
		}
		user, err := ch.Verify(ctx, code)
		switch {
		case errors.Is(err, session.ErrInvalidCode):
			b.limiter.recordFailure(r.sessionID)
			b.audit.logFailure(ctx, AuditTwoFactorFailure, r.sessionID, "invalid code", slog.String("kind", string(ch.Kind)))
			if blocked, wait := b.limiter.check(r.sessionID); blocked {
				return []string{r.t("locked_out", retrySeconds(wait))}, nil
			}
			return []string{r.t("invalid_2fa_code")}, s
		case errors.Is(err, session.ErrChallengeClosed):
			return []string{r.t("discard_login")}, nil
		case err != nil:
			return []string{b.handleError(ctx, r, err)}, nil
		}
		return []string{b.loggedIn(ctx, r, user)}, nil
	}
	return s
}

func (b *Bot) loggedIn(ctx context.Context, r *request, user *vrchat.CurrentUser) string {
	b.limiter.recordSuccess(r.sessionID)
	b.audit.log(ctx, AuditLoginSuccess, r.sessionID, slog.String("user_id", user.ID))
	return r.t("logged_in", user.DisplayName)
}

func (b *Bot) removeLoginInfo(ctx context.Context, r *request) {
	if err := b.sessions.RemoveLoginInfo(r.sessionID); err != nil {
		b.logger.Warn("removing login info failed", "session", r.sessionID, "error", err)
		return
	}
	b.audit.log(ctx, AuditLoginRemoved, r.sessionID)
}

// cmdLogout ends the upstream session when there is one and forgets the
// stored login either way.
func (b *Bot) cmdLogout(ctx context.Context, r *request, _ string) ([]string, step) {
	c, err := b.ownClient(r)
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return []string{r.t("not_logged_in")}, nil
	case err != nil:
		b.logger.Warn("building client for logout failed", "session", r.sessionID, "error", err)
	default:
		if err := c.Logout(ctx); err != nil {
			b.logger.Info("upstream logout failed", "session", r.sessionID, "error", err)
		}
	}
	if err := b.sessions.RemoveLoginInfo(r.sessionID); err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	b.audit.log(ctx, AuditLogout, r.sessionID)
	return []string{r.t("logged_out")}, nil
}
