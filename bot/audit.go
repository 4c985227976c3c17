package bot

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent identifies a security-relevant action taken through the bot.
type AuditEvent string

const (
	AuditLoginSuccess     AuditEvent = "login_success"
	AuditLoginFailure     AuditEvent = "login_failure"
	AuditLoginRateLimited AuditEvent = "login_rate_limited"
	AuditTwoFactorPrompt  AuditEvent = "2fa_required"
	AuditTwoFactorFailure AuditEvent = "2fa_failure"
	AuditLogout           AuditEvent = "logout"
	AuditLoginRemoved     AuditEvent = "login_info_removed"
)

// auditLogger wraps slog.Logger for structured audit logging.
type auditLogger struct {
	logger *slog.Logger
	alerts *alertCollector
	now    func() time.Time
}

func newAuditLogger(logger *slog.Logger, alerts *alertCollector) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
		alerts: alerts,
		now:    time.Now,
	}
}

// log writes one audit entry for sessionID. Credentials never appear here;
// the username is the most that gets logged.
func (al *auditLogger) log(ctx context.Context, event AuditEvent, sessionID string, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("session", sessionID),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}
	base = append(base, attrs...)
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", base...)
	al.alerts.recordEvent(event)
}

// logFailure logs a failed attempt with its reason.
func (al *auditLogger) logFailure(ctx context.Context, event AuditEvent, sessionID, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{slog.String("reason", reason)}
	attrs = append(attrs, extra...)
	al.log(ctx, event, sessionID, attrs...)
}
