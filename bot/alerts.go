package bot

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertLoginFailureSpike     AlertType = "login_failure_spike"
	AlertTwoFactorFailureSpike AlertType = "2fa_failure_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

const (
	defaultAlertWindow    = time.Minute
	defaultAlertThreshold = 20
)

// alertCollector keeps sliding windows of failures across all sessions.
type alertCollector struct {
	mu sync.Mutex

	window    time.Duration
	threshold int
	windows   map[AlertType][]time.Time

	alertFn AlertFunc
	now     func() time.Time
}

func newAlertCollector(alertFn AlertFunc) *alertCollector {
	return &alertCollector{
		window:    defaultAlertWindow,
		threshold: defaultAlertThreshold,
		windows:   make(map[AlertType][]time.Time),
		alertFn:   alertFn,
		now:       time.Now,
	}
}

func (a *alertCollector) recordEvent(event AuditEvent) {
	if a == nil || a.alertFn == nil {
		return
	}
	switch event {
	case AuditLoginFailure:
		a.record(AlertLoginFailureSpike, "login failure rate exceeds threshold")
	case AuditTwoFactorFailure:
		a.record(AlertTwoFactorFailureSpike, "2fa failure rate exceeds threshold")
	}
}

func (a *alertCollector) record(typ AlertType, msg string) {
	a.mu.Lock()
	now := a.now()
	times := trimWindow(append(a.windows[typ], now), now, a.window)
	var fire *AlertEvent
	if len(times) >= a.threshold {
		fire = &AlertEvent{
			Type:      typ,
			Message:   msg,
			Count:     len(times),
			Threshold: a.threshold,
			Timestamp: now,
		}
		// Reset so one spike alerts once.
		times = times[:0]
	}
	a.windows[typ] = times
	a.mu.Unlock()

	if fire != nil {
		a.alertFn(*fire)
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
