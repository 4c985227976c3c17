package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	webhookQueueSize  = 256
	webhookTimeout    = 10 * time.Second
	webhookRetryDelay = time.Second
	webhookUserAgent  = "vrchatbot-alert-webhook/1.0"
)

// AlertWebhook POSTs alert events as JSON to an external endpoint. Notify
// never blocks: events go through a bounded queue and are dropped when it
// is full. Each event is retried once on a 5xx or transport error.
type AlertWebhook struct {
	url        string
	header     string
	client     *http.Client
	logger     *slog.Logger
	retryDelay time.Duration

	events    chan AlertEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAlertWebhook starts a dispatcher for url. header, when set, is sent
// with every request in "Name: value" form.
func NewAlertWebhook(url, header string, logger *slog.Logger) *AlertWebhook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &AlertWebhook{
		url:        url,
		header:     header,
		client:     &http.Client{Timeout: webhookTimeout},
		logger:     logger.With("component", "alert_webhook"),
		retryDelay: webhookRetryDelay,
		events:     make(chan AlertEvent, webhookQueueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Notify queues e for delivery. It has the AlertFunc signature.
func (w *AlertWebhook) Notify(e AlertEvent) {
	select {
	case w.events <- e:
	default:
		w.logger.Warn("queue full, dropping alert", "type", e.Type)
	}
}

// Close delivers what is queued and stops the dispatcher. Notify must not
// be called after Close.
func (w *AlertWebhook) Close() {
	w.closeOnce.Do(func() {
		close(w.events)
		w.wg.Wait()
	})
}

func (w *AlertWebhook) loop() {
	defer w.wg.Done()
	for e := range w.events {
		w.send(e)
	}
}

func (w *AlertWebhook) send(e AlertEvent) {
	body, err := json.Marshal(e)
	if err != nil {
		w.logger.Warn("marshal failed", "error", err)
		return
	}

	for attempt := range 2 {
		if attempt > 0 {
			time.Sleep(w.retryDelay)
		}

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			w.logger.Warn("request creation failed", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", webhookUserAgent)
		if name, value, ok := strings.Cut(w.header, ":"); ok {
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		resp, err := w.client.Do(req)
		if err != nil {
			w.logger.Warn("request failed", "error", err, "attempt", attempt+1)
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return
		case resp.StatusCode >= 500:
			w.logger.Warn("server error", "status", resp.StatusCode, "attempt", attempt+1)
			continue
		default:
			w.logger.Warn("client error", "status", resp.StatusCode)
			return
		}
	}
}
