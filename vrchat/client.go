// Package vrchat is a small client for the VRChat web API covering the
// calls the bot needs: authentication and two-factor verification, friends,
// user/world/group search, notifications and economy balance.
package vrchat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.vrchat.cloud/api/1"
	DefaultUserAgent = "vrchatbot/1.0 (+https://github.com/jmcleod/vrchatbot)"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 64 << 10
)

// Observer receives one call per upstream request. route is the request path
// template (e.g. "/users/{id}") so label cardinality stays bounded.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Config holds the settings shared by every Client built from it.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Limiter, when set, throttles requests across all clients of this Config.
	Limiter   *rate.Limiter
	Transport http.RoundTripper
	Logger    *slog.Logger
	Observer  Observer
}

// Client talks to the API on behalf of one account. Its cookie jar holds the
// authenticated web session; the password is only used by CurrentUser when
// the cookies are missing or rejected.
type Client struct {
	cfg      Config
	baseURL  *url.URL
	username string
	password string
	jar      *Jar
	http     *http.Client
	logger   *slog.Logger
}

// New builds a Client bound to username/password with an empty cookie jar.
// No request is made.
func (cfg Config) New(username, password string) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jar := NewJar()
	return &Client{
		cfg:      cfg,
		baseURL:  u,
		username: username,
		password: password,
		jar:      jar,
		http: &http.Client{
			Transport: cfg.Transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		logger: logger.With("component", "vrchat"),
	}, nil
}

// Username returns the account name the client was built with.
func (c *Client) Username() string { return c.username }

// Jar returns the client's cookie jar.
func (c *Client) Jar() *Jar { return c.jar }

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() *url.URL { return c.baseURL }

type request struct {
	method string
	route  string // path template for metrics
	path   string
	query  url.Values
	body   any
	basic  bool
}

// do performs r and returns the raw success body. Error answers are turned
// into *APIError.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// r.path is already escaped.
	target := c.baseURL.String() + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.basic && c.username != "" {
		req.Header.Set("Authorization", basicAuth(c.username, c.password))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(r, 0, start)
		return nil, fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}
	defer resp.Body.Close()
	c.observe(r, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Status: resp.StatusCode,
			Reason: errorReason(resp, data),
			Body:   data,
		}
		c.logger.Debug("upstream error", "method", r.method, "route", r.route, "status", apiErr.Status, "reason", apiErr.Reason)
		return nil, apiErr
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, r request, out any) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", r.route, err)
	}
	return nil
}

func (c *Client) observe(r request, status int, start time.Time) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveRequest(r.method, r.route, status, time.Since(start))
	}
}

// basicAuth encodes credentials the way the API expects: each part is URL
// escaped before the usual base64 user:pass encoding.
func basicAuth(username, password string) string {
	raw := url.QueryEscape(username) + ":" + url.QueryEscape(password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// errorReason extracts {"error":{"message":...}} from an error body, falling
// back to the HTTP status text.
func errorReason(resp *http.Response, body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return strings.Trim(payload.Error.Message, `"`)
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func pageQuery(n, offset int) url.Values {
	q := url.Values{}
	if n > 0 {
		q.Set("n", fmt.Sprint(n))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}
