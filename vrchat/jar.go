package vrchat

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const netscapeHeader = "# Netscape HTTP Cookie File"

// Jar is an http.CookieJar that can enumerate and bulk-load its cookies, so
// the session can be written to disk and restored later.
type Jar struct {
	mu      sync.Mutex
	entries map[string]*jarEntry
	now     func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

type jarEntry struct {
	name, value  string
	domain, path string
	hostOnly     bool
	secure       bool
	httpOnly     bool
	expires      time.Time // zero for session cookies
}

func (e *jarEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// NewJar returns an empty Jar.
func NewJar() *Jar {
	return &Jar{entries: make(map[string]*jarEntry), now: time.Now}
}

func entryKey(domain, p, name string) string {
	return domain + ";" + p + ";" + name
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host := strings.ToLower(u.Hostname())
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		e := &jarEntry{
			name:     c.Name,
			value:    c.Value,
			secure:   c.Secure,
			httpOnly: c.HttpOnly,
			path:     c.Path,
		}
		if c.Domain == "" {
			e.domain, e.hostOnly = host, true
		} else {
			d := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
			if host != d && !strings.HasSuffix(host, "."+d) {
				continue
			}
			e.domain = d
		}
		if e.path == "" || !strings.HasPrefix(e.path, "/") {
			e.path = defaultPath(u.Path)
		}
		key := entryKey(e.domain, e.path, e.name)
		switch {
		case c.MaxAge < 0:
			delete(j.entries, key)
			continue
		case c.MaxAge > 0:
			e.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			e.expires = c.Expires
		}
		if e.expired(now) {
			delete(j.entries, key)
			continue
		}
		j.entries[key] = e
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	host := strings.ToLower(u.Hostname())
	reqPath := u.Path
	if reqPath == "" {
		reqPath = "/"
	}
	https := u.Scheme == "https"
	now := j.now()

	j.mu.Lock()
	var matched []*jarEntry
	for key, e := range j.entries {
		if e.expired(now) {
			delete(j.entries, key)
			continue
		}
		if e.secure && !https {
			continue
		}
		if !domainMatch(host, e) || !pathMatch(reqPath, e.path) {
			continue
		}
		matched = append(matched, e)
	}
	j.mu.Unlock()

	sort.Slice(matched, func(a, b int) bool {
		if len(matched[a].path) != len(matched[b].path) {
			return len(matched[a].path) > len(matched[b].path)
		}
		return matched[a].name < matched[b].name
	})
	out := make([]*http.Cookie, 0, len(matched))
	for _, e := range matched {
		out = append(out, &http.Cookie{Name: e.name, Value: e.value})
	}
	return out
}

// All returns every unexpired cookie with its storage attributes. Domain
// cookies carry a leading dot, host-only cookies do not.
func (j *Jar) All() []*http.Cookie {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*http.Cookie, 0, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		domain := e.domain
		if !e.hostOnly {
			domain = "." + domain
		}
		out = append(out, &http.Cookie{
			Name:     e.name,
			Value:    e.value,
			Domain:   domain,
			Path:     e.path,
			Expires:  e.expires,
			Secure:   e.secure,
			HttpOnly: e.httpOnly,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		return entryKey(out[a].Domain, out[a].Path, out[a].Name) < entryKey(out[b].Domain, out[b].Path, out[b].Name)
	})
	return out
}

// Merge adds cookies returned by All or ReadNetscape, replacing entries with
// the same domain, path and name. Expired cookies are dropped.
func (j *Jar) Merge(cookies []*http.Cookie) {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if c.Domain == "" || c.Name == "" {
			continue
		}
		e := &jarEntry{
			name:     c.Name,
			value:    c.Value,
			domain:   strings.TrimPrefix(strings.ToLower(c.Domain), "."),
			hostOnly: !strings.HasPrefix(c.Domain, "."),
			path:     c.Path,
			secure:   c.Secure,
			httpOnly: c.HttpOnly,
			expires:  c.Expires,
		}
		if e.path == "" {
			e.path = "/"
		}
		if e.expired(now) {
			continue
		}
		j.entries[entryKey(e.domain, e.path, e.name)] = e
	}
}

// Len returns the number of stored cookies, expired ones included.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// WriteNetscape encodes the jar in the Netscape cookies.txt format used by
// curl and most browsers' export tools.
func (j *Jar) WriteNetscape(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, netscapeHeader)
	fmt.Fprintln(bw, "# This file was generated by vrchatbot. Edit at your own risk.")
	fmt.Fprintln(bw)
	for _, c := range j.All() {
		domain := c.Domain
		if c.HttpOnly {
			domain = "#HttpOnly_" + domain
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain,
			boolField(strings.HasPrefix(c.Domain, ".")),
			c.Path,
			boolField(c.Secure),
			expires,
			c.Name,
			c.Value,
		)
	}
	return bw.Flush()
}

// ReadNetscape parses a cookies.txt file. Comment and blank lines are
// skipped; a malformed line is an error.
func ReadNetscape(r io.Reader) ([]*http.Cookie, error) {
	var out []*http.Cookie
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			line, httpOnly = rest, true
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("cookie line %d: want 7 fields, got %d", lineNo, len(fields))
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cookie line %d: bad expiry: %w", lineNo, err)
		}
		domain := fields[0]
		if fields[1] == "TRUE" && !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}
		c := &http.Cookie{
			Domain:   domain,
			Path:     fields[2],
			Secure:   fields[3] == "TRUE",
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	dir := path.Dir(p)
	if dir == "." {
		return "/"
	}
	return dir
}

func domainMatch(host string, e *jarEntry) bool {
	if host == e.domain {
		return true
	}
	return !e.hostOnly && strings.HasSuffix(host, "."+e.domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
