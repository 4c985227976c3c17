// Package vrchattest provides an in-process fake of the VRChat API for tests.
package vrchattest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmcleod/vrchatbot/vrchat"
)

// AuthCookie is the name of the session cookie the server issues.
const AuthCookie = "auth"

// TwoFactor selects the second factor an account requires.
type TwoFactor int

const (
	TwoFactorNone TwoFactor = iota
	TwoFactorEmail
	TwoFactorTOTP
	// TwoFactorUnsupported demands a method the client does not implement.
	TwoFactorUnsupported
)

// Account is a user the server accepts logins for.
type Account struct {
	Username  string
	Password  string
	UserID    string
	TwoFactor TwoFactor
	// Code is the accepted verification code.
	Code          string
	Friends       []vrchat.LimitedUser
	Notifications []vrchat.Notification
	Balance       int
}

type token struct {
	username string
	verified bool
}

// Server is a fake upstream. All state is guarded by mu.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*Account
	tokens   map[string]*token
	requests map[string]int

	Users  []vrchat.LimitedUser
	Worlds []vrchat.LimitedWorld
	Groups []vrchat.LimitedGroup
}

// New starts a Server and registers its shutdown with t.Cleanup.
func New(t testing.TB, accounts ...Account) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]*token),
		requests: make(map[string]int),
	}
	for _, a := range accounts {
		s.AddAccount(a)
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to put in vrchat.Config.
func (s *Server) BaseURL() string { return s.URL + "/api/1" }

// Config returns a client config pointed at the server.
func (s *Server) Config() vrchat.Config {
	return vrchat.Config{BaseURL: s.BaseURL(), UserAgent: "vrchattest"}
}

// AddAccount registers or replaces an account.
func (s *Server) AddAccount(a Account) {
	if a.UserID == "" {
		a.UserID = "usr_" + uuid.NewString()
	}
	s.mu.Lock()
	s.accounts[a.Username] = &a
	s.mu.Unlock()
}

// Revoke invalidates every session token issued for username.
func (s *Server) Revoke(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, tok := range s.tokens {
		if tok.username == username {
			delete(s.tokens, k)
		}
	}
}

// SetPassword changes an account's password without revoking its sessions.
func (s *Server) SetPassword(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[username]; ok {
		a.Password = password
	}
}

// Requests returns how many requests hit path (relative to the API root,
// e.g. "/auth/user/friends").
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// ResetRequests zeroes all request counters.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	clear(s.requests)
	s.mu.Unlock()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)
	r.Route("/api/1", func(r chi.Router) {
		r.Get("/auth/user", s.handleCurrentUser)
		r.Post("/auth/twofactorauth/emailotp/verify", s.handleVerify(TwoFactorEmail))
		r.Post("/auth/twofactorauth/totp/verify", s.handleVerify(TwoFactorTOTP))
		r.Put("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/auth/user/friends", s.handleFriends)
			r.Get("/auth/user/notifications", s.handleNotifications)
			r.Get("/users", s.handleSearchUsers)
			r.Get("/users/{id}", s.handleGetUser)
			r.Get("/worlds", s.handleSearchWorlds)
			r.Get("/worlds/{id}", s.handleGetWorld)
			r.Get("/groups", s.handleSearchGroups)
			r.Get("/groups/{id}", s.handleGetGroup)
			r.Get("/user/{id}/balance", s.handleBalance)
		})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[strings.TrimPrefix(r.URL.Path, "/api/1")]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, tok := s.session(r)
		if acct == nil || !tok.verified {
			writeError(w, http.StatusUnauthorized, `"Missing Credentials"`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session resolves the auth cookie. The token is nil when absent or revoked.
func (s *Server) session(r *http.Request) (*Account, *token) {
	c, err := r.Cookie(AuthCookie)
	if err != nil {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[c.Value]
	if !ok {
		return nil, nil
	}
	return s.accounts[tok.username], tok
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if acct, tok := s.session(r); acct != nil {
		if tok.verified {
			writeJSON(w, http.StatusOK, currentUser(acct))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"requiresTwoFactorAuth": methods(acct.TwoFactor)})
		return
	}

	username, password, ok := parseBasic(r.Header.Get("Authorization"))
	if !ok {
		writeError(w, http.StatusUnauthorized, `"Missing Credentials"`)
		return
	}
	s.mu.Lock()
	acct, exists := s.accounts[username]
	if !exists || acct.Password != password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, `"Invalid Username/Email or Password"`)
		return
	}
	value := uuid.NewString()
	tok := &token{username: username, verified: acct.TwoFactor == TwoFactorNone}
	s.tokens[value] = tok
	snapshot := *acct
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: AuthCookie, Value: value, Path: "/", HttpOnly: true, MaxAge: 86400})
	if !tok.verified {
		writeJSON(w, http.StatusOK, map[string]any{"requiresTwoFactorAuth": methods(snapshot.TwoFactor)})
		return
	}
	writeJSON(w, http.StatusOK, currentUser(&snapshot))
}

func (s *Server) handleVerify(kind TwoFactor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, tok := s.session(r)
		if acct == nil {
			writeError(w, http.StatusUnauthorized, `"Missing Credentials"`)
			return
		}
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
		s.mu.Lock()
		ok := acct.TwoFactor == kind && body.Code == acct.Code
		if ok {
			tok.verified = true
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(AuthCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, `"Missing Credentials"`)
		return
	}
	s.mu.Lock()
	delete(s.tokens, c.Value)
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: AuthCookie, Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"success": "Ok!"})
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	acct, _ := s.session(r)
	s.mu.Lock()
	friends := append([]vrchat.LimitedUser(nil), acct.Friends...)
	s.mu.Unlock()

	offline := r.URL.Query().Get("offline") == "true"
	var out []vrchat.LimitedUser
	for _, f := range friends {
		if (f.Location == "offline") == offline {
			out = append(out, f)
		}
	}
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	acct, _ := s.session(r)
	s.mu.Lock()
	out := append([]vrchat.Notification(nil), acct.Notifications...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("search"))
	var out []vrchat.LimitedUser
	for _, u := range s.Users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, u := range s.Users {
		if u.ID == id {
			writeJSON(w, http.StatusOK, vrchat.User{LimitedUser: u})
			return
		}
	}
	writeError(w, http.StatusNotFound, `"User not found"`)
}

func (s *Server) handleSearchWorlds(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("search"))
	var out []vrchat.LimitedWorld
	for _, wd := range s.Worlds {
		if strings.Contains(strings.ToLower(wd.Name), q) {
			out = append(out, wd)
		}
	}
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, wd := range s.Worlds {
		if wd.ID == id {
			writeJSON(w, http.StatusOK, vrchat.World{LimitedWorld: wd})
			return
		}
	}
	writeError(w, http.StatusNotFound, `"World not found"`)
}

func (s *Server) handleSearchGroups(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	var out []vrchat.LimitedGroup
	for _, g := range s.Groups {
		if strings.Contains(strings.ToLower(g.Name), q) || strings.EqualFold(g.ShortCode, q) {
			out = append(out, g)
		}
	}
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, g := range s.Groups {
		if g.ID == id {
			writeJSON(w, http.StatusOK, vrchat.Group{LimitedGroup: g})
			return
		}
	}
	writeError(w, http.StatusNotFound, `"Group not found"`)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	acct, _ := s.session(r)
	if chi.URLParam(r, "id") != acct.UserID {
		writeError(w, http.StatusForbidden, `"Not allowed"`)
		return
	}
	writeJSON(w, http.StatusOK, vrchat.Balance{Balance: acct.Balance})
}

func currentUser(a *Account) vrchat.CurrentUser {
	return vrchat.CurrentUser{
		ID:                   a.UserID,
		Username:             a.Username,
		DisplayName:          a.Username,
		Status:               "active",
		TwoFactorAuthEnabled: a.TwoFactor != TwoFactorNone,
	}
}

func methods(kind TwoFactor) []string {
	switch kind {
	case TwoFactorEmail:
		return []string{"emailOtp"}
	case TwoFactorTOTP:
		return []string{"totp", "otp"}
	default:
		return []string{"webauthn"}
	}
}

func page[T any](items []T, q url.Values) []T {
	n, _ := strconv.Atoi(q.Get("n"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if n <= 0 {
		n = 60
	}
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+n, len(items))]
}

func parseBasic(header string) (username, password string, ok bool) {
	enc, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", "", false
	}
	u, p, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", false
	}
	u, err1 := url.QueryUnescape(u)
	p, err2 := url.QueryUnescape(p)
	return u, p, err1 == nil && err2 == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message, "status_code": status},
	})
}
