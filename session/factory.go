package session

import (
	"fmt"

	"github.com/jmcleod/vrchatbot/vrchat"
)

// Factory builds upstream clients bound to a session's stored login.
type Factory struct {
	api     vrchat.Config
	creds   *CredentialStore
	cookies *CookieStore
}

// NewFactory returns a Factory building clients from api.
func NewFactory(api vrchat.Config, creds *CredentialStore, cookies *CookieStore) *Factory {
	return &Factory{api: api, creds: creds, cookies: cookies}
}

// Client builds a client for sessionID without touching the network.
//
// With info == nil the stored credentials are used and the stored cookies
// are preloaded; ErrNotLoggedIn is returned when there are none. An explicit
// info is a fresh login attempt: the client starts with an empty jar.
func (f *Factory) Client(sessionID string, info *LoginInfo) (*vrchat.Client, error) {
	preload := info == nil
	if info == nil {
		stored, err := f.creds.Load(sessionID)
		if err != nil {
			return nil, err
		}
		info = &stored
	}

	c, err := f.api.New(info.Username, info.Password)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}
	if preload {
		if err := f.cookies.LoadInto(c, sessionID); err != nil {
			return nil, err
		}
	}
	return c, nil
}
