package session

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jmcleod/vrchatbot/storage"
	"github.com/jmcleod/vrchatbot/vrchat"
)

const cookieType = "cookies"

// CookieStore persists a client's cookie jar per session id in the Netscape
// cookies.txt format.
type CookieStore struct {
	repo storage.Repository
}

// NewCookieStore returns a store over repo.
func NewCookieStore(repo storage.Repository) *CookieStore {
	return &CookieStore{repo: repo}
}

// Save writes the cookies currently held by c.
func (s *CookieStore) Save(sessionID string, c *vrchat.Client) error {
	var buf bytes.Buffer
	if err := c.Jar().WriteNetscape(&buf); err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	if err := s.repo.Put(Namespace, cookieType, sessionID, buf.Bytes()); err != nil {
		return fmt.Errorf("saving cookies: %w", err)
	}
	return nil
}

// LoadInto merges the stored cookies for sessionID into c's jar. Having no
// stored cookies is not an error.
func (s *CookieStore) LoadInto(c *vrchat.Client, sessionID string) error {
	data, err := s.repo.Get(Namespace, cookieType, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading cookies: %w", err)
	}
	cookies, err := vrchat.ReadNetscape(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: cookies for %q: %w", ErrCorruptRecord, sessionID, err)
	}
	c.Jar().Merge(cookies)
	return nil
}

// Remove deletes the stored cookies. A missing record is not an error.
func (s *CookieStore) Remove(sessionID string) error {
	err := s.repo.Delete(Namespace, cookieType, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("removing cookies: %w", err)
	}
	return nil
}

// Exists reports whether cookies are stored for sessionID.
func (s *CookieStore) Exists(sessionID string) (bool, error) {
	_, err := s.repo.Get(Namespace, cookieType, sessionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns every session id with stored cookies.
func (s *CookieStore) List() ([]string, error) {
	return s.repo.List(Namespace, cookieType)
}
