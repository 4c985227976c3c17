package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmcleod/vrchatbot/storage"
)

// Namespace is the storage namespace holding per-session records.
const Namespace = "player"

const credentialType = "json"

// LoginInfo is a stored username/password pair.
type LoginInfo struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialStore persists LoginInfo per session id. Records are plain JSON
// unless a Sealer is configured.
type CredentialStore struct {
	repo   storage.Repository
	sealer *Sealer
}

// NewCredentialStore returns a store over repo. sealer may be nil.
func NewCredentialStore(repo storage.Repository, sealer *Sealer) *CredentialStore {
	return &CredentialStore{repo: repo, sealer: sealer}
}

func credentialAAD(sessionID string) []byte {
	return []byte(Namespace + "/" + sessionID + "." + credentialType)
}

// Save writes info for sessionID, replacing any previous record.
func (s *CredentialStore) Save(sessionID string, info LoginInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding login info: %w", err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data, credentialAAD(sessionID)); err != nil {
			return fmt.Errorf("sealing login info: %w", err)
		}
	}
	if err := s.repo.Put(Namespace, credentialType, sessionID, data); err != nil {
		return fmt.Errorf("saving login info: %w", err)
	}
	return nil
}

// Load reads the record for sessionID. A missing or malformed record is
// ErrNotLoggedIn.
func (s *CredentialStore) Load(sessionID string) (LoginInfo, error) {
	data, err := s.repo.Get(Namespace, credentialType, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return LoginInfo{}, ErrNotLoggedIn
	}
	if err != nil {
		return LoginInfo{}, fmt.Errorf("loading login info: %w", err)
	}

	if storage.IsSealed(data) {
		if s.sealer == nil {
			return LoginInfo{}, fmt.Errorf("login info for %q is sealed and no passphrase is configured", sessionID)
		}
		if data, err = s.sealer.Open(data, credentialAAD(sessionID)); err != nil {
			return LoginInfo{}, fmt.Errorf("opening login info: %w", err)
		}
	}

	var info LoginInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LoginInfo{}, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	}
	if info.Username == "" || info.Password == "" {
		return LoginInfo{}, fmt.Errorf("%w: incomplete login info", ErrNotLoggedIn)
	}
	return info, nil
}

// Remove deletes the record. A missing record is not an error.
func (s *CredentialStore) Remove(sessionID string) error {
	err := s.repo.Delete(Namespace, credentialType, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("removing login info: %w", err)
	}
	return nil
}

// List returns every session id with a stored credential record.
func (s *CredentialStore) List() ([]string, error) {
	return s.repo.List(Namespace, credentialType)
}
