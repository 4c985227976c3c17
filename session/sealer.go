package session

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/vrchatbot/internal/util"
	"github.com/jmcleod/vrchatbot/storage"
)

const (
	settingsNamespace = "settings"
	saltType          = "salt"
	saltID            = "seal"
	saltSize          = 16
)

var sealKeyInfo = []byte("vrchatbot credential seal v1")

// sealParams is the Argon2id cost used for the sealing key.
var sealParams = util.DefaultArgon2idParams()

// Sealer encrypts credential records at rest. The derived key is kept in a
// memguard enclave and only unsealed for the duration of one operation.
type Sealer struct {
	key *memguard.Enclave
}

// NewSealer derives the sealing key from passphrase and salt.
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	key, err := util.DeriveKey(passphrase, salt, sealKeyInfo, sealParams)
	if err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}
	// NewEnclave wipes key.
	return &Sealer{key: memguard.NewEnclave(key)}, nil
}

// LoadSealer returns a Sealer whose salt is kept in repo under
// settings/seal.salt, creating the salt on first use.
func LoadSealer(repo storage.Repository, passphrase string) (*Sealer, error) {
	salt, err := repo.Get(settingsNamespace, saltType, saltID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		salt, err = util.RandomBytes(saltSize)
		if err != nil {
			return nil, err
		}
		if err := repo.Put(settingsNamespace, saltType, saltID, salt); err != nil {
			return nil, fmt.Errorf("storing seal salt: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("loading seal salt: %w", err)
	}
	return NewSealer(passphrase, salt)
}

// Seal encrypts plaintext bound to aad.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening seal key: %w", err)
	}
	defer buf.Destroy()
	return storage.SealRecord(buf.Bytes(), plaintext, aad)
}

// Open decrypts a record produced by Seal with the same aad.
func (s *Sealer) Open(data, aad []byte) ([]byte, error) {
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening seal key: %w", err)
	}
	defer buf.Destroy()
	return storage.OpenRecord(buf.Bytes(), data, aad)
}
