package util

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Argon2idParams controls the cost of passphrase stretching.
type Argon2idParams struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
	}
}

// DeriveKey stretches passphrase with Argon2id and expands the result with
// HKDF-SHA256 bound to info, yielding an AESKeySize key. Different info
// strings give independent keys from the same passphrase.
func DeriveKey(passphrase string, salt, info []byte, params Argon2idParams) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	if len(salt) < 16 {
		return nil, fmt.Errorf("salt must be at least 16 bytes, got %d", len(salt))
	}
	master := argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKiB, params.Parallelism, AESKeySize)
	defer WipeBytes(master)

	h := hkdf.New(sha256.New, master, salt, info)
	key := make([]byte, AESKeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return key, nil
}
