package storage

import (
	"encoding/json"
	"fmt"

	"github.com/jmcleod/vrchatbot/internal/util"
)

const envelopeScheme = "aes256gcm"

// Envelope is a sealed record containing AES-256-GCM encrypted data.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// SealRecord encrypts plaintext and returns the JSON encoded envelope.
func SealRecord(recordKey, plaintext, aad []byte) ([]byte, error) {
	sealed, err := util.SealGCM(plaintext, recordKey, aad)
	if err != nil {
		return nil, err
	}
	// util.SealGCM returns nonce || ciphertext.
	env := Envelope{
		Ver:        1,
		Scheme:     envelopeScheme,
		Nonce:      sealed[:12],
		Ciphertext: sealed[12:],
	}
	return json.Marshal(env)
}

// OpenRecord decodes a JSON envelope produced by SealRecord and decrypts it.
func OpenRecord(recordKey, data, aad []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Ver != 1 {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Ver)
	}
	if env.Scheme != envelopeScheme {
		return nil, fmt.Errorf("unsupported envelope scheme: %s", env.Scheme)
	}
	full := make([]byte, len(env.Nonce)+len(env.Ciphertext))
	copy(full, env.Nonce)
	copy(full[len(env.Nonce):], env.Ciphertext)
	return util.OpenGCM(full, recordKey, aad)
}

// IsSealed reports whether data looks like an envelope written by SealRecord.
func IsSealed(data []byte) bool {
	var probe struct {
		Scheme string `json:"scheme"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Scheme == envelopeScheme
}
