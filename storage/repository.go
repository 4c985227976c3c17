// Package storage provides the storage abstraction for per-session records.
//
// Records are opaque byte blobs addressed by (namespace, recordType,
// recordID). The file backend maps that triple onto
// <root>/<namespace>/<recordID>.<recordType>, so the credential record of
// session "u1" lives at player/u1.json and its cookie jar at player/u1.cookies.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidKey is returned for namespace, type or id values that cannot
	// be used as a storage key.
	ErrInvalidKey = errors.New("invalid record key")
)

// Repository defines the interface for per-session record storage.
type Repository interface {
	Put(namespace, recordType, recordID string, data []byte) error
	Get(namespace, recordType, recordID string) ([]byte, error)
	// List returns the ids of every record of recordType in namespace. The
	// order is backend defined.
	List(namespace, recordType string) ([]string, error)
	Delete(namespace, recordType, recordID string) error
}

// ValidateKey rejects key parts that are empty or could address something
// other than a single record (path separators, dot segments, NUL).
func ValidateKey(parts ...string) error {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." ||
			strings.ContainsAny(p, "/\\\x00") {
			return fmt.Errorf("%q: %w", p, ErrInvalidKey)
		}
	}
	return nil
}
