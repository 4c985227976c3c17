// Package file provides a filesystem-backed storage repository.
//
// A record (namespace, recordType, recordID) lives at
// <root>/<namespace>/<recordID>.<recordType>. Writes go to a temporary file in
// the same directory and are renamed into place, so readers never observe a
// partially written record.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmcleod/vrchatbot/storage"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Store implements storage.Repository on a directory tree.
type Store struct {
	root string
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository rooted at dir. The directory is created
// if it does not exist.
func NewRepository(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Path returns the file that holds the given record.
func (s *Store) Path(namespace, recordType, recordID string) string {
	return filepath.Join(s.root, namespace, recordID+"."+recordType)
}

func (s *Store) Put(namespace, recordType, recordID string, data []byte) error {
	if err := storage.ValidateKey(namespace, recordType, recordID); err != nil {
		return err
	}
	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating %s: %w", namespace, err)
	}

	tmp, err := os.CreateTemp(dir, ".vrchatbot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", recordID, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", recordID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", recordID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", recordID, err)
	}
	return os.Rename(tmpName, s.Path(namespace, recordType, recordID))
}

func (s *Store) Get(namespace, recordType, recordID string) ([]byte, error) {
	if err := storage.ValidateKey(namespace, recordType, recordID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(namespace, recordType, recordID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s.%s: %w", namespace, recordID, recordType, storage.ErrNotFound)
	}
	return data, err
}

func (s *Store) List(namespace, recordType string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, namespace))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	suffix := "." + recordType
	var ids []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".vrchatbot-") {
			continue
		}
		id, ok := strings.CutSuffix(e.Name(), suffix)
		if !ok || storage.ValidateKey(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) Delete(namespace, recordType, recordID string) error {
	if err := storage.ValidateKey(namespace, recordType, recordID); err != nil {
		return err
	}
	err := os.Remove(s.Path(namespace, recordType, recordID))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s/%s.%s: %w", namespace, recordID, recordType, storage.ErrNotFound)
	}
	return err
}
