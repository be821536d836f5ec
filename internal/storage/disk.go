// Package storage stores document blobs on the local filesystem under a
// media root, in dated subdirectories (documents/YYYY/MM/DD/). Blob writes
// are independent side effects: if a DB commit referencing a stored file
// fails, the orphaned blob is left in place.
package storage

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	root string
}

func New(root string) *Store { return &Store{root: root} }

// Save writes the content to a fresh file and returns its path relative to
// the media root plus the number of bytes written. The stored filename is a
// uuid with the original extension; the original name lives in the DB row.
func (s *Store) Save(r io.Reader, originalName string) (string, int64, error) {
	rel := filepath.Join(
		"documents",
		time.Now().Format("2006/01/02"),
		uuid.NewString()+filepath.Ext(originalName),
	)
	abs := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.Create(abs)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(abs)
		return "", 0, err
	}
	return rel, n, nil
}

// Open returns the blob for reading. A missing file surfaces as
// fs.ErrNotExist via os.Open.
func (s *Store) Open(rel string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, rel))
}

// Remove deletes the blob. Missing files are not an error: the row is the
// source of truth and deletion must proceed.
func (s *Store) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
