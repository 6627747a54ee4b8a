package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// FileStore persists the token/profile pair as a single JSON document on
// disk, for CLI and desktop front ends. Writing both values into one file and
// replacing it with rename keeps the pair atomic even across a crash
// mid-save: readers observe either the old pair or the new pair, never a
// mixed one.
type FileStore struct {
	mu   sync.Mutex
	path string
	perm os.FileMode
}

// NewFileStore creates a store backed by the file at path. Parent directories
// are created on the first Save. The file is written with mode 0600; it holds
// a live credential.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o600}
}

// Save writes rec to a temporary file in the same directory and renames it
// over the target path.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return errIncomplete(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Load reads the persisted pair. A file that does not exist is an empty
// store; a file that fails to decode or validate is removed and reported as
// [ErrCorruptRecord].
func (s *FileStore) Load(ctx context.Context) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		_ = os.Remove(s.path)
		return Record{}, false, errCorrupt(err)
	}
	if err := rec.validate(); err != nil {
		_ = os.Remove(s.path)
		return Record{}, false, errCorrupt(err)
	}

	return rec, true, nil
}

// Clear removes the file. Idempotent; a missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
