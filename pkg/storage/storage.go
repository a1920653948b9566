package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/plugfs/plugfs/pkg/errors"
	"github.com/plugfs/plugfs/pkg/filesystem"
)

// Storage is a capability handle bound to exactly one storage directory.
// Handles are created only by a Registry as the result of a successful
// acquisition. A handle is either active or permanently revoked; revocation
// is one-directional and leaves the files on disk untouched.
//
// A handle holds no reference back to the registry and, once issued, is
// usable without further synchronization with it.
type Storage struct {
	name    string
	path    string
	fs      filesystem.FS
	revoked atomic.Bool
}

func newStorage(name, path string, fs filesystem.FS) *Storage {
	return &Storage{name: name, path: path, fs: fs}
}

// Name returns the storage name as originally requested
func (s *Storage) Name() string {
	return s.name
}

// Path returns the absolute directory the handle is bound to
func (s *Storage) Path() string {
	return s.path
}

// Revoked reports whether the handle has been permanently revoked
func (s *Storage) Revoked() bool {
	return s.revoked.Load()
}

// RevokePermission permanently revokes the handle. Idempotent; there is no
// way back to the active state. Subsequent file operations fail with
// STORAGE_REVOKED.
func (s *Storage) RevokePermission() {
	s.revoked.Store(true)
}

// guard fails fast when the handle is revoked
func (s *Storage) guard() error {
	if s.revoked.Load() {
		return errors.Newf(errors.ErrStorageRevoked,
			"access to storage %q has been revoked", s.name)
	}
	return nil
}

// resolve confines a relative path to the storage directory. Absolute paths
// and paths that climb out of the directory are rejected.
func (s *Storage) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", errors.Newf(errors.ErrPathEscape,
			"path %q is not a relative path inside storage %q", rel, s.name)
	}
	full := filepath.Join(s.path, rel)
	if full != s.path && !strings.HasPrefix(full, s.path+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrPathEscape,
			"path %q escapes storage %q", rel, s.name)
	}
	return full, nil
}

// Exists reports whether a file or directory exists inside the storage
func (s *Storage) Exists(rel string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return false, err
	}
	if _, err := s.fs.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %q", rel)
	}
	return true, nil
}

// List returns the names of the entries in the storage directory
func (s *Storage) List() ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	entries, err := s.fs.ReadDir(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess,
			"failed to list storage %q", s.name)
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	return names, nil
}

// ReadFile reads the content of a file inside the storage
func (s *Storage) ReadFile(rel string) ([]byte, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(full)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %q", rel)
	}
	return data, nil
}

// ReadLines reads a text file and splits it into lines. Both LF and CRLF
// endings are handled; a trailing newline does not produce an empty line.
func (s *Storage) ReadLines(rel string) ([]string, error) {
	data, err := s.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// WriteFile writes a file inside the storage, truncating any existing
// content. Parent directories are created as needed.
func (s *Storage) WriteFile(rel string, data []byte) error {
	if err := s.guard(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(full); dir != s.path {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to create parent of %q", rel)
		}
	}
	if err := s.fs.WriteFile(full, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %q", rel)
	}
	return nil
}

// AppendFile appends data to a file inside the storage, creating it if absent
func (s *Storage) AppendFile(rel string, data []byte) error {
	if err := s.guard(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	file, err := s.fs.OpenFile(full, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to open %q for append", rel)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to append to %q", rel)
	}
	return nil
}

// ReadJSON reads a JSON file inside the storage into v
func (s *Storage) ReadJSON(rel string, v interface{}) error {
	data, err := s.ReadFile(rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to decode %q as JSON", rel)
	}
	return nil
}

// WriteJSON writes v as indented JSON to a file inside the storage
func (s *Storage) WriteJSON(rel string, v interface{}) error {
	if err := s.guard(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to encode %q as JSON", rel)
	}
	return s.WriteFile(rel, append(data, '\n'))
}

// DeleteFile removes a file inside the storage
func (s *Storage) DeleteFile(rel string) error {
	if err := s.guard(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(full); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to delete %q", rel)
	}
	return nil
}
