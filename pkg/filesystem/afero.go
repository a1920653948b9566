package filesystem

import (
	"io/fs"

	"github.com/spf13/afero"
)

// aferoFS implements FS using afero
type aferoFS struct {
	fs afero.Fs
}

// NewAfero creates a new afero filesystem implementation
func NewAfero(fs afero.Fs) FS {
	return &aferoFS{fs: fs}
}

// NewMemory creates an in-memory filesystem for tests
func NewMemory() FS {
	return NewAfero(afero.NewMemMapFs())
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	return a.fs.OpenFile(name, flag, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

func (a *aferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}
