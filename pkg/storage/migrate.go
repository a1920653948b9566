package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/plugfs/plugfs/pkg/filesystem"
)

// requestDirectory ensures a directory exists, creating it if absent. A
// non-directory entry already occupying the path is an error.
func requestDirectory(fsys filesystem.FS, path string) error {
	info, err := fsys.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path %q exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return fsys.MkdirAll(path, 0o755)
}

// migrateDirectory recursively copies the contents of from into to,
// overwriting same-named entries. A missing source directory is a trivial
// success. The source is left in place; removal happens at Unload.
func migrateDirectory(fsys filesystem.FS, from, to string) error {
	if _, err := fsys.Stat(from); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return copyTree(fsys, from, to)
}

func copyTree(fsys filesystem.FS, from, to string) error {
	if err := fsys.MkdirAll(to, 0o755); err != nil {
		return err
	}
	entries, err := fsys.ReadDir(from)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src := filepath.Join(from, entry.Name())
		dst := filepath.Join(to, entry.Name())
		if entry.IsDir() {
			if err := copyTree(fsys, src, dst); err != nil {
				return err
			}
			continue
		}
		data, err := fsys.ReadFile(src)
		if err != nil {
			return err
		}
		if err := fsys.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
