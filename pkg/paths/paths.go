// Package paths provides centralized path handling for plugfs.
// It resolves the on-disk layout of storage areas relative to the
// host-provided base directory and validates storage names.
package paths

import (
	"path/filepath"
)

// Directory names that make up the plugfs on-disk layout.
// IMPORTANT: These constants define the storage layout on disk and are NOT
// user-configurable. They must remain consistent across installations so that
// storages written by one host version are found by the next.
const (
	// StoragesDirName is the directory under the base holding all storage areas
	StoragesDirName = "storages"

	// LegacyPluginDirName is the deprecated plugin-local directory whose
	// storages subdirectory is migrated into the current root at load time
	LegacyPluginDirName = "plugins"

	// LegacyPluginName is the plugin directory name under LegacyPluginDirName
	LegacyPluginName = "plugfs"

	// SharedName is the reserved name of the shared storage area. It can only
	// be obtained through the shared-storage path, never by a named request.
	SharedName = "shared"
)

// Layout resolves the storage directory layout under a base directory
type Layout struct {
	base string
}

// New creates a Layout rooted at the given base directory. The base is
// cleaned but not required to exist; provisioning happens at registry load.
func New(base string) *Layout {
	return &Layout{base: filepath.Clean(base)}
}

// Base returns the host-provided base directory
func (l *Layout) Base() string {
	return l.base
}

// StoragesRoot returns the directory containing all storage areas
func (l *Layout) StoragesRoot() string {
	return filepath.Join(l.base, StoragesDirName)
}

// LegacyRoot returns the deprecated storage location consulted only for
// one-time migration at load
func (l *Layout) LegacyRoot() string {
	return filepath.Join(l.base, LegacyPluginDirName, LegacyPluginName, StoragesDirName)
}

// StorageDir returns the directory for the named storage area
func (l *Layout) StorageDir(name string) string {
	return filepath.Join(l.StoragesRoot(), name)
}

// SharedDir returns the directory of the shared storage area
func (l *Layout) SharedDir() string {
	return l.StorageDir(SharedName)
}
