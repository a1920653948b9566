package storage

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plugfs/plugfs/pkg/errors"
	"github.com/plugfs/plugfs/pkg/filesystem"
	"github.com/plugfs/plugfs/pkg/logging"
	"github.com/plugfs/plugfs/pkg/paths"
)

// entry keeps the original casing of a storage name next to its handle.
// Lookups are case-insensitive via the lower-cased map key.
type entry struct {
	name    string
	storage *Storage
}

// Registry owns the storages root on disk and enforces the acquisition
// protocol. One registry exists per host session; it is explicitly
// constructed and carried through Load/Unload rather than living in
// package-level state, so tests can run each against its own temp root.
//
// All state transitions (lookup, insert, revoke, disable) happen under a
// single mutex, so concurrent acquisitions for the same name can never
// produce two active handles.
type Registry struct {
	layout *paths.Layout
	fs     filesystem.FS
	logger zerolog.Logger

	mu       sync.Mutex
	storages map[string]*entry
	disabled bool
}

// New creates a registry for the given layout. The registry starts disabled;
// call Load to provision the root and enable it.
func New(layout *paths.Layout, fs filesystem.FS) *Registry {
	return &Registry{
		layout:   layout,
		fs:       fs,
		logger:   logging.GetLogger("storage.registry"),
		storages: make(map[string]*entry),
		disabled: true,
	}
}

// Disabled reports whether the registry rejects all acquisition requests
func (r *Registry) Disabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled
}

// Load provisions the storages root and performs the one-time migration of
// legacy data. On any failure the registry stays usable-but-inert: every
// subsequent acquisition fails with SERVICE_DISABLED.
//
// The legacy directory is copied, not moved; it is deleted only at Unload so
// that a crash between migration and teardown never loses data. Migration is
// idempotent and safe to retry on the next load.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	root := r.layout.StoragesRoot()
	if err := requestDirectory(r.fs, root); err != nil {
		r.disabled = true
		r.logger.Error().Err(err).Str("path", root).
			Msg("Failed to create storages root, storage service disabled")
		return errors.Wrapf(err, errors.ErrProvisionFailed,
			"failed to create storages root at %q", root)
	}

	legacy := r.layout.LegacyRoot()
	if err := migrateDirectory(r.fs, legacy, root); err != nil {
		r.disabled = true
		r.logger.Warn().Err(err).Str("from", legacy).Str("to", root).
			Msg("Failed to migrate legacy storages, move the content manually")
		return errors.Wrapf(err, errors.ErrMigrationFailed,
			"failed to migrate legacy storages from %q to %q", legacy, root)
	}

	r.disabled = false
	r.logger.Info().Str("root", root).Msg("Storage service enabled")
	return nil
}

// Unload tears the registry down: the legacy directory is deleted
// (best-effort, this is the only place legacy data is destroyed), all handle
// references are dropped and the registry is disabled for good.
func (r *Registry) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fs.RemoveAll(r.layout.LegacyRoot()); err != nil {
		r.logger.Debug().Err(err).Str("path", r.layout.LegacyRoot()).
			Msg("Failed to remove legacy storages directory")
	}
	r.storages = make(map[string]*entry)
	r.disabled = true
	r.logger.Info().Msg("Storage service terminated")
}

// GetStorage acquires the named storage area, provisioning its directory on
// first use. Names are case-insensitive: requests differing only in case
// resolve to the same entry.
//
// A name that is already bound to a handle is treated as a programming error
// by one of the two competing clients. The registry cannot tell which one is
// legitimate, so it revokes the existing handle and refuses the new request;
// the name stays poisoned for the rest of the session.
func (r *Registry) GetStorage(name string) (*Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disabled {
		r.logger.Error().Str("storage", name).Msg("Storage service is disabled for all clients")
		return nil, errors.New(errors.ErrServiceDisabled, "storage service is disabled")
	}

	if err := paths.ValidateStorageName(name); err != nil {
		r.logger.Error().Err(err).Str("storage", name).Msg("Storage name is not allowed")
		return nil, err
	}

	key := strings.ToLower(name)
	if existing, ok := r.storages[key]; ok {
		existing.storage.RevokePermission()
		r.logger.Error().Str("storage", existing.name).
			Msg("Storage acquired more than once, access permanently revoked for this session")
		return nil, errors.Newf(errors.ErrAlreadyAcquired,
			"storage %q is already acquired, access has been permanently revoked for this session",
			existing.name).WithDetail("storage", existing.name)
	}

	dir := r.layout.StorageDir(name)
	if err := requestDirectory(r.fs, dir); err != nil {
		r.logger.Error().Err(err).Str("storage", name).Str("path", dir).
			Msg("Failed to create storage directory")
		return nil, errors.Wrapf(err, errors.ErrProvisionFailed,
			"failed to create storage %q", name)
	}

	handle := newStorage(name, dir, r.fs)
	r.storages[key] = &entry{name: name, storage: handle}
	r.logger.Info().Str("storage", name).Str("path", dir).Msg("Access to storage granted")
	return handle, nil
}

// GetSharedStorage acquires the shared storage area. Unlike named client
// storage it has no single-owner invariant: repeated calls return the same
// handle, never triggering revocation.
func (r *Registry) GetSharedStorage() (*Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disabled {
		r.logger.Error().Msg("Storage service is disabled")
		return nil, errors.New(errors.ErrServiceDisabled, "storage service is disabled")
	}

	if existing, ok := r.storages[paths.SharedName]; ok {
		r.logger.Info().Msg("Access to shared storage granted")
		return existing.storage, nil
	}

	dir := r.layout.SharedDir()
	if err := requestDirectory(r.fs, dir); err != nil {
		r.logger.Error().Err(err).Str("path", dir).Msg("Failed to create shared storage")
		return nil, errors.Wrap(err, errors.ErrProvisionFailed,
			"failed to create shared storage")
	}

	handle := newStorage(paths.SharedName, dir, r.fs)
	r.storages[paths.SharedName] = &entry{name: paths.SharedName, storage: handle}
	r.logger.Info().Msg("Access to shared storage granted")
	return handle, nil
}
