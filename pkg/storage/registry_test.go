package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugfs/plugfs/pkg/errors"
	"github.com/plugfs/plugfs/pkg/filesystem"
	"github.com/plugfs/plugfs/pkg/paths"
)

// newTestRegistry creates a loaded registry against a temp base directory
func newTestRegistry(t *testing.T) (*Registry, *paths.Layout) {
	t.Helper()

	layout := paths.New(t.TempDir())
	registry := New(layout, filesystem.NewOS())
	require.NoError(t, registry.Load(), "Load() should succeed on a fresh temp dir")
	return registry, layout
}

func TestGetStorage(t *testing.T) {
	t.Run("first acquisition succeeds", func(t *testing.T) {
		registry, layout := newTestRegistry(t)

		handle, err := registry.GetStorage("mymod")
		require.NoError(t, err)
		require.NotNil(t, handle)

		assert.Equal(t, "mymod", handle.Name())
		assert.Equal(t, layout.StorageDir("mymod"), handle.Path())
		assert.False(t, handle.Revoked())

		info, err := os.Stat(handle.Path())
		require.NoError(t, err, "storage directory should be provisioned on disk")
		assert.True(t, info.IsDir())
	})

	t.Run("before load every request is rejected", func(t *testing.T) {
		layout := paths.New(t.TempDir())
		registry := New(layout, filesystem.NewOS())

		_, err := registry.GetStorage("mymod")
		assert.True(t, errors.IsErrorCode(err, errors.ErrServiceDisabled))

		_, err = registry.GetSharedStorage()
		assert.True(t, errors.IsErrorCode(err, errors.ErrServiceDisabled))
	})

	t.Run("invalid names are rejected without touching disk", func(t *testing.T) {
		registry, layout := newTestRegistry(t)

		names := []string{
			"",
			"ab",                        // too short
			"a1b",                       // contains digit
			"abcdefghijklmnopqrstuvwxy", // 25 characters
			"my mod",                    // whitespace
			"my-mod",                    // symbol
			"shared",                    // reserved
			"SHARED",
			"ShArEd",
		}
		for _, name := range names {
			_, err := registry.GetStorage(name)
			assert.Truef(t, errors.IsErrorCode(err, errors.ErrInvalidName),
				"GetStorage(%q) = %v, want INVALID_NAME", name, err)
		}

		entries, err := os.ReadDir(layout.StoragesRoot())
		require.NoError(t, err)
		assert.Empty(t, entries, "no directory should be created for rejected names")
	})

	t.Run("second acquisition revokes and poisons the name", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		first, err := registry.GetStorage("mymod")
		require.NoError(t, err)
		require.NoError(t, first.WriteFile("data.txt", []byte("hello")))

		second, err := registry.GetStorage("mymod")
		assert.Nil(t, second)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyAcquired))

		// The pre-existing handle loses access too
		assert.True(t, first.Revoked())
		_, err = first.ReadFile("data.txt")
		assert.True(t, errors.IsErrorCode(err, errors.ErrStorageRevoked))

		// The name stays poisoned for the rest of the session
		third, err := registry.GetStorage("mymod")
		assert.Nil(t, third)
		assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyAcquired))

		// Revocation is logical only; the file is still on disk
		data, err := os.ReadFile(filepath.Join(first.Path(), "data.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("names are case-insensitive", func(t *testing.T) {
		registry, layout := newTestRegistry(t)

		first, err := registry.GetStorage("MyMod")
		require.NoError(t, err)

		_, err = registry.GetStorage("mymod")
		assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyAcquired),
			"case variant must hit the conflict path, not create a second entry")
		assert.True(t, first.Revoked())

		// Only the first-seen casing exists on disk
		entries, err := os.ReadDir(layout.StoragesRoot())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "MyMod", entries[0].Name())
	})

	t.Run("independent names do not interfere", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		alpha, err := registry.GetStorage("alpha")
		require.NoError(t, err)
		beta, err := registry.GetStorage("beta")
		require.NoError(t, err)

		_, err = registry.GetStorage("alpha")
		require.Error(t, err)

		assert.True(t, alpha.Revoked())
		assert.False(t, beta.Revoked(), "conflict on alpha must not affect beta")
	})
}

func TestGetSharedStorage(t *testing.T) {
	t.Run("repeated acquisition returns the same handle", func(t *testing.T) {
		registry, layout := newTestRegistry(t)

		first, err := registry.GetSharedStorage()
		require.NoError(t, err)
		assert.Equal(t, paths.SharedName, first.Name())
		assert.Equal(t, layout.SharedDir(), first.Path())

		for i := 0; i < 5; i++ {
			again, err := registry.GetSharedStorage()
			require.NoError(t, err)
			assert.Same(t, first, again, "shared storage is multi-acquirable")
		}
		assert.False(t, first.Revoked())

		// No duplicate directories
		entries, err := os.ReadDir(layout.StoragesRoot())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("shared name is unreachable through GetStorage", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		shared, err := registry.GetSharedStorage()
		require.NoError(t, err)

		for _, name := range []string{"shared", "SHARED", "ShArEd"} {
			_, err := registry.GetStorage(name)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidName))
		}
		assert.False(t, shared.Revoked(),
			"rejected named requests must not revoke the shared handle")
	})
}

func TestLoad(t *testing.T) {
	t.Run("migrates legacy data into the root", func(t *testing.T) {
		base := t.TempDir()
		layout := paths.New(base)

		legacy := layout.LegacyRoot()
		require.NoError(t, os.MkdirAll(filepath.Join(legacy, "nested"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(legacy, "a.txt"), []byte("legacy"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(legacy, "nested", "b.txt"), []byte("deep"), 0o644))

		registry := New(layout, filesystem.NewOS())
		require.NoError(t, registry.Load())

		data, err := os.ReadFile(filepath.Join(layout.StoragesRoot(), "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "legacy", string(data))

		data, err = os.ReadFile(filepath.Join(layout.StoragesRoot(), "nested", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "deep", string(data))

		// Source stays in place until teardown, so a crash cannot lose data
		_, err = os.Stat(legacy)
		assert.NoError(t, err, "legacy directory must survive Load")

		registry.Unload()
		_, err = os.Stat(legacy)
		assert.True(t, os.IsNotExist(err), "legacy directory must be deleted at Unload")
	})

	t.Run("migration overwrites same-named entries", func(t *testing.T) {
		base := t.TempDir()
		layout := paths.New(base)

		require.NoError(t, os.MkdirAll(layout.StoragesRoot(), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(layout.StoragesRoot(), "a.txt"), []byte("current"), 0o644))
		require.NoError(t, os.MkdirAll(layout.LegacyRoot(), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(layout.LegacyRoot(), "a.txt"), []byte("legacy"), 0o644))

		registry := New(layout, filesystem.NewOS())
		require.NoError(t, registry.Load())

		data, err := os.ReadFile(filepath.Join(layout.StoragesRoot(), "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "legacy", string(data))
	})

	t.Run("missing legacy directory is a trivial success", func(t *testing.T) {
		layout := paths.New(t.TempDir())
		registry := New(layout, filesystem.NewOS())
		require.NoError(t, registry.Load())
		assert.False(t, registry.Disabled())
	})

	t.Run("blocked root disables the registry", func(t *testing.T) {
		base := t.TempDir()
		layout := paths.New(base)

		// A file where the storages root should be blocks provisioning
		require.NoError(t, os.WriteFile(layout.StoragesRoot(), []byte("in the way"), 0o644))

		registry := New(layout, filesystem.NewOS())
		err := registry.Load()
		assert.True(t, errors.IsErrorCode(err, errors.ErrProvisionFailed))
		assert.True(t, registry.Disabled())

		_, err = registry.GetStorage("mymod")
		assert.True(t, errors.IsErrorCode(err, errors.ErrServiceDisabled))
		_, err = registry.GetSharedStorage()
		assert.True(t, errors.IsErrorCode(err, errors.ErrServiceDisabled))
	})

	t.Run("load is idempotent", func(t *testing.T) {
		base := t.TempDir()
		layout := paths.New(base)
		require.NoError(t, os.MkdirAll(layout.LegacyRoot(), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(layout.LegacyRoot(), "a.txt"), []byte("x"), 0o644))

		registry := New(layout, filesystem.NewOS())
		require.NoError(t, registry.Load())
		require.NoError(t, registry.Load(), "retrying migration must be safe")
	})
}

func TestUnload(t *testing.T) {
	t.Run("disables the registry and drops handles", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.GetStorage("mymod")
		require.NoError(t, err)

		registry.Unload()
		assert.True(t, registry.Disabled())

		_, err = registry.GetStorage("other")
		assert.True(t, errors.IsErrorCode(err, errors.ErrServiceDisabled))
	})

	t.Run("safe on a never-loaded registry", func(t *testing.T) {
		layout := paths.New(t.TempDir())
		registry := New(layout, filesystem.NewOS())
		registry.Unload()
		assert.True(t, registry.Disabled())
	})
}

func TestConcurrentAcquisition(t *testing.T) {
	t.Run("same name never yields two active handles", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		const goroutines = 16
		var wg sync.WaitGroup
		results := make([]*Storage, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				handle, err := registry.GetStorage("contended")
				if err == nil {
					results[i] = handle
				}
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, handle := range results {
			if handle != nil {
				successes++
			}
		}
		assert.Equal(t, 1, successes, "exactly one acquisition must win")
	})

	t.Run("distinct names all succeed", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		const goroutines = 8
		var wg sync.WaitGroup
		errs := make([]error, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("client%c%c%c", 'a'+i, 'a'+i, 'a'+i)
				_, errs[i] = registry.GetStorage(name)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			assert.NoErrorf(t, err, "goroutine %d should acquire its own name", i)
		}
	})
}
