package wazeroc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wazeroc/wazeroc/internal/compilationcache"
)

// cacheFormatVersion changes whenever the on-disk cache entry layout changes (not the Wasm format itself), so an
// old entry from a prior wazeroc build is never mistaken for a hit by a newer one; it is one of the three inputs to
// compilationcache.NewKey.
const cacheFormatVersion = 1

// Cache is the persisted-state mechanism named in spec.md §6: compiled functions are kept in memory for the
// lifetime of the Runtime or Module that produced them. A Cache can be attached to a Runtime, but CompileModule
// neither reads nor writes it, so translated code is not persisted to disk and a later process retranslates.
type Cache interface {
	// Close releases resources held by the cache; it does not delete any on-disk entries.
	Close(ctx context.Context) error
}

// NewCache returns a Cache backed by a file cache under dir, creating dir if it doesn't already exist (CompileModule
// writes nothing to it). A
// Cache is only valid for use with one Runtime at a time; concurrent use of a Runtime is fine, but two Runtimes
// must not share the same directory.
func NewCache(dir string) (Cache, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := mkdir(dir); err != nil {
		return nil, err
	}
	ctx := context.WithValue(context.Background(), compilationcache.FileCachePathKey{}, dir)
	fc := compilationcache.NewFileCache(ctx)
	return &cache{dir: dir, fileCache: fc}, nil
}

type cache struct {
	dir       string
	fileCache compilationcache.Cache
}

func (c *cache) Close(context.Context) error { return nil }

// keyFor derives this cache's lookup key for a module, scoped to one engine instance so a cache entry compiled
// under a different RuntimeConfig is never returned for this one.
func keyFor(moduleID [32]byte, engineID uuid.UUID) compilationcache.Key {
	return compilationcache.NewKey(moduleID[:], engineID, cacheFormatVersion)
}

func mkdir(dirname string) error {
	if st, err := os.Stat(dirname); errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(dirname, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dirname, err)
		}
	} else if err != nil {
		return err
	} else if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dirname)
	}
	return nil
}
