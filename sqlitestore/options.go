package sqlitestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/spillcache"
	"github.com/unkn0wn-root/spillcache/codec"
)

const defaultQueueLen = 1024

// Options configure a durable store. Only Path is required.
type Options struct {
	Path string // database file; its directory is created if missing

	Codec    codec.Codec[any]  // nil => codec.Default() (Typed msgpack)
	Logger   spillcache.Logger // nil => NopLogger
	Hooks    spillcache.Hooks  // nil => NopHooks
	QueueLen int               // 0 => 1024; a full queue blocks callers

	// Synchronous keeps SQLite's default fsync behavior. Off by default: the
	// table is a cache and can be rebuilt, so durability on power loss is traded
	// for write throughput.
	Synchronous bool
}

func (o Options) validate() error {
	if o.Path == "" {
		return fmt.Errorf("sqlitestore: path is required")
	}
	if o.QueueLen < 0 {
		return fmt.Errorf("sqlitestore: queue length must be >= 0, got %d", o.QueueLen)
	}
	return nil
}

// makeDirIfNeeded creates dir unless it exists; an existing non-directory is an error.
func makeDirIfNeeded(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("sqlitestore: %s is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlitestore: create cache directory: %w", err)
	}
	return nil
}

func cacheDir(path string) string { return filepath.Dir(path) }
