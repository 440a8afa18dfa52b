package overlayfs

import (
	"context"
	"sync"

	"github.com/keelfs/keelfs/vfs"
)

// preloadHandle is returned by Fs.OpenFile for a lower-only path: it
// serves reads out of an in-memory copy of lower's contents, and the
// first write (or truncate) triggers copy-up (via the owning Fs's copyUp)
// before applying the write to the now-upper file.
type preloadHandle struct {
	f    *Fs
	path string

	mu         sync.Mutex
	data       []byte
	upperAfter vfs.Handle // set once a write has copied path up to upper
}

var _ vfs.Handle = (*preloadHandle)(nil)

func (h *preloadHandle) Read(ctx context.Context, buf []byte, offset int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter != nil {
		return h.upperAfter.Read(ctx, buf, offset)
	}
	if offset >= int64(len(h.data)) {
		return 0, nil
	}
	return copy(buf, h.data[offset:]), nil
}

func (h *preloadHandle) Write(ctx context.Context, data []byte, offset int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter == nil {
		if err := h.f.copyUp(ctx, h.path); err != nil {
			return 0, err
		}
		uh, err := h.f.upper.OpenFile(ctx, h.path, vfs.OpenFlags{Readable: true, Writable: true})
		if err != nil {
			return 0, err
		}
		h.upperAfter = uh
	}
	return h.upperAfter.Write(ctx, data, offset)
}

func (h *preloadHandle) Stat(ctx context.Context) (*vfs.Stat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter != nil {
		return h.upperAfter.Stat(ctx)
	}
	return h.f.Stat(ctx, h.path)
}

func (h *preloadHandle) Chmod(ctx context.Context, mode uint32) error {
	return h.f.Chmod(ctx, h.path, mode)
}

func (h *preloadHandle) Chown(ctx context.Context, uid, gid uint32) error {
	return h.f.Chown(ctx, h.path, uid, gid)
}

func (h *preloadHandle) Utimes(ctx context.Context, atime, mtime int64) error {
	return h.f.Utimes(ctx, h.path, atime, mtime)
}

func (h *preloadHandle) Truncate(ctx context.Context, size int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter == nil {
		if err := h.f.copyUp(ctx, h.path); err != nil {
			return err
		}
		uh, err := h.f.upper.OpenFile(ctx, h.path, vfs.OpenFlags{Readable: true, Writable: true})
		if err != nil {
			return err
		}
		h.upperAfter = uh
	}
	return h.upperAfter.Truncate(ctx, size)
}

func (h *preloadHandle) Sync(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter != nil {
		return h.upperAfter.Sync(ctx)
	}
	return nil
}

func (h *preloadHandle) Datasync(ctx context.Context) error {
	return h.Sync(ctx)
}

func (h *preloadHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upperAfter != nil {
		return h.upperAfter.Close(ctx)
	}
	return nil
}
