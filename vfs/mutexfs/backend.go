package mutexfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs"
)

var _ vfs.Backend = (*Fs)(nil)

// Ready is not itself serialized: readiness doesn't mutate inner state.
func (fs *Fs) Ready(ctx context.Context) error { return fs.inner.Ready(ctx) }

// Metadata is not serialized: it's a constant description of the backend.
func (fs *Fs) Metadata() vfs.Metadata { return fs.inner.Metadata() }

func (fs *Fs) Stat(ctx context.Context, path string) (st *vfs.Stat, err error) {
	err = fs.withLock(ctx, path, "stat", func() error {
		st, err = fs.inner.Stat(ctx, path)
		return err
	})
	return
}

func (fs *Fs) Exists(ctx context.Context, path string) (ok bool, err error) {
	err = fs.withLock(ctx, path, "exists", func() error {
		ok, err = fs.inner.Exists(ctx, path)
		return err
	})
	return
}

func (fs *Fs) OpenFile(ctx context.Context, path string, flags vfs.OpenFlags) (h vfs.Handle, err error) {
	err = fs.withLock(ctx, path, "open", func() error {
		inner, e := fs.inner.OpenFile(ctx, path, flags)
		if e == nil {
			h = &mutexHandle{fs: fs, path: path, inner: inner}
		}
		return e
	})
	return
}

func (fs *Fs) CreateFile(ctx context.Context, path string, flags vfs.OpenFlags, mode uint32, info vfs.CreateInfo) (h vfs.Handle, err error) {
	err = fs.withLock(ctx, path, "open", func() error {
		inner, e := fs.inner.CreateFile(ctx, path, flags, mode, info)
		if e == nil {
			h = &mutexHandle{fs: fs, path: path, inner: inner}
		}
		return e
	})
	return
}

func (fs *Fs) Rename(ctx context.Context, oldPath, newPath string) error {
	return fs.withLock(ctx, oldPath, "rename", func() error {
		return fs.inner.Rename(ctx, oldPath, newPath)
	})
}

func (fs *Fs) Unlink(ctx context.Context, path string) error {
	return fs.withLock(ctx, path, "unlink", func() error {
		return fs.inner.Unlink(ctx, path)
	})
}

func (fs *Fs) Rmdir(ctx context.Context, path string) error {
	return fs.withLock(ctx, path, "rmdir", func() error {
		return fs.inner.Rmdir(ctx, path)
	})
}

func (fs *Fs) Mkdir(ctx context.Context, path string, mode uint32, info vfs.CreateInfo) error {
	return fs.withLock(ctx, path, "mkdir", func() error {
		return fs.inner.Mkdir(ctx, path, mode, info)
	})
}

func (fs *Fs) Readdir(ctx context.Context, path string) (names []string, err error) {
	err = fs.withLock(ctx, path, "readdir", func() error {
		names, err = fs.inner.Readdir(ctx, path)
		return err
	})
	return
}

func (fs *Fs) Link(ctx context.Context, src, dst string) error {
	return fs.withLock(ctx, src, "link", func() error {
		return fs.inner.Link(ctx, src, dst)
	})
}

func (fs *Fs) Symlink(ctx context.Context, target, linkPath string, info vfs.CreateInfo) error {
	return fs.withLock(ctx, linkPath, "symlink", func() error {
		return fs.inner.Symlink(ctx, target, linkPath, info)
	})
}

func (fs *Fs) Readlink(ctx context.Context, path string) (target string, err error) {
	err = fs.withLock(ctx, path, "readlink", func() error {
		target, err = fs.inner.Readlink(ctx, path)
		return err
	})
	return
}

func (fs *Fs) Chmod(ctx context.Context, path string, mode uint32) error {
	return fs.withLock(ctx, path, "chmod", func() error {
		return fs.inner.Chmod(ctx, path, mode)
	})
}

func (fs *Fs) Chown(ctx context.Context, path string, uid, gid uint32) error {
	return fs.withLock(ctx, path, "chown", func() error {
		return fs.inner.Chown(ctx, path, uid, gid)
	})
}

func (fs *Fs) Utimes(ctx context.Context, path string, atime, mtime int64) error {
	return fs.withLock(ctx, path, "utimes", func() error {
		return fs.inner.Utimes(ctx, path, atime, mtime)
	})
}

func (fs *Fs) Sync(ctx context.Context, path string, data []byte, stats *vfs.Stat) error {
	return fs.withLock(ctx, path, "sync", func() error {
		return fs.inner.Sync(ctx, path, data, stats)
	})
}

func (fs *Fs) Statfs(ctx context.Context) (sf vfs.Statfs, err error) {
	err = fs.withLock(ctx, "/", "statfs", func() error {
		sf, err = fs.inner.Statfs(ctx)
		return err
	})
	return
}

// mutexHandle wraps a Handle so that operations on an already-open file
// still serialize through the owning Fs's lock queue, per spec.md §4.6:
// "every public method acquires a lock".
type mutexHandle struct {
	fs    *Fs
	path  string
	inner vfs.Handle
}

var _ vfs.Handle = (*mutexHandle)(nil)

func (h *mutexHandle) Read(ctx context.Context, buf []byte, offset int64) (n int, err error) {
	err = h.fs.withLock(ctx, h.path, "read", func() error {
		n, err = h.inner.Read(ctx, buf, offset)
		return err
	})
	return
}

func (h *mutexHandle) Write(ctx context.Context, data []byte, offset int64) (n int, err error) {
	err = h.fs.withLock(ctx, h.path, "write", func() error {
		n, err = h.inner.Write(ctx, data, offset)
		return err
	})
	return
}

func (h *mutexHandle) Stat(ctx context.Context) (st *vfs.Stat, err error) {
	err = h.fs.withLock(ctx, h.path, "fstat", func() error {
		st, err = h.inner.Stat(ctx)
		return err
	})
	return
}

func (h *mutexHandle) Chmod(ctx context.Context, mode uint32) error {
	return h.fs.withLock(ctx, h.path, "fchmod", func() error {
		return h.inner.Chmod(ctx, mode)
	})
}

func (h *mutexHandle) Chown(ctx context.Context, uid, gid uint32) error {
	return h.fs.withLock(ctx, h.path, "fchown", func() error {
		return h.inner.Chown(ctx, uid, gid)
	})
}

func (h *mutexHandle) Utimes(ctx context.Context, atime, mtime int64) error {
	return h.fs.withLock(ctx, h.path, "futimes", func() error {
		return h.inner.Utimes(ctx, atime, mtime)
	})
}

func (h *mutexHandle) Truncate(ctx context.Context, size int64) error {
	return h.fs.withLock(ctx, h.path, "ftruncate", func() error {
		return h.inner.Truncate(ctx, size)
	})
}

func (h *mutexHandle) Sync(ctx context.Context) error {
	return h.fs.withLock(ctx, h.path, "fsync", func() error {
		return h.inner.Sync(ctx)
	})
}

func (h *mutexHandle) Datasync(ctx context.Context) error {
	return h.fs.withLock(ctx, h.path, "fdatasync", func() error {
		return h.inner.Datasync(ctx)
	})
}

func (h *mutexHandle) Close(ctx context.Context) error {
	return h.fs.withLock(ctx, h.path, "close", func() error {
		return h.inner.Close(ctx)
	})
}
