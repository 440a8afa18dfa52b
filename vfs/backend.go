package vfs

import "context"

// CreateInfo carries the uid/gid a newly created node should be owned by,
// mirroring spec.md's create_file(path, flag, mode, {uid, gid}).
type CreateInfo struct {
	UID uint32
	GID uint32
}

// Metadata describes a backend's identity and optional capabilities, per
// spec.md §6's backend interface.
type Metadata struct {
	Name     string
	ReadOnly bool
	Features []string
}

// HasFeature reports whether m advertises feature, e.g. "setid" (the
// backend itself applies inherited setuid/setgid bits on create, so the
// VFS dispatcher should not do it).
func (m Metadata) HasFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Backend is the contract the VFS requires of every mounted filesystem.
// All methods take backend-local paths: the dispatcher has already
// stripped the mount point prefix before calling in. Implementations must
// be safe for concurrent use unless wrapped in mutexfs, in which case the
// wrapper itself serializes calls and the inner backend never sees
// concurrent entry.
type Backend interface {
	// Ready reports whether the backend has finished any async
	// initialization (e.g. parsing an overlay's deletion log).
	Ready(ctx context.Context) error
	Metadata() Metadata

	Stat(ctx context.Context, path string) (*Stat, error)
	Exists(ctx context.Context, path string) (bool, error)

	OpenFile(ctx context.Context, path string, flags OpenFlags) (Handle, error)
	CreateFile(ctx context.Context, path string, flags OpenFlags, mode uint32, info CreateInfo) (Handle, error)

	Rename(ctx context.Context, oldPath, newPath string) error
	Unlink(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Mkdir(ctx context.Context, path string, mode uint32, info CreateInfo) error
	Readdir(ctx context.Context, path string) ([]string, error)

	Link(ctx context.Context, src, dst string) error
	Symlink(ctx context.Context, target, linkPath string, info CreateInfo) error
	Readlink(ctx context.Context, path string) (string, error)

	Chmod(ctx context.Context, path string, mode uint32) error
	Chown(ctx context.Context, path string, uid, gid uint32) error
	Utimes(ctx context.Context, path string, atime, mtime int64) error

	// Sync writes data (which may be nil, meaning "no content change")
	// and/or stats to path, used by the overlay's copy-up and by plain
	// writes that don't go through a Handle.
	Sync(ctx context.Context, path string, data []byte, stats *Stat) error

	Statfs(ctx context.Context) (Statfs, error)
}

// Statfs summarizes a backend's capacity, per spec.md's statfs operation.
type Statfs struct {
	TotalBytes uint64
	FreeBytes  uint64
	TotalNodes uint64
	FreeNodes  uint64
}

// Handle is the per-open-file object a Backend hands back from OpenFile or
// CreateFile. All offsets are absolute; position tracking across null
// positions is the VFS dispatcher's job, not the Handle's.
type Handle interface {
	Read(ctx context.Context, buf []byte, offset int64) (n int, err error)
	Write(ctx context.Context, data []byte, offset int64) (n int, err error)
	Stat(ctx context.Context) (*Stat, error)
	Chmod(ctx context.Context, mode uint32) error
	Chown(ctx context.Context, uid, gid uint32) error
	Utimes(ctx context.Context, atime, mtime int64) error
	Truncate(ctx context.Context, size int64) error
	Sync(ctx context.Context) error
	Datasync(ctx context.Context) error
	Close(ctx context.Context) error
}
