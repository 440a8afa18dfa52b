// Package overlayfs layers a writable backend ("upper") over a read-only
// one ("lower"), the way backend/union composes several upstreams behind
// one Fs -- reshaped here from an N-way policy merge to the spec's fixed
// 2-way upper/lower composition, since this module only ever overlays
// exactly one writable layer on one readable layer.
package overlayfs

import (
	"context"
	"io"

	"github.com/keelfs/keelfs/internal/logging"
	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Options configures a Fs.
type Options struct {
	Upper vfs.Backend
	Lower vfs.Backend
	Name  string
}

// Validate checks the two constituent backends are present.
func (o *Options) Validate() error {
	if o.Upper == nil || o.Lower == nil {
		return vfserrors.New(vfserrors.EINVAL, "").WithMessage("overlayfs requires both upper and lower backends")
	}
	if o.Name == "" {
		o.Name = "overlay"
	}
	return nil
}

// Fs is the OverlayFS backend described by spec.md §4.7.
type Fs struct {
	upper vfs.Backend
	lower vfs.Backend
	name  string
	log   *logging.Logger

	dl *deletionLog
}

var _ vfs.Backend = (*Fs)(nil)

// New constructs a Fs, parsing upper's deletion log. A missing log is
// treated as empty, per spec.md §4.7.
func New(ctx context.Context, opt Options) (*Fs, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	f := &Fs{upper: opt.Upper, lower: opt.Lower, name: opt.Name, log: logging.New("overlayfs")}
	dl, err := loadDeletionLog(ctx, opt.Upper)
	if err != nil {
		return nil, err
	}
	f.dl = dl
	return f, nil
}

func (f *Fs) Ready(ctx context.Context) error {
	if err := f.upper.Ready(ctx); err != nil {
		return err
	}
	return f.lower.Ready(ctx)
}

func (f *Fs) Metadata() vfs.Metadata {
	return vfs.Metadata{Name: f.name}
}

// Stat implements spec.md §4.7's stat rule: deleted paths are always
// ENOENT; upper wins when present; a lower-only path is reported
// writable by OR-ing 0o222 into its mode, per the "ambiguous behavior to
// preserve" note -- this bit must stay exactly as specified.
func (f *Fs) Stat(ctx context.Context, path string) (*vfs.Stat, error) {
	f.drainLoggerError()
	if f.dl.has(path) {
		return nil, vfserrors.New(vfserrors.ENOENT, path).WithSyscall("stat")
	}
	st, err := f.upper.Stat(ctx, path)
	if err == nil {
		return st, nil
	}
	if !vfserrors.Is(err, vfserrors.ENOENT) {
		return nil, err
	}
	st, err = f.lower.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	cp := *st
	cp.Mode |= 0o222
	return &cp, nil
}

func (f *Fs) Exists(ctx context.Context, path string) (bool, error) {
	_, err := f.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if vfserrors.Is(err, vfserrors.ENOENT) {
		return false, nil
	}
	return false, err
}

// OpenFile implements spec.md §4.7's open rule: delegate straight to
// upper when it already has the path; otherwise preload lower's full
// contents into memory and hand back a handle bound to the overlay, so a
// later write triggers copy-up.
func (f *Fs) OpenFile(ctx context.Context, path string, flags vfs.OpenFlags) (vfs.Handle, error) {
	f.drainLoggerError()
	if f.dl.has(path) {
		return nil, vfserrors.New(vfserrors.ENOENT, path).WithSyscall("open")
	}
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return nil, err
	} else if exists {
		return f.upper.OpenFile(ctx, path, flags)
	}
	st, err := f.lower.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	h, err := f.lower.OpenFile(ctx, path, vfs.OpenFlags{Readable: true})
	if err != nil {
		return nil, err
	}
	defer h.Close(ctx)
	data := make([]byte, st.Size)
	if st.Size > 0 {
		if _, err := readFull(ctx, h, data); err != nil {
			return nil, err
		}
	}
	return &preloadHandle{f: f, path: path, data: data}, nil
}

func readFull(ctx context.Context, h vfs.Handle, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := h.Read(ctx, buf[total:], int64(total))
		total += n
		if n == 0 {
			if err != nil {
				return total, err
			}
			return total, io.ErrUnexpectedEOF
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CreateFile implements spec.md §4.7's create_file: always created on
// upper, and the path is un-deleted.
func (f *Fs) CreateFile(ctx context.Context, path string, flags vfs.OpenFlags, mode uint32, info vfs.CreateInfo) (vfs.Handle, error) {
	f.drainLoggerError()
	h, err := f.upper.CreateFile(ctx, path, flags, mode, info)
	if err != nil {
		return nil, err
	}
	if err := f.undelete(ctx, path); err != nil {
		return nil, err
	}
	return h, nil
}

// Unlink implements spec.md §4.7's unlink: remove from upper if present;
// if the path is still visible via lower, mark it deleted.
func (f *Fs) Unlink(ctx context.Context, path string) error {
	f.drainLoggerError()
	if _, err := f.Stat(ctx, path); err != nil {
		return err
	}
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		if err := f.upper.Unlink(ctx, path); err != nil {
			return err
		}
	}
	if exists, err := f.lower.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		return f.markDeleted(ctx, path)
	}
	return nil
}

// Rmdir implements spec.md §4.7's rmdir: like unlink, but the merged
// directory must be empty first.
func (f *Fs) Rmdir(ctx context.Context, path string) error {
	f.drainLoggerError()
	entries, err := f.Readdir(ctx, path)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return vfserrors.New(vfserrors.ENOTEMPTY, path).WithSyscall("rmdir")
	}
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		if err := f.upper.Rmdir(ctx, path); err != nil {
			return err
		}
	}
	if exists, err := f.lower.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		return f.markDeleted(ctx, path)
	}
	return nil
}

// Mkdir implements spec.md §4.7's mkdir: fails EEXIST if already visible,
// otherwise ensures the parent chain on upper (copying modes from the
// merged view) before creating path itself.
func (f *Fs) Mkdir(ctx context.Context, path string, mode uint32, info vfs.CreateInfo) error {
	f.drainLoggerError()
	if exists, err := f.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		return vfserrors.New(vfserrors.EEXIST, path).WithSyscall("mkdir")
	}
	if err := f.ensureUpperParents(ctx, path); err != nil {
		return err
	}
	if err := f.upper.Mkdir(ctx, path, mode, info); err != nil {
		return err
	}
	return f.undelete(ctx, path)
}

// Readdir implements spec.md §4.7's readdir: union of upper's and
// lower's listings, filtered against the deletion log, de-duplicated.
func (f *Fs) Readdir(ctx context.Context, path string) ([]string, error) {
	f.drainLoggerError()
	if f.dl.has(path) {
		return nil, vfserrors.New(vfserrors.ENOENT, path).WithSyscall("readdir")
	}
	seen := map[string]bool{}
	var out []string

	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return nil, err
	} else if exists {
		names, err := f.upper.Readdir(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	if exists, err := f.lower.Exists(ctx, path); err != nil {
		return nil, err
	} else if exists {
		names, err := f.lower.Readdir(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			child := vfs.Join(path, n)
			if seen[n] || f.dl.has(child) {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}

	if len(out) == 0 && len(seen) == 0 {
		if _, err := f.Stat(ctx, path); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Rename implements spec.md §4.7's rename: copy-up old, delegate the
// rename to upper, and if old was only present via lower, mark it
// deleted -- new's visibility follows from the upper copy.
func (f *Fs) Rename(ctx context.Context, oldPath, newPath string) error {
	f.drainLoggerError()
	wasLowerOnly, err := f.isLowerOnly(ctx, oldPath)
	if err != nil {
		return err
	}
	if err := f.copyUp(ctx, oldPath); err != nil {
		return err
	}
	if err := f.upper.Rename(ctx, oldPath, newPath); err != nil {
		return err
	}
	if wasLowerOnly {
		return f.markDeleted(ctx, oldPath)
	}
	return nil
}

// Link hard-links within upper only: a lower-only src is copied up to
// upper first, and the link is made there.
func (f *Fs) Link(ctx context.Context, src, dst string) error {
	f.drainLoggerError()
	if err := f.copyUp(ctx, src); err != nil {
		return err
	}
	return f.upper.Link(ctx, src, dst)
}

func (f *Fs) Symlink(ctx context.Context, target, linkPath string, info vfs.CreateInfo) error {
	f.drainLoggerError()
	if err := f.upper.Symlink(ctx, target, linkPath, info); err != nil {
		return err
	}
	return f.undelete(ctx, linkPath)
}

func (f *Fs) Readlink(ctx context.Context, path string) (string, error) {
	f.drainLoggerError()
	if f.dl.has(path) {
		return "", vfserrors.New(vfserrors.ENOENT, path).WithSyscall("readlink")
	}
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return "", err
	} else if exists {
		return f.upper.Readlink(ctx, path)
	}
	return f.lower.Readlink(ctx, path)
}

func (f *Fs) Chmod(ctx context.Context, path string, mode uint32) error {
	f.drainLoggerError()
	if err := f.copyUp(ctx, path); err != nil {
		return err
	}
	return f.upper.Chmod(ctx, path, mode)
}

func (f *Fs) Chown(ctx context.Context, path string, uid, gid uint32) error {
	f.drainLoggerError()
	if err := f.copyUp(ctx, path); err != nil {
		return err
	}
	return f.upper.Chown(ctx, path, uid, gid)
}

func (f *Fs) Utimes(ctx context.Context, path string, atime, mtime int64) error {
	f.drainLoggerError()
	if err := f.copyUp(ctx, path); err != nil {
		return err
	}
	return f.upper.Utimes(ctx, path, atime, mtime)
}

// Sync implements spec.md §4.7's sync: copy-up if needed, then delegate
// to upper.
func (f *Fs) Sync(ctx context.Context, path string, data []byte, stats *vfs.Stat) error {
	f.drainLoggerError()
	if err := f.copyUp(ctx, path); err != nil && !vfserrors.Is(err, vfserrors.ENOENT) {
		return err
	}
	if err := f.upper.Sync(ctx, path, data, stats); err != nil {
		return err
	}
	return f.undelete(ctx, path)
}

func (f *Fs) Statfs(ctx context.Context) (vfs.Statfs, error) {
	return f.upper.Statfs(ctx)
}

func (f *Fs) isLowerOnly(ctx context.Context, path string) (bool, error) {
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return false, err
	} else if exists {
		return false, nil
	}
	return f.lower.Exists(ctx, path)
}

func (f *Fs) undelete(ctx context.Context, path string) error {
	if !f.dl.has(path) {
		return nil
	}
	f.dl.remove(path)
	return f.dl.scheduleFlush(ctx, f.upper)
}

func (f *Fs) markDeleted(ctx context.Context, path string) error {
	f.dl.add(path)
	return f.dl.scheduleFlush(ctx, f.upper)
}

func (f *Fs) drainLoggerError() {
	if err := f.dl.takeLatchedError(); err != nil {
		f.log.Errorf("deletion log flush failed: %s", err)
	}
}
