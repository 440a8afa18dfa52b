package vfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Stat resolves p through Realpath (following any symlink p names) and
// returns the target's status.
func (v *VFS) Stat(ctx context.Context, p string) (*Stat, error) {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return nil, err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return nil, err
	}
	st, err := r.backend.Stat(ctx, r.localPath)
	return st, v.translateErr(err, r.localPath, rp)
}

// Lstat is like Stat but does not follow a symlink named by p's final
// component.
func (v *VFS) Lstat(ctx context.Context, p string) (*Stat, error) {
	_, st, err := v.lstatLocal(ctx, p)
	return st, err
}

// Exists never raises: it maps ENOENT to false and propagates any other
// error, per spec.md §7.
func (v *VFS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := v.Stat(ctx, p)
	if err == nil {
		return true, nil
	}
	if vfserrors.Is(err, vfserrors.ENOENT) {
		return false, nil
	}
	return false, err
}

// Access checks that the caller (ctx) can satisfy mode (R_OK|W_OK|X_OK)
// against p, failing EACCES otherwise.
func (v *VFS) Access(ctx context.Context, p string, mode uint32, caller CallContext) error {
	st, err := v.Stat(ctx, p)
	if err != nil {
		return err
	}
	if mode == 0 {
		return nil
	}
	if !st.HasAccess(caller, mode) {
		return vfserrors.New(vfserrors.EACCES, p).WithSyscall("access")
	}
	return nil
}

// Readlink returns the target of the symlink at p without following it.
func (v *VFS) Readlink(ctx context.Context, p string) (string, error) {
	joined, st, err := v.lstatLocal(ctx, p)
	if err != nil {
		return "", err
	}
	if !st.IsSymlink() {
		return "", vfserrors.New(vfserrors.EINVAL, p).WithSyscall("readlink").WithMessage("not a symbolic link")
	}
	r, err := v.resolveMount(joined)
	if err != nil {
		return "", err
	}
	target, err := r.backend.Readlink(ctx, r.localPath)
	return target, v.translateErr(err, r.localPath, joined)
}

// Symlink creates a symlink at linkPath pointing at target. It takes no
// link-type argument: this VFS has no Windows junction distinction.
func (v *VFS) Symlink(ctx context.Context, target, linkPath string, caller CreateInfo) error {
	np, err := Normalize(linkPath)
	if err != nil {
		return err
	}
	if exists, err := v.Exists(ctx, np); err != nil {
		return err
	} else if exists {
		return vfserrors.New(vfserrors.EEXIST, np).WithSyscall("symlink")
	}
	r, err := v.resolveMount(np)
	if err != nil {
		return err
	}
	err = r.backend.Symlink(ctx, target, r.localPath, caller)
	if err == nil {
		v.watchers.emitChange(EventRename, np)
	}
	return v.translateErr(err, r.localPath, np)
}

// Chmod sets p's (following symlinks) permission bits.
func (v *VFS) Chmod(ctx context.Context, p string, mode uint32) error {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return err
	}
	err = r.backend.Chmod(ctx, r.localPath, mode)
	if err == nil {
		v.watchers.emitChange(EventChange, rp)
	}
	return v.translateErr(err, r.localPath, rp)
}

// Lchmod is Chmod without following a trailing symlink.
func (v *VFS) Lchmod(ctx context.Context, p string, mode uint32) error {
	joined, _, err := v.lstatLocal(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(joined)
	if err != nil {
		return err
	}
	err = r.backend.Chmod(ctx, r.localPath, mode)
	return v.translateErr(err, r.localPath, joined)
}

// Chown sets p's (following symlinks) owning uid/gid.
func (v *VFS) Chown(ctx context.Context, p string, uid, gid uint32) error {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return err
	}
	err = r.backend.Chown(ctx, r.localPath, uid, gid)
	return v.translateErr(err, r.localPath, rp)
}

// Lchown is Chown without following a trailing symlink.
func (v *VFS) Lchown(ctx context.Context, p string, uid, gid uint32) error {
	joined, _, err := v.lstatLocal(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(joined)
	if err != nil {
		return err
	}
	err = r.backend.Chown(ctx, r.localPath, uid, gid)
	return v.translateErr(err, r.localPath, joined)
}

// Utimes sets p's (following symlinks) access/modification times.
func (v *VFS) Utimes(ctx context.Context, p string, atime, mtime int64) error {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return err
	}
	err = r.backend.Utimes(ctx, r.localPath, atime, mtime)
	return v.translateErr(err, r.localPath, rp)
}

// Lutimes is Utimes without following a trailing symlink.
func (v *VFS) Lutimes(ctx context.Context, p string, atime, mtime int64) error {
	joined, _, err := v.lstatLocal(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(joined)
	if err != nil {
		return err
	}
	err = r.backend.Utimes(ctx, r.localPath, atime, mtime)
	return v.translateErr(err, r.localPath, joined)
}

// Truncate resolves p and truncates it to size, without needing an open
// file descriptor.
func (v *VFS) Truncate(ctx context.Context, p string, size int64) error {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return err
	}
	h, err := r.backend.OpenFile(ctx, r.localPath, OpenFlags{Readable: true, Writable: true, raw: "r+"})
	if err != nil {
		return v.translateErr(err, r.localPath, rp)
	}
	defer h.Close(ctx)
	err = h.Truncate(ctx, size)
	if err == nil {
		v.watchers.emitChange(EventChange, rp)
	}
	return v.translateErr(err, r.localPath, rp)
}

// Mkdir creates a directory at p. With recursive, missing ancestors are
// created with mode and a second call on the same path is a silent no-op,
// matching spec.md §8's mkdir-recursive idempotence property.
func (v *VFS) Mkdir(ctx context.Context, p string, mode uint32, recursive bool, caller CreateInfo) (string, error) {
	np, err := Normalize(p)
	if err != nil {
		return "", err
	}
	if !recursive {
		return "", v.mkdirOne(ctx, np, mode, caller)
	}
	return v.mkdirAll(ctx, np, mode, caller)
}

func (v *VFS) mkdirOne(ctx context.Context, np string, mode uint32, caller CreateInfo) error {
	r, err := v.resolveMount(np)
	if err != nil {
		return err
	}
	err = r.backend.Mkdir(ctx, r.localPath, mode, caller)
	if err == nil {
		v.watchers.emitChange(EventRename, np)
	}
	return v.translateErr(err, r.localPath, np)
}

// mkdirAll walks up to the first existing ancestor, then creates every
// missing component down to np, returning the first directory it created
// (spec.md §8 scenario 1: mkdir('/a/b/c', recursive) returns '/a').
func (v *VFS) mkdirAll(ctx context.Context, np string, mode uint32, caller CreateInfo) (string, error) {
	if exists, err := v.Exists(ctx, np); err != nil {
		return "", err
	} else if exists {
		st, err := v.Stat(ctx, np)
		if err != nil {
			return "", err
		}
		if !st.IsDir() {
			return "", vfserrors.New(vfserrors.ENOTDIR, np).WithSyscall("mkdir")
		}
		return "", nil
	}
	parent, _ := Split(np)
	var firstCreated string
	if parent != np {
		created, err := v.mkdirAll(ctx, parent, mode, caller)
		if err != nil {
			return "", err
		}
		firstCreated = created
	}
	if err := v.mkdirOne(ctx, np, mode, caller); err != nil {
		return "", err
	}
	if firstCreated != "" {
		return firstCreated, nil
	}
	return np, nil
}

// Rmdir removes the empty directory at p.
func (v *VFS) Rmdir(ctx context.Context, p string) error {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return err
	}
	err = r.backend.Rmdir(ctx, r.localPath)
	if err == nil {
		v.watchers.emitChange(EventRename, rp)
	}
	return v.translateErr(err, r.localPath, rp)
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name string
	Stat *Stat
}

// Readdir lists p's directory entries, unioned with the basenames of any
// one-level child mount points, de-duplicated, in whatever order the
// backend returns them -- spec.md §9 explicitly says not to sort.
func (v *VFS) Readdir(ctx context.Context, p string, withFileTypes bool) ([]DirEntry, error) {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return nil, err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return nil, err
	}
	names, err := r.backend.Readdir(ctx, r.localPath)
	if err != nil {
		return nil, v.translateErr(err, r.localPath, rp)
	}
	seen := make(map[string]bool, len(names))
	out := make([]DirEntry, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		entry := DirEntry{Name: name}
		if withFileTypes {
			st, err := v.Stat(ctx, Join(rp, name))
			if err == nil {
				entry.Stat = st
			}
		}
		out = append(out, entry)
	}
	for _, name := range v.mounts.childMountBasenames(rp) {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, DirEntry{Name: name})
	}
	return out, nil
}

// Unlink removes the file (or symlink) at p.
func (v *VFS) Unlink(ctx context.Context, p string) error {
	joined, _, err := v.lstatLocal(ctx, p)
	if err != nil {
		return err
	}
	r, err := v.resolveMount(joined)
	if err != nil {
		return err
	}
	err = r.backend.Unlink(ctx, r.localPath)
	if err == nil {
		v.watchers.emitChange(EventRename, joined)
	}
	return v.translateErr(err, r.localPath, joined)
}

// Statfs reports the capacity of the backend mounted at or above p.
func (v *VFS) Statfs(ctx context.Context, p string) (Statfs, error) {
	rp, err := v.Realpath(ctx, p)
	if err != nil {
		return Statfs{}, err
	}
	r, err := v.resolveMount(rp)
	if err != nil {
		return Statfs{}, err
	}
	sf, err := r.backend.Statfs(ctx)
	return sf, v.translateErr(err, r.localPath, rp)
}

// Watch subscribes to change events anywhere under p.
func (v *VFS) Watch(p string) (*Watcher, error) {
	np, err := Normalize(p)
	if err != nil {
		return nil, err
	}
	return v.watchers.subscribe(np), nil
}

// Unwatch ends a subscription created by Watch.
func (v *VFS) Unwatch(p string, w *Watcher) error {
	np, err := Normalize(p)
	if err != nil {
		return err
	}
	v.watchers.unsubscribe(np, w)
	return nil
}

// Glob is out of scope for this module's core (spec.md §1 names the glob
// matcher an external collaborator); Matcher, when non-nil, is invoked
// with every path Readdir walks and only matching paths are returned, so a
// caller can plug in any third-party glob engine without this package
// depending on one.
func (v *VFS) Glob(ctx context.Context, root string, matcher func(path string) bool) ([]string, error) {
	var out []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := v.Readdir(ctx, dir, true)
		if err != nil {
			return err
		}
		for _, e := range entries {
			full := Join(dir, e.Name)
			if matcher == nil || matcher(full) {
				out = append(out, full)
			}
			if e.Stat != nil && e.Stat.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
			}
		}
		return nil
	}
	root, err := Normalize(root)
	if err != nil {
		return nil, err
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// Mkdtemp creates a new uniquely-named directory under prefix's parent,
// using prefix as a literal name stem (callers supply their own
// randomness source via suffix, keeping this package free of a hidden
// dependency on crypto/rand for what is a thin convenience wrapper over
// Mkdir).
func (v *VFS) Mkdtemp(ctx context.Context, prefix, suffix string, caller CreateInfo) (string, error) {
	full := prefix + suffix
	if err := v.mkdirOne(ctx, full, DefaultDirMode&PermMask, caller); err != nil {
		return "", err
	}
	return full, nil
}

