package vfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// OpenOptions controls Open's behavior beyond the flag string.
type OpenOptions struct {
	Mode           uint32
	Caller         CallContext
	ResolveSymlinks bool
}

// Open implements spec.md §4.3.1's open algorithm: normalize (by the
// caller, via Realpath when requested), dispatch to the owning mount,
// stat the target, and either open it or create it per the parsed flags,
// registering the resulting handle in the FD table.
func (v *VFS) Open(ctx context.Context, p string, flag string, opt OpenOptions) (int32, error) {
	f, err := ParseFlags(flag)
	if err != nil {
		return -1, err
	}

	target := p
	if opt.ResolveSymlinks {
		rp, err := v.Realpath(ctx, p)
		if err != nil {
			return -1, err
		}
		target = rp
	} else {
		np, err := Normalize(p)
		if err != nil {
			return -1, err
		}
		target = np
	}

	r, err := v.resolveMount(target)
	if err != nil {
		return -1, err
	}

	st, statErr := r.backend.Stat(ctx, r.localPath)
	switch {
	case statErr != nil && vfserrors.Is(statErr, vfserrors.ENOENT):
		handle, err := v.createMissing(ctx, r, target, f, opt)
		if err != nil {
			return -1, err
		}
		fd := v.fds.add(newOpenFile(target, f, handle))
		v.watchers.emitChange(EventRename, target)
		return fd, nil
	case statErr != nil:
		return -1, v.translateErr(statErr, r.localPath, target)
	default:
		return v.openExisting(ctx, r, target, f, st, opt)
	}
}

// createMissing handles spec.md step 3: the target doesn't exist.
func (v *VFS) createMissing(ctx context.Context, r resolved, target string, f OpenFlags, opt OpenOptions) (Handle, error) {
	if !f.Writable && !f.Appendable {
		return nil, vfserrors.New(vfserrors.ENOENT, target).WithSyscall("open")
	}
	if f.raw == "r+" {
		return nil, vfserrors.New(vfserrors.ENOENT, target).WithSyscall("open")
	}

	parent, _ := Split(target)
	pr, err := v.resolveMount(parent)
	if err != nil {
		return nil, err
	}
	pst, err := pr.backend.Stat(ctx, pr.localPath)
	if err != nil {
		return nil, v.translateErr(err, pr.localPath, parent)
	}
	if !pst.IsDir() {
		return nil, vfserrors.New(vfserrors.ENOTDIR, parent).WithSyscall("open")
	}
	if !pst.HasAccess(opt.Caller, W_OK) {
		return nil, vfserrors.New(vfserrors.EACCES, parent).WithSyscall("open")
	}

	mode := opt.Mode
	if mode == 0 {
		mode = DefaultFileMode & PermMask
	}
	// Inherit setuid/setgid from the parent directory unless the
	// backend says it does that itself (spec.md §4.3.1 step 3c).
	if !r.backend.Metadata().HasFeature("setid") {
		mode |= pst.Mode & (S_ISUID | S_ISGID)
	}

	handle, err := r.backend.CreateFile(ctx, r.localPath, f, mode, CreateInfo{UID: opt.Caller.UID, GID: opt.Caller.GID})
	if err != nil {
		return nil, v.translateErr(err, r.localPath, target)
	}
	return handle, nil
}

// openExisting handles spec.md step 4: the target exists.
func (v *VFS) openExisting(ctx context.Context, r resolved, target string, f OpenFlags, st *Stat, opt OpenOptions) (int32, error) {
	if !st.HasAccess(opt.Caller, flagToMode(f)) {
		return -1, vfserrors.New(vfserrors.EACCES, target).WithSyscall("open")
	}
	if f.Exclusive {
		return -1, vfserrors.New(vfserrors.EEXIST, target).WithSyscall("open")
	}
	handle, err := r.backend.OpenFile(ctx, r.localPath, f)
	if err != nil {
		return -1, v.translateErr(err, r.localPath, target)
	}
	if f.Truncate {
		if err := handle.Truncate(ctx, 0); err != nil {
			_ = handle.Close(ctx)
			return -1, v.translateErr(err, r.localPath, target)
		}
	}
	fd := v.fds.add(newOpenFile(target, f, handle))
	return fd, nil
}

// Opendir opens p as a directory stream handle: this VFS models it as an
// ordinary Readdir snapshot rather than a live cursor, since the Backend
// contract has no incremental directory-reading primitive (spec.md's
// readdir is already a full-listing call).
type Dir struct {
	Path    string
	entries []DirEntry
	pos     int
}

// Read returns the next entry, or ok=false once exhausted.
func (d *Dir) Read() (DirEntry, bool) {
	if d.pos >= len(d.entries) {
		return DirEntry{}, false
	}
	e := d.entries[d.pos]
	d.pos++
	return e, true
}

// Close releases the directory stream. No backend resources are held, so
// this is a no-op kept for symmetry with Close(fd).
func (d *Dir) Close() error { return nil }

func (v *VFS) Opendir(ctx context.Context, p string) (*Dir, error) {
	entries, err := v.Readdir(ctx, p, true)
	if err != nil {
		return nil, err
	}
	np, _ := Normalize(p)
	return &Dir{Path: np, entries: entries}, nil
}
