package vfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Rename moves oldPath to newPath. If both resolve to the same mount, the
// rename is delegated to that backend atomically (to the extent the
// backend supports it). Otherwise the VFS falls back to copying bytes and
// unlinking the source, per spec.md §4.5 -- this fallback is not atomic.
func (v *VFS) Rename(ctx context.Context, oldPath, newPath string) error {
	op, err := Normalize(oldPath)
	if err != nil {
		return err
	}
	np, err := Normalize(newPath)
	if err != nil {
		return err
	}
	ro, err := v.resolveMount(op)
	if err != nil {
		return err
	}
	rn, err := v.resolveMount(np)
	if err != nil {
		return err
	}

	if ro.mountPoint == rn.mountPoint {
		err := ro.backend.Rename(ctx, ro.localPath, rn.localPath)
		if err != nil {
			return v.translateErr(err, ro.localPath, op)
		}
		v.watchers.emitChange(EventRename, op)
		v.watchers.emitChange(EventChange, np)
		return nil
	}

	data, err := v.ReadFile(ctx, op, ReadFileOptions{})
	if err != nil {
		return err
	}
	if err := v.WriteFile(ctx, np, data, WriteFileOptions{}); err != nil {
		return err
	}
	if err := v.Unlink(ctx, op); err != nil {
		return err
	}
	v.watchers.emitChange(EventRename, op)
	v.watchers.emitChange(EventChange, np)
	return nil
}

// Link creates a hard link dst pointing at src's backend-local node.
// Hard links are backend-local: a cross-mount Link always fails EXDEV,
// per spec.md §4.5.
func (v *VFS) Link(ctx context.Context, src, dst string) error {
	sp, err := Normalize(src)
	if err != nil {
		return err
	}
	dp, err := Normalize(dst)
	if err != nil {
		return err
	}
	rs, err := v.resolveMount(sp)
	if err != nil {
		return err
	}
	rd, err := v.resolveMount(dp)
	if err != nil {
		return err
	}
	if rs.mountPoint != rd.mountPoint {
		return vfserrors.New(vfserrors.EXDEV, dp).WithSyscall("link")
	}
	err = rs.backend.Link(ctx, rs.localPath, rd.localPath)
	if err == nil {
		v.watchers.emitChange(EventRename, dp)
	}
	return v.translateErr(err, rs.localPath, sp)
}

// CopyFileOptions mirrors spec.md §6's copy_file(+COPYFILE_EXCL).
type CopyFileOptions struct {
	Excl   bool // COPYFILE_EXCL: fail EEXIST if dst already exists
	Caller CreateInfo
}

// CopyFile copies a single regular file's bytes from src to dst.
func (v *VFS) CopyFile(ctx context.Context, src, dst string, opt CopyFileOptions) error {
	if opt.Excl {
		if exists, err := v.Exists(ctx, dst); err != nil {
			return err
		} else if exists {
			return vfserrors.New(vfserrors.EEXIST, dst).WithSyscall("copyfile")
		}
	}
	data, err := v.ReadFile(ctx, src, ReadFileOptions{})
	if err != nil {
		return err
	}
	return v.WriteFile(ctx, dst, data, WriteFileOptions{Caller: opt.Caller})
}

// CpOptions mirrors spec.md §6's
// cp(+recursive/filter/errorOnExist/preserveTimestamps/dereference).
type CpOptions struct {
	Recursive          bool
	ErrorOnExist       bool
	PreserveTimestamps bool
	Dereference        bool
	Filter             func(src string) bool
	Caller             CreateInfo
}

// Cp copies src to dst. Directories require Recursive; Filter, when set,
// is consulted for every source path and a false result skips it (and its
// subtree, for directories).
func (v *VFS) Cp(ctx context.Context, src, dst string, opt CpOptions) error {
	var st *Stat
	var err error
	if opt.Dereference {
		st, err = v.Stat(ctx, src)
	} else {
		st, err = v.Lstat(ctx, src)
	}
	if err != nil {
		return err
	}
	if opt.Filter != nil && !opt.Filter(src) {
		return nil
	}
	if opt.ErrorOnExist {
		if exists, err := v.Exists(ctx, dst); err != nil {
			return err
		} else if exists {
			return vfserrors.New(vfserrors.EEXIST, dst).WithSyscall("cp")
		}
	}

	switch {
	case st.IsDir():
		if !opt.Recursive {
			return vfserrors.New(vfserrors.EISDIR, src).WithSyscall("cp")
		}
		if _, err := v.Mkdir(ctx, dst, st.Perm(), false, opt.Caller); err != nil && !vfserrors.Is(err, vfserrors.EEXIST) {
			return err
		}
		entries, err := v.Readdir(ctx, src, false)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := v.Cp(ctx, Join(src, e.Name), Join(dst, e.Name), opt); err != nil {
				return err
			}
		}
	case st.IsSymlink():
		target, err := v.Readlink(ctx, src)
		if err != nil {
			return err
		}
		if err := v.Symlink(ctx, target, dst, opt.Caller); err != nil && !vfserrors.Is(err, vfserrors.EEXIST) {
			return err
		}
	default:
		if err := v.CopyFile(ctx, src, dst, CopyFileOptions{Caller: opt.Caller}); err != nil {
			return err
		}
	}

	if opt.PreserveTimestamps {
		if err := v.Utimes(ctx, dst, st.Atime, st.Mtime); err != nil {
			return err
		}
	}
	return nil
}

// RmOptions mirrors spec.md §6's rm(+recursive/force).
type RmOptions struct {
	Recursive bool
	Force     bool
}

// Rm removes p. With Force, ENOENT on the top-level target is suppressed;
// children encountered during a recursive walk inherit the same
// suppression, per spec.md §7.
func (v *VFS) Rm(ctx context.Context, p string, opt RmOptions) error {
	return v.rm(ctx, p, opt)
}

func (v *VFS) rm(ctx context.Context, p string, opt RmOptions) error {
	st, err := v.Lstat(ctx, p)
	if err != nil {
		if opt.Force && vfserrors.Is(err, vfserrors.ENOENT) {
			return nil
		}
		return err
	}
	if st.IsDir() {
		if !opt.Recursive {
			return vfserrors.New(vfserrors.EISDIR, p).WithSyscall("rm")
		}
		entries, err := v.Readdir(ctx, p, false)
		if err != nil {
			if opt.Force {
				return nil
			}
			return err
		}
		for _, e := range entries {
			if err := v.rm(ctx, Join(p, e.Name), opt); err != nil {
				return err
			}
		}
		err = v.Rmdir(ctx, p)
	} else {
		err = v.Unlink(ctx, p)
	}
	if err != nil && opt.Force && vfserrors.Is(err, vfserrors.ENOENT) {
		return nil
	}
	return err
}
