package vfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Realpath returns p's canonical, absolute, symlink-free form, per
// spec.md §4.1. If the final node does not exist, Realpath returns the
// path with its parent directories resolved (the normalized input path
// when no parent is a symlink) rather than an error -- callers such as
// open('w') rely on this to succeed against a path that doesn't exist
// yet (spec.md §9, "ambiguous behavior to preserve as-is").
func (v *VFS) Realpath(ctx context.Context, p string) (string, error) {
	np, err := Normalize(p)
	if err != nil {
		return "", err
	}
	hops := 0
	return v.realpath(ctx, np, &hops)
}

func (v *VFS) realpath(ctx context.Context, p string, hops *int) (string, error) {
	if IsRoot(p) {
		return "/", nil
	}
	dir, base := Split(p)
	rdir, err := v.realpath(ctx, dir, hops)
	if err != nil {
		return "", err
	}
	joined := Join(rdir, base)

	r, err := v.resolveMount(joined)
	if err != nil {
		return "", err
	}
	st, err := r.backend.Stat(ctx, r.localPath)
	if err != nil {
		if vfserrors.Is(err, vfserrors.ENOENT) {
			// Missing node: spec.md explicitly wants the input path
			// back, not an error, so callers like open('w') succeed.
			return joined, nil
		}
		return "", v.translateErr(err, r.localPath, joined)
	}
	if !st.IsSymlink() {
		return joined, nil
	}

	*hops++
	if *hops > v.opts.SymlinkRecursionLimit {
		return "", vfserrors.New(vfserrors.ELOOP, joined).WithSyscall("realpath")
	}
	target, err := r.backend.Readlink(ctx, r.localPath)
	if err != nil {
		return "", v.translateErr(err, r.localPath, joined)
	}
	var next string
	if len(target) > 0 && target[0] == '/' {
		next = target
	} else {
		next = Join(rdir, target)
	}
	return v.realpath(ctx, next, hops)
}

// lstatLocal resolves only p's parent directory through Realpath (so
// symlinked parent directories are still followed), then stats the final
// path component itself without following a trailing symlink, per POSIX
// lstat semantics.
func (v *VFS) lstatLocal(ctx context.Context, p string) (string, *Stat, error) {
	np, err := Normalize(p)
	if err != nil {
		return "", nil, err
	}
	if IsRoot(np) {
		r, err := v.resolveMount(np)
		if err != nil {
			return "", nil, err
		}
		st, err := r.backend.Stat(ctx, r.localPath)
		return np, st, v.translateErr(err, r.localPath, np)
	}
	dir, base := Split(np)
	rdir, err := v.Realpath(ctx, dir)
	if err != nil {
		return "", nil, err
	}
	joined := Join(rdir, base)
	r, err := v.resolveMount(joined)
	if err != nil {
		return "", nil, err
	}
	st, err := r.backend.Stat(ctx, r.localPath)
	if err != nil {
		return "", nil, v.translateErr(err, r.localPath, joined)
	}
	return joined, st, nil
}
