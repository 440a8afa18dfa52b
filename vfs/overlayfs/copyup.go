package overlayfs

import (
	"context"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// copyUp materializes a lower-only path on upper so it can be modified,
// per spec.md §4.7's "Copy-up" paragraph: ensure the parent chain exists
// on upper (copying each ancestor's mode from the merged view), then copy
// path's full contents across with mode | 0o222. A no-op if path is
// already on upper.
func (f *Fs) copyUp(ctx context.Context, path string) error {
	if exists, err := f.upper.Exists(ctx, path); err != nil {
		return err
	} else if exists {
		return nil
	}
	st, err := f.lower.Stat(ctx, path)
	if err != nil {
		return err
	}
	if err := f.ensureUpperParents(ctx, path); err != nil {
		return err
	}
	if st.IsDir() {
		return f.upper.Mkdir(ctx, path, st.Perm()|0o222, vfs.CreateInfo{UID: st.UID, GID: st.GID})
	}
	if st.IsSymlink() {
		target, err := f.lower.Readlink(ctx, path)
		if err != nil {
			return err
		}
		return f.upper.Symlink(ctx, target, path, vfs.CreateInfo{UID: st.UID, GID: st.GID})
	}

	data, err := readLowerFile(ctx, f.lower, path, st.Size)
	if err != nil {
		return err
	}
	cp := *st
	cp.Mode = st.Mode | 0o222
	return f.upper.Sync(ctx, path, data, &cp)
}

func readLowerFile(ctx context.Context, backend vfs.Backend, path string, size uint64) ([]byte, error) {
	h, err := backend.OpenFile(ctx, path, vfs.OpenFlags{Readable: true})
	if err != nil {
		return nil, err
	}
	defer h.Close(ctx)
	data := make([]byte, size)
	if size > 0 {
		if _, err := readFull(ctx, h, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// ensureUpperParents walks path's ancestor chain from root, creating any
// directory missing on upper with the mode of the corresponding node in
// the merged view.
func (f *Fs) ensureUpperParents(ctx context.Context, path string) error {
	dir, _ := vfs.Split(path)
	if vfs.IsRoot(dir) {
		return nil
	}
	var chain []string
	for !vfs.IsRoot(dir) {
		chain = append(chain, dir)
		dir, _ = vfs.Split(dir)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		if exists, err := f.upper.Exists(ctx, p); err != nil {
			return err
		} else if exists {
			continue
		}
		st, err := f.Stat(ctx, p)
		if err != nil {
			if vfserrors.Is(err, vfserrors.ENOENT) {
				return vfserrors.New(vfserrors.ENOENT, path).WithSyscall("mkdir")
			}
			return err
		}
		if err := f.upper.Mkdir(ctx, p, st.Perm(), vfs.CreateInfo{UID: st.UID, GID: st.GID}); err != nil {
			return err
		}
	}
	return nil
}
