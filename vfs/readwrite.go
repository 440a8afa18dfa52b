package vfs

import (
	"context"
	"unicode/utf8"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// WriteFileOptions mirrors spec.md §4.4's write_file(p, data, opts).
type WriteFileOptions struct {
	Flag   string // default "w"
	Mode   uint32
	Caller CreateInfo
}

// WriteFile opens p (default flag "w", i.e. create+truncate), writes data
// from offset 0, and closes it.
func (v *VFS) WriteFile(ctx context.Context, p string, data []byte, opt WriteFileOptions) error {
	return v.writeFileWithDefaultFlag(ctx, p, data, opt, "w")
}

// AppendFile is WriteFile with default flag "a" and no pre-truncation.
func (v *VFS) AppendFile(ctx context.Context, p string, data []byte, opt WriteFileOptions) error {
	return v.writeFileWithDefaultFlag(ctx, p, data, opt, "a")
}

func (v *VFS) writeFileWithDefaultFlag(ctx context.Context, p string, data []byte, opt WriteFileOptions, defaultFlag string) error {
	flag := opt.Flag
	if flag == "" {
		flag = defaultFlag
	}
	parsed, err := ParseFlags(flag)
	if err != nil {
		return err
	}
	if !parsed.Writable {
		return vfserrors.New(vfserrors.EINVAL, p).WithMessage("write_file requires a writable flag")
	}

	fd, err := v.Open(ctx, p, flag, OpenOptions{Mode: opt.Mode, Caller: CallContext{UID: opt.Caller.UID, GID: opt.Caller.GID}, ResolveSymlinks: true})
	if err != nil {
		return err
	}
	defer v.Close(ctx, fd)

	_, err = v.Write(ctx, fd, data, 0)
	return err
}

// ReadFileOptions mirrors spec.md §4.4's read side.
type ReadFileOptions struct {
	Flag   string // default "r"
	Caller CallContext
}

// ReadFile opens p (default flag "r"), stats it for size, reads the whole
// file in one call, and closes it.
func (v *VFS) ReadFile(ctx context.Context, p string, opt ReadFileOptions) ([]byte, error) {
	flag := opt.Flag
	if flag == "" {
		flag = "r"
	}
	fd, err := v.Open(ctx, p, flag, OpenOptions{Caller: opt.Caller, ResolveSymlinks: true})
	if err != nil {
		return nil, err
	}
	defer v.Close(ctx, fd)

	st, err := v.Fstat(ctx, fd)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, st.Size)
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := v.Read(ctx, fd, buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ReadFileString is ReadFile with encoding="utf-8" decoding: it fails
// EINVAL if the bytes read are not valid UTF-8, per spec.md §8's
// round-trip property.
func (v *VFS) ReadFileString(ctx context.Context, p string, opt ReadFileOptions) (string, error) {
	data, err := v.ReadFile(ctx, p, opt)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", vfserrors.New(vfserrors.EINVAL, p).WithMessage("file contents are not valid utf-8")
	}
	return string(data), nil
}
