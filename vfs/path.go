package vfs

import (
	"strings"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Normalize rejects null bytes and the empty string, collapses repeated
// separators, resolves "." and ".." segments without touching any backend,
// and returns an absolute path rooted at "/". It never fails for a
// syntactically valid non-empty path: "." and ".." above root collapse to
// "/", matching the teacher's union-root-path cleaning rather than erroring.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", vfserrors.New(vfserrors.EINVAL, p).WithMessage("empty path")
	}
	if strings.IndexByte(p, 0) >= 0 {
		return "", vfserrors.New(vfserrors.EINVAL, p).WithMessage("path contains a null byte")
	}
	segments := strings.Split(p, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// skip: repeated slash or current-dir marker
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/"), nil
}

// Join normalizes the concatenation of an already-normalized base and a
// relative or absolute child segment.
func Join(base, child string) string {
	if strings.HasPrefix(child, "/") {
		n, _ := Normalize(child)
		return n
	}
	n, _ := Normalize(base + "/" + child)
	return n
}

// Split divides a normalized path into its parent directory and base name.
// Split("/") returns ("/", "").
func Split(p string) (dir, base string) {
	if p == "/" {
		return "/", ""
	}
	idx := strings.LastIndexByte(p, '/')
	dir = p[:idx]
	if dir == "" {
		dir = "/"
	}
	base = p[idx+1:]
	return dir, base
}

// IsRoot reports whether p is the filesystem root.
func IsRoot(p string) bool { return p == "/" }
