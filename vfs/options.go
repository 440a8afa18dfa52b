package vfs

import "github.com/keelfs/keelfs/vfs/vfserrors"

// Options configures a VFS instance. Tagged option struct + Validate,
// per spec.md §9's "dynamic option objects -> tagged option structs"
// design note: no reflection-driven schema, just a typed struct checked
// directly.
type Options struct {
	// Root is the backend mounted at "/". Required.
	Root Backend
	// SymlinkRecursionLimit bounds realpath's symlink-following
	// recursion (spec.md §4.1 default: 40).
	SymlinkRecursionLimit int
}

// Validate checks o for internal consistency, filling in defaults.
func (o *Options) Validate() error {
	if o.Root == nil {
		return vfserrors.New(vfserrors.EINVAL, "/").WithMessage("vfs.Options.Root is required")
	}
	if o.SymlinkRecursionLimit == 0 {
		o.SymlinkRecursionLimit = 40
	}
	if o.SymlinkRecursionLimit < 0 {
		return vfserrors.New(vfserrors.EINVAL, "").WithMessage("SymlinkRecursionLimit must be >= 0")
	}
	return nil
}
