// Package vfserrors defines the POSIX error taxonomy the VFS and its
// backends report through. Every failure a Backend or the dispatcher raises
// is one of the codes below, wrapped with the path and syscall that failed.
package vfserrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a POSIX error mnemonic.
type Code string

// The fixed taxonomy this module reports through. No other codes are used.
const (
	ENOENT   Code = "ENOENT"
	EEXIST   Code = "EEXIST"
	EACCES   Code = "EACCES"
	EPERM    Code = "EPERM"
	EINVAL   Code = "EINVAL"
	EBADF    Code = "EBADF"
	EISDIR   Code = "EISDIR"
	ENOTDIR  Code = "ENOTDIR"
	ENOTEMPTY Code = "ENOTEMPTY"
	EXDEV    Code = "EXDEV"
	EBUSY    Code = "EBUSY"
	EDEADLK  Code = "EDEADLK"
	ENOSPC   Code = "ENOSPC"
	EFBIG    Code = "EFBIG"
	ENOSYS   Code = "ENOSYS"
	ENOTSUP  Code = "ENOTSUP"
	ELOOP    Code = "ELOOP"
	EIO      Code = "EIO"
)

// errno holds the small integer POSIX traditionally assigns each code. Only
// used for the Errno field of Error; nothing in this module branches on it.
var errno = map[Code]int{
	EPERM: 1, ENOENT: 2, EIO: 5, EBADF: 9, EACCES: 13, EEXIST: 17,
	ENOTDIR: 20, EISDIR: 21, EINVAL: 22, EFBIG: 27, ENOSPC: 28,
	EXDEV: 18, ENOTEMPTY: 39, ELOOP: 40, ENOSYS: 38, ENOTSUP: 95,
	EBUSY: 16, EDEADLK: 35,
}

// Error is the shape every error this module returns takes.
type Error struct {
	Code    Code
	Errno   int
	Path    string
	Syscall string
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.Syscall != "" && e.Path != "":
		return fmt.Sprintf("%s: %s, %s '%s'", e.Code, msg, e.Syscall, e.Path)
	case e.Path != "":
		return fmt.Sprintf("%s: %s '%s'", e.Code, msg, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap lets errors.Is/errors.As see through to the wrapped backend cause.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is a *Error with the same Code, so callers can
// do errors.Is(err, vfserrors.New(vfserrors.ENOENT, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an Error for code with the given path. It carries no syscall
// name and no wrapped cause; use WithSyscall/WithCause to add them.
func New(code Code, path string) *Error {
	return &Error{Code: code, Errno: errno[code], Path: path}
}

// WithSyscall returns a copy of e annotated with the syscall name.
func (e *Error) WithSyscall(syscall string) *Error {
	cp := *e
	cp.Syscall = syscall
	return &cp
}

// WithMessage returns a copy of e with a human-readable message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithCause returns a copy of e wrapping cause, so Unwrap/errors.Cause
// reaches the original backend error.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = errors.WithStack(cause)
	return &cp
}

// WithPath returns a copy of e with a different path. Used at the dispatch
// boundary to rewrite a backend-local path to its user-facing form.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// As attempts to view err as a *Error, the way errors.As would, but without
// requiring callers to pre-declare a local variable.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the POSIX code of err, or "" if err is not (or does not wrap)
// a *Error.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether err is (or wraps) a *Error with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
