package main

import (
	"context"

	"github.com/keelfs/keelfs/vfs"
)

// rootCtx is the background context every command dispatches with.
// keelfsctl does not support cancellation mid-command -- each subcommand
// runs to completion or fails outright.
func rootCtx() context.Context { return context.Background() }

// caller is the identity every CLI-driven operation runs as. keelfsctl
// has no authentication layer of its own; it always acts as root (uid
// 0), matching HasAccess's root-bypass rule.
func caller() vfs.CreateInfo { return vfs.CreateInfo{} }

func callCtx() vfs.CallContext { return vfs.CallContext{} }
