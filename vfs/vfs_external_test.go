package vfs_test

import (
	"testing"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/memfs"
	"github.com/stretchr/testify/require"
)

func newTestVFS(t *testing.T) *vfs.VFS {
	t.Helper()
	root, err := memfs.New(memfs.Options{}, func() int64 { return 0 })
	require.NoError(t, err)
	v, err := vfs.New(vfs.Options{Root: root})
	require.NoError(t, err)
	return v
}
