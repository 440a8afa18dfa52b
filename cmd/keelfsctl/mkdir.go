package main

import (
	"github.com/keelfs/keelfs/vfs"
	"github.com/spf13/cobra"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := theVFS.Mkdir(rootCtx(), args[0], vfs.DefaultDirMode&vfs.PermMask, mkdirParents, caller())
		return err
	},
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "create missing parent directories")
}
