package main

import (
	"github.com/keelfs/keelfs/vfs"
	"github.com/spf13/cobra"
)

var rmRecursive, rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return theVFS.Rm(rootCtx(), args[0], vfs.RmOptions{Recursive: rmRecursive, Force: rmForce})
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "remove directories and their contents")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "ignore nonexistent paths")
}
