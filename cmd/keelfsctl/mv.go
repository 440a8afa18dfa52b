package main

import "github.com/spf13/cobra"

var mvCmd = &cobra.Command{
	Use:   "mv <old> <new>",
	Short: "Rename or move a file, falling back to copy+unlink across mounts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return theVFS.Rename(rootCtx(), args[0], args[1])
	},
}
