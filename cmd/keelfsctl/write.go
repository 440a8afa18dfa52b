package main

import (
	"github.com/keelfs/keelfs/vfs"
	"github.com/spf13/cobra"
)

var writeAppend bool

var writeCmd = &cobra.Command{
	Use:   "write <path> <content>",
	Short: "Write (or append) content to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, content := args[0], args[1]
		opt := vfs.WriteFileOptions{Mode: vfs.DefaultFileMode & vfs.PermMask, Caller: caller()}
		if writeAppend {
			return theVFS.AppendFile(rootCtx(), path, []byte(content), opt)
		}
		return theVFS.WriteFile(rootCtx(), path, []byte(content), opt)
	},
}

func init() {
	writeCmd.Flags().BoolVarP(&writeAppend, "append", "a", false, "append instead of overwriting")
}
