package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Print a path's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := theVFS.Stat(rootCtx(), args[0])
		if err != nil {
			return err
		}
		kind := "regular"
		switch {
		case st.IsDir():
			kind = "directory"
		case st.IsSymlink():
			kind = "symlink"
		}
		fmt.Printf("type:  %s\n", kind)
		fmt.Printf("mode:  %04o\n", st.Perm())
		fmt.Printf("size:  %d\n", st.Size)
		fmt.Printf("uid:   %d\n", st.UID)
		fmt.Printf("gid:   %d\n", st.GID)
		fmt.Printf("mtime: %d\n", st.Mtime)
		return nil
	},
}
