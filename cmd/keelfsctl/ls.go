package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory's entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		entries, err := theVFS.Readdir(rootCtx(), path, lsLong)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if lsLong && e.Stat != nil {
				kind := "-"
				switch {
				case e.Stat.IsDir():
					kind = "d"
				case e.Stat.IsSymlink():
					kind = "l"
				}
				fmt.Printf("%s%04o %8d %s\n", kind, e.Stat.Perm(), e.Stat.Size, e.Name)
				continue
			}
			fmt.Println(e.Name)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show mode, size, and type for each entry")
}
