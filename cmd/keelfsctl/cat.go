package main

import (
	"fmt"
	"os"

	"github.com/keelfs/keelfs/vfs"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := theVFS.ReadFile(rootCtx(), args[0], vfs.ReadFileOptions{Caller: callCtx()})
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		if err == nil && (len(data) == 0 || data[len(data)-1] != '\n') {
			fmt.Println()
		}
		return err
	},
}
