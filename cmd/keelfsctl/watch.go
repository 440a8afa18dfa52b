package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchCount int

// watchCmd subscribes to change events under a path and prints a fixed
// number of them, since keelfsctl has nothing else running in the same
// process to generate events for an unbounded `watch` invocation to wait
// on -- a real caller would run this alongside a program driving the
// same VFS instance.
var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Print change events emitted under a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := theVFS.Watch(args[0])
		if err != nil {
			return err
		}
		defer theVFS.Unwatch(args[0], w)
		for i := 0; i < watchCount; i++ {
			ev, ok := w.Next()
			if !ok {
				return nil
			}
			fmt.Printf("%s %s\n", ev.EventType, ev.Filename)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().IntVarP(&watchCount, "count", "n", 1, "number of events to print before exiting")
}
