// Package main provides keelfsctl, a command-line front end over a
// keelfs.VFS instance, grounded on rclone's own cobra.Command tree
// (backend/torrent/cmd mounts one root command and attaches leaves to
// it in init()).
package main

import (
	"fmt"
	"os"

	"github.com/keelfs/keelfs/internal/logging"
	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/memfs"
	"github.com/keelfs/keelfs/vfs/overlayfs"
	"github.com/spf13/cobra"
)

// theVFS is the single namespace every subcommand dispatches against.
// keelfsctl is a demonstration CLI, not a daemon: state does not survive
// past one invocation, matching the in-memory, non-persistent nature of
// memfs.
var theVFS *vfs.VFS

var log = logging.New("keelfsctl")

var overlayMode bool

// rootCmd is the command tree's entry point, mirroring the teacher's
// commandDefinition / cmd.Root split: here both collapse into one since
// this CLI has no separate backend-registration step.
var rootCmd = &cobra.Command{
	Use:   "keelfsctl",
	Short: "Inspect and drive an in-process keelfs virtual file system",
	Long: `keelfsctl mounts a fresh keelfs.VFS backed by an in-memory
reference filesystem and runs a single operation against it.

Because the VFS is entirely in-process, every invocation starts from an
empty filesystem -- keelfsctl is a demonstration and scripting tool for
the dispatch path, not a way to manage persistent state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupVFS()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&overlayMode, "overlay", false, "mount a writable overlay at /overlay-src backed by an empty upper and the root memfs as lower")
	rootCmd.AddCommand(lsCmd, catCmd, writeCmd, rmCmd, mkdirCmd, mvCmd, statCmd, watchCmd)
}

func setupVFS() error {
	clock := func() int64 { return 0 }
	root, err := memfs.New(memfs.Options{Name: "root"}, clock)
	if err != nil {
		return err
	}
	v, err := vfs.New(vfs.Options{Root: root})
	if err != nil {
		return err
	}
	theVFS = v

	if overlayMode {
		upper, err := memfs.New(memfs.Options{Name: "overlay-upper"}, clock)
		if err != nil {
			return err
		}
		if _, err := v.Mkdir(rootCtx(), "/overlay-src", vfs.DefaultDirMode&vfs.PermMask, false, vfs.CreateInfo{}); err != nil {
			return err
		}
		ov, err := overlayfs.New(rootCtx(), overlayfs.Options{Upper: upper, Lower: root, Name: "demo-overlay"})
		if err != nil {
			return err
		}
		if err := v.Mount(rootCtx(), "/overlay-src", ov); err != nil {
			return err
		}
		log.Infof("mounted demo overlay at /overlay-src")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
