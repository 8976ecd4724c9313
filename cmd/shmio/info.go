package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

func newInfoCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show a segment's shape, flags and keyword table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dump {
				// Reads the file without mapping it, so it also works on
				// segments left behind by crashed peers.
				shmio.DumpSegment(ns().Path(args[0]))
				return nil
			}
			ch, err := shmio.Attach(args[0], &shmio.Options{Namespace: ns()})
			if err != nil {
				return err
			}
			defer ch.Release()
			fmt.Fprint(stdout, ch.DebugString())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "read the backing file instead of attaching")
	return cmd
}
