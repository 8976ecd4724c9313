package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

func newUnlinkCommand(ns func() shmio.Namespace, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <name>...",
		Short: "Remove segment files from the namespace.",
		Long: `Unlink removes segment backing files. Processes still attached keep
their mappings; new attaches fail until the segment is recreated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := ns()
			for _, name := range args {
				if err := namespace.Unlink(name); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "unlinked %s\n", namespace.Path(name))
			}
			return nil
		},
	}
}
