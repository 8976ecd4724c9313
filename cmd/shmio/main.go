// Command shmio inspects and drives shared memory frame channels from the
// shell: creating segments, dumping their state, editing keywords, feeding
// or watching frames, and exporting health and metrics for one segment.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuravih/shmio/pkg/shmio"
)

const version = "0.1.0"

var logLevels = map[string]int{
	"trace": 0,
	"debug": 1,
	"info":  2,
	"warn":  3,
	"error": 4,
	"none":  5,
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var namespaceDir string
	var logLevel string

	rc := &cobra.Command{
		Use:     "shmio",
		Short:   "Inspect and drive shared memory frame channels.",
		Version: version,
		Long: `shmio works with named shared memory segments that carry one typed
frame buffer, a keyword table and a frame handshake between a producer
and a consumer process. Segments live as files under the namespace
directory, /dev/shm by default.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, ok := logLevels[logLevel]
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
			shmio.SetLogLevel(l)
			return nil
		},
	}
	rc.PersistentFlags().StringVarP(&namespaceDir, "namespace", "n", shmio.DefaultNamespaceDir,
		"directory holding segment files")
	rc.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"internal log level (trace, debug, info, warn, error, none)")

	ns := func() shmio.Namespace { return shmio.NamespaceAt(namespaceDir) }

	rc.AddCommand(newCreateCommand(ns, stdout))
	rc.AddCommand(newInfoCommand(ns, stdout))
	rc.AddCommand(newKeywordCommand(ns, stdout))
	rc.AddCommand(newFeedCommand(ns, stdout))
	rc.AddCommand(newWatchCommand(ns, stdout))
	rc.AddCommand(newMonitorCommand(ns, stdout))
	rc.AddCommand(newUnlinkCommand(ns, stdout))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
