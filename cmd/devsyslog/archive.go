package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"devsyslog/internal/app"
	"devsyslog/internal/archive"
	"devsyslog/internal/relay"
)

func init() {
	rootCmd.AddCommand(cmdArchive)
}

var archiveOpts relay.ArchiveOptions

func init() {
	flags := cmdArchive.Flags()
	flags.Int64Var(&archiveOpts.StartTime, "start-time", 0, "Only include entries after this UNIX timestamp")
	flags.Int64Var(&archiveOpts.SizeLimit, "size-limit", 0, "Limit the archive to this many bytes")
	flags.Int64Var(&archiveOpts.AgeLimit, "age-limit", 0, "Limit the archive to entries newer than this many seconds")
}

// archiveStdout is the file "-" refers to.
var archiveStdout = os.Stdout

var cmdArchive = &cobra.Command{
	Use:   "archive PATH|-",
	Short: "Download a log archive from the device",
	Long: `Requests a log archive from the trace relay and writes it to PATH.
Use - to write to stdout; a terminal is refused.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageError{fmt.Errorf("please specify an output filename")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctrl := controller()
		cfg, err := ctrl.Config()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out, err := archive.Open(args[0], archiveStdout)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := out.Close(); cerr != nil {
				err = multierror.Append(err, cerr).ErrorOrNil()
			}
		}()

		spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
		spin.Suffix = " Receiving archive..."
		spin.Start()
		written, err := ctrl.Archive(cmd.Context(), app.ArchiveParams{
			Endpoint: relay.ResolveEndpoint(connectTo, cfg.Endpoint),
			Options:  archiveOpts,
			Output:   out,
			Progress: func(n int64) {
				spin.Lock()
				spin.Suffix = fmt.Sprintf(" Receiving archive... %d bytes", n)
				spin.Unlock()
			},
		})
		spin.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Received %d bytes\n", written)
		return nil
	},
}
