package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"devsyslog/internal/logging"
)

var (
	configPath string
	debug      bool
	connectTo  string

	diag = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:   "devsyslog [flags] [command]",
	Short: "devsyslog: relay the system log of an attached device",
	Long: `devsyslog connects to a device log relay and prints the device system log.
By default the structured trace stream is used; --syslog-relay selects the
legacy plain-text stream.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		diag = logging.New(cmd.ErrOrStderr(), debug)
	},
	RunE: runStream,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to TOML config file")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug diagnostics on stderr")
	flags.StringVar(&connectTo, "connect", "", "Relay endpoint (unix:///path, tcp://host:port or host:port)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

// usageError marks invalid command line input; it exits with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	}
	return exitCode(err)
}
