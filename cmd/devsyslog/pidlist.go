package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devsyslog/internal/app"
	"devsyslog/internal/piddir"
	"devsyslog/internal/relay"
	"devsyslog/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdPidList)
}

var (
	pidListTimeoutSeconds int
	pidListBrowse         bool
)

func init() {
	cmdPidList.Flags().IntVarP(&pidListTimeoutSeconds, "timeout", "w", 5, "Timeout in seconds for the process list query")
	cmdPidList.Flags().BoolVarP(&pidListBrowse, "browse", "b", false, "Pick processes in an interactive list")
}

// browseProcesses is replaced in tests.
var browseProcesses = func(ctrl tui.Controller, endpoint string) ([]piddir.Entry, error) {
	return tui.Run(ctrl, endpoint)
}

var cmdPidList = &cobra.Command{
	Use:   "pidlist",
	Short: "Print the running processes of the device, sorted by pid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		cfg, err := ctrl.Config()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if pidListTimeoutSeconds <= 0 {
			return usageError{errors.New("--timeout must be positive")}
		}
		endpoint := relay.ResolveEndpoint(connectTo, cfg.Endpoint)
		out := cmd.OutOrStdout()

		if pidListBrowse {
			chosen, err := browseProcesses(ctrl, endpoint)
			if err != nil {
				return fmt.Errorf("process browser exited with error: %w", err)
			}
			for _, e := range chosen {
				fmt.Fprintf(out, "%d %s\n", e.PID, e.Name)
			}
			return nil
		}

		dir, err := ctrl.PidList(cmd.Context(), app.PidListParams{
			Endpoint: endpoint,
			Timeout:  time.Duration(pidListTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		return dir.WriteList(out)
	},
}
