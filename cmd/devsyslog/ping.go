package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devsyslog/internal/relay"
)

func init() {
	rootCmd.AddCommand(cmdPing)
}

var pingTimeoutSeconds int

func init() {
	cmdPing.Flags().IntVarP(&pingTimeoutSeconds, "timeout", "w", 2, "Timeout in seconds for the relay check")
}

// `devsyslog ping` checks that the relay is reachable and answers requests.
var cmdPing = &cobra.Command{
	Use:   "ping",
	Short: "Check that the log relay answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		cfg, err := ctrl.Config()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		endpoint := relay.ResolveEndpoint(connectTo, cfg.Endpoint)
		n, err := ctrl.Ping(cmd.Context(), endpoint, time.Duration(pingTimeoutSeconds)*time.Second)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "relay %s ok, %d processes\n", endpoint, n)
		return nil
	},
}
