package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"devsyslog/internal/app"
	"devsyslog/internal/config"
	"devsyslog/internal/emit"
	"devsyslog/internal/filter"
	"devsyslog/internal/relay"
)

type streamFlags struct {
	matches    []string
	unmatches  []string
	triggers   []string
	untriggers []string
	processes  []string
	excludes   []string
	quiet      bool
	quietList  bool
	kernel     bool
	noKernel   bool

	noColors bool
	colors   bool
	output   string
	legacy   bool
	exit     bool
	showDev  bool
	input    string
}

var streamOpts streamFlags

func init() {
	flags := rootCmd.Flags()
	flags.StringArrayVarP(&streamOpts.matches, "match", "m", nil, "Only print messages that contain STRING")
	flags.StringArrayVarP(&streamOpts.unmatches, "unmatch", "M", nil, "Print messages that do not contain STRING")
	flags.StringArrayVarP(&streamOpts.triggers, "trigger", "t", nil, "Start printing when a message contains STRING")
	flags.StringArrayVarP(&streamOpts.untriggers, "untrigger", "T", nil, "Stop printing after a message contains STRING")
	flags.StringArrayVarP(&streamOpts.processes, "process", "p", nil, "Only print messages from matching processes (NAME|PID, '|' separated)")
	flags.StringArrayVarP(&streamOpts.excludes, "exclude", "e", nil, "Hide messages from matching processes (NAME|PID, '|' separated)")
	flags.BoolVarP(&streamOpts.quiet, "quiet", "q", false, "Hide a list of chatty system processes, see --quiet-list")
	flags.BoolVar(&streamOpts.quietList, "quiet-list", false, "Print the process list used by --quiet and exit")
	flags.BoolVarP(&streamOpts.kernel, "kernel", "k", false, "Only print kernel messages")
	flags.BoolVarP(&streamOpts.noKernel, "no-kernel", "K", false, "Hide kernel messages")

	flags.BoolVar(&streamOpts.noColors, "no-colors", false, "Disable colored output")
	flags.BoolVar(&streamOpts.colors, "colors", false, "Force colored output, e.g. together with --output")
	flags.StringVarP(&streamOpts.output, "output", "o", "", "Write records to FILE instead of stdout")
	flags.BoolVar(&streamOpts.legacy, "syslog-relay", false, "Use the legacy syslog relay instead of the trace stream")
	flags.BoolVar(&streamOpts.legacy, "legacy", false, "Alias for --syslog-relay")
	flags.BoolVarP(&streamOpts.exit, "exit", "x", false, "Exit when the relay disconnects instead of reconnecting")
	flags.BoolVar(&streamOpts.showDev, "show-device-name", false, "Keep the device name in legacy records")
	flags.StringVar(&streamOpts.input, "input", "", "Replay a captured relay stream from FILE")
}

func runStream(cmd *cobra.Command, args []string) (err error) {
	ctrl := controller()
	cfg, err := ctrl.Config()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if streamOpts.quietList {
		list := filter.QuietList
		if len(cfg.QuietProcesses) > 0 {
			list += "|" + strings.Join(cfg.QuietProcesses, "|")
		}
		fmt.Fprintln(cmd.OutOrStdout(), list)
		return nil
	}

	reg, err := streamOpts.registry(cfg)
	if err != nil {
		return usageError{err}
	}
	for _, s := range append(append([]string(nil), streamOpts.triggers...), streamOpts.untriggers...) {
		if s == "" {
			return usageError{filter.ErrEmptyFilter}
		}
	}

	params := app.StreamParams{
		Endpoint:          relay.ResolveEndpoint(connectTo, cfg.Endpoint),
		Input:             streamOpts.input,
		Legacy:            streamOpts.legacy || cfg.SyslogRelay,
		Filters:           reg,
		Triggers:          streamOpts.triggers,
		Untriggers:        streamOpts.untriggers,
		ShowDeviceName:    streamOpts.showDev || cfg.ShowDeviceName,
		Colors:            streamOpts.colorMode(cfg.Colors),
		Output:            cmd.OutOrStdout(),
		ExitOnDisconnect:  streamOpts.exit || cfg.ExitOnDisconnect,
		ReconnectInterval: cfg.ReconnectInterval,
	}

	if streamOpts.output != "" {
		f, ferr := os.Create(streamOpts.output)
		if ferr != nil {
			return fmt.Errorf("open output file %s: %w", streamOpts.output, ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				err = multierror.Append(err, cerr).ErrorOrNil()
			}
		}()
		params.Output = f
	}

	diag.Debugw("starting stream", "endpoint", params.Endpoint, "legacy", params.Legacy, "input", params.Input)
	return ctrl.Stream(cmd.Context(), params)
}

func (f streamFlags) registry(cfg config.Config) (*filter.Registry, error) {
	reg := filter.New()
	for _, s := range f.matches {
		if s == "" {
			return nil, filter.ErrEmptyFilter
		}
		reg.AddMessageFilter(s)
	}
	for _, s := range f.unmatches {
		if s == "" {
			return nil, filter.ErrEmptyFilter
		}
		reg.AddReverseMessageFilter(s)
	}
	opts := filter.ProcessOptions{
		Include:    f.processes,
		Exclude:    f.excludes,
		Quiet:      f.quiet,
		QuietExtra: cfg.QuietProcesses,
		Kernel:     f.kernel,
		NoKernel:   f.noKernel,
	}
	if err := opts.Apply(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// colorMode resolves the flags over the configured mode. Writing to a file
// disables colors unless --colors is given.
func (f streamFlags) colorMode(configured emit.ColorMode) emit.ColorMode {
	switch {
	case f.colors:
		return emit.ColorAlways
	case f.noColors, f.output != "":
		return emit.ColorNever
	}
	return configured
}
