package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-hdl/weft/internal/trace"
)

// TraceOptions holds flags for the trace commands.
type TraceOptions struct {
	*RootOptions
	Database string
}

// NewTraceCommand creates the trace command group.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded simulation traces",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "trace database path (required)")
	cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List recorded runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceList(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show every event of one run in arrival order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceShow(opts, args[0], cmd)
		},
	})
	return cmd
}

func runTraceList(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	store, err := trace.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeTrace, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open trace database", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeTrace, err.Error(), nil)
		return WrapExitError(ExitFailure, "list runs failed", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n", r.ID, r.StartedAt, r.Package, r.Note)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d run(s)\n", len(runs))
	return nil
}

func runTraceShow(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	store, err := trace.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeTrace, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open trace database", err)
	}
	defer store.Close()

	events, err := store.Events(cmd.Context(), runID)
	if err != nil {
		formatter.Error(ErrCodeTrace, err.Error(), nil)
		return WrapExitError(ExitFailure, "read events failed", err)
	}
	if opts.Format == "json" {
		return formatter.Success(events)
	}
	for _, ev := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "%6d  tick %-4d %-9s %-16s %-16s %s\n",
			ev.Seq, ev.Tick, ev.Kind, ev.Channel, ev.Proc, ev.Value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d event(s)\n", len(events))
	return nil
}
