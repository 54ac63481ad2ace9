package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weft-hdl/weft/internal/interp"
	"github.com/weft-hdl/weft/internal/irtext"
	"github.com/weft-hdl/weft/internal/passes"
	"github.com/weft-hdl/weft/internal/trace"
	"github.com/weft-hdl/weft/internal/vectors"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Vector  string
	TraceDB string
}

// VectorOutcome reports one vector's result.
type VectorOutcome struct {
	Vector string `json:"vector"`
	Passed bool   `json:"passed"`
	Ticks  int64  `json:"ticks,omitempty"`
	RunID  string `json:"run_id,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file.ir>",
		Short: "Simulate an IR file against stimulus vectors",
		Long: `Simulate a proc network against one or more YAML stimulus vectors.
Each vector names input sequences, expected output sequences, and a tick
budget; vectors that request it are legalized before simulation.

With --trace-db, every run's channel transfers are recorded to SQLite.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Vector, "vector", "", "vector file or directory of *.yaml vectors (required)")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record traces to this SQLite database")
	cmd.MarkFlagRequired("vector")
	return cmd
}

func runRun(opts *RunOptions, irPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	vecs, err := loadVectors(opts.Vector)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load vectors", err)
	}

	var store *trace.Store
	if opts.TraceDB != "" {
		store, err = trace.Open(opts.TraceDB)
		if err != nil {
			formatter.Error(ErrCodeTrace, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot open trace database", err)
		}
		defer store.Close()
	}

	outcomes := make([]VectorOutcome, 0, len(vecs))
	failed := 0
	for _, v := range vecs {
		outcome := runOneVector(ctx, irPath, v, store, formatter)
		if !outcome.Passed {
			failed++
		}
		outcomes = append(outcomes, outcome)
	}

	if opts.Format == "json" {
		if err := formatter.Success(outcomes); err != nil {
			return err
		}
	} else {
		for _, o := range outcomes {
			if o.Passed {
				fmt.Fprintf(cmd.OutOrStdout(), "PASS %s (%d ticks)\n", o.Vector, o.Ticks)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s [%s]: %s\n", o.Vector, o.Code, o.Error)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d vectors passed\n", len(outcomes)-failed, len(outcomes))
	}
	if failed > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d vector(s) failed", failed), nil)
	}
	return nil
}

// runOneVector parses the IR fresh per vector, since legalization mutates
// the package.
func runOneVector(ctx context.Context, irPath string, v *vectors.Vector, store *trace.Store, formatter *OutputFormatter) VectorOutcome {
	outcome := VectorOutcome{Vector: v.Name}

	pkg, err := loadPackage(irPath)
	if err != nil {
		if _, ok := irtext.IsParseError(err); ok {
			outcome.Code = ErrCodeParse
		} else {
			outcome.Code = ErrCodeLoad
		}
		outcome.Error = err.Error()
		return outcome
	}

	var runOpts []interp.Option
	var rec *trace.Recorder
	if store != nil {
		rec, err = store.BeginRun(ctx, pkg.Name, v.Name)
		if err != nil {
			outcome.Code = ErrCodeTrace
			outcome.Error = err.Error()
			return outcome
		}
		outcome.RunID = rec.RunID()
		runOpts = append(runOpts, interp.WithSink(rec))
	}

	res, err := vectors.Run(pkg, v, runOpts...)
	if rec != nil {
		// Flush even after a failed run so the events leading up to the
		// failure are kept.
		if ferr := rec.Flush(ctx); ferr != nil {
			formatter.VerboseLog("trace flush failed: %v", ferr)
		}
	}
	if err != nil {
		if _, ok := passes.IsLegalizationError(err); ok {
			outcome.Code = ErrCodeLegalize
		} else {
			outcome.Code = ErrCodeRun
		}
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Ticks = res.Ticks
	if err := res.Verify(v); err != nil {
		outcome.Code = ErrCodeVector
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Passed = true
	return outcome
}

func loadVectors(path string) ([]*vectors.Vector, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		vecs, err := vectors.LoadDir(path)
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("no *.yaml vectors in %s", filepath.Clean(path))
		}
		return vecs, nil
	}
	v, err := vectors.Load(path)
	if err != nil {
		return nil, err
	}
	return []*vectors.Vector{v}, nil
}
