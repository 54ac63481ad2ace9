package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weft-hdl/weft/internal/passes"
)

// LegalizeOptions holds flags for the legalize command.
type LegalizeOptions struct {
	*RootOptions
	Output string
}

// NewLegalizeCommand creates the legalize command.
func NewLegalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LegalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "legalize <file.ir>",
		Short: "Legalize concurrent channel access",
		Long: `Run channel legalization on an IR file: channels with multiple
same-direction operations are either proven mutually exclusive or get an
arbitration adapter per their strictness policy. Prints the rewritten IR.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegalize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write legalized IR to file instead of stdout")
	return cmd
}

func runLegalize(opts *LegalizeOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pkg, err := loadPackage(path)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			formatter.Error(ErrCodeLoad, exitErr.Error(), nil)
			return exitErr
		}
		formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitFailure, "parse failed", err)
	}

	pipeline := passes.NewPipeline(passes.ChannelLegalization{})
	res, err := pipeline.Run(pkg)
	if err != nil {
		formatter.Error(ErrCodeLegalize, err.Error(), nil)
		return WrapExitError(ExitFailure, "legalization failed", err)
	}
	formatter.VerboseLog("legalization changed package: %v", res.Changed())

	text := pkg.DumpText()
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot write output", err)
		}
		if opts.Format == "json" {
			return formatter.Success(map[string]any{"changed": res.Changed(), "output": opts.Output})
		}
		return formatter.Success(fmt.Sprintf("wrote %s (changed=%v)", opts.Output, res.Changed()))
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{"changed": res.Changed(), "ir": text})
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
