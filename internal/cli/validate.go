package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-hdl/weft/internal/irtext"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Package  string `json:"package,omitempty"`
	Channels int    `json:"channels,omitempty"`
	Procs    int    `json:"procs,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.ir>",
		Short: "Parse and validate an IR file",
		Long: `Parse a proc network IR file and run structural validation:
name and id uniqueness, operand references, next() arity, channel
references, and operation graph acyclicity.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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
		if pe, ok := irtext.IsParseError(err); ok {
			formatter.Error(ErrCodeParse, pe.Error(), map[string]any{"line": pe.Line})
		} else {
			formatter.Error(ErrCodeParse, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Package:  pkg.Name,
			Channels: len(pkg.Channels),
			Procs:    len(pkg.Procs),
		})
	}
	return formatter.Success(fmt.Sprintf("%s: valid (%d channels, %d procs)", pkg.Name, len(pkg.Channels), len(pkg.Procs)))
}
