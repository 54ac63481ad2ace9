package cli

import (
	"fmt"
	"os"

	"github.com/weft-hdl/weft/internal/ir"
	"github.com/weft-hdl/weft/internal/irtext"
)

// Error codes shared across commands.
const (
	ErrCodeLoad     = "E001" // file not found / unreadable
	ErrCodeParse    = "E002" // IR syntax or validation error
	ErrCodeLegalize = "E003" // legalization failure
	ErrCodeRun      = "E004" // simulation failure
	ErrCodeVector   = "E005" // vector mismatch
	ErrCodeTrace    = "E006" // trace database error
)

// loadPackage reads and parses one IR file.
func loadPackage(path string) (*ir.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("cannot read %s", path), err)
	}
	pkg, err := irtext.ParsePackage(string(data))
	if err != nil {
		return nil, err
	}
	return pkg, nil
}
