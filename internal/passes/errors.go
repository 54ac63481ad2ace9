package passes

import (
	"errors"
	"fmt"

	"github.com/weft-hdl/weft/internal/ir"
)

// LegalizationError reports that one channel could not be legalized under
// its declared policy. Failures on independent channels are joined, so a
// single run surfaces every bad channel at once.
type LegalizationError struct {
	Channel string
	Policy  ir.Strictness
	Message string
}

func (e *LegalizationError) Error() string {
	return fmt.Sprintf("channel %s (%s): %s", e.Channel, e.Policy, e.Message)
}

// IsLegalizationError extracts a LegalizationError from an error chain.
func IsLegalizationError(err error) (*LegalizationError, bool) {
	var le *LegalizationError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
