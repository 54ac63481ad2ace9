package ir

import (
	"errors"
	"fmt"
)

// GraphError reports a malformed operation graph (an operand cycle, a
// dangling index, a bad terminator). Graph errors are fatal: they abort the
// compilation step before any pass runs.
type GraphError struct {
	Proc    string
	Node    string
	Message string
}

func (e *GraphError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("graph error in proc %s at node %s: %s", e.Proc, e.Node, e.Message)
	}
	return fmt.Sprintf("graph error in proc %s: %s", e.Proc, e.Message)
}

// IsGraphError extracts a GraphError from an error chain.
func IsGraphError(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
