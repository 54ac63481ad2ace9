package interp

import (
	"errors"
	"fmt"
	"strings"
)

// ViolationError reports a runtime policy violation: a runtime_mutually_
// exclusive adapter observed two enabled operations in one activation
// window, or a statically proven channel saw two transfers in one tick.
// The run aborts immediately; outputs already produced remain visible in
// their channel queues.
type ViolationError struct {
	Channel string
	Policy  string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("channel %s (%s): predicate was not mutually exclusive", e.Channel, e.Policy)
}

// IsViolation reports whether err is (or wraps) a ViolationError.
func IsViolation(err error) bool {
	var ve *ViolationError
	return errors.As(err, &ve)
}

// DeadlockError reports that requested outputs were not produced within the
// tick budget. Blocked names the channels on which some process is stalled,
// in channel-id order. The run aborts; the legalized graph is untouched and
// a fresh runtime over it behaves identically.
type DeadlockError struct {
	Ticks   int64
	Blocked []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadline exceeded after %d ticks: output targets not met. Blocked channels: %s",
		e.Ticks, strings.Join(e.Blocked, ", "))
}

// IsDeadlock reports whether err is (or wraps) a DeadlockError.
func IsDeadlock(err error) bool {
	var de *DeadlockError
	return errors.As(err, &de)
}
