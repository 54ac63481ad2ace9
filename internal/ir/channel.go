package ir

import "fmt"

// Strictness is the declared rule governing how concurrent operations on one
// channel must be ordered or made exclusive. The set is closed; exhaustive
// switches over it are the main compile-time safety win of the design.
type Strictness int

const (
	// ProvenMutuallyExclusive requires a static proof that at most one
	// operation on the channel has a true predicate per activation. Proven
	// channels need no adapter; failure to prove is a legalization error.
	ProvenMutuallyExclusive Strictness = iota
	// RuntimeMutuallyExclusive inserts an adapter that grants the first
	// enabled operation per activation and aborts the run if a second
	// becomes enabled in the same activation window.
	RuntimeMutuallyExclusive
	// TotalOrder requires the token graph to linearize the channel's
	// operations; the adapter forwards them in that fixed order.
	TotalOrder
	// RuntimeOrdered inserts an adapter that serializes operations in
	// arrival order, first come first served.
	RuntimeOrdered
	// ArbitraryStaticOrder picks declaration order regardless of the token
	// graph; legalization always succeeds.
	ArbitraryStaticOrder
)

var strictnessNames = map[Strictness]string{
	ProvenMutuallyExclusive:  "proven_mutually_exclusive",
	RuntimeMutuallyExclusive: "runtime_mutually_exclusive",
	TotalOrder:               "total_order",
	RuntimeOrdered:           "runtime_ordered",
	ArbitraryStaticOrder:     "arbitrary_static_order",
}

func (s Strictness) String() string {
	if name, ok := strictnessNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strictness(%d)", int(s))
}

// ParseStrictness parses a textual strictness name.
func ParseStrictness(s string) (Strictness, error) {
	for k, v := range strictnessNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown strictness %q", s)
}

// DefaultStrictness is used when a channel declaration omits the strictness
// field. Absence means the front end asserted exclusivity, which is the most
// permissive setting: the legalization pass proves it or rejects the design.
const DefaultStrictness = ProvenMutuallyExclusive

// ChannelKind distinguishes streaming FIFO channels from single-value
// (register-like) channels.
type ChannelKind int

const (
	Streaming ChannelKind = iota
	SingleValue
)

func (k ChannelKind) String() string {
	switch k {
	case Streaming:
		return "streaming"
	case SingleValue:
		return "single_value"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ChannelOps is the direction capability of a channel as seen from inside
// the network. Internal channels created by legalization carry both sides.
type ChannelOps int

const (
	SendOnly ChannelOps = iota
	ReceiveOnly
	SendReceive
)

func (o ChannelOps) String() string {
	switch o {
	case SendOnly:
		return "send_only"
	case ReceiveOnly:
		return "receive_only"
	case SendReceive:
		return "send_receive"
	}
	return fmt.Sprintf("ops(%d)", int(o))
}

// FlowControl is the handshake discipline of a channel. Only ready/valid is
// modeled.
type FlowControl int

const (
	ReadyValid FlowControl = iota
)

func (f FlowControl) String() string {
	switch f {
	case ReadyValid:
		return "ready_valid"
	}
	return fmt.Sprintf("flow_control(%d)", int(f))
}

// Channel is a typed, directional communication point between processes,
// backed by a FIFO queue at run time.
type Channel struct {
	ID          int64
	Name        string
	Width       int // element bit width
	Kind        ChannelKind
	Ops         ChannelOps
	FlowControl FlowControl
	Strictness  Strictness
	Metadata    string // opaque, passed through

	// Internal marks channels synthesized by legalization. Internal
	// channels are never legalized themselves.
	Internal bool

	// Proven is set by the legalization pass when a
	// proven_mutually_exclusive channel's predicates were statically shown
	// exclusive. The runtime guards proven channels and aborts if the
	// proof is violated.
	Proven bool
}
