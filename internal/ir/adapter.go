package ir

// AdapterPort describes the internal channels wired between one original
// channel operation and its adapter. The origin process sends its predicate
// value on Request each activation. For receive adapters the adapter sends
// the payload on Data; for send adapters the origin sends the payload on
// Data and the adapter acknowledges the committed transaction on Ack.
type AdapterPort struct {
	Request int64
	Data    int64
	Ack     int64 // unused (0) for receive adapters

	// OriginProc and OriginNode identify the rewritten operation, for
	// diagnostics only.
	OriginProc string
	OriginNode string
}

// Adapter describes a synthesized arbitration process. Legalization creates
// one adapter per (channel, direction) group that needs serialization; the
// interpreter executes the policy's selection rule natively.
//
// The adapter serializes transactions across the original operations; each
// origin process's own token ordering is preserved by the rewiring, not by
// the adapter.
type Adapter struct {
	Policy    Strictness
	ChannelID int64
	Direction ChannelOps // ReceiveOnly: origin ops receive; SendOnly: origin ops send

	Ports []AdapterPort

	// Order is the fixed serving order (indices into Ports) for
	// total_order and arbitrary_static_order adapters. Empty for the
	// runtime policies.
	Order []int
}
