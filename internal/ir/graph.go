package ir

// TopoOrder returns a valid topological evaluation order of the process's
// operation graph as node indices. Ties are broken by original declaration
// order (lowest index first) so the order is deterministic. Returns a
// GraphError if the operand graph has a cycle.
func (p *Proc) TopoOrder() ([]int, error) {
	n := len(p.Nodes)
	indegree := make([]int, n)
	consumers := make([][]int, n)
	for i := range p.Nodes {
		for _, op := range p.Nodes[i].Operands() {
			indegree[i]++
			consumers[op] = append(consumers[op], i)
		}
	}

	order := make([]int, 0, n)
	ready := make([]bool, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready[i] = true
		}
	}
	for len(order) < n {
		// Pick the lowest-index ready node. Process graphs are small;
		// the linear scan keeps the tie-break obvious.
		next := -1
		for i := 0; i < n; i++ {
			if ready[i] {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, &GraphError{Proc: p.Name, Message: "operation graph has a cycle"}
		}
		ready[next] = false
		indegree[next] = -1
		order = append(order, next)
		for _, c := range consumers[next] {
			indegree[c]--
			if indegree[c] == 0 {
				ready[c] = true
			}
		}
	}
	return order, nil
}

// Reaches reports whether node from token-precedes node to: whether to
// transitively depends on from through operand edges (data, token, and
// predicate operands alike). This reachability query is the primitive both
// legalization and the runtime ordering analysis build on.
func (p *Proc) Reaches(from, to int) bool {
	if from == to {
		return false
	}
	seen := make([]bool, len(p.Nodes))
	var walk func(idx int) bool
	walk = func(idx int) bool {
		if idx == from {
			return true
		}
		if seen[idx] {
			return false
		}
		seen[idx] = true
		for _, op := range p.Nodes[idx].Operands() {
			if walk(op) {
				return true
			}
		}
		return false
	}
	return walk(to)
}

// ChannelOp locates one channel-touching operation in the network.
type ChannelOp struct {
	Proc *Proc
	Node int
}

// Kind returns the operation kind (OpSend or OpReceive).
func (o ChannelOp) Kind() OpKind {
	return o.Proc.Nodes[o.Node].Kind
}

// ChannelOperations enumerates all operations touching the given channel
// across all graph processes, in declaration order: processes in the order
// they were added, nodes in arena order within each process.
func (p *Package) ChannelOperations(channelID int64) []ChannelOp {
	var ops []ChannelOp
	for _, pr := range p.Procs {
		if pr.IsAdapter() {
			continue
		}
		for i := range pr.Nodes {
			n := &pr.Nodes[i]
			if n.IsChannelOp() && n.ChannelID == channelID {
				ops = append(ops, ChannelOp{Proc: pr, Node: i})
			}
		}
	}
	return ops
}
