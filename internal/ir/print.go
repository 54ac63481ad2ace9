package ir

import (
	"fmt"
	"sort"
	"strings"
)

// DumpText renders the package in the textual IR form. Channels print in id
// order and processes in declaration order, so the output is deterministic
// and diffable. Graph processes round-trip through the parser; adapter
// processes print a descriptive adapter block instead of an operation graph.
func (p *Package) DumpText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n", p.Name)

	chans := make([]*Channel, len(p.Channels))
	copy(chans, p.Channels)
	sort.Slice(chans, func(i, j int) bool { return chans[i].ID < chans[j].ID })
	if len(chans) > 0 {
		b.WriteString("\n")
	}
	for _, c := range chans {
		fmt.Fprintf(&b, "chan %s(bits[%d], id=%d, kind=%s, ops=%s, flow_control=%s, strictness=%s, metadata=%q)\n",
			c.Name, c.Width, c.ID, c.Kind, c.Ops, c.FlowControl, c.Strictness, c.Metadata)
	}

	for _, pr := range p.Procs {
		b.WriteString("\n")
		if pr.IsAdapter() {
			writeAdapter(&b, pr)
			continue
		}
		writeProc(&b, p, pr)
	}
	return b.String()
}

func writeProc(b *strings.Builder, p *Package, pr *Proc) {
	if p.Top == pr.Name {
		b.WriteString("top ")
	}
	fmt.Fprintf(b, "proc %s(", pr.Name)
	inits := make([]string, 0, len(pr.Params))
	for i, param := range pr.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", param.Name, param.Type)
		if _, isToken := param.Type.(TokenType); !isToken {
			inits = append(inits, formatInit(param))
		}
	}
	if len(pr.Params) > 0 {
		b.WriteString(", ")
	}
	fmt.Fprintf(b, "init={%s}) {\n", strings.Join(inits, ", "))

	for i := range pr.Nodes {
		n := &pr.Nodes[i]
		if n.Kind == OpParam {
			continue
		}
		fmt.Fprintf(b, "  %s: %s = %s\n", n.Name, n.Type, formatNode(pr, n))
	}

	next := make([]string, len(pr.Next))
	for i, idx := range pr.Next {
		next[i] = pr.Nodes[idx].Name
	}
	fmt.Fprintf(b, "  next (%s)\n}\n", strings.Join(next, ", "))
}

func formatInit(param Param) string {
	switch param.Type.(type) {
	case BitsType:
		return fmt.Sprintf("%d", param.Init.Bits)
	case TupleType:
		return "()"
	default:
		return "()"
	}
}

func formatNode(pr *Proc, n *Node) string {
	ref := func(idx int) string { return pr.Nodes[idx].Name }
	pred := func() string {
		if n.Predicate == NoPredicate {
			return ""
		}
		return fmt.Sprintf(", predicate=%s", ref(n.Predicate))
	}
	switch n.Kind {
	case OpLiteral:
		return fmt.Sprintf("literal(value=%d)", n.Value.Bits)
	case OpReceive:
		return fmt.Sprintf("receive(%s%s, channel_id=%d)", ref(n.Args[0]), pred(), n.ChannelID)
	case OpSend:
		return fmt.Sprintf("send(%s, %s%s, channel_id=%d)", ref(n.Args[0]), ref(n.Args[1]), pred(), n.ChannelID)
	case OpTupleIndex:
		return fmt.Sprintf("tuple_index(%s, index=%d)", ref(n.Args[0]), n.Index)
	case OpAfterAll:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = ref(a)
		}
		return fmt.Sprintf("after_all(%s)", strings.Join(args, ", "))
	case OpNot:
		return fmt.Sprintf("not(%s)", ref(n.Args[0]))
	case OpAdd:
		return fmt.Sprintf("add(%s, %s)", ref(n.Args[0]), ref(n.Args[1]))
	case OpUGt:
		return fmt.Sprintf("ugt(%s, %s)", ref(n.Args[0]), ref(n.Args[1]))
	case OpBitSlice:
		return fmt.Sprintf("bit_slice(%s, start=%d, width=%d)", ref(n.Args[0]), n.Start, n.SliceWidth)
	default:
		return n.Kind.String()
	}
}

func writeAdapter(b *strings.Builder, pr *Proc) {
	ad := pr.Adapter
	fmt.Fprintf(b, "adapter %s(channel_id=%d, policy=%s, direction=%s) {\n",
		pr.Name, ad.ChannelID, ad.Policy, ad.Direction)
	for i, port := range ad.Ports {
		fmt.Fprintf(b, "  port %d: request=%d, data=%d", i, port.Request, port.Data)
		if port.Ack != 0 {
			fmt.Fprintf(b, ", ack=%d", port.Ack)
		}
		fmt.Fprintf(b, ", origin=%s.%s\n", port.OriginProc, port.OriginNode)
	}
	if len(ad.Order) > 0 {
		order := make([]string, len(ad.Order))
		for i, o := range ad.Order {
			order[i] = fmt.Sprintf("%d", o)
		}
		fmt.Fprintf(b, "  order: %s\n", strings.Join(order, ", "))
	}
	b.WriteString("}\n")
}
