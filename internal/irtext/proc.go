package irtext

import (
	"github.com/weft-hdl/weft/internal/ir"
)

// parseProc parses a process declaration: the parameter/state header with
// its init list, then the operation graph body ending in a next terminator.
func (p *parser) parseProc(pkg *ir.Package, top bool) error {
	name, err := p.expectIdent("")
	if err != nil {
		return err
	}
	proc := &ir.Proc{Name: name}

	if err := p.expectPunct("("); err != nil {
		return err
	}
	if err := p.parseParams(proc); err != nil {
		return err
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}

	// Parameters are nodes in the arena; body references resolve by name.
	byName := make(map[string]int)
	for i, param := range proc.Params {
		idx := proc.AppendNode(ir.Node{
			Name:      param.Name,
			Kind:      ir.OpParam,
			Type:      param.Type,
			Param:     i,
			Predicate: ir.NoPredicate,
		})
		byName[param.Name] = idx
	}

	if err := p.expectPunct("{"); err != nil {
		return err
	}
	if err := p.parseBody(proc, byName); err != nil {
		return err
	}

	if err := pkg.AddProc(proc); err != nil {
		return p.errf("%v", err)
	}
	if top {
		pkg.Top = proc.Name
	}
	return nil
}

// parseParams reads "name: type" pairs followed by the init={...} list.
// Init values bind to non-token parameters in declaration order.
func (p *parser) parseParams(proc *ir.Proc) error {
	first := true
	for {
		if p.cur.kind == tokPunct && p.cur.text == ")" {
			if len(proc.Params) > 0 || !first {
				return p.errf("proc %s: missing init list", proc.Name)
			}
			return nil
		}
		if !first {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		first = false

		name, err := p.expectIdent("")
		if err != nil {
			return err
		}
		if name == "init" {
			return p.parseInit(proc)
		}
		if err := p.expectPunct(":"); err != nil {
			return err
		}
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		proc.Params = append(proc.Params, ir.Param{Name: name, Type: typ, Init: ir.ZeroValue(typ)})
	}
}

func (p *parser) parseInit(proc *ir.Proc) error {
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	var inits []ir.Value
	for {
		if p.cur.kind == tokPunct && p.cur.text == "}" {
			break
		}
		if len(inits) > 0 {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		if ok, err := p.acceptPunct("("); err != nil {
			return err
		} else if ok {
			// Unit value for empty-tuple state.
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			inits = append(inits, ir.Unit())
			continue
		}
		n, err := p.expectNumber()
		if err != nil {
			return err
		}
		inits = append(inits, ir.UBits(uint64(n), 64))
	}
	if err := p.expectPunct("}"); err != nil {
		return err
	}

	// Bind init values to the non-token parameters, truncated to the
	// parameter's declared width.
	var dataParams []int
	for i, param := range proc.Params {
		if _, isToken := param.Type.(ir.TokenType); !isToken {
			dataParams = append(dataParams, i)
		}
	}
	if len(inits) != len(dataParams) {
		return p.errf("proc %s: init has %d values for %d state elements", proc.Name, len(inits), len(dataParams))
	}
	for i, paramIdx := range dataParams {
		param := &proc.Params[paramIdx]
		if bits, ok := param.Type.(ir.BitsType); ok {
			param.Init = ir.UBits(inits[i].Bits, bits.Width)
		} else {
			param.Init = ir.Unit()
		}
	}
	return nil
}

func (p *parser) parseBody(proc *ir.Proc, byName map[string]int) error {
	for {
		name, err := p.expectIdent("")
		if err != nil {
			return err
		}
		if name == "next" {
			if err := p.parseNext(proc, byName); err != nil {
				return err
			}
			return p.expectPunct("}")
		}
		if err := p.parseNode(proc, byName, name); err != nil {
			return err
		}
	}
}

func (p *parser) parseNext(proc *ir.Proc, byName map[string]int) error {
	if err := p.expectPunct("("); err != nil {
		return err
	}
	for {
		if p.cur.kind == tokPunct && p.cur.text == ")" {
			break
		}
		if len(proc.Next) > 0 {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		ref, err := p.expectIdent("")
		if err != nil {
			return err
		}
		idx, ok := byName[ref]
		if !ok {
			return p.errf("next: unknown node %q", ref)
		}
		proc.Next = append(proc.Next, idx)
	}
	return p.expectPunct(")")
}

func (p *parser) parseNode(proc *ir.Proc, byName map[string]int, name string) error {
	if _, dup := byName[name]; dup {
		return p.errf("duplicate node name %q", name)
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	op, err := p.expectIdent("")
	if err != nil {
		return err
	}

	node := ir.Node{Name: name, Type: typ, Predicate: ir.NoPredicate}
	var kw map[string]int64
	var refs []int
	var predRef = ir.NoPredicate

	if err := p.expectPunct("("); err != nil {
		return err
	}
	for {
		if p.cur.kind == tokPunct && p.cur.text == ")" {
			break
		}
		if len(refs) > 0 || len(kw) > 0 || predRef != ir.NoPredicate {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		arg, err := p.expectIdent("")
		if err != nil {
			return err
		}
		eq, err := p.acceptPunct("=")
		if err != nil {
			return err
		}
		if !eq {
			idx, ok := byName[arg]
			if !ok {
				return p.errf("%s: unknown operand %q", name, arg)
			}
			refs = append(refs, idx)
			continue
		}
		if arg == "predicate" {
			ref, err := p.expectIdent("")
			if err != nil {
				return err
			}
			idx, ok := byName[ref]
			if !ok {
				return p.errf("%s: unknown predicate %q", name, ref)
			}
			predRef = idx
			continue
		}
		val, err := p.expectNumber()
		if err != nil {
			return err
		}
		if kw == nil {
			kw = make(map[string]int64)
		}
		kw[arg] = val
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}

	if err := buildNode(&node, op, refs, predRef, kw, p); err != nil {
		return err
	}
	byName[name] = proc.AppendNode(node)
	return nil
}

// buildNode fills in the kind-specific fields and checks arity.
func buildNode(node *ir.Node, op string, refs []int, pred int, kw map[string]int64, p *parser) error {
	need := func(n int) error {
		if len(refs) != n {
			return p.errf("%s: %s expects %d operands, got %d", node.Name, op, n, len(refs))
		}
		return nil
	}
	key := func(name string) (int64, error) {
		v, ok := kw[name]
		if !ok {
			return 0, p.errf("%s: %s requires %s=", node.Name, op, name)
		}
		return v, nil
	}

	switch op {
	case "receive":
		if err := need(1); err != nil {
			return err
		}
		id, err := key("channel_id")
		if err != nil {
			return err
		}
		node.Kind = ir.OpReceive
		node.Args = refs
		node.Predicate = pred
		node.ChannelID = id
	case "send":
		if err := need(2); err != nil {
			return err
		}
		id, err := key("channel_id")
		if err != nil {
			return err
		}
		node.Kind = ir.OpSend
		node.Args = refs
		node.Predicate = pred
		node.ChannelID = id
	case "tuple_index":
		if err := need(1); err != nil {
			return err
		}
		idx, err := key("index")
		if err != nil {
			return err
		}
		node.Kind = ir.OpTupleIndex
		node.Args = refs
		node.Index = int(idx)
	case "after_all":
		node.Kind = ir.OpAfterAll
		node.Args = refs
	case "literal":
		if err := need(0); err != nil {
			return err
		}
		v, err := key("value")
		if err != nil {
			return err
		}
		width := 0
		if bits, ok := node.Type.(ir.BitsType); ok {
			width = bits.Width
		}
		node.Kind = ir.OpLiteral
		node.Value = ir.UBits(uint64(v), width)
	case "not":
		if err := need(1); err != nil {
			return err
		}
		node.Kind = ir.OpNot
		node.Args = refs
	case "add":
		if err := need(2); err != nil {
			return err
		}
		node.Kind = ir.OpAdd
		node.Args = refs
	case "ugt":
		if err := need(2); err != nil {
			return err
		}
		node.Kind = ir.OpUGt
		node.Args = refs
	case "bit_slice":
		if err := need(1); err != nil {
			return err
		}
		start, err := key("start")
		if err != nil {
			return err
		}
		width, err := key("width")
		if err != nil {
			return err
		}
		node.Kind = ir.OpBitSlice
		node.Args = refs
		node.Start = int(start)
		node.SliceWidth = int(width)
	default:
		return p.errf("%s: unknown operation %q", node.Name, op)
	}
	return nil
}
