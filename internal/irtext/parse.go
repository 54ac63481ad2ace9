// Package irtext reads the textual IR surface produced by the front end:
// channel declarations, process declarations, and the operation grammar used
// for graph construction. The parser builds an ir.Package and validates the
// graph invariants once at the end.
package irtext

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/weft-hdl/weft/internal/ir"
)

// ParseError reports a syntax or binding error with its source line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// IsParseError extracts a ParseError from an error chain.
func IsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ParsePackage parses IR text into a validated package.
func ParsePackage(src string) (*ir.Package, error) {
	p := &parser{s: newScanner(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	pkg, err := p.parsePackage()
	if err != nil {
		return nil, err
	}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// ParseFile parses IR text from a file.
func ParseFile(path string) (*ir.Package, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read IR file: %w", err)
	}
	pkg, err := ParsePackage(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}

type parser struct {
	s   *scanner
	cur token
}

func (p *parser) advance() error {
	t, err := p.s.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Line: p.cur.line, Message: fmt.Sprintf(format, args...)}
}

// expectIdent consumes an identifier, optionally a specific keyword.
func (p *parser) expectIdent(want string) (string, error) {
	if p.cur.kind != tokIdent {
		return "", p.errf("expected identifier, got %s", p.cur)
	}
	if want != "" && p.cur.text != want {
		return "", p.errf("expected %q, got %s", want, p.cur)
	}
	text := p.cur.text
	return text, p.advance()
}

func (p *parser) expectPunct(want string) error {
	if p.cur.kind != tokPunct || p.cur.text != want {
		return p.errf("expected %q, got %s", want, p.cur)
	}
	return p.advance()
}

// acceptPunct consumes the punctuation if present.
func (p *parser) acceptPunct(text string) (bool, error) {
	if p.cur.kind == tokPunct && p.cur.text == text {
		return true, p.advance()
	}
	return false, nil
}

func (p *parser) expectNumber() (int64, error) {
	if p.cur.kind != tokNumber {
		return 0, p.errf("expected number, got %s", p.cur)
	}
	n, err := strconv.ParseInt(p.cur.text, 10, 64)
	if err != nil {
		return 0, p.errf("bad number %q: %v", p.cur.text, err)
	}
	return n, p.advance()
}

func (p *parser) parsePackage() (*ir.Package, error) {
	if _, err := p.expectIdent("package"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("")
	if err != nil {
		return nil, err
	}
	pkg := ir.NewPackage(name)

	for p.cur.kind != tokEOF {
		kw, err := p.expectIdent("")
		if err != nil {
			return nil, err
		}
		switch kw {
		case "chan":
			if err := p.parseChan(pkg); err != nil {
				return nil, err
			}
		case "top":
			if _, err := p.expectIdent("proc"); err != nil {
				return nil, err
			}
			if err := p.parseProc(pkg, true); err != nil {
				return nil, err
			}
		case "proc":
			if err := p.parseProc(pkg, false); err != nil {
				return nil, err
			}
		default:
			return nil, p.errf("expected chan or proc declaration, got %q", kw)
		}
	}
	return pkg, nil
}

func (p *parser) parseChan(pkg *ir.Package) error {
	name, err := p.expectIdent("")
	if err != nil {
		return err
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}
	elemType, err := p.parseType()
	if err != nil {
		return err
	}
	bits, ok := elemType.(ir.BitsType)
	if !ok {
		return p.errf("channel %s: element type must be bits[N], got %s", name, elemType)
	}

	ch := &ir.Channel{
		Name:       name,
		ID:         -1,
		Width:      bits.Width,
		Strictness: ir.DefaultStrictness,
	}
	for {
		comma, err := p.acceptPunct(",")
		if err != nil {
			return err
		}
		if !comma {
			break
		}
		key, err := p.expectIdent("")
		if err != nil {
			return err
		}
		if err := p.expectPunct("="); err != nil {
			return err
		}
		if err := p.parseChanField(ch, key); err != nil {
			return err
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}
	if ch.ID < 0 {
		return p.errf("channel %s: missing id", name)
	}
	if err := pkg.AddChannel(ch); err != nil {
		return p.errf("%v", err)
	}
	return nil
}

func (p *parser) parseChanField(ch *ir.Channel, key string) error {
	switch key {
	case "id":
		id, err := p.expectNumber()
		if err != nil {
			return err
		}
		ch.ID = id
	case "kind":
		v, err := p.expectIdent("")
		if err != nil {
			return err
		}
		switch v {
		case "streaming":
			ch.Kind = ir.Streaming
		case "single_value":
			ch.Kind = ir.SingleValue
		default:
			return p.errf("unknown channel kind %q", v)
		}
	case "ops":
		v, err := p.expectIdent("")
		if err != nil {
			return err
		}
		switch v {
		case "send_only":
			ch.Ops = ir.SendOnly
		case "receive_only":
			ch.Ops = ir.ReceiveOnly
		case "send_receive":
			ch.Ops = ir.SendReceive
		default:
			return p.errf("unknown channel ops %q", v)
		}
	case "flow_control":
		v, err := p.expectIdent("")
		if err != nil {
			return err
		}
		if v != "ready_valid" {
			return p.errf("unknown flow control %q", v)
		}
		ch.FlowControl = ir.ReadyValid
	case "strictness":
		v, err := p.expectIdent("")
		if err != nil {
			return err
		}
		s, err := ir.ParseStrictness(v)
		if err != nil {
			return p.errf("%v", err)
		}
		ch.Strictness = s
	case "metadata":
		if p.cur.kind != tokString {
			return p.errf("metadata must be a string, got %s", p.cur)
		}
		ch.Metadata = p.cur.text
		return p.advance()
	default:
		return p.errf("unknown channel field %q", key)
	}
	return nil
}

func (p *parser) parseType() (ir.Type, error) {
	if p.cur.kind == tokPunct && p.cur.text == "(" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []ir.Type
		for {
			if p.cur.kind == tokPunct && p.cur.text == ")" {
				break
			}
			if len(elems) > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ir.TupleType{Elems: elems}, nil
	}

	name, err := p.expectIdent("")
	if err != nil {
		return nil, err
	}
	switch name {
	case "token":
		return ir.TokenType{}, nil
	case "bits":
		if err := p.expectPunct("["); err != nil {
			return nil, err
		}
		width, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return ir.BitsType{Width: int(width)}, nil
	default:
		return nil, p.errf("unknown type %q", name)
	}
}
