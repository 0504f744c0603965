package decl

import (
	"fmt"
	"strings"
)

// typeExpr is a parsed type expression:
//
//	type  = path [ "[" type { "," type } "]" ] | path ".type"
//	path  = ident { "." ident }
type typeExpr struct {
	Path      []string
	Args      []*typeExpr
	Singleton bool
}

func (e *typeExpr) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(e.Path, "."))
	if e.Singleton {
		b.WriteString(".type")
	}
	if len(e.Args) > 0 {
		b.WriteByte('[')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

type typeParser struct {
	src string
	pos int
}

func parseTypeExpr(src string) (*typeExpr, error) {
	p := &typeParser{src: src}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

// parseTypeParam splits "A", "A <: Bound" or "A >: Bound".
func parseTypeParam(src string) (name string, lo, hi *typeExpr, err error) {
	p := &typeParser{src: src}
	name = p.ident()
	if name == "" {
		return "", nil, nil, p.errorf("expected a type parameter name")
	}
	for {
		p.skipSpace()
		if p.pos == len(p.src) {
			return name, lo, hi, nil
		}
		var bound **typeExpr
		switch {
		case strings.HasPrefix(p.src[p.pos:], "<:"):
			bound = &hi
		case strings.HasPrefix(p.src[p.pos:], ">:"):
			bound = &lo
		default:
			return "", nil, nil, p.errorf("unexpected %q", p.src[p.pos:])
		}
		if *bound != nil {
			return "", nil, nil, p.errorf("duplicate bound")
		}
		p.pos += 2
		if *bound, err = p.parseType(); err != nil {
			return "", nil, nil, err
		}
	}
}

func (p *typeParser) parseType() (*typeExpr, error) {
	e := &typeExpr{}
	for {
		id := p.ident()
		if id == "" {
			return nil, p.errorf("expected a type name")
		}
		if id == "type" && len(e.Path) > 0 {
			e.Singleton = true
			return e, nil
		}
		e.Path = append(e.Path, id)
		p.skipSpace()
		if !p.consume('.') {
			break
		}
	}
	if p.consume('[') {
		for {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, arg)
			p.skipSpace()
			if p.consume(']') {
				break
			}
			if !p.consume(',') {
				return nil, p.errorf("expected ',' or ']'")
			}
		}
	}
	return e, nil
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c >= 0x80
}

func (p *typeParser) consume(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}
