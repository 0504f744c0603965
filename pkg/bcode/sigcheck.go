package bcode

import (
	"fmt"
	"strings"
)

// The checks below follow the generic signature grammar of the class-file
// format: class signatures, method signatures and field (reference type)
// signatures. They only validate structure; names are not resolved.

// SignatureError describes where a signature stopped matching the grammar.
type SignatureError struct {
	Sig    string
	Offset int
	Msg    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid signature %q at offset %d: %s", e.Sig, e.Offset, e.Msg)
}

type sigParser struct {
	s   string
	pos int
}

func (p *sigParser) fail(format string, args ...any) {
	panic(&SignatureError{Sig: p.s, Offset: p.pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *sigParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) expect(c byte) {
	if p.peek() != c {
		if p.pos >= len(p.s) {
			p.fail("expected '%c', got end of signature", c)
		}
		p.fail("expected '%c', got '%c'", c, p.s[p.pos])
	}
	p.pos++
}

func (p *sigParser) end() {
	if p.pos != len(p.s) {
		p.fail("unexpected trailing characters")
	}
}

// identifier reads a non-empty identifier ending before any of the
// characters the grammar reserves.
func (p *sigParser) identifier() {
	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune(".;[/<>:", rune(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		p.fail("expected identifier")
	}
}

func (p *sigParser) typeParameters() {
	p.expect('<')
	p.typeParameter()
	for p.peek() != '>' {
		p.typeParameter()
	}
	p.pos++
}

func (p *sigParser) typeParameter() {
	p.identifier()
	p.expect(':')
	switch p.peek() {
	case 'L', '[', 'T':
		p.referenceType()
	}
	for p.peek() == ':' {
		p.pos++
		p.referenceType()
	}
}

func (p *sigParser) referenceType() {
	switch p.peek() {
	case 'L':
		p.classType()
	case '[':
		p.pos++
		p.javaType()
	case 'T':
		p.typeVariable()
	default:
		p.fail("expected reference type")
	}
}

func (p *sigParser) javaType() {
	switch p.peek() {
	case 'Z', 'C', 'B', 'S', 'I', 'F', 'J', 'D':
		p.pos++
	default:
		p.referenceType()
	}
}

func (p *sigParser) typeVariable() {
	p.expect('T')
	p.identifier()
	p.expect(';')
}

func (p *sigParser) classType() {
	p.expect('L')
	p.identifier()
	for p.peek() == '/' {
		p.pos++
		p.identifier()
	}
	if p.peek() == '<' {
		p.typeArguments()
	}
	for p.peek() == '.' {
		p.pos++
		p.identifier()
		if p.peek() == '<' {
			p.typeArguments()
		}
	}
	p.expect(';')
}

func (p *sigParser) typeArguments() {
	p.expect('<')
	p.typeArgument()
	for p.peek() != '>' {
		if p.pos >= len(p.s) {
			p.fail("unterminated type arguments")
		}
		p.typeArgument()
	}
	p.pos++
}

func (p *sigParser) typeArgument() {
	switch p.peek() {
	case '*':
		p.pos++
		return
	case '+', '-':
		p.pos++
	}
	p.referenceType()
}

func (p *sigParser) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SignatureError)
			if !ok {
				panic(r)
			}
			err = se
		}
	}()
	fn()
	p.end()
	return nil
}

// CheckClassSignature validates a class signature.
func CheckClassSignature(sig string) error {
	p := &sigParser{s: sig}
	return p.run(func() {
		if p.peek() == '<' {
			p.typeParameters()
		}
		p.classType()
		for p.peek() == 'L' {
			p.classType()
		}
	})
}

// CheckMethodSignature validates a method signature.
func CheckMethodSignature(sig string) error {
	p := &sigParser{s: sig}
	return p.run(func() {
		if p.peek() == '<' {
			p.typeParameters()
		}
		p.expect('(')
		for p.peek() != ')' {
			if p.pos >= len(p.s) {
				p.fail("unterminated parameter list")
			}
			p.javaType()
		}
		p.pos++
		if p.peek() == 'V' {
			p.pos++
		} else {
			p.javaType()
		}
		for p.peek() == '^' {
			p.pos++
			if p.peek() == 'T' {
				p.typeVariable()
			} else {
				p.classType()
			}
		}
	})
}

// CheckFieldSignature validates a field signature.
func CheckFieldSignature(sig string) error {
	p := &sigParser{s: sig}
	return p.run(p.referenceType)
}
