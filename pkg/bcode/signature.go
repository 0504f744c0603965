package bcode

import (
	"strings"

	"github.com/shardulc/dotty/pkg/symbols"
)

// GenericSignature returns the generic signature of sym as a member of
// owner, or "" when none should be written.
func (g *Gen) GenericSignature(sym, owner *symbols.Symbol) string {
	var memberTpe symbols.Type
	if sym.IsMethod() {
		memberTpe = sym.Info
	} else {
		memberTpe = symbols.MemberInfo(owner, sym)
	}
	return g.genericSignature(sym, memberTpe)
}

// StaticForwarderSignature returns the generic signature of the static
// forwarder for sym in the mirror of module. The signature is only written
// when sym's type as seen from module erases to the type of sym itself;
// otherwise the forwarder's signature would not match its descriptor.
func (g *Gen) StaticForwarderSignature(sym, module *symbols.Symbol) string {
	memberTpe := symbols.MemberInfo(module, sym)
	if !symbols.Equal(symbols.Erase(memberTpe), symbols.Erase(sym.Info)) {
		return ""
	}
	if !sym.IsMethod() {
		// the forwarder of a value calls its getter
		memberTpe = &symbols.ExprType{Result: memberTpe}
	}
	return g.genericSignature(sym, memberTpe)
}

func (g *Gen) needsGenericSignature(sym *symbols.Symbol) bool {
	return !(g.Settings.NoGenericSig ||
		sym.Is(symbols.Artifact) ||
		(sym.IsMethod() && sym.Is(symbols.Lifted)) ||
		sym.Is(symbols.Bridge))
}

func (g *Gen) genericSignature(sym *symbols.Symbol, memberTpe symbols.Type) string {
	if !g.needsGenericSignature(sym) {
		return ""
	}
	// Members whose type erases to a primitive never get a signature.
	if es := symbols.ErasedTypeSymbol(sym.Info); es != nil && symbols.Defn.IsPrimitiveValueClass(es) {
		return ""
	}
	sig, ok := javaSig(sym, memberTpe)
	if !ok {
		return ""
	}
	if g.Settings.VerifySignatures {
		g.verifySignature(sym, memberTpe, sig)
	}
	return sig
}

func (g *Gen) verifySignature(sym *symbols.Symbol, memberTpe symbols.Type, sig string) {
	var err error
	switch {
	case sym.IsMethod() || sym.IsTerm() && isMethodType(memberTpe):
		err = CheckMethodSignature(sig)
	case sym.IsTerm():
		err = CheckFieldSignature(sig)
	default:
		err = CheckClassSignature(sig)
	}
	if err == nil {
		return
	}
	owner := "<none>"
	if sym.Owner != nil {
		owner = sym.Owner.FullName()
	}
	g.Reporter.Errorf(sym, sym.Pos,
		"compiler bug: created invalid generic signature for %s in %s\nsignature: %s\nif this is reproducible, please report bug",
		sym, owner, sig)
	abortf(sym, "%v", err)
}

// isMethodType reports whether tp is rendered with the method grammar, as
// the getter of a value is.
func isMethodType(tp symbols.Type) bool {
	switch tp.(type) {
	case *symbols.MethodType, *symbols.PolyType, *symbols.ExprType:
		return true
	}
	return false
}

// thrownTypes returns the exception types named by @throws annotations.
func thrownTypes(sym *symbols.Symbol) []symbols.Type {
	var out []symbols.Type
	for _, a := range sym.Annotations {
		if a.Symbol() != symbols.Defn.ThrowsAnnot {
			continue
		}
		if tp := thrownType(a); tp != nil {
			out = append(out, tp)
		}
	}
	return out
}

func thrownType(a *symbols.Annotation) symbols.Type {
	if ref, ok := a.Tree.Type().(*symbols.TypeRef); ok && len(ref.Args) == 1 {
		return ref.Args[0]
	}
	if arg, ok := a.Argument(0); ok {
		if lit, ok := normalizeArgument(arg).(*symbols.Literal); ok && lit.Const.Tag == symbols.ClazzTag {
			return lit.Const.TypeValue()
		}
	}
	return nil
}

// javaSig renders the generic signature of sym with the given info. The
// second result is false when the erased descriptor already says
// everything.
func javaSig(sym *symbols.Symbol, info symbols.Type) (string, bool) {
	var throws []symbols.Type
	if sym.IsMethod() {
		throws = thrownTypes(sym)
	}
	needed := needsSig(info)
	for _, t := range throws {
		needed = needed || needsSig(t)
	}
	if !needed {
		return "", false
	}
	sb := &sigBuilder{sym: sym}
	sb.jsig(info, true, true)
	for _, t := range throws {
		sb.b.WriteByte('^')
		sb.jsig(t, true, false)
	}
	return sb.b.String(), true
}

// needsSig reports whether a type mentions anything the erased descriptor
// loses: type parameters, abstract types or type arguments.
func needsSig(tp symbols.Type) bool {
	switch t := symbols.Dealias(tp).(type) {
	case *symbols.TypeRef:
		if !t.Sym.IsClass() {
			return true
		}
		if t.Sym == symbols.Defn.ArrayClass {
			return anyNeedsSig(t.Args)
		}
		return len(t.Args) > 0
	case *symbols.ArrayType:
		return needsSig(t.Elem)
	case *symbols.MethodType:
		return anyNeedsSig(t.Params) || needsSig(t.Result)
	case *symbols.PolyType:
		return true
	case *symbols.ExprType:
		return needsSig(t.Result)
	case *symbols.TypeBounds:
		return true
	case *symbols.AnnotatedType:
		return needsSig(t.Parent)
	case *symbols.RefinedType:
		return needsSig(t.Parent)
	case *symbols.TermRef, *symbols.ConstantType:
		return needsSig(symbols.Widen(t))
	case *symbols.ClassInfo:
		return len(t.Cls.TypeParams) > 0 || anyNeedsSig(t.Cls.Parents)
	}
	return false
}

func anyNeedsSig(ts []symbols.Type) bool {
	for _, t := range ts {
		if needsSig(t) {
			return true
		}
	}
	return false
}

type sigBuilder struct {
	b   strings.Builder
	sym *symbols.Symbol
}

func (s *sigBuilder) jsig(tp symbols.Type, toplevel, primitiveOK bool) {
	d := symbols.Defn
	switch t := symbols.Dealias(tp).(type) {
	case *symbols.TypeRef:
		sym := t.Sym
		switch {
		case sym == d.ArrayClass && len(t.Args) == 1:
			s.arraySig(t.Args[0])
		case sym.Kind == symbols.KindTypeParam:
			s.b.WriteByte('T')
			s.b.WriteString(symbols.EncodeName(sym.Name))
			s.b.WriteByte(';')
		case !sym.IsClass():
			s.jsig(symbols.Erase(t), toplevel, primitiveOK)
		case sym == d.AnyClass || sym == d.AnyValClass:
			s.classSig(d.ObjectClass, nil)
		case sym == d.NothingClass:
			s.b.WriteString(NothingRef.Descriptor())
		case sym == d.NullClass:
			s.b.WriteString(NullRef.Descriptor())
		case d.IsPrimitiveValueClass(sym):
			switch {
			case !primitiveOK:
				s.classSig(d.ObjectClass, nil)
			case sym == d.UnitClass:
				s.classSig(d.BoxedUnitClass, nil)
			default:
				s.b.WriteString(primitiveTag(sym))
			}
		default:
			s.classSig(sym, t.Args)
		}
	case *symbols.ArrayType:
		s.arraySig(t.Elem)
	case *symbols.PolyType:
		if toplevel {
			s.typeParamsSig(t.TypeParams)
		}
		s.jsig(t.Result, toplevel, primitiveOK)
	case *symbols.MethodType:
		var params []symbols.Type
		var res symbols.Type = t
		for {
			mt, ok := res.(*symbols.MethodType)
			if !ok {
				break
			}
			params = append(params, mt.Params...)
			res = mt.Result
		}
		s.b.WriteByte('(')
		for _, p := range params {
			s.jsig(p, false, true)
		}
		s.b.WriteByte(')')
		s.resultSig(res)
	case *symbols.ExprType:
		if toplevel {
			s.b.WriteString("()")
			s.resultSig(t.Result)
		} else {
			s.jsig(t.Result, false, primitiveOK)
		}
	case *symbols.TypeBounds:
		if t.Hi == nil {
			s.classSig(d.ObjectClass, nil)
		} else {
			s.jsig(t.Hi, toplevel, primitiveOK)
		}
	case *symbols.AnnotatedType:
		s.jsig(t.Parent, toplevel, primitiveOK)
	case *symbols.RefinedType:
		s.jsig(t.Parent, toplevel, primitiveOK)
	case *symbols.TermRef, *symbols.ConstantType:
		s.jsig(symbols.Widen(t), toplevel, primitiveOK)
	case *symbols.ThisType:
		s.classSig(t.Cls, nil)
	case *symbols.ClassInfo:
		if toplevel {
			s.typeParamsSig(t.Cls.TypeParams)
		}
		s.superSig(t.Cls)
	default:
		abortf(s.sym, "unexpected type in generic signature: %s", describeType(tp))
	}
}

func (s *sigBuilder) resultSig(res symbols.Type) {
	res = symbols.ResultType(res)
	if s.sym.IsConstructor() || symbols.ClassSymbol(res) == symbols.Defn.UnitClass {
		s.b.WriteByte('V')
		return
	}
	s.jsig(res, false, true)
}

func (s *sigBuilder) arraySig(elem symbols.Type) {
	if ref, ok := symbols.Dealias(elem).(*symbols.TypeRef); ok && !ref.Sym.IsClass() {
		if b, ok := ref.Sym.Info.(*symbols.TypeBounds); !ok || b.Hi == nil {
			// A generic array erases to Object.
			s.classSig(symbols.Defn.ObjectClass, nil)
			return
		}
	}
	s.b.WriteByte('[')
	s.jsig(elem, false, true)
}

func (s *sigBuilder) classSig(sym *symbols.Symbol, args []symbols.Type) {
	s.b.WriteByte('L')
	s.b.WriteString(sym.BinaryName())
	if len(args) > 0 {
		s.b.WriteByte('<')
		for _, a := range args {
			s.argSig(a)
		}
		s.b.WriteByte('>')
	}
	s.b.WriteByte(';')
}

func (s *sigBuilder) argSig(tp symbols.Type) {
	d := symbols.Defn
	b, ok := tp.(*symbols.TypeBounds)
	if !ok {
		s.jsig(tp, false, false)
		return
	}
	switch {
	case b.Hi != nil && symbols.ClassSymbol(b.Hi) != d.AnyClass:
		s.b.WriteByte('+')
		s.jsig(b.Hi, false, false)
	case b.Lo != nil && symbols.ClassSymbol(b.Lo) != d.NothingClass:
		s.b.WriteByte('-')
		s.jsig(b.Lo, false, false)
	default:
		s.b.WriteByte('*')
	}
}

func (s *sigBuilder) typeParamsSig(tparams []*symbols.Symbol) {
	if len(tparams) == 0 {
		return
	}
	s.b.WriteByte('<')
	for _, tp := range tparams {
		s.b.WriteString(symbols.EncodeName(tp.Name))
		s.boundsSig(tp)
	}
	s.b.WriteByte('>')
}

func (s *sigBuilder) boundsSig(tparam *symbols.Symbol) {
	var hi symbols.Type = symbols.Ref(symbols.Defn.ObjectClass)
	if b, ok := tparam.Info.(*symbols.TypeBounds); ok && b.Hi != nil &&
		symbols.ClassSymbol(b.Hi) != symbols.Defn.AnyClass {
		hi = b.Hi
	}
	s.b.WriteByte(':')
	// An interface bound is written in the interface-bound slot.
	if ref, ok := symbols.Dealias(hi).(*symbols.TypeRef); ok && ref.Sym.IsTrait() {
		s.b.WriteByte(':')
	}
	s.jsig(hi, false, false)
}

// superSig writes the superclass and interfaces of a class signature. The
// first entry is always a class; trait signatures list only traits after
// Object.
func (s *sigBuilder) superSig(cls *symbols.Symbol) {
	var parents []symbols.Type
	for _, p := range cls.Parents {
		pc := symbols.ClassSymbol(p)
		if cls.IsTrait() && (pc == nil || !pc.IsTrait()) {
			continue
		}
		parents = append(parents, p)
	}
	if len(parents) == 0 {
		s.classSig(symbols.Defn.ObjectClass, nil)
		return
	}
	if pc := symbols.ClassSymbol(parents[0]); pc != nil && pc.IsTrait() {
		s.classSig(symbols.Defn.ObjectClass, nil)
	}
	for _, p := range parents {
		s.jsig(p, false, false)
	}
}

func primitiveTag(sym *symbols.Symbol) string {
	d := symbols.Defn
	switch sym {
	case d.BooleanClass:
		return "Z"
	case d.CharClass:
		return "C"
	case d.ByteClass:
		return "B"
	case d.ShortClass:
		return "S"
	case d.IntClass:
		return "I"
	case d.LongClass:
		return "J"
	case d.FloatClass:
		return "F"
	case d.DoubleClass:
		return "D"
	}
	return "V"
}
