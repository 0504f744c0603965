package symbols

import (
	"fmt"
	"strings"
)

// Type is the interface implemented by all semantic types.
type Type interface {
	String() string

	// aType is a marker method to restrict implementations to this package.
	aType()
}

type typ struct{}

func (typ) aType() {}

// TypeRef is a reference to a named type: a class, type parameter, type
// alias or abstract type member, with optional type arguments.
type TypeRef struct {
	typ
	Sym  *Symbol
	Args []Type
}

// ArrayType is the target platform's native array of Elem.
type ArrayType struct {
	typ
	Elem Type
}

// AnnotatedType is Parent carrying a type annotation.
type AnnotatedType struct {
	typ
	Parent Type
	Annot  *Annotation
}

// ThisType is the self type C.this.type of class Cls.
type ThisType struct {
	typ
	Cls *Symbol
}

// TermRef is the singleton type of a term. Prefix is nil when the term was
// referenced without a qualifier (a local binding or parameter).
type TermRef struct {
	typ
	Prefix Type
	Sym    *Symbol
}

// RefinedType is Parent { Name: Info }.
type RefinedType struct {
	typ
	Parent Type
	Name   string
	Info   Type
}

// ClassInfo is the info of a class symbol.
type ClassInfo struct {
	typ
	Cls *Symbol
}

// MethodType is a (possibly implicit) parameter list followed by a result.
type MethodType struct {
	typ
	ParamNames []string
	Params     []Type
	Result     Type
	Implicit   bool
}

// PolyType is a method type abstracted over type parameters.
type PolyType struct {
	typ
	TypeParams []*Symbol
	Result     Type
}

// ExprType is the type of a parameterless method: => Result.
type ExprType struct {
	typ
	Result Type
}

// TypeBounds is >: Lo <: Hi. Nil bounds mean Nothing and Any. As a type
// argument it denotes a wildcard.
type TypeBounds struct {
	typ
	Lo Type
	Hi Type
}

// ConstantType is the singleton type of a literal constant.
type ConstantType struct {
	typ
	Value Constant
}

func (t *TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Sym.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Sym.Name + "[" + strings.Join(args, ", ") + "]"
}

func (t *ArrayType) String() string     { return "Array[" + t.Elem.String() + "]" }
func (t *AnnotatedType) String() string { return t.Parent.String() + " @" + t.Annot.Symbol().Name }
func (t *ThisType) String() string      { return t.Cls.Name + ".this.type" }
func (t *TermRef) String() string       { return t.Sym.Name + ".type" }
func (t *RefinedType) String() string {
	return fmt.Sprintf("%s { %s: %s }", t.Parent, t.Name, t.Info)
}
func (t *ClassInfo) String() string { return "ClassInfo(" + t.Cls.FullName() + ")" }
func (t *MethodType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		name := ""
		if i < len(t.ParamNames) {
			name = t.ParamNames[i] + ": "
		}
		params[i] = name + p.String()
	}
	prefix := "("
	if t.Implicit {
		prefix = "(implicit "
	}
	return prefix + strings.Join(params, ", ") + ")" + t.Result.String()
}
func (t *PolyType) String() string {
	names := make([]string, len(t.TypeParams))
	for i, p := range t.TypeParams {
		names[i] = p.Name
	}
	return "[" + strings.Join(names, ", ") + "]" + t.Result.String()
}
func (t *ExprType) String() string { return "=> " + t.Result.String() }
func (t *TypeBounds) String() string {
	s := "?"
	if t.Lo != nil {
		s += " >: " + t.Lo.String()
	}
	if t.Hi != nil {
		s += " <: " + t.Hi.String()
	}
	return s
}
func (t *ConstantType) String() string { return "(" + t.Value.String() + ")" }

// Ref returns a reference to sym applied to args.
func Ref(sym *Symbol, args ...Type) *TypeRef {
	return &TypeRef{Sym: sym, Args: args}
}

// ClassSymbol returns the class a type is based on, or nil.
func ClassSymbol(t Type) *Symbol {
	switch t := Dealias(t).(type) {
	case *TypeRef:
		if t.Sym.IsClass() {
			return t.Sym
		}
		if b, ok := t.Sym.Info.(*TypeBounds); ok && b.Hi != nil {
			return ClassSymbol(b.Hi)
		}
	case *ClassInfo:
		return t.Cls
	case *ThisType:
		return t.Cls
	case *ArrayType:
		return Defn.ArrayClass
	case *AnnotatedType:
		return ClassSymbol(t.Parent)
	case *RefinedType:
		return ClassSymbol(t.Parent)
	case *TermRef:
		return ClassSymbol(t.Sym.Info)
	case *ConstantType:
		return ClassSymbol(t.Value.Type())
	}
	return nil
}

// Dealias expands type aliases at the top level of t.
func Dealias(t Type) Type {
	for {
		ref, ok := t.(*TypeRef)
		if !ok || ref.Sym.Kind != KindTypeAlias {
			return t
		}
		t = Subst(ref.Sym.Info, ref.Sym.TypeParams, ref.Args)
	}
}

// Widen replaces singleton types by their underlying types.
func Widen(t Type) Type {
	for {
		switch w := t.(type) {
		case *TermRef:
			t = w.Sym.Info
			if e, ok := t.(*ExprType); ok {
				t = e.Result
			}
		case *ConstantType:
			return w.Value.Type()
		default:
			return t
		}
	}
}

// WidenDealias widens singletons and expands aliases until neither applies.
func WidenDealias(t Type) Type {
	for {
		next := Dealias(Widen(t))
		if next == t {
			return t
		}
		t = next
	}
}

// Subst replaces references to params by the corresponding args.
func Subst(t Type, params []*Symbol, args []Type) Type {
	if len(params) == 0 || len(args) == 0 || t == nil {
		return t
	}
	switch t := t.(type) {
	case *TypeRef:
		for i, p := range params {
			if t.Sym == p && i < len(args) {
				return args[i]
			}
		}
		if len(t.Args) == 0 {
			return t
		}
		return &TypeRef{Sym: t.Sym, Args: substAll(t.Args, params, args)}
	case *ArrayType:
		return &ArrayType{Elem: Subst(t.Elem, params, args)}
	case *AnnotatedType:
		return &AnnotatedType{Parent: Subst(t.Parent, params, args), Annot: t.Annot}
	case *RefinedType:
		return &RefinedType{Parent: Subst(t.Parent, params, args), Name: t.Name, Info: Subst(t.Info, params, args)}
	case *MethodType:
		return &MethodType{
			ParamNames: t.ParamNames,
			Params:     substAll(t.Params, params, args),
			Result:     Subst(t.Result, params, args),
			Implicit:   t.Implicit,
		}
	case *PolyType:
		return &PolyType{TypeParams: t.TypeParams, Result: Subst(t.Result, params, args)}
	case *ExprType:
		return &ExprType{Result: Subst(t.Result, params, args)}
	case *TypeBounds:
		return &TypeBounds{Lo: Subst(t.Lo, params, args), Hi: Subst(t.Hi, params, args)}
	}
	return t
}

func substAll(ts []Type, params []*Symbol, args []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Subst(t, params, args)
	}
	return out
}

// Equal reports whether two types are structurally identical.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case *TypeRef:
		b, ok := b.(*TypeRef)
		return ok && a.Sym == b.Sym && equalAll(a.Args, b.Args)
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && Equal(a.Elem, b.Elem)
	case *AnnotatedType:
		b, ok := b.(*AnnotatedType)
		return ok && a.Annot == b.Annot && Equal(a.Parent, b.Parent)
	case *ThisType:
		b, ok := b.(*ThisType)
		return ok && a.Cls == b.Cls
	case *TermRef:
		b, ok := b.(*TermRef)
		return ok && a.Sym == b.Sym
	case *RefinedType:
		b, ok := b.(*RefinedType)
		return ok && a.Name == b.Name && Equal(a.Parent, b.Parent) && Equal(a.Info, b.Info)
	case *ClassInfo:
		b, ok := b.(*ClassInfo)
		return ok && a.Cls == b.Cls
	case *MethodType:
		b, ok := b.(*MethodType)
		return ok && a.Implicit == b.Implicit && equalAll(a.Params, b.Params) && Equal(a.Result, b.Result)
	case *PolyType:
		b, ok := b.(*PolyType)
		if !ok || len(a.TypeParams) != len(b.TypeParams) {
			return false
		}
		for i := range a.TypeParams {
			if a.TypeParams[i] != b.TypeParams[i] {
				return false
			}
		}
		return Equal(a.Result, b.Result)
	case *ExprType:
		b, ok := b.(*ExprType)
		return ok && Equal(a.Result, b.Result)
	case *TypeBounds:
		b, ok := b.(*TypeBounds)
		return ok && Equal(a.Lo, b.Lo) && Equal(a.Hi, b.Hi)
	case *ConstantType:
		b, ok := b.(*ConstantType)
		return ok && a.Value == b.Value
	}
	return false
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ResultType strips parameter lists and type parameters off a method type.
func ResultType(t Type) Type {
	for {
		switch m := t.(type) {
		case *MethodType:
			t = m.Result
		case *PolyType:
			t = m.Result
		case *ExprType:
			t = m.Result
		default:
			return t
		}
	}
}

// FirstParamTypes returns the types of the first value parameter list.
func FirstParamTypes(t Type) []Type {
	switch m := t.(type) {
	case *MethodType:
		return m.Params
	case *PolyType:
		return FirstParamTypes(m.Result)
	}
	return nil
}
