package bcode

import (
	"github.com/shardulc/dotty/pkg/symbols"
)

// ToTypeKind maps a semantic type to its target representation. Nested
// classes reached along the way are registered for the current class's
// InnerClasses table. Types that cannot reach the back end abort the class.
func (g *Gen) ToTypeKind(tp symbols.Type) BType {
	d := symbols.Defn
	switch t := symbols.WidenDealias(tp).(type) {
	case *symbols.ArrayType:
		return &ArrayBType{Elem: g.ToTypeKind(t.Elem)}
	case *symbols.TypeRef:
		if !t.Sym.IsClass() {
			return g.nonClassTypeRef(t.Sym)
		}
		return g.primitiveOrClass(t.Sym)
	case *symbols.ClassInfo:
		return g.primitiveOrClass(t.Cls)
	case *symbols.AnnotatedType:
		g.Reporter.Debugf(g.site, g.at(t.Annot.Pos), "dropping annotation @%s on %s", t.Annot.Symbol().Name, t.Parent)
		return g.ToTypeKind(t.Parent)
	case *symbols.ThisType:
		if t.Cls == d.ArrayClass {
			return ObjectRef
		}
		return g.classAndRegister(t.Cls)
	case *symbols.RefinedType:
		return g.ToTypeKind(t.Parent)
	}
	msg := "unexpected type representation reached the backend while compiling " +
		g.unit.Name() + ": " + describeType(tp)
	g.Reporter.Errorf(g.site, g.at(symbols.NoPos), "%s", msg)
	abortf(g.site, "%s", msg)
	return nil
}

func describeType(tp symbols.Type) string {
	if tp == nil {
		return "<nil>"
	}
	return tp.String()
}

func (g *Gen) primitiveOrClass(sym *symbols.Symbol) BType {
	assertf(sym != symbols.Defn.ArrayClass || g.compilingArray(), sym,
		"the Array class must have been rewritten to an array type: %s", sym)
	if p, ok := g.BTypes.Primitive(sym); ok {
		return p
	}
	return g.classAndRegister(sym)
}

func (g *Gen) nonClassTypeRef(sym *symbols.Symbol) BType {
	assertf(sym.IsType() && g.compilingArray(), sym,
		"non-class type %s reached the backend outside the Array class", sym)
	return ObjectRef
}

// classAndRegister maps a class symbol to its class type and records it in
// the InnerClasses registrar when nested.
func (g *Gen) classAndRegister(sym *symbols.Symbol) *ClassBType {
	switch sym {
	case symbols.Defn.NothingClass:
		return NothingRef
	case symbols.Defn.NullClass:
		return NullRef
	}
	c := g.BTypes.ClassBTypeFromSymbol(sym)
	g.inner.Register(c)
	return c
}

// ClassBType returns the class type of a class symbol, registering it if
// nested.
func (g *Gen) ClassBType(sym *symbols.Symbol) *ClassBType {
	return g.classAndRegister(sym)
}

// InternalName returns the internal name of a class symbol.
func (g *Gen) InternalName(sym *symbols.Symbol) string {
	return g.classAndRegister(sym).InternalName
}

// TypeDescriptor returns the descriptor of a type.
func (g *Gen) TypeDescriptor(tp symbols.Type) string {
	return g.ToTypeKind(tp).Descriptor()
}

// MethodBTypeOf computes the erased method type of a method or value
// symbol. Values are treated as parameterless methods; constructors return
// void.
func (g *Gen) MethodBTypeOf(sym *symbols.Symbol) *MethodBType {
	return g.methodBType(sym, sym.Info)
}

func (g *Gen) methodBType(sym *symbols.Symbol, info symbols.Type) *MethodBType {
	erased := symbols.Erase(info)
	mt, ok := erased.(*symbols.MethodType)
	if !ok {
		mt = &symbols.MethodType{Result: erased}
	}
	params := make([]BType, len(mt.Params))
	for i, p := range mt.Params {
		params[i] = g.ToTypeKind(p)
	}
	var result BType
	if sym.IsConstructor() {
		result = UNIT
	} else {
		result = g.ToTypeKind(mt.Result)
	}
	return &MethodBType{Params: params, Result: result}
}
