package bcode

import (
	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// AnnotationTarget is anything that can carry annotation records: a class,
// a field or a method.
type AnnotationTarget interface {
	AddAnnotation(a *classfile.Annotation, visible bool)
}

// ShouldEmitAnnotation reports whether an annotation is written to class
// files: only Java-defined annotation classes qualify, and not those with
// source retention.
func ShouldEmitAnnotation(a *symbols.Annotation) bool {
	cls := a.Symbol()
	return cls != nil && cls.Is(symbols.JavaDefined) &&
		retentionPolicyOf(cls) != symbols.Defn.RetentionSource
}

// IsRuntimeVisible reports whether an emitted annotation goes to the
// runtime-visible table. Without a retention meta-annotation it does.
func IsRuntimeVisible(a *symbols.Annotation) bool {
	cls := a.Symbol()
	if cls.AnnotationOf(symbols.Defn.RetentionAnnot) == nil {
		return true
	}
	return retentionPolicyOf(cls) == symbols.Defn.RetentionRuntime
}

func retentionPolicyOf(cls *symbols.Symbol) *symbols.Symbol {
	d := symbols.Defn
	meta := cls.AnnotationOf(d.RetentionAnnot)
	if meta == nil {
		return d.RetentionClass
	}
	arg, ok := meta.Argument(0)
	if !ok {
		return d.RetentionClass
	}
	if sym := symbols.TreeSymbol(normalizeArgument(arg)); sym != nil {
		return sym
	}
	return d.RetentionClass
}

// EmitAnnotations encodes the emittable annotations in annots and attaches
// them to target.
func (g *Gen) EmitAnnotations(target AnnotationTarget, annots []*symbols.Annotation) {
	for _, a := range annots {
		if !ShouldEmitAnnotation(a) {
			continue
		}
		target.AddAnnotation(g.encodeAnnotation(a.Tree), IsRuntimeVisible(a))
	}
}

// EmitParamAnnotations encodes the annotations of a method's parameters.
// Nothing is written when no parameter carries an emittable annotation.
func (g *Gen) EmitParamAnnotations(m *classfile.MethodNode, params []*symbols.Symbol) {
	filtered := make([][]*symbols.Annotation, len(params))
	found := false
	for i, p := range params {
		for _, a := range p.Annotations {
			if ShouldEmitAnnotation(a) {
				filtered[i] = append(filtered[i], a)
				found = true
			}
		}
	}
	if !found {
		return
	}
	for i, annots := range filtered {
		for _, a := range annots {
			m.AddParamAnnotation(i, len(params), g.encodeAnnotation(a.Tree), IsRuntimeVisible(a))
		}
	}
}

func (g *Gen) encodeAnnotation(tree symbols.Tree) *classfile.Annotation {
	rec := &classfile.Annotation{Desc: g.TypeDescriptor(tree.Type())}
	for _, as := range assocsFromApply(tree) {
		if v, ok := g.encodeArgument(as.arg); ok {
			rec.Put(as.name, v)
		}
	}
	return rec
}

type assoc struct {
	name string
	arg  symbols.Tree
}

// assocsFromApply pairs the constructor's parameter names with the
// arguments of an annotation application. Arguments that are bare
// references to unqualified locals are dropped: they stand for defaults.
func assocsFromApply(tree symbols.Tree) []assoc {
	switch t := tree.(type) {
	case *symbols.Block:
		return assocsFromApply(t.Expr)
	case *symbols.Apply:
		var names []string
		if mt, ok := funInfo(t.Fun).(*symbols.MethodType); ok {
			names = mt.ParamNames
		}
		var out []assoc
		for i, arg := range t.Args {
			if i >= len(names) {
				break
			}
			if id, ok := arg.(*symbols.Ident); ok {
				if ref, ok := id.Tpe.(*symbols.TermRef); ok && ref.Prefix == nil {
					continue
				}
			}
			out = append(out, assoc{name: names[i], arg: arg})
		}
		return out
	}
	return nil
}

func funInfo(fun symbols.Tree) symbols.Type {
	if tp := fun.Type(); tp != nil {
		return symbols.Widen(tp)
	}
	if sym := symbols.TreeSymbol(fun); sym != nil {
		return sym.Info
	}
	return nil
}

func normalizeArgument(arg symbols.Tree) symbols.Tree {
	for {
		switch t := arg.(type) {
		case *symbols.NamedArg:
			arg = t.Arg
		case *symbols.Typed:
			arg = t.Expr
		default:
			return arg
		}
	}
}

// constToLiteral folds a reference of constant type, or a classOf
// application, into a literal.
func constToLiteral(arg symbols.Tree) symbols.Tree {
	switch t := arg.(type) {
	case *symbols.Literal:
		return t
	case *symbols.TypeApply:
		if symbols.TreeSymbol(t.Fun) == symbols.Defn.ClassOfMethod && len(t.Args) == 1 {
			return &symbols.Literal{Const: symbols.ClazzConst(t.Args[0])}
		}
	}
	if ct, ok := arg.Type().(*symbols.ConstantType); ok {
		return &symbols.Literal{Const: ct.Value}
	}
	return arg
}

// encodeArgument encodes one annotation argument. The second result is
// false when the argument must be left out: a wildcard standing for the
// element's default, or an argument that was reported as an error.
func (g *Gen) encodeArgument(arg symbols.Tree) (classfile.ElementValue, bool) {
	d := symbols.Defn
	narg := normalizeArgument(arg)
	t := constToLiteral(narg)

	switch t := t.(type) {
	case *symbols.Literal:
		return g.encodeConstant(t)
	case *symbols.Ident:
		if t.Name == "_" {
			return nil, false
		}
	case *symbols.SeqLiteral:
		return g.encodeArray(t.Elems), true
	case *symbols.Apply:
		fun := symbols.TreeSymbol(t.Fun)
		if fun == d.ArrayApply {
			args := t.Args
			if t.Implicit {
				// Generic array construction: the element list is in the
				// application before the implicit evidence.
				if inner, ok := t.Fun.(*symbols.Apply); ok {
					args = inner.Args
				}
			}
			var flat []symbols.Tree
			for _, a := range args {
				if seq, ok := normalizeArgument(a).(*symbols.SeqLiteral); ok {
					flat = append(flat, seq.Elems...)
				} else {
					flat = append(flat, a)
				}
			}
			return g.encodeArray(flat), true
		}
		if cls := symbols.ClassSymbol(t.Type()); cls != nil &&
			(cls.Is(symbols.JavaAnnotation) || cls.DerivesFrom(d.JavaAnnotationClass)) {
			return &classfile.AnnotationValue{Annotation: g.encodeAnnotation(t)}, true
		}
	}
	if sym := symbols.TreeSymbol(t); sym != nil && isEnumValueRef(t, sym) {
		return &classfile.EnumValue{
			TypeDesc: g.TypeDescriptor(t.Type()),
			Name:     sym.JavaSimpleName(),
		}, true
	}

	g.Reporter.Errorf(g.site, g.at(arg.Pos()), "annotation argument is not a constant")
	return nil, false
}

func isEnumValueRef(t symbols.Tree, sym *symbols.Symbol) bool {
	switch t.(type) {
	case *symbols.Ident, *symbols.Select:
	default:
		return false
	}
	if sym.Owner == nil {
		return false
	}
	linked := sym.Owner.LinkedClass()
	return linked != nil && linked.IsAll(symbols.JavaDefined|symbols.Enum)
}

func (g *Gen) encodeArray(elems []symbols.Tree) *classfile.ArrayValue {
	arr := &classfile.ArrayValue{}
	for _, e := range elems {
		if v, ok := g.encodeArgument(e); ok {
			arr.Values = append(arr.Values, v)
		}
	}
	return arr
}

func (g *Gen) encodeConstant(lit *symbols.Literal) (classfile.ElementValue, bool) {
	c := lit.Const
	switch c.Tag {
	case symbols.BooleanTag:
		v := int32(0)
		if c.Value.(bool) {
			v = 1
		}
		return &classfile.ConstValue{Kind: 'Z', Value: v}, true
	case symbols.ByteTag:
		return &classfile.ConstValue{Kind: 'B', Value: int32(c.Value.(int8))}, true
	case symbols.ShortTag:
		return &classfile.ConstValue{Kind: 'S', Value: int32(c.Value.(int16))}, true
	case symbols.CharTag:
		return &classfile.ConstValue{Kind: 'C', Value: int32(c.Value.(uint16))}, true
	case symbols.IntTag:
		return &classfile.ConstValue{Kind: 'I', Value: c.Value.(int32)}, true
	case symbols.LongTag:
		return &classfile.ConstValue{Kind: 'J', Value: c.Value.(int64)}, true
	case symbols.FloatTag:
		return &classfile.ConstValue{Kind: 'F', Value: c.Value.(float32)}, true
	case symbols.DoubleTag:
		return &classfile.ConstValue{Kind: 'D', Value: c.Value.(float64)}, true
	case symbols.StringTag:
		s, ok := c.Value.(string)
		assertf(ok, g.site, "string constant without a value")
		return &classfile.ConstValue{Kind: 's', Value: s}, true
	case symbols.ClazzTag:
		bt := g.ToTypeKind(symbols.Erase(c.TypeValue()))
		return &classfile.ClassValue{Desc: bt.Descriptor()}, true
	}
	g.Reporter.Errorf(g.site, g.at(lit.Pos()), "annotation argument is not a constant")
	return nil, false
}
