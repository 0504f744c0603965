package bcode

import (
	"strings"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

func TestToTypeKindDescriptors(t *testing.T) {
	d := symbols.Defn
	p := newTestPackage("tk")
	outer := symbols.NewClass(p, "Outer", 0, objectType())
	inner := symbols.NewClass(outer, "Inner", 0, objectType())
	alias := symbols.NewTypeAlias(outer, "Ints", &symbols.ArrayType{Elem: intType()})

	tests := []struct {
		name string
		tp   symbols.Type
		want string
	}{
		{"int", intType(), "I"},
		{"unit", symbols.Ref(d.UnitClass), "V"},
		{"boolean", symbols.Ref(d.BooleanClass), "Z"},
		{"char", symbols.Ref(d.CharClass), "C"},
		{"long", symbols.Ref(d.LongClass), "J"},
		{"double", symbols.Ref(d.DoubleClass), "D"},
		{"string", stringType(), "Ljava/lang/String;"},
		{"nothing", symbols.Ref(d.NothingClass), "Lscala/runtime/Nothing$;"},
		{"null", symbols.Ref(d.NullClass), "Lscala/runtime/Null$;"},
		{"int array", &symbols.ArrayType{Elem: intType()}, "[I"},
		{"nested array", &symbols.ArrayType{Elem: &symbols.ArrayType{Elem: stringType()}}, "[[Ljava/lang/String;"},
		{"nested class", symbols.Ref(inner), "Ltk/Outer$Inner;"},
		{"alias", symbols.Ref(alias), "[I"},
		{"class info", outer.Info, "Ltk/Outer;"},
		{"this type", &symbols.ThisType{Cls: outer}, "Ltk/Outer;"},
		{"array this type", &symbols.ThisType{Cls: d.ArrayClass}, "Ljava/lang/Object;"},
		{"singleton", &symbols.TermRef{Sym: symbols.NewValue(outer, "s", 0, stringType())}, "Ljava/lang/String;"},
		{"constant", &symbols.ConstantType{Value: symbols.IntConst(3)}, "I"},
		{"refined", &symbols.RefinedType{Parent: symbols.Ref(outer), Name: "T", Info: intType()}, "Ltk/Outer;"},
		{"annotated", &symbols.AnnotatedType{Parent: intType(), Annot: symbols.NewAnnotation(d.DeprecatedAnnot, nil)}, "I"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGen()
			var got string
			if err := Guard(func() { got = g.TypeDescriptor(tt.tp) }); err != nil {
				t.Fatalf("TypeDescriptor(%s): %v", tt.tp, err)
			}
			if got != tt.want {
				t.Errorf("TypeDescriptor(%s): got %q, want %q", tt.tp, got, tt.want)
			}
		})
	}
}

func TestToTypeKindRegistersNestedClasses(t *testing.T) {
	p := newTestPackage("reg")
	top := symbols.NewClass(p, "Top", 0, objectType())
	mid := symbols.NewClass(top, "Mid", 0, objectType())
	leaf := symbols.NewClass(mid, "Leaf", 0, objectType())

	g, _ := newTestGen()
	g.ToTypeKind(symbols.Ref(top))
	if g.InnerClasses().Len() != 0 {
		t.Errorf("top-level class registered: %d entries", g.InnerClasses().Len())
	}
	g.ToTypeKind(&symbols.ArrayType{Elem: symbols.Ref(leaf)})

	rows := g.InnerClasses().Flush()
	want := []string{"reg/Top$Mid", "reg/Top$Mid$Leaf"}
	if len(rows) != len(want) {
		t.Fatalf("rows: got %v, want names %v", rows, want)
	}
	for i, r := range rows {
		if r.Name != want[i] {
			t.Errorf("row %d: got %q, want %q", i, r.Name, want[i])
		}
	}
}

func TestToTypeKindArrayClassAssertion(t *testing.T) {
	g, rep := newTestGen()
	ie := mustInternalError(t, func() {
		g.ToTypeKind(symbols.Ref(symbols.Defn.ArrayClass))
	})
	if !strings.Contains(ie.Msg, "assertion failed") {
		t.Errorf("message: got %q", ie.Msg)
	}
	if rep.ErrorCount() != 0 {
		t.Errorf("assertion failures are not user diagnostics, got %v", rep.Messages(SeverityError))
	}

	g.StartUnit(&Unit{Source: "Array.scala", CompilingArray: true})
	var bt BType
	if err := Guard(func() { bt = g.ToTypeKind(symbols.Ref(symbols.Defn.ArrayClass)) }); err != nil {
		t.Fatalf("Array class while compiling Array: %v", err)
	}
	if bt.Descriptor() != "Lscala/Array;" {
		t.Errorf("got %q", bt.Descriptor())
	}
}

func TestToTypeKindNonClassEscapeHatch(t *testing.T) {
	tparam := symbols.Defn.ArrayClass.TypeParams[0]

	g, _ := newTestGen()
	mustInternalError(t, func() { g.ToTypeKind(symbols.Ref(tparam)) })

	g.StartUnit(&Unit{Source: "Array.scala", CompilingArray: true})
	var bt BType
	if err := Guard(func() { bt = g.ToTypeKind(symbols.Ref(tparam)) }); err != nil {
		t.Fatalf("type parameter while compiling Array: %v", err)
	}
	if bt != ObjectRef {
		t.Errorf("got %v, want %v", bt, ObjectRef)
	}
}

func TestToTypeKindUnexpectedShape(t *testing.T) {
	g, rep := newTestGen()
	g.StartUnit(&Unit{Source: "Shapes.scala"})
	mustInternalError(t, func() {
		g.ToTypeKind(&symbols.TypeBounds{Hi: intType()})
	})
	errs := rep.Messages(SeverityError)
	if len(errs) != 1 {
		t.Fatalf("errors: got %v, want one", errs)
	}
	if !strings.Contains(errs[0], "unexpected type representation reached the backend while compiling Shapes.scala") {
		t.Errorf("message: got %q", errs[0])
	}
}

func TestToTypeKindUnexpectedShapeNamesMember(t *testing.T) {
	cls := symbols.NewClass(newTestPackage("shapes"), "Shape", 0, objectType())
	v := symbols.NewValue(cls, "bounds", 0, intType())
	v.Pos = symbols.NewPos("Shapes.scala", 4, 7)

	g, rep := newTestGen()
	g.site = v
	ie := mustInternalError(t, func() {
		g.ToTypeKind(&symbols.TypeBounds{Hi: intType()})
	})
	if ie.Sym != v {
		t.Errorf("internal error names %v, want %v", ie.Sym, v)
	}
	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Sym != v || diags[0].Pos != v.Pos {
		t.Errorf("diagnostics: got %+v", diags)
	}
}

func TestMethodBTypeOf(t *testing.T) {
	d := symbols.Defn
	p := newTestPackage("mbt")
	cls := symbols.NewClass(p, "C", 0, objectType())
	tp := symbols.NewTypeParam(nil, "A", nil)

	tests := []struct {
		sym  *symbols.Symbol
		desc string
		slot int
	}{
		{symbols.NewMethod(cls, "f", 0, method([]symbols.Type{intType()}, intType())), "(I)I", 1},
		{symbols.NewMethod(cls, "g", 0, method([]symbols.Type{symbols.Ref(d.LongClass), symbols.Ref(d.DoubleClass)}, symbols.Ref(d.UnitClass))), "(JD)V", 4},
		{symbols.NewMethod(cls, "u", 0, method([]symbols.Type{symbols.Ref(d.UnitClass)}, stringType())), "(Lscala/runtime/BoxedUnit;)Ljava/lang/String;", 1},
		{symbols.NewMethod(cls, "poly", 0, &symbols.PolyType{TypeParams: []*symbols.Symbol{tp}, Result: method([]symbols.Type{symbols.Ref(tp)}, symbols.Ref(tp))}), "(Ljava/lang/Object;)Ljava/lang/Object;", 1},
		{symbols.NewMethod(cls, "curried", 0, method([]symbols.Type{intType()}, method([]symbols.Type{stringType()}, intType()))), "(ILjava/lang/String;)I", 2},
		{symbols.NewMethod(cls, "x", 0, &symbols.ExprType{Result: intType()}), "()I", 0},
		{symbols.NewConstructor(cls, []string{"a"}, []symbols.Type{intType()}), "(I)V", 1},
	}
	for _, tt := range tests {
		g, _ := newTestGen()
		mt := g.MethodBTypeOf(tt.sym)
		if got := mt.Descriptor(); got != tt.desc {
			t.Errorf("%s: got %q, want %q", tt.sym.Name, got, tt.desc)
		}
		if got := mt.ParamSlots(); got != tt.slot {
			t.Errorf("%s: param slots got %d, want %d", tt.sym.Name, got, tt.slot)
		}
	}
}

func TestTypedOpcode(t *testing.T) {
	tests := []struct {
		bt   BType
		load classfile.Opcode
		ret  classfile.Opcode
	}{
		{INT, classfile.OpIload, classfile.OpIreturn},
		{BOOL, classfile.OpIload, classfile.OpIreturn},
		{LONG, classfile.OpLload, classfile.OpLreturn},
		{FLOAT, classfile.OpFload, classfile.OpFreturn},
		{DOUBLE, classfile.OpDload, classfile.OpDreturn},
		{StringRef, classfile.OpAload, classfile.OpAreturn},
		{&ArrayBType{Elem: INT}, classfile.OpAload, classfile.OpAreturn},
		{UNIT, classfile.OpIload, classfile.OpReturn},
	}
	for _, tt := range tests {
		if got := TypedOpcode(tt.bt, classfile.OpIload); got != tt.load && tt.bt != UNIT {
			t.Errorf("load %v: got %v, want %v", tt.bt, got, tt.load)
		}
		if got := TypedOpcode(tt.bt, classfile.OpIreturn); got != tt.ret {
			t.Errorf("return %v: got %v, want %v", tt.bt, got, tt.ret)
		}
	}
}

func TestClassBTypeCached(t *testing.T) {
	p := newTestPackage("cache")
	cls := symbols.NewClass(p, "C", 0, objectType())
	bt := NewBTypes()
	a := bt.ClassBTypeFromSymbol(cls)
	b := bt.ClassBTypeFromSymbol(cls)
	if a != b {
		t.Error("ClassBTypeFromSymbol returned two different values for one class")
	}
	if c := bt.ClassBTypeFromName("cache/C"); c != a {
		t.Errorf("lookup by name: got %p, want %p", c, a)
	}
	if bt.ClassBTypeFromName("java/lang/Object") != ObjectRef {
		t.Error("Object is not preloaded")
	}
}
