package bcode

import (
	"bytes"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// annotationFixture declares a handful of annotation classes with
// different retention policies in a fresh package.
type annotationFixture struct {
	pkg       *symbols.Symbol
	runtime   *symbols.Symbol // @Retention(RUNTIME), elements value: Int and names: Array[String]
	class     *symbols.Symbol // @Retention(CLASS)
	source    *symbols.Symbol // @Retention(SOURCE)
	plain     *symbols.Symbol // no @Retention
	inner     *symbols.Symbol
	holder    *symbols.Symbol // a class to hang annotations on
	constant  *symbols.Symbol // a non-constant value in holder
	scalaOnly *symbols.Symbol // a Scala annotation class
}

func newAnnotationFixture(name string) *annotationFixture {
	d := symbols.Defn
	p := newTestPackage(name)
	f := &annotationFixture{pkg: p}
	f.runtime = symbols.NewJavaAnnotationClass(p, "Runtime",
		[]string{"value", "names"}, []symbols.Type{intType(), &symbols.ArrayType{Elem: stringType()}})
	d.SetRetention(f.runtime, d.RetentionRuntime)
	f.class = symbols.NewJavaAnnotationClass(p, "ClassLevel", []string{"value"}, []symbols.Type{stringType()})
	d.SetRetention(f.class, d.RetentionClass)
	f.source = symbols.NewJavaAnnotationClass(p, "SourceOnly", nil, nil)
	d.SetRetention(f.source, d.RetentionSource)
	f.plain = symbols.NewJavaAnnotationClass(p, "Plain", []string{"value"}, []symbols.Type{intType()})
	f.inner = symbols.NewJavaAnnotationClass(p, "Inner", []string{"value"}, []symbols.Type{stringType()})
	f.holder = symbols.NewClass(p, "Holder", 0, objectType())
	f.constant = symbols.NewValue(f.holder, "v", 0, intType())
	f.scalaOnly = symbols.NewClass(p, "scalaOnly", 0, symbols.Ref(d.ScalaAnnotation), symbols.Ref(d.StaticAnnotation))
	return f
}

func lit(c symbols.Constant) symbols.Tree { return symbols.Lit(c) }

func TestRetentionFilter(t *testing.T) {
	f := newAnnotationFixture("ret")
	annots := []*symbols.Annotation{
		symbols.NewAnnotation(f.runtime, []symbols.Tree{lit(symbols.IntConst(1))}),
		symbols.NewAnnotation(f.class, []symbols.Tree{lit(symbols.StringConst("c"))}),
		symbols.NewAnnotation(f.source, nil),
		symbols.NewAnnotation(f.plain, []symbols.Tree{lit(symbols.IntConst(2))}),
		symbols.NewAnnotation(f.scalaOnly, nil),
		symbols.NewAnnotation(symbols.Defn.DeprecatedAnnot, nil),
	}

	g, rep := newTestGen()
	node := &classfile.ClassNode{}
	g.EmitAnnotations(node, annots)

	var visible []string
	for _, a := range node.VisibleAnnotations {
		visible = append(visible, a.Desc)
	}
	wantVisible := []string{"Lret/Runtime;", "Lret/Plain;", "Ljava/lang/Deprecated;"}
	if len(visible) != len(wantVisible) {
		t.Fatalf("visible: got %v, want %v", visible, wantVisible)
	}
	for i := range wantVisible {
		if visible[i] != wantVisible[i] {
			t.Errorf("visible %d: got %q, want %q", i, visible[i], wantVisible[i])
		}
	}
	if len(node.InvisibleAnnotations) != 1 || node.InvisibleAnnotations[0].Desc != "Lret/ClassLevel;" {
		t.Errorf("invisible: got %v", node.InvisibleAnnotations)
	}
	if rep.ErrorCount() != 0 {
		t.Errorf("unexpected errors: %v", rep.Messages(SeverityError))
	}

	if ShouldEmitAnnotation(annots[2]) || ShouldEmitAnnotation(annots[4]) {
		t.Error("source-retained or Scala annotation considered emittable")
	}
	if !IsRuntimeVisible(annots[3]) {
		t.Error("annotation without retention should be runtime visible")
	}
}

func TestEncodeArguments(t *testing.T) {
	d := symbols.Defn
	f := newAnnotationFixture("args")

	classOfString := &symbols.TypeApply{
		Fun:  symbols.RefTo(d.ClassOfMethod),
		Args: []symbols.Type{stringType()},
		Tpe:  symbols.Ref(d.ClassClass, stringType()),
	}
	nested := symbols.NewAnnotation(f.inner, []symbols.Tree{lit(symbols.StringConst("in"))})
	kinds := symbols.NewJavaAnnotationClass(f.pkg, "Kinds",
		[]string{"z", "b", "s", "c", "j", "f", "d", "str", "cls", "arr", "policy", "nested", "lit"},
		[]symbols.Type{
			symbols.Ref(d.BooleanClass), symbols.Ref(d.ByteClass), symbols.Ref(d.ShortClass),
			symbols.Ref(d.CharClass), symbols.Ref(d.LongClass), symbols.Ref(d.FloatClass),
			symbols.Ref(d.DoubleClass), stringType(), symbols.Ref(d.ClassClass, &symbols.TypeBounds{}),
			&symbols.ArrayType{Elem: intType()}, symbols.Ref(d.RetentionPolicy), symbols.Ref(f.inner),
			symbols.Ref(d.ClassClass, &symbols.TypeBounds{}),
		})
	annot := symbols.NewAnnotation(kinds, []symbols.Tree{
		lit(symbols.BoolConst(true)),
		lit(symbols.ByteConst(-1)),
		lit(symbols.ShortConst(300)),
		lit(symbols.CharConst('x')),
		&symbols.NamedArg{Name: "j", Arg: lit(symbols.LongConst(1 << 40))},
		lit(symbols.FloatConst(1.5)),
		&symbols.Typed{Expr: lit(symbols.DoubleConst(2.5)), Tpt: symbols.Ref(d.DoubleClass)},
		lit(symbols.StringConst("hello")),
		classOfString,
		&symbols.Apply{Fun: symbols.RefTo(d.ArrayApply), Args: []symbols.Tree{
			lit(symbols.IntConst(1)), lit(symbols.IntConst(2)),
		}},
		symbols.RefTo(d.RetentionRuntime),
		nested.Tree,
		lit(symbols.ClazzConst(&symbols.ArrayType{Elem: intType()})),
	})

	g, rep := newTestGen()
	rec := g.encodeAnnotation(annot.Tree)
	if rep.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", rep.Messages(SeverityError))
	}

	innerRec := &classfile.Annotation{Desc: "Largs/Inner;"}
	innerRec.Put("value", &classfile.ConstValue{Kind: 's', Value: "in"})
	want := &classfile.Annotation{Desc: "Largs/Kinds;"}
	want.Put("z", &classfile.ConstValue{Kind: 'Z', Value: int32(1)})
	want.Put("b", &classfile.ConstValue{Kind: 'B', Value: int32(-1)})
	want.Put("s", &classfile.ConstValue{Kind: 'S', Value: int32(300)})
	want.Put("c", &classfile.ConstValue{Kind: 'C', Value: int32('x')})
	want.Put("j", &classfile.ConstValue{Kind: 'J', Value: int64(1 << 40)})
	want.Put("f", &classfile.ConstValue{Kind: 'F', Value: float32(1.5)})
	want.Put("d", &classfile.ConstValue{Kind: 'D', Value: 2.5})
	want.Put("str", &classfile.ConstValue{Kind: 's', Value: "hello"})
	want.Put("cls", &classfile.ClassValue{Desc: "Ljava/lang/String;"})
	want.Put("arr", &classfile.ArrayValue{Values: []classfile.ElementValue{
		&classfile.ConstValue{Kind: 'I', Value: int32(1)},
		&classfile.ConstValue{Kind: 'I', Value: int32(2)},
	}})
	want.Put("policy", &classfile.EnumValue{TypeDesc: "Ljava/lang/annotation/RetentionPolicy;", Name: "RUNTIME"})
	want.Put("nested", &classfile.AnnotationValue{Annotation: innerRec})
	want.Put("lit", &classfile.ClassValue{Desc: "[I"})

	if !classfile.EqualAnnotations(rec, want) {
		t.Errorf("encoded:\n got  %s\n want %s", rec, want)
	}
}

// Array(1, 2, 3) as written in source: the generic apply with an implicit
// class tag, whose elements arrive as a sequence literal.
func TestEncodeGenericArrayApply(t *testing.T) {
	d := symbols.Defn
	f := newAnnotationFixture("arr")
	ints := symbols.NewJavaAnnotationClass(f.pkg, "Ints", []string{"value"},
		[]symbols.Type{&symbols.ArrayType{Elem: intType()}})

	seq := &symbols.SeqLiteral{
		Elems:    []symbols.Tree{lit(symbols.IntConst(1)), lit(symbols.IntConst(2)), lit(symbols.IntConst(3))},
		ElemType: intType(),
	}
	applied := &symbols.Apply{
		Fun: &symbols.TypeApply{
			Fun:  symbols.RefTo(d.ArrayApply),
			Args: []symbols.Type{intType()},
		},
		Args: []symbols.Tree{&symbols.Typed{Expr: seq, Tpt: &symbols.ArrayType{Elem: intType()}}},
	}
	evidence := &symbols.Ident{Name: "evidence$1", Tpe: symbols.Ref(d.ClassTagClass, intType())}
	arg := &symbols.Apply{Fun: applied, Args: []symbols.Tree{evidence}, Implicit: true, Tpe: &symbols.ArrayType{Elem: intType()}}

	g, rep := newTestGen()
	node := &classfile.MethodNode{}
	g.EmitAnnotations(node, []*symbols.Annotation{symbols.NewAnnotation(ints, []symbols.Tree{arg})})

	if rep.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", rep.Messages(SeverityError))
	}
	if len(node.VisibleAnnotations) != 1 {
		t.Fatalf("annotations: got visible %v invisible %v", node.VisibleAnnotations, node.InvisibleAnnotations)
	}
	v, ok := node.VisibleAnnotations[0].Get("value")
	if !ok {
		t.Fatal("element value missing")
	}
	arr, ok := v.(*classfile.ArrayValue)
	if !ok || len(arr.Values) != 3 {
		t.Fatalf("value: got %s, want a three element array", classfile.ElementString(v))
	}
	for i, e := range arr.Values {
		c, ok := e.(*classfile.ConstValue)
		if !ok || c.Kind != 'I' || c.Value != int32(i+1) {
			t.Errorf("element %d: got %s", i, classfile.ElementString(e))
		}
	}
}

func TestEncodeNonConstantArgument(t *testing.T) {
	f := newAnnotationFixture("nonconst")
	pos := symbols.NewPos("Holder.scala", 7, 3)
	ref := symbols.RefTo(f.constant)
	ref.P = pos
	annot := symbols.NewAnnotation(f.runtime, []symbols.Tree{ref, &symbols.SeqLiteral{ElemType: stringType()}})

	g, rep := newTestGen()
	node := &classfile.ClassNode{}
	g.EmitAnnotations(node, []*symbols.Annotation{annot})

	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != SeverityError {
		t.Fatalf("diagnostics: got %v, want one error", diags)
	}
	if diags[0].Msg != "annotation argument is not a constant" || diags[0].Pos != pos {
		t.Errorf("diagnostic: got %v", diags[0])
	}
	if len(node.VisibleAnnotations) != 1 {
		t.Fatalf("annotation dropped: %v", node.VisibleAnnotations)
	}
	rec := node.VisibleAnnotations[0]
	if _, ok := rec.Get("value"); ok {
		t.Error("erroneous element was encoded")
	}
	if v, ok := rec.Get("names"); !ok || len(v.(*classfile.ArrayValue).Values) != 0 {
		t.Errorf("names: got %v", rec.Elements)
	}
}

// new Array[String](3) allocates an array; it is not an array literal.
func TestEncodeArrayAllocationIsNotConstant(t *testing.T) {
	f := newAnnotationFixture("alloc")
	d := symbols.Defn
	f.holder.Pos = symbols.NewPos("Holder.scala", 2, 7)
	alloc := &symbols.Apply{
		Fun:  symbols.RefTo(d.ArrayClass.PrimaryConstructor()),
		Args: []symbols.Tree{lit(symbols.IntConst(3))},
		Tpe:  &symbols.ArrayType{Elem: stringType()},
	}
	annot := symbols.NewAnnotation(f.runtime, []symbols.Tree{lit(symbols.IntConst(1)), alloc})

	g, rep := newTestGen()
	g.site = f.holder
	node := &classfile.ClassNode{}
	g.EmitAnnotations(node, []*symbols.Annotation{annot})

	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Msg != "annotation argument is not a constant" {
		t.Fatalf("diagnostics: got %v, want one non-constant error", diags)
	}
	if diags[0].Sym != f.holder || diags[0].Pos != f.holder.Pos {
		t.Errorf("diagnostic attributed to %v at %v, want the annotated class", diags[0].Sym, diags[0].Pos)
	}
	if len(node.VisibleAnnotations) != 1 {
		t.Fatalf("annotation dropped: %v", node.VisibleAnnotations)
	}
	if v, ok := node.VisibleAnnotations[0].Get("names"); ok {
		t.Errorf("allocation encoded as %s", classfile.ElementString(v))
	}
}

func TestEncodeOmitsWildcardsAndDefaults(t *testing.T) {
	f := newAnnotationFixture("omit")
	local := symbols.NewValue(nil, "x$1", 0, intType())
	annot := symbols.NewAnnotation(f.runtime, []symbols.Tree{
		&symbols.Ident{Name: "x$1", Sym: local, Tpe: &symbols.TermRef{Sym: local}},
		&symbols.Ident{Name: "_"},
	})

	g, rep := newTestGen()
	node := &classfile.ClassNode{}
	g.EmitAnnotations(node, []*symbols.Annotation{annot})

	if len(rep.Diagnostics()) != 0 {
		t.Errorf("diagnostics: got %v", rep.Diagnostics())
	}
	if len(node.VisibleAnnotations) != 1 || len(node.VisibleAnnotations[0].Elements) != 0 {
		t.Errorf("got %v, want one annotation without elements", node.VisibleAnnotations)
	}
}

func TestEmitParamAnnotations(t *testing.T) {
	f := newAnnotationFixture("params")
	mk := func(name string, annots ...*symbols.Annotation) *symbols.Symbol {
		p := symbols.NewValue(nil, name, 0, intType())
		p.Annotations = annots
		return p
	}

	g, _ := newTestGen()
	bare := &classfile.MethodNode{}
	g.EmitParamAnnotations(bare, []*symbols.Symbol{
		mk("a"), mk("b", symbols.NewAnnotation(f.source, nil)),
	})
	if bare.VisibleParamAnnotations != nil || bare.InvisibleParamAnnotations != nil {
		t.Errorf("no emittable parameter annotations, got %v %v", bare.VisibleParamAnnotations, bare.InvisibleParamAnnotations)
	}

	m := &classfile.MethodNode{}
	g.EmitParamAnnotations(m, []*symbols.Symbol{
		mk("a", symbols.NewAnnotation(f.plain, []symbols.Tree{lit(symbols.IntConst(1))})),
		mk("b"),
		mk("c", symbols.NewAnnotation(f.class, []symbols.Tree{lit(symbols.StringConst("x"))})),
	})
	if len(m.VisibleParamAnnotations) != 3 || len(m.VisibleParamAnnotations[0]) != 1 ||
		len(m.VisibleParamAnnotations[1]) != 0 || len(m.VisibleParamAnnotations[2]) != 0 {
		t.Errorf("visible parameter table: got %v", m.VisibleParamAnnotations)
	}
	if len(m.InvisibleParamAnnotations) != 3 || len(m.InvisibleParamAnnotations[2]) != 1 {
		t.Errorf("invisible parameter table: got %v", m.InvisibleParamAnnotations)
	}
}

func TestEncodedAnnotationsRoundTrip(t *testing.T) {
	d := symbols.Defn
	f := newAnnotationFixture("round")
	annots := []*symbols.Annotation{
		symbols.NewAnnotation(f.runtime, []symbols.Tree{
			lit(symbols.IntConst(42)),
			&symbols.SeqLiteral{Elems: []symbols.Tree{lit(symbols.StringConst("a")), lit(symbols.StringConst("b"))}, ElemType: stringType()},
		}),
		symbols.NewAnnotation(f.class, []symbols.Tree{lit(symbols.StringConst("kept"))}),
		symbols.NewAnnotation(d.RetentionAnnot, []symbols.Tree{symbols.RefTo(d.RetentionClass)}),
	}

	g, _ := newTestGen()
	node := &classfile.ClassNode{Name: "round/Holder", SuperName: "java/lang/Object", Access: classfile.AccPublic | classfile.AccSuper}
	g.EmitAnnotations(node, annots)

	data, err := classfile.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	cf, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	check := func(kind string, got, want []*classfile.Annotation) {
		if len(got) != len(want) {
			t.Fatalf("%s: got %d annotations, want %d", kind, len(got), len(want))
		}
		for i := range want {
			if !classfile.EqualAnnotations(got[i], want[i]) {
				t.Errorf("%s %d: got %s, want %s", kind, i, got[i], want[i])
			}
		}
	}
	check("visible", cf.VisibleAnnotations, node.VisibleAnnotations)
	check("invisible", cf.InvisibleAnnotations, node.InvisibleAnnotations)
	if len(node.VisibleAnnotations) != 2 {
		t.Errorf("visible: got %v, want Runtime and Retention", node.VisibleAnnotations)
	}
}
