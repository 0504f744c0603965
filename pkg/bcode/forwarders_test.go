package bcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// newGreeter declares
//
//	object Greeter {
//	  def greet(name: String): String
//	  def add(a: Int, b: Long): Long
//	  def reset(): Unit
//	  private def secret(): Int
//	  class Inner
//	}
func newGreeter(pkgName string) (*symbols.Symbol, *symbols.Symbol) {
	d := symbols.Defn
	p := newTestPackage(pkgName)
	module := symbols.NewModule(p, "Greeter", 0, objectType())
	symbols.NewMethod(module, "greet", 0, method([]symbols.Type{stringType()}, stringType()))
	symbols.NewMethod(module, "add", 0, method([]symbols.Type{intType(), symbols.Ref(d.LongClass)}, symbols.Ref(d.LongClass)))
	symbols.NewMethod(module, "reset", 0, method(nil, symbols.Ref(d.UnitClass)))
	symbols.NewMethod(module, "secret", symbols.Private, method(nil, intType()))
	symbols.NewClass(module, "Inner", 0, objectType())
	return p, module
}

func TestMirrorClassForwarders(t *testing.T) {
	_, module := newGreeter("fa")
	g, rep := newTestGen()

	var mirror *classfile.ClassNode
	if err := Guard(func() { mirror = g.GenMirrorClass(module) }); err != nil {
		t.Fatalf("GenMirrorClass: %v", err)
	}

	if mirror.Name != "fa/Greeter" || mirror.SuperName != "java/lang/Object" {
		t.Errorf("header: got %s extends %s", mirror.Name, mirror.SuperName)
	}
	if mirror.Access != classfile.AccPublic|classfile.AccFinal|classfile.AccSuper {
		t.Errorf("access: got %s", mirror.Access.ClassString())
	}
	if mirror.SourceFile != "Test.scala" {
		t.Errorf("source file: got %q", mirror.SourceFile)
	}

	got := methodNames(mirror.Methods)
	want := []string{"add(IJ)J", "greet(Ljava/lang/String;)Ljava/lang/String;", "reset()V"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("methods: got %v, want %v", got, want)
	}

	const owner = "fa/Greeter$"
	getModule := classfile.FieldInsn(classfile.OpGetstatic, owner, ModuleInstanceField, "Lfa/Greeter$;")
	tests := []struct {
		insns     []classfile.Insn
		maxStack  uint16
		maxLocals uint16
	}{
		{[]classfile.Insn{
			getModule,
			classfile.VarInsn(classfile.OpIload, 0),
			classfile.VarInsn(classfile.OpLload, 1),
			classfile.MethodInsn(classfile.OpInvokevirtual, owner, "add", "(IJ)J", false),
			{Op: classfile.OpLreturn},
		}, 4, 3},
		{[]classfile.Insn{
			getModule,
			classfile.VarInsn(classfile.OpAload, 0),
			classfile.MethodInsn(classfile.OpInvokevirtual, owner, "greet", "(Ljava/lang/String;)Ljava/lang/String;", false),
			{Op: classfile.OpAreturn},
		}, 2, 1},
		{[]classfile.Insn{
			getModule,
			classfile.MethodInsn(classfile.OpInvokevirtual, owner, "reset", "()V", false),
			{Op: classfile.OpReturn},
		}, 1, 0},
	}
	for i, tt := range tests {
		m := mirror.Methods[i]
		if m.Access != classfile.AccPublic|classfile.AccStatic {
			t.Errorf("%s: access %s", m.Name, m.Access.MethodString())
		}
		if m.Signature != "" {
			t.Errorf("%s: unexpected signature %q", m.Name, m.Signature)
		}
		if m.Code == nil {
			t.Fatalf("%s: no code", m.Name)
		}
		if m.Code.MaxStack != tt.maxStack || m.Code.MaxLocals != tt.maxLocals {
			t.Errorf("%s: max stack/locals got %d/%d, want %d/%d", m.Name, m.Code.MaxStack, m.Code.MaxLocals, tt.maxStack, tt.maxLocals)
		}
		if len(m.Code.Insns) != len(tt.insns) {
			t.Errorf("%s: got %d instructions, want %d", m.Name, len(m.Code.Insns), len(tt.insns))
			continue
		}
		for j := range tt.insns {
			if m.Code.Insns[j] != tt.insns[j] {
				t.Errorf("%s: insn %d got %+v, want %+v", m.Name, j, m.Code.Insns[j], tt.insns[j])
			}
		}
	}

	if len(mirror.InnerClasses) != 1 {
		t.Fatalf("inner classes: got %v", mirror.InnerClasses)
	}
	wantInner := classfile.InnerClass{Name: "fa/Greeter$Inner", OuterName: "fa/Greeter", InnerName: "Inner", Flags: classfile.AccPublic | classfile.AccStatic}
	if mirror.InnerClasses[0] != wantInner {
		t.Errorf("inner class: got %+v, want %+v", mirror.InnerClasses[0], wantInner)
	}

	if !hasMessage(rep.Messages(SeverityDebug), "Dumping mirror class for object: fa.Greeter") {
		t.Errorf("debug trace missing: %v", rep.Messages(SeverityDebug))
	}
	if rep.ErrorCount() != 0 {
		t.Errorf("errors: %v", rep.Messages(SeverityError))
	}

	if _, err := classfile.Marshal(mirror); err != nil {
		t.Errorf("Marshal: %v", err)
	}
}

func TestMirrorClassMarkers(t *testing.T) {
	_, module := newGreeter("marks")

	g, _ := newTestGen()
	plain := g.GenMirrorClass(module)
	if len(plain.Attributes) != 1 || plain.Attributes[0].Name != classfile.AttrScala || len(plain.Attributes[0].Data) != 0 {
		t.Errorf("unpickled markers: got %+v", plain.Attributes)
	}

	g.StartUnit(&Unit{Source: "Greeter.scala", Pickled: true})
	pickled := g.GenMirrorClass(module)
	if len(pickled.Attributes) != 2 {
		t.Fatalf("pickled markers: got %+v", pickled.Attributes)
	}
	if a := pickled.Attributes[0]; a.Name != classfile.AttrScalaSig || !bytes.Equal(a.Data, []byte{5, 0, 0}) {
		t.Errorf("ScalaSig: got %+v", a)
	}
	id := PickleID("marks/Greeter")
	if a := pickled.Attributes[1]; a.Name != classfile.AttrTasty || !bytes.Equal(a.Data, id[:]) {
		t.Errorf("TASTY: got %+v", a)
	}
	if PickleID("marks/Greeter") != id || PickleID("marks/Other") == id {
		t.Error("pickle ids are not a function of the class name")
	}
}

func TestMirrorClassRequiresLoneObject(t *testing.T) {
	p := newTestPackage("lone")
	cls := symbols.NewClass(p, "C", 0, objectType())
	module := symbols.NewModule(p, "C", 0, objectType())
	symbols.LinkCompanions(cls, module)

	g, _ := newTestGen()
	mustInternalError(t, func() { g.GenMirrorClass(module) })
	mustInternalError(t, func() { g.GenMirrorClass(cls) })
}

func TestForwarderConflictWithCompanion(t *testing.T) {
	p := newTestPackage("conflict")
	cls := symbols.NewClass(p, "C", 0, objectType())
	symbols.NewMethod(cls, "greet", 0, method(nil, stringType()))
	module := symbols.NewModule(p, "C", 0, objectType())
	symbols.NewMethod(module, "greet", 0, method([]symbols.Type{intType()}, stringType()))
	symbols.LinkCompanions(cls, module)

	g, rep := newTestGen()
	node := &classfile.ClassNode{Name: "conflict/C"}
	added := g.AddForwarders(node, module)

	if len(added) != 0 || len(node.Methods) != 0 {
		t.Errorf("forwarders: got %v", methodNames(node.Methods))
	}
	if !hasMessage(rep.Messages(SeverityLog), "No forwarder for method greet due to conflict with method greet") {
		t.Errorf("conflict not logged: %v", rep.Messages(SeverityLog))
	}
}

func TestForwarderSkips(t *testing.T) {
	p := newTestPackage("skips")
	module := symbols.NewModule(p, "O", 0, objectType())
	mt := func() symbols.Type { return method(nil, intType()) }

	symbols.NewMethod(module, "kept", 0, mt())
	symbols.NewMethod(module, "abs", symbols.Deferred, mt())
	symbols.NewMethod(module, "prot", symbols.Protected, mt())
	symbols.NewMethod(module, "stat", symbols.JavaStatic, mt())
	symbols.NewMethod(module, "mac", symbols.Macro, mt())
	symbols.NewMethod(module, "lift", symbols.Lifted, mt())
	symbols.NewMethod(module, "a$$b", 0, mt())
	qualified := symbols.NewMethod(module, "pkgPrivate", 0, mt())
	qualified.PrivateWithin = p
	symbols.NewMethod(module, "orphan", symbols.Bridge, mt())
	symbols.NewConstructor(module, nil, nil)
	symbols.NewValue(module, "field", 0, intType())
	symbols.NewAbstractType(module, "T", nil)

	g, rep := newTestGen()
	node := &classfile.ClassNode{Name: "skips/O"}
	added := g.AddForwarders(node, module)

	if strings.Join(added, " ") != "field kept" {
		t.Errorf("added: got %v, want [field kept]", added)
	}

	logs := rep.Messages(SeverityLog)
	if !hasMessage(logs, "No forwarder for non-public member method pkgPrivate") {
		t.Errorf("qualified private member not logged: %v", logs)
	}
	if !hasMessage(logs, "method orphan is a bridge method that overrides nothing, something went wrong in a previous phase.") {
		t.Errorf("orphan bridge not logged: %v", logs)
	}
	debug := rep.Messages(SeverityDebug)
	for _, name := range []string{"method abs", "method a$$b", "method equals", "method <init>"} {
		if !hasMessage(debug, "No forwarder for '"+name+"' from skips/O to 'skips.O'") {
			t.Errorf("no debug trace for %s: %v", name, debug)
		}
	}
	for _, name := range []string{"prot", "stat", "mac", "lift"} {
		for _, m := range append(logs, debug...) {
			if strings.Contains(m, "method "+name+"'") || strings.Contains(m, "method "+name+" ") ||
				strings.HasSuffix(m, "method "+name) {
				t.Errorf("%s should be filtered before any diagnostics, got %q", name, m)
			}
		}
	}
}

// object Settings { val port: Int; var timeout: Long; private val secret: String }
func TestValueForwarders(t *testing.T) {
	d := symbols.Defn
	p := newTestPackage("vals")
	module := symbols.NewModule(p, "Settings", 0, objectType())
	symbols.NewValue(module, "port", 0, intType())
	symbols.NewValue(module, "timeout", symbols.Mutable, symbols.Ref(d.LongClass))
	symbols.NewValue(module, "secret", symbols.Private, stringType())

	g, rep := newTestGen()
	g.Settings.VerifySignatures = true

	var moduleNode, mirror *classfile.ClassNode
	if err := Guard(func() {
		moduleNode = g.GenModuleClass(module)
		mirror = g.GenMirrorClass(module)
	}); err != nil {
		t.Fatalf("generating: %v", err)
	}
	if rep.ErrorCount() != 0 {
		t.Fatalf("errors: %v", rep.Messages(SeverityError))
	}

	fields := make(map[string]classfile.AccessFlags)
	for _, f := range moduleNode.Fields {
		fields[f.Name] = f.Access
	}
	for name, want := range map[string]classfile.AccessFlags{
		"port":    classfile.AccPrivate | classfile.AccFinal,
		"timeout": classfile.AccPrivate,
		"secret":  classfile.AccPrivate | classfile.AccFinal,
	} {
		if got, ok := fields[name]; !ok || got != want {
			t.Errorf("field %s: got %s (present %v), want %s", name, got.MethodString(), ok, want.MethodString())
		}
	}
	getters := make(map[string]*classfile.MethodNode)
	for _, m := range moduleNode.Methods {
		getters[m.Name+m.Desc] = m
	}
	if m := getters["port()I"]; m == nil || m.Access != classfile.AccPublic {
		t.Errorf("port getter: got %+v", m)
	}
	if m := getters["secret()Ljava/lang/String;"]; m == nil || m.Access != classfile.AccPrivate {
		t.Errorf("secret getter: got %+v", m)
	}

	got := methodNames(mirror.Methods)
	if want := []string{"port()I", "timeout()J"}; strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("mirror methods: got %v, want %v", got, want)
	}
	fwd := mirror.Methods[0]
	if fwd.Access != classfile.AccPublic|classfile.AccStatic {
		t.Errorf("forwarder access: got %s", fwd.Access.MethodString())
	}
	wantInsns := []classfile.Insn{
		classfile.FieldInsn(classfile.OpGetstatic, "vals/Settings$", ModuleInstanceField, "Lvals/Settings$;"),
		classfile.MethodInsn(classfile.OpInvokevirtual, "vals/Settings$", "port", "()I", false),
		{Op: classfile.OpIreturn},
	}
	if len(fwd.Code.Insns) != len(wantInsns) {
		t.Fatalf("forwarder body: got %+v", fwd.Code.Insns)
	}
	for i := range wantInsns {
		if fwd.Code.Insns[i] != wantInsns[i] {
			t.Errorf("insn %d: got %+v, want %+v", i, fwd.Code.Insns[i], wantInsns[i])
		}
	}
	if mirror.Methods[1].Code.MaxStack != 2 {
		t.Errorf("timeout forwarder max stack: got %d", mirror.Methods[1].Code.MaxStack)
	}
	if !hasMessage(rep.Messages(SeverityLog), "Adding static forwarder for 'value port'") {
		t.Errorf("forwarder not logged: %v", rep.Messages(SeverityLog))
	}
	roundTrip(t, moduleNode)
	roundTrip(t, mirror)
}

// A generic value's getter and forwarder carry a method signature.
func TestValueForwarderSignature(t *testing.T) {
	f := newSigFixture("valsig")
	module := symbols.NewModule(f.pkg, "Registry", 0, objectType())
	symbols.NewValue(module, "names", 0, f.listOf(stringType()))

	g, rep := newTestGen()
	g.Settings.VerifySignatures = true
	var moduleNode, mirror *classfile.ClassNode
	if err := Guard(func() {
		moduleNode = g.GenModuleClass(module)
		mirror = g.GenMirrorClass(module)
	}); err != nil {
		t.Fatalf("generating: %v", err)
	}
	if rep.ErrorCount() != 0 {
		t.Fatalf("errors: %v", rep.Messages(SeverityError))
	}
	const want = "()Lvalsig/List<Ljava/lang/String;>;"
	if len(mirror.Methods) != 1 || mirror.Methods[0].Signature != want {
		t.Errorf("forwarder: got %+v, want signature %s", mirror.Methods, want)
	}
	for _, m := range moduleNode.Methods {
		if m.Name == "names" && m.Signature != want {
			t.Errorf("getter signature: got %q, want %q", m.Signature, want)
		}
	}
	if len(moduleNode.Fields) != 2 || moduleNode.Fields[1].Signature != "Lvalsig/List<Ljava/lang/String;>;" {
		t.Errorf("field: got %+v", moduleNode.Fields)
	}
}

// Forwarder diagnostics name the member they are about.
func TestForwarderDiagnosticsCarrySymbol(t *testing.T) {
	cls, module, _ := newCompanions("diag")
	var deposit *symbols.Symbol
	for _, m := range module.Decls() {
		if m.Name == "deposit" {
			deposit = m
		}
	}
	deposit.Pos = symbols.NewPos("Account.scala", 12, 7)

	g, rep := newTestGen()
	g.GenPlainClass(cls)

	var found bool
	for _, d := range rep.Diagnostics() {
		if d.Severity != SeverityLog || !strings.Contains(d.Msg, "due to conflict with") {
			continue
		}
		found = true
		if d.Sym != deposit || d.Pos != deposit.Pos {
			t.Errorf("conflict diagnostic attributed to %v at %v, want %v at %v", d.Sym, d.Pos, deposit, deposit.Pos)
		}
	}
	if !found {
		t.Fatalf("no conflict diagnostic: %v", rep.Diagnostics())
	}
	for _, d := range rep.Diagnostics() {
		if d.Sym == nil {
			t.Errorf("diagnostic without a symbol: %q", d.Msg)
		}
	}
}

func TestForwarderOfBridgeUsesOverriddenMember(t *testing.T) {
	p := newTestPackage("bridge")
	base := symbols.NewClass(p, "Base", 0, objectType())
	hello := symbols.NewMethod(base, "hello", 0, method([]symbols.Type{objectType()}, objectType()))
	module := symbols.NewModule(p, "O", 0, symbols.Ref(base))
	br := symbols.NewMethod(module, "hello", symbols.Bridge, method([]symbols.Type{objectType()}, objectType()))
	br.Overridden = hello

	g, _ := newTestGen()
	node := &classfile.ClassNode{Name: "bridge/O"}
	g.AddForwarders(node, module)

	got := methodNames(node.Methods)
	if len(got) != 1 || got[0] != "hello(Ljava/lang/Object;)Ljava/lang/Object;" {
		t.Fatalf("forwarders: got %v", got)
	}
	call := node.Methods[0].Code.Insns[2]
	if call.Op != classfile.OpInvokevirtual || call.Owner != "bridge/O$" || call.Name != "hello" {
		t.Errorf("call: got %+v", call)
	}
	if node.Methods[0].Access&classfile.AccBridge != 0 {
		t.Error("forwarder inherited the bridge flag")
	}
}

func TestForwarderFlagsAndMetadata(t *testing.T) {
	d := symbols.Defn
	p := newTestPackage("meta")
	ioexc := symbols.NewClass(p, "IOException", 0, symbols.Ref(d.ThrowableClass))
	tag := symbols.NewJavaAnnotationClass(p, "Tag", nil, nil)
	d.SetRetention(tag, d.RetentionRuntime)

	module := symbols.NewModule(p, "O", 0, objectType())
	symbols.NewMethod(module, "all", symbols.JavaVarargs,
		method([]symbols.Type{&symbols.ArrayType{Elem: stringType()}}, intType()))
	throwing := symbols.NewMethod(module, "load", 0, method([]symbols.Type{stringType()}, symbols.Ref(d.UnitClass)))
	throwing.Annotations = []*symbols.Annotation{
		symbols.NewAnnotation(d.ThrowsAnnot, nil, symbols.Ref(ioexc)),
		symbols.NewAnnotation(d.ThrowsAnnot, nil, symbols.Ref(ioexc)),
		symbols.NewAnnotation(tag, nil),
	}
	param := symbols.NewValue(nil, "path", 0, stringType())
	param.Annotations = []*symbols.Annotation{symbols.NewAnnotation(tag, nil)}
	throwing.Params = []*symbols.Symbol{param}
	a := symbols.NewTypeParam(nil, "A", nil)
	symbols.NewMethod(module, "id", 0, poly([]*symbols.Symbol{a}, method([]symbols.Type{symbols.Ref(a)}, symbols.Ref(a))))

	g, _ := newTestGen()
	node := &classfile.ClassNode{Name: "meta/O"}
	g.AddForwarders(node, module)

	all := node.FindMethod("all", "([Ljava/lang/String;)I")
	if all == nil || all.Access != classfile.AccPublic|classfile.AccStatic|classfile.AccVarargs {
		t.Errorf("varargs forwarder: got %+v", all)
	}

	load := node.FindMethod("load", "(Ljava/lang/String;)V")
	if load == nil {
		t.Fatalf("load forwarder missing: %v", methodNames(node.Methods))
	}
	if len(load.Exceptions) != 1 || load.Exceptions[0] != "meta/IOException" {
		t.Errorf("exceptions: got %v", load.Exceptions)
	}
	if len(load.VisibleAnnotations) != 1 || load.VisibleAnnotations[0].Desc != "Lmeta/Tag;" {
		t.Errorf("annotations: got %v", load.VisibleAnnotations)
	}
	if len(load.VisibleParamAnnotations) != 1 || len(load.VisibleParamAnnotations[0]) != 1 {
		t.Errorf("parameter annotations: got %v", load.VisibleParamAnnotations)
	}

	id := node.FindMethod("id", "(Ljava/lang/Object;)Ljava/lang/Object;")
	if id == nil || id.Signature != "<A:Ljava/lang/Object;>(TA;)TA;" {
		t.Errorf("generic forwarder: got %+v", id)
	}
}

// Declaration order must not leak into the output.
func TestForwardersDeterministic(t *testing.T) {
	names := []string{"zeta", "alpha", "mid", "alpha", "beta"}
	build := func(reverse bool) []byte {
		p := newTestPackage("det")
		module := symbols.NewModule(p, "O", 0, objectType())
		order := make([]int, len(names))
		for i := range order {
			order[i] = i
			if reverse {
				order[i] = len(names) - 1 - i
			}
		}
		for _, i := range order {
			params := []symbols.Type{intType()}
			if i == 3 {
				params = []symbols.Type{stringType()}
			}
			symbols.NewMethod(module, names[i], 0, method(params, intType()))
		}
		g, _ := newTestGen()
		mirror := g.GenMirrorClass(module)
		data, err := classfile.Marshal(mirror)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return data
	}

	first := build(false)
	if !bytes.Equal(first, build(false)) {
		t.Error("two runs over the same declarations differ")
	}
	if !bytes.Equal(first, build(true)) {
		t.Error("declaration order changed the mirror class")
	}
}
