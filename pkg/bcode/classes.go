package bcode

import (
	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// BodyGenerator supplies the code of ordinary methods. Instruction
// selection for user code is outside this package; forwarders, module
// constructors and static initializers are generated here.
type BodyGenerator interface {
	MethodBody(g *Gen, cls, m *symbols.Symbol, mt *MethodBType) *classfile.Code
}

// StubBodies generates bodies that throw UnsupportedOperationException.
// Constructors call the superclass's no-argument constructor.
type StubBodies struct{}

const unsupportedOperation = "java/lang/UnsupportedOperationException"

func (StubBodies) MethodBody(g *Gen, cls, m *symbols.Symbol, mt *MethodBType) *classfile.Code {
	locals := mt.ParamSlots()
	if !m.Is(symbols.JavaStatic) {
		locals++
	}
	if m.IsConstructor() {
		return &classfile.Code{
			MaxStack:  1,
			MaxLocals: uint16(locals),
			Insns: []classfile.Insn{
				classfile.VarInsn(classfile.OpAload, 0),
				classfile.MethodInsn(classfile.OpInvokespecial, g.superName(cls), symbols.ConstructorName, "()V", false),
				{Op: classfile.OpReturn},
			},
		}
	}
	return &classfile.Code{
		MaxStack:  3,
		MaxLocals: uint16(locals),
		Insns: []classfile.Insn{
			classfile.TypeInsn(classfile.OpNew, unsupportedOperation),
			{Op: classfile.OpDup},
			classfile.LdcInsn(cls.FullName() + "." + m.Name),
			classfile.MethodInsn(classfile.OpInvokespecial, unsupportedOperation, symbols.ConstructorName, "(Ljava/lang/String;)V", false),
			{Op: classfile.OpAthrow},
		},
	}
}

// superName returns the internal name of a class's superclass. Traits and
// classes without a class parent extend Object.
func (g *Gen) superName(cls *symbols.Symbol) string {
	if cls.IsTrait() {
		return ObjectRef.InternalName
	}
	for _, p := range cls.Parents {
		pc := symbols.ClassSymbol(p)
		if pc == nil || pc.IsTrait() {
			continue
		}
		switch pc {
		case symbols.Defn.AnyClass, symbols.Defn.AnyValClass:
			return ObjectRef.InternalName
		}
		return g.InternalName(pc)
	}
	return ObjectRef.InternalName
}

func (g *Gen) interfaceNames(cls *symbols.Symbol) []string {
	var out []string
	for _, p := range cls.Parents {
		if pc := symbols.ClassSymbol(p); pc != nil && pc.IsTrait() {
			out = append(out, g.InternalName(pc))
		}
	}
	return out
}

func (g *Gen) classAccess(cls *symbols.Symbol) classfile.AccessFlags {
	f := JavaFlags(cls)&^(classfile.AccPrivate|classfile.AccProtected|classfile.AccStatic) | classfile.AccPublic
	if !cls.IsTrait() {
		f |= classfile.AccSuper
	}
	return f
}

// newClassNode fills in the header shared by plain and module classes.
func (g *Gen) newClassNode(cls *symbols.Symbol) *classfile.ClassNode {
	g.site = cls
	node := &classfile.ClassNode{
		Version:    g.version(),
		Access:     g.classAccess(cls),
		Name:       g.BTypes.ClassBTypeFromSymbol(cls).InternalName,
		SuperName:  g.superName(cls),
		Interfaces: g.interfaceNames(cls),
		Signature:  g.GenericSignature(cls, cls.Owner),
	}
	if g.Settings.EmitSourceFile && g.unit != nil && g.unit.Source != "" {
		node.SourceFile = g.unit.Source
	}
	if cls.IsTopLevelClass() {
		node.Attributes = markerAttributes(node.Name, g.unit != nil && g.unit.Pickled)
	}
	g.EmitAnnotations(node, cls.Annotations)
	return node
}

// finishClass adds fields and methods for cls's declarations and computes
// the InnerClasses table.
func (g *Gen) finishClass(node *classfile.ClassNode, cls *symbols.Symbol, skip func(*symbols.Symbol) bool) {
	for _, d := range cls.Decls() {
		if skip != nil && skip(d) {
			continue
		}
		switch d.Kind {
		case symbols.KindValue:
			if !cls.IsTrait() && !d.Is(symbols.Deferred) {
				node.Fields = append(node.Fields, g.genField(cls, d))
			}
			node.Methods = append(node.Methods, g.genGetter(cls, d))
		case symbols.KindMethod:
			node.Methods = append(node.Methods, g.genMethod(cls, d))
		}
	}
	declared := []*ClassBType{g.BTypes.ClassBTypeFromSymbol(cls)}
	for _, c := range cls.MemberClasses() {
		declared = append(declared, g.BTypes.ClassBTypeFromSymbol(c))
	}
	node.InnerClasses = g.inner.Flush(declared...)
}

// genField generates the private field backing a value.
func (g *Gen) genField(cls, v *symbols.Symbol) *classfile.FieldNode {
	g.site = v
	access := JavaFlags(v)&^(classfile.AccPublic|classfile.AccAbstract) | classfile.AccPrivate
	if !v.Is(symbols.Mutable) {
		access |= classfile.AccFinal
	}
	f := &classfile.FieldNode{
		Access:    access,
		Name:      v.JavaSimpleName(),
		Desc:      g.TypeDescriptor(symbols.Erase(v.Info)),
		Signature: g.GenericSignature(v, cls),
	}
	g.EmitAnnotations(f, v.Annotations)
	return f
}

// genGetter generates the accessor of a value, carrying the value's own
// access. Values of traits and abstract values get an abstract accessor.
func (g *Gen) genGetter(cls, v *symbols.Symbol) *classfile.MethodNode {
	g.site = v
	mt := g.MethodBTypeOf(v)
	access := JavaFlags(v)
	node := &classfile.MethodNode{
		Name:      v.JavaSimpleName(),
		Desc:      mt.Descriptor(),
		Signature: g.genericSignature(v, &symbols.ExprType{Result: symbols.MemberInfo(cls, v)}),
	}
	if cls.IsTrait() || v.Is(symbols.Deferred) {
		node.Access = access | classfile.AccAbstract
		return node
	}
	node.Access = access
	owner := g.InternalName(cls)
	desc := mt.Result.Descriptor()
	if v.Is(symbols.JavaStatic) {
		node.Code = &classfile.Code{
			MaxStack:  uint16(max(1, mt.Result.Size())),
			MaxLocals: 0,
			Insns: []classfile.Insn{
				classfile.FieldInsn(classfile.OpGetstatic, owner, node.Name, desc),
				{Op: TypedOpcode(mt.Result, classfile.OpIreturn)},
			},
		}
		return node
	}
	node.Code = &classfile.Code{
		MaxStack:  uint16(max(1, mt.Result.Size())),
		MaxLocals: 1,
		Insns: []classfile.Insn{
			classfile.VarInsn(classfile.OpAload, 0),
			classfile.FieldInsn(classfile.OpGetfield, owner, node.Name, desc),
			{Op: TypedOpcode(mt.Result, classfile.OpIreturn)},
		},
	}
	return node
}

func (g *Gen) genMethod(cls, m *symbols.Symbol) *classfile.MethodNode {
	g.site = m
	mt := g.MethodBTypeOf(m)
	var throws, others []*symbols.Annotation
	for _, a := range m.Annotations {
		if a.Symbol() == symbols.Defn.ThrowsAnnot {
			throws = append(throws, a)
		} else {
			others = append(others, a)
		}
	}
	node := &classfile.MethodNode{
		Access:     JavaFlags(m),
		Name:       m.JavaSimpleName(),
		Desc:       mt.Descriptor(),
		Signature:  g.GenericSignature(m, cls),
		Exceptions: g.exceptions(throws),
	}
	g.EmitAnnotations(node, others)
	g.EmitParamAnnotations(node, m.Params)
	if !m.Is(symbols.Deferred) {
		node.Code = g.Bodies.MethodBody(g, cls, m, mt)
	}
	return node
}

// GenPlainClass generates a class or trait. A top-level class whose
// companion object is also top-level receives static forwarders for the
// object's members.
func (g *Gen) GenPlainClass(cls *symbols.Symbol) *classfile.ClassNode {
	assertf(cls.IsClass() && !cls.IsModule(), cls, "not a plain class: %s", cls)
	g.beginClass()
	node := g.newClassNode(cls)
	if module := cls.CompanionModule(); module != nil && module.IsTopLevelClass() && !cls.IsTrait() {
		g.AddForwarders(node, module)
	}
	g.finishClass(node, cls, nil)
	return node
}

// GenModuleClass generates the class of an object: its declarations plus
// the MODULE$ singleton field, a constructor and a static initializer
// creating the instance.
func (g *Gen) GenModuleClass(module *symbols.Symbol) *classfile.ClassNode {
	assertf(module.IsModule(), module, "not an object: %s", module)
	g.beginClass()
	node := g.newClassNode(module)
	name := node.Name
	desc := "L" + name + ";"

	node.Fields = append(node.Fields, &classfile.FieldNode{
		Access: classfile.AccPublic | classfile.AccStatic | classfile.AccFinal,
		Name:   ModuleInstanceField,
		Desc:   desc,
	})

	ctorAccess := classfile.AccPrivate
	if ctor := module.PrimaryConstructor(); ctor != nil {
		ctorAccess = JavaFlags(ctor)
	}
	node.Methods = append(node.Methods,
		&classfile.MethodNode{
			Access: ctorAccess,
			Name:   symbols.ConstructorName,
			Desc:   "()V",
			Code: &classfile.Code{MaxStack: 1, MaxLocals: 1, Insns: []classfile.Insn{
				classfile.VarInsn(classfile.OpAload, 0),
				classfile.MethodInsn(classfile.OpInvokespecial, node.SuperName, symbols.ConstructorName, "()V", false),
				{Op: classfile.OpReturn},
			}},
		},
		&classfile.MethodNode{
			Access: classfile.AccStatic,
			Name:   "<clinit>",
			Desc:   "()V",
			Code: &classfile.Code{MaxStack: 2, MaxLocals: 0, Insns: []classfile.Insn{
				classfile.TypeInsn(classfile.OpNew, name),
				{Op: classfile.OpDup},
				classfile.MethodInsn(classfile.OpInvokespecial, name, symbols.ConstructorName, "()V", false),
				classfile.FieldInsn(classfile.OpPutstatic, name, ModuleInstanceField, desc),
				{Op: classfile.OpReturn},
			}},
		},
	)
	g.finishClass(node, module, (*symbols.Symbol).IsConstructor)
	return node
}
