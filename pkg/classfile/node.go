package classfile

// DefaultMajorVersion is the class-file major version written when a
// ClassNode does not specify one (Java 8).
const DefaultMajorVersion = 52

// ClassNode is the in-memory form of a class file to be written. Names are
// internal names ("p/Outer$Inner"), types are descriptors.
type ClassNode struct {
	Version    uint16
	Access     AccessFlags
	Name       string
	SuperName  string
	Interfaces []string
	Signature  string
	SourceFile string

	Fields  []*FieldNode
	Methods []*MethodNode

	InnerClasses         []InnerClass
	VisibleAnnotations   []*Annotation
	InvisibleAnnotations []*Annotation

	// Attributes are extra class attributes written verbatim, after the
	// standard ones.
	Attributes []AttributeInfo
}

// FieldNode is a field of a ClassNode.
type FieldNode struct {
	Access    AccessFlags
	Name      string
	Desc      string
	Signature string

	VisibleAnnotations   []*Annotation
	InvisibleAnnotations []*Annotation
}

// MethodNode is a method of a ClassNode. Abstract methods have no Code.
type MethodNode struct {
	Access     AccessFlags
	Name       string
	Desc       string
	Signature  string
	Exceptions []string
	Code       *Code

	VisibleAnnotations        []*Annotation
	InvisibleAnnotations      []*Annotation
	VisibleParamAnnotations   [][]*Annotation
	InvisibleParamAnnotations [][]*Annotation
}

// Code is a method body as a symbolic instruction list.
type Code struct {
	MaxStack  uint16
	MaxLocals uint16
	Insns     []Insn
}

// Insn is one symbolic instruction. Which operand fields are used depends
// on Op: Var for loads and stores, Owner/Name/Desc for field and method
// instructions, Owner alone for new and checkcast, Const for ldc, bipush
// and sipush.
type Insn struct {
	Op        Opcode
	Var       uint16
	Owner     string
	Name      string
	Desc      string
	Interface bool
	Const     any
}

func VarInsn(op Opcode, index uint16) Insn         { return Insn{Op: op, Var: index} }
func TypeInsn(op Opcode, internalName string) Insn { return Insn{Op: op, Owner: internalName} }
func LdcInsn(v any) Insn                           { return Insn{Op: OpLdc, Const: v} }

func FieldInsn(op Opcode, owner, name, desc string) Insn {
	return Insn{Op: op, Owner: owner, Name: name, Desc: desc}
}

func MethodInsn(op Opcode, owner, name, desc string, itf bool) Insn {
	return Insn{Op: op, Owner: owner, Name: name, Desc: desc, Interface: itf}
}

// AddAnnotation attaches an annotation record to the class.
func (c *ClassNode) AddAnnotation(a *Annotation, visible bool) {
	if visible {
		c.VisibleAnnotations = append(c.VisibleAnnotations, a)
	} else {
		c.InvisibleAnnotations = append(c.InvisibleAnnotations, a)
	}
}

func (f *FieldNode) AddAnnotation(a *Annotation, visible bool) {
	if visible {
		f.VisibleAnnotations = append(f.VisibleAnnotations, a)
	} else {
		f.InvisibleAnnotations = append(f.InvisibleAnnotations, a)
	}
}

func (m *MethodNode) AddAnnotation(a *Annotation, visible bool) {
	if visible {
		m.VisibleAnnotations = append(m.VisibleAnnotations, a)
	} else {
		m.InvisibleAnnotations = append(m.InvisibleAnnotations, a)
	}
}

// AddParamAnnotation attaches an annotation to parameter i of a method
// taking n parameters.
func (m *MethodNode) AddParamAnnotation(i, n int, a *Annotation, visible bool) {
	table := &m.InvisibleParamAnnotations
	if visible {
		table = &m.VisibleParamAnnotations
	}
	if len(*table) < n {
		grown := make([][]*Annotation, n)
		copy(grown, *table)
		*table = grown
	}
	(*table)[i] = append((*table)[i], a)
}

// FindMethod returns the method with the given name and descriptor.
func (c *ClassNode) FindMethod(name, desc string) *MethodNode {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}
