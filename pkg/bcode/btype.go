package bcode

import (
	"strings"
	"sync"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// BType is a type as the target platform sees it.
type BType interface {
	// Descriptor returns the field or method descriptor.
	Descriptor() string
	// Size is the number of operand stack slots a value takes.
	Size() int

	aBType()
}

// PrimitiveBType is one of the primitive types, or void.
type PrimitiveBType struct {
	desc string
	name string
}

var (
	UNIT   = &PrimitiveBType{"V", "void"}
	BOOL   = &PrimitiveBType{"Z", "boolean"}
	CHAR   = &PrimitiveBType{"C", "char"}
	BYTE   = &PrimitiveBType{"B", "byte"}
	SHORT  = &PrimitiveBType{"S", "short"}
	INT    = &PrimitiveBType{"I", "int"}
	FLOAT  = &PrimitiveBType{"F", "float"}
	LONG   = &PrimitiveBType{"J", "long"}
	DOUBLE = &PrimitiveBType{"D", "double"}
)

func (p *PrimitiveBType) Descriptor() string { return p.desc }
func (p *PrimitiveBType) String() string     { return p.name }
func (*PrimitiveBType) aBType()              {}

func (p *PrimitiveBType) Size() int {
	switch p {
	case UNIT:
		return 0
	case LONG, DOUBLE:
		return 2
	}
	return 1
}

// ClassBType is a reference to a class by internal name.
type ClassBType struct {
	InternalName string
	IsInterface  bool

	sym    *symbols.Symbol
	nested *NestedInfo
}

// NestedInfo describes a class that is not top-level: its enclosing class
// and the row it contributes to an InnerClasses attribute.
type NestedInfo struct {
	Enclosing *ClassBType
	Entry     classfile.InnerClass
}

func (c *ClassBType) Descriptor() string { return "L" + c.InternalName + ";" }
func (c *ClassBType) String() string     { return c.InternalName }
func (*ClassBType) Size() int            { return 1 }
func (*ClassBType) aBType()              {}

// Symbol returns the class symbol c was created from, or nil for classes
// known only by name.
func (c *ClassBType) Symbol() *symbols.Symbol { return c.sym }

// IsNested reports whether c is a nested class.
func (c *ClassBType) IsNested() bool { return c.nested != nil }

// Nested returns the nesting information of a nested class, or nil.
func (c *ClassBType) Nested() *NestedInfo { return c.nested }

// EnclosingNestedChain returns c and every nested class enclosing it,
// innermost first. It is empty for a top-level class.
func (c *ClassBType) EnclosingNestedChain() []*ClassBType {
	var chain []*ClassBType
	for cur := c; cur != nil && cur.nested != nil; cur = cur.nested.Enclosing {
		chain = append(chain, cur)
	}
	return chain
}

// ArrayBType is an array of Elem.
type ArrayBType struct {
	Elem BType
}

func (a *ArrayBType) Descriptor() string { return "[" + a.Elem.Descriptor() }
func (a *ArrayBType) String() string     { return a.Descriptor() }
func (*ArrayBType) Size() int            { return 1 }
func (*ArrayBType) aBType()              {}

// MethodBType is a method's erased parameter and result types.
type MethodBType struct {
	Params []BType
	Result BType
}

func (m *MethodBType) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(m.Result.Descriptor())
	return b.String()
}

func (m *MethodBType) String() string { return m.Descriptor() }
func (*MethodBType) aBType()          {}

// Size is not meaningful for method types.
func (*MethodBType) Size() int { return 0 }

// ParamSlots is the number of local slots taken by the parameters.
func (m *MethodBType) ParamSlots() int {
	n := 0
	for _, p := range m.Params {
		n += p.Size()
	}
	return n
}

// TypedOpcode specializes a load (OpIload) or return (OpIreturn) opcode to
// the kind of value bt denotes.
func TypedOpcode(bt BType, base classfile.Opcode) classfile.Opcode {
	if base == classfile.OpIreturn && bt == UNIT {
		return classfile.OpReturn
	}
	var offset classfile.Opcode
	switch bt {
	case BOOL, BYTE, CHAR, SHORT, INT:
		offset = 0
	case LONG:
		offset = 1
	case FLOAT:
		offset = 2
	case DOUBLE:
		offset = 3
	default:
		offset = 4
	}
	return base + offset
}

var (
	ObjectRef    = &ClassBType{InternalName: "java/lang/Object"}
	StringRef    = &ClassBType{InternalName: "java/lang/String"}
	ThrowableRef = &ClassBType{InternalName: "java/lang/Throwable"}
	NothingRef   = &ClassBType{InternalName: "scala/runtime/Nothing$"}
	NullRef      = &ClassBType{InternalName: "scala/runtime/Null$"}
)

// BTypes caches the ClassBType of every class symbol. It is shared by all
// generators of one run.
type BTypes struct {
	mu      sync.Mutex
	classes map[*symbols.Symbol]*ClassBType
	byName  map[string]*ClassBType

	primitives map[*symbols.Symbol]*PrimitiveBType
}

func NewBTypes() *BTypes {
	d := symbols.Defn
	return &BTypes{
		classes: make(map[*symbols.Symbol]*ClassBType),
		byName: map[string]*ClassBType{
			ObjectRef.InternalName:    ObjectRef,
			StringRef.InternalName:    StringRef,
			ThrowableRef.InternalName: ThrowableRef,
			NothingRef.InternalName:   NothingRef,
			NullRef.InternalName:      NullRef,
		},
		primitives: map[*symbols.Symbol]*PrimitiveBType{
			d.UnitClass:    UNIT,
			d.BooleanClass: BOOL,
			d.CharClass:    CHAR,
			d.ByteClass:    BYTE,
			d.ShortClass:   SHORT,
			d.IntClass:     INT,
			d.FloatClass:   FLOAT,
			d.LongClass:    LONG,
			d.DoubleClass:  DOUBLE,
		},
	}
}

// Primitive returns the primitive type a value class maps to.
func (b *BTypes) Primitive(sym *symbols.Symbol) (*PrimitiveBType, bool) {
	p, ok := b.primitives[sym]
	return p, ok
}

// ClassBTypeFromName returns the class type for an internal name that has
// no symbol behind it.
func (b *BTypes) ClassBTypeFromName(internalName string) *ClassBType {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.byName[internalName]; ok {
		return c
	}
	c := &ClassBType{InternalName: internalName}
	b.byName[internalName] = c
	return c
}

// ClassBTypeFromSymbol returns the class type of sym. The nesting
// information of a nested class is computed once, together with the types
// of its enclosing classes.
func (b *BTypes) ClassBTypeFromSymbol(sym *symbols.Symbol) *ClassBType {
	assertf(sym.IsClass(), sym, "not a class symbol: %s", sym)
	d := symbols.Defn
	assertf(sym != d.NothingClass && sym != d.NullClass, sym,
		"special class symbol %s must be mapped by the caller", sym)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.classBType(sym)
}

func (b *BTypes) classBType(sym *symbols.Symbol) *ClassBType {
	if c, ok := b.classes[sym]; ok {
		return c
	}
	c := &ClassBType{
		InternalName: sym.BinaryName(),
		IsInterface:  sym.IsTrait(),
		sym:          sym,
	}
	b.classes[sym] = c
	if _, known := b.byName[c.InternalName]; !known {
		b.byName[c.InternalName] = c
	}
	if sym.IsNestedClass() {
		c.nested = b.nestedInfo(sym)
	}
	return c
}

func (b *BTypes) nestedInfo(sym *symbols.Symbol) *NestedInfo {
	encl := sym.EnclosingClass()
	entry := classfile.InnerClass{Name: sym.BinaryName()}

	if !sym.IsLocalClass() && !sym.IsAnonymousClass() {
		outer := encl.BinaryName()
		// A member of a top-level object is referred to through the
		// object's mirror class.
		if encl.IsModule() && encl.IsTopLevelClass() {
			outer = strings.TrimSuffix(outer, "$")
		}
		entry.OuterName = outer
	}
	if !sym.IsAnonymousClass() {
		entry.InnerName = sym.JavaSimpleName()
	}

	entry.Flags = JavaFlags(sym) & classfile.InnerClassesFlags
	if sym.Owner.IsModule() {
		entry.Flags |= classfile.AccStatic
	}
	return &NestedInfo{Enclosing: b.classBType(encl), Entry: entry}
}

// JavaFlags computes the access flags of a symbol in the target format.
func JavaFlags(sym *symbols.Symbol) classfile.AccessFlags {
	var f classfile.AccessFlags
	private := sym.Is(symbols.Private) ||
		(sym.IsConstructor() && sym.Owner.IsModule() && sym.Owner.IsTopLevelClass())
	if private {
		f |= classfile.AccPrivate
	} else {
		f |= classfile.AccPublic
	}
	if sym.Is(symbols.Final) && !sym.IsConstructor() && !sym.Is(symbols.Mutable) &&
		!(sym.EnclosingClass() != nil && sym.EnclosingClass().IsTrait()) {
		f |= classfile.AccFinal
	}
	if sym.IsClass() {
		if sym.IsTrait() {
			f |= classfile.AccInterface | classfile.AccAbstract
		} else if sym.Is(symbols.Abstract) {
			f |= classfile.AccAbstract
		}
	} else if sym.Is(symbols.Deferred) {
		f |= classfile.AccAbstract
	}
	if sym.Is(symbols.Artifact) {
		f |= classfile.AccSynthetic
	}
	if sym.Is(symbols.JavaStatic) {
		f |= classfile.AccStatic
	}
	if sym.Is(symbols.Bridge) {
		f |= classfile.AccBridge | classfile.AccSynthetic
	}
	if sym.Is(symbols.JavaVarargs) {
		f |= classfile.AccVarargs
	}
	if sym.IsClass() && sym.IsAll(symbols.JavaDefined|symbols.Enum) {
		f |= classfile.AccEnum
	}
	if sym.Is(symbols.JavaAnnotation) {
		f |= classfile.AccAnnotation
	}
	return f
}
