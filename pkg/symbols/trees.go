package symbols

import (
	"fmt"
	"strconv"
)

// ConstTag classifies a literal constant.
type ConstTag uint8

const (
	UnitTag ConstTag = iota + 1
	BooleanTag
	ByteTag
	ShortTag
	CharTag
	IntTag
	LongTag
	FloatTag
	DoubleTag
	StringTag
	NullTag
	ClazzTag
)

// Constant is a literal value. Value holds bool, int8, int16, uint16,
// int32, int64, float32, float64, string, or, for ClazzTag, a Type.
type Constant struct {
	Tag   ConstTag
	Value any
}

func BoolConst(v bool) Constant      { return Constant{BooleanTag, v} }
func ByteConst(v int8) Constant      { return Constant{ByteTag, v} }
func ShortConst(v int16) Constant    { return Constant{ShortTag, v} }
func CharConst(v uint16) Constant    { return Constant{CharTag, v} }
func IntConst(v int32) Constant      { return Constant{IntTag, v} }
func LongConst(v int64) Constant     { return Constant{LongTag, v} }
func FloatConst(v float32) Constant  { return Constant{FloatTag, v} }
func DoubleConst(v float64) Constant { return Constant{DoubleTag, v} }
func StringConst(v string) Constant  { return Constant{StringTag, v} }
func ClazzConst(t Type) Constant     { return Constant{ClazzTag, t} }
func NullConst() Constant            { return Constant{NullTag, nil} }
func UnitConst() Constant            { return Constant{UnitTag, nil} }

// TypeValue returns the type carried by a class constant.
func (c Constant) TypeValue() Type {
	t, _ := c.Value.(Type)
	return t
}

// Type returns the type of the constant.
func (c Constant) Type() Type {
	switch c.Tag {
	case UnitTag:
		return Ref(Defn.UnitClass)
	case BooleanTag:
		return Ref(Defn.BooleanClass)
	case ByteTag:
		return Ref(Defn.ByteClass)
	case ShortTag:
		return Ref(Defn.ShortClass)
	case CharTag:
		return Ref(Defn.CharClass)
	case IntTag:
		return Ref(Defn.IntClass)
	case LongTag:
		return Ref(Defn.LongClass)
	case FloatTag:
		return Ref(Defn.FloatClass)
	case DoubleTag:
		return Ref(Defn.DoubleClass)
	case StringTag:
		return Ref(Defn.StringClass)
	case NullTag:
		return Ref(Defn.NullClass)
	case ClazzTag:
		return Ref(Defn.ClassClass, c.TypeValue())
	}
	return nil
}

func (c Constant) String() string {
	switch c.Tag {
	case StringTag:
		return strconv.Quote(c.Value.(string))
	case ClazzTag:
		return "classOf[" + c.TypeValue().String() + "]"
	case NullTag:
		return "null"
	case UnitTag:
		return "()"
	}
	return fmt.Sprint(c.Value)
}

// Tree is a typed expression tree, as found in annotation arguments.
type Tree interface {
	// Type returns the tree's type, or nil for untyped trees.
	Type() Type
	Pos() Pos

	aTree()
}

type tree struct{ P Pos }

func (t tree) Pos() Pos { return t.P }
func (tree) aTree()     {}

// Literal is a constant literal.
type Literal struct {
	tree
	Const Constant
}

// Ident is an unqualified reference. The name "_" denotes a wildcard.
type Ident struct {
	tree
	Name string
	Sym  *Symbol
	Tpe  Type
}

// Select is a qualified reference Qual.Name.
type Select struct {
	tree
	Qual Tree
	Name string
	Sym  *Symbol
	Tpe  Type
}

// NamedArg is a named argument Name = Arg.
type NamedArg struct {
	tree
	Name string
	Arg  Tree
}

// Typed is a type ascription Expr: Tpt.
type Typed struct {
	tree
	Expr Tree
	Tpt  Type
}

// SeqLiteral is a sequence of elements of ElemType.
type SeqLiteral struct {
	tree
	Elems    []Tree
	ElemType Type
}

// Apply is a function application. When Implicit is set the application
// supplies an implicit parameter list and Fun is itself an Apply.
type Apply struct {
	tree
	Fun      Tree
	Args     []Tree
	Tpe      Type
	Implicit bool
}

// TypeApply applies Fun to type arguments.
type TypeApply struct {
	tree
	Fun  Tree
	Args []Type
	Tpe  Type
}

// Block evaluates Stats and yields Expr.
type Block struct {
	tree
	Stats []Tree
	Expr  Tree
}

func (t *Literal) Type() Type    { return &ConstantType{Value: t.Const} }
func (t *Ident) Type() Type      { return t.Tpe }
func (t *Select) Type() Type     { return t.Tpe }
func (t *NamedArg) Type() Type   { return t.Arg.Type() }
func (t *Typed) Type() Type      { return t.Tpt }
func (t *SeqLiteral) Type() Type { return &ArrayType{Elem: t.ElemType} }
func (t *Apply) Type() Type      { return t.Tpe }
func (t *TypeApply) Type() Type  { return t.Tpe }
func (t *Block) Type() Type      { return t.Expr.Type() }

// TreeSymbol returns the symbol a tree refers to or applies, or nil.
func TreeSymbol(t Tree) *Symbol {
	switch t := t.(type) {
	case *Ident:
		return t.Sym
	case *Select:
		return t.Sym
	case *Apply:
		return TreeSymbol(t.Fun)
	case *TypeApply:
		return TreeSymbol(t.Fun)
	case *NamedArg:
		return TreeSymbol(t.Arg)
	case *Typed:
		return TreeSymbol(t.Expr)
	}
	return nil
}

// Lit builds a literal tree.
func Lit(c Constant) *Literal { return &Literal{Const: c} }

// RefTo builds a qualified reference to a term symbol.
func RefTo(sym *Symbol) *Select {
	var qual Type
	if sym.Owner != nil {
		qual = &ThisType{Cls: sym.Owner}
	}
	return &Select{
		Name: sym.Name,
		Sym:  sym,
		Tpe:  &TermRef{Prefix: qual, Sym: sym},
	}
}

// Annotation is an annotation as written in source: a constructor
// application of the annotation class.
type Annotation struct {
	Tree Tree
	Pos  Pos
}

// NewAnnotation builds an annotation applying cls's primary constructor to
// args. Type arguments may be given to annotate generic annotation classes.
func NewAnnotation(cls *Symbol, args []Tree, targs ...Type) *Annotation {
	ctor := cls.PrimaryConstructor()
	if ctor == nil {
		ctor = NewConstructor(cls, nil, nil)
	}
	return &Annotation{Tree: &Apply{
		Fun:  &Select{Name: ConstructorName, Sym: ctor, Tpe: ctor.Info},
		Args: args,
		Tpe:  Ref(cls, targs...),
	}}
}

// Symbol returns the annotation class.
func (a *Annotation) Symbol() *Symbol {
	return ClassSymbol(a.Tree.Type())
}

// Argument returns the i-th constructor argument, if present.
func (a *Annotation) Argument(i int) (Tree, bool) {
	t := a.Tree
	for {
		b, ok := t.(*Block)
		if !ok {
			break
		}
		t = b.Expr
	}
	app, ok := t.(*Apply)
	if !ok || i >= len(app.Args) {
		return nil, false
	}
	return app.Args[i], true
}
