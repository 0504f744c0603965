// Package symbols models the front end's view of a compiled program as the
// class-file back end consumes it: symbols, semantic types, annotation trees
// and the erasure service. Everything here is built once by a front end (or
// a declaration loader) and then only read.
package symbols

import (
	"strconv"
	"strings"
)

// ConstructorName is the name of class constructors.
const ConstructorName = "<init>"

// AnonClassName is the name given to anonymous classes.
const AnonClassName = "$anon"

// Symbol describes a named entity: a package, class, trait, object, method,
// value or type.
type Symbol struct {
	Name  string
	Kind  Kind
	Flags Flags
	Owner *Symbol
	Pos   Pos

	// Info is the symbol's pre-erasure type: ClassInfo for classes,
	// MethodType/PolyType/ExprType for methods, TypeBounds for type
	// parameters and abstract types, the aliased type for aliases.
	Info Type

	Annotations []*Annotation

	// PrivateWithin is the qualifier of a qualified private/protected
	// modifier; nil when the symbol has no access boundary.
	PrivateWithin *Symbol

	// Parents are the declared parent types of a class, superclass first.
	Parents    []Type
	TypeParams []*Symbol

	// Params holds value parameter symbols of a method, per parameter list.
	// Only their annotations are consulted by the back end.
	Params []*Symbol

	// Overridden is the member this symbol overrides, if any. Bridges rely on
	// it to find the method they stand in for.
	Overridden *Symbol

	// LocalIndex numbers local and anonymous classes within their enclosing
	// class (1-based).
	LocalIndex int

	decls     []*Symbol
	companion *Symbol
}

func newSymbol(owner *Symbol, name string, kind Kind, flags Flags) *Symbol {
	sym := &Symbol{Name: name, Kind: kind, Flags: flags, Owner: owner}
	if owner != nil && owner.Kind != KindPackage {
		owner.decls = append(owner.decls, sym)
	}
	return sym
}

// NewPackage creates a package symbol.
func NewPackage(owner *Symbol, name string) *Symbol {
	return &Symbol{Name: name, Kind: KindPackage, Owner: owner}
}

// NewClass creates a class symbol and enters it into its owner.
func NewClass(owner *Symbol, name string, flags Flags, parents ...Type) *Symbol {
	sym := newSymbol(owner, name, KindClass, flags)
	sym.Parents = parents
	sym.Info = &ClassInfo{Cls: sym}
	return sym
}

// NewTrait creates a trait (interface) symbol.
func NewTrait(owner *Symbol, name string, flags Flags, parents ...Type) *Symbol {
	sym := newSymbol(owner, name, KindTrait, flags|Abstract)
	sym.Parents = parents
	sym.Info = &ClassInfo{Cls: sym}
	return sym
}

// NewModule creates a singleton object symbol. The symbol doubles as the
// object's module class.
func NewModule(owner *Symbol, name string, flags Flags, parents ...Type) *Symbol {
	sym := newSymbol(owner, name, KindModule, flags|Final)
	sym.Parents = parents
	sym.Info = &ClassInfo{Cls: sym}
	return sym
}

// NewMethod creates a method symbol with the given info.
func NewMethod(owner *Symbol, name string, flags Flags, info Type) *Symbol {
	sym := newSymbol(owner, name, KindMethod, flags)
	sym.Info = info
	return sym
}

// NewValue creates a field-like value symbol.
func NewValue(owner *Symbol, name string, flags Flags, tpe Type) *Symbol {
	sym := newSymbol(owner, name, KindValue, flags)
	sym.Info = tpe
	return sym
}

// NewTypeParam creates a type parameter. It is not entered into the owner's
// declarations; callers attach it to TypeParams or a PolyType.
func NewTypeParam(owner *Symbol, name string, bounds *TypeBounds) *Symbol {
	if bounds == nil {
		bounds = &TypeBounds{}
	}
	return &Symbol{Name: name, Kind: KindTypeParam, Owner: owner, Info: bounds}
}

// NewTypeAlias creates a type alias member.
func NewTypeAlias(owner *Symbol, name string, alias Type, params ...*Symbol) *Symbol {
	sym := newSymbol(owner, name, KindTypeAlias, 0)
	sym.Info = alias
	sym.TypeParams = params
	return sym
}

// NewAbstractType creates an abstract type member.
func NewAbstractType(owner *Symbol, name string, bounds *TypeBounds) *Symbol {
	if bounds == nil {
		bounds = &TypeBounds{}
	}
	sym := newSymbol(owner, name, KindAbstractType, Deferred)
	sym.Info = bounds
	return sym
}

// NewConstructor creates the primary constructor of cls.
func NewConstructor(cls *Symbol, names []string, params []Type) *Symbol {
	return NewMethod(cls, ConstructorName, 0, &MethodType{
		ParamNames: names,
		Params:     params,
		Result:     &TypeRef{Sym: cls},
	})
}

// LinkCompanions records that cls and module are companions.
func LinkCompanions(cls, module *Symbol) {
	cls.companion = module
	module.companion = cls
}

func (s *Symbol) String() string {
	if s == nil {
		return "<none>"
	}
	return s.Kind.String() + " " + s.Name
}

// Is reports whether any of the given flags is set.
func (s *Symbol) Is(f Flags) bool { return s.Flags&f != 0 }

// IsAll reports whether all of the given flags are set.
func (s *Symbol) IsAll(f Flags) bool { return s.Flags&f == f }

func (s *Symbol) IsPackage() bool { return s.Kind == KindPackage }
func (s *Symbol) IsModule() bool  { return s.Kind == KindModule }
func (s *Symbol) IsTrait() bool   { return s.Kind == KindTrait }
func (s *Symbol) IsMethod() bool  { return s.Kind == KindMethod }

// IsClass reports whether the symbol defines a class file: classes, traits
// and module classes.
func (s *Symbol) IsClass() bool {
	return s.Kind == KindClass || s.Kind == KindTrait || s.Kind == KindModule
}

// IsType reports whether the symbol is a type (class or otherwise).
func (s *Symbol) IsType() bool {
	switch s.Kind {
	case KindClass, KindTrait, KindModule, KindTypeParam, KindTypeAlias, KindAbstractType:
		return true
	}
	return false
}

// IsTerm reports whether the symbol is a term (method or value).
func (s *Symbol) IsTerm() bool {
	return s.Kind == KindMethod || s.Kind == KindValue
}

func (s *Symbol) IsConstructor() bool {
	return s.Kind == KindMethod && s.Name == ConstructorName
}

func (s *Symbol) IsAnonymousClass() bool {
	return s.IsClass() && s.Name == AnonClassName
}

// IsNestedClass reports whether a class is defined inside another class or
// a method rather than directly in a package.
func (s *Symbol) IsNestedClass() bool {
	return s.IsClass() && s.Owner != nil && !s.Owner.IsPackage()
}

// IsLocalClass reports whether a class is owned by a term.
func (s *Symbol) IsLocalClass() bool {
	return s.IsClass() && s.Owner != nil && s.Owner.IsTerm()
}

// IsTopLevelClass reports whether a class is owned by a package.
func (s *Symbol) IsTopLevelClass() bool {
	return s.IsClass() && s.Owner != nil && s.Owner.IsPackage()
}

// Decls returns the symbols declared directly in a class, in declaration order.
func (s *Symbol) Decls() []*Symbol { return s.decls }

// Decl returns the declarations named name.
func (s *Symbol) Decl(name string) []*Symbol {
	var out []*Symbol
	for _, d := range s.decls {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// PrimaryConstructor returns the first constructor of a class, or nil.
func (s *Symbol) PrimaryConstructor() *Symbol {
	for _, d := range s.decls {
		if d.IsConstructor() {
			return d
		}
	}
	return nil
}

// CompanionClass returns the companion class of an object, or nil.
func (s *Symbol) CompanionClass() *Symbol {
	if s.Kind == KindModule {
		return s.companion
	}
	return nil
}

// CompanionModule returns the companion object of a class, or nil.
func (s *Symbol) CompanionModule() *Symbol {
	if s.Kind == KindClass || s.Kind == KindTrait {
		return s.companion
	}
	return nil
}

// LinkedClass returns the companion on the other side, class or object.
func (s *Symbol) LinkedClass() *Symbol { return s.companion }

// MemberClasses returns the classes declared directly inside s.
func (s *Symbol) MemberClasses() []*Symbol {
	var out []*Symbol
	for _, d := range s.decls {
		if d.IsClass() {
			out = append(out, d)
		}
	}
	return out
}

// EnclosingClass returns the innermost class strictly enclosing s.
func (s *Symbol) EnclosingClass() *Symbol {
	for o := s.Owner; o != nil; o = o.Owner {
		if o.IsClass() {
			return o
		}
	}
	return nil
}

// EnclosingPackage returns the package s lives in.
func (s *Symbol) EnclosingPackage() *Symbol {
	for o := s; o != nil; o = o.Owner {
		if o.IsPackage() {
			return o
		}
	}
	return nil
}

// FullName returns the dotted source name, e.g. "scala.collection.Seq".
func (s *Symbol) FullName() string {
	if s.Owner == nil || s.Owner.Name == "" {
		return s.Name
	}
	return s.Owner.FullName() + "." + s.Name
}

// BinaryName returns the class's internal name in the target format, e.g.
// "p/Outer$Inner" or "p/Obj$" for a module class.
func (s *Symbol) BinaryName() string {
	var name string
	switch {
	case s.Owner == nil:
		name = s.Name
	case s.Owner.IsPackage():
		prefix := packagePath(s.Owner)
		if prefix == "" {
			name = EncodeName(s.Name)
		} else {
			name = prefix + "/" + EncodeName(s.Name)
		}
	case s.IsLocalClass():
		idx := s.LocalIndex
		if idx == 0 {
			idx = 1
		}
		encl := s.EnclosingClass()
		sep := "$"
		if encl.IsModule() {
			sep = ""
		}
		name = encl.BinaryName() + sep + EncodeName(s.Name) + "$" + strconv.Itoa(idx)
	default:
		sep := "$"
		if s.Owner.IsModule() {
			sep = ""
		}
		name = s.Owner.BinaryName() + sep + EncodeName(s.Name)
	}
	if s.Kind == KindModule {
		name += "$"
	}
	return name
}

// MirrorBinaryName returns the internal name of the mirror class of a
// top-level object: its module class name without the trailing '$'.
func (s *Symbol) MirrorBinaryName() string {
	return strings.TrimSuffix(s.BinaryName(), "$")
}

// JavaSimpleName returns the encoded simple name used in class files.
func (s *Symbol) JavaSimpleName() string {
	if s.IsConstructor() {
		return s.Name
	}
	if s.Kind == KindModule {
		return EncodeName(s.Name) + "$"
	}
	return EncodeName(s.Name)
}

func packagePath(pkg *Symbol) string {
	if pkg == nil || pkg.Name == "" {
		return ""
	}
	parent := packagePath(pkg.Owner)
	if parent == "" {
		return pkg.Name
	}
	return parent + "/" + pkg.Name
}

// IsExpandedName reports whether a name was produced by the front end's
// name-expansion transform (qualified private members made accessible).
func IsExpandedName(name string) bool {
	return strings.Contains(name, "$$")
}

// DerivesFrom reports whether class s is cls or inherits from it.
func (s *Symbol) DerivesFrom(cls *Symbol) bool {
	for _, b := range s.BaseClasses() {
		if b == cls {
			return true
		}
	}
	return false
}

// BaseClasses returns s followed by all classes it inherits from, each
// once, in depth-first parent order.
func (s *Symbol) BaseClasses() []*Symbol {
	var out []*Symbol
	seen := make(map[*Symbol]bool)
	var walk func(c *Symbol)
	walk = func(c *Symbol) {
		if c == nil || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
		for _, p := range c.Parents {
			walk(ClassSymbol(p))
		}
	}
	walk(s)
	return out
}

// AnnotationOf returns the first annotation of s whose class is cls.
func (s *Symbol) AnnotationOf(cls *Symbol) *Annotation {
	for _, a := range s.Annotations {
		if a.Symbol() == cls {
			return a
		}
	}
	return nil
}

var operatorNames = map[rune]string{
	'~': "$tilde", '=': "$eq", '<': "$less", '>': "$greater", '!': "$bang",
	'#': "$hash", '%': "$percent", '^': "$up", '&': "$amp", '|': "$bar",
	'*': "$times", '/': "$div", '+': "$plus", '-': "$minus", ':': "$colon",
	'\\': "$bslash", '?': "$qmark", '@': "$at",
}

// EncodeName replaces operator characters with their '$'-prefixed
// alphanumeric spelling, e.g. "+=" becomes "$plus$eq".
func EncodeName(name string) string {
	if name == ConstructorName || name == "<clinit>" {
		return name
	}
	var b strings.Builder
	for _, r := range name {
		if op, ok := operatorNames[r]; ok {
			b.WriteString(op)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
