// Package bcode synthesizes the metadata of class files from symbols:
// descriptors, InnerClasses tables, annotation records, generic signatures,
// static forwarders and mirror classes.
//
// A Gen generates one class at a time and is not safe for concurrent use;
// parallel emission gives each worker its own Gen over a shared BTypes and
// Reporter.
package bcode

import (
	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// Settings are the code generation options.
type Settings struct {
	// NoGenericSig suppresses all generic signatures.
	NoGenericSig bool
	// VerifySignatures checks every generated signature against the
	// signature grammar.
	VerifySignatures bool
	// EmitSourceFile writes the SourceFile attribute.
	EmitSourceFile bool
	// ClassfileVersion is the major version written; 0 means the default.
	ClassfileVersion uint16
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		VerifySignatures: true,
		EmitSourceFile:   true,
		ClassfileVersion: classfile.DefaultMajorVersion,
	}
}

// Unit is a compilation unit: one source file and the top-level classes
// defined in it.
type Unit struct {
	// Source is the source file name, written to SourceFile attributes.
	Source string
	// CompilingArray is set for the unit defining the Array class itself,
	// where references to Array and its type parameter are legitimate.
	CompilingArray bool
	// Pickled is set when serialized signature data accompanies the
	// unit's classes.
	Pickled bool
	Classes []*symbols.Symbol
}

// Name identifies the unit in diagnostics.
func (u *Unit) Name() string {
	if u == nil || u.Source == "" {
		return "<unknown>"
	}
	return u.Source
}

// Gen holds the per-class generation state.
type Gen struct {
	BTypes   *BTypes
	Reporter *Reporter
	Settings Settings
	Bodies   BodyGenerator

	unit  *Unit
	inner *InnerClasses
	// site is the class or member being generated. Diagnostics raised
	// below it, such as for a type or an annotation argument, are
	// attributed to it.
	site *symbols.Symbol
}

// NewGen returns a generator. A nil bodies generator emits stub bodies.
func NewGen(bt *BTypes, rep *Reporter, settings Settings, bodies BodyGenerator) *Gen {
	if bodies == nil {
		bodies = StubBodies{}
	}
	return &Gen{
		BTypes:   bt,
		Reporter: rep,
		Settings: settings,
		Bodies:   bodies,
		inner:    &InnerClasses{},
	}
}

// StartUnit sets the unit whose classes are generated next.
func (g *Gen) StartUnit(u *Unit) { g.unit = u }

// Unit returns the current compilation unit.
func (g *Gen) Unit() *Unit { return g.unit }

// InnerClasses returns the registrar of the class being generated.
func (g *Gen) InnerClasses() *InnerClasses { return g.inner }

// beginClass resets per-class state before a new top-level class.
func (g *Gen) beginClass() { g.inner.Reset() }

// at returns pos, or the position of the current site when pos is unknown.
func (g *Gen) at(pos symbols.Pos) symbols.Pos {
	if !pos.IsValid() && g.site != nil {
		return g.site.Pos
	}
	return pos
}

func (g *Gen) compilingArray() bool { return g.unit != nil && g.unit.CompilingArray }

func (g *Gen) version() uint16 {
	if g.Settings.ClassfileVersion == 0 {
		return classfile.DefaultMajorVersion
	}
	return g.Settings.ClassfileVersion
}
