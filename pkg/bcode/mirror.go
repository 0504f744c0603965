package bcode

import (
	"github.com/google/uuid"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// pickleNamespace scopes the identifiers carried by TASTY attributes.
var pickleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://scala-lang.org/tasty"))

// PickleID returns the identifier of the serialized signature data of a
// top-level class. It depends only on the class's binary name, so repeated
// runs agree.
func PickleID(binaryName string) uuid.UUID {
	return uuid.NewSHA1(pickleNamespace, []byte(binaryName))
}

// markerAttributes returns the attributes flagging a class as produced by
// this compiler. With pickled data the class carries a ScalaSig version
// marker and a TASTY attribute naming the pickle; without, an empty Scala
// attribute.
func markerAttributes(binaryName string, pickled bool) []classfile.AttributeInfo {
	if !pickled {
		return []classfile.AttributeInfo{{Name: classfile.AttrScala, Data: []byte{}}}
	}
	id := PickleID(binaryName)
	return []classfile.AttributeInfo{
		// major version 5, minor 0, no entries
		{Name: classfile.AttrScalaSig, Data: []byte{5, 0, 0}},
		{Name: classfile.AttrTasty, Data: id[:]},
	}
}

// GenMirrorClass synthesizes the mirror class of a top-level object that
// has no companion class: a final class holding one static forwarder per
// eligible member of the object.
func (g *Gen) GenMirrorClass(module *symbols.Symbol) *classfile.ClassNode {
	assertf(module.IsModule(), module, "mirror class requested for non-object %s", module)
	assertf(module.CompanionClass() == nil, module, "object %s has a companion class", module)
	g.beginClass()
	g.site = module

	name := module.MirrorBinaryName()
	mirror := &classfile.ClassNode{
		Version:   g.version(),
		Access:    classfile.AccPublic | classfile.AccFinal | classfile.AccSuper,
		Name:      name,
		SuperName: ObjectRef.InternalName,
	}
	if g.Settings.EmitSourceFile && g.unit != nil && g.unit.Source != "" {
		mirror.SourceFile = g.unit.Source
	}
	mirror.Attributes = markerAttributes(name, g.unit != nil && g.unit.Pickled)
	g.EmitAnnotations(mirror, module.Annotations)

	g.AddForwarders(mirror, module)

	var members []*ClassBType
	for _, c := range module.MemberClasses() {
		members = append(members, g.BTypes.ClassBTypeFromSymbol(c))
	}
	mirror.InnerClasses = g.inner.Flush(members...)
	return mirror
}
