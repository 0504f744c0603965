package symbols

import "fmt"

// Kind classifies a symbol.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPackage
	KindClass
	KindTrait
	KindModule
	KindMethod
	KindValue
	KindTypeParam
	KindTypeAlias
	KindAbstractType
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindClass:
		return "class"
	case KindTrait:
		return "trait"
	case KindModule:
		return "object"
	case KindMethod:
		return "method"
	case KindValue:
		return "value"
	case KindTypeParam:
		return "type parameter"
	case KindTypeAlias:
		return "type alias"
	case KindAbstractType:
		return "type"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Flags encode symbol modifiers as seen by the back end.
type Flags uint32

const (
	Private Flags = 1 << iota
	Protected
	Final
	Abstract
	Deferred
	Synthetic
	Artifact
	Bridge
	Lifted
	JavaDefined
	JavaStatic
	JavaVarargs
	JavaAnnotation
	Enum
	Macro
	Accessor
	Mutable
	Case
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Private, "private"},
	{Protected, "protected"},
	{Final, "final"},
	{Abstract, "abstract"},
	{Deferred, "deferred"},
	{Synthetic, "synthetic"},
	{Artifact, "artifact"},
	{Bridge, "bridge"},
	{Lifted, "lifted"},
	{JavaDefined, "java"},
	{JavaStatic, "static"},
	{JavaVarargs, "varargs"},
	{JavaAnnotation, "annotation"},
	{Enum, "enum"},
	{Macro, "macro"},
	{Accessor, "accessor"},
	{Mutable, "mutable"},
	{Case, "case"},
}

// Strings returns the textual labels of the set flags.
func (f Flags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			labels = append(labels, fn.name)
		}
	}
	return labels
}

// ParseFlag returns the flag with the given label.
func ParseFlag(name string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}
