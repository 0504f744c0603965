package bcode

import (
	"sort"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// ModuleInstanceField is the static field holding an object's singleton.
const ModuleInstanceField = "MODULE$"

// excludedForwarder are the flags that rule a member out as a forwarder
// candidate before any other check.
const excludedForwarder = symbols.Private | symbols.Protected | symbols.Lifted |
	symbols.JavaStatic | symbols.Macro

// forwarderCandidates returns the method and value members of module minus
// the excluded ones, sorted by name and then by erased signature. A value
// is forwarded through its getter.
func forwarderCandidates(module *symbols.Symbol) []*symbols.Symbol {
	var out []*symbols.Symbol
	for _, m := range module.AllMembers() {
		if (m.IsMethod() || m.Kind == symbols.KindValue) && !m.Is(excludedForwarder) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return symbols.Signature(out[i]) < symbols.Signature(out[j])
	})
	return out
}

// conflictingNames returns the term member names of a companion class.
func conflictingNames(cls *symbols.Symbol) map[string]*symbols.Symbol {
	names := make(map[string]*symbols.Symbol)
	if cls == nil {
		return names
	}
	for _, m := range cls.AllMembers() {
		if m.IsTerm() {
			if _, ok := names[m.Name]; !ok {
				names[m.Name] = m
			}
		}
	}
	return names
}

// isPublic reports whether a member is accessible from everywhere.
func isPublic(m *symbols.Symbol) bool {
	return !m.Is(symbols.Private|symbols.Protected) && m.PrivateWithin == nil
}

// AddForwarders adds a static forwarder to cls for every eligible member of
// module. cls is the companion class of module or its mirror class. The
// methods are appended in a stable order and their names returned.
func (g *Gen) AddForwarders(cls *classfile.ClassNode, module *symbols.Symbol) []string {
	assertf(module.IsModule(), module, "forwarders requested for non-object %s", module)
	g.Reporter.Debugf(module, module.Pos, "Dumping mirror class for object: %s", module.FullName())

	linked := module.CompanionClass()
	conflicts := conflictingNames(linked)

	var added []string
	for _, m0 := range forwarderCandidates(module) {
		m := m0
		if m0.Is(symbols.Bridge) {
			m = m0.Overridden
		}
		switch {
		case m == nil:
			g.Reporter.Logf(m0, m0.Pos, "%s is a bridge method that overrides nothing, something went wrong in a previous phase.", m0)
		case m.IsType() || m.Is(symbols.Deferred) || m.Owner == symbols.Defn.ObjectClass ||
			m.IsConstructor() || symbols.IsExpandedName(m.Name):
			g.Reporter.Debugf(m, m.Pos, "No forwarder for '%s' from %s to '%s'", m, cls.Name, module.FullName())
		case conflicts[m.Name] != nil:
			g.Reporter.Logf(m, m.Pos, "No forwarder for %s due to conflict with %s", m, conflicts[m.Name])
		case !isPublic(m):
			g.Reporter.Logf(m, m.Pos, "No forwarder for non-public member %s", m)
		default:
			g.Reporter.Logf(m, m.Pos, "Adding static forwarder for '%s' from %s to '%s'", m, cls.Name, module.FullName())
			cls.Methods = append(cls.Methods, g.forwarder(module, m))
			added = append(added, m.JavaSimpleName())
		}
	}
	return added
}

// forwarder builds the static method forwarding to m on module's singleton.
func (g *Gen) forwarder(module, m *symbols.Symbol) *classfile.MethodNode {
	g.site = m
	moduleName := g.InternalName(module)
	memberInfo := symbols.MemberInfo(module, m)
	seen := g.methodBType(m, memberInfo)

	flags := classfile.AccPublic | classfile.AccStatic
	if m.Is(symbols.JavaVarargs) {
		flags |= classfile.AccVarargs
	}

	var throws, others []*symbols.Annotation
	for _, a := range m.Annotations {
		if a.Symbol() == symbols.Defn.ThrowsAnnot {
			throws = append(throws, a)
		} else {
			others = append(others, a)
		}
	}

	name := m.JavaSimpleName()
	fwd := &classfile.MethodNode{
		Access:     flags,
		Name:       name,
		Desc:       seen.Descriptor(),
		Signature:  g.StaticForwarderSignature(m, module),
		Exceptions: g.exceptions(throws),
	}
	g.EmitAnnotations(fwd, others)
	g.EmitParamAnnotations(fwd, m.Params)

	insns := []classfile.Insn{
		classfile.FieldInsn(classfile.OpGetstatic, moduleName, ModuleInstanceField, "L"+moduleName+";"),
	}
	index := 0
	for _, p := range seen.Params {
		insns = append(insns, classfile.VarInsn(TypedOpcode(p, classfile.OpIload), uint16(index)))
		index += p.Size()
	}
	insns = append(insns,
		classfile.MethodInsn(classfile.OpInvokevirtual, moduleName, name, g.MethodBTypeOf(m).Descriptor(), false),
		classfile.Insn{Op: TypedOpcode(seen.Result, classfile.OpIreturn)},
	)
	fwd.Code = &classfile.Code{
		MaxStack:  uint16(max(1+index, seen.Result.Size())),
		MaxLocals: uint16(index),
		Insns:     insns,
	}
	return fwd
}

// exceptions returns the internal names of the classes named by @throws
// annotations, each once.
func (g *Gen) exceptions(throws []*symbols.Annotation) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range throws {
		tp := thrownType(a)
		if tp == nil {
			continue
		}
		cls := symbols.ClassSymbol(tp)
		if cls == nil {
			continue
		}
		name := g.InternalName(cls)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
