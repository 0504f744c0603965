package bcode

import (
	"sort"

	"github.com/shardulc/dotty/pkg/classfile"
)

// InnerClasses collects the nested classes a class file refers to. It is
// reset at the start of every top-level class.
type InnerClasses struct {
	refs []*ClassBType
	seen map[string]bool
}

// Register records a reference to c if c is nested. Repeated references
// are recorded once.
func (ic *InnerClasses) Register(c *ClassBType) {
	if c == nil || !c.IsNested() || ic.seen[c.InternalName] {
		return
	}
	if ic.seen == nil {
		ic.seen = make(map[string]bool)
	}
	ic.seen[c.InternalName] = true
	ic.refs = append(ic.refs, c)
}

// Reset forgets all registered classes.
func (ic *InnerClasses) Reset() {
	ic.refs = ic.refs[:0]
	clear(ic.seen)
}

// Len returns the number of distinct classes registered so far.
func (ic *InnerClasses) Len() int { return len(ic.refs) }

// Flush computes the InnerClasses table for the class being generated:
// every registered class, every class in declared, and all of their
// enclosing nested classes, each once, sorted by internal name so that an
// enclosing class precedes the classes nested in it.
func (ic *InnerClasses) Flush(declared ...*ClassBType) []classfile.InnerClass {
	seen := make(map[string]*ClassBType)
	add := func(c *ClassBType) {
		for _, n := range c.EnclosingNestedChain() {
			if _, ok := seen[n.InternalName]; !ok {
				seen[n.InternalName] = n
			}
		}
	}
	for _, c := range ic.refs {
		add(c)
	}
	for _, c := range declared {
		add(c)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]classfile.InnerClass, len(names))
	for i, name := range names {
		rows[i] = seen[name].nested.Entry
	}
	return rows
}
