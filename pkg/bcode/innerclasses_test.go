package bcode

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

func TestInnerClassRows(t *testing.T) {
	p := newTestPackage("rows")
	outer := symbols.NewClass(p, "Outer", 0, objectType())
	member := symbols.NewClass(outer, "Member", symbols.Final, objectType())
	obj := symbols.NewModule(p, "Obj", 0, objectType())
	inObj := symbols.NewTrait(obj, "InObj", 0)
	method := symbols.NewMethod(outer, "m", 0, method(nil, intType()))
	local := symbols.NewClass(method, "Local", 0, objectType())
	local.LocalIndex = 2
	anon := symbols.NewClass(method, symbols.AnonClassName, symbols.Final, objectType())
	anon.LocalIndex = 1
	private := symbols.NewClass(outer, "Hidden", symbols.Private, objectType())

	bt := NewBTypes()
	tests := []struct {
		sym  *symbols.Symbol
		want classfile.InnerClass
	}{
		{member, classfile.InnerClass{Name: "rows/Outer$Member", OuterName: "rows/Outer", InnerName: "Member", Flags: classfile.AccPublic | classfile.AccFinal}},
		{inObj, classfile.InnerClass{Name: "rows/Obj$InObj", OuterName: "rows/Obj", InnerName: "InObj", Flags: classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract | classfile.AccStatic}},
		{local, classfile.InnerClass{Name: "rows/Outer$Local$2", InnerName: "Local", Flags: classfile.AccPublic}},
		{anon, classfile.InnerClass{Name: "rows/Outer$$anon$1", Flags: classfile.AccPublic | classfile.AccFinal}},
		{private, classfile.InnerClass{Name: "rows/Outer$Hidden", OuterName: "rows/Outer", InnerName: "Hidden", Flags: classfile.AccPrivate}},
	}
	for _, tt := range tests {
		c := bt.ClassBTypeFromSymbol(tt.sym)
		if !c.IsNested() {
			t.Errorf("%s: not nested", tt.sym.Name)
			continue
		}
		if got := c.Nested().Entry; got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.sym.Name, got, tt.want)
		}
	}
}

func TestInnerClassesFlushDedupAndReset(t *testing.T) {
	p := newTestPackage("dedup")
	a := symbols.NewClass(p, "A", 0, objectType())
	b := symbols.NewClass(a, "B", 0, objectType())
	c := symbols.NewClass(b, "C", 0, objectType())

	bt := NewBTypes()
	ic := &InnerClasses{}
	ic.Register(bt.ClassBTypeFromSymbol(c))
	ic.Register(bt.ClassBTypeFromSymbol(b))
	ic.Register(bt.ClassBTypeFromSymbol(c))
	ic.Register(bt.ClassBTypeFromSymbol(a))
	if ic.Len() != 2 {
		t.Errorf("registered: got %d, want 2", ic.Len())
	}

	rows := ic.Flush(bt.ClassBTypeFromSymbol(b))
	if len(rows) != 2 {
		t.Fatalf("rows: got %d (%v), want 2", len(rows), rows)
	}
	if rows[0].Name != "dedup/A$B" || rows[1].Name != "dedup/A$B$C" {
		t.Errorf("order: got %q, %q", rows[0].Name, rows[1].Name)
	}

	ic.Reset()
	if rows := ic.Flush(); len(rows) != 0 {
		t.Errorf("after Reset: got %v", rows)
	}
	for i := 0; i < 3; i++ {
		ic.Register(bt.ClassBTypeFromSymbol(c))
	}
	if ic.Len() != 1 {
		t.Errorf("after Reset and repeated registration: got %d, want 1", ic.Len())
	}
}

// Random enclosing chains of depth 1 to 5: every row's enclosing class row
// precedes it, and every link of every chain is present.
func TestInnerClassesFlushOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	names := []string{"A", "B", "Ab", "B0", "a", "Z"}

	for iter := 0; iter < 200; iter++ {
		p := newTestPackage("prop")
		bt := NewBTypes()
		ic := &InnerClasses{}
		var expected []string

		for chains := 1 + rng.Intn(4); chains > 0; chains-- {
			owner := symbols.NewClass(p, fmt.Sprintf("T%d", chains), 0, objectType())
			depth := 1 + rng.Intn(5)
			for level := 0; level < depth; level++ {
				name := names[rng.Intn(len(names))]
				if rng.Intn(3) == 0 {
					owner = symbols.NewModule(owner, name, 0, objectType())
				} else {
					owner = symbols.NewClass(owner, name, 0, objectType())
				}
				expected = append(expected, owner.BinaryName())
			}
			ic.Register(bt.ClassBTypeFromSymbol(owner))
		}

		rows := ic.Flush()
		index := make(map[string]int, len(rows))
		for i, r := range rows {
			if _, dup := index[r.Name]; dup {
				t.Fatalf("iteration %d: duplicate row %q", iter, r.Name)
			}
			index[r.Name] = i
		}
		for _, name := range expected {
			if _, ok := index[name]; !ok {
				t.Fatalf("iteration %d: enclosing class %q missing from %v", iter, name, rows)
			}
		}
		for i, r := range rows {
			if r.OuterName == "" {
				continue
			}
			if j, ok := index[r.OuterName]; ok && j >= i {
				t.Fatalf("iteration %d: %q listed at %d before its outer class %q at %d", iter, r.Name, i, r.OuterName, j)
			}
		}
	}
}
