package vm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shardulc/dotty/pkg/bcode"
	"github.com/shardulc/dotty/pkg/classfile"
)

func emptyClass(name string) *classfile.ClassNode {
	return &classfile.ClassNode{
		Access:    classfile.AccPublic | classfile.AccSuper,
		Name:      name,
		SuperName: "java/lang/Object",
	}
}

func TestMemoryClassLoader(t *testing.T) {
	cl := NewMemoryClassLoader(nil)
	if err := cl.DefineNode(emptyClass("mem/A")); err != nil {
		t.Fatalf("DefineNode: %v", err)
	}

	t.Run("load defined class", func(t *testing.T) {
		cf, err := cl.LoadClass("mem/A")
		if err != nil {
			t.Fatalf("LoadClass: %v", err)
		}
		name, err := cf.ClassName()
		if err != nil {
			t.Fatalf("failed to get class name: %v", err)
		}
		if name != "mem/A" {
			t.Errorf("class name: got %q, want %q", name, "mem/A")
		}
	})

	t.Run("cache", func(t *testing.T) {
		cf1, _ := cl.LoadClass("mem/A")
		cf2, _ := cl.LoadClass("mem/A")
		if cf1 != cf2 {
			t.Error("expected same ClassFile instance for cached load, got different pointers")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := cl.LoadClass("mem/Missing")
		if !errors.Is(err, ErrClassNotFound) {
			t.Errorf("got %v, want ErrClassNotFound", err)
		}
	})

	t.Run("corrupt data", func(t *testing.T) {
		cl.Define("mem/Bad", []byte{0xCA, 0xFE, 0x00, 0x00})
		_, err := cl.LoadClass("mem/Bad")
		if !errors.Is(err, classfile.ErrInvalidMagic) {
			t.Errorf("got %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("delegates to parent", func(t *testing.T) {
		child := NewMemoryClassLoader(cl)
		if _, err := child.LoadClass("mem/A"); err != nil {
			t.Errorf("LoadClass via parent: %v", err)
		}
	})
}

func writeClass(t *testing.T, dir string, node *classfile.ClassNode) {
	t.Helper()
	data, err := classfile.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(dir, filepath.FromSlash(node.Name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUserClassLoader(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, emptyClass("disk/pkg/B"))

	parent := NewMemoryClassLoader(nil)
	if err := parent.DefineNode(emptyClass("disk/pkg/B")); err != nil {
		t.Fatal(err)
	}
	if err := parent.DefineNode(emptyClass("mem/Only")); err != nil {
		t.Fatal(err)
	}
	userCL := NewUserClassLoader(dir, parent)

	t.Run("parent first", func(t *testing.T) {
		fromParent, _ := parent.LoadClass("disk/pkg/B")
		cf, err := userCL.LoadClass("disk/pkg/B")
		if err != nil {
			t.Fatalf("LoadClass: %v", err)
		}
		if cf != fromParent {
			t.Error("expected the parent's definition")
		}
	})

	t.Run("from directory", func(t *testing.T) {
		cl := NewUserClassLoader(dir, nil)
		cf, err := cl.LoadClass("disk/pkg/B")
		if err != nil {
			t.Fatalf("LoadClass: %v", err)
		}
		if name, _ := cf.ClassName(); name != "disk/pkg/B" {
			t.Errorf("class name: got %q", name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := userCL.LoadClass("disk/Nope")
		if !errors.Is(err, ErrClassNotFound) {
			t.Errorf("got %v, want ErrClassNotFound", err)
		}
	})
}

// Generated classes written to disk run the same as in memory.
func TestForwardersFromDirectory(t *testing.T) {
	module := newGreeter("vmdisk")
	dir := t.TempDir()
	generate(t, greeterBodies{}, func(g *bcode.Gen) []*classfile.ClassNode {
		nodes := []*classfile.ClassNode{g.GenModuleClass(module), g.GenMirrorClass(module)}
		for _, n := range nodes {
			writeClass(t, dir, n)
		}
		return nodes
	})

	v := NewVM(NewUserClassLoader(dir, nil))
	got, err := v.InvokeStatic("vmdisk/Greeter", "add", "(IJ)J", IntValue(-1), LongValue(1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.Long != 0 {
		t.Errorf("add: got %v, want long 0", got)
	}
}
