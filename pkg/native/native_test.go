package native

import (
	"bytes"
	"testing"
)

func call(t *testing.T, class, method string, args ...any) any {
	t.Helper()
	c, ok := Lookup(class)
	if !ok {
		t.Fatalf("class %s not registered", class)
	}
	for k := c; ; {
		if m, ok := k.Methods[method]; ok {
			res, err := m(args)
			if err != nil {
				t.Fatalf("%s.%s: %v", class, method, err)
			}
			return res
		}
		next, ok := Lookup(k.Super)
		if !ok {
			t.Fatalf("%s.%s not found", class, method)
		}
		k = next
	}
}

func TestThrowable(t *testing.T) {
	c, ok := Lookup("java/lang/UnsupportedOperationException")
	if !ok || c.New == nil {
		t.Fatal("UnsupportedOperationException not registered")
	}
	obj := c.New()
	call(t, c.Name, "<init>(Ljava/lang/String;)V", obj, "p.Greeter.greet")

	thr := obj.(*Throwable)
	if got := call(t, c.Name, "getMessage()Ljava/lang/String;", thr); got != "p.Greeter.greet" {
		t.Errorf("getMessage: got %v", got)
	}
	want := "java.lang.UnsupportedOperationException: p.Greeter.greet"
	if thr.Error() != want {
		t.Errorf("Error(): got %q, want %q", thr.Error(), want)
	}
	if ClassOf(obj) != "java/lang/UnsupportedOperationException" {
		t.Errorf("ClassOf: got %q", ClassOf(obj))
	}
}

func TestThrowableHierarchy(t *testing.T) {
	want := []string{
		"java/lang/UnsupportedOperationException",
		"java/lang/RuntimeException",
		"java/lang/Exception",
		"java/lang/Throwable",
		"java/lang/Object",
	}
	name := want[0]
	for i := 1; i < len(want); i++ {
		c, _ := Lookup(name)
		if c.Super != want[i] {
			t.Fatalf("super of %s: got %q, want %q", name, c.Super, want[i])
		}
		name = c.Super
	}
}

func TestBoxing(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		boxed := call(t, "java/lang/Integer", "valueOf(I)Ljava/lang/Integer;", int32(-100))
		if got := call(t, "java/lang/Integer", "intValue()I", boxed); got != int32(-100) {
			t.Errorf("intValue(valueOf(-100)): got %v", got)
		}
	})

	t.Run("long", func(t *testing.T) {
		boxed := call(t, "java/lang/Long", "valueOf(J)Ljava/lang/Long;", int64(1)<<40)
		if got := call(t, "java/lang/Long", "longValue()J", boxed); got != int64(1)<<40 {
			t.Errorf("longValue: got %v", got)
		}
	})

	t.Run("boxed unit", func(t *testing.T) {
		c, _ := Lookup("scala/runtime/BoxedUnit")
		if c.Statics["UNIT"] != BoxedUnit {
			t.Errorf("UNIT: got %v", c.Statics["UNIT"])
		}
	})
}

func TestPrintStream(t *testing.T) {
	var buf bytes.Buffer
	ps := &PrintStream{Writer: &buf}
	call(t, "java/io/PrintStream", "println(I)V", ps, int32(42))
	call(t, "java/io/PrintStream", "println(Ljava/lang/String;)V", ps, "hello")
	call(t, "java/io/PrintStream", "println(Ljava/lang/Object;)V", ps, &Long{Value: 7})
	call(t, "java/io/PrintStream", "println(Ljava/lang/Object;)V", ps, BoxedUnit)
	call(t, "java/io/PrintStream", "println()V", ps)

	want := "42\nhello\n7\n()\n\n"
	if buf.String() != want {
		t.Errorf("output: got %q, want %q", buf.String(), want)
	}
}

func TestObjectToString(t *testing.T) {
	if got := call(t, "java/lang/Object", "toString()Ljava/lang/String;", &Integer{Value: 1}); got != "java.lang.Integer" {
		t.Errorf("toString: got %v", got)
	}
}
