package vm

import (
	"testing"
)

func TestFramePushPop(t *testing.T) {
	t.Run("LIFO order", func(t *testing.T) {
		frame := NewFrame(0, 10, nil, nil)

		frame.Push(IntValue(10))
		frame.Push(LongValue(1 << 40))
		frame.Push(RefValue("s"))

		if v := frame.Pop(); v.Type != TypeRef || v.Ref != "s" {
			t.Errorf("first Pop: got %v, want ref s", v)
		}
		if v := frame.Pop(); v.Type != TypeLong || v.Long != 1<<40 {
			t.Errorf("second Pop: got %v, want long 1<<40", v)
		}
		if v := frame.Pop(); v.Int != 10 {
			t.Errorf("third Pop: got %v, want int 10", v)
		}
	})

	t.Run("overflow panics", func(t *testing.T) {
		frame := NewFrame(0, 1, nil, nil)
		frame.Push(IntValue(1))
		defer func() {
			if recover() == nil {
				t.Error("expected a panic on overflow")
			}
		}()
		frame.Push(IntValue(2))
	})

	t.Run("underflow panics", func(t *testing.T) {
		frame := NewFrame(0, 1, nil, nil)
		defer func() {
			if recover() == nil {
				t.Error("expected a panic on underflow")
			}
		}()
		frame.Pop()
	})
}

func TestFrameLocalVars(t *testing.T) {
	frame := NewFrame(4, 10, nil, nil)
	frame.SetLocal(0, IntValue(10))
	frame.SetLocal(1, DoubleValue(2.5))
	frame.SetLocal(3, NullValue())

	if v := frame.GetLocal(0); v.Int != 10 {
		t.Errorf("GetLocal(0): got %v, want int 10", v)
	}
	if v := frame.GetLocal(1); !v.IsWide() || v.Double != 2.5 {
		t.Errorf("GetLocal(1): got %v, want double 2.5", v)
	}
	if v := frame.GetLocal(3); !v.IsNull() {
		t.Errorf("GetLocal(3): got %v, want null", v)
	}

	frame.SetLocal(0, IntValue(99))
	frame.Push(IntValue(7))
	if v := frame.GetLocal(0); v.Int != 99 {
		t.Errorf("GetLocal(0) after overwrite and push: got %v, want int 99", v)
	}
}

func TestFrameOperands(t *testing.T) {
	frame := NewFrame(0, 0, []byte{0xFF, 0x12, 0x34, 0x80, 0x00}, nil)
	if got := frame.ReadI8(); got != -1 {
		t.Errorf("ReadI8: got %d, want -1", got)
	}
	if got := frame.ReadU16(); got != 0x1234 {
		t.Errorf("ReadU16: got %#x, want 0x1234", got)
	}
	if got := frame.ReadI16(); got != -32768 {
		t.Errorf("ReadI16: got %d, want -32768", got)
	}
	if frame.PC != 5 {
		t.Errorf("PC: got %d, want 5", frame.PC)
	}
}

func TestZeroValue(t *testing.T) {
	tests := []struct {
		desc string
		want Value
	}{
		{"I", IntValue(0)},
		{"Z", IntValue(0)},
		{"J", LongValue(0)},
		{"F", FloatValue(0)},
		{"D", DoubleValue(0)},
		{"Ljava/lang/String;", NullValue()},
		{"[I", NullValue()},
	}
	for _, tt := range tests {
		if got := zeroValue(tt.desc); got != tt.want {
			t.Errorf("zeroValue(%q): got %v, want %v", tt.desc, got, tt.want)
		}
	}
}

func TestRefValueOfNil(t *testing.T) {
	if v := RefValue(nil); v.Type != TypeNull {
		t.Errorf("RefValue(nil): got %v, want null", v)
	}
	obj := NewJObject("p/C")
	obj.Fields["x"] = IntValue(1)
	if v := RefValue(obj); v.IsNull() || v.Ref.(*JObject).Fields["x"].Int != 1 {
		t.Errorf("RefValue(obj): got %v", v)
	}
}
