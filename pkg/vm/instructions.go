package vm

import (
	"fmt"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/native"
)

// executeInstruction executes a single bytecode instruction.
// Returns (returnValue, hasReturn, error).
func (vm *VM) executeInstruction(frame *Frame, op classfile.Opcode) (Value, bool, error) {
	if _, index, ok := classfile.ShortLoad(op); ok {
		frame.Push(frame.GetLocal(int(index)))
		return Value{}, false, nil
	}
	if _, index, ok := classfile.ShortStore(op); ok {
		frame.SetLocal(int(index), frame.Pop())
		return Value{}, false, nil
	}

	switch op {
	case classfile.OpNop:
		// do nothing

	// --- Constant load instructions ---
	case classfile.OpAconstNull:
		frame.Push(NullValue())

	case classfile.OpIconstM1, classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconst2,
		classfile.OpIconst3, classfile.OpIconst4, classfile.OpIconst5:
		frame.Push(IntValue(int32(op) - int32(classfile.OpIconst0)))

	case classfile.OpLconst0, classfile.OpLconst1:
		frame.Push(LongValue(int64(op - classfile.OpLconst0)))

	case classfile.OpFconst0, classfile.OpFconst1, classfile.OpFconst2:
		frame.Push(FloatValue(float32(op - classfile.OpFconst0)))

	case classfile.OpDconst0, classfile.OpDconst1:
		frame.Push(DoubleValue(float64(op - classfile.OpDconst0)))

	case classfile.OpBipush:
		frame.Push(IntValue(int32(frame.ReadI8())))

	case classfile.OpSipush:
		frame.Push(IntValue(int32(frame.ReadI16())))

	case classfile.OpLdc:
		return Value{}, false, vm.executeLdc(frame, uint16(frame.ReadU8()))

	case classfile.OpLdcW, classfile.OpLdc2W:
		return Value{}, false, vm.executeLdc(frame, frame.ReadU16())

	// --- Local variables ---
	case classfile.OpIload, classfile.OpLload, classfile.OpFload, classfile.OpDload, classfile.OpAload:
		frame.Push(frame.GetLocal(int(frame.ReadU8())))

	case classfile.OpIstore, classfile.OpLstore, classfile.OpFstore, classfile.OpDstore, classfile.OpAstore:
		frame.SetLocal(int(frame.ReadU8()), frame.Pop())

	case classfile.OpWide:
		inner := classfile.Opcode(frame.ReadU8())
		index := int(frame.ReadU16())
		switch {
		case classfile.IsLoad(inner):
			frame.Push(frame.GetLocal(index))
		case inner >= classfile.OpIstore && inner <= classfile.OpAstore:
			frame.SetLocal(index, frame.Pop())
		default:
			return Value{}, false, fmt.Errorf("wide: unsupported opcode %s", inner)
		}

	// --- Stack manipulation ---
	case classfile.OpPop:
		frame.Pop()

	case classfile.OpPop2:
		if v := frame.Pop(); !v.IsWide() {
			frame.Pop()
		}

	case classfile.OpDup:
		v := frame.Pop()
		frame.Push(v)
		frame.Push(v)

	// --- Arithmetic ---
	case classfile.OpIadd:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(IntValue(a.Int + b.Int))
	case classfile.OpIsub:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(IntValue(a.Int - b.Int))
	case classfile.OpImul:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(IntValue(a.Int * b.Int))
	case classfile.OpLadd:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(LongValue(a.Long + b.Long))
	case classfile.OpLsub:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(LongValue(a.Long - b.Long))
	case classfile.OpLmul:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(LongValue(a.Long * b.Long))
	case classfile.OpFadd:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(FloatValue(a.Float + b.Float))
	case classfile.OpDadd:
		b, a := frame.Pop(), frame.Pop()
		frame.Push(DoubleValue(a.Double + b.Double))

	case classfile.OpI2l:
		frame.Push(LongValue(int64(frame.Pop().Int)))
	case classfile.OpL2i:
		frame.Push(IntValue(int32(frame.Pop().Long)))

	// --- Returns ---
	case classfile.OpIreturn, classfile.OpLreturn, classfile.OpFreturn, classfile.OpDreturn, classfile.OpAreturn:
		return frame.Pop(), true, nil

	case classfile.OpReturn:
		return Value{}, true, nil

	// --- Fields ---
	case classfile.OpGetstatic, classfile.OpPutstatic:
		return Value{}, false, vm.executeStaticField(frame, op)

	case classfile.OpGetfield:
		return Value{}, false, vm.executeGetfield(frame)

	case classfile.OpPutfield:
		return Value{}, false, vm.executePutfield(frame)

	// --- Invocation ---
	case classfile.OpInvokevirtual, classfile.OpInvokespecial, classfile.OpInvokestatic, classfile.OpInvokeinterface:
		return Value{}, false, vm.executeInvoke(frame, op)

	// --- Objects ---
	case classfile.OpNew:
		name, err := classfile.GetClassName(frame.Class.ConstantPool, frame.ReadU16())
		if err != nil {
			return Value{}, false, fmt.Errorf("new: %w", err)
		}
		c, err := vm.initClass(name)
		if err != nil {
			return Value{}, false, err
		}
		if c.Native != nil && c.Native.New != nil {
			frame.Push(RefValue(c.Native.New()))
		} else {
			frame.Push(RefValue(NewJObject(name)))
		}

	case classfile.OpCheckcast:
		// Casts are not checked; generated code only casts module instances.
		frame.ReadU16()

	case classfile.OpAthrow:
		v := frame.Pop()
		if v.IsNull() {
			return Value{}, false, NewJavaException("java/lang/NullPointerException")
		}
		return Value{}, false, &JavaException{Object: v.Ref}

	default:
		return Value{}, false, fmt.Errorf("unsupported opcode %s", op)
	}

	return Value{}, false, nil
}

// executeLdc handles the ldc family.
func (vm *VM) executeLdc(frame *Frame, index uint16) error {
	pool := frame.Class.ConstantPool
	if int(index) >= len(pool) || pool[index] == nil {
		return fmt.Errorf("ldc: invalid constant pool index %d", index)
	}

	switch c := pool[index].(type) {
	case *classfile.ConstantInteger:
		frame.Push(IntValue(c.Value))
	case *classfile.ConstantFloat:
		frame.Push(FloatValue(c.Value))
	case *classfile.ConstantLong:
		frame.Push(LongValue(c.Value))
	case *classfile.ConstantDouble:
		frame.Push(DoubleValue(c.Value))
	case *classfile.ConstantString:
		str, err := classfile.GetUtf8(pool, c.StringIndex)
		if err != nil {
			return fmt.Errorf("ldc: resolving string: %w", err)
		}
		frame.Push(RefValue(str))
	default:
		return fmt.Errorf("ldc: unsupported constant pool entry type at index %d (tag=%d)", index, c.Tag())
	}
	return nil
}

// executeStaticField handles getstatic and putstatic. Static fields of
// System and BoxedUnit are provided by the bootstrap classes.
func (vm *VM) executeStaticField(frame *Frame, op classfile.Opcode) error {
	ref, err := classfile.ResolveFieldref(frame.Class.ConstantPool, frame.ReadU16())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c, err := vm.initClass(ref.ClassName)
	if err != nil {
		return err
	}
	holder := staticHolder(c, ref.FieldName)
	if holder == nil {
		return fmt.Errorf("%s: unsupported field %s.%s:%s", op, ref.ClassName, ref.FieldName, ref.Descriptor)
	}
	if op == classfile.OpGetstatic {
		frame.Push(holder.Statics[ref.FieldName])
	} else {
		holder.Statics[ref.FieldName] = frame.Pop()
	}
	return nil
}

// executeGetfield handles the getfield instruction.
func (vm *VM) executeGetfield(frame *Frame) error {
	ref, err := classfile.ResolveFieldref(frame.Class.ConstantPool, frame.ReadU16())
	if err != nil {
		return fmt.Errorf("getfield: %w", err)
	}
	obj, err := instance(frame.Pop())
	if err != nil {
		return err
	}
	v, ok := obj.Fields[ref.FieldName]
	if !ok {
		v = zeroValue(ref.Descriptor)
	}
	frame.Push(v)
	return nil
}

// executePutfield handles the putfield instruction.
func (vm *VM) executePutfield(frame *Frame) error {
	ref, err := classfile.ResolveFieldref(frame.Class.ConstantPool, frame.ReadU16())
	if err != nil {
		return fmt.Errorf("putfield: %w", err)
	}
	v := frame.Pop()
	obj, err := instance(frame.Pop())
	if err != nil {
		return err
	}
	obj.Fields[ref.FieldName] = v
	return nil
}

func instance(v Value) (*JObject, error) {
	if v.IsNull() {
		return nil, NewJavaException("java/lang/NullPointerException")
	}
	obj, ok := v.Ref.(*JObject)
	if !ok {
		return nil, fmt.Errorf("field access on %s", native.ClassOf(v.Ref))
	}
	return obj, nil
}

// executeInvoke handles the four invoke instructions. Virtual and
// interface calls dispatch on the receiver's class; special calls start at
// the named class.
func (vm *VM) executeInvoke(frame *Frame, op classfile.Opcode) error {
	index := frame.ReadU16()
	if op == classfile.OpInvokeinterface {
		frame.ReadU8() // count
		frame.ReadU8() // zero
	}
	ref, err := resolveMethodref(frame.Class.ConstantPool, index)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := classfile.ParamCount(ref.Descriptor)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if op != classfile.OpInvokestatic {
		n++
	}
	if n > frame.SP {
		return fmt.Errorf("%s %s.%s: %d arguments, stack holds %d", op, ref.ClassName, ref.MethodName, n, frame.SP)
	}
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}

	var c *Class
	switch op {
	case classfile.OpInvokestatic:
		c, err = vm.initClass(ref.ClassName)
	case classfile.OpInvokespecial:
		c, err = vm.LoadClass(ref.ClassName)
	default:
		if args[0].IsNull() {
			return NewJavaException("java/lang/NullPointerException")
		}
		c, err = vm.LoadClass(native.ClassOf(args[0].Ref))
	}
	if err != nil {
		return err
	}

	t, ok := vm.resolve(c, ref.MethodName, ref.Descriptor)
	if !ok {
		return fmt.Errorf("%s: no method %s.%s%s", op, c.Name, ref.MethodName, ref.Descriptor)
	}
	vm.Log.Debugf("%s %s.%s%s", op, t.owner.Name, ref.MethodName, ref.Descriptor)

	result, err := vm.call(t, args)
	if err != nil {
		return err
	}
	if !classfile.IsVoidReturn(ref.Descriptor) {
		frame.Push(result)
	}
	return nil
}

func resolveMethodref(pool []classfile.ConstantPoolEntry, index uint16) (*classfile.MethodRefInfo, error) {
	if int(index) < len(pool) {
		if _, ok := pool[index].(*classfile.ConstantInterfaceMethodref); ok {
			return classfile.ResolveInterfaceMethodref(pool, index)
		}
	}
	return classfile.ResolveMethodref(pool, index)
}
