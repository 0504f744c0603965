// Package vm is a small interpreter for generated class files. It links
// classes through a ClassLoader, runs static initializers and executes
// static forwarders together with the methods they call, so generated
// bodies can be checked by running them.
//
// Bootstrap classes (Object, the exceptions, boxes) come from package
// native. Methods of loaded classes can be bound to Go functions.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/native"
)

// maxFrameDepth is the maximum number of nested method calls.
const maxFrameDepth = 1024

// NativeMethod is a Go implementation bound to a method of a loaded class.
// Instance methods receive their receiver as args[0].
type NativeMethod func(vm *VM, args []Value) (Value, error)

// Class is a linked class with its static state.
type Class struct {
	Name    string
	File    *classfile.ClassFile // nil for bootstrap classes
	Native  *native.Class
	Super   *Class
	Statics map[string]Value

	initialized bool
}

// IsSubclassOf reports whether c is the class name or extends it.
func (c *Class) IsSubclassOf(name string) bool {
	for k := c; k != nil; k = k.Super {
		if k.Name == name {
			return true
		}
	}
	return false
}

// VM is the virtual machine that executes Java bytecode. It is not safe
// for concurrent use.
type VM struct {
	Loader ClassLoader
	Stdout io.Writer
	Log    commonlog.Logger

	classes    map[string]*Class
	bound      map[string]NativeMethod
	out        *native.PrintStream
	frameDepth int
}

// NewVM creates a new VM loading classes from loader.
func NewVM(loader ClassLoader) *VM {
	return &VM{
		Loader:  loader,
		Stdout:  os.Stdout,
		Log:     commonlog.GetLogger("mirrorgen.vm"),
		classes: make(map[string]*Class),
		bound:   make(map[string]NativeMethod),
	}
}

func methodKey(owner, name, desc string) string { return owner + "." + name + desc }

// Bind implements owner.name with a Go function. Bound methods take
// precedence over the code in the class file.
func (vm *VM) Bind(owner, name, desc string, fn NativeMethod) {
	vm.bound[methodKey(owner, name, desc)] = fn
}

// Execute runs the static main method of the class.
func (vm *VM) Execute(className string) error {
	_, err := vm.InvokeStatic(className, "main", "([Ljava/lang/String;)V", NullValue())
	return err
}

// InvokeStatic initializes the class and calls its static method.
func (vm *VM) InvokeStatic(className, name, desc string, args ...Value) (Value, error) {
	c, err := vm.initClass(className)
	if err != nil {
		return Value{}, err
	}
	t, ok := vm.resolve(c, name, desc)
	if !ok {
		return Value{}, fmt.Errorf("method %s.%s%s not found", className, name, desc)
	}
	if t.method != nil && !t.method.AccessFlags.IsStatic() {
		return Value{}, fmt.Errorf("method %s.%s%s is not static", className, name, desc)
	}
	return vm.call(t, args)
}

// GetStatic initializes the class and reads one of its static fields.
func (vm *VM) GetStatic(className, field string) (Value, error) {
	c, err := vm.initClass(className)
	if err != nil {
		return Value{}, err
	}
	holder := staticHolder(c, field)
	if holder == nil {
		return Value{}, fmt.Errorf("static field %s.%s not found", className, field)
	}
	return holder.Statics[field], nil
}

func staticHolder(c *Class, field string) *Class {
	for k := c; k != nil; k = k.Super {
		if _, ok := k.Statics[field]; ok {
			return k
		}
	}
	return nil
}

// LoadClass links a class and its superclasses without initializing them.
func (vm *VM) LoadClass(name string) (*Class, error) {
	if c, ok := vm.classes[name]; ok {
		return c, nil
	}

	c := &Class{Name: name, Statics: make(map[string]Value)}
	var superName string
	if nc, ok := native.Lookup(name); ok {
		c.Native = nc
		superName = nc.Super
		for field, v := range nc.Statics {
			c.Statics[field] = fromGo(v)
		}
		if name == "java/lang/System" {
			c.Statics["out"] = RefValue(vm.printStream())
		}
	} else {
		if vm.Loader == nil {
			return nil, fmt.Errorf("loading %s: %w", name, ErrClassNotFound)
		}
		cf, err := vm.Loader.LoadClass(name)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		c.File = cf
		superName = cf.SuperClassName()
		for _, f := range cf.Fields {
			if f.AccessFlags.IsStatic() {
				c.Statics[f.Name] = zeroValue(f.Descriptor)
			}
		}
	}

	vm.classes[name] = c
	if superName != "" {
		super, err := vm.LoadClass(superName)
		if err != nil {
			delete(vm.classes, name)
			return nil, err
		}
		c.Super = super
	}
	vm.Log.Debugf("linked %s", name)
	return c, nil
}

func (vm *VM) printStream() *native.PrintStream {
	if vm.out == nil {
		vm.out = &native.PrintStream{Writer: vm.Stdout}
	}
	return vm.out
}

func (vm *VM) initClass(name string) (*Class, error) {
	c, err := vm.LoadClass(name)
	if err != nil {
		return nil, err
	}
	return c, vm.initialize(c)
}

// initialize runs the static initializers of c's superclasses and then
// of c, once.
func (vm *VM) initialize(c *Class) error {
	if c == nil || c.initialized {
		return nil
	}
	c.initialized = true
	if err := vm.initialize(c.Super); err != nil {
		return err
	}
	if c.File == nil {
		return nil
	}
	if clinit := c.File.FindMethod("<clinit>", "()V"); clinit != nil {
		vm.Log.Debugf("initializing %s", c.Name)
		if _, err := vm.execute(c, clinit, nil); err != nil {
			return fmt.Errorf("initializing %s: %w", c.Name, err)
		}
	}
	return nil
}

// target is a resolved method: bytecode, a bound Go function or a
// bootstrap method.
type target struct {
	owner  *Class
	method *classfile.MethodInfo
	bound  NativeMethod
	native native.Method
}

// resolve looks up name+desc in c and then in its superclasses.
func (vm *VM) resolve(c *Class, name, desc string) (target, bool) {
	for k := c; k != nil; k = k.Super {
		if fn, ok := vm.bound[methodKey(k.Name, name, desc)]; ok {
			return target{owner: k, bound: fn}, true
		}
		if k.File != nil {
			if m := k.File.FindMethod(name, desc); m != nil {
				return target{owner: k, method: m}, true
			}
		}
		if k.Native != nil {
			if fn, ok := k.Native.Methods[name+desc]; ok {
				return target{owner: k, native: fn}, true
			}
		}
	}
	return target{}, false
}

func (vm *VM) call(t target, args []Value) (Value, error) {
	switch {
	case t.bound != nil:
		return t.bound(vm, args)
	case t.native != nil:
		in := make([]any, len(args))
		for i, a := range args {
			in[i] = toGo(a)
		}
		out, err := t.native(in)
		if err != nil {
			var thr *native.Throwable
			if errors.As(err, &thr) {
				return Value{}, &JavaException{Object: thr}
			}
			return Value{}, err
		}
		return fromGo(out), nil
	}
	return vm.execute(t.owner, t.method, args)
}

// execute runs a bytecode method with the given arguments and returns its
// return value.
func (vm *VM) execute(c *Class, method *classfile.MethodInfo, args []Value) (Value, error) {
	if method.Code == nil {
		return Value{}, fmt.Errorf("method %s.%s%s has no Code attribute", c.Name, method.Name, method.Descriptor)
	}

	vm.frameDepth++
	defer func() { vm.frameDepth-- }()
	if vm.frameDepth > maxFrameDepth {
		return Value{}, fmt.Errorf("stack overflow: frame depth exceeded %d", maxFrameDepth)
	}

	frame := NewFrame(method.Code.MaxLocals, method.Code.MaxStack, method.Code.Code, c.File)
	frame.Method = method.Name

	slot := 0
	for _, arg := range args {
		frame.SetLocal(slot, arg)
		slot++
		if arg.IsWide() {
			slot++
		}
	}

	for frame.PC < len(frame.Code) {
		pc := frame.PC
		opcode := classfile.Opcode(frame.Code[frame.PC])
		frame.PC++

		retVal, hasReturn, err := vm.executeInstruction(frame, opcode)
		if err != nil {
			var je *JavaException
			if errors.As(err, &je) {
				return Value{}, err
			}
			return Value{}, fmt.Errorf("%s.%s%s at pc %d (%s): %w", c.Name, method.Name, method.Descriptor, pc, opcode, err)
		}
		if hasReturn {
			return retVal, nil
		}
	}

	// Fell off the end of the method
	return Value{}, nil
}

func toGo(v Value) any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeLong:
		return v.Long
	case TypeFloat:
		return v.Float
	case TypeDouble:
		return v.Double
	case TypeRef:
		return v.Ref
	}
	return nil
}

func fromGo(x any) Value {
	switch x := x.(type) {
	case nil:
		return NullValue()
	case int32:
		return IntValue(x)
	case int64:
		return LongValue(x)
	case float32:
		return FloatValue(x)
	case float64:
		return DoubleValue(x)
	case bool:
		if x {
			return IntValue(1)
		}
		return IntValue(0)
	}
	return RefValue(x)
}
