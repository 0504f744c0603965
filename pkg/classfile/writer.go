package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type byteWriter struct {
	buf bytes.Buffer
}

func (w *byteWriter) u8(v uint8)     { w.buf.WriteByte(v) }
func (w *byteWriter) u16(v uint16)   { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *byteWriter) u32(v uint32)   { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *byteWriter) u64(v uint64)   { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *byteWriter) bytes(b []byte) { w.buf.Write(b) }
func (w *byteWriter) Bytes() []byte  { return w.buf.Bytes() }
func (w *byteWriter) Len() int       { return w.buf.Len() }

// classWriter serializes one ClassNode. Attribute bodies are written to
// scratch buffers so the constant pool can be completed before output.
type classWriter struct {
	cp  *ConstantPoolBuilder
	err error
}

// Marshal serializes c into class-file bytes.
func Marshal(c *ClassNode) ([]byte, error) {
	cw := &classWriter{cp: NewConstantPoolBuilder()}
	body := &byteWriter{}

	body.u16(uint16(c.Access))
	body.u16(cw.cp.Class(c.Name))
	if c.SuperName == "" {
		body.u16(0)
	} else {
		body.u16(cw.cp.Class(c.SuperName))
	}
	body.u16(uint16(len(c.Interfaces)))
	for _, itf := range c.Interfaces {
		body.u16(cw.cp.Class(itf))
	}

	body.u16(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		cw.field(body, f)
	}
	body.u16(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		cw.method(body, m)
	}

	var attrs []func(*byteWriter)
	if c.SourceFile != "" {
		attrs = append(attrs, cw.utf8Attr(AttrSourceFile, c.SourceFile))
	}
	if c.Signature != "" {
		attrs = append(attrs, cw.utf8Attr(AttrSignature, c.Signature))
	}
	if len(c.InnerClasses) > 0 {
		attrs = append(attrs, cw.attr(AttrInnerClasses, func(w *byteWriter) {
			w.u16(uint16(len(c.InnerClasses)))
			for _, ic := range c.InnerClasses {
				w.u16(cw.cp.Class(ic.Name))
				if ic.OuterName == "" {
					w.u16(0)
				} else {
					w.u16(cw.cp.Class(ic.OuterName))
				}
				if ic.InnerName == "" {
					w.u16(0)
				} else {
					w.u16(cw.cp.Utf8(ic.InnerName))
				}
				w.u16(uint16(ic.Flags))
			}
		}))
	}
	attrs = append(attrs, cw.annotationAttrs(c.VisibleAnnotations, c.InvisibleAnnotations)...)
	for _, a := range c.Attributes {
		data := a.Data
		attrs = append(attrs, cw.attr(a.Name, func(w *byteWriter) { w.bytes(data) }))
	}
	body.u16(uint16(len(attrs)))
	for _, a := range attrs {
		a(body)
	}
	if cw.err != nil {
		return nil, fmt.Errorf("writing class %s: %w", c.Name, cw.err)
	}

	out := &byteWriter{}
	out.u32(classMagic)
	out.u16(0)
	version := c.Version
	if version == 0 {
		version = DefaultMajorVersion
	}
	out.u16(version)
	if err := cw.cp.write(out); err != nil {
		return nil, fmt.Errorf("writing class %s: %w", c.Name, err)
	}
	out.bytes(body.Bytes())
	return out.Bytes(), nil
}

// Write serializes c to w.
func Write(w io.Writer, c *ClassNode) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// attr returns a writer for one attribute whose payload is produced by fn.
// Constant pool entries for the name are allocated eagerly so that entry
// order does not depend on when the attribute is flushed.
func (cw *classWriter) attr(name string, fn func(w *byteWriter)) func(*byteWriter) {
	nameIdx := cw.cp.Utf8(name)
	payload := &byteWriter{}
	fn(payload)
	return func(w *byteWriter) {
		w.u16(nameIdx)
		w.u32(uint32(payload.Len()))
		w.bytes(payload.Bytes())
	}
}

func (cw *classWriter) utf8Attr(name, value string) func(*byteWriter) {
	return cw.attr(name, func(w *byteWriter) { w.u16(cw.cp.Utf8(value)) })
}

func (cw *classWriter) annotationAttrs(visible, invisible []*Annotation) []func(*byteWriter) {
	var attrs []func(*byteWriter)
	if len(visible) > 0 {
		attrs = append(attrs, cw.attr(AttrRuntimeVisibleAnnotations, func(w *byteWriter) {
			w.annotations(cw.cp, visible)
		}))
	}
	if len(invisible) > 0 {
		attrs = append(attrs, cw.attr(AttrRuntimeInvisibleAnnotations, func(w *byteWriter) {
			w.annotations(cw.cp, invisible)
		}))
	}
	return attrs
}

func (cw *classWriter) paramAnnotationAttr(name string, table [][]*Annotation) func(*byteWriter) {
	return cw.attr(name, func(w *byteWriter) {
		w.u8(uint8(len(table)))
		for _, annots := range table {
			w.annotations(cw.cp, annots)
		}
	})
}

func (cw *classWriter) field(body *byteWriter, f *FieldNode) {
	body.u16(uint16(f.Access))
	body.u16(cw.cp.Utf8(f.Name))
	body.u16(cw.cp.Utf8(f.Desc))
	var attrs []func(*byteWriter)
	if f.Signature != "" {
		attrs = append(attrs, cw.utf8Attr(AttrSignature, f.Signature))
	}
	attrs = append(attrs, cw.annotationAttrs(f.VisibleAnnotations, f.InvisibleAnnotations)...)
	body.u16(uint16(len(attrs)))
	for _, a := range attrs {
		a(body)
	}
}

func (cw *classWriter) method(body *byteWriter, m *MethodNode) {
	body.u16(uint16(m.Access))
	body.u16(cw.cp.Utf8(m.Name))
	body.u16(cw.cp.Utf8(m.Desc))
	var attrs []func(*byteWriter)
	if m.Code != nil {
		attrs = append(attrs, cw.attr(AttrCode, func(w *byteWriter) {
			code, err := cw.assemble(m.Code.Insns)
			if err != nil && cw.err == nil {
				cw.err = fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
			}
			w.u16(m.Code.MaxStack)
			w.u16(m.Code.MaxLocals)
			w.u32(uint32(len(code)))
			w.bytes(code)
			w.u16(0) // exception table
			w.u16(0) // attributes
		}))
	}
	if len(m.Exceptions) > 0 {
		attrs = append(attrs, cw.attr(AttrExceptions, func(w *byteWriter) {
			w.u16(uint16(len(m.Exceptions)))
			for _, e := range m.Exceptions {
				w.u16(cw.cp.Class(e))
			}
		}))
	}
	if m.Signature != "" {
		attrs = append(attrs, cw.utf8Attr(AttrSignature, m.Signature))
	}
	attrs = append(attrs, cw.annotationAttrs(m.VisibleAnnotations, m.InvisibleAnnotations)...)
	if len(m.VisibleParamAnnotations) > 0 {
		attrs = append(attrs, cw.paramAnnotationAttr(AttrRuntimeVisibleParamAnnots, m.VisibleParamAnnotations))
	}
	if len(m.InvisibleParamAnnotations) > 0 {
		attrs = append(attrs, cw.paramAnnotationAttr(AttrRuntimeInvisibleParamAnnots, m.InvisibleParamAnnotations))
	}
	body.u16(uint16(len(attrs)))
	for _, a := range attrs {
		a(body)
	}
}

// assemble encodes a symbolic instruction list into bytecode.
func (cw *classWriter) assemble(insns []Insn) ([]byte, error) {
	w := &byteWriter{}
	for i, in := range insns {
		switch {
		case IsLoad(in.Op) || (in.Op >= OpIstore && in.Op <= OpAstore):
			switch {
			case IsLoad(in.Op) && in.Var <= 3:
				w.u8(uint8(shortLoadBase(in.Op)) + uint8(in.Var))
			case in.Var <= 0xFF:
				w.u8(uint8(in.Op))
				w.u8(uint8(in.Var))
			default:
				w.u8(uint8(OpWide))
				w.u8(uint8(in.Op))
				w.u16(in.Var)
			}
		case in.Op == OpLdc || in.Op == OpLdcW || in.Op == OpLdc2W:
			if err := cw.ldc(w, in.Const); err != nil {
				return nil, fmt.Errorf("insn %d: %w", i, err)
			}
		case in.Op == OpBipush:
			v, ok := in.Const.(int32)
			if !ok {
				return nil, fmt.Errorf("insn %d: bipush operand %T", i, in.Const)
			}
			w.u8(uint8(in.Op))
			w.u8(uint8(int8(v)))
		case in.Op == OpSipush:
			v, ok := in.Const.(int32)
			if !ok {
				return nil, fmt.Errorf("insn %d: sipush operand %T", i, in.Const)
			}
			w.u8(uint8(in.Op))
			w.u16(uint16(int16(v)))
		case in.Op >= OpGetstatic && in.Op <= OpPutfield:
			w.u8(uint8(in.Op))
			w.u16(cw.cp.Fieldref(in.Owner, in.Name, in.Desc))
		case in.Op == OpInvokeinterface:
			w.u8(uint8(in.Op))
			w.u16(cw.cp.InterfaceMethodref(in.Owner, in.Name, in.Desc))
			slots, err := ParamSlots(in.Desc)
			if err != nil {
				return nil, fmt.Errorf("insn %d: %w", i, err)
			}
			w.u8(uint8(slots + 1))
			w.u8(0)
		case in.Op >= OpInvokevirtual && in.Op <= OpInvokestatic:
			w.u8(uint8(in.Op))
			if in.Interface {
				w.u16(cw.cp.InterfaceMethodref(in.Owner, in.Name, in.Desc))
			} else {
				w.u16(cw.cp.Methodref(in.Owner, in.Name, in.Desc))
			}
		case in.Op == OpNew || in.Op == OpCheckcast:
			w.u8(uint8(in.Op))
			w.u16(cw.cp.Class(in.Owner))
		default:
			w.u8(uint8(in.Op))
		}
	}
	return w.Bytes(), nil
}

func (cw *classWriter) ldc(w *byteWriter, v any) error {
	var idx uint16
	wide := false
	switch v := v.(type) {
	case int32:
		idx = cw.cp.Integer(v)
	case float32:
		idx = cw.cp.Float(v)
	case string:
		idx = cw.cp.String(v)
	case int64:
		idx, wide = cw.cp.Long(v), true
	case float64:
		idx, wide = cw.cp.Double(v), true
	default:
		return fmt.Errorf("unsupported ldc constant %T", v)
	}
	switch {
	case wide:
		w.u8(uint8(OpLdc2W))
		w.u16(idx)
	case idx <= 0xFF:
		w.u8(uint8(OpLdc))
		w.u8(uint8(idx))
	default:
		w.u8(uint8(OpLdcW))
		w.u16(idx)
	}
	return nil
}
