package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Annotation is an annotation record: the annotation interface descriptor
// and its element-value pairs in declaration order.
type Annotation struct {
	Desc     string
	Elements []ElementPair
}

// ElementPair is one name = value entry of an annotation.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// ElementValue is the closed set of annotation element values.
type ElementValue interface {
	// Tag returns the element_value tag byte.
	Tag() byte

	elementValue()
}

// ConstValue is a primitive or string constant. Tag is one of B C D F I J
// S Z s. Value holds int32 for B C I S Z, int64 for J, float32 for F,
// float64 for D and string for s.
type ConstValue struct {
	Kind  byte
	Value any
}

// EnumValue names an enum constant.
type EnumValue struct {
	TypeDesc string
	Name     string
}

// ClassValue is a class literal given by its return descriptor.
type ClassValue struct {
	Desc string
}

// ArrayValue is an array of element values.
type ArrayValue struct {
	Values []ElementValue
}

// AnnotationValue is a nested annotation.
type AnnotationValue struct {
	Annotation *Annotation
}

func (v *ConstValue) Tag() byte      { return v.Kind }
func (v *EnumValue) Tag() byte       { return 'e' }
func (v *ClassValue) Tag() byte      { return 'c' }
func (v *ArrayValue) Tag() byte      { return '[' }
func (v *AnnotationValue) Tag() byte { return '@' }

func (*ConstValue) elementValue()      {}
func (*EnumValue) elementValue()       {}
func (*ClassValue) elementValue()      {}
func (*ArrayValue) elementValue()      {}
func (*AnnotationValue) elementValue() {}

// Put appends a name = value pair.
func (a *Annotation) Put(name string, v ElementValue) {
	a.Elements = append(a.Elements, ElementPair{Name: name, Value: v})
}

// Get returns the value of element name.
func (a *Annotation) Get(name string) (ElementValue, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

func (a *Annotation) String() string {
	s := "@" + a.Desc + "("
	for i, e := range a.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.Name + "=" + ElementString(e.Value)
	}
	return s + ")"
}

// ElementString renders an element value for diagnostics and inspection.
func ElementString(v ElementValue) string {
	switch v := v.(type) {
	case *ConstValue:
		if v.Kind == 's' {
			return fmt.Sprintf("%q", v.Value)
		}
		return fmt.Sprintf("%v", v.Value)
	case *EnumValue:
		return v.TypeDesc + "." + v.Name
	case *ClassValue:
		return v.Desc + ".class"
	case *ArrayValue:
		s := "{"
		for i, e := range v.Values {
			if i > 0 {
				s += ", "
			}
			s += ElementString(e)
		}
		return s + "}"
	case *AnnotationValue:
		return v.Annotation.String()
	}
	return "?"
}

// EqualAnnotations reports whether two annotations are structurally equal.
func EqualAnnotations(a, b *Annotation) bool {
	if a.Desc != b.Desc || len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Elements {
		if a.Elements[i].Name != b.Elements[i].Name || !EqualElements(a.Elements[i].Value, b.Elements[i].Value) {
			return false
		}
	}
	return true
}

// EqualElements reports whether two element values are structurally equal.
func EqualElements(a, b ElementValue) bool {
	switch a := a.(type) {
	case *ConstValue:
		b, ok := b.(*ConstValue)
		return ok && a.Kind == b.Kind && a.Value == b.Value
	case *EnumValue:
		b, ok := b.(*EnumValue)
		return ok && *a == *b
	case *ClassValue:
		b, ok := b.(*ClassValue)
		return ok && *a == *b
	case *ArrayValue:
		b, ok := b.(*ArrayValue)
		if !ok || len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if !EqualElements(a.Values[i], b.Values[i]) {
				return false
			}
		}
		return true
	case *AnnotationValue:
		b, ok := b.(*AnnotationValue)
		return ok && EqualAnnotations(a.Annotation, b.Annotation)
	}
	return false
}

// annotation encoding (JVMS 4.7.16)

func (w *byteWriter) annotations(cp *ConstantPoolBuilder, annots []*Annotation) {
	w.u16(uint16(len(annots)))
	for _, a := range annots {
		w.annotation(cp, a)
	}
}

func (w *byteWriter) annotation(cp *ConstantPoolBuilder, a *Annotation) {
	w.u16(cp.Utf8(a.Desc))
	w.u16(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		w.u16(cp.Utf8(e.Name))
		w.elementValue(cp, e.Value)
	}
}

func (w *byteWriter) elementValue(cp *ConstantPoolBuilder, v ElementValue) {
	w.u8(v.Tag())
	switch v := v.(type) {
	case *ConstValue:
		switch v.Kind {
		case 'B', 'C', 'I', 'S', 'Z':
			w.u16(cp.Integer(v.Value.(int32)))
		case 'J':
			w.u16(cp.Long(v.Value.(int64)))
		case 'F':
			w.u16(cp.Float(v.Value.(float32)))
		case 'D':
			w.u16(cp.Double(v.Value.(float64)))
		case 's':
			w.u16(cp.Utf8(v.Value.(string)))
		}
	case *EnumValue:
		w.u16(cp.Utf8(v.TypeDesc))
		w.u16(cp.Utf8(v.Name))
	case *ClassValue:
		w.u16(cp.Utf8(v.Desc))
	case *ArrayValue:
		w.u16(uint16(len(v.Values)))
		for _, e := range v.Values {
			w.elementValue(cp, e)
		}
	case *AnnotationValue:
		w.annotation(cp, v.Annotation)
	}
}

// annotationReader decodes annotation attribute payloads against a parsed
// constant pool.
type annotationReader struct {
	data []byte
	off  int
	pool []ConstantPoolEntry
}

func (r *annotationReader) u8() (byte, error) {
	if r.off+1 > len(r.data) {
		return 0, fmt.Errorf("annotation data truncated at offset %d", r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *annotationReader) u16() (uint16, error) {
	if r.off+2 > len(r.data) {
		return 0, fmt.Errorf("annotation data truncated at offset %d", r.off)
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *annotationReader) utf8() (string, error) {
	idx, err := r.u16()
	if err != nil {
		return "", err
	}
	return GetUtf8(r.pool, idx)
}

func parseAnnotations(data []byte, pool []ConstantPoolEntry) ([]*Annotation, error) {
	r := &annotationReader{data: data, pool: pool}
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	out := make([]*Annotation, n)
	for i := range out {
		if out[i], err = r.annotation(); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return out, nil
}

func parseParameterAnnotations(data []byte, pool []ConstantPoolEntry) ([][]*Annotation, error) {
	r := &annotationReader{data: data, pool: pool}
	n, err := r.u8()
	if err != nil {
		return nil, err
	}
	out := make([][]*Annotation, n)
	for p := range out {
		count, err := r.u16()
		if err != nil {
			return nil, err
		}
		annots := make([]*Annotation, count)
		for i := range annots {
			if annots[i], err = r.annotation(); err != nil {
				return nil, fmt.Errorf("parameter %d annotation %d: %w", p, i, err)
			}
		}
		out[p] = annots
	}
	return out, nil
}

func (r *annotationReader) annotation() (*Annotation, error) {
	desc, err := r.utf8()
	if err != nil {
		return nil, fmt.Errorf("reading type: %w", err)
	}
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	a := &Annotation{Desc: desc}
	for i := uint16(0); i < n; i++ {
		name, err := r.utf8()
		if err != nil {
			return nil, fmt.Errorf("reading element %d name: %w", i, err)
		}
		v, err := r.elementValue()
		if err != nil {
			return nil, fmt.Errorf("reading element %s: %w", name, err)
		}
		a.Put(name, v)
	}
	return a, nil
}

func (r *annotationReader) elementValue() (ElementValue, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 'B', 'C', 'I', 'S', 'Z', 'J', 'F', 'D':
		idx, err := r.u16()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(r.pool) || r.pool[idx] == nil {
			return nil, fmt.Errorf("invalid constant pool index %d", idx)
		}
		switch c := r.pool[idx].(type) {
		case *ConstantInteger:
			return &ConstValue{Kind: tag, Value: c.Value}, nil
		case *ConstantLong:
			return &ConstValue{Kind: tag, Value: c.Value}, nil
		case *ConstantFloat:
			return &ConstValue{Kind: tag, Value: c.Value}, nil
		case *ConstantDouble:
			return &ConstValue{Kind: tag, Value: c.Value}, nil
		}
		return nil, fmt.Errorf("constant pool index %d has tag %d, not a %c constant", idx, r.pool[idx].Tag(), tag)
	case 's':
		s, err := r.utf8()
		if err != nil {
			return nil, err
		}
		return &ConstValue{Kind: 's', Value: s}, nil
	case 'e':
		typ, err := r.utf8()
		if err != nil {
			return nil, err
		}
		name, err := r.utf8()
		if err != nil {
			return nil, err
		}
		return &EnumValue{TypeDesc: typ, Name: name}, nil
	case 'c':
		desc, err := r.utf8()
		if err != nil {
			return nil, err
		}
		return &ClassValue{Desc: desc}, nil
	case '[':
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		arr := &ArrayValue{Values: make([]ElementValue, n)}
		for i := range arr.Values {
			if arr.Values[i], err = r.elementValue(); err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
		}
		return arr, nil
	case '@':
		a, err := r.annotation()
		if err != nil {
			return nil, err
		}
		return &AnnotationValue{Annotation: a}, nil
	}
	return nil, fmt.Errorf("unknown element_value tag %q", tag)
}

// float helpers shared with the constant pool builder
func floatKey(v float32) uint32  { return math.Float32bits(v) }
func doubleKey(v float64) uint64 { return math.Float64bits(v) }
