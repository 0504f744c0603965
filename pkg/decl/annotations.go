package decl

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/shardulc/dotty/pkg/symbols"
)

func (b *builder) annotations(sc *scope, as []Annotation) ([]*symbols.Annotation, error) {
	if len(as) == 0 {
		return nil, nil
	}
	out := make([]*symbols.Annotation, 0, len(as))
	for _, a := range as {
		e, err := parseTypeExpr(a.Class)
		if err != nil {
			return nil, err
		}
		cls, err := b.lookupClass(sc, e.Path, nil)
		if err != nil {
			return nil, err
		}
		targs := make([]symbols.Type, len(e.Args))
		for i, ea := range e.Args {
			if targs[i], err = b.resolve(sc, ea); err != nil {
				return nil, err
			}
		}
		args, err := b.annotationArgs(sc, cls, a.Args)
		if err != nil {
			return nil, fmt.Errorf("@%s: %w", cls.Name, err)
		}
		out = append(out, symbols.NewAnnotation(cls, args, targs...))
	}
	return out, nil
}

// annotationArgs lines raw up with the parameters of cls's constructor.
// Elements without a value are passed as wildcards and take their
// defaults.
func (b *builder) annotationArgs(sc *scope, cls *symbols.Symbol, raw map[string]any) ([]symbols.Tree, error) {
	var mt *symbols.MethodType
	if ctor := cls.PrimaryConstructor(); ctor != nil {
		mt, _ = ctor.Info.(*symbols.MethodType)
	}
	known := make(map[string]bool)
	if mt != nil {
		for _, n := range mt.ParamNames {
			known[n] = true
		}
	}
	var unknown []string
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s has no element %q", cls.FullName(), unknown[0])
	}
	if mt == nil || len(raw) == 0 {
		return nil, nil
	}

	args := make([]symbols.Tree, len(mt.ParamNames))
	for i, name := range mt.ParamNames {
		v, ok := raw[name]
		if !ok {
			args[i] = &symbols.Ident{Name: "_"}
			continue
		}
		arg, err := b.argument(sc, mt.Params[i], v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		args[i] = &symbols.NamedArg{Name: name, Arg: arg}
	}
	return args, nil
}

// argument converts a TOML value to an argument tree of type t.
func (b *builder) argument(sc *scope, t symbols.Type, v any) (symbols.Tree, error) {
	d := symbols.Defn
	if at, ok := t.(*symbols.ArrayType); ok {
		list, ok := v.([]any)
		if !ok {
			// A single value stands for a one-element array.
			list = []any{v}
		}
		elems := make([]symbols.Tree, len(list))
		for i, el := range list {
			arg, err := b.argument(sc, at.Elem, el)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = arg
		}
		return &symbols.SeqLiteral{Elems: elems, ElemType: at.Elem}, nil
	}

	cls := symbols.ClassSymbol(t)
	switch {
	case cls == nil:
		return nil, fmt.Errorf("unsupported element type")
	case cls == d.ClassClass:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want a type name, got %v", v)
		}
		tp, err := b.typeOf(sc, s)
		if err != nil {
			return nil, err
		}
		return symbols.Lit(symbols.ClazzConst(tp)), nil
	case cls.Is(symbols.JavaAnnotation):
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("want a table of %s elements, got %v", cls.Name, v)
		}
		args, err := b.annotationArgs(sc, cls, m)
		if err != nil {
			return nil, err
		}
		return symbols.NewAnnotation(cls, args).Tree, nil
	case cls.Is(symbols.Enum):
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want a %s constant name, got %v", cls.Name, v)
		}
		if mod := cls.CompanionModule(); mod != nil {
			for _, c := range mod.Decl(s) {
				if c.Is(symbols.Enum) {
					return symbols.RefTo(c), nil
				}
			}
		}
		return nil, fmt.Errorf("%s has no constant %s", cls.FullName(), s)
	}

	c, err := constant(cls, v)
	if err != nil {
		return nil, err
	}
	return symbols.Lit(c), nil
}

func constant(cls *symbols.Symbol, v any) (symbols.Constant, error) {
	d := symbols.Defn
	switch v := v.(type) {
	case bool:
		if cls == d.BooleanClass {
			return symbols.BoolConst(v), nil
		}
	case int64:
		switch cls {
		case d.IntClass:
			if v >= math.MinInt32 && v <= math.MaxInt32 {
				return symbols.IntConst(int32(v)), nil
			}
			return symbols.Constant{}, fmt.Errorf("%d overflows Int", v)
		case d.LongClass:
			return symbols.LongConst(v), nil
		case d.ShortClass:
			if v >= math.MinInt16 && v <= math.MaxInt16 {
				return symbols.ShortConst(int16(v)), nil
			}
			return symbols.Constant{}, fmt.Errorf("%d overflows Short", v)
		case d.ByteClass:
			if v >= math.MinInt8 && v <= math.MaxInt8 {
				return symbols.ByteConst(int8(v)), nil
			}
			return symbols.Constant{}, fmt.Errorf("%d overflows Byte", v)
		case d.FloatClass:
			return symbols.FloatConst(float32(v)), nil
		case d.DoubleClass:
			return symbols.DoubleConst(float64(v)), nil
		}
	case float64:
		switch cls {
		case d.FloatClass:
			return symbols.FloatConst(float32(v)), nil
		case d.DoubleClass:
			return symbols.DoubleConst(v), nil
		}
	case string:
		switch cls {
		case d.StringClass:
			return symbols.StringConst(v), nil
		case d.CharClass:
			if r, size := utf8.DecodeRuneInString(v); size == len(v) && r <= 0xFFFF && r != utf8.RuneError {
				return symbols.CharConst(uint16(r)), nil
			}
			return symbols.Constant{}, fmt.Errorf("%q is not a single Char", v)
		}
	}
	return symbols.Constant{}, fmt.Errorf("%s cannot hold %v", cls.Name, v)
}
