package symbols

// Erase computes the erasure of a type: the simplified runtime
// representation with type arguments, singletons, refinements and
// annotations removed. Method types erase parameter-wise; Unit in
// parameter position erases to the boxed unit class.
func Erase(t Type) Type {
	switch t := Dealias(t).(type) {
	case nil:
		return nil
	case *TypeRef:
		sym := t.Sym
		if sym.IsClass() {
			switch sym {
			case Defn.AnyClass, Defn.AnyValClass:
				return Ref(Defn.ObjectClass)
			case Defn.ArrayClass:
				if len(t.Args) == 1 {
					return Erase(&ArrayType{Elem: t.Args[0]})
				}
			}
			return Ref(sym)
		}
		if b, ok := sym.Info.(*TypeBounds); ok && b.Hi != nil {
			return Erase(b.Hi)
		}
		return Ref(Defn.ObjectClass)
	case *ArrayType:
		elem := Dealias(t.Elem)
		if ref, ok := elem.(*TypeRef); ok && !ref.Sym.IsClass() {
			if b, ok := ref.Sym.Info.(*TypeBounds); !ok || b.Hi == nil {
				// Array[T] for unbounded T is a generic array.
				return Ref(Defn.ObjectClass)
			}
		}
		return &ArrayType{Elem: eraseValue(elem)}
	case *AnnotatedType:
		return Erase(t.Parent)
	case *TermRef:
		return Erase(Widen(t))
	case *ConstantType:
		return Erase(t.Value.Type())
	case *ThisType:
		return Ref(t.Cls)
	case *RefinedType:
		return Erase(t.Parent)
	case *ClassInfo:
		return Ref(t.Cls)
	case *MethodType:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = eraseValue(p)
		}
		res := Erase(t.Result)
		// Curried parameter lists flatten into one.
		if m, ok := res.(*MethodType); ok {
			params = append(params, m.Params...)
			res = m.Result
		}
		return &MethodType{ParamNames: t.ParamNames, Params: params, Result: res}
	case *PolyType:
		return Erase(t.Result)
	case *ExprType:
		return &MethodType{Result: Erase(t.Result)}
	case *TypeBounds:
		if t.Hi == nil {
			return Ref(Defn.ObjectClass)
		}
		return Erase(t.Hi)
	}
	return t
}

func eraseValue(t Type) Type {
	e := Erase(t)
	if ref, ok := e.(*TypeRef); ok && ref.Sym == Defn.UnitClass {
		return Ref(Defn.BoxedUnitClass)
	}
	return e
}

// ErasedTypeSymbol returns the class symbol a fully erased type denotes,
// or nil for method types.
func ErasedTypeSymbol(t Type) *Symbol {
	if ref, ok := Erase(t).(*TypeRef); ok {
		return ref.Sym
	}
	return nil
}
