package symbols

// Definitions holds the builtin symbols the back end special-cases.
type Definitions struct {
	RootPackage           *Symbol
	ScalaPackage          *Symbol
	JavaLangPackage       *Symbol
	ScalaRuntimePackage   *Symbol
	ScalaAnnotationPkg    *Symbol
	JavaAnnotationPackage *Symbol

	AnyClass     *Symbol
	AnyValClass  *Symbol
	ObjectClass  *Symbol
	NothingClass *Symbol
	NullClass    *Symbol
	StringClass  *Symbol
	ClassClass   *Symbol

	UnitClass    *Symbol
	BooleanClass *Symbol
	ByteClass    *Symbol
	ShortClass   *Symbol
	CharClass    *Symbol
	IntClass     *Symbol
	LongClass    *Symbol
	FloatClass   *Symbol
	DoubleClass  *Symbol

	// ArrayClass is the generic array class. References to it must have
	// been rewritten to ArrayType before the back end runs.
	ArrayClass  *Symbol
	ArrayModule *Symbol
	ArrayApply  *Symbol

	PredefModule  *Symbol
	ClassOfMethod *Symbol

	ThrowableClass      *Symbol
	BoxedUnitClass      *Symbol
	ClassTagClass       *Symbol
	SerializableClass   *Symbol
	ScalaAnnotation     *Symbol
	StaticAnnotation    *Symbol
	ThrowsAnnot         *Symbol
	JavaAnnotationClass *Symbol
	RetentionAnnot      *Symbol
	RetentionPolicy     *Symbol
	RetentionPolicyMod  *Symbol
	RetentionSource     *Symbol
	RetentionClass      *Symbol
	RetentionRuntime    *Symbol
	DeprecatedAnnot     *Symbol

	primitives map[*Symbol]bool
}

// Defn holds the builtin definitions. It is read-only after package
// initialization.
var Defn = newDefinitions()

func newDefinitions() *Definitions {
	d := &Definitions{}
	d.RootPackage = NewPackage(nil, "")
	d.ScalaPackage = NewPackage(d.RootPackage, "scala")
	java := NewPackage(d.RootPackage, "java")
	d.JavaLangPackage = NewPackage(java, "lang")
	d.ScalaRuntimePackage = NewPackage(d.ScalaPackage, "runtime")
	d.ScalaAnnotationPkg = NewPackage(d.ScalaPackage, "annotation")
	d.JavaAnnotationPackage = NewPackage(d.JavaLangPackage, "annotation")
	scalaReflect := NewPackage(d.ScalaPackage, "reflect")
	javaIO := NewPackage(java, "io")

	d.AnyClass = NewClass(d.ScalaPackage, "Any", Abstract)
	d.ObjectClass = NewClass(d.JavaLangPackage, "Object", JavaDefined, Ref(d.AnyClass))
	d.AnyValClass = NewClass(d.ScalaPackage, "AnyVal", Abstract, Ref(d.AnyClass))
	d.NothingClass = NewClass(d.ScalaPackage, "Nothing", Abstract|Final, Ref(d.AnyClass))
	d.NullClass = NewClass(d.ScalaPackage, "Null", Abstract|Final, Ref(d.ObjectClass))
	d.StringClass = NewClass(d.JavaLangPackage, "String", JavaDefined|Final, Ref(d.ObjectClass))
	d.ClassClass = NewClass(d.JavaLangPackage, "Class", JavaDefined|Final, Ref(d.ObjectClass))
	d.ClassClass.TypeParams = []*Symbol{NewTypeParam(d.ClassClass, "T", nil)}

	prim := func(name string) *Symbol {
		return NewClass(d.ScalaPackage, name, Abstract|Final, Ref(d.AnyValClass))
	}
	d.UnitClass = prim("Unit")
	d.BooleanClass = prim("Boolean")
	d.ByteClass = prim("Byte")
	d.ShortClass = prim("Short")
	d.CharClass = prim("Char")
	d.IntClass = prim("Int")
	d.LongClass = prim("Long")
	d.FloatClass = prim("Float")
	d.DoubleClass = prim("Double")
	d.primitives = map[*Symbol]bool{
		d.UnitClass: true, d.BooleanClass: true, d.ByteClass: true,
		d.ShortClass: true, d.CharClass: true, d.IntClass: true,
		d.LongClass: true, d.FloatClass: true, d.DoubleClass: true,
	}

	// Object's members, so that inherited root methods are visible to
	// member lookup.
	obj := Ref(d.ObjectClass)
	NewMethod(d.ObjectClass, "equals", JavaDefined, &MethodType{
		ParamNames: []string{"x$0"}, Params: []Type{obj}, Result: Ref(d.BooleanClass),
	})
	NewMethod(d.ObjectClass, "hashCode", JavaDefined, &MethodType{Result: Ref(d.IntClass)})
	NewMethod(d.ObjectClass, "toString", JavaDefined, &MethodType{Result: Ref(d.StringClass)})
	NewConstructor(d.ObjectClass, nil, nil)

	d.ArrayClass = NewClass(d.ScalaPackage, "Array", Final, obj)
	arrayT := NewTypeParam(d.ArrayClass, "T", nil)
	d.ArrayClass.TypeParams = []*Symbol{arrayT}
	NewConstructor(d.ArrayClass, []string{"_length"}, []Type{Ref(d.IntClass)})
	d.ArrayModule = NewModule(d.ScalaPackage, "Array", 0, obj)
	LinkCompanions(d.ArrayClass, d.ArrayModule)

	d.SerializableClass = NewTrait(javaIO, "Serializable", JavaDefined)
	d.ClassTagClass = NewTrait(scalaReflect, "ClassTag", 0)
	d.ClassTagClass.TypeParams = []*Symbol{NewTypeParam(d.ClassTagClass, "T", nil)}

	applyT := NewTypeParam(nil, "T", nil)
	d.ArrayApply = NewMethod(d.ArrayModule, "apply", 0, &PolyType{
		TypeParams: []*Symbol{applyT},
		Result: &MethodType{
			ParamNames: []string{"xs"},
			Params:     []Type{&ArrayType{Elem: Ref(applyT)}},
			Result: &MethodType{
				ParamNames: []string{"evidence$1"},
				Params:     []Type{Ref(d.ClassTagClass, Ref(applyT))},
				Result:     &ArrayType{Elem: Ref(applyT)},
				Implicit:   true,
			},
		},
	})
	applyT.Owner = d.ArrayApply

	d.PredefModule = NewModule(d.ScalaPackage, "Predef", 0, obj)
	classOfT := NewTypeParam(nil, "T", nil)
	d.ClassOfMethod = NewMethod(d.PredefModule, "classOf", 0, &PolyType{
		TypeParams: []*Symbol{classOfT},
		Result:     &ExprType{Result: Ref(d.ClassClass, Ref(classOfT))},
	})
	classOfT.Owner = d.ClassOfMethod

	d.ThrowableClass = NewClass(d.JavaLangPackage, "Throwable", JavaDefined, obj, Ref(d.SerializableClass))
	d.BoxedUnitClass = NewClass(d.ScalaRuntimePackage, "BoxedUnit", Final, obj)

	d.ScalaAnnotation = NewClass(d.ScalaAnnotationPkg, "Annotation", Abstract, obj)
	NewConstructor(d.ScalaAnnotation, nil, nil)
	d.StaticAnnotation = NewTrait(d.ScalaAnnotationPkg, "StaticAnnotation", 0, Ref(d.ScalaAnnotation))

	d.ThrowsAnnot = NewClass(d.ScalaPackage, "throws", 0, Ref(d.ScalaAnnotation), Ref(d.StaticAnnotation))
	throwsT := NewTypeParam(d.ThrowsAnnot, "T", &TypeBounds{Hi: Ref(d.ThrowableClass)})
	d.ThrowsAnnot.TypeParams = []*Symbol{throwsT}
	NewConstructor(d.ThrowsAnnot, []string{"cause"}, []Type{Ref(d.StringClass)})

	d.JavaAnnotationClass = NewTrait(d.JavaAnnotationPackage, "Annotation", JavaDefined)

	d.RetentionPolicy = NewClass(d.JavaAnnotationPackage, "RetentionPolicy", JavaDefined|Enum|Final, obj)
	d.RetentionPolicyMod = NewModule(d.JavaAnnotationPackage, "RetentionPolicy", JavaDefined)
	LinkCompanions(d.RetentionPolicy, d.RetentionPolicyMod)
	policy := func(name string) *Symbol {
		return NewValue(d.RetentionPolicyMod, name, JavaDefined|Enum|JavaStatic|Final, Ref(d.RetentionPolicy))
	}
	d.RetentionSource = policy("SOURCE")
	d.RetentionClass = policy("CLASS")
	d.RetentionRuntime = policy("RUNTIME")

	d.RetentionAnnot = d.newJavaAnnotationClass(d.JavaAnnotationPackage, "Retention",
		[]string{"value"}, []Type{Ref(d.RetentionPolicy)})
	d.SetRetention(d.RetentionAnnot, d.RetentionRuntime)

	d.DeprecatedAnnot = d.newJavaAnnotationClass(d.JavaLangPackage, "Deprecated", nil, nil)
	d.SetRetention(d.DeprecatedAnnot, d.RetentionRuntime)
	return d
}

// NewJavaAnnotationClass creates a Java-defined annotation interface whose
// elements are given as constructor parameters.
func NewJavaAnnotationClass(owner *Symbol, name string, elems []string, types []Type) *Symbol {
	return Defn.newJavaAnnotationClass(owner, name, elems, types)
}

func (d *Definitions) newJavaAnnotationClass(owner *Symbol, name string, elems []string, types []Type) *Symbol {
	cls := NewTrait(owner, name, JavaDefined|JavaAnnotation, Ref(d.JavaAnnotationClass))
	NewConstructor(cls, elems, types)
	return cls
}

// SetRetention attaches a java.lang.annotation.Retention meta-annotation
// with the given policy (one of the RetentionPolicy values) to cls.
func (d *Definitions) SetRetention(cls, policy *Symbol) {
	cls.Annotations = append(cls.Annotations, NewAnnotation(d.RetentionAnnot, []Tree{RefTo(policy)}))
}

// IsPrimitiveValueClass reports whether sym is one of the value classes
// represented by a primitive (including Unit).
func (d *Definitions) IsPrimitiveValueClass(sym *Symbol) bool {
	return d.primitives[sym]
}
