package decl

import (
	"fmt"
	"strings"

	"github.com/shardulc/dotty/pkg/bcode"
	"github.com/shardulc/dotty/pkg/symbols"
)

// builtins are the classes referable by simple name.
var builtins = func() map[string]*symbols.Symbol {
	d := symbols.Defn
	return map[string]*symbols.Symbol{
		"Any":          d.AnyClass,
		"AnyVal":       d.AnyValClass,
		"AnyRef":       d.ObjectClass,
		"Object":       d.ObjectClass,
		"Nothing":      d.NothingClass,
		"Null":         d.NullClass,
		"String":       d.StringClass,
		"Class":        d.ClassClass,
		"Array":        d.ArrayClass,
		"Unit":         d.UnitClass,
		"Boolean":      d.BooleanClass,
		"Byte":         d.ByteClass,
		"Short":        d.ShortClass,
		"Char":         d.CharClass,
		"Int":          d.IntClass,
		"Long":         d.LongClass,
		"Float":        d.FloatClass,
		"Double":       d.DoubleClass,
		"Throwable":    d.ThrowableClass,
		"Serializable": d.SerializableClass,
		"Deprecated":   d.DeprecatedAnnot,
		"throws":       d.ThrowsAnnot,
	}
}()

// qualified are the builtin classes referable by full name.
var qualified = func() map[string]*symbols.Symbol {
	d := symbols.Defn
	out := make(map[string]*symbols.Symbol)
	for _, sym := range builtins {
		out[sym.FullName()] = sym
	}
	for _, sym := range []*symbols.Symbol{
		d.BoxedUnitClass, d.ClassTagClass, d.JavaAnnotationClass,
		d.RetentionAnnot, d.RetentionPolicy, d.ScalaAnnotation, d.StaticAnnotation,
	} {
		out[sym.FullName()] = sym
	}
	return out
}()

var retentionPolicies = map[string]*symbols.Symbol{
	"SOURCE":  symbols.Defn.RetentionSource,
	"CLASS":   symbols.Defn.RetentionClass,
	"RUNTIME": symbols.Defn.RetentionRuntime,
}

// scope resolves type parameters, type members and member classes.
type scope struct {
	outer  *scope
	cls    *symbols.Symbol
	params map[string]*symbols.Symbol
}

func (s *scope) typeParam(name string) *symbols.Symbol {
	for ; s != nil; s = s.outer {
		if tp, ok := s.params[name]; ok {
			return tp
		}
	}
	return nil
}

type members struct {
	classes map[string]*symbols.Symbol
	modules map[string]*symbols.Symbol
}

type entry struct {
	sym *symbols.Symbol
	src *Class
}

type builder struct {
	pkg       *symbols.Symbol
	top       []*symbols.Symbol
	members   map[*symbols.Symbol]*members
	entries   []entry
	scopes    map[*symbols.Symbol]*scope
	external  map[string]*symbols.Symbol
	packages  map[string]*symbols.Symbol
	overrides []override
}

type override struct {
	sym    *symbols.Symbol
	target string
	sc     *scope
}

// Build creates the symbols of the declared classes and returns them as a
// compilation unit. Classes and objects of the same name in the same scope
// become companions. Qualified names that resolve to nothing declared
// stand for classes defined elsewhere.
func (f *File) Build() (*bcode.Unit, error) {
	b := &builder{
		members:  make(map[*symbols.Symbol]*members),
		scopes:   make(map[*symbols.Symbol]*scope),
		external: make(map[string]*symbols.Symbol),
		packages: make(map[string]*symbols.Symbol),
	}
	b.pkg = symbols.Defn.RootPackage
	if f.Package != "" {
		b.pkg = b.packageOf(strings.Split(f.Package, "."))
	}

	var annots []*symbols.Symbol
	for i := range f.Annotations {
		a := &f.Annotations[i]
		sym := symbols.NewTrait(b.pkg, a.Name, symbols.JavaDefined|symbols.JavaAnnotation,
			symbols.Ref(symbols.Defn.JavaAnnotationClass))
		if err := b.enterName(b.pkg, sym); err != nil {
			return nil, err
		}
		annots = append(annots, sym)
	}
	for i := range f.Classes {
		sym, err := b.enter(b.pkg, &f.Classes[i])
		if err != nil {
			return nil, err
		}
		b.top = append(b.top, sym)
	}

	top := &scope{}
	for i, sym := range annots {
		if err := b.completeAnnotation(top, sym, &f.Annotations[i]); err != nil {
			return nil, fmt.Errorf("annotation %s: %w", sym.Name, err)
		}
	}
	for _, e := range b.entries {
		outer := top
		if sc, ok := b.scopes[e.sym.Owner]; ok {
			outer = sc
		}
		if err := b.complete(outer, e.sym, e.src); err != nil {
			return nil, fmt.Errorf("%s %s: %w", kindName(e.src), e.sym.FullName(), err)
		}
	}
	for _, o := range b.overrides {
		if err := b.resolveOverride(o); err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", o.sym.Owner.FullName(), o.sym.Name, err)
		}
	}

	return &bcode.Unit{Source: f.Source, Pickled: f.Pickled, Classes: b.top}, nil
}

func kindName(c *Class) string {
	if c.Kind == "" {
		return "class"
	}
	return c.Kind
}

// enter creates the symbol of c and of its nested classes.
func (b *builder) enter(owner *symbols.Symbol, c *Class) (*symbols.Symbol, error) {
	flags, err := parseFlags(c.Flags)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kindName(c), c.Name, err)
	}
	var sym *symbols.Symbol
	switch c.Kind {
	case "trait":
		sym = symbols.NewTrait(owner, c.Name, flags)
	case "object":
		sym = symbols.NewModule(owner, c.Name, flags)
	default:
		sym = symbols.NewClass(owner, c.Name, flags)
	}
	if err := b.enterName(owner, sym); err != nil {
		return nil, err
	}
	b.entries = append(b.entries, entry{sym: sym, src: c})
	for i := range c.Classes {
		if _, err := b.enter(sym, &c.Classes[i]); err != nil {
			return nil, err
		}
	}
	return sym, nil
}

func (b *builder) enterName(owner, sym *symbols.Symbol) error {
	m := b.members[owner]
	if m == nil {
		m = &members{classes: make(map[string]*symbols.Symbol), modules: make(map[string]*symbols.Symbol)}
		b.members[owner] = m
	}
	names, others := m.classes, m.modules
	if sym.IsModule() {
		names, others = m.modules, m.classes
	}
	if _, dup := names[sym.Name]; dup {
		return fmt.Errorf("%s is declared twice", sym.FullName())
	}
	names[sym.Name] = sym
	if other, ok := others[sym.Name]; ok {
		if sym.IsModule() {
			symbols.LinkCompanions(other, sym)
		} else {
			symbols.LinkCompanions(sym, other)
		}
	}
	return nil
}

func (b *builder) completeAnnotation(sc *scope, sym *symbols.Symbol, a *AnnotationClass) error {
	names := make([]string, len(a.Elements))
	types := make([]symbols.Type, len(a.Elements))
	for i, el := range a.Elements {
		tp, err := b.typeOf(sc, el.Type)
		if err != nil {
			return fmt.Errorf("element %s: %w", el.Name, err)
		}
		names[i], types[i] = el.Name, tp
	}
	symbols.NewConstructor(sym, names, types)
	if a.Retention != "" {
		symbols.Defn.SetRetention(sym, retentionPolicies[a.Retention])
	}
	return nil
}

// complete fills in the parents and members of a declared class.
func (b *builder) complete(outer *scope, sym *symbols.Symbol, c *Class) error {
	d := symbols.Defn
	sc := &scope{outer: outer, cls: sym, params: make(map[string]*symbols.Symbol)}
	b.scopes[sym] = sc

	tparams, err := b.typeParams(sc, sym, c.TypeParams)
	if err != nil {
		return err
	}
	sym.TypeParams = tparams

	if c.Extends != "" {
		parent, err := b.typeOf(sc, c.Extends)
		if err != nil {
			return fmt.Errorf("extends: %w", err)
		}
		if pc := symbols.ClassSymbol(parent); pc != nil && pc.IsTrait() && !sym.IsTrait() {
			sym.Parents = append(sym.Parents, symbols.Ref(d.ObjectClass))
		}
		sym.Parents = append(sym.Parents, parent)
	} else if !sym.IsTrait() {
		sym.Parents = append(sym.Parents, symbols.Ref(d.ObjectClass))
	}
	for _, w := range c.With {
		parent, err := b.typeOf(sc, w)
		if err != nil {
			return fmt.Errorf("with: %w", err)
		}
		if pc := symbols.ClassSymbol(parent); pc == nil || !pc.IsTrait() {
			return fmt.Errorf("with: %s is not a trait", w)
		}
		sym.Parents = append(sym.Parents, parent)
	}

	if sym.Annotations, err = b.annotations(sc, c.Annotations); err != nil {
		return err
	}

	switch {
	case sym.IsModule() || sym.IsTrait():
		if len(c.Params) > 0 {
			return fmt.Errorf("only classes take parameters")
		}
	default:
		names, types, params, err := b.params(sc, c.Params)
		if err != nil {
			return err
		}
		ctor := symbols.NewConstructor(sym, names, types)
		ctor.Params = params
	}

	for _, t := range c.Types {
		if err := b.typeMember(sc, sym, t); err != nil {
			return fmt.Errorf("type %s: %w", t.Name, err)
		}
	}
	for i := range c.Values {
		v := &c.Values[i]
		if err := b.value(sc, sym, v); err != nil {
			return fmt.Errorf("value %s: %w", v.Name, err)
		}
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		if err := b.method(sc, sym, m); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	return nil
}

// typeParams creates the type parameters of owner. Names are bound before
// bounds are resolved so that bounds may refer to any of them.
func (b *builder) typeParams(sc *scope, owner *symbols.Symbol, specs []string) ([]*symbols.Symbol, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	type bounds struct{ lo, hi *typeExpr }
	out := make([]*symbols.Symbol, len(specs))
	pending := make([]bounds, len(specs))
	for i, spec := range specs {
		name, lo, hi, err := parseTypeParam(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := sc.params[name]; dup {
			return nil, fmt.Errorf("type parameter %s is declared twice", name)
		}
		out[i] = symbols.NewTypeParam(owner, name, nil)
		sc.params[name] = out[i]
		pending[i] = bounds{lo, hi}
	}
	for i, bd := range pending {
		tb := out[i].Info.(*symbols.TypeBounds)
		var err error
		if bd.lo != nil {
			if tb.Lo, err = b.resolve(sc, bd.lo); err != nil {
				return nil, err
			}
		}
		if bd.hi != nil {
			if tb.Hi, err = b.resolve(sc, bd.hi); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (b *builder) params(sc *scope, ps []Param) ([]string, []symbols.Type, []*symbols.Symbol, error) {
	if len(ps) == 0 {
		return nil, nil, nil, nil
	}
	names := make([]string, len(ps))
	types := make([]symbols.Type, len(ps))
	syms := make([]*symbols.Symbol, len(ps))
	for i, p := range ps {
		tp, err := b.typeOf(sc, p.Type)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		names[i], types[i] = p.Name, tp
		syms[i] = symbols.NewValue(nil, p.Name, 0, tp)
		if syms[i].Annotations, err = b.annotations(sc, p.Annotations); err != nil {
			return nil, nil, nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}
	return names, types, syms, nil
}

func (b *builder) typeMember(sc *scope, owner *symbols.Symbol, t TypeMember) error {
	if t.Alias != "" {
		alias, err := b.typeOf(sc, t.Alias)
		if err != nil {
			return err
		}
		symbols.NewTypeAlias(owner, t.Name, alias)
		return nil
	}
	bounds := &symbols.TypeBounds{}
	if t.Upper != "" {
		hi, err := b.typeOf(sc, t.Upper)
		if err != nil {
			return err
		}
		bounds.Hi = hi
	}
	symbols.NewAbstractType(owner, t.Name, bounds)
	return nil
}

func (b *builder) value(sc *scope, owner *symbols.Symbol, v *Value) error {
	flags, err := parseFlags(v.Flags)
	if err != nil {
		return err
	}
	tp, err := b.typeOf(sc, v.Type)
	if err != nil {
		return err
	}
	sym := symbols.NewValue(owner, v.Name, flags, tp)
	sym.Annotations, err = b.annotations(sc, v.Annotations)
	return err
}

func (b *builder) method(outer *scope, owner *symbols.Symbol, m *Method) error {
	d := symbols.Defn
	flags, err := parseFlags(m.Flags)
	if err != nil {
		return err
	}
	sym := symbols.NewMethod(owner, m.Name, flags, nil)
	sc := &scope{outer: outer, params: make(map[string]*symbols.Symbol)}

	tparams, err := b.typeParams(sc, sym, m.TypeParams)
	if err != nil {
		return err
	}
	names, types, params, err := b.params(sc, m.Params)
	if err != nil {
		return err
	}
	var result symbols.Type = symbols.Ref(d.UnitClass)
	if m.Result != "" {
		if result, err = b.typeOf(sc, m.Result); err != nil {
			return fmt.Errorf("result: %w", err)
		}
	}
	mt := &symbols.MethodType{ParamNames: names, Params: types, Result: result}
	if len(tparams) > 0 {
		sym.Info = &symbols.PolyType{TypeParams: tparams, Result: mt}
	} else {
		sym.Info = mt
	}
	sym.Params = params

	for _, t := range m.Throws {
		exc, err := b.throwable(sc, t)
		if err != nil {
			return fmt.Errorf("throws: %w", err)
		}
		sym.Annotations = append(sym.Annotations, symbols.NewAnnotation(d.ThrowsAnnot, nil, exc))
	}
	annots, err := b.annotations(sc, m.Annotations)
	if err != nil {
		return err
	}
	sym.Annotations = append(sym.Annotations, annots...)

	if m.Overrides != "" {
		b.overrides = append(b.overrides, override{sym: sym, target: m.Overrides, sc: outer})
	}
	return nil
}

// throwable resolves a thrown class. A class defined elsewhere is taken
// to extend Throwable.
func (b *builder) throwable(sc *scope, src string) (symbols.Type, error) {
	e, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	if len(e.Path) > 1 && !e.Singleton && len(e.Args) == 0 {
		if _, err := b.lookupClass(sc, e.Path, symbols.Ref(symbols.Defn.ThrowableClass)); err != nil {
			return nil, err
		}
	}
	tp, err := b.resolve(sc, e)
	if err != nil {
		return nil, err
	}
	if cls := symbols.ClassSymbol(tp); cls == nil || !cls.DerivesFrom(symbols.Defn.ThrowableClass) {
		return nil, fmt.Errorf("%s is not a Throwable", src)
	}
	return tp, nil
}

func (b *builder) resolveOverride(o override) error {
	i := strings.LastIndexByte(o.target, '.')
	if i < 0 {
		return fmt.Errorf("overrides %q: want Class.method", o.target)
	}
	e, err := parseTypeExpr(o.target[:i])
	if err != nil {
		return err
	}
	cls, err := b.lookupClass(o.sc, e.Path, nil)
	if err != nil {
		return err
	}
	name := o.target[i+1:]
	for _, m := range cls.Decl(name) {
		if m.IsMethod() && m != o.sym {
			o.sym.Overridden = m
			return nil
		}
	}
	return fmt.Errorf("overrides %q: %s has no method %s", o.target, cls.FullName(), name)
}

func (b *builder) typeOf(sc *scope, src string) (symbols.Type, error) {
	e, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	return b.resolve(sc, e)
}

func (b *builder) resolve(sc *scope, e *typeExpr) (symbols.Type, error) {
	if e.Singleton {
		mod := b.lookupModule(sc, e.Path)
		if mod == nil {
			return nil, fmt.Errorf("unknown object %s", strings.Join(e.Path, "."))
		}
		return symbols.Ref(mod), nil
	}
	if len(e.Path) == 1 {
		name := e.Path[0]
		if tp := sc.typeParam(name); tp != nil {
			if len(e.Args) > 0 {
				return nil, fmt.Errorf("type parameter %s takes no arguments", name)
			}
			return symbols.Ref(tp), nil
		}
		if tm := b.typeMemberNamed(sc, name); tm != nil {
			return symbols.Ref(tm), nil
		}
	}
	cls, err := b.lookupClass(sc, e.Path, nil)
	if err != nil {
		return nil, err
	}
	args := make([]symbols.Type, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = b.resolve(sc, a); err != nil {
			return nil, err
		}
	}
	if cls == symbols.Defn.ArrayClass {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: Array takes one type argument", e)
		}
		return &symbols.ArrayType{Elem: args[0]}, nil
	}
	if len(cls.TypeParams) > 0 && len(args) > 0 && len(args) != len(cls.TypeParams) {
		return nil, fmt.Errorf("%s: %s takes %d type arguments", e, cls.Name, len(cls.TypeParams))
	}
	return symbols.Ref(cls, args...), nil
}

func (b *builder) typeMemberNamed(sc *scope, name string) *symbols.Symbol {
	for s := sc; s != nil; s = s.outer {
		if s.cls == nil {
			continue
		}
		for _, d := range s.cls.Decl(name) {
			if d.Kind == symbols.KindTypeAlias || d.Kind == symbols.KindAbstractType {
				return d
			}
		}
	}
	return nil
}

// lookupClass finds the class named by path: a member class of an
// enclosing class, a top-level class of the unit, a builtin, or else a
// class defined elsewhere. Classes defined elsewhere need a qualified
// name; they are created on first use with parent def, Object when nil.
func (b *builder) lookupClass(sc *scope, path []string, def symbols.Type) (*symbols.Symbol, error) {
	first := b.lookupFirst(sc, path[0])
	if first == nil && len(path) == 1 {
		if sym, ok := builtins[path[0]]; ok {
			return sym, nil
		}
		return nil, fmt.Errorf("unknown type %s", path[0])
	}
	if first == nil {
		full := strings.Join(path, ".")
		if sym, ok := qualified[full]; ok {
			return sym, nil
		}
		return b.externalClass(path, def), nil
	}
	cls := first
	for _, name := range path[1:] {
		next := b.memberClass(cls, name, false)
		if next == nil {
			return nil, fmt.Errorf("%s has no member class %s", cls.FullName(), name)
		}
		cls = next
	}
	return cls, nil
}

func (b *builder) lookupModule(sc *scope, path []string) *symbols.Symbol {
	if len(path) == 1 {
		for s := sc; s != nil; s = s.outer {
			if s.cls != nil {
				if m := b.memberClass(s.cls, path[0], true); m != nil {
					return m
				}
			}
		}
		return b.memberClass(b.pkg, path[0], true)
	}
	owner, err := b.lookupClass(sc, path[:len(path)-1], nil)
	if err != nil {
		return nil
	}
	return b.memberClass(owner, path[len(path)-1], true)
}

func (b *builder) lookupFirst(sc *scope, name string) *symbols.Symbol {
	for s := sc; s != nil; s = s.outer {
		if s.cls != nil {
			if c := b.memberClass(s.cls, name, false); c != nil {
				return c
			}
		}
	}
	return b.memberClass(b.pkg, name, false)
}

// memberClass returns the class named name declared in owner. A class is
// preferred over an object of the same name unless module is set.
func (b *builder) memberClass(owner *symbols.Symbol, name string, module bool) *symbols.Symbol {
	m := b.members[owner]
	if m == nil {
		return nil
	}
	if module {
		return m.modules[name]
	}
	if c, ok := m.classes[name]; ok {
		return c
	}
	return m.modules[name]
}

func (b *builder) externalClass(path []string, parent symbols.Type) *symbols.Symbol {
	full := strings.Join(path, ".")
	if sym, ok := b.external[full]; ok {
		return sym
	}
	if parent == nil {
		parent = symbols.Ref(symbols.Defn.ObjectClass)
	}
	var flags symbols.Flags
	if path[0] == "java" || path[0] == "javax" {
		flags |= symbols.JavaDefined
	}
	sym := symbols.NewClass(b.packageOf(path[:len(path)-1]), path[len(path)-1], flags, parent)
	b.external[full] = sym
	return sym
}

func (b *builder) packageOf(path []string) *symbols.Symbol {
	owner := symbols.Defn.RootPackage
	for i := range path {
		key := strings.Join(path[:i+1], ".")
		pkg, ok := b.packages[key]
		if !ok {
			pkg = symbols.NewPackage(owner, path[i])
			b.packages[key] = pkg
		}
		owner = pkg
	}
	return owner
}

func parseFlags(labels []string) (symbols.Flags, error) {
	var flags symbols.Flags
	for _, l := range labels {
		f, ok := symbols.ParseFlag(l)
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", l)
		}
		flags |= f
	}
	return flags, nil
}
