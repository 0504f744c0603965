package symbols

import "strings"

// AllMembers returns the members of class s including inherited ones.
// A member declared in a subclass hides base-class members with the same
// name and erased signature. Order follows the linearization: s's own
// declarations first, then each base class in BaseClasses order.
func (s *Symbol) AllMembers() []*Symbol {
	var out []*Symbol
	seen := make(map[string]bool)
	for _, base := range s.BaseClasses() {
		for _, d := range base.decls {
			if d.IsClass() {
				continue
			}
			key := MatchKey(d)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}
	return out
}

// MatchKey identifies a member for overriding purposes: its name plus, for
// terms, its erased signature.
func MatchKey(sym *Symbol) string {
	if sym.IsType() {
		return "type " + sym.Name
	}
	return sym.Name + Signature(sym)
}

// Signature renders the erased signature of a term symbol, e.g.
// "(scala.Int)scala.Int". Values render as their erased type.
func Signature(sym *Symbol) string {
	var b strings.Builder
	writeErased(&b, Erase(sym.Info))
	return b.String()
}

func writeErased(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		b.WriteString("?")
	case *TypeRef:
		b.WriteString(t.Sym.FullName())
	case *ArrayType:
		b.WriteString("[")
		writeErased(b, t.Elem)
	case *MethodType:
		b.WriteByte('(')
		for i, p := range t.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			writeErased(b, p)
		}
		b.WriteByte(')')
		writeErased(b, t.Result)
	default:
		b.WriteString(t.String())
	}
}

// BaseTypeArgs returns the type arguments with which class site
// instantiates base class base, or nil if base is not generic or not a base
// class of site.
func BaseTypeArgs(site, base *Symbol) []Type {
	if site == base {
		args := make([]Type, len(site.TypeParams))
		for i, p := range site.TypeParams {
			args[i] = Ref(p)
		}
		return args
	}
	for _, p := range site.Parents {
		ref, ok := Dealias(p).(*TypeRef)
		if !ok || !ref.Sym.IsClass() {
			continue
		}
		if ref.Sym == base {
			return ref.Args
		}
		if args := BaseTypeArgs(ref.Sym, base); args != nil {
			return substAll(args, ref.Sym.TypeParams, ref.Args)
		}
	}
	return nil
}

// MemberInfo returns the info of member sym as seen from class site: type
// parameters of sym's owner are replaced by the arguments site passes to
// that owner.
func MemberInfo(site, sym *Symbol) Type {
	owner := sym.Owner
	if owner == nil || owner == site || len(owner.TypeParams) == 0 {
		return sym.Info
	}
	args := BaseTypeArgs(site, owner)
	if args == nil {
		return sym.Info
	}
	return Subst(sym.Info, owner.TypeParams, args)
}
