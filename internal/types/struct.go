package types

import (
	"strings"

	"qllc/internal/diag"
	"qllc/internal/source"
)

type Member struct {
	Name string
	Type Type
	Loc  *source.Location
}

// Struct lays its members out in declaration order.
type Struct struct {
	Members []Member
	Loc     *source.Location
}

func (st *Struct) Location() *source.Location { return st.Loc }
func (st *Struct) Resolve() Type              { return st }

func (st *Struct) String() string {
	return st.render(Type.String)
}

func (st *Struct) mangle() string {
	return st.render(Type.mangle)
}

func (st *Struct) render(f func(Type) string) string {
	var sb strings.Builder
	sb.WriteString("struct {")
	for _, m := range st.Members {
		sb.WriteString(" ")
		sb.WriteString(m.Name)
		sb.WriteString(": ")
		sb.WriteString(f(m.Type))
		sb.WriteString(";")
	}
	sb.WriteString(" }")
	return sb.String()
}

func (st *Struct) Size() int {
	size := 0
	for _, m := range st.Members {
		size += m.Type.Size()
	}
	return size
}

// Member looks a member up by name and returns its word offset.
func (st *Struct) Member(name string) (Member, int, bool) {
	offset := 0
	for _, m := range st.Members {
		if m.Name == name {
			return m, offset, true
		}
		offset += m.Type.Size()
	}
	return Member{}, 0, false
}

// Offset returns the word offset of the named member.
func (st *Struct) Offset(name string) (int, bool) {
	_, off, ok := st.Member(name)
	return off, ok
}

func (st *Struct) Substitute(s Substitution) Type {
	members := make([]Member, len(st.Members))
	for i, m := range st.Members {
		members[i] = Member{Name: m.Name, Type: m.Type.Substitute(s), Loc: m.Loc}
	}
	return &Struct{Members: members, Loc: st.Loc}
}

func (st *Struct) BindNames(env Env) {
	for _, m := range st.Members {
		m.Type.BindNames(env)
	}
}

func (st *Struct) Kindcheck(env Env, kc KindChecker) {
	seen := make(map[string]bool, len(st.Members))
	inner := kc.Struct()
	for _, m := range st.Members {
		if seen[m.Name] {
			env.Errorf(m.Loc, diag.KindDuplicateMember, "duplicate member %s in %s", m.Name, st)
		}
		seen[m.Name] = true
		m.Type.Kindcheck(env, inner)
		if IsVoid(m.Type) {
			env.Errorf(m.Loc, diag.KindVoidValue, "member %s cannot have type void", m.Name)
		}
	}
}

// Member names, order and types must all match.
func (st *Struct) unifiable(other Type, u *unifier) bool {
	o, ok := other.(*Struct)
	if !ok || len(st.Members) != len(o.Members) {
		return false
	}
	for i := range st.Members {
		if st.Members[i].Name != o.Members[i].Name {
			return false
		}
		if !u.unify(st.Members[i].Type, o.Members[i].Type) {
			return false
		}
	}
	return true
}
