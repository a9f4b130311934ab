package types

import (
	"qllc/internal/diag"
	"qllc/internal/source"
)

// Dot projects the type of a struct member: T.member.
type Dot struct {
	Type   Type
	Member string
	Loc    *source.Location
}

func (d *Dot) Location() *source.Location { return d.Loc }
func (d *Dot) String() string             { return d.Type.String() + "." + d.Member }
func (d *Dot) mangle() string             { return d.Type.mangle() + "." + d.Member }
func (d *Dot) Resolve() Type              { return d.member().Resolve() }
func (d *Dot) Size() int                  { return d.member().Size() }
func (d *Dot) BindNames(env Env)          { d.Type.BindNames(env) }

func (d *Dot) member() Type {
	st, ok := d.Type.Resolve().(*Struct)
	if !ok {
		return Error
	}
	m, _, ok := st.Member(d.Member)
	if !ok {
		return Error
	}
	return m.Type
}

func (d *Dot) Substitute(s Substitution) Type {
	return &Dot{Type: d.Type.Substitute(s), Member: d.Member, Loc: d.Loc}
}

func (d *Dot) Kindcheck(env Env, kc KindChecker) {
	d.Type.Kindcheck(env, kc)
	if IsError(d.Type.Resolve()) {
		return
	}
	st, ok := d.Type.Resolve().(*Struct)
	if !ok {
		env.Errorf(d.Loc, diag.KindUnknownMember, "type %s has no members", d.Type)
		return
	}
	if _, _, ok := st.Member(d.Member); !ok {
		env.Errorf(d.Loc, diag.KindUnknownMember, "type %s has no member %s", d.Type, d.Member)
	}
}

func (d *Dot) unifiable(other Type, u *unifier) bool {
	return u.unify(d.member(), other)
}
