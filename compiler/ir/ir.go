package ir

import (
	"strings"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/exprc/compiler/pos"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	// Var is a value handle. Names are unique within a Func.
	Var string

	Instr interface {
		Loc() pos.Location

		// Vars lists variables the instruction refers to in field order.
		Vars() []Var

		String() string

		instr()
	}

	Func struct {
		Name string

		Code []Instr

		Types map[Var]tp.Type
	}

	Label struct {
		Pos pos.Location

		Name string
	}

	LoadIntConst struct {
		Pos pos.Location

		Value int64
		Dest  Var
	}

	LoadBoolConst struct {
		Pos pos.Location

		Value bool
		Dest  Var
	}

	Copy struct {
		Pos pos.Location

		Source Var
		Dest   Var
	}

	Call struct {
		Pos pos.Location

		Func Var
		Args []Var
		Dest Var
	}

	Jump struct {
		Pos pos.Location

		Label Label
	}

	CondJump struct {
		Pos pos.Location

		Cond Var
		Then Label
		Else Label
	}
)

// Vars lists every variable referenced by code in first-seen order.
func Vars(code []Instr) []Var {
	var l []Var
	seen := make(map[Var]struct{})

	for _, in := range code {
		for _, v := range in.Vars() {
			if _, ok := seen[v]; ok {
				continue
			}

			seen[v] = struct{}{}
			l = append(l, v)
		}
	}

	return l
}

func (x Label) Loc() pos.Location         { return x.Pos }
func (x LoadIntConst) Loc() pos.Location  { return x.Pos }
func (x LoadBoolConst) Loc() pos.Location { return x.Pos }
func (x Copy) Loc() pos.Location          { return x.Pos }
func (x Call) Loc() pos.Location          { return x.Pos }
func (x Jump) Loc() pos.Location          { return x.Pos }
func (x CondJump) Loc() pos.Location      { return x.Pos }

func (x Label) Vars() []Var         { return nil }
func (x LoadIntConst) Vars() []Var  { return []Var{x.Dest} }
func (x LoadBoolConst) Vars() []Var { return []Var{x.Dest} }
func (x Copy) Vars() []Var          { return []Var{x.Source, x.Dest} }
func (x Jump) Vars() []Var          { return nil }
func (x CondJump) Vars() []Var      { return []Var{x.Cond} }

func (x Call) Vars() []Var {
	l := make([]Var, 0, len(x.Args)+2)
	l = append(l, x.Func)
	l = append(l, x.Args...)

	return append(l, x.Dest)
}

func (x Label) String() string {
	return string(hfmt.Appendf(nil, "Label(%s)", x.Name))
}

func (x LoadIntConst) String() string {
	return string(hfmt.Appendf(nil, "LoadIntConst(%d, %s)", x.Value, x.Dest))
}

func (x LoadBoolConst) String() string {
	return string(hfmt.Appendf(nil, "LoadBoolConst(%v, %s)", x.Value, x.Dest))
}

func (x Copy) String() string {
	return string(hfmt.Appendf(nil, "Copy(%s, %s)", x.Source, x.Dest))
}

func (x Call) String() string {
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = string(a)
	}

	return string(hfmt.Appendf(nil, "Call(%s, [%s], %s)", x.Func, strings.Join(args, ", "), x.Dest))
}

func (x Jump) String() string {
	return string(hfmt.Appendf(nil, "Jump(%s)", x.Label.Name))
}

func (x CondJump) String() string {
	return string(hfmt.Appendf(nil, "CondJump(%s, %s, %s)", x.Cond, x.Then.Name, x.Else.Name))
}

func (Label) instr()         {}
func (LoadIntConst) instr()  {}
func (LoadBoolConst) instr() {}
func (Copy) instr()          {}
func (Call) instr()          {}
func (Jump) instr()          {}
func (CondJump) instr()      {}
