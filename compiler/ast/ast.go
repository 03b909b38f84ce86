package ast

import (
	"fmt"

	"github.com/slowlang/exprc/compiler/pos"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	Expr interface {
		Loc() pos.Location

		Type() tp.Type
		SetType(tp.Type)

		expr()
	}

	Base struct {
		Pos pos.Location `tlog:"pos"`

		typ tp.Type
	}

	// Literal value is int64, bool or nil for unit.
	Literal struct {
		Base `tlog:",embed"`

		Value any
	}

	Identifier struct {
		Base `tlog:",embed"`

		Name string
	}

	Assignment struct {
		Base `tlog:",embed"`

		Target *Identifier
		Value  Expr
	}

	UnaryOp struct {
		Base `tlog:",embed"`

		Op      string
		Operand Expr
	}

	BinaryOp struct {
		Base `tlog:",embed"`

		Op    string
		Left  Expr
		Right Expr
	}

	Branch struct {
		Base `tlog:",embed"`

		Cond      Expr
		Then      Expr
		Otherwise Expr // nil if absent
	}

	Loop struct {
		Base `tlog:",embed"`

		Cond Expr
		Body Expr
	}

	// Block entries may be nil, which is an implicit unit statement.
	Block struct {
		Base `tlog:",embed"`

		Exprs []Expr
	}

	VarDecl struct {
		Base `tlog:",embed"`

		Name  *Identifier
		Value Expr
	}

	Call struct {
		Base `tlog:",embed"`

		Func *Identifier
		Args []Expr
	}
)

func At(l pos.Location) Base { return Base{Pos: l} }

func (b *Base) Loc() pos.Location { return b.Pos }

func (b *Base) Type() tp.Type { return b.typ }

// SetType records the checked type. It may be called once per node.
func (b *Base) SetType(t tp.Type) {
	if b.typ != nil {
		panic(fmt.Sprintf("type of node at %v is already set to %v", b.Pos, b.typ))
	}

	b.typ = t
}

func (*Literal) expr()    {}
func (*Identifier) expr() {}
func (*Assignment) expr() {}
func (*UnaryOp) expr()    {}
func (*BinaryOp) expr()   {}
func (*Branch) expr()     {}
func (*Loop) expr()       {}
func (*Block) expr()      {}
func (*VarDecl) expr()    {}
func (*Call) expr()       {}

func Int(l pos.Location, v int64) *Literal {
	return &Literal{Base: At(l), Value: v}
}

func Bool(l pos.Location, v bool) *Literal {
	return &Literal{Base: At(l), Value: v}
}

func Unit(l pos.Location) *Literal {
	return &Literal{Base: At(l)}
}

func Ident(l pos.Location, name string) *Identifier {
	return &Identifier{Base: At(l), Name: name}
}
