package diag

import (
	"fmt"

	"github.com/slowlang/exprc/compiler/pos"
)

type (
	Kind int

	// Error is a user-facing compilation failure.
	// The pipeline stops at the first one.
	Error struct {
		Kind Kind
		Loc  pos.Location
		Msg  string
	}
)

const (
	Lexical Kind = iota + 1
	Syntax
	Type
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Type:
		return "type"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func New(k Kind, l pos.Location, f string, args ...any) *Error {
	return &Error{
		Kind: k,
		Loc:  l,
		Msg:  fmt.Sprintf(f, args...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v error at %v: %s", e.Kind, e.Loc, e.Msg)
}
