package lex

import (
	"fmt"

	"github.com/slowlang/exprc/compiler/pos"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Text string
		Loc  pos.Location
	}
)

const (
	Identifier Kind = iota + 1
	IntLiteral
	BoolLiteral
	Operator
	Punctuation
	End
)

var kindNames = [...]string{
	Identifier:  "identifier",
	IntLiteral:  "int",
	BoolLiteral: "bool",
	Operator:    "operator",
	Punctuation: "punctuation",
	End:         "end",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Equal compares tokens by kind, text and location equality.
func (t Token) Equal(x Token) bool {
	return t.Kind == x.Kind && t.Text == x.Text && t.Loc.Equal(x.Loc)
}

func (t Token) String() string {
	if t.Kind == End {
		return "end of input"
	}

	return fmt.Sprintf("%v %q", t.Kind, t.Text)
}
