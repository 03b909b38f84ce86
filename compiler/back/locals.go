package back

import (
	"strconv"

	"github.com/slowlang/exprc/compiler/ir"
)

// Locals assigns every variable an 8 byte stack slot below the frame pointer.
type Locals struct {
	refs map[ir.Var]string
	vars []ir.Var
}

const slotSize = 8

func NewLocals(vars []ir.Var) *Locals {
	l := &Locals{
		refs: make(map[ir.Var]string, len(vars)),
	}

	for _, v := range vars {
		if _, ok := l.refs[v]; ok {
			continue
		}

		l.vars = append(l.vars, v)
		l.refs[v] = "-" + strconv.Itoa(len(l.vars)*slotSize) + "(%rbp)"
	}

	return l
}

// Ref returns the memory operand of v.
func (l *Locals) Ref(v ir.Var) string {
	r, ok := l.refs[v]
	if !ok {
		panic("no stack slot for " + string(v))
	}

	return r
}

// StackUsed is the number of bytes the slots take.
func (l *Locals) StackUsed() int {
	return len(l.vars) * slotSize
}

// FrameSize is StackUsed rounded up to keep the stack 16 byte aligned at calls.
func (l *Locals) FrameSize() int {
	return (l.StackUsed() + 15) &^ 15
}

func (l *Locals) Vars() []ir.Var { return l.vars }
