package format

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/ir"
)

// Expr appends source-like text of x to b.
func Expr(b []byte, x ast.Expr) []byte {
	return expr(b, x, 0)
}

// Code appends IR instructions to b, one per line.
// Labels are flush left, other instructions indented.
func Code(b []byte, code []ir.Instr) []byte {
	for _, in := range code {
		d := 1
		if _, ok := in.(ir.Label); ok {
			d = 0
		}

		b = app(b, d, "%v\n", in)
	}

	return b
}

func expr(b []byte, x ast.Expr, d int) []byte {
	switch x := x.(type) {
	case nil:
		b = append(b, "<unit>"...)
	case *ast.Literal:
		if x.Value == nil {
			b = append(b, "()"...)
		} else {
			b = hfmt.Appendf(b, "%v", x.Value)
		}
	case *ast.Identifier:
		b = append(b, x.Name...)
	case *ast.Assignment:
		b = append(b, x.Target.Name...)
		b = append(b, " = "...)
		b = expr(b, x.Value, d)
	case *ast.UnaryOp:
		b = append(b, x.Op...)
		if x.Op == "not" {
			b = append(b, ' ')
		}

		b = expr(b, x.Operand, d)
	case *ast.BinaryOp:
		b = append(b, '(')
		b = expr(b, x.Left, d)
		b = hfmt.Appendf(b, " %s ", x.Op)
		b = expr(b, x.Right, d)
		b = append(b, ')')
	case *ast.Branch:
		b = append(b, "if "...)
		b = expr(b, x.Cond, d)
		b = append(b, " then "...)
		b = expr(b, x.Then, d)

		if x.Otherwise != nil {
			b = append(b, " else "...)
			b = expr(b, x.Otherwise, d)
		}
	case *ast.Loop:
		b = append(b, "while "...)
		b = expr(b, x.Cond, d)
		b = append(b, " do "...)
		b = expr(b, x.Body, d)
	case *ast.Block:
		b = append(b, "{\n"...)

		for i, s := range x.Exprs {
			b = app(b, d+1, "")
			b = expr(b, s, d+1)

			if i+1 < len(x.Exprs) {
				b = append(b, ';')
			}

			b = append(b, '\n')
		}

		b = app(b, d, "}")
	case *ast.VarDecl:
		b = hfmt.Appendf(b, "var %s = ", x.Name.Name)
		b = expr(b, x.Value, d)
	case *ast.Call:
		b = append(b, x.Func.Name...)
		b = append(b, '(')

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = expr(b, a, d)
		}

		b = append(b, ')')
	default:
		panic(x)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"

	for d > len(tabs) {
		b = append(b, tabs...)
		d -= len(tabs)
	}

	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)

	return b
}
