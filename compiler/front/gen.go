package front

import (
	"context"
	"fmt"
	"strconv"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/pos"
	"github.com/slowlang/exprc/compiler/runtime"
	"github.com/slowlang/exprc/compiler/scope"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	Scope = scope.Scope[ir.Var]

	gen struct {
		tr tlog.Span

		types  map[ir.Var]tp.Type
		labels int

		// assigned is set if the last visited value came from an assignment.
		assigned bool

		code []ir.Instr
	}
)

// Unit holds every statically Unit value.
const Unit ir.Var = "unit"

// RootTypes returns the types of builtin operators and functions by their variables.
func RootTypes() map[ir.Var]tp.Type {
	m := make(map[ir.Var]tp.Type)

	for _, s := range builtin.All() {
		m[ir.Var(s.Name)] = s.Type
	}

	return m
}

// Generate lowers a type checked tree into the body of main.
// root maps global names to their types. The same names are visible to x.
//
// It panics on trees the checker would reject.
func Generate(ctx context.Context, root map[ir.Var]tp.Type, x ast.Expr) *ir.Func {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "generate ir")
	defer tr.Finish()

	g := &gen{
		tr:    tr,
		types: make(map[ir.Var]tp.Type, len(root)+1),
	}

	s := scope.Root[ir.Var]()

	for v, t := range root {
		g.types[v] = t
		s.Define(string(v), v)
	}

	g.types[Unit] = tp.Unit{}

	res := g.visit(s, x)

	if !g.assigned {
		switch g.types[res].(type) {
		case tp.Int:
			g.emit(ir.Call{Func: "print_int", Args: []ir.Var{res}, Dest: Unit})
		case tp.Bool:
			g.emit(ir.Call{Func: "print_bool", Args: []ir.Var{res}, Dest: Unit})
		}
	}

	tr.Printw("generated", "instrs", len(g.code), "vars", len(g.types), "labels", g.labels)

	return &ir.Func{
		Name:  runtime.Main,
		Code:  g.code,
		Types: g.types,
	}
}

func (g *gen) visit(s *Scope, x ast.Expr) ir.Var {
	v := g.lower(s, x)

	switch x.(type) {
	case *ast.Assignment:
		g.assigned = true
	case *ast.Block:
		// the value of the last entry
	default:
		g.assigned = false
	}

	return v
}

func (g *gen) lower(s *Scope, x ast.Expr) ir.Var {
	switch x := x.(type) {
	case *ast.Literal:
		return g.literal(x)
	case *ast.Identifier:
		return g.lookup(s, x.Name, x.Pos)
	case *ast.VarDecl:
		v := g.visit(s, x.Value)

		d := g.newVar(g.types[v])
		g.emit(ir.Copy{Pos: x.Pos, Source: v, Dest: d})

		s.Define(x.Name.Name, d)

		return d
	case *ast.Assignment:
		val := g.visit(s, x.Value)
		target := g.lookup(s, x.Target.Name, x.Target.Pos)

		g.emit(ir.Copy{Pos: x.Pos, Source: val, Dest: target})

		return target
	case *ast.UnaryOp:
		op := g.lookup(s, builtin.UnaryPrefix+x.Op, x.Pos)
		arg := g.visit(s, x.Operand)

		return g.call(x, op, arg)
	case *ast.BinaryOp:
		return g.binary(s, x)
	case *ast.Branch:
		if x.Otherwise == nil {
			return g.branch(s, x)
		}

		return g.branchElse(s, x)
	case *ast.Loop:
		return g.loop(s, x)
	case *ast.Block:
		local := s.Child()
		res := Unit
		g.assigned = false

		for _, e := range x.Exprs {
			if e == nil {
				res = Unit
				g.assigned = false

				continue
			}

			res = g.visit(local, e)
		}

		return res
	case *ast.Call:
		f := g.lookup(s, x.Func.Name, x.Func.Pos)

		args := make([]ir.Var, len(x.Args))
		for i, a := range x.Args {
			args[i] = g.visit(s, a)
		}

		return g.call(x, f, args...)
	default:
		panic(fmt.Sprintf("unsupported expression: %T", x))
	}
}

func (g *gen) literal(x *ast.Literal) ir.Var {
	switch v := x.Value.(type) {
	case int64:
		d := g.newVar(tp.Int{})
		g.emit(ir.LoadIntConst{Pos: x.Pos, Value: v, Dest: d})

		return d
	case bool:
		d := g.newVar(tp.Bool{})
		g.emit(ir.LoadBoolConst{Pos: x.Pos, Value: v, Dest: d})

		return d
	case nil:
		return Unit
	default:
		panic(fmt.Sprintf("%v: unsupported literal: %T", x.Pos, v))
	}
}

func (g *gen) binary(s *Scope, x *ast.BinaryOp) ir.Var {
	op := g.lookup(s, x.Op, x.Pos)
	left := g.visit(s, x.Left)

	if decided(x) {
		g.tr.V("short_circuit").Printw("right operand skipped", "op", x.Op, "pos", x.Pos)

		return left
	}

	right := g.visit(s, x.Right)

	return g.call(x, op, left, right)
}

// decided reports whether the left operand of or/and alone is the result.
func decided(x *ast.BinaryOp) bool {
	var v bool

	switch x.Op {
	case "or":
		v = true
	case "and":
		v = false
	default:
		return false
	}

	return ast.Equal(x.Left, ast.Bool(pos.Unknown, v))
}

func (g *gen) branch(s *Scope, x *ast.Branch) ir.Var {
	then := g.newLabel(x.Pos)
	end := g.newLabel(x.Pos)

	local := s.Child()

	cond := g.visit(local, x.Cond)

	g.emit(ir.CondJump{Pos: x.Pos, Cond: cond, Then: then, Else: end})
	g.emit(then)

	g.visit(s, x.Then)

	g.emit(end)

	return Unit
}

func (g *gen) branchElse(s *Scope, x *ast.Branch) ir.Var {
	then := g.newLabel(x.Pos)
	other := g.newLabel(x.Pos)
	end := g.newLabel(x.Pos)

	res := g.newVar(typeOf(x.Then, tp.Unit{}))

	local := s.Child()

	cond := g.visit(local, x.Cond)

	g.emit(ir.CondJump{Pos: x.Pos, Cond: cond, Then: then, Else: other})
	g.emit(then)

	v := g.visit(s, x.Then)
	g.emit(ir.Copy{Pos: x.Pos, Source: v, Dest: res})
	g.emit(ir.Jump{Pos: x.Pos, Label: end})

	g.emit(other)

	v = g.visit(local, x.Otherwise)
	g.emit(ir.Copy{Pos: x.Pos, Source: v, Dest: res})

	g.emit(end)

	return res
}

func (g *gen) loop(s *Scope, x *ast.Loop) ir.Var {
	check := g.newLabel(x.Pos)
	start := g.newLabel(x.Pos)
	end := g.newLabel(x.Pos)

	g.emit(check)

	cond := g.visit(s, x.Cond)

	g.emit(ir.CondJump{Pos: x.Pos, Cond: cond, Then: start, Else: end})
	g.emit(start)

	g.visit(s, x.Body)

	g.emit(ir.Jump{Pos: x.Pos, Label: check})
	g.emit(end)

	return Unit
}

func (g *gen) call(x ast.Expr, f ir.Var, args ...ir.Var) ir.Var {
	var out tp.Type = tp.Unit{}

	if ft, ok := g.types[f].(tp.Func); ok {
		out = ft.Out
	}

	d := g.newVar(typeOf(x, out))

	g.emit(ir.Call{Pos: x.Loc(), Func: f, Args: args, Dest: d})

	return d
}

func (g *gen) lookup(s *Scope, name string, l pos.Location) ir.Var {
	v, ok := s.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("%v: unresolved name %q (generator called from %v)", l, name, loc.Caller(2)))
	}

	return v
}

func (g *gen) newVar(t tp.Type) ir.Var {
	v := ir.Var("x" + strconv.Itoa(len(g.types)))
	g.types[v] = t

	return v
}

func (g *gen) newLabel(l pos.Location) ir.Label {
	lab := ir.Label{Pos: l, Name: "L" + strconv.Itoa(g.labels)}
	g.labels++

	return lab
}

func (g *gen) emit(in ir.Instr) {
	if g.tr.If("dump_emit") {
		g.tr.Printw("emit", "instr", in, "pos", in.Loc())
	}

	g.code = append(g.code, in)
}

func typeOf(x ast.Expr, def tp.Type) tp.Type {
	if x == nil {
		return def
	}

	if t := x.Type(); t != nil {
		return t
	}

	return def
}
