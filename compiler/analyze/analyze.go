package analyze

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/scope"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	Scope = scope.Scope[tp.Type]

	checker struct {
		tr tlog.Span
	}
)

// RootScope returns a fresh scope with builtin operators and functions.
func RootScope() *Scope {
	s := scope.Root[tp.Type]()

	for _, g := range builtin.Globals() {
		s.Define(g.Name, g.Type)
	}

	return s
}

// Check type checks x in scope s and records the type of every visited node.
// It stops at the first error.
func Check(ctx context.Context, x ast.Expr, s *Scope) (tp.Type, error) {
	c := &checker{
		tr: tlog.SpanFromContext(ctx),
	}

	return c.check(x, s)
}

func (c *checker) check(x ast.Expr, s *Scope) (t tp.Type, err error) {
	switch x := x.(type) {
	case *ast.Literal:
		t, err = c.literal(x)
	case *ast.Identifier:
		t, err = c.ident(x, s)
	case *ast.Assignment:
		t, err = c.assignment(x, s)
	case *ast.VarDecl:
		t, err = c.varDecl(x, s)
	case *ast.UnaryOp:
		t, err = c.unary(x, s)
	case *ast.BinaryOp:
		t, err = c.binary(x, s)
	case *ast.Branch:
		t, err = c.branch(x, s)
	case *ast.Loop:
		t, err = c.loop(x, s)
	case *ast.Block:
		t, err = c.block(x, s)
	case *ast.Call:
		t, err = c.call(x, s)
	default:
		panic(x)
	}

	if err != nil {
		return nil, err
	}

	x.SetType(t)

	return t, nil
}

func (c *checker) literal(x *ast.Literal) (tp.Type, error) {
	switch v := x.Value.(type) {
	case int64:
		return tp.Int{}, nil
	case bool:
		return tp.Bool{}, nil
	case nil:
		return tp.Unit{}, nil
	default:
		return nil, errorf(x, "unsupported literal %v (%[1]T)", v)
	}
}

func (c *checker) ident(x *ast.Identifier, s *Scope) (tp.Type, error) {
	t, ok := s.Lookup(x.Name)
	if !ok {
		return nil, errorf(x, "undefined identifier %q", x.Name)
	}

	return t, nil
}

func (c *checker) assignment(x *ast.Assignment, s *Scope) (tp.Type, error) {
	target, err := c.check(x.Target, s)
	if err != nil {
		return nil, err
	}

	val, err := c.check(x.Value, s)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(target, val) {
		return nil, errorf(x, "cannot assign %v to %q of type %v", val, x.Target.Name, target)
	}

	return val, nil
}

func (c *checker) varDecl(x *ast.VarDecl, s *Scope) (tp.Type, error) {
	val, err := c.check(x.Value, s)
	if err != nil {
		return nil, err
	}

	s.Define(x.Name.Name, val)

	return c.check(x.Name, s)
}

func (c *checker) unary(x *ast.UnaryOp, s *Scope) (tp.Type, error) {
	sig, ok := builtin.Unary(x.Op)
	if !ok {
		return nil, errorf(x, "unknown unary operator %q", x.Op)
	}

	t, err := c.check(x.Operand, s)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(sig.In[0], t) {
		return nil, errorf(x, "operator %q expects %v, got %v", x.Op, sig.In[0], t)
	}

	return sig.Out, nil
}

func (c *checker) binary(x *ast.BinaryOp, s *Scope) (tp.Type, error) {
	op, found := s.Lookup(x.Op)

	l, err := c.check(x.Left, s)
	if err != nil {
		return nil, err
	}

	r, err := c.check(x.Right, s)
	if err != nil {
		return nil, err
	}

	sig, ok := op.(tp.Func)
	if !found || !ok || len(sig.In) != 2 {
		return nil, errorf(x, "unknown operator %q", x.Op)
	}

	if args := []tp.Type{l, r}; !tp.EqualList(sig.In, args) {
		return nil, errorf(x, "operator %q expects %v, got %v", x.Op, tp.List(sig.In), tp.List(args))
	}

	return sig.Out, nil
}

// branch checks the condition and the otherwise arm in a nested scope,
// and the then arm in s.
func (c *checker) branch(x *ast.Branch, s *Scope) (tp.Type, error) {
	local := s.Child()

	cond, err := c.check(x.Cond, local)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(cond, tp.Bool{}) {
		return nil, errorf(x.Cond, "condition must be Bool, got %v", cond)
	}

	then, err := c.check(x.Then, s)
	if err != nil {
		return nil, err
	}

	if x.Otherwise == nil {
		return then, nil
	}

	other, err := c.check(x.Otherwise, local)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(then, other) {
		return nil, errorf(x, "branch types differ: then is %v, otherwise is %v", then, other)
	}

	return then, nil
}

func (c *checker) loop(x *ast.Loop, s *Scope) (tp.Type, error) {
	cond, err := c.check(x.Cond, s)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(cond, tp.Bool{}) {
		return nil, errorf(x.Cond, "loop condition must be Bool, got %v", cond)
	}

	_, err = c.check(x.Body, s)
	if err != nil {
		return nil, err
	}

	return tp.Unit{}, nil
}

func (c *checker) block(x *ast.Block, s *Scope) (t tp.Type, err error) {
	local := s.Child()

	if c.tr.If("scope") {
		c.tr.Printw("block scope", "pos", x.Loc(), "depth", local.Depth(), "from", local.From())
	}

	t = tp.Unit{}

	for _, e := range x.Exprs {
		if e == nil {
			t = tp.Unit{}
			continue
		}

		t, err = c.check(e, local)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (c *checker) call(x *ast.Call, s *Scope) (tp.Type, error) {
	args := make([]tp.Type, len(x.Args))

	for i, a := range x.Args {
		t, err := c.check(a, s)
		if err != nil {
			return nil, err
		}

		args[i] = t
	}

	ft, err := c.check(x.Func, s)
	if err != nil {
		return nil, err
	}

	sig, ok := ft.(tp.Func)
	if !ok {
		return nil, errorf(x, "%q is not a function, it is %v", x.Func.Name, ft)
	}

	if !tp.EqualList(sig.In, args) {
		return nil, errorf(x, "%q expects arguments %v, got %v", x.Func.Name, tp.List(sig.In), tp.List(args))
	}

	return sig.Out, nil
}

func errorf(x ast.Expr, f string, args ...any) error {
	return diag.New(diag.Type, x.Loc(), f, args...)
}
