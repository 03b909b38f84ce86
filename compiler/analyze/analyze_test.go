package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/lex"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/pos"
	"github.com/slowlang/exprc/compiler/tp"
)

func check(t *testing.T, src string) (ast.Expr, tp.Type, error) {
	t.Helper()

	x, err := parse.Parse(lex.Tokenize(src))
	require.NoError(t, err)

	typ, err := Check(context.Background(), x, RootScope())

	return x, typ, err
}

func TestTypes(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want tp.Type
	}{
		{"1 + 2", tp.Int{}},
		{"1 < 2", tp.Bool{}},
		{"true and false or true", tp.Bool{}},
		{"-1", tp.Int{}},
		{"not true", tp.Bool{}},
		{"7 % 3", tp.Int{}},
		{"if true then 1 else 2", tp.Int{}},
		{"if true then 1", tp.Int{}},
		{"if 1 < 2 then true else false", tp.Bool{}},
		{"{}", tp.Unit{}},
		{"{ 1; }", tp.Unit{}},
		{"", tp.Unit{}},
		{"var x = 1; x", tp.Int{}},
		{"var x = 1; x = 2", tp.Int{}},
		{"var x = true; { var x = 1; x + 1 }; x", tp.Bool{}},
		{"var x = 3; while x > 0 do x = x - 1", tp.Unit{}},
		{"print_int(3)", tp.Unit{}},
		{"read_int() * 2", tp.Int{}},
		{"1 == 2", tp.Bool{}},
		{"true != false", tp.Bool{}},
		{"1 == true", tp.Bool{}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			_, typ, err := check(t, tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, typ)
		})
	}
}

func TestTypeErrors(t *testing.T) {
	for _, tc := range []struct {
		src string
		at  pos.Location
	}{
		{"1 + true", pos.Location{Line: 1, Column: 3}},
		{"true and 1", pos.Location{Line: 1, Column: 6}},
		{"-true", pos.Location{Line: 1, Column: 1}},
		{"not 1", pos.Location{Line: 1, Column: 1}},
		{"if 1 then 2", pos.Location{Line: 1, Column: 4}},
		{"if true then 1 else false", pos.Location{Line: 1, Column: 1}},
		{"while 1 do 2", pos.Location{Line: 1, Column: 7}},
		{"x", pos.Location{Line: 1, Column: 1}},
		{"var x = 1; x = true", pos.Location{Line: 1, Column: 14}},
		{"print_int(true)", pos.Location{Line: 1, Column: 1}},
		{"print_int(1, 2)", pos.Location{Line: 1, Column: 1}},
		{"var f = 1; f(2)", pos.Location{Line: 1, Column: 12}},
		{"g(1)", pos.Location{Line: 1, Column: 1}},
		{"{ var y = 1 }; y", pos.Location{Line: 1, Column: 16}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			_, _, err := check(t, tc.src)
			require.Error(t, err)

			var d *diag.Error
			require.True(t, errors.As(err, &d), "%v", err)
			assert.Equal(t, diag.Type, d.Kind)
			assert.Equal(t, tc.at, d.Loc, "%v", err)
		})
	}
}

func TestErrorMentionsTypes(t *testing.T) {
	_, _, err := check(t, "1 + true")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Int")
	assert.Contains(t, err.Error(), "Bool")

	_, _, err = check(t, "if true then 1 else false")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Int")
	assert.Contains(t, err.Error(), "Bool")
}

func TestAnnotates(t *testing.T) {
	x, _, err := check(t, "var a = 1; a < 2")
	require.NoError(t, err)

	b := x.(*ast.Block)
	assert.Equal(t, tp.Int{}, b.Exprs[0].Type())

	cmp := b.Exprs[1].(*ast.BinaryOp)
	assert.Equal(t, tp.Bool{}, cmp.Type())
	assert.Equal(t, tp.Int{}, cmp.Left.Type())
	assert.Equal(t, tp.Int{}, cmp.Right.Type())
	assert.Equal(t, tp.Bool{}, b.Type())
}

func TestBranchScopes(t *testing.T) {
	// then arm shares the enclosing scope
	_, typ, err := check(t, "if true then { var z = 1; z }; 2")
	require.NoError(t, err)
	assert.Equal(t, tp.Int{}, typ)

	s := RootScope()
	x, err := parse.Parse(lex.Tokenize("if true then 1 else 2"))
	require.NoError(t, err)

	_, err = Check(context.Background(), x, s)
	require.NoError(t, err)

	assert.Equal(t, len(builtin.Globals()), s.Len())
}
