package builtin

import "github.com/slowlang/exprc/compiler/tp"

type Sig struct {
	Name string
	Type tp.Func
}

const UnaryPrefix = "unary_"

var (
	intOp  = tp.Func{In: []tp.Type{tp.Int{}, tp.Int{}}, Out: tp.Int{}}
	cmpOp  = tp.Func{In: []tp.Type{tp.Int{}, tp.Int{}}, Out: tp.Bool{}}
	boolOp = tp.Func{In: []tp.Type{tp.Bool{}, tp.Bool{}}, Out: tp.Bool{}}
	eqOp   = tp.Func{In: []tp.Type{tp.Any{}, tp.Any{}}, Out: tp.Bool{}}

	globals = []Sig{
		{"or", boolOp},
		{"and", boolOp},
		{"+", intOp},
		{"-", intOp},
		{"*", intOp},
		{"/", intOp},
		{"%", intOp},
		{"<=", cmpOp},
		{">=", cmpOp},
		{"<", cmpOp},
		{">", cmpOp},
		{"==", eqOp},
		{"!=", eqOp},
		{"print_int", tp.Func{In: []tp.Type{tp.Int{}}, Out: tp.Unit{}}},
		{"print_bool", tp.Func{In: []tp.Type{tp.Bool{}}, Out: tp.Unit{}}},
		{"read_int", tp.Func{Out: tp.Int{}}},
	}

	unary = []Sig{
		{UnaryPrefix + "-", tp.Func{In: []tp.Type{tp.Int{}}, Out: tp.Int{}}},
		{UnaryPrefix + "not", tp.Func{In: []tp.Type{tp.Bool{}}, Out: tp.Bool{}}},
	}
)

// Globals returns the operators and functions visible to source code.
func Globals() []Sig {
	return append([]Sig{}, globals...)
}

// All returns Globals and the unary operators, which are reachable only through operator syntax.
func All() []Sig {
	s := make([]Sig, 0, len(globals)+len(unary))
	s = append(s, globals...)
	s = append(s, unary...)

	return s
}

// Unary returns the signature of unary operator op.
func Unary(op string) (tp.Func, bool) {
	for _, s := range unary {
		if s.Name == UnaryPrefix+op {
			return s.Type, true
		}
	}

	return tp.Func{}, false
}
