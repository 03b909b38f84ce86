package tp

import "strings"

type (
	Type interface {
		String() string

		typ()
	}

	Int  struct{}
	Bool struct{}
	Unit struct{}

	// Any is equal to any type. Only builtin signatures use it.
	Any struct{}

	Func struct {
		In  []Type
		Out Type
	}
)

// Equal compares types structurally with Any acting as a wildcard.
func Equal(x, y Type) bool {
	if _, ok := x.(Any); ok {
		return true
	}

	if _, ok := y.(Any); ok {
		return true
	}

	switch x := x.(type) {
	case Int, Bool, Unit:
		return x == y
	case Func:
		y, ok := y.(Func)
		if !ok || len(x.In) != len(y.In) {
			return false
		}

		for i := range x.In {
			if !Equal(x.In[i], y.In[i]) {
				return false
			}
		}

		return Equal(x.Out, y.Out)
	case nil:
		return y == nil
	default:
		panic(x)
	}
}

// EqualList compares types pairwise.
func EqualList(x, y []Type) bool {
	if len(x) != len(y) {
		return false
	}

	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}

	return true
}

func List(l []Type) string {
	var b strings.Builder

	b.WriteByte('(')

	for i, t := range l {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	b.WriteByte(')')

	return b.String()
}

func (Int) String() string  { return "Int" }
func (Bool) String() string { return "Bool" }
func (Unit) String() string { return "Unit" }
func (Any) String() string  { return "Any" }

func (x Func) String() string {
	return List(x.In) + " => " + x.Out.String()
}

func (Int) typ()  {}
func (Bool) typ() {}
func (Unit) typ() {}
func (Any) typ()  {}
func (Func) typ() {}
