package ast

// Equal compares trees structurally.
// Locations are compared with pos.Location.Equal, so a node at the unknown
// location matches the same node anywhere. Checked types are ignored.
func Equal(x, y Expr) bool {
	if isNil(x) || isNil(y) {
		return isNil(x) && isNil(y)
	}

	if !x.Loc().Equal(y.Loc()) {
		return false
	}

	switch x := x.(type) {
	case *Literal:
		y, ok := y.(*Literal)
		return ok && x.Value == y.Value
	case *Identifier:
		y, ok := y.(*Identifier)
		return ok && x.Name == y.Name
	case *Assignment:
		y, ok := y.(*Assignment)
		return ok && Equal(x.Target, y.Target) && Equal(x.Value, y.Value)
	case *UnaryOp:
		y, ok := y.(*UnaryOp)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *BinaryOp:
		y, ok := y.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Branch:
		y, ok := y.(*Branch)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Otherwise, y.Otherwise)
	case *Loop:
		y, ok := y.(*Loop)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Body, y.Body)
	case *Block:
		y, ok := y.(*Block)
		return ok && equalList(x.Exprs, y.Exprs)
	case *VarDecl:
		y, ok := y.(*VarDecl)
		return ok && Equal(x.Name, y.Name) && Equal(x.Value, y.Value)
	case *Call:
		y, ok := y.(*Call)
		return ok && Equal(x.Func, y.Func) && equalList(x.Args, y.Args)
	default:
		panic(x)
	}
}

func equalList(x, y []Expr) bool {
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

// isNil catches typed nil pointers stored in Expr.
func isNil(x Expr) bool {
	switch x := x.(type) {
	case nil:
		return true
	case *Identifier:
		return x == nil
	default:
		return false
	}
}
