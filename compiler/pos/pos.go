package pos

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

// Location is a 1-based line and column.
// The zero value is the unknown location.
type Location struct {
	Line   int
	Column int
}

var Unknown Location

func (l Location) IsUnknown() bool {
	return l == Location{}
}

// Equal reports whether l and x denote the same place.
// Unknown is equal to any location.
func (l Location) Equal(x Location) bool {
	if l.IsUnknown() || x.IsUnknown() {
		return true
	}

	return l == x
}

func (l Location) String() string {
	if l.IsUnknown() {
		return "?:?"
	}

	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

func (l Location) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "line", int64(l.Line))
	b = e.AppendKeyInt64(b, "col", int64(l.Column))

	return b
}
