package back

import (
	"github.com/nikandfor/hacked/hfmt"
)

type (
	// Intrinsic generates inline code for a builtin operator.
	// Args are operand memory references, the result is left in reg.
	Intrinsic struct {
		Args int
		Emit func(b []byte, args []string, reg string) []byte
	}
)

// scratch is clobbered by intrinsics. It must differ from the result register.
const scratch = "%rdx"

var low8 = map[string]string{
	"%rax": "%al",
	"%rbx": "%bl",
	"%rcx": "%cl",
	"%rdi": "%dil",
	"%rsi": "%sil",
}

var intrinsics = map[string]Intrinsic{
	"+":   binop("addq"),
	"-":   binop("subq"),
	"*":   binop("imulq"),
	"/":   {Args: 2, Emit: divide("%rax")},
	"%":   {Args: 2, Emit: divide("%rdx")},
	"and": binop("andq"),
	"or":  binop("orq"),

	"==": compare("sete"),
	"!=": compare("setne"),
	"<":  compare("setl"),
	"<=": compare("setle"),
	">":  compare("setg"),
	">=": compare("setge"),

	"unary_-": {Args: 1, Emit: func(b []byte, a []string, reg string) []byte {
		b = ins(b, "movq %s, %s", a[0], reg)
		return ins(b, "negq %s", reg)
	}},
	"unary_not": {Args: 1, Emit: func(b []byte, a []string, reg string) []byte {
		b = ins(b, "movq %s, %s", a[0], reg)
		return ins(b, "xorq $1, %s", reg)
	}},
}

// Intrinsics returns the table of inline operators.
// The table is shared and must not be modified.
func Intrinsics() map[string]Intrinsic { return intrinsics }

func binop(op string) Intrinsic {
	return Intrinsic{Args: 2, Emit: func(b []byte, a []string, reg string) []byte {
		b = ins(b, "movq %s, %s", a[0], reg)
		return ins(b, "%s %s, %s", op, a[1], reg)
	}}
}

// divide leaves the quotient in %rax and the remainder in %rdx.
func divide(res string) func(b []byte, a []string, reg string) []byte {
	return func(b []byte, a []string, reg string) []byte {
		b = ins(b, "movq %s, %%rax", a[0])
		b = ins(b, "cqto")
		b = ins(b, "idivq %s", a[1])

		if reg != res {
			b = ins(b, "movq %s, %s", res, reg)
		}

		return b
	}
}

func compare(set string) Intrinsic {
	return Intrinsic{Args: 2, Emit: func(b []byte, a []string, reg string) []byte {
		r8, ok := low8[reg]
		if !ok {
			panic("no low byte register for " + reg)
		}

		b = ins(b, "xorq %s, %s", reg, reg)
		b = ins(b, "movq %s, %s", a[0], scratch)
		b = ins(b, "cmpq %s, %s", a[1], scratch)

		return ins(b, "%s %s", set, r8)
	}}
}

func ins(b []byte, f string, args ...any) []byte {
	b = append(b, '\t')
	b = hfmt.Appendf(b, f, args...)

	return append(b, '\n')
}
