package back

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/ir"
)

func compile(t *testing.T, code ...ir.Instr) string {
	t.Helper()

	b, err := New().Compile(context.Background(), nil, &ir.Func{Name: "main", Code: code})
	require.NoError(t, err)

	t.Logf("asm:\n%s", b)

	return string(b)
}

func lines(asm string) (l []string) {
	for _, s := range strings.Split(asm, "\n") {
		s = strings.TrimSpace(s)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}

		l = append(l, s)
	}

	return l
}

func TestSmoke(t *testing.T) {
	asm := compile(t)

	assert.Equal(t, []string{
		".extern print_int",
		".extern print_bool",
		".extern read_int",
		".global main",
		".type main, @function",
		`.section .note.GNU-stack,"",@progbits`,
		".section .text",
		"main:",
		"pushq %rbp",
		"movq %rsp, %rbp",
		"subq $0, %rsp",
		"movq $0, %rax",
		"movq %rbp, %rsp",
		"popq %rbp",
		"ret",
	}, lines(asm))
}

func TestLocals(t *testing.T) {
	l := NewLocals([]ir.Var{"a", "b", "a", "c"})

	assert.Equal(t, "-8(%rbp)", l.Ref("a"))
	assert.Equal(t, "-16(%rbp)", l.Ref("b"))
	assert.Equal(t, "-24(%rbp)", l.Ref("c"))
	assert.Equal(t, 24, l.StackUsed())
	assert.Equal(t, 32, l.FrameSize())

	assert.Panics(t, func() { l.Ref("d") })
}

func TestUniqueSlots(t *testing.T) {
	code := []ir.Instr{
		ir.LoadIntConst{Value: 1, Dest: "x1"},
		ir.LoadIntConst{Value: 2, Dest: "x2"},
		ir.Call{Func: "+", Args: []ir.Var{"x1", "x2"}, Dest: "x3"},
		ir.Call{Func: "print_int", Args: []ir.Var{"x3"}, Dest: "unit"},
	}

	l := NewLocals(ir.Vars(code))
	seen := map[string]ir.Var{}

	for _, v := range l.Vars() {
		r := l.Ref(v)
		_, dup := seen[r]
		assert.False(t, dup, "slot %v reused by %v", r, v)

		seen[r] = v
	}

	assert.Len(t, seen, 6)

	asm := compile(t, code...)
	assert.Contains(t, asm, "subq $48, %rsp")
}

func TestLoadIntConst(t *testing.T) {
	asm := lines(compile(t, ir.LoadIntConst{Value: 2147483647, Dest: "x"}))
	assert.Contains(t, asm, "movq $2147483647, -8(%rbp)")

	asm = lines(compile(t, ir.LoadIntConst{Value: -2147483648, Dest: "x"}))
	assert.Contains(t, asm, "movq $-2147483648, -8(%rbp)")

	asm = lines(compile(t, ir.LoadIntConst{Value: 2147483648, Dest: "x"}))
	assert.Contains(t, asm, "movabsq $2147483648, %rax")
	assert.Contains(t, asm, "movq %rax, -8(%rbp)")
	assert.NotContains(t, asm, "movq $2147483648, -8(%rbp)")
}

func TestBoolAndCopy(t *testing.T) {
	asm := lines(compile(t,
		ir.LoadBoolConst{Value: true, Dest: "a"},
		ir.LoadBoolConst{Value: false, Dest: "b"},
		ir.Copy{Source: "a", Dest: "b"},
	))

	assert.Contains(t, asm, "movq $1, -8(%rbp)")
	assert.Contains(t, asm, "movq $0, -16(%rbp)")
	assert.Contains(t, asm, "movq -8(%rbp), %rax")
	assert.Contains(t, asm, "movq %rax, -16(%rbp)")
}

func TestIntrinsics(t *testing.T) {
	for _, tc := range []struct {
		op   string
		args int
		want []string
	}{
		{"+", 2, []string{"movq -16(%rbp), %rax", "addq -24(%rbp), %rax"}},
		{"-", 2, []string{"movq -16(%rbp), %rax", "subq -24(%rbp), %rax"}},
		{"*", 2, []string{"movq -16(%rbp), %rax", "imulq -24(%rbp), %rax"}},
		{"/", 2, []string{"movq -16(%rbp), %rax", "cqto", "idivq -24(%rbp)"}},
		{"%", 2, []string{"movq -16(%rbp), %rax", "cqto", "idivq -24(%rbp)", "movq %rdx, %rax"}},
		{"<", 2, []string{"xorq %rax, %rax", "movq -16(%rbp), %rdx", "cmpq -24(%rbp), %rdx", "setl %al"}},
		{"==", 2, []string{"xorq %rax, %rax", "movq -16(%rbp), %rdx", "cmpq -24(%rbp), %rdx", "sete %al"}},
		{"and", 2, []string{"movq -16(%rbp), %rax", "andq -24(%rbp), %rax"}},
		{"unary_-", 1, []string{"movq -16(%rbp), %rax", "negq %rax"}},
		{"unary_not", 1, []string{"movq -16(%rbp), %rax", "xorq $1, %rax"}},
	} {
		t.Run(tc.op, func(t *testing.T) {
			args := []ir.Var{"a", "b"}[:tc.args]

			asm := lines(compile(t, ir.Call{Func: ir.Var(tc.op), Args: args, Dest: "r"}))

			i := indexOf(asm, tc.want[0])
			require.True(t, i >= 0, "%q not found", tc.want[0])
			require.True(t, i+len(tc.want) < len(asm))

			assert.Equal(t, tc.want, asm[i:i+len(tc.want)])
			assert.NotContains(t, asm, "callq "+tc.op)

			dest := "-" + map[int]string{1: "24", 2: "32"}[tc.args] + "(%rbp)"
			assert.Equal(t, "movq %rax, "+dest, asm[i+len(tc.want)])
		})
	}
}

func TestExternalCall(t *testing.T) {
	asm := lines(compile(t, ir.Call{Func: "f", Args: []ir.Var{"a", "b", "c"}, Dest: "r"}))

	i := indexOf(asm, "callq f")
	require.True(t, i >= 3)

	assert.Equal(t, []string{
		"movq -16(%rbp), %rdi",
		"movq -24(%rbp), %rsi",
		"movq -32(%rbp), %rdx",
		"callq f",
		"movq %rax, -40(%rbp)",
	}, asm[i-3:i+2])
}

func TestTooManyArgs(t *testing.T) {
	_, err := New().Compile(context.Background(), nil, &ir.Func{Name: "main", Code: []ir.Instr{
		ir.Call{Func: "f", Args: []ir.Var{"a", "b", "c", "d", "e", "f", "g"}, Dest: "r"},
	}})
	assert.Error(t, err)

	_, err = New().Compile(context.Background(), nil, &ir.Func{Name: "main", Code: []ir.Instr{
		ir.Call{Func: "+", Args: []ir.Var{"a"}, Dest: "r"},
	}})
	assert.Error(t, err)
}

func TestJumps(t *testing.T) {
	then := ir.Label{Name: "L0"}
	end := ir.Label{Name: "L1"}

	asm := lines(compile(t,
		ir.LoadBoolConst{Value: true, Dest: "c"},
		ir.CondJump{Cond: "c", Then: then, Else: end},
		then,
		ir.Jump{Label: end},
		end,
	))

	assert.Contains(t, asm, ".LL0:")
	assert.Contains(t, asm, ".LL1:")

	i := indexOf(asm, "cmpq $0, -8(%rbp)")
	require.True(t, i >= 0)
	assert.Equal(t, []string{"cmpq $0, -8(%rbp)", "jne .LL0", "jmp .LL1"}, asm[i:i+3])
}

func TestMissingLabelPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = New().Compile(context.Background(), nil, &ir.Func{Name: "main", Code: []ir.Instr{
			ir.Jump{Label: ir.Label{Name: "nowhere"}},
		}})
	})

	l := ir.Label{Name: "twice"}

	assert.Panics(t, func() {
		_, _ = New().Compile(context.Background(), nil, &ir.Func{Name: "main", Code: []ir.Instr{l, l}})
	})
}

func TestInstructionComments(t *testing.T) {
	asm := compile(t, ir.LoadIntConst{Value: 5, Dest: "x"})

	assert.Contains(t, asm, "# LoadIntConst(5, x)")
}

func indexOf(l []string, s string) int {
	for i, x := range l {
		if x == s {
			return i
		}
	}

	return -1
}
