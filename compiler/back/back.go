package back

import (
	"context"
	"fmt"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/runtime"
)

type (
	// Compiler emits x86-64 GNU assembly for the System V ABI.
	Compiler struct {
		// Intrinsics are inlined instead of called. Intrinsics() by default.
		Intrinsics map[string]Intrinsic
	}
)

// result receives intrinsic and call results.
const result = "%rax"

var argRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

var header = `	.global %[1]s
	.type %[1]s, @function

	.section .note.GNU-stack,"",@progbits
	.section .text

%[1]s:
	pushq %%rbp
	movq %%rsp, %%rbp
	subq $%[2]d, %%rsp
`

func New() *Compiler {
	return &Compiler{Intrinsics: Intrinsics()}
}

// Compile appends f as a single globally visible function to b.
// Every label f jumps to must be defined in f exactly once, otherwise Compile panics.
func (c *Compiler) Compile(ctx context.Context, b []byte, f *ir.Func) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: compile func", "name", f.Name, "instrs", len(f.Code))
	defer tr.Finish("err", &err)

	checkLabels(f.Code)

	intr := c.Intrinsics
	if intr == nil {
		intr = Intrinsics()
	}

	l := NewLocals(ir.Vars(f.Code))

	if tr.If("dump_locals") {
		for _, v := range l.Vars() {
			tr.Printw("local", "var", v, "ref", l.Ref(v), "type", f.Types[v])
		}
	}

	tr.Printw("stack frame", "vars", len(l.Vars()), "used", l.StackUsed(), "frame", l.FrameSize())

	for _, name := range runtime.Builtins {
		b = fmt.Appendf(b, "\t.extern %s\n", name)
	}

	b = fmt.Appendf(b, header, f.Name, l.FrameSize())

	for i, in := range f.Code {
		b = fmt.Appendf(b, "\n\t# %v\n", in)

		b, err = c.instr(b, l, intr, in)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d: %v (at %v)", i, in, in.Loc())
		}
	}

	b = append(b, "\n"...)
	b = ins(b, "movq $0, %s", result)
	b = ins(b, "movq %%rbp, %%rsp")
	b = ins(b, "popq %%rbp")
	b = ins(b, "ret")

	return b, nil
}

func (c *Compiler) instr(b []byte, l *Locals, intr map[string]Intrinsic, in ir.Instr) ([]byte, error) {
	switch in := in.(type) {
	case ir.Label:
		b = fmt.Appendf(b, ".L%s:\n", in.Name)
	case ir.LoadIntConst:
		if in.Value >= math.MinInt32 && in.Value <= math.MaxInt32 {
			b = ins(b, "movq $%d, %s", in.Value, l.Ref(in.Dest))
		} else {
			b = ins(b, "movabsq $%d, %s", in.Value, result)
			b = ins(b, "movq %s, %s", result, l.Ref(in.Dest))
		}
	case ir.LoadBoolConst:
		v := 0
		if in.Value {
			v = 1
		}

		b = ins(b, "movq $%d, %s", v, l.Ref(in.Dest))
	case ir.Copy:
		b = ins(b, "movq %s, %s", l.Ref(in.Source), result)
		b = ins(b, "movq %s, %s", result, l.Ref(in.Dest))
	case ir.Jump:
		b = ins(b, "jmp .L%s", in.Label.Name)
	case ir.CondJump:
		b = ins(b, "cmpq $0, %s", l.Ref(in.Cond))
		b = ins(b, "jne .L%s", in.Then.Name)
		b = ins(b, "jmp .L%s", in.Else.Name)
	case ir.Call:
		return c.call(b, l, intr, in)
	default:
		panic(fmt.Sprintf("unsupported instruction: %T", in))
	}

	return b, nil
}

func (c *Compiler) call(b []byte, l *Locals, intr map[string]Intrinsic, in ir.Call) ([]byte, error) {
	args := make([]string, len(in.Args))
	for i, a := range in.Args {
		args[i] = l.Ref(a)
	}

	if x, ok := intr[string(in.Func)]; ok {
		if len(args) != x.Args {
			return nil, errors.New("intrinsic %v takes %d arguments, got %d", in.Func, x.Args, len(args))
		}

		b = x.Emit(b, args, result)
		b = ins(b, "movq %s, %s", result, l.Ref(in.Dest))

		return b, nil
	}

	if len(args) > len(argRegs) {
		return nil, errors.New("call %v: %d arguments, at most %d supported", in.Func, len(args), len(argRegs))
	}

	for i, a := range args {
		b = ins(b, "movq %s, %s", a, argRegs[i])
	}

	b = ins(b, "callq %s", in.Func)
	b = ins(b, "movq %s, %s", result, l.Ref(in.Dest))

	return b, nil
}

func checkLabels(code []ir.Instr) {
	defs := make(map[string]int)

	for _, in := range code {
		if l, ok := in.(ir.Label); ok {
			defs[l.Name]++
		}
	}

	use := func(l ir.Label) {
		switch n := defs[l.Name]; n {
		case 1:
		case 0:
			panic(fmt.Sprintf("jump to undefined label %v", l.Name))
		default:
			panic(fmt.Sprintf("label %v defined %d times", l.Name, n))
		}
	}

	for _, in := range code {
		switch in := in.(type) {
		case ir.Label:
			use(in)
		case ir.Jump:
			use(in.Label)
		case ir.CondJump:
			use(in.Then)
			use(in.Else)
		}
	}
}
