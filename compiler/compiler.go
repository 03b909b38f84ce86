package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/analyze"
	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/back"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/front"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/lex"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/pos"
	"github.com/slowlang/exprc/compiler/toolchain"
)

type (
	Compiler struct {
		// Strict fails on characters no token matches instead of skipping them.
		Strict bool

		Toolchain toolchain.Toolchain

		back *back.Compiler
	}
)

func New() *Compiler {
	return &Compiler{
		Toolchain: toolchain.FromEnv(),
		back:      back.New(),
	}
}

func (c *Compiler) Tokens(ctx context.Context, name, text string) (toks []lex.Token, err error) {
	tr := tlog.SpanFromContext(ctx)

	if c.Strict {
		toks, err = lex.TokenizeStrict(text)
	} else {
		toks, err = lex.TokenizeFunc(text, func(r rune, l pos.Location) error {
			tr.V("lex_skip").Printw("skip character", "char", string(r), "pos", l, "file", name)
			return nil
		})
	}

	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}

	if tr.If("dump_tokens") {
		for _, t := range toks {
			tr.Printw("token", "kind", t.Kind, "text", t.Text, "pos", t.Loc)
		}
	}

	return toks, nil
}

// AST parses and type checks text.
func (c *Compiler) AST(ctx context.Context, name, text string) (x ast.Expr, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	toks, err := c.Tokens(ctx, name, text)
	if err != nil {
		return nil, err
	}

	x, err = parse.Parse(toks)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	_, err = analyze.Check(ctx, x, analyze.RootScope())
	if err != nil {
		return nil, errors.Wrap(err, "typecheck")
	}

	if tr.If("dump_ast") {
		tr.Printw("ast", "type", x.Type(), "tree", format.Expr(nil, x))
	}

	return x, nil
}

func (c *Compiler) IR(ctx context.Context, name, text string) (f *ir.Func, err error) {
	x, err := c.AST(ctx, name, text)
	if err != nil {
		return nil, err
	}

	f = front.Generate(ctx, front.RootTypes(), x)

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_ir") {
		tr.Printw("ir", "name", name, "code", format.Code(nil, f.Code))
	}

	return f, nil
}

// Assembly compiles text to GNU assembly.
func (c *Compiler) Assembly(ctx context.Context, name, text string) (asm []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	f, err := c.IR(ctx, name, text)
	if err != nil {
		return nil, err
	}

	bc := c.back
	if bc == nil {
		bc = back.New()
	}

	asm, err = bc.Compile(ctx, nil, f)
	if err != nil {
		return nil, errors.Wrap(err, "emit assembly")
	}

	if tr.If("dump_asm") {
		tr.Printw("asm", "name", name, "text", asm)
	}

	return asm, nil
}

// Executable compiles text and links it with the runtime.
func (c *Compiler) Executable(ctx context.Context, name, text string) (exe []byte, err error) {
	asm, err := c.Assembly(ctx, name, text)
	if err != nil {
		return nil, err
	}

	exe, err = c.Toolchain.Link(ctx, asm)
	if err != nil {
		return nil, errors.Wrap(err, "link")
	}

	return exe, nil
}

func (c *Compiler) CompileFile(ctx context.Context, name string) (exe []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return c.Executable(ctx, name, string(text))
}
