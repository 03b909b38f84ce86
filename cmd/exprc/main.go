package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/service"
)

func main() {
	strictFlag := cli.NewFlag("strict", false, "fail on characters that are not part of any token")

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print tokens of source files",
		Action:      tokensAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{strictFlag},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print type checked syntax tree",
		Action:      parseAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{strictFlag},
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "print intermediate representation",
		Action:      irAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{strictFlag},
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print generated assembly",
		Action:      asmAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{strictFlag},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile a source file (or stdin) into an executable",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			strictFlag,
			cli.NewFlag("output,o", "a.out", "executable file"),
		},
	}

	serveCmd := &cli.Command{
		Name:        "serve",
		Description: "run compile service",
		Action:      serveAct,
		Flags: []*cli.Flag{
			strictFlag,
			cli.NewFlag("host", env.Str("EXPRC_HOST", "127.0.0.1"), "address to listen on"),
			cli.NewFlag("port", env.Int("EXPRC_PORT", 3000), "port to listen on"),
			cli.NewFlag("timeout", env.Int("EXPRC_TIMEOUT", 30), "request timeout in seconds"),
		},
	}

	app := &cli.Command{
		Name:        "exprc",
		Description: "exprc compiles expression language programs to x86-64 executables",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("log", "stderr", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			tokensCmd,
			parseCmd,
			irCmd,
			asmCmd,
			compileCmd,
			serveCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	var w io.Writer = os.Stderr

	switch f := c.String("log"); f {
	case "", "-", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		file, err := os.Create(f)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}

		w = file
	}

	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(w, tlog.LstdFlags))

	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func newCompiler(c *cli.Command) *compiler.Compiler {
	comp := compiler.New()
	comp.Strict = c.Bool("strict")

	return comp
}

func rootContext() context.Context {
	return tlog.ContextWithSpan(context.Background(), tlog.Root())
}

// sources calls fn for every file in args, or once for stdin without args.
func sources(c *cli.Command, fn func(name, text string) error) error {
	if len(c.Args) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "read stdin")
		}

		return fn("(stdin)", string(text))
	}

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		err = fn(a, string(text))
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}
	}

	return nil
}

func tokensAct(c *cli.Command) error {
	ctx := rootContext()
	comp := newCompiler(c)

	return sources(c, func(name, text string) error {
		toks, err := comp.Tokens(ctx, name, text)
		if err != nil {
			return err
		}

		for _, t := range toks {
			fmt.Printf("%-6v %-12v %q\n", t.Loc, t.Kind, t.Text)
		}

		return nil
	})
}

func parseAct(c *cli.Command) error {
	ctx := rootContext()
	comp := newCompiler(c)

	return sources(c, func(name, text string) error {
		x, err := comp.AST(ctx, name, text)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n: %v\n", format.Expr(nil, x), x.Type())

		return nil
	})
}

func irAct(c *cli.Command) error {
	ctx := rootContext()
	comp := newCompiler(c)

	return sources(c, func(name, text string) error {
		f, err := comp.IR(ctx, name, text)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(format.Code(nil, f.Code))

		return err
	})
}

func asmAct(c *cli.Command) error {
	ctx := rootContext()
	comp := newCompiler(c)

	return sources(c, func(name, text string) error {
		asm, err := comp.Assembly(ctx, name, text)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(asm)

		return err
	})
}

func compileAct(c *cli.Command) error {
	if len(c.Args) > 1 {
		return errors.New("multiple input files are not supported")
	}

	ctx := rootContext()
	comp := newCompiler(c)

	return sources(c, func(name, text string) error {
		exe, err := comp.Executable(ctx, name, text)
		if err != nil {
			return err
		}

		err = os.WriteFile(c.String("output"), exe, 0o755)
		if err != nil {
			return errors.Wrap(err, "write executable")
		}

		return nil
	})
}

func serveAct(c *cli.Command) (err error) {
	ctx, stop := signal.NotifyContext(rootContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp := newCompiler(c)

	if err := comp.Toolchain.Available(); err != nil {
		tlog.Printw("toolchain is not available, compile requests will fail", "err", err)
	}

	s := &service.Server{
		Compile: func(ctx context.Context, name, code string) ([]byte, error) {
			return comp.Executable(ctx, name, code)
		},
		Timeout: time.Duration(c.Int("timeout")) * time.Second,
	}

	addr := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))

	l, err := service.Listen(ctx, addr)
	if err != nil {
		return err
	}

	tlog.Printw("starting compile service", "addr", l.Addr())

	return s.Serve(ctx, l)
}
