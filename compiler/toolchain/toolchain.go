package toolchain

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/runtime"
)

type (
	// Toolchain assembles and links programs with GNU binutils.
	Toolchain struct {
		As string
		Ld string

		// KeepWorkdir leaves intermediate files on disk.
		KeepWorkdir bool
	}

	// ToolError is a failed tool run.
	ToolError struct {
		Tool   string
		Args   []string
		Output []byte
		Err    error
	}
)

const (
	DefaultAs = "as"
	DefaultLd = "ld"
)

// FromEnv configures Toolchain with EXPRC_AS, EXPRC_LD and EXPRC_KEEP_WORKDIR.
func FromEnv() Toolchain {
	return Toolchain{
		As:          env.Str("EXPRC_AS", DefaultAs),
		Ld:          env.Str("EXPRC_LD", DefaultLd),
		KeepWorkdir: env.Bool("EXPRC_KEEP_WORKDIR"),
	}
}

// Available reports whether both tools are found.
func (t Toolchain) Available() error {
	for _, tool := range []string{t.as(), t.ld()} {
		if _, err := exec.LookPath(tool); err != nil {
			return errors.Wrap(err, "lookup %v", tool)
		}
	}

	return nil
}

// Link turns program assembly into a static executable linked with the runtime.
func (t Toolchain) Link(ctx context.Context, asm []byte) (exe []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "link", "asm_size", len(asm))
	defer tr.Finish("err", &err)

	dir, err := os.MkdirTemp("", "exprc-")
	if err != nil {
		return nil, errors.Wrap(err, "make workdir")
	}

	if t.KeepWorkdir {
		tr.Printw("workdir kept", "dir", dir)
	} else {
		defer func() {
			e := os.RemoveAll(dir)
			if err == nil && e != nil {
				err = errors.Wrap(e, "remove workdir")
			}
		}()
	}

	path := func(name string) string { return filepath.Join(dir, name) }

	err = os.WriteFile(path("runtime.s"), runtime.Source, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "write runtime")
	}

	err = os.WriteFile(path("program.s"), asm, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "write program")
	}

	err = t.run(ctx, t.as(), "-o", path("runtime.o"), path("runtime.s"))
	if err != nil {
		return nil, errors.Wrap(err, "assemble runtime")
	}

	err = t.run(ctx, t.as(), "-o", path("program.o"), path("program.s"))
	if err != nil {
		return nil, errors.Wrap(err, "assemble program")
	}

	err = t.run(ctx, t.ld(), "-static", "-e", runtime.Entry, "-o", path("program"), path("runtime.o"), path("program.o"))
	if err != nil {
		return nil, errors.Wrap(err, "link")
	}

	exe, err = os.ReadFile(path("program"))
	if err != nil {
		return nil, errors.Wrap(err, "read executable")
	}

	tr.Printw("linked", "size", len(exe))

	return exe, nil
}

func (t Toolchain) run(ctx context.Context, tool string, args ...string) error {
	tr := tlog.SpanFromContext(ctx)

	cmd := exec.CommandContext(ctx, tool, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if tr.If("toolchain") {
		tr.Printw("run", "tool", tool, "args", args)
	}

	err := cmd.Run()
	if err != nil {
		return &ToolError{Tool: tool, Args: args, Output: out.Bytes(), Err: err}
	}

	return nil
}

func (t Toolchain) as() string {
	if t.As == "" {
		return DefaultAs
	}

	return t.As
}

func (t Toolchain) ld() string {
	if t.Ld == "" {
		return DefaultLd
	}

	return t.Ld
}

func (e *ToolError) Error() string {
	msg := e.Tool + ": " + e.Err.Error()

	if out := bytes.TrimSpace(e.Output); len(out) != 0 {
		msg += "\n" + string(out)
	}

	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }
