package compiler

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/pos"
)

func TestAssembly(t *testing.T) {
	asm, err := New().Assembly(context.Background(), "sum", "1 + 2")
	require.NoError(t, err)

	s := string(asm)
	assert.Contains(t, s, ".global main")
	assert.Contains(t, s, "addq")
	assert.Contains(t, s, "callq print_int")
	assert.Contains(t, s, `.section .note.GNU-stack,"",@progbits`)
}

func TestShadowedPrintAssembly(t *testing.T) {
	asm, err := New().Assembly(context.Background(), "shadow", "var print_int = 5")
	require.NoError(t, err)

	assert.Contains(t, string(asm), "callq print_int")
	assert.NotContains(t, string(asm), "callq x")
}

func TestBigConstant(t *testing.T) {
	asm, err := New().Assembly(context.Background(), "big", "var x = 2147483648")
	require.NoError(t, err)

	assert.Contains(t, string(asm), "movabsq $2147483648, %rax")
}

func TestErrorKinds(t *testing.T) {
	for _, tc := range []struct {
		src    string
		strict bool
		kind   diag.Kind
		at     pos.Location
	}{
		{"1 + ", false, diag.Syntax, pos.Location{Line: 1, Column: 4}},
		{"1 + true", false, diag.Type, pos.Location{Line: 1, Column: 3}},
		{"1 $ 2", true, diag.Lexical, pos.Location{Line: 1, Column: 3}},
		{"1 $ 2", false, diag.Syntax, pos.Location{Line: 1, Column: 5}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			c := New()
			c.Strict = tc.strict

			_, err := c.Assembly(context.Background(), "test", tc.src)
			require.Error(t, err)

			var d *diag.Error
			require.True(t, errors.As(err, &d), "%v", err)
			assert.Equal(t, tc.kind, d.Kind)
			assert.Equal(t, tc.at, d.Loc)
		})
	}
}

func TestLenientSkipsUnknown(t *testing.T) {
	_, err := New().Assembly(context.Background(), "skip", "1 $+ 2")
	assert.NoError(t, err)
}

func TestRun(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skipf("unsupported platform %v/%v", runtime.GOOS, runtime.GOARCH)
	}

	c := New()

	if err := c.Toolchain.Available(); err != nil {
		t.Skipf("toolchain is not available: %v", err)
	}

	for _, tc := range []struct {
		src   string
		input string
		out   string
	}{
		{"1 + 2", "", "3\n"},
		{"var n = 5; n = n - 1; n > 0", "", "true\n"},
		{"-9223372036854775807 - 1", "", "-9223372036854775808\n"},
		{"var x = 2147483648; x", "", "2147483648\n"},
		{"7 / 2 * 10 + 7 % 2", "", "31\n"},
		{"-7 / 2", "", "-3\n"},
		{"if 1 < 2 then 10 else 20", "", "10\n"},
		{"not (1 == 2) and true", "", "true\n"},
		{"var x = 1; x = 2", "", ""},
		{"var x = 1; { x = 5 }", "", ""},
		{"var x = 1; var y = (x = 5); y", "", "5\n"},
		{"var print_int = 5", "", "5\n"},
		{"var print_bool = true", "", "true\n"},
		{"var x = 1; var y = x; y = 2; x", "", "1\n"},
		{"print_int(read_int() * 2); print_bool(false);", "21\n", "42\nfalse\n"},
		{"var i = 0; var s = 0; while i < 10 do { i = i + 1; s = s + i }; s", "", "55\n"},
		{
			"var n = 27; var steps = 0; while n > 1 do { if n % 2 == 0 then { n = n / 2 } else { n = 3 * n + 1 }; steps = steps + 1 }; steps",
			"", "111\n",
		},
		{"var x = 3; { var x = true; print_bool(x) }; x", "", "true\n3\n"},
	} {
		t.Run(tc.src, func(t *testing.T) {
			exe, err := c.Executable(context.Background(), "test", tc.src)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "prog")
			require.NoError(t, os.WriteFile(path, exe, 0o755))

			cmd := exec.Command(path)
			cmd.Stdin = strings.NewReader(tc.input)

			out, err := cmd.Output()
			require.NoError(t, err)
			assert.Equal(t, tc.out, string(out))
		})
	}
}
