package toolchain

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

const exitOnly = `
	.global main
	.section .text
main:
	movq $0, %rax
	ret
`

func available(t *testing.T) Toolchain {
	t.Helper()

	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skipf("unsupported platform %v/%v", runtime.GOOS, runtime.GOARCH)
	}

	tc := Toolchain{}

	if err := tc.Available(); err != nil {
		t.Skipf("toolchain is not available: %v", err)
	}

	return tc
}

func TestFromEnv(t *testing.T) {
	t.Setenv("EXPRC_AS", "/opt/bin/as")
	t.Setenv("EXPRC_LD", "")
	t.Setenv("EXPRC_KEEP_WORKDIR", "1")

	tc := FromEnv()

	assert.Equal(t, "/opt/bin/as", tc.As)
	assert.Equal(t, DefaultLd, tc.ld())
	assert.True(t, tc.KeepWorkdir)
}

func TestLink(t *testing.T) {
	tc := available(t)

	exe, err := tc.Link(context.Background(), []byte(exitOnly))
	require.NoError(t, err)
	require.NotEmpty(t, exe)

	path := filepath.Join(t.TempDir(), "prog")
	require.NoError(t, os.WriteFile(path, exe, 0o755))

	out, err := exec.Command(path).CombinedOutput()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestToolError(t *testing.T) {
	tc := available(t)

	_, err := tc.Link(context.Background(), []byte("\tnot_an_instruction %rax\n"))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Equal(t, tc.as(), te.Tool)
	assert.NotEmpty(t, te.Output)
}

func TestMissingTool(t *testing.T) {
	tc := Toolchain{As: "exprc-no-such-assembler"}

	assert.Error(t, tc.Available())

	_, err := tc.Link(context.Background(), []byte(exitOnly))
	assert.Error(t, err)
}
