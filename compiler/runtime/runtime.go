// Package runtime holds the assembly the compiled programs are linked with.
package runtime

import (
	_ "embed"
)

// Source defines _start, print_int, print_bool and read_int.
// _start calls main and exits with its result.
//
//go:embed runtime.gas
var Source []byte

const (
	Entry = "_start"
	Main  = "main"
)

// Builtins are the functions Source provides to programs.
var Builtins = []string{"print_int", "print_bool", "read_int"}
