/*
Process of compilation

Program Text ->
	lex ->
Tokens ->
	parse ->
Abstract Syntax Tree (ast) ->
	analyze ->
Typed Abstract Syntax Tree ->
	front ->
Intermediate Representation (ir) ->
	back ->
Assembly Text ->
	toolchain (as, ld, runtime) ->
Binary Executable

*/
package compiler
