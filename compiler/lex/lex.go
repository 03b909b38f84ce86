package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/pos"
)

type (
	// SkipFunc is called for every character no token class matches.
	SkipFunc func(r rune, l pos.Location) error

	matcher func(line string, i int) int
)

var (
	operators = []string{"==", "!=", "<=", ">=", "+", "-", "*", "/", "%", "=", "<", ">"}
	wordOps   = []string{"or", "and", "not"}
	boolLits  = []string{"true", "false"}
)

// classes in tie-break order
var classes = []struct {
	kind  Kind
	match matcher
}{
	{0, matchComment},
	{BoolLiteral, matchWord(boolLits)},
	{Operator, matchOperator},
	{Identifier, matchIdent},
	{IntLiteral, matchInt},
	{Punctuation, matchPunct},
}

// Tokenize splits src into tokens.
// Characters matching no token class are skipped.
func Tokenize(src string) []Token {
	toks, _ := tokenize(src, nil)

	return toks
}

// TokenizeStrict is Tokenize which fails on the first unmatched character.
func TokenizeStrict(src string) ([]Token, error) {
	return tokenize(src, func(r rune, l pos.Location) error {
		return diag.New(diag.Lexical, l, "unexpected character %q", r)
	})
}

// TokenizeFunc is Tokenize which reports skipped characters to skip.
// Tokenizing stops if skip returns an error.
func TokenizeFunc(src string, skip SkipFunc) ([]Token, error) {
	return tokenize(src, skip)
}

func tokenize(src string, skip SkipFunc) (toks []Token, err error) {
	if src == "" {
		return nil, nil
	}

	for n, line := range strings.Split(src, "\n") {
		line = strings.TrimSuffix(line, "\r")

		toks, err = tokenizeLine(toks, line, n+1, skip)
		if err != nil {
			return toks, err
		}
	}

	return toks, nil
}

func tokenizeLine(toks []Token, line string, row int, skip SkipFunc) ([]Token, error) {
	col := 1

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if unicode.IsSpace(r) {
			i += size
			col++
			continue
		}

		var kind Kind
		end := i

		for _, c := range classes {
			if e := c.match(line, i); e > end {
				kind, end = c.kind, e
			}
		}

		switch {
		case end == i:
			if skip != nil {
				err := skip(r, pos.Location{Line: row, Column: col})
				if err != nil {
					return toks, err
				}
			}

			i += size
			col++
			continue
		case kind == 0: // comment
			return toks, nil
		}

		toks = append(toks, Token{
			Kind: kind,
			Text: line[i:end],
			Loc:  pos.Location{Line: row, Column: col},
		})

		col += utf8.RuneCountInString(line[i:end])
		i = end
	}

	return toks, nil
}

func matchComment(line string, i int) int {
	if strings.HasPrefix(line[i:], "//") || line[i] == '#' {
		return len(line)
	}

	return i
}

func matchOperator(line string, i int) int {
	for _, op := range operators {
		if strings.HasPrefix(line[i:], op) {
			return i + len(op)
		}
	}

	return matchWord(wordOps)(line, i)
}

func matchWord(words []string) matcher {
	return func(line string, i int) int {
		for _, w := range words {
			if strings.HasPrefix(line[i:], w) {
				return i + len(w)
			}
		}

		return i
	}
}

func matchIdent(line string, i int) int {
	if !isLetter(line[i]) {
		return i
	}

	e := i + 1
	for e < len(line) && (isLetter(line[e]) || isDigit(line[e])) {
		e++
	}

	return e
}

func matchInt(line string, i int) int {
	e := i
	for e < len(line) && isDigit(line[e]) {
		e++
	}

	return e
}

func matchPunct(line string, i int) int {
	if strings.IndexByte("(){},.;", line[i]) >= 0 {
		return i + 1
	}

	return i
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
