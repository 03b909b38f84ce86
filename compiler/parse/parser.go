package parse

import (
	"strconv"
	"unicode/utf8"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/lex"
	"github.com/slowlang/exprc/compiler/pos"
)

type parser struct {
	toks []lex.Token
	i    int
}

// binary operators by precedence, loosest first
var binaryLevels = [][]string{
	{"or"},
	{"and"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

var reserved = map[string]bool{
	"if": true, "then": true, "else": true,
	"while": true, "do": true,
	"var": true,
}

// Parse builds the expression tree of a whole program.
// A program of several statements is a Block.
func Parse(toks []lex.Token) (ast.Expr, error) {
	if len(toks) == 0 {
		return &ast.Block{}, nil
	}

	p := &parser{toks: toks}

	l, err := p.parseSequence("")
	if err != nil {
		return nil, err
	}

	if len(l) == 1 {
		return l[0], nil
	}

	return &ast.Block{Base: ast.At(toks[0].Loc), Exprs: l}, nil
}

// parseSequence parses statements separated by ";" up to end,
// which is not consumed. Empty end means end of input.
func (p *parser) parseSequence(end string) (l []ast.Expr, err error) {
	for {
		x, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}

		l = append(l, x)

		switch {
		case p.is(";"):
			semi := p.next()

			if p.atEnd(end) {
				return append(l, ast.Unit(semi.Loc)), nil
			}
		case p.atEnd(end):
			return l, nil
		case p.afterBlock():
			// {...} needs no separator
		case end == "":
			return nil, p.errorf(p.peek().Loc, "unexpected %v after expression", p.peek())
		default:
			return nil, p.errorf(p.peek().Loc, "expected \";\" or %q, got %v", end, p.peek())
		}
	}
}

func (p *parser) parseExpr(varOK bool) (ast.Expr, error) {
	left, err := p.parseBinary(0, varOK)
	if err != nil {
		return nil, err
	}

	if !p.isOp("=") {
		return left, nil
	}

	op := p.next()

	id, ok := left.(*ast.Identifier)
	if !ok {
		return nil, p.errorf(op.Loc, "left side of assignment must be an identifier")
	}

	val, err := p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	return &ast.Assignment{Base: ast.At(op.Loc), Target: id, Value: val}, nil
}

func (p *parser) parseBinary(lvl int, varOK bool) (ast.Expr, error) {
	if lvl == len(binaryLevels) {
		return p.parseUnary(varOK)
	}

	left, err := p.parseBinary(lvl+1, varOK)
	if err != nil {
		return nil, err
	}

	for p.isOp(binaryLevels[lvl]...) {
		op := p.next()

		right, err := p.parseBinary(lvl+1, false)
		if err != nil {
			return nil, err
		}

		left = &ast.BinaryOp{Base: ast.At(op.Loc), Op: op.Text, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary(varOK bool) (ast.Expr, error) {
	if !p.isOp("-", "not") {
		return p.parsePrimary(varOK)
	}

	op := p.next()

	x, err := p.parseUnary(false)
	if err != nil {
		return nil, err
	}

	return &ast.UnaryOp{Base: ast.At(op.Loc), Op: op.Text, Operand: x}, nil
}

func (p *parser) parsePrimary(varOK bool) (ast.Expr, error) {
	t := p.peek()

	switch t.Kind {
	case lex.Identifier:
		switch t.Text {
		case "if":
			return p.parseBranch()
		case "while":
			return p.parseLoop()
		case "var":
			if !varOK {
				return nil, p.errorf(t.Loc, "var is only allowed directly in a block or at the top level")
			}

			return p.parseVar()
		}

		if reserved[t.Text] {
			return nil, p.errorf(t.Loc, "unexpected %q", t.Text)
		}

		id := p.parseIdent()

		if p.is("(") {
			return p.parseCall(id)
		}

		return id, nil
	case lex.IntLiteral:
		p.next()

		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(t.Loc, "integer literal %v is out of range", t.Text)
		}

		return ast.Int(t.Loc, v), nil
	case lex.BoolLiteral:
		p.next()

		return ast.Bool(t.Loc, t.Text == "true"), nil
	case lex.Punctuation:
		switch t.Text {
		case "(":
			return p.parseParen()
		case "{":
			return p.parseBlock()
		}
	}

	return nil, p.errorf(t.Loc, "expected an expression, got %v", t)
}

func (p *parser) parseIdent() *ast.Identifier {
	t := p.next()

	return ast.Ident(t.Loc, t.Text)
}

func (p *parser) parseParen() (ast.Expr, error) {
	p.next()

	x, err := p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	_, err = p.expect(")")
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (p *parser) parseCall(id *ast.Identifier) (ast.Expr, error) {
	p.next() // (

	c := &ast.Call{Base: ast.At(id.Pos), Func: id}

	for !p.is(")") {
		x, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}

		c.Args = append(c.Args, x)

		if !p.is(",") {
			break
		}

		p.next()

		if p.is(")") {
			return nil, p.errorf(p.peek().Loc, "expected an argument, got %v", p.peek())
		}
	}

	_, err := p.expect(")")
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (p *parser) parseBranch() (_ ast.Expr, err error) {
	t := p.next()

	b := &ast.Branch{Base: ast.At(t.Loc)}

	b.Cond, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	_, err = p.expect("then")
	if err != nil {
		return nil, err
	}

	b.Then, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	if !p.is("else") {
		return b, nil
	}

	p.next()

	b.Otherwise, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (p *parser) parseLoop() (_ ast.Expr, err error) {
	t := p.next()

	l := &ast.Loop{Base: ast.At(t.Loc)}

	l.Cond, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	_, err = p.expect("do")
	if err != nil {
		return nil, err
	}

	l.Body, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	return l, nil
}

func (p *parser) parseVar() (_ ast.Expr, err error) {
	t := p.next()

	if n := p.peek(); n.Kind != lex.Identifier || reserved[n.Text] {
		return nil, p.errorf(n.Loc, "expected variable name, got %v", n)
	}

	d := &ast.VarDecl{Base: ast.At(t.Loc), Name: p.parseIdent()}

	_, err = p.expect("=")
	if err != nil {
		return nil, err
	}

	d.Value, err = p.parseExpr(false)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (p *parser) parseBlock() (ast.Expr, error) {
	t := p.next()

	b := &ast.Block{Base: ast.At(t.Loc)}

	if p.is("}") {
		p.next()
		b.Exprs = []ast.Expr{nil}

		return b, nil
	}

	l, err := p.parseSequence("}")
	if err != nil {
		return nil, err
	}

	b.Exprs = l

	p.next() // }

	return b, nil
}

func (p *parser) peek() lex.Token {
	if p.i < len(p.toks) {
		return p.toks[p.i]
	}

	return p.end()
}

func (p *parser) next() lex.Token {
	t := p.peek()

	if p.i < len(p.toks) {
		p.i++
	}

	return t
}

// end synthesizes the end of input token right after the last one.
func (p *parser) end() lex.Token {
	t := lex.Token{Kind: lex.End}

	if n := len(p.toks); n != 0 {
		last := p.toks[n-1]
		t.Loc = pos.Location{Line: last.Loc.Line, Column: last.Loc.Column + utf8.RuneCountInString(last.Text)}
	}

	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()

	return t.Kind != lex.End && t.Text == text
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.Kind != lex.Operator {
		return false
	}

	for _, op := range ops {
		if t.Text == op {
			return true
		}
	}

	return false
}

func (p *parser) atEnd(end string) bool {
	if end == "" {
		return p.peek().Kind == lex.End
	}

	return p.is(end)
}

// afterBlock reports whether the last consumed token closed a block.
func (p *parser) afterBlock() bool {
	if p.i == 0 {
		return false
	}

	t := p.toks[p.i-1]

	return t.Kind == lex.Punctuation && t.Text == "}"
}

func (p *parser) expect(text string) (lex.Token, error) {
	if !p.is(text) {
		return lex.Token{}, p.errorf(p.peek().Loc, "expected %q, got %v", text, p.peek())
	}

	return p.next(), nil
}

func (p *parser) errorf(l pos.Location, f string, args ...any) error {
	return diag.New(diag.Syntax, l, f, args...)
}
