// Package parser builds Quadrate syntax trees. It is a recursive descent
// parser with statement-level error recovery: malformed input produces
// diagnostics, never a missing tree.
package parser

import (
	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/diag"
	"github.com/quadrate-lang/quadrate/lexer"
)

// Result is what a parse produces. Root is always non-nil, even when Errors
// is not empty; error recovery synthesizes the missing structure.
type Result struct {
	Root   *ast.Node
	Errors []diag.Diagnostic
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Result) HasErrors() bool {
	return diag.HasErrors(r.Errors)
}

type parser struct {
	tokens   []lexer.Token
	pos      int
	filename string
	errors   []diag.Diagnostic

	inFunction  bool
	loopDepth   int
	switchDepth int
}

// Parse parses source into a tree. filename is used for diagnostics only and
// may be empty.
func Parse(source, filename string) *Result {
	p := &parser{filename: filename}
	s := lexer.New(source)
	for {
		tok := s.Next()
		if tok.Kind == lexer.Err {
			p.errors = append(p.errors, diag.Errorf(diag.Lexical, p.spanOf(tok), "invalid token %q", tok.Lexeme))
			continue
		}
		p.tokens = append(p.tokens, tok)
		if tok.Kind == lexer.EOF {
			break
		}
	}

	root := ast.New(ast.Program, ast.Position{Line: 1, Column: 1})
	p.parseProgram(root)
	return &Result{Root: root, Errors: p.errors}
}

func (p *parser) cur() lexer.Token { return p.tokens[p.pos] }

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind lexer.Kind) bool { return p.cur().Kind == kind }

func (p *parser) atKeyword(kw string) bool {
	return p.cur().Kind == lexer.Ident && p.cur().Lexeme == kw
}

func (p *parser) spanOf(tok lexer.Token) diag.Span {
	return diag.Span{
		File:   p.filename,
		Line:   tok.Line,
		Column: tok.Column,
		Offset: tok.Offset,
		Length: len(tok.Lexeme),
	}
}

func (p *parser) posOf(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column, Offset: tok.Offset, Length: len(tok.Lexeme)}
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) {
	p.errors = append(p.errors, diag.Errorf(diag.Syntactic, p.spanOf(tok), format, args...))
}

// expect consumes a token of the given kind or records a diagnostic and
// leaves the cursor in place.
func (p *parser) expect(kind lexer.Kind, context string) (lexer.Token, bool) {
	if p.at(kind) {
		return p.next(), true
	}
	p.errorf(p.cur(), "expected %s %s, found %s", kind, context, describe(p.cur()))
	return p.cur(), false
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EOF:
		return "end of file"
	case lexer.Ident, lexer.Int, lexer.Float, lexer.Str:
		return "'" + tok.Lexeme + "'"
	default:
		return tok.Kind.String()
	}
}

var statementKeywords = map[string]struct{}{
	"if": {}, "for": {}, "switch": {}, "case": {}, "default": {},
	"defer": {}, "return": {}, "break": {}, "continue": {},
	"const": {}, "use": {}, "fn": {}, "else": {},
}

func isStatementKeyword(tok lexer.Token) bool {
	if tok.Kind != lexer.Ident {
		return false
	}
	_, ok := statementKeywords[tok.Lexeme]
	return ok
}

func (p *parser) parseProgram(root *ast.Node) {
	for !p.at(lexer.EOF) {
		tok := p.cur()
		switch {
		case p.atKeyword("use"):
			root.AppendChild(p.parseUse())
		case p.atKeyword("const"):
			root.AppendChild(p.parseConst())
		case p.atKeyword("fn"):
			root.AppendChild(p.parseFunction())
		default:
			p.errorf(tok, "expected 'use', 'const' or 'fn' at top level, found %s", describe(tok))
			p.next()
		}
	}
}

func (p *parser) parseUse() *ast.Node {
	useTok := p.next() // 'use'
	node := ast.New(ast.UseStatement, p.posOf(useTok))
	if name, ok := p.expect(lexer.Ident, "after 'use'"); ok {
		module := name.Lexeme
		// A sibling-file reference reads as `use helpers.qd`; the lexer splits
		// that into byte-adjacent identifier tokens which are rejoined here.
		for p.at(lexer.Ident) && p.cur().Offset == name.Offset+len(module) {
			module += p.next().Lexeme
		}
		node.Name = module
	}
	return node
}

func (p *parser) parseConst() *ast.Node {
	constTok := p.next() // 'const'
	node := ast.New(ast.ConstantDeclaration, p.posOf(constTok))
	name, ok := p.expect(lexer.Ident, "after 'const'")
	if !ok {
		return node
	}
	node.Name = name.Lexeme
	if p.at(lexer.Ident) && p.cur().Lexeme == "=" {
		p.next()
	} else {
		p.errorf(p.cur(), "expected '=' after constant name '%s'", node.Name)
	}
	switch p.cur().Kind {
	case lexer.Int, lexer.Float, lexer.Str:
		node.AppendChild(p.parseLiteral())
	default:
		p.errorf(p.cur(), "expected literal value for constant '%s', found %s", node.Name, describe(p.cur()))
	}
	return node
}

func (p *parser) parseFunction() *ast.Node {
	fnTok := p.next() // 'fn'
	node := ast.New(ast.FunctionDeclaration, p.posOf(fnTok))

	name, ok := p.expect(lexer.Ident, "after 'fn'")
	if ok {
		node.Name = name.Lexeme
	}

	if _, ok := p.expect(lexer.LParen, "after function name"); ok {
		node.Inputs = p.parseParams(node)
		if p.at(lexer.DashDash) {
			p.next()
			node.Outputs = p.parseParams(node)
		}
		p.expect(lexer.RParen, "after parameters")
	}

	wasIn := p.inFunction
	p.inFunction = true
	node.AppendChild(p.parseBlock())
	p.inFunction = wasIn
	return node
}

// parseParams reads parameters until '--', ')' or something unexpected.
// Parameters are attached as children of the owner function.
func (p *parser) parseParams(fn *ast.Node) []*ast.Node {
	var params []*ast.Node
	for p.at(lexer.Ident) || p.at(lexer.Comma) {
		if p.at(lexer.Comma) {
			p.next()
			continue
		}
		name := p.next()
		param := ast.New(ast.Parameter, p.posOf(name))
		param.Name = name.Lexeme
		if p.at(lexer.Colon) {
			p.next()
			if typ, ok := p.expect(lexer.Ident, "after ':' in parameter"); ok {
				param.TypeString = typ.Lexeme
			}
		}
		fn.AppendChild(param)
		params = append(params, param)
	}
	return params
}

func (p *parser) parseBlock() *ast.Node {
	open, ok := p.expect(lexer.LBrace, "to open block")
	block := ast.New(ast.Block, p.posOf(open))
	if !ok {
		return block
	}
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			block.AppendChild(stmt)
		}
	}
	p.expect(lexer.RBrace, "to close block")
	return block
}

// recover drops tokens until a closing brace or the next statement-starting
// keyword so the containing block can resume.
func (p *parser) recover() {
	for !p.at(lexer.EOF) && !p.at(lexer.RBrace) && !isStatementKeyword(p.cur()) {
		p.next()
	}
}

func (p *parser) parseStatement() *ast.Node {
	tok := p.cur()
	switch {
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("switch"):
		return p.parseSwitch()
	case p.atKeyword("defer"):
		return p.parseDefer()
	case p.atKeyword("return"):
		p.next()
		if !p.inFunction {
			p.errorf(tok, "'return' outside of function body")
		}
		return ast.New(ast.ReturnStatement, p.posOf(tok))
	case p.atKeyword("break"):
		p.next()
		if p.loopDepth == 0 && p.switchDepth == 0 {
			p.errorf(tok, "'break' outside of 'for' or 'switch'")
		}
		return ast.New(ast.BreakStatement, p.posOf(tok))
	case p.atKeyword("continue"):
		p.next()
		if p.loopDepth == 0 {
			p.errorf(tok, "'continue' outside of 'for'")
		}
		return ast.New(ast.ContinueStatement, p.posOf(tok))
	case p.atKeyword("const"):
		return p.parseConst()
	case p.atKeyword("case"), p.atKeyword("default"):
		p.errorf(tok, "'%s' outside of 'switch'", tok.Lexeme)
		p.next()
		p.recover()
		return nil
	case p.atKeyword("else"), p.atKeyword("fn"), p.atKeyword("use"):
		p.errorf(tok, "unexpected '%s' in block", tok.Lexeme)
		p.next()
		p.recover()
		return nil
	case p.at(lexer.Arrow):
		p.next()
		node := ast.New(ast.Local, p.posOf(tok))
		if name, ok := p.expect(lexer.Ident, "after '->'"); ok {
			node.Name = name.Lexeme
		}
		return node
	case p.at(lexer.Int), p.at(lexer.Float), p.at(lexer.Str):
		return p.parseLiteral()
	case p.at(lexer.Ident):
		return p.parseIdentStatement()
	default:
		p.errorf(tok, "unexpected %s in block", describe(tok))
		p.next()
		p.recover()
		return nil
	}
}

func (p *parser) parseLiteral() *ast.Node {
	tok := p.next()
	node := ast.New(ast.Literal, p.posOf(tok))
	node.Value = tok.Lexeme
	switch tok.Kind {
	case lexer.Int:
		node.LitKind = ast.IntLiteral
	case lexer.Float:
		node.LitKind = ast.FloatLiteral
	case lexer.Str:
		node.LitKind = ast.StringLiteral
	}
	return node
}

// parseIdentStatement classifies a bare identifier: label, scoped call,
// builtin instruction or plain identifier.
func (p *parser) parseIdentStatement() *ast.Node {
	tok := p.next()

	if p.at(lexer.ColonColon) {
		p.next()
		node := ast.New(ast.ScopedIdentifier, p.posOf(tok))
		node.Scope = tok.Lexeme
		if name, ok := p.expect(lexer.Ident, "after '::'"); ok {
			node.Name = name.Lexeme
		}
		return node
	}

	if p.at(lexer.Colon) {
		p.next()
		node := ast.New(ast.Label, p.posOf(tok))
		node.Name = tok.Lexeme
		return node
	}

	if ast.IsBuiltinInstruction(tok.Lexeme) {
		node := ast.New(ast.Instruction, p.posOf(tok))
		node.Name = tok.Lexeme
		return node
	}

	node := ast.New(ast.Identifier, p.posOf(tok))
	node.Name = tok.Lexeme
	return node
}

func (p *parser) parseIf() *ast.Node {
	tok := p.next() // 'if'
	node := ast.New(ast.IfStatement, p.posOf(tok))
	node.AppendChild(p.parseBlock())
	if p.atKeyword("else") {
		p.next()
		node.AppendChild(p.parseBlock())
	}
	return node
}

func (p *parser) parseFor() *ast.Node {
	tok := p.next() // 'for'
	node := ast.New(ast.ForStatement, p.posOf(tok))
	if p.at(lexer.Ident) && !isStatementKeyword(p.cur()) {
		node.Name = p.next().Lexeme
	}
	p.loopDepth++
	node.AppendChild(p.parseBlock())
	p.loopDepth--
	return node
}

func (p *parser) parseSwitch() *ast.Node {
	tok := p.next() // 'switch'
	node := ast.New(ast.SwitchStatement, p.posOf(tok))
	if _, ok := p.expect(lexer.LBrace, "after 'switch'"); !ok {
		return node
	}
	p.switchDepth++
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		switch {
		case p.atKeyword("case"):
			caseTok := p.next()
			caseNode := ast.New(ast.CaseStatement, p.posOf(caseTok))
			switch p.cur().Kind {
			case lexer.Int, lexer.Float, lexer.Str:
				caseNode.AppendChild(p.parseLiteral())
			case lexer.Ident:
				caseNode.AppendChild(p.parseIdentStatement())
			default:
				p.errorf(p.cur(), "expected case value, found %s", describe(p.cur()))
			}
			caseNode.AppendChild(p.parseBlock())
			node.AppendChild(caseNode)
		case p.atKeyword("default"):
			caseTok := p.next()
			caseNode := ast.New(ast.CaseStatement, p.posOf(caseTok))
			caseNode.Name = "default"
			caseNode.AppendChild(p.parseBlock())
			node.AppendChild(caseNode)
		default:
			p.errorf(p.cur(), "expected 'case' or 'default' in switch, found %s", describe(p.cur()))
			p.next()
			p.recover()
		}
	}
	p.switchDepth--
	p.expect(lexer.RBrace, "to close switch")
	return node
}

func (p *parser) parseDefer() *ast.Node {
	tok := p.next() // 'defer'
	node := ast.New(ast.DeferStatement, p.posOf(tok))
	if p.at(lexer.LBrace) {
		node.AppendChild(p.parseBlock())
	} else if stmt := p.parseStatement(); stmt != nil {
		node.AppendChild(stmt)
	}
	return node
}
