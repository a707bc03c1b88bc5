// Package parser implements Eä's recursive-descent parser with Pratt-style
// precedence climbing for expressions (spec §4.2).
package parser

import (
	"fmt"

	"github.com/dekarrin/eac/internal/ast"
	"github.com/dekarrin/eac/internal/diag"
	"github.com/dekarrin/eac/internal/lexer"
	"github.com/dekarrin/eac/internal/token"
	"github.com/dekarrin/eac/internal/types"
)

// maxStuckIterations bounds how many times the parser will retry at the same
// token position before the forward-progress watchdog force-advances. The
// source repo this design is modeled on exhibited exactly this bug (spec §9:
// "Parser stuck at position N for 6 iterations, forcing advance"); the
// watchdog below is the fix, not an optimization.
const maxStuckIterations = 6

// Parser holds the transient state of a single parse.
type Parser struct {
	stream *lexer.Stream
	bag    diag.Bag

	// forward-progress watchdog state
	lastStuckPos   int
	stuckIterCount int
}

// Parse tokenizes and parses a full compilation unit. Parsing never panics;
// all failures are reported through the returned diagnostics, and parsing
// always terminates (spec §8: "Parser forward progress").
func Parse(file string, src []byte) (*ast.File, []diag.Diagnostic) {
	stream, lexErr := lexer.Lex(file, src)
	if lexErr != nil {
		return nil, []diag.Diagnostic{*lexErr}
	}
	p := &Parser{stream: stream}
	f := p.parseFile()
	return f, p.bag.Errors()
}

func (p *Parser) errorf(tok token.Token, kind diag.Kind, format string, args ...interface{}) {
	p.bag.Add(diag.Diagnostic{
		Phase:      diag.Parse,
		Kind:       kind,
		Pos:        tok.Pos,
		Message:    fmt.Sprintf(format, args...),
		SourceLine: tok.FullLine,
	})
}

func (p *Parser) parseFile() *ast.File {
	f := &ast.File{}
	for p.stream.Peek().Class != token.EOF {
		before := p.stream.Mark()
		decl := p.parseTopLevelDecl()
		if decl != nil {
			f.Decls = append(f.Decls, decl)
		}
		p.watchdog(before)
	}
	return f
}

// watchdog implements spec §4.2's forward-progress guarantee: it runs after
// each top-level declaration or block-statement parse attempt, and once
// maxStuckIterations consecutive attempts have left the cursor at the same
// position, it force-consumes one token and emits a secondary diagnostic,
// rather than looping forever on pathological input.
func (p *Parser) watchdog(before int) {
	after := p.stream.Mark()
	if after > before {
		p.stuckIterCount = 0
		return
	}
	if p.lastStuckPos != before {
		p.lastStuckPos = before
		p.stuckIterCount = 0
	}
	p.stuckIterCount++
	if p.stuckIterCount >= maxStuckIterations {
		tok := p.stream.Peek()
		p.errorf(tok, diag.KindWatchdog, "parser stuck at position %d, forcing advance past %s", before, tok)
		if tok.Class != token.EOF {
			p.stream.Next()
		}
		p.stuckIterCount = 0
	}
}

// syncToStatementBoundary is the error-recovery strategy of spec §4.2: skip
// tokens until a ';' at the current scope depth or a matching '}' is found.
// It always consumes at least one token, so every recovery path either
// consumes input or reaches EOF — never returning control at the same
// position it started, which is what the historical infinite-loop bug relied
// on (spec §9).
func (p *Parser) syncToStatementBoundary() {
	depth := 0
	if p.stream.Peek().Class == token.EOF {
		return
	}
	p.stream.Next()
	for {
		tok := p.stream.Peek()
		switch tok.Class {
		case token.EOF:
			return
		case token.LBrace:
			depth++
			p.stream.Next()
		case token.RBrace:
			if depth == 0 {
				p.stream.Next()
				return
			}
			depth--
			p.stream.Next()
		case token.Semicolon:
			p.stream.Next()
			if depth == 0 {
				return
			}
		default:
			p.stream.Next()
		}
	}
}

func (p *Parser) expect(c token.Class) (token.Token, bool) {
	tok := p.stream.Peek()
	if tok.Class != c {
		p.errorf(tok, diag.KindUnexpectedToken, "expected %s, found %s", c.Human(), tok.Class.Human())
		return tok, false
	}
	return p.stream.Next(), true
}

func (p *Parser) parseTopLevelDecl() ast.Stmt {
	tok := p.stream.Peek()
	switch {
	case tok.Class == token.Keyword && tok.Lexeme == "func":
		return p.parseFuncDecl()
	case tok.Class == token.Keyword && tok.Lexeme == "struct":
		return p.parseStructDecl()
	default:
		p.errorf(tok, diag.KindUnexpectedToken, "expected a top-level 'func' or 'struct' declaration, found %s", tok.Class.Human())
		p.syncToStatementBoundary()
		return nil
	}
}

func (p *Parser) parseType() (types.Type, bool) {
	tok := p.stream.Peek()
	if tok.Class != token.Keyword && tok.Class != token.Ident {
		p.errorf(tok, diag.KindUnexpectedToken, "expected a type name, found %s", tok.Class.Human())
		return types.Type{}, false
	}
	if t, ok := types.SIMDFromSuffix(tok.Lexeme); ok {
		p.stream.Next()
		return t, true
	}
	if t, ok := types.FromName(tok.Lexeme); ok {
		p.stream.Next()
		return t, true
	}
	p.errorf(tok, diag.KindUnexpectedToken, "unknown type name %q", tok.Lexeme)
	p.stream.Next()
	return types.Type{}, false
}

func (p *Parser) parseFuncDecl() ast.Stmt {
	start := p.stream.Next() // 'func'
	name, _ := p.expect(token.Ident)

	decl := &ast.FuncDecl{}
	decl.SetPos(start.Pos)
	decl.Name = name.Lexeme

	if _, ok := p.expect(token.LParen); ok {
		for p.stream.Peek().Class != token.RParen && p.stream.Peek().Class != token.EOF {
			pname, _ := p.expect(token.Ident)
			p.expect(token.Colon)
			ptyp, _ := p.parseType()
			decl.Params = append(decl.Params, ast.Param{Name: pname.Lexeme, Typ: ptyp, Pos: pname.Pos})
			if p.stream.Peek().Class == token.Comma {
				p.stream.Next()
			} else {
				break
			}
		}
		p.expect(token.RParen)
	}

	// return type defaults to unit when no annotation is given (spec §4.2,
	// normalized here rather than left to sema so every FuncDecl.ReturnType
	// is always populated).
	decl.ReturnType = types.TUnit
	if p.stream.Peek().Class == token.Arrow {
		p.stream.Next()
		// `-> ()` is accepted as an explicit spelling of the unit return
		// type, alongside the `unit` keyword; both normalize identically.
		if p.stream.Peek().Class == token.LParen && p.stream.PeekAt(1).Class == token.RParen {
			p.stream.Next()
			p.stream.Next()
		} else if rt, ok := p.parseType(); ok {
			decl.ReturnType = rt
		}
	}

	decl.Body = p.parseBlock()
	return decl
}

func (p *Parser) parseStructDecl() ast.Stmt {
	start := p.stream.Next() // 'struct'
	name, _ := p.expect(token.Ident)
	decl := &ast.StructDecl{Name: name.Lexeme}
	decl.SetPos(start.Pos)

	if _, ok := p.expect(token.LBrace); ok {
		for p.stream.Peek().Class != token.RBrace && p.stream.Peek().Class != token.EOF {
			fname, _ := p.expect(token.Ident)
			p.expect(token.Colon)
			ftyp, _ := p.parseType()
			decl.Fields = append(decl.Fields, ast.FieldDecl{Name: fname.Lexeme, Typ: ftyp})
			if p.stream.Peek().Class == token.Comma {
				p.stream.Next()
			} else {
				break
			}
		}
		p.expect(token.RBrace)
	}
	return decl
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start, _ := p.expect(token.LBrace)
	block := &ast.BlockStmt{}
	block.SetPos(start.Pos)

	for p.stream.Peek().Class != token.RBrace && p.stream.Peek().Class != token.EOF {
		before := p.stream.Mark()
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		p.watchdog(before)
	}
	p.expect(token.RBrace)
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.stream.Peek()

	if tok.Class == token.Keyword {
		switch tok.Lexeme {
		case "let":
			return p.parseLetStmt()
		case "return":
			return p.parseReturnStmt()
		case "if":
			return p.parseIfStmt()
		case "while":
			return p.parseWhileStmt()
		case "for":
			return p.parseForStmt()
		case "func":
			return p.parseFuncDecl()
		case "struct":
			return p.parseStructDecl()
		}
	}
	if tok.Class == token.LBrace {
		return p.parseBlock()
	}

	return p.parseSimpleStmt()
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.stream.Next() // 'let'
	stmt := &ast.LetStmt{}
	stmt.SetPos(start.Pos)

	if p.stream.Peek().Class == token.Keyword && p.stream.Peek().Lexeme == "mut" {
		p.stream.Next()
		stmt.Mutable = true
	}

	name, _ := p.expect(token.Ident)
	stmt.Name = name.Lexeme

	if p.stream.Peek().Class == token.Colon {
		p.stream.Next()
		if t, ok := p.parseType(); ok {
			stmt.Annotated = t
			stmt.HasAnnot = true
		}
	}

	if _, ok := p.expect(token.Assign); !ok {
		// recovery: the historical infinite-loop bug (spec §9) was a recovery
		// branch that returned without consuming a token at the error site;
		// here expect consumes on success, and on failure this branch calls
		// syncToStatementBoundary, which consumes at least one token unless
		// already at EOF.
		p.syncToStatementBoundary()
		return stmt
	}

	stmt.Init = p.parseExpr(lbpNone)
	p.expect(token.Semicolon)
	return stmt
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.stream.Next() // 'return'
	stmt := &ast.ReturnStmt{}
	stmt.SetPos(start.Pos)

	if p.stream.Peek().Class != token.Semicolon {
		stmt.Value = p.parseExpr(lbpNone)
	}
	p.expect(token.Semicolon)
	return stmt
}

func (p *Parser) parseCondHeader() ast.Expr {
	p.expect(token.LParen)
	cond := p.parseExpr(lbpNone)
	p.expect(token.RParen)
	return cond
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.stream.Next() // 'if'
	stmt := &ast.IfStmt{}
	stmt.SetPos(start.Pos)
	stmt.Cond = p.parseCondHeader()
	stmt.Then = p.parseBlock()

	if p.stream.Peek().Class == token.Keyword && p.stream.Peek().Lexeme == "else" {
		p.stream.Next()
		if p.stream.Peek().Class == token.Keyword && p.stream.Peek().Lexeme == "if" {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseBlock()
		}
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.stream.Next() // 'while'
	stmt := &ast.WhileStmt{}
	stmt.SetPos(start.Pos)
	stmt.Cond = p.parseCondHeader()
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.stream.Next() // 'for'
	stmt := &ast.ForStmt{}
	stmt.SetPos(start.Pos)

	p.expect(token.LParen)
	if p.stream.Peek().Class != token.Semicolon {
		stmt.Init = p.parseSimpleStmtNoConsumeSemi()
	}
	p.expect(token.Semicolon)
	if p.stream.Peek().Class != token.Semicolon {
		stmt.Cond = p.parseExpr(lbpNone)
	}
	p.expect(token.Semicolon)
	if p.stream.Peek().Class != token.RParen {
		stmt.Step = p.parseSimpleStmtNoConsumeSemi()
	}
	p.expect(token.RParen)
	stmt.Body = p.parseBlock()
	return stmt
}

// parseSimpleStmt parses an assignment or bare expression statement
// terminated by ';'.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	s := p.parseSimpleStmtNoConsumeSemi()
	p.expect(token.Semicolon)
	return s
}

// parseSimpleStmtNoConsumeSemi parses the non-';' portion of a simple
// statement; used both at normal statement position and inside a for-loop's
// init/step clauses, which are not semicolon-terminated themselves.
func (p *Parser) parseSimpleStmtNoConsumeSemi() ast.Stmt {
	startTok := p.stream.Peek()
	expr := p.parseExpr(lbpNone)

	if bin, ok := expr.(*ast.BinaryExpr); ok && bin.Op == token.Assign {
		stmt := &ast.AssignStmt{Target: bin.Left, Value: bin.Right}
		stmt.SetPos(startTok.Pos)
		return stmt
	}
	stmt := &ast.ExprStmt{X: expr}
	stmt.SetPos(startTok.Pos)
	return stmt
}

// ---- expressions: Pratt precedence climbing ----

func (p *Parser) parseExpr(rbp int) ast.Expr {
	tok := p.stream.Next()
	left := p.nud(tok)
	if left == nil {
		p.errorf(tok, diag.KindUnexpectedToken, "unexpected %s (cannot start an expression)", tok.Class.Human())
		return errExpr(tok)
	}

	for rbp < lbp(p.stream.Peek().Class) {
		opTok := p.stream.Next()
		left = p.led(left, opTok)
	}
	return left
}

// errExpr produces a placeholder expression node so the parser can continue
// building a tree after an error, rather than aborting the whole parse.
func errExpr(tok token.Token) ast.Expr {
	e := &ast.Ident{Name: "<error>"}
	e.SetPos(tok.Pos)
	return e
}

func (p *Parser) nud(tok token.Token) ast.Expr {
	switch tok.Class {
	case token.IntLiteral:
		e := &ast.IntLit{Text: tok.Lexeme, Suffix: tok.Suffix}
		e.SetPos(tok.Pos)
		return e
	case token.FloatLiteral:
		e := &ast.FloatLit{Text: tok.Lexeme, Suffix: tok.Suffix}
		e.SetPos(tok.Pos)
		return e
	case token.BoolLiteral:
		e := &ast.BoolLit{Value: tok.Lexeme == "true"}
		e.SetPos(tok.Pos)
		return e
	case token.StringLiteral:
		e := &ast.StringLit{Value: tok.Lexeme}
		e.SetPos(tok.Pos)
		return e
	case token.Ident:
		e := &ast.Ident{Name: tok.Lexeme}
		e.SetPos(tok.Pos)
		return e
	case token.Keyword:
		if tok.Lexeme == "if" {
			return p.parseIfExpr(tok)
		}
		return nil
	case token.Minus, token.Bang, token.Tilde:
		operand := p.parseExpr(lbpMultiplic + 1) // unary binds tighter than any binary op
		e := &ast.UnaryExpr{Op: tok.Class, Operand: operand}
		e.SetPos(tok.Pos)
		return e
	case token.LParen:
		inner := p.parseExpr(lbpNone)
		p.expect(token.RParen)
		return inner
	case token.LBrace:
		return p.parseBlockExprFrom(tok)
	case token.LBracket:
		return p.parseArrayOrSIMDLit(tok)
	default:
		return nil
	}
}

func (p *Parser) led(left ast.Expr, tok token.Token) ast.Expr {
	switch tok.Class {
	case token.Assign:
		// right-associative: recurse at one less than this level so a
		// chained `a = b = c` nests as a = (b = c).
		right := p.parseExpr(lbpAssign - 1)
		e := &ast.BinaryExpr{Op: tok.Class, Left: left, Right: right}
		e.SetPos(left.Pos())
		return e
	case token.LParen:
		return p.parseCallArgs(left, tok)
	case token.LBracket:
		idx := p.parseExpr(lbpNone)
		p.expect(token.RBracket)
		e := &ast.IndexExpr{Base: left, Index: idx}
		e.SetPos(left.Pos())
		return e
	case token.Dot:
		name, _ := p.expect(token.Ident)
		e := &ast.FieldExpr{Base: left, Field: name.Lexeme}
		e.SetPos(left.Pos())
		return e
	default:
		right := p.parseExpr(lbp(tok.Class))
		e := &ast.BinaryExpr{Op: tok.Class, Left: left, Right: right}
		e.SetPos(left.Pos())
		return e
	}
}

func (p *Parser) parseCallArgs(callee ast.Expr, openParen token.Token) ast.Expr {
	call := &ast.CallExpr{Callee: callee}
	call.SetPos(callee.Pos())
	for p.stream.Peek().Class != token.RParen && p.stream.Peek().Class != token.EOF {
		call.Args = append(call.Args, p.parseExpr(lbpAssign))
		if p.stream.Peek().Class == token.Comma {
			p.stream.Next()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	return call
}

func (p *Parser) parseArrayOrSIMDLit(openBracket token.Token) ast.Expr {
	lit := &ast.ArrayLit{}
	lit.SetPos(openBracket.Pos)
	for p.stream.Peek().Class != token.RBracket && p.stream.Peek().Class != token.EOF {
		lit.Elements = append(lit.Elements, p.parseExpr(lbpAssign))
		if p.stream.Peek().Class == token.Comma {
			p.stream.Next()
		} else {
			break
		}
	}
	p.expect(token.RBracket)

	// A SIMD suffix, when present, immediately follows the closing ']' with
	// no intervening operator (spec §4.1).
	if next := p.stream.Peek(); next.Class == token.Ident && lexer.IsSIMDSuffix(next.Lexeme) {
		p.stream.Next()
		lit.SIMDSuffix = next.Lexeme
	}
	return lit
}

func (p *Parser) isStmtKeyword(tok token.Token) bool {
	if tok.Class != token.Keyword {
		return false
	}
	switch tok.Lexeme {
	case "let", "return", "if", "while", "for", "func", "struct":
		return true
	default:
		return false
	}
}

// parseBlockExprFrom parses a brace-delimited block used in expression
// position (spec §3: "block" expression). Unlike parseBlock (always a
// statement), the final bare expression in such a block — one with no
// trailing ';' — becomes the block's value.
func (p *Parser) parseBlockExprFrom(openBrace token.Token) *ast.BlockExpr {
	block := &ast.BlockExpr{}
	block.SetPos(openBrace.Pos)

	for p.stream.Peek().Class != token.RBrace && p.stream.Peek().Class != token.EOF {
		before := p.stream.Mark()
		tok := p.stream.Peek()

		if p.isStmtKeyword(tok) || tok.Class == token.LBrace {
			stmt := p.parseStatement()
			if stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
			}
			p.watchdog(before)
			continue
		}

		startTok := tok
		expr := p.parseExpr(lbpNone)
		if p.stream.Peek().Class == token.Semicolon {
			p.stream.Next()
			stmt := p.simpleStmtFromExpr(startTok, expr)
			block.Stmts = append(block.Stmts, stmt)
		} else {
			block.Tail = expr
		}
		p.watchdog(before)
	}
	p.expect(token.RBrace)
	return block
}

func (p *Parser) simpleStmtFromExpr(startTok token.Token, expr ast.Expr) ast.Stmt {
	if bin, ok := expr.(*ast.BinaryExpr); ok && bin.Op == token.Assign {
		stmt := &ast.AssignStmt{Target: bin.Left, Value: bin.Right}
		stmt.SetPos(startTok.Pos)
		return stmt
	}
	stmt := &ast.ExprStmt{X: expr}
	stmt.SetPos(startTok.Pos)
	return stmt
}

func (p *Parser) parseIfExpr(ifTok token.Token) ast.Expr {
	cond := p.parseCondHeader()
	openBrace, _ := p.expect(token.LBrace)
	then := p.parseBlockExprFrom(openBrace)

	e := &ast.CondExpr{Cond: cond, Then: then}
	e.SetPos(ifTok.Pos)

	if p.stream.Peek().Class == token.Keyword && p.stream.Peek().Lexeme == "else" {
		p.stream.Next()
		if p.stream.Peek().Class == token.Keyword && p.stream.Peek().Lexeme == "if" {
			elseTok := p.stream.Next()
			e.Else = p.parseIfExpr(elseTok)
		} else {
			elseOpenBrace, _ := p.expect(token.LBrace)
			e.Else = p.parseBlockExprFrom(elseOpenBrace)
		}
	}
	return e
}
