// Package parser implements a recursive-descent parser from SecreC
// token streams (internal/lexer) to the AST in internal/ast. Spec §1
// treats parsing as an opaque `parse(source) -> AST` collaborator;
// this is the concrete implementation, grounded in the teacher's
// internal/parser/parser.go (a hand-written recursive-descent parser
// over its own Scanner, no parser-generator dependency) generalized
// to SecreC's typed declarations and control flow.
package parser

import (
	"fmt"

	"secrec/internal/ast"
	"secrec/internal/lexer"
)

var dataTypeKeywords = map[string]bool{
	"bool": true, "string": true,
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"xor_uint8": true, "xor_uint16": true, "xor_uint32": true, "xor_uint64": true,
	"float32": true, "float64": true,
}

// Parser holds the token cursor for one source file.
type Parser struct {
	file    string
	tokens  []lexer.Token
	idx     int
	curProc *ast.ProcDecl
}

// Parse lexes and parses src in one call, the top-level entry point
// SecreC's `parse(source) -> AST` collaborator boundary describes.
func Parse(file, src string) (*ast.Program, error) {
	toks, err := lexer.New(file, src).Scan()
	if err != nil {
		return nil, err
	}
	p := &Parser{file: file, tokens: toks}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token { return p.tokens[p.idx] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.idx+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.idx+n]
}
func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return t
}

func (p *Parser) check(tt lexer.TokenType) bool { return p.cur().Type == tt }
func (p *Parser) checkKeyword(kw string) bool {
	return p.cur().Type == lexer.TokKeyword && p.cur().Lexeme == kw
}
func (p *Parser) checkOp(op string) bool {
	return p.cur().Type == lexer.TokOp && p.cur().Lexeme == op
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if !p.check(tt) {
		return lexer.Token{}, p.errorf("expected %s, got %q", what, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.checkKeyword(kw) {
		return p.errorf("expected keyword %q, got %q", kw, p.cur().Lexeme)
	}
	p.advance()
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	t := p.cur()
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s:%d:%d: %s", p.file, t.Line, t.Column, msg)
}

func (p *Parser) pos() ast.Pos {
	t := p.cur()
	return ast.Pos{File: p.file, Line: t.Line, Column: t.Column}
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.check(lexer.TokEOF) {
		switch {
		case p.checkKeyword("import"):
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			prog.Imports = append(prog.Imports, *imp)
		case p.checkKeyword("kind"):
			kd, err := p.parseKind()
			if err != nil {
				return nil, err
			}
			prog.Kinds = append(prog.Kinds, *kd)
		case p.checkKeyword("domain"):
			dd, err := p.parseDomain()
			if err != nil {
				return nil, err
			}
			prog.Domains = append(prog.Domains, *dd)
		default:
			proc, err := p.parseProcDecl()
			if err != nil {
				return nil, err
			}
			prog.Procs = append(prog.Procs, proc)
		}
	}
	return prog, nil
}

func (p *Parser) parseImport() (*ast.Import, error) {
	pos := p.pos()
	p.advance() // "import"
	name, err := p.expect(lexer.TokIdent, "module name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &ast.Import{Pos: pos, Path: name.Lexeme}, nil
}

func (p *Parser) parseKind() (*ast.KindDecl, error) {
	pos := p.pos()
	p.advance() // "kind"
	name, err := p.expect(lexer.TokIdent, "kind name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &ast.KindDecl{Pos: pos, Name: name.Lexeme}, nil
}

func (p *Parser) parseDomain() (*ast.DomainDecl, error) {
	pos := p.pos()
	p.advance() // "domain"
	name, err := p.expect(lexer.TokIdent, "domain name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return nil, err
	}
	kindName, err := p.expect(lexer.TokIdent, "kind name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &ast.DomainDecl{Pos: pos, Name: name.Lexeme, KindName: kindName.Lexeme}, nil
}

func (p *Parser) isTypeStart() bool {
	if p.checkKeyword("public") {
		return true
	}
	if p.check(lexer.TokKeyword) && dataTypeKeywords[p.cur().Lexeme] {
		return true
	}
	if p.check(lexer.TokIdent) {
		nxt := p.peekAt(1)
		if nxt.Type == lexer.TokKeyword && dataTypeKeywords[nxt.Lexeme] {
			return true // domain-qualified: `pd3 int64 ...`
		}
	}
	return false
}

func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	te := ast.TypeExpr{Pos: p.pos(), SecName: "public"}
	if p.checkKeyword("public") {
		p.advance()
	} else if p.check(lexer.TokIdent) {
		// A leading identifier is the SecName (a domain, e.g. `pd3
		// int64`) only when a data type follows it; a template
		// declaration's `D T x` has two identifiers in a row (domain
		// template param D, type template param T), so a following
		// identifier also counts as "a data type follows" when a name
		// or a `[[` suffix comes after it. In `T identity(` or `T x)`
		// the leading identifier is the data type itself.
		nxt := p.peekAt(1)
		if nxt.Type == lexer.TokKeyword && dataTypeKeywords[nxt.Lexeme] {
			te.SecName = p.advance().Lexeme
		} else if after := p.peekAt(2).Type; nxt.Type == lexer.TokIdent && (after == lexer.TokIdent || after == lexer.TokLBracket) {
			te.SecName = p.advance().Lexeme
		}
	}
	switch {
	case p.check(lexer.TokKeyword) && dataTypeKeywords[p.cur().Lexeme]:
		te.DataName = p.advance().Lexeme
	case p.check(lexer.TokIdent):
		// A bare identifier here names a template type parameter (e.g.
		// the `T` in `template <domain D, type T> D T id(D T x)`).
		te.DataName = p.advance().Lexeme
	default:
		return te, p.errorf("expected a data type, got %q", p.cur().Lexeme)
	}
	if p.check(lexer.TokLBracket) && p.peekAt(1).Type == lexer.TokLBracket {
		p.advance()
		p.advance()
		n, err := p.expect(lexer.TokIntLit, "dimension count")
		if err != nil {
			return te, err
		}
		te.Dim = int(n.IntValue)
		if _, err := p.expect(lexer.TokRBracket, "']'"); err != nil {
			return te, err
		}
		if _, err := p.expect(lexer.TokRBracket, "']'"); err != nil {
			return te, err
		}
	}
	return te, nil
}

func (p *Parser) parseProcDecl() (*ast.ProcDecl, error) {
	pos := p.pos()
	proc := &ast.ProcDecl{Pos: pos}
	if p.checkKeyword("template") {
		p.advance()
		if !p.checkOp("<") {
			return nil, p.errorf("expected '<' after template")
		}
		p.advance()
		for !p.checkOp(">") {
			var tp ast.TemplateParamDecl
			if p.checkKeyword("domain") {
				tp.IsDomain = true
				p.advance()
			} else if p.checkKeyword("type") {
				p.advance()
			} else {
				return nil, p.errorf("expected 'domain' or 'type' in template parameter list")
			}
			name, err := p.expect(lexer.TokIdent, "template parameter name")
			if err != nil {
				return nil, err
			}
			tp.Name = name.Lexeme
			proc.TemplateParams = append(proc.TemplateParams, tp)
			if p.check(lexer.TokComma) {
				p.advance()
			}
		}
		p.advance() // '>'
	}

	if p.checkKeyword("void") {
		p.advance()
		proc.IsVoid = true
	} else {
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		proc.Return = te
	}
	name, err := p.expect(lexer.TokIdent, "procedure name")
	if err != nil {
		return nil, err
	}
	proc.Name = name.Lexeme

	if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
		return nil, err
	}
	for !p.check(lexer.TokRParen) {
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(lexer.TokIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		proc.Params = append(proc.Params, ast.Param{Name: pname.Lexeme, Type: te})
		if p.check(lexer.TokComma) {
			p.advance()
		}
	}
	p.advance() // ')'

	p.curProc = proc
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	proc.Body = body
	return proc, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	blk := ast.NewBlock(pos, p.curProc)
	for !p.check(lexer.TokRBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
	p.advance() // '}'
	return blk, nil
}
