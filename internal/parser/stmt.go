package parser

import (
	"secrec/internal/ast"
	"secrec/internal/lexer"
)

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.check(lexer.TokLBrace):
		return p.parseBlock()
	case p.checkKeyword("if"):
		return p.parseIf()
	case p.checkKeyword("while"):
		return p.parseWhile()
	case p.checkKeyword("for"):
		return p.parseFor()
	case p.checkKeyword("break"):
		pos := p.pos()
		p.advance()
		if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return ast.NewBreak(pos, p.curProc), nil
	case p.checkKeyword("continue"):
		pos := p.pos()
		p.advance()
		if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return ast.NewContinue(pos, p.curProc), nil
	case p.checkKeyword("return"):
		pos := p.pos()
		p.advance()
		if p.check(lexer.TokSemicolon) {
			p.advance()
			return ast.NewReturn(pos, p.curProc, nil), nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return ast.NewReturn(pos, p.curProc, e), nil
	case p.isTypeStart():
		return p.parseVarDecl()
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	pos := p.pos()
	te, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokIdent, "variable name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.checkOp("=") {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return ast.NewVarDecl(pos, p.curProc, name.Lexeme, te, init), nil
}

func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	pos := p.pos()
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.checkOp("=") {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return ast.NewAssign(pos, p.curProc, lhs, rhs), nil
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return ast.NewExprStmt(pos, p.curProc, lhs), nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.pos()
	p.advance() // "if"
	if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.checkKeyword("else") {
		p.advance()
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIf(pos, p.curProc, cond, then, els), nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	pos := p.pos()
	p.advance() // "while"
	if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(pos, p.curProc, cond, body), nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	pos := p.pos()
	p.advance() // "for"
	if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
		return nil, err
	}
	var initStmt ast.Stmt
	if !p.check(lexer.TokSemicolon) {
		var err error
		if p.isTypeStart() {
			initStmt, err = p.parseVarDeclNoConsumeSemi()
		} else {
			initStmt, err = p.parseAssignNoConsumeSemi()
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	var cond ast.Expr
	if !p.check(lexer.TokSemicolon) {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	var post ast.Stmt
	if !p.check(lexer.TokRParen) {
		var err error
		post, err = p.parseAssignNoConsumeSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewFor(pos, p.curProc, initStmt, cond, post, body), nil
}

// parseVarDeclNoConsumeSemi/parseAssignNoConsumeSemi parse a for-loop
// clause without requiring (or consuming) the statement-terminating
// semicolon, since the for-loop's own grammar supplies that.
func (p *Parser) parseVarDeclNoConsumeSemi() (ast.Stmt, error) {
	pos := p.pos()
	te, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokIdent, "variable name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.checkOp("=") {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewVarDecl(pos, p.curProc, name.Lexeme, te, init), nil
}

func (p *Parser) parseAssignNoConsumeSemi() (ast.Stmt, error) {
	pos := p.pos()
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.checkOp("=") {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(pos, p.curProc, lhs, rhs), nil
	}
	return ast.NewExprStmt(pos, p.curProc, lhs), nil
}
