package parser

import (
	"secrec/internal/ast"
	"secrec/internal/lexer"
)

// parseExpr is the precedence-climbing entry point:
// || -> && -> equality -> relational -> additive -> multiplicative
// -> unary -> postfix -> primary.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.checkOp("||") {
		pos := p.pos()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, "||", left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.checkOp("&&") {
		pos := p.pos()
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, "&&", left, right)
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.checkOp("==") || p.checkOp("!=") {
		op := p.cur().Lexeme
		pos := p.pos()
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.checkOp("<") || p.checkOp("<=") || p.checkOp(">") || p.checkOp(">=") {
		op := p.cur().Lexeme
		pos := p.pos()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.checkOp("+") || p.checkOp("-") {
		op := p.cur().Lexeme
		pos := p.pos()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.checkOp("*") || p.checkOp("%") || p.checkOp("/") {
		op := p.cur().Lexeme
		pos := p.pos()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.checkOp("!") || p.checkOp("-") || p.checkOp("~") {
		op := p.cur().Lexeme
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(pos, op, operand), nil
	}
	// An explicit cast `(type) expr` shares the '(' lookahead with a
	// parenthesized expression; isTypeStart() on the token past '('
	// disambiguates since SecreC has no cast-to-identifier form.
	if p.check(lexer.TokLParen) && p.peekAtIsTypeStart(1) {
		pos := p.pos()
		p.advance() // '('
		te, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
			return nil, err
		}
		value, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewCast(pos, te, value), nil
	}
	return p.parsePostfix()
}

// peekAtIsTypeStart reports whether the token n positions ahead begins
// a type expression, used to disambiguate a cast's leading '(' from a
// parenthesized expression without consuming input.
func (p *Parser) peekAtIsTypeStart(n int) bool {
	tok := p.peekAt(n)
	if tok.Type == lexer.TokKeyword && tok.Lexeme == "public" {
		return true
	}
	if tok.Type == lexer.TokKeyword && dataTypeKeywords[tok.Lexeme] {
		return true
	}
	if tok.Type == lexer.TokIdent {
		nxt := p.peekAt(n + 1)
		if nxt.Type == lexer.TokKeyword && dataTypeKeywords[nxt.Lexeme] {
			return true
		}
	}
	return false
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokLBracket) {
		pos := p.pos()
		p.advance() // '['
		var ranges []ast.IndexRange
		for {
			lo, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			r := ast.IndexRange{Lo: lo}
			if p.check(lexer.TokColon) {
				p.advance()
				hi, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				r.Hi = hi
			}
			ranges = append(ranges, r)
			if p.check(lexer.TokComma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.TokRBracket, "']'"); err != nil {
			return nil, err
		}
		expr = ast.NewIndex(pos, expr, ranges)
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos()
	switch {
	case p.check(lexer.TokIntLit):
		v := p.advance().IntValue
		return ast.NewLiteral(pos, v, nil), nil
	case p.check(lexer.TokFloatLit):
		v := p.advance().FloatValue
		return ast.NewLiteral(pos, v, nil), nil
	case p.check(lexer.TokStringLit):
		v := p.advance().Lexeme
		return ast.NewLiteral(pos, v, nil), nil
	case p.checkKeyword("true"):
		p.advance()
		return ast.NewLiteral(pos, true, nil), nil
	case p.checkKeyword("false"):
		p.advance()
		return ast.NewLiteral(pos, false, nil), nil
	case p.checkKeyword("classify"):
		p.advance()
		if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
			return nil, err
		}
		return ast.NewClassify(pos, v, false), nil
	case p.checkKeyword("declassify"):
		p.advance()
		if _, err := p.expect(lexer.TokLParen, "'('"); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
			return nil, err
		}
		return ast.NewDeclassify(pos, v), nil
	case p.check(lexer.TokLParen):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case p.check(lexer.TokIdent):
		name := p.advance().Lexeme
		if p.check(lexer.TokLParen) {
			p.advance()
			var args []ast.Expr
			for !p.check(lexer.TokRParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.check(lexer.TokComma) {
					p.advance()
				}
			}
			p.advance() // ')'
			return ast.NewCall(pos, name, args), nil
		}
		return ast.NewIdent(pos, name), nil
	default:
		return nil, p.errorf("expected an expression, got %q", p.cur().Lexeme)
	}
}
