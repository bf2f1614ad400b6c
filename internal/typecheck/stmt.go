package typecheck

import (
	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

// checkProcBody type-checks one non-template procedure (or a drained
// template instantiation's freshly substituted body) against its
// already-registered signature.
func (c *Checker) checkProcBody(p *ast.ProcDecl) {
	scope := c.global.NewScope()
	c.info.Scope[p] = scope

	params := make([]*symtab.Symbol, len(p.Params))
	for i, prm := range p.Params {
		t, err := c.resolveTypeExpr(prm.Type)
		if err != nil {
			c.errorf(diag.TypeError, p.Pos, "parameter %q: %v", prm.Name, err)
			continue
		}
		params[i] = scope.DeclareVariable(prm.Name, t, symtab.Local)
	}
	c.info.Param[p] = params

	retType := types.Void
	if !p.IsVoid {
		t, err := c.resolveTypeExpr(p.Return)
		if err == nil {
			retType = t
		}
	}

	c.checkBlock(p.Body, scope, p, retType)
}

func (c *Checker) checkBlock(b *ast.Block, parent *symtab.Table, proc *ast.ProcDecl, ret types.Type) {
	scope := parent.NewScope()
	terminated := false
	for _, s := range b.Stmts {
		if terminated {
			c.log.Warnf(diag.SemanticError, pos(s), "unreachable statement after a terminating control-flow statement")
		}
		c.checkStmt(s, scope, proc, ret)
		if isTerminating(s) {
			terminated = true
		}
	}
}

func isTerminating(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.Return, *ast.Break, *ast.Continue:
		return true
	case *ast.If:
		return n.Else != nil && isTerminating(n.Then) && isTerminating(n.Else)
	default:
		return false
	}
}

func pos(s ast.Stmt) ast.Pos { return s.Position() }

func (c *Checker) checkStmt(s ast.Stmt, scope *symtab.Table, proc *ast.ProcDecl, ret types.Type) {
	switch n := s.(type) {
	case *ast.VarDecl:
		t, err := c.resolveTypeExpr(n.Type)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%q: %v", n.Name, err)
			return
		}
		sym := scope.DeclareVariable(n.Name, t, symtab.Local)
		c.info.VarDecl[n] = sym
		if n.Init != nil {
			sec := t.Sec
			ctx := types.AnyContext.WithData(t.Data).WithSec(sec).WithDim(t.Dim)
			init, err := c.checkExpr(n.Init, ctx, scope)
			if err != nil {
				c.errorf(diag.TypeError, n.Pos, "%v", err)
				return
			}
			n.Init = init
		}
	case *ast.Assign:
		lhsType, lhs, err := c.checkLValue(n.Lhs, scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
			return
		}
		n.Lhs = lhs
		ctx := types.AnyContext.WithData(lhsType.Data).WithSec(lhsType.Sec).WithDim(lhsType.Dim)
		rhs, err := c.checkExpr(n.Rhs, ctx, scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
			return
		}
		n.Rhs = rhs
	case *ast.ExprStmt:
		x, err := c.checkExpr(n.X, types.AnyContext, scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
			return
		}
		n.X = x
	case *ast.Block:
		c.checkBlock(n, scope, proc, ret)
	case *ast.If:
		cond, err := c.checkExpr(n.Cond, types.AnyContext.WithData(types.DataBool).WithDim(0), scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
		} else {
			n.Cond = cond
		}
		c.checkStmt(n.Then, scope, proc, ret)
		if n.Else != nil {
			c.checkStmt(n.Else, scope, proc, ret)
		}
	case *ast.While:
		cond, err := c.checkExpr(n.Cond, types.AnyContext.WithData(types.DataBool).WithDim(0), scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
		} else {
			n.Cond = cond
		}
		c.curLoop++
		c.checkStmt(n.Body, scope, proc, ret)
		c.curLoop--
	case *ast.For:
		loopScope := scope.NewScope()
		if n.Init != nil {
			c.checkStmt(n.Init, loopScope, proc, ret)
		}
		if n.Cond != nil {
			cond, err := c.checkExpr(n.Cond, types.AnyContext.WithData(types.DataBool).WithDim(0), loopScope)
			if err != nil {
				c.errorf(diag.TypeError, n.Pos, "%v", err)
			} else {
				n.Cond = cond
			}
		}
		if n.Post != nil {
			c.checkStmt(n.Post, loopScope, proc, ret)
		}
		c.curLoop++
		c.checkStmt(n.Body, loopScope, proc, ret)
		c.curLoop--
	case *ast.Break:
		if c.curLoop == 0 {
			c.errorf(diag.SemanticError, n.Pos, "'break' outside a loop")
		}
	case *ast.Continue:
		if c.curLoop == 0 {
			c.errorf(diag.SemanticError, n.Pos, "'continue' outside a loop")
		}
	case *ast.Return:
		if n.Value == nil {
			if !ret.IsVoid() {
				c.errorf(diag.TypeError, n.Pos, "missing return value in a procedure returning %s", ret)
			}
			return
		}
		if ret.IsVoid() {
			c.errorf(diag.TypeError, n.Pos, "void procedure must not return a value")
			return
		}
		ctx := types.AnyContext.WithData(ret.Data).WithSec(ret.Sec).WithDim(ret.Dim)
		v, err := c.checkExpr(n.Value, ctx, scope)
		if err != nil {
			c.errorf(diag.TypeError, n.Pos, "%v", err)
			return
		}
		n.Value = v
	}
}

// checkLValue resolves the assignable target of an Assign statement:
// either a bare Ident or a sliced Index expression (spec §4.4).
func (c *Checker) checkLValue(e ast.Expr, scope *symtab.Table) (types.Type, ast.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		sym := scope.Find(n.Name)
		if sym == nil {
			return types.Type{}, nil, unknownIdentifier(n.Name)
		}
		c.info.Ident[n] = sym
		n.SetType(sym.Type)
		return sym.Type, n, nil
	case *ast.Index:
		checked, err := c.checkExpr(n, types.AnyContext, scope)
		if err != nil {
			return types.Type{}, nil, err
		}
		return *checked.Type(), checked, nil
	default:
		return types.Type{}, nil, typeMismatch("assignment target must be a variable or index expression")
	}
}
