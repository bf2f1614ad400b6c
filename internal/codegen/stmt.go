package codegen

import (
	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/ic"
	"secrec/internal/symtab"
)

func (pg *procGen) genBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		pg.genStmt(s)
	}
}

// jumpToIfNeeded closes the current block with an unconditional jump to
// target unless it is already terminated (a nested return/break/
// continue/if already closed every path out of it).
func (pg *procGen) jumpToIfNeeded(target *ic.Block) {
	if pg.cur.Terminator() != nil {
		return
	}
	j := pg.emitJump(ic.OpJump)
	pg.patch(patchList{j}, target, ic.EdgeUnconditional)
}

func (pg *procGen) pushLoop() {
	pg.breakStack = append(pg.breakStack, nil)
	pg.continueStack = append(pg.continueStack, nil)
}

func (pg *procGen) popBreak() patchList {
	n := len(pg.breakStack) - 1
	list := pg.breakStack[n]
	pg.breakStack = pg.breakStack[:n]
	return list
}

func (pg *procGen) popContinue() patchList {
	n := len(pg.continueStack) - 1
	list := pg.continueStack[n]
	pg.continueStack = pg.continueStack[:n]
	return list
}

func (pg *procGen) genStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		pg.genVarDecl(n)
	case *ast.Assign:
		pg.genAssign(n)
	case *ast.ExprStmt:
		pg.genExpr(n.X)
	case *ast.Block:
		pg.genBlock(n)
	case *ast.If:
		pg.genIf(n)
	case *ast.While:
		pg.genWhile(n)
	case *ast.For:
		pg.genFor(n)
	case *ast.Break:
		if len(pg.breakStack) == 0 {
			pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "'break' reached codegen outside a loop")
			return
		}
		j := pg.emitJump(ic.OpJump)
		top := len(pg.breakStack) - 1
		pg.breakStack[top] = append(pg.breakStack[top], j)
		pg.cur = pg.proc.NewBlock("afterBreak")
	case *ast.Continue:
		if len(pg.continueStack) == 0 {
			pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "'continue' reached codegen outside a loop")
			return
		}
		j := pg.emitJump(ic.OpJump)
		top := len(pg.continueStack) - 1
		pg.continueStack[top] = append(pg.continueStack[top], j)
		pg.cur = pg.proc.NewBlock("afterContinue")
	case *ast.Return:
		pg.genReturn(n)
	default:
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "codegen: unsupported statement node %T", s)
	}
}

func (pg *procGen) genVarDecl(n *ast.VarDecl) {
	sym := pg.gen.info.VarDecl[n]
	if sym == nil {
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "variable %q has no resolved symbol", n.Name)
		return
	}
	if n.Init == nil {
		// Uninitialized non-scalar declarations are left unallocated: this
		// grammar has no array-literal or explicit-shape syntax to size
		// one at declaration time (see DESIGN.md); the array becomes
		// usable once a later sliced assignment or parameter binding
		// supplies its shape.
		return
	}
	v := pg.genExpr(n.Init)
	if sym.IsNonScalar() {
		pg.copyShape(sym, v)
		pg.emit(ic.OpCopy, sym, v)
	} else {
		pg.emit(ic.OpAssign, sym, v)
	}
}

// copyShape assigns dst's shape vector and size symbol from src's at
// runtime (invariant I2): a declared non-scalar variable keeps its own
// Shape/Size identity across reassignment to a differently-shaped
// array, so the values — not the symbols themselves — must be copied.
func (pg *procGen) copyShape(dst, src *symtab.Symbol) {
	for i := range dst.Shape {
		pg.emit(ic.OpAssign, dst.Shape[i], src.Shape[i])
	}
	pg.emit(ic.OpAssign, dst.Size, src.Size)
}

func (pg *procGen) genAssign(n *ast.Assign) {
	switch lhs := n.Lhs.(type) {
	case *ast.Ident:
		sym := pg.gen.info.Ident[lhs]
		if sym == nil {
			pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "assignment target %q has no resolved symbol", lhs.Name)
			return
		}
		v := pg.genExpr(n.Rhs)
		if sym.IsNonScalar() {
			pg.copyShape(sym, v)
			pg.emit(ic.OpCopy, sym, v)
		} else {
			pg.emit(ic.OpAssign, sym, v)
		}
	case *ast.Index:
		v := pg.genExpr(n.Rhs)
		pg.genIndexStore(lhs, v)
	default:
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "codegen: unsupported assignment target %T", lhs)
	}
}

func (pg *procGen) genIf(n *ast.If) {
	trueList, falseList := pg.genBool(n.Cond)
	join := pg.proc.NewBlock("ifJoin")

	thenBlock := pg.proc.NewBlock("then")
	pg.patch(trueList, thenBlock, ic.EdgeTrue)
	pg.cur = thenBlock
	pg.genStmt(n.Then)
	pg.jumpToIfNeeded(join)

	if n.Else != nil {
		elseBlock := pg.proc.NewBlock("else")
		pg.patch(falseList, elseBlock, ic.EdgeFalse)
		pg.cur = elseBlock
		pg.genStmt(n.Else)
		pg.jumpToIfNeeded(join)
	} else {
		pg.patch(falseList, join, ic.EdgeFalse)
	}
	pg.cur = join
}

func (pg *procGen) genWhile(n *ast.While) {
	head := pg.proc.NewBlock("whileHead")
	pg.jumpToIfNeeded(head)
	pg.cur = head

	trueList, falseList := pg.genBool(n.Cond)
	body := pg.proc.NewBlock("whileBody")
	exit := pg.proc.NewBlock("whileExit")
	pg.patch(trueList, body, ic.EdgeTrue)
	pg.patch(falseList, exit, ic.EdgeFalse)

	pg.cur = body
	pg.pushLoop()
	pg.genStmt(n.Body)
	contList := pg.popContinue()
	pg.patch(contList, head, ic.EdgeUnconditional)
	pg.jumpToIfNeeded(head)
	brkList := pg.popBreak()
	pg.patch(brkList, exit, ic.EdgeUnconditional)

	pg.cur = exit
}

func (pg *procGen) genFor(n *ast.For) {
	if n.Init != nil {
		pg.genStmt(n.Init)
	}
	head := pg.proc.NewBlock("forHead")
	pg.jumpToIfNeeded(head)
	pg.cur = head

	body := pg.proc.NewBlock("forBody")
	exit := pg.proc.NewBlock("forExit")
	if n.Cond != nil {
		trueList, falseList := pg.genBool(n.Cond)
		pg.patch(trueList, body, ic.EdgeTrue)
		pg.patch(falseList, exit, ic.EdgeFalse)
	} else {
		pg.jumpToIfNeeded(body)
	}

	pg.cur = body
	pg.pushLoop()
	pg.genStmt(n.Body)

	post := pg.proc.NewBlock("forPost")
	contList := pg.popContinue()
	pg.patch(contList, post, ic.EdgeUnconditional)
	pg.jumpToIfNeeded(post)
	pg.cur = post
	if n.Post != nil {
		pg.genStmt(n.Post)
	}
	pg.jumpToIfNeeded(head)

	brkList := pg.popBreak()
	pg.patch(brkList, exit, ic.EdgeUnconditional)
	pg.cur = exit
}

func (pg *procGen) genReturn(n *ast.Return) {
	if n.Value == nil {
		pg.emit(ic.OpReturnVoid)
	} else {
		v := pg.genExpr(n.Value)
		pg.emit(ic.OpReturn, v)
	}
	pg.cur = pg.proc.NewBlock("unreachable")
}
