package codegen

import (
	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/ic"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

var binOpcode = map[string]ic.Op{
	"+": ic.OpAdd, "-": ic.OpSub, "*": ic.OpMul, "/": ic.OpDiv, "%": ic.OpMod,
	"==": ic.OpEq, "!=": ic.OpNe, "<": ic.OpLt, "<=": ic.OpLe, ">": ic.OpGt, ">=": ic.OpGe,
	"&&": ic.OpLAnd, "||": ic.OpLOr,
}

// genExpr lowers e in value context, emitting into pg.cur and
// returning the symbol holding the result.
func (pg *procGen) genExpr(e ast.Expr) *symtab.Symbol {
	switch n := e.(type) {
	case *ast.Literal:
		return pg.constFor(n)
	case *ast.Ident:
		sym := pg.gen.info.Ident[n]
		if sym == nil {
			pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "identifier %q has no resolved symbol", n.Name)
			return pg.scope.ConstantInt(0, n.Type().Data)
		}
		return sym
	case *ast.BinaryOp:
		return pg.genBinary(n)
	case *ast.UnaryOp:
		return pg.genUnary(n)
	case *ast.Cast:
		v := pg.genExpr(n.Value)
		return pg.genUnaryIshOp(ic.OpCast, *n.Type(), v)
	case *ast.Classify:
		v := pg.genExpr(n.Value)
		return pg.genUnaryIshOp(ic.OpClassify, *n.Type(), v)
	case *ast.Declassify:
		v := pg.genExpr(n.Value)
		return pg.genUnaryIshOp(ic.OpDeclassify, *n.Type(), v)
	case *ast.Call:
		return pg.genCall(n)
	case *ast.Index:
		return pg.genIndexLoad(n)
	default:
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "codegen: unsupported expression node %T", e)
		return pg.scope.ConstantInt(0, n.Type().Data)
	}
}

// genBinary lowers a BinaryOp. && and || with a public (hence
// branchable) left operand get the boolean short-circuit lowering
// described by §4.1; every other binary operator, including &&/|| over
// a private operand (which cannot branch on a secret), lowers eagerly.
func (pg *procGen) genBinary(n *ast.BinaryOp) *symtab.Symbol {
	if (n.Op == "&&" || n.Op == "||") && n.Left.Type().Sec.IsPublic() {
		return pg.genShortCircuit(n)
	}
	left := pg.genExpr(n.Left)
	right := pg.genExpr(n.Right)
	if n.Type().Dim > 0 {
		return pg.genArrayBinary(n, left, right)
	}
	dest := pg.newTemp(*n.Type())
	pg.emit(binOpcode[n.Op], dest, left, right)
	return dest
}

// genArrayBinary lowers a binary operator over at least one non-scalar
// operand per §4.4's "Shape discipline" and "Scalar-to-array broadcast":
// a scalar operand is first materialized into a same-shape array filled
// with its value (via ALLOC's default-value fill), two genuine arrays
// are guarded by a runtime shape-match chain, and the result is an
// ALLOC'd destination fed by a single vectorized instruction carrying
// the trailing size-in-elements operand (invariant I6).
func (pg *procGen) genArrayBinary(n *ast.BinaryOp, left, right *symtab.Symbol) *symtab.Symbol {
	lt, rt := *n.Left.Type(), *n.Right.Type()
	switch {
	case lt.Dim == 0 && rt.Dim > 0:
		left = pg.broadcastScalar(left, right)
	case rt.Dim == 0 && lt.Dim > 0:
		right = pg.broadcastScalar(right, left)
	default:
		pg.shapeMatchGuard(left, right)
	}
	dest := pg.allocArrayResult(*n.Type(), left)
	pg.emitVector(binOpcode[n.Op], dest, left, right, dest.Size)
	return dest
}

// broadcastScalar materializes a rank-`like.Type.Dim` array filled with
// scalar's value, sharing like's shape/size symbols (spec §4.4).
func (pg *procGen) broadcastScalar(scalar, like *symtab.Symbol) *symtab.Symbol {
	tmp := pg.newTemp(types.Type{Sec: scalar.Type.Sec, Data: scalar.Type.Data, Dim: like.Type.Dim})
	tmp.Shape = like.Shape
	tmp.Size = like.Size
	pg.emit(ic.OpAlloc, tmp, scalar, like.Size)
	return tmp
}

// shapeMatchGuard emits one dimEqualGuard per dimension for two
// non-scalar operands of matching rank: a `JE a.shape[i], b.shape[i]`
// to a continuation block, falling through to an ERROR block when the
// extents differ.
func (pg *procGen) shapeMatchGuard(a, b *symtab.Symbol) {
	for i := 0; i < a.Type.Dim; i++ {
		pg.dimEqualGuard(a.Shape[i], b.Shape[i])
	}
}

// allocArrayResult allocates a fresh array temporary of type t sharing
// like's shape/size symbols and emits the ALLOC that backs it with a
// zero-valued buffer of like's size.
func (pg *procGen) allocArrayResult(t types.Type, like *symtab.Symbol) *symtab.Symbol {
	dest := pg.newTemp(t)
	dest.Shape = like.Shape
	dest.Size = like.Size
	pg.emit(ic.OpAlloc, dest, pg.zeroValue(t.Data), dest.Size)
	return dest
}

// zeroValue returns the hash-consed zero constant for dt, used as
// ALLOC's default-fill value when the fill content itself does not
// matter (the array is about to be overwritten element-wise).
func (pg *procGen) zeroValue(dt types.DataType) *symtab.Symbol {
	switch {
	case dt == types.DataBool:
		return pg.scope.ConstantBool(false)
	case dt == types.DataString:
		return pg.scope.ConstantString("")
	case dt.IsFloat():
		return pg.scope.ConstantFloat(0, dt)
	case dt.IsUnsigned() || dt.IsXor():
		return pg.scope.ConstantUint(0, dt)
	default:
		return pg.scope.ConstantInt(0, dt)
	}
}

// genUnaryIshOp lowers a single-operand, single-result opcode (CAST,
// CLASSIFY, DECLASSIFY) that vectorizes the same way arithmetic does
// when its result is non-scalar.
func (pg *procGen) genUnaryIshOp(op ic.Op, resultType types.Type, v *symtab.Symbol) *symtab.Symbol {
	if resultType.Dim > 0 {
		dest := pg.allocArrayResult(resultType, v)
		pg.emitVector(op, dest, v, dest.Size)
		return dest
	}
	dest := pg.newTemp(resultType)
	pg.emit(op, dest, v)
	return dest
}

// genShortCircuit materializes a branching && / || into a fresh bool
// temporary: for `a && b`, a false left short-circuits to false without
// evaluating b; for `a || b`, a true left short-circuits to true.
func (pg *procGen) genShortCircuit(n *ast.BinaryOp) *symtab.Symbol {
	dest := pg.newTemp(*n.Type())
	trueList, falseList := pg.genBool(n.Left)

	evalRight := pg.proc.NewBlock("scEvalRight")
	shortCircuit := pg.proc.NewBlock("scShortCircuit")
	join := pg.proc.NewBlock("scJoin")

	if n.Op == "&&" {
		pg.patch(trueList, evalRight, ic.EdgeTrue)
		pg.patch(falseList, shortCircuit, ic.EdgeFalse)
	} else {
		pg.patch(trueList, shortCircuit, ic.EdgeTrue)
		pg.patch(falseList, evalRight, ic.EdgeFalse)
	}

	pg.cur = evalRight
	rv := pg.genExpr(n.Right)
	pg.emit(ic.OpAssign, dest, rv)
	j1 := pg.emitJump(ic.OpJump)
	pg.patch(patchList{j1}, join, ic.EdgeUnconditional)

	pg.cur = shortCircuit
	shortVal := pg.scope.ConstantBool(n.Op == "||")
	pg.emit(ic.OpAssign, dest, shortVal)
	j2 := pg.emitJump(ic.OpJump)
	pg.patch(patchList{j2}, join, ic.EdgeUnconditional)

	pg.cur = join
	return dest
}

var unaryOpcode = map[string]ic.Op{"!": ic.OpUNeg, "-": ic.OpUMinus, "~": ic.OpUInv}

func (pg *procGen) genUnary(n *ast.UnaryOp) *symtab.Symbol {
	v := pg.genExpr(n.Operand)
	return pg.genUnaryIshOp(unaryOpcode[n.Op], *n.Type(), v)
}

// condOpcode maps a comparison operator directly to its conditional
// jump, avoiding a materialized bool temporary when a comparison feeds
// straight into a boolean context (if/while conditions, &&/|| chains).
var condOpcode = map[string]ic.Op{
	"==": ic.OpJE, "!=": ic.OpJNE, "<": ic.OpJLT, "<=": ic.OpJLE, ">": ic.OpJGT, ">=": ic.OpJGE,
}

// splitAfterCondJump closes pg.cur with its already-emitted conditional
// jump as sole terminator, opens a fresh fallthrough block wired by an
// explicit Unconditional edge (I3 requires every terminator be its
// block's last instruction, so the "untaken" direction can never be a
// second instruction in the same block), and emits an unconditional
// JUMP there representing the untaken direction's own deferred target.
func (pg *procGen) splitAfterCondJump() *ic.Imop {
	next := pg.proc.NewBlock("cond")
	pg.cur.AddEdge(ic.EdgeUnconditional, next)
	pg.cur = next
	return pg.emitJump(ic.OpJump)
}

// genBool lowers e in boolean context, returning patch lists of jumps
// to the "true" and "false" continuations (CGBranchResult, spec §4.4).
func (pg *procGen) genBool(e ast.Expr) (trueList, falseList patchList) {
	switch n := e.(type) {
	case *ast.UnaryOp:
		if n.Op == "!" {
			t, f := pg.genBool(n.Operand)
			return f, t
		}
	case *ast.BinaryOp:
		if n.Op == "&&" && n.Left.Type().Sec.IsPublic() {
			lt, lf := pg.genBool(n.Left)
			mid := pg.proc.NewBlock("andRhs")
			pg.patch(lt, mid, ic.EdgeTrue)
			pg.cur = mid
			rt, rf := pg.genBool(n.Right)
			return rt, append(lf, rf...)
		}
		if n.Op == "||" && n.Left.Type().Sec.IsPublic() {
			lt, lf := pg.genBool(n.Left)
			mid := pg.proc.NewBlock("orRhs")
			pg.patch(lf, mid, ic.EdgeFalse)
			pg.cur = mid
			rt, rf := pg.genBool(n.Right)
			return append(lt, rt...), rf
		}
		if op, ok := condOpcode[n.Op]; ok && n.Left.Type().Sec.IsPublic() && n.Right.Type().Sec.IsPublic() {
			left := pg.genExpr(n.Left)
			right := pg.genExpr(n.Right)
			jt := pg.emitJump(op, left, right)
			jf := pg.splitAfterCondJump()
			return patchList{jt}, patchList{jf}
		}
	}
	// Fallback: evaluate e as an ordinary value and branch on it with
	// JT/JF. Always correct; only the cases above avoid the extra bool
	// materialization a direct comparison or && /|| chain doesn't need.
	v := pg.genExpr(e)
	jt := pg.emitJump(ic.OpJT, v)
	jf := pg.splitAfterCondJump()
	return patchList{jt}, patchList{jf}
}
