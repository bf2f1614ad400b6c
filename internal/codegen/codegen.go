// Package codegen lowers a type-checked SecreC AST (the result of
// internal/typecheck) to the three-address intermediate code defined
// by internal/ic, per spec §4.4. It is a recursive descent over the
// typed AST that grows each procedure's basic-block CFG as it goes,
// consuming the typecheck.Result's SymbolInfo bridge directly instead
// of re-deriving symbol bindings from the AST.
//
// Where the original implementation represents a partially lowered
// expression as a `CGResult{first_imop, next_list, symbol}` record, this
// package uses plain Go return values instead: genExpr returns the
// symbol holding a value (emitting into the generator's current block
// as a side effect), and genBool returns two patch lists (true/false)
// for boolean-context lowering. A boxed result struct buys nothing a
// multi-value return doesn't already give a Go caller.
package codegen

import (
	"fmt"

	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/ic"
	"secrec/internal/symtab"
	"secrec/internal/typecheck"
	"secrec/internal/types"
)

// patchList collects jump instructions whose JumpTarget is still nil,
// to be resolved once the caller knows which block they should target
// (spec §4.4 "patching protocol"). Patching also wires the owning
// block's CFG edge, since the emitted jump and its edge always resolve
// together here.
type patchList []*ic.Imop

// Generator holds the state shared across every procedure lowered in
// one GenerateProgram call: the symbol bridge from type-checking and a
// monotone label counter (shared so label names stay unique across
// procedures sharing one ic.Program, mirroring the symbol table's
// shared temp/label counters).
type Generator struct {
	info     *typecheck.SymbolInfo
	log      *diag.Log
	labelSeq int
}

// procGen is the per-procedure cursor: the current block instructions
// are appended to, the procedure's scope table, and the break/continue
// patch-list stacks for nested loops.
type procGen struct {
	gen   *Generator
	scope *symtab.Table
	proc  *ic.Procedure
	cur   *ic.Block

	breakStack    []patchList
	continueStack []patchList
}

// GenerateProgram lowers every procedure in res.Procs (originals plus
// drained template instantiations) to IC, skipping generic template
// declarations. A construct that cannot be lowered is logged as an
// InternalError diagnostic; its procedure is still added to the program.
func GenerateProgram(res *typecheck.Result) *ic.Program {
	g := &Generator{info: res.Info, log: res.Log}
	prog := &ic.Program{}
	for _, p := range res.Procs {
		if len(p.TemplateParams) > 0 {
			continue // generic declarations are never emitted directly
		}
		prog.AddProcedure(g.genProc(p))
	}
	return prog
}

func (g *Generator) newLabel(proc *ic.Procedure, target *ic.Block) *ic.Label {
	g.labelSeq++
	return proc.NewLabel(fmt.Sprintf("L%d", g.labelSeq), target)
}

// patch resolves every jump in list to target, labeling each with a
// freshly minted label and wiring the corresponding CFG edge.
func (pg *procGen) patch(list patchList, target *ic.Block, label ic.EdgeLabel) {
	for _, im := range list {
		im.JumpTarget = pg.gen.newLabel(pg.proc, target)
		im.Block.AddEdge(label, target)
	}
}

func (g *Generator) genProc(p *ast.ProcDecl) *ic.Procedure {
	scope := g.info.Scope[p]
	proc := ic.NewProcedure(p.Name)
	if p.Name == "main" {
		proc.IsStart = true
	}
	pg := &procGen{gen: g, scope: scope, proc: proc, cur: proc.Entry}
	for _, param := range g.info.Param[p] {
		pg.emit(ic.OpParam, param)
	}
	pg.genBlock(p.Body)
	if pg.cur.Terminator() == nil {
		pg.emit(ic.OpReturnVoid)
	}
	return proc
}

// emit appends a plain (non-jump) instruction to the current block and
// returns it.
func (pg *procGen) emit(op ic.Op, operands ...*symtab.Symbol) *ic.Imop {
	im := &ic.Imop{Op: op, Operands: operands}
	pg.cur.Append(im)
	return im
}

// emitVector appends a vectorized instruction (its trailing operand is
// the element count, per invariant I6) and returns it. Vectorized
// instructions define nothing at the IR level (ic.Imop.Defs), since
// they write element-wise through a destination an ALLOC already
// reserved.
func (pg *procGen) emitVector(op ic.Op, operands ...*symtab.Symbol) *ic.Imop {
	im := &ic.Imop{Op: op, Operands: operands, Vector: true}
	pg.cur.Append(im)
	return im
}

func (pg *procGen) emitComment(text string) {
	pg.cur.Append(&ic.Imop{Op: ic.OpComment, Comment: text})
}

// emitJump appends a jump with a nil JumpTarget, returning it so the
// caller can record it on a patch list.
func (pg *procGen) emitJump(op ic.Op, operands ...*symtab.Symbol) *ic.Imop {
	im := &ic.Imop{Op: op, Operands: operands}
	pg.cur.Append(im)
	return im
}

// runtimeError materializes a procedure-local runtime error: ERROR "<msg>"
// followed by an unreachable new block (every ERROR is a terminator).
func (pg *procGen) runtimeError(msg string) {
	strSym := pg.scope.ConstantString(msg)
	pg.emit(ic.OpError, strSym)
	pg.cur = pg.proc.NewBlock("unreachable")
}

func (pg *procGen) newTemp(t types.Type) *symtab.Symbol {
	return pg.scope.NewTemporary(t, symtab.Local)
}

// constFor returns the hash-consed constant symbol for a literal AST
// node, whose Data carries the literal's raw Go value and whose
// resolved Type() names the concrete data type the checker narrowed it
// to.
func (pg *procGen) constFor(n *ast.Literal) *symtab.Symbol {
	dt := n.Type().Data
	switch v := n.Data.(type) {
	case bool:
		return pg.scope.ConstantBool(v)
	case string:
		return pg.scope.ConstantString(v)
	case int64:
		if dt.IsUnsigned() || dt.IsXor() {
			return pg.scope.ConstantUint(uint64(v), dt)
		}
		return pg.scope.ConstantInt(v, dt)
	case float64:
		return pg.scope.ConstantFloat(v, dt)
	default:
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "literal has unrecognized Go value %v", v)
		return pg.scope.ConstantInt(0, types.DataInt64)
	}
}
