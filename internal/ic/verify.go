package ic

import "fmt"

// vectorArity is the (opcode -> expected operand count before the
// trailing size operand) table backing invariant I6.
var vectorArity = map[Op]int{
	OpAdd: 3, OpSub: 3, OpMul: 3, OpDiv: 3, OpMod: 3,
	OpEq: 3, OpNe: 3, OpLe: 3, OpLt: 3, OpGe: 3, OpGt: 3,
	OpLAnd: 3, OpLOr: 3,
	OpUNeg: 2, OpUMinus: 2, OpUInv: 2,
	OpAssign: 2, OpCast: 2, OpClassify: 2, OpDeclassify: 2,
}

// VerifyProcedure checks invariants I3, I4, and I6 over proc, returning
// every violation found (used by the codegen and emitter tests to
// assert P3, and by cmd/scc before register allocation).
func VerifyProcedure(proc *Procedure) []error {
	var errs []error
	for _, b := range proc.Blocks {
		for idx, imop := range b.Instrs {
			isLast := idx == len(b.Instrs)-1
			if imop.Op.IsTerminator() && !isLast {
				errs = append(errs, fmt.Errorf("block %s: terminator %s not last (I3)", b.Name, imop.Op))
			}
			if !imop.Op.IsTerminator() && isLast {
				errs = append(errs, fmt.Errorf("block %s: falls off end without terminator (I3)", b.Name))
			}
			if imop.Op.IsJump() {
				if imop.JumpTarget == nil {
					errs = append(errs, fmt.Errorf("block %s: unpatched jump at index %d (I4)", b.Name, idx))
				} else if imop.JumpTarget.Block == nil || len(imop.JumpTarget.Block.Instrs) == 0 {
					errs = append(errs, fmt.Errorf("block %s: jump target %s not the first instruction of a block (I4)", b.Name, imop.JumpTarget.Name))
				}
			}
			if imop.Vector {
				if want, ok := vectorArity[imop.Op]; ok && len(imop.Operands) != want+1 {
					errs = append(errs, fmt.Errorf("block %s: vectorized %s has %d operands, want %d+size (I6)", b.Name, imop.Op, len(imop.Operands), want))
				}
			}
		}
	}
	return errs
}
