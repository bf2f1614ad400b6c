package ic

import (
	"testing"

	"secrec/internal/symtab"
	"secrec/internal/types"
)

func int64Sym(root *symtab.Table, name string) *symtab.Symbol {
	return root.DeclareVariable(name, types.Scalar(types.Public, types.DataInt64), symtab.Local)
}

func TestCallOperandSplit(t *testing.T) {
	root := symtab.NewRoot()
	proc := root.AppendProcedure("add", "int64,int64->int64", types.Scalar(types.Public, types.DataInt64))
	a := int64Sym(root, "a")
	b := int64Sym(root, "b")
	ret := int64Sym(root, "ret")

	call := &Imop{Op: OpCall, Operands: []*symtab.Symbol{proc, a, b, nil, ret}}
	args := call.CallArgs()
	rets := call.CallResults()
	if len(args) != 2 || args[0] != a || args[1] != b {
		t.Fatalf("CallArgs() = %v, want [a b]", args)
	}
	if len(rets) != 1 || rets[0] != ret {
		t.Fatalf("CallResults() = %v, want [ret]", rets)
	}
}

func TestVerifyCatchesUnterminatedBlock(t *testing.T) {
	proc := NewProcedure("main")
	root := symtab.NewRoot()
	x := int64Sym(root, "x")
	proc.Entry.Append(&Imop{Op: OpAssign, Operands: []*symtab.Symbol{x, x}})
	errs := VerifyProcedure(proc)
	if len(errs) == 0 {
		t.Fatalf("expected a violation for a block with no terminator")
	}
}

func TestVerifyAcceptsWellFormedProcedure(t *testing.T) {
	proc := NewProcedure("main")
	label := proc.NewLabel("L0", proc.Entry)
	proc.Entry.Append(&Imop{Op: OpJump, JumpTarget: label})
	errs := VerifyProcedure(proc)
	if len(errs) != 0 {
		t.Fatalf("unexpected violations: %v", errs)
	}
}

func TestVerifyCatchesUnpatchedJump(t *testing.T) {
	proc := NewProcedure("main")
	proc.Entry.Append(&Imop{Op: OpJump})
	errs := VerifyProcedure(proc)
	if len(errs) == 0 {
		t.Fatalf("expected a violation for an unpatched jump")
	}
}
