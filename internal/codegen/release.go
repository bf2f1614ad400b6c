package codegen

import (
	"secrec/internal/dataflow"
	"secrec/internal/ic"
	"secrec/internal/symtab"
)

// InsertScalarReleases runs live-variable analysis over every
// procedure in prog and splices a RELEASE immediately after the last
// use of each private scalar symbol (spec §4.4's scalar release
// placement), since the last use of a value depends on control flow,
// not lexical position, and so cannot be determined during the single
// top-down descent genProc performs.
//
// A qualifying use inside a block's terminator is left unreleased: the
// terminator must stay the block's final instruction (invariant I3),
// and inserting the release on every successor instead would risk
// releasing the value too early on any successor reached from another
// predecessor where it is still live (the classic critical-edge
// problem). Missing that handful of releases is a conservative
// simplification, not a correctness bug.
func InsertScalarReleases(prog *ic.Program) {
	for _, proc := range prog.Procedures {
		insertReleasesInProc(proc)
	}
}

func isPrivateScalar(sym *symtab.Symbol) bool {
	return sym != nil && sym.Kind != symtab.KindProcedure && sym.Kind != symtab.KindConstant &&
		sym.Kind != symtab.KindLabel && sym.Type.Dim == 0 && !sym.Type.Sec.IsPublic()
}

type releaseInsertion struct {
	afterIdx int
	sym      *symtab.Symbol
}

func insertReleasesInProc(proc *ic.Procedure) {
	res := dataflow.Run(proc, dataflow.LiveVariables{})
	for _, b := range proc.Blocks {
		var inserts []releaseInsertion
		seen := map[*symtab.Symbol]bool{}
		for idx, imop := range b.Instrs {
			if imop.Op.IsTerminator() {
				continue
			}
			for _, u := range imop.Uses() {
				if !isPrivateScalar(u) || seen[u] {
					continue
				}
				if dataflow.IsLiveAfter(res, imop, u) {
					continue
				}
				seen[u] = true
				inserts = append(inserts, releaseInsertion{afterIdx: idx, sym: u})
			}
		}
		if len(inserts) == 0 {
			continue
		}
		spliceReleases(b, inserts)
	}
}

// spliceReleases rewrites b.Instrs with a RELEASE for each insertion
// directly after its afterIdx position, processed back to front so
// earlier indices stay valid, then re-stamps Block/Index on every
// instruction to reflect their shifted positions.
func spliceReleases(b *ic.Block, inserts []releaseInsertion) {
	for i := len(inserts) - 1; i >= 0; i-- {
		ins := inserts[i]
		rel := &ic.Imop{Op: ic.OpRelease, Operands: []*symtab.Symbol{ins.sym}}
		tail := append([]*ic.Imop{rel}, b.Instrs[ins.afterIdx+1:]...)
		b.Instrs = append(b.Instrs[:ins.afterIdx+1], tail...)
	}
	for idx, imop := range b.Instrs {
		imop.Block = b
		imop.Index = idx
	}
}
