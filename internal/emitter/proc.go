package emitter

import (
	"fmt"
	"strings"

	"secrec/internal/ic"
	"secrec/internal/symtab"
)

var binMnemonic = map[ic.Op]string{
	ic.OpAdd: "tadd", ic.OpSub: "tsub", ic.OpMul: "tmul", ic.OpDiv: "tdiv", ic.OpMod: "tmod",
	ic.OpEq: "teq", ic.OpNe: "tne", ic.OpLt: "tlt", ic.OpLe: "tle", ic.OpGt: "tgt", ic.OpGe: "tge",
	ic.OpLAnd: "ltand", ic.OpLOr: "ltor",
}

var unMnemonic = map[ic.Op]string{
	ic.OpUNeg: "bnot", ic.OpUMinus: "bneg", ic.OpUInv: "binv",
}

var condJumpMnemonic = map[ic.Op]string{
	ic.OpJE: "jeq", ic.OpJNE: "jne", ic.OpJLT: "jlt", ic.OpJLE: "jle", ic.OpJGT: "jgt", ic.OpJGE: "jge",
}

// blockLabel names proc's block b for the assembly text; every block
// gets a label even when nothing jumps to it directly, since CALL
// targets and readability both benefit from a stable name per block.
func blockLabel(proc *ic.Procedure, b *ic.Block) string {
	for i, pb := range proc.Blocks {
		if pb == b {
			return fmt.Sprintf("%s.b%d_%s", proc.Name, i, b.Name)
		}
	}
	return proc.Name + "." + b.Name
}

func (e *Emitter) emitProc(w *strings.Builder, proc *ic.Procedure) {
	fmt.Fprintf(w, "%s:\n", proc.Name)
	if proc.IsStart {
		w.WriteString("\t; entry point\n")
	}
	for _, b := range proc.Blocks {
		fmt.Fprintf(w, "%s:\n", blockLabel(proc, b))
		paramIdx := 0
		for _, im := range b.Instrs {
			e.emitInstr(w, proc, im, &paramIdx)
		}
	}
}

// emitVectorCall renders a call into a synthesized vectorized helper:
// each value operand pushed in order, then count, matching the
// "dest_ptr, src_ptrs…, count" parameter order §4.6 describes.
func (e *Emitter) emitVectorCall(w *strings.Builder, proc *ic.Procedure, helperName string, valueOperands ...*symtab.Symbol) {
	count := valueOperands[len(valueOperands)-1]
	for _, v := range valueOperands[:len(valueOperands)-1] {
		fmt.Fprintf(w, "\tpush %s\n", e.reg(proc, v))
	}
	fmt.Fprintf(w, "\tpush %s\n\tcall %s %d\n", e.reg(proc, count), helperName, len(valueOperands))
}

func (e *Emitter) emitInstr(w *strings.Builder, proc *ic.Procedure, im *ic.Imop, paramIdx *int) {
	switch im.Op {
	case ic.OpAssign, ic.OpCopy:
		fmt.Fprintf(w, "\tmov %s %s\n", e.reg(proc, im.Operands[0]), e.reg(proc, im.Operands[1]))
	case ic.OpCast:
		d, src := im.Operands[0], im.Operands[1]
		if im.Vector {
			count := im.Operands[2]
			name := e.needVecCastHelper(dty(d.Type), d.Type.Data.ElementSize(), dty(src.Type), src.Type.Data.ElementSize())
			e.emitVectorCall(w, proc, name, d, src, count)
		} else {
			fmt.Fprintf(w, "\tmov %s %s <%s>\n", e.reg(proc, d), e.reg(proc, src), dty(d.Type))
		}

	case ic.OpAdd, ic.OpSub, ic.OpMul, ic.OpDiv, ic.OpMod,
		ic.OpEq, ic.OpNe, ic.OpLt, ic.OpLe, ic.OpGt, ic.OpGe, ic.OpLAnd, ic.OpLOr:
		d := im.Operands[0]
		if im.Vector {
			left, right, count := im.Operands[1], im.Operands[2], im.Operands[3]
			name := e.needVecArithHelper(binMnemonic[im.Op], dty(d.Type), d.Type.Data.ElementSize())
			e.emitVectorCall(w, proc, name, d, left, right, count)
		} else {
			fmt.Fprintf(w, "\t%s <%s> %s,%s,%s\n", binMnemonic[im.Op], dty(d.Type),
				e.reg(proc, d), e.reg(proc, im.Operands[1]), e.reg(proc, im.Operands[2]))
		}

	case ic.OpUNeg, ic.OpUMinus, ic.OpUInv:
		d := im.Operands[0]
		if im.Vector {
			src, count := im.Operands[1], im.Operands[2]
			name := e.needVecUnaryHelper(unMnemonic[im.Op], dty(d.Type), d.Type.Data.ElementSize())
			e.emitVectorCall(w, proc, name, d, src, count)
		} else {
			fmt.Fprintf(w, "\t%s <%s> %s,%s\n", unMnemonic[im.Op], dty(d.Type), e.reg(proc, d), e.reg(proc, im.Operands[1]))
		}

	case ic.OpJump:
		fmt.Fprintf(w, "\tjmp %s\n", blockLabel(proc, im.JumpTarget.Block))
	case ic.OpJT:
		fmt.Fprintf(w, "\tjnz %s <%s> %s\n", blockLabel(proc, im.JumpTarget.Block), dty(im.Operands[0].Type), e.reg(proc, im.Operands[0]))
	case ic.OpJF:
		fmt.Fprintf(w, "\tjz %s <%s> %s\n", blockLabel(proc, im.JumpTarget.Block), dty(im.Operands[0].Type), e.reg(proc, im.Operands[0]))
	case ic.OpJE, ic.OpJNE, ic.OpJLE, ic.OpJLT, ic.OpJGE, ic.OpJGT:
		a, b := im.Operands[0], im.Operands[1]
		fmt.Fprintf(w, "\t%s %s <%s> %s,%s\n", condJumpMnemonic[im.Op], blockLabel(proc, im.JumpTarget.Block), dty(a.Type), e.reg(proc, a), e.reg(proc, b))

	case ic.OpCall:
		target := im.Proc()
		for _, a := range im.CallArgs() {
			fmt.Fprintf(w, "\tpush %s\n", e.reg(proc, a))
		}
		fmt.Fprintf(w, "\tcall %s %d\n", target.Name, len(im.CallArgs()))
		for i, r := range im.CallResults() {
			fmt.Fprintf(w, "\tmov %s ret%d\n", e.reg(proc, r), i)
		}
	case ic.OpRetClean:
		w.WriteString("\t; retclean\n")
	case ic.OpReturn:
		fmt.Fprintf(w, "\tpush %s\n", e.reg(proc, im.Operands[0]))
		w.WriteString("\treturn imm 0x0\n")
	case ic.OpReturnVoid:
		w.WriteString("\treturn imm 0x0\n")

	case ic.OpParam:
		d := im.Operands[0]
		fmt.Fprintf(w, "\tmov cref %d 0x0 %s <%s>\n", *paramIdx, e.reg(proc, d), dty(d.Type))
		*paramIdx++
	case ic.OpDomainID:
		w.WriteString("\t; domainid\n")

	case ic.OpLoad:
		d, base, off := im.Operands[0], im.Operands[1], im.Operands[2]
		fmt.Fprintf(w, "\tmov mem %s %s <%s> %d\n", e.reg(proc, base), e.reg(proc, off), dty(d.Type), d.Type.Data.ElementSize())
		fmt.Fprintf(w, "\tmov %s ret0\n", e.reg(proc, d))
	case ic.OpStore:
		base, off, v := im.Operands[0], im.Operands[1], im.Operands[2]
		fmt.Fprintf(w, "\tmov %s mem %s %s <%s> %d\n", e.reg(proc, v), e.reg(proc, base), e.reg(proc, off), dty(v.Type), v.Type.Data.ElementSize())
	case ic.OpAlloc:
		d := im.Operands[0]
		size := d.Type.Data.ElementSize()
		name := e.needAllocHelper(size)
		fmt.Fprintf(w, "\tpush %s\n\tpush %s\n\tcall %s 2\n\tmov %s ret0\n", e.reg(proc, im.Operands[1]), e.reg(proc, im.Operands[2]), name, e.reg(proc, d))

	case ic.OpClassify:
		d := im.Operands[0]
		if dom := d.Type.Sec.Domain; dom != nil {
			e.internDomain(dom.Name)
		}
		if im.Vector {
			src, count := im.Operands[1], im.Operands[2]
			name := e.needVecPrivacyHelper("classify", dty(d.Type), d.Type.Data.ElementSize(), "core.classify")
			e.emitVectorCall(w, proc, name, d, src, count)
		} else {
			label := e.internSyscall("core.classify")
			fmt.Fprintf(w, "\tpush %s\n\tsyscall %s imm\n\tmov %s ret0\n", e.reg(proc, im.Operands[1]), label, e.reg(proc, d))
		}
	case ic.OpDeclassify:
		d, src := im.Operands[0], im.Operands[1]
		if dom := src.Type.Sec.Domain; dom != nil {
			e.internDomain(dom.Name)
		}
		if im.Vector {
			count := im.Operands[2]
			name := e.needVecPrivacyHelper("declassify", dty(d.Type), d.Type.Data.ElementSize(), "core.declassify")
			e.emitVectorCall(w, proc, name, d, src, count)
		} else {
			label := e.internSyscall("core.declassify")
			fmt.Fprintf(w, "\tpush %s\n\tsyscall %s imm\n\tmov %s ret0\n", e.reg(proc, src), label, e.reg(proc, d))
		}

	case ic.OpError:
		label := e.internString(im.Operands[0].ConstValue.(string))
		fmt.Fprintf(w, "\thalt imm 0xff ; %s\n", label)
	case ic.OpEnd:
		w.WriteString("\thalt imm 0x0\n")

	case ic.OpComment:
		fmt.Fprintf(w, "\t; %s\n", im.Comment)
	case ic.OpPrint:
		fmt.Fprintf(w, "\tsyscall %s imm\n", e.internSyscall("core.print"))
	case ic.OpSyscall:
		fmt.Fprintf(w, "\tsyscall %s imm\n", e.internSyscall(im.Comment))
	case ic.OpRelease:
		fmt.Fprintf(w, "\trelease %s\n", e.reg(proc, im.Operands[0]))
	case ic.OpPush:
		fmt.Fprintf(w, "\tpush %s\n", e.reg(proc, im.Operands[0]))
	case ic.OpPushRef:
		fmt.Fprintf(w, "\tpushref %s\n", e.reg(proc, im.Operands[0]))
	case ic.OpPushCRef:
		fmt.Fprintf(w, "\tpushcref %s\n", e.reg(proc, im.Operands[0]))
	}
}
