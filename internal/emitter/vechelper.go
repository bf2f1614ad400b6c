package emitter

import (
	"fmt"
	"strings"

	"modernc.org/mathutil"
)

// vectorized instruction emission: per §4.6, a vectorized IC instruction
// (ic.Imop.Vector) never gets a single inline mnemonic line. Instead the
// emitter synthesizes, the first time a given (operation, element type)
// pair is seen, a small helper routine that loops count times applying
// the scalar mnemonic element-wise through raw pointers, and every
// vectorized instruction of that shape becomes a call to it. This keeps
// the emitted TEXT section's per-instruction cost independent of array
// size: a repeated fragment gets hoisted into one emitted routine
// instead of inlined at every call site.

// memStride normalizes an element's byte width to the target's mem-
// addressing mode, which only ever indexes by a power-of-two stride;
// every concrete SecreC element size already is one, but a borrowed
// utility beats hand-rolling the round-up (and catches it honestly if
// that stops being true).
func memStride(elemSize int) int {
	if elemSize <= 1 {
		return 1
	}
	return int(mathutil.ClosestPow2(uint32(elemSize)))
}

// needAllocHelper returns the label of the (possibly freshly
// synthesized) alloc_<size> helper §4.6 describes: it reserves
// count*size+1 bytes (the +1 avoids a zero-length allocation) through
// the runtime's allocation syscall, fills the region with a repeated
// default value in a counted loop, and returns the resulting pointer.
func (e *Emitter) needAllocHelper(size int) string {
	name := fmt.Sprintf("alloc_%d", size)
	if e.synthHelperSeen[name] {
		return name
	}
	e.synthHelperSeen[name] = true
	e.synthHelperOrder = append(e.synthHelperOrder, name)
	sysLabel := e.internSyscall("core.alloc")

	stride := memStride(size)
	loop := name + ".loop"
	done := name + ".done"
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", name)
	fmt.Fprintf(&b, "\tmov cref 0 0x0 hdefault <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 1 0x0 hcount <uint64>\n")
	fmt.Fprintf(&b, "\ttmul <uint64> hbytes,hcount,imm %d\n", stride)
	fmt.Fprintf(&b, "\ttadd <uint64> hbytes,hbytes,imm 1\n")
	fmt.Fprintf(&b, "\tpush hbytes\n\tsyscall %s imm\n\tmov hptr ret0\n", sysLabel)
	fmt.Fprintf(&b, "\tmov hi imm 0\n")
	fmt.Fprintf(&b, "%s:\n", loop)
	fmt.Fprintf(&b, "\tjge %s <uint64> hi,hcount\n", done)
	fmt.Fprintf(&b, "\tmov hdefault mem hptr hi <uint64> %d\n", stride)
	fmt.Fprintf(&b, "\ttadd <uint64> hi,hi,imm 1\n")
	fmt.Fprintf(&b, "\tjmp %s\n", loop)
	fmt.Fprintf(&b, "%s:\n\tpush hptr\n\treturn imm 0x0\n", done)
	e.synthHelperBody[name] = b.String()
	return name
}

// needVecArithHelper returns the label of the (possibly freshly
// synthesized) helper implementing mnemonic over dty, looping a
// dest/left/right triple of array pointers count times.
func (e *Emitter) needVecArithHelper(mnemonic, dtyStr string, elemSize int) string {
	name := fmt.Sprintf("vec_%s_%s", mnemonic, dtyStr)
	if e.synthHelperSeen[name] {
		return name
	}
	e.synthHelperSeen[name] = true
	e.synthHelperOrder = append(e.synthHelperOrder, name)

	stride := memStride(elemSize)
	loop := name + ".loop"
	done := name + ".done"
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", name)
	fmt.Fprintf(&b, "\tmov cref 0 0x0 hdest <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 1 0x0 hleft <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 2 0x0 hright <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 3 0x0 hcount <uint64>\n")
	fmt.Fprintf(&b, "\tmov hi imm 0\n")
	fmt.Fprintf(&b, "%s:\n", loop)
	fmt.Fprintf(&b, "\tjge %s <uint64> hi,hcount\n", done)
	fmt.Fprintf(&b, "\tmov mem hleft hi <%s> %d\n\tmov hlv ret0\n", dtyStr, stride)
	fmt.Fprintf(&b, "\tmov mem hright hi <%s> %d\n\tmov hrv ret0\n", dtyStr, stride)
	fmt.Fprintf(&b, "\t%s <%s> hres,hlv,hrv\n", mnemonic, dtyStr)
	fmt.Fprintf(&b, "\tmov hres mem hdest hi <%s> %d\n", dtyStr, stride)
	fmt.Fprintf(&b, "\ttadd <uint64> hi,hi,imm 1\n")
	fmt.Fprintf(&b, "\tjmp %s\n", loop)
	fmt.Fprintf(&b, "%s:\n\treturn imm 0x0\n", done)
	e.synthHelperBody[name] = b.String()
	return name
}

// needVecUnaryHelper is needVecArithHelper's one-source counterpart, for
// unary arithmetic (OpUNeg/OpUMinus/OpUInv).
func (e *Emitter) needVecUnaryHelper(mnemonic, dtyStr string, elemSize int) string {
	name := fmt.Sprintf("vec_%s_%s", mnemonic, dtyStr)
	if e.synthHelperSeen[name] {
		return name
	}
	e.synthHelperSeen[name] = true
	e.synthHelperOrder = append(e.synthHelperOrder, name)

	stride := memStride(elemSize)
	loop := name + ".loop"
	done := name + ".done"
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", name)
	fmt.Fprintf(&b, "\tmov cref 0 0x0 hdest <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 1 0x0 hsrc <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 2 0x0 hcount <uint64>\n")
	fmt.Fprintf(&b, "\tmov hi imm 0\n")
	fmt.Fprintf(&b, "%s:\n", loop)
	fmt.Fprintf(&b, "\tjge %s <uint64> hi,hcount\n", done)
	fmt.Fprintf(&b, "\tmov mem hsrc hi <%s> %d\n\tmov hv ret0\n", dtyStr, stride)
	fmt.Fprintf(&b, "\t%s <%s> hres,hv\n", mnemonic, dtyStr)
	fmt.Fprintf(&b, "\tmov hres mem hdest hi <%s> %d\n", dtyStr, stride)
	fmt.Fprintf(&b, "\ttadd <uint64> hi,hi,imm 1\n")
	fmt.Fprintf(&b, "\tjmp %s\n", loop)
	fmt.Fprintf(&b, "%s:\n\treturn imm 0x0\n", done)
	e.synthHelperBody[name] = b.String()
	return name
}

// needVecCastHelper synthesizes an element-wise CAST loop between two
// (possibly differently-sized) element types.
func (e *Emitter) needVecCastHelper(destDty string, destSize int, srcDty string, srcSize int) string {
	name := fmt.Sprintf("vec_cast_%s_%s", destDty, srcDty)
	if e.synthHelperSeen[name] {
		return name
	}
	e.synthHelperSeen[name] = true
	e.synthHelperOrder = append(e.synthHelperOrder, name)

	destStride, srcStride := memStride(destSize), memStride(srcSize)
	loop := name + ".loop"
	done := name + ".done"
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", name)
	fmt.Fprintf(&b, "\tmov cref 0 0x0 hdest <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 1 0x0 hsrc <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 2 0x0 hcount <uint64>\n")
	fmt.Fprintf(&b, "\tmov hi imm 0\n")
	fmt.Fprintf(&b, "%s:\n", loop)
	fmt.Fprintf(&b, "\tjge %s <uint64> hi,hcount\n", done)
	fmt.Fprintf(&b, "\tmov mem hsrc hi <%s> %d\n\tmov hv ret0\n", srcDty, srcStride)
	fmt.Fprintf(&b, "\tmov hres hv <%s>\n", destDty)
	fmt.Fprintf(&b, "\tmov hres mem hdest hi <%s> %d\n", destDty, destStride)
	fmt.Fprintf(&b, "\ttadd <uint64> hi,hi,imm 1\n")
	fmt.Fprintf(&b, "\tjmp %s\n", loop)
	fmt.Fprintf(&b, "%s:\n\treturn imm 0x0\n", done)
	e.synthHelperBody[name] = b.String()
	return name
}

// needVecPrivacyHelper synthesizes an element-wise CLASSIFY/DECLASSIFY
// loop; syscallName is interned the same way the scalar form already
// does, so BIND carries exactly one entry regardless of how many array
// shapes eventually call through this helper.
func (e *Emitter) needVecPrivacyHelper(kind, dtyStr string, elemSize int, syscallName string) string {
	name := fmt.Sprintf("vec_%s_%s", kind, dtyStr)
	if e.synthHelperSeen[name] {
		return name
	}
	e.synthHelperSeen[name] = true
	e.synthHelperOrder = append(e.synthHelperOrder, name)
	sysLabel := e.internSyscall(syscallName)

	stride := memStride(elemSize)
	loop := name + ".loop"
	done := name + ".done"
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", name)
	fmt.Fprintf(&b, "\tmov cref 0 0x0 hdest <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 1 0x0 hsrc <uint64>\n")
	fmt.Fprintf(&b, "\tmov cref 2 0x0 hcount <uint64>\n")
	fmt.Fprintf(&b, "\tmov hi imm 0\n")
	fmt.Fprintf(&b, "%s:\n", loop)
	fmt.Fprintf(&b, "\tjge %s <uint64> hi,hcount\n", done)
	fmt.Fprintf(&b, "\tmov mem hsrc hi <%s> %d\n\tmov hv ret0\n", dtyStr, stride)
	fmt.Fprintf(&b, "\tpush hv\n\tsyscall %s imm\n\tmov hres ret0\n", sysLabel)
	fmt.Fprintf(&b, "\tmov hres mem hdest hi <%s> %d\n", dtyStr, stride)
	fmt.Fprintf(&b, "\ttadd <uint64> hi,hi,imm 1\n")
	fmt.Fprintf(&b, "\tjmp %s\n", loop)
	fmt.Fprintf(&b, "%s:\n\treturn imm 0x0\n", done)
	e.synthHelperBody[name] = b.String()
	return name
}
