package codegen

import (
	"secrec/internal/ast"
	"secrec/internal/ic"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

// Point indexing linearizes base[i1,...] in row-major order via base's
// runtime Shape vector (invariant I2). A range position (`lo:hi`)
// instead materializes a sub-array: per §4.4's "Sliced indexing", every
// index position is normalized to a (lo, hi) pair (hi = lo+1 for a
// point index), bounds-checked against the source dimension, and the
// positions that produced a genuine hi distinct from lo+1 each become
// one dimension of a nested copy loop between the source and result
// arrays' linearized offsets.

// errorIfGT emits a runtime ERROR when a > b, matching §4.4's "bounds
// checks 0 ≤ lo ≤ hi ≤ dim_i as JGT→ERROR".
func (pg *procGen) errorIfGT(a, b *symtab.Symbol, msg string) {
	jt := pg.emitJump(ic.OpJGT, a, b)
	jf := pg.splitAfterCondJump()
	errBlock := pg.proc.NewBlock("indexError")
	pg.patch(patchList{jt}, errBlock, ic.EdgeTrue)
	ok := pg.proc.NewBlock("indexOk")
	pg.patch(patchList{jf}, ok, ic.EdgeFalse)

	pg.cur = errBlock
	pg.runtimeError(msg)

	pg.cur = ok
}

// dimEqualGuard emits a runtime ERROR when a and b (two single
// dimension-size symbols) disagree; shapeMatchGuard uses this per
// dimension of two whole arrays, and a sliced assignment uses it to
// check an rhs array's shape against the slice it is being copied into.
func (pg *procGen) dimEqualGuard(a, b *symtab.Symbol) {
	jt := pg.emitJump(ic.OpJE, a, b)
	jf := pg.splitAfterCondJump()
	mismatch := pg.proc.NewBlock("shapeMismatch")
	pg.patch(patchList{jf}, mismatch, ic.EdgeFalse)
	ok := pg.proc.NewBlock("shapeOk")
	pg.patch(patchList{jt}, ok, ic.EdgeTrue)

	pg.cur = mismatch
	pg.runtimeError("shape mismatch")

	pg.cur = ok
}

// resolveIndexBounds lowers every index position of an Index node to a
// (lo, hi) pair against base, bounds-checking each one, and reports
// which positions are genuine slices (Hi present in the source) as
// opposed to point indices (hi synthesized as lo+1).
func (pg *procGen) resolveIndexBounds(base *symtab.Symbol, indices []ast.IndexRange) (los, his []*symtab.Symbol, sliceDims []int) {
	u64 := types.Scalar(types.Public, types.DataUint64)
	los = make([]*symtab.Symbol, len(indices))
	his = make([]*symtab.Symbol, len(indices))
	for i, r := range indices {
		lo := pg.genExpr(r.Lo)
		var hi *symtab.Symbol
		if r.Hi != nil {
			hi = pg.genExpr(r.Hi)
			sliceDims = append(sliceDims, i)
		} else {
			hi = pg.newTemp(u64)
			pg.emit(ic.OpAdd, hi, lo, pg.scope.ConstantUint(1, types.DataUint64))
		}
		pg.errorIfGT(lo, hi, "slice start exceeds end")
		pg.errorIfGT(hi, base.Shape[i], "index out of bounds")
		los[i] = lo
		his[i] = hi
	}
	return
}

// linearOffset combines per-dimension indices against shape in
// row-major order (Horner's rule), producing base[idx...]'s linear
// element offset.
func (pg *procGen) linearOffset(shape []*symtab.Symbol, idx []*symtab.Symbol) *symtab.Symbol {
	u64 := types.Scalar(types.Public, types.DataUint64)
	var offset *symtab.Symbol
	for i, ix := range idx {
		if i == 0 {
			offset = ix
			continue
		}
		mulTmp := pg.newTemp(u64)
		pg.emit(ic.OpMul, mulTmp, offset, shape[i])
		addTmp := pg.newTemp(u64)
		pg.emit(ic.OpAdd, addTmp, mulTmp, ix)
		offset = addTmp
	}
	return offset
}

// sliceWidths computes hi-lo for every slice dimension, writing each
// width into target[j] (a fresh temporary is allocated when target[j]
// is nil, which lets genIndexLoad write directly into its freshly
// allocated result's own Shape symbols instead of copying them over).
func (pg *procGen) sliceWidths(los, his []*symtab.Symbol, sliceDims []int, target []*symtab.Symbol) []*symtab.Symbol {
	u64 := types.Scalar(types.Public, types.DataUint64)
	widths := make([]*symtab.Symbol, len(sliceDims))
	for j, i := range sliceDims {
		w := target[j]
		if w == nil {
			w = pg.newTemp(u64)
		}
		pg.emit(ic.OpSub, w, his[i], los[i])
		widths[j] = w
	}
	return widths
}

// computeSize multiplies dims together (in order) into into, the
// row-major element count a Shape vector of those dimensions backs.
func (pg *procGen) computeSize(dims []*symtab.Symbol, into *symtab.Symbol) {
	if len(dims) == 0 {
		pg.emit(ic.OpAssign, into, pg.scope.ConstantUint(1, types.DataUint64))
		return
	}
	acc := dims[0]
	for i := 1; i < len(dims); i++ {
		tmp := pg.newTemp(types.Scalar(types.Public, types.DataUint64))
		pg.emit(ic.OpMul, tmp, acc, dims[i])
		acc = tmp
	}
	pg.emit(ic.OpAssign, into, acc)
}

// genSliceLoop walks every original index position of base, opening a
// counted loop for each slice dimension (a point dimension instead
// contributes its fixed lo as a straight-line term) and invoking body
// once per result element with the accumulated source and destination
// linear offsets. Both offsets are built by the same Horner's-rule
// multiply-add §4.4 describes as "stride vectors": the source offset
// against base's full Shape, the destination offset against destShape
// (one entry per slice dimension, in the same order).
func (pg *procGen) genSliceLoop(base *symtab.Symbol, los, his []*symtab.Symbol, sliceDims []int, destShape []*symtab.Symbol, body func(srcOffset, destOffset *symtab.Symbol)) {
	u64 := types.Scalar(types.Public, types.DataUint64)
	zero := pg.scope.ConstantUint(0, types.DataUint64)
	one := pg.scope.ConstantUint(1, types.DataUint64)

	sliceDimPos := make(map[int]int, len(sliceDims))
	for j, i := range sliceDims {
		sliceDimPos[i] = j
	}

	var walk func(i int, srcOffset, destOffset *symtab.Symbol)
	walk = func(i int, srcOffset, destOffset *symtab.Symbol) {
		if i == len(los) {
			body(srcOffset, destOffset)
			return
		}
		j, isSlice := sliceDimPos[i]
		if !isSlice {
			nextSrc := pg.newTemp(u64)
			pg.emit(ic.OpMul, nextSrc, srcOffset, base.Shape[i])
			srcSum := pg.newTemp(u64)
			pg.emit(ic.OpAdd, srcSum, nextSrc, los[i])
			walk(i+1, srcSum, destOffset)
			return
		}

		k := pg.newTemp(u64)
		pg.emit(ic.OpAssign, k, zero)
		width := pg.newTemp(u64)
		pg.emit(ic.OpSub, width, his[i], los[i])

		head := pg.proc.NewBlock("sliceHead")
		pg.jumpToIfNeeded(head)
		pg.cur = head
		jt := pg.emitJump(ic.OpJLT, k, width)
		jf := pg.splitAfterCondJump()
		bodyBlock := pg.proc.NewBlock("sliceBody")
		exit := pg.proc.NewBlock("sliceExit")
		pg.patch(patchList{jt}, bodyBlock, ic.EdgeTrue)
		pg.patch(patchList{jf}, exit, ic.EdgeFalse)

		pg.cur = bodyBlock
		idx := pg.newTemp(u64)
		pg.emit(ic.OpAdd, idx, los[i], k)

		nextSrc := pg.newTemp(u64)
		pg.emit(ic.OpMul, nextSrc, srcOffset, base.Shape[i])
		srcSum := pg.newTemp(u64)
		pg.emit(ic.OpAdd, srcSum, nextSrc, idx)

		nextDest := pg.newTemp(u64)
		pg.emit(ic.OpMul, nextDest, destOffset, destShape[j])
		destSum := pg.newTemp(u64)
		pg.emit(ic.OpAdd, destSum, nextDest, k)

		walk(i+1, srcSum, destSum)

		kNext := pg.newTemp(u64)
		pg.emit(ic.OpAdd, kNext, k, one)
		pg.emit(ic.OpAssign, k, kNext)
		pg.jumpToIfNeeded(head)

		pg.cur = exit
	}
	walk(0, zero, zero)
}

func (pg *procGen) genIndexLoad(n *ast.Index) *symtab.Symbol {
	base := pg.genExpr(n.Base)
	los, his, sliceDims := pg.resolveIndexBounds(base, n.Indices)
	if len(sliceDims) == 0 {
		offset := pg.linearOffset(base.Shape, los)
		dest := pg.newTemp(*n.Type())
		pg.emit(ic.OpLoad, dest, base, offset)
		return dest
	}

	dest := pg.newTemp(*n.Type())
	pg.sliceWidths(los, his, sliceDims, dest.Shape)
	pg.computeSize(dest.Shape, dest.Size)
	pg.emit(ic.OpAlloc, dest, pg.zeroValue(n.Type().Data), dest.Size)

	elemType := types.Scalar(n.Type().Sec, n.Type().Data)
	pg.genSliceLoop(base, los, his, sliceDims, dest.Shape, func(srcOffset, destOffset *symtab.Symbol) {
		v := pg.newTemp(elemType)
		pg.emit(ic.OpLoad, v, base, srcOffset)
		pg.emit(ic.OpStore, dest, destOffset, v)
	})
	return dest
}

func (pg *procGen) genIndexStore(n *ast.Index, value *symtab.Symbol) {
	base := pg.genExpr(n.Base)
	los, his, sliceDims := pg.resolveIndexBounds(base, n.Indices)
	if len(sliceDims) == 0 {
		offset := pg.linearOffset(base.Shape, los)
		pg.emit(ic.OpStore, base, offset, value)
		return
	}

	widths := pg.sliceWidths(los, his, sliceDims, make([]*symtab.Symbol, len(sliceDims)))
	for j, w := range widths {
		pg.dimEqualGuard(value.Shape[j], w)
	}

	elemType := types.Scalar(value.Type.Sec, value.Type.Data)
	pg.genSliceLoop(base, los, his, sliceDims, widths, func(srcOffset, destOffset *symtab.Symbol) {
		v := pg.newTemp(elemType)
		pg.emit(ic.OpLoad, v, value, destOffset)
		pg.emit(ic.OpStore, base, srcOffset, v)
	})
}
