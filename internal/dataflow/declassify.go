package dataflow

import (
	"secrec/internal/ic"
	"secrec/internal/symtab"
)

// Provenance is the per-variable record tracked by reaching-declassify
// analysis (spec §4.3): whether the value currently held by a variable
// is provably derived only from public inputs by reversible ("trivial")
// transformations, is sensitive (derived from a private value by a
// non-invertible path), or nonsensitive (derived from public inputs
// only, never touched a private value).
type Provenance int

const (
	ProvUnknown Provenance = iota
	ProvTrivial
	ProvSensitive
	ProvNonsensitive
)

func joinProvenance(a, b Provenance) Provenance {
	if a == ProvUnknown {
		return b
	}
	if b == ProvUnknown {
		return a
	}
	if a == b {
		return a
	}
	// Differing provenances from different paths: conservatively
	// sensitive, since we can no longer prove a trivial/nonsensitive
	// bound along every path.
	return ProvSensitive
}

// ProvenanceMap is the Fact used by reaching-declassify analysis: a
// per-variable Provenance record, forward and union per §4.3.
type ProvenanceMap map[*symtab.Symbol]Provenance

func (m ProvenanceMap) Equal(other Fact) bool {
	o := other.(ProvenanceMap)
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		if o[k] != v {
			return false
		}
	}
	return true
}

func (m ProvenanceMap) Clone() Fact {
	out := make(ProvenanceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ReachingDeclassify implements the forward, union-with-per-variable-
// record analysis from §4.3. Warnings accumulates, for every
// DECLASSIFY instruction visited, whether its operand was provably
// trivial at that point (used to emit the S3-style warning).
type ReachingDeclassify struct {
	Warnings map[*ic.Imop]Provenance
}

func NewReachingDeclassify() *ReachingDeclassify {
	return &ReachingDeclassify{Warnings: make(map[*ic.Imop]Provenance)}
}

func (*ReachingDeclassify) Direction() Direction { return Forward }
func (*ReachingDeclassify) Bottom() Fact          { return ProvenanceMap{} }
func (*ReachingDeclassify) Init(b *ic.Block) Fact { return ProvenanceMap{} }

func (*ReachingDeclassify) Transfer(from *ic.Block, label ic.EdgeLabel, to *ic.Block, fact Fact) Fact {
	return fact
}

func (*ReachingDeclassify) Join(a, b Fact) Fact {
	am, bm := a.(ProvenanceMap), b.(ProvenanceMap)
	out := make(ProvenanceMap, len(am)+len(bm))
	for k, v := range am {
		out[k] = v
	}
	for k, v := range bm {
		out[k] = joinProvenance(out[k], v)
	}
	return out
}

// invertibleOps are the arithmetic operators treated as reversible
// (hence provenance-preserving) when one operand is a public constant,
// matching S3's "+1 is invertible only if 1 is public".
var invertibleOps = map[ic.Op]bool{
	ic.OpAdd: true, ic.OpSub: true, ic.OpUMinus: true,
}

func (r *ReachingDeclassify) Apply(imop *ic.Imop, fact Fact) Fact {
	prov := fact.(ProvenanceMap)
	switch imop.Op {
	case ic.OpClassify:
		if d := imop.Dest(); d != nil {
			prov[d] = ProvSensitive
		}
	case ic.OpDeclassify:
		src := imop.Operands[1]
		p := prov[src]
		r.Warnings[imop] = p
		if d := imop.Dest(); d != nil {
			prov[d] = ProvNonsensitive
		}
	case ic.OpAssign, ic.OpCast:
		if d := imop.Dest(); d != nil && len(imop.Operands) > 1 {
			prov[d] = prov[imop.Operands[1]]
		}
	default:
		if invertibleOps[imop.Op] {
			// Trivial iff every non-destination use is either a
			// constant (absent from prov, defaults ProvUnknown ->
			// treated as public/nonsensitive) or itself trivial, with
			// at most one sensitive input.
			best := ProvNonsensitive
			sensitiveInputs := map[*symtab.Symbol]bool{}
			for _, u := range imop.Uses() {
				p := prov[u]
				if p == ProvUnknown {
					p = ProvNonsensitive
				}
				if p == ProvSensitive || p == ProvTrivial {
					sensitiveInputs[u] = true
				}
				best = joinProvenance(best, p)
			}
			if d := imop.Dest(); d != nil {
				if len(sensitiveInputs) > 1 {
					prov[d] = ProvSensitive
				} else if best == ProvSensitive {
					prov[d] = ProvTrivial
				} else {
					prov[d] = best
				}
			}
		} else if d := imop.Dest(); d != nil {
			// Any non-invertible operator mixing in a sensitive input
			// yields a value no longer provably trivial.
			sensitive := false
			for _, u := range imop.Uses() {
				if prov[u] == ProvSensitive || prov[u] == ProvTrivial {
					sensitive = true
				}
			}
			if sensitive {
				prov[d] = ProvSensitive
			} else {
				prov[d] = ProvNonsensitive
			}
		}
	}
	return prov
}
