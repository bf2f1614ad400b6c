package dataflow

import (
	"secrec/internal/ic"
	"secrec/internal/symtab"

	"golang.org/x/exp/maps"
)

// SymbolSet is the Fact used by live-variable analysis: the set of
// symbols live at a program point.
type SymbolSet map[*symtab.Symbol]bool

// Equal implements Fact.
func (s SymbolSet) Equal(other Fact) bool {
	o := other.(SymbolSet)
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

// Clone implements Fact.
func (s SymbolSet) Clone() Fact {
	out := make(SymbolSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// Sorted returns the set's members in a deterministic order (by
// symbol name), useful for golden-output tests.
func (s SymbolSet) Sorted() []*symtab.Symbol {
	syms := maps.Keys(s)
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && syms[j-1].Name > syms[j].Name; j-- {
			syms[j-1], syms[j] = syms[j], syms[j-1]
		}
	}
	return syms
}

// LiveVariables implements the backward, union live-variable analysis
// from §4.3: a symbol is live at point p iff some path from p uses it
// before redefinition.
type LiveVariables struct{}

func (LiveVariables) Direction() Direction { return Backward }
func (LiveVariables) Bottom() Fact         { return SymbolSet{} }
func (LiveVariables) Init(b *ic.Block) Fact { return SymbolSet{} }

func (LiveVariables) Transfer(from *ic.Block, label ic.EdgeLabel, to *ic.Block, fact Fact) Fact {
	return fact
}

func (LiveVariables) Join(a, b Fact) Fact {
	as, bs := a.(SymbolSet), b.(SymbolSet)
	out := make(SymbolSet, len(as)+len(bs))
	for k := range as {
		out[k] = true
	}
	for k := range bs {
		out[k] = true
	}
	return out
}

func (LiveVariables) Apply(imop *ic.Imop, fact Fact) Fact {
	live := fact.(SymbolSet)
	// live_in(p) = use(p) U (live_out(p) \ def(p)); since Apply folds
	// backward, fact arrives as OUT(p) and we mutate it into IN(p).
	for _, d := range imop.Defs() {
		if d != nil {
			delete(live, d)
		}
	}
	for _, u := range imop.Uses() {
		if u != nil {
			live[u] = true
		}
	}
	return live
}

// IsLiveAfter reports whether sym is in the live-out set of the block
// containing imop at imop's position (i.e. live immediately after
// imop executes), computed from a full-block Result. Used by scalar
// release placement (spec §4.4) to find "immediately after the last
// use".
func IsLiveAfter(res Result, imop *ic.Imop, sym *symtab.Symbol) bool {
	b := imop.Block
	// Replay the block backward from its OUT fact down to imop's index.
	live := res.Out[b].Clone().(SymbolSet)
	for i := len(b.Instrs) - 1; i > imop.Index; i-- {
		live = LiveVariables{}.Apply(b.Instrs[i], live).(SymbolSet)
	}
	return live[sym]
}
