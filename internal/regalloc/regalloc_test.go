package regalloc

import (
	"testing"

	"secrec/internal/codegen"
	"secrec/internal/ic"
	"secrec/internal/parser"
	"secrec/internal/typecheck"
)

func mustGenerate(t *testing.T, src string) *ic.Program {
	t.Helper()
	prog, err := parser.Parse("t.sc", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	res := typecheck.CheckProgram(prog)
	if res.Log.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Log.Entries())
	}
	return codegen.GenerateProgram(res)
}

func TestAllocateNoInterferenceSingleColor(t *testing.T) {
	p := mustGenerate(t, `void main(){ public int64 x = 1; public int64 y = 2; }`)
	main := p.Procedures[0]
	alloc := Allocate(main)
	for _, c := range alloc.LocalIndex {
		if c != 0 {
			t.Fatalf("expected every register to get color 0 when nothing interferes, got %d", c)
		}
	}
}

func TestAllocateInterferingLiveRangesGetDistinctColors(t *testing.T) {
	p := mustGenerate(t, `
		void main(){
			public int64 a = 1;
			public int64 b = 2;
			public int64 c = a + b;
		}
	`)
	main := p.Procedures[0]
	alloc := Allocate(main)
	if len(alloc.LocalIndex) == 0 {
		t.Fatalf("expected at least one local register to be colored")
	}
	seen := map[int]bool{}
	for _, c := range alloc.LocalIndex {
		seen[c] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected a and b (simultaneously live into the ADD) to receive distinct colors, got colors %v", seen)
	}
}

func TestAllocateProgramCoversEveryProcedure(t *testing.T) {
	p := mustGenerate(t, `
		template <type T>
		T identity(T x) { return x; }
		void main(){ public int64 a = identity(1); }
	`)
	allocs := AllocateProgram(p)
	if len(allocs) != len(p.Procedures) {
		t.Fatalf("expected one allocation per procedure, got %d for %d procedures", len(allocs), len(p.Procedures))
	}
	for _, proc := range p.Procedures {
		if allocs[proc] == nil {
			t.Fatalf("procedure %q missing an allocation", proc.Name)
		}
	}
}
