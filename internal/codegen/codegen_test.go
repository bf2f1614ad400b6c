package codegen

import (
	"testing"

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
	return GenerateProgram(res)
}

func verifyAll(t *testing.T, p *ic.Program) {
	t.Helper()
	for _, proc := range p.Procedures {
		if errs := ic.VerifyProcedure(proc); len(errs) > 0 {
			t.Fatalf("procedure %q failed verification: %v", proc.Name, errs)
		}
	}
}

func findProc(p *ic.Program, name string) *ic.Procedure {
	for _, proc := range p.Procedures {
		if proc.Name == name {
			return proc
		}
	}
	return nil
}

func TestGenSimpleArith(t *testing.T) {
	p := mustGenerate(t, `void main(){ public int64 x = 1 + 2 * 3; }`)
	verifyAll(t, p)
	main := findProc(p, "main")
	if main == nil {
		t.Fatalf("no main procedure emitted")
	}
	if main.Entry.Instrs[len(main.Entry.Instrs)-1].Op != ic.OpReturnVoid {
		t.Fatalf("expected entry block to fall through to an implicit RETURNVOID")
	}
}

func TestGenIfElseJoins(t *testing.T) {
	p := mustGenerate(t, `
		void main(){
			public int64 x = 0;
			if (x < 10) { x = 1; } else { x = 2; }
		}
	`)
	verifyAll(t, p)
}

func TestGenForLoopBreakContinue(t *testing.T) {
	p := mustGenerate(t, `
		void main(){
			public int64 i = 0;
			public int64 acc = 0;
			for (i = 0; i < 10; i = i + 1) {
				if (i == 5) { continue; }
				if (i == 8) { break; }
				acc = acc + i;
			}
		}
	`)
	verifyAll(t, p)
	main := findProc(p, "main")
	var jumps int
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			if im.Op == ic.OpJump {
				jumps++
			}
		}
	}
	if jumps == 0 {
		t.Fatalf("expected break/continue to lower to at least one unconditional jump")
	}
}

func TestGenPrivateShortCircuitIsEager(t *testing.T) {
	p := mustGenerate(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		void main(){
			pd3 bool a = true;
			pd3 bool b = false;
			pd3 bool c = a && b;
		}
	`)
	verifyAll(t, p)
	main := findProc(p, "main")
	var sawLAnd bool
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			if im.Op == ic.OpLAnd {
				sawLAnd = true
			}
		}
	}
	if !sawLAnd {
		t.Fatalf("expected a private-operand && to lower to a single eager LAND instruction")
	}
}

func TestGenCallAndTemplateInstantiation(t *testing.T) {
	p := mustGenerate(t, `
		template <type T>
		T identity(T x) { return x; }

		void main(){
			public int64 a = identity(1);
			public bool b = identity(true);
		}
	`)
	verifyAll(t, p)
	var calls int
	main := findProc(p, "main")
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			if im.Op == ic.OpCall {
				calls++
			}
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 CALL instructions for 2 distinct instantiations, got %d", calls)
	}
	if len(p.Procedures) < 3 {
		t.Fatalf("expected main plus 2 instantiated identity procedures, got %d procedures", len(p.Procedures))
	}
}

func TestGenPointIndexLoadStore(t *testing.T) {
	p := mustGenerate(t, `
		void main(public int64[[1]] xs){
			public int64 y = xs[0];
			xs[1] = y;
		}
	`)
	verifyAll(t, p)
	main := findProc(p, "main")
	var loads, stores int
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			switch im.Op {
			case ic.OpLoad:
				loads++
			case ic.OpStore:
				stores++
			}
		}
	}
	if loads != 1 || stores != 1 {
		t.Fatalf("expected exactly one LOAD and one STORE, got loads=%d stores=%d", loads, stores)
	}
}

func TestInsertScalarReleases(t *testing.T) {
	p := mustGenerate(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		pd3 int64 helper(pd3 int64 x){
			pd3 int64 y = x + x;
			return y;
		}
		void main(){
			pd3 int64 z = helper(classify(1));
		}
	`)
	InsertScalarReleases(p)
	verifyAll(t, p)
	var sawRelease bool
	for _, proc := range p.Procedures {
		for _, b := range proc.Blocks {
			for _, im := range b.Instrs {
				if im.Op == ic.OpRelease {
					sawRelease = true
				}
			}
		}
	}
	if !sawRelease {
		t.Fatalf("expected at least one RELEASE to be inserted for a dead private scalar")
	}
}

func TestGenArrayBinaryVectorizes(t *testing.T) {
	p := mustGenerate(t, `
		void main(public int64[[1]] xs, public int64[[1]] ys){
			public int64[[1]] zs = xs + ys;
		}
	`)
	verifyAll(t, p)
	main := findProc(p, "main")
	var sawVectorAdd, sawShapeGuard bool
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			if im.Op == ic.OpAdd && im.Vector {
				sawVectorAdd = true
				if len(im.Operands) != 4 {
					t.Fatalf("expected a vectorized ADD with 4 operands (dest,left,right,count), got %d", len(im.Operands))
				}
			}
			if im.Op == ic.OpJE {
				sawShapeGuard = true
			}
		}
	}
	if !sawVectorAdd {
		t.Fatalf("expected array + array to lower to a vectorized ADD")
	}
	if !sawShapeGuard {
		t.Fatalf("expected a shape-match guard (JE) before the vectorized ADD")
	}
}

func TestGenArrayScalarBroadcast(t *testing.T) {
	p := mustGenerate(t, `
		void main(public int64[[1]] xs){
			public int64[[1]] zs = xs * 2;
		}
	`)
	verifyAll(t, p)
	main := findProc(p, "main")
	var allocs, vectorMuls int
	for _, b := range main.Blocks {
		for _, im := range b.Instrs {
			if im.Op == ic.OpAlloc {
				allocs++
			}
			if im.Op == ic.OpMul && im.Vector {
				vectorMuls++
			}
		}
	}
	// one ALLOC broadcasting the scalar 2 into an xs-shaped array, one
	// ALLOC backing the result array.
	if allocs != 2 {
		t.Fatalf("expected 2 ALLOCs (broadcast + result), got %d", allocs)
	}
	if vectorMuls != 1 {
		t.Fatalf("expected exactly one vectorized MUL, got %d", vectorMuls)
	}
}
