package emitter

import (
	"strings"
	"testing"

	"secrec/internal/codegen"
	"secrec/internal/ic"
	"secrec/internal/parser"
	"secrec/internal/regalloc"
	"secrec/internal/typecheck"
)

func mustEmit(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse("t.sc", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	res := typecheck.CheckProgram(prog)
	if res.Log.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Log.Entries())
	}
	icProg := codegen.GenerateProgram(res)
	codegen.InsertScalarReleases(icProg)
	allocs := regalloc.AllocateProgram(icProg)
	for _, proc := range icProg.Procedures {
		if errs := ic.VerifyProcedure(proc); len(errs) > 0 {
			t.Fatalf("procedure %q failed verification: %v", proc.Name, errs)
		}
	}
	return New(allocs).EmitProgram(icProg)
}

func TestEmitSectionOrder(t *testing.T) {
	out := mustEmit(t, `void main(){ public int64 x = 1 + 2; }`)
	bind := strings.Index(out, ".section BIND")
	pdbind := strings.Index(out, ".section PDBIND")
	rodata := strings.Index(out, ".section RODATA")
	text := strings.Index(out, ".section TEXT")
	if bind < 0 || pdbind < 0 || rodata < 0 || text < 0 {
		t.Fatalf("expected all four sections present, got:\n%s", out)
	}
	if !(bind < pdbind && pdbind < rodata && rodata < text) {
		t.Fatalf("expected BIND < PDBIND < RODATA < TEXT, got:\n%s", out)
	}
	if !strings.Contains(out, "main:") {
		t.Fatalf("expected a main: label, got:\n%s", out)
	}
	if !strings.Contains(out, "tadd <int64>") {
		t.Fatalf("expected a tadd <int64> arithmetic line, got:\n%s", out)
	}
}

func TestEmitClassifyBindsSyscallAndDomain(t *testing.T) {
	out := mustEmit(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		void main(){
			public int64 x = 1;
			pd3 int64 y = x;
		}
	`)
	if !strings.Contains(out, "core.classify") {
		t.Fatalf("expected a bound core.classify syscall, got:\n%s", out)
	}
	if !strings.Contains(out, "pd3") {
		t.Fatalf("expected the pd3 domain to be bound in PDBIND, got:\n%s", out)
	}
}

func TestEmitVectorizedArithSynthesizesHelper(t *testing.T) {
	out := mustEmit(t, `
		void main(public int64[[1]] xs, public int64[[1]] ys){
			public int64[[1]] zs = xs + ys;
		}
	`)
	if !strings.Contains(out, "call vec_tadd_int64 4") {
		t.Fatalf("expected a call into the synthesized vec_tadd_int64 helper, got:\n%s", out)
	}
	if strings.Count(out, "vec_tadd_int64:") != 1 {
		t.Fatalf("expected the vec_tadd_int64 helper body synthesized exactly once, got:\n%s", out)
	}
	if !strings.Contains(out, "vec_tadd_int64.loop:") || !strings.Contains(out, "vec_tadd_int64.done:") {
		t.Fatalf("expected a counted loop body for vec_tadd_int64, got:\n%s", out)
	}
}

func TestEmitErrorInternsString(t *testing.T) {
	out := mustEmit(t, `void main(public int64[[1]] xs){ public int64 y = xs[0]; }`)
	if !strings.Contains(out, ".section RODATA") || !strings.Contains(out, "index out of bounds") {
		t.Fatalf("expected the bounds-check error message interned into RODATA, got:\n%s", out)
	}
	if !strings.Contains(out, "halt imm 0xff") {
		t.Fatalf("expected a halt imm 0xff for the bounds-check failure path, got:\n%s", out)
	}
}
