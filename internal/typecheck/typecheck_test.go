package typecheck

import (
	"testing"

	"secrec/internal/ast"
	"secrec/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse("t.sc", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return prog
}

func TestCheckSimpleArith(t *testing.T) {
	prog := mustParse(t, `void main(){ public int64 x = 1 + 2; }`)
	res := CheckProgram(prog)
	if res.Log.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Log.Entries())
	}
}

func TestCheckImplicitClassifyOnAssign(t *testing.T) {
	prog := mustParse(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		void main(){
			pd3 int64 s = 1;
			public int64 x = 1;
			s = x;
		}
	`)
	res := CheckProgram(prog)
	if res.Log.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Log.Entries())
	}
	main := res.Procs[0]
	assign := main.Body.Stmts[2].(*ast.Assign)
	if _, ok := assign.Rhs.(*ast.Classify); !ok {
		t.Fatalf("expected an implicit Classify node wrapping the rhs, got %T", assign.Rhs)
	}
}

func TestCheckDeclassifyRequiresPrivateOperand(t *testing.T) {
	prog := mustParse(t, `void main(){ public int64 x = 1; public int64 y = declassify(x); }`)
	res := CheckProgram(prog)
	if !res.Log.HasFatal() {
		t.Fatalf("expected a fatal diagnostic for declassifying a public value")
	}
}

func TestCheckUnknownIdentifier(t *testing.T) {
	prog := mustParse(t, `void main(){ public int64 x = y; }`)
	res := CheckProgram(prog)
	if !res.Log.HasFatal() {
		t.Fatalf("expected a fatal diagnostic for an unknown identifier")
	}
}

func TestCheckTemplateInstantiatesTwice(t *testing.T) {
	prog := mustParse(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		template <domain D, type T>
		D T id(D T x){ return x; }
		void main(){
			public int64 a = id(1);
			pd3 bool b0 = true;
			pd3 bool b = id(b0);
		}
	`)
	res := CheckProgram(prog)
	if res.Log.HasFatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", res.Log.Entries())
	}
	// main plus two distinct instantiations of id.
	if len(res.Procs) != 3 {
		t.Fatalf("expected 3 procedures (main + 2 instantiations), got %d", len(res.Procs))
	}
}

func TestCheckBreakOutsideLoop(t *testing.T) {
	prog := mustParse(t, `void main(){ break; }`)
	res := CheckProgram(prog)
	if !res.Log.HasFatal() {
		t.Fatalf("expected a fatal diagnostic for 'break' outside a loop")
	}
}
