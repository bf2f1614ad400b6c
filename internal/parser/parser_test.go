package parser

import "testing"

func TestParseSimpleDeclAndArith(t *testing.T) {
	prog, err := Parse("s1.sc", `void main(){ public int64 x = 1 + 2; }`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Procs) != 1 || prog.Procs[0].Name != "main" {
		t.Fatalf("expected one proc named main, got %+v", prog.Procs)
	}
	if len(prog.Procs[0].Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in main's body, got %d", len(prog.Procs[0].Body.Stmts))
	}
}

func TestParseDeclassifyExpr(t *testing.T) {
	prog, err := Parse("s3.sc", `void main(){
		private int64 p = 1;
		public int64 q = declassify(p + 1);
	}`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Procs[0].Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Procs[0].Body.Stmts))
	}
}

func TestParseKindDomainAndQualifiedDecl(t *testing.T) {
	prog, err := Parse("s4.sc", `
		kind shared3pc;
		domain pd3 : shared3pc;
		void main(){
			pd3 int64 s = 1;
			public int64 r = declassify(s);
		}
	`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Kinds) != 1 || prog.Kinds[0].Name != "shared3pc" {
		t.Fatalf("expected one kind, got %+v", prog.Kinds)
	}
	if len(prog.Domains) != 1 || prog.Domains[0].Name != "pd3" || prog.Domains[0].KindName != "shared3pc" {
		t.Fatalf("expected one domain bound to shared3pc, got %+v", prog.Domains)
	}
}

func TestParseForWithBreakAndIf(t *testing.T) {
	prog, err := Parse("s5.sc", `
		void main(){
			for(public uint64 i = 0; i < 10; i = i + 1){
				if(i == 5) break;
			}
		}
	`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	body := prog.Procs[0].Body.Stmts
	if len(body) != 1 {
		t.Fatalf("expected a single for statement, got %d", len(body))
	}
}

func TestParseTemplateProcedure(t *testing.T) {
	prog, err := Parse("s6.sc", `
		template <domain D, type T>
		D T id(D T x){ return x; }
	`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Procs) != 1 {
		t.Fatalf("expected one procedure, got %d", len(prog.Procs))
	}
	proc := prog.Procs[0]
	if len(proc.TemplateParams) != 2 {
		t.Fatalf("expected 2 template params, got %d", len(proc.TemplateParams))
	}
	if !proc.TemplateParams[0].IsDomain || proc.TemplateParams[0].Name != "D" {
		t.Fatalf("expected first template param to be domain D, got %+v", proc.TemplateParams[0])
	}
	if proc.TemplateParams[1].IsDomain || proc.TemplateParams[1].Name != "T" {
		t.Fatalf("expected second template param to be type T, got %+v", proc.TemplateParams[1])
	}
}

func TestParseCastExpr(t *testing.T) {
	prog, err := Parse("cast.sc", `void main(){ public float64 y = (float64) 1; }`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Procs[0].Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Procs[0].Body.Stmts))
	}
}

func TestParseIndexExpr(t *testing.T) {
	prog, err := Parse("idx.sc", `void main(){ public int64[[1]] x; public int64 y = x[0:1]; }`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Procs[0].Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Procs[0].Body.Stmts))
	}
}
