package lexer

import "testing"

func TestScanBasicDecl(t *testing.T) {
	toks, err := New("t.sc", "public int64 x = 1 + 2;").Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []TokenType{TokKeyword, TokKeyword, TokIdent, TokOp, TokIntLit, TokOp, TokIntLit, TokSemicolon, TokEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestScanFloatLiteral(t *testing.T) {
	toks, err := New("t.sc", "float64 x = 3.5;").Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Type == TokFloatLit {
			found = true
			if tok.FloatValue != 3.5 {
				t.Errorf("FloatValue = %v, want 3.5", tok.FloatValue)
			}
		}
	}
	if !found {
		t.Fatalf("expected a float literal token")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := New("t.sc", `string s = "oops`).Scan()
	if err == nil {
		t.Fatalf("expected an error for an unterminated string")
	}
}

func TestScanComment(t *testing.T) {
	toks, err := New("t.sc", "// comment\nint64 x;").Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if toks[0].Type != TokKeyword || toks[0].Lexeme != "int64" {
		t.Fatalf("expected comment to be skipped, got %+v", toks[0])
	}
}
