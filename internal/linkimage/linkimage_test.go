package linkimage

import (
	"bytes"
	"reflect"
	"testing"

	"secrec/internal/codegen"
	"secrec/internal/emitter"
	"secrec/internal/parser"
	"secrec/internal/regalloc"
	"secrec/internal/typecheck"
)

func mustBuildUnit(t *testing.T, src string) *LinkUnit {
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
	e := emitter.New(allocs)
	text := e.EmitProgram(icProg)
	return &LinkUnit{
		Bind:   e.Bindings(),
		PDBind: e.PDBindings(),
		Rodata: e.Rodata(),
		Text:   text,
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	u := mustBuildUnit(t, `
		kind shared3pc;
		domain pd3 : shared3pc;
		void main(){
			public int64 x = 1 + 2;
			pd3 int64 y = x;
		}
	`)

	var buf bytes.Buffer
	if err := Serialize(&buf, u); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}

	got, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	if !reflect.DeepEqual(got, u) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", u, got)
	}
	if len(got.PDBind) == 0 || got.PDBind[0] != "pd3" {
		t.Fatalf("expected pd3 to survive the round trip, got %v", got.PDBind)
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 1, 0, 0, 0})
	if _, err := Deserialize(buf); err == nil {
		t.Fatalf("expected an error for a bad magic number")
	}
}

func TestEmptyUnitRoundTrips(t *testing.T) {
	u := &LinkUnit{}
	var buf bytes.Buffer
	if err := Serialize(&buf, u); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	got, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if len(got.Bind) != 0 || len(got.PDBind) != 0 || len(got.Rodata) != 0 || got.Text != "" {
		t.Fatalf("expected an empty unit to round-trip empty, got %#v", got)
	}
}
