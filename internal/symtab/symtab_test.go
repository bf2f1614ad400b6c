package symtab

import (
	"testing"

	"secrec/internal/types"
)

func TestScopeLookup(t *testing.T) {
	root := NewRoot()
	root.DeclareVariable("g", types.Scalar(types.Public, types.DataInt64), Global)

	child := root.NewScope()
	child.DeclareVariable("x", types.Scalar(types.Public, types.DataBool), Local)

	if child.Find("x") == nil {
		t.Fatalf("expected to find local x from child scope")
	}
	if child.Find("g") == nil {
		t.Fatalf("expected find() to walk up to global g")
	}
	if root.Find("x") != nil {
		t.Fatalf("parent scope must not see child's locals")
	}
	if child.FindGlobal("x") != nil {
		t.Fatalf("findGlobal must not see a local-only symbol")
	}
}

func TestConstantsHashCons(t *testing.T) {
	root := NewRoot()
	a := root.ConstantInt(42, types.DataInt64)
	b := root.ConstantInt(42, types.DataInt64)
	if a != b {
		t.Fatalf("identical constants must hash-cons to the same symbol")
	}
	c := root.ConstantInt(42, types.DataInt32)
	if a == c {
		t.Fatalf("constants of different data type must not share a symbol")
	}
}

func TestTemporariesAreMonotoneAndUnique(t *testing.T) {
	root := NewRoot()
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		sym := root.NewTemporary(types.Scalar(types.Public, types.DataInt64), Local)
		if seen[sym.Name] {
			t.Fatalf("temporary name %q reused", sym.Name)
		}
		seen[sym.Name] = true
	}
}

func TestNonScalarGetsShapeAndSize(t *testing.T) {
	root := NewRoot()
	sym := root.DeclareVariable("arr", types.Array(types.Public, types.DataInt64, 2), Global)
	if len(sym.Shape) != 2 {
		t.Fatalf("expected 2 shape symbols, got %d", len(sym.Shape))
	}
	if sym.Size == nil {
		t.Fatalf("expected a size symbol for a non-scalar variable")
	}
}
