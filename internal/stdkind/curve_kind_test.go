package stdkind

import "testing"

func TestCurve25519KindNamesItsRepresentation(t *testing.T) {
	if Curve25519.Name != "curve25519" {
		t.Fatalf("expected kind name %q, got %q", "curve25519", Curve25519.Name)
	}
	if Curve25519.Tag == "" {
		t.Fatalf("expected Curve25519 to bind a representation Tag")
	}
}

func TestFieldElementAddIsCommutative(t *testing.T) {
	a, err := RandomFieldElement()
	if err != nil {
		t.Fatalf("RandomFieldElement() error: %v", err)
	}
	b, err := RandomFieldElement()
	if err != nil {
		t.Fatalf("RandomFieldElement() error: %v", err)
	}
	if !a.Add(b).Equal(b.Add(a)) {
		t.Fatalf("expected a+b == b+a")
	}
}

func TestFieldElementFromCanonicalBytesRoundTrips(t *testing.T) {
	a, err := RandomFieldElement()
	if err != nil {
		t.Fatalf("RandomFieldElement() error: %v", err)
	}
	b, err := FieldElementFromCanonicalBytes(a.Bytes())
	if err != nil {
		t.Fatalf("FieldElementFromCanonicalBytes() error: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("expected the decoded scalar to equal the original")
	}
}

func TestZeroFieldElementIsAdditiveIdentity(t *testing.T) {
	zero := NewFieldElement()
	a, err := RandomFieldElement()
	if err != nil {
		t.Fatalf("RandomFieldElement() error: %v", err)
	}
	if !a.Add(zero).Equal(a) {
		t.Fatalf("expected a+0 == a")
	}
}
