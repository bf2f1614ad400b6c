package types

import "testing"

func TestSecurityLattice(t *testing.T) {
	shared := &SecDomain{Name: "pd3", Kind: &SecKind{Name: "shared3pc"}}
	other := &SecDomain{Name: "pd7", Kind: &SecKind{Name: "shared3pc"}}

	if !Public.LEq(Private(shared)) {
		t.Fatalf("expected Public <= Private(pd3)")
	}
	if Private(shared).LEq(Public) {
		t.Fatalf("expected Private(pd3) !<= Public")
	}
	if Private(shared).LEq(Private(other)) {
		t.Fatalf("distinct private domains must be incomparable")
	}

	if _, ok := Private(shared).Join(Private(other)); ok {
		t.Fatalf("join of incomparable domains must fail")
	}
	joined, ok := Public.Join(Private(shared))
	if !ok || joined != Private(shared) {
		t.Fatalf("join(Public, Private(pd3)) = %v, want Private(pd3)", joined)
	}
}

func TestImplicitWidening(t *testing.T) {
	cases := []struct {
		from, to DataType
		want     bool
	}{
		{DataBool, DataInt64, true},
		{DataInt64, DataUint64, false},
		{DataFloat32, DataFloat64, false},
		{DataNumeric, DataInt64, true},
		{DataInt32, DataInt32, true},
	}
	for _, c := range cases {
		if got := ImplicitlyWidensTo(c.from, c.to); got != c.want {
			t.Errorf("ImplicitlyWidensTo(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestExplicitCastSupersetOfImplicit(t *testing.T) {
	families := []DataType{DataBool, DataInt8, DataInt64, DataUint8, DataUint64, DataFloat32, DataFloat64}
	for _, from := range families {
		for _, to := range families {
			if ImplicitlyWidensTo(from, to) && !ExplicitCastAllowed(from, to) {
				t.Errorf("explicit-cast lattice must be a superset: %v->%v implicit but not explicit", from, to)
			}
		}
	}
	if ExplicitCastAllowed(DataString, DataInt64) {
		t.Errorf("string must never participate in casts")
	}
	if ExplicitCastAllowed(DataXorUint8, DataUint8) {
		t.Errorf("xor family must never cast directly to non-xor")
	}
}

func TestInstantiationQueueDedupes(t *testing.T) {
	q := NewInstantiationQueue()
	a := q.Request("id", map[string]Type{"T": Scalar(Public, DataInt64)})
	b := q.Request("id", map[string]Type{"T": Scalar(Public, DataInt64)})
	if a != b {
		t.Fatalf("identical bindings must dedupe to the same instantiation")
	}
	c := q.Request("id", map[string]Type{"T": Scalar(Public, DataBool)})
	if a == c {
		t.Fatalf("distinct bindings must not dedupe")
	}
	batch := q.Drain()
	if len(batch) != 2 {
		t.Fatalf("Drain() = %d entries, want 2", len(batch))
	}
	if !q.Empty() {
		t.Fatalf("queue must be empty after Drain")
	}
}
