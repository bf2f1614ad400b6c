// Package stdkind demonstrates how a `kind` declaration (internal/types
// §3 Symbol) can bind its private values to a concrete host
// representation without that representation ever reaching the
// compiler's own arithmetic: internal/ic only ever sees a SecKind's
// Name and Tag, never the Go type Tag names.
//
// Curve25519 is the sample binding: a `kind curve25519` whose private
// scalars are carried, outside the compiler, as
// filippo.io/edwards25519.Scalar field elements. Nothing in
// internal/codegen or internal/emitter imports this package; it is a
// standalone demonstration of the binding, exercised only by its own
// test.
package stdkind

import (
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"

	"secrec/internal/types"
)

// Curve25519 is the sample standard-library kind: its Tag names the
// Go type (FieldElement, below) that a runtime would use to represent
// one of its private scalars.
var Curve25519 = &types.SecKind{Name: "curve25519", Tag: "stdkind.FieldElement"}

// FieldElement wraps an edwards25519 scalar, the representation
// Curve25519-kind private values are bound to.
type FieldElement struct {
	s *edwards25519.Scalar
}

// NewFieldElement returns the additive identity of the scalar field.
func NewFieldElement() FieldElement {
	return FieldElement{s: edwards25519.NewScalar()}
}

// RandomFieldElement draws a uniformly random scalar, the form a
// secret share under this kind would take.
func RandomFieldElement() (FieldElement, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return FieldElement{}, fmt.Errorf("stdkind: reading randomness: %w", err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return FieldElement{}, fmt.Errorf("stdkind: deriving scalar: %w", err)
	}
	return FieldElement{s: s}, nil
}

// FieldElementFromCanonicalBytes decodes the 32-byte little-endian
// canonical encoding a bytecode image's RODATA section would carry
// for a curve25519-kind constant.
func FieldElementFromCanonicalBytes(b []byte) (FieldElement, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return FieldElement{}, fmt.Errorf("stdkind: not a canonical scalar encoding: %w", err)
	}
	return FieldElement{s: s}, nil
}

// Bytes returns the 32-byte little-endian canonical encoding.
func (f FieldElement) Bytes() []byte {
	return f.s.Bytes()
}

// Add returns f+g in the scalar field, the operation a `+` on two
// curve25519-kind private values would lower to at the host.
func (f FieldElement) Add(g FieldElement) FieldElement {
	return FieldElement{s: edwards25519.NewScalar().Add(f.s, g.s)}
}

// Multiply returns f*g in the scalar field.
func (f FieldElement) Multiply(g FieldElement) FieldElement {
	return FieldElement{s: edwards25519.NewScalar().Multiply(f.s, g.s)}
}

// Equal reports whether f and g encode the same scalar.
func (f FieldElement) Equal(g FieldElement) bool {
	return string(f.s.Bytes()) == string(g.s.Bytes())
}
