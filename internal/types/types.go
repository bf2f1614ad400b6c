// Package types implements SecreC's two stacked type lattices: the
// public/private security lattice and the scalar data-type lattice,
// plus the dimensionality counter that rides alongside both. Per the
// expanded spec's Design Notes ("Two lattices stacked"), the type is a
// flat record, not a class hierarchy: lattice operations are pure
// functions over that record rather than virtual methods.
package types

import "fmt"

// DataType enumerates the scalar element-type lattice.
type DataType int

const (
	DataInvalid DataType = iota
	DataBool
	DataString
	DataInt8
	DataInt16
	DataInt32
	DataInt64
	DataUint8
	DataUint16
	DataUint32
	DataUint64
	DataXorUint8
	DataXorUint16
	DataXorUint32
	DataXorUint64
	DataFloat32
	DataFloat64
	// DataNumeric is the polymorphic literal placeholder; it must be
	// narrowed to a concrete type before it can appear on a typed AST
	// node (invariant I1).
	DataNumeric
)

func (d DataType) String() string {
	switch d {
	case DataBool:
		return "bool"
	case DataString:
		return "string"
	case DataInt8:
		return "int8"
	case DataInt16:
		return "int16"
	case DataInt32:
		return "int32"
	case DataInt64:
		return "int64"
	case DataUint8:
		return "uint8"
	case DataUint16:
		return "uint16"
	case DataUint32:
		return "uint32"
	case DataUint64:
		return "uint64"
	case DataXorUint8:
		return "xor_uint8"
	case DataXorUint16:
		return "xor_uint16"
	case DataXorUint32:
		return "xor_uint32"
	case DataXorUint64:
		return "xor_uint64"
	case DataFloat32:
		return "float32"
	case DataFloat64:
		return "float64"
	case DataNumeric:
		return "numeric"
	default:
		return "invalid"
	}
}

// IsInteger reports whether d is one of the signed, unsigned, or
// xor-shared unsigned integer families.
func (d DataType) IsInteger() bool {
	switch d {
	case DataInt8, DataInt16, DataInt32, DataInt64,
		DataUint8, DataUint16, DataUint32, DataUint64,
		DataXorUint8, DataXorUint16, DataXorUint32, DataXorUint64:
		return true
	}
	return false
}

// IsSigned reports whether d is one of the signed integer widths.
func (d DataType) IsSigned() bool {
	switch d {
	case DataInt8, DataInt16, DataInt32, DataInt64:
		return true
	}
	return false
}

// IsUnsigned reports whether d is one of the (non-xor) unsigned
// integer widths.
func (d DataType) IsUnsigned() bool {
	switch d {
	case DataUint8, DataUint16, DataUint32, DataUint64:
		return true
	}
	return false
}

// IsXor reports whether d is one of the xor-shared integer widths;
// per §9's open question (c), arithmetic on these is only ever
// reachable through a syscall binding.
func (d DataType) IsXor() bool {
	switch d {
	case DataXorUint8, DataXorUint16, DataXorUint32, DataXorUint64:
		return true
	}
	return false
}

// IsFloat reports whether d is a floating-point width.
func (d DataType) IsFloat() bool {
	return d == DataFloat32 || d == DataFloat64
}

// width returns an integer/float type's bit width, for widening
// comparisons; 0 for types without a defined width.
func (d DataType) width() int {
	switch d {
	case DataInt8, DataUint8, DataXorUint8:
		return 8
	case DataInt16, DataUint16, DataXorUint16:
		return 16
	case DataInt32, DataUint32, DataXorUint32, DataFloat32:
		return 32
	case DataInt64, DataUint64, DataXorUint64, DataFloat64:
		return 64
	}
	return 0
}

// ElementSize returns the size in bytes of one element of d, used by
// the emitter's vectorized-arithmetic and alloc-helper synthesis.
func (d DataType) ElementSize() int {
	if d == DataBool {
		return 8 // booleans are represented as uint64 at the target (spec §6)
	}
	return d.width() / 8
}

// SecKind names a `kind` top-level declaration: a named protection
// scheme that security domains belong to. Tag optionally names the
// concrete host representation a standard-library kind binds its
// private values to (e.g. internal/stdkind's curve25519 kind); it is
// empty for ordinary user-declared kinds, which carry no compiler-
// visible representation at all.
type SecKind struct {
	Name string
	Tag  string
}

// SecDomain names a `domain` declaration: a concrete instance of a
// Kind, and the unit of private security-type identity.
type SecDomain struct {
	Name string
	Kind *SecKind
}

// Security is the closed sum Public | Private(kind, domain). A nil
// Domain denotes Public.
type Security struct {
	Domain *SecDomain // nil => Public
}

// Public is the singleton public security type.
var Public = Security{}

// Private constructs a private security type bound to domain.
func Private(domain *SecDomain) Security { return Security{Domain: domain} }

// IsPublic reports whether s is the public security type.
func (s Security) IsPublic() bool { return s.Domain == nil }

func (s Security) String() string {
	if s.IsPublic() {
		return "public"
	}
	return s.Domain.Name
}

// LEq implements the security lattice's partial order: Public <=
// anything; two distinct private domains are incomparable; a private
// domain is <= only itself.
func (s Security) LEq(other Security) bool {
	if s.IsPublic() {
		return true
	}
	if other.IsPublic() {
		return false
	}
	return s.Domain == other.Domain
}

// Join computes the least upper bound of two security types, used
// when typing a binary operator. Returns ok=false when the two
// domains are incomparable private domains.
func (s Security) Join(other Security) (Security, bool) {
	if s.IsPublic() {
		return other, true
	}
	if other.IsPublic() {
		return s, true
	}
	if s.Domain == other.Domain {
		return s, true
	}
	return Security{}, false
}

// Type is a full SecreC value type: the triple (security, data, dim)
// from §3 of the spec.
type Type struct {
	Sec  Security
	Data DataType
	Dim  int // 0 = scalar
}

// Scalar constructs a dim=0 type.
func Scalar(sec Security, data DataType) Type { return Type{Sec: sec, Data: data, Dim: 0} }

// Array constructs a dim=n type.
func Array(sec Security, data DataType, dim int) Type { return Type{Sec: sec, Data: data, Dim: dim} }

func (t Type) String() string {
	if t.Dim == 0 {
		return fmt.Sprintf("%s %s", t.Sec, t.Data)
	}
	return fmt.Sprintf("%s %s[[%d]]", t.Sec, t.Data, t.Dim)
}

// IsScalar reports whether t has dim 0.
func (t Type) IsScalar() bool { return t.Dim == 0 }

// MangleSig formats a parameter-type list into the comma-joined string
// used as a procedure's overload-disambiguating symbol-table suffix
// (shared by the type checker, which registers procedures under it,
// and the code generator, which must re-derive it from a call site's
// already-resolved argument types to find the same symbol).
func MangleSig(params []Type) string {
	s := ""
	for i, p := range params {
		if i > 0 {
			s += ","
		}
		s += p.String()
	}
	return s
}

// Void is the sentinel "no value" type used for procedures with no
// return value; the zero Type{} is otherwise a valid public-bool
// scalar, so Void is distinguished by Data == DataInvalid.
var Void = Type{Data: DataInvalid}

// IsVoid reports whether t is the Void sentinel.
func (t Type) IsVoid() bool { return t.Data == DataInvalid }

// Context is the bidirectional type-checker's context type: each
// component optionally undefined ("*"), matching §4.1's ctx =
// (sec?, data?, dim?).
type Context struct {
	Sec     *Security
	Data    *DataType
	Dim     *int
}

// AnyContext is the empty, fully-undefined context.
var AnyContext = Context{}

// WithData returns a copy of c with Data pinned.
func (c Context) WithData(d DataType) Context {
	c.Data = &d
	return c
}

// WithSec returns a copy of c with Sec pinned.
func (c Context) WithSec(s Security) Context {
	c.Sec = &s
	return c
}

// WithDim returns a copy of c with Dim pinned.
func (c Context) WithDim(n int) Context {
	c.Dim = &n
	return c
}

// Matches reports whether t satisfies every pinned component of c.
// Security matching allows implicit widening (public value accepted
// where a private context is required becomes a CLASSIFY insertion
// decided by the caller, not by Matches itself); Matches here checks
// only that t.Sec.LEq(*c.Sec) would hold after such a conversion.
func (c Context) Matches(t Type) bool {
	if c.Sec != nil && !t.Sec.LEq(*c.Sec) {
		return false
	}
	if c.Data != nil && *c.Data != t.Data {
		return false
	}
	if c.Dim != nil && *c.Dim != t.Dim {
		return false
	}
	return true
}

// ImplicitlyWidensTo reports whether a bare value of type from may be
// used where a value of type to is expected without an explicit cast.
// Per §4.1, the only implicit data conversion is bool->int; sign,
// width, and float<->int changes always require an explicit cast.
func ImplicitlyWidensTo(from, to DataType) bool {
	if from == to {
		return true
	}
	if from == DataBool && to.IsInteger() && to.IsSigned() {
		return true
	}
	if from == DataNumeric && (to.IsInteger() || to.IsFloat()) {
		return true
	}
	return false
}

// ExplicitCastAllowed reports membership in the explicit-cast lattice,
// a strict superset of ImplicitlyWidensTo per §3.
func ExplicitCastAllowed(from, to DataType) bool {
	if ImplicitlyWidensTo(from, to) {
		return true
	}
	if from == DataString || to == DataString {
		return false // string only concatenates/compares, never casts
	}
	if from.IsXor() != to.IsXor() {
		return false // xor family only converts via syscall, never cast
	}
	if from.IsInteger() && to.IsInteger() {
		return true // sign/width changes
	}
	if from.IsFloat() && to.IsInteger() {
		return true
	}
	if from.IsInteger() && to.IsFloat() {
		return true
	}
	if from == DataBool && to.IsInteger() {
		return true
	}
	if from.IsInteger() && to == DataBool {
		return true
	}
	return false
}
