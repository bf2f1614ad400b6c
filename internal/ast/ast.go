// Package ast defines SecreC's abstract syntax tree: a location-tagged
// tree produced by the parser (spec §3 "AST node"). The shape follows
// the teacher's parser/ast.go visitor pattern (an Expr/Stmt interface
// with an Accept method), generalized with the typed declarations,
// `kind`/`domain`/`template` declarations, dimensionality annotations,
// and classify/declassify forms SecreC needs that the teacher's
// dynamically-typed expression language has no room for.
package ast

import "secrec/internal/types"

// Pos is a source location, attached to every node for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Node is the common interface implemented by every AST node.
type Node interface {
	Position() Pos
}

// Expr is an expression node. Per invariant I1, the type returned by
// Type() is set exactly once by type-checking (SetType) and is nil
// beforehand.
type Expr interface {
	Node
	exprNode()
	Accept(v ExprVisitor) interface{}
	Type() *types.Type
	SetType(t types.Type)
}

type exprBase struct {
	Pos Pos
	Typ *types.Type
}

func (e *exprBase) Position() Pos       { return e.Pos }
func (e *exprBase) exprNode()           {}
func (e *exprBase) Type() *types.Type   { return e.Typ }
func (e *exprBase) SetType(t types.Type) { e.Typ = &t }

// Literal is a bool/int/float/string constant. Data carries the
// concrete Go value (bool, int64, uint64, float64, or string); an
// untyped numeric literal leaves DataHint nil until type-checking
// narrows it (§4.1 "numeric" placeholder).
type Literal struct {
	exprBase
	Data     interface{}
	DataHint *types.DataType
}

func (l *Literal) Accept(v ExprVisitor) interface{} { return v.VisitLiteral(l) }

// Ident references a declared name.
type Ident struct {
	exprBase
	Name string
}

func (i *Ident) Accept(v ExprVisitor) interface{} { return v.VisitIdent(i) }

// BinaryOp is one of `+ - * / % < <= > >= == != && ||`.
type BinaryOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryOp) Accept(v ExprVisitor) interface{} { return v.VisitBinaryOp(b) }

// UnaryOp is one of `! - ~`.
type UnaryOp struct {
	exprBase
	Op      string
	Operand Expr
}

func (u *UnaryOp) Accept(v ExprVisitor) interface{} { return v.VisitUnaryOp(u) }

// Cast is an explicit `(type) expr` conversion.
type Cast struct {
	exprBase
	Target TypeExpr
	Value  Expr
}

func (c *Cast) Accept(v ExprVisitor) interface{} { return v.VisitCast(c) }

// Classify is an explicit `classify(e)` request; implicit
// classification (§4.1) is synthesized by the type checker and
// represented with this same node, distinguished by Implicit.
type Classify struct {
	exprBase
	Value    Expr
	Implicit bool
}

func (c *Classify) Accept(v ExprVisitor) interface{} { return v.VisitClassify(c) }

// Declassify is a `declassify(e)` expression; §4.1 this is never
// inserted implicitly.
type Declassify struct {
	exprBase
	Value Expr
}

func (d *Declassify) Accept(v ExprVisitor) interface{} { return v.VisitDeclassify(d) }

// Call is a procedure invocation, possibly resolving to a template
// instantiation (§4.1 overload resolution).
type Call struct {
	exprBase
	Callee string
	Args   []Expr
}

func (c *Call) Accept(v ExprVisitor) interface{} { return v.VisitCall(c) }

// IndexRange is one `lo:hi` (or bare `i`, where Hi == nil meaning
// hi = lo+1) position of an Index expression.
type IndexRange struct {
	Lo Expr
	Hi Expr // nil for a point index
}

// Index is `e[i1, i2, ...]`, used on either side of an assignment.
type Index struct {
	exprBase
	Base    Expr
	Indices []IndexRange
}

func (i *Index) Accept(v ExprVisitor) interface{} { return v.VisitIndex(i) }

// ExprVisitor mirrors the teacher's ExprVisitor interface, extended
// with SecreC's classify/declassify/index/cast forms.
type ExprVisitor interface {
	VisitLiteral(*Literal) interface{}
	VisitIdent(*Ident) interface{}
	VisitBinaryOp(*BinaryOp) interface{}
	VisitUnaryOp(*UnaryOp) interface{}
	VisitCast(*Cast) interface{}
	VisitClassify(*Classify) interface{}
	VisitDeclassify(*Declassify) interface{}
	VisitCall(*Call) interface{}
	VisitIndex(*Index) interface{}
}

// TypeExpr is the parsed form of a type annotation, e.g. `pd3
// int64[[2]]`, before the type checker resolves `pd3` to a concrete
// Security.
type TypeExpr struct {
	Pos       Pos
	SecName   string // "" or "public" means Public
	DataName  string
	Dim       int
}
