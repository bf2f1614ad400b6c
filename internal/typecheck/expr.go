package typecheck

import (
	"fmt"

	"secrec/internal/ast"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

func unknownIdentifier(name string) error {
	return fmt.Errorf("unknown identifier %q", name)
}

func typeMismatch(format string, args ...interface{}) error {
	return fmt.Errorf("type mismatch: "+format, args...)
}

// checkExpr is the bidirectional checker's entry point: it type-checks
// e against ctx, returning a (possibly rewritten, e.g. wrapped in an
// implicit CLASSIFY) expression whose Type() is fully resolved.
func (c *Checker) checkExpr(e ast.Expr, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(n, ctx)
	case *ast.Ident:
		return c.checkIdent(n, ctx, scope)
	case *ast.BinaryOp:
		return c.checkBinary(n, ctx, scope)
	case *ast.UnaryOp:
		return c.checkUnary(n, ctx, scope)
	case *ast.Cast:
		return c.checkCast(n, scope)
	case *ast.Classify:
		return c.checkClassify(n, ctx, scope)
	case *ast.Declassify:
		return c.checkDeclassify(n, scope)
	case *ast.Call:
		return c.checkCall(n, ctx, scope)
	case *ast.Index:
		return c.checkIndex(n, scope)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", e)
	}
}

// classifyIfNeeded wraps e in an implicit CLASSIFY node when e's
// resolved security is public but ctx pins a private security (spec
// §4.1 "Implicit classification"). No other implicit conversion
// exists; a mismatched private domain or narrower/wider data type is
// always an error at the call site, never silently fixed here.
func classifyIfNeeded(e ast.Expr, ctx types.Context) ast.Expr {
	if ctx.Sec == nil {
		return e
	}
	t := *e.Type()
	if !t.Sec.IsPublic() || ctx.Sec.IsPublic() {
		return e // already private (mismatches reported by the caller), or target is public too
	}
	cl := ast.NewClassify(e.Position(), e, true)
	cl.SetType(types.Type{Sec: *ctx.Sec, Data: t.Data, Dim: t.Dim})
	return cl
}

func (c *Checker) checkLiteral(n *ast.Literal, ctx types.Context) (ast.Expr, error) {
	var dt types.DataType
	switch v := n.Data.(type) {
	case bool:
		dt = types.DataBool
	case string:
		dt = types.DataString
	case int64:
		dt = types.DataInt64
		if ctx.Data != nil && ((*ctx.Data).IsInteger() || (*ctx.Data).IsFloat()) {
			dt = *ctx.Data
		}
	case float64:
		dt = types.DataFloat64
		if ctx.Data != nil && (*ctx.Data).IsFloat() {
			dt = *ctx.Data
		}
	default:
		return nil, fmt.Errorf("literal has unrecognized Go value %v", v)
	}
	sec := types.Public
	t := types.Scalar(sec, dt)
	n.SetType(t)
	if ctx.Dim != nil && *ctx.Dim != 0 {
		return nil, fmt.Errorf("dimensionality mismatch: a bare literal cannot supply a rank-%d array", *ctx.Dim)
	}
	return classifyIfNeeded(n, ctx), nil
}

func (c *Checker) checkIdent(n *ast.Ident, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	sym := scope.Find(n.Name)
	if sym == nil {
		return nil, unknownIdentifier(n.Name)
	}
	c.info.Ident[n] = sym
	n.SetType(sym.Type)
	if ctx.Data != nil && *ctx.Data != sym.Type.Data {
		return nil, typeMismatch("%q has type %s, expected data type %s", n.Name, sym.Type, *ctx.Data)
	}
	if ctx.Dim != nil && *ctx.Dim != sym.Type.Dim {
		return nil, fmt.Errorf("dimensionality mismatch: %q is rank %d, expected rank %d", n.Name, sym.Type.Dim, *ctx.Dim)
	}
	if ctx.Sec != nil && !sym.Type.Sec.LEq(*ctx.Sec) {
		return nil, fmt.Errorf("security type mismatch: %q is %s, incomparable with %s", n.Name, sym.Type.Sec, *ctx.Sec)
	}
	return classifyIfNeeded(n, ctx), nil
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicalOps = map[string]bool{"&&": true, "||": true}
var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}

func (c *Checker) checkBinary(n *ast.BinaryOp, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	left, err := c.checkExpr(n.Left, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Left = left
	lt := *left.Type()

	var rctx types.Context
	if logicalOps[n.Op] {
		rctx = types.AnyContext.WithData(types.DataBool)
	} else {
		rctx = types.AnyContext.WithData(lt.Data)
	}
	right, err := c.checkExpr(n.Right, rctx, scope)
	if err != nil {
		return nil, err
	}
	n.Right = right
	rt := *right.Type()

	if logicalOps[n.Op] {
		if lt.Data != types.DataBool || rt.Data != types.DataBool {
			return nil, typeMismatch("%q requires bool operands, got %s and %s", n.Op, lt.Data, rt.Data)
		}
	} else if lt.Data != rt.Data {
		return nil, typeMismatch("%q operands have mismatched data types %s and %s", n.Op, lt.Data, rt.Data)
	}
	if lt.Data == types.DataString && arithOps[n.Op] && n.Op != "+" {
		return nil, typeMismatch("string only supports '+' (concatenation), not %q", n.Op)
	}

	sec, ok := lt.Sec.Join(rt.Sec)
	if !ok {
		return nil, fmt.Errorf("security type mismatch: incomparable domains %s and %s", lt.Sec, rt.Sec)
	}
	// Re-check each side against the joined security, inserting an
	// implicit CLASSIFY for whichever operand was merely public.
	n.Left = classifyIfNeeded(n.Left, types.AnyContext.WithSec(sec))
	n.Right = classifyIfNeeded(n.Right, types.AnyContext.WithSec(sec))

	dim := lt.Dim
	if lt.Dim == 0 {
		dim = rt.Dim
	} else if rt.Dim != 0 && rt.Dim != lt.Dim {
		return nil, fmt.Errorf("dimensionality mismatch: rank %d vs rank %d", lt.Dim, rt.Dim)
	}

	resultData := lt.Data
	if comparisonOps[n.Op] || logicalOps[n.Op] {
		resultData = types.DataBool
	}
	t := types.Type{Sec: sec, Data: resultData, Dim: dim}
	n.SetType(t)
	return classifyIfNeeded(n, ctx), nil
}

func (c *Checker) checkUnary(n *ast.UnaryOp, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	operand, err := c.checkExpr(n.Operand, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Operand = operand
	t := *operand.Type()
	switch n.Op {
	case "!":
		if t.Data != types.DataBool {
			return nil, typeMismatch("'!' requires a bool operand, got %s", t.Data)
		}
	case "-":
		if t.Data.IsXor() || t.Data == types.DataBool || t.Data == types.DataString {
			return nil, typeMismatch("unary '-' not defined for %s", t.Data)
		}
	case "~":
		if !t.Data.IsInteger() {
			return nil, typeMismatch("'~' requires an integer operand, got %s", t.Data)
		}
	}
	n.SetType(t)
	return classifyIfNeeded(n, ctx), nil
}

func (c *Checker) checkCast(n *ast.Cast, scope *symtab.Table) (ast.Expr, error) {
	value, err := c.checkExpr(n.Value, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Value = value
	target, err := c.resolveTypeExpr(n.Target)
	if err != nil {
		return nil, err
	}
	vt := *value.Type()
	if !types.ExplicitCastAllowed(vt.Data, target.Data) {
		return nil, fmt.Errorf("invalid cast from %s to %s", vt.Data, target.Data)
	}
	t := types.Type{Sec: vt.Sec, Data: target.Data, Dim: vt.Dim}
	n.SetType(t)
	return n, nil
}

func (c *Checker) checkClassify(n *ast.Classify, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	value, err := c.checkExpr(n.Value, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Value = value
	vt := *value.Type()
	if !vt.Sec.IsPublic() {
		return nil, typeMismatch("classify() requires a public operand, got %s", vt.Sec)
	}
	if ctx.Sec == nil || ctx.Sec.IsPublic() {
		return nil, fmt.Errorf("classify() requires a private security context to classify into")
	}
	t := types.Type{Sec: *ctx.Sec, Data: vt.Data, Dim: vt.Dim}
	n.SetType(t)
	return n, nil
}

func (c *Checker) checkDeclassify(n *ast.Declassify, scope *symtab.Table) (ast.Expr, error) {
	value, err := c.checkExpr(n.Value, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Value = value
	vt := *value.Type()
	if vt.Sec.IsPublic() {
		return nil, typeMismatch("declassify() requires a private operand, got %s", vt.Sec)
	}
	t := types.Scalar(types.Public, vt.Data)
	t.Dim = vt.Dim
	n.SetType(t)
	return n, nil
}

func (c *Checker) checkIndex(n *ast.Index, scope *symtab.Table) (ast.Expr, error) {
	base, err := c.checkExpr(n.Base, types.AnyContext, scope)
	if err != nil {
		return nil, err
	}
	n.Base = base
	bt := *base.Type()
	if bt.Dim == 0 {
		return nil, fmt.Errorf("cannot index a scalar value")
	}
	if len(n.Indices) != bt.Dim {
		return nil, fmt.Errorf("dimensionality mismatch: %d index positions for a rank-%d value", len(n.Indices), bt.Dim)
	}
	resultDim := 0
	u64 := types.DataUint64
	idxCtx := types.AnyContext.WithData(u64).WithDim(0)
	for i := range n.Indices {
		lo, err := c.checkExpr(n.Indices[i].Lo, idxCtx, scope)
		if err != nil {
			return nil, err
		}
		n.Indices[i].Lo = lo
		if n.Indices[i].Hi != nil {
			hi, err := c.checkExpr(n.Indices[i].Hi, idxCtx, scope)
			if err != nil {
				return nil, err
			}
			n.Indices[i].Hi = hi
			resultDim++
		}
	}
	t := types.Type{Sec: bt.Sec, Data: bt.Data, Dim: resultDim}
	n.SetType(t)
	return n, nil
}
