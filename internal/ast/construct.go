package ast

import "secrec/internal/types"

// Constructors for parser package use, since exprBase/stmtBase are
// unexported embedded types that other packages cannot name in a
// struct literal to set their Pos/Typ/Proc fields directly.

func NewLiteral(pos Pos, data interface{}, hint *types.DataType) *Literal {
	return &Literal{exprBase: exprBase{Pos: pos}, Data: data, DataHint: hint}
}

func NewIdent(pos Pos, name string) *Ident {
	return &Ident{exprBase: exprBase{Pos: pos}, Name: name}
}

func NewBinaryOp(pos Pos, op string, left, right Expr) *BinaryOp {
	return &BinaryOp{exprBase: exprBase{Pos: pos}, Op: op, Left: left, Right: right}
}

func NewUnaryOp(pos Pos, op string, operand Expr) *UnaryOp {
	return &UnaryOp{exprBase: exprBase{Pos: pos}, Op: op, Operand: operand}
}

func NewCast(pos Pos, target TypeExpr, value Expr) *Cast {
	return &Cast{exprBase: exprBase{Pos: pos}, Target: target, Value: value}
}

func NewClassify(pos Pos, value Expr, implicit bool) *Classify {
	return &Classify{exprBase: exprBase{Pos: pos}, Value: value, Implicit: implicit}
}

func NewDeclassify(pos Pos, value Expr) *Declassify {
	return &Declassify{exprBase: exprBase{Pos: pos}, Value: value}
}

func NewCall(pos Pos, callee string, args []Expr) *Call {
	return &Call{exprBase: exprBase{Pos: pos}, Callee: callee, Args: args}
}

func NewIndex(pos Pos, base Expr, indices []IndexRange) *Index {
	return &Index{exprBase: exprBase{Pos: pos}, Base: base, Indices: indices}
}

func NewVarDecl(pos Pos, proc *ProcDecl, name string, ty TypeExpr, init Expr) *VarDecl {
	return &VarDecl{stmtBase: stmtBase{Pos: pos, Proc: proc}, Name: name, Type: ty, Init: init}
}

func NewAssign(pos Pos, proc *ProcDecl, lhs, rhs Expr) *Assign {
	return &Assign{stmtBase: stmtBase{Pos: pos, Proc: proc}, Lhs: lhs, Rhs: rhs}
}

func NewExprStmt(pos Pos, proc *ProcDecl, x Expr) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{Pos: pos, Proc: proc}, X: x}
}

func NewBlock(pos Pos, proc *ProcDecl) *Block {
	return &Block{stmtBase: stmtBase{Pos: pos, Proc: proc}}
}

func NewIf(pos Pos, proc *ProcDecl, cond Expr, then, els Stmt) *If {
	return &If{stmtBase: stmtBase{Pos: pos, Proc: proc}, Cond: cond, Then: then, Else: els}
}

func NewWhile(pos Pos, proc *ProcDecl, cond Expr, body Stmt) *While {
	return &While{stmtBase: stmtBase{Pos: pos, Proc: proc}, Cond: cond, Body: body}
}

func NewFor(pos Pos, proc *ProcDecl, init Stmt, cond Expr, post Stmt, body Stmt) *For {
	return &For{stmtBase: stmtBase{Pos: pos, Proc: proc}, Init: init, Cond: cond, Post: post, Body: body}
}

func NewBreak(pos Pos, proc *ProcDecl) *Break { return &Break{stmtBase{Pos: pos, Proc: proc}} }

func NewContinue(pos Pos, proc *ProcDecl) *Continue {
	return &Continue{stmtBase{Pos: pos, Proc: proc}}
}

func NewReturn(pos Pos, proc *ProcDecl, value Expr) *Return {
	return &Return{stmtBase: stmtBase{Pos: pos, Proc: proc}, Value: value}
}
