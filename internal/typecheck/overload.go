package typecheck

import (
	"fmt"

	"secrec/internal/ast"
	"secrec/internal/diag"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

func (c *Checker) checkCall(n *ast.Call, ctx types.Context, scope *symtab.Table) (ast.Expr, error) {
	cands, ok := c.procs[n.Callee]
	if !ok {
		return nil, unknownIdentifier(n.Callee)
	}
	argExprs := make([]ast.Expr, len(n.Args))
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		checked, err := c.checkExpr(a, types.AnyContext, scope)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %v", i+1, err)
		}
		argExprs[i] = checked
		argTypes[i] = *checked.Type()
	}

	var best *candidate
	var bestScore = -1
	var bestTemplBindings map[string]types.Type
	var tied bool
	for _, cand := range cands {
		if cand.isTemplate {
			bindings, ok := unifyTemplate(cand.decl, argTypes)
			if !ok {
				continue
			}
			score := 1000 // templates are a worse match than any concrete overload
			if bestScore == -1 || score < bestScore {
				best, bestScore, bestTemplBindings, tied = cand, score, bindings, false
			} else if score == bestScore {
				tied = true
			}
			continue
		}
		if len(cand.params) != len(argTypes) {
			continue
		}
		score, ok := scoreCandidate(cand.params, argTypes)
		if !ok {
			continue
		}
		if bestScore == -1 || score < bestScore {
			best, bestScore, bestTemplBindings, tied = cand, score, nil, false
		} else if score == bestScore {
			tied = true
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no matching overload for %q with %d argument(s)", n.Callee, len(argTypes))
	}
	if tied {
		return nil, fmt.Errorf("ambiguous call to %q: more than one equally good overload", n.Callee)
	}

	var retType types.Type
	var calleeName string
	if best.isTemplate {
		inst := c.queue.Request(best.decl.Name, bestTemplBindings)
		calleeName = inst.MangledName()
		retType = substReturnType(best.decl, bestTemplBindings)
	} else {
		retType = best.ret
		calleeName = best.decl.Name
	}

	for i := range argExprs {
		var want types.Type
		if best.isTemplate {
			want = substParamType(best.decl.Params[i].Type, bestTemplBindings)
		} else {
			want = best.params[i]
		}
		argExprs[i] = classifyIfNeeded(argExprs[i], types.AnyContext.WithSec(want.Sec))
	}

	n.Callee = calleeName
	n.Args = argExprs
	n.SetType(retType)
	return classifyIfNeeded(n, ctx), nil
}

// scoreCandidate checks argTypes against a concrete overload's declared
// params, returning the number of implicit classifications it would
// require (lower is a better match) or ok=false if no match exists.
func scoreCandidate(params, argTypes []types.Type) (int, bool) {
	score := 0
	for i, want := range params {
		got := argTypes[i]
		if want.Data != got.Data {
			return 0, false
		}
		if want.Dim != got.Dim {
			return 0, false
		}
		if got.Sec.LEq(want.Sec) {
			if got.Sec.IsPublic() && !want.Sec.IsPublic() {
				score++ // an implicit CLASSIFY will be inserted
			}
			continue
		}
		return 0, false
	}
	return score, true
}

// unifyTemplate attempts to bind tpl's quantified domain/type
// parameters against concrete argTypes, positionally against tpl's
// declared parameter TypeExprs (§4.1 "a template is instantiated by
// unifying its quantified parameters against the concrete argument
// types").
func unifyTemplate(tpl *ast.ProcDecl, argTypes []types.Type) (map[string]types.Type, bool) {
	if len(tpl.Params) != len(argTypes) {
		return nil, false
	}
	isDomainParam := map[string]bool{}
	isTypeParam := map[string]bool{}
	for _, tp := range tpl.TemplateParams {
		if tp.IsDomain {
			isDomainParam[tp.Name] = true
		} else {
			isTypeParam[tp.Name] = true
		}
	}
	bindings := map[string]types.Type{}
	for i, prm := range tpl.Params {
		got := argTypes[i]
		if isDomainParam[prm.Type.SecName] {
			if existing, ok := bindings[prm.Type.SecName]; ok {
				if existing.Sec != got.Sec {
					return nil, false
				}
			} else {
				bindings[prm.Type.SecName] = types.Type{Sec: got.Sec}
			}
		}
		if isTypeParam[prm.Type.DataName] {
			if existing, ok := bindings[prm.Type.DataName]; ok {
				if existing.Data != got.Data {
					return nil, false
				}
			} else {
				bindings[prm.Type.DataName] = types.Type{Data: got.Data}
			}
		}
		if prm.Type.Dim != got.Dim {
			return nil, false
		}
	}
	for name := range isDomainParam {
		if _, ok := bindings[name]; !ok {
			return nil, false
		}
	}
	for name := range isTypeParam {
		if _, ok := bindings[name]; !ok {
			return nil, false
		}
	}
	return bindings, true
}

func substParamType(te ast.TypeExpr, bindings map[string]types.Type) types.Type {
	t := types.Type{Sec: types.Public, Data: types.DataInvalid, Dim: te.Dim}
	if b, ok := bindings[te.SecName]; ok {
		t.Sec = b.Sec
	}
	if b, ok := bindings[te.DataName]; ok {
		t.Data = b.Data
	} else if dt, ok := dataTypeOf(te.DataName); ok {
		t.Data = dt
	}
	return t
}

func substReturnType(tpl *ast.ProcDecl, bindings map[string]types.Type) types.Type {
	if tpl.IsVoid {
		return types.Void
	}
	return substParamType(tpl.Return, bindings)
}

// instantiate substitutes inst's bindings into its generic declaration,
// registers the concrete signature under the mangled name, and returns
// the specialized AST ready for the same checkProcBody pass an ordinary
// procedure goes through.
func (c *Checker) instantiate(inst *types.Instantiation) *ast.ProcDecl {
	tpl, ok := c.tplDecl[inst.Template]
	if !ok {
		c.log.Errorf(diag.InternalError, diag.Location{}, "no template declaration named %q", inst.Template)
		return nil
	}
	domainSubst := map[string]string{}
	dataSubst := map[string]string{}
	for _, tp := range tpl.TemplateParams {
		b, ok := inst.Bindings[tp.Name]
		if !ok {
			continue
		}
		if tp.IsDomain {
			domainSubst[tp.Name] = b.Sec.String()
		} else {
			dataSubst[tp.Name] = b.Data.String()
		}
	}
	concrete := ast.SubstituteTemplateParams(tpl, domainSubst, dataSubst)
	concrete.Name = inst.MangledName()
	c.registerProc(concrete)
	return concrete
}
