// Package emitter renders a register-allocated internal/ic program as
// the target assembly text described by spec §4.6/§6: a walk over the
// CFG in procedure order, one or more mnemonic lines per instruction,
// string literals interned into a RODATA section, and syscall/privacy-
// domain references collected into BIND/PDBIND sections.
//
// Grounded in the teacher's own bytecode-text disassembler/writer
// shape (`internal/buildutil`'s section-by-section text rendering) —
// generalized from Sentra's flat bytecode stream to SecreC's labeled-
// block assembly text, since the target here is the register-based
// stack machine of §6, not Sentra's own VM.
package emitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"secrec/internal/ic"
	"secrec/internal/regalloc"
	"secrec/internal/symtab"
	"secrec/internal/types"
)

// Emitter accumulates the cross-procedure state every section needs:
// the interned string table and the syscall/domain binding tables.
type Emitter struct {
	allocs map[*ic.Procedure]*regalloc.Allocation

	stringLabel map[string]string
	stringOrder []string

	syscalls     map[string]bool
	syscallOrder []string

	domains      map[string]bool
	domainOrder  []string

	synthHelperSeen  map[string]bool
	synthHelperOrder []string
	synthHelperBody  map[string]string
}

// New creates an Emitter over a program's already-computed register
// allocations (one per procedure, from internal/regalloc).
func New(allocs map[*ic.Procedure]*regalloc.Allocation) *Emitter {
	return &Emitter{
		allocs:          allocs,
		stringLabel:     map[string]string{},
		syscalls:        map[string]bool{},
		domains:         map[string]bool{},
		synthHelperSeen: map[string]bool{},
		synthHelperBody: map[string]string{},
	}
}

// EmitProgram renders the full linking-unit text: BIND, PDBIND,
// RODATA, then TEXT, in that order, matching §6's Output section list.
func (e *Emitter) EmitProgram(prog *ic.Program) string {
	var text strings.Builder
	for _, proc := range prog.Procedures {
		e.emitProc(&text, proc)
	}
	for _, name := range e.synthHelperOrder {
		text.WriteString(e.synthHelperBody[name])
	}

	var out strings.Builder
	e.writeBindSection(&out)
	e.writePDBindSection(&out)
	e.writeRodataSection(&out)
	out.WriteString(".section TEXT\n")
	out.WriteString(text.String())
	return out.String()
}

// Bindings, PDBindings, and Rodata expose the interned tables built up
// by a prior EmitProgram call, in deterministic (sorted/insertion)
// order, for internal/linkimage to serialize alongside the TEXT
// section without re-deriving them from the raw text.
func (e *Emitter) Bindings() []string {
	sort.Strings(e.syscallOrder)
	return append([]string{}, e.syscallOrder...)
}

func (e *Emitter) PDBindings() []string {
	sort.Strings(e.domainOrder)
	return append([]string{}, e.domainOrder...)
}

func (e *Emitter) Rodata() []string {
	return append([]string{}, e.stringOrder...)
}

func (e *Emitter) writeBindSection(w *strings.Builder) {
	w.WriteString(".section BIND\n")
	sort.Strings(e.syscallOrder)
	for _, name := range e.syscallOrder {
		fmt.Fprintf(w, "%s:\n\t.syscall %q\n", bindLabel(name), name)
	}
}

func (e *Emitter) writePDBindSection(w *strings.Builder) {
	w.WriteString(".section PDBIND\n")
	sort.Strings(e.domainOrder)
	for _, name := range e.domainOrder {
		fmt.Fprintf(w, "%s:\n\t.pdbind %q\n", pdbindLabel(name), name)
	}
}

func (e *Emitter) writeRodataSection(w *strings.Builder) {
	w.WriteString(".section RODATA\n")
	for _, lit := range e.stringOrder {
		fmt.Fprintf(w, "%s:\n\t.string %q\n", e.stringLabel[lit], lit)
	}
}

// internString interns lit into the RODATA section (once per distinct
// value) and returns its label.
func (e *Emitter) internString(lit string) string {
	if label, ok := e.stringLabel[lit]; ok {
		return label
	}
	label := fmt.Sprintf("str%d", len(e.stringOrder))
	e.stringLabel[lit] = label
	e.stringOrder = append(e.stringOrder, lit)
	return label
}

func bindLabel(name string) string   { return "sys_" + sanitizeLabel(name) }
func pdbindLabel(name string) string { return "pd_" + sanitizeLabel(name) }

func sanitizeLabel(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}

func (e *Emitter) internSyscall(name string) string {
	if !e.syscalls[name] {
		e.syscalls[name] = true
		e.syscallOrder = append(e.syscallOrder, name)
	}
	return bindLabel(name)
}

func (e *Emitter) internDomain(name string) string {
	if !e.domains[name] {
		e.domains[name] = true
		e.domainOrder = append(e.domainOrder, name)
	}
	return pdbindLabel(name)
}

// dty renders a symbol's data type as the target's <dty> suffix;
// booleans are represented as uint64 at the target (§6).
func dty(t types.Type) string {
	if t.Data == types.DataBool {
		return "uint64"
	}
	return t.Data.String()
}

// reg formats a symbol as an operand reference: an immediate for
// constants (strings go through RODATA instead), or a register
// reference resolved through proc's allocation.
func (e *Emitter) reg(proc *ic.Procedure, sym *symtab.Symbol) string {
	if sym == nil {
		return "0x0"
	}
	if sym.Kind == symtab.KindConstant {
		return e.constOperand(sym)
	}
	alloc := e.allocs[proc]
	if sym.Scope == symtab.Global {
		return fmt.Sprintf("g%d", alloc.GlobalIndex[sym])
	}
	return fmt.Sprintf("d%d", alloc.LocalIndex[sym])
}

func (e *Emitter) constOperand(sym *symtab.Symbol) string {
	switch v := sym.ConstValue.(type) {
	case bool:
		if v {
			return "imm 0x1"
		}
		return "imm 0x0"
	case string:
		return e.internString(v)
	case int64:
		return "imm " + strconv.FormatInt(v, 10)
	case uint64:
		return "imm " + strconv.FormatUint(v, 10)
	case float64:
		return "imm " + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "imm 0x0"
	}
}
