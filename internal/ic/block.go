package ic

// EdgeLabel classifies a CFG edge, per spec §3's "Edges are labeled:
// Unconditional, True, False, CallPass ... plus call/return edges".
type EdgeLabel int

const (
	EdgeUnconditional EdgeLabel = iota
	EdgeTrue
	EdgeFalse
	EdgeCallPass
	EdgeCall
	EdgeRet
)

// Edge is one labeled CFG edge out of a block.
type Edge struct {
	Label EdgeLabel
	To    *Block
}

// Block is an ordered sequence of instructions terminated by a
// terminator (or, while still under construction, left open).
type Block struct {
	Name   string
	Instrs []*Imop
	Out    []Edge
	Proc   *Procedure
}

// Append adds imop to the end of b, stamping its Block/Index fields.
func (b *Block) Append(imop *Imop) {
	imop.Block = b
	imop.Index = len(b.Instrs)
	b.Instrs = append(b.Instrs, imop)
}

// Terminator returns b's last instruction if it is a terminator,
// else nil. Per invariant I3 every block must have exactly one by the
// time code generation for a procedure completes.
func (b *Block) Terminator() *Imop {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if last.Op.IsTerminator() {
		return last
	}
	return nil
}

// AddEdge records a labeled successor edge.
func (b *Block) AddEdge(label EdgeLabel, to *Block) {
	b.Out = append(b.Out, Edge{Label: label, To: to})
}

// Procedure is one compiled procedure: its entry block, every block
// reachable from it (in emission order), and the label->block map used
// to resolve jump destinations.
type Procedure struct {
	Name    string // mangled name for overloads/template instantiations
	IsStart bool   // true only for the program's `main` / VM entry point
	Entry   *Block
	Blocks  []*Block
	Labels  map[string]*Label

	NumLocals int // filled in by the register allocator (spec §4.5)
}

// NewProcedure creates an empty procedure with a fresh entry block.
func NewProcedure(name string) *Procedure {
	p := &Procedure{Name: name, Labels: make(map[string]*Label)}
	p.Entry = p.NewBlock("entry")
	return p
}

// NewBlock creates and registers a new block owned by p.
func (p *Procedure) NewBlock(name string) *Block {
	b := &Block{Name: name, Proc: p}
	p.Blocks = append(p.Blocks, b)
	return b
}

// NewLabel allocates a label bound to b as its target, recording the
// label->block resolution immediately (invariant I4: a jump's
// destination is a label whose target is the first instruction of
// some block).
func (p *Procedure) NewLabel(name string, target *Block) *Label {
	l := &Label{Name: name, Block: target}
	p.Labels[name] = l
	return l
}

// Program is an ordered list of compiled procedures, per spec §3.
type Program struct {
	Procedures []*Procedure
}

// AddProcedure appends proc to the program.
func (pr *Program) AddProcedure(proc *Procedure) { pr.Procedures = append(pr.Procedures, proc) }
