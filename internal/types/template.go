package types

import (
	"fmt"
	"strings"
)

// TemplateParam is a single quantified parameter of a `template`
// procedure declaration: either a domain parameter or a data-type
// parameter (spec §3 Symbol variant Template, §9 "template
// instantiation queue").
type TemplateParam struct {
	Name    string
	IsDomain bool // true: binds a Security; false: binds a DataType
}

// Instantiation is a concrete binding of a template's parameters,
// queued and drained by the type checker (typecheck.CheckProgram) per
// §9's Design Notes ("model this as an explicit work-queue").
type Instantiation struct {
	// Key deterministically identifies this instantiation regardless
	// of which call site first requested it, so that two call sites
	// requesting the same concrete binding dedupe to one queued job.
	Key      string
	Template string
	Bindings map[string]Type // param name -> concrete scalar type used for mangling
}

// MangledName produces the instantiated procedure's emitted name: the
// template name followed by one `$security_data` part per binding in
// parameter-name order, e.g. identity$public_int64 for
// `template <type T> identity` with T bound to int64.
func (i Instantiation) MangledName() string {
	var sb strings.Builder
	sb.WriteString(i.Template)
	for _, p := range sortedParamNames(i.Bindings) {
		fmt.Fprintf(&sb, "$%s", mangleType(i.Bindings[p]))
	}
	return sb.String()
}

func mangleType(t Type) string {
	return fmt.Sprintf("%s_%s", strings.ReplaceAll(t.Sec.String(), " ", ""), t.Data)
}

func sortedParamNames(m map[string]Type) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	// simple insertion sort: parameter lists are short (a handful of
	// quantified names per template), no need for sort.Strings here.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

// InstantiationQueue is the explicit work-queue of template
// instantiations awaiting a body. typecheck.CheckProgram drains it
// after checking every non-template procedure (one entry may enqueue
// further entries if a template body itself calls another template).
type InstantiationQueue struct {
	pending []*Instantiation
	seen    map[string]*Instantiation
}

// NewInstantiationQueue constructs an empty queue.
func NewInstantiationQueue() *InstantiationQueue {
	return &InstantiationQueue{seen: make(map[string]*Instantiation)}
}

// Request enqueues (template, bindings) for instantiation, returning
// the existing Instantiation if an equal one was already queued so
// that call sites sharing a concrete binding share one emitted body.
func (q *InstantiationQueue) Request(template string, bindings map[string]Type) *Instantiation {
	key := instantiationKey(template, bindings)
	if existing, ok := q.seen[key]; ok {
		return existing
	}
	inst := &Instantiation{
		Key:      key,
		Template: template,
		Bindings: bindings,
	}
	q.seen[key] = inst
	q.pending = append(q.pending, inst)
	return inst
}

func instantiationKey(template string, bindings map[string]Type) string {
	var sb strings.Builder
	sb.WriteString(template)
	for _, p := range sortedParamNames(bindings) {
		fmt.Fprintf(&sb, "|%s=%s", p, mangleType(bindings[p]))
	}
	return sb.String()
}

// Drain pops and returns all instantiations queued so far, leaving the
// queue empty for any further requests made while generating the
// bodies just returned.
func (q *InstantiationQueue) Drain() []*Instantiation {
	batch := q.pending
	q.pending = nil
	return batch
}

// Empty reports whether the queue currently has no pending work.
func (q *InstantiationQueue) Empty() bool { return len(q.pending) == 0 }
