// Package diag implements the compiler's diagnostic log: the ordered
// collection of errors and warnings produced while compiling a single
// SecreC source file, together with the severities and kinds described
// by the specification's error-handling design.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a diagnostic at the SecreC-language boundary.
type Kind string

const (
	ParseError      Kind = "ParseError"
	TypeError       Kind = "TypeError"
	ResolutionError Kind = "ResolutionError"
	SemanticError   Kind = "SemanticError"
	InternalError   Kind = "InternalError"
)

// Severity orders diagnostics from fatal (aborts the pipeline) down to
// debug (informational only).
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Location pinpoints a diagnostic in source text.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is a single logged message, carrying a wrapped error with
// a stack trace (via github.com/pkg/errors) so InternalError values
// retain the Go call stack that raised them.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Location Location
	Source   string // the offending source line, if known
	cause    error
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", d.Severity, d.Kind, d.Message)
	if loc := d.Location.String(); loc != "" {
		fmt.Fprintf(&sb, "\n  at %s", loc)
	}
	if d.Source != "" {
		prefix := fmt.Sprintf("  %d | ", d.Location.Line)
		fmt.Fprintf(&sb, "\n%s%s", prefix, d.Source)
		if d.Location.Column > 0 {
			fmt.Fprintf(&sb, "\n%s%s^", strings.Repeat(" ", len(prefix)), strings.Repeat(" ", d.Location.Column-1))
		}
	}
	return sb.String()
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As keep working
// across package boundaries.
func (d *Diagnostic) Unwrap() error { return d.cause }

// New builds a diagnostic, capturing a stack trace at the call site.
func New(kind Kind, sev Severity, loc Location, format string, args ...interface{}) *Diagnostic {
	msg := fmt.Sprintf(format, args...)
	return &Diagnostic{
		Kind:     kind,
		Severity: sev,
		Message:  msg,
		Location: loc,
		cause:    errors.New(msg),
	}
}

// WithSource attaches the offending source line for caret display.
func (d *Diagnostic) WithSource(line string) *Diagnostic {
	d.Source = line
	return d
}

// Log is the pipeline's compile log: an append-only, declaration-order
// sequence of diagnostics.
type Log struct {
	entries []*Diagnostic
}

// Add appends a diagnostic to the log.
func (l *Log) Add(d *Diagnostic) { l.entries = append(l.entries, d) }

// Errorf is a convenience for logging a Fatal-severity diagnostic of
// the given kind.
func (l *Log) Errorf(kind Kind, loc Location, format string, args ...interface{}) *Diagnostic {
	d := New(kind, Fatal, loc, format, args...)
	l.Add(d)
	return d
}

// Warnf logs a Warning-severity diagnostic that never aborts the
// pipeline (used by the trivial-declassify analysis, among others).
func (l *Log) Warnf(kind Kind, loc Location, format string, args ...interface{}) *Diagnostic {
	d := New(kind, Warning, loc, format, args...)
	l.Add(d)
	return d
}

// Entries returns the logged diagnostics in declaration order.
func (l *Log) Entries() []*Diagnostic { return l.entries }

// HasFatal reports whether any Fatal-severity diagnostic was logged;
// per the spec this is exactly the condition that maps to exit code 1.
func (l *Log) HasFatal() bool {
	for _, d := range l.entries {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// ExitCode implements the spec's "empty fatal log -> 0, else 1" rule.
func (l *Log) ExitCode() int {
	if l.HasFatal() {
		return 1
	}
	return 0
}
