// Package diag provides rich diagnostics for CG grammar analysis.
//
// Diagnostics carry a category, a source location, optional surrounding
// source context, and an optional suggested fix. They are accumulated in a
// List rather than aborting analysis: the engine always produces a
// best-effort tree and index, and diagnostics are surfaced alongside it.
package diag

import (
	"fmt"
	"strings"
)

// Type categorizes a diagnostic.
type Type string

const (
	TypeLexical  Type = "lexical"  // unrecognized characters, broken lexemes
	TypeSyntax   Type = "syntax"   // unexpected token, unbalanced bracket
	TypeSemantic Type = "semantic" // undefined reference, duplicate definition
	TypeIO       Type = "io"       // file access failure
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Location is a position in a grammar source file. File may be empty for
// in-memory documents.
type Location struct {
	File   string // path to the grammar file
	Line   int    // 1-based line number
	Column int    // 1-based column number, counted in runes
}

// String returns "file:line:column".
func (l Location) String() string {
	if l.File == "" && l.Line == 0 {
		return "<unknown>"
	}
	file := l.File
	if file == "" {
		file = "<memory>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// IsValid reports whether the location carries line information.
func (l Location) IsValid() bool { return l.Line > 0 }

// Diagnostic is a single finding with location, context, and suggestion.
type Diagnostic struct {
	Type       Type     // category of the finding
	Severity   Severity // error or warning
	Message    string   // human-readable message
	Location   Location // where in the source
	Context    string   // surrounding source lines, optional
	Suggestion string   // suggested fix, optional
}

// Error implements the error interface with a formatted multi-line report.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", d.Type, d.Severity, d.Message))
	if d.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("  --> %s\n", d.Location))
	}
	if d.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(d.Context)
		sb.WriteString("  |\n")
	}
	if d.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", d.Suggestion))
	}
	return sb.String()
}

// List accumulates diagnostics.
type List struct {
	Items []*Diagnostic
}

// NewList returns an empty diagnostic list.
func NewList() *List {
	return &List{Items: make([]*Diagnostic, 0)}
}

// Add appends a diagnostic.
func (l *List) Add(d *Diagnostic) {
	l.Items = append(l.Items, d)
}

// Addf creates and appends an error diagnostic.
func (l *List) Addf(t Type, loc Location, format string, args ...any) {
	l.Add(&Diagnostic{
		Type:     t,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

// Warnf creates and appends a warning diagnostic.
func (l *List) Warnf(t Type, loc Location, format string, args ...any) {
	l.Add(&Diagnostic{
		Type:     t,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

// HasErrors reports whether the list contains at least one error-severity
// diagnostic.
func (l *List) HasErrors() bool {
	for _, d := range l.Items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics.
func (l *List) Count() int { return len(l.Items) }

// ByType returns the diagnostics of the given type.
func (l *List) ByType(t Type) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l.Items {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// Error implements the error interface over the whole list.
func (l *List) Error() string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d finding(s):\n\n", len(l.Items)))
	for i, d := range l.Items {
		sb.WriteString(fmt.Sprintf("finding %d:\n", i+1))
		sb.WriteString(d.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToError returns nil for an empty list, the list itself otherwise.
func (l *List) ToError() error {
	if len(l.Items) == 0 {
		return nil
	}
	return l
}
