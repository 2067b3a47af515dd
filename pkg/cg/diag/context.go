package diag

import (
	"fmt"
	"strings"
)

// SourceContext renders the source line at loc with a caret marker and one
// line of context on each side, in the shape used by Diagnostic.Error.
// Returns "" if the line is out of range.
func SourceContext(src []byte, loc Location) string {
	if loc.Line <= 0 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	idx := loc.Line - 1
	if idx >= len(lines) {
		return ""
	}

	var sb strings.Builder
	from := idx - 1
	if from < 0 {
		from = 0
	}
	to := idx + 1
	if to >= len(lines) {
		to = len(lines) - 1
	}
	for i := from; i <= to; i++ {
		sb.WriteString(fmt.Sprintf("  | %4d | %s\n", i+1, lines[i]))
		if i == idx && loc.Column > 0 {
			sb.WriteString("  |      | ")
			for j := 1; j < loc.Column; j++ {
				sb.WriteByte(' ')
			}
			sb.WriteString("^\n")
		}
	}
	return sb.String()
}

// AttachContext fills in the Context field of every diagnostic in the list
// that has a valid location and no context yet.
func AttachContext(l *List, src []byte) {
	for _, d := range l.Items {
		if d.Context == "" && d.Location.IsValid() {
			d.Context = SourceContext(src, d.Location)
		}
	}
}
