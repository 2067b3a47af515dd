package document

import (
	"bytes"
	"context"
	"fmt"

	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/parser"
)

// Edit is a single buffer mutation: RemovedLen bytes at Offset are replaced
// by Inserted.
type Edit struct {
	Offset     int
	RemovedLen int
	Inserted   []byte
}

// Reparse applies the edit and patches the tree and index without a full
// rebuild where possible. The strategy works at top-level-item granularity:
// re-lexing and re-parsing restart at the first item the edit touches and
// stop as soon as a new item boundary realigns with an old one beyond the
// edited region; the remaining items are shifted and reused. Edits that
// change how following text lexes (reopening a comment or string, or
// unbalancing a bracket) never realign and therefore rescan forward to the
// end of the document.
//
// The context is checked between top-level items. On cancellation the
// document is left unchanged and ctx.Err() is returned.
func (d *Document) Reparse(ctx context.Context, e Edit) error {
	if e.Offset < 0 || e.RemovedLen < 0 || e.Offset+e.RemovedLen > len(d.text) {
		return fmt.Errorf("edit out of range: offset %d, removed %d, text %d bytes",
			e.Offset, e.RemovedLen, len(d.text))
	}

	removed := d.text[e.Offset : e.Offset+e.RemovedLen]
	deltaLines := bytes.Count(e.Inserted, []byte("\n")) - bytes.Count(removed, []byte("\n"))
	delta := len(e.Inserted) - e.RemovedLen

	newText := make([]byte, 0, len(d.text)+delta)
	newText = append(newText, d.text[:e.Offset]...)
	newText = append(newText, e.Inserted...)
	newText = append(newText, d.text[e.Offset+e.RemovedLen:]...)

	old := d.root.Children
	editOldEnd := e.Offset + e.RemovedLen

	// First item the edit can affect. An insertion exactly at an item's end
	// can extend that item's last token, so the boundary itself counts. An
	// item whose parse looked ahead past its own end (see Stream.Lookahead)
	// is affected by edits anywhere up to that extent.
	first := len(old)
	for i, item := range old {
		if item.End >= e.Offset || d.itemLook[item] >= e.Offset {
			first = i
			break
		}
	}

	// Old item boundaries past the edit, for realignment.
	boundary := make(map[int]int) // old start offset -> item index
	for j := first + 1; j < len(old); j++ {
		if old[j].Start >= editOldEnd {
			boundary[old[j].Start] = j
		}
	}

	reparseStart := 0
	if first < len(old) {
		reparseStart = old[first].Start
	} else if len(old) > 0 {
		// Edit in the trailing region after the last item.
		first = len(old) - 1
		reparseStart = old[first].Start
	}

	s := parser.NewStream(newText, d.file, reparseStart)
	var newItems []*ast.Node
	newDiags := make(map[*ast.Node][]*diag.Diagnostic)
	newLook := make(map[*ast.Node]int)
	seen := 0
	reuseFrom := len(old)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := s.Offset()
		if oldIdx, ok := boundary[b-delta]; ok && b >= e.Offset+len(e.Inserted) {
			reuseFrom = oldIdx
			break
		}
		item, ok := s.Next()
		if !ok {
			break
		}
		newItems = append(newItems, item)
		newDiags[item] = append([]*diag.Diagnostic(nil), s.Diagnostics().Items[seen:]...)
		newLook[item] = max(item.End, s.Lookahead())
		seen = s.Diagnostics().Count()
	}
	var trailing *ast.Node
	if reuseFrom == len(old) {
		trailing = s.Trailing()
	}

	// Splice: keep [0,first), insert newItems, shift and reuse [reuseFrom,...).
	replaced := make(map[*ast.Node]bool)
	for j := first; j < reuseFrom; j++ {
		replaced[old[j]] = true
	}

	root := &ast.Node{Kind: ast.Grammar, Start: 0, End: 0}
	for _, item := range old[:first] {
		root.Append(item)
	}
	for _, item := range newItems {
		root.Append(item)
	}
	for _, item := range old[reuseFrom:] {
		item.Shift(delta, deltaLines)
		shiftDiags(d.itemDiags[item], deltaLines)
		if lk, ok := d.itemLook[item]; ok {
			d.itemLook[item] = lk + delta
		}
		root.Append(item)
	}
	if trailing != nil {
		root.Append(trailing)
	}
	if root.End < len(newText) {
		root.End = len(newText)
	}

	// Patch the index: drop definitions from replaced items, add the ones
	// from freshly parsed items. Retained definitions follow their shifted
	// nodes automatically.
	d.ix.RemoveItems(replaced)
	for _, item := range newItems {
		d.ix.Add(item)
	}

	for item := range replaced {
		delete(d.itemDiags, item)
		delete(d.itemLook, item)
	}
	for item, ds := range newDiags {
		d.itemDiags[item] = ds
	}
	for item, lk := range newLook {
		d.itemLook[item] = lk
	}

	d.text = newText
	d.root = root
	d.generation++
	d.computeLineStarts()
	return nil
}

// shiftDiags moves diagnostic line numbers of a reused item by deltaLines.
func shiftDiags(ds []*diag.Diagnostic, deltaLines int) {
	if deltaLines == 0 {
		return
	}
	for _, d := range ds {
		if d.Location.Line > 0 {
			d.Location.Line += deltaLines
		}
	}
}
