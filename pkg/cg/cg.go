package cg

import (
	"context"
	"fmt"
	"os"

	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/cg/validator"
)

// Extensions lists the file extensions conventionally routed to this
// engine. Routing is a policy of the integration layer; the engine itself
// analyzes whatever text it is handed.
var Extensions = []string{".cg3", ".rlx"}

// Analyze reads and parses the grammar file at path.
func Analyze(ctx context.Context, path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file %q: %w", path, err)
	}
	return document.New(ctx, path, data)
}

// AnalyzeBytes parses grammar source held in memory. name is used in
// diagnostic locations.
func AnalyzeBytes(ctx context.Context, data []byte, name string) (*document.Document, error) {
	return document.New(ctx, name, data)
}

// Check analyzes the file and combines parser diagnostics with semantic
// validation findings. The document is returned even when findings exist;
// only I/O failures yield a nil document.
func Check(ctx context.Context, path string, strict bool) (*document.Document, *diag.List, error) {
	doc, err := Analyze(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	l := doc.Diagnostics()
	diag.AttachContext(l, doc.Text())
	v := validator.New()
	v.Strict = strict
	l.Items = append(l.Items, v.Validate(doc).Items...)
	return doc, l, nil
}
