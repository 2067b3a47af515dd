package cli

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestCommandErrorWrapsCause(t *testing.T) {
	cause := os.ErrNotExist
	err := NewCommandError("check", cause)

	if !strings.Contains(err.Error(), "check") {
		t.Errorf("Error() = %q, want the command name", err.Error())
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is does not see the wrapped cause")
	}

	var ce *CommandError
	if !errors.As(err, &ce) || ce.Command != "check" {
		t.Error("errors.As does not recover the CommandError")
	}
}

func TestTextFormatter(t *testing.T) {
	var sb strings.Builder
	if err := NewFormatter(FormatText).FormatTo(&sb, "12 symbols"); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	if sb.String() != "12 symbols\n" {
		t.Errorf("output = %q", sb.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	type row struct {
		Name string `json:"name"`
		Line int    `json:"line"`
	}
	var sb strings.Builder
	if err := NewFormatter(FormatJSON).FormatTo(&sb, row{Name: "Noun", Line: 3}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}

	var got row
	if err := json.Unmarshal([]byte(sb.String()), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Name != "Noun" || got.Line != 3 {
		t.Errorf("round-trip = %+v", got)
	}
	if !strings.Contains(sb.String(), "\n  ") {
		t.Error("JSON output is not indented")
	}
}

func TestNewFormatterFallsBackToText(t *testing.T) {
	if _, ok := NewFormatter("yaml").(*TextFormatter); !ok {
		t.Error("unknown format did not fall back to text")
	}
}
