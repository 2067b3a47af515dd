package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Keyword, "keyword"},
		{Identifier, "identifier"},
		{Tag, "tag"},
		{String, "string"},
		{Number, "number"},
		{Operator, "operator"},
		{Comment, "comment"},
		{Bracket, "bracket"},
		{Error, "error"},
		{EOF, "eof"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestIsKeyword(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"LIST", true},
		{"list", true},
		{"List", true},
		{"SELECT", true},
		{"select", true},
		{"DELIMITERS", true},
		{"SOFT-DELIMITERS", true},
		{"BEFORE-SECTIONS", true},
		{"IFF", true},
		{"NounPhrase", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsKeyword(tt.word); got != tt.want {
			t.Errorf("IsKeyword(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestIsRuleType(t *testing.T) {
	for _, word := range []string{"SELECT", "remove", "Map", "ADDCOHORT", "SUBSTITUTE", "iff"} {
		if !IsRuleType(word) {
			t.Errorf("IsRuleType(%q) = false, want true", word)
		}
	}
	for _, word := range []string{"LIST", "SET", "SECTION", "noun"} {
		if IsRuleType(word) {
			t.Errorf("IsRuleType(%q) = true, want false", word)
		}
	}
}

func TestIsSectionMarker(t *testing.T) {
	for _, word := range []string{"SECTION", "BEFORE-SECTIONS", "AFTER-SECTIONS", "NULL-SECTION", "MAPPINGS", "CORRECTIONS", "constraints"} {
		if !IsSectionMarker(word) {
			t.Errorf("IsSectionMarker(%q) = false, want true", word)
		}
	}
	if IsSectionMarker("SELECT") {
		t.Error("IsSectionMarker(SELECT) = true, want false")
	}
}

func TestTokenIs(t *testing.T) {
	kw := Token{Kind: Keyword, Text: "LIST"}
	if !kw.Is("list") {
		t.Error("keyword LIST should match 'list' case-insensitively")
	}
	if kw.Is("set") {
		t.Error("keyword LIST should not match 'set'")
	}
	ident := Token{Kind: Identifier, Text: "list"}
	if ident.Is("list") {
		t.Error("identifier 'list' must not match as keyword")
	}
}

func TestFold(t *testing.T) {
	if Fold("NounPhrase") != Fold("NOUNPHRASE") {
		t.Error("Fold should be case-insensitive")
	}
	if Fold("abc") != "abc" {
		t.Errorf("Fold(abc) = %q", Fold("abc"))
	}
}
