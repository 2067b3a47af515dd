// Package token defines the lexical tokens of CG3/VISL grammar source.
package token

import "strings"

// Kind classifies a lexical token.
type Kind uint8

const (
	Keyword Kind = iota
	Identifier
	Tag
	String
	Number
	Operator
	Comment
	Bracket
	Error
	EOF
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Identifier:
		return "identifier"
	case Tag:
		return "tag"
	case String:
		return "string"
	case Number:
		return "number"
	case Operator:
		return "operator"
	case Comment:
		return "comment"
	case Bracket:
		return "bracket"
	case Error:
		return "error"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Token is a single lexeme. Tokens are immutable once produced by the lexer.
type Token struct {
	Kind Kind

	// Start and End delimit the token's bytes in the source, half-open.
	// EOF tokens have Start == End == len(source); all other tokens have
	// non-empty spans.
	Start int
	End   int

	// Line and Column are 1-based and refer to the token's first byte.
	// Column counts runes, not bytes.
	Line   int
	Column int

	// Text is the raw source text of the token.
	Text string
}

// IsEOF reports whether the token is the end-of-input marker.
func (t Token) IsEOF() bool { return t.Kind == EOF }

// Keywords of the CG3 grammar language, lowercased. CG keywords are matched
// case-insensitively.
var keywords = map[string]bool{
	// Structure
	"end": true, "list": true, "set": true, "template": true,
	"anchor": true, "delimiters": true, "soft-delimiters": true,
	"section": true, "before-sections": true, "after-sections": true,
	"null-section": true, "constraints": true, "mappings": true,
	"corrections": true, "options": true, "strict-tags": true,
	"subreadings": true, "mapping-prefix": true, "undef-sets": true,
	// Rule clauses
	"if": true, "target": true, "except": true, "before": true,
	"after": true, "to": true, "from": true, "withchild": true,
	"nochild": true, "with": true, "once": true, "always": true,
	"link": true, "barrier": true, "cbarrier": true, "not": true,
	"negate": true, "none": true, "all": true,
	// Set union, interchangeable with '|'
	"or": true,
	// Built-in constants
	"_s_delimiters_": true, "_s_soft_delimiters_": true, "_target_": true,
	"_mark_": true, "_attachto_": true, "_left_": true, "_right_": true,
	"_encl_": true, "_same_basic_": true,
}

// Rule-type keywords, lowercased. These open a rule definition.
var ruleTypes = map[string]bool{
	"select": true, "remove": true, "iff": true, "add": true,
	"map": true, "replace": true, "append": true, "substitute": true,
	"unmap": true, "protect": true, "unprotect": true,
	"remcohort": true, "addcohort": true, "splitcohort": true,
	"mergecohorts": true, "move": true, "switch": true, "copy": true,
	"delimit": true, "match": true, "external": true, "execute": true,
	"jump": true, "setparent": true, "setchild": true,
	"addrelation": true, "setrelation": true, "remrelation": true,
	"addrelations": true, "setrelations": true, "remrelations": true,
	"setvariable": true, "remvariable": true,
}

// Section-marker keywords, lowercased. These stand alone as top-level items.
var sectionMarkers = map[string]bool{
	"section": true, "before-sections": true, "after-sections": true,
	"null-section": true, "constraints": true, "mappings": true,
	"corrections": true,
}

// IsKeyword reports whether word is a reserved CG keyword (including rule
// types), matched case-insensitively.
func IsKeyword(word string) bool {
	w := strings.ToLower(word)
	return keywords[w] || ruleTypes[w]
}

// IsRuleType reports whether word names a rule operation (SELECT, REMOVE,
// MAP, ...), matched case-insensitively.
func IsRuleType(word string) bool {
	return ruleTypes[strings.ToLower(word)]
}

// IsSectionMarker reports whether word is a standalone section marker,
// matched case-insensitively.
func IsSectionMarker(word string) bool {
	return sectionMarkers[strings.ToLower(word)]
}

// Fold normalizes a keyword or symbol name for case-insensitive comparison.
func Fold(word string) string { return strings.ToLower(word) }

// Is reports whether the token is a keyword equal to word (case-insensitive).
func (t Token) Is(word string) bool {
	return t.Kind == Keyword && strings.EqualFold(t.Text, word)
}
