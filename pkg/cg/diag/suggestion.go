package diag

import (
	"fmt"
	"sort"
	"strings"
)

// SuggestName proposes a likely intended name when a reference does not
// resolve. Candidates within a small Levenshtein distance win; otherwise a
// short sample of valid names is listed.
func SuggestName(unknown string, valid []string) string {
	if len(valid) == 0 {
		return ""
	}

	best := ""
	bestDist := 1000
	for _, name := range valid {
		d := levenshtein(strings.ToLower(unknown), strings.ToLower(name))
		if d < bestDist {
			bestDist = d
			best = name
		}
	}
	if bestDist > 0 && bestDist < 4 {
		return fmt.Sprintf("did you mean %q?", best)
	}

	names := append([]string(nil), valid...)
	sort.Strings(names)
	if len(names) > 5 {
		return fmt.Sprintf("known names include: %s, ...", strings.Join(names[:5], ", "))
	}
	return fmt.Sprintf("known names: %s", strings.Join(names, ", "))
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
