// Package keywords normalizes the user's keyword list.
package keywords

import "strings"

// Max is the most keywords processed in one run.
const Max = 10

// Parse splits text into lines, trims each, drops blank ones and keeps at
// most Max. Order is preserved; duplicates are kept.
func Parse(text string) []string {
	return Merge(nil, text)
}

// Merge appends the keywords parsed from text to existing and applies the
// same rules as Parse to the combined list.
func Merge(existing []string, text string) []string {
	var out []string
	for _, k := range existing {
		if k = strings.TrimSpace(k); k != "" && len(out) < Max {
			out = append(out, k)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if len(out) == Max {
			break
		}
		if k := strings.TrimSpace(line); k != "" {
			out = append(out, k)
		}
	}
	return out
}
