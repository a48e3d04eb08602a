package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FranksOps/seogen/internal/serp"
)

const (
	// TopWords is how many frequent title words are reported.
	TopWords = 5
	// Samples is how many titles and snippets are quoted.
	Samples = 5
	// SnippetPreview is the rune length quoted snippets are cut to.
	SnippetPreview = 100
	// minWordLen excludes short words from the frequency count.
	minWordLen = 3
)

// ErrNoCompetitors is returned when there are no results to summarize.
var ErrNoCompetitors = errors.New("no competitor results to summarize")

// Stats is the numeric side of a competitor summary.
type Stats struct {
	Count          int      `json:"count"`
	AvgTitleLen    float64  `json:"avg_title_len"`
	AvgSnippetLen  float64  `json:"avg_snippet_len"`
	TopWords       []string `json:"top_words"`
	SampleTitles   []string `json:"sample_titles"`
	SampleSnippets []string `json:"sample_snippets"`
}

// Analyze computes Stats over results. Lengths are counted in runes.
func Analyze(results []serp.Result) (Stats, error) {
	if len(results) == 0 {
		return Stats{}, ErrNoCompetitors
	}

	var titleRunes, snippetRunes int
	counts := make(map[string]int)
	var order []string

	for _, r := range results {
		titleRunes += utf8.RuneCountInString(r.Title)
		snippetRunes += utf8.RuneCountInString(r.Snippet)

		for _, w := range words(strings.ToLower(r.Title)) {
			if utf8.RuneCountInString(w) <= minWordLen {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	// Stable over first-seen order, so ties are deterministic.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > TopWords {
		order = order[:TopWords]
	}

	n := len(results)
	s := Stats{
		Count:         n,
		AvgTitleLen:   float64(titleRunes) / float64(n),
		AvgSnippetLen: float64(snippetRunes) / float64(n),
		TopWords:      order,
	}
	for i := 0; i < n && i < Samples; i++ {
		s.SampleTitles = append(s.SampleTitles, results[i].Title)
		s.SampleSnippets = append(s.SampleSnippets, truncate(results[i].Snippet, SnippetPreview))
	}
	return s, nil
}

// Render formats s as the competitor summary handed to the generator.
func (s Stats) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d competitor results.\n", s.Count)
	fmt.Fprintf(&b, "Average title length: %.1f characters.\n", s.AvgTitleLen)
	fmt.Fprintf(&b, "Average snippet length: %.1f characters.\n", s.AvgSnippetLen)
	fmt.Fprintf(&b, "Common words in titles: %s\n\n", strings.Join(s.TopWords, ", "))

	b.WriteString("Sample competitor titles:\n")
	for _, t := range s.SampleTitles {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	b.WriteString("\nSample competitor snippets:\n")
	for _, sn := range s.SampleSnippets {
		fmt.Fprintf(&b, "- %s...\n", sn)
	}
	return b.String()
}

// Summarize is Analyze followed by Render.
func Summarize(results []serp.Result) (string, error) {
	s, err := Analyze(results)
	if err != nil {
		return "", err
	}
	return s.Render(), nil
}

// words splits s into maximal runs of letters, numbers and '_'. Combining
// marks split words, so a decomposed "e\u0301" ends the word at "e".
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
