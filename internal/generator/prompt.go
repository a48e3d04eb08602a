package generator

import (
	"bytes"
	"text/template"
)

// SystemPrompt frames the model for every request.
const SystemPrompt = "You are an SEO expert tasked with creating optimized on-page elements that closely align with competitor trends."

var userPrompt = template.Must(template.New("user").Parse(`
Generate an H1, title tag, and meta description for the keyword: "{{.Keyword}}"

Requirements:
- H1 and title tag should be 70 characters or less
- Meta description should be 155 characters or less
- Avoid buzzwords and branded terms
- Include an exact match or close variation of the target keyword
- Closely align with the competitor results provided below
- The elements should be a summarization of common elements from the top 10 competitors

Competitor analysis:
{{.Summary}}

Based on the competitor analysis, create SEO elements that are very similar to the competitors' approach, while still being unique. Focus on common phrases, structures, and themes used by competitors.

Provide brief explanations for your choices, highlighting how they align with competitor trends.
`))

// UserPrompt renders the per-keyword instruction message.
func UserPrompt(keyword, summary string) (string, error) {
	var b bytes.Buffer
	err := userPrompt.Execute(&b, struct{ Keyword, Summary string }{keyword, summary})
	return b.String(), err
}
