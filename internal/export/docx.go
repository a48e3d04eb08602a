package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/FranksOps/seogen/internal/storage"
	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// DocumentTitle heads every exported document.
const DocumentTitle = "SEO Element Generator Results"

// SummaryHeading introduces the competitor summary of each section.
const SummaryHeading = "Competitor Analysis Summary"

// WriteDocx writes a Word document with one headed section per keyword:
// the generated elements under a level-1 heading, then the competitor
// summary under a level-2 heading, then a blank paragraph.
func WriteDocx(w io.Writer, results []*storage.GenerationResult) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}
	defer doc.Close()

	if _, err := doc.AddHeading(DocumentTitle, 0); err != nil {
		return fmt.Errorf("add title: %w", err)
	}
	for _, r := range results {
		if _, err := doc.AddHeading("Keyword: "+r.Keyword, 1); err != nil {
			return fmt.Errorf("add heading for %q: %w", r.Keyword, err)
		}
		addLines(doc, ElementsText(r))
		if _, err := doc.AddHeading(SummaryHeading, 2); err != nil {
			return fmt.Errorf("add summary heading for %q: %w", r.Keyword, err)
		}
		addLines(doc, r.CompetitorSummary)
		doc.AddEmptyParagraph()
	}

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// addLines appends text as one paragraph, turning newlines into line
// breaks so the model's layout survives.
func addLines(doc *docx.RootDoc, text string) {
	p := doc.AddEmptyParagraph()
	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if i > 0 {
			p.AddRun().AddBreak(nil)
		}
		p.AddText(line)
	}
}
