// Package export serializes finished keyword results for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FranksOps/seogen/internal/storage"
)

// Format is an export file format.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatCSVExtended Format = "csv-extended"
	FormatDocx        Format = "docx"
	FormatJSON        Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatCSVExtended, FormatDocx, FormatJSON}

// BaseFilename is the stem of DefaultFilename.
const BaseFilename = "seo_elements_results"

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatCSVExtended, FormatDocx, FormatJSON:
		return f, nil
	case "word":
		return FormatDocx, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatDocx:
		return "docx"
	case FormatJSON:
		return "json"
	default:
		return "csv"
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// DefaultFilename is the file name used when no output path is given.
func DefaultFilename(f Format) string {
	return BaseFilename + "." + f.Extension()
}

// Write serializes results to w in format f.
func Write(w io.Writer, f Format, results []*storage.GenerationResult) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatCSVExtended:
		return WriteCSVExtended(w, results)
	case FormatDocx:
		return WriteDocx(w, results)
	case FormatJSON:
		return WriteJSON(w, results)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// ElementsText is what the exports show as a keyword's SEO elements: the
// generated text, or a failure marker when the keyword failed.
func ElementsText(r *storage.GenerationResult) string {
	if !r.Failed() {
		return r.GeneratedText
	}
	return fmt.Sprintf("[failed at %s: %s]", r.Stage, r.Error)
}

var (
	csvHeader         = []string{"Keyword", "SEO Elements", "Competitor Summary"}
	csvExtendedHeader = append(append([]string{}, csvHeader...), "Status", "Failed Stage", "Error", "Competitor Results", "Attempts")
)

// WriteCSV writes one row per keyword under the header
// Keyword,SEO Elements,Competitor Summary.
func WriteCSV(w io.Writer, results []*storage.GenerationResult) error {
	return writeCSV(w, csvHeader, results, func(r *storage.GenerationResult) []string {
		return []string{r.Keyword, ElementsText(r), r.CompetitorSummary}
	})
}

// WriteCSVExtended is WriteCSV with per-keyword status columns appended.
func WriteCSVExtended(w io.Writer, results []*storage.GenerationResult) error {
	return writeCSV(w, csvExtendedHeader, results, func(r *storage.GenerationResult) []string {
		return []string{
			r.Keyword,
			ElementsText(r),
			r.CompetitorSummary,
			string(r.Status),
			string(r.Stage),
			r.Error,
			strconv.Itoa(r.CompetitorCount),
			strconv.Itoa(r.Attempts),
		}
	})
}

func writeCSV(w io.Writer, header []string, results []*storage.GenerationResult, row func(*storage.GenerationResult) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []*storage.GenerationResult) error {
	if results == nil {
		results = []*storage.GenerationResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
