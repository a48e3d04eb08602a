package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/FranksOps/seogen/internal/storage"
)

// KeywordLine is one row of the per-keyword table.
type KeywordLine struct {
	Keyword     string
	Status      storage.Status
	Stage       storage.Stage
	Error       string
	Competitors int
	Attempts    int
	Duration    time.Duration
}

// Summary contains aggregated figures about a generation run.
type Summary struct {
	RunID           string
	TotalKeywords   int
	Succeeded       int
	Failed          int
	FailuresByStage map[storage.Stage]int
	AvgCompetitors  float64
	TotalAttempts   int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	Keywords        []KeywordLine
}

// GenerateSummary aggregates the results of a run.
func GenerateSummary(runID string, results []*storage.GenerationResult) Summary {
	s := Summary{
		RunID:           runID,
		FailuresByStage: make(map[storage.Stage]int),
	}

	if len(results) == 0 {
		return s
	}

	s.StartTime = results[0].CreatedAt.Add(-results[0].Duration)
	s.EndTime = results[0].CreatedAt

	competitors := 0
	for _, r := range results {
		s.TotalKeywords++
		if r.Failed() {
			s.Failed++
			s.FailuresByStage[r.Stage]++
		} else {
			s.Succeeded++
		}
		competitors += r.CompetitorCount
		s.TotalAttempts += r.Attempts

		if started := r.CreatedAt.Add(-r.Duration); started.Before(s.StartTime) {
			s.StartTime = started
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}

		s.Keywords = append(s.Keywords, KeywordLine{
			Keyword:     r.Keyword,
			Status:      r.Status,
			Stage:       r.Stage,
			Error:       r.Error,
			Competitors: r.CompetitorCount,
			Attempts:    r.Attempts,
			Duration:    r.Duration,
		})
	}

	s.AvgCompetitors = float64(competitors) / float64(s.TotalKeywords)
	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// Write renders summary in the named format: text, json or html.
func Write(w io.Writer, format string, summary Summary) error {
	switch strings.ToLower(format) {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "html":
		return WriteHTML(w, summary)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `SEO Element Generator Run
-------------------------
Run:           {{.RunID}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Keywords:      {{.TotalKeywords}}
Succeeded:     {{.Succeeded}}
Failed:        {{.Failed}}
Competitors:   {{printf "%.1f" .AvgCompetitors}} per keyword
LLM Attempts:  {{.TotalAttempts}}

Failures By Stage:
{{- range $stage, $count := .FailuresByStage}}
  {{$stage}}: {{$count}}
{{- else}}
  None
{{- end}}

Keywords:
{{- range .Keywords}}
  [{{.Status}}] {{.Keyword}}{{if .Stage}} ({{.Stage}}: {{.Error}}){{end}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer. Keywords
// and errors are escaped.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>SEO Element Generator Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .failed { color: red; }
</style>
</head>
<body>
  <h1>SEO Element Generator Report</h1>
  <p><strong>Run:</strong> {{.RunID}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Keywords</div>
    <div class="stat-val">{{.TotalKeywords}}</div>
  </div>
  <div class="stat-card">
    <div>Succeeded</div>
    <div class="stat-val">{{.Succeeded}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .Failed 0}}red{{else}}green{{end}};">{{.Failed}}</div>
  </div>
  <div class="stat-card">
    <div>Avg Competitors</div>
    <div class="stat-val">{{printf "%.1f" .AvgCompetitors}}</div>
  </div>

  <h3>Failures By Stage</h3>
  <table>
    <tr><th>Stage</th><th>Count</th></tr>
    {{- range $stage, $count := .FailuresByStage}}
    <tr><td>{{$stage}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Keywords</h3>
  <table>
    <tr><th>Keyword</th><th>Status</th><th>Competitors</th><th>Attempts</th><th>Error</th></tr>
    {{- range .Keywords}}
    <tr{{if .Stage}} class="failed"{{end}}><td>{{.Keyword}}</td><td>{{.Status}}</td><td>{{.Competitors}}</td><td>{{.Attempts}}</td><td>{{if .Stage}}{{.Stage}}: {{.Error}}{{end}}</td></tr>
    {{- else}}
    <tr><td colspan="5">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}
