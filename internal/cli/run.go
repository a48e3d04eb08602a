package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FranksOps/seogen/internal/export"
	"github.com/FranksOps/seogen/internal/keywords"
	"github.com/FranksOps/seogen/internal/metrics"
	"github.com/FranksOps/seogen/internal/pipeline"
	"github.com/FranksOps/seogen/internal/report"
	"github.com/FranksOps/seogen/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrNoKeywords is returned when no usable keyword was given.
var ErrNoKeywords = errors.New("no keywords given")

// ErrAllFailed is returned after exporting when no keyword succeeded.
var ErrAllFailed = errors.New("every keyword failed")

type runOptions struct {
	keywordsFile string
	reportFormat string
	reportPath   string
	quiet        bool
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [keyword ...]",
		Short: "Generate SEO elements for up to 10 keywords",
		Long: `Scrape competitors, summarize them and generate an H1, title tag and meta
description for each keyword. Keywords come from arguments, --keywords-file
(one per line, "-" for stdin) or both; blank lines are ignored and at most 10
keywords are processed.`,
		Example: `  seogen run "best running shoes" "trail running shoes"
  seogen run --keywords-file keywords.txt --format docx
  seogen run -k - --sink sqlite:results.db --report text < keywords.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.InOrStdin(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.keywordsFile, "keywords-file", "k", "", `file with one keyword per line ("-" for stdin)`)
	f.StringVar(&opts.reportFormat, "report", "", "print a run report: text, json or html")
	f.StringVar(&opts.reportPath, "report-path", "", "write the report to a file instead of stderr")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print each keyword's elements and summary as it finishes")

	f.String("format", "csv", "export format: csv, csv-extended, docx or json")
	f.StringP("output", "o", "", "export path (default seo_elements_results.<ext>)")
	f.String("engine", "google", "search engine: google or duckduckgo")
	f.Int("results", 10, "competitor results per keyword")
	f.String("model", "gpt-4o", "chat-completion model")
	f.String("sink", "", "also save results to csv:<path>, ndjson:<path>, sqlite:<path> or postgres://...")
	f.Int("metrics-port", 0, "expose Prometheus metrics on this port while running")
	f.String("fingerprint", "chrome", "TLS fingerprint: chrome, firefox, safari, random or go")
	f.String("proxy-file", "", "file with one proxy URL per line")
	f.Float64("rps", 0, "max result-page requests per second (0 = unlimited)")
	f.Bool("respect-robots", false, "skip engines whose robots.txt disallows the search path")
	return cmd
}

func (a *app) run(ctx context.Context, stdin io.Reader, args []string, opts runOptions) error {
	kws, err := collectKeywords(args, opts.keywordsFile, stdin)
	if err != nil {
		return err
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}
	format, err := export.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}

	provider, err := newProvider(a.cfg, a.logger)
	if err != nil {
		return err
	}
	gen, err := newGenerator(a.cfg, a.logger)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Provider:  provider,
		Generator: gen,
		Results:   a.cfg.SERP.Results,
		Logger:    a.logger,
	}
	if !opts.quiet {
		p.OnResult = func(r *storage.GenerationResult) {
			if err := printResult(a.stdout, r); err != nil {
				a.logger.Warn("printing result failed", "keyword", r.Keyword, "err", err)
			}
		}
	}
	if dsn := a.cfg.Sink.DSN.Value(); dsn != "" {
		sink, err := openSink(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open sink: %w", err)
		}
		defer sink.Close()
		p.Sink = sink
	}

	// The metrics server lives exactly as long as the pipeline. The port is
	// bound up front; a serve error later is logged and never stops the run.
	g, gctx := errgroup.WithContext(ctx)
	pctx, stopMetrics := context.WithCancel(gctx)
	defer stopMetrics()

	if port := a.cfg.Metrics.Port; port > 0 {
		srv := metrics.NewServer(port, a.logger)
		ln, err := srv.Listen()
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := srv.Serve(pctx, ln); err != nil {
				a.logger.Error("metrics server stopped", "err", err)
			}
			return nil
		})
	}

	var run *pipeline.Run
	var runErr error
	g.Go(func() error {
		defer stopMetrics()
		run, runErr = p.Run(pctx, kws)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if run == nil {
		return runErr
	}

	path := a.cfg.OutputPath()
	if err := writeExport(path, format, run.Results); err != nil {
		return err
	}
	a.logger.Info("results exported", "path", path, "format", format, "keywords", len(run.Results))

	if opts.reportFormat != "" {
		if err := a.writeReport(opts, run); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	return allFailed(run.Results)
}

func allFailed(results []*storage.GenerationResult) error {
	for _, r := range results {
		if !r.Failed() {
			return nil
		}
	}
	if len(results) == 0 {
		return nil
	}
	return ErrAllFailed
}

func (a *app) writeReport(opts runOptions, run *pipeline.Run) error {
	summary := report.GenerateSummary(run.ID, run.Results)
	if opts.reportPath == "" {
		return report.Write(a.stderr, opts.reportFormat, summary)
	}
	f, err := os.Create(opts.reportPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Write(f, opts.reportFormat, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printResult shows one finished keyword for review.
func printResult(w io.Writer, r *storage.GenerationResult) error {
	_, err := fmt.Fprintf(w, "== %s ==\n%s\n\n%s:\n%s\n\n",
		r.Keyword, export.ElementsText(r), export.SummaryHeading, strings.TrimRight(r.CompetitorSummary, "\n"))
	return err
}

// collectKeywords merges positional keywords with those read from file.
func collectKeywords(args []string, file string, stdin io.Reader) ([]string, error) {
	kws := keywords.Merge(args, "")
	if file != "" {
		var r io.Reader = stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, fmt.Errorf("open keywords file: %w", err)
			}
			defer f.Close()
			r = f
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read keywords: %w", err)
		}
		kws = keywords.Merge(kws, string(b))
	}
	if len(kws) == 0 {
		return nil, ErrNoKeywords
	}
	return kws, nil
}

// writeExport writes results to path atomically.
func writeExport(path string, format export.Format, results []*storage.GenerationResult) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".seogen-*")
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod export: %w", err)
	}
	if err := export.Write(tmp, format, results); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
