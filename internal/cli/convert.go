package cli

import (
	"errors"
	"fmt"

	"github.com/FranksOps/seogen/internal/export"
	"github.com/FranksOps/seogen/internal/storage"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	from    string
	format  string
	output  string
	runID   string
	keyword string
	status  string
	limit   int
}

func newConvertCommand(a *app) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert --from <sink>",
		Short: "Re-export results saved in a sink",
		Example: `  seogen convert --from sqlite:results.db --format docx
  seogen convert --from ndjson:results.jsonl --run-id 3f2c... --status failed -o failed.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.from == "" {
				return errors.New("--from is required")
			}
			format, err := export.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			sink, err := openSink(cmd.Context(), opts.from)
			if err != nil {
				return fmt.Errorf("open sink: %w", err)
			}
			defer sink.Close()

			results, err := sink.Query(cmd.Context(), storage.Filter{
				RunID:   opts.runID,
				Keyword: opts.keyword,
				Status:  storage.Status(opts.status),
				Limit:   opts.limit,
			})
			if err != nil {
				return err
			}

			if opts.output == "-" {
				return export.Write(a.stdout, format, results)
			}
			path := opts.output
			if path == "" {
				path = export.DefaultFilename(format)
			}
			if err := writeExport(path, format, results); err != nil {
				return err
			}
			a.logger.Info("results exported", "path", path, "format", format, "results", len(results))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "sink to read: csv:<path>, ndjson:<path>, sqlite:<path> or postgres://...")
	f.StringVar(&opts.format, "format", "csv", "export format: csv, csv-extended, docx or json")
	f.StringVarP(&opts.output, "output", "o", "", `export path ("-" for stdout)`)
	f.StringVar(&opts.runID, "run-id", "", "only results from this run")
	f.StringVar(&opts.keyword, "keyword", "", "only results for this keyword")
	f.StringVar(&opts.status, "status", "", "only results with this status: ok or failed")
	f.IntVar(&opts.limit, "limit", 0, "maximum results (0 = all)")
	return cmd
}
