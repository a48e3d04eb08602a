package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranksOps/seogen/internal/analyzer"
	"github.com/spf13/cobra"
)

func newSummarizeCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize <keyword>",
		Short: "Print the competitor summary for a keyword without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(strings.Join(args, " "))
			if keyword == "" {
				return ErrNoKeywords
			}

			provider, err := newProvider(a.cfg, a.logger)
			if err != nil {
				return err
			}
			results, err := provider.Search(cmd.Context(), keyword, a.cfg.SERP.Results)
			if err != nil {
				return err
			}
			stats, err := analyzer.Analyze(results)
			if err != nil {
				return fmt.Errorf("%s: %w", keyword, err)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			_, err = fmt.Fprint(a.stdout, stats.Render())
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&asJSON, "json", false, "print the summary figures as JSON")
	f.String("engine", "google", "search engine: google or duckduckgo")
	f.Int("results", 10, "competitor results to analyze")
	f.String("fingerprint", "chrome", "TLS fingerprint: chrome, firefox, safari, random or go")
	return cmd
}
