package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkguard/internal/extract"
	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/worker"
)

var (
	pageBase     string
	pageJSON     bool
	pageOnlyRisk bool
)

// pageCmd represents the page command
var pageCmd = &cobra.Command{
	Use:   "page <file.html>",
	Short: "Analyze every link in a saved HTML page",
	Long: `Page extracts the <a href> links of an HTML document, resolves them
against --base, and analyzes each unique http(s) link.

Example:
  linkguard page inbox.html --base https://mail.example.com/
  curl -s https://example.com | linkguard page - --base https://example.com --risky`,
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	rootCmd.AddCommand(pageCmd)

	pageCmd.Flags().StringVar(&pageBase, "base", "", "base URL for resolving relative links")
	pageCmd.Flags().BoolVar(&pageJSON, "json", false, "print results as JSON")
	pageCmd.Flags().BoolVar(&pageOnlyRisk, "risky", false, "only show warning and danger verdicts")
}

type pageLink struct {
	Link   model.Link           `json:"link"`
	Result model.AnalysisResult `json:"result"`
}

func runPage(cmd *cobra.Command, args []string) error {
	cfg, p, _, err := newPipeline()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	links, err := extract.NewLinkExtractor().Extract(r, pageBase)
	if err != nil {
		return fmt.Errorf("extract links: %w", err)
	}

	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}

	results := worker.NewBatchProcessor(p, cfg.Concurrency.Workers).ProcessURLs(cmd.Context(), urls)

	var t tally
	out := make([]pageLink, 0, len(results))
	for _, res := range results {
		if res.Error != nil {
			return fmt.Errorf("analyze %s: %w", res.URL, res.Error)
		}
		t.add(res.Result.ThreatLevel)
		if pageOnlyRisk && res.Result.ThreatLevel == model.ThreatSafe {
			continue
		}
		out = append(out, pageLink{Link: links[res.Index], Result: *res.Result})
	}

	if pageJSON {
		return writeJSON(os.Stdout, out)
	}

	for _, pl := range out {
		printResult(os.Stdout, pl.Result, verbose)
		if pl.Link.Text != "" {
			_, _ = dimColor.Fprintf(os.Stdout, "             text: %q\n", pl.Link.Text)
		}
	}
	t.print(os.Stdout)
	return nil
}
