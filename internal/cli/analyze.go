package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkguard/internal/model"
)

var (
	analyzeJSON   bool
	analyzeFailOn string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url> [url...]",
	Short: "Analyze one or more URLs",
	Long: `Analyze runs every heuristic against each URL and prints the verdict:
- insecure protocol, IP-literal hosts, abused TLDs, deep subdomains
- typosquatting of well-known brands and homograph hosts
- sensitive keywords, random-looking domains, shorteners
- overly long URLs and embedded redirects

Example:
  linkguard analyze http://192.168.1.1/login
  linkguard analyze https://paypa1.com --json
  linkguard analyze "$URL" --fail-on danger`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print results as JSON")
	analyzeCmd.Flags().StringVar(&analyzeFailOn, "fail-on", "", "exit non-zero when a verdict reaches this level (warning, danger)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := validateFailOn(analyzeFailOn); err != nil {
		return err
	}

	_, p, _, err := newPipeline()
	if err != nil {
		return err
	}

	var t tally
	results := make([]model.AnalysisResult, 0, len(args))
	for _, url := range args {
		r := p.Analyze(url)
		t.add(r.ThreatLevel)
		results = append(results, r)
	}

	if analyzeJSON {
		var out any = results
		if len(results) == 1 {
			out = results[0]
		}
		if err := writeJSON(os.Stdout, out); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	} else {
		for _, r := range results {
			printResult(os.Stdout, r, true)
		}
	}

	if t.exceeds(analyzeFailOn) {
		return fmt.Errorf("verdict reached %s", analyzeFailOn)
	}
	return nil
}
