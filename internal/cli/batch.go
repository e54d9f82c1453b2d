package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchJSON    bool
	batchFailOn  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze URLs from a file in parallel",
	Long: `Batch analyzes many URLs concurrently:
- Read URLs from input file (one per line, "#" comments, "-" for stdin)
- Skip blank lines and duplicates
- Analyze on a worker pool sharing one result cache
- Print verdicts in input order and a summary

Example:
  linkguard batch urls.txt
  linkguard batch urls.txt --concurrency 8 --json
  cat urls.txt | linkguard batch - --fail-on warning`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as JSON")
	batchCmd.Flags().StringVar(&batchFailOn, "fail-on", "", "exit non-zero when a verdict reaches this level (warning, danger)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := validateFailOn(batchFailOn); err != nil {
		return err
	}

	cfg, p, _, err := newPipeline()
	if err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	var urls []string
	if args[0] == "-" {
		urls, err = worker.ReadURLs(os.Stdin)
	} else {
		urls, err = worker.ReadURLsFromFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d URLs with %d workers\n", len(urls), workers)
	}

	processor := worker.NewBatchProcessor(p, workers)
	results := processor.ProcessURLs(ctx, urls)

	var t tally
	var verdicts []model.AnalysisResult
	failures := 0

	for _, res := range results {
		if res.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.URL, res.Error)
			continue
		}
		t.add(res.Result.ThreatLevel)
		if batchJSON {
			verdicts = append(verdicts, *res.Result)
			continue
		}
		printResult(os.Stdout, *res.Result, verbose)
	}

	if batchJSON {
		if verdicts == nil {
			verdicts = []model.AnalysisResult{}
		}
		if err := writeJSON(os.Stdout, verdicts); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	} else {
		t.print(os.Stdout)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d URLs not analyzed: %w", failures, len(urls), ctx.Err())
	}
	if t.exceeds(batchFailOn) {
		return fmt.Errorf("verdict reached %s", batchFailOn)
	}
	return nil
}
