package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/linkguard/internal/model"
)

// Analyzer produces a verdict for a URL
type Analyzer interface {
	Analyze(url string) model.AnalysisResult
}

// AnalyzeJob analyzes one URL from a batch
type AnalyzeJob struct {
	Index    int
	URL      string
	Analyzer Analyzer
}

// Execute runs the analysis unless the batch was cancelled first
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &AnalyzeResult{Index: j.Index, URL: j.URL, Error: err}
	}

	result := j.Analyzer.Analyze(j.URL)
	return &AnalyzeResult{Index: j.Index, URL: j.URL, Result: &result}
}

// AnalyzeResult is the outcome of one AnalyzeJob
type AnalyzeResult struct {
	Index  int
	URL    string
	Result *model.AnalysisResult
	Error  error
}

func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many URLs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessURLs analyzes urls and returns results in input order.
// URLs skipped because ctx was cancelled carry ctx.Err().
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalyzeResult {
	if len(urls) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, url := range urls {
			if !pool.Submit(&AnalyzeJob{Index: i, URL: url, Analyzer: b.analyzer}) {
				return
			}
		}
	}()

	results := make([]*AnalyzeResult, 0, len(urls))
	for r := range pool.Results() {
		results = append(results, r.(*AnalyzeResult))
	}

	done := make(map[int]bool, len(results))
	for _, r := range results {
		done[r.Index] = true
	}
	for i, url := range urls {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results = append(results, &AnalyzeResult{Index: i, URL: url, Error: err})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads URLs from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadURLs(file)
}

// ReadURLs reads one URL per line, skipping blanks, "#" comments and repeats
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return urls, nil
}
