package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/urlnorm"
)

// ScanFunc scores one URL through the full pipeline
type ScanFunc func(ctx context.Context, rawURL string) (model.ScanResult, error)

// ScanJob is one URL of a batch
type ScanJob struct {
	Index   int
	URL     string
	Scan    ScanFunc
	Limiter *Limiter
}

// Execute waits for the host's rate limit, then scans
func (j *ScanJob) Execute(ctx context.Context) *BatchResult {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &BatchResult{Index: j.Index, URL: j.URL, Error: err}
		}
	}

	result, err := j.Scan(ctx, j.URL)
	if err != nil {
		return &BatchResult{Index: j.Index, URL: j.URL, Error: err}
	}
	return &BatchResult{Index: j.Index, URL: j.URL, Result: &result}
}

// BatchResult is the outcome for one URL of a batch
type BatchResult struct {
	Index  int
	URL    string
	Result *model.ScanResult
	Error  error
}

// BatchProcessor scans many URLs concurrently
type BatchProcessor struct {
	scan        ScanFunc
	concurrency int
	limiter     *Limiter
	progress    func(done, total int, r *BatchResult)
}

// NewBatchProcessor creates a batch processor. limiter may be nil.
func NewBatchProcessor(scan ScanFunc, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		scan:        scan,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// OnProgress registers a callback invoked after each URL completes
func (b *BatchProcessor) OnProgress(fn func(done, total int, r *BatchResult)) {
	b.progress = fn
}

// ProcessURLs scans urls and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*BatchResult {
	if len(urls) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit from a goroutine so results drain while the queue is full
	go func() {
		for i, url := range urls {
			if !pool.Submit(&ScanJob{Index: i, URL: url, Scan: b.scan, Limiter: b.limiter}) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*BatchResult, 0, len(urls))
	for r := range pool.Results() {
		results = append(results, r)
		if b.progress != nil {
			b.progress(len(results), len(urls), r)
		}
	}

	// URLs never run because the batch was cancelled count as failures
	if len(results) < len(urls) {
		seen := make(map[int]bool, len(results))
		for _, r := range results {
			seen[r.Index] = true
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		for i, url := range urls {
			if !seen[i] {
				results = append(results, &BatchResult{Index: i, URL: url, Error: err})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// Summary counts batch outcomes
type Summary struct {
	Total  int
	Failed int
	ByTier map[model.Tier]int
}

// Summarize tallies results by tier
func Summarize(results []*BatchResult) Summary {
	s := Summary{Total: len(results), ByTier: make(map[model.Tier]int)}
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			s.Failed++
			continue
		}
		s.ByTier[r.Result.Tier]++
	}
	return s
}

// ReadURLsFromFile reads URLs from a file (one per line). Blank lines and
// # comments are skipped; URLs that canonicalize the same are kept once.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := urlnorm.Canonical(line)
		if !seen[key] {
			seen[key] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
