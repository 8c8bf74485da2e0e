package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/pipeline"
	"github.com/ppiankov/safelink/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchCheck   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scan multiple URLs from a file in parallel",
	Long: `Batch scans every URL in a file (one per line):
- Blank lines and # comments are skipped, duplicates are scanned once
- URLs are scanned in parallel with a configurable worker count
- Requests to the same host are rate limited
- Every result is saved to the history

Example:
  safelink batch urls.txt
  safelink batch urls.txt --concurrency 8 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config, then CPU count)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noGate, "no-gate", false, "skip the domain existence check")
	batchCmd.Flags().BoolVar(&batchCheck, "check", false, "run the external check outside the Be Careful band")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Safelink Batch Scan\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	opts := pipeline.Options{SkipGate: noGate, ForceCheck: batchCheck}
	scan := func(ctx context.Context, rawURL string) (model.ScanResult, error) {
		return a.pipeline.Scan(ctx, rawURL, opts)
	}

	limiter := worker.LimiterFromConfig(a.cfg.RateLimiting)
	processor := worker.NewBatchProcessor(scan, workers, limiter)
	processor.OnProgress(func(done, total int, r *worker.BatchResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ [%d/%d] %s: %v\n", done, total, r.URL, r.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ [%d/%d] %s: %d/10 (%s)\n", done, total, r.Result.URL, r.Result.Safety, r.Result.Tier)
	})

	fmt.Fprintf(os.Stderr, "⚙️  Reading URLs from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := worker.Summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d URLs\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  High Risk:   %d\n", summary.ByTier[model.TierHighRisk])
	fmt.Fprintf(os.Stderr, "  Be Careful:  %d\n", summary.ByTier[model.TierBeCareful])
	fmt.Fprintf(os.Stderr, "  Safe:        %d\n", summary.ByTier[model.TierSafe])
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
