package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/pipeline"
)

var (
	outJSON    bool
	noGate     bool
	forceCheck bool
	timeout    time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Score a single URL",
	Long: `Scan checks that the domain exists, scores the URL from 0 to 10 and
saves the result to the shared history.

Results in the "Be Careful" band are confirmed automatically with the
configured reputation service; the service can only lower a score.

Example:
  safelink scan https://www.google.com/
  safelink scan example.com/login --check
  safelink scan http://badsite-login.com/verify-account --no-gate --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// recheckCmd represents the recheck command
var recheckCmd = &cobra.Command{
	Use:   "recheck <id>",
	Short: "Run the external reputation check for a saved result",
	Long: `Recheck asks the reputation service about a result that has not been
checked yet. Results already checked, and results scored 3 or lower, are
not sent again.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecheck,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(recheckCmd)

	scanCmd.Flags().BoolVar(&outJSON, "json", false, "print the result as JSON")
	scanCmd.Flags().BoolVar(&noGate, "no-gate", false, "skip the domain existence check")
	scanCmd.Flags().BoolVar(&forceCheck, "check", false, "run the external check outside the Be Careful band")
	scanCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall scan timeout")

	recheckCmd.Flags().BoolVar(&outJSON, "json", false, "print the result as JSON")
	recheckCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall check timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Existence gate: %v\n", a.cfg.Gate.Enabled && !noGate)
		fmt.Fprintln(os.Stderr)
	}

	result, err := a.pipeline.Scan(ctx, args[0], pipeline.Options{
		SkipGate:   noGate,
		ForceCheck: forceCheck,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return printResult(os.Stdout, result, outJSON)
}

func runRecheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Recheck(ctx, args[0])
	if err != nil {
		return fmt.Errorf("recheck failed: %w", err)
	}

	return printResult(os.Stdout, result, outJSON)
}

// printResult writes a result for humans, or as indented JSON
func printResult(w io.Writer, r model.ScanResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	mark := "✓"
	if r.Tier != model.TierSafe {
		mark = "✗"
	}

	_, _ = fmt.Fprintf(w, "%s %s\n", mark, r.URL)
	_, _ = fmt.Fprintf(w, "  Safety:      %d/10 (%s)\n", r.Safety, r.Tier)
	_, _ = fmt.Fprintf(w, "  Confidence:  %.0f%%\n", r.Confidence*100)
	_, _ = fmt.Fprintf(w, "  ID:          %s\n", r.ID)
	_, _ = fmt.Fprintf(w, "  Scanned:     %s\n", r.DisplayTime())

	if len(r.Reasons) > 0 {
		_, _ = fmt.Fprintf(w, "\n  Reasons:\n")
		for _, reason := range r.Reasons {
			_, _ = fmt.Fprintf(w, "    - %s\n", reason)
		}
	}

	if verbose && len(r.Breakdown) > 0 {
		checks := make([]string, 0, len(r.Breakdown))
		for name := range r.Breakdown {
			checks = append(checks, name)
		}
		sort.Strings(checks)

		_, _ = fmt.Fprintf(w, "\n  Breakdown:\n")
		for _, name := range checks {
			_, _ = fmt.Fprintf(w, "    %-13s %+d\n", name, r.Breakdown[name])
		}
	}

	if verbose && r.Gate != nil {
		_, _ = fmt.Fprintf(w, "\n  Gate:        %s\n", gateStatus(r.Gate))
	}

	if r.APICheck != nil {
		_, _ = fmt.Fprintf(w, "\n  External check: %s\n", externalStatus(r.APICheck))
	}

	if r.Likes > 0 || r.Dislikes > 0 || len(r.Comments) > 0 {
		_, _ = fmt.Fprintf(w, "\n  Community:   %d likes, %d dislikes, %d comments\n", r.Likes, r.Dislikes, len(r.Comments))
	}

	return nil
}

func externalStatus(c *model.APICheck) string {
	switch {
	case c.Failed:
		return c.Note
	case c.Note != "":
		return "done (" + c.Note + ")"
	default:
		return "done"
	}
}

func gateStatus(g *model.GateCheck) string {
	if g.AllowListed {
		return "allow-listed"
	}
	crawl := "crawl allowed"
	if !g.CrawlAllowed {
		crawl = "crawl disallowed by robots.txt"
	}
	return fmt.Sprintf("%s -> %d after %d attempt(s), %s", g.ProbeURL, g.StatusCode, g.Attempts, crawl)
}
