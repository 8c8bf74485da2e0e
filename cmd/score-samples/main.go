// Sample program that scores a fixed set of URLs offline
// This shows every check contributing to the score and the resulting tier
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/safelink/internal/reconcile"
	"github.com/ppiankov/safelink/internal/score"
)

func main() {
	fmt.Println("=== Safelink Sample Scores ===")
	fmt.Println()

	samples := []string{
		"https://www.google.com/",
		"google.com",
		"http://example.com",
		"https://new-shop.example/login",
		"bit.ly/3xYz",
		"http://badsite-login.com/verify-account",
		"https://expired.badssl.com/?redirect=https://paypal.com",
	}

	// Placeholder signals, no network access
	scorer := score.NewScorer(nil)

	for _, raw := range samples {
		r := scorer.Score(raw)

		fmt.Printf("Scoring: %s\n", raw)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("  Safety: %d/10  Tier: %s  Color: %s  Confidence: %.2f\n", r.Safety, r.Tier, r.Color, r.Confidence)

		checks := make([]string, 0, len(r.Breakdown))
		for name := range r.Breakdown {
			checks = append(checks, name)
		}
		sort.Strings(checks)
		for _, name := range checks {
			fmt.Printf("     %-13s %+d\n", name, r.Breakdown[name])
		}

		for _, reason := range r.Reasons {
			fmt.Printf("  - %s\n", reason)
		}

		switch {
		case reconcile.ShouldAutoCheck(r):
			fmt.Println("  ⚙️  Would be sent to the reputation service automatically")
		case reconcile.CanManualCheck(r) == nil:
			fmt.Println("  ✓ Can be checked on demand")
		default:
			fmt.Println("  ✗ External check suppressed at this score")
		}
		fmt.Println()
	}

	fmt.Println("=== Done ===")
	fmt.Println("\nNote: domain age, certificate, blacklist and redirect signals are")
	fmt.Println("placeholders here. Use 'safelink scan' with heuristics.mode=live for WHOIS and TLS.")
}
