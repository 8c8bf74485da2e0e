package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/safelink/internal/export"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/rank"
)

var (
	communityView bool
	historyLimit  int
	xlsxPath      string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved scans, riskiest first",
	Long: `History lists every saved scan with its community state.

The default view orders by tier (High Risk first), then dislikes, then
newest. --community adds likes after dislikes.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ranked history to a spreadsheet",
	Long: `Export writes the ranked history to an .xlsx workbook.

Example:
  safelink history export --xlsx history.xlsx --community`,
	Args: cobra.NoArgs,
	RunE: runHistoryExport,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyExportCmd)

	historyCmd.PersistentFlags().BoolVar(&communityView, "community", false, "use the community ordering (likes break ties)")
	historyCmd.PersistentFlags().StringVar(&viewerID, "viewer", "", "viewer id for the own-reaction column (default: this device)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "show at most this many results (0 for all)")
	historyExportCmd.Flags().StringVar(&xlsxPath, "xlsx", "safelink-history.xlsx", "output workbook path")
}

func loadHistory(ctx context.Context) ([]model.ScanResult, error) {
	a, err := openApp(ctx)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	viewer, err := resolveViewer(viewerID)
	if err != nil {
		return nil, err
	}

	view := rank.ViewPrimary
	if communityView {
		view = rank.ViewCommunity
	}

	results, err := a.pipeline.Community().History(ctx, view, viewer)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return results, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	results, err := loadHistory(cmd.Context())
	if err != nil {
		return err
	}

	if historyLimit > 0 && len(results) > historyLimit {
		results = results[:historyLimit]
	}
	printHistory(os.Stdout, results)
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	results, err := loadHistory(cmd.Context())
	if err != nil {
		return err
	}

	if err := export.WriteXLSX(xlsxPath, results); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Exported %d results to %s\n", len(results), xlsxPath)
	return nil
}

func printHistory(w io.Writer, results []model.ScanResult) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "No scans yet.")
		return
	}

	for _, r := range results {
		reaction := ""
		switch r.Reaction {
		case model.ReactionLike:
			reaction = " (you: like)"
		case model.ReactionDislike:
			reaction = " (you: dislike)"
		}
		_, _ = fmt.Fprintf(w, "%-10s %2d/10  +%d -%d%s  %s  %s\n",
			r.Tier, r.Safety, r.Likes, r.Dislikes, reaction, r.DisplayTime(), r.URL)
		if verbose {
			_, _ = fmt.Fprintf(w, "           id %s, %d comments\n", r.ID, len(r.Comments))
		}
	}
}
