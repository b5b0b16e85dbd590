package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/analytics"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics <chapter-id>",
	Short: "Show class analytics for a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		ch, err := e.store.ContentRepo().Chapter(ctx, args[0])
		if err != nil {
			return err
		}
		class, err := e.analytics().ClassAnalytics(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("class analytics: %w", err)
		}

		if out, _ := cmd.Flags().GetString("xlsx"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := analytics.ExportXLSX(f, *ch, class); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		}

		printClass(ch.Title, class)
		return nil
	},
}

func printClass(title string, class *analytics.ClassAnalytics) {
	fmt.Printf("%s: %d students\n", title, class.Students)
	if class.Students == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Concept Heatmap")
	fmt.Println(strings.Repeat("─", 56))
	for _, h := range class.ConceptHeatmap {
		fmt.Printf("%-24s  %s %3d%%\n", truncate(h.ConceptName, 24), heat(h.AverageProficiency), h.AverageProficiency)
	}

	if len(class.HardestConcepts) > 0 {
		fmt.Println()
		t := newTable("Hardest concept", "Avg attempts")
		for _, h := range class.HardestConcepts {
			t.row(truncate(h.ConceptName, 28), fmt.Sprintf("%.1f", h.AverageAttempts))
		}
		t.print()
	}

	if len(class.SuggestedInterventions) > 0 {
		fmt.Println()
		t := newTable("Intervene on", "Why")
		for _, in := range class.SuggestedInterventions {
			t.row(truncate(in.ConceptName, 28), in.Reason)
		}
		t.print()
	}
}

// heat draws a 20-cell bar for a 0-100 score.
func heat(score int) string {
	n := min(max(score/5, 0), 20)
	return strings.Repeat("█", n) + strings.Repeat("░", 20-n)
}

func init() {
	analyticsCmd.Flags().String("xlsx", "", "Write the report to an Excel workbook instead of stdout")
}
