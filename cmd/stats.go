package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a student's mastery and practice statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		student := e.cfg.Practice.Student
		sa, err := e.analytics().StudentAnalytics(cmd.Context(), student)
		if err != nil {
			return fmt.Errorf("student analytics: %w", err)
		}

		fmt.Printf("Student:    %s\n", sa.StudentID)
		fmt.Printf("Time spent: %s\n", sa.TimeSpent.Round(time.Second))
		accuracy := 0
		if sa.TotalAttempts > 0 {
			accuracy = sa.CorrectAttempts * 100 / sa.TotalAttempts
		}
		fmt.Printf("Attempts:   %d (%d correct, %d%%)\n", sa.TotalAttempts, sa.CorrectAttempts, accuracy)

		if len(sa.ConceptMasteries) == 0 {
			fmt.Println("\nNo practice recorded yet.")
			return nil
		}

		fmt.Println()
		t := newTable("Concept", "State", "Stars", "Colored", "Proficiency")
		for _, m := range sa.ConceptMasteries {
			t.row(truncate(m.ConceptName, 28), m.State(), m.TotalStars, m.ColoredStars, fmt.Sprintf("%d%%", m.ProficiencyScore))
		}
		t.print()

		if len(sa.MisconceptionsEncountered) > 0 {
			fmt.Printf("\nMisconceptions: %s\n", strings.Join(sa.MisconceptionsEncountered, ", "))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("student", "", "Student ID (default $USER)")
}
