package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "List chapters with their concepts and question counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		repo := e.store.ContentRepo()
		chapters, err := repo.Chapters(ctx)
		if err != nil {
			return fmt.Errorf("list chapters: %w", err)
		}
		if len(chapters) == 0 {
			fmt.Println("No chapters yet. Add one with: adaptiq import <file>")
			return nil
		}

		for i, ch := range chapters {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("%s  %s", ch.ID, ch.Title)
			if ch.Subject != "" || ch.Grade > 0 {
				fmt.Printf("  (%s, grade %d)", ch.Subject, ch.Grade)
			}
			fmt.Println()
			fmt.Println(strings.Repeat("─", 60))

			concepts, err := repo.ConceptsByChapter(ctx, ch.ID)
			if err != nil {
				return fmt.Errorf("list concepts of %s: %w", ch.ID, err)
			}
			counts, err := repo.QuestionCounts(ctx, ch.ID)
			if err != nil {
				return fmt.Errorf("count questions of %s: %w", ch.ID, err)
			}
			for _, c := range concepts {
				fmt.Printf("  %-36s  %-20s  %3d questions\n", truncate(c.ID, 36), truncate(c.Name, 20), counts[c.ID])
			}
		}
		return nil
	},
}
