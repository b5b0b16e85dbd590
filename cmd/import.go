package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import chapters from JSON or YAML files",
	Long: "Import reads chapter documents (.json, .yaml or .yml) into the question bank.\n" +
		"Questions already present are left untouched, so re-importing a file is safe.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		im := importer.New(e.store.ContentWriter(), e.log)
		for _, path := range args {
			rep, err := im.ImportFile(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			printReport(path, rep)
			e.invalidate(cmd.Context(), rep.ConceptIDs)
		}
		return nil
	},
}

func printReport(path string, rep *importer.Report) {
	status := "updated"
	if rep.ChapterCreated {
		status = "created"
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  Chapter:    %s (%s, %s)\n", rep.ChapterTitle, rep.ChapterID, status)
	fmt.Printf("  Concepts:   %d\n", rep.Concepts)
	fmt.Printf("  Questions:  %d (%d new, %d already present)\n",
		rep.Questions, rep.QuestionsCreated, rep.QuestionsSkipped)
}
