package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/app"
	"github.com/abhisek/adaptiq/internal/screens/home"
	"github.com/abhisek/adaptiq/internal/session"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start an interactive practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func addPracticeFlags(c *cobra.Command) {
	c.Flags().String("student", "", "Student ID (default $USER)")
	c.Flags().String("chapter", "", "Open this chapter's concept list directly")
}

func init() {
	addPracticeFlags(practiceCmd)
}

func runPractice(cmd *cobra.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	student := e.cfg.Practice.Student
	if student == "" {
		return fmt.Errorf("no student: pass --student or set ADAPTIQ_PRACTICE_STUDENT")
	}
	chapterID, _ := cmd.Flags().GetString("chapter")

	svc := session.NewService(student, e.sessionDeps())
	deps := home.Deps{
		Content:        e.store.ContentRepo(),
		Service:        svc,
		Misconceptions: e.misconceptionService(ctx),
	}
	return app.Run(ctx, deps, app.Options{ChapterID: chapterID, Log: e.log})
}
