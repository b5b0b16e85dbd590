package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptiq",
	Short: "Adaptive practice for K-12 chapters",
	Long: "AdaptIQ serves multiple-choice questions that climb Bloom's levels and difficulty\n" +
		"as a student answers, awards stars and tracks concept mastery.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Database DSN; a file path for sqlite (overrides ADAPTIQ_DB_DSN)")
	pf.String("db-driver", "", "Database driver: sqlite or postgres")
	pf.String("config", "", "Config file (default ./adaptiq.yaml or ~/.config/adaptiq/adaptiq.yaml)")
	pf.String("log-mode", "", "Log encoding: dev or prod")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	addPracticeFlags(rootCmd)

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
