package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM calls behind misconception explanations",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := e.store.EventRepo().QueryLLMEvents(cmd.Context(), store.LLMQueryOpts{
			QueryOpts: store.QueryOpts{Limit: limit},
			Purpose:   purpose,
		})
		if err != nil {
			return fmt.Errorf("query llm events: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No LLM calls recorded.")
			return nil
		}

		t := newTable("ID", "When", "Model", "Tokens in/out", "Latency", "")
		for _, r := range records {
			status := "ok"
			if !r.Success {
				status = "failed"
			}
			t.row(r.ID, humanize.Time(r.Timestamp), truncate(r.Model, 32),
				humanize.Comma(int64(r.InputTokens))+" / "+humanize.Comma(int64(r.OutputTokens)),
				fmt.Sprintf("%dms", r.LatencyMs), status)
		}
		t.print()
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.store.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get llm event: %w", err)
		}
		if r == nil {
			return fmt.Errorf("llm event %d not found", id)
		}

		fmt.Printf("Call %d · %s · %s\n", r.ID, r.Purpose, r.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("%s %s, %s in / %s out, %dms\n", r.Provider, r.Model,
			humanize.Comma(int64(r.InputTokens)), humanize.Comma(int64(r.OutputTokens)), r.LatencyMs)
		if r.ErrorMessage != "" {
			fmt.Printf("Failed: %s\n", r.ErrorMessage)
		}
		section("Prompt", r.RequestBody)
		section("Reply", r.ResponseBody)
		return nil
	},
}

func section(title, body string) {
	fmt.Printf("\n%s %s\n", title, strings.Repeat("─", 58-len(title)))
	if strings.TrimSpace(body) == "" {
		body = "(none)"
	}
	fmt.Println(strings.TrimRight(body, "\n"))
}

var llmCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Summarize token usage and estimated spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		events := e.store.EventRepo()
		byPurpose, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM calls recorded.")
			return nil
		}
		byModel, err := events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}

		t := newTable("Purpose", "Calls", "Input", "Output", "Avg latency")
		for _, u := range byPurpose {
			t.row(u.Purpose, u.Calls, humanize.Comma(int64(u.InputTokens)), humanize.Comma(int64(u.OutputTokens)),
				fmt.Sprintf("%dms", u.AvgLatencyMs))
		}
		t.print()

		fmt.Println()
		var total float64
		var unpriced []string
		t = newTable("Model", "Calls", "Input", "Output", "Cost")
		for _, u := range byModel {
			cost := "?"
			if c := llm.LookupCost(u.Model); c != nil {
				usd := c.Cost(u.InputTokens, u.OutputTokens)
				total += usd
				cost = formatCost(usd)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			t.row(truncate(u.Model, 32), u.Calls, humanize.Comma(int64(u.InputTokens)), humanize.Comma(int64(u.OutputTokens)), cost)
		}
		label := "Total"
		if len(unpriced) > 0 {
			label = "Total (priced models only)"
		}
		t.totals(label, "", "", "", formatCost(total))
		t.print()
		if len(unpriced) > 0 {
			fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show calls with this purpose (e.g. "+misconception.Purpose+")")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmCostCmd)
}
