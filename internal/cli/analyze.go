package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maicon-romano/previzi/internal/core"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print aggregate analysis and health indicators",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, result, err := runProjection(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		a := result.Analysis
		fmt.Printf("Total income:    %s\n", a.TotalIncome.String())
		fmt.Printf("Total expenses:  %s\n", a.TotalExpenses.String())
		fmt.Printf("Final balance:   %s\n", a.FinalBalance.String())
		fmt.Printf("Avg monthly:     %s\n", a.AvgMonthlyBalance.String())

		printBreakdown("Income by source", a.IncomeBySource)
		printBreakdown("Expenses by category", a.ExpensesByCategory)

		h := result.Health
		fmt.Println("\nHealth indicators")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "savings rate\t%.1f%%\t%s\n", h.SavingsRate.Value, h.SavingsRate.Band)
		fmt.Fprintf(w, "commitment\t%.1f%%\t%s\n", h.Commitment.Value, h.Commitment.Band)
		fmt.Fprintf(w, "cushion\t%.1f months\t%s\n", h.CushionMonths.Value, h.CushionMonths.Band)
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println("\nInvestment scenarios")
		for _, sc := range a.InvestmentScenarios {
			fmt.Printf("  %d%%: invest %s, 6mo return %s, 12mo return %s\n",
				sc.AllocationPercent,
				sc.InvestmentAmount.String(),
				sc.SixMonthReturn.String(),
				sc.TwelveMonthReturn.String())
		}
		return nil
	},
}

func printBreakdown(title string, items []core.LabeledAmount) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s\n", title)
	for _, item := range items {
		fmt.Printf("  %-24s %s\n", item.Label, item.Amount.String())
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
