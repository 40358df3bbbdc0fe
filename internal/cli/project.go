package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Print the month-by-month balance projection",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, result, err := runProjection(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSES\tBALANCE\tACCUMULATED")
		for _, row := range result.Projection {
			marker := ""
			if row.IsNegative {
				marker = " !"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%s\n",
				row.Month,
				row.Income.String(),
				row.Expenses.String(),
				row.MonthlyBalance.String(),
				row.AccumulatedBalance.String(),
				marker)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println()
		for _, rec := range result.Recommendations {
			fmt.Printf("[%s] %s\n", rec.Severity, rec.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
}
