package cmd

import (
	"fmt"

	"github.com/abhisek/skillscope/internal/adaptive"
	"github.com/abhisek/skillscope/internal/ui/components"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "List a student's recent attempts across all concepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.svc.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		fmt.Println(components.AttemptTable(recs))
		fmt.Printf("\n%d attempts\n", len(recs))
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", adaptive.DefaultHistoryLimit, "Maximum attempts to list")
}
