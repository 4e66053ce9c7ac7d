package cmd

import (
	"fmt"

	"github.com/abhisek/skillscope/internal/ability"
	"github.com/abhisek/skillscope/internal/ui/components"
	"github.com/spf13/cobra"
)

var windowCmd = &cobra.Command{
	Use:   "window <student-id> <concept-id>",
	Short: "Show the recent attempts the ability estimate is drawn from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.svc.AbilityWindow(cmd.Context(), args[0], args[1], limit)
		if err != nil {
			return err
		}
		fmt.Println(components.AttemptTable(recs))
		return nil
	},
}

func init() {
	windowCmd.Flags().Int("limit", ability.Window, "Number of attempts to show")
}
