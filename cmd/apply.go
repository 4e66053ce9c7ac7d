package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <student-id> <concept-id>",
	Short: "Re-run the profile update for a recorded attempt",
	Long: `Recompute the student's profile from the attempt ledger for one concept.
Safe to repeat: a second run for the same ledger state changes nothing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetStringSlice("tag")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.svc.ApplyAttempt(cmd.Context(), args[0], args[1], tags); err != nil {
			return err
		}
		p, err := a.svc.GetProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("profile %s updated: overall %d%%, difficulty %d\n",
			p.StudentID, p.OverallPercent(), p.CurrentDifficulty)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringSlice("tag", nil, "Skill tag (repeatable)")
}
