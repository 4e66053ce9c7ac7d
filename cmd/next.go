package cmd

import (
	"fmt"

	"github.com/abhisek/skillscope/internal/ui/components"
	"github.com/abhisek/skillscope/internal/ui/theme"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next <student-id>",
	Short: "Suggest the skill to practise next",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.svc.RecommendSkill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println(theme.Hint.Render("No skills practised yet."))
			return nil
		}
		fmt.Println(components.SkillRow(rec.Skill, rec.State))
		return nil
	},
}
