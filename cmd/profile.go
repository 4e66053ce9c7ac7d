package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abhisek/skillscope/internal/httpapi"
	"github.com/abhisek/skillscope/internal/ui/components"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <student-id>",
	Short: "Show a student's skill profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.svc.GetProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(httpapi.ProfileView{Profile: p, OverallPercent: p.OverallPercent()})
		}
		fmt.Println(components.ProfileCard(p))
		return nil
	},
}

func init() {
	profileCmd.Flags().Bool("json", false, "Print the profile as JSON")
}
