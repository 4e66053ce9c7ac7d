package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an attempt and update the student's profile",
	Long: `Record one attempt from flags, or a batch of JSON submissions with --file
(use "-" for stdin). Each attempt is appended to the ledger and the profile
is updated right after.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subs, err := submissionsFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, sub := range subs {
			rec, err := a.svc.RecordAttempt(cmd.Context(), sub)
			if err != nil {
				return err
			}
			fmt.Printf("recorded %s (student=%s concept=%s correct=%t)\n",
				rec.ID, rec.StudentID, rec.ConceptID, rec.IsCorrect)
		}
		return nil
	},
}

func submissionsFromFlags(cmd *cobra.Command) ([]attempt.Submission, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		var (
			raw []byte
			err error
		)
		if path == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read submissions: %w", err)
		}
		return attempt.DecodeSubmissions(raw)
	}

	f := cmd.Flags()
	sub := attempt.Submission{}
	sub.StudentID, _ = f.GetString("student")
	sub.ExerciseID, _ = f.GetString("exercise")
	sub.ConceptID, _ = f.GetString("concept")
	sub.IsCorrect, _ = f.GetBool("correct")
	sub.Score, _ = f.GetInt("score")
	sub.HintsUsed, _ = f.GetInt("hints")
	sub.RetriesCount, _ = f.GetInt("retries")
	sub.SkillTags, _ = f.GetStringSlice("tag")

	mode, _ := f.GetString("mode")
	sub.Mode = attempt.Mode(mode)

	if f.Changed("time") {
		secs, _ := f.GetInt("time")
		sub.TimeTakenSeconds = &secs
	}
	if answer, _ := f.GetString("answer"); answer != "" {
		sub.Answer = attempt.Answer{Text: answer}
	}
	return []attempt.Submission{sub}, nil
}

func init() {
	addRecordFlags(recordCmd)
}

func addRecordFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringP("file", "f", "", "Read JSON submission(s) from a file, or - for stdin")
	f.String("student", "", "Student ID")
	f.String("exercise", "", "Exercise ID")
	f.String("concept", "", "Concept ID")
	f.Bool("correct", false, "Whether the answer was correct")
	f.Int("score", 0, "Score (0-100)")
	f.Int("time", 0, "Seconds taken (omit if unknown)")
	f.Int("hints", 0, "Hints used")
	f.Int("retries", 0, "Retries before this answer")
	f.String("mode", string(attempt.ModeLearning), "learning or exam")
	f.String("answer", "", "Submitted answer text")
	f.StringSlice("tag", nil, "Skill tag (repeatable)")
}
