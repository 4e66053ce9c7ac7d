package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/abhisek/skillscope/internal/mastery"
	"github.com/abhisek/skillscope/internal/ui/theme"
)

const (
	tagColumn = 24
	barWidth  = 30
)

// ProfileCard renders a student's profile as a bordered card: one mastery
// bar per skill followed by the overall figure and difficulty.
func ProfileCard(p *mastery.Profile) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render("Skill profile: " + p.StudentID))
	b.WriteString("\n\n")

	tags := p.SortedTags()
	if len(tags) == 0 {
		b.WriteString(theme.Hint.Render("No skills practised yet."))
		b.WriteString("\n")
	}
	for _, tag := range tags {
		s := p.Skills[tag]
		b.WriteString(SkillRow(tag, s))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(NewProgressBar(padRight("Overall", tagColumn), p.OverallMastery, true, tagColumn+barWidth+8).View())
	b.WriteString("\n")
	b.WriteString(theme.Body.Render("Difficulty  ") + theme.Badge.Render(fmt.Sprintf("%d / 5", p.CurrentDifficulty)))

	return theme.Card.Render(b.String())
}

// SkillRow renders one skill: its mastery bar, trend, attempt count and band.
func SkillRow(tag mastery.SkillTag, s mastery.SkillState) string {
	bar := NewProgressBar(padRight(string(tag), tagColumn), s.MasteryScore, true, tagColumn+barWidth+8).View()
	trend := theme.ForTrend(s.Trend).Render(theme.TrendGlyph(s.Trend) + " " + string(s.Trend))
	count := theme.Hint.Render(fmt.Sprintf("(%d, %s)", s.AttemptsCount, mastery.ResolveDisplayState(s)))
	return lipgloss.JoinHorizontal(lipgloss.Top, bar, "  ", trend, " ", count)
}

// AttemptTable renders attempts one per line, newest first as given.
func AttemptTable(recs []attempt.Record) string {
	if len(recs) == 0 {
		return theme.Hint.Render("No attempts recorded.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-19s  %-16s  %-16s  %-6s  %5s  %5s  %s\n",
		"Timestamp", "Concept", "Exercise", "Result", "Score", "Secs", "Mode")
	b.WriteString(strings.Repeat("─", 90))
	b.WriteString("\n")

	for _, r := range recs {
		result := theme.Correct.Render(padRight("✓", 6))
		if !r.IsCorrect {
			result = theme.Incorrect.Render(padRight("✗", 6))
		}
		secs := "-"
		if r.TimeTakenSeconds != nil {
			secs = fmt.Sprint(*r.TimeTakenSeconds)
		}
		fmt.Fprintf(&b, "%-19s  %-16s  %-16s  %s  %5d  %5s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(r.ConceptID, 16),
			truncate(r.ExerciseID, 16),
			result, r.Score, secs, r.Mode)
	}
	return strings.TrimRight(b.String(), "\n")
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
