package mastery

import (
	"math"
	"testing"
	"time"

	"github.com/abhisek/skillscope/internal/difficulty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 0.001

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// obs builds an observation on concept c1; ids are newest first.
func obs(theta float64, ids ...string) Observation {
	return Observation{ConceptID: "c1", Theta: theta, Window: ids, At: t0}
}

func TestNewProfile_Defaults(t *testing.T) {
	p := NewProfile("stu")
	assert.Equal(t, "stu", p.StudentID)
	assert.Empty(t, p.Skills)
	assert.Equal(t, 0.0, p.OverallMastery)
	assert.Equal(t, difficulty.Level(3), p.CurrentDifficulty)
}

func TestMerge_NewSkill(t *testing.T) {
	p := NewProfile("stu")
	p.Merge("fractions", obs(0.6, "a1"))

	s := p.Skills["fractions"]
	assert.True(t, almostEqual(s.MasteryScore, 0.6))
	assert.Equal(t, 1, s.AttemptsCount)
	// Prior mastery 0.5 implies prevTheta 0; 0.6 > 0.2.
	assert.Equal(t, TrendImproving, s.Trend)
	require.NotNil(t, s.LastPracticedAt)
	assert.Equal(t, t0, *s.LastPracticedAt)
	assert.Equal(t, "a1", s.LastAttemptID)
}

func TestMerge_TrendFromPriorMastery(t *testing.T) {
	p := NewProfile("stu")
	p.Merge("algebra", obs(1.0, "a1"))
	p.Merge("algebra", obs(0.9, "a2"))
	assert.Equal(t, TrendStable, p.Skills["algebra"].Trend)

	p.Merge("algebra", obs(0.0, "a3"))
	assert.Equal(t, TrendDeclining, p.Skills["algebra"].Trend)

	p.Merge("algebra", obs(2.0, "a4"))
	assert.Equal(t, TrendImproving, p.Skills["algebra"].Trend)
	assert.Equal(t, 4, p.Skills["algebra"].AttemptsCount)
}

func TestMerge_NeutralNewSkillIsStable(t *testing.T) {
	p := NewProfile("stu")
	p.Merge("geometry", obs(0))
	s := p.Skills["geometry"]
	assert.True(t, almostEqual(s.MasteryScore, 0.5))
	assert.Equal(t, TrendStable, s.Trend)
	assert.Equal(t, 1, s.AttemptsCount)
}

func TestApply_ReplayDoesNotDoubleCount(t *testing.T) {
	p := NewProfile("stu")
	require.Equal(t, 1, p.Apply([]SkillTag{"fractions"}, obs(0.6, "a1")))
	first := p.Skills["fractions"]

	later := obs(0.6, "a1")
	later.At = t0.Add(time.Hour)
	assert.Equal(t, 0, p.Apply([]SkillTag{"fractions"}, later))

	again := p.Skills["fractions"]
	assert.Equal(t, 1, again.AttemptsCount)
	assert.Equal(t, first.Trend, again.Trend)
	assert.Equal(t, *first.LastPracticedAt, *again.LastPracticedAt)
	assert.Equal(t, first.MasteryScore, again.MasteryScore)
}

func TestApply_CountsEveryUnappliedAttempt(t *testing.T) {
	p := NewProfile("stu")
	p.Apply([]SkillTag{"x"}, obs(0.2, "a1"))

	// a2 and a3 landed before the next update ran.
	assert.Equal(t, 2, p.Apply([]SkillTag{"x"}, obs(0.4, "a3", "a2", "a1")))
	assert.Equal(t, 3, p.Skills["x"].AttemptsCount)
	assert.Equal(t, "a3", p.ConceptCursors["c1"])

	// The catch-up already covered a3.
	assert.Equal(t, 0, p.Apply([]SkillTag{"x"}, obs(0.4, "a3", "a2", "a1")))
	assert.Equal(t, 3, p.Skills["x"].AttemptsCount)
}

func TestApply_CursorOutsideWindowCountsWholeWindow(t *testing.T) {
	p := NewProfile("stu")
	p.ConceptCursors["c1"] = "old"
	assert.Equal(t, 3, p.Apply([]SkillTag{"x"}, obs(0, "a3", "a2", "a1")))
}

func TestApply_SharedTagAcrossConcepts(t *testing.T) {
	p := NewProfile("stu")
	p.Apply([]SkillTag{"x"}, obs(0.6, "a1"))

	other := obs(0.2, "b1")
	other.ConceptID = "c2"
	p.Apply([]SkillTag{"x"}, other)
	assert.Equal(t, 2, p.Skills["x"].AttemptsCount)

	// Re-running c1's update after c2 touched the same tag is still a retry.
	p.Apply([]SkillTag{"x"}, obs(0.6, "a1"))
	assert.Equal(t, 2, p.Skills["x"].AttemptsCount)
}

func TestApply_ReplayAddsUnseenTags(t *testing.T) {
	p := NewProfile("stu")
	p.Apply([]SkillTag{"x"}, obs(0.6, "a1"))
	p.Apply([]SkillTag{"x", "y"}, obs(0.6, "a1"))

	assert.Equal(t, 1, p.Skills["x"].AttemptsCount)
	assert.Equal(t, 1, p.Skills["y"].AttemptsCount)
	assert.True(t, almostEqual(p.OverallMastery, 0.6))
}

func TestApply_EmptyWindowAlwaysCounts(t *testing.T) {
	p := NewProfile("stu")
	p.Apply([]SkillTag{"x"}, obs(0))
	p.Apply([]SkillTag{"x"}, obs(0))
	assert.Equal(t, 2, p.Skills["x"].AttemptsCount)
	assert.Empty(t, p.ConceptCursors)
}

func TestRecompute_MeanOfAllSkills(t *testing.T) {
	p := NewProfile("stu")
	p.Recompute()
	assert.Equal(t, 0.0, p.OverallMastery)

	p.Merge("a", obs(3, "1"))  // 1.0
	p.Merge("b", obs(-3, "1")) // 0.0
	p.Merge("c", obs(0, "1"))  // 0.5
	p.Recompute()
	assert.True(t, almostEqual(p.OverallMastery, 0.5))

	// Touching one skill still averages over every skill.
	p.Merge("b", obs(3, "2"))
	p.Recompute()
	assert.True(t, almostEqual(p.OverallMastery, (1.0+1.0+0.5)/3))
}

func TestApply_StepsDifficultyOncePerUpdate(t *testing.T) {
	p := NewProfile("stu")

	p.Apply(nil, obs(1.5, "a1"))
	assert.Equal(t, difficulty.Level(4), p.CurrentDifficulty)

	// Same ledger state again is a retry.
	p.Apply(nil, obs(1.5, "a1"))
	assert.Equal(t, difficulty.Level(4), p.CurrentDifficulty)

	// Several unapplied attempts still move difficulty by one.
	p.Apply(nil, obs(-1.5, "a4", "a3", "a2", "a1"))
	assert.Equal(t, difficulty.Level(3), p.CurrentDifficulty)

	// A different concept steps independently.
	other := obs(1.5, "b1")
	other.ConceptID = "c2"
	p.Apply(nil, other)
	assert.Equal(t, difficulty.Level(4), p.CurrentDifficulty)
}

func TestStepDifficulty_Clamps(t *testing.T) {
	p := NewProfile("stu")
	p.CurrentDifficulty = difficulty.Max
	p.StepDifficulty(2)
	assert.Equal(t, difficulty.Max, p.CurrentDifficulty)

	p.CurrentDifficulty = difficulty.Min
	p.StepDifficulty(-2)
	assert.Equal(t, difficulty.Min, p.CurrentDifficulty)
}

func TestApply_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		theta       float64
		wantMastery float64
	}{
		{"eight of ten", 0.6, 0.6},
		{"boundary 1.0", 1.0, 0.6667},
		{"slow perfect", 0.5, 0.5833},
		{"empty window", 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfile("stu")
			p.Apply([]SkillTag{"s1", "s2"}, obs(tt.theta, "x"))

			for _, tag := range []SkillTag{"s1", "s2"} {
				assert.True(t, almostEqual(p.Skills[tag].MasteryScore, tt.wantMastery),
					"%s mastery = %f", tag, p.Skills[tag].MasteryScore)
			}
			assert.True(t, almostEqual(p.OverallMastery, tt.wantMastery))
			assert.Equal(t, difficulty.Default, p.CurrentDifficulty)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	p := NewProfile("stu")
	p.Apply([]SkillTag{"a"}, obs(0.6, "x"))

	c := p.Clone()
	c.Merge("b", obs(1, "y"))
	*c.Skills["a"].LastPracticedAt = t0.Add(time.Hour)
	c.ConceptCursors["c9"] = "z"

	assert.Len(t, p.Skills, 1)
	assert.Equal(t, t0, *p.Skills["a"].LastPracticedAt)
	assert.NotContains(t, p.ConceptCursors, "c9")
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"fractions", "", "  ", " algebra ", "fractions", "geometry"})
	assert.Equal(t, []SkillTag{"fractions", "algebra", "geometry"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestWeakestSkill(t *testing.T) {
	p := NewProfile("stu")
	_, _, ok := p.WeakestSkill()
	assert.False(t, ok)

	p.Merge("b", obs(-1, "1"))
	p.Merge("a", obs(-1, "1"))
	p.Merge("c", obs(2, "1"))

	tag, state, ok := p.WeakestSkill()
	require.True(t, ok)
	assert.Equal(t, SkillTag("a"), tag)
	assert.True(t, almostEqual(state.MasteryScore, 1.0/3))
}

func TestOverallPercent(t *testing.T) {
	p := NewProfile("stu")
	p.OverallMastery = 0.5833
	assert.Equal(t, 58, p.OverallPercent())
}
