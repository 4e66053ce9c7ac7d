package mastery

import "github.com/abhisek/skillscope/internal/ability"

// DisplayState is the coarse band a skill is shown in.
type DisplayState string

const (
	DisplayUnpractised   DisplayState = "unpractised"
	DisplayNeedsPractice DisplayState = "needs practice"
	DisplayDeveloping    DisplayState = "developing"
	DisplayStrong        DisplayState = "strong"
)

// Band edges on the ability scale.
const (
	needsPracticeBelow = -0.5
	strongFrom         = 0.5
)

// ResolveDisplayState maps a skill's mastery into the band used by the UI.
func ResolveDisplayState(s SkillState) DisplayState {
	if s.AttemptsCount == 0 {
		return DisplayUnpractised
	}
	theta := ability.FromMastery(s.MasteryScore)
	switch {
	case theta < needsPracticeBelow:
		return DisplayNeedsPractice
	case theta >= strongFrom:
		return DisplayStrong
	default:
		return DisplayDeveloping
	}
}
