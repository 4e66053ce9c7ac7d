package mastery

import (
	"math"
	"sort"
	"time"

	"github.com/abhisek/skillscope/internal/ability"
	"github.com/abhisek/skillscope/internal/difficulty"
)

// Profile is a student's aggregate skill record. There is exactly one per
// student; it is always re-derivable from the attempt ledger.
type Profile struct {
	StudentID         string                  `json:"studentId"`
	Skills            map[SkillTag]SkillState `json:"skills"`
	OverallMastery    float64                 `json:"overallMastery"`
	CurrentDifficulty difficulty.Level        `json:"currentDifficulty"`

	// ConceptCursors maps a concept to the newest attempt already applied
	// to this profile. Attempts after the cursor are the ones still to count.
	ConceptCursors map[string]string `json:"conceptCursors,omitempty"`

	// Version increments on every persisted write.
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProfile returns the documented default profile: no skills, overall
// mastery 0 and difficulty 3.
func NewProfile(studentID string) *Profile {
	return &Profile{
		StudentID:         studentID,
		Skills:            make(map[SkillTag]SkillState),
		CurrentDifficulty: difficulty.Default,
		ConceptCursors:    make(map[string]string),
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Skills = make(map[SkillTag]SkillState, len(p.Skills))
	for tag, s := range p.Skills {
		if s.LastPracticedAt != nil {
			at := *s.LastPracticedAt
			s.LastPracticedAt = &at
		}
		c.Skills[tag] = s
	}
	c.ConceptCursors = make(map[string]string, len(p.ConceptCursors))
	for k, v := range p.ConceptCursors {
		c.ConceptCursors[k] = v
	}
	return &c
}

// Observation is one ability estimate to fold into a profile.
type Observation struct {
	ConceptID string
	Theta     float64
	// Window holds the ids of the attempts the estimate was drawn from,
	// newest first. It is empty when the concept has no attempts.
	Window []string
	At     time.Time
}

// Newest returns the id of the newest attempt in the window, or "".
func (o Observation) Newest() string {
	if len(o.Window) == 0 {
		return ""
	}
	return o.Window[0]
}

// Merge folds one new attempt's estimate into the skill tagged tag. It
// does not recompute the overall figure; call Recompute once all tags
// are merged.
func (p *Profile) Merge(tag SkillTag, obs Observation) {
	p.merge(tag, obs, 1)
}

func (p *Profile) merge(tag SkillTag, obs Observation, attempts int) {
	prev, exists := p.Skills[tag]
	prevMastery := DefaultPriorMastery
	if exists {
		prevMastery = prev.MasteryScore
	}

	at := obs.At.UTC()
	p.Skills[tag] = SkillState{
		MasteryScore:    ability.ToMastery(obs.Theta),
		AttemptsCount:   prev.AttemptsCount + attempts,
		LastPracticedAt: &at,
		Trend:           TrendOf(obs.Theta, ability.FromMastery(prevMastery)),
		LastAttemptID:   obs.Newest(),
	}
}

// Recompute sets OverallMastery to the mean mastery of every skill in
// the profile, or 0 when there are none.
func (p *Profile) Recompute() {
	if len(p.Skills) == 0 {
		p.OverallMastery = 0
		return
	}
	sum := 0.0
	for _, s := range p.Skills {
		sum += s.MasteryScore
	}
	p.OverallMastery = sum / float64(len(p.Skills))
}

// StepDifficulty runs the difficulty controller once for theta.
func (p *Profile) StepDifficulty(theta float64) {
	p.CurrentDifficulty = difficulty.Next(theta, difficulty.Clamp(p.CurrentDifficulty))
}

// Unapplied returns how many attempts in obs.Window are newer than the
// last attempt applied for obs.ConceptID. A window with no attempts has
// nothing to deduplicate on and counts as one update.
func (p *Profile) Unapplied(obs Observation) int {
	if len(obs.Window) == 0 {
		return 1
	}
	cursor := p.ConceptCursors[obs.ConceptID]
	if cursor == "" {
		return len(obs.Window)
	}
	for i, id := range obs.Window {
		if id == cursor {
			return i
		}
	}
	return len(obs.Window)
}

// Apply folds obs into every tag, recomputes the overall figure and
// steps difficulty once. Each tag's count grows by the number of
// attempts not yet applied for the concept, so re-applying the same
// ledger state changes nothing except adding tags the profile has never
// seen. It returns that number.
func (p *Profile) Apply(tags []SkillTag, obs Observation) int {
	if p.ConceptCursors == nil {
		p.ConceptCursors = make(map[string]string)
	}

	n := p.Unapplied(obs)
	if n == 0 {
		for _, tag := range tags {
			if _, ok := p.Skills[tag]; !ok {
				p.merge(tag, obs, 1)
			}
		}
		p.Recompute()
		return 0
	}

	for _, tag := range tags {
		p.merge(tag, obs, n)
	}
	p.Recompute()
	p.StepDifficulty(obs.Theta)
	if newest := obs.Newest(); newest != "" {
		p.ConceptCursors[obs.ConceptID] = newest
	}
	return n
}

// OverallPercent returns OverallMastery as a rounded percentage.
func (p *Profile) OverallPercent() int {
	return int(math.Round(p.OverallMastery * 100))
}

// SortedTags returns the profile's skill tags in ascending order.
func (p *Profile) SortedTags() []SkillTag {
	tags := make([]SkillTag, 0, len(p.Skills))
	for tag := range p.Skills {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// WeakestSkill returns the skill with the lowest mastery score, ties going
// to the alphabetically first tag. ok is false for an empty profile.
func (p *Profile) WeakestSkill() (tag SkillTag, state SkillState, ok bool) {
	for _, t := range p.SortedTags() {
		s := p.Skills[t]
		if !ok || s.MasteryScore < state.MasteryScore {
			tag, state, ok = t, s, true
		}
	}
	return tag, state, ok
}
