package mastery

import (
	"strings"
	"time"
)

// SkillTag labels learning content; attempts on a concept are bucketed
// under every tag the concept carries.
type SkillTag string

// ParseSkillTag trims s and rejects blank tags.
func ParseSkillTag(s string) (SkillTag, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return SkillTag(s), true
}

// NormalizeTags drops blank and duplicate tags, keeping first-seen order.
func NormalizeTags(raw []string) []SkillTag {
	seen := make(map[SkillTag]bool, len(raw))
	tags := make([]SkillTag, 0, len(raw))
	for _, r := range raw {
		tag, ok := ParseSkillTag(r)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// DefaultPriorMastery is the prior assumed for a skill with no history.
const DefaultPriorMastery = 0.5

// SkillState is the per-skill mastery record held inside a Profile.
type SkillState struct {
	MasteryScore    float64    `json:"masteryScore"`
	AttemptsCount   int        `json:"attemptsCount"`
	LastPracticedAt *time.Time `json:"lastPracticedAt,omitempty"`
	Trend           Trend      `json:"trend"`

	// LastAttemptID is the newest attempt of the window that last updated
	// this skill.
	LastAttemptID string `json:"lastAttemptId,omitempty"`
}
