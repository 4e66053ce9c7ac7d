package mastery

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/skillscope/internal/difficulty"
)

// skillsDoc is the persisted form of a profile's skill map.
type skillsDoc struct {
	Skills         map[SkillTag]SkillState `json:"skills"`
	ConceptCursors map[string]string       `json:"conceptCursors,omitempty"`
}

// EncodeSkills serialises the parts of p that live in a single JSON
// column: the skill map and the concept cursors.
func EncodeSkills(p *Profile) ([]byte, error) {
	b, err := json.Marshal(skillsDoc{Skills: p.Skills, ConceptCursors: p.ConceptCursors})
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}
	return b, nil
}

// DecodeSkills restores the JSON column written by EncodeSkills into p and
// repairs values a reader must never observe out of range.
func DecodeSkills(p *Profile, raw []byte) error {
	var doc skillsDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("unmarshal skills: %w", err)
		}
	}

	p.Skills = make(map[SkillTag]SkillState, len(doc.Skills))
	for tag, s := range doc.Skills {
		if tag == "" {
			continue
		}
		if !s.Trend.Valid() {
			s.Trend = TrendStable
		}
		s.MasteryScore = clampUnit(s.MasteryScore)
		if s.AttemptsCount < 0 {
			s.AttemptsCount = 0
		}
		p.Skills[tag] = s
	}

	p.ConceptCursors = doc.ConceptCursors
	if p.ConceptCursors == nil {
		p.ConceptCursors = make(map[string]string)
	}
	p.CurrentDifficulty = difficulty.Clamp(p.CurrentDifficulty)
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
