package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode distinguishes practice attempts from exam attempts.
type Mode string

const (
	ModeLearning Mode = "learning"
	ModeExam     Mode = "exam"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLearning || m == ModeExam
}

// DefaultTimeTakenSecs is assumed for attempts recorded without a duration.
const DefaultTimeTakenSecs = 60

// Answer is a learner's free-form answer: a single string for
// multiple-choice and fill-in exercises, or ordered step answers.
type Answer struct {
	Text  string
	Steps []string
}

// IsStepped reports whether the answer is a sequence of step answers.
func (a Answer) IsStepped() bool {
	return a.Steps != nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsStepped() {
		return json.Marshal(a.Steps)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*a = Answer{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var steps []string
		if err := json.Unmarshal(data, &steps); err != nil {
			return fmt.Errorf("decode step answers: %w", err)
		}
		if steps == nil {
			steps = []string{}
		}
		*a = Answer{Steps: steps}
		return nil
	default:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("decode answer: %w", err)
		}
		*a = Answer{Text: text}
		return nil
	}
}

// Record is a single immutable exercise attempt. Records are written once
// and never modified or deleted.
type Record struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"studentId"`
	ExerciseID       string    `json:"exerciseId"`
	ConceptID        string    `json:"conceptId"`
	Answer           Answer    `json:"answer"`
	IsCorrect        bool      `json:"isCorrect"`
	Score            int       `json:"score"`
	TimeTakenSeconds *int      `json:"timeTakenSeconds,omitempty"`
	HintsUsed        int       `json:"hintsUsed"`
	RetriesCount     int       `json:"retriesCount"`
	Mode             Mode      `json:"mode"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TimeTaken returns the recorded duration in seconds, or
// DefaultTimeTakenSecs when none was recorded.
func (r Record) TimeTaken() int {
	if r.TimeTakenSeconds == nil {
		return DefaultTimeTakenSecs
	}
	return *r.TimeTakenSeconds
}

// Submission is an attempt as reported by the exercise-submission
// collaborator, before the ledger assigns it an id and timestamp.
type Submission struct {
	StudentID        string   `json:"studentId"`
	ExerciseID       string   `json:"exerciseId"`
	ConceptID        string   `json:"conceptId"`
	Answer           Answer   `json:"answer"`
	IsCorrect        bool     `json:"isCorrect"`
	Score            int      `json:"score"`
	TimeTakenSeconds *int     `json:"timeTakenSeconds,omitempty"`
	HintsUsed        int      `json:"hintsUsed"`
	RetriesCount     int      `json:"retriesCount"`
	Mode             Mode     `json:"mode,omitempty"`
	SkillTags        []string `json:"skillTags,omitempty"`
}

// ErrInvalid is wrapped by every submission validation failure.
var ErrInvalid = errors.New("invalid attempt")

// Validate checks the submission's field constraints.
func (s Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.StudentID) == "":
		return fmt.Errorf("%w: studentId is required", ErrInvalid)
	case strings.TrimSpace(s.ExerciseID) == "":
		return fmt.Errorf("%w: exerciseId is required", ErrInvalid)
	case strings.TrimSpace(s.ConceptID) == "":
		return fmt.Errorf("%w: conceptId is required", ErrInvalid)
	case s.Score < 0 || s.Score > 100:
		return fmt.Errorf("%w: score %d outside 0-100", ErrInvalid, s.Score)
	case s.TimeTakenSeconds != nil && *s.TimeTakenSeconds < 0:
		return fmt.Errorf("%w: timeTakenSeconds must be non-negative", ErrInvalid)
	case s.HintsUsed < 0:
		return fmt.Errorf("%w: hintsUsed must be non-negative", ErrInvalid)
	case s.RetriesCount < 0:
		return fmt.Errorf("%w: retriesCount must be non-negative", ErrInvalid)
	case s.Mode != "" && !s.Mode.Valid():
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, s.Mode)
	}
	return nil
}

// NewRecord validates s and stamps it with a fresh time-ordered id and the
// creation time now (truncated to the second, the ledger's precision).
func NewRecord(s Submission, now time.Time) (Record, error) {
	if err := s.Validate(); err != nil {
		return Record{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("generate attempt id: %w", err)
	}
	mode := s.Mode
	if mode == "" {
		mode = ModeLearning
	}
	return Record{
		ID:               id.String(),
		StudentID:        s.StudentID,
		ExerciseID:       s.ExerciseID,
		ConceptID:        s.ConceptID,
		Answer:           s.Answer,
		IsCorrect:        s.IsCorrect,
		Score:            s.Score,
		TimeTakenSeconds: s.TimeTakenSeconds,
		HintsUsed:        s.HintsUsed,
		RetriesCount:     s.RetriesCount,
		Mode:             mode,
		CreatedAt:        now.UTC().Truncate(time.Second),
	}, nil
}

// Ledger is the append-only attempt store.
type Ledger interface {
	// Append durably records r. Records are never updated afterwards.
	Append(ctx context.Context, r Record) error

	// Window returns up to limit attempts by studentID on conceptID,
	// newest first (createdAt, then id).
	Window(ctx context.Context, studentID, conceptID string, limit int) ([]Record, error)

	// History returns up to limit attempts by studentID across all
	// concepts, newest first.
	History(ctx context.Context, studentID string, limit int) ([]Record, error)
}

// Newer reports whether a sorts before b in newest-first ledger order.
func Newer(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Chronological returns a copy of newest-first records in oldest-first order.
func Chronological(newestFirst []Record) []Record {
	out := make([]Record, len(newestFirst))
	for i, r := range newestFirst {
		out[len(newestFirst)-1-i] = r
	}
	return out
}
