// Package adaptive runs the skill-profile update pipeline: it re-derives
// an ability estimate from the attempt ledger, folds it into the
// student's profile and steps the recommended difficulty, one student at
// a time.
package adaptive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/skillscope/internal/ability"
	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/abhisek/skillscope/internal/cache"
	"github.com/abhisek/skillscope/internal/mastery"
	"github.com/abhisek/skillscope/internal/store"
)

const (
	// FetchWindow is how many recent attempts the pipeline reads per
	// update; the estimator keeps the newest ability.Window of them.
	FetchWindow = 20

	// DefaultHistoryLimit caps History when no limit is given.
	DefaultHistoryLimit = 50
)

// ProfileStore is the durable profile record. Save must reject a profile
// whose Version is stale with store.ErrVersionConflict.
type ProfileStore interface {
	GetOrCreate(ctx context.Context, studentID string) (*mastery.Profile, error)
	Save(ctx context.Context, p *mastery.Profile) error
}

// Directory answers whether students and concepts exist. It is owned by
// the surrounding system; without one every id is accepted.
type Directory interface {
	StudentExists(ctx context.Context, studentID string) (bool, error)
	ConceptExists(ctx context.Context, conceptID string) (bool, error)
}

// Options configures a Service.
type Options struct {
	Ledger    attempt.Ledger
	Profiles  ProfileStore
	Cache     cache.ProfileCache // optional
	Directory Directory          // optional
	Logger    *log.Logger        // optional, defaults to stderr
	Retry     *RetryConfig       // optional, defaults to DefaultRetryConfig
	Now       func() time.Time
}

// Service exposes the update pipeline and its read operations.
type Service struct {
	ledger    attempt.Ledger
	profiles  ProfileStore
	cache     cache.ProfileCache
	directory Directory
	log       *log.Logger
	retry     RetryConfig
	now       func() time.Time

	locks *keyedMutex
	loads singleflight.Group
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	s := &Service{
		ledger:    opts.Ledger,
		profiles:  opts.Profiles,
		cache:     opts.Cache,
		directory: opts.Directory,
		log:       opts.Logger,
		retry:     DefaultRetryConfig(),
		now:       opts.Now,
		locks:     newKeyedMutex(),
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.log == nil {
		s.log = log.New(os.Stderr, "skillscope: ", log.LstdFlags)
	}
	if opts.Retry != nil {
		s.retry = *opts.Retry
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// DiscardLogger returns a logger that drops everything, for tests and
// quiet CLI runs.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// ApplyAttempt recomputes studentID's profile after an attempt on
// conceptID has been recorded. Blank skill tags are ignored. The pipeline
// re-reads the ledger, so re-running it for the same ledger state is safe.
func (s *Service) ApplyAttempt(ctx context.Context, studentID, conceptID string, skillTags []string) error {
	if err := requireID("studentId", studentID); err != nil {
		return err
	}
	if err := requireID("conceptId", conceptID); err != nil {
		return err
	}
	if err := s.checkExists(ctx, studentID, conceptID); err != nil {
		return err
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()
	return s.apply(ctx, studentID, conceptID, mastery.NormalizeTags(skillTags))
}

// apply runs the update with conflict retries. The caller holds the
// student's lock.
func (s *Service) apply(ctx context.Context, studentID, conceptID string, tags []mastery.SkillTag) error {
	var lastErr error
	for try := 0; try <= s.retry.MaxRetries; try++ {
		if try > 0 {
			if err := sleep(ctx, s.retry.backoff(try-1)); err != nil {
				return err
			}
		}

		p, err := s.update(ctx, studentID, conceptID, tags)
		if err == nil {
			s.cacheSet(ctx, p)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			s.log.Printf("apply attempt failed: student=%s concept=%s: %v", studentID, conceptID, err)
			return err
		}
		lastErr = err
	}

	s.log.Printf("apply attempt conflicted: student=%s concept=%s retries=%d", studentID, conceptID, s.retry.MaxRetries)
	if err := s.cache.Invalidate(ctx, studentID); err != nil {
		s.log.Printf("cache invalidate failed: student=%s: %v", studentID, err)
	}
	return &ConflictError{StudentID: studentID, Attempts: s.retry.MaxRetries + 1, Err: lastErr}
}

// update runs one read-merge-write pass and returns the saved profile.
func (s *Service) update(ctx context.Context, studentID, conceptID string, tags []mastery.SkillTag) (*mastery.Profile, error) {
	window, err := s.ledger.Window(ctx, studentID, conceptID, FetchWindow)
	if err != nil {
		return nil, &StorageError{Op: "read attempt window", StudentID: studentID, ConceptID: conceptID, Err: err}
	}

	theta := ability.Estimate(attempt.Chronological(window))
	obs := mastery.Observation{ConceptID: conceptID, Theta: theta, At: s.now()}
	for _, rec := range window {
		obs.Window = append(obs.Window, rec.ID)
	}

	p, err := s.profiles.GetOrCreate(ctx, studentID)
	if err != nil {
		return nil, &StorageError{Op: "load profile", StudentID: studentID, ConceptID: conceptID, Err: err}
	}

	applied := p.Apply(tags, obs)

	if err := s.profiles.Save(ctx, p); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		return nil, &StorageError{Op: "save profile", StudentID: studentID, ConceptID: conceptID, Err: err}
	}

	s.log.Printf("profile updated: student=%s concept=%s theta=%.3f mastery=%.3f difficulty=%d new_attempts=%d",
		studentID, conceptID, theta, ability.ToMastery(theta), p.CurrentDifficulty, applied)
	return p, nil
}

// RecordAttempt appends sub to the ledger and then applies it. The
// returned record is durable even when the profile update fails.
//
// The id is minted, appended and applied under the student's lock, so
// ledger order matches apply order and no attempt lands behind the
// profile's cursor.
func (s *Service) RecordAttempt(ctx context.Context, sub attempt.Submission) (attempt.Record, error) {
	if err := sub.Validate(); err != nil {
		return attempt.Record{}, &ValidationError{Field: "attempt", Reason: err.Error(), Err: err}
	}
	if err := s.checkExists(ctx, sub.StudentID, sub.ConceptID); err != nil {
		return attempt.Record{}, err
	}

	unlock := s.locks.Lock(sub.StudentID)
	defer unlock()

	rec, err := attempt.NewRecord(sub, s.now())
	if err != nil {
		return attempt.Record{}, &ValidationError{Field: "attempt", Reason: err.Error(), Err: err}
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		s.log.Printf("append attempt failed: student=%s concept=%s: %v", rec.StudentID, rec.ConceptID, err)
		return attempt.Record{}, &StorageError{Op: "append attempt", StudentID: rec.StudentID, ConceptID: rec.ConceptID, Err: err}
	}
	if err := s.apply(ctx, rec.StudentID, rec.ConceptID, mastery.NormalizeTags(sub.SkillTags)); err != nil {
		return rec, fmt.Errorf("attempt %s recorded, profile not updated: %w", rec.ID, err)
	}
	return rec, nil
}

// GetProfile returns studentID's profile, creating the default profile if
// the student has none. Reads go through the cache when one is set; a
// miss is loaded under the student's update lock.
func (s *Service) GetProfile(ctx context.Context, studentID string) (*mastery.Profile, error) {
	if err := requireID("studentId", studentID); err != nil {
		return nil, err
	}

	if s.directory != nil {
		if err := s.checkStudent(ctx, studentID); err != nil {
			return nil, err
		}
	}

	if p, ok, err := s.cache.Get(ctx, studentID); err != nil {
		s.log.Printf("cache read failed: student=%s: %v", studentID, err)
	} else if ok {
		return p, nil
	}

	v, err, _ := s.loads.Do(studentID, func() (any, error) {
		// Updates write through to the cache under this lock, so a load
		// holding it cannot overwrite a newer profile with an older one.
		unlock := s.locks.Lock(studentID)
		defer unlock()

		p, err := s.profiles.GetOrCreate(ctx, studentID)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, p)
		return p, nil
	})
	if err != nil {
		s.log.Printf("load profile failed: student=%s: %v", studentID, err)
		return nil, &StorageError{Op: "load profile", StudentID: studentID, Err: err}
	}
	return v.(*mastery.Profile).Clone(), nil
}

// AbilityWindow returns up to windowSize of studentID's attempts on
// conceptID, newest first.
func (s *Service) AbilityWindow(ctx context.Context, studentID, conceptID string, windowSize int) ([]attempt.Record, error) {
	if err := requireID("studentId", studentID); err != nil {
		return nil, err
	}
	if err := requireID("conceptId", conceptID); err != nil {
		return nil, err
	}
	if windowSize <= 0 {
		return nil, &ValidationError{Field: "windowSize", Reason: fmt.Sprintf("must be positive, got %d", windowSize)}
	}

	recs, err := s.ledger.Window(ctx, studentID, conceptID, windowSize)
	if err != nil {
		return nil, &StorageError{Op: "read attempt window", StudentID: studentID, ConceptID: conceptID, Err: err}
	}
	return recs, nil
}

// History returns studentID's most recent attempts across all concepts,
// newest first. A non-positive limit uses DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, studentID string, limit int) ([]attempt.Record, error) {
	if err := requireID("studentId", studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	recs, err := s.ledger.History(ctx, studentID, limit)
	if err != nil {
		return nil, &StorageError{Op: "read attempt history", StudentID: studentID, Err: err}
	}
	return recs, nil
}

// Recommendation names the skill a student has the most room to grow in.
type Recommendation struct {
	Skill mastery.SkillTag
	State mastery.SkillState
}

// RecommendSkill returns the student's lowest-mastery skill, or nil when
// the student has not practised anything yet.
func (s *Service) RecommendSkill(ctx context.Context, studentID string) (*Recommendation, error) {
	p, err := s.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	tag, state, ok := p.WeakestSkill()
	if !ok {
		return nil, nil
	}
	return &Recommendation{Skill: tag, State: state}, nil
}

// Close releases the cache connection.
func (s *Service) Close() error {
	return s.cache.Close()
}

func (s *Service) cacheSet(ctx context.Context, p *mastery.Profile) {
	if err := s.cache.Set(ctx, p); err != nil {
		s.log.Printf("cache write failed: student=%s: %v", p.StudentID, err)
	}
}

func (s *Service) checkExists(ctx context.Context, studentID, conceptID string) error {
	if s.directory == nil {
		return nil
	}
	if err := s.checkStudent(ctx, studentID); err != nil {
		return err
	}
	ok, err := s.directory.ConceptExists(ctx, conceptID)
	if err != nil {
		return &StorageError{Op: "look up concept", StudentID: studentID, ConceptID: conceptID, Err: err}
	}
	if !ok {
		return &NotFoundError{Kind: "concept", ID: conceptID}
	}
	return nil
}

func (s *Service) checkStudent(ctx context.Context, studentID string) error {
	ok, err := s.directory.StudentExists(ctx, studentID)
	if err != nil {
		return &StorageError{Op: "look up student", StudentID: studentID, Err: err}
	}
	if !ok {
		return &NotFoundError{Kind: "student", ID: studentID}
	}
	return nil
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
