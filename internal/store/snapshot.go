package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillscope/internal/difficulty"
	"github.com/abhisek/skillscope/internal/mastery"
)

const profilesTable = "profiles"

var profileColumns = []string{
	"student_id", "skills", "overall_mastery", "current_difficulty", "version", "updated_at",
}

// ProfileRepo persists one SkillProfile row per student. Writes are
// guarded by the row's version number.
type ProfileRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *ProfileRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Get returns the stored profile for studentID, or nil if none exists.
func (r *ProfileRepo) Get(ctx context.Context, studentID string) (*mastery.Profile, error) {
	query, args := builder.Select(profileColumns...).
		From(builder.Table(profilesTable)).
		Where(entsql.EQ("student_id", studentID)).
		Query()

	var (
		p         = mastery.NewProfile(studentID)
		skills    string
		level     int
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&p.StudentID, &skills, &p.OverallMastery, &level, &p.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	p.CurrentDifficulty = difficulty.Level(level)
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if err := mastery.DecodeSkills(p, []byte(skills)); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", studentID, err)
	}
	return p, nil
}

// GetOrCreate returns the stored profile for studentID, first inserting
// the default profile if the student has none.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, studentID string) (*mastery.Profile, error) {
	p := mastery.NewProfile(studentID)
	skills, err := mastery.EncodeSkills(p)
	if err != nil {
		return nil, err
	}

	query, args := builder.Insert(profilesTable).
		Columns(profileColumns...).
		Values(studentID, string(skills), p.OverallMastery, int(p.CurrentDifficulty), 1, r.clock().Unix()).
		OnConflict(entsql.ConflictColumns("student_id"), entsql.DoNothing()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert default profile: %w", err)
	}

	stored, err := r.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("profile %s missing after insert", studentID)
	}
	return stored, nil
}

// Save writes p if the stored version still equals p.Version, then bumps
// p.Version. A stale p yields ErrVersionConflict and nothing is written.
func (r *ProfileRepo) Save(ctx context.Context, p *mastery.Profile) error {
	skills, err := mastery.EncodeSkills(p)
	if err != nil {
		return err
	}

	now := r.clock().UTC().Truncate(time.Second)
	query, args := builder.Update(profilesTable).
		Set("skills", string(skills)).
		Set("overall_mastery", p.OverallMastery).
		Set("current_difficulty", int(p.CurrentDifficulty)).
		Set("version", p.Version+1).
		Set("updated_at", now.Unix()).
		Where(entsql.And(
			entsql.EQ("student_id", p.StudentID),
			entsql.EQ("version", p.Version),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save profile %s at version %d: %w", p.StudentID, p.Version, ErrVersionConflict)
	}

	p.Version++
	p.UpdatedAt = now
	return nil
}
