package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillscope/internal/attempt"
)

const attemptsTable = "attempts"

var attemptColumns = []string{
	"id", "student_id", "exercise_id", "concept_id", "answer", "is_correct",
	"score", "time_taken_seconds", "hints_used", "retries_count", "mode", "created_at",
}

// AttemptRepo is the SQLite attempt ledger. It only ever inserts.
type AttemptRepo struct {
	db *sql.DB
}

// Append inserts r. A record with an existing id is rejected.
func (r *AttemptRepo) Append(ctx context.Context, rec attempt.Record) error {
	answer, err := json.Marshal(rec.Answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	var timeTaken any
	if rec.TimeTakenSeconds != nil {
		timeTaken = *rec.TimeTakenSeconds
	}

	query, args := builder.Insert(attemptsTable).
		Columns(attemptColumns...).
		Values(
			rec.ID, rec.StudentID, rec.ExerciseID, rec.ConceptID, string(answer), rec.IsCorrect,
			rec.Score, timeTaken, rec.HintsUsed, rec.RetriesCount, string(rec.Mode), rec.CreatedAt.Unix(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Window returns up to limit attempts by studentID on conceptID, newest first.
func (r *AttemptRepo) Window(ctx context.Context, studentID, conceptID string, limit int) ([]attempt.Record, error) {
	return r.query(ctx, limit, entsql.And(
		entsql.EQ("student_id", studentID),
		entsql.EQ("concept_id", conceptID),
	))
}

// History returns up to limit attempts by studentID on any concept, newest first.
func (r *AttemptRepo) History(ctx context.Context, studentID string, limit int) ([]attempt.Record, error) {
	return r.query(ctx, limit, entsql.EQ("student_id", studentID))
}

func (r *AttemptRepo) query(ctx context.Context, limit int, where *entsql.Predicate) ([]attempt.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	query, args := builder.Select(attemptColumns...).
		From(builder.Table(attemptsTable)).
		Where(where).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []attempt.Record
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

func scanAttempt(rows *sql.Rows) (attempt.Record, error) {
	var (
		rec       attempt.Record
		answer    string
		timeTaken sql.NullInt64
		mode      string
		createdAt int64
	)
	err := rows.Scan(
		&rec.ID, &rec.StudentID, &rec.ExerciseID, &rec.ConceptID, &answer, &rec.IsCorrect,
		&rec.Score, &timeTaken, &rec.HintsUsed, &rec.RetriesCount, &mode, &createdAt,
	)
	if err != nil {
		return attempt.Record{}, fmt.Errorf("scan attempt: %w", err)
	}
	if err := json.Unmarshal([]byte(answer), &rec.Answer); err != nil {
		return attempt.Record{}, fmt.Errorf("unmarshal answer of %s: %w", rec.ID, err)
	}
	if timeTaken.Valid {
		secs := int(timeTaken.Int64)
		rec.TimeTakenSeconds = &secs
	}
	rec.Mode = attempt.Mode(mode)
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rec, nil
}
