package store

import (
	"database/sql"
	"fmt"
)

// Table DDL is plain SQL; queries are rendered by the ent builder.
//
// attempts is append-only. created_at holds unix seconds; ordering by
// (created_at, id) defines the ledger's recency order.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS attempts (
		id                 TEXT PRIMARY KEY,
		student_id         TEXT    NOT NULL,
		exercise_id        TEXT    NOT NULL,
		concept_id         TEXT    NOT NULL,
		answer             TEXT    NOT NULL DEFAULT 'null',
		is_correct         INTEGER NOT NULL,
		score              INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		time_taken_seconds INTEGER CHECK (time_taken_seconds >= 0),
		hints_used         INTEGER NOT NULL DEFAULT 0 CHECK (hints_used >= 0),
		retries_count      INTEGER NOT NULL DEFAULT 0 CHECK (retries_count >= 0),
		mode               TEXT    NOT NULL CHECK (mode IN ('learning', 'exam')),
		created_at         INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_student_concept
		ON attempts (student_id, concept_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS attempts_student_created
		ON attempts (student_id, created_at DESC, id DESC)`,
	// Attempts may never change once written.
	`CREATE TRIGGER IF NOT EXISTS attempts_no_update
		BEFORE UPDATE ON attempts
		BEGIN SELECT RAISE(ABORT, 'attempts are append-only'); END`,
	`CREATE TRIGGER IF NOT EXISTS attempts_no_delete
		BEFORE DELETE ON attempts
		BEGIN SELECT RAISE(ABORT, 'attempts are append-only'); END`,
	`CREATE TABLE IF NOT EXISTS profiles (
		student_id         TEXT PRIMARY KEY,
		skills             TEXT    NOT NULL DEFAULT '{}',
		overall_mastery    REAL    NOT NULL DEFAULT 0 CHECK (overall_mastery BETWEEN 0 AND 1),
		current_difficulty INTEGER NOT NULL DEFAULT 3 CHECK (current_difficulty BETWEEN 1 AND 5),
		version            INTEGER NOT NULL DEFAULT 1,
		updated_at         INTEGER NOT NULL
	)`,
}

// migrate creates any missing tables, indexes and triggers.
func migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
