package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/abhisek/skillscope/internal/difficulty"
	"github.com/abhisek/skillscope/internal/mastery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func rec(id, student, concept string, offset time.Duration, correct bool) attempt.Record {
	return attempt.Record{
		ID:         id,
		StudentID:  student,
		ExerciseID: "ex-" + id,
		ConceptID:  concept,
		Answer:     attempt.Answer{Text: "42"},
		IsCorrect:  correct,
		Score:      100,
		Mode:       attempt.ModeLearning,
		CreatedAt:  base.Add(offset),
	}
}

func ids(recs []attempt.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	require.NotNil(t, s.DB())
	require.NoError(t, s.DB().Ping())
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked in TestOpenFileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "skillscope.db")
	require.NoError(t, EnsureDir(path))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestDefaultDBPath_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "x", "db.sqlite")
	t.Setenv("SKILLSCOPE_DB", want)

	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.DirExists(t, filepath.Dir(want))
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("SKILLSCOPE_DB", "")
	t.Setenv("XDG_DATA_HOME", dataHome)

	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "skillscope", "skillscope.db"), got)
}

func TestAttempts_AppendAndWindow(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	secs := 75
	first := rec("a1", "stu", "c1", 0, true)
	first.TimeTakenSeconds = &secs
	first.Answer = attempt.Answer{Steps: []string{"x=1", "y=2"}}
	first.HintsUsed = 2
	first.RetriesCount = 1
	first.Mode = attempt.ModeExam

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, rec("a2", "stu", "c1", time.Minute, false)))
	require.NoError(t, repo.Append(ctx, rec("a3", "stu", "c2", 2*time.Minute, true)))
	require.NoError(t, repo.Append(ctx, rec("a4", "other", "c1", 3*time.Minute, true)))

	got, err := repo.Window(ctx, "stu", "c1", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, ids(got))

	r := got[1]
	assert.Equal(t, "stu", r.StudentID)
	assert.Equal(t, "ex-a1", r.ExerciseID)
	assert.Equal(t, []string{"x=1", "y=2"}, r.Answer.Steps)
	assert.True(t, r.IsCorrect)
	require.NotNil(t, r.TimeTakenSeconds)
	assert.Equal(t, 75, *r.TimeTakenSeconds)
	assert.Equal(t, 2, r.HintsUsed)
	assert.Equal(t, 1, r.RetriesCount)
	assert.Equal(t, attempt.ModeExam, r.Mode)
	assert.Equal(t, base, r.CreatedAt)

	assert.Nil(t, got[0].TimeTakenSeconds)
	assert.False(t, got[0].IsCorrect)
}

func TestAttempts_WindowOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	// Same-second ties fall back to id order.
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.Append(ctx, rec(id, "stu", "c1", 0, true)))
	}
	require.NoError(t, repo.Append(ctx, rec("0-late", "stu", "c1", time.Hour, true)))

	got, err := repo.Window(ctx, "stu", "c1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"0-late", "c", "b"}, ids(got))

	got, err = repo.Window(ctx, "stu", "c1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.Window(ctx, "stu", "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttempts_History(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		concept := fmt.Sprintf("c%d", i%2)
		require.NoError(t, repo.Append(ctx, rec(fmt.Sprintf("a%d", i), "stu", concept, time.Duration(i)*time.Minute, true)))
	}

	got, err := repo.History(ctx, "stu", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a4", "a3", "a2"}, ids(got))
}

func TestAttempts_AppendOnly(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, rec("a1", "stu", "c1", 0, true)))
	assert.Error(t, repo.Append(ctx, rec("a1", "stu", "c1", time.Minute, false)), "duplicate id")

	_, err := s.DB().Exec(`UPDATE attempts SET is_correct = 0 WHERE id = 'a1'`)
	assert.Error(t, err)
	_, err = s.DB().Exec(`DELETE FROM attempts WHERE id = 'a1'`)
	assert.Error(t, err)

	got, err := repo.Window(ctx, "stu", "c1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsCorrect)
}

func TestProfiles_GetMissing(t *testing.T) {
	s := openTestStore(t)
	p, err := s.Profiles().Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProfiles_GetOrCreateDefaults(t *testing.T) {
	s := openTestStore(t)
	repo := s.Profiles()
	ctx := context.Background()

	p, err := repo.GetOrCreate(ctx, "stu")
	require.NoError(t, err)
	assert.Equal(t, "stu", p.StudentID)
	assert.Empty(t, p.Skills)
	assert.Equal(t, 0.0, p.OverallMastery)
	assert.Equal(t, difficulty.Default, p.CurrentDifficulty)
	assert.Equal(t, int64(1), p.Version)

	again, err := repo.GetOrCreate(ctx, "stu")
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Version, "existing profile is not reset")
}

func TestProfiles_SaveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.Profiles()
	repo.now = func() time.Time { return base }
	ctx := context.Background()

	p, err := repo.GetOrCreate(ctx, "stu")
	require.NoError(t, err)

	p.Apply([]mastery.SkillTag{"fractions", "decimals"}, mastery.Observation{
		ConceptID: "c1", Theta: 1.5, Window: []string{"a9"}, At: base,
	})
	require.NoError(t, repo.Save(ctx, p))
	assert.Equal(t, int64(2), p.Version)

	got, err := repo.Get(ctx, "stu")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, p.Skills, got.Skills)
	assert.Equal(t, p.ConceptCursors, got.ConceptCursors)
	assert.InDelta(t, p.OverallMastery, got.OverallMastery, 1e-9)
	assert.Equal(t, difficulty.Level(4), got.CurrentDifficulty)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, base, got.UpdatedAt)
	assert.Equal(t, mastery.TrendImproving, got.Skills["fractions"].Trend)
}

func TestProfiles_SaveStaleVersion(t *testing.T) {
	s := openTestStore(t)
	repo := s.Profiles()
	ctx := context.Background()

	a, err := repo.GetOrCreate(ctx, "stu")
	require.NoError(t, err)
	b, err := repo.GetOrCreate(ctx, "stu")
	require.NoError(t, err)

	a.Merge("x", mastery.Observation{Theta: 1, Window: []string{"1"}, At: base})
	a.Recompute()
	require.NoError(t, repo.Save(ctx, a))

	b.Merge("y", mastery.Observation{Theta: 1, Window: []string{"1"}, At: base})
	b.Recompute()
	err = repo.Save(ctx, b)
	require.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(1), b.Version, "failed save leaves version untouched")

	got, err := repo.Get(ctx, "stu")
	require.NoError(t, err)
	assert.Contains(t, got.Skills, mastery.SkillTag("x"))
	assert.NotContains(t, got.Skills, mastery.SkillTag("y"))
}

func TestProfiles_SaveMissingRow(t *testing.T) {
	s := openTestStore(t)
	err := s.Profiles().Save(context.Background(), mastery.NewProfile("ghost"))
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestProfiles_ConcurrentGetOrCreate(t *testing.T) {
	s := openTestStore(t)
	repo := s.Profiles()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetOrCreate(ctx, "stu")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&n))
	assert.Equal(t, 1, n)
}
