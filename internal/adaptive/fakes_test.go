package adaptive

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/abhisek/skillscope/internal/mastery"
	"github.com/abhisek/skillscope/internal/store"
)

// hookLedger wraps a ledger to inject failures or pauses into Window.
type hookLedger struct {
	attempt.Ledger
	windowErr error
	onWindow  func(studentID string)
}

func (h *hookLedger) Window(ctx context.Context, studentID, conceptID string, limit int) ([]attempt.Record, error) {
	if h.onWindow != nil {
		h.onWindow(studentID)
	}
	if h.windowErr != nil {
		return nil, h.windowErr
	}
	return h.Ledger.Window(ctx, studentID, conceptID, limit)
}

// conflictingProfiles fails the first `failures` saves with a version
// conflict, or every save with saveErr.
type conflictingProfiles struct {
	*store.ProfileRepo
	failures int32
	saveErr  error
	saves    atomic.Int32
}

func (c *conflictingProfiles) Save(ctx context.Context, p *mastery.Profile) error {
	n := c.saves.Add(1)
	if c.saveErr != nil {
		return c.saveErr
	}
	if n <= c.failures {
		return store.ErrVersionConflict
	}
	return c.ProfileRepo.Save(ctx, p)
}

type countingProfiles struct {
	*store.ProfileRepo
	loads atomic.Int32
}

func (c *countingProfiles) GetOrCreate(ctx context.Context, studentID string) (*mastery.Profile, error) {
	c.loads.Add(1)
	return c.ProfileRepo.GetOrCreate(ctx, studentID)
}

// pausingProfiles blocks the first GetOrCreate after it has read the
// profile, until resume is closed.
type pausingProfiles struct {
	*store.ProfileRepo
	loaded chan struct{}
	resume chan struct{}
	once   sync.Once
}

func (p *pausingProfiles) GetOrCreate(ctx context.Context, studentID string) (*mastery.Profile, error) {
	prof, err := p.ProfileRepo.GetOrCreate(ctx, studentID)
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.loaded)
		<-p.resume
	}
	return prof, err
}

type fakeDirectory struct {
	students map[string]bool
	concepts map[string]bool
	err      error
}

func (d *fakeDirectory) StudentExists(_ context.Context, id string) (bool, error) {
	return d.students[id], d.err
}

func (d *fakeDirectory) ConceptExists(_ context.Context, id string) (bool, error) {
	return d.concepts[id], d.err
}

// memCache is an in-process ProfileCache.
type memCache struct {
	mu       sync.Mutex
	profiles map[string]*mastery.Profile
	err      error
}

func newMemCache() *memCache {
	return &memCache{profiles: make(map[string]*mastery.Profile)}
}

func (m *memCache) Get(_ context.Context, studentID string) (*mastery.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	p, ok := m.profiles[studentID]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *memCache) Set(_ context.Context, p *mastery.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.profiles[p.StudentID] = p.Clone()
	return nil
}

func (m *memCache) Invalidate(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, studentID)
	return m.err
}

func (m *memCache) Close() error { return nil }
