package poll

import (
	"context"
	"sync"
	"time"

	"github.com/sujalbistaa/clubpulse/internal/models"
	"github.com/sujalbistaa/clubpulse/internal/store"
)

// memStore is an in-memory PollStore with the same compare-and-swap update
// semantics as the real one, so the voting protocol's retry loop can be
// exercised without a database.
type memStore struct {
	mu    sync.Mutex
	polls map[string]*models.Poll
}

func newMemStore() *memStore {
	return &memStore{polls: make(map[string]*models.Poll)}
}

func clonePoll(p *models.Poll) *models.Poll {
	cp := *p
	cp.Options = append([]models.Option(nil), p.Options...)
	cp.Votes = append([]models.Vote(nil), p.Votes...)
	return &cp
}

func (m *memStore) Create(_ context.Context, p *models.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls[p.ID] = clonePoll(p)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePoll(p), nil
}

func (m *memStore) List(_ context.Context, _ store.Filter) ([]models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Poll, 0, len(m.polls))
	for _, p := range m.polls {
		out = append(out, *clonePoll(p))
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, p *models.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.polls[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != p.Version {
		return store.ErrConflict
	}
	cp := clonePoll(p)
	cp.Version++
	m.polls[p.ID] = cp
	p.Version = cp.Version
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.polls[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.polls, id)
	return nil
}

// conflictStore wraps a PollStore and fails the first n Update calls with
// ErrConflict, to drive the cast retry path deterministically.
type conflictStore struct {
	store.PollStore
	mu        sync.Mutex
	conflicts int
}

func (c *conflictStore) Update(ctx context.Context, p *models.Poll) error {
	c.mu.Lock()
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return store.ErrConflict
	}
	c.mu.Unlock()
	return c.PollStore.Update(ctx, p)
}

func newTestService(s store.PollStore, now time.Time) *Service {
	svc := NewService(s)
	svc.now = func() time.Time { return now }
	return svc
}

func seedPoll(s store.PollStore, p *models.Poll) *models.Poll {
	if p.Votes == nil {
		p.Votes = []models.Vote{}
	}
	if err := s.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func officer(id string) models.Identity {
	return models.Identity{ID: id, Role: models.RoleOfficer, Club: "riverside", District: "3292"}
}

func member(id string) models.Identity {
	return models.Identity{ID: id, Role: models.RoleMember, Club: "riverside", District: "3292"}
}
