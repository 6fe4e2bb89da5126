package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/squadplan/internal/model"
)

var errBackend = errors.New("backend down")

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
	fail  bool
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *mockPlanRepo) Create(_ context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errBackend
	}
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *mockPlanRepo) FindByID(_ context.Context, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errBackend
	}
	p, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlanRepo) ListByClient(_ context.Context, clientID string, limit int) ([]model.PlanSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PlanSummary
	for _, p := range m.plans {
		if p.ClientID == clientID {
			out = append(out, p.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockPlanCache struct {
	mu      sync.Mutex
	entries map[string]*model.Plan
	ttls    map[string]time.Duration
	fail    bool
}

func newMockPlanCache() *mockPlanCache {
	return &mockPlanCache{entries: make(map[string]*model.Plan), ttls: make(map[string]time.Duration)}
}

func (m *mockPlanCache) GetPlan(_ context.Context, fp string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errBackend
	}
	p, ok := m.entries[fp]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlanCache) SetPlan(_ context.Context, p *model.Plan, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errBackend
	}
	cp := *p
	m.entries[p.Fingerprint] = &cp
	m.ttls[p.Fingerprint] = ttl
	return nil
}

func (m *mockPlanCache) Invalidate(_ context.Context, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, fp)
	return nil
}

type sentEvent struct {
	clientID string
	typ      string
	data     map[string]any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastToClient(clientID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, _ := data.(map[string]any)
	b.events = append(b.events, sentEvent{clientID: clientID, typ: eventType, data: m})
}

func (b *recordingBroadcaster) count(typ string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.typ == typ {
			n++
		}
	}
	return n
}
