package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// mockBackend implements port.PortalBackend
type mockBackend struct {
	milestones []entity.Record
	invoices   []entity.Record
	expenses   []entity.Record
	disputes   []entity.Record
	agreements map[string]entity.Record

	listErr        error
	listHomeowners func(ctx context.Context) ([]entity.Record, error)
	homeownerCalls int32
	milestoneCalls int32
}

func (m *mockBackend) ListMilestones(ctx context.Context) ([]entity.Record, error) {
	atomic.AddInt32(&m.milestoneCalls, 1)
	return m.milestones, m.listErr
}

func (m *mockBackend) ListInvoices(ctx context.Context) ([]entity.Record, error) {
	return m.invoices, nil
}

func (m *mockBackend) ListExpenses(ctx context.Context) ([]entity.Record, error) {
	return m.expenses, nil
}

func (m *mockBackend) ListDisputes(ctx context.Context) ([]entity.Record, error) {
	return m.disputes, nil
}

func (m *mockBackend) ListHomeowners(ctx context.Context) ([]entity.Record, error) {
	atomic.AddInt32(&m.homeownerCalls, 1)
	if m.listHomeowners != nil {
		return m.listHomeowners(ctx)
	}
	return []entity.Record{{"name": "Dana"}}, nil
}

func (m *mockBackend) GetAgreement(ctx context.Context, id string) (entity.Record, error) {
	if rec, ok := m.agreements[id]; ok {
		return rec, nil
	}
	return nil, port.ErrNotFound
}

// mockCache implements port.ReferenceCache with manual freshness control
type mockCache struct {
	mu       sync.Mutex
	values   map[string][]entity.Record
	stale    map[string]bool
	setErr   error
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{values: map[string][]entity.Record{}, stale: map[string]bool{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]entity.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	return v, !m.stale[key]
}

func (m *mockCache) Set(ctx context.Context, key string, value []entity.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	m.stale[key] = false
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// mockPublisher records published events
type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) Publish(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockPublisher) PublishAsync(ctx context.Context, evt *event.Event) {
	_ = m.Publish(ctx, evt)
}

func (m *mockPublisher) Types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// mockReportRepo implements port.ReportRepository in memory
type mockReportRepo struct {
	reports   []*entity.ReportSnapshot
	createErr error
	deleted   int
}

func (m *mockReportRepo) Create(ctx context.Context, report *entity.ReportSnapshot) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.reports = append(m.reports, report)
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockReportRepo) List(ctx context.Context, limit, offset int) ([]*entity.ReportSnapshot, error) {
	return m.reports, nil
}

func (m *mockReportRepo) DeleteOlderThan(ctx context.Context, keep int) (int64, error) {
	if len(m.reports) <= keep {
		return 0, nil
	}
	n := len(m.reports) - keep
	m.reports = m.reports[n:]
	m.deleted += n
	return int64(n), nil
}

// mockTxManager runs fn directly and records rollbacks
type mockTxManager struct {
	rollbacks int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		m.rollbacks++
		return err
	}
	return nil
}

var errBackendDown = errors.New("backend down")
