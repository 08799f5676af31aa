package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/escrow-portal/internal/application/service"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

type recordingWorker struct {
	name     string
	startErr error
	log      *[]string
	mu       *sync.Mutex
}

func (w *recordingWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.startErr != nil {
		return w.startErr
	}
	*w.log = append(*w.log, "start "+w.name)
	return nil
}

func (w *recordingWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	*w.log = append(*w.log, "stop "+w.name)
}

func (w *recordingWorker) Name() string { return w.name }

func TestManager_StartStopOrder(t *testing.T) {
	var log []string
	var mu sync.Mutex
	m := NewManager(nil)
	m.Register(&recordingWorker{name: "a", log: &log, mu: &mu})
	m.Register(&recordingWorker{name: "b", log: &log, mu: &mu})

	require.NoError(t, m.StartAll(context.Background()))
	m.StopAll()
	m.StopAll()

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
	assert.Equal(t, 2, m.Count())
}

func TestManager_StartFailureStopsStarted(t *testing.T) {
	var log []string
	var mu sync.Mutex
	boom := errors.New("boom")
	m := NewManager(nil)
	m.Register(&recordingWorker{name: "a", log: &log, mu: &mu})
	m.Register(&recordingWorker{name: "b", startErr: boom, log: &log, mu: &mu})

	assert.ErrorIs(t, m.StartAll(context.Background()), boom)
	assert.Equal(t, []string{"start a", "stop a"}, log)
}

type stubReconciler struct {
	service.ReconciliationService
	calls atomic.Int32
	err   error
}

func (s *stubReconciler) Snapshot(ctx context.Context, opts service.ViewOptions) (*service.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &service.Snapshot{Options: opts}, nil
}

type stubReports struct {
	service.ReportService
	mu       sync.Mutex
	recorded []*service.Snapshot
}

func (s *stubReports) Record(ctx context.Context, snap *service.Snapshot) (*entity.ReportSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, snap)
	return &entity.ReportSnapshot{ID: "r1"}, nil
}

func (s *stubReports) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

func TestReportRecorder_RunsImmediatelyAndOnInterval(t *testing.T) {
	rec := &stubReconciler{}
	reports := &stubReports{}
	r := NewReportRecorder(rec, reports, service.ViewOptions{IncludeArchived: true}, 10*time.Millisecond, time.Second, nil)

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()), "second start is rejected")

	assert.Eventually(t, func() bool { return reports.count() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()

	after := reports.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, reports.count(), "no runs after Stop returns")
	assert.True(t, reports.recorded[0].Options.IncludeArchived)
	assert.Equal(t, "ReportRecorder", r.Name())
}

func TestReportRecorder_SnapshotFailureSkipsRecord(t *testing.T) {
	rec := &stubReconciler{err: errors.New("backend down")}
	reports := &stubReports{}
	r := NewReportRecorder(rec, reports, service.ViewOptions{}, time.Hour, 0, nil)

	r.RunOnce(context.Background())
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Zero(t, reports.count())
}

func TestReportRecorder_RejectsNonPositiveInterval(t *testing.T) {
	r := NewReportRecorder(&stubReconciler{}, &stubReports{}, service.ViewOptions{}, 0, 0, nil)
	assert.Error(t, r.Start(context.Background()))
}

type countingSweeper struct{ n atomic.Int32 }

func (s *countingSweeper) CleanExpired() int {
	s.n.Add(1)
	return 1
}

func TestCacheJanitor(t *testing.T) {
	s := &countingSweeper{}
	j := NewCacheJanitor(s, 5*time.Millisecond, nil)

	require.NoError(t, j.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.n.Load() >= 2 }, time.Second, time.Millisecond)
	j.Stop()
	assert.Equal(t, "CacheJanitor", j.Name())
}
