package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func TestPublish_RunsHandlersInOrder(t *testing.T) {
	d := New()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Subscribe(event.TypeReportRecorded, name, func(ctx context.Context, evt *event.Event) error {
			order = append(order, name)
			return nil
		})
	}

	err := d.Publish(context.Background(), event.NewEvent(event.TypeReportRecorded, "r1", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, []string{"first", "second", "third"}, d.Subscribers(event.TypeReportRecorded))
}

func TestPublish_OnlyMatchingType(t *testing.T) {
	d := New()
	called := false
	d.Subscribe(event.TypeReferenceInvalidated, "warm", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), event.NewEvent(event.TypeReportRecorded, "r1", nil)))
	assert.False(t, called)
}

func TestPublish_JoinsErrorsAndKeepsGoing(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	var reached bool

	d.Subscribe(event.TypeReportRecorded, "fails", func(ctx context.Context, evt *event.Event) error { return boom })
	d.Subscribe(event.TypeReportRecorded, "panics", func(ctx context.Context, evt *event.Event) error { panic("bad") })
	d.Subscribe(event.TypeReportRecorded, "ok", func(ctx context.Context, evt *event.Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), event.NewEvent(event.TypeReportRecorded, "r1", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panic")
	assert.True(t, reached)
}

func TestSubscribe_SameNameReplaces(t *testing.T) {
	d := New()
	var hits []string
	d.Subscribe(event.TypeReportRecorded, "h", func(ctx context.Context, evt *event.Event) error {
		hits = append(hits, "old")
		return nil
	})
	d.Subscribe(event.TypeReportRecorded, "h", func(ctx context.Context, evt *event.Event) error {
		hits = append(hits, "new")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), event.NewEvent(event.TypeReportRecorded, "r", nil)))
	assert.Equal(t, []string{"new"}, hits)
}

func TestPublishAsync_DetachesCancellationAndCloseWaits(t *testing.T) {
	logger := &mockLogger{}
	d := New(WithLogger(logger))

	var done int32
	d.Subscribe(event.TypeReferenceInvalidated, "slow", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(20 * time.Millisecond)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		atomic.AddInt32(&done, 1)
		return nil
	})
	d.Subscribe(event.TypeReferenceInvalidated, "broken", func(ctx context.Context, evt *event.Event) error {
		return fmt.Errorf("refresh failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.PublishAsync(ctx, event.NewEvent(event.TypeReferenceInvalidated, "homeowners", nil))
	cancel()

	require.NoError(t, d.Close())
	assert.Equal(t, int32(1), atomic.LoadInt32(&done))
	assert.Equal(t, 1, logger.ErrorCount())
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := New(WithLogger(logger))
	require.NoError(t, d.Close())

	assert.ErrorIs(t, d.Close(), ErrClosed)
	assert.ErrorIs(t, d.Publish(context.Background(), event.NewEvent(event.TypeReportRecorded, "r", nil)), ErrClosed)

	d.PublishAsync(context.Background(), event.NewEvent(event.TypeReportRecorded, "r", nil))
	assert.Equal(t, 1, logger.ErrorCount())
}
