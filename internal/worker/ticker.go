package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ticker runs fn immediately and then on every interval until stopped.
// Stop waits for an in-flight run to return.
type ticker struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func (t *ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isRunning {
		return fmt.Errorf("%s is already running", t.name)
	}
	if t.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %s", t.name, t.interval)
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	t.isRunning = true

	go t.loop(ctx, t.done)

	t.logger.Info("Worker loop started",
		zap.String("name", t.name),
		zap.Duration("interval", t.interval))
	return nil
}

func (t *ticker) Stop() {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return
	}
	t.isRunning = false
	t.cancel()
	done := t.done
	t.mu.Unlock()

	<-done
}

func (t *ticker) Name() string {
	return t.name
}

func (t *ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	t.fn(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("Worker loop context cancelled", zap.String("name", t.name))
			return
		case <-tk.C:
			t.fn(ctx)
		}
	}
}
