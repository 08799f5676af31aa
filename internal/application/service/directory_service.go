package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// HomeownersKey is the cache key of the homeowner directory
const HomeownersKey = "homeowners"

// directoryLoadTimeout bounds a shared refresh, which outlives the caller
// that started it
const directoryLoadTimeout = 30 * time.Second

// ErrUnknownReference is returned for a reference list the service does not serve
var ErrUnknownReference = errors.New("unknown reference list")

// DirectoryService serves reference lists through the cache. Concurrent
// misses share one backend request, and a failed refresh falls back to the
// last cached value when there is one.
type DirectoryService interface {
	Homeowners(ctx context.Context) ([]entity.Record, error)
	Get(ctx context.Context, key string) ([]entity.Record, error)
	Invalidate(ctx context.Context, key string) error
	HandleInvalidated(ctx context.Context, evt *event.Event) error
}

type loader func(ctx context.Context) ([]entity.Record, error)

type directoryServiceImpl struct {
	cache   port.ReferenceCache
	loaders map[string]loader
	group   singleflight.Group
	events  port.EventPublisher
	logger  Logger
}

// NewDirectoryService creates a DirectoryService. events may be nil.
func NewDirectoryService(
	backend port.PortalBackend,
	cache port.ReferenceCache,
	events port.EventPublisher,
	logger Logger,
) DirectoryService {
	return &directoryServiceImpl{
		cache: cache,
		loaders: map[string]loader{
			HomeownersKey: backend.ListHomeowners,
		},
		events: events,
		logger: loggerOrNop(logger),
	}
}

// Homeowners returns the homeowner directory
func (s *directoryServiceImpl) Homeowners(ctx context.Context) ([]entity.Record, error) {
	return s.Get(ctx, HomeownersKey)
}

// Get returns a reference list, refreshing it when missing or stale
func (s *directoryServiceImpl) Get(ctx context.Context, key string) ([]entity.Record, error) {
	load, ok := s.loaders[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, key)
	}

	cached, fresh := s.cache.Get(ctx, key)
	if cached != nil && fresh {
		return cached, nil
	}

	flight := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directoryLoadTimeout)
		defer cancel()

		records, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []entity.Record{}
		}
		if err := s.cache.Set(loadCtx, key, records); err != nil {
			s.logger.Error("Failed to cache reference list", "key", key, "error", err)
		}
		return records, nil
	})

	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	value, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		if cached != nil {
			s.logger.Error("Reference refresh failed, serving stale list",
				"key", key,
				"records", len(cached),
				"error", err)
			s.publish(ctx, event.NewEvent(event.TypeReferenceRefreshFailed, key, map[string]interface{}{
				"error": err.Error(),
				"stale": true,
			}))
			return cached, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	records := value.([]entity.Record)
	if shared {
		records = append([]entity.Record(nil), records...)
	}
	s.logger.Info("Reference list refreshed", "key", key, "records", len(records), "shared", shared)
	return records, nil
}

// Invalidate drops a cached list and announces it so subscribers can re-warm
func (s *directoryServiceImpl) Invalidate(ctx context.Context, key string) error {
	if _, ok := s.loaders[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReference, key)
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	s.group.Forget(key)
	s.logger.Info("Reference list invalidated", "key", key)
	s.publish(ctx, event.NewEvent(event.TypeReferenceInvalidated, key, nil))
	return nil
}

// HandleInvalidated re-warms the list named by a reference.invalidated event
func (s *directoryServiceImpl) HandleInvalidated(ctx context.Context, evt *event.Event) error {
	if evt.Type != event.TypeReferenceInvalidated {
		return nil
	}
	_, err := s.Get(ctx, evt.Subject)
	return err
}

func (s *directoryServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.events != nil {
		s.events.PublishAsync(ctx, evt)
	}
}
