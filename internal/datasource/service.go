package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/datasource-admin/internal/models"
	"github.com/nikhilbhutani/datasource-admin/internal/pagination"
)

// Dispatcher hands an import job to the background queue. It returns once
// the job is accepted; completion is never reported back.
type Dispatcher interface {
	EnqueueImportDocuments(ctx context.Context, dataSourceID int64) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

type Service struct {
	store      Store
	dispatcher Dispatcher
	cache      Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewService wires the data source operations. cache may be nil, and a
// zero cacheTTL disables overview caching.
func NewService(store Store, dispatcher Dispatcher, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// Create validates and persists a data source owned by userID, then
// dispatches its import job. The row is committed before dispatch; if
// dispatch fails the error is returned and the outbox relay retries later.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.DataSource, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ds, err := s.store.Create(ctx, CreateParams{
		Name:           req.Name,
		Description:    req.Description,
		DataSourceType: req.DataSourceType,
		Config:         req.Config,
		BuildKGIndex:   req.BuildKGIndex,
		UserID:         userID,
	})
	if err != nil {
		return nil, fmt.Errorf("create data source: %w", err)
	}

	if err := s.dispatcher.EnqueueImportDocuments(ctx, ds.ID); err != nil {
		return nil, fmt.Errorf("dispatch import for data source %d: %w", ds.ID, err)
	}

	if err := s.store.MarkImportDispatched(ctx, []int64{ds.ID}); err != nil {
		slog.Warn("failed to mark import dispatched", "data_source_id", ds.ID, "error", err)
	}

	slog.Info("data source created", "data_source_id", ds.ID, "type", ds.DataSourceType, "user_id", userID)
	return ds, nil
}

func (s *Service) List(ctx context.Context, p pagination.Params) (pagination.Page[models.DataSource], error) {
	items, total, err := s.store.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[models.DataSource]{}, fmt.Errorf("list data sources: %w", err)
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.DataSource, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Overview(ctx context.Context, id int64) (*Overview, error) {
	key := overviewCacheKey(id)

	if s.cachingEnabled() {
		var cached Overview
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return newOverview(cached.Documents.Total, cached.Chunks.Total, cached.VectorIndex, cached.KGIndex), nil
		}
	}

	ov, err := s.store.Overview(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		if err := s.cache.Set(ctx, key, ov, s.cacheTTL); err != nil {
			slog.Warn("failed to cache overview", "data_source_id", id, "error", err)
		}
	}
	return ov, nil
}

func (s *Service) cachingEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func overviewCacheKey(id int64) string {
	return fmt.Sprintf("datasource:%d:overview", id)
}

type RelayResult struct {
	Dispatched int
	Failed     int
}

// RelayPendingImports re-dispatches imports whose outbox entry is older than
// grace and still undispatched. A failed dispatch leaves the entry for the
// next run.
func (s *Service) RelayPendingImports(ctx context.Context, grace time.Duration, limit int) (RelayResult, error) {
	var res RelayResult

	ids, err := s.store.PendingImports(ctx, s.now().Add(-grace), limit)
	if err != nil {
		return res, fmt.Errorf("load pending imports: %w", err)
	}

	var dispatched []int64
	var errs []error
	for _, id := range ids {
		if err := s.dispatcher.EnqueueImportDocuments(ctx, id); err != nil {
			slog.Error("relay import dispatch failed", "data_source_id", id, "error", err)
			errs = append(errs, err)
			res.Failed++
			continue
		}
		dispatched = append(dispatched, id)
	}

	if err := s.store.MarkImportDispatched(ctx, dispatched); err != nil {
		return res, fmt.Errorf("mark relayed imports: %w", err)
	}
	res.Dispatched = len(dispatched)

	if len(dispatched) == 0 && len(errs) > 0 {
		return res, fmt.Errorf("relay imports: %w", errors.Join(errs...))
	}
	return res, nil
}
