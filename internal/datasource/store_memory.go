package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nikhilbhutani/datasource-admin/internal/models"
)

type outboxEntry struct {
	createdAt    time.Time
	dispatchedAt *time.Time
}

// MemoryStore keeps everything in process memory. It backs local runs
// without Postgres.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	dataSources map[int64]models.DataSource
	documents   []models.Document
	chunks      []models.Chunk
	outbox      map[int64]*outboxEntry
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dataSources: make(map[int64]models.DataSource),
		outbox:      make(map[int64]*outboxEntry),
		now:         time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, p CreateParams) (*models.DataSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	// Postgres keeps microseconds; match it so responses look the same.
	now := s.now().UTC().Truncate(time.Microsecond)
	ds := models.DataSource{
		ID:             s.nextID,
		Name:           p.Name,
		Description:    p.Description,
		DataSourceType: p.DataSourceType,
		Config:         append([]byte(nil), p.Config...),
		BuildKGIndex:   p.BuildKGIndex,
		UserID:         p.UserID,
		CreatedAt:      now,
	}
	s.dataSources[ds.ID] = ds
	s.outbox[ds.ID] = &outboxEntry{createdAt: now}
	return &ds, nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]models.DataSource, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.DataSource, 0, len(s.dataSources))
	for _, ds := range s.dataSources {
		all = append(all, ds)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return nil, total, nil
	}
	end := offset + limit
	if end > total || end < offset {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*models.DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.dataSources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ds, nil
}

func (s *MemoryStore) Overview(ctx context.Context, id int64) (*Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.dataSources[id]
	if !ok {
		return nil, ErrNotFound
	}

	docs := make(map[int64]bool)
	vector := models.StatusCounts{}
	for _, d := range s.documents {
		if d.DataSourceID != id {
			continue
		}
		docs[d.ID] = true
		vector[d.IndexStatus]++
	}

	var chunks int64
	var kg models.StatusCounts
	if ds.BuildKGIndex {
		kg = models.StatusCounts{}
	}
	for _, c := range s.chunks {
		if !docs[c.DocumentID] {
			continue
		}
		chunks++
		if kg != nil {
			kg[c.IndexStatus]++
		}
	}

	return newOverview(int64(len(docs)), chunks, vector, kg), nil
}

func (s *MemoryStore) PendingImports(ctx context.Context, createdBefore time.Time, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, e := range s.outbox {
		if e.dispatchedAt == nil && e.createdAt.Before(createdBefore) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.outbox[ids[i]].createdAt.Before(s.outbox[ids[j]].createdAt)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *MemoryStore) MarkImportDispatched(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, id := range ids {
		if e, ok := s.outbox[id]; ok && e.dispatchedAt == nil {
			e.dispatchedAt = &now
		}
	}
	return nil
}

// AddDocument records a document the way the import pipeline would.
func (s *MemoryStore) AddDocument(doc models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dataSources[doc.DataSourceID]; !ok {
		return doc, fmt.Errorf("add document: %w", ErrNotFound)
	}
	doc.ID = int64(len(s.documents) + 1)
	if doc.IndexStatus == "" {
		doc.IndexStatus = models.IndexStatusNotStarted
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	s.documents = append(s.documents, doc)
	return doc, nil
}

// AddChunk records a chunk the way the indexing pipeline would.
func (s *MemoryStore) AddChunk(chunk models.Chunk) (models.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk.DocumentID < 1 || chunk.DocumentID > int64(len(s.documents)) {
		return chunk, fmt.Errorf("add chunk: unknown document %d", chunk.DocumentID)
	}
	chunk.ID = int64(len(s.chunks) + 1)
	if chunk.IndexStatus == "" {
		chunk.IndexStatus = models.IndexStatusNotStarted
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = s.now().UTC()
	}
	s.chunks = append(s.chunks, chunk)
	return chunk, nil
}
