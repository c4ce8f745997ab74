package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
	"github.com/nikhilbhutani/datasource-admin/internal/queue"
)

type fakeRelayer struct {
	grace time.Duration
	limit int
	res   datasource.RelayResult
	err   error
}

func (f *fakeRelayer) RelayPendingImports(ctx context.Context, grace time.Duration, limit int) (datasource.RelayResult, error) {
	f.grace, f.limit = grace, limit
	return f.res, f.err
}

func TestRelayWorkerPassesSettings(t *testing.T) {
	r := &fakeRelayer{res: datasource.RelayResult{Dispatched: 2}}
	w := NewRelayWorker(r, 90*time.Second, 25)

	if err := w.ProcessTask(context.Background(), queue.NewRelayImportsTask()); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if r.grace != 90*time.Second || r.limit != 25 {
		t.Fatalf("unexpected settings grace=%v limit=%d", r.grace, r.limit)
	}
}

func TestRelayWorkerReturnsError(t *testing.T) {
	boom := errors.New("broker down")
	w := NewRelayWorker(&fakeRelayer{err: boom}, time.Minute, 10)

	err := w.ProcessTask(context.Background(), queue.NewRelayImportsTask())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestRelayWorkerRunsThroughService(t *testing.T) {
	store := datasource.NewMemoryStore()
	failing := &flakyDispatcher{fail: true}
	svc := datasource.NewService(store, failing, nil, 0)

	req := datasource.CreateRequest{
		Name:           "docs",
		DataSourceType: "web_sitemap",
		Config:         []byte(`{"url":"https://example.com/sitemap.xml"}`),
	}
	if _, err := svc.Create(context.Background(), uuid.New(), req); err == nil {
		t.Fatalf("expected dispatch failure")
	}

	failing.fail = false
	w := NewRelayWorker(svc, -time.Second, 10)
	if err := w.ProcessTask(context.Background(), queue.NewRelayImportsTask()); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(failing.ids) != 1 {
		t.Fatalf("expected one relayed dispatch, got %v", failing.ids)
	}

	if err := w.ProcessTask(context.Background(), queue.NewRelayImportsTask()); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(failing.ids) != 1 {
		t.Fatalf("expected relayed entry to stay dispatched, got %v", failing.ids)
	}
}

type flakyDispatcher struct {
	fail bool
	ids  []int64
}

func (d *flakyDispatcher) EnqueueImportDocuments(ctx context.Context, id int64) error {
	if d.fail {
		return errors.New("broker down")
	}
	d.ids = append(d.ids, id)
	return nil
}
