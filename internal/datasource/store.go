package datasource

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/datasource-admin/internal/models"
)

type CreateParams struct {
	Name           string
	Description    string
	DataSourceType models.DataSourceType
	Config         json.RawMessage
	BuildKGIndex   bool
	UserID         uuid.UUID
}

// Store is the persistence boundary for data sources and the import outbox.
type Store interface {
	// Create persists the data source together with its pending import
	// outbox entry, atomically.
	Create(ctx context.Context, p CreateParams) (*models.DataSource, error)
	// List returns one page ordered by created_at DESC, id DESC, and the
	// total row count.
	List(ctx context.Context, limit, offset int) ([]models.DataSource, int, error)
	Get(ctx context.Context, id int64) (*models.DataSource, error)
	Overview(ctx context.Context, id int64) (*Overview, error)

	PendingImports(ctx context.Context, createdBefore time.Time, limit int) ([]int64, error)
	MarkImportDispatched(ctx context.Context, ids []int64) error
}
