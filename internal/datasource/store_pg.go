package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikhilbhutani/datasource-admin/internal/models"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const dataSourceColumns = `id, name, description, data_source_type, config, build_kg_index, user_id, created_at`

const (
	countDocumentsSQL = `SELECT COUNT(*) FROM documents WHERE data_source_id = $1`

	countChunksSQL = `SELECT COUNT(c.id) FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.data_source_id = $1`

	documentStatusSQL = `SELECT index_status, COUNT(*) FROM documents
		 WHERE data_source_id = $1
		 GROUP BY index_status ORDER BY index_status`

	chunkStatusSQL = `SELECT c.index_status, COUNT(c.id) FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.data_source_id = $1
		 GROUP BY c.index_status ORDER BY c.index_status`
)

var readOnlyTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func (s *PGStore) Create(ctx context.Context, p CreateParams) (*models.DataSource, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	ds := models.DataSource{
		Name:           p.Name,
		Description:    p.Description,
		DataSourceType: p.DataSourceType,
		BuildKGIndex:   p.BuildKGIndex,
		UserID:         p.UserID,
	}
	// config comes back as stored so the response matches later reads.
	var config []byte
	err = tx.QueryRow(ctx,
		`INSERT INTO data_sources (name, description, data_source_type, config, build_kg_index, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, config, created_at`,
		p.Name, p.Description, string(p.DataSourceType), []byte(p.Config), p.BuildKGIndex, p.UserID,
	).Scan(&ds.ID, &config, &ds.CreatedAt)
	if err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("insert data source: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO datasource_import_outbox (data_source_id) VALUES ($1)`, ds.ID,
	); err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("insert import outbox: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit data source: %w", err)
	}

	ds.Config = config
	return &ds, nil
}

func (s *PGStore) List(ctx context.Context, limit, offset int) ([]models.DataSource, int, error) {
	var (
		items []models.DataSource
		total int64
	)
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM data_sources`).Scan(&total); err != nil {
			return fmt.Errorf("count data sources: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT `+dataSourceColumns+`
			 FROM data_sources ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset,
		)
		if err != nil {
			return fmt.Errorf("list data sources: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			ds, err := scanDataSource(rows)
			if err != nil {
				return fmt.Errorf("scan data source: %w", err)
			}
			items = append(items, *ds)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (*models.DataSource, error) {
	return getDataSource(ctx, s.db, id)
}

func (s *PGStore) Overview(ctx context.Context, id int64) (*Overview, error) {
	var ov *Overview
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		ds, err := getDataSource(ctx, tx, id)
		if err != nil {
			return err
		}

		var documents, chunks int64
		if err := tx.QueryRow(ctx, countDocumentsSQL, id).Scan(&documents); err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		if err := tx.QueryRow(ctx, countChunksSQL, id).Scan(&chunks); err != nil {
			return fmt.Errorf("count chunks: %w", err)
		}

		vector, err := countByStatus(ctx, tx, documentStatusSQL, id)
		if err != nil {
			return fmt.Errorf("group documents by status: %w", err)
		}

		var kg models.StatusCounts
		if ds.BuildKGIndex {
			kg, err = countByStatus(ctx, tx, chunkStatusSQL, id)
			if err != nil {
				return fmt.Errorf("group chunks by status: %w", err)
			}
		}

		ov = newOverview(documents, chunks, vector, kg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ov, nil
}

func (s *PGStore) PendingImports(ctx context.Context, createdBefore time.Time, limit int) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT data_source_id FROM datasource_import_outbox
		 WHERE dispatched_at IS NULL AND created_at < $1
		 ORDER BY created_at LIMIT $2`,
		createdBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending imports: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending import: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGStore) MarkImportDispatched(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`UPDATE datasource_import_outbox SET dispatched_at = now()
		 WHERE data_source_id = ANY($1) AND dispatched_at IS NULL`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("mark imports dispatched: %w", err)
	}
	return nil
}

// readTx runs fn in a read-only repeatable-read transaction so every query
// in fn sees the same snapshot.
func (s *PGStore) readTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getDataSource(ctx context.Context, q querier, id int64) (*models.DataSource, error) {
	row := q.QueryRow(ctx, `SELECT `+dataSourceColumns+` FROM data_sources WHERE id = $1`, id)
	ds, err := scanDataSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get data source: %w", err)
	}
	return ds, nil
}

func scanDataSource(row pgx.Row) (*models.DataSource, error) {
	var (
		ds     models.DataSource
		typ    string
		config []byte
	)
	if err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &typ, &config, &ds.BuildKGIndex, &ds.UserID, &ds.CreatedAt); err != nil {
		return nil, err
	}
	ds.DataSourceType = models.DataSourceType(typ)
	ds.Config = config
	return &ds, nil
}

func countByStatus(ctx context.Context, tx pgx.Tx, sql string, id int64) (models.StatusCounts, error) {
	rows, err := tx.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := models.StatusCounts{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.IndexStatus(status)] = n
	}
	return counts, rows.Err()
}
