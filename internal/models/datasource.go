package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DataSourceType string

const (
	DataSourceFile          DataSourceType = "file"
	DataSourceWebSinglePage DataSourceType = "web_single_page"
	DataSourceWebSitemap    DataSourceType = "web_sitemap"
)

func (t DataSourceType) Valid() bool {
	switch t {
	case DataSourceFile, DataSourceWebSinglePage, DataSourceWebSitemap:
		return true
	}
	return false
}

type DataSource struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	DataSourceType DataSourceType  `json:"data_source_type" db:"data_source_type"`
	Config         json.RawMessage `json:"config" db:"config"`
	BuildKGIndex   bool            `json:"build_kg_index" db:"build_kg_index"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
