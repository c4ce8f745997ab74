package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// Document and Chunk rows are written by the import pipeline. This
// service only counts them.
type Document struct {
	ID           int64       `json:"id" db:"id"`
	DataSourceID int64       `json:"data_source_id" db:"data_source_id"`
	Name         string      `json:"name" db:"name"`
	IndexStatus  IndexStatus `json:"index_status" db:"index_status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type Chunk struct {
	ID          int64       `json:"id" db:"id"`
	DocumentID  int64       `json:"document_id" db:"document_id"`
	IndexStatus IndexStatus `json:"index_status" db:"index_status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type IndexStatus string

// Declaration order is the sort order.
const (
	IndexStatusNotStarted IndexStatus = "not_started"
	IndexStatusPending    IndexStatus = "pending"
	IndexStatusRunning    IndexStatus = "running"
	IndexStatusCompleted  IndexStatus = "completed"
	IndexStatusFailed     IndexStatus = "failed"
)

var indexStatusOrder = []IndexStatus{
	IndexStatusNotStarted,
	IndexStatusPending,
	IndexStatusRunning,
	IndexStatusCompleted,
	IndexStatusFailed,
}

// Rank returns the position of s in the declared order, or -1 for values
// outside the enumeration.
func (s IndexStatus) Rank() int {
	for i, v := range indexStatusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Less orders known statuses by rank, then unknown ones by value.
func (s IndexStatus) Less(o IndexStatus) bool {
	rs, ro := s.Rank(), o.Rank()
	switch {
	case rs >= 0 && ro >= 0:
		return rs < ro
	case rs >= 0:
		return true
	case ro >= 0:
		return false
	}
	return s < o
}

// StatusCounts maps an index status to the number of rows in it. Statuses
// with no rows are absent.
type StatusCounts map[IndexStatus]int64

// Keys returns the statuses present, in declared order.
func (c StatusCounts) Keys() []IndexStatus {
	keys := make([]IndexStatus, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// MarshalJSON writes keys in declared status order instead of the
// alphabetical order encoding/json uses for maps.
func (c StatusCounts) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
