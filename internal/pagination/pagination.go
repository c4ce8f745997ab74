// Package pagination implements page/size query parameters and the page
// envelope returned by list endpoints.
package pagination

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPage = 1
	DefaultSize = 50
	MaxSize     = 100
)

type Params struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func (p Params) Limit() int { return p.Size }

// Offset saturates at math.MaxInt for pages too far out to address; those
// are past the end of any result set and come back empty.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Size
}

// ParamError describes a rejected query parameter.
type ParamError struct {
	Field   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseParams reads page and size from q, applying defaults for absent
// values. Present but invalid values are rejected.
func ParseParams(q url.Values) (Params, error) {
	p := Params{Page: DefaultPage, Size: DefaultSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, &ParamError{Field: "page", Message: "must be an integer greater than or equal to 1"}
		}
		p.Page = n
	}

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxSize {
			return Params{}, &ParamError{Field: "size", Message: fmt.Sprintf("must be an integer between 1 and %d", MaxSize)}
		}
		p.Size = n
	}

	return p, nil
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// NewPage wraps one slice of results. Items is never nil so the envelope
// always encodes a JSON array.
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
		Pages: pages,
	}
}
