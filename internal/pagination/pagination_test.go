package pagination

import (
	"errors"
	"math"
	"net/url"
	"testing"
)

func TestParseParamsDefaults(t *testing.T) {
	p, err := ParseParams(url.Values{})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if p.Page != DefaultPage || p.Size != DefaultSize {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p.Offset() != 0 || p.Limit() != DefaultSize {
		t.Fatalf("unexpected limit/offset %d/%d", p.Limit(), p.Offset())
	}
}

func TestParseParamsOffset(t *testing.T) {
	p, err := ParseParams(url.Values{"page": {"3"}, "size": {"10"}})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if p.Offset() != 20 || p.Limit() != 10 {
		t.Fatalf("unexpected limit/offset %d/%d", p.Limit(), p.Offset())
	}
}

func TestOffsetSaturatesForHugePages(t *testing.T) {
	p, err := ParseParams(url.Values{"page": {"9223372036854775807"}, "size": {"2"}})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if p.Offset() != math.MaxInt {
		t.Fatalf("expected saturated offset, got %d", p.Offset())
	}

	p = Params{Page: math.MaxInt/100 + 2, Size: 100}
	if p.Offset() < 0 {
		t.Fatalf("offset overflowed: %d", p.Offset())
	}
}

func TestParseParamsRejectsInvalid(t *testing.T) {
	cases := []struct {
		query url.Values
		field string
	}{
		{url.Values{"page": {"0"}}, "page"},
		{url.Values{"page": {"abc"}}, "page"},
		{url.Values{"size": {"0"}}, "size"},
		{url.Values{"size": {"101"}}, "size"},
	}
	for _, tc := range cases {
		_, err := ParseParams(tc.query)
		var pe *ParamError
		if !errors.As(err, &pe) {
			t.Fatalf("%v: expected ParamError, got %v", tc.query, err)
		}
		if pe.Field != tc.field {
			t.Fatalf("%v: expected field %s, got %s", tc.query, tc.field, pe.Field)
		}
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage[int](nil, 0, Params{Page: 1, Size: 10})
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("expected empty non-nil items")
	}
	if page.Pages != 0 {
		t.Fatalf("expected 0 pages, got %d", page.Pages)
	}

	page = NewPage([]int{1, 2}, 21, Params{Page: 3, Size: 10})
	if page.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.Pages)
	}
	if page.Total != 21 || page.Page != 3 || page.Size != 10 {
		t.Fatalf("unexpected page %+v", page)
	}
}
