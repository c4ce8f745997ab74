package models

import (
	"encoding/json"
	"testing"
)

func TestStatusCountsMarshalUsesDeclaredOrder(t *testing.T) {
	counts := StatusCounts{
		IndexStatusFailed:     1,
		IndexStatusCompleted:  2,
		"archived":            4,
		IndexStatusNotStarted: 3,
	}

	data, err := json.Marshal(counts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"not_started":3,"completed":2,"failed":1,"archived":4}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestStatusCountsNilMarshalsEmptyObject(t *testing.T) {
	var payload struct {
		KG StatusCounts `json:"kg_index"`
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"kg_index":{}}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestStatusCountsRoundTrip(t *testing.T) {
	in := StatusCounts{IndexStatusCompleted: 2, IndexStatusFailed: 1}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out StatusCounts
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[IndexStatusCompleted] != 2 || out[IndexStatusFailed] != 1 {
		t.Fatalf("unexpected counts %v", out)
	}
}

func TestIndexStatusRank(t *testing.T) {
	if !IndexStatusPending.Less(IndexStatusRunning) {
		t.Fatalf("pending should sort before running")
	}
	if IndexStatus("zzz").Rank() != -1 {
		t.Fatalf("unknown status has a rank")
	}
	if !IndexStatusFailed.Less("aaa") {
		t.Fatalf("known statuses should sort before unknown ones")
	}
}

func TestDataSourceTypeValid(t *testing.T) {
	for _, typ := range []DataSourceType{DataSourceFile, DataSourceWebSinglePage, DataSourceWebSitemap} {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
	}
	if DataSourceType("ftp").Valid() {
		t.Fatalf("ftp should be invalid")
	}
}
