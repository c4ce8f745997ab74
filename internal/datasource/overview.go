package datasource

import "github.com/nikhilbhutani/datasource-admin/internal/models"

type Total struct {
	Total int64 `json:"total"`
}

// Overview is the index-status rollup of one data source.
type Overview struct {
	Documents   Total               `json:"documents"`
	Chunks      Total               `json:"chunks"`
	KGIndex     models.StatusCounts `json:"kg_index"`
	VectorIndex models.StatusCounts `json:"vector_index"`
}

func newOverview(documents, chunks int64, vector, kg models.StatusCounts) *Overview {
	if vector == nil {
		vector = models.StatusCounts{}
	}
	if kg == nil {
		kg = models.StatusCounts{}
	}
	return &Overview{
		Documents:   Total{Total: documents},
		Chunks:      Total{Total: chunks},
		KGIndex:     kg,
		VectorIndex: vector,
	}
}
