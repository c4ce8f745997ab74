package queue

import (
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// Consumed by the import pipeline, not by this service.
	TypeImportDocuments = "datasource:import_documents"
	TypeRelayImports    = "outbox:relay_imports"
)

type ImportDocumentsPayload struct {
	DataSourceID int64 `json:"data_source_id"`
}

// ImportTaskID is the broker-side task id for a data source import. The
// broker rejects a second task with the same id while the first is still
// queued or retained.
func ImportTaskID(dataSourceID int64) string {
	return fmt.Sprintf("datasource:%d:import_documents", dataSourceID)
}

func NewRelayImportsTask() *asynq.Task {
	return asynq.NewTask(TypeRelayImports, nil)
}
