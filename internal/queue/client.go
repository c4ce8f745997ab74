package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/datasource-admin/internal/config"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.RedisConfig, queue string) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
		queue:  queue,
	}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueImportDocuments hands a data source to the import pipeline. An
// import that is already queued for the same data source counts as success.
func (c *Client) EnqueueImportDocuments(ctx context.Context, dataSourceID int64) error {
	err := c.enqueue(ctx, TypeImportDocuments, ImportDocumentsPayload{DataSourceID: dataSourceID},
		asynq.TaskID(ImportTaskID(dataSourceID)),
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// WorkerQueues is the queue set the worker serves. Import jobs are left for
// the import pipeline, so IMPORT_QUEUE must never appear here.
func WorkerQueues(cfg config.QueueConfig) map[string]int {
	return map[string]int{cfg.RelayQueue: 1}
}
