package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ReceiptExporter writes a receipt somewhere durable and returns its location.
type ReceiptExporter interface {
	Export(ctx context.Context, receiptID string) (string, error)
}

type ExporterFunc func(ctx context.Context, receiptID string) (string, error)

func (f ExporterFunc) Export(ctx context.Context, receiptID string) (string, error) {
	return f(ctx, receiptID)
}

// ExportTask is a queued receipt export.
type ExportTask struct {
	ReceiptID  string    `json:"receipt_id"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExportWorker exports receipts off the request path. Tasks go to a redis
// list when a client is configured and to an in-memory queue otherwise.
type ExportWorker struct {
	exporter      ReceiptExporter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan ExportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *zerolog.Logger
}

func NewExportWorker(exporter ReceiptExporter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ExportWorker{
		exporter:      exporter,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan ExportTask, 128),
		redisQueueKey: "homestay:exports:queue",
		deadLetterKey: "homestay:exports:deadletter",
		pollInterval:  time.Second,
		logger:        logger,
	}
}

// Enqueue schedules an export of the receipt.
func (w *ExportWorker) Enqueue(ctx context.Context, receiptID string) error {
	if receiptID == "" {
		return errors.New("receipt id is required")
	}
	return w.push(ctx, ExportTask{ReceiptID: receiptID, CreatedAt: time.Now()})
}

func (w *ExportWorker) push(ctx context.Context, task ExportTask) error {
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		return fmt.Errorf("export queue full, receipt %s dropped", task.ReceiptID)
	}
}

// Start runs the worker loop until ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			w.processTask(ctx, &t)
			continue
		default:
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			w.processTask(ctx, &t)
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *ExportWorker) tryRedis(ctx context.Context) (ExportTask, bool) {
	if w.redis == nil {
		return ExportTask{}, false
	}
	res, err := w.redis.RPop(ctx, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			w.logger.Warn().Err(err).Msg("redis RPOP error")
		}
		return ExportTask{}, false
	}
	var task ExportTask
	if err := json.Unmarshal([]byte(res), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return ExportTask{}, false
	}
	return task, true
}

func (w *ExportWorker) processTask(ctx context.Context, task *ExportTask) {
	path, err := w.exporter.Export(ctx, task.ReceiptID)
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}
	w.logger.Info().Str("receipt_id", task.ReceiptID).Str("path", path).Msg("receipt exported")
}

func (w *ExportWorker) retryOrFail(ctx context.Context, task *ExportTask, cause error) {
	task.RetryCount++
	task.LastError = cause.Error()

	if task.RetryCount >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(cause).Str("receipt_id", task.ReceiptID).Int("attempts", task.RetryCount).Msg("receipt export failed")
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.RetryCount)
	w.logger.Warn().Err(cause).Str("receipt_id", task.ReceiptID).Dur("retry_in", delay).Msg("receipt export failed, retrying")

	retry := *task
	go func() {
		if err := w.retryPolicy.Wait(ctx, retry.RetryCount); err != nil {
			return
		}
		if err := w.push(ctx, retry); err != nil {
			w.logger.Error().Err(err).Str("receipt_id", retry.ReceiptID).Msg("requeue export")
		}
	}()
}

func (w *ExportWorker) pushRedis(ctx context.Context, key string, task ExportTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *ExportWorker) pushDeadLetter(ctx context.Context, task *ExportTask) {
	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
		w.logger.Error().Err(err).Str("receipt_id", task.ReceiptID).Msg("deadletter push")
	}
}
