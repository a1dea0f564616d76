package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 2 * time.Second
	defaultQueueTimeout = 5 * time.Second
	defaultPollInterval = time.Second
)

// RedisQueue keeps ready tasks in a list, delayed tasks in a sorted set
// and in-flight tasks in a processing list.
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	retryManager    *RetryManager
	dlqHandler      DLQHandler
	config          *RedisQueueConfig
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

type RedisQueueConfig struct {
	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string
	DLQ             string

	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	PollInterval time.Duration
}

func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:       "ticket_booking:tasks",
		DelayedQueue:    "ticket_booking:tasks:delayed",
		ProcessingQueue: "ticket_booking:tasks:processing",
		DLQ:             "ticket_booking:dlq",
		MaxRetries:      defaultMaxRetries,
		BaseDelay:       defaultBaseDelay,
		QueueTimeout:    defaultQueueTimeout,
		PollInterval:    defaultPollInterval,
	}
}

// NewRedisQueue takes ownership of client; Close closes it.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) *RedisQueue {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = defaultQueueTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	q := &RedisQueue{
		client:          client,
		mainQueue:       cfg.MainQueue,
		delayedQueue:    cfg.DelayedQueue,
		processingQueue: cfg.ProcessingQueue,
		retryManager:    NewRetryManager(cfg.BaseDelay),
		dlqHandler:      NewDefaultDLQHandler(client, cfg.DLQ),
		config:          cfg,
		stopChan:        make(chan struct{}),
	}

	logrus.WithFields(logrus.Fields{
		"main":    cfg.MainQueue,
		"delayed": cfg.DelayedQueue,
		"dlq":     cfg.DLQ,
	}).Info("Redis queue initialized")
	return q
}

// Publish pushes task to the main list, or to the delayed set when
// ExecuteAt lies in the future.
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	r.applyDefaults(task)
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.ExecuteAt.After(time.Now()) {
		err = r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  float64(task.ExecuteAt.UnixNano()) / 1e9,
			Member: data,
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"task_id":    task.ID,
			"execute_at": task.ExecuteAt.Format(time.RFC3339),
		}).Debug("Task scheduled")
		return nil
	}

	if err := r.client.LPush(ctx, r.mainQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}
	logrus.WithField("task_id", task.ID).Debug("Task published")
	return nil
}

// Subscribe starts the consumer loops. They run until ctx is done or the
// queue is closed.
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	logrus.Info("Redis queue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
		}

		if err := r.processNext(ctx, handler); err != nil {
			logrus.WithError(err).Error("Error processing queue")
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// processNext moves one task to the processing list, runs it and removes
// it again whatever the outcome.
func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) error {
	data, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.config.QueueTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to move task to processing queue: %w", err)
	}
	defer func() {
		if err := r.client.LRem(context.WithoutCancel(ctx), r.processingQueue, 1, data).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to remove task from processing queue")
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		r.dlqHandler.HandleFailedTask(ctx, &Task{
			ID:        "corrupted_" + strconv.FormatInt(time.Now().UnixNano(), 10),
			Type:      "corrupted",
			Payload:   json.RawMessage(strconv.Quote(data)),
			CreatedAt: time.Now(),
		}, fmt.Errorf("invalid task format: %w", err))
		return nil
	}

	r.execute(ctx, &task, handler)
	return nil
}

// execute runs the handler once. A retryable failure is rescheduled on the
// delayed set; anything else goes to the DLQ.
func (r *RedisQueue) execute(ctx context.Context, task *Task, handler func(*Task) error) {
	task.Attempts++
	log := logrus.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	})

	err := handler(task)
	if err == nil {
		log.Debug("Task completed")
		return
	}

	retry, delay := r.retryManager.ShouldRetry(task, err)
	if !retry {
		r.dlqHandler.HandleFailedTask(ctx, task, err)
		return
	}

	log.WithError(err).Warnf("Task failed, retrying in %v", delay)
	task.ExecuteAt = time.Now().Add(delay)
	if pubErr := r.Publish(context.WithoutCancel(ctx), task); pubErr != nil {
		log.WithError(pubErr).Error("Failed to reschedule task")
		r.dlqHandler.HandleFailedTask(ctx, task, err)
	}
}

func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.moveReadyDelayedTasks(ctx); err != nil {
				logrus.WithError(err).Error("Failed to process delayed tasks")
			}
		}
	}
}

func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) error {
	now := fmt.Sprintf("%f", float64(time.Now().UnixNano())/1e9)

	tasks, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min: "0",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get delayed tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, data := range tasks {
		pipe.LPush(ctx, r.mainQueue, data)
		pipe.ZRem(ctx, r.delayedQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move delayed tasks: %w", err)
	}

	logrus.WithField("count", len(tasks)).Debug("Moved delayed tasks to main queue")
	return nil
}

func (r *RedisQueue) applyDefaults(task *Task) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
}

type QueueStats struct {
	MainQueue       int64 `json:"main_queue"`
	DelayedQueue    int64 `json:"delayed_queue"`
	ProcessingQueue int64 `json:"processing_queue"`
	DLQ             int64 `json:"dlq"`
}

func (r *RedisQueue) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()
	mainLen := pipe.LLen(ctx, r.mainQueue)
	delayedLen := pipe.ZCard(ctx, r.delayedQueue)
	processingLen := pipe.LLen(ctx, r.processingQueue)
	dlqLen := pipe.ZCard(ctx, r.config.DLQ)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		DLQ:             dlqLen.Val(),
	}, nil
}

func (r *RedisQueue) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	logrus.Info("Redis queue closed")
	return nil
}
