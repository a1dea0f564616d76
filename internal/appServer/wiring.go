package appServer

import (
	"context"
	"fmt"
	"os"

	"github.com/ds124wfegd/ticket-booker/config"
	"github.com/ds124wfegd/ticket-booker/internal/database/memory"
	repository "github.com/ds124wfegd/ticket-booker/internal/database/postgres"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/ds124wfegd/ticket-booker/internal/transport"
	"github.com/ds124wfegd/ticket-booker/pkg/kafka"
	"github.com/ds124wfegd/ticket-booker/pkg/postgres"
	"github.com/ds124wfegd/ticket-booker/pkg/queue"
	"github.com/ds124wfegd/ticket-booker/pkg/rabbitmq"
	"github.com/ds124wfegd/ticket-booker/pkg/redis"

	"github.com/sirupsen/logrus"
)

func setupLogging(cfg *config.LoggingConfig) {
	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func newRepositories(cfg *config.Config) (service.Repositories, transport.HealthCheck, func(), error) {
	if cfg.Database.Driver == "memory" {
		logrus.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return service.Repositories{
			Tx:        store.TxManager(),
			Users:     store.Users(),
			Events:    store.Events(),
			Inventory: store.Inventory(),
			Bookings:  store.Bookings(),
			Outbox:    store.Outbox(),
		}, nil, func() {}, nil
	}

	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		return service.Repositories{}, nil, nil, err
	}
	if err := postgres.RunMigrations(db); err != nil {
		db.Close()
		return service.Repositories{}, nil, nil, err
	}

	return service.Repositories{
		Tx:        repository.NewTxManager(db),
		Users:     repository.NewUserRepository(db),
		Events:    repository.NewEventRepository(db),
		Inventory: repository.NewInventoryRepository(db),
		Bookings:  repository.NewBookingRepository(db),
		Outbox:    repository.NewOutboxRepository(db),
	}, db.PingContext, func() { db.Close() }, nil
}

// newPublisher builds the notification transport. For redis it also starts
// the in-process consumer that renders the emails.
func newPublisher(ctx context.Context, cfg *config.Config) (service.NotificationPublisher, transport.HealthCheck, func(), error) {
	switch cfg.Notifier.Transport {
	case "redis":
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		qcfg := queue.DefaultRedisQueueConfig()
		qcfg.MainQueue = cfg.Notifier.MainQueue
		qcfg.DelayedQueue = cfg.Notifier.MainQueue + ":delayed"
		qcfg.ProcessingQueue = cfg.Notifier.MainQueue + ":processing"
		qcfg.DLQ = cfg.Notifier.DLQ
		qcfg.MaxRetries = cfg.Notifier.MaxRetries

		redisQueue := queue.NewRedisQueue(client, qcfg)
		taskHandler := queue.NewTaskHandler(queue.LogEmailSender{})
		if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
			redisQueue.Close()
			return nil, nil, nil, err
		}
		return service.NewQueueAdapter(redisQueue), queueHealth(redisQueue), closer("redis queue", redisQueue.Close), nil

	case "rabbitmq":
		publisher, err := rabbitmq.NewPublisher(rabbitmq.Config{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		health := func(context.Context) error { return publisher.HealthCheck() }
		return service.NewBrokerPublisher(publisher), health, closer("rabbitmq", publisher.Close), nil

	case "kafka":
		producer := kafka.NewProducer(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		return service.NewBrokerPublisher(producer), nil, closer("kafka", producer.Close), nil

	case "log", "":
		return service.LogPublisher{}, nil, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown notifier transport %q", cfg.Notifier.Transport)
}

// queueHealth pings redis and warns while tasks sit in the DLQ.
func queueHealth(q *queue.RedisQueue) transport.HealthCheck {
	return func(ctx context.Context) error {
		if err := q.HealthCheck(ctx); err != nil {
			return err
		}
		stats, err := q.GetQueueStats(ctx)
		if err != nil {
			return err
		}
		if stats.DLQ > 0 {
			logrus.WithFields(logrus.Fields{
				"main":       stats.MainQueue,
				"delayed":    stats.DelayedQueue,
				"processing": stats.ProcessingQueue,
				"dlq":        stats.DLQ,
			}).Warn("Notification tasks waiting in DLQ")
		}
		return nil
	}
}

func closer(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			logrus.WithError(err).Errorf("Failed to close %s", name)
		}
	}
}
