package backend

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/amqp"
	"dompet/internal/log"
	"dompet/internal/ports"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
)

type DefaultFactory struct {
	logger *log.Logger
	// dial is replaced in tests.
	dial func(url, exchange, queue string, onChange amqp.StateChangeFunc) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
		dial:   amqp.NewClient,
	}
}

func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ping %s store: %w", config.Type, err)
	}

	res := &Result{Store: store}
	cleanups := []CleanupFunc{store.Close}

	// AMQP is optional; rows missed by the publisher are caught by the export sweep.
	if config.AMQPURL != "" {
		client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.OnBreakerChange)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Publisher = client
			cleanups = append(cleanups, client.Close)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", res.Publisher != nil)
	return res, nil
}

func (f *DefaultFactory) openStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLite:
		repo, err := storage.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case Postgres:
		repo, err := storage.OpenPostgres(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Opened Postgres store")
		return repo, nil
	case Memory:
		f.logger.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
