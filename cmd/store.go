package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/config"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/memory"
	mongostore "github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/mongo"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/postgres"
)

const connectTimeout = 10 * time.Second

// openStore connects the configured backend. The memory backend is migrated and seeded here
// because nothing outlives the process.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres")
		return postgres.New(pool), nil

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongodb", slog.String("database", cfg.MongoDatabase))
		return mongostore.New(client, cfg.MongoDatabase), nil

	case config.DriverMemory:
		st := memory.New()
		if err := storage.Seed(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		logger.Warn("using in-memory storage, data is lost on restart")
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func closeStore(st storage.Store, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		logger.Error("failed to close store", slog.Any("error", err))
	}
}
