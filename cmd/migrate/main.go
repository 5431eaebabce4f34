package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/config"
	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/repository"
	"github.com/sportfed/arena/internal/repository/postgres"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "Overall migration timeout")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewExample()
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, database.PostgresConfig{DSN: cfg.Store.Postgres.DSN})
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		if err := postgres.Apply(ctx, db); err != nil {
			logger.Fatal("postgres schema failed", zap.Error(err))
		}

	case config.DriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Store.Surreal.Host,
			Port:      cfg.Store.Surreal.Port,
			User:      cfg.Store.Surreal.User,
			Password:  cfg.Store.Surreal.Password,
			Namespace: cfg.Store.Surreal.Namespace,
			Database:  cfg.Store.Surreal.Database,
		})
		if err := db.Connect(ctx); err != nil {
			logger.Fatal("failed to connect to surrealdb", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		if err := repository.DefineSchema(ctx, db); err != nil {
			logger.Fatal("surrealdb schema failed", zap.Error(err))
		}

	default:
		logger.Info("nothing to migrate", zap.String("driver", cfg.Store.Driver))
		return
	}

	logger.Info("schema applied", zap.String("driver", cfg.Store.Driver))
}
