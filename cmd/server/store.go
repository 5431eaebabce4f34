package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/config"
	"github.com/sportfed/arena/internal/database"
	"github.com/sportfed/arena/internal/handler"
	"github.com/sportfed/arena/internal/repository"
	"github.com/sportfed/arena/internal/repository/memory"
	"github.com/sportfed/arena/internal/repository/postgres"
	"github.com/sportfed/arena/internal/service"
)

// stores is an opened entity store ready to be handed to the workflow
type stores struct {
	competitions service.CompetitionRepository
	applications service.ApplicationRepository
	teams        service.TeamRepository
	joinRequests service.JoinRequestRepository
	users        service.UserRepository
	pinger       handler.Pinger // nil for memory
	close        func() error
}

// openStores connects the store selected by cfg.Store.Driver
func openStores(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, database.PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		repos := postgres.NewRepositories(db)
		logger.Info("connected to postgres")
		return &stores{
			competitions: repos.Competitions,
			applications: repos.Applications,
			teams:        repos.Teams,
			joinRequests: repos.JoinRequests,
			users:        repos.Users,
			pinger:       handler.PingFunc(db.PingContext),
			close:        db.Close,
		}, nil

	case config.DriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Surreal.Host,
			Port:      cfg.Surreal.Port,
			User:      cfg.Surreal.User,
			Password:  cfg.Surreal.Password,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
			Timeout:   cfg.Timeout,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
		}
		logger.Info("connected to surrealdb",
			zap.String("host", cfg.Surreal.Host),
			zap.String("database", cfg.Surreal.Database),
		)
		return &stores{
			competitions: repository.NewCompetitionRepository(db),
			applications: repository.NewApplicationRepository(db),
			teams:        repository.NewTeamRepository(db),
			joinRequests: repository.NewJoinRequestRepository(db),
			users:        repository.NewUserRepository(db),
			pinger:       db,
			close:        db.Close,
		}, nil

	case config.DriverMemory:
		repos := memory.NewRepositories(memory.NewStore())
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			competitions: repos.Competitions,
			applications: repos.Applications,
			teams:        repos.Teams,
			joinRequests: repos.JoinRequests,
			users:        repos.Users,
			close:        func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
