package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modoo/community-backend/internal/adapter/postgres"
	"github.com/modoo/community-backend/internal/adapter/postgres/action"
	"github.com/modoo/community-backend/internal/adapter/postgres/poll"
	"github.com/modoo/community-backend/internal/adapter/postgres/progression"
	"github.com/modoo/community-backend/internal/adapter/postgres/ranking"
	"github.com/modoo/community-backend/internal/adapter/postgres/target"
	"github.com/modoo/community-backend/internal/adapter/postgres/user"
	"github.com/modoo/community-backend/internal/config"
	consistencysvc "github.com/modoo/community-backend/internal/service/consistency"
	pollsvc "github.com/modoo/community-backend/internal/service/poll"
	progressionsvc "github.com/modoo/community-backend/internal/service/progression"
	"github.com/modoo/community-backend/internal/service/toggle"
)

// App holds the wired engagement core: one connection pool, the repositories
// on top of it, and the services the calling transport layer talks to.
type App struct {
	Cfg  *config.Config
	Log  *slog.Logger
	Pool *pgxpool.Pool

	Toggle      *toggle.Service
	Poll        *pollsvc.Service
	Progression *progressionsvc.Service
	Consistency *consistencysvc.Service

	// Rankings feeds candidate lists to poll creation and Targets resolves
	// winners to their owners; both are exposed for the scheduler command
	// rather than consumed by a service.
	Rankings *ranking.Repo
	Targets  *target.Repo
}

// Build loads configuration, connects to the database, and wires every
// service. The caller owns the returned App and must Close it.
func Build(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	txManager := postgres.NewTxManager(pool)

	actionRepo := action.New(pool)
	targetRepo := target.New(pool)
	pollRepo := poll.New(pool)
	progressionRepo := progression.New(pool)
	userRepo := user.New(pool)
	rankingRepo := ranking.New(pool)

	return &App{
		Cfg:  cfg,
		Log:  logger,
		Pool: pool,

		Toggle:      toggle.NewService(logger, actionRepo, targetRepo, txManager),
		Poll:        pollsvc.NewService(logger, cfg.Poll, pollRepo, actionRepo, txManager),
		Progression: progressionsvc.NewService(logger, cfg.Progression, actionRepo, progressionRepo, userRepo, txManager),
		Consistency: consistencysvc.NewService(logger, actionRepo, targetRepo, pollRepo, progressionRepo, txManager),

		Rankings: rankingRepo,
		Targets:  targetRepo,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.Pool.Close()
}
