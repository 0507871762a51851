package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App          *app.Application
	Orchestrator *booking.Orchestrator
	DB           *pgxpool.Pool
	RedisClient  *redis.Client
	Mailer       *mailer.MockMailer
}

func newTestApp(cfg config.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	orchestrator, err := app.NewOrchestrator(cfg, logger, app.Dependencies{
		DB:     db,
		Redis:  redisClient,
		Mailer: mailer,
	})
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, err
	}

	application := app.NewApp(cfg, logger, validator, orchestrator, orchestrator)

	return &TestApp{
		App:          application,
		Orchestrator: orchestrator,
		DB:           db,
		RedisClient:  redisClient,
		Mailer:       mailer,
	}, nil
}

func (a *TestApp) Close() {
	a.RedisClient.Close()
	a.DB.Close()
}
