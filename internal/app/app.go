package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/handler"
	"github.com/metinatakli/cinema-seat-booking/internal/mailer"
	"github.com/metinatakli/cinema-seat-booking/internal/notify"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

const serviceName = "cinema-seat-booking"

var (
	version = vcs.Version()
)

type Application struct {
	config    config.Config
	logger    *slog.Logger
	validator *validator.Validate
	bookings  BookingService
	reaper    Reaper
	health    *handler.HealthcheckHandler
}

func NewApp(
	cfg config.Config,
	logger *slog.Logger,
	validator *validator.Validate,
	bookings BookingService,
	reaper Reaper) *Application {

	return &Application{
		config:    cfg,
		logger:    logger,
		validator: validator,
		bookings:  bookings,
		reaper:    reaper,
		health:    handler.NewHealthcheckHandler(cfg),
	}
}

// Dependencies are the external systems the booking pipeline talks to. A nil
// Redis disables the seat map cache and the event stream.
type Dependencies struct {
	DB     *pgxpool.Pool
	Redis  redis.UniversalClient
	Mailer mailer.Mailer
	SMS    notify.SMSSender
	// Card overrides the card gateway, e.g. with Stripe.
	Card  domain.PaymentGateway
	Sinks []domain.NotificationSink
}

func NewOrchestrator(cfg config.Config, logger *slog.Logger, deps Dependencies) (*booking.Orchestrator, error) {
	users := repository.NewPostgresUserRepository(deps.DB)

	var seats domain.SeatStore = repository.NewPostgresSeatStore(deps.DB)

	bus := notify.NewBus(logger)

	if deps.Mailer != nil {
		bus = bus.Subscribe(notify.NewMailSink(deps.Mailer, users))
	}

	if deps.SMS != nil {
		bus = bus.Subscribe(notify.NewSMSSink(deps.SMS, users))
	}

	if deps.Redis != nil {
		seats = repository.NewCachedSeatStore(seats, deps.Redis, cfg.Redis.LayoutTTL, logger)

		if cfg.Redis.EventsEnabled {
			publisher, err := notify.NewRedisStreamPublisher(deps.Redis, watermill.NewStdLogger(false, false))
			if err != nil {
				return nil, fmt.Errorf("create event stream publisher: %w", err)
			}
			bus = bus.Subscribe(notify.NewStreamSink(publisher))
		}
	}

	for _, sink := range deps.Sinks {
		bus = bus.Subscribe(sink)
	}

	card := deps.Card
	if card == nil {
		card = payment.NewCardGateway(payment.DefaultCardLatency.Scale(cfg.Booking.PaymentLatencyScale))
	}

	payments := payment.NewDefaultRegistry(logger, card, cfg.Booking.PaymentLatencyScale)

	return booking.New(
		seats,
		repository.NewPostgresBookingStore(deps.DB),
		repository.NewPostgresShowtimeRepository(deps.DB),
		payments,
		bus,
		logger,
		booking.WithReservationTTL(cfg.Booking.ReservationTTL),
	), nil
}

func Run() error {
	cfg, displayVersion, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app := &Application{
		config: cfg,
		logger: logger,
	}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(logger.Handler(), otelslog.NewHandler(serviceName)))
		app.logger = logger
	}

	if cfg.DB.DSN == "" {
		return errors.New("a PostgreSQL DSN is required, set -db-dsn or DB_DSN")
	}

	if cfg.DB.Migrate {
		if err := RunMigrations(cfg.DB.DSN, cfg.DB.MigrationsPath); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	deps := Dependencies{
		DB:     db,
		Mailer: mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		SMS:    notify.NewLogSMSSender(logger),
	}

	if cfg.Redis.URL != "" {
		redisClient, err := NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		deps.Redis = redisClient
	}

	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
		deps.Card = payment.NewStripeCardGateway(cfg.Stripe.Currency)
	}

	if cfg.AMQP.URL != "" {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			return fmt.Errorf("connect to amqp broker: %w", err)
		}
		defer conn.Close()

		deps.Sinks = append(deps.Sinks, notify.NewAMQPSink(conn))
	}

	orchestrator, err := NewOrchestrator(cfg, logger, deps)
	if err != nil {
		return err
	}

	app.validator = appvalidator.NewValidator()
	app.bookings = orchestrator
	app.reaper = orchestrator
	app.health = handler.NewHealthcheckHandler(cfg, handler.Probe{Name: "postgres", Check: db.Ping})

	if deps.Redis != nil {
		app.health = app.health.With(handler.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}})
	}

	return app.run()
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return app.reaper.RunReaper(gctx, app.config.Booking.ReaperInterval)
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
