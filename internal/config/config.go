package config

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	Env              string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	AMQP             AMQPConfig
	Booking          BookingConfig
	OtelCollectorUrl string
}

type DBConfig struct {
	DSN            string
	MaxOpenConns   int
	MaxIdleTime    time.Duration
	Migrate        bool
	MigrationsPath string
}

type RedisConfig struct {
	URL           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxIdleTime   time.Duration
	LayoutTTL     time.Duration
	EventsEnabled bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey string
	Currency  string
}

type AMQPConfig struct {
	URL string
}

type BookingConfig struct {
	ReservationTTL      time.Duration
	ReaperInterval      time.Duration
	PaymentLatencyScale float64
}

// Load reads an optional .env file and then parses args. Every flag defaults
// to its environment variable, so flags win over the environment.
func Load(args []string) (Config, bool, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, false, err
	}

	var cfg Config

	fset := flag.NewFlagSet("cinema-api", flag.ContinueOnError)

	fset.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fset.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")

	fset.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fset.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fset.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")
	fset.BoolVar(&cfg.DB.Migrate, "db-migrate", envBool("DB_MIGRATE", false), "Apply database migrations on startup")
	fset.StringVar(&cfg.DB.MigrationsPath, "db-migrations-path", envString("DB_MIGRATIONS_PATH", "file://migrations"), "Migrations source URL")

	fset.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fset.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fset.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fset.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")
	fset.DurationVar(&cfg.Redis.LayoutTTL, "redis-layout-ttl", envDuration("REDIS_LAYOUT_TTL", 5*time.Second), "How long seat maps stay cached")
	fset.BoolVar(&cfg.Redis.EventsEnabled, "redis-events", envBool("REDIS_EVENTS", true), "Publish booking events to Redis streams")

	fset.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fset.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fset.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fset.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fset.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "CineX <no-reply@cinex.example.com>"), "SMTP sender")

	fset.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_KEY", ""), "Stripe secret key, card payments are simulated when empty")
	fset.StringVar(&cfg.Stripe.Currency, "stripe-currency", envString("STRIPE_CURRENCY", "usd"), "Stripe charge currency")

	fset.StringVar(&cfg.AMQP.URL, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL, booking events are not queued when empty")

	fset.DurationVar(&cfg.Booking.ReservationTTL, "reservation-ttl", envDuration("RESERVATION_TTL", 10*time.Minute), "How long unpaid seats stay reserved")
	fset.DurationVar(&cfg.Booking.ReaperInterval, "reaper-interval", envDuration("REAPER_INTERVAL", time.Minute), "How often expired reservations are swept")
	fset.Float64Var(&cfg.Booking.PaymentLatencyScale, "payment-latency-scale", envFloat("PAYMENT_LATENCY_SCALE", 1), "Multiplier for simulated gateway latency")

	fset.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	displayVersion := fset.Bool("version", false, "Display version and exit")

	if err := fset.Parse(args); err != nil {
		return Config{}, false, err
	}

	return cfg, *displayVersion, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
