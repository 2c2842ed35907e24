package main // Entry point package

import (
	"context"   // shutdown deadline
	"errors"    // http.ErrServerClosed check
	"log"       // Logging library
	"net/http"  // server closed sentinel
	"os"        // stdout for component loggers
	"os/signal" // SIGINT/SIGTERM handling
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/google/uuid"                        // request ids
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo bundled middleware

	"github.com/iliyamo/planetarium-booking/internal/booking"    // reservation core
	"github.com/iliyamo/planetarium-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/planetarium-booking/internal/database"   // MySQL pool + schema
	"github.com/iliyamo/planetarium-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/planetarium-booking/internal/middleware" // rate limit + cache
	"github.com/iliyamo/planetarium-booking/internal/queue"      // RabbitMQ publisher/consumer
	"github.com/iliyamo/planetarium-booking/internal/repository" // MySQL repositories
	"github.com/iliyamo/planetarium-booking/internal/router"     // Internal router setup
	"github.com/iliyamo/planetarium-booking/internal/scheduler"  // maintenance jobs
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatalf("database: migrate: %v", err)
		}
		cancel()
		log.Printf("database: schema applied")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log.New(os.Stdout, "redis: ", log.LstdFlags))
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Booking core; events go to RabbitMQ when a broker is configured.
	var notifier booking.Notifier
	if cfg.Queue.URL != "" {
		notifier = queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Queue, log.New(os.Stdout, "rabbitmq: ", log.LstdFlags))
	} else {
		log.Printf("rabbitmq: RABBITMQ_URL not set, reservation events disabled")
	}
	svc := booking.NewService(reservations, notifier, booking.Options{
		AllowEmptyBatch: cfg.Reservation.AllowEmpty,
		PageSize:        cfg.Reservation.PageSize,
		MaxPageSize:     cfg.Reservation.MaxPageSize,
		Logger:          log.New(os.Stdout, "store: ", log.LstdFlags),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Queue.ConsumerEnabled && cfg.Queue.URL != "" {
		consumer := &queue.Consumer{
			URL:    cfg.Queue.URL,
			Queue:  cfg.Queue.Queue,
			LogDir: cfg.Queue.LogDir,
			Mailer: queue.NewGomailSender(config.LoadSMTPConfig()),
			Logger: log.New(os.Stdout, "booking-consumer: ", log.LstdFlags),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking-consumer: stopped: %v", err)
			}
		}()
	}

	jobs, err := scheduler.New(log.New(os.Stdout, "scheduler: ", log.LstdFlags))
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := jobs.AddTokenPurge(tokens, cfg.TokenPurgeInterval); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	jobs.Start()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	httpLog := log.New(os.Stdout, "http: ", log.LstdFlags)
	catalog := &handler.CatalogHandler{
		Themes:   repository.NewThemeRepo(db),
		Shows:    repository.NewShowRepo(db),
		Domes:    repository.NewDomeRepo(db),
		Sessions: repository.NewSessionRepo(db),
		Booking:  svc,
		Logger:   httpLog,
	}

	rateLimit := middleware.NewTokenBucket(rateCfg, rdb)
	router.RegisterRoutes(e, db) // Register application routes
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterCatalog(e, catalog, cfg.JWTSecret,
		rateLimit,
		middleware.InvalidateCache(cacheCfg, rdb, log.New(os.Stdout, "cache: ", log.LstdFlags)),
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	router.RegisterReservations(e, handler.NewReservationHandler(svc, httpLog), cfg.JWTSecret,
		middleware.NewTokenBucket(rateCfg.Booking(), rdb),
		rateLimit,
	)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := jobs.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
}
