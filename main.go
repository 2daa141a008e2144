package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"wildcafe-pos/internal/auth"
	"wildcafe-pos/internal/catalog"
	"wildcafe-pos/internal/catalog/catalog_api"
	"wildcafe-pos/internal/config"
	"wildcafe-pos/internal/database"
	"wildcafe-pos/internal/database/migrations"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/events/redisrelay"
	"wildcafe-pos/internal/kafka"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/order"
	"wildcafe-pos/internal/order/db"
	"wildcafe-pos/internal/order/order_api"
	"wildcafe-pos/internal/printer"
	"wildcafe-pos/internal/receipt"
	"wildcafe-pos/internal/report"
	"wildcafe-pos/internal/report/report_api"
	"wildcafe-pos/internal/settings"
	"wildcafe-pos/internal/settings/settings_api"
	"wildcafe-pos/internal/users"
	"wildcafe-pos/internal/users/users_api"
	"wildcafe-pos/internal/utils"
)

// app holds every long lived dependency. main builds exactly one.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *bun.DB
	bus     *events.Bus
	events  events.Publisher
	sales   order.SalesRecorder
	printer order.Printer
	issuer  *auth.Issuer
	revoked auth.RevocationList
}

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.App.LogDir)
	defer log.Close()

	log.Info("APP", "Starting POS backend initialization")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg.Database, bunDB, log); err != nil {
		log.Fatal("DATABASE", err.Error())
	}

	a := &app{cfg: cfg, log: log, db: bunDB, bus: events.NewBus(log)}
	publishers := events.Fanout{a.bus}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, PoolSize: 10})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		log.Info("REDIS", fmt.Sprintf("Connected to %s", cfg.Redis.Addr))

		relay := redisrelay.New(redisClient, cfg.Redis.Channel, a.bus, log)
		publishers = append(publishers, relay)
		go func() {
			if err := relay.Run(ctx, nil); err != nil {
				log.Error("REDIS", fmt.Sprintf("Event relay stopped: %v", err))
			}
		}()
		a.revoked = auth.NewRedisRevocationList(redisClient)
	} else {
		a.revoked = auth.NewMemoryRevocationList()
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		publishers = append(publishers, producer)
		a.sales = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing events to %s", cfg.Kafka.Topic))
	}
	a.events = publishers

	a.printer = printer.NewDispatcher(
		&printer.ChromeRasterizer{ExecPath: cfg.Printer.ChromePath},
		&printer.CommandSpooler{Command: cfg.Printer.SpoolCommand},
		cfg.Printer.Timeout,
		log,
	)
	a.issuer = auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if a.issuer == nil {
		log.Warn("AUTH", "JWT_SECRET not set, API routes are not authenticated")
	}

	router, err := a.router()
	if err != nil {
		log.Fatal("APP", err.Error())
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("POS backend running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "POS backend shutdown complete")
	}
}

// prepareSchema runs the versioned migrations on Postgres and creates the
// tables directly on SQLite and MySQL.
func prepareSchema(ctx context.Context, cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) error {
	if !cfg.AutoMigrate {
		log.Info("DATABASE", "Auto migrate disabled")
		return nil
	}
	if !database.UsesMigrations(cfg.Driver) {
		return database.CreateSchema(ctx, bunDB)
	}

	runner := migrations.NewRunner(bunDB, log)
	if err := runner.Initialize(); err != nil {
		return err
	}
	if err := runner.Up(); err != nil {
		return err
	}
	version, dirty, err := runner.Version()
	if err == nil {
		log.Info("DATABASE", fmt.Sprintf("Schema at version %d (dirty=%t)", version, dirty))
	}
	return nil
}

func (a *app) router() (http.Handler, error) {
	renderer, err := receipt.NewRenderer()
	if err != nil {
		return nil, err
	}
	renderer.KitchenWidthMM = a.cfg.Printer.KitchenWidthMM
	renderer.ShopWidthMM = a.cfg.Printer.ShopWidthMM

	settingsService := settings.NewService(a.db, a.events, a.log).WithDefaultCurrency(a.cfg.App.DefaultCurrency)
	catalogService := catalog.NewService(a.db, a.events, a.log)
	usersService := users.NewService(a.db, a.log)

	orderDB := &db.DB{Bun: a.db}
	orderService := order.NewOrderService(orderDB, settingsService, renderer, a.printer, a.events, a.log)
	orderService.Location = a.cfg.App.Location()
	orderService.DefaultCurrency = a.cfg.App.DefaultCurrency
	if a.sales != nil {
		orderService.Sales = a.sales
	}

	reportService := report.NewService(orderDB, catalogService, a.log)
	reportService.Location = a.cfg.App.Location()

	orderHandler := order_api.NewHandler(orderService, a.log)
	catalogHandler := catalog_api.NewHandler(catalogService, a.log)
	settingsHandler := settings_api.NewHandler(settingsService, a.log)
	usersHandler := users_api.NewHandler(usersService, a.issuer, a.revoked, a.log)
	reportHandler := report_api.NewHandler(reportService, a.log)
	sseHandler := events.NewSSEHandler(a.bus, a.log)

	a.log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("database unavailable", "persistence"))
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "ok", map[string]int{"sse_clients": a.bus.ClientCount()})
	})

	r.Route("/api", func(r chi.Router) {
		// the SSE stream is not access logged
		r.Group(func(r chi.Router) {
			r.Use(utils.AccessLog(a.log))
			usersHandler.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.issuer, a.revoked, a.log))
			r.Get("/events", sseHandler.ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(utils.AccessLog(a.log))
				usersHandler.RegisterRoutes(r)
				catalogHandler.RegisterRoutes(r)
				settingsHandler.RegisterRoutes(r)
				orderHandler.RegisterRoutes(r)
				reportHandler.RegisterRoutes(r)
			})
		})
		a.log.Info("ROUTER", "API routes registered under /api")
	})

	return r, nil
}
