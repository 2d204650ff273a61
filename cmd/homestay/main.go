package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homestay/internal/api"
	"homestay/internal/cart"
	"homestay/internal/checkout"
	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/domain"
	"homestay/internal/events"
	"homestay/internal/logging"
	"homestay/internal/metrics"
	"homestay/internal/models"
	"homestay/internal/repository"
	"homestay/internal/service"
	"homestay/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	rooms, err := loadRooms(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.cleanup()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})
	subscribeMetrics(eventBus)

	cartStore := cart.NewStore(backend.store, cfg.Storage.CartKey, eventBus, logging.WithComponent(logger, "cart"))
	cartStore.Subscribe(cart.ObserverFunc(func(count int, total int64, _ []models.BookingItem) {
		metrics.SetCart(count, total)
		logger.Debug().Int("count", count).Int64("total", total).Msg("cart changed")
	}))

	loaded := cartStore.Load(ctx)
	metrics.SetCart(len(loaded), loaded.Total())

	ids := cart.NewIDGenerator(nil)
	for _, item := range loaded {
		ids.Seed(item.ID)
	}

	roomService := service.NewRoomService(rooms, logging.WithComponent(logger, "rooms"))
	bookingService := service.NewBookingService(roomService, cartStore, ids, cfg.Booking.MaxBookingDays, logging.WithComponent(logger, "booking"))

	gateway := checkout.NewSimulatedGateway(
		time.Duration(cfg.Checkout.ProcessingDelayMS)*time.Millisecond,
		cfg.Checkout.DeclinedCards,
	)
	flow := checkout.NewFlow(cartStore, gateway, nil, eventBus, cfg.Checkout.Currency, logging.WithComponent(logger, "checkout"))
	startExportWorker(ctx, eventBus, flow.Receipts(), cfg.Exports.Path, backend.redis, logger)

	logger.Info().
		Str("backend", cfg.Storage.Backend).
		Int("rooms", len(rooms)).
		Int("cart_items", len(loaded)).
		Msg("homestay initialized")

	httpServer := api.NewHTTPServer(cfg.API, roomService, bookingService, flow, backend.ready, logging.WithComponent(logger, "http"))

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	return startServer(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.WithComponent(baseLogger, "main"), closer, nil
}

// loadRooms merges rooms from ROOMS_PATH (default configs/rooms.yaml) over
// the ones declared inline in the config. A missing rooms file is fine.
func loadRooms(cfg *config.Config, logger *zerolog.Logger) ([]models.Room, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}

	rooms := append([]models.Room(nil), cfg.Rooms...)

	roomsData, err := os.ReadFile(roomsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rooms, nil
		}
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("read rooms")
		return nil, err
	}

	var roomsConfig struct {
		Rooms []models.Room `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(roomsData, &roomsConfig); err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("parse rooms")
		return nil, err
	}

	byID := make(map[int64]int, len(rooms))
	for i, room := range rooms {
		byID[room.ID] = i
	}
	for _, room := range roomsConfig.Rooms {
		if i, ok := byID[room.ID]; ok {
			rooms[i] = room
			continue
		}
		byID[room.ID] = len(rooms)
		rooms = append(rooms, room)
	}

	if err := config.ValidateRooms(rooms); err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	return rooms, nil
}

type storeBackend struct {
	store   domain.KVStore
	ready   api.ReadinessFunc
	redis   *redis.Client // set only when redis answered at startup
	cleanup func()
}

// initStore opens the configured cart backend. cleanup is always non-nil.
func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (storeBackend, error) {
	storeLogger := logging.WithComponent(logger, "storage")
	backend := storeBackend{cleanup: func() {}}

	switch cfg.Storage.Backend {
	case models.StorageRedis:
		client := repository.NewRedisClient(cfg.Redis)
		backend.cleanup = func() { _ = repository.Close(client) }
		backend.store = repository.NewRedisRepository(client, time.Duration(cfg.Storage.TTL)*time.Second)
		backend.ready = func(ctx context.Context) error { return repository.Ping(ctx, client) }

		if err := repository.Ping(ctx, client); err != nil {
			if !cfg.Storage.Failover {
				backend.cleanup()
				return storeBackend{}, fmt.Errorf("redis: %w", err)
			}
			storeLogger.Warn().Err(err).Msg("redis connection failed, cart falls back to memory")
		} else {
			storeLogger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
			backend.redis = client
		}
		if cfg.Storage.Failover {
			failover := repository.NewFailoverRepository(backend.store, repository.NewMemoryRepository(), storeLogger)
			backend.store = failover
			backend.ready = failoverReadiness(failover)
		}

	case models.StorageSQLite:
		db, err := database.NewDB(cfg.Database.Path, storeLogger)
		if err != nil {
			storeLogger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return storeBackend{}, err
		}
		backend.store, backend.ready = db, db.PingContext
		backend.cleanup = func() { _ = db.Close() }
		storeLogger.Info().Str("driver", db.Driver()).Msg("cart stored in SQL database")

	case models.StoragePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres, storeLogger)
		if err != nil {
			return storeBackend{}, err
		}
		backend.store, backend.ready = db, db.PingContext
		backend.cleanup = func() { _ = db.Close() }
		storeLogger.Info().Str("driver", db.Driver()).Msg("cart stored in SQL database")

	default:
		backend.store = repository.NewMemoryRepository()
	}

	return backend, nil
}

// failoverReadiness reports not ready while the cart is served from memory.
func failoverReadiness(repo *repository.FailoverRepository) api.ReadinessFunc {
	return func(context.Context) error {
		if repo.IsDegraded() {
			return errors.New("primary store unavailable, cart served from memory")
		}
		return nil
	}
}

func subscribeMetrics(bus *events.EventBus) {
	cartOps := map[string]string{
		events.EventCartItemAdded:   "add",
		events.EventCartItemRemoved: "remove",
		events.EventCartCleared:     "clear",
	}
	for eventType, op := range cartOps {
		bus.Subscribe(eventType, func(*events.Event) error {
			metrics.IncCartOp(op)
			return nil
		})
	}
	bus.Subscribe(events.EventCheckoutCompleted, func(*events.Event) error {
		metrics.IncCheckout("success")
		return nil
	})
	bus.Subscribe(events.EventCheckoutFailed, func(*events.Event) error {
		metrics.IncCheckout("failed")
		return nil
	})
}

// startExportWorker writes an XLSX receipt for every completed checkout in
// the background.
func startExportWorker(
	ctx context.Context,
	bus *events.EventBus,
	receipts *checkout.ReceiptBook,
	dir string,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) {
	if dir == "" {
		return
	}

	exporter := worker.ExporterFunc(func(_ context.Context, receiptID string) (string, error) {
		receipt, err := receipts.Get(receiptID)
		if err != nil {
			return "", err
		}
		return checkout.ExportReceipt(receipt, dir)
	})
	exportWorker := worker.NewExportWorker(exporter, redisClient, worker.RetryPolicy{}, logging.WithComponent(logger, "export_worker"))
	go exportWorker.Start(ctx)

	bus.Subscribe(events.EventCheckoutCompleted, func(event *events.Event) error {
		var payload events.CheckoutEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		return exportWorker.Enqueue(ctx, payload.ReceiptID)
	})
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			logger.Warn().Msg("HTTP API is disabled in config")
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("homestay stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
