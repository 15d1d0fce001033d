package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/api/handlers"
	"github.com/gocomet/ride-booking/internal/api/routes"
	"github.com/gocomet/ride-booking/internal/auth"
	"github.com/gocomet/ride-booking/internal/config"
	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/repository/memory"
	"github.com/gocomet/ride-booking/internal/repository/postgres"
	"github.com/gocomet/ride-booking/internal/service/metrics"
	"github.com/gocomet/ride-booking/internal/service/notify"
	"github.com/gocomet/ride-booking/internal/service/rides"
	"github.com/gocomet/ride-booking/internal/service/users"
	"github.com/gocomet/ride-booking/pkg/cache"
	"github.com/gocomet/ride-booking/pkg/database"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/gocomet/ride-booking/pkg/monitoring"
	"github.com/gocomet/ride-booking/pkg/mq"
	"github.com/gocomet/ride-booking/pkg/websocket"
	"github.com/redis/go-redis/v9"
)

const statsInterval = time.Minute

type repositories struct {
	rides   ride.Repository
	users   user.Repository
	drivers driver.Repository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		appLogger.Fatal("Invalid server timezone", logger.Err(err))
	}

	appLogger.Info("Starting ride booking service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("store", cfg.Store.Driver),
		logger.String("timezone", loc.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize the store
	var (
		repos repositories
		db    *sql.DB
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		repos = repositories{rides: store.Rides(), users: store.Users(), drivers: store.Drivers()}
		appLogger.Warn("Using in-memory store; data is lost on restart")
	default:
		db, err = database.NewPostgresDB(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.Name,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    cfg.Database.MaxConnections,
			MaxIdle:     cfg.Database.MaxIdleConns,
			MaxLifetime: cfg.Database.MaxLifetime,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			appLogger.Fatal("Failed to apply database schema", logger.Err(err))
		}
		repos = repositories{
			rides:   postgres.NewRideRepository(db),
			users:   postgres.NewUserRepository(db),
			drivers: postgres.NewDriverRepository(db),
		}
		appLogger.Info("Connected to PostgreSQL successfully")
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer cache.Close(redisClient)
		appLogger.Info("Connected to Redis successfully")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run(ctx)

	// Ride events go to live clients, the metrics cache and optionally RabbitMQ
	events := notify.NewFanout(appLogger, notify.NewHubPublisher(wsHub))

	var snapshots metrics.SnapshotCache
	if redisClient != nil {
		metricsCache := metrics.NewRedisCache(redisClient, cfg.Cache.TTLMetrics)
		snapshots = metricsCache
		events.Add(notify.NewCacheInvalidator(metricsCache))
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := mq.Connect(ctx, mq.Config{
			URL:          cfg.RabbitMQ.URL,
			Exchange:     cfg.RabbitMQ.Exchange,
			DialAttempts: cfg.RabbitMQ.DialAttempts,
			RetryDelay:   cfg.RabbitMQ.RetryDelay,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to RabbitMQ", logger.Err(err))
		}
		defer publisher.Close()
		events.Add(notify.NewAMQPPublisher(publisher))
		appLogger.Info("Connected to RabbitMQ successfully", logger.String("exchange", cfg.RabbitMQ.Exchange))
	}

	// Initialize services
	rideService := rides.NewService(repos.rides, repos.drivers, repos.users, events, appLogger, rides.Config{Location: loc})
	userService := users.NewService(repos.users, repos.drivers, snapshots, appLogger)
	aggregator := metrics.NewAggregator(repos.rides, repos.users, repos.drivers, snapshots, appLogger, loc)
	verifier := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(rideService, userService, aggregator, wsHub, verifier, nrApp, appLogger)
	h.Upgrader.ReadBufferSize = cfg.WebSocket.ReadBufferSize
	h.Upgrader.WriteBufferSize = cfg.WebSocket.WriteBufferSize
	if redisClient != nil {
		h.Idempotency = cache.NewIdempotencyStore(redisClient, cfg.Cache.TTLIdempotency, cfg.Cache.IdempotencyLock)
	}

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	routes.SetupRoutes(router, h, repos.users, cfg.CORS, nrApp)

	appLogger.Info("Routes configured successfully")

	go reportPoolStats(ctx, nrApp, db, redisClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	stop()

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

// reportPoolStats forwards connection pool statistics to New Relic until ctx ends
func reportPoolStats(ctx context.Context, nrApp *monitoring.NewRelicApp, db *sql.DB, redisClient *redis.Client) {
	if !nrApp.IsEnabled() {
		return
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db != nil {
				nrApp.RecordDatabasePoolStats(database.PoolStats(db))
			}
			if redisClient != nil {
				nrApp.RecordRedisPoolStats(cache.GetClientStats(redisClient))
			}
		}
	}
}
