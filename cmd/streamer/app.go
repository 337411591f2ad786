package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"streamer/internal/annotation"
	"streamer/internal/auth"
	"streamer/internal/config"
	"streamer/internal/constants"
	"streamer/internal/filter"
	"streamer/internal/logger"
	"streamer/internal/nipsa"
	"streamer/internal/streamer"
	"streamer/internal/websocket"
	"streamer/pkg/bootstrap"
	celeval "streamer/pkg/cel"
	"streamer/pkg/health"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
	"streamer/pkg/middleware"
	"streamer/pkg/migrations"
	"streamer/pkg/ratelimit"
	"streamer/pkg/tracing"
)

// queueDegradedRatio is the queue fill level at which /health reports
// degraded.
const queueDegradedRatio = 0.9

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector

	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client

	queue      *streamer.AdmissionQueue
	dispatcher *streamer.Dispatcher
	registry   *websocket.Registry
	wsHandler  *websocket.Handler
	limiters   *ratelimit.Limiters

	nipsaBreaker health.BreakerState

	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterStreamerMetrics()
	metrics.RegisterWebSocketMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initStreamer(); err != nil {
		return fmt.Errorf("failed to initialize streamer: %w", err)
	}

	if err := a.InitSubscriber(a.redisClient); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redisClient = redisClient

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient

	if !a.Config.Database.RunMigrations {
		return nil
	}

	if err := migrations.RunPostgres(a.db); err != nil {
		return fmt.Errorf("failed to run postgres migrations: %w", err)
	}
	if a.mongoClient != nil {
		mongoCfg := a.Config.Database.MongoDB
		if err := migrations.EnsureAnnotationIndexes(ctx, a.mongoClient.Database(mongoCfg.Database), mongoCfg.Collection); err != nil {
			return fmt.Errorf("failed to create mongodb indexes: %w", err)
		}
	}
	a.Logger.InfowCtx(ctx, "Migrations applied")
	return nil
}

func (a *App) initStreamer() error {
	store, err := annotation.NewStore(a.Config.Store, a.db, a.mongoClient, a.Config.Database.MongoDB)
	if err != nil {
		return err
	}

	// The breaker guards Postgres; cache hits never reach it.
	var nipsaRepo nipsa.Repository = nipsa.NewPostgresRepository(a.db)
	nipsaRepo = nipsa.NewCircuitBreakerRepository(nipsaRepo, a.Config.CircuitBreaker)
	if breaker, ok := nipsaRepo.(health.BreakerState); ok {
		a.nipsaBreaker = breaker
	}
	if a.redisClient != nil {
		nipsaRepo = nipsa.NewCachedRepository(nipsaRepo, a.redisClient, a.Config.Nipsa.CacheTTL)
	}
	nipsaService := nipsa.NewService(nipsaRepo, a.Logger)

	evaluator, err := celeval.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create expression evaluator: %w", err)
	}

	a.queue = streamer.NewAdmissionQueue(a.Config.Streamer.QueueSize, a.Config.Streamer.PutTimeout)
	a.registry = websocket.NewRegistry()

	handlers := streamer.Handlers(
		streamer.NewAnnotationHandler(store, annotation.NewPresenter(), nipsaService, a.Logger),
		streamer.NewUserHandler(a.Logger),
	)
	a.dispatcher = streamer.NewDispatcher(a.queue, a.registry, handlers, a.Logger)

	a.wsHandler = websocket.NewHandler(
		a.Config.WebSocket,
		a.Config.Streamer,
		auth.NewPostgresAuthenticator(a.db),
		filter.NewParser(evaluator),
		a.registry,
		a.Logger,
	)

	if a.Config.WebSocket.RateLimit.Enabled {
		a.limiters = ratelimit.NewLimiters(a.Config.WebSocket.RateLimit)
	}
	return nil
}

func (a *App) initHTTPServer() error {
	a.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", a.Config.Server.Port),
		ReadTimeout: a.Config.Server.ReadTimeout,
		Handler:     a.router(),
	}
	return nil
}

func (a *App) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	quiet := []string{"/health", "/metrics"}
	router.Use(
		middleware.RecoveryMiddleware(a.Logger),
		middleware.RequestIDMiddleware(),
		tracing.GinMiddleware(constants.ServiceName, quiet...),
		middleware.LoggerMiddleware(a.Logger, quiet...),
	)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	healthRegistry.Register(health.NewQueueChecker(a.queue, queueDegradedRatio))
	if a.nipsaBreaker != nil {
		healthRegistry.Register(health.NewBreakerChecker("nipsa", a.nipsaBreaker))
	}

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	wsHandlers := []gin.HandlerFunc{a.wsHandler.Upgrade}
	if a.limiters != nil {
		wsHandlers = append([]gin.HandlerFunc{a.limiters.Middleware()}, wsHandlers...)
	}
	router.GET(a.Config.WebSocket.Path, wsHandlers...)

	return router
}

// Run blocks until ctx is done or a supervised consumer gives up. Each
// routing key gets its own consumer feeding the shared admission queue.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.registry.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	for _, routingKey := range a.Config.Broker.RoutingKeys {
		supervisor := streamer.NewSupervisor("consumer:"+routingKey, a.Config.Streamer.Supervisor, a.Logger)
		g.Go(func() error {
			consumerCtx := logging.WithRoutingKey(gCtx, routingKey)
			return supervisor.Run(consumerCtx, func(ctx context.Context) error {
				return streamer.ProcessMessages(ctx, a.Subscriber, routingKey, a.queue, a.Logger)
			})
		})
	}

	g.Go(func() error {
		return a.dispatcher.Run(gCtx)
	})

	if a.limiters != nil {
		g.Go(func() error {
			a.limiters.RunCleanup(gCtx)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down streamer", "connections", a.registry.Len())

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
