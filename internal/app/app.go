package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/shopy/internal/adapter/handler"
	"github.com/rl1809/shopy/internal/adapter/messaging"
	"github.com/rl1809/shopy/internal/adapter/storage"
	"github.com/rl1809/shopy/internal/config"
	"github.com/rl1809/shopy/internal/core/service"
	"github.com/rl1809/shopy/internal/port"
)

// App is a fully wired shop server: repositories, services, the order event
// workers and both transports.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	services  handler.Services
	orders    *service.OrderService
	publisher port.OrderEventPublisher
	closers   []func() error
}

type Option func(*App)

// WithPublisher replaces the publisher chosen from configuration.
func WithPublisher(pub port.OrderEventPublisher) Option {
	return func(a *App) { a.publisher = pub }
}

type backends struct {
	accounts port.AccountRepository
	orders   port.OrderRepository
	products port.ProductRepository
	prefs    port.PreferenceRepository
	cache    port.CacheRepository
}

// New connects the configured backends and builds the services. On error
// everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	shutdownTracing, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		return shutdownTracing(context.Background())
	})

	b, err := a.openBackends(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.publisher == nil {
		if err := a.openPublisher(); err != nil {
			a.Close()
			return nil, err
		}
	}

	directory, err := service.DefaultDirectory()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.orders = service.NewOrderService(b.cache, b.orders, cfg.Messaging.QueueSize, cfg.GetConfirmDelay()).WithLogger(logger)
	a.services = handler.Services{
		Accounts:    service.NewAccountService(b.accounts, logger, cfg.Auth.BcryptCost),
		Sessions:    service.NewSessionManager(b.cache, a.orders, cfg.GetSessionTTL()),
		OTP:         service.NewOTPService(cfg.Auth.OTPCode, cfg.GetOTPDelay(), logger),
		Orders:      a.orders,
		Catalog:     service.NewCatalogService(b.products),
		Directory:   directory,
		Preferences: service.NewPreferenceService(b.prefs),
	}
	return a, nil
}

func (a *App) Services() handler.Services {
	return a.services
}

func (a *App) openBackends(ctx context.Context) (backends, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendRedis:
		r, err := a.openRedis(ctx)
		if err != nil {
			return backends{}, err
		}
		return backends{accounts: r, orders: r, products: r, prefs: r, cache: r}, nil

	case config.BackendMySQL:
		db, err := a.openMySQL(ctx)
		if err != nil {
			return backends{}, err
		}
		r, err := a.openRedis(ctx)
		if err != nil {
			return backends{}, err
		}
		return backends{accounts: db, orders: db, products: db, prefs: db, cache: r}, nil
	}

	m := storage.NewMemoryAdapter()
	a.logger.Info("using in-memory storage")
	return backends{accounts: m, orders: m, products: m, prefs: m, cache: m}, nil
}

func (a *App) openRedis(ctx context.Context) (*storage.RedisAdapter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Storage.RedisAddr,
		PoolSize: 100,
	})
	a.closers = append(a.closers, rdb.Close)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	a.logger.Info("connected to redis", zap.String("addr", a.cfg.Storage.RedisAddr))
	return storage.NewRedisAdapter(rdb), nil
}

func (a *App) openMySQL(ctx context.Context) (*storage.MySQLAdapter, error) {
	db, err := sql.Open("mysql", a.cfg.Storage.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	a.closers = append(a.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		return nil, err
	}
	a.logger.Info("connected to mysql")
	return adapter, nil
}

func (a *App) openPublisher() error {
	if a.cfg.Messaging.RabbitMQURL == "" {
		a.publisher = messaging.NewLogPublisher(a.logger)
		return nil
	}

	pub, err := messaging.DialRabbitMQ(a.cfg.Messaging.RabbitMQURL, a.cfg.Messaging.Exchange, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pub.Close)
	a.publisher = pub
	return nil
}

// Run listens on the configured addresses and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", a.cfg.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("failed to listen grpc: %w", err)
	}
	return a.Serve(ctx, httpLis, grpcLis)
}

// Serve runs the publish workers and both servers on the given listeners.
// When ctx is done the servers drain, the order queue is closed and the
// workers finish publishing what was already queued.
func (a *App) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	var wg sync.WaitGroup
	for i := 0; i < a.cfg.Messaging.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service.PublishLoop(id, a.orders.GetOrderQueue(), a.publisher, a.logger)
		}(i)
	}
	a.logger.Info("started workers", zap.Int("count", a.cfg.Messaging.Workers))

	grpcServer := grpc.NewServer()
	handler.RegisterShopServer(grpcServer, handler.NewGRPCHandler(a.services, a.logger))
	healthServer := health.NewServer()
	healthServer.SetServingStatus("shopy.Shop", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	httpServer := &http.Server{
		Handler:           a.httpHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("gRPC server listening", zap.String("addr", grpcLis.Addr().String()))
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GetShutdownTimeout())
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		a.logger.Info("HTTP server stopped")

		healthServer.Shutdown()
		grpcServer.GracefulStop()
		a.logger.Info("gRPC server stopped")
		return err
	})

	err := g.Wait()

	a.orders.Close()
	wg.Wait()
	a.logger.Info("workers stopped")
	return err
}

func (a *App) httpHandler() http.Handler {
	routes := handler.NewHTTPHandler(a.services, a.logger).Routes()
	return traced(routes, a.cfg.Tracing.ServiceName)
}

// Close releases backend and broker connections and flushes traces.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the production zap logger at level.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}
