package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/cache"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/config"
	httpapi "github.com/Buithihuong2210/AliceSkin-BE-Final/internal/http"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/publisher"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/service"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	creds := &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return err
	}
	log.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The cart still works from Postgres; every cache call degrades to a miss.
		log.Warn("redis unavailable, cart cache degraded", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	cancelPing()

	payments := publisher.NewPaymentPublisher(cfg.Kafka.PaymentTopic, cfg.Kafka.Brokers...)
	defer payments.Close()

	gateway := vnpay.NewClient(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PayURL:     cfg.VNPay.PayURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
	})
	var query *vnpay.QueryClient
	if cfg.VNPay.QueryURL != "" {
		query = vnpay.NewQueryClient(gateway, cfg.VNPay.QueryURL, cfg.VNPay.Timeout)
	} else {
		log.Warn("VNPAY_QUERY_URL not set, unpaid gateway orders fail on delivery confirmation")
	}

	handlers := httpapi.Handlers{
		Catalog: httpapi.NewCatalogHandler(service.NewCatalogService(repo)),
		Cart:    httpapi.NewCartHandler(service.NewCartService(repo, cache.NewRedisCache(redisClient, cfg.Redis.CartTTL))),
		Orders:  httpapi.NewOrdersHandler(service.NewOrderService(repo, service.NewLedgerStatusChecker(repo, query))),
		Payments: httpapi.NewPaymentHandler(service.NewPaymentService(repo, gateway, payments, service.PaymentConfig{
			MinAmount:      cfg.VNPay.MinAmount,
			MaxAmount:      cfg.VNPay.MaxAmount,
			VerifyCallback: cfg.VNPay.VerifyCallback,
			OrderURL:       cfg.OrderURL,
		})),
		Store: httpapi.NewStoreHandler(service.NewShippingService(repo), service.NewVoucherService(repo)),
	}
	router := httpapi.NewRouter(handlers, httpapi.NewAuthenticator(cfg.JWT.Secret), log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shop-http"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	return g.Wait()
}
