package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/wealthflow-transfer/internal/adapter/fx"
	grpcadapter "github.com/simaogato/wealthflow-transfer/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-transfer/internal/adapter/repository/cache"
	"github.com/simaogato/wealthflow-transfer/internal/adapter/repository/postgres"
	"github.com/simaogato/wealthflow-transfer/internal/config"
	"github.com/simaogato/wealthflow-transfer/internal/logging"
	"github.com/simaogato/wealthflow-transfer/internal/usecase/seeder"
	"github.com/simaogato/wealthflow-transfer/internal/usecase/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.NewConfig(cfg.LogLevel, cfg.LogJSON))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Setup Database (retry until Postgres is up)
	var db *postgres.DB
	err = retry.Do(
		func() error {
			var err error
			db, err = postgres.NewDB(cfg.ConnectionString())
			return err
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Repositories (Postgres, accounts behind an LRU cache)
	accountRepo, err := cache.NewAccountCache(postgres.NewAccountRepository(db), cfg.AccountCacheSize)
	if err != nil {
		logger.Error("failed to create account cache", "error", err)
		os.Exit(1)
	}
	transactionRepo := postgres.NewTransactionRepository(db)
	rateRepo := postgres.NewRateRepository(db)

	// Seed system accounts
	if err := seeder.NewSystemSeeder(accountRepo).Seed(ctx); err != nil {
		logger.Error("failed to seed system accounts", "error", err)
		os.Exit(1)
	}
	logger.Info("system accounts seeded successfully")

	// 3. Exchange rates: configured seeds, then the latest stored rates
	seedRates, err := fx.ParseRates(cfg.FXRates)
	if err != nil {
		logger.Error("invalid FX_RATES", "error", err)
		os.Exit(1)
	}
	rateTable := fx.NewRateTable(cfg.FXBaseCurrency, seedRates)
	refresher := fx.NewRefresher(rateRepo, rateTable, logger)
	if err := refresher.Refresh(ctx); err != nil {
		logger.Warn("starting with configured exchange rates only", "error", err)
	}

	// 4. Initialize Services (Use Cases)
	transferService := transfer.NewTransferService(
		accountRepo,
		transactionRepo,
		rateTable,
		transfer.Options{SameCurrencyOnly: cfg.TransferSameCurrencyOnly},
		logger,
	)
	refresher.OnUpdate(transferService.RatesUpdated)

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)
	grpcadapter.RegisterTransferSessionServer(grpcServer, grpcadapter.NewServer(transferService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.FXRefreshInterval > 0 {
		g.Go(func() error {
			refresher.Run(gCtx, cfg.FXRefreshInterval)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("failed to serve gRPC server: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or when the server fails
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down gracefully")
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC server stopped")
}
