// Package auth собирает gRPC-сервис идентификации: проверку токенов
// и решение о доступе для внутренних потребителей.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/speech-translator/internal/cache"
	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/grpc/authv1"
	"github.com/magabrotheeeer/speech-translator/internal/grpc/server"
	"github.com/magabrotheeeer/speech-translator/internal/lib/jwt"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	accountservice "github.com/magabrotheeeer/speech-translator/internal/services/account"
	authservice "github.com/magabrotheeeer/speech-translator/internal/services/auth"
	"github.com/magabrotheeeer/speech-translator/internal/storage/repository"
)

// App gRPC-сервис идентификации.
type App struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
}

// New создает сервис и открывает слушатель на cfg.GRPCAuthAddress.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	identity := authservice.NewService(db, cacheRedis, jwtMaker, logger)
	accounts := accountservice.NewService(db, cacheRedis, cfg.AccountTTL, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer()
	authv1.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(identity, accounts, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(authv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &App{
		grpcServer: grpcServer,
		health:     healthServer,
		listener:   lis,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
	}, nil
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.health.Shutdown()
		a.grpcServer.GracefulStop()
	case err = <-errCh:
	}

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close cache", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close storage", sl.Err(cerr))
	}
	return err
}
