package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/app"
	"storefront/internal/grpcserver"
	"storefront/pkg/logging"
	"storefront/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to storefront.yaml")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	logger := logging.Must(cfg.Logging.Level, cfg.Logging.Development)
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	listener, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		logger.Fatal("grpc listen failed", zap.Error(err))
	}

	gs := grpcserver.NewServer(a.Carts, a.Products, logger.Named("grpc")).Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("stopping grpc server")
		gs.GracefulStop()
	}()

	logger.Info("grpc server listening", zap.String("addr", cfg.GrpcAddr))
	if err := gs.Serve(listener); err != nil {
		logger.Error("grpc server stopped", zap.Error(err))
	}
}
