package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/user"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatalf("[user] db: %v", err)
	}
	defer pool.Close()

	l, err := net.Listen("tcp", cfg.UserListenAddr)
	if err != nil {
		log.Fatalf("[user] listen: %v", err)
	}

	srv := grpc.NewServer()
	user.RegisterUserServiceServer(srv, user.NewService(user.NewPGRepo(pool)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()

	log.Printf("user-service listening on %s", cfg.UserListenAddr)
	if err := srv.Serve(l); err != nil {
		log.Fatalf("[user] serve: %v", err)
	}
}
