package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/currency"

	_ "github.com/MikeMC777/storefront/docs"
	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/inventory"
	ord "github.com/MikeMC777/storefront/internal/order"
)

// @title        Storefront Order Service
// @version      1.0
// @description  Cart, addresses and atomic order placement.
// @BasePath     /
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cur, err := currency.ParseISO(cfg.DefaultCurrency)
	if err != nil {
		log.Fatalf("[order] DEFAULT_CURRENCY: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatalf("[order] db: %v", err)
	}
	defer pool.Close()

	ext, err := ord.NewExt(cfg.UserSvcAddr)
	if err != nil {
		log.Fatalf("[order] user-service client: %v", err)
	}
	defer ext.Close()

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(deps{
		cart:      cart.NewPGStore(pool),
		stock:     inventory.NewPGLedger(pool),
		addresses: address.NewPGRepo(pool),
		orders:    ord.NewPGRepo(pool),
		placer:    checkout.NewPlacer(checkout.NewPGUnitOfWork(pool), cfg.PlaceOrderTimeout),
		users:     ext,
		currency:  cur,
	})

	srv := &http.Server{
		Addr:              cfg.OrderSvcAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("order-service listening on %s", cfg.OrderSvcAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[order] listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[order] shutdown: %v", err)
	}
}
