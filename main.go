package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/mtproto"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/pdf"
	"photobook-order-bot/internal/photobook"
	"photobook-order-bot/internal/pkg"
	"photobook-order-bot/internal/pkg/config"
	"photobook-order-bot/internal/pkg/metrics"
	"photobook-order-bot/internal/reconciler"
	"photobook-order-bot/internal/telegram"

	"github.com/jackc/pgx"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v74"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal(err)
	}
	pkg.SetupLogger(cfg.LogLevel)

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig: pgx.ConnConfig{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.Username,
			Password: cfg.DB.Password,
			Database: cfg.DB.Database,
		},
		MaxConnections: cfg.DB.MaxConnections,
	})
	if err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal(err)
	}

	stripe.Key = cfg.Payment.StripeSecretKey

	pricing, err := checkout.NewPricing(cfg.Pricing)
	if err != nil {
		log.Fatal(err)
	}

	fileService := file.NewDefaultService(&cfg.FileService)
	orderService := order.NewDefaultService(order.NewDefaultRepo(pool))

	deps := telegram.Deps{
		FileService:  fileService,
		OrderService: orderService,
		Cards:        payment.NewStripeCards(),
		Charger:      payment.NewDefaultCharger(),
		PDF:          pdf.NewMarotoGenerator(),
		Addresses:    delivery.NewRedisStore(rdb, cfg.Redis.KeyPrefix+"delivery:"),
		Albums:       photobook.NewRedisStore(rdb, cfg.Redis.KeyPrefix+"album:", cfg.Redis.AlbumTTL),
		Pricing:      pricing,
	}

	var mtprotoClient *mtproto.Client
	if cfg.MTProto.Enabled() {
		mtprotoClient, err = mtproto.NewClient(ctx, &cfg.MTProto, cfg.TelegramCfg.Token)
		if err != nil {
			slog.Warn("Large photo downloads are disabled", "error", err)
		} else {
			deps.LargeFiles = mtprotoClient
		}
	}

	bot, err := telegram.NewBot(deps, cfg)
	if err != nil {
		log.Fatal(err)
	}
	bot.Start(ctx)

	reconcilerService := reconciler.NewDefaultService(orderService, fileService, bot.Sessions(), &cfg.Reconciler)
	reconcilerService.Start(ctx)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutting down...")
	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*15)
	defer shutdown()

	if err := bot.Shutdown(ctx); err != nil {
		slog.Error("Failed to stop bot", "error", err)
	}
	if err := reconcilerService.Stop(ctx); err != nil {
		slog.Error("Failed to stop reconciler", "error", err)
	}
	if err := fileService.Wait(ctx); err != nil {
		slog.Error("Failed to wait for downloads", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Failed to stop metrics server", "error", err)
		}
	}
	if mtprotoClient != nil {
		if err := mtprotoClient.Close(); err != nil {
			slog.Error("Failed to close mtproto client", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		slog.Error("Failed to close redis client", "error", err)
	}
	pool.Close()
}
