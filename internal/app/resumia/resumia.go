package resumia

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/resumia/resumia-backend/internal/cache"
	"github.com/resumia/resumia-backend/internal/config"
	"github.com/resumia/resumia-backend/internal/lib/jwt"
	"github.com/resumia/resumia-backend/internal/migrations"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
	"github.com/resumia/resumia-backend/internal/rabbitmq"
	authservice "github.com/resumia/resumia-backend/internal/services/auth"
	checkoutservice "github.com/resumia/resumia-backend/internal/services/checkout"
	reconcilerservice "github.com/resumia/resumia-backend/internal/services/reconciler"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.ConnectionString, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.Queues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gatewayClient := paymentprovider.NewClient(cfg.Gateway.AccessToken, cfg.Gateway.APIURL)

	authService := authservice.NewAuthService(db, publisher, cacheRedis, jwtMaker, logger)
	checkoutService := checkoutservice.NewCheckoutService(gatewayClient, cfg.BaseURL)
	reconcilerService := reconcilerservice.NewReconcilerService(db, db, gatewayClient, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, checkoutService, reconcilerService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
