// Package premiumaccess assembles the access lifecycle service: storage,
// cache, gateway clients, event publisher and the HTTP server.
package premiumaccess

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-access/internal/cache"
	"github.com/magabrotheeeer/premium-access/internal/config"
	"github.com/magabrotheeeer/premium-access/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/premium-access/internal/migrations"
	"github.com/magabrotheeeer/premium-access/internal/otp"
	"github.com/magabrotheeeer/premium-access/internal/paymentprovider"
	accessservice "github.com/magabrotheeeer/premium-access/internal/services/access"
	paymentservice "github.com/magabrotheeeer/premium-access/internal/services/payment"
	registrationservice "github.com/magabrotheeeer/premium-access/internal/services/registration"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

// eventPublisher adapts a RabbitMQ channel to the services' publisher
// contract.
type eventPublisher struct {
	channel  *amqp.Channel
	exchange string
}

func (p *eventPublisher) Publish(routingKey string, message any) error {
	return rabbitmq.PublishMessage(p.channel, p.exchange, routingKey, message)
}

// App owns the resources of one running service instance.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	rabbit   *amqp.Connection
	rchannel *amqp.Channel
}

// New builds the full service from the config: it opens the database, runs
// migrations, connects the cache and the message broker and wires every
// handler into the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.URLRabbit, 5, 3*time.Second)
	if err != nil {
		return nil, err
	}
	channel, err := rabbitmq.SetupChannel(rabbitConn, cfg.Exchange, rabbitmq.GetLifecycleQueues())
	if err != nil {
		return nil, err
	}
	publisher := &eventPublisher{channel: channel, exchange: cfg.Exchange}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	verifier := otp.NewClient(cfg.AddressOTP, cfg.TimeoutOTP)
	gateway := paymentprovider.NewClient(cfg.APIURL, cfg.SecretKey)

	registrationSvc := registrationservice.New(db, verifier, jwtMaker, logger)
	accessSvc := accessservice.New(db, cacheRedis, logger)
	paymentSvc := paymentservice.New(db, gateway, cacheRedis, publisher, cfg.PaymentGateway, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, db,
		registrationSvc, accessSvc, paymentSvc)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		rabbit:   rabbitConn,
		rchannel: channel,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and releases the broker and database connections.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
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
		_ = a.rchannel.Close()
		_ = a.rabbit.Close()
		_ = a.db.DB.Close()
		return err
	}
}
