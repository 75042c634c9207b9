// Package radiusremoteclient собирает приложение: хранилище общей базы
// RADIUS, кодек профиля NAS, кеш, реестр веб-хуков, шину событий и
// HTTP-сервер административного API.
package radiusremoteclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/cache"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/config"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/secret"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/migrations"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/rabbitmq"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/radius"
	subscriberservice "github.com/SV-Com/RADIUS-Remote-Client/internal/services/subscriber"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/storage"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/webhooks"

	"github.com/streadway/amqp"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	amqp   *amqp.Connection
}

// policyStore адаптирует хранилище к интерфейсу движка: Begin отдаёт
// транзакцию как subscriberservice.PolicyTx.
type policyStore struct {
	*storage.Storage
}

func (s policyStore) Begin(ctx context.Context) (subscriberservice.PolicyTx, error) {
	return s.Storage.Begin(ctx)
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.Storage.Driver, cfg.Storage.ConnectionString, cfg.Storage.TablePrefix)
	if err != nil {
		return nil, err
	}

	// путь к миграциям пуст, когда схемой владеет AAA-сервер
	if cfg.MigrationsPath != "" {
		if err = migrations.Run(db.DB, cfg.Storage.Driver, cfg.MigrationsPath); err != nil {
			return nil, err
		}
	}

	profile, err := radius.ParseProfile(cfg.NASType)
	if err != nil {
		return nil, err
	}
	codec := radius.NewCodec(profile)

	secretFormat, err := secret.ParseFormat(cfg.SecretFormat)
	if err != nil {
		return nil, err
	}

	var svcCache subscriberservice.Cache = cache.Noop{}
	if cfg.RedisConnection.Enabled {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, err
		}
		svcCache = cacheRedis
	}

	var registry *webhooks.Registry
	if cfg.Webhooks.Enabled {
		registry = webhooks.NewRegistry(cfg.Webhooks.File)
	}

	var publisher webhooks.EventPublisher
	var busConn *amqp.Connection
	if cfg.EventBus.Enabled {
		busConn, err = rabbitmq.Connect(cfg.EventBus.URL, cfg.EventBus.Retries, cfg.EventBus.RetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(busConn, cfg.EventBus.Exchange)
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch, cfg.EventBus.Exchange)
	}

	dispatcher := webhooks.NewDispatcher(logger, registry, publisher)

	subscriberService := subscriberservice.New(
		policyStore{db}, codec, secretFormat, svcCache, dispatcher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, subscriberService, registry, db)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   busConn,
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
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		if a.amqp != nil {
			if closeErr := a.amqp.Close(); closeErr != nil {
				a.logger.Error("failed to close event bus connection", sl.Err(closeErr))
			}
		}
		return err
	}
}
