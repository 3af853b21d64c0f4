package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	appnotification "github.com/Zhima-Mochi/minishop-commerce/internal/application/notification"
	apporder "github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/config"
	domnotif "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	notifsenders "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/notification"
	infraobs "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-commerce/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-commerce/internal/presentation/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// store is a Transactor that may hold resources.
type store interface {
	application.Transactor
	Close() error
}

type memoryStore struct{ *memory.Store }

func (memoryStore) Close() error { return nil }

// openStore builds the configured backend; sqlite is migrated on open.
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Storage.SQLitePath, err)
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return s, nil
	default:
		return memoryStore{memory.NewStore()}, nil
	}
}

// telemetry owns the process-wide observability resources.
type telemetry struct {
	tel      observability.Observability
	logger   observability.Logger
	registry *prometheus.Registry
	tp       *sdktrace.TracerProvider
}

func newTelemetry(cfg *config.Config) (*telemetry, error) {
	logger, err := zaplogger.New(
		logging.Options{Level: cfg.Log.Level, File: cfg.Log.File},
		observability.F("service", cfg.Service.Name),
		observability.F("env", cfg.Service.Env),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infraobs.Register(prometrics.New(cfg.Metrics.Namespace, "", reg))

	tp := oteltrace.NewProvider(cfg.Service.Name, cfg.Tracing.SampleRatio)
	tel := infraobs.New(oteltrace.New(cfg.Service.Name, tp), logger, metrics)
	return &telemetry{tel: tel, logger: logger, registry: reg, tp: tp}, nil
}

func (t *telemetry) metricsHandler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}

func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	if err := t.tp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if s, ok := t.logger.(interface{ Sync() error }); ok {
		// stdout sync fails with EINVAL on some platforms; nothing to do about it.
		_ = s.Sync()
	}
	return errors.Join(errs...)
}

// app is the fully composed service.
type app struct {
	cfg     *config.Config
	store   store
	bus     *outbox.Bus
	tel     *telemetry
	handler *httppresentation.Handler
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	t, err := newTelemetry(cfg)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		_ = t.shutdown(ctx)
		return nil, err
	}
	methods, err := cfg.PaymentMethods()
	if err != nil {
		_ = st.Close()
		_ = t.shutdown(ctx)
		return nil, err
	}

	tel := t.tel
	idGen := id.NewUUID()
	bus := outbox.NewBus(tel)

	dispatcher := appnotification.NewDispatcher(tel, notifsenders.LogSenders(tel.Logger())...)
	var notifier domnotif.Notifier = dispatcher
	if cfg.Notification.Async {
		appnotification.NewWorker(workerpresentation.NewSubscriber(bus, tel), dispatcher, tel).Start()
		notifier = appnotification.NewQueue(bus, idGen, tel)
	}

	clock := func() time.Time { return time.Now().UTC() }
	resolver := apppayment.NewResolver(methods,
		apppayment.CreditCard{},
		apppayment.Pix{},
		apppayment.NewBoleto(clock),
	)
	payments := apppayment.NewProcessPaymentUseCase(resolver, cfg.Payment.Timeout, tel)
	creator := apporder.NewCreateOrderUseCase(st, idGen, tel)

	svc := httppresentation.Services{
		CreateProduct:    appproduct.NewCreateProductUseCase(st, idGen, tel),
		ListProducts:     appproduct.NewListProductsUseCase(st, tel),
		Carts:            appcart.NewService(st, idGen, tel),
		PlaceOrder:       apporder.NewPlaceOrderUseCase(creator, payments, st, notifier, cfg.Notification.DefaultRecipient, tel),
		ListOrders:       apporder.NewListOrdersUseCase(st, tel),
		ProcessPayment:   payments,
		SendNotification: appnotification.NewSendNotificationUseCase(notifier, tel),
	}

	return &app{
		cfg:     cfg,
		store:   st,
		bus:     bus,
		tel:     t,
		handler: httppresentation.NewHandler(svc, t.metricsHandler(), tel),
	}, nil
}

func (a *app) close(ctx context.Context) {
	a.bus.Stop(ctx)
	if err := a.store.Close(); err != nil {
		a.tel.logger.Error("store_close_failed", observability.F("error", err.Error()))
	}
	if err := a.tel.shutdown(ctx); err != nil {
		a.tel.logger.Error("telemetry_shutdown_failed", observability.F("error", err.Error()))
	}
}
