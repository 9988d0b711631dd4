package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/shopcart/config"
	"github.com/niksmo/shopcart/internal/adapter"
	"github.com/niksmo/shopcart/internal/adapter/httphandler"
	"github.com/niksmo/shopcart/internal/adapter/identity"
	"github.com/niksmo/shopcart/internal/adapter/kafka"
	"github.com/niksmo/shopcart/internal/adapter/storage"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/internal/core/service"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	cartSnapshot  schema.Serde
	identityEvent schema.Serde
}

type storages struct {
	sqldb    storage.SQLDB
	local    storage.LocalStore
	carts    storage.CartsRepository
	products storage.ProductsRepository
	orders   storage.OrdersRepository
}

type broker struct {
	tlsConfig *tls.Config
	serdes    serdes
	producer  *kafka.CartSnapshotProducer
	processor *kafka.IdentityProcessor
	view      *kafka.IdentityView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	storages   storages
	identity   *identity.Registry
	broker     broker
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorages()
	if cfg.Broker.Enabled() {
		app.initBrokerTLS()
		app.initSerdes()
		app.initIdentityView()
	}
	app.initIdentity()
	if cfg.Broker.Enabled() {
		app.initBrokerAdapters()
	}
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorages() {
	const op = "App.initStorages"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	local, err := storage.NewLocalStore(app.cfg.LocalStorePath)
	if err != nil {
		app.fallDown(op, err)
	}

	app.storages = storages{
		sqldb:    sqldb,
		local:    local,
		carts:    storage.NewCartsRepository(sqldb),
		products: storage.NewProductsRepository(sqldb),
		orders:   storage.NewOrdersRepository(sqldb),
	}
}

func (app *App) initBrokerTLS() {
	const op = "App.initBrokerTLS"

	t := app.cfg.Broker.TLS
	if !t.Enabled() {
		return
	}

	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	kafka.ApplyTLS(tlsConfig)
	app.broker.tlsConfig = tlsConfig
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	ctx := app.ctx

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if app.broker.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.broker.tlsConfig))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	cartSnapshotSS := app.cfg.Broker.Topics.CartSnapshots + "-value"
	cartSnapshotSerde, err := schema.NewSerdeCartSnapshotV1(
		ctx,
		schema.SubjectOpt(cartSnapshotSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	identityEventSS := app.cfg.Broker.Topics.IdentityEvents + "-value"
	identityEventSerde, err := schema.NewSerdeIdentityEventV1(
		ctx,
		schema.SubjectOpt(identityEventSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.serdes = serdes{
		cartSnapshot:  cartSnapshotSerde,
		identityEvent: identityEventSerde,
	}
}

func (app *App) initIdentityView() {
	const op = "App.initIdentityView"

	b := app.cfg.Broker
	view, err := kafka.NewIdentityView(b.SeedBrokers, b.Consumers.IdentityGroup)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.view = view
}

func (app *App) initIdentity() {
	var opts []identity.RegistryOpt
	if app.broker.view != nil {
		opts = append(opts, identity.RecallerOpt(app.broker.view))
	}
	app.identity = identity.NewRegistry(opts...)
}

func (app *App) initBrokerAdapters() {
	const op = "App.initBrokerAdapters"

	b := app.cfg.Broker

	producer, err := kafka.NewCartSnapshotProducer(
		kafka.ProducerClientOpt(
			app.ctx, b.SeedBrokers, b.Topics.CartSnapshots, app.broker.tlsConfig,
		),
		kafka.ProducerEncoderOpt(app.broker.serdes.cartSnapshot),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	processor, err := kafka.NewIdentityProcessor(
		kafka.IdentityProcessorConfig{
			SeedBrokers: b.SeedBrokers,
			InputStream: b.Topics.IdentityEvents,
			Group:       b.Consumers.IdentityGroup,
			Serde:       app.broker.serdes.identityEvent,
			StoragePath: b.StoragePath,
		},
		app.identity,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.producer = &producer
	app.broker.processor = processor
}

func (app *App) initCoreService() {
	var events port.CartEventsProducer
	if app.broker.producer != nil {
		events = app.broker.producer
	}

	app.service = service.New(
		app.ctx,
		service.Deps{
			Remote:   app.storages.carts,
			Local:    app.storages.local,
			Catalog:  app.storages.products,
			Orders:   app.storages.orders,
			Identity: app.identity,
			Events:   events,
		},
		service.RemoteAttemptsOpt(app.cfg.RemoteAttempts),
	)
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterCart(mux, app.service)
	httphandler.RegisterOrders(mux, app.service)
	httphandler.RegisterIdentity(mux, app.identity)

	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, mux)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	if app.broker.view != nil {
		go app.broker.view.Run(app.ctx)
	}

	if app.broker.processor != nil {
		var wg sync.WaitGroup
		wg.Add(1)
		go app.broker.processor.Run(app.ctx, stopFn, &wg)
		wg.Wait()
	}

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.broker.processor != nil {
		app.broker.processor.Close()
	}
	app.service.Close()
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}
	app.storages.local.Close()
	app.storages.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
