// Package engine assembles the plant services, owns the EventBus, and turns
// domain events into audit rows, outbox messages, and cache refreshes.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tinacopro/bom"
	"tinacopro/catalog"
	"tinacopro/config"
	"tinacopro/fifo"
	"tinacopro/ledger"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/messaging"
	"tinacopro/production"
	"tinacopro/shipping"
	"tinacopro/stockcache"
	"tinacopro/store"
)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Locks      locks.Manager
	StockCache *stockcache.Cache
	MsgClient  *messaging.Client
	Logger     logrus.FieldLogger
}

type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	locks      locks.Manager
	cache      *stockcache.Cache
	msgClient  *messaging.Client
	log        logrus.FieldLogger

	bom        *bom.Service
	catalog    *catalog.Service
	ledger     *ledger.Ledger
	production *production.Manager
	fifo       *fifo.Allocator
	shipping   *shipping.Manager

	Events       *EventBus
	stopChan     chan struct{}
	stopOnce     sync.Once
	msgConnected bool
	now          func() time.Time
}

func New(c Config) *Engine {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	lm := c.Locks
	if lm == nil {
		lm = locks.NewLocalManager()
	}
	cache := c.StockCache
	if cache == nil {
		cache = stockcache.New(c.DB, nil, logger)
	}

	e := &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		locks:      lm,
		cache:      cache,
		msgClient:  c.MsgClient,
		log:        logger.WithField("module", "engine"),
		Events:     NewEventBus(logger),
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}

	e.bom = bom.NewService(c.DB, logger)
	e.catalog = catalog.NewService(c.DB, e.bom, logger)
	e.ledger = ledger.New(c.DB, lm, &ledgerEmitter{bus: e.Events}, logger)
	e.production = production.NewManager(c.DB, e.bom, e.ledger, lm, &productionEmitter{bus: e.Events}, c.AppConfig.Production.OrderPrefix, logger)
	e.fifo = fifo.New(c.DB, lm, logger)
	e.shipping = shipping.NewManager(c.DB, e.fifo, lm, &shippingEmitter{bus: e.Events}, c.AppConfig.Production.ShipmentPrefix, logger)

	e.wireEventHandlers()
	return e
}

// Start warms the stock cache, subscribes to the floor topic when messaging
// is up, and begins the connection health loop.
func (e *Engine) Start() {
	if err := e.cache.SyncFromSQL(context.Background()); err != nil {
		e.log.WithError(err).Warn("stock cache sync from sql")
	}

	if e.msgClient != nil && e.msgClient.IsConnected() {
		consumer := messaging.NewConsumer(e.msgClient, e.cfg.Messaging.FloorTopic, &floorHandler{engine: e}, e.log)
		if err := consumer.Start(); err != nil {
			e.log.WithError(err).Warn("floor consumer subscribe failed")
		} else {
			e.log.WithField("topic", e.cfg.Messaging.FloorTopic).Info("floor consumer listening")
		}
	}

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.log.Info("engine started")
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.log.Info("engine stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                   { return e.db }
func (e *Engine) AppConfig() *config.Config       { return e.cfg }
func (e *Engine) ConfigPath() string              { return e.configPath }
func (e *Engine) BOM() *bom.Service               { return e.bom }
func (e *Engine) Catalog() *catalog.Service       { return e.catalog }
func (e *Engine) Ledger() *ledger.Ledger          { return e.ledger }
func (e *Engine) Production() *production.Manager { return e.production }
func (e *Engine) FIFO() *fifo.Allocator           { return e.fifo }
func (e *Engine) Shipping() *shipping.Manager     { return e.shipping }
func (e *Engine) StockCache() *stockcache.Cache   { return e.cache }
func (e *Engine) MsgClient() *messaging.Client    { return e.msgClient }
func (e *Engine) Logger() logrus.FieldLogger      { return e.log }

func (e *Engine) checkConnectionStatus() {
	if e.msgClient == nil {
		return
	}
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: e.cfg.Messaging.Backend + " connected"}})
		}
	} else if e.msgConnected {
		e.msgConnected = false
		e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.log.WithError(err).Error("messaging reconfigure")
	} else {
		e.log.Info("messaging reconfigured")
	}
	e.checkConnectionStatus()
}
