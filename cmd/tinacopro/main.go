package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tinacopro/config"
	"tinacopro/engine"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/messaging"
	"tinacopro/stockcache"
	"tinacopro/store"
	"tinacopro/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "tinacopro.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("tinacopro", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)
	log := logger.WithField("module", "main")

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	log.Infof("database open (%s)", cfg.Database.Driver)

	// Redis backs the stock cache and, when configured, the stock locks.
	var rdb *redis.Client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis not available, running without stock cache")
	} else {
		log.Infof("redis connected (%s)", cfg.Redis.Address)
		rdb = redisClient
	}
	cancel()
	defer redisClient.Close()

	var lm locks.Manager = locks.NewLocalManager()
	if cfg.Locks.Backend == "redis" {
		if rdb == nil {
			log.Fatal("locks backend is redis but redis is not reachable")
		}
		lm = locks.NewRedisManager(rdb, cfg.Locks, logger)
		log.Info("stock locks held in redis")
	}

	cache := stockcache.New(db, rdb, logger)

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging, logger)
	if err := msgClient.Connect(); err != nil {
		log.WithError(err).Warn("messaging connect failed, events stay in the outbox")
	} else {
		log.Infof("messaging connected (%s)", cfg.Messaging.Backend)
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Locks:      lm,
		StockCache: cache,
		MsgClient:  msgClient,
		Logger:     logger,
	})
	eng.Start()
	defer eng.Stop()

	// Outbox drainer
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval, logger)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("web server")
		}
	}()

	log.WithField("version", Version).Info("ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Info("stopped")
}
