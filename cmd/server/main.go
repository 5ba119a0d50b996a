package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/jbetancur12/matplan/internal/config"
	"github.com/jbetancur12/matplan/internal/domain/allocation"
	"github.com/jbetancur12/matplan/internal/domain/bom"
	"github.com/jbetancur12/matplan/internal/domain/costing"
	"github.com/jbetancur12/matplan/internal/domain/kardex"
	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
	"github.com/jbetancur12/matplan/internal/domain/orders"
	"github.com/jbetancur12/matplan/internal/domain/planning"
	"github.com/jbetancur12/matplan/internal/domain/purchasing"
	"github.com/jbetancur12/matplan/internal/domain/stock"
	"github.com/jbetancur12/matplan/internal/domain/warehouses"
	"github.com/jbetancur12/matplan/internal/infra/db"
	httpx "github.com/jbetancur12/matplan/internal/infra/http"
	"github.com/jbetancur12/matplan/internal/infra/logger"
	"github.com/jbetancur12/matplan/internal/infra/notify"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfgPath := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	policy, err := lots.ParsePolicy(cfg.Planning.Policy)
	if err != nil {
		log.Error("bad planning policy", "err", err)
		return
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AlertChatID)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		notifier = tg
		log.Info("telegram alerts enabled", "chat_id", cfg.Telegram.AlertChatID)
	}

	var (
		materialRepo   = materials.NewPG(pool)
		lotRepo        = lots.NewPG(pool)
		correctionRepo = lots.NewCorrectionPG(pool)
		kardexRepo     = kardex.NewPG(pool)
		bomRepo        = bom.NewPG(pool)
		orderRepo      = orders.NewPG(pool)
		priceRepo      = purchasing.NewPG(pool)
		allocRepo      = allocation.NewPG(pool)
		warehouseRepo  = warehouses.NewPG(pool)
	)

	runner := db.NewRunner(pool)
	costEngine := costing.NewEngine(lotRepo, materialRepo, log)
	ledger := stock.NewLedger(runner, lotRepo, kardexRepo, materialRepo, costEngine, correctionRepo, log)
	planner := planning.NewPlanner(orderRepo, bomRepo, lotRepo, materialRepo, priceRepo, policy, log)
	recorder := allocation.NewRecorder(runner, allocRepo, orderRepo, lotRepo, materialRepo, ledger, notifier, log)

	handlers := httpx.NewHandlers(ledger, planner, recorder, orderRepo, materialRepo, warehouseRepo, log)
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, handlers)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
