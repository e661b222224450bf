package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microlend/bank"
	"microlend/config"
	"microlend/lending"
	"microlend/lendstate"
	"microlend/observability/logging"
	"microlend/rpc"
	"microlend/storage"
)

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Setup("microlendd", "").Error("load config", "err", err)
		os.Exit(1)
	}

	log := logging.Setup("microlendd", cfg.Environment)

	var db storage.Database
	if cfg.DataDir != "" {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			log.Error("open database", "dataDir", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		db = ldb
		log.Info("storage opened", "backend", "leveldb", "dataDir", cfg.DataDir)
	} else {
		db = storage.NewMemDB()
		log.Warn("no data directory configured, state will not survive restarts")
	}
	defer db.Close()

	store := lendstate.NewStore(db)
	book := bank.NewBook(db)

	engine := lending.NewEngine(systemClock{}, book, cfg.TreasuryAccount)
	engine.SetState(store)

	if cfg.SeedsPlatform() {
		if err := seedPlatform(engine, cfg); err != nil {
			log.Error("seed platform", "err", err)
			os.Exit(1)
		}
	}

	server := rpc.NewServer(engine, store, book, log, cfg.RateLimitPerMin)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "address", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("shutdown", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "err", err)
			os.Exit(1)
		}
	}
}

// seedPlatform initializes the platform account from config on first start.
// An already initialized platform is left untouched.
func seedPlatform(engine *lending.Engine, cfg config.Config) error {
	_, err := engine.InitPlatform(cfg.Platform.FeeBps, cfg.Platform.MinLoanAmount, cfg.Platform.MaxLoanAmount)
	if errors.Is(err, lending.ErrAlreadyRegistered) {
		return nil
	}
	return err
}
