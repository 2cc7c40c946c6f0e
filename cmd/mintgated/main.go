package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mintgate/config"
	"mintgate/core"
	"mintgate/core/genesis"
	"mintgate/gateway"
	"mintgate/observability/logging"
	"mintgate/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "./config.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup("mintgated", cfg.Environment, cfg.LogFile)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		log.Fatalf("open state database: %v", err)
	}
	defer db.Close()

	contract, err := cfg.Contract()
	if err != nil {
		log.Fatalf("contract address: %v", err)
	}
	vault, err := cfg.Vault()
	if err != nil {
		log.Fatalf("vault address: %v", err)
	}

	node := core.NewNode(db, cfg.ChainID, contract, vault)

	initialized, err := node.State().Initialized()
	if err != nil {
		log.Fatalf("check genesis: %v", err)
	}
	if !initialized {
		doc, err := genesis.Load(cfg.GenesisFile)
		if err != nil {
			log.Fatalf("load genesis: %v", err)
		}
		if err := genesis.Apply(node.State(), doc); err != nil {
			log.Fatalf("apply genesis: %v", err)
		}
		if err := node.State().Commit(); err != nil {
			log.Fatalf("commit genesis: %v", err)
		}
		logger.Info("genesis applied", "file", cfg.GenesisFile)
	}

	registry := prometheus.NewRegistry()
	server := gateway.NewServer(node, logger, registry)

	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: server,
	}

	go func() {
		logger.Info("mintgate gateway listening", "address", cfg.ListenAddress, "chain_id", cfg.ChainID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
