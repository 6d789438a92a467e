// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/adspace/pkg/api"
	"github.com/adxyz/adspace/pkg/config"
	"github.com/adxyz/adspace/pkg/deposit"
	"github.com/adxyz/adspace/pkg/engine"
	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/log"
	"github.com/adxyz/adspace/pkg/metric"
	"github.com/adxyz/adspace/pkg/storage"
)

var (
	configPath = flag.String("config", "adspace.yaml", "Config file path")
	listen     = flag.String("listen", "", "Operation API address (overrides config)")
	dbPath     = flag.String("db-path", "", "Database path (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level (overrides config)")

	// Version info
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	fmt.Printf("adspace daemon %s (commit: %s)\n", Version, GitCommit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithLevel(cfg.LogLevel)
	defer logger.Sync()

	custodian, err := ids.FromString(cfg.Custody.Custodian)
	if err != nil {
		logger.Fatal("invalid custodian address", "error", err)
	}

	db, err := storage.NewStorage(cfg.Database.Type, cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	metrics := metric.NewMetrics(reg)

	eng := engine.New(db, engine.RealClock{}, nil, metrics, logger)
	adapter := deposit.NewAdapter(eng, custodian, cfg.Custody.Asset, &logBroadcaster{log: logger}, logger)
	// Withdrawals leave through the adapter's reverse path.
	eng.SetPayer(adapter)

	apiServer := api.NewServer(eng, adapter, nil, logger)

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      apiServer.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	adminSrv := &http.Server{
		Addr:    cfg.AdminListen,
		Handler: adminRouter(reg),
	}

	go func() {
		logger.Info("operation API listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failed", "error", err)
		}
	}()
	go func() {
		logger.Info("admin server listening", "addr", cfg.AdminListen)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("admin server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("API shutdown error", "error", err)
	}
	if err := adminSrv.Shutdown(ctx); err != nil {
		logger.Error("admin shutdown error", "error", err)
	}
	logger.Info("daemon stopped")
}

// adminRouter serves health and metrics.
func adminRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// logBroadcaster records outbound transfers in the log. The production
// deployment swaps in the external chain client here.
type logBroadcaster struct {
	log log.Logger
}

func (b *logBroadcaster) Broadcast(t *deposit.Transfer) error {
	b.log.Info("outbound transfer", "transfer", t.ID, "outputs", len(t.Outputs))
	return nil
}
