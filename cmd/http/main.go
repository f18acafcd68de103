package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/cache"
	"github.com/awmpietro/golang-bayes-inference-case/internal/config"
	"github.com/awmpietro/golang-bayes-inference-case/internal/metrics"
	"github.com/awmpietro/golang-bayes-inference-case/internal/transport/httptransport"
)

func main() {
	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := config.LoadFile(path)
		if err != nil {
			panic(err)
		}
		cfg = fileCfg
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	observers := bayes.MultiObserver{bayes.NewQueryLogger(logger)}
	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observers = append(observers, metrics.NewQueryMetrics(reg))
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	queryObserver := bayes.NewAsyncQueryObserver(observers, cfg.ObsBuffer)
	defer queryObserver.Close()

	engine := bayes.NewEngine(
		bayes.WithQueryObserver(queryObserver),
		bayes.WithMaxAssignments(cfg.MaxAssignments),
		bayes.WithTimeBudget(cfg.TimeBudget),
	)
	c, err := cache.NewLRU(cfg.CacheMaxItems)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}

	svc := app.NewService(app.NewSourceCompiler(), engine, c)
	httptransport.NewHandler(svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.RequestID(httptransport.AccessLog(logger, mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if dropped := queryObserver.Dropped(); dropped > 0 {
		logger.Warn("query events dropped", zap.Uint64("dropped", dropped))
	}
}
