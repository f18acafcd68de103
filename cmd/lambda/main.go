package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/cache"
	"github.com/awmpietro/golang-bayes-inference-case/internal/config"
	"github.com/awmpietro/golang-bayes-inference-case/internal/transport/lambdatransport"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	queryObserver := bayes.NewAsyncQueryObserver(bayes.NewQueryLogger(logger), cfg.ObsBuffer)
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
	h := lambdatransport.NewHandler(svc)

	lambda.Start(h.Handle)
}
