package main

import (
	"context"
	"errors"
	nhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-payout-simulator/config"
	"go-payout-simulator/domain"
	"go-payout-simulator/fixer"
	"go-payout-simulator/http"
	"go-payout-simulator/rates"
	"go-payout-simulator/simulation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger.Log("msg", "loading config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	level.Info(logger).Log("msg", "config loaded",
		"env", cfg.Env,
		"addr", cfg.HTTP.Addr,
		"fixer_url", cfg.Fixer.URL,
		"fixer_key", cfg.MaskedKey(),
		"refresh_interval", cfg.Rates.RefreshInterval,
		"max_age", cfg.Rates.MaxAge,
		"latency", cfg.Simulation.Latency,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fixerService := fixer.NewService(cfg.Fixer.APIKey,
		fixer.WithURL(cfg.Fixer.URL),
		fixer.WithTimeout(cfg.Fixer.Timeout),
		fixer.WithRetries(cfg.Fixer.MaxRetries, 500*time.Millisecond),
	)
	fixerService = fixer.NewLoggingService(log.With(logger, "component", "fixer"), fixerService)
	fixerService = fixer.NewInstrumentingService(reg, fixerService)

	store := rates.NewStore(fixerService, log.With(logger, "component", "rates"), rates.WithMaxAge(cfg.Rates.MaxAge))

	controller := simulation.NewController(store, simulation.Config{
		SourceCurrency: domain.Currency(cfg.Simulation.SourceCurrency),
		Latency:        cfg.Simulation.Latency,
	}, log.With(logger, "component", "simulation"))

	var simulator simulation.Service = controller
	simulator = simulation.NewLoggingService(log.With(logger, "component", "simulation"), simulator)
	simulator = simulation.NewInstrumentingService(reg, simulator)

	handler := http.NewServer(simulator, controller, store, log.With(logger, "component", "http"))
	handler.Source = domain.Currency(cfg.Simulation.SourceCurrency)
	handler.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx, cfg.Rates.RefreshInterval)

	srv := &nhttp.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	level.Info(logger).Log("msg", "listening", "addr", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nhttp.ErrServerClosed) {
		level.Error(logger).Log("msg", "http server", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Log) log.Logger {
	w := log.NewSyncWriter(os.Stderr)
	var logger log.Logger
	if cfg.Format == "json" {
		logger = log.NewJSONLogger(w)
	} else {
		logger = log.NewLogfmtLogger(w)
	}
	logger = level.NewFilter(logger, allow(cfg.Level))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger
}

func allow(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	}
	return level.AllowInfo()
}
