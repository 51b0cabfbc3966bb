package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"okxgateway/internal/config"
	"okxgateway/internal/gateway"
	"okxgateway/internal/gwlog"
	"okxgateway/internal/metrics"
)

func main() {
	log := gwlog.Get()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAgeDays); err != nil {
		log.WithError(err).Error("failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(gwlog.Fields{
		"service": cfg.Gateway.Name,
		"version": cfg.Gateway.Version,
	}).Info("starting okx market data gateway")

	registry := metrics.NewRegistry()

	gw := gateway.NewOkxGateway(
		gateway.WithEndpoint(cfg.Gateway.WebSocket.Host, cfg.Gateway.WebSocket.Port, cfg.Gateway.WebSocket.Path),
		gateway.WithRingCapacity(uint64(cfg.Gateway.RingCapacity)),
		gateway.WithReconnectBackoff(cfg.Gateway.ReconnectBackoff.Duration()),
		gateway.WithWorkerIdleSleep(cfg.Gateway.WorkerIdleSleep.Duration()),
		gateway.WithRegistry(registry),
	)
	gw.SetInstruments(cfg.Gateway.Instruments)

	lastQuote := make(map[string]gateway.BestQuote, len(cfg.Gateway.Instruments))
	gw.SetBestQuoteCallback(func(q gateway.BestQuote) {
		prev, seen := lastQuote[q.InstrumentID]
		changed := !seen ||
			prev.BestBidPrice != q.BestBidPrice || prev.BestBidSize != q.BestBidSize ||
			prev.BestAskPrice != q.BestAskPrice || prev.BestAskSize != q.BestAskSize
		if changed {
			log.WithFields(gwlog.Fields{
				"instrument":  q.InstrumentID,
				"best_bid":    q.BestBidPrice,
				"best_bid_sz": q.BestBidSize,
				"best_ask":    q.BestAskPrice,
				"best_ask_sz": q.BestAskSize,
				"latency_ns":  q.TickToBookLatencyNs,
			}).Info("best quote")
			lastQuote[q.InstrumentID] = q
		}
	})

	log.Debug("starting okx market data gateway")
	if err := gw.Start(); err != nil {
		log.WithError(err).Error("failed to start gateway")
		os.Exit(1)
	}

	// Give the session a moment to attempt its first connection before the
	// metrics reporter starts logging zeroed rates.
	time.Sleep(3 * time.Second)

	reporter := metrics.NewReporter(registry, cfg.Metrics.RateInterval.Duration(), cfg.Metrics.LatencyInterval.Duration())
	reporter.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.WithFields(gwlog.Fields{"signal": sig.String()}).Info("shutdown signal received")

	gw.Stop()
	reporter.Stop()
	log.Info("shutdown complete")
}
