package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/bls"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/fred"
	httpadapter "github.com/couchcryptid/public-data-proxy/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/public-data-proxy/internal/adapter/kafka"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/mapbox"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/openmeteo"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/spc"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/treasury"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/yahoo"
	"github.com/couchcryptid/public-data-proxy/internal/aggregate"
	"github.com/couchcryptid/public-data-proxy/internal/config"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/pipeline"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
	"github.com/couchcryptid/public-data-proxy/internal/yearcache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	required, err := cfg.RequiredReturns()
	if err != nil {
		logger.Error("failed to load required returns", "error", err)
		os.Exit(1)
	}

	client := func(provider string, opts ...upstream.Option) *upstream.Client {
		opts = append([]upstream.Option{upstream.WithRateLimit(cfg.UpstreamRateLimit)}, opts...)
		return upstream.New(provider, cfg.UpstreamTimeout, metrics, logger, opts...)
	}

	spcClient := spc.NewClient(client(spc.Provider), cfg.DailyReportConcurrency)
	treasuryClient := treasury.NewClient(client(treasury.Provider))
	fredClient := fred.NewClient(client(fred.Provider))
	blsClient := bls.NewClient(client(bls.Provider), cfg.BLSAPIKey)
	yahooClient := yahoo.NewClient(client(yahoo.Provider, upstream.WithHeader("User-Agent", yahoo.BrowserUserAgent)))
	weatherClient := openmeteo.NewClient(client(openmeteo.Provider))

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		mc := mapbox.NewClient(cfg.MapboxToken, upstream.New(mapbox.Provider, cfg.MapboxTimeout, metrics, logger), metrics)
		geocoder = mapbox.NewCachedGeocoder(mc, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	trends := aggregate.NewTornadoTrends(spcClient, yearcache.New(spcClient.DailyReportsSource()),
		aggregate.TornadoConfig{StartYear: cfg.TornadoStartYear, MaxSpan: cfg.TornadoMaxSpan}, clock, metrics, logger)

	services := httpadapter.Services{
		Tornado:        trends,
		Reports:        aggregate.NewStormReports(spcClient, geocoder, clock, metrics, logger),
		Yields:         aggregate.NewYieldCurves(treasuryClient, fredClient, clock, metrics, logger),
		YieldRangeDays: cfg.YieldDefaultRangeDays,
		Labor:          aggregate.NewLaborSeries(blsClient, cfg.BLSYearSpan, clock, metrics, logger),
		Buybacks:       aggregate.NewBuybacks(yahooClient, required, cfg.TickerBatchSize, clock, metrics, logger),
		Dashboard:      aggregate.NewDashboard(yahooClient, cfg.DashboardBatchSize, clock, metrics, logger),
		Winter: aggregate.NewWinterStorm(weatherClient, aggregate.WinterConfig{
			BatchSize:  cfg.WinterBatchSize,
			BatchDelay: cfg.WinterBatchDelay,
		}, clock, metrics, logger),
		Compare: aggregate.NewWinterCompare(weatherClient, metrics, logger),
	}

	var publisher *kafkaadapter.Publisher
	var snapshots pipeline.SnapshotPublisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		snapshots = publisher
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	}

	warmer, err := pipeline.NewWarmer(trends, snapshots, cfg.RefreshSchedule, clock, metrics, logger)
	if err != nil {
		logger.Error("failed to create cache warmer", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, warmer, services, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := warmer.Run(ctx); err != nil {
			logger.Error("cache warmer error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
