// Package main provides the entry point for the literature acquisition
// service HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/observability"
	"github.com/openlit/literature-acquisition-service/internal/pdf"
	"github.com/openlit/literature-acquisition-service/internal/providers"
	"github.com/openlit/literature-acquisition-service/internal/providers/arxiv"
	"github.com/openlit/literature-acquisition-service/internal/providers/biorxiv"
	"github.com/openlit/literature-acquisition-service/internal/providers/crossref"
	"github.com/openlit/literature-acquisition-service/internal/providers/dblp"
	"github.com/openlit/literature-acquisition-service/internal/providers/europepmc"
	"github.com/openlit/literature-acquisition-service/internal/providers/openalex"
	"github.com/openlit/literature-acquisition-service/internal/providers/pubmed"
	"github.com/openlit/literature-acquisition-service/internal/providers/semanticscholar"
	"github.com/openlit/literature-acquisition-service/internal/providers/unpaywall"
	httpserver "github.com/openlit/literature-acquisition-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	logger.Info().Msg("literature-acquisition-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics registry with process and runtime collectors.
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promReg)

	// Build the provider registry.
	registry := buildRegistry(cfg, logger)

	// Build the PDF acquisition pipeline.
	lit := &cfg.Literature

	downloader := pdf.NewDownloader(pdf.DownloaderConfig{
		Timeout:             lit.PDFDownloadTimeout,
		RetryAttempts:       lit.DownloadRetryAttempts,
		RetryDelay:          lit.DownloadRetryDelay,
		UseBrowserUserAgent: lit.UseBrowserUserAgent,
	}, logger)

	fallbacks := buildFallbacks(cfg, registry, logger)

	engine := pdf.NewEngine(downloader, fallbacks, pdf.EngineConfig{
		DownloadDir:           lit.DownloadDir,
		MaxURLAttempts:        lit.MaxURLAttemptsPerPDF,
		MaxFallbackStrategies: lit.MaxFallbackStrategies,
		SourceTimeouts:        buildSourceTimeouts(lit),
	}, nil, metrics, logger)

	pool := pdf.NewPool(engine, lit.MaxParallelDownloads)

	// Create the HTTP server.
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	}

	srv := httpserver.NewServer(httpserver.Config{
		Address:      cfg.Server.HTTPAddress(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		DefaultLimit: lit.DefaultLimit,
		MaxResults:   lit.MaxResults,
		MetricsPath:  cfg.Metrics.Path,
	}, registry, pool, metricsHandler, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("address", cfg.Server.HTTPAddress()).
		Strs("sources", enabledSourceNames(registry)).
		Msg("literature-acquisition-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown. In-flight acquisitions drain with their requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	logger.Info().Msg("literature-acquisition-service shutdown complete")
	return nil
}

// buildRegistry constructs every known provider adapter and registers it.
// Disabled providers are still registered so the sources endpoint can
// report them.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) *providers.Registry {
	lit := &cfg.Literature
	registry := providers.NewRegistry()

	limit := lit.DefaultLimit
	enabled := func(tag domain.SourceType) bool { return lit.SourceEnabled(tag) }
	settings := func(tag domain.SourceType) config.ProviderConfig { return lit.ProviderSettings(tag) }

	registry.Register(arxiv.New(arxiv.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeArXiv)},
		settings(domain.SourceTypeArXiv), logger))
	registry.Register(semanticscholar.New(semanticscholar.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeSemanticScholar)},
		settings(domain.SourceTypeSemanticScholar), logger))
	registry.Register(pubmed.New(pubmed.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypePubMed)},
		settings(domain.SourceTypePubMed), logger))
	registry.Register(europepmc.New(europepmc.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeEuropePMC)},
		settings(domain.SourceTypeEuropePMC), logger))
	registry.Register(crossref.New(crossref.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeCrossRef)},
		settings(domain.SourceTypeCrossRef), logger))
	registry.Register(openalex.New(openalex.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeOpenAlex)},
		settings(domain.SourceTypeOpenAlex), logger))
	registry.Register(dblp.New(dblp.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeDBLP)},
		settings(domain.SourceTypeDBLP), logger))
	registry.Register(biorxiv.New(biorxiv.Config{MaxResults: limit, Enabled: enabled(domain.SourceTypeBioRxiv)},
		settings(domain.SourceTypeBioRxiv), logger))
	registry.Register(unpaywall.New(unpaywall.Config{
		Email:      lit.UnpaywallEmail,
		MaxResults: limit,
		Enabled:    enabled(domain.SourceTypeUnpaywall) && lit.UnpaywallEnabled(),
	}, settings(domain.SourceTypeUnpaywall), logger))

	return registry
}

// buildSourceTimeouts maps every provider tag to its configured request
// timeout, which replaces the default download timeout for records from
// that source.
func buildSourceTimeouts(lit *config.LiteratureConfig) map[domain.SourceType]time.Duration {
	tags := append([]domain.SourceType{domain.SourceTypeMedRxiv}, domain.KnownSourceTypes...)
	timeouts := make(map[domain.SourceType]time.Duration, len(tags))
	for _, tag := range tags {
		if pc := lit.ProviderSettings(tag); pc.RequestTimeout > 0 {
			timeouts[tag] = pc.RequestTimeout
		}
	}
	return timeouts
}

// buildFallbacks wires the open-access fallback chain from the registry's
// adapters. A disabled provider leaves its fallback nil, which the
// orchestrator treats as absent.
func buildFallbacks(cfg *config.Config, registry *providers.Registry, logger zerolog.Logger) *pdf.FallbackOrchestrator {
	lit := &cfg.Literature

	var oa pdf.OAFinder
	if lit.UnpaywallEnabled() {
		if c, ok := registry.Get(domain.SourceTypeUnpaywall).(*unpaywall.Client); ok && c.Enabled() {
			oa = c
		}
	} else if lit.UseUnpaywall {
		logger.Warn().Msg("unpaywall enabled without a valid UNPAYWALL_EMAIL; fallback disabled")
	}

	var arxivFB pdf.TitleFinder
	if c, ok := registry.Get(domain.SourceTypeArXiv).(*arxiv.Client); ok && c.Enabled() {
		arxivFB = c
	}

	var biorxivFB pdf.PreprintFinder
	if c, ok := registry.Get(domain.SourceTypeBioRxiv).(*biorxiv.Client); ok && c.Enabled() {
		biorxivFB = c
	}

	return pdf.NewFallbackOrchestrator(oa, arxivFB, biorxivFB, logger)
}

// enabledSourceNames lists the enabled provider tags for startup logging.
func enabledSourceNames(registry *providers.Registry) []string {
	enabled := registry.Enabled()
	names := make([]string, 0, len(enabled))
	for _, p := range enabled {
		names = append(names, string(p.Source()))
	}
	return names
}
