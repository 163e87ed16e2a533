package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/observability"
)

// PathNotifier is told when a record's PDF lands on disk, keyed by the
// record's citation key. Implemented by an external library index.
type PathNotifier interface {
	UpdatePdfPath(citationKey, path string)
}

// EngineConfig holds the acquisition budgets and destination.
type EngineConfig struct {
	// DownloadDir is where validated PDFs are written.
	DownloadDir string

	// MaxURLAttempts bounds the URL candidates tried per record, all
	// strategies combined. The budget counts candidates, not the HTTP
	// exchanges a candidate's recovery ladder may spend.
	MaxURLAttempts int

	// MaxFallbackStrategies bounds the preprint and open access
	// fallback lookups per record.
	MaxFallbackStrategies int

	// SourceTimeouts overrides the download timeout per record source.
	SourceTimeouts map[domain.SourceType]time.Duration
}

// Engine acquires the PDF for one record: it builds the ordered
// candidate plan, drives the downloader through it, and falls back to
// preprint servers when the plan exhausts.
type Engine struct {
	downloader *Downloader
	generator  *Generator
	fallbacks  *FallbackOrchestrator
	cfg        EngineConfig
	notifier   PathNotifier
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewEngine creates an Engine. notifier and metrics may be nil.
func NewEngine(downloader *Downloader, fallbacks *FallbackOrchestrator, cfg EngineConfig, notifier PathNotifier, metrics *observability.Metrics, logger zerolog.Logger) *Engine {
	if cfg.MaxURLAttempts <= 0 {
		cfg.MaxURLAttempts = 12
	}
	if cfg.MaxFallbackStrategies <= 0 {
		cfg.MaxFallbackStrategies = 3
	}
	return &Engine{
		downloader: downloader,
		generator:  NewGenerator(),
		fallbacks:  fallbacks,
		cfg:        cfg,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// OutputPath returns the deterministic destination for a record's PDF.
func (e *Engine) OutputPath(record *domain.SearchRecord) string {
	return filepath.Join(e.cfg.DownloadDir, record.CitationKey()+".pdf")
}

// Acquire downloads the record's PDF and returns its path. A file
// already present at the derived path short-circuits without network
// activity. On total failure the returned error is a *domain.DownloadError
// carrying every attempted URL and the terminal failure reason.
func (e *Engine) Acquire(ctx context.Context, record *domain.SearchRecord) (string, error) {
	start := time.Now()
	outputPath := e.OutputPath(record)
	logger := e.logger.With().Str("title", record.Title).Str("output", outputPath).Logger()

	if _, err := os.Stat(outputPath); err == nil {
		logger.Debug().Msg("pdf already on disk")
		e.notify(record, outputPath)
		return outputPath, nil
	}

	if err := os.MkdirAll(e.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating download dir: %s", domain.ErrFileOperation, err)
	}

	plan := e.buildPlan(ctx, record)

	var (
		attempted []string
		last      Outcome
		attempts  int
	)
	last = failure(domain.FailureUnknown, fmt.Errorf("no candidate URLs for %q", record.Title))

	runCandidate := func(candidate string) (Outcome, bool) {
		if attempts >= e.cfg.MaxURLAttempts {
			return last, false
		}
		attempts++
		e.countAttempt("candidate")
		dctx := ctx
		if timeout, ok := e.cfg.SourceTimeouts[record.Source]; ok && timeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		outcome, tried := e.downloader.AttemptWithRecovery(dctx, candidate, outputPath)
		attempted = append(attempted, tried...)
		return outcome, true
	}

	for _, candidate := range plan {
		outcome, ran := runCandidate(candidate)
		if !ran {
			break
		}
		last = outcome
		if outcome.Succeeded() {
			return e.finish(record, outcome, start, logger)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: acquiring %q", domain.ErrCancelled, record.Title)
		}
	}

	// The URL plan is spent. Ask the preprint servers.
	fallbacks := 0
	runFallback := func(name string, lookup func() string) (Outcome, bool) {
		if fallbacks >= e.cfg.MaxFallbackStrategies || attempts >= e.cfg.MaxURLAttempts {
			return last, false
		}
		fallbacks++
		fallbackURL := lookup()
		if fallbackURL == "" {
			logger.Debug().Str("fallback", name).Msg("fallback produced no URL")
			return last, false
		}
		e.countAttempt(name)
		outcome, ran := runCandidate(fallbackURL)
		return outcome, ran
	}

	if record.Source != domain.SourceTypeArXiv {
		if outcome, ran := runFallback("arxiv-fallback", func() string {
			return e.fallbacks.ArxivByTitle(ctx, record)
		}); ran {
			last = outcome
			if outcome.Succeeded() {
				return e.finish(record, outcome, start, logger)
			}
		}
	}
	if ctx.Err() == nil {
		if outcome, ran := runFallback("biorxiv-fallback", func() string {
			return e.fallbacks.BiorxivByDOI(ctx, record)
		}); ran {
			last = outcome
			if outcome.Succeeded() {
				return e.finish(record, outcome, start, logger)
			}
		}
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: acquiring %q", domain.ErrCancelled, record.Title)
	}

	if e.metrics != nil {
		e.metrics.DownloadsFailed.WithLabelValues(string(last.Kind)).Inc()
	}
	dlErr := domain.NewDownloadError(last.Kind, attempted, outputPath, attempts, last.Err)
	logger.Warn().Str("kind", string(last.Kind)).Int("attempts", attempts).Msg(dlErr.Summary())
	return "", dlErr
}

// buildPlan assembles the ordered, deduplicated URL candidate list for a
// record.
func (e *Engine) buildPlan(ctx context.Context, record *domain.SearchRecord) []string {
	var plan []string

	primary := record.PDFURL
	if primary == "" {
		primary = record.URL
	}
	isArxiv := record.Source == domain.SourceTypeArXiv

	if primary != "" {
		if isArxiv {
			// The export mirror backs up the primary host.
			normalized := domain.NormalizeArxivURL(primary)
			plan = append(plan, normalized)
			plan = append(plan, e.generator.Transform(normalized)...)
		} else if LooksLikeAbstractPage(primary) {
			// Abstract pages rarely serve the document; try the
			// transformed URLs first.
			plan = append(plan, e.generator.Transform(primary)...)
			plan = append(plan, primary)
		} else {
			plan = append(plan, primary)
			plan = append(plan, e.generator.Transform(primary)...)
		}
	}

	if record.DOI != "" {
		plan = append(plan, e.generator.DoiToURLs(record.DOI)...)
	}

	// arXiv papers are already open; Unpaywall adds nothing. The same
	// holds for the preprint servers.
	skipUnpaywall := isArxiv ||
		record.Source == domain.SourceTypeBioRxiv ||
		record.Source == domain.SourceTypeMedRxiv
	if !skipUnpaywall {
		if oaURL := e.fallbacks.UnpaywallURL(ctx, record.DOI); oaURL != "" {
			plan = append(plan, oaURL)
		}
	}

	plan = dedupeExcluding(plan, "")
	if isArxiv {
		plan = frontLoadArxiv(plan)
	}
	if len(plan) > e.cfg.MaxURLAttempts {
		plan = plan[:e.cfg.MaxURLAttempts]
	}
	return plan
}

func (e *Engine) finish(record *domain.SearchRecord, outcome Outcome, start time.Time, logger zerolog.Logger) (string, error) {
	if e.metrics != nil {
		e.metrics.DownloadsSucceeded.Inc()
		e.metrics.DownloadBytes.Observe(float64(outcome.Bytes))
		e.metrics.AcquisitionDuration.Observe(time.Since(start).Seconds())
	}
	logger.Info().Int64("bytes", outcome.Bytes).Dur("elapsed", time.Since(start)).Msg("pdf acquired")
	e.notify(record, outcome.Path)
	return outcome.Path, nil
}

func (e *Engine) notify(record *domain.SearchRecord, path string) {
	if e.notifier != nil {
		e.notifier.UpdatePdfPath(record.CitationKey(), path)
	}
}

func (e *Engine) countAttempt(kind string) {
	if e.metrics != nil {
		e.metrics.DownloadAttempts.WithLabelValues(kind).Inc()
	}
}

// frontLoadArxiv moves arxiv.org/pdf/ candidates to the head of the
// plan, preserving relative order otherwise.
func frontLoadArxiv(plan []string) []string {
	var front, rest []string
	for _, u := range plan {
		if strings.Contains(u, "arxiv.org/pdf/") {
			front = append(front, u)
		} else {
			rest = append(rest, u)
		}
	}
	return append(front, rest...)
}
