package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

const (
	// maxRecursionDepth bounds HTML landing-page recursion.
	maxRecursionDepth = 2

	// sniffSize is how much of the body is inspected before committing
	// to a file write.
	sniffSize = 2048

	pdfMagic = "%PDF"
)

// ErrPrivateNetwork is returned when a candidate URL resolves to a
// private or otherwise non-routable address.
var ErrPrivateNetwork = errors.New("request to private network address denied")

// browserUserAgents are rotated through on access-denied responses.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// academicReferers are spoofed late in the recovery ladder.
var academicReferers = []string{
	"https://scholar.google.com/",
	"https://www.semanticscholar.org/",
}

var htmlMarkers = [][]byte{
	[]byte("<!doctype html"), []byte("<html"), []byte("<head"),
	[]byte("<body"), []byte("<script"), []byte("<meta"),
	[]byte("<title>"), []byte("<?xml"),
}

// Outcome is the result of one download attempt chain.
type Outcome struct {
	Path  string
	Bytes int64
	Kind  domain.FailureKind
	Err   error
}

// Succeeded reports whether a validated PDF landed on disk.
func (o Outcome) Succeeded() bool { return o.Kind == "" }

func failure(kind domain.FailureKind, err error) Outcome {
	return Outcome{Kind: kind, Err: err}
}

// DownloaderConfig holds the downloader knobs.
type DownloaderConfig struct {
	// Timeout bounds one HTTP exchange.
	Timeout time.Duration

	// RetryAttempts is the backoff-retry budget at the end of the
	// recovery ladder.
	RetryAttempts int

	// RetryDelay is the base delay for those retries.
	RetryDelay time.Duration

	// UseBrowserUserAgent sends a browser UA on standard attempts
	// instead of the service UA.
	UseBrowserUserAgent bool

	// MaxSize caps the size of a written artifact in bytes.
	MaxSize int64

	// AllowPrivateNetworks disables the private-address guard. Tests
	// only; never enable in production.
	AllowPrivateNetworks bool
}

// Downloader runs the per-URL acquisition state machine.
type Downloader struct {
	client    *http.Client
	extractor *Extractor
	generator *Generator
	cfg       DownloaderConfig
	logger    zerolog.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloaderConfig, logger zerolog.Logger) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 100 << 20
	}
	d := &Downloader{
		extractor: NewExtractor(),
		generator: NewGenerator(),
		cfg:       cfg,
		logger:    logger,
	}
	d.client = &http.Client{
		Timeout: cfg.Timeout,
		// Open redirects must not land on internal addresses.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after %d redirects", 10)
			}
			if !d.cfg.AllowPrivateNetworks {
				return validateURLNotPrivate(req.URL.String())
			}
			return nil
		},
	}
	return d
}

// Attempt issues one GET and drives the response through validation and
// HTML landing-page recovery. headers overlay the defaults.
func (d *Downloader) Attempt(ctx context.Context, rawURL, outputPath string, headers map[string]string, depth int) Outcome {
	if !d.cfg.AllowPrivateNetworks {
		if err := validateURLNotPrivate(rawURL); err != nil {
			return failure(domain.FailureNetworkError, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failure(domain.FailureUnknown, err)
	}
	d.applyHeaders(req, headers)

	resp, err := d.client.Do(req)
	if err != nil {
		return failure(classifyTransport(err), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return failure(classifyStatus(resp.StatusCode),
			fmt.Errorf("%s returned status %d", rawURL, resp.StatusCode))
	}

	body := bufio.NewReaderSize(resp.Body, sniffSize)
	head, err := body.Peek(sniffSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return failure(classifyTransport(err), err)
	}

	if bytes.HasPrefix(head, []byte(pdfMagic)) {
		return d.writePDF(body, outputPath)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	bodyIsHTML := looksLikeHTML(head)

	switch {
	case bodyIsHTML && strings.Contains(contentType, "application/pdf"):
		// The server lied about the content.
		return failure(domain.FailureContentMismatch,
			fmt.Errorf("%s served HTML as application/pdf", rawURL))

	case bodyIsHTML || strings.Contains(contentType, "text/html"):
		return d.recoverFromHTML(ctx, resp, body, outputPath, headers, depth)

	default:
		return failure(domain.FailureContentMismatch,
			fmt.Errorf("%s served neither PDF nor HTML (content-type %q)", rawURL, contentType))
	}
}

// AttemptWithRecovery runs the full recovery ladder for one candidate
// URL. It returns the terminal outcome and every annotated URL attempt
// made along the way.
func (d *Downloader) AttemptWithRecovery(ctx context.Context, rawURL, outputPath string) (Outcome, []string) {
	var tried []string
	record := func(annotation string) {
		if annotation == "" {
			tried = append(tried, rawURL)
		} else {
			tried = append(tried, rawURL+" ["+annotation+"]")
		}
	}

	outcome := d.Attempt(ctx, rawURL, outputPath, nil, 0)
	record("")
	if outcome.Succeeded() || ctx.Err() != nil {
		return outcome, tried
	}

	// HTML landing pages often mean the real document lives at a
	// publisher-predictable sibling URL.
	if outcome.Kind == domain.FailureHTMLResponse || outcome.Kind == domain.FailureHTMLNoPDFLink {
		for i, alt := range firstN(d.generator.Transform(rawURL), 3) {
			altOutcome := d.Attempt(ctx, alt, outputPath, nil, 0)
			tried = append(tried, fmt.Sprintf("%s [transform:%d]", alt, i+1))
			if altOutcome.Succeeded() {
				return altOutcome, tried
			}
			outcome = altOutcome
			if ctx.Err() != nil {
				return outcome, tried
			}
		}
	}

	if outcome.Kind == domain.FailureAccessDenied {
		for i, ua := range browserUserAgents {
			uaOutcome := d.Attempt(ctx, rawURL, outputPath, map[string]string{"User-Agent": ua}, 0)
			record(fmt.Sprintf("ua-rotate:%d", i+1))
			if uaOutcome.Succeeded() {
				return uaOutcome, tried
			}
			outcome = uaOutcome
			if ctx.Err() != nil {
				return outcome, tried
			}
		}
	}

	minimal := d.Attempt(ctx, rawURL, outputPath, map[string]string{"Accept": "*/*"}, 0)
	record("minimal-headers")
	if minimal.Succeeded() {
		return minimal, tried
	}
	outcome = minimal
	if ctx.Err() != nil {
		return outcome, tried
	}

	if d.headProbe(ctx, rawURL) {
		probeOutcome := d.Attempt(ctx, rawURL, outputPath, nil, 0)
		record("head-probe")
		if probeOutcome.Succeeded() {
			return probeOutcome, tried
		}
		outcome = probeOutcome
		if ctx.Err() != nil {
			return outcome, tried
		}
	}

	referers := append([]string{"https://www.google.com/"}, academicReferers...)
	for _, referer := range referers {
		refOutcome := d.Attempt(ctx, rawURL, outputPath, map[string]string{"Referer": referer}, 0)
		record("referer:" + refererOrigin(referer))
		if refOutcome.Succeeded() {
			return refOutcome, tried
		}
		outcome = refOutcome
		if ctx.Err() != nil {
			return outcome, tried
		}
	}

	for retry := 1; retry <= d.cfg.RetryAttempts; retry++ {
		if err := sleepCtx(ctx, d.cfg.RetryDelay*time.Duration(retry)); err != nil {
			return outcome, tried
		}
		headers := map[string]string(nil)
		annotation := fmt.Sprintf("retry:%d", retry)
		if outcome.Kind == domain.FailureAccessDenied {
			headers = map[string]string{"User-Agent": browserUserAgents[(retry-1)%len(browserUserAgents)]}
			annotation += ",ua-rotate"
		}
		retryOutcome := d.Attempt(ctx, rawURL, outputPath, headers, 0)
		record(annotation)
		if retryOutcome.Succeeded() {
			return retryOutcome, tried
		}
		outcome = retryOutcome
	}

	return outcome, tried
}

func (d *Downloader) recoverFromHTML(ctx context.Context, resp *http.Response, body *bufio.Reader, outputPath string, headers map[string]string, depth int) Outcome {
	if depth >= maxRecursionDepth {
		return failure(domain.FailureHTMLResponse,
			fmt.Errorf("HTML response at recursion depth %d", depth))
	}

	// 5MB is plenty for a landing page.
	page, err := io.ReadAll(io.LimitReader(body, 5<<20))
	if err != nil {
		return failure(classifyTransport(err), err)
	}

	base := resp.Request.URL.String()
	candidates := d.extractor.Extract(page, base)
	follow := 3
	if depth >= 1 {
		follow = 2
	}

	var last Outcome
	followed := 0
	for _, candidate := range candidates {
		if followed >= follow {
			break
		}
		if candidate == base {
			continue
		}
		followed++
		last = d.Attempt(ctx, candidate, outputPath, headers, depth+1)
		if last.Succeeded() {
			return last
		}
		if ctx.Err() != nil {
			return last
		}
	}

	if followed == 0 {
		return failure(domain.FailureHTMLNoPDFLink,
			fmt.Errorf("no PDF links found on landing page %s", base))
	}
	return last
}

// writePDF streams the remaining body to disk and validates the result.
// A file that fails validation is removed.
func (d *Downloader) writePDF(body io.Reader, outputPath string) Outcome {
	f, err := os.Create(outputPath)
	if err != nil {
		return failure(domain.FailureFileError, fmt.Errorf("%w: %s", domain.ErrFileOperation, err))
	}

	// One extra byte past the cap detects oversized responses.
	n, copyErr := io.Copy(f, io.LimitReader(body, d.cfg.MaxSize+1))
	closeErr := f.Close()

	if copyErr != nil || closeErr != nil {
		_ = os.Remove(outputPath)
		err := copyErr
		if err == nil {
			err = closeErr
		}
		return failure(classifyTransport(err), err)
	}

	if n > d.cfg.MaxSize {
		_ = os.Remove(outputPath)
		return failure(domain.FailureInvalidResponse,
			fmt.Errorf("response exceeds the %d byte artifact cap", d.cfg.MaxSize))
	}

	if err := ValidatePDFFile(outputPath); err != nil {
		_ = os.Remove(outputPath)
		if n == 0 {
			return failure(domain.FailureEmptyFile, err)
		}
		return failure(domain.FailureInvalidResponse, err)
	}

	return Outcome{Path: outputPath, Bytes: n}
}

func (d *Downloader) headProbe(ctx context.Context, rawURL string) bool {
	if !d.cfg.AllowPrivateNetworks {
		if err := validateURLNotPrivate(rawURL); err != nil {
			return false
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	d.applyHeaders(req, nil)

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (d *Downloader) applyHeaders(req *http.Request, headers map[string]string) {
	ua := "literature-acquisition-service/1.0"
	if d.cfg.UseBrowserUserAgent {
		ua = browserUserAgents[0]
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/pdf,*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// ValidatePDFFile checks that the file at path exists, is non-empty, and
// begins with the PDF magic bytes.
func ValidatePDFFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFileOperation, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFileOperation, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	magic := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("reading magic bytes: %w", err)
	}
	if string(magic) != pdfMagic {
		return fmt.Errorf("%s does not start with %s", path, pdfMagic)
	}
	return nil
}

func looksLikeHTML(head []byte) bool {
	lower := bytes.ToLower(head)
	for _, marker := range htmlMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func classifyStatus(status int) domain.FailureKind {
	switch {
	case status == http.StatusForbidden:
		return domain.FailureAccessDenied
	case status == http.StatusNotFound:
		return domain.FailureNotFound
	case status == http.StatusTooManyRequests:
		return domain.FailureRateLimited
	case status >= http.StatusInternalServerError:
		return domain.FailureServerError
	default:
		return domain.FailureUnknown
	}
}

func classifyTransport(err error) domain.FailureKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.FailureTimeout
	case strings.Contains(err.Error(), "stopped after"):
		// net/http's redirect-limit error text.
		return domain.FailureRedirectLoop
	default:
		return domain.FailureNetworkError
	}
}

// validateURLNotPrivate resolves the hostname and rejects candidate
// URLs that point at loopback, link-local, or private addresses, and
// any non-HTTP scheme.
func validateURLNotPrivate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrivateNetwork, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q not allowed", ErrPrivateNetwork, parsed.Scheme)
	}

	addrs, err := net.LookupHost(parsed.Hostname())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", parsed.Hostname(), err)
	}
	for _, addr := range addrs {
		ip := net.ParseIP(addr)
		if ip == nil {
			return fmt.Errorf("%w: unparseable address %q", ErrPrivateNetwork, addr)
		}
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateNetwork, parsed.Hostname(), addr)
		}
	}
	return nil
}

func refererOrigin(referer string) string {
	origin := strings.TrimPrefix(strings.TrimPrefix(referer, "https://"), "http://")
	return strings.TrimSuffix(strings.TrimPrefix(origin, "www."), "/")
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
