// -----------------------------------------------------------------------
// Scraper - bounded-concurrency, rate-limited enrichment fetcher
// -----------------------------------------------------------------------

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20 // 4 MiB response cap

// Service implements ScraperService with a global inter-request limiter and
// a counting semaphore for concurrency.
type Service struct {
	config  common.ScraperConfig
	logger  arbor.ILogger
	client  *http.Client
	limiter *rate.Limiter // Global spacing between request starts
	sem     chan struct{}
	blocked map[string]bool
}

// NewService creates a scraper from configuration
func NewService(config common.ScraperConfig, logger arbor.ILogger) *Service {
	blocked := make(map[string]bool, len(config.BlockedHosts))
	for _, h := range config.BlockedHosts {
		blocked[strings.ToLower(h)] = true
	}

	delay := config.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxConc := config.MaxConcurrency
	if maxConc < 1 {
		maxConc = 5
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: config.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: config.ConnectTimeout,
		MaxIdleConnsPerHost: maxConc,
	}

	return &Service{
		config: config,
		logger: logger,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		sem:     make(chan struct{}, maxConc),
		blocked: blocked,
	}
}

// IsBlockedHost reports whether the URL's host is on the blocklist. Matching
// covers the host itself and any subdomain of a blocked host.
func (s *Service) IsBlockedHost(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if s.blocked[host] {
		return true
	}
	for b := range s.blocked {
		if strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// Scrape fetches and extracts a single URL. All failures are folded into the
// returned document; no error propagates to the caller.
func (s *Service) Scrape(ctx context.Context, rawURL string) *models.ScrapedDoc {
	doc := &models.ScrapedDoc{URL: rawURL}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		doc.Error = "invalid url: scheme must be http or https with a host"
		return doc
	}
	if s.IsBlockedHost(rawURL) {
		doc.Error = fmt.Sprintf("blocked host: %s", u.Hostname())
		return doc
	}
	doc.Domain = u.Hostname()

	body, err := s.fetchWithRetry(ctx, u.String())
	if err != nil {
		doc.Error = err.Error()
		s.logger.Debug().Str("url", rawURL).Err(err).Msg("Scrape failed")
		return doc
	}

	extract(doc, body, u, s.config.MaxContentLen)
	doc.QualityScore = QualityScore(doc)
	doc.Success = true
	return doc
}

// fetchWithRetry performs the rate-limited GET, retrying 429 and timeouts
// with linear backoff (2s x attempt).
func (s *Service) fetchWithRetry(ctx context.Context, target string) (string, error) {
	var lastErr error

	unit := s.config.RetryBackoff
	if unit <= 0 {
		unit = 2 * time.Second
	}

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * unit
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		// Global spacing between request starts
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		body, status, err := s.fetchOnce(ctx, target)
		switch {
		case err == nil && status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("http 429 from %s", target)
			continue
		case err != nil && isTimeout(err):
			lastErr = fmt.Errorf("timeout fetching %s: %w", target, err)
			continue
		case err != nil:
			return "", err
		default:
			return "", fmt.Errorf("http status %d from %s", status, target)
		}
	}
	return "", lastErr
}

func (s *Service) fetchOnce(ctx context.Context, target string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", resp.StatusCode, nil
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "text/html") && !strings.HasPrefix(contentType, "application/xhtml+xml") {
		return "", resp.StatusCode, fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// ScrapeMany fetches deduplicated URLs under the concurrency cap, preserving
// input order in the output. Panics inside a worker are converted into a
// failed entry for that URL.
func (s *Service) ScrapeMany(ctx context.Context, urls []string, maxConcurrent int) []*models.ScrapedDoc {
	deduped := dedupeURLs(urls)
	results := make([]*models.ScrapedDoc, len(deduped))

	sem := s.sem
	if maxConcurrent > 0 && maxConcurrent != cap(s.sem) {
		sem = make(chan struct{}, maxConcurrent)
	}

	var wg sync.WaitGroup
	for i, u := range deduped {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[idx] = &models.ScrapedDoc{
						URL:   target,
						Error: fmt.Sprintf("scrape panic: %v", r),
					}
					s.logger.Error().Str("url", target).Msgf("Recovered scrape panic: %v", r)
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = &models.ScrapedDoc{URL: target, Error: ctx.Err().Error()}
				return
			}

			results[idx] = s.Scrape(ctx, target)
		}(i, u)
	}
	wg.Wait()

	return results
}

// dedupeURLs trims whitespace, drops trailing slashes and removes duplicates
// while preserving first-seen order.
func dedupeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		cleaned := strings.TrimSpace(u)
		cleaned = strings.TrimSuffix(cleaned, "/")
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

var _ interfaces.ScraperService = (*Service)(nil)
