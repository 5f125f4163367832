package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	DefaultBaseURL = "https://projects.pervye.ru"
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguage = "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"
	Timeout        = 15 * time.Second
	ProbeTimeout   = 10 * time.Second

	maxBodySize = 10 << 20
)

// StatusError is returned when the site answers with an error status code
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Scraper fetches the events listing page
type Scraper struct {
	client      *http.Client
	probeClient *http.Client
	url         string
}

// New creates a new Scraper for baseURL. Zero timeouts fall back to the defaults.
func New(baseURL string, timeout, probeTimeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	if probeTimeout <= 0 {
		probeTimeout = ProbeTimeout
	}
	return &Scraper{
		client:      &http.Client{Timeout: timeout},
		probeClient: &http.Client{Timeout: probeTimeout},
		url:         baseURL,
	}
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

func (s *Scraper) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", Accept)
	req.Header.Set("Accept-Language", AcceptLanguage)
	return req, nil
}

// Fetch downloads the raw markup of the listing page
func (s *Scraper) Fetch(ctx context.Context) ([]byte, error) {
	req, err := s.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	// Decode to UTF-8 using the Content-Type charset or a <meta charset> in the page
	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	return body, nil
}

// Probe performs an independent request and returns the HTTP status code.
// An error is returned only when no response was received.
func (s *Scraper) Probe(ctx context.Context) (int, error) {
	req, err := s.newRequest(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := s.probeClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connecting to site: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	return resp.StatusCode, nil
}
