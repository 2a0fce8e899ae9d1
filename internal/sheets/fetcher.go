package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL hosts the published spreadsheet exports.
	DefaultBaseURL = "https://docs.google.com"

	// DefaultTimeout bounds a single sheet request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// Fetcher reads sheets of a published spreadsheet as CSV. No credentials
// are sent; the spreadsheet must be readable by anyone with the link.
type Fetcher struct {
	baseURL    string
	sheetID    string
	httpClient *http.Client
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithBaseURL points the fetcher at another host, mostly for tests.
func WithBaseURL(u string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.httpClient.Timeout = d }
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a fetcher for the spreadsheet sheetID.
func NewFetcher(sheetID string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL: DefaultBaseURL,
		sheetID: sheetID,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// SheetID returns the spreadsheet identifier.
func (f *Fetcher) SheetID() string {
	return f.sheetID
}

// URL returns the CSV export address of the named sheet.
func (f *Fetcher) URL(name string) string {
	params := url.Values{}
	params.Set("tqx", "out:csv")
	params.Set("sheet", name)

	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", f.baseURL, url.PathEscape(f.sheetID), params.Encode())
}

// Fetch downloads the named sheet and returns the raw CSV body. Every
// failure is a *NetworkError matching ErrNetworkFailure.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(name), nil)
	if err != nil {
		return nil, &NetworkError{Sheet: name, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Sheet: name, Err: fmt.Errorf("request failed: %w", err)}
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &NetworkError{
			Sheet:      name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Sheet: name, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return body, nil
}

// FetchRows downloads and parses the named sheet.
func (f *Fetcher) FetchRows(ctx context.Context, name string) ([]Row, error) {
	body, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	return Parse(string(body)), nil
}

// FetchSheet downloads and parses the named sheet. Failures are logged
// and yield an empty slice.
func (f *Fetcher) FetchSheet(ctx context.Context, name string) []Row {
	rows, err := f.FetchRows(ctx, name)
	if err != nil {
		f.logger.Warn("sheet fetch failed", "sheet", name, "error", err)
		return []Row{}
	}

	return rows
}
