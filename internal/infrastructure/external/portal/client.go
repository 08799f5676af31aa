// Package portal is the HTTP client for the escrow portal backend.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

var (
	// ErrBackendUnavailable is returned for transport failures, 5xx and 429 responses
	ErrBackendUnavailable = port.ErrBackendUnavailable

	// ErrNotFound is returned when the backend answers 404
	ErrNotFound = port.ErrNotFound
)

// Backend resource paths
const (
	pathMilestones = "/api/projects/milestones/"
	pathInvoices   = "/api/projects/invoices/"
	pathExpenses   = "/api/projects/expense-requests/"
	pathDisputes   = "/api/projects/disputes/"
	pathHomeowners = "/api/projects/homeowners/"
	pathAgreement  = "/api/projects/agreements/%s/"
)

// Config holds backend client settings
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	PageSize   int
	MaxPages   int
	MaxRetries int
}

// Client implements port.PortalBackend over HTTP/JSON
type Client struct {
	baseURL    *url.URL
	token      string
	pageSize   int
	maxPages   int
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse portal base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("portal base url must be absolute: %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}

	return &Client{
		baseURL:    base,
		token:      cfg.APIToken,
		pageSize:   cfg.PageSize,
		maxPages:   maxPages,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ListMilestones fetches every milestone visible to the token
func (c *Client) ListMilestones(ctx context.Context) ([]entity.Record, error) {
	return c.list(ctx, pathMilestones)
}

// ListInvoices fetches every invoice visible to the token
func (c *Client) ListInvoices(ctx context.Context) ([]entity.Record, error) {
	return c.list(ctx, pathInvoices)
}

// ListExpenses fetches every expense request visible to the token
func (c *Client) ListExpenses(ctx context.Context) ([]entity.Record, error) {
	return c.list(ctx, pathExpenses)
}

// ListDisputes fetches every dispute visible to the token
func (c *Client) ListDisputes(ctx context.Context) ([]entity.Record, error) {
	return c.list(ctx, pathDisputes)
}

// ListHomeowners fetches the homeowner directory
func (c *Client) ListHomeowners(ctx context.Context) ([]entity.Record, error) {
	return c.list(ctx, pathHomeowners)
}

// GetAgreement fetches one agreement's detail
func (c *Client) GetAgreement(ctx context.Context, id string) (entity.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("get agreement: %w", ErrNotFound)
	}

	body, err := c.get(ctx, c.resolve(fmt.Sprintf(pathAgreement, url.PathEscape(id))))
	if err != nil {
		return nil, fmt.Errorf("get agreement %s: %w", id, err)
	}

	var rec entity.Record
	if err := decode(body, &rec); err != nil {
		return nil, fmt.Errorf("decode agreement %s: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("get agreement %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// page is the paginated envelope some backend revisions return
type page struct {
	Results []entity.Record `json:"results"`
	Next    *string         `json:"next"`
}

// list fetches a collection, following pagination links up to maxPages
func (c *Client) list(ctx context.Context, path string) ([]entity.Record, error) {
	next := c.resolve(path)
	if c.pageSize > 0 {
		q := next.Query()
		q.Set("page_size", strconv.Itoa(c.pageSize))
		next.RawQuery = q.Encode()
	}

	records := make([]entity.Record, 0)
	for pages := 0; next != nil; pages++ {
		if pages >= c.maxPages {
			c.logger.Warn("Pagination limit reached, returning partial list",
				zap.String("path", path),
				zap.Int("max_pages", c.maxPages),
				zap.Int("records", len(records)))
			break
		}

		body, err := c.get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}

		batch, link, err := decodeList(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		records = append(records, batch...)

		current := next
		next = nil
		if link != "" {
			u, err := current.Parse(link)
			if err != nil {
				return nil, fmt.Errorf("parse next link %q: %w", link, err)
			}
			next = u
		}
	}

	c.logger.Debug("Fetched collection", zap.String("path", path), zap.Int("count", len(records)))
	return records, nil
}

// decodeList accepts a bare array or a {"results", "next"} envelope
func decodeList(body []byte) ([]entity.Record, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}

	if trimmed[0] == '[' {
		var records []entity.Record
		if err := decode(trimmed, &records); err != nil {
			return nil, "", err
		}
		return records, "", nil
	}

	var p page
	if err := decode(trimmed, &p); err != nil {
		return nil, "", err
	}
	link := ""
	if p.Next != nil {
		link = strings.TrimSpace(*p.Next)
	}
	return p.Results, link, nil
}

// decode keeps numbers as json.Number so amounts are not rounded through float64
func decode(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	return &u
}

// get performs a GET with exponential backoff on retryable failures
func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	var body []byte

	op := func() error {
		b, err := c.do(ctx, u)
		if err != nil {
			if errors.Is(err, ErrBackendUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 0
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Retrying backend request",
			zap.String("url", u.Redacted()),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(c.maxRetries, 0))), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrBackendUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("backend rejected request: status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// Verify interface compliance
var _ port.PortalBackend = (*Client)(nil)
