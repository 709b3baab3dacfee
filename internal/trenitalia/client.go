package trenitalia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

// APIError carries the upstream status code and payload so callers can log
// the full failure context. The dispatcher treats any search error as
// "this date failed, continue".
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("trenitalia: upstream status %d: %s", e.StatusCode, body)
}

type Config struct {
	APIURL string
	// Timeout bounds one search round-trip. 0 disables the client timeout;
	// the caller's context still applies.
	Timeout time.Duration
}

// Client executes search requests against the Trenitalia solutions API.
type Client struct {
	apiURL string
	hc     *http.Client
	log    logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	url := strings.TrimSpace(cfg.APIURL)
	if url == "" {
		return nil, errors.New("trenitalia: api_url is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		apiURL: url,
		hc:     &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}, nil
}

// Search posts the request and decodes the solution list.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("trenitalia: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("trenitalia: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("trenitalia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("trenitalia: decode response: %w", err)
	}

	c.log.Debug("search completed",
		logx.String("date", req.DepartureTime),
		logx.Int("solutions", len(out.Solutions)),
		logx.Duration("took", time.Since(start)),
	)
	return &out, nil
}
