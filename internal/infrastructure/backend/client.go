package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ums-dashboard/bff/internal/config"
	"github.com/ums-dashboard/bff/internal/domain"
)

// Request describes one upstream call. Body may be nil for body-less methods.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Bearer      string
}

// Response is a fully-read upstream response. Bodies here are small JSON or
// text payloads, so buffering them keeps relaying and parsing simple.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the response should be relayed on the JSON branch.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

// Client calls the backend REST API. The embedded http.Client carries an
// explicit timeout so an unreachable backend never hangs a handler.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendBaseURL, "/"),
		hc:      &http.Client{Timeout: cfg.BackendTimeout},
	}
}

// Do executes req against the backend and returns the buffered response.
// Any transport failure (refused connection, timeout, DNS) wraps
// domain.ErrBackendUnavailable; non-2xx statuses are NOT errors, since the
// relay contract passes backend statuses through verbatim.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, req.Body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", domain.ErrBackendUnavailable)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
