package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ums-dashboard/bff/internal/infrastructure/backend"
	"github.com/ums-dashboard/bff/internal/transport/http/middleware"
)

// ProxyBackend is the slice of the backend client the relay needs.
type ProxyBackend interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
}

// Proxy instantiates the relay contract every authenticated route follows:
// bearer token from the session cookie, one upstream call, status and body
// relayed verbatim. Route handlers are produced by Forward; no route carries
// its own relay logic.
type Proxy struct {
	backend ProxyBackend
}

func NewProxy(bc ProxyBackend) *Proxy { return &Proxy{backend: bc} }

type routeOptions struct {
	query     []string
	json      bool
	multipart bool
}

// RouteOption parameterizes one relayed route.
type RouteOption func(*routeOptions)

// WithQuery forwards only the named query parameters upstream. Anything not
// on the list is dropped, so internal browser-side parameters never leak.
func WithQuery(names ...string) RouteOption {
	return func(o *routeOptions) { o.query = names }
}

// WithJSONBody forwards the request body upstream as application/json.
func WithJSONBody() RouteOption {
	return func(o *routeOptions) { o.json = true }
}

// WithMultipartBody parses the incoming form and re-encodes it
// field-for-field into a fresh multipart body before forwarding.
func WithMultipartBody() RouteOption {
	return func(o *routeOptions) { o.multipart = true }
}

var pathParam = regexp.MustCompile(`\{([^{}]+)\}`)

// Forward returns the handler for one relayed route. Placeholders in path
// are filled from the matching chi URL params.
func (p *Proxy) Forward(method, path string, opts ...RouteOption) http.HandlerFunc {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.TokenFromContext(r.Context())
		if !ok {
			// The session middleware guards every relayed route; reaching
			// here without a token means a wiring mistake, still a 401.
			writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		upstreamPath := pathParam.ReplaceAllStringFunc(path, func(m string) string {
			return url.PathEscape(chi.URLParam(r, strings.Trim(m, "{}")))
		})
		req := backend.Request{Method: method, Path: upstreamPath, Bearer: token}

		if len(o.query) > 0 {
			incoming := r.URL.Query()
			q := url.Values{}
			for _, name := range o.query {
				if vs, ok := incoming[name]; ok {
					q[name] = vs
				}
			}
			req.Query = q
		}

		switch {
		case o.multipart:
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				writeMessage(w, http.StatusBadRequest, "invalid multipart form")
				return
			}
			body, contentType, err := backend.EncodeMultipart(r.MultipartForm)
			if err != nil {
				slog.Error("multipart re-encode failed", "path", upstreamPath, "err", err)
				writeMessage(w, http.StatusInternalServerError, "internal error")
				return
			}
			req.Body = body
			req.ContentType = contentType
		case o.json:
			req.Body = r.Body
			req.ContentType = "application/json"
		}

		resp, err := p.backend.Do(r.Context(), req)
		if err != nil {
			slog.Warn("backend call failed", "method", method, "path", upstreamPath, "err", err)
			writeMessage(w, http.StatusBadGateway, "backend unavailable")
			return
		}
		relayBody(w, resp.Status, resp.ContentType, resp.Body)
	}
}
