// Package router maps (path, method, body) calls onto the local data API.
//
// The same Router backs the HTTP surface, the MCP tools and the CLI shell,
// so every caller sees identical status codes and bodies.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
)

// Request is one abstract call. Path may carry a query string.
type Request struct {
	Path   string          `json:"path"`
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Response is the status and JSON-serializable body of a call
type Response struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

// ErrorBody is the body of 404 and 500 responses
type ErrorBody struct {
	Error string `json:"error"`
}

// NotFound is the body for unmatched routes
var NotFound = ErrorBody{Error: "not found"}

// Router dispatches calls to an API
type Router struct {
	api    *local.API
	logger logging.Logger
	routes []route
}

// New returns a Router over api
func New(api *local.API, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Router{api: api, logger: logger.With("component", "router")}
	r.routes = r.table()
	return r
}

// Handle runs one call. It never panics and never returns an error:
// failures become a 500 response carrying the error message.
func (r *Router) Handle(ctx context.Context, req Request) (resp Response) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.logger.Error("call panicked", "method", method, "path", req.Path, "error", err)
			resp = Response{Status: http.StatusInternalServerError, Body: ErrorBody{Error: err.Error()}}
		}
	}()

	segments, query := splitPath(req.Path)
	for _, rt := range r.routes {
		params, ok := rt.match(method, segments)
		if !ok {
			continue
		}
		body, err := rt.handler(ctx, &call{params: params, query: query, body: req.Body})
		if err != nil {
			r.logger.Error("call failed", "method", method, "path", req.Path, "error", err)
			return Response{Status: http.StatusInternalServerError, Body: ErrorBody{Error: err.Error()}}
		}
		return Response{Status: http.StatusOK, Body: body}
	}

	r.logger.Debug("no route", "method", method, "path", req.Path)
	return Response{Status: http.StatusNotFound, Body: NotFound}
}

// splitPath trims slashes and an optional api/ prefix and parses the query string.
// For repeated query keys the first value wins.
func splitPath(raw string) ([]string, map[string]string) {
	path, rawQuery, _ := strings.Cut(raw, "?")

	query := map[string]string{}
	if rawQuery != "" {
		values, _ := url.ParseQuery(rawQuery)
		for k, v := range values {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
	}

	path = strings.Trim(path, "/")
	if path == "api" {
		path = ""
	}
	path = strings.TrimPrefix(path, "api/")
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, query
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		if u, err := url.PathUnescape(s); err == nil {
			segments[i] = u
		}
	}
	return segments, query
}
