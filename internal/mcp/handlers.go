// ABOUTME: MCP tool handler implementations for the study data server
// ABOUTME: Handlers translate tool arguments into router calls and render the response as JSON text
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	router *router.Router
	logger logging.Logger
}

// Call handles the call tool
func (h *Handlers) Call(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}
	method := request.GetString("method", http.MethodGet)

	body, err := rawBody(request.GetArguments()["body"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := h.router.Handle(ctx, router.Request{Path: path, Method: method, Body: body})
	return render(resp, resp)
}

// GetCards handles the get_cards tool
func (h *Handlers) GetCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := url.Values{}
	for _, key := range []string{"cert_id", "domain_id", "subdomain_id", "difficulty"} {
		if v := request.GetString(key, ""); v != "" {
			query.Set(key, v)
		}
	}
	path := "cards"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp := h.router.Handle(ctx, router.Request{Path: path, Method: http.MethodGet})
	return render(resp, resp.Body)
}

// GetUserProgress handles the get_user_progress tool
func (h *Handlers) GetUserProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || userID == "" {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}
	ns, err := namespace(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := h.router.Handle(ctx, router.Request{
		Path:   ns + "/" + url.PathEscape(userID),
		Method: http.MethodGet,
	})
	return render(resp, resp.Body)
}

// SaveProgress handles the save_progress tool
func (h *Handlers) SaveProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "")
	key := request.GetString("key", "")
	ns, err := namespace(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// An empty segment would collapse the route, so reject here the way the API does
	if userID == "" || key == "" {
		return render(router.Response{Status: http.StatusOK}, local.Result{Error: local.ErrorMissing})
	}

	data, ok := request.GetArguments()["data"]
	if !ok {
		return mcp.NewToolResultError("data argument is required"), nil
	}
	body, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data is not JSON-serializable: %v", err)), nil
	}

	resp := h.router.Handle(ctx, router.Request{
		Path:   ns + "/" + url.PathEscape(userID) + "/" + url.PathEscape(key),
		Method: http.MethodPut,
		Body:   body,
	})
	h.logger.Debug("save_progress", "namespace", ns, "user_id", userID, "key", key, "status", resp.Status)
	return render(resp, resp.Body)
}

// GetCurrentUser handles the get_current_user tool
func (h *Handlers) GetCurrentUser(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := h.router.Handle(ctx, router.Request{Path: "users/current", Method: http.MethodGet})
	return render(resp, resp.Body)
}

// render turns a router response into a tool result. 5xx responses are tool errors.
func render(resp router.Response, payload any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	if resp.Status >= http.StatusInternalServerError {
		return mcp.NewToolResultError(string(responseJSON)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// rawBody accepts a JSON value or a string holding JSON text
func rawBody(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		if json.Valid([]byte(s)) {
			return json.RawMessage(s), nil
		}
		v = s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("body is not JSON-serializable: %w", err)
	}
	return data, nil
}

func namespace(request mcp.CallToolRequest) (string, error) {
	ns := strings.TrimSpace(request.GetString("namespace", "user-progress"))
	switch ns {
	case "", "progress", "user-progress":
		return "user-progress", nil
	case "test-completions", "user-unlocks":
		return ns, nil
	case "unlocks":
		return "user-unlocks", nil
	}
	return "", fmt.Errorf("unknown namespace %q", ns)
}
