// ABOUTME: MCP tool definitions and registration for the study data server
// ABOUTME: Every tool goes through the call router so results match the HTTP surface
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
)

var namespaceProperty = map[string]interface{}{
	"type":        "string",
	"description": "Keyed-blob namespace: user-progress (default), test-completions or user-unlocks",
	"enum":        []string{"user-progress", "test-completions", "user-unlocks"},
	"default":     "user-progress",
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, rt *router.Router, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.Nop()
	}
	handlers := &Handlers{router: rt, logger: logger.With("component", "mcp")}

	// 1. call - raw access to every route
	server.AddTool(mcp.Tool{
		Name:        "call",
		Description: "Call a study data route, e.g. GET cards?cert_id=220-1101 or PUT user-unlocks/{userId}/{key}. Returns {status, body}.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Route path with optional query string",
				},
				"method": map[string]interface{}{
					"type":        "string",
					"description": "GET, POST, PUT or DELETE (default: GET)",
					"default":     "GET",
				},
				"body": map[string]interface{}{
					"description": "JSON request body for POST/PUT",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.Call)

	// 2. get_cards - filtered card listing
	server.AddTool(mcp.Tool{
		Name:        "get_cards",
		Description: "List quiz cards, optionally filtered by certification, domain, subdomain and difficulty.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cert_id":      map[string]interface{}{"type": "string", "description": "Certification ID"},
				"domain_id":    map[string]interface{}{"type": "string", "description": "Domain ID"},
				"subdomain_id": map[string]interface{}{"type": "string", "description": "Subdomain ID"},
				"difficulty":   map[string]interface{}{"type": "string", "description": "Difficulty, compared case-insensitively"},
			},
		},
	}, handlers.GetCards)

	// 3. get_user_progress - read one user's keyed blobs
	server.AddTool(mcp.Tool{
		Name:        "get_user_progress",
		Description: "Get every stored value for a user in a keyed-blob namespace.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id":   map[string]interface{}{"type": "string", "description": "User ID"},
				"namespace": namespaceProperty,
			},
			Required: []string{"user_id"},
		},
	}, handlers.GetUserProgress)

	// 4. save_progress - write one keyed blob
	server.AddTool(mcp.Tool{
		Name:        "save_progress",
		Description: "Store a JSON value for a user and key in a keyed-blob namespace, replacing any previous value.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id":   map[string]interface{}{"type": "string", "description": "User ID"},
				"key":       map[string]interface{}{"type": "string", "description": "Key within the namespace"},
				"data":      map[string]interface{}{"description": "Any JSON value"},
				"namespace": namespaceProperty,
			},
			Required: []string{"user_id", "key", "data"},
		},
	}, handlers.SaveProgress)

	// 5. get_current_user - the active profile
	server.AddTool(mcp.Tool{
		Name:        "get_current_user",
		Description: "Get the active user profile, or null when none is selected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetCurrentUser)

	return handlers
}
