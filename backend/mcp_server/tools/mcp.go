package tools

import (
	"context"

	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const progressNotification = "notifications/progress"

// NewMCPServer returns an MCP server exposing every tool of r.
func (r *Registry) NewMCPServer(opts ...server.ServerOption) *server.MCPServer {
	opts = append([]server.ServerOption{server.WithToolCapabilities(false)}, opts...)
	s := server.NewMCPServer(r.name, r.version, opts...)
	s.AddTools(r.ServerTools()...)
	return s
}

// ServerTools returns the MCP tool definitions and handlers of r.
func (r *Registry) ServerTools() []server.ServerTool {
	list := make([]server.ServerTool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		list = append(list, server.ServerTool{
			Tool:    MCPTool(t.Definition),
			Handler: r.mcpHandler(t.Name),
		})
	}
	return list
}

func (r *Registry) mcpHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := r.Invoke(ctx, name, req.GetArguments(), MCPProgress(req))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(env.Text()), nil
	}
}

// MCPTool converts a definition to an MCP tool with a JSON schema.
func MCPTool(def Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Params {
		var props []mcp.PropertyOption
		if p.Description != "" {
			props = append(props, mcp.Description(p.Description))
		}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case TypeNumber:
			if p.Min != nil {
				props = append(props, mcp.Min(*p.Min))
			}
			if p.Max != nil {
				props = append(props, mcp.Max(*p.Max))
			}
			if f, ok := toFloat(p.Default); ok {
				props = append(props, mcp.DefaultNumber(f))
			}
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case TypeBoolean:
			if b, ok := p.Default.(bool); ok {
				props = append(props, mcp.DefaultBool(b))
			}
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		default:
			if p.Type == TypeEnum {
				props = append(props, mcp.Enum(p.Enum...))
			}
			if s, ok := p.Default.(string); ok {
				props = append(props, mcp.DefaultString(s))
			}
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

// MCPProgress returns a Reporter forwarding events as MCP progress
// notifications, or Discard when the client did not ask for progress.
func MCPProgress(req mcp.CallToolRequest) Reporter {
	if req.Params.Meta == nil || req.Params.Meta.ProgressToken == nil {
		return Discard
	}
	token := req.Params.Meta.ProgressToken
	return ReporterFunc(func(ctx context.Context, ev ProgressEvent) {
		srv := server.ServerFromContext(ctx)
		if srv == nil {
			return
		}
		err := srv.SendNotificationToClient(ctx, progressNotification, map[string]any{
			"progressToken": token,
			"progress":      ev.Progress,
			"total":         ev.Total,
			"message":       ev.Message,
		})
		if err != nil {
			logger.ContextKV(ctx, xlog.DEBUG, "reason", "progress", "err", err.Error())
		}
	})
}
