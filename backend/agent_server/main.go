// Command agent_server answers natural language requests with an Ollama
// model bound to the tools of one or more MCP servers.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/aistudiolabx/mcp-tools", "agent_server")

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(reason string, err error) {
	logger.KV(xlog.ERROR, "reason", reason, "err", err.Error())
	os.Exit(1)
}

func main() {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	ctx := context.Background()

	endpoints := parseEndpoints(os.Getenv("MCP_ENDPOINTS"))
	tools, clients, err := loadTools(ctx, endpoints)
	if err != nil {
		fatal("load_tools", err)
	}
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	mc := ModelConfig{
		BaseURL: getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		Model:   getenv("OLLAMA_MODEL", "qwen2.5:7b"),
	}
	agent, err := buildAgent(ctx, mc, tools, false)
	if err != nil {
		fatal("build_agent", err)
	}
	toolAgent, err := buildAgent(ctx, mc, tools, true)
	if err != nil {
		fatal("build_tool_agent", err)
	}

	addr := getenv("AGENT_ADDR", ":8082")
	logger.KV(xlog.INFO, "status", "listening", "addr", addr, "tools", len(tools), "model", mc.Model)

	if err := http.ListenAndServe(addr, newRouter(agent, toolAgent, getenv("CORS_ORIGIN", "http://localhost:8081"))); err != nil {
		fatal("listen", err)
	}
}
